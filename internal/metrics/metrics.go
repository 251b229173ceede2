// Package metrics holds the prometheus collectors for the API.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	requests             *prometheus.CounterVec
	duration             *prometheus.HistogramVec
	applicationsCreated  prometheus.Counter
	conflicts            *prometheus.CounterVec
	notificationsCreated prometheus.Counter
}

// New registers the collectors with reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jobboard",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "jobboard",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		applicationsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "jobboard",
			Name:      "applications_created_total",
			Help:      "Applications committed.",
		}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jobboard",
			Name:      "write_conflicts_total",
			Help:      "Writes rejected by a uniqueness rule, by conflict code.",
		}, []string{"code"}),
		notificationsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "jobboard",
			Name:      "notifications_created_total",
			Help:      "Notifications emitted.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration, m.applicationsCreated, m.conflicts, m.notificationsCreated)
	}
	return m
}

func (m *Metrics) ApplicationCreated() {
	if m == nil {
		return
	}
	m.applicationsCreated.Inc()
}

func (m *Metrics) Conflict(code string) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(code).Inc()
}

func (m *Metrics) NotificationCreated() {
	if m == nil {
		return
	}
	m.notificationsCreated.Inc()
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
