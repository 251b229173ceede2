// Package server assembles the gin engine: middleware order, routes and
// the handlers behind them.
package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/justsurfingit/jobboard/internal/auth"
	"github.com/justsurfingit/jobboard/internal/handlers"
	"github.com/justsurfingit/jobboard/internal/logging"
	"github.com/justsurfingit/jobboard/internal/metrics"
	"github.com/justsurfingit/jobboard/internal/middleware"
	"github.com/justsurfingit/jobboard/internal/services"
)

type Options struct {
	DB             *gorm.DB
	Log            *logrus.Logger
	Tokens         *auth.Tokens
	Registry       *prometheus.Registry
	Metrics        *metrics.Metrics
	Generator      services.Generator
	ApplyLimiter   middleware.Limiter
	ApplyWindow    time.Duration
	AllowedOrigins []string
	PageSize       int
	MediaRoot      string
	MaxUploadBytes int64
}

func NewRouter(opts Options) *gin.Engine {
	handlers.RegisterValidation()

	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	jobService := services.NewJobService(opts.DB, opts.PageSize)
	categoryService := services.NewCategoryService(opts.DB)
	applicationService := services.NewApplicationService(opts.DB, services.DBNotifier{}, opts.Metrics, log)
	favoriteService := services.NewFavoriteService(opts.DB, opts.Metrics, log)
	notificationService := services.NewNotificationService(opts.DB)
	llmService := services.NewLLMService(opts.Generator, services.NewMatcherService(opts.DB), log)

	jobHandler := handlers.NewJobHandler(llmService, jobService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	applicationHandler := handlers.NewApplicationHandler(applicationService, opts.MediaRoot, opts.MaxUploadBytes, log)
	favoriteHandler := handlers.NewFavoriteHandler(favoriteService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logging.RequestID())
	r.Use(logging.Middleware(log, middleware.UserIDKey))
	r.Use(cors.New(corsConfig(opts.AllowedOrigins)))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware())
	}
	r.Use(middleware.NewAuthenticator(opts.Tokens, opts.DB, log).Handler())

	r.GET("/health", handlers.Health(opts.DB))
	if opts.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api/v1")
	{
		api.GET("/categories", categoryHandler.List)
		api.POST("/categories", categoryHandler.Create)
		api.GET("/categories/:id", categoryHandler.Get)
		api.PUT("/categories/:id", categoryHandler.Update)
		api.PATCH("/categories/:id", categoryHandler.Update)
		api.DELETE("/categories/:id", categoryHandler.Delete)

		api.GET("/jobs", jobHandler.ListJobs)
		api.POST("/jobs", jobHandler.CreateJob)
		api.POST("/jobs/extract", jobHandler.ParseJob)
		api.GET("/jobs/:id", jobHandler.GetJob)
		api.PUT("/jobs/:id", jobHandler.UpdateJob)
		api.PATCH("/jobs/:id", jobHandler.UpdateJob)
		api.DELETE("/jobs/:id", jobHandler.DeleteJob)

		applyLimit := func(c *gin.Context) { c.Next() }
		if opts.ApplyLimiter != nil {
			applyLimit = middleware.RateLimit(opts.ApplyLimiter, middleware.PerUser, opts.ApplyWindow, log)
		}
		api.GET("/applications", applicationHandler.List)
		api.POST("/applications", applyLimit, applicationHandler.Create)
		api.GET("/applications/:id", applicationHandler.Get)
		api.PUT("/applications/:id", applicationHandler.Update)
		api.PATCH("/applications/:id", applicationHandler.Update)
		api.DELETE("/applications/:id", applicationHandler.Delete)

		api.GET("/favorite-jobs", favoriteHandler.List)
		api.POST("/favorite-jobs", favoriteHandler.Create)
		api.GET("/favorite-jobs/:id", favoriteHandler.Get)
		api.PUT("/favorite-jobs/:id", favoriteHandler.Update)
		api.PATCH("/favorite-jobs/:id", favoriteHandler.Update)
		api.DELETE("/favorite-jobs/:id", favoriteHandler.Delete)

		api.GET("/notifications", notificationHandler.List)
		api.GET("/notifications/:id", notificationHandler.Get)
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	config := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
	}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", logging.RequestIDHeader}
	config.ExposeHeaders = []string{logging.RequestIDHeader}
	return config
}
