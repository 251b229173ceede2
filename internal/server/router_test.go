package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/justsurfingit/jobboard/internal/auth"
	"github.com/justsurfingit/jobboard/internal/dtos"
	"github.com/justsurfingit/jobboard/internal/metrics"
	"github.com/justsurfingit/jobboard/internal/middleware"
	"github.com/justsurfingit/jobboard/internal/models"
	"github.com/justsurfingit/jobboard/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type apiFixture struct {
	router    *gin.Engine
	db        *gorm.DB
	tokens    *auth.Tokens
	media     string
	admin     *models.User
	alice     *models.User
	bob       *models.User
	category  *models.Category
	job       *models.Job
	hiddenJob *models.Job
}

func newAPI(t *testing.T, limit int) *apiFixture {
	t.Helper()
	db := testutil.NewDB(t)
	logger, _ := test.NewNullLogger()
	reg := prometheus.NewRegistry()

	f := &apiFixture{db: db, tokens: auth.NewTokens("test-secret", time.Hour), media: t.TempDir()}
	f.admin = testutil.CreateUser(t, db, "admin", models.RoleAdmin)
	f.alice = testutil.CreateUser(t, db, "alice", models.RoleCandidate)
	f.bob = testutil.CreateUser(t, db, "bob", models.RoleCandidate)
	f.category = testutil.CreateCategory(t, db, "Software")
	f.job = testutil.CreateJob(t, db, f.category, "Backend Engineer", testutil.PostedBy(f.admin))
	f.hiddenJob = testutil.CreateJob(t, db, f.category, "Closed", testutil.PostedBy(f.admin), testutil.Inactive())

	f.router = NewRouter(Options{
		DB:             db,
		Log:            logger,
		Tokens:         f.tokens,
		Registry:       reg,
		Metrics:        metrics.New(reg),
		ApplyLimiter:   middleware.NewMemoryLimiter(limit, time.Minute),
		ApplyWindow:    time.Minute,
		PageSize:       10,
		MediaRoot:      f.media,
		MaxUploadBytes: 1 << 20,
	})
	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, user *models.User, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	f.authorize(t, req, user)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) authorize(t *testing.T, req *http.Request, user *models.User) {
	t.Helper()
	if user == nil {
		return
	}
	token, err := f.tokens.Issue(user)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorDetail {
	t.Helper()
	var body middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Error
}

func TestApplyFlow(t *testing.T) {
	f := newAPI(t, 10)
	body := map[string]interface{}{"job_id": f.job.ID, "resume": "resumes/alice.pdf", "status": "ACCEPTED"}

	w := f.do(t, http.MethodPost, "/api/v1/applications", f.alice, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var app dtos.ApplicationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &app))
	assert.Equal(t, models.StatusPending, app.Status)
	assert.Equal(t, "alice", app.CandidateUsername)
	assert.Equal(t, "Backend Engineer", app.JobTitle)

	w = f.do(t, http.MethodPost, "/api/v1/applications", f.alice, body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "duplicate_application", decodeError(t, w).Code)

	w = f.do(t, http.MethodGet, "/api/v1/notifications", f.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var notifications []models.Notification
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &notifications))
	require.Len(t, notifications, 1)
	assert.Equal(t, fmt.Sprintf("/api/v1/applications/%d", app.ID), notifications[0].Link)

	appPath := fmt.Sprintf("/api/v1/applications/%d", app.ID)
	w = f.do(t, http.MethodGet, appPath, f.bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodPatch, appPath, f.alice, map[string]string{"status": "ACCEPTED"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodPatch, appPath, f.admin, map[string]string{"status": "ACCEPTED"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodPatch, appPath, f.admin, map[string]string{"status": "REJECTED"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation", decodeError(t, w).Kind)
}

func TestAuthenticationErrors(t *testing.T) {
	f := newAPI(t, 10)

	w := f.do(t, http.MethodGet, "/api/v1/applications", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "authentication_required", decodeError(t, w).Kind)

	w = f.do(t, http.MethodPost, "/api/v1/jobs", f.alice, map[string]string{"title": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/jobs", nil, map[string]string{"title": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJobEndpoints(t *testing.T) {
	f := newAPI(t, 10)

	w := f.do(t, http.MethodGet, "/api/v1/jobs", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page dtos.Page[dtos.JobResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.EqualValues(t, 1, page.Count)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "admin", page.Results[0].CreatedByUsername)
	require.NotNil(t, page.Results[0].Category)
	assert.Equal(t, "Software", page.Results[0].Category.Name)

	w = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/jobs/%d", f.hiddenJob.ID), nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	for _, page := range []string{"5", "0", "-1", "x"} {
		w = f.do(t, http.MethodGet, "/api/v1/jobs?page="+page, nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, "page=%s", page)
	}

	w = f.do(t, http.MethodPost, "/api/v1/jobs", f.admin, map[string]interface{}{
		"title":           "SRE",
		"description":     "Pager duty",
		"category_id":     f.category.ID,
		"location":        "Remote",
		"employment_type": "XX",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w).Fields, "employment_type")

	w = f.do(t, http.MethodPost, "/api/v1/jobs", f.admin, map[string]interface{}{
		"title":           "SRE",
		"description":     "Pager duty",
		"category_id":     f.category.ID,
		"location":        "Remote",
		"employment_type": "CT",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/v1/jobs/extract", f.admin, map[string]string{"raw_html": "<p>job</p>"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decodeError(t, w).Message)
}

func TestFavoriteEndpoints(t *testing.T) {
	f := newAPI(t, 10)

	w := f.do(t, http.MethodPost, "/api/v1/favorite-jobs", f.alice, map[string]interface{}{"job_id": f.job.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/v1/favorite-jobs", f.alice, map[string]interface{}{"job_id": f.job.ID})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_favorited", decodeError(t, w).Code)

	w = f.do(t, http.MethodPost, "/api/v1/favorite-jobs", f.alice, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w).Fields, "job_id")

	w = f.do(t, http.MethodGet, "/api/v1/favorite-jobs", f.bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestApplyRateLimit(t *testing.T) {
	f := newAPI(t, 1)

	w := f.do(t, http.MethodPost, "/api/v1/applications", f.alice, map[string]interface{}{"job_id": f.job.ID, "resume": "r.pdf"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/applications", f.alice, map[string]interface{}{"job_id": f.job.ID, "resume": "r.pdf"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	// Bob has his own budget.
	w = f.do(t, http.MethodPost, "/api/v1/applications", f.bob, map[string]interface{}{"job_id": f.job.ID, "resume": "r.pdf"})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestMultipartResumeUpload(t *testing.T) {
	f := newAPI(t, 10)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("job_id", fmt.Sprint(f.job.ID)))
	require.NoError(t, mw.WriteField("cover_letter", "Hire me"))
	part, err := mw.CreateFormFile("resume", "CV.PDF")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/applications", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	f.authorize(t, req, f.alice)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var app dtos.ApplicationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &app))
	assert.True(t, strings.HasPrefix(app.Resume, "resumes/"))
	assert.True(t, strings.HasSuffix(app.Resume, ".pdf"))
	assert.Equal(t, "Hire me", app.CoverLetter)

	stored, err := os.ReadFile(filepath.Join(f.media, filepath.FromSlash(app.Resume)))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(stored))
}

func TestHealthAndMetrics(t *testing.T) {
	f := newAPI(t, 10)

	w := f.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	f.do(t, http.MethodGet, "/api/v1/categories", nil, nil)
	w = f.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `jobboard_http_requests_total{method="GET",route="/api/v1/categories",status="200"} 1`)
}

func TestWritesCheckCallerBeforeBody(t *testing.T) {
	f := newAPI(t, 10)
	app := models.Application{JobID: f.job.ID, CandidateID: f.alice.ID, Resume: "resumes/alice.pdf", Status: models.StatusPending}
	require.NoError(t, f.db.Create(&app).Error)
	fav := models.FavoriteJob{UserID: f.alice.ID, JobID: f.job.ID}
	require.NoError(t, f.db.Create(&fav).Error)

	appPath := fmt.Sprintf("/api/v1/applications/%d", app.ID)
	favPath := fmt.Sprintf("/api/v1/favorite-jobs/%d", fav.ID)
	jobPath := fmt.Sprintf("/api/v1/jobs/%d", f.job.ID)
	badStatus := map[string]interface{}{"status": 5}

	cases := []struct {
		name   string
		method string
		path   string
		user   *models.User
		body   interface{}
		want   int
	}{
		{"anonymous status change", http.MethodPatch, appPath, nil, badStatus, http.StatusUnauthorized},
		{"owner status change", http.MethodPatch, appPath, f.alice, badStatus, http.StatusForbidden},
		{"other candidate status change", http.MethodPatch, appPath, f.bob, badStatus, http.StatusNotFound},
		{"admin malformed status", http.MethodPatch, appPath, f.admin, badStatus, http.StatusBadRequest},
		{"anonymous category create", http.MethodPost, "/api/v1/categories", nil, map[string]interface{}{"name": 5}, http.StatusUnauthorized},
		{"candidate category create", http.MethodPost, "/api/v1/categories", f.alice, map[string]interface{}{"name": 5}, http.StatusForbidden},
		{"anonymous job update", http.MethodPatch, jobPath, nil, map[string]interface{}{"title": 5}, http.StatusUnauthorized},
		{"candidate job update", http.MethodPatch, jobPath, f.alice, map[string]interface{}{"title": 5}, http.StatusForbidden},
		{"candidate extract", http.MethodPost, "/api/v1/jobs/extract", f.alice, map[string]interface{}{"raw_html": 5}, http.StatusForbidden},
		{"anonymous favorite create", http.MethodPost, "/api/v1/favorite-jobs", nil, map[string]interface{}{"job_id": "x"}, http.StatusUnauthorized},
		{"other user favorite update", http.MethodPatch, favPath, f.bob, map[string]interface{}{"job_id": "x"}, http.StatusNotFound},
		{"owner malformed favorite update", http.MethodPatch, favPath, f.alice, map[string]interface{}{"job_id": "x"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := f.do(t, tc.method, tc.path, tc.user, tc.body)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}

	var stored models.Application
	require.NoError(t, f.db.First(&stored, app.ID).Error)
	assert.Equal(t, models.StatusPending, stored.Status)
}
