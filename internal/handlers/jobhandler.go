package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/justsurfingit/jobboard/internal/apperr"
	"github.com/justsurfingit/jobboard/internal/authz"
	"github.com/justsurfingit/jobboard/internal/dtos"
	"github.com/justsurfingit/jobboard/internal/middleware"
	"github.com/justsurfingit/jobboard/internal/services"
)

type JobHandler struct {
	LLMService *services.LLMService
	JobService *services.JobService
}

// NewJobHandler creates the handler with dependencies
func NewJobHandler(llm *services.LLMService, j *services.JobService) *JobHandler {
	return &JobHandler{
		LLMService: llm,
		JobService: j,
	}
}

// ListJobs is GET /jobs. Query: category, location, employment_type,
// search, ordering, page.
func (h *JobHandler) ListJobs(c *gin.Context) {
	filter := dtos.JobFilter{
		Location:       c.Query("location"),
		EmploymentType: c.Query("employment_type"),
		Search:         c.Query("search"),
		Ordering:       c.Query("ordering"),
	}
	if raw := c.Query("category"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, apperr.Validation("invalid request", map[string]string{"category": "must be a category id"}))
			return
		}
		categoryID := uint(id)
		filter.CategoryID = &categoryID
	}
	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			respondError(c, apperr.NotFound("invalid page"))
			return
		}
		filter.Page = page
	}

	page, err := h.JobService.List(c.Request.Context(), middleware.PrincipalFrom(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewJobPage(page))
}

func (h *JobHandler) GetJob(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	job, err := h.JobService.Get(c.Request.Context(), middleware.PrincipalFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewJobResponse(job))
}

func (h *JobHandler) CreateJob(c *gin.Context) {
	if !authorized(c, authz.ResourceJob, authz.ActionCreate) {
		return
	}
	var req dtos.JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}
	job, err := h.JobService.Create(c.Request.Context(), middleware.PrincipalFrom(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dtos.NewJobResponse(job))
}

// UpdateJob serves PUT (every field required) and PATCH (partial).
func (h *JobHandler) UpdateJob(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if !authorized(c, authz.ResourceJob, authz.ActionUpdate) {
		return
	}
	var req dtos.JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}
	partial := c.Request.Method == http.MethodPatch
	job, err := h.JobService.Update(c.Request.Context(), middleware.PrincipalFrom(c), id, &req, partial)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewJobResponse(job))
}

func (h *JobHandler) DeleteJob(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.JobService.Delete(c.Request.Context(), middleware.PrincipalFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ParseJob is the POST /jobs/extract endpoint
func (h *JobHandler) ParseJob(c *gin.Context) {
	if !authorized(c, authz.ResourceJob, authz.ActionCreate) {
		return
	}
	var req dtos.JobExtractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}
	draft, err := h.LLMService.ExtractJobDetails(c.Request.Context(), middleware.PrincipalFrom(c), req.RawHTML)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    draft,
	})
}
