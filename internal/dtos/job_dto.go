package dtos

import (
	"time"

	"github.com/justsurfingit/jobboard/internal/models"
)

type JobExtractionRequest struct {
	RawHTML string `json:"raw_html" binding:"required"`
	URL     string `json:"url"`
}

// JobRequest serves create, PUT and PATCH; nil fields are "not supplied".
type JobRequest struct {
	Title          *string `json:"title" binding:"omitempty,max=200"`
	Description    *string `json:"description"`
	CategoryID     *uint   `json:"category_id" binding:"omitempty,min=1"`
	Location       *string `json:"location" binding:"omitempty,max=200"`
	EmploymentType *string `json:"employment_type" binding:"omitempty,oneof=FT PT CT IN TP"`
	IsActive       *bool   `json:"is_active"`
}

type JobFilter struct {
	CategoryID     *uint
	Location       string
	EmploymentType string
	Search         string
	Ordering       string
	Page           int
}

type JobResponse struct {
	ID                uint                  `json:"id"`
	Title             string                `json:"title"`
	Description       string                `json:"description"`
	Location          string                `json:"location"`
	EmploymentType    models.EmploymentType `json:"employment_type"`
	Category          *models.Category      `json:"category"`
	CreatedByUsername string                `json:"created_by_username,omitempty"`
	IsActive          bool                  `json:"is_active"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

func NewJobResponse(job *models.Job) JobResponse {
	resp := JobResponse{
		ID:             job.ID,
		Title:          job.Title,
		Description:    job.Description,
		Location:       job.Location,
		EmploymentType: job.EmploymentType,
		Category:       job.Category,
		IsActive:       job.IsActive,
		CreatedAt:      job.CreatedAt,
		UpdatedAt:      job.UpdatedAt,
	}
	if job.CreatedBy != nil {
		resp.CreatedByUsername = job.CreatedBy.Username
	}
	return resp
}

func NewJobResponses(jobs []models.Job) []JobResponse {
	out := make([]JobResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, NewJobResponse(&jobs[i]))
	}
	return out
}

type Page[T any] struct {
	Count    int64 `json:"count"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Next     *int  `json:"next"`
	Previous *int  `json:"previous"`
	Results  []T   `json:"results"`
}

// NewPage fills in the neighbouring page numbers.
func NewPage[T any](results []T, count int64, page, pageSize int) Page[T] {
	p := Page[T]{Count: count, Page: page, PageSize: pageSize, Results: results}
	if page > 1 {
		prev := page - 1
		p.Previous = &prev
	}
	if int64(page*pageSize) < count {
		next := page + 1
		p.Next = &next
	}
	if p.Results == nil {
		p.Results = []T{}
	}
	return p
}

func NewJobPage(page *Page[models.Job]) Page[JobResponse] {
	return Page[JobResponse]{
		Count:    page.Count,
		Page:     page.Page,
		PageSize: page.PageSize,
		Next:     page.Next,
		Previous: page.Previous,
		Results:  NewJobResponses(page.Results),
	}
}
