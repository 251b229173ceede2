package dtos

import (
	"time"

	"github.com/justsurfingit/jobboard/internal/models"
)

// ApplicationRequest is bound from JSON or multipart form. Any status a
// client sends is ignored: applications always start PENDING.
type ApplicationRequest struct {
	JobID       uint   `json:"job_id" form:"job_id" binding:"required,min=1"`
	Resume      string `json:"resume" form:"-"`
	CoverLetter string `json:"cover_letter" form:"cover_letter"`
}

type ApplicationStatusRequest struct {
	Status string `json:"status"`
}

type ApplicationResponse struct {
	ID                uint                     `json:"id"`
	JobID             uint                     `json:"job_id"`
	JobTitle          string                   `json:"job_title"`
	CandidateID       uint                     `json:"candidate_id"`
	CandidateUsername string                   `json:"candidate_username"`
	Resume            string                   `json:"resume"`
	CoverLetter       string                   `json:"cover_letter"`
	Status            models.ApplicationStatus `json:"status"`
	AppliedAt         time.Time                `json:"applied_at"`
}

func NewApplicationResponse(app *models.Application) ApplicationResponse {
	resp := ApplicationResponse{
		ID:          app.ID,
		JobID:       app.JobID,
		CandidateID: app.CandidateID,
		Resume:      app.Resume,
		CoverLetter: app.CoverLetter,
		Status:      app.Status,
		AppliedAt:   app.AppliedAt,
	}
	if app.Job != nil {
		resp.JobTitle = app.Job.Title
	}
	if app.Candidate != nil {
		resp.CandidateUsername = app.Candidate.Username
	}
	return resp
}

func NewApplicationResponses(apps []models.Application) []ApplicationResponse {
	out := make([]ApplicationResponse, 0, len(apps))
	for i := range apps {
		out = append(out, NewApplicationResponse(&apps[i]))
	}
	return out
}
