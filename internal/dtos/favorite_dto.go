package dtos

import (
	"time"

	"github.com/justsurfingit/jobboard/internal/models"
)

type CategoryRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Description *string `json:"description"`
}

type FavoriteJobRequest struct {
	JobID uint `json:"job_id" binding:"required,min=1"`
}

type FavoriteJobResponse struct {
	ID       uint      `json:"id"`
	JobID    uint      `json:"job_id"`
	JobTitle string    `json:"job_title"`
	AddedAt  time.Time `json:"added_at"`
}

func NewFavoriteJobResponse(fav *models.FavoriteJob) FavoriteJobResponse {
	resp := FavoriteJobResponse{ID: fav.ID, JobID: fav.JobID, AddedAt: fav.AddedAt}
	if fav.Job != nil {
		resp.JobTitle = fav.Job.Title
	}
	return resp
}

func NewFavoriteJobResponses(favs []models.FavoriteJob) []FavoriteJobResponse {
	out := make([]FavoriteJobResponse, 0, len(favs))
	for i := range favs {
		out = append(out, NewFavoriteJobResponse(&favs[i]))
	}
	return out
}
