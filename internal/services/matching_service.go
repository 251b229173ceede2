package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/justsurfingit/jobboard/internal/apperr"
	"github.com/justsurfingit/jobboard/internal/models"
)

type MatcherService struct {
	DB *gorm.DB
}

func NewMatcherService(db *gorm.DB) *MatcherService {
	return &MatcherService{DB: db}
}

// MatchCategory picks the category whose name appears in the draft. The
// title wins over the tech stack, which wins over the description.
func (s *MatcherService) MatchCategory(ctx context.Context, draft *JobDraft) (*models.Category, error) {
	var categories []models.Category
	if err := s.DB.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, apperr.Internal("failed to load categories", err)
	}

	haystacks := []string{
		lowerOf(draft.Title),
		strings.ToLower(strings.Join(draft.TechStack, " ")),
		lowerOf(draft.Description),
	}
	for _, text := range haystacks {
		if text == "" {
			continue
		}
		for i := range categories {
			name := strings.ToLower(categories[i].Name)
			// Very short names match almost anything.
			if len(name) < 3 {
				continue
			}
			if strings.Contains(text, name) {
				return &categories[i], nil
			}
		}
	}
	return nil, nil
}

func lowerOf(s *string) string {
	if s == nil {
		return ""
	}
	return strings.ToLower(*s)
}
