package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/justsurfingit/jobboard/internal/apperr"
	"github.com/justsurfingit/jobboard/internal/authz"
	"github.com/justsurfingit/jobboard/internal/dtos"
	"github.com/justsurfingit/jobboard/internal/models"
)

const categoryExists = "category with this name already exists"

type CategoryService struct {
	DB *gorm.DB
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{DB: db}
}

func (s *CategoryService) List(ctx context.Context, p authz.Principal, search string) ([]models.Category, error) {
	if _, err := authz.ListScope(p, authz.ResourceCategory); err != nil {
		return nil, err
	}
	q := s.DB.WithContext(ctx).Order("name ASC")
	if search = strings.TrimSpace(search); search != "" {
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, containsPattern(strings.ToLower(search)))
	}
	var categories []models.Category
	if err := q.Find(&categories).Error; err != nil {
		return nil, apperr.Internal("failed to list categories", err)
	}
	return categories, nil
}

func (s *CategoryService) Get(ctx context.Context, p authz.Principal, id uint) (*models.Category, error) {
	if err := authz.Authorize(p, authz.ResourceCategory, authz.ActionRetrieve, nil); err != nil {
		return nil, err
	}
	var category models.Category
	if err := s.DB.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, lookupError(err, "category not found")
	}
	return &category, nil
}

func (s *CategoryService) Create(ctx context.Context, p authz.Principal, req *dtos.CategoryRequest) (*models.Category, error) {
	if err := authz.Authorize(p, authz.ResourceCategory, authz.ActionCreate, nil); err != nil {
		return nil, err
	}
	category := models.Category{}
	if err := applyCategory(&category, req, false); err != nil {
		return nil, err
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUniqueName(tx, category.Name, 0); err != nil {
			return err
		}
		if err := tx.Create(&category).Error; err != nil {
			return writeError(err, apperr.CodeUniqueViolation, categoryExists)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *CategoryService) Update(ctx context.Context, p authz.Principal, id uint, req *dtos.CategoryRequest, partial bool) (*models.Category, error) {
	if err := authz.Authorize(p, authz.ResourceCategory, authz.ActionUpdate, nil); err != nil {
		return nil, err
	}
	var category models.Category
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&category, id).Error; err != nil {
			return lookupError(err, "category not found")
		}
		if err := applyCategory(&category, req, partial); err != nil {
			return err
		}
		if err := ensureUniqueName(tx, category.Name, category.ID); err != nil {
			return err
		}
		if err := tx.Save(&category).Error; err != nil {
			return writeError(err, apperr.CodeUniqueViolation, categoryExists)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// Delete removes the category; the foreign keys cascade to its jobs and
// from there to applications and favorites.
func (s *CategoryService) Delete(ctx context.Context, p authz.Principal, id uint) error {
	if err := authz.Authorize(p, authz.ResourceCategory, authz.ActionDelete, nil); err != nil {
		return err
	}
	res := s.DB.WithContext(ctx).Delete(&models.Category{}, id)
	if res.Error != nil {
		return apperr.Internal("failed to delete category", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("category not found")
	}
	return nil
}

func applyCategory(category *models.Category, req *dtos.CategoryRequest, partial bool) error {
	if req.Name != nil {
		category.Name = strings.TrimSpace(*req.Name)
		if category.Name == "" {
			return validationField("name", "name may not be blank")
		}
	} else if !partial {
		return validationField("name", "name is required")
	}
	if req.Description != nil {
		category.Description = *req.Description
	} else if !partial {
		category.Description = ""
	}
	return nil
}

func ensureUniqueName(tx *gorm.DB, name string, exceptID uint) error {
	var count int64
	q := tx.Model(&models.Category{}).Where("name = ?", name)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return apperr.Internal("failed to check category name", err)
	}
	if count > 0 {
		return apperr.Conflict(apperr.CodeUniqueViolation, categoryExists, nil)
	}
	return nil
}
