package services

import (
	"context"
	"errors"
	"math"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/justsurfingit/jobboard/internal/apperr"
	"github.com/justsurfingit/jobboard/internal/authz"
	"github.com/justsurfingit/jobboard/internal/dtos"
	"github.com/justsurfingit/jobboard/internal/models"
)

var jobOrderings = map[string]string{
	"created_at":  "jobs.created_at ASC, jobs.id ASC",
	"-created_at": "jobs.created_at DESC, jobs.id DESC",
	"title":       "jobs.title ASC, jobs.id ASC",
	"-title":      "jobs.title DESC, jobs.id DESC",
}

const defaultJobOrdering = "-created_at"

type JobService struct {
	DB       *gorm.DB
	PageSize int
}

func NewJobService(db *gorm.DB, pageSize int) *JobService {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &JobService{
		DB:       db,
		PageSize: pageSize,
	}
}

// List returns one page of the jobs p may see. Inactive jobs are only
// visible to admins.
func (s *JobService) List(ctx context.Context, p authz.Principal, f dtos.JobFilter) (*dtos.Page[models.Job], error) {
	scope, err := authz.ListScope(p, authz.ResourceJob)
	if err != nil {
		return nil, err
	}
	page := f.Page
	if page == 0 {
		page = 1
	}
	if page < 1 || page-1 > math.MaxInt/s.PageSize {
		return nil, apperr.NotFound("invalid page")
	}

	q := s.filtered(s.DB.WithContext(ctx), scope, f)

	var count int64
	if err := q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return nil, apperr.Internal("failed to count jobs", err)
	}
	if page > 1 && int64((page-1)*s.PageSize) >= count {
		return nil, apperr.NotFound("invalid page")
	}

	order, ok := jobOrderings[strings.TrimSpace(f.Ordering)]
	if !ok {
		order = jobOrderings[defaultJobOrdering]
	}
	var jobs []models.Job
	err = q.Session(&gorm.Session{}).Preload("Category").Preload("CreatedBy").
		Order(order).
		Limit(s.PageSize).
		Offset((page - 1) * s.PageSize).
		Find(&jobs).Error
	if err != nil {
		return nil, apperr.Internal("failed to list jobs", err)
	}
	result := dtos.NewPage(jobs, count, page, s.PageSize)
	return &result, nil
}

func (s *JobService) filtered(db *gorm.DB, scope authz.Scope, f dtos.JobFilter) *gorm.DB {
	q := scoped(db.Model(&models.Job{}), scope, "")
	if f.CategoryID != nil {
		q = q.Where("jobs.category_id = ?", *f.CategoryID)
	}
	if f.Location != "" {
		q = q.Where("jobs.location = ?", f.Location)
	}
	if f.EmploymentType != "" {
		q = q.Where("jobs.employment_type = ?", f.EmploymentType)
	}
	for _, term := range strings.Fields(strings.ToLower(f.Search)) {
		like := containsPattern(term)
		q = q.Where(`(LOWER(jobs.title) LIKE ? ESCAPE '\' OR LOWER(jobs.description) LIKE ? ESCAPE '\' OR LOWER(jobs.location) LIKE ? ESCAPE '\')`, like, like, like)
	}
	return q
}

func (s *JobService) Get(ctx context.Context, p authz.Principal, id uint) (*models.Job, error) {
	scope, err := authz.ListScope(p, authz.ResourceJob)
	if err != nil {
		return nil, err
	}
	job, err := s.find(scoped(s.DB.WithContext(ctx), scope, ""), id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(p, authz.ResourceJob, authz.ActionRetrieve, jobTarget(job)); err != nil {
		return nil, err
	}
	return job, nil
}

// Create records p as the job's owner.
func (s *JobService) Create(ctx context.Context, p authz.Principal, req *dtos.JobRequest) (*models.Job, error) {
	if err := authz.Authorize(p, authz.ResourceJob, authz.ActionCreate, nil); err != nil {
		return nil, err
	}
	ownerID := p.ID()
	job := models.Job{CreatedByID: &ownerID, IsActive: true}
	if err := applyJob(&job, req, false); err != nil {
		return nil, err
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureCategory(tx, job.CategoryID); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&job).Error; err != nil {
			return writeError(err, apperr.CodeUniqueViolation, "job already exists")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.find(s.DB.WithContext(ctx), job.ID)
}

func (s *JobService) Update(ctx context.Context, p authz.Principal, id uint, req *dtos.JobRequest, partial bool) (*models.Job, error) {
	if err := authz.Authorize(p, authz.ResourceJob, authz.ActionUpdate, nil); err != nil {
		return nil, err
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job models.Job
		if err := tx.First(&job, id).Error; err != nil {
			return lookupError(err, "job not found")
		}
		if err := authz.Authorize(p, authz.ResourceJob, authz.ActionUpdate, jobTarget(&job)); err != nil {
			return err
		}
		if err := applyJob(&job, req, partial); err != nil {
			return err
		}
		if err := ensureCategory(tx, job.CategoryID); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Save(&job).Error; err != nil {
			return writeError(err, apperr.CodeUniqueViolation, "job already exists")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.find(s.DB.WithContext(ctx), id)
}

func (s *JobService) Delete(ctx context.Context, p authz.Principal, id uint) error {
	if err := authz.Authorize(p, authz.ResourceJob, authz.ActionDelete, nil); err != nil {
		return err
	}
	res := s.DB.WithContext(ctx).Delete(&models.Job{}, id)
	if res.Error != nil {
		return apperr.Internal("failed to delete job", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("job not found")
	}
	return nil
}

func (s *JobService) find(q *gorm.DB, id uint) (*models.Job, error) {
	var job models.Job
	if err := q.Preload("Category").Preload("CreatedBy").First(&job, id).Error; err != nil {
		return nil, lookupError(err, "job not found")
	}
	return &job, nil
}

func jobTarget(job *models.Job) *authz.Target {
	target := &authz.Target{Hidden: !job.IsActive}
	if job.CreatedByID != nil {
		target.OwnerID = *job.CreatedByID
	}
	return target
}

func applyJob(job *models.Job, req *dtos.JobRequest, partial bool) error {
	fields := map[string]string{}
	required := func(field string) {
		if !partial {
			fields[field] = field + " is required"
		}
	}

	if req.Title != nil {
		job.Title = strings.TrimSpace(*req.Title)
		if job.Title == "" {
			fields["title"] = "title may not be blank"
		}
	} else {
		required("title")
	}
	if req.Description != nil {
		job.Description = strings.TrimSpace(*req.Description)
		if job.Description == "" {
			fields["description"] = "description may not be blank"
		}
	} else {
		required("description")
	}
	if req.CategoryID != nil {
		job.CategoryID = *req.CategoryID
	} else {
		required("category_id")
	}
	if req.Location != nil {
		job.Location = strings.TrimSpace(*req.Location)
		if job.Location == "" {
			fields["location"] = "location may not be blank"
		}
	} else {
		required("location")
	}
	if req.EmploymentType != nil {
		job.EmploymentType = models.EmploymentType(strings.ToUpper(strings.TrimSpace(*req.EmploymentType)))
		if !job.EmploymentType.Valid() {
			fields["employment_type"] = "employment_type must be one of FT, PT, CT, IN, TP"
		}
	} else {
		required("employment_type")
	}
	if req.IsActive != nil {
		job.IsActive = *req.IsActive
	}

	if len(fields) > 0 {
		return apperr.Validation("invalid job", fields)
	}
	return nil
}

func ensureCategory(tx *gorm.DB, id uint) error {
	var category models.Category
	err := tx.Select("id").First(&category, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return validationField("category_id", "category does not exist")
	}
	if err != nil {
		return apperr.Internal("failed to load category", err)
	}
	return nil
}
