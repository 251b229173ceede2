package services

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/justsurfingit/jobboard/internal/apperr"
	"github.com/justsurfingit/jobboard/internal/authz"
	"github.com/justsurfingit/jobboard/internal/dtos"
	"github.com/justsurfingit/jobboard/internal/metrics"
	"github.com/justsurfingit/jobboard/internal/models"
)

const alreadyFavorited = "job already in favorites"

type FavoriteService struct {
	DB      *gorm.DB
	Metrics *metrics.Metrics
	Log     logrus.FieldLogger
}

func NewFavoriteService(db *gorm.DB, m *metrics.Metrics, log logrus.FieldLogger) *FavoriteService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &FavoriteService{DB: db, Metrics: m, Log: log}
}

// List returns p's own favorites, most recent first. Admins get no wider view.
func (s *FavoriteService) List(ctx context.Context, p authz.Principal) ([]models.FavoriteJob, error) {
	scope, err := authz.ListScope(p, authz.ResourceFavorite)
	if err != nil {
		return nil, err
	}
	var favs []models.FavoriteJob
	err = scoped(s.DB.WithContext(ctx), scope, "user_id").
		Preload("Job").
		Order("added_at DESC, id DESC").
		Find(&favs).Error
	if err != nil {
		return nil, apperr.Internal("failed to list favorite jobs", err)
	}
	return favs, nil
}

func (s *FavoriteService) Get(ctx context.Context, p authz.Principal, id uint) (*models.FavoriteJob, error) {
	fav, err := s.load(s.DB.WithContext(ctx), p, authz.ActionRetrieve, id)
	if err != nil {
		return nil, err
	}
	return fav, nil
}

// Create favorites jobID for p. The (user, job) unique index settles races
// the pre-check cannot see.
func (s *FavoriteService) Create(ctx context.Context, p authz.Principal, req *dtos.FavoriteJobRequest) (*models.FavoriteJob, error) {
	if err := authz.Authorize(p, authz.ResourceFavorite, authz.ActionCreate, nil); err != nil {
		return nil, err
	}
	if req.JobID == 0 {
		return nil, validationField("job_id", "job_id is required")
	}
	fav := models.FavoriteJob{UserID: p.ID(), JobID: req.JobID}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := visibleJob(tx, p, fav.JobID); err != nil {
			return err
		}
		if err := ensureNotFavorited(tx, fav.UserID, fav.JobID, 0); err != nil {
			return err
		}
		return insertFavorite(tx, &fav)
	})
	if err != nil {
		s.conflict(err, fav)
		return nil, err
	}
	s.Log.WithFields(logrus.Fields{"favorite_id": fav.ID, "job_id": fav.JobID, "user_id": fav.UserID}).Info("job favorited")
	return s.find(s.DB.WithContext(ctx), fav.ID)
}

// Update points an existing favorite at another job.
func (s *FavoriteService) Update(ctx context.Context, p authz.Principal, id uint, req *dtos.FavoriteJobRequest) (*models.FavoriteJob, error) {
	var fav *models.FavoriteJob
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		fav, err = s.load(tx, p, authz.ActionUpdate, id)
		if err != nil {
			return err
		}
		if req.JobID == 0 {
			return validationField("job_id", "job_id is required")
		}
		if fav.JobID == req.JobID {
			return nil
		}
		if _, err := visibleJob(tx, p, req.JobID); err != nil {
			return err
		}
		if err := ensureNotFavorited(tx, fav.UserID, req.JobID, fav.ID); err != nil {
			return err
		}
		res := tx.Model(&models.FavoriteJob{}).Where("id = ?", fav.ID).Update("job_id", req.JobID)
		if res.Error != nil {
			return writeError(res.Error, apperr.CodeAlreadyFavorited, alreadyFavorited)
		}
		return nil
	})
	if err != nil {
		if fav != nil {
			s.conflict(err, models.FavoriteJob{UserID: fav.UserID, JobID: req.JobID})
		}
		return nil, err
	}
	return s.find(s.DB.WithContext(ctx), id)
}

func (s *FavoriteService) Delete(ctx context.Context, p authz.Principal, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fav, err := s.load(tx, p, authz.ActionDelete, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(&models.FavoriteJob{}, fav.ID).Error; err != nil {
			return apperr.Internal("failed to delete favorite job", err)
		}
		return nil
	})
}

// Check reports whether p may perform act on favorite id.
func (s *FavoriteService) Check(ctx context.Context, p authz.Principal, act authz.Action, id uint) error {
	_, err := s.load(s.DB.WithContext(ctx), p, act, id)
	return err
}

// load finds id within p's scope and checks act against it.
func (s *FavoriteService) load(db *gorm.DB, p authz.Principal, act authz.Action, id uint) (*models.FavoriteJob, error) {
	scope, err := authz.ListScope(p, authz.ResourceFavorite)
	if err != nil {
		return nil, err
	}
	fav, err := s.find(scoped(db, scope, "user_id"), id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(p, authz.ResourceFavorite, act, authz.Owned(fav.UserID)); err != nil {
		return nil, err
	}
	return fav, nil
}

func (s *FavoriteService) find(q *gorm.DB, id uint) (*models.FavoriteJob, error) {
	var fav models.FavoriteJob
	if err := q.Preload("Job").First(&fav, id).Error; err != nil {
		return nil, lookupError(err, "favorite job not found")
	}
	return &fav, nil
}

func (s *FavoriteService) conflict(err error, fav models.FavoriteJob) {
	if !apperr.Is(err, apperr.KindConflict) {
		return
	}
	s.Metrics.Conflict(apperr.CodeOf(err))
	s.Log.WithFields(logrus.Fields{"job_id": fav.JobID, "user_id": fav.UserID}).Info("duplicate favorite rejected")
}

func ensureNotFavorited(tx *gorm.DB, userID, jobID, exceptID uint) error {
	var count int64
	q := tx.Model(&models.FavoriteJob{}).Where("user_id = ? AND job_id = ?", userID, jobID)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return apperr.Internal("failed to check favorites", err)
	}
	if count > 0 {
		return apperr.Conflict(apperr.CodeAlreadyFavorited, alreadyFavorited, nil)
	}
	return nil
}

func insertFavorite(tx *gorm.DB, fav *models.FavoriteJob) error {
	if err := tx.Omit(clause.Associations).Create(fav).Error; err != nil {
		return writeError(err, apperr.CodeAlreadyFavorited, alreadyFavorited)
	}
	return nil
}
