package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/justsurfingit/jobboard/internal/apperr"
	"github.com/justsurfingit/jobboard/internal/authz"
	"github.com/justsurfingit/jobboard/internal/dtos"
	"github.com/justsurfingit/jobboard/internal/metrics"
	"github.com/justsurfingit/jobboard/internal/models"
)

const duplicateApplication = "you have already applied for this job"

// ApplicationEvent describes a freshly inserted application together with
// the rows a notifier needs to address and word its message.
type ApplicationEvent struct {
	Application *models.Application
	Job         *models.Job
	Candidate   *models.User
}

// Notifier is told about every application insert. It runs inside the
// creating transaction; returning an error rolls the application back.
type Notifier interface {
	ApplicationCreated(ctx context.Context, tx *gorm.DB, event ApplicationEvent) (*models.Notification, error)
}

// DBNotifier writes one notification row addressed to the job's creator.
type DBNotifier struct{}

func (DBNotifier) ApplicationCreated(ctx context.Context, tx *gorm.DB, event ApplicationEvent) (*models.Notification, error) {
	if event.Job == nil || event.Job.CreatedByID == nil {
		return nil, nil
	}
	n := models.Notification{
		UserID:  *event.Job.CreatedByID,
		Message: fmt.Sprintf("%s applied for %s", event.Candidate.Username, event.Job.Title),
		Type:    models.NotificationApplication,
		Link:    fmt.Sprintf("/api/v1/applications/%d", event.Application.ID),
	}
	if err := tx.WithContext(ctx).Omit(clause.Associations).Create(&n).Error; err != nil {
		return nil, apperr.Internal("failed to create notification", err)
	}
	return &n, nil
}

type ApplicationService struct {
	DB       *gorm.DB
	Notifier Notifier
	Metrics  *metrics.Metrics
	Log      logrus.FieldLogger
}

func NewApplicationService(db *gorm.DB, notifier Notifier, m *metrics.Metrics, log logrus.FieldLogger) *ApplicationService {
	if notifier == nil {
		notifier = DBNotifier{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ApplicationService{DB: db, Notifier: notifier, Metrics: m, Log: log}
}

func (s *ApplicationService) List(ctx context.Context, p authz.Principal) ([]models.Application, error) {
	scope, err := authz.ListScope(p, authz.ResourceApplication)
	if err != nil {
		return nil, err
	}
	var apps []models.Application
	err = scoped(s.DB.WithContext(ctx), scope, "candidate_id").
		Preload("Job").Preload("Candidate").
		Order("applied_at DESC, id DESC").
		Find(&apps).Error
	if err != nil {
		return nil, apperr.Internal("failed to list applications", err)
	}
	return apps, nil
}

func (s *ApplicationService) Get(ctx context.Context, p authz.Principal, id uint) (*models.Application, error) {
	scope, err := authz.ListScope(p, authz.ResourceApplication)
	if err != nil {
		return nil, err
	}
	app, err := s.find(scoped(s.DB.WithContext(ctx), scope, "candidate_id"), id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(p, authz.ResourceApplication, authz.ActionRetrieve, authz.Owned(app.CandidateID)); err != nil {
		return nil, err
	}
	return app, nil
}

// Create files an application by p for req.JobID. The duplicate pre-check,
// the insert and the notification share one transaction, and the
// (job, candidate) unique index decides any race the pre-check misses.
func (s *ApplicationService) Create(ctx context.Context, p authz.Principal, req *dtos.ApplicationRequest) (*models.Application, error) {
	if err := authz.Authorize(p, authz.ResourceApplication, authz.ActionCreate, nil); err != nil {
		return nil, err
	}
	if req.JobID == 0 {
		return nil, validationField("job_id", "job_id is required")
	}
	resume := strings.TrimSpace(req.Resume)
	if resume == "" {
		return nil, validationField("resume", "resume is required")
	}

	app := models.Application{
		JobID:       req.JobID,
		CandidateID: p.ID(),
		Resume:      resume,
		CoverLetter: req.CoverLetter,
		Status:      models.StatusPending,
	}
	var notification *models.Notification
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := visibleJob(tx, p, req.JobID)
		if err != nil {
			return err
		}
		var candidate models.User
		if err := tx.First(&candidate, p.ID()).Error; err != nil {
			return lookupError(err, "candidate not found")
		}
		if err := ensureNotApplied(tx, app.JobID, app.CandidateID); err != nil {
			return err
		}
		if err := insertApplication(tx, &app); err != nil {
			return err
		}
		notification, err = s.Notifier.ApplicationCreated(ctx, tx, ApplicationEvent{
			Application: &app,
			Job:         job,
			Candidate:   &candidate,
		})
		return err
	})
	if err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			s.Metrics.Conflict(apperr.CodeOf(err))
			s.Log.WithFields(logrus.Fields{
				"job_id":       app.JobID,
				"candidate_id": app.CandidateID,
			}).Info("duplicate application rejected")
		}
		return nil, err
	}

	s.Metrics.ApplicationCreated()
	fields := logrus.Fields{"application_id": app.ID, "job_id": app.JobID, "candidate_id": app.CandidateID}
	if notification != nil {
		s.Metrics.NotificationCreated()
		fields["notification_id"] = notification.ID
		fields["recipient_id"] = notification.UserID
	}
	s.Log.WithFields(fields).Info("application created")

	return s.find(s.DB.WithContext(ctx), app.ID)
}

// UpdateStatus moves an application along its lifecycle. Only admins get
// this far; setting the current status again is accepted as a no-op.
func (s *ApplicationService) UpdateStatus(ctx context.Context, p authz.Principal, id uint, req *dtos.ApplicationStatusRequest) (*models.Application, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		app, err := s.load(tx, p, authz.ActionUpdate, id)
		if err != nil {
			return err
		}
		next, ok := models.ParseApplicationStatus(req.Status)
		if !ok {
			return validationField("status", "status must be one of PENDING, ACCEPTED, REJECTED")
		}
		if app.Status == next {
			return nil
		}
		if !app.Status.CanTransitionTo(next) {
			return validationField("status", "invalid status transition")
		}
		// Compare and set: a concurrent transition wins and this one fails.
		res := tx.Model(&models.Application{}).
			Where("id = ? AND status = ?", app.ID, app.Status).
			Update("status", next)
		if res.Error != nil {
			return apperr.Internal("failed to update application", res.Error)
		}
		if res.RowsAffected == 0 {
			return validationField("status", "invalid status transition")
		}
		s.Log.WithFields(logrus.Fields{
			"application_id": app.ID,
			"from":           app.Status,
			"to":             next,
		}).Info("application status changed")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.find(s.DB.WithContext(ctx), id)
}

func (s *ApplicationService) Delete(ctx context.Context, p authz.Principal, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		app, err := s.load(tx, p, authz.ActionDelete, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(app).Error; err != nil {
			return apperr.Internal("failed to delete application", err)
		}
		return nil
	})
}

// Check reports whether p may perform act on application id, without
// changing anything.
func (s *ApplicationService) Check(ctx context.Context, p authz.Principal, act authz.Action, id uint) error {
	_, err := s.load(s.DB.WithContext(ctx), p, act, id)
	return err
}

// load finds id within p's scope and checks act against it.
func (s *ApplicationService) load(db *gorm.DB, p authz.Principal, act authz.Action, id uint) (*models.Application, error) {
	scope, err := authz.ListScope(p, authz.ResourceApplication)
	if err != nil {
		return nil, err
	}
	var app models.Application
	if err := scoped(db, scope, "candidate_id").First(&app, id).Error; err != nil {
		return nil, lookupError(err, "application not found")
	}
	if err := authz.Authorize(p, authz.ResourceApplication, act, authz.Owned(app.CandidateID)); err != nil {
		return nil, err
	}
	return &app, nil
}

func (s *ApplicationService) find(q *gorm.DB, id uint) (*models.Application, error) {
	var app models.Application
	if err := q.Preload("Job").Preload("Candidate").First(&app, id).Error; err != nil {
		return nil, lookupError(err, "application not found")
	}
	return &app, nil
}

// visibleJob loads the job p may reference. Jobs outside p's scope are
// reported as a bad reference, the same as jobs that do not exist.
func visibleJob(tx *gorm.DB, p authz.Principal, id uint) (*models.Job, error) {
	scope, err := authz.ListScope(p, authz.ResourceJob)
	if err != nil {
		return nil, err
	}
	var job models.Job
	err = scoped(tx.Model(&models.Job{}), scope, "").First(&job, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, validationField("job_id", "job does not exist")
	}
	if err != nil {
		return nil, apperr.Internal("failed to load job", err)
	}
	return &job, nil
}

func ensureNotApplied(tx *gorm.DB, jobID, candidateID uint) error {
	var count int64
	err := tx.Model(&models.Application{}).
		Where("job_id = ? AND candidate_id = ?", jobID, candidateID).
		Count(&count).Error
	if err != nil {
		return apperr.Internal("failed to check existing applications", err)
	}
	if count > 0 {
		return apperr.Conflict(apperr.CodeDuplicateApplication, duplicateApplication, nil)
	}
	return nil
}

func insertApplication(tx *gorm.DB, app *models.Application) error {
	if err := tx.Omit(clause.Associations).Create(app).Error; err != nil {
		return writeError(err, apperr.CodeDuplicateApplication, duplicateApplication)
	}
	return nil
}
