package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/justsurfingit/jobboard/internal/apperr"
	"github.com/justsurfingit/jobboard/internal/authz"
	"github.com/justsurfingit/jobboard/internal/models"
)

// NotificationService only reads. Notifications are written by the
// application Notifier.
type NotificationService struct {
	DB *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{DB: db}
}

// List returns p's notifications newest first. A non-nil isRead filters on
// the read flag.
func (s *NotificationService) List(ctx context.Context, p authz.Principal, isRead *bool) ([]models.Notification, error) {
	scope, err := authz.ListScope(p, authz.ResourceNotification)
	if err != nil {
		return nil, err
	}
	q := scoped(s.DB.WithContext(ctx), scope, "user_id")
	if isRead != nil {
		q = q.Where("is_read = ?", *isRead)
	}
	var notifications []models.Notification
	if err := q.Order("created_at DESC, id DESC").Find(&notifications).Error; err != nil {
		return nil, apperr.Internal("failed to list notifications", err)
	}
	return notifications, nil
}

func (s *NotificationService) Get(ctx context.Context, p authz.Principal, id uint) (*models.Notification, error) {
	scope, err := authz.ListScope(p, authz.ResourceNotification)
	if err != nil {
		return nil, err
	}
	var n models.Notification
	if err := scoped(s.DB.WithContext(ctx), scope, "user_id").First(&n, id).Error; err != nil {
		return nil, lookupError(err, "notification not found")
	}
	if err := authz.Authorize(p, authz.ResourceNotification, authz.ActionRetrieve, authz.Owned(n.UserID)); err != nil {
		return nil, err
	}
	return &n, nil
}
