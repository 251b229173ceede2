package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justsurfingit/jobboard/internal/apperr"
	"github.com/justsurfingit/jobboard/internal/authz"
	"github.com/justsurfingit/jobboard/internal/models"
	"github.com/justsurfingit/jobboard/internal/testutil"
)

func TestNotificationsAreScopedToRecipient(t *testing.T) {
	db := testutil.NewDB(t)
	admin := testutil.CreateUser(t, db, "admin", models.RoleAdmin)
	other := testutil.CreateUser(t, db, "other-admin", models.RoleAdmin)
	for _, n := range []models.Notification{
		{UserID: admin.ID, Message: "first", Type: models.NotificationApplication},
		{UserID: admin.ID, Message: "second", Type: models.NotificationSystem, IsRead: true},
		{UserID: other.ID, Message: "not yours", Type: models.NotificationApplication},
	} {
		n := n
		require.NoError(t, db.Create(&n).Error)
	}
	svc := NewNotificationService(db)
	ctx := context.Background()
	p := authz.Admin(admin.ID)

	all, err := svc.List(ctx, p, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "second", all[0].Message)

	unread, err := svc.List(ctx, p, ptr(false))
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "first", unread[0].Message)

	var foreign models.Notification
	require.NoError(t, db.Where("user_id = ?", other.ID).First(&foreign).Error)
	_, err = svc.Get(ctx, p, foreign.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	got, err := svc.Get(ctx, p, all[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Message)

	_, err = svc.List(ctx, authz.Anonymous(), nil)
	assert.Equal(t, apperr.KindAuthenticationRequired, apperr.KindOf(err))
}
