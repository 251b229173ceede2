package database_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justsurfingit/jobboard/internal/database"
	"github.com/justsurfingit/jobboard/internal/models"
	"github.com/justsurfingit/jobboard/internal/testutil"
)

func TestSeedIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)

	first, err := database.Seed(db)
	require.NoError(t, err)
	assert.Equal(t, database.SeedResult{Users: 2, Categories: 4, Jobs: 13}, first)

	_, err = database.Seed(db)
	require.NoError(t, err)

	assert.EqualValues(t, 2, testutil.Count(t, db, &models.User{}))
	assert.EqualValues(t, 4, testutil.Count(t, db, &models.Category{}))
	assert.EqualValues(t, 13, testutil.Count(t, db, &models.Job{}))

	var admin models.User
	require.NoError(t, db.Where("username = ?", "admin").First(&admin).Error)
	assert.True(t, admin.IsPlatformAdmin())
	assert.EqualValues(t, 13, testutil.Count(t, db, &models.Job{}, "created_by_id = ? AND is_active = ?", admin.ID, true))

	var candidate models.User
	require.NoError(t, db.Where("username = ?", "user1").First(&candidate).Error)
	assert.False(t, candidate.IsPlatformAdmin())
}
