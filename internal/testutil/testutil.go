// Package testutil provides a migrated throwaway database and fixtures.
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/justsurfingit/jobboard/internal/database"
	"github.com/justsurfingit/jobboard/internal/models"
)

// NewDB opens a sqlite file in t.TempDir() with foreign keys enforced. A
// single connection serialises transactions the way row locks would.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobboard.db")
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate", path)

	db, err := gorm.Open(sqlite.Open(dsn), database.Config())
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access test pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

func CreateUser(t testing.TB, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@example.com", Role: role}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

func CreateCategory(t testing.TB, db *gorm.DB, name string) *models.Category {
	t.Helper()
	category := &models.Category{Name: name}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create category %s: %v", name, err)
	}
	return category
}

type JobOption func(*models.Job)

func Inactive() JobOption {
	return func(j *models.Job) { j.IsActive = false }
}

func PostedBy(user *models.User) JobOption {
	return func(j *models.Job) {
		if user == nil {
			j.CreatedByID = nil
			return
		}
		j.CreatedByID = &user.ID
	}
}

func At(location string, kind models.EmploymentType) JobOption {
	return func(j *models.Job) {
		j.Location = location
		j.EmploymentType = kind
	}
}

func CreateJob(t testing.TB, db *gorm.DB, category *models.Category, title string, opts ...JobOption) *models.Job {
	t.Helper()
	job := &models.Job{
		Title:          title,
		Description:    title + " description",
		CategoryID:     category.ID,
		Location:       "Remote",
		EmploymentType: models.EmploymentFullTime,
		IsActive:       true,
	}
	for _, opt := range opts {
		opt(job)
	}
	if err := db.Create(job).Error; err != nil {
		t.Fatalf("failed to create job %s: %v", title, err)
	}
	return job
}

// Count returns the number of rows of model matching the optional query.
func Count(t testing.TB, db *gorm.DB, model interface{}, query ...interface{}) int64 {
	t.Helper()
	var n int64
	tx := db.Model(model)
	if len(query) > 0 {
		tx = tx.Where(query[0], query[1:]...)
	}
	if err := tx.Count(&n).Error; err != nil {
		t.Fatalf("failed to count %T: %v", model, err)
	}
	return n
}
