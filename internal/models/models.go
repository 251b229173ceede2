package models

import (
	"time"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleEmployer  Role = "employer"
	RoleCandidate Role = "candidate"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Username    string `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email       string `gorm:"size:254" json:"email"`
	Role        Role   `gorm:"size:20;not null" json:"role"`
	IsSuperuser bool   `gorm:"not null" json:"is_superuser"`
}

// IsPlatformAdmin mirrors the admin role check: explicit admin role or superuser.
func (u *User) IsPlatformAdmin() bool {
	return u.Role == RoleAdmin || u.IsSuperuser
}

type Category struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

type EmploymentType string

const (
	EmploymentFullTime   EmploymentType = "FT"
	EmploymentPartTime   EmploymentType = "PT"
	EmploymentContract   EmploymentType = "CT"
	EmploymentInternship EmploymentType = "IN"
	EmploymentTemporary  EmploymentType = "TP"
)

func (t EmploymentType) Valid() bool {
	switch t {
	case EmploymentFullTime, EmploymentPartTime, EmploymentContract, EmploymentInternship, EmploymentTemporary:
		return true
	}
	return false
}

type Job struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title       string `gorm:"size:200;not null;index" json:"title"`
	Description string `gorm:"type:text;not null" json:"description"`

	// Deleting a category deletes its jobs.
	CategoryID uint      `gorm:"not null;index" json:"category_id"`
	Category   *Category `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"category,omitempty"`

	CreatedByID *uint `gorm:"index" json:"created_by_id"`
	CreatedBy   *User `gorm:"constraint:OnDelete:CASCADE;" json:"-"`

	Location       string         `gorm:"size:200;index" json:"location"`
	EmploymentType EmploymentType `gorm:"size:2;not null" json:"employment_type"`
	// No gorm default here: a default tag would turn an explicit false into true on insert.
	IsActive bool `gorm:"not null;index" json:"is_active"`
}

type Application struct {
	ID uint `gorm:"primaryKey" json:"id"`

	JobID       uint  `gorm:"not null;uniqueIndex:idx_applications_job_candidate" json:"job_id"`
	Job         *Job  `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	CandidateID uint  `gorm:"not null;uniqueIndex:idx_applications_job_candidate" json:"candidate_id"`
	Candidate   *User `gorm:"constraint:OnDelete:CASCADE;" json:"-"`

	Resume      string            `gorm:"size:255;not null" json:"resume"`
	CoverLetter string            `gorm:"type:text" json:"cover_letter"`
	Status      ApplicationStatus `gorm:"size:8;not null;index" json:"status"`
	AppliedAt   time.Time         `gorm:"autoCreateTime;index" json:"applied_at"`
}

type FavoriteJob struct {
	ID uint `gorm:"primaryKey" json:"id"`

	UserID uint  `gorm:"not null;uniqueIndex:idx_favorite_jobs_user_job" json:"user_id"`
	User   *User `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	JobID  uint  `gorm:"not null;uniqueIndex:idx_favorite_jobs_user_job" json:"job_id"`
	Job    *Job  `gorm:"constraint:OnDelete:CASCADE;" json:"-"`

	AddedAt time.Time `gorm:"autoCreateTime;index" json:"added_at"`
}

type NotificationType string

const (
	NotificationJob         NotificationType = "JOB"
	NotificationApplication NotificationType = "APP"
	NotificationSystem      NotificationType = "SYS"
)

type Notification struct {
	ID uint `gorm:"primaryKey" json:"id"`

	UserID uint  `gorm:"not null;index" json:"user_id"`
	User   *User `gorm:"constraint:OnDelete:CASCADE;" json:"-"`

	Message   string           `gorm:"type:text;not null" json:"message"`
	Type      NotificationType `gorm:"size:3;not null" json:"notification_type"`
	Link      string           `gorm:"size:200" json:"link,omitempty"`
	CreatedAt time.Time        `gorm:"index" json:"created_at"`
	IsRead    bool             `gorm:"not null;index" json:"is_read"`
}

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{&User{}, &Category{}, &Job{}, &Application{}, &FavoriteJob{}, &Notification{}}
}
