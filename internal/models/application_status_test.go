package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplicationStatusEdges(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusAccepted))
	assert.True(t, StatusPending.CanTransitionTo(StatusRejected))
	assert.False(t, StatusPending.CanTransitionTo(StatusPending))

	for _, from := range []ApplicationStatus{StatusAccepted, StatusRejected} {
		assert.True(t, from.Terminal())
		for _, to := range []ApplicationStatus{StatusPending, StatusAccepted, StatusRejected} {
			assert.False(t, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
	assert.False(t, StatusPending.Terminal())
}

func TestParseApplicationStatus(t *testing.T) {
	s, ok := ParseApplicationStatus(" accepted ")
	assert.True(t, ok)
	assert.Equal(t, StatusAccepted, s)

	_, ok = ParseApplicationStatus("withdrawn")
	assert.False(t, ok)
}

func TestEmploymentTypeValid(t *testing.T) {
	assert.True(t, EmploymentInternship.Valid())
	assert.False(t, EmploymentType("XX").Valid())
}

func TestUserIsPlatformAdmin(t *testing.T) {
	assert.True(t, (&User{Role: RoleAdmin}).IsPlatformAdmin())
	assert.True(t, (&User{Role: RoleCandidate, IsSuperuser: true}).IsPlatformAdmin())
	assert.False(t, (&User{Role: RoleEmployer}).IsPlatformAdmin())
}
