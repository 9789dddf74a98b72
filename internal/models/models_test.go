package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsValidStatus(t *testing.T) {
	for _, s := range ValidStatuses {
		assert.True(t, IsValidStatus(s), "%s should be valid", s)
	}
	assert.False(t, IsValidStatus("resolved"))
	assert.False(t, IsValidStatus(""))
	assert.False(t, IsValidStatus("PENDING"), "status values are case-sensitive")
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, StatusClosed.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusInProgress.IsTerminal())
}

func TestIsValidType(t *testing.T) {
	for _, ct := range ValidTypes {
		assert.True(t, IsValidType(ct), "%s should be valid", ct)
	}
	assert.False(t, IsValidType("graffiti"))
	assert.False(t, IsValidType(""))
}

func TestAgeInDays(t *testing.T) {
	c := &Complaint{CreatedAt: time.Now().Add(-49 * time.Hour)}
	assert.Equal(t, 2, c.AgeInDays())

	fresh := &Complaint{CreatedAt: time.Now()}
	assert.Equal(t, 0, fresh.AgeInDays())
}
