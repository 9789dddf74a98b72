package store

import (
	"testing"

	"github.com/citycare/complaint-server/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestPageNormalize(t *testing.T) {
	column, direction, limit, offset := Page{}.normalize()
	assert.Equal(t, "created_at", column)
	assert.Equal(t, "DESC", direction)
	assert.Equal(t, defaultPageLimit, limit)
	assert.Equal(t, 0, offset)

	column, direction, limit, offset = Page{
		SortBy: "status", SortOrder: "ASC", Page: 3, Limit: 20,
	}.normalize()
	assert.Equal(t, "status", column)
	assert.Equal(t, "ASC", direction)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 40, offset)

	// Unknown sort fields fall back to creation time so request input never
	// reaches the ORDER BY clause.
	column, _, _, _ = Page{SortBy: "owner_id; DROP TABLE complaints"}.normalize()
	assert.Equal(t, "created_at", column)

	_, _, limit, _ = Page{Limit: 99999}.normalize()
	assert.Equal(t, maxPageLimit, limit)

	_, _, _, offset = Page{Page: -5, Limit: 10}.normalize()
	assert.Equal(t, 0, offset)
}

func TestBuildWhere(t *testing.T) {
	where, args := buildWhere(Filter{IncludeDeleted: true})
	assert.Empty(t, where)
	assert.Empty(t, args)

	where, args = buildWhere(Filter{})
	assert.Equal(t, " WHERE deleted = FALSE", where)
	assert.Empty(t, args)

	status := models.StatusPending
	owner := "user-1"
	urgent := true
	where, args = buildWhere(Filter{
		Status:         &status,
		OwnerID:        &owner,
		Urgent:         &urgent,
		Query:          "pothole",
		IncludeDeleted: true,
	})
	assert.Equal(t,
		" WHERE status = $1 AND owner_id = $2 AND urgent = $3 AND (registration_number ILIKE $4 OR description ILIKE $4)",
		where)
	assert.Equal(t, []interface{}{status, owner, urgent, "%pothole%"}, args)
}
