package services

import (
	"context"
	"testing"
	"time"

	"github.com/citycare/complaint-server/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMany(t *testing.T, fs *fakeStore, n int, mutate func(i int, c *models.Complaint)) {
	t.Helper()
	base := time.Now().UTC().Add(-time.Duration(n) * time.Minute)
	for i := 0; i < n; i++ {
		c := &models.Complaint{
			ID:                 uuid.New(),
			RegistrationNumber: "REG" + uuid.NewString()[:12],
			OwnerID:            "user-1",
			Type:               models.TypePotholes,
			Description:        "Long-form description of a recurring civic issue here",
			Status:             models.StatusPending,
			Version:            1,
			CreatedAt:          base.Add(time.Duration(i) * time.Minute),
			UpdatedAt:          base.Add(time.Duration(i) * time.Minute),
		}
		if mutate != nil {
			mutate(i, c)
		}
		require.NoError(t, fs.Insert(context.Background(), c))
	}
}

func TestListPagination(t *testing.T) {
	fs, _, _, _, _, query := newTestServices()
	seedMany(t, fs, 25, nil)

	page1, err := query.List(context.Background(), ListParams{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page1.Data, 10)
	assert.Equal(t, int64(25), page1.Pagination.Total)
	assert.Equal(t, int64(3), page1.Pagination.TotalPages)

	page3, err := query.List(context.Background(), ListParams{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page3.Data, 5)

	// Out-of-range pages return an empty page, not an error.
	page9, err := query.List(context.Background(), ListParams{Page: 9, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page9.Data)
	assert.NotNil(t, page9.Data, "data must serialize as [] rather than null")
}

func TestListDefaultsNewestFirst(t *testing.T) {
	fs, _, _, _, _, query := newTestServices()
	seedMany(t, fs, 5, nil)

	out, err := query.List(context.Background(), ListParams{})
	require.NoError(t, err)
	require.Len(t, out.Data, 5)
	for i := 1; i < len(out.Data); i++ {
		assert.False(t, out.Data[i-1].CreatedAt.Before(out.Data[i].CreatedAt),
			"default ordering must be newest first")
	}

	asc, err := query.List(context.Background(), ListParams{SortOrder: "asc"})
	require.NoError(t, err)
	assert.True(t, asc.Data[0].CreatedAt.Before(asc.Data[len(asc.Data)-1].CreatedAt))
}

func TestListFilters(t *testing.T) {
	fs, _, _, _, _, query := newTestServices()
	seedMany(t, fs, 10, func(i int, c *models.Complaint) {
		if i%2 == 0 {
			c.Status = models.StatusInProgress
			c.Type = models.TypeStreetlights
		}
		if i == 3 {
			c.OwnerID = "user-2"
			c.Urgent = true
			c.Description = "The streetlight flickers all night on Elm Street"
		}
	})

	byStatus, err := query.List(context.Background(), ListParams{Status: "in-progress"})
	require.NoError(t, err)
	assert.Len(t, byStatus.Data, 5)

	byType, err := query.List(context.Background(), ListParams{Type: "streetlights"})
	require.NoError(t, err)
	assert.Len(t, byType.Data, 5)

	byOwner, err := query.List(context.Background(), ListParams{OwnerID: "user-2"})
	require.NoError(t, err)
	assert.Len(t, byOwner.Data, 1)

	urgent := true
	byUrgent, err := query.List(context.Background(), ListParams{Urgent: &urgent})
	require.NoError(t, err)
	assert.Len(t, byUrgent.Data, 1)

	bySearch, err := query.List(context.Background(), ListParams{Query: "elm street"})
	require.NoError(t, err)
	assert.Len(t, bySearch.Data, 1)
}

func TestListExcludesDeletedByDefault(t *testing.T) {
	fs, _, _, _, admin, query := newTestServices()
	seedMany(t, fs, 3, nil)
	c := seedComplaint(t, fs, models.StatusPending)
	_, err := admin.Delete(context.Background(), c.ID.String(), "admin-1", false)
	require.NoError(t, err)

	visible, err := query.List(context.Background(), ListParams{})
	require.NoError(t, err)
	assert.Len(t, visible.Data, 3)

	all, err := query.List(context.Background(), ListParams{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Len(t, all.Data, 4)
}

func TestListLimitCap(t *testing.T) {
	fs, _, _, _, _, query := newTestServices()
	seedMany(t, fs, 3, nil)

	out, err := query.List(context.Background(), ListParams{Limit: 5000})
	require.NoError(t, err)
	assert.Equal(t, 200, out.Pagination.Limit)

	out, err = query.List(context.Background(), ListParams{Page: -2, Limit: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Pagination.Page)
	assert.Equal(t, 50, out.Pagination.Limit)
}

func TestSummaryCounts(t *testing.T) {
	fs, _, _, _, _, query := newTestServices()
	seedMany(t, fs, 6, func(i int, c *models.Complaint) {
		switch i {
		case 0, 1:
			c.Status = models.StatusClosed
		case 2:
			c.Status = models.StatusInProgress
			c.Urgent = true
		case 3:
			c.Status = models.StatusRejected
		}
		if i == 5 {
			c.OwnerID = "user-2"
		}
	})

	sum, err := query.Summary(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(6), sum.Total)
	assert.Equal(t, int64(2), sum.Pending)
	assert.Equal(t, int64(1), sum.InProgress)
	assert.Equal(t, int64(2), sum.Closed)
	assert.Equal(t, int64(1), sum.Rejected)
	assert.Equal(t, int64(1), sum.Urgent)

	owner := "user-2"
	scoped, err := query.Summary(context.Background(), &owner)
	require.NoError(t, err)
	assert.Equal(t, int64(1), scoped.Total)
}

func TestSummaryByTypeIncludesZeroCounts(t *testing.T) {
	fs, _, _, _, _, query := newTestServices()
	seedMany(t, fs, 2, func(i int, c *models.Complaint) {
		c.Type = models.TypeRubbishBins
	})

	sum, err := query.Summary(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, sum.ByType, len(models.ValidTypes), "every category appears, zeros included")
	assert.Equal(t, int64(2), sum.ByType[models.TypeRubbishBins])
	assert.Equal(t, int64(0), sum.ByType[models.TypePotholes])
	assert.Equal(t, int64(0), sum.ByType[models.TypeOther])
}

func TestDailyActivity(t *testing.T) {
	fs, _, _, _, _, query := newTestServices()
	now := time.Now().UTC()
	seedMany(t, fs, 4, func(i int, c *models.Complaint) {
		if i < 2 {
			c.CreatedAt = now.AddDate(0, 0, -1)
		} else if i == 2 {
			c.CreatedAt = now
		} else {
			c.CreatedAt = now.AddDate(0, 0, -30) // outside the window
		}
	})

	days, err := query.DailyActivity(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, now.AddDate(0, 0, -1).Format("2006-01-02"), days[0].Date)
	assert.Equal(t, int64(2), days[0].Count)
	assert.Equal(t, int64(1), days[1].Count)
}

func TestAdminStats(t *testing.T) {
	fs, _, _, _, _, query := newTestServices()
	seedMany(t, fs, 3, nil)

	stats, err := query.AdminStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Overview.Total)
	assert.Len(t, stats.ByType, len(models.ValidTypes))
	assert.NotNil(t, stats.RecentActivity)
}
