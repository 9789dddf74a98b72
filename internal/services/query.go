package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/citycare/complaint-server/internal/models"
	"github.com/citycare/complaint-server/internal/store"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	summaryCacheTTL       = 30 * time.Second
	summaryCacheKeyGlobal = "citycare:stats:global"
	summaryCacheKeyOwner  = "citycare:stats:owner:"
	activityWindowDays    = 7
)

// ListParams are the request-level filter/sort/paginate parameters.
// Empty strings mean "not filtered".
type ListParams struct {
	Query          string
	Status         string
	Type           string
	OwnerID        string
	Urgent         *bool
	AssignedTo     string
	SortBy         string
	SortOrder      string
	Page           int
	Limit          int
	IncludeDeleted bool
}

// QueryService shapes filtered, paginated views and summary statistics over
// the record store. Summaries are cached in Redis for a short TTL; the
// cache is optional and a nil client disables it.
type QueryService struct {
	store  Store
	cache  *redis.Client
	logger *zap.SugaredLogger
}

// NewQueryService creates a query service. cache may be nil.
func NewQueryService(s Store, cache *redis.Client, logger *zap.SugaredLogger) *QueryService {
	return &QueryService{store: s, cache: cache, logger: logger}
}

func (p ListParams) toFilter() store.Filter {
	f := store.Filter{
		Query:          p.Query,
		Urgent:         p.Urgent,
		IncludeDeleted: p.IncludeDeleted,
	}
	if p.Status != "" {
		status := models.Status(p.Status)
		f.Status = &status
	}
	if p.Type != "" {
		typ := models.ComplaintType(p.Type)
		f.Type = &typ
	}
	if p.OwnerID != "" {
		owner := p.OwnerID
		f.OwnerID = &owner
	}
	if p.AssignedTo != "" {
		assignee := p.AssignedTo
		f.AssignedTo = &assignee
	}
	return f
}

// List returns one page of complaints matching the parameters, newest
// first by default.
func (q *QueryService) List(ctx context.Context, p ListParams) (*models.ComplaintList, error) {
	page := p.Page
	if page < 1 {
		page = 1
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	items, total, err := q.store.Find(ctx, p.toFilter(), store.Page{
		SortBy:    p.SortBy,
		SortOrder: p.SortOrder,
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}

	return &models.ComplaintList{
		Data: items,
		Pagination: models.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// Summary returns the count breakdown, optionally scoped to one owner.
// Results are served from the Redis cache when fresh.
func (q *QueryService) Summary(ctx context.Context, ownerID *string) (*models.StatsSummary, error) {
	key := summaryCacheKeyGlobal
	if ownerID != nil {
		key = summaryCacheKeyOwner + *ownerID
	}

	if cached := q.cacheGet(ctx, key); cached != nil {
		return cached, nil
	}

	sum, err := q.computeSummary(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	q.cacheSet(ctx, key, sum)
	return sum, nil
}

// RefreshSummary recomputes the global summary and rewrites the cache.
// Used by the background stats worker to keep dashboard reads warm.
func (q *QueryService) RefreshSummary(ctx context.Context) (*models.StatsSummary, error) {
	sum, err := q.computeSummary(ctx, nil)
	if err != nil {
		return nil, err
	}
	q.cacheSet(ctx, summaryCacheKeyGlobal, sum)
	return sum, nil
}

func (q *QueryService) computeSummary(ctx context.Context, ownerID *string) (*models.StatsSummary, error) {
	sum, err := q.store.CountSummary(ctx, ownerID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	byType, err := q.store.CountByType(ctx, ownerID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	// Complete breakdown across the enumeration, zero counts included.
	sum.ByType = make(map[models.ComplaintType]int64, len(models.ValidTypes))
	for _, t := range models.ValidTypes {
		sum.ByType[t] = byType[t]
	}
	return sum, nil
}

// DailyActivity returns per-day creation counts over the trailing window,
// ascending by date. Days without creations are omitted.
func (q *QueryService) DailyActivity(ctx context.Context, windowDays int) ([]models.DailyCount, error) {
	if windowDays <= 0 {
		windowDays = activityWindowDays
	}
	since := time.Now().AddDate(0, 0, -windowDays)
	days, err := q.store.CountByDay(ctx, since)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if days == nil {
		days = []models.DailyCount{}
	}
	return days, nil
}

// AdminStats assembles the admin dashboard payload: global overview,
// per-type breakdown, and last-7-days creation activity.
func (q *QueryService) AdminStats(ctx context.Context) (*models.AdminStats, error) {
	overview, err := q.Summary(ctx, nil)
	if err != nil {
		return nil, err
	}

	activity, err := q.DailyActivity(ctx, activityWindowDays)
	if err != nil {
		return nil, err
	}

	return &models.AdminStats{
		Overview:       *overview,
		ByType:         overview.ByType,
		RecentActivity: activity,
	}, nil
}

func (q *QueryService) cacheGet(ctx context.Context, key string) *models.StatsSummary {
	if q.cache == nil {
		return nil
	}
	raw, err := q.cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			q.logger.Debugw("Stats cache read failed", "key", key, "error", err)
		}
		return nil
	}
	var sum models.StatsSummary
	if err := json.Unmarshal(raw, &sum); err != nil {
		return nil
	}
	return &sum
}

func (q *QueryService) cacheSet(ctx context.Context, key string, sum *models.StatsSummary) {
	if q.cache == nil {
		return
	}
	raw, err := json.Marshal(sum)
	if err != nil {
		return
	}
	if err := q.cache.Set(ctx, key, raw, summaryCacheTTL).Err(); err != nil {
		q.logger.Debugw("Stats cache write failed", "key", key, "error", err)
	}
}
