package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StatsWorker periodically recomputes the global summary so the cache is
// warm when a dashboard asks for it.
type StatsWorker struct {
	query  *QueryService
	logger *zap.SugaredLogger
}

// NewStatsWorker creates a new background stats worker.
func NewStatsWorker(query *QueryService, logger *zap.SugaredLogger) *StatsWorker {
	return &StatsWorker{query: query, logger: logger}
}

// Start begins the periodic refresh loop and blocks until ctx is done.
func (w *StatsWorker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial refresh
	w.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stats worker stopped")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *StatsWorker) refresh(ctx context.Context) {
	sum, err := w.query.RefreshSummary(ctx)
	if err != nil {
		w.logger.Errorw("Stats refresh failed", "error", err)
		return
	}
	w.logger.Infow("Stats refreshed",
		"total", sum.Total,
		"pending", sum.Pending,
		"urgent", sum.Urgent,
	)
}
