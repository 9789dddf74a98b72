package services

import (
	"context"

	"github.com/citycare/complaint-server/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// AuditService persists an append-only trail of lifecycle and
// administrative actions for accountability.
type AuditService struct {
	db     *pgxpool.Pool
	logger *zap.SugaredLogger
}

// NewAuditService creates a new audit service.
func NewAuditService(db *pgxpool.Pool, logger *zap.SugaredLogger) *AuditService {
	return &AuditService{db: db, logger: logger}
}

// Record writes one audit row. Audit failures are logged, never surfaced:
// the trail must not block the mutation it describes.
func (s *AuditService) Record(ctx context.Context, complaintID *uuid.UUID, actor, action, detail string) {
	query := `
		INSERT INTO complaint_audit (id, complaint_id, actor, action, detail)
		VALUES ($1, $2, $3, $4, $5)
	`

	if _, err := s.db.Exec(ctx, query, uuid.New(), complaintID, actor, action, detail); err != nil {
		s.logger.Errorw("Failed to record audit entry",
			"actor", actor,
			"action", action,
			"error", err,
		)
	}
}

// Recent returns the latest audit entries across all complaints.
func (s *AuditService) Recent(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT id, complaint_id, actor, action, detail, created_at
		FROM complaint_audit
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.AuditEntry, 0, limit)
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.ComplaintID, &e.Actor, &e.Action, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ByComplaint returns the audit trail for one complaint, newest first.
func (s *AuditService) ByComplaint(ctx context.Context, complaintID uuid.UUID, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query := `
		SELECT id, complaint_id, actor, action, detail, created_at
		FROM complaint_audit
		WHERE complaint_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, complaintID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.AuditEntry, 0, limit)
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.ComplaintID, &e.Actor, &e.Action, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
