// Package services contains business logic layers.
// Services are called by handlers, enforce the lifecycle and access rules,
// and interact with the record store through the Store port.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/citycare/complaint-server/internal/apperr"
	"github.com/citycare/complaint-server/internal/models"
	"github.com/citycare/complaint-server/internal/store"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Store is the record-store port. *store.ComplaintStore is the production
// implementation; tests use an in-memory fake.
type Store interface {
	Insert(ctx context.Context, c *models.Complaint) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Complaint, error)
	Find(ctx context.Context, f store.Filter, p store.Page) ([]models.Complaint, int64, error)
	UpdateFields(ctx context.Context, id uuid.UUID, patch store.FieldPatch, expectedVersion *int64) (*models.Complaint, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, upd store.StatusUpdate) (*models.Complaint, error)
	Assign(ctx context.Context, id uuid.UUID, assignee string) (*models.Complaint, error)
	BulkSetStatus(ctx context.Context, ids []uuid.UUID, status models.Status, note *models.AdminNote) (*models.BulkUpdateResult, error)
	SoftDelete(ctx context.Context, id uuid.UUID, actor string) (*models.Complaint, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountSummary(ctx context.Context, ownerID *string) (*models.StatsSummary, error)
	CountByType(ctx context.Context, ownerID *string) (map[models.ComplaintType]int64, error)
	CountByDay(ctx context.Context, since time.Time) ([]models.DailyCount, error)
}

// EventSink receives lifecycle events. Delivery is best-effort; the sink
// must never fail a mutation.
type EventSink interface {
	Publish(ctx context.Context, eventType, complaintID, actor string, payload map[string]interface{})
}

// Auditor records actions for accountability. *AuditService is the
// production implementation.
type Auditor interface {
	Record(ctx context.Context, complaintID *uuid.UUID, actor, action, detail string)
}

var validate = validator.New()

// parseID parses a path identifier, mapping malformed input to the
// taxonomy's invalid-identifier error (400, not 404).
func parseID(id string) (uuid.UUID, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, apperr.InvalidID("Invalid complaint ID")
	}
	return u, nil
}

// mapStoreErr translates store sentinels into the application taxonomy.
func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound("Complaint not found")
	case errors.Is(err, store.ErrDuplicate):
		return apperr.Duplicate("Duplicate complaint detected")
	case errors.Is(err, store.ErrVersionMismatch):
		return apperr.Conflict("Complaint was modified concurrently, re-read and retry")
	case errors.Is(err, store.ErrTerminalState):
		return apperr.InvalidOperation("Complaint is closed or rejected and cannot change state")
	default:
		return apperr.Storage(err)
	}
}
