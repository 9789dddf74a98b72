package services

import (
	"context"
	"fmt"
	"time"

	"github.com/citycare/complaint-server/internal/apperr"
	"github.com/citycare/complaint-server/internal/events"
	"github.com/citycare/complaint-server/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AdminService handles administrative stewardship over complaints:
// assignment, bulk transitions, and soft/hard deletion. Status changes go
// through the lifecycle engine.
type AdminService struct {
	store     Store
	lifecycle *LifecycleEngine
	events    EventSink
	audit     Auditor
	logger    *zap.SugaredLogger
}

// NewAdminService creates a new admin service.
func NewAdminService(s Store, lifecycle *LifecycleEngine, sink EventSink, audit Auditor, logger *zap.SugaredLogger) *AdminService {
	return &AdminService{store: s, lifecycle: lifecycle, events: sink, audit: audit, logger: logger}
}

// SetStatus transitions a complaint on behalf of an administrator.
func (s *AdminService) SetStatus(ctx context.Context, id, actorID string, req models.StatusUpdateRequest) (*models.Complaint, error) {
	return s.lifecycle.SetStatus(ctx, id, actorID, req)
}

// Assign sets the administrator responsible for a complaint. An empty
// assignee means "assign to me".
func (s *AdminService) Assign(ctx context.Context, id, assigneeID, actorID string) (*models.Complaint, error) {
	cid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if assigneeID == "" {
		assigneeID = actorID
	}

	complaint, err := s.store.Assign(ctx, cid, assigneeID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	s.audit.Record(ctx, &complaint.ID, actorID, "assigned", "assigned to "+assigneeID)
	s.events.Publish(ctx, events.TypeAssigned, id, actorID, map[string]interface{}{
		"assigned_to": assigneeID,
	})
	return complaint, nil
}

// BulkUpdate applies a status and/or note to every resolvable id. Closing
// is excluded: evidence is per complaint, so closes must go through the
// single-complaint transition. Unknown and terminal ids are skipped
// silently, mirroring document-store bulk semantics.
func (s *AdminService) BulkUpdate(ctx context.Context, actorID string, req models.BulkUpdateRequest) (*models.BulkUpdateResult, error) {
	if len(req.IDs) == 0 {
		return nil, apperr.Validation("Please provide an array of complaint IDs")
	}
	if req.Status != "" && !models.IsValidStatus(req.Status) {
		return nil, apperr.InvalidStatus("Status must be one of: %s", statusList())
	}
	if req.Status == models.StatusClosed {
		return nil, apperr.InvalidOperation("Complaints cannot be closed in bulk; closing requires resolution photos per complaint")
	}
	if req.Status == "" && req.AdminNote == "" {
		return nil, apperr.Validation("Nothing to update: provide a status or an admin note")
	}

	// Malformed ids count as unresolvable, same as unknown ones.
	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		if id, err := uuid.Parse(raw); err == nil {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return &models.BulkUpdateResult{}, nil
	}

	var note *models.AdminNote
	if req.AdminNote != "" {
		note = &models.AdminNote{Note: req.AdminNote, AddedBy: actorID, AddedAt: time.Now().UTC()}
	}

	result, err := s.store.BulkSetStatus(ctx, ids, req.Status, note)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	s.audit.Record(ctx, nil, actorID, "bulk_updated",
		fmt.Sprintf("%d of %d complaints updated to %s", result.Modified, len(req.IDs), req.Status))
	s.logger.Infow("Bulk update applied",
		"actor", actorID,
		"requested", len(req.IDs),
		"modified", result.Modified,
		"status", req.Status,
	)
	return result, nil
}

// Delete removes a complaint. permanent=true physically deletes the
// record; otherwise the complaint is soft-deleted: marked rejected and
// flagged, retained for administrative audit.
func (s *AdminService) Delete(ctx context.Context, id, actorID string, permanent bool) (*models.Complaint, error) {
	cid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	if permanent {
		if err := s.store.Delete(ctx, cid); err != nil {
			return nil, mapStoreErr(err)
		}
		s.audit.Record(ctx, &cid, actorID, "deleted", "complaint permanently deleted")
		s.events.Publish(ctx, events.TypeDeleted, id, actorID, map[string]interface{}{"permanent": true})
		return nil, nil
	}

	complaint, err := s.store.SoftDelete(ctx, cid, actorID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	s.audit.Record(ctx, &cid, actorID, "soft_deleted", "complaint marked as deleted")
	s.events.Publish(ctx, events.TypeDeleted, id, actorID, map[string]interface{}{"permanent": false})
	return complaint, nil
}
