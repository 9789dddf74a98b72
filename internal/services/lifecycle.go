package services

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/citycare/complaint-server/internal/apperr"
	"github.com/citycare/complaint-server/internal/events"
	"github.com/citycare/complaint-server/internal/models"
	"github.com/citycare/complaint-server/internal/store"
	"go.uber.org/zap"
)

// LifecycleEngine enforces legal status transitions and their side effects.
// Every status mutation in the system, citizen- or admin-initiated, goes
// through SetStatus so the evidence-on-close rule cannot be bypassed.
type LifecycleEngine struct {
	store  Store
	events EventSink
	audit  Auditor
	logger *zap.SugaredLogger
}

// NewLifecycleEngine creates a lifecycle engine.
func NewLifecycleEngine(s Store, sink EventSink, audit Auditor, logger *zap.SugaredLogger) *LifecycleEngine {
	return &LifecycleEngine{store: s, events: sink, audit: audit, logger: logger}
}

// SetStatus transitions a complaint to req.Status on behalf of actorID.
//
// Rules:
//   - the status must be one of the lifecycle enumeration
//   - closing requires at least one resolution photo with a well-formed
//     http(s) URL; resolvedAt is set only on the first close
//   - closed and rejected are terminal: only same-state re-assertion is
//     allowed afterwards
//   - an optional note is appended atomically with the transition
func (e *LifecycleEngine) SetStatus(ctx context.Context, id string, actorID string, req models.StatusUpdateRequest) (*models.Complaint, error) {
	cid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	if !models.IsValidStatus(req.Status) {
		return nil, apperr.InvalidStatus("Status must be one of: %s", statusList())
	}

	upd := store.StatusUpdate{
		Status:          req.Status,
		RejectionReason: req.RejectionReason,
	}

	if req.Status == models.StatusClosed {
		if len(req.ResolutionPhotos) == 0 {
			return nil, apperr.EvidenceRequired("You must provide at least one photo when closing an issue to show the resolved state")
		}
		for _, photo := range req.ResolutionPhotos {
			if !validPhotoURL(photo.URL) {
				return nil, apperr.EvidenceRequired("Each resolution photo must have a valid URL")
			}
		}
		upd.ResolutionPhotos = req.ResolutionPhotos
	}

	if req.AdminNote != "" {
		upd.Note = &models.AdminNote{
			Note:    req.AdminNote,
			AddedBy: actorID,
			AddedAt: time.Now().UTC(),
		}
	}

	complaint, err := e.store.UpdateStatus(ctx, cid, upd)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	e.audit.Record(ctx, &complaint.ID, actorID, "status_changed", fmt.Sprintf("status set to %s", req.Status))
	e.events.Publish(ctx, events.TypeStatusChanged, complaint.ID.String(), actorID, map[string]interface{}{
		"status": string(complaint.Status),
		"urgent": complaint.Urgent,
	})

	e.logger.Infow("Complaint status updated",
		"id", complaint.ID,
		"status", complaint.Status,
		"actor", actorID,
	)
	return complaint, nil
}

func validPhotoURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func statusList() string {
	out := ""
	for i, s := range models.ValidStatuses {
		if i > 0 {
			out += ", "
		}
		out += string(s)
	}
	return out
}
