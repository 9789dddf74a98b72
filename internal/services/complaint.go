package services

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/citycare/complaint-server/internal/apperr"
	"github.com/citycare/complaint-server/internal/events"
	"github.com/citycare/complaint-server/internal/models"
	"github.com/citycare/complaint-server/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultAttachmentProvider = "cloudinary"

// ComplaintService handles the citizen-facing complaint operations: create,
// read, owner-gated update and delete.
type ComplaintService struct {
	store     Store
	lifecycle *LifecycleEngine
	events    EventSink
	audit     Auditor
	logger    *zap.SugaredLogger
}

// NewComplaintService creates a new complaint service.
func NewComplaintService(s Store, lifecycle *LifecycleEngine, sink EventSink, audit Auditor, logger *zap.SugaredLogger) *ComplaintService {
	return &ComplaintService{store: s, lifecycle: lifecycle, events: sink, audit: audit, logger: logger}
}

// generateRegistrationNumber builds the human-facing tracking code:
// timestamp-derived, suffixed with three random digits.
func generateRegistrationNumber() string {
	return fmt.Sprintf("REG%d%03d", time.Now().UnixMilli(), rand.Intn(1000))
}

// Create files a new complaint for ownerID. The owner is taken from the
// authenticated identity, never from the payload, and the complaint always
// starts pending.
func (s *ComplaintService) Create(ctx context.Context, ownerID string, req *models.CreateComplaintRequest) (*models.Complaint, error) {
	if ownerID == "" {
		return nil, apperr.Unauthorized("Authentication required")
	}
	if err := validate.Struct(req); err != nil {
		return nil, apperr.Validation("Validation failed: %v", err)
	}

	files := req.Files
	for i := range files {
		if files[i].Provider == "" {
			files[i].Provider = defaultAttachmentProvider
		}
	}
	if files == nil {
		files = []models.Attachment{}
	}

	now := time.Now().UTC()
	complaint := &models.Complaint{
		ID:                 uuid.New(),
		RegistrationNumber: generateRegistrationNumber(),
		OwnerID:            ownerID,
		Type:               req.Type,
		Description:        req.Description,
		Location: models.Location{
			Lat:     *req.Location.Lat,
			Lng:     *req.Location.Lng,
			Address: req.Location.Address,
		},
		Phone:     req.Phone,
		Urgent:    req.Urgent,
		Files:     files,
		Status:    models.StatusPending,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Insert(ctx, complaint); err != nil {
		return nil, mapStoreErr(err)
	}

	s.audit.Record(ctx, &complaint.ID, ownerID, "created", "complaint "+complaint.RegistrationNumber+" filed")
	s.events.Publish(ctx, events.TypeCreated, complaint.ID.String(), ownerID, map[string]interface{}{
		"registration_number": complaint.RegistrationNumber,
		"type":                string(complaint.Type),
		"urgent":              complaint.Urgent,
	})

	s.logger.Infow("New complaint created",
		"registration_number", complaint.RegistrationNumber,
		"owner", ownerID,
		"type", complaint.Type,
	)
	return complaint, nil
}

// Get returns a single complaint by id.
func (s *ComplaintService) Get(ctx context.Context, id string) (*models.Complaint, error) {
	cid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	complaint, err := s.store.GetByID(ctx, cid)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return complaint, nil
}

// Update applies a citizen patch to the caller's own complaint. Protected
// fields cannot appear in the patch type at all; a status change is routed
// through the lifecycle engine so the evidence-on-close rule holds for
// every caller.
func (s *ComplaintService) Update(ctx context.Context, callerID, id string, req *models.UpdateComplaintRequest) (*models.Complaint, error) {
	cid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, apperr.Validation("Validation failed: %v", err)
	}

	current, err := s.store.GetByID(ctx, cid)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if current.OwnerID != callerID {
		return nil, apperr.Forbidden("You don't have permission to update this complaint")
	}

	patch := store.FieldPatch{
		Type:        req.Type,
		Description: req.Description,
		Phone:       req.Phone,
		Urgent:      req.Urgent,
		Files:       req.Files,
	}
	if req.Location != nil {
		if req.Location.Lat == nil || req.Location.Lng == nil {
			return nil, apperr.Validation("Location requires both lat and lng")
		}
		patch.Location = &models.Location{
			Lat:     *req.Location.Lat,
			Lng:     *req.Location.Lng,
			Address: req.Location.Address,
		}
	}

	updated := current
	if hasFieldChanges(patch) {
		updated, err = s.store.UpdateFields(ctx, cid, patch, req.Version)
		if err != nil {
			return nil, mapStoreErr(err)
		}
	}

	if req.Status != nil {
		updated, err = s.lifecycle.SetStatus(ctx, id, callerID, models.StatusUpdateRequest{
			Status:           *req.Status,
			ResolutionPhotos: req.ResolutionPhotos,
		})
		if err != nil {
			return nil, err
		}
	}

	return updated, nil
}

func hasFieldChanges(p store.FieldPatch) bool {
	return p.Type != nil || p.Description != nil || p.Location != nil ||
		p.Phone != nil || p.Urgent != nil || p.Files != nil
}

// Delete physically removes the caller's own complaint.
func (s *ComplaintService) Delete(ctx context.Context, callerID, id string) error {
	cid, err := parseID(id)
	if err != nil {
		return err
	}

	current, err := s.store.GetByID(ctx, cid)
	if err != nil {
		return mapStoreErr(err)
	}
	if current.OwnerID != callerID {
		return apperr.Forbidden("You don't have permission to delete this complaint")
	}

	if err := s.store.Delete(ctx, cid); err != nil {
		return mapStoreErr(err)
	}

	s.audit.Record(ctx, &cid, callerID, "deleted", "complaint removed by owner")
	s.events.Publish(ctx, events.TypeDeleted, id, callerID, nil)
	return nil
}
