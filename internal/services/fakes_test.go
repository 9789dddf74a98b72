package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/citycare/complaint-server/internal/models"
	"github.com/citycare/complaint-server/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var testLogger = zap.NewNop().Sugar()

// fakeStore is an in-memory Store emulating the Postgres semantics the
// services rely on: terminal-state guard, resolved-at-once, version bumps.
type fakeStore struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*models.Complaint
	regs map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byID: make(map[uuid.UUID]*models.Complaint),
		regs: make(map[string]bool),
	}
}

func (f *fakeStore) clone(c *models.Complaint) *models.Complaint {
	cp := *c
	cp.Files = append([]models.Attachment(nil), c.Files...)
	cp.ResolutionPhotos = append([]models.Attachment(nil), c.ResolutionPhotos...)
	cp.AdminNotes = append([]models.AdminNote(nil), c.AdminNotes...)
	return &cp
}

func (f *fakeStore) Insert(ctx context.Context, c *models.Complaint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.regs[c.RegistrationNumber] {
		return store.ErrDuplicate
	}
	f.regs[c.RegistrationNumber] = true
	f.byID[c.ID] = f.clone(c)
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return f.clone(c), nil
}

func matches(c *models.Complaint, fl store.Filter) bool {
	if !fl.IncludeDeleted && c.Deleted {
		return false
	}
	if fl.Status != nil && c.Status != *fl.Status {
		return false
	}
	if fl.Type != nil && c.Type != *fl.Type {
		return false
	}
	if fl.OwnerID != nil && c.OwnerID != *fl.OwnerID {
		return false
	}
	if fl.Urgent != nil && c.Urgent != *fl.Urgent {
		return false
	}
	if fl.AssignedTo != nil && (c.AssignedTo == nil || *c.AssignedTo != *fl.AssignedTo) {
		return false
	}
	if fl.Query != "" {
		q := strings.ToLower(fl.Query)
		if !strings.Contains(strings.ToLower(c.RegistrationNumber), q) &&
			!strings.Contains(strings.ToLower(c.Description), q) {
			return false
		}
	}
	return true
}

func (f *fakeStore) Find(ctx context.Context, fl store.Filter, p store.Page) ([]models.Complaint, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var all []*models.Complaint
	for _, c := range f.byID {
		if matches(c, fl) {
			all = append(all, c)
		}
	}

	asc := strings.EqualFold(p.SortOrder, "asc")
	sort.Slice(all, func(i, j int) bool {
		if asc {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := int64(len(all))
	limit := p.Limit
	if limit <= 0 {
		limit = 50
	}
	page := p.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	var out []models.Complaint
	for i := offset; i < len(all) && i < offset+limit; i++ {
		out = append(out, *f.clone(all[i]))
	}
	if out == nil {
		out = []models.Complaint{}
	}
	return out, total, nil
}

func (f *fakeStore) UpdateFields(ctx context.Context, id uuid.UUID, patch store.FieldPatch, expectedVersion *int64) (*models.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if expectedVersion != nil && c.Version != *expectedVersion {
		return nil, store.ErrVersionMismatch
	}
	if patch.Type != nil {
		c.Type = *patch.Type
	}
	if patch.Description != nil {
		c.Description = *patch.Description
	}
	if patch.Location != nil {
		c.Location = *patch.Location
	}
	if patch.Phone != nil {
		c.Phone = *patch.Phone
	}
	if patch.Urgent != nil {
		c.Urgent = *patch.Urgent
	}
	if patch.Files != nil {
		c.Files = append([]models.Attachment(nil), patch.Files...)
	}
	c.Version++
	c.UpdatedAt = time.Now().UTC()
	return f.clone(c), nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, id uuid.UUID, upd store.StatusUpdate) (*models.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if c.Status.IsTerminal() && c.Status != upd.Status {
		return nil, store.ErrTerminalState
	}
	if upd.Status == models.StatusClosed {
		c.ResolutionPhotos = append([]models.Attachment(nil), upd.ResolutionPhotos...)
		if c.ResolvedAt == nil {
			now := time.Now().UTC()
			c.ResolvedAt = &now
		}
	}
	if upd.RejectionReason != "" {
		c.RejectionReason = upd.RejectionReason
	}
	if upd.Note != nil {
		c.AdminNotes = append(c.AdminNotes, *upd.Note)
	}
	c.Status = upd.Status
	c.Version++
	c.UpdatedAt = time.Now().UTC()
	return f.clone(c), nil
}

func (f *fakeStore) Assign(ctx context.Context, id uuid.UUID, assignee string) (*models.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c.AssignedTo = &assignee
	c.Version++
	return f.clone(c), nil
}

func (f *fakeStore) BulkSetStatus(ctx context.Context, ids []uuid.UUID, status models.Status, note *models.AdminNote) (*models.BulkUpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, id := range ids {
		c, ok := f.byID[id]
		if !ok {
			continue
		}
		if c.Status.IsTerminal() && c.Status != status {
			continue
		}
		if status != "" {
			c.Status = status
		}
		if note != nil {
			c.AdminNotes = append(c.AdminNotes, *note)
		}
		c.Version++
		n++
	}
	return &models.BulkUpdateResult{Matched: n, Modified: n}, nil
}

func (f *fakeStore) SoftDelete(ctx context.Context, id uuid.UUID, actor string) (*models.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	now := time.Now().UTC()
	c.Status = models.StatusRejected
	c.Deleted = true
	c.DeletedAt = &now
	c.DeletedBy = &actor
	c.Version++
	return f.clone(c), nil
}

func (f *fakeStore) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeStore) CountSummary(ctx context.Context, ownerID *string) (*models.StatsSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum models.StatsSummary
	today := time.Now().UTC().Truncate(24 * time.Hour)
	for _, c := range f.byID {
		if ownerID != nil && (c.OwnerID != *ownerID || c.Deleted) {
			continue
		}
		sum.Total++
		switch c.Status {
		case models.StatusPending:
			sum.Pending++
		case models.StatusInProgress:
			sum.InProgress++
		case models.StatusClosed:
			sum.Closed++
		case models.StatusRejected:
			sum.Rejected++
		}
		if c.Urgent {
			sum.Urgent++
		}
		if !c.CreatedAt.Before(today) {
			sum.Today++
		}
	}
	return &sum, nil
}

func (f *fakeStore) CountByType(ctx context.Context, ownerID *string) (map[models.ComplaintType]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[models.ComplaintType]int64)
	for _, c := range f.byID {
		if ownerID != nil && (c.OwnerID != *ownerID || c.Deleted) {
			continue
		}
		counts[c.Type]++
	}
	return counts, nil
}

func (f *fakeStore) CountByDay(ctx context.Context, since time.Time) ([]models.DailyCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byDay := make(map[string]int64)
	for _, c := range f.byID {
		if c.CreatedAt.Before(since) {
			continue
		}
		byDay[c.CreatedAt.Format("2006-01-02")]++
	}
	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)
	out := make([]models.DailyCount, 0, len(days))
	for _, d := range days {
		out = append(out, models.DailyCount{Date: d, Count: byDay[d]})
	}
	return out, nil
}

// fakeSink records published events.
type fakeSink struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeSink) Publish(ctx context.Context, eventType, complaintID, actor string, payload map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, eventType)
}

func (f *fakeSink) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

// fakeAudit records audit actions.
type fakeAudit struct {
	mu      sync.Mutex
	actions []string
}

func (f *fakeAudit) Record(ctx context.Context, complaintID *uuid.UUID, actor, action, detail string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
}

// newTestServices wires a full service stack over the fake store.
func newTestServices() (*fakeStore, *fakeSink, *fakeAudit, *ComplaintService, *AdminService, *QueryService) {
	fs := newFakeStore()
	sink := &fakeSink{}
	audit := &fakeAudit{}
	lifecycle := NewLifecycleEngine(fs, sink, audit, testLogger)
	complaints := NewComplaintService(fs, lifecycle, sink, audit, testLogger)
	admin := NewAdminService(fs, lifecycle, sink, audit, testLogger)
	query := NewQueryService(fs, nil, testLogger)
	return fs, sink, audit, complaints, admin, query
}

func float64p(v float64) *float64 { return &v }

func validCreateRequest() *models.CreateComplaintRequest {
	return &models.CreateComplaintRequest{
		Type:        models.TypePotholes,
		Description: "A 30-character-or-longer description of a broken road",
		Location:    &models.LocationInput{Lat: float64p(12.9), Lng: float64p(77.6)},
	}
}
