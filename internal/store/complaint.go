// Package store implements the complaint record store on PostgreSQL.
// All mutations are single-statement atomic updates that bump the record
// version; read-modify-write cycles never leave this package.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/citycare/complaint-server/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var (
	// ErrNotFound means the id resolved to no record.
	ErrNotFound = errors.New("store: complaint not found")
	// ErrDuplicate means a uniqueness constraint was violated.
	ErrDuplicate = errors.New("store: duplicate registration number")
	// ErrTerminalState means the record is closed or rejected and the
	// requested transition would move it to a different state.
	ErrTerminalState = errors.New("store: complaint is in a terminal state")
	// ErrVersionMismatch means a conditional update lost an optimistic
	// concurrency race.
	ErrVersionMismatch = errors.New("store: version mismatch")
)

const uniqueViolation = "23505"

// ComplaintStore provides durable storage and indexed retrieval of complaints.
type ComplaintStore struct {
	db     *pgxpool.Pool
	logger *zap.SugaredLogger
}

// NewComplaintStore creates a complaint store over the given pool.
func NewComplaintStore(db *pgxpool.Pool, logger *zap.SugaredLogger) *ComplaintStore {
	return &ComplaintStore{db: db, logger: logger}
}

const complaintColumns = `id, registration_number, owner_id, type, description, location, phone, urgent,
	files, status, assigned_to, resolution_photos, resolved_at, rejection_reason, admin_notes,
	deleted, deleted_at, deleted_by, version, created_at, updated_at`

func scanComplaint(row pgx.Row) (*models.Complaint, error) {
	var c models.Complaint
	err := row.Scan(
		&c.ID, &c.RegistrationNumber, &c.OwnerID, &c.Type, &c.Description, &c.Location,
		&c.Phone, &c.Urgent, &c.Files, &c.Status, &c.AssignedTo, &c.ResolutionPhotos,
		&c.ResolvedAt, &c.RejectionReason, &c.AdminNotes, &c.Deleted, &c.DeletedAt,
		&c.DeletedBy, &c.Version, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan complaint: %w", err)
	}
	return &c, nil
}

// Insert stores a new complaint.
func (s *ComplaintStore) Insert(ctx context.Context, c *models.Complaint) error {
	query := `
		INSERT INTO complaints (id, registration_number, owner_id, type, description, location,
			phone, urgent, files, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
	`

	_, err := s.db.Exec(ctx, query,
		c.ID, c.RegistrationNumber, c.OwnerID, c.Type, c.Description, c.Location,
		c.Phone, c.Urgent, c.Files, c.Status, c.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("insert complaint: %w", err)
	}
	return nil
}

// GetByID looks up a complaint by id.
func (s *ComplaintStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	query := fmt.Sprintf("SELECT %s FROM complaints WHERE id = $1", complaintColumns)
	return scanComplaint(s.db.QueryRow(ctx, query, id))
}

// Filter defines equality filters for listing complaints. Nil fields are
// not applied. Query matches case-insensitively against the registration
// number or description.
type Filter struct {
	Status         *models.Status
	Type           *models.ComplaintType
	OwnerID        *string
	Urgent         *bool
	AssignedTo     *string
	Query          string
	IncludeDeleted bool
}

// Page defines sorting and pagination for listings.
type Page struct {
	SortBy    string
	SortOrder string // "asc" | "desc"
	Page      int
	Limit     int
}

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// Sortable request fields mapped to columns. Anything else falls back to
// creation time, which also keeps user input out of the ORDER BY clause.
var sortColumns = map[string]string{
	"createdAt":          "created_at",
	"updatedAt":          "updated_at",
	"status":             "status",
	"type":               "type",
	"urgent":             "urgent",
	"registrationNumber": "registration_number",
}

func (p Page) normalize() (column, direction string, limit, offset int) {
	column, ok := sortColumns[p.SortBy]
	if !ok {
		column = "created_at"
	}
	direction = "DESC"
	if strings.EqualFold(p.SortOrder, "asc") {
		direction = "ASC"
	}
	limit = p.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	page := p.Page
	if page < 1 {
		page = 1
	}
	offset = (page - 1) * limit
	return column, direction, limit, offset
}

func buildWhere(f Filter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	add := func(clause string, value interface{}) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if !f.IncludeDeleted {
		clauses = append(clauses, "deleted = FALSE")
	}
	if f.Status != nil {
		add("status = $%d", *f.Status)
	}
	if f.Type != nil {
		add("type = $%d", *f.Type)
	}
	if f.OwnerID != nil {
		add("owner_id = $%d", *f.OwnerID)
	}
	if f.Urgent != nil {
		add("urgent = $%d", *f.Urgent)
	}
	if f.AssignedTo != nil {
		add("assigned_to = $%d", *f.AssignedTo)
	}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(registration_number ILIKE $%d OR description ILIKE $%d)", n, n))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Find returns one page of complaints matching the filter plus the total
// count of matching records.
func (s *ComplaintStore) Find(ctx context.Context, f Filter, p Page) ([]models.Complaint, int64, error) {
	where, args := buildWhere(f)
	column, direction, limit, offset := p.normalize()

	var total int64
	countQuery := "SELECT COUNT(*) FROM complaints" + where
	if err := s.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count complaints: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM complaints%s ORDER BY %s %s LIMIT %d OFFSET %d",
		complaintColumns, where, column, direction, limit, offset)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list complaints: %w", err)
	}
	defer rows.Close()

	complaints := make([]models.Complaint, 0)
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, 0, err
		}
		complaints = append(complaints, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("read complaints: %w", err)
	}

	return complaints, total, nil
}

// FieldPatch is a partial update of citizen-editable fields. Nil fields are
// left unchanged.
type FieldPatch struct {
	Type        *models.ComplaintType
	Description *string
	Location    *models.Location
	Phone       *string
	Urgent      *bool
	Files       []models.Attachment
}

// UpdateFields applies a field patch. When expectedVersion is non-nil, the
// update only succeeds if the record is still at that version.
func (s *ComplaintStore) UpdateFields(ctx context.Context, id uuid.UUID, patch FieldPatch, expectedVersion *int64) (*models.Complaint, error) {
	var sets []string
	args := []interface{}{id}

	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Type != nil {
		set("type", *patch.Type)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Location != nil {
		set("location", *patch.Location)
	}
	if patch.Phone != nil {
		set("phone", *patch.Phone)
	}
	if patch.Urgent != nil {
		set("urgent", *patch.Urgent)
	}
	if patch.Files != nil {
		set("files", patch.Files)
	}

	if len(sets) == 0 {
		return s.GetByID(ctx, id)
	}
	sets = append(sets, "version = version + 1", "updated_at = NOW()")

	where := "id = $1"
	if expectedVersion != nil {
		args = append(args, *expectedVersion)
		where += fmt.Sprintf(" AND version = $%d", len(args))
	}

	query := fmt.Sprintf("UPDATE complaints SET %s WHERE %s RETURNING %s",
		strings.Join(sets, ", "), where, complaintColumns)

	c, err := scanComplaint(s.db.QueryRow(ctx, query, args...))
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	// Zero rows: distinguish a missing record from a lost version race.
	if _, getErr := s.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	if expectedVersion != nil {
		return nil, ErrVersionMismatch
	}
	return nil, ErrNotFound
}

// StatusUpdate describes an atomic lifecycle transition.
type StatusUpdate struct {
	Status           models.Status
	ResolutionPhotos []models.Attachment
	RejectionReason  string
	Note             *models.AdminNote
}

// UpdateStatus applies a lifecycle transition as one conditional UPDATE.
// The predicate blocks transitions out of terminal states; resolved_at is
// set only on the first close; the note, if any, is appended in the same
// statement so a concurrent writer cannot drop it.
func (s *ComplaintStore) UpdateStatus(ctx context.Context, id uuid.UUID, upd StatusUpdate) (*models.Complaint, error) {
	query := fmt.Sprintf(`
		UPDATE complaints SET
			status = $2,
			resolution_photos = CASE WHEN $2 = 'closed' THEN $3 ELSE resolution_photos END,
			resolved_at = CASE WHEN $2 = 'closed' THEN COALESCE(resolved_at, NOW()) ELSE resolved_at END,
			rejection_reason = CASE WHEN $4 <> '' THEN $4 ELSE rejection_reason END,
			admin_notes = CASE WHEN $5::jsonb IS NULL THEN admin_notes ELSE admin_notes || $5::jsonb END,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $1 AND (status = $2 OR status NOT IN ('closed', 'rejected'))
		RETURNING %s`, complaintColumns)

	c, err := scanComplaint(s.db.QueryRow(ctx, query,
		id, upd.Status, upd.ResolutionPhotos, upd.RejectionReason, upd.Note))
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if _, getErr := s.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrTerminalState
}

// Assign sets the administrator responsible for a complaint.
func (s *ComplaintStore) Assign(ctx context.Context, id uuid.UUID, assignee string) (*models.Complaint, error) {
	query := fmt.Sprintf(`
		UPDATE complaints SET assigned_to = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING %s`, complaintColumns)
	return scanComplaint(s.db.QueryRow(ctx, query, id, assignee))
}

// BulkSetStatus applies a non-evidence transition to every id that resolves
// to a non-terminal record. Missing and terminal ids are skipped silently.
// When status is empty, only the note is appended.
func (s *ComplaintStore) BulkSetStatus(ctx context.Context, ids []uuid.UUID, status models.Status, note *models.AdminNote) (*models.BulkUpdateResult, error) {
	query := `
		UPDATE complaints SET
			status = CASE WHEN $2 = '' THEN status ELSE $2 END,
			admin_notes = CASE WHEN $3::jsonb IS NULL THEN admin_notes ELSE admin_notes || $3::jsonb END,
			version = version + 1,
			updated_at = NOW()
		WHERE id = ANY($1) AND (status = $2 OR status NOT IN ('closed', 'rejected'))
	`

	tag, err := s.db.Exec(ctx, query, ids, string(status), note)
	if err != nil {
		return nil, fmt.Errorf("bulk update complaints: %w", err)
	}
	return &models.BulkUpdateResult{Matched: tag.RowsAffected(), Modified: tag.RowsAffected()}, nil
}

// SoftDelete marks a complaint deleted and rejected without removing it.
func (s *ComplaintStore) SoftDelete(ctx context.Context, id uuid.UUID, actor string) (*models.Complaint, error) {
	query := fmt.Sprintf(`
		UPDATE complaints SET
			status = 'rejected',
			deleted = TRUE,
			deleted_at = NOW(),
			deleted_by = $2,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $1
		RETURNING %s`, complaintColumns)
	return scanComplaint(s.db.QueryRow(ctx, query, id, actor))
}

// Delete physically removes a complaint. Irreversible.
func (s *ComplaintStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM complaints WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete complaint: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountSummary returns the status/urgency/today breakdown, optionally
// scoped to one owner. Soft-deleted records are excluded from owner-scoped
// summaries and included in the global one, matching the listing rules.
func (s *ComplaintStore) CountSummary(ctx context.Context, ownerID *string) (*models.StatsSummary, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'in-progress'),
			COUNT(*) FILTER (WHERE status = 'closed'),
			COUNT(*) FILTER (WHERE status = 'rejected'),
			COUNT(*) FILTER (WHERE urgent),
			COUNT(*) FILTER (WHERE created_at >= DATE_TRUNC('day', NOW()))
		FROM complaints
		WHERE ($1::text IS NULL OR owner_id = $1)
		  AND ($1::text IS NULL OR deleted = FALSE)
	`

	var sum models.StatsSummary
	err := s.db.QueryRow(ctx, query, ownerID).Scan(
		&sum.Total, &sum.Pending, &sum.InProgress, &sum.Closed,
		&sum.Rejected, &sum.Urgent, &sum.Today,
	)
	if err != nil {
		return nil, fmt.Errorf("count summary: %w", err)
	}
	return &sum, nil
}

// CountByType returns the per-category complaint counts, optionally scoped
// to one owner. Categories with zero records are absent from the map.
func (s *ComplaintStore) CountByType(ctx context.Context, ownerID *string) (map[models.ComplaintType]int64, error) {
	query := `
		SELECT type, COUNT(*)
		FROM complaints
		WHERE ($1::text IS NULL OR owner_id = $1)
		  AND ($1::text IS NULL OR deleted = FALSE)
		GROUP BY type
	`

	rows, err := s.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("count by type: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.ComplaintType]int64)
	for rows.Next() {
		var t models.ComplaintType
		var n int64
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("scan type count: %w", err)
		}
		counts[t] = n
	}
	return counts, rows.Err()
}

// CountByDay returns per-day creation counts since the given time,
// ascending by date. Days without creations are not emitted.
func (s *ComplaintStore) CountByDay(ctx context.Context, since time.Time) ([]models.DailyCount, error) {
	query := `
		SELECT TO_CHAR(created_at, 'YYYY-MM-DD') AS day, COUNT(*)
		FROM complaints
		WHERE created_at >= $1
		GROUP BY day
		ORDER BY day ASC
	`

	rows, err := s.db.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("count by day: %w", err)
	}
	defer rows.Close()

	var days []models.DailyCount
	for rows.Next() {
		var d models.DailyCount
		if err := rows.Scan(&d.Date, &d.Count); err != nil {
			return nil, fmt.Errorf("scan day count: %w", err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}
