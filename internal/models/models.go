// Package models defines the data structures used across the application.
// These map to the PostgreSQL schema (jsonb for nested documents).
package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a complaint.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusClosed     Status = "closed"
	StatusRejected   Status = "rejected"
)

// ValidStatuses lists every legal lifecycle state.
var ValidStatuses = []Status{StatusPending, StatusInProgress, StatusClosed, StatusRejected}

// IsValidStatus reports whether s is a known lifecycle state.
func IsValidStatus(s Status) bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s admits no further transitions.
// Closed and rejected complaints can only be re-asserted, never reopened.
func (s Status) IsTerminal() bool {
	return s == StatusClosed || s == StatusRejected
}

// ComplaintType is the closed enumeration of civic issue categories.
type ComplaintType string

const (
	TypePotholes     ComplaintType = "potholes"
	TypeRubbishBins  ComplaintType = "rubbish-bins"
	TypeStreetlights ComplaintType = "streetlights"
	TypePublicSpaces ComplaintType = "public-spaces"
	TypeOther        ComplaintType = "other"
)

// ValidTypes lists every complaint category.
var ValidTypes = []ComplaintType{TypePotholes, TypeRubbishBins, TypeStreetlights, TypePublicSpaces, TypeOther}

// IsValidType reports whether t is a known category.
func IsValidType(t ComplaintType) bool {
	for _, v := range ValidTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Attachment is an evidence file hosted by the external media service.
// The server only ever stores the returned URL and metadata, never bytes.
type Attachment struct {
	URL      string `json:"url" validate:"required,url"`
	Filename string `json:"filename,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// Location is the geolocation of the reported issue.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

// AdminNote is a single append-only administrative annotation.
type AdminNote struct {
	Note    string    `json:"note"`
	AddedBy string    `json:"addedBy"`
	AddedAt time.Time `json:"addedAt"`
}

// Complaint is the central entity: a citizen-filed civic issue report
// tracked through the status lifecycle.
type Complaint struct {
	ID                 uuid.UUID     `json:"id" db:"id"`
	RegistrationNumber string        `json:"registrationNumber" db:"registration_number"`
	OwnerID            string        `json:"ownerId" db:"owner_id"`
	Type               ComplaintType `json:"type" db:"type"`
	Description        string        `json:"description" db:"description"`
	Location           Location      `json:"location" db:"location"`
	Phone              string        `json:"phone,omitempty" db:"phone"`
	Urgent             bool          `json:"urgent" db:"urgent"`
	Files              []Attachment  `json:"files" db:"files"`
	Status             Status        `json:"status" db:"status"`
	AssignedTo         *string       `json:"assignedTo,omitempty" db:"assigned_to"`
	ResolutionPhotos   []Attachment  `json:"resolutionPhotos,omitempty" db:"resolution_photos"`
	ResolvedAt         *time.Time    `json:"resolvedAt,omitempty" db:"resolved_at"`
	RejectionReason    string        `json:"rejectionReason,omitempty" db:"rejection_reason"`
	AdminNotes         []AdminNote   `json:"adminNotes,omitempty" db:"admin_notes"`
	Deleted            bool          `json:"deleted" db:"deleted"`
	DeletedAt          *time.Time    `json:"deletedAt,omitempty" db:"deleted_at"`
	DeletedBy          *string       `json:"deletedBy,omitempty" db:"deleted_by"`
	Version            int64         `json:"version" db:"version"`
	CreatedAt          time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time     `json:"updatedAt" db:"updated_at"`
}

// AgeInDays returns how long the complaint has been open, in whole days.
func (c *Complaint) AgeInDays() int {
	return int(time.Since(c.CreatedAt).Hours() / 24)
}

// LocationInput is the creation payload's geolocation. Lat/Lng are pointers
// so that an absent coordinate is distinguishable from zero.
type LocationInput struct {
	Lat     *float64 `json:"lat" validate:"required,latitude"`
	Lng     *float64 `json:"lng" validate:"required,longitude"`
	Address string   `json:"address,omitempty"`
}

// CreateComplaintRequest is the request body for filing a new complaint.
type CreateComplaintRequest struct {
	Type        ComplaintType  `json:"type" validate:"required,oneof=potholes rubbish-bins streetlights public-spaces other"`
	Description string         `json:"description" validate:"required,min=20,max=1000"`
	Location    *LocationInput `json:"location" validate:"required"`
	Phone       string         `json:"phone,omitempty" validate:"omitempty,len=10,numeric"`
	Urgent      bool           `json:"urgent,omitempty"`
	Files       []Attachment   `json:"files,omitempty" validate:"omitempty,dive"`
}

// UpdateComplaintRequest is a citizen-submitted partial patch. Pointer fields
// distinguish "leave unchanged" from an explicit value. Owner-protected fields
// (owner id, registration number, timestamps, admin metadata) have no
// representation here and cannot reach the store.
type UpdateComplaintRequest struct {
	Type             *ComplaintType `json:"type,omitempty" validate:"omitempty,oneof=potholes rubbish-bins streetlights public-spaces other"`
	Description      *string        `json:"description,omitempty" validate:"omitempty,min=20,max=1000"`
	Location         *LocationInput `json:"location,omitempty"`
	Phone            *string        `json:"phone,omitempty" validate:"omitempty,len=10,numeric"`
	Urgent           *bool          `json:"urgent,omitempty"`
	Files            []Attachment   `json:"files,omitempty" validate:"omitempty,dive"`
	Status           *Status        `json:"status,omitempty"`
	ResolutionPhotos []Attachment   `json:"resolutionPhotos,omitempty" validate:"omitempty,dive"`

	// Version, when supplied, makes the patch conditional on the record
	// still being at that version (optimistic concurrency).
	Version *int64 `json:"version,omitempty"`
}

// StatusUpdateRequest is the admin request to transition a complaint.
type StatusUpdateRequest struct {
	Status           Status       `json:"status"`
	AdminNote        string       `json:"adminNote,omitempty"`
	ResolutionPhotos []Attachment `json:"resolutionPhotos,omitempty"`
	RejectionReason  string       `json:"rejectionReason,omitempty"`
}

// AssignRequest sets the administrator responsible for a complaint.
// An empty AssignedTo means "assign to me".
type AssignRequest struct {
	AssignedTo string `json:"assignedTo,omitempty"`
}

// BulkUpdateRequest applies a status and/or note to a set of complaints.
type BulkUpdateRequest struct {
	IDs       []string `json:"ids"`
	Status    Status   `json:"status,omitempty"`
	AdminNote string   `json:"adminNote,omitempty"`
}

// BulkUpdateResult mirrors document-store bulk semantics: ids that do not
// resolve are skipped silently, not reported as errors.
type BulkUpdateResult struct {
	Matched  int64 `json:"matched"`
	Modified int64 `json:"modified"`
}

// Pagination describes one page of a filtered listing.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

// ComplaintList is a paginated listing response.
type ComplaintList struct {
	Data       []Complaint `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// StatsSummary holds the count breakdown for dashboards.
type StatsSummary struct {
	Total      int64                   `json:"total"`
	Pending    int64                   `json:"pending"`
	InProgress int64                   `json:"inProgress"`
	Closed     int64                   `json:"closed"`
	Rejected   int64                   `json:"rejected"`
	Urgent     int64                   `json:"urgent"`
	Today      int64                   `json:"today"`
	ByType     map[ComplaintType]int64 `json:"byType"`
}

// DailyCount is one day of creation activity.
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// AdminStats is the admin dashboard payload.
type AdminStats struct {
	Overview       StatsSummary            `json:"overview"`
	ByType         map[ComplaintType]int64 `json:"byType"`
	RecentActivity []DailyCount            `json:"recentActivity"`
}

// AuditEntry records an administrative or lifecycle action for accountability.
type AuditEntry struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	ComplaintID *uuid.UUID `json:"complaintId,omitempty" db:"complaint_id"`
	Actor       string     `json:"actor" db:"actor"`
	Action      string     `json:"action" db:"action"`
	Detail      string     `json:"detail,omitempty" db:"detail"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
}

// AdminUser is a directory identity holding the admin role claim.
type AdminUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// HealthStatus represents the server health check response.
type HealthStatus struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime,omitempty"`
	Database string `json:"database,omitempty"`
}
