package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/citycare/complaint-server/internal/middleware"
	"github.com/citycare/complaint-server/internal/models"
	"go.uber.org/zap"
)

// AdminAPI is the administrative service surface the handler needs.
type AdminAPI interface {
	SetStatus(ctx context.Context, id, actorID string, req models.StatusUpdateRequest) (*models.Complaint, error)
	Assign(ctx context.Context, id, assigneeID, actorID string) (*models.Complaint, error)
	BulkUpdate(ctx context.Context, actorID string, req models.BulkUpdateRequest) (*models.BulkUpdateResult, error)
	Delete(ctx context.Context, id, actorID string, permanent bool) (*models.Complaint, error)
}

// AuditAPI exposes the recent audit trail.
type AuditAPI interface {
	Recent(ctx context.Context, limit int) ([]models.AuditEntry, error)
}

// AdminHandler handles admin-facing complaint endpoints. The router mounts
// it behind the admin role gate.
type AdminHandler struct {
	admin   AdminAPI
	queries QueryAPI
	audit   AuditAPI
	logger  *zap.SugaredLogger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(admin AdminAPI, queries QueryAPI, audit AuditAPI, logger *zap.SugaredLogger) *AdminHandler {
	return &AdminHandler{admin: admin, queries: queries, audit: audit, logger: logger}
}

func actorID(r *http.Request) string {
	ac, _ := middleware.AuthFromContext(r.Context())
	return ac.UserID
}

// Stats handles GET /api/v1/admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.queries.AdminStats(r.Context())
	if err != nil {
		respondAppErr(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// List handles GET /api/v1/admin/complaints
// The admin view includes soft-deleted records.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	p := listParamsFromQuery(r)
	p.IncludeDeleted = true

	list, err := h.queries.List(r.Context(), p)
	if err != nil {
		respondAppErr(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// UpdateStatus handles PATCH /api/v1/admin/complaints/{id}/status
func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req models.StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "Invalid request body")
		return
	}

	complaint, err := h.admin.SetStatus(r.Context(), urlID(r), actorID(r), req)
	if err != nil {
		respondAppErr(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Complaint status updated successfully",
		"data":    complaint,
	})
}

// Assign handles PATCH /api/v1/admin/complaints/{id}/assign
func (h *AdminHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req models.AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "Invalid request body")
		return
	}

	complaint, err := h.admin.Assign(r.Context(), urlID(r), req.AssignedTo, actorID(r))
	if err != nil {
		respondAppErr(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Complaint assigned successfully",
		"data":    complaint,
	})
}

// BulkUpdate handles POST /api/v1/admin/complaints/bulk-update
func (h *AdminHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req models.BulkUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "Invalid request body")
		return
	}

	result, err := h.admin.BulkUpdate(r.Context(), actorID(r), req)
	if err != nil {
		respondAppErr(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": strconv.FormatInt(result.Modified, 10) + " complaints updated successfully",
		"data":    result,
	})
}

// Delete handles DELETE /api/v1/admin/complaints/{id}?permanent=true|false
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	permanent := r.URL.Query().Get("permanent") == "true"

	complaint, err := h.admin.Delete(r.Context(), urlID(r), actorID(r), permanent)
	if err != nil {
		respondAppErr(w, h.logger, err)
		return
	}

	if permanent {
		respondJSON(w, http.StatusOK, map[string]string{"message": "Complaint permanently deleted"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Complaint marked as deleted",
		"data":    complaint,
	})
}

// Audit handles GET /api/v1/admin/audit
func (h *AdminHandler) Audit(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.audit.Recent(r.Context(), limit)
	if err != nil {
		respondAppErr(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}
