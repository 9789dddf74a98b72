package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/citycare/complaint-server/internal/middleware"
	"github.com/citycare/complaint-server/internal/models"
	"github.com/citycare/complaint-server/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ComplaintAPI is the citizen-facing service surface the handler needs.
type ComplaintAPI interface {
	Create(ctx context.Context, ownerID string, req *models.CreateComplaintRequest) (*models.Complaint, error)
	Get(ctx context.Context, id string) (*models.Complaint, error)
	Update(ctx context.Context, callerID, id string, req *models.UpdateComplaintRequest) (*models.Complaint, error)
	Delete(ctx context.Context, callerID, id string) error
}

// QueryAPI is the listing/statistics surface shared by citizen and admin
// handlers.
type QueryAPI interface {
	List(ctx context.Context, p services.ListParams) (*models.ComplaintList, error)
	Summary(ctx context.Context, ownerID *string) (*models.StatsSummary, error)
	AdminStats(ctx context.Context) (*models.AdminStats, error)
}

// ComplaintHandler handles the citizen-facing complaint endpoints.
type ComplaintHandler struct {
	complaints ComplaintAPI
	queries    QueryAPI
	logger     *zap.SugaredLogger
}

// NewComplaintHandler creates a new complaint handler.
func NewComplaintHandler(complaints ComplaintAPI, queries QueryAPI, logger *zap.SugaredLogger) *ComplaintHandler {
	return &ComplaintHandler{complaints: complaints, queries: queries, logger: logger}
}

// listParamsFromQuery parses the shared filter/sort/paginate query string.
func listParamsFromQuery(r *http.Request) services.ListParams {
	q := r.URL.Query()

	p := services.ListParams{
		Query:      q.Get("q"),
		Status:     q.Get("status"),
		Type:       q.Get("type"),
		OwnerID:    q.Get("userId"),
		AssignedTo: q.Get("assignedTo"),
		SortBy:     q.Get("sortBy"),
		SortOrder:  q.Get("sortOrder"),
	}
	if v := q.Get("urgent"); v != "" {
		urgent := v == "true"
		p.Urgent = &urgent
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		p.Limit = v
	}
	return p
}

// List handles GET /api/v1/complaints
func (h *ComplaintHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.queries.List(r.Context(), listParamsFromQuery(r))
	if err != nil {
		respondAppErr(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// Stats handles GET /api/v1/complaints/stats
func (h *ComplaintHandler) Stats(w http.ResponseWriter, r *http.Request) {
	var owner *string
	if v := r.URL.Query().Get("userId"); v != "" {
		owner = &v
	}

	sum, err := h.queries.Summary(r.Context(), owner)
	if err != nil {
		respondAppErr(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, sum)
}

// My handles GET /api/v1/complaints/my
func (h *ComplaintHandler) My(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.AuthFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	p := listParamsFromQuery(r)
	p.OwnerID = ac.UserID

	list, err := h.queries.List(r.Context(), p)
	if err != nil {
		respondAppErr(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// Get handles GET /api/v1/complaints/{id}
func (h *ComplaintHandler) Get(w http.ResponseWriter, r *http.Request) {
	complaint, err := h.complaints.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondAppErr(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, complaint)
}

// Create handles POST /api/v1/complaints
func (h *ComplaintHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.AuthFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	var req models.CreateComplaintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "Invalid request body")
		return
	}

	complaint, err := h.complaints.Create(r.Context(), ac.UserID, &req)
	if err != nil {
		respondAppErr(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, complaint)
}

// Update handles PUT /api/v1/complaints/{id}
func (h *ComplaintHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.AuthFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	var req models.UpdateComplaintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "Invalid request body")
		return
	}

	complaint, err := h.complaints.Update(r.Context(), ac.UserID, chi.URLParam(r, "id"), &req)
	if err != nil {
		respondAppErr(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, complaint)
}

// Delete handles DELETE /api/v1/complaints/{id}
func (h *ComplaintHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.AuthFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	if err := h.complaints.Delete(r.Context(), ac.UserID, chi.URLParam(r, "id")); err != nil {
		respondAppErr(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Complaint deleted successfully",
	})
}
