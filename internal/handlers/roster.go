package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/citycare/complaint-server/internal/identity"
	"github.com/citycare/complaint-server/internal/middleware"
	"github.com/citycare/complaint-server/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RosterHandler manages the admin roster through the identity directory.
// The service holds no admin records of its own; the directory's role
// claims are the single source of truth.
type RosterHandler struct {
	directory identity.Directory
	logger    *zap.SugaredLogger
}

// NewRosterHandler creates a new roster handler.
func NewRosterHandler(directory identity.Directory, logger *zap.SugaredLogger) *RosterHandler {
	return &RosterHandler{directory: directory, logger: logger}
}

func rosterEntry(u identity.User) models.AdminUser {
	return models.AdminUser{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name(),
		ImageURL:  u.ImageURL,
		CreatedAt: u.CreatedAt,
	}
}

// List handles GET /api/v1/admin/admins
func (h *RosterHandler) List(w http.ResponseWriter, r *http.Request) {
	admins, err := h.directory.ListAdmins(r.Context())
	if err != nil {
		h.logger.Errorw("Failed to list admins", "error", err)
		respondError(w, http.StatusInternalServerError, "storage_error", "Failed to fetch admins")
		return
	}

	entries := make([]models.AdminUser, 0, len(admins))
	for _, u := range admins {
		entries = append(entries, rosterEntry(u))
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"admins": entries,
		"total":  len(entries),
	})
}

// Create handles POST /api/v1/admin/admins — grants the admin role to an
// existing directory user found by email.
func (h *RosterHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "Email is required")
		return
	}

	user, err := h.directory.UserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "No user found with email: "+req.Email)
			return
		}
		h.logger.Errorw("Failed to look up user", "email", req.Email, "error", err)
		respondError(w, http.StatusInternalServerError, "storage_error", "Failed to create admin")
		return
	}

	if user.IsAdmin() {
		respondError(w, http.StatusBadRequest, "invalid_operation", "User is already an admin")
		return
	}

	if err := h.directory.SetRole(r.Context(), user.ID, identity.RoleAdmin); err != nil {
		h.logger.Errorw("Failed to grant admin role", "user_id", user.ID, "error", err)
		respondError(w, http.StatusInternalServerError, "storage_error", "Failed to create admin")
		return
	}

	h.logger.Infow("Admin role granted", "user_id", user.ID, "granted_by", actorID(r))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Admin created successfully",
		"admin":   rosterEntry(*user),
	})
}

// Remove handles DELETE /api/v1/admin/admins/{userId} — revokes the admin
// role. An admin cannot revoke their own role.
func (h *RosterHandler) Remove(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "userId")

	ac, _ := middleware.AuthFromContext(r.Context())
	if targetID == ac.UserID {
		respondError(w, http.StatusBadRequest, "invalid_operation", "You cannot remove your own admin privileges")
		return
	}

	if _, err := h.directory.User(r.Context(), targetID); err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "User not found")
			return
		}
		h.logger.Errorw("Failed to look up user", "user_id", targetID, "error", err)
		respondError(w, http.StatusInternalServerError, "storage_error", "Failed to remove admin")
		return
	}

	if err := h.directory.SetRole(r.Context(), targetID, identity.RoleUser); err != nil {
		h.logger.Errorw("Failed to revoke admin role", "user_id", targetID, "error", err)
		respondError(w, http.StatusInternalServerError, "storage_error", "Failed to remove admin")
		return
	}

	h.logger.Infow("Admin role revoked", "user_id", targetID, "revoked_by", ac.UserID)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Admin privileges removed successfully"})
}
