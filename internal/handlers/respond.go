// Package handlers contains HTTP request handlers for the CityCare API.
// Handlers parse requests, call services, and return JSON responses; all
// service errors are translated here from the application taxonomy.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/citycare/complaint-server/internal/apperr"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// urlID extracts the {id} path parameter.
func urlID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// respondJSON writes data as a JSON response body.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError writes a {error, message} body.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]string{"error": code, "message": message})
}

// respondAppErr translates a service error into its HTTP shape. Storage
// failures are logged server-side and reported without internals.
func respondAppErr(w http.ResponseWriter, logger *zap.SugaredLogger, err error) {
	ae := apperr.From(err)
	message := ae.Message
	if ae.Code == apperr.CodeStorage {
		logger.Errorw("Request failed", "error", err)
		message = "Internal server error"
	}
	respondError(w, ae.HTTPStatus(), string(ae.Code), message)
}
