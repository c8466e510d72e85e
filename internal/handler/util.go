// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/temitope-ola/ProdTalent-sub003/internal/middleware"
	"github.com/temitope-ola/ProdTalent-sub003/internal/model"
	"github.com/temitope-ola/ProdTalent-sub003/internal/service"
	"github.com/temitope-ola/ProdTalent-sub003/internal/store"
)

// validate checks struct tags on request payloads.
var validate = validator.New()

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses:
// validation failures surface inline, a missing thread is 404, and store
// outages are transient 503s with a retry affordance.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, store.ErrInvalidID):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrUnavailable):
		w.Header().Set("Retry-After", "5")
		writeError(w, http.StatusServiceUnavailable, "store unavailable, retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// session builds the service session view from the request context.
func session(r *http.Request) service.Session {
	ctx := r.Context()
	return service.Session{
		UserID: middleware.GetUserID(ctx),
		Email:  middleware.GetUserEmail(ctx),
		Role:   model.Role(middleware.GetUserRole(ctx)),
	}
}
