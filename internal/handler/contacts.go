package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/temitope-ola/ProdTalent-sub003/internal/contact"
	"github.com/temitope-ola/ProdTalent-sub003/internal/middleware"
	"github.com/temitope-ola/ProdTalent-sub003/internal/model"
	"github.com/temitope-ola/ProdTalent-sub003/internal/store"
	"github.com/temitope-ola/ProdTalent-sub003/pkg/logger"
)

// ContactHandler exposes contact resolution and identity-partition writes.
type ContactHandler struct {
	resolver *contact.Resolver
	store    *store.Store
	logger   *logger.Logger
}

// NewContactHandler creates a new contact handler.
func NewContactHandler(resolver *contact.Resolver, st *store.Store, log *logger.Logger) *ContactHandler {
	return &ContactHandler{resolver: resolver, store: st, logger: log}
}

// Get handles GET /api/v1/contacts/{id}
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateUserID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.resolver.Resolve(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "contact not found")
			return
		}
		h.logger.Error("contact resolution failed", zap.String("contact_id", id), zap.Error(err))
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// Upsert handles PUT /api/v1/identities/{partition}/{id}
//
// This is the minimal surface through which the profile system (out of
// scope here) feeds the identity partitions the resolver probes.
func (h *ContactHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	partition, err := store.ParsePartition(chi.URLParam(r, "partition"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateUserID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.UpsertContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "display_name and a valid email are required")
		return
	}

	c := model.Contact{
		ID:          id,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		AvatarRef:   req.AvatarRef,
	}
	if err := h.store.PutContact(r.Context(), partition, c); err != nil {
		h.logger.Error("put contact failed", zap.String("contact_id", id), zap.Error(err))
		writeServiceError(w, err)
		return
	}

	c.Role = partition.Role()
	writeJSON(w, http.StatusOK, c)
}
