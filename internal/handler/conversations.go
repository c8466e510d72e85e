package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/temitope-ola/ProdTalent-sub003/internal/middleware"
	"github.com/temitope-ola/ProdTalent-sub003/internal/model"
	"github.com/temitope-ola/ProdTalent-sub003/internal/service"
	"github.com/temitope-ola/ProdTalent-sub003/pkg/logger"
)

// ConversationHandler handles conversation endpoints.
type ConversationHandler struct {
	service *service.MessagingService
	logger  *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(svc *service.MessagingService, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{service: svc, logger: log}
}

// List handles GET /api/v1/conversations
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	conversations, err := h.service.Conversations(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to build conversations",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.ListConversationsResponse{
		Conversations: conversations,
		Total:         len(conversations),
	})
}

// Get handles GET /api/v1/conversations/{counterpartyID}
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	counterpartyID := chi.URLParam(r, "counterpartyID")

	if err := middleware.ValidateUserID(counterpartyID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := h.service.Thread(r.Context(), userID, counterpartyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

// Seed handles POST /api/v1/conversations/seed
func (h *ConversationHandler) Seed(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req model.SeedConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "counterparty_id is required")
		return
	}

	conv, err := h.service.Seed(r.Context(), userID, req.CounterpartyID)
	if err != nil {
		h.logger.Warn("seed failed",
			zap.String("counterparty_id", req.CounterpartyID),
			zap.Error(err),
		)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, conv)
}

// MarkRead handles POST /api/v1/conversations/{counterpartyID}/read
func (h *ConversationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	counterpartyID := chi.URLParam(r, "counterpartyID")

	if err := middleware.ValidateUserID(counterpartyID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := h.service.MarkConversationRead(r.Context(), userID, counterpartyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, conv)
}
