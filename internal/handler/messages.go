package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/temitope-ola/ProdTalent-sub003/internal/model"
	"github.com/temitope-ola/ProdTalent-sub003/internal/service"
	"github.com/temitope-ola/ProdTalent-sub003/pkg/logger"
)

// MessageHandler handles message endpoints.
type MessageHandler struct {
	service *service.MessagingService
	logger  *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(svc *service.MessagingService, log *logger.Logger) *MessageHandler {
	return &MessageHandler{service: svc, logger: log}
}

// Send handles POST /api/v1/messages
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "recipient_id and body are required")
		return
	}

	msg, err := h.service.Send(r.Context(), session(r), &req)
	if err != nil {
		h.logger.Warn("send failed", zap.Error(err))
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, model.SendMessageResponse{Message: msg})
}
