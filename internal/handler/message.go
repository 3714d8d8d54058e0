package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/memotag/memotag-server/internal/audit"
	apperrors "github.com/memotag/memotag-server/internal/errors"
	"github.com/memotag/memotag-server/internal/middleware"
	"github.com/memotag/memotag-server/internal/service"
)

type MessageHandler struct {
	messageService *service.MessageService
	sessionMW      *middleware.SessionMiddleware
	postRateLimit  *middleware.IPRateLimitMiddleware
}

func NewMessageHandler(
	messageService *service.MessageService,
	sessionMW *middleware.SessionMiddleware,
	postRateLimit *middleware.IPRateLimitMiddleware,
) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		sessionMW:      sessionMW,
		postRateLimit:  postRateLimit,
	}
}

func (h *MessageHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.With(h.postRateLimit.Handler).Post("/", h.Post)
	r.With(h.sessionMW.Handler).Delete("/{messageID}", h.Delete)
	return r
}

func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	pagination := ParsePagination(r)

	result, err := h.messageService.GetMessages(r.Context(), service.MessageListParams{
		ItemID: r.URL.Query().Get("itemId"),
		Limit:  pagination.Limit,
		Offset: pagination.Offset,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *MessageHandler) Post(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID   string `json:"itemId"`
		Body     string `json:"body"`
		UserName string `json:"userName"`
		Type     string `json:"type"`
		Progress *int   `json:"progress"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "must be valid JSON"))
		return
	}

	msg, err := h.messageService.PostMessage(r.Context(), service.PostMessageParams{
		ItemID:   req.ItemID,
		Body:     req.Body,
		UserName: req.UserName,
		Type:     req.Type,
		Progress: req.Progress,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "messageID")
	if err := h.messageService.DeleteMessage(r.Context(), messageID); err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventMessageDelete,
		Details: map[string]any{"messageId": messageID},
	})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
