package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"

	"github.com/memotag/memotag-server/internal/audit"
	apperrors "github.com/memotag/memotag-server/internal/errors"
	"github.com/memotag/memotag-server/internal/middleware"
	"github.com/memotag/memotag-server/internal/service"
)

const (
	qrDefaultSize = 256
	qrMinSize     = 128
	qrMaxSize     = 1024
)

type ItemHandler struct {
	itemService *service.ItemService
	sessionMW   *middleware.SessionMiddleware
}

func NewItemHandler(itemService *service.ItemService, sessionMW *middleware.SessionMiddleware) *ItemHandler {
	return &ItemHandler{
		itemService: itemService,
		sessionMW:   sessionMW,
	}
}

func (h *ItemHandler) Routes() chi.Router {
	r := chi.NewRouter()

	// The memo page needs item details without a session.
	r.Get("/", h.List)
	r.Get("/{itemID}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(h.sessionMW.Handler)
		r.Post("/", h.Create)
		r.Patch("/{itemID}/status", h.UpdateStatus)
		r.Delete("/{itemID}", h.Delete)
		r.Get("/{itemID}/qr", h.QRCode)
	})

	return r
}

func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.itemService.GetItems(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.itemService.GetItem(r.Context(), chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID   string `json:"itemId"`
		Name     string `json:"name"`
		Location string `json:"location"`
		Status   string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "must be valid JSON"))
		return
	}

	item, err := h.itemService.CreateItem(r.Context(), service.CreateItemParams{
		ItemID:   req.ItemID,
		Name:     req.Name,
		Location: req.Location,
		Status:   req.Status,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventItemCreate, ItemID: item.ItemID})
	writeJSON(w, http.StatusCreated, item)
}

func (h *ItemHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "must be valid JSON"))
		return
	}

	itemID := chi.URLParam(r, "itemID")
	item, err := h.itemService.UpdateStatus(r.Context(), itemID, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventItemStatusUpdate,
		ItemID:  itemID,
		Details: map[string]any{"status": req.Status},
	})
	writeJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	if err := h.itemService.DeleteItem(r.Context(), itemID); err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventItemDelete, ItemID: itemID})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// QRCode renders the printable tag for an item as a PNG.
func (h *ItemHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	item, err := h.itemService.GetItem(r.Context(), itemID)
	if err != nil {
		writeError(w, err)
		return
	}

	size := qrDefaultSize
	if s, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil && s > 0 {
		size = s
	}
	if size < qrMinSize {
		size = qrMinSize
	}
	if size > qrMaxSize {
		size = qrMaxSize
	}

	png, err := qrcode.Encode(h.itemService.MemoURL(item.ItemID), qrcode.Medium, size)
	if err != nil {
		writeError(w, apperrors.Internal("Failed to generate QR code").WithCause(err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
