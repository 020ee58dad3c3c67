package handler

import (
	"net/http"

	"github.com/atcloud/message-center/internal/application/bell"
	"github.com/atcloud/message-center/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// BellHandler handles the bell alert feed endpoints. Every route is scoped
// to the authenticated caller; no recipient id is ever taken from the
// request body or URL.
type BellHandler struct {
	svc bell.Service
}

func NewBellHandler(svc bell.Service) *BellHandler { return &BellHandler{svc: svc} }

func (h *BellHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	entries, unread, err := h.svc.List(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListEnvelope{UnreadCount: unread, Data: entries})
}

func (h *BellHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.MarkRead(r.Context(), claims.UserID, chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MutationEnvelope{Success: true})
}

func (h *BellHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	marked, err := h.svc.MarkAllRead(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MutationEnvelope{Success: true, MarkedCount: &marked})
}

func (h *BellHandler) Remove(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.Remove(r.Context(), claims.UserID, chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MutationEnvelope{Success: true})
}
