package handler

import (
	"net/http"

	"github.com/atcloud/message-center/internal/application/system"
	"github.com/atcloud/message-center/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// SystemHandler handles the persistent inbox endpoints.
type SystemHandler struct {
	svc system.Service
}

func NewSystemHandler(svc system.Service) *SystemHandler { return &SystemHandler{svc: svc} }

func (h *SystemHandler) List(w http.ResponseWriter, r *http.Request) {
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

func (h *SystemHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
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

func (h *SystemHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
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

// Delete removes a message from the caller's inbox. Unlike the bell
// surface, unread messages can be deleted here.
func (h *SystemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.Delete(r.Context(), claims.UserID, chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MutationEnvelope{Success: true})
}

func (h *SystemHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	deleted, err := h.svc.DeleteAll(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MutationEnvelope{Success: true, MarkedCount: &deleted})
}
