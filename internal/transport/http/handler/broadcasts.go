package handler

import (
	"encoding/json"
	"net/http"

	"github.com/atcloud/message-center/internal/application/fanout"
	"github.com/atcloud/message-center/internal/domain"
	"github.com/atcloud/message-center/internal/pkg/validate"
	"github.com/atcloud/message-center/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// BroadcastHandler handles admin broadcast management.
type BroadcastHandler struct {
	svc fanout.Service
}

func NewBroadcastHandler(svc fanout.Service) *BroadcastHandler {
	return &BroadcastHandler{svc: svc}
}

func (h *BroadcastHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	m, err := h.svc.Broadcast(r.Context(), claims.UserID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, BroadcastEnvelope{Message: m})
}

func (h *BroadcastHandler) AppendRecipients(w http.ResponseWriter, r *http.Request) {
	var req domain.AppendRecipientsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	added, err := h.svc.AppendRecipients(r.Context(), chi.URLParam(r, "id"), req.Recipients)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MutationEnvelope{Success: true, MarkedCount: &added})
}

// Deactivate hides the message from every recipient instantly. The record
// itself is kept; physical deletion is a retention concern.
func (h *BroadcastHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Deactivate(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MutationEnvelope{Success: true})
}
