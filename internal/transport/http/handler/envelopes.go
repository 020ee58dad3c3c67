package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/atcloud/message-center/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// ListEnvelope wraps bell and system listings.
type ListEnvelope struct {
	UnreadCount int                   `json:"unread_count"`
	Data        []domain.SurfaceEntry `json:"data"`
}

// MutationEnvelope wraps state-changing responses. MarkedCount is only set
// by bulk operations.
type MutationEnvelope struct {
	Success     bool   `json:"success"`
	MarkedCount *int   `json:"marked_count,omitempty"`
	Error       string `json:"error,omitempty"`
}

// BroadcastEnvelope wraps message-creation responses.
type BroadcastEnvelope struct {
	Message *domain.Message `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain sentinel errors to HTTP status codes. ErrNotFound
// and ErrNotEligible both become 404 so the response never reveals whether
// a message exists for someone else, but they are logged under different
// reasons to keep historical-leakage regressions visible.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		slog.Info("request failed", "reason", "not_found", "err", err)
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrNotEligible):
		slog.Info("request failed", "reason", "not_eligible", "err", err)
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "conflict")
	case errors.Is(err, domain.ErrInvalidAudience), errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	default:
		slog.Error("request failed", "reason", "internal", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
