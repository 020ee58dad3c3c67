package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/atcloud/message-center/internal/infrastructure/sse"
	"github.com/atcloud/message-center/internal/transport/http/middleware"
)

const heartbeatInterval = 25 * time.Second

// StreamHandler serves the SSE stream carrying push events to the
// authenticated recipient's connected clients.
type StreamHandler struct {
	hub *sse.Hub
}

func NewStreamHandler(hub *sse.Hub) *StreamHandler { return &StreamHandler{hub: hub} }

func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, unsubscribe := h.hub.Subscribe(claims.UserID)
	defer unsubscribe()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			// Comment frame keeps proxies from closing the idle stream.
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev := <-events:
			body, err := json.Marshal(ev.Data)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, body)
			flusher.Flush()
		}
	}
}
