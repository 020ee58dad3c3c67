package push

import (
	"context"
	"errors"
)

// Event names emitted to connected clients.
const (
	EventAdded   = "notification_added"
	EventUpdated = "notification_updated"
)

// AddedPayload announces a new message to a recipient. It deliberately
// carries only enough to render the bell badge; clients fetch the list for
// anything more, and the per-recipient state map never leaves the server.
type AddedPayload struct {
	MessageID string `json:"id"`
	Title     string `json:"title"`
	Priority  string `json:"priority"`
}

// UpdatedPayload tells a recipient's other clients that one of their own
// entries changed (read, removed), so badges can refresh. Bulk operations
// leave MessageID empty; the id field is then omitted from the wire payload
// and clients refresh the whole surface instead of a single row.
type UpdatedPayload struct {
	MessageID string `json:"id,omitempty"`
	Surface   string `json:"surface"`
}

// Gateway delivers real-time events to one recipient. Delivery is
// fire-and-forget: persisted state is authoritative and a client that never
// receives the push recovers correct state on its next poll.
type Gateway interface {
	Emit(ctx context.Context, recipientID, event string, payload interface{}) error
}

// Multi fans one emit across several sinks (SSE for connected browsers,
// SNS for mobile pipelines). A failing sink never blocks the others.
type Multi []Gateway

func (m Multi) Emit(ctx context.Context, recipientID, event string, payload interface{}) error {
	var errs []error
	for _, g := range m {
		if err := g.Emit(ctx, recipientID, event, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
