package sse

import "sync"

// Event is one server-sent notification frame. Name becomes the SSE
// "event:" field, Data the JSON body.
type Event struct {
	Name string      `json:"event"`
	Data interface{} `json:"data,omitempty"`
}

// Hub keeps in-memory SSE subscribers grouped by recipient. It is
// process-local; the redis Bridge fans events across instances. sync.Map
// keeps lock contention low when many recipients hold open streams.
type Hub struct {
	// subscribers maps recipient id -> *sync.Map used as a set of channels.
	subscribers sync.Map
}

func NewHub() *Hub {
	return &Hub{}
}

// Subscribe registers a stream for the recipient and returns the event
// channel plus an unsubscribe function to call on disconnect.
func (h *Hub) Subscribe(recipientID string) (<-chan Event, func()) {
	ch := make(chan Event, 16)

	v, _ := h.subscribers.LoadOrStore(recipientID, &sync.Map{})
	inner := v.(*sync.Map)
	inner.Store(ch, struct{}{})

	// The channel is never closed: a concurrent Publish may have already
	// loaded it inside Range, and a send on a closed channel would panic
	// the publisher. After Delete it is unreachable and gets collected.
	unsubscribe := func() {
		inner.Delete(ch)
	}

	return ch, unsubscribe
}

// Publish delivers an event to every open stream of the recipient. Slow
// consumers are skipped rather than blocking the producer.
func (h *Hub) Publish(recipientID string, ev Event) {
	v, ok := h.subscribers.Load(recipientID)
	if !ok {
		return
	}
	inner := v.(*sync.Map)

	inner.Range(func(key, _ interface{}) bool {
		ch, ok := key.(chan Event)
		if !ok {
			return true
		}
		select {
		case ch <- ev:
		default:
			// drop if subscriber is slow
		}
		return true
	})
}
