package sse

import "context"

// Gateway adapts the Hub (and optional Bridge) to the push.Gateway
// interface consumed by the fan-out and surface services.
type Gateway struct {
	hub    *Hub
	bridge *Bridge // nil in single-instance mode
}

func NewGateway(hub *Hub, bridge *Bridge) *Gateway {
	return &Gateway{hub: hub, bridge: bridge}
}

func (g *Gateway) Emit(ctx context.Context, recipientID, event string, payload interface{}) error {
	ev := Event{Name: event, Data: payload}
	if g.bridge != nil {
		// The bridge replays the event into the local hub too.
		return g.bridge.Publish(ctx, recipientID, ev)
	}
	g.hub.Publish(recipientID, ev)
	return nil
}
