package sse

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// envelope is the shape published to the shared redis channel. It wraps the
// recipient-scoped event so every instance can replay it into its local Hub.
type envelope struct {
	RecipientID string      `json:"recipient_id"`
	Event       string      `json:"event"`
	Data        interface{} `json:"data,omitempty"`
	SentAt      time.Time   `json:"sent_at"`
}

// Bridge connects the in-process Hub to a redis pub/sub channel so that a
// push emitted on one instance reaches streams held open by any instance.
// Without a Bridge the Hub still works in single-instance mode.
type Bridge struct {
	client  *redis.Client
	channel string
	hub     *Hub
}

func NewBridge(client *redis.Client, channel string, hub *Hub) *Bridge {
	return &Bridge{client: client, channel: channel, hub: hub}
}

// Publish sends the event to the shared channel. All instances, including
// this one, receive it through Run and fan it into their local hubs.
func (b *Bridge) Publish(ctx context.Context, recipientID string, ev Event) error {
	body, err := json.Marshal(envelope{
		RecipientID: recipientID,
		Event:       ev.Name,
		Data:        ev.Data,
		SentAt:      time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, body).Err()
}

// Run subscribes to the shared channel and forwards events into the local
// Hub until ctx is cancelled. Intended to run in its own goroutine.
func (b *Bridge) Run(ctx context.Context) {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		slog.Error("sse bridge: subscribe failed", "channel", b.channel, "err", err)
		return
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				slog.Warn("sse bridge: bad payload", "channel", b.channel, "err", err)
				continue
			}
			if env.RecipientID == "" || env.Event == "" {
				continue
			}
			b.hub.Publish(env.RecipientID, Event{Name: env.Event, Data: env.Data})
		}
	}
}
