// Package events delivers live scan lifecycle events to websocket
// subscribers. Channels are name-scoped ("user:<id>", "repository:<id>");
// clients subscribe to the channels they care about after connecting.
package events

import "context"

// Publisher broadcasts an event to every subscriber of a channel. Publishing
// never blocks on slow consumers and never fails the caller.
type Publisher interface {
	Publish(ctx context.Context, channel, event string, payload any)
}

// NopPublisher discards all events. Used by the one-shot CLI scan, which has
// no websocket clients.
type NopPublisher struct{}

func (NopPublisher) Publish(_ context.Context, _, _ string, _ any) {}

// Envelope is the wire format delivered to subscribers.
type Envelope struct {
	Channel string `json:"channel"`
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}
