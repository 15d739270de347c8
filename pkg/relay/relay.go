package relay

import "context"

// Handler consumes messages delivered by a relay.
type Handler func(Message)

// Relay is the pub/sub bus decoupling state-changing requests from
// subscriber delivery, so several server processes can share one
// logical room. Delivery is at-most-once and fire-and-forget: a
// publisher never learns whether any consumer saw the message, and a
// publisher's own process consumes its messages the same way every
// other process does.
type Relay interface {
	// Publish sends one message to every running consumer, preserving
	// the order of messages from this publisher.
	Publish(ctx context.Context, msg Message) error

	// Run delivers messages to handler, one at a time, until ctx is
	// cancelled. Each process runs exactly one consumer loop.
	Run(ctx context.Context, handler Handler) error
}
