package relay

import "context"

// localRelay is the single-process bus used when no Redis address is
// configured. Same contract as the Redis relay, minus the network.
type localRelay struct {
	ch chan Message
}

const localBuffer = 64

// NewLocal creates an in-process relay. Messages published before the
// consumer loop starts are held in a bounded buffer.
func NewLocal() Relay {
	return &localRelay{
		ch: make(chan Message, localBuffer),
	}
}

func (r *localRelay) Publish(ctx context.Context, msg Message) error {
	select {
	case r.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *localRelay) Run(ctx context.Context, handler Handler) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-r.ch:
			handler(msg)
		}
	}
}
