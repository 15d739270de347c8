package relay

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/gommon/log"
)

// DefaultChannel is the Redis pub/sub channel shared by every server
// process serving the room.
const DefaultChannel = "room:events"

const reconnectDelay = 2 * time.Second

// redisRelay carries messages over a Redis pub/sub channel so the
// process handling a request and the processes holding the live
// subscriptions need not be the same.
type redisRelay struct {
	client  *redis.Client
	channel string
}

// NewRedis creates a relay on top of an existing Redis client. The
// caller keeps ownership of the client.
func NewRedis(client *redis.Client, channel string) Relay {
	if channel == "" {
		channel = DefaultChannel
	}
	return &redisRelay{client: client, channel: channel}
}

func (r *redisRelay) Publish(ctx context.Context, msg Message) error {
	payload, err := Encode(msg)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, payload).Err()
}

// Run subscribes and delivers until ctx is cancelled, reconnecting
// after transient subscription errors.
func (r *redisRelay) Run(ctx context.Context, handler Handler) error {
	for {
		err := r.consume(ctx, handler)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			log.Warnf("relay subscription error, reconnecting | error: %v, channel: %s", err, r.channel)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}

func (r *redisRelay) consume(ctx context.Context, handler Handler) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	// Wait for the subscription to be active before reading
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case received, open := <-ch:
			if !open {
				return nil
			}
			msg, err := Decode([]byte(received.Payload))
			if err != nil {
				log.Warnf("relay dropped malformed message | error: %v, channel: %s", err, r.channel)
				continue
			}
			handler(msg)
		}
	}
}
