package room

import (
	"context"
	"encoding/json"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/dreamcatcher-tech/recorder/pkg/fanout"
	"github.com/dreamcatcher-tech/recorder/pkg/participant"
	"github.com/dreamcatcher-tech/recorder/pkg/relay"
)

// Service coordinates the shared room: the participant registry, the
// start/stop recording protocol and the live event stream. Every
// mutation goes through the relay, so all subscribers, including the
// mutation's own originator, observe the same sequence of events.
type Service interface {
	// Subscribe opens a live event channel for one connected client.
	Subscribe() *fanout.Subscription

	// Unsubscribe removes the channel. Idempotent.
	Unsubscribe(sub *fanout.Subscription)

	// SetName upserts a participant's display name and broadcasts the
	// full snapshot to every subscriber.
	SetName(ctx context.Context, id string, name string) error

	// StartRecording stamps the server's current epoch time, broadcasts
	// a start command carrying it and returns the stamp. The server
	// clock is the single source of truth for when recording officially
	// starts; consecutive starts are broadcast independently with no
	// deduplication.
	StartRecording(ctx context.Context) (int64, error)

	// StopRecording broadcasts a stop command, with no timestamp.
	StopRecording(ctx context.Context) error

	// NotifyFilesUpdated tells every subscriber to re-query the catalog.
	NotifyFilesUpdated(ctx context.Context) error

	// Run consumes the relay and feeds the fanout until ctx is
	// cancelled. Exactly one Run loop per process.
	Run(ctx context.Context) error
}

type service struct {
	registry *participant.Registry
	bus      relay.Relay
	fanout   *fanout.Fanout
}

func NewService(registry *participant.Registry, bus relay.Relay, f *fanout.Fanout) Service {
	return &service{
		registry: registry,
		bus:      bus,
		fanout:   f,
	}
}

func (s *service) Subscribe() *fanout.Subscription {
	return s.fanout.Subscribe()
}

func (s *service) Unsubscribe(sub *fanout.Subscription) {
	s.fanout.Unsubscribe(sub)
}

func (s *service) SetName(ctx context.Context, id string, name string) error {
	snapshot := s.registry.SetName(id, name)
	return s.bus.Publish(ctx, relay.NameChange(snapshot))
}

func (s *service) StartRecording(ctx context.Context) (int64, error) {
	timestamp := time.Now().UnixMilli()
	if err := s.bus.Publish(ctx, relay.RecordStart(timestamp)); err != nil {
		return 0, err
	}
	return timestamp, nil
}

func (s *service) StopRecording(ctx context.Context) error {
	return s.bus.Publish(ctx, relay.RecordStop())
}

func (s *service) NotifyFilesUpdated(ctx context.Context) error {
	return s.bus.Publish(ctx, relay.FilesUpdated())
}

func (s *service) Run(ctx context.Context) error {
	return s.bus.Run(ctx, s.deliver)
}

func (s *service) deliver(msg relay.Message) {
	event, known := eventFromMessage(msg)
	if !known {
		log.Warnf("dropping message of unknown kind | kind: %s", msg.Kind)
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Errorf("cannot marshal event | error: %v, kind: %s", err, event.Kind)
		return
	}

	s.fanout.Broadcast(payload)
}
