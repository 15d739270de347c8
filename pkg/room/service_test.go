package room

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dreamcatcher-tech/recorder/pkg/fanout"
	"github.com/dreamcatcher-tech/recorder/pkg/participant"
	"github.com/dreamcatcher-tech/recorder/pkg/relay"
)

func newRunningService(t *testing.T) Service {
	t.Helper()

	svc := NewService(participant.NewRegistry(), relay.NewLocal(), fanout.New())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go svc.Run(ctx)

	return svc
}

func receivePayload(t *testing.T, sub *fanout.Subscription) []byte {
	t.Helper()
	select {
	case payload := <-sub.C():
		return payload
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestSetNameBroadcastsFullSnapshot(t *testing.T) {
	svc := newRunningService(t)
	sub := svc.Subscribe()
	defer svc.Unsubscribe(sub)

	require.NoError(t, svc.SetName(context.Background(), "u1", "Alice"))
	payload := receivePayload(t, sub)
	require.JSONEq(t, `{"kind":"name-change","participants":{"u1":"Alice"}}`, string(payload))

	// The second event carries the whole mapping, not a delta
	require.NoError(t, svc.SetName(context.Background(), "u2", "Bob"))
	payload = receivePayload(t, sub)
	require.JSONEq(t, `{"kind":"name-change","participants":{"u1":"Alice","u2":"Bob"}}`, string(payload))
}

func TestStartRecordingStampsServerTime(t *testing.T) {
	svc := newRunningService(t)
	sub := svc.Subscribe()
	defer svc.Unsubscribe(sub)

	before := time.Now().UnixMilli()
	timestamp, err := svc.StartRecording(context.Background())
	after := time.Now().UnixMilli()
	require.NoError(t, err)
	require.GreaterOrEqual(t, timestamp, before)
	require.LessOrEqual(t, timestamp, after)

	payload := receivePayload(t, sub)
	expected := fmt.Sprintf(`{"kind":"record-command","action":"start","timestamp":%d}`, timestamp)
	require.JSONEq(t, expected, string(payload))
}

func TestConsecutiveStartsAreBroadcastIndependently(t *testing.T) {
	svc := newRunningService(t)
	sub := svc.Subscribe()
	defer svc.Unsubscribe(sub)

	first, err := svc.StartRecording(context.Background())
	require.NoError(t, err)
	second, err := svc.StartRecording(context.Background())
	require.NoError(t, err)

	// No deduplication: both events arrive, each with its own stamp
	var events []Event
	for i := 0; i < 2; i++ {
		var event Event
		require.NoError(t, json.Unmarshal(receivePayload(t, sub), &event))
		events = append(events, event)
	}
	require.Equal(t, first, events[0].Timestamp)
	require.Equal(t, second, events[1].Timestamp)
}

func TestStopRecordingOmitsTimestamp(t *testing.T) {
	svc := newRunningService(t)
	sub := svc.Subscribe()
	defer svc.Unsubscribe(sub)

	require.NoError(t, svc.StopRecording(context.Background()))

	payload := receivePayload(t, sub)
	require.JSONEq(t, `{"kind":"record-command","action":"stop"}`, string(payload))
	require.NotContains(t, string(payload), "timestamp")
}

func TestNotifyFilesUpdated(t *testing.T) {
	svc := newRunningService(t)
	sub := svc.Subscribe()
	defer svc.Unsubscribe(sub)

	require.NoError(t, svc.NotifyFilesUpdated(context.Background()))
	require.JSONEq(t, `{"kind":"files-updated"}`, string(receivePayload(t, sub)))
}

func TestEverySubscriberSeesEveryEvent(t *testing.T) {
	svc := newRunningService(t)

	subs := make([]*fanout.Subscription, 0, 3)
	for i := 0; i < 3; i++ {
		subs = append(subs, svc.Subscribe())
	}

	require.NoError(t, svc.SetName(context.Background(), "u1", "Alice"))

	for _, sub := range subs {
		require.JSONEq(t, `{"kind":"name-change","participants":{"u1":"Alice"}}`, string(receivePayload(t, sub)))
	}
}
