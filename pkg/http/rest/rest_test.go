package rest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/dreamcatcher-tech/recorder/pkg/fanout"
	"github.com/dreamcatcher-tech/recorder/pkg/participant"
	"github.com/dreamcatcher-tech/recorder/pkg/relay"
	"github.com/dreamcatcher-tech/recorder/pkg/room"
	"github.com/dreamcatcher-tech/recorder/pkg/storage"
)

// newRunningService wires a room service on the in-process relay and
// starts its consumer loop for the duration of the test.
func newRunningService(t *testing.T) (room.Service, *fanout.Fanout) {
	t.Helper()

	f := fanout.New()
	svc := room.NewService(participant.NewRegistry(), relay.NewLocal(), f)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go svc.Run(ctx)

	return svc, f
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

// memStore is an in-memory stand-in for the blob store.
type memStore struct {
	lock    sync.Mutex
	objects map[string]memObject
	failing bool
}

type memObject struct {
	data        []byte
	contentType string
	metadata    map[string]string
}

var errStoreUnavailable = errors.New("store unavailable")

func newMemStore() *memStore {
	return &memStore{objects: make(map[string]memObject)}
}

func (m *memStore) Put(ctx context.Context, key string, body io.Reader, contentType string, metadata map[string]string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.failing {
		return errStoreUnavailable
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[key] = memObject{data, contentType, metadata}
	return nil
}

func (m *memStore) List(ctx context.Context) ([]storage.Object, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.failing {
		return nil, errStoreUnavailable
	}
	objects := []storage.Object{}
	for key, obj := range m.objects {
		objects = append(objects, storage.Object{Key: key, Size: int64(len(obj.data))})
	}
	return objects, nil
}

func (m *memStore) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.failing {
		return nil, "", errStoreUnavailable
	}
	obj, found := m.objects[key]
	if !found {
		return nil, "", storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.contentType, nil
}
