package participant

import "sync"

// Participant is one member of the room. Identity is client-generated
// and stable across sessions; uniqueness is by ID, never by name.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Registry maps participant IDs to display names. Entries are created
// on the first name announcement and live for the whole process; there
// is no leave signal and no eviction.
type Registry struct {
	lock  sync.RWMutex
	names map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		names: make(map[string]string),
	}
}

// SetName upserts the mapping and returns the full snapshot after the
// write. Empty names are allowed and names need not be unique across
// IDs. Concurrent writes to the same ID are last-write-wins.
func (r *Registry) SetName(id string, name string) map[string]string {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.names[id] = name
	return r.snapshotLocked()
}

// Snapshot returns a copy of the current mapping. Callers own the
// returned map and may mutate it freely.
func (r *Registry) Snapshot() map[string]string {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.snapshotLocked()
}

func (r *Registry) snapshotLocked() map[string]string {
	snapshot := make(map[string]string, len(r.names))
	for id, name := range r.names {
		snapshot[id] = name
	}
	return snapshot
}
