// Package syncqueue buffers mutating operations made while offline and
// replays them in order once connectivity returns.
package syncqueue

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// Operation names a buffered mutation.
type Operation string

const (
	OpSaveLog       Operation = "saveLog"
	OpUpdateLog     Operation = "updateLog"
	OpDeleteLog     Operation = "deleteLog"
	OpUpdateProfile Operation = "updateProfile"
)

// Entry is one buffered operation. Entries are owned by the originating
// device and removed only after the remote apply succeeds. Seq is assigned
// by the store on append and orders entries even when timestamps collide.
type Entry struct {
	ID            string          `json:"entry_id"`
	Seq           int64           `json:"seq,omitempty"`
	DeviceID      string          `json:"device_id"`
	Operation     Operation       `json:"operation"`
	Payload       json.RawMessage `json:"payload"`
	EnqueuedAt    time.Time       `json:"enqueued_at"`
	Attempts      int             `json:"attempts"`
	LastError     string          `json:"last_error,omitempty"`
	QuarantinedAt *time.Time      `json:"quarantined_at,omitempty"`
}

// Store persists queue entries. List returns live entries in append order;
// quarantined entries are excluded so one poison entry cannot block the rest.
// Devices returns every device id with at least one live entry.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	List(ctx context.Context, deviceID string) ([]Entry, error)
	Devices(ctx context.Context) ([]string, error)
	Update(ctx context.Context, entry Entry) error
	Remove(ctx context.Context, entryID string) error
}

// MemoryStore keeps queue entries in memory for tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	seq     int64
	entries map[string]Entry
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

// Append implements Store, stamping the next sequence number.
func (s *MemoryStore) Append(ctx context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	entry.Seq = s.seq
	s.entries[entry.ID] = entry
	return nil
}

// List implements Store: live entries only, sequence ascending.
func (s *MemoryStore) List(ctx context.Context, deviceID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0)
	for _, entry := range s.entries {
		if entry.DeviceID == deviceID && entry.QuarantinedAt == nil {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

// Devices implements Store.
func (s *MemoryStore) Devices(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []string
	for _, entry := range s.entries {
		if entry.QuarantinedAt != nil {
			continue
		}
		if _, ok := seen[entry.DeviceID]; ok {
			continue
		}
		seen[entry.DeviceID] = struct{}{}
		out = append(out, entry.DeviceID)
	}
	sort.Strings(out)
	return out, nil
}

// Update implements Store.
func (s *MemoryStore) Update(ctx context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = entry
	return nil
}

// Remove implements Store.
func (s *MemoryStore) Remove(ctx context.Context, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, entryID)
	return nil
}
