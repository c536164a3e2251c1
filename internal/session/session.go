// Package session keeps the per-actor conversation state between updates.
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Record is the persisted form of a flow state: State is "<flow>:<step>",
// Data holds the fields collected so far.
type Record struct {
	State string          `json:"state"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type Store interface {
	Get(ctx context.Context, actor int64) (Record, bool, error)
	Set(ctx context.Context, actor int64, rec Record) error
	Clear(ctx context.Context, actor int64) error
}

type memoryEntry struct {
	rec     Record
	expires time.Time
}

// MemoryStore is an in-process Store. A zero TTL keeps records forever.
type MemoryStore struct {
	mu   sync.RWMutex
	recs map[int64]memoryEntry
	ttl  time.Duration
	now  func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		recs: make(map[int64]memoryEntry),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, actor int64) (Record, bool, error) {
	m.mu.RLock()
	e, ok := m.recs[actor]
	m.mu.RUnlock()
	if !ok {
		return Record{}, false, nil
	}
	if !e.expires.IsZero() && m.now().After(e.expires) {
		m.mu.Lock()
		delete(m.recs, actor)
		m.mu.Unlock()
		return Record{}, false, nil
	}
	return e.rec, true, nil
}

func (m *MemoryStore) Set(_ context.Context, actor int64, rec Record) error {
	e := memoryEntry{rec: rec}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	m.recs[actor] = e
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, actor int64) error {
	m.mu.Lock()
	delete(m.recs, actor)
	m.mu.Unlock()
	return nil
}
