package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrStateNotFound is returned by a Persister when no record exists for a key.
var ErrStateNotFound = errors.New("checkout state not found")

// Persister durably stores one State record per session key.
type Persister interface {
	Load(ctx context.Context, key string) (*State, error)
	Save(ctx context.Context, key string, state State) error
}

func encodeState(state State) ([]byte, error) {
	payload, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode checkout state: %w", err)
	}
	return payload, nil
}

func decodeState(payload []byte) (*State, error) {
	var state State
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, fmt.Errorf("decode checkout state: %w", err)
	}
	if state.Items == nil {
		state.Items = []CartItem{}
	}
	return &state, nil
}

// MemoryPersister keeps encoded records in process memory. With a TTL,
// records not saved or loaded within it are dropped.
type MemoryPersister struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
	ttl     time.Duration
	now     func() time.Time
}

type memoryRecord struct {
	payload []byte
	touched time.Time
}

// NewMemoryPersister returns an empty in-memory persister without expiry.
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{records: map[string]memoryRecord{}, now: time.Now}
}

// NewExpiringMemoryPersister returns an in-memory persister whose records
// expire after ttl without use.
func NewExpiringMemoryPersister(ttl time.Duration, now func() time.Time) *MemoryPersister {
	m := NewMemoryPersister()
	m.ttl = ttl
	if now != nil {
		m.now = now
	}
	return m
}

// Load implements Persister.
func (m *MemoryPersister) Load(_ context.Context, key string) (*State, error) {
	m.mu.Lock()
	rec, ok := m.records[key]
	if ok && m.expired(rec) {
		delete(m.records, key)
		ok = false
	}
	if ok {
		rec.touched = m.now()
		m.records[key] = rec
	}
	m.mu.Unlock()
	if !ok {
		return nil, ErrStateNotFound
	}
	return decodeState(rec.payload)
}

// Save implements Persister.
func (m *MemoryPersister) Save(_ context.Context, key string, state State) error {
	payload, err := encodeState(state)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.records[key] = memoryRecord{payload: payload, touched: m.now()}
	m.mu.Unlock()
	return nil
}

// Sweep drops expired records and reports how many were removed.
func (m *MemoryPersister) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for key, rec := range m.records {
		if m.expired(rec) {
			delete(m.records, key)
			removed++
		}
	}
	return removed
}

func (m *MemoryPersister) expired(rec memoryRecord) bool {
	return m.ttl > 0 && !m.now().Before(rec.touched.Add(m.ttl))
}

// Raw returns the encoded record stored under key.
func (m *MemoryPersister) Raw(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[key]
	return rec.payload, ok
}
