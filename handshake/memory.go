package handshake

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. Single instance deployments and tests
// only: nothing is shared across processes.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Handshake
	clock   func() time.Time
}

// NewMemoryStore creates an in-memory handshake store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: map[string]Handshake{},
		clock:   time.Now,
	}
}

// WithClock overrides the store clock, useful for expiry tests.
func (m *MemoryStore) WithClock(clock func() time.Time) *MemoryStore {
	m.clock = clock
	return m
}

func (m *MemoryStore) Put(_ context.Context, h Handshake) error {
	if h.Token == "" {
		return ErrHandshakeExpired
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[h.Token] = h
	return nil
}

func (m *MemoryStore) Get(_ context.Context, token string) (*Handshake, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.entries[token]
	if !ok {
		return nil, ErrHandshakeExpired
	}

	if h.Expired(m.clock()) {
		delete(m.entries, token)
		return nil, ErrHandshakeExpired
	}

	out := h
	return &out, nil
}

func (m *MemoryStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, token)
	return nil
}

var _ Store = (*MemoryStore)(nil)
