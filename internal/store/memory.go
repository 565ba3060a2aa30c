package store

import (
	"context"
	"maps"
	"sync"

	"github.com/claude/amp/internal/models"
)

// MemoryStore keeps the session entries in process memory.
// Used by tests and by ephemeral CLI runs.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]string
	saves   int
}

// Compile-time check: MemoryStore satisfies Store.
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]string{}}
}

// NewMemoryStoreWith creates a MemoryStore seeded with raw entries, which
// may describe a partial (corrupt) session.
func NewMemoryStoreWith(entries map[string]string) *MemoryStore {
	return &MemoryStore{entries: maps.Clone(entries)}
}

func (m *MemoryStore) Save(_ context.Context, s models.Session) error {
	if !s.Valid() {
		return ErrInvalidSession
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = map[string]string{
		KeyUsername: s.Username,
		KeyToken:    s.Token,
	}
	m.saves++
	return nil
}

func (m *MemoryStore) Load(_ context.Context) (models.Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := fromEntries(m.entries)
	return s, ok, nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = map[string]string{}
	return nil
}

// Entries returns a copy of the raw entries.
func (m *MemoryStore) Entries() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.entries)
}

// Saves returns how many times Save has succeeded.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
