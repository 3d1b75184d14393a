// Package identity persists the server-assigned client identifier between
// runs.
package identity

import "sync"

// Store persists a client identifier. Get returns an empty string when no
// identifier has been stored. Clear is exposed for test and debug use; it
// resets play-history-derived eligibility on the server's side at the next
// registration.
type Store interface {
	Get() (string, error)
	Set(id string) error
	Clear() error
}

// MemoryStore keeps the identifier in process memory. Useful for tests and
// for hosts that manage persistence themselves.
type MemoryStore struct {
	mu sync.Mutex
	id string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id, nil
}

func (m *MemoryStore) Set(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.id = id
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.id = ""
	return nil
}

// Verify implementations at compile time.
var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
