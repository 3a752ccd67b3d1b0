package auth

import (
	"context"
	"sync"
	"time"
)

// SessionRegistry tracks which issued sessions are still live, so a
// logout revokes the token even before it expires.
type SessionRegistry interface {
	Add(ctx context.Context, id string, ttl time.Duration) error
	Active(ctx context.Context, id string) (bool, error)
	Remove(ctx context.Context, id string) error
}

// MemoryRegistry keeps sessions in process memory. Expired entries are
// dropped lazily on lookup and on every Add.
type MemoryRegistry struct {
	mu       sync.Mutex
	sessions map[string]time.Time
	now      func() time.Time
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		sessions: make(map[string]time.Time),
		now:      time.Now,
	}
}

func (m *MemoryRegistry) Add(_ context.Context, id string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for sid, expires := range m.sessions {
		if !now.Before(expires) {
			delete(m.sessions, sid)
		}
	}
	m.sessions[id] = now.Add(ttl)
	return nil
}

func (m *MemoryRegistry) Active(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	expires, ok := m.sessions[id]
	if !ok {
		return false, nil
	}
	if !m.now().Before(expires) {
		delete(m.sessions, id)
		return false, nil
	}
	return true, nil
}

func (m *MemoryRegistry) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len returns the number of tracked sessions, expired or not.
func (m *MemoryRegistry) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
