package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process session store. Sessions are lost on restart.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	now      func() time.Time
}

// NewMemoryStore creates a new in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Session),
		now:      time.Now,
	}
}

// Create stores a new session.
// PRE: s.Token and s.AccountID are non-empty
// POST: Session is retrievable by token until it expires
func (m *MemoryStore) Create(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.Token] = s
	return nil
}

// Get retrieves a session by token, dropping it if expired.
func (m *MemoryStore) Get(_ context.Context, token string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	if s.Expired(m.now()) {
		delete(m.sessions, token)
		return Session{}, ErrNotFound
	}
	return s, nil
}

// Touch updates the expiry of an existing session.
func (m *MemoryStore) Touch(_ context.Context, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return ErrNotFound
	}
	s.ExpiresAt = expiresAt
	m.sessions[token] = s
	return nil
}

// Delete removes a session by token.
func (m *MemoryStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

// DeleteByAccount removes every session belonging to accountID.
func (m *MemoryStore) DeleteByAccount(_ context.Context, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for token, s := range m.sessions {
		if s.AccountID == accountID {
			delete(m.sessions, token)
		}
	}
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for token, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, token)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps expired sessions every interval until ctx is done.
func (m *MemoryStore) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
