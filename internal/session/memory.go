package session

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/soyeahso/shopdesk/internal/domain"
)

// MemoryStore is an in-process Store. Sessions idle longer than the TTL are
// treated as absent and removed by Sweep.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore creates a store. A ttl of zero keeps sessions forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]domain.Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *MemoryStore) expired(s domain.Session, now time.Time) bool {
	return m.ttl > 0 && now.Sub(s.UpdatedAt) > m.ttl
}

// Get returns a copy of the user's session, or a new Idle one.
func (m *MemoryStore) Get(_ context.Context, userID string) (domain.Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[userID]
	m.mu.RUnlock()
	if !ok || m.expired(s, m.now()) {
		return domain.NewSession(userID), nil
	}
	return s.Clone(), nil
}

// Set stores a copy of s and stamps UpdatedAt.
func (m *MemoryStore) Set(_ context.Context, s domain.Session) error {
	c := s.Clone()
	c.UpdatedAt = m.now()
	m.mu.Lock()
	m.sessions[s.UserID] = c
	m.mu.Unlock()
	return nil
}

// Delete removes the user's session. Deleting an absent session is a no-op.
func (m *MemoryStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	delete(m.sessions, userID)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Active returns unexpired sessions that are mid-flow, most recently
// updated first.
func (m *MemoryStore) Active(_ context.Context) ([]domain.Session, error) {
	now := m.now()
	m.mu.RLock()
	var out []domain.Session
	for _, s := range m.sessions {
		if s.State.IsIdle() || m.expired(s, now) {
			continue
		}
		out = append(out, s.Clone())
	}
	m.mu.RUnlock()
	slices.SortFunc(out, func(a, b domain.Session) int { return b.UpdatedAt.Compare(a.UpdatedAt) })
	return out, nil
}

// Sweep removes expired sessions and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if m.expired(s, now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// StartSweeper runs Sweep every interval until ctx is done.
func (m *MemoryStore) StartSweeper(ctx context.Context, interval time.Duration) {
	if m.ttl <= 0 || interval <= 0 {
		return
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				m.Sweep()
			}
		}
	}()
}
