package interview

import (
	"context"
	"sync"
	"time"
)

// SessionTTL bounds how long an unfinished interview is kept.
const SessionTTL = 24 * time.Hour

type memoryEntry struct {
	session Session
	expires time.Time
}

// MemoryStore keeps sessions in process. Every save pushes the expiry
// SessionTTL into the future, matching RedisStore.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ttl: SessionTTL, now: time.Now, sessions: make(map[string]memoryEntry)}
}

func cloneSession(s *Session) *Session {
	cp := *s
	cp.Questions = append([]Question(nil), s.Questions...)
	cp.Transcript = append([]Turn(nil), s.Transcript...)
	return &cp
}

// live returns the entry for id, dropping it when it has expired.
// Callers hold m.mu.
func (m *MemoryStore) live(id string) (memoryEntry, bool) {
	e, ok := m.sessions[id]
	if !ok {
		return memoryEntry{}, false
	}
	if !m.now().Before(e.expires) {
		delete(m.sessions, id)
		return memoryEntry{}, false
	}
	return e, true
}

func (m *MemoryStore) put(s *Session) {
	m.sessions[s.ID] = memoryEntry{session: *cloneSession(s), expires: m.now().Add(m.ttl)}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(id)
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSession(&e.session), nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for id, e := range m.sessions {
		if !now.Before(e.expires) {
			delete(m.sessions, id)
		}
	}
	m.put(s)
	return nil
}

func (m *MemoryStore) Update(_ context.Context, id string, fn func(*Session) error) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(id)
	if !ok {
		return nil, ErrNotFound
	}
	sess := cloneSession(&e.session)
	if err := fn(sess); err != nil {
		return nil, err
	}
	m.put(sess)
	return sess, nil
}
