package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/iliyamo/minibus-booking/internal/booking"
)

// MemoryStore keeps sessions in process memory.  It is used when Redis is
// not reachable at startup and in tests.  Sessions are stored encoded so
// callers never share pointers with the store.  mu guards the maps only;
// Update serializes on a per-session lock, so a slow fn holds up its own
// session and no other.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
	locks   map[string]*sessionLock
}

// sessionLock is a per-session mutex, dropped once no Update uses it.
type sessionLock struct {
	sync.Mutex
	refs int
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewMemoryStore returns a MemoryStore whose entries expire after ttl of
// inactivity.  A ttl of zero disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, entries: make(map[string]memoryEntry), locks: make(map[string]*sessionLock)}
}

func (m *MemoryStore) put(s *booking.Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	e := memoryEntry{data: b}
	if m.ttl > 0 {
		e.expiresAt = m.now().Add(m.ttl)
	}
	m.entries[s.ID] = e
	return nil
}

func (m *MemoryStore) load(id string) (*booking.Session, error) {
	e, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.entries, id)
		return nil, ErrNotFound
	}
	var s booking.Session
	if err := json.Unmarshal(e.data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MemoryStore) Create(_ context.Context, s *booking.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.put(s)
}

func (m *MemoryStore) Get(_ context.Context, id string) (*booking.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(id)
}

func (m *MemoryStore) acquire(id string) *sessionLock {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &sessionLock{}
		m.locks[id] = l
	}
	l.refs++
	m.mu.Unlock()
	l.Lock()
	return l
}

func (m *MemoryStore) release(id string, l *sessionLock) {
	l.Unlock()
	m.mu.Lock()
	if l.refs--; l.refs == 0 {
		delete(m.locks, id)
	}
	m.mu.Unlock()
}

// Update holds the session's own lock for the duration of fn.  A session
// deleted while fn runs stays deleted and Update returns ErrNotFound.
func (m *MemoryStore) Update(_ context.Context, id string, fn func(*booking.Session) error) (*booking.Session, error) {
	l := m.acquire(id)
	defer m.release(id, l)

	m.mu.Lock()
	s, err := m.load(id)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	fnErr := fn(s)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return nil, ErrNotFound
	}
	if err := m.put(s); err != nil {
		return nil, err
	}
	return s, fnErr
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}
