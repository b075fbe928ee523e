// Package memory is the in-process fallback session store. It has no
// native expiry, so entries carry an explicit deadline checked lazily on
// read and swept by PurgeExpired from the reaper.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vetassist/vetchat/internal/domain"
	"github.com/vetassist/vetchat/internal/store"
)

type entry struct {
	rec       *domain.SessionRecord
	ttl       time.Duration
	expiresAt time.Time
}

type counter struct {
	count   int64
	resetAt time.Time
}

// Store is a mutex-guarded map store. It is mutated from both the request
// path and the reaper, so all access goes through the lock.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	counters map[string]*counter

	// now is stubbed in tests.
	now func() time.Time
}

var _ store.SessionStore = (*Store)(nil)

// New creates an empty in-process store.
func New() *Store {
	return &Store{
		sessions: make(map[string]*entry),
		counters: make(map[string]*counter),
		now:      time.Now,
	}
}

func (s *Store) Get(ctx context.Context, key store.Key) (*domain.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[key.String()]
	if !ok {
		return nil, store.ErrNotFound
	}
	if s.now().After(e.expiresAt) {
		delete(s.sessions, key.String())
		return nil, store.ErrNotFound
	}

	// Sliding expiration: reading refreshes the deadline.
	e.expiresAt = s.now().Add(e.ttl)
	return e.rec.Clone(), nil
}

func (s *Store) Put(ctx context.Context, key store.Key, rec *domain.SessionRecord, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[key.String()] = &entry{
		rec:       rec.Clone(),
		ttl:       ttl,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key store.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, key.String())
	return nil
}

func (s *Store) Incr(ctx context.Context, counterKey string, window time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c, ok := s.counters[counterKey]
	if !ok || now.After(c.resetAt) {
		c = &counter{resetAt: now.Add(window)}
		s.counters[counterKey] = c
	}
	c.count++
	return c.count, c.resetAt.Sub(now), nil
}

func (s *Store) PurgeExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	purged := 0
	for key, e := range s.sessions {
		if now.After(e.expiresAt) {
			delete(s.sessions, key)
			purged++
		}
	}
	for key, c := range s.counters {
		if now.After(c.resetAt) {
			delete(s.counters, key)
		}
	}
	return purged, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// Len reports the number of live session entries. Used by tests and the
// health endpoint.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
