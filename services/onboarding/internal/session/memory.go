package session

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	value   string
	expires time.Time
}

// MemoryStore is an in-process Store for development and tests.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]memEntry
	now  func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]memEntry), now: time.Now}
}

func memKey(sid, key string) string { return sid + "\x00" + key }

// get must be called with mu held.
func (s *MemoryStore) get(k string) (string, bool) {
	e, ok := s.data[k]
	if !ok {
		return "", false
	}
	if !e.expires.IsZero() && !s.now().Before(e.expires) {
		delete(s.data, k)
		return "", false
	}
	return e.value, true
}

func (s *MemoryStore) Get(_ context.Context, sid, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.get(memKey(sid, key))
	if !ok {
		return "", ErrMissing
	}
	return v, nil
}

func (s *MemoryStore) Set(_ context.Context, sid, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := memEntry{value: value}
	if ttl > 0 {
		e.expires = s.now().Add(ttl)
	}
	s.data[memKey(sid, key)] = e
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sid, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, memKey(sid, key))
	return nil
}

func (s *MemoryStore) CompareAndDelete(_ context.Context, sid, key, expected string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := memKey(sid, key)
	if v, ok := s.get(k); !ok || v != expected {
		return false, nil
	}
	delete(s.data, k)
	return true, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }
