package handlers

import (
	"errors"
	"sync"
	"time"
)

var (
	errUnknownKey = errors.New("unknown key")
	errExpiredKey = errors.New("expired key")
)

type ttlEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// ttlSet holds single-use values that lapse after a deadline: OAuth states
// and the one-time codes handed to the frontend after a callback.
type ttlSet[V any] struct {
	mu      sync.Mutex
	entries map[string]ttlEntry[V]
}

func newTTLSet[V any]() *ttlSet[V] {
	return &ttlSet[V]{entries: make(map[string]ttlEntry[V])}
}

func (s *ttlSet[V]) put(key string, value V, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = ttlEntry[V]{value: value, expiresAt: expiresAt}
}

// take removes key whether or not it is still live.
func (s *ttlSet[V]) take(key string, now time.Time) (V, error) {
	s.mu.Lock()
	entry, ok := s.entries[key]
	delete(s.entries, key)
	s.mu.Unlock()

	var zero V
	if !ok {
		return zero, errUnknownKey
	}
	if now.After(entry.expiresAt) {
		return zero, errExpiredKey
	}
	return entry.value, nil
}

func (s *ttlSet[V]) sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

func (s *ttlSet[V]) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
