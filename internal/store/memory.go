package store

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// MemoryStore is the process-local Store used when no shared store is
// configured, and as the degradation target when Redis is unreachable.
// Expiry is lazy on read plus a periodic Sweep (driven by a cron schedule
// in the serve command).
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]*memEntry
	hashes map[string]*memHash
	now    func() time.Time
}

type memEntry struct {
	value     string
	expiresAt time.Time // zero = no expiry
}

type memHash struct {
	fields    map[string]int64
	raw       map[string]string
	expiresAt time.Time
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]*memEntry),
		hashes: make(map[string]*memHash),
		now:    time.Now,
	}
}

func (e *memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

func (h *memHash) expired(now time.Time) bool {
	return !h.expiresAt.IsZero() && now.After(h.expiresAt)
}

func (s *MemoryStore) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if e, ok := s.values[key]; ok && !e.expired(now) {
		return false, nil
	}
	s.values[key] = &memEntry{value: value, expiresAt: expiry(now, ttl)}
	return true, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.values[key]
	if !ok || e.expired(s.now()) {
		delete(s.values, key)
		return "", ErrNotFound
	}
	return e.value, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = &memEntry{value: value, expiresAt: expiry(s.now(), ttl)}
	return nil
}

func (s *MemoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.values, k)
		delete(s.hashes, k)
	}
	return nil
}

func (s *MemoryStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hashes[key]
	if !ok || h.expired(s.now()) {
		delete(s.hashes, key)
		return map[string]string{}, nil
	}
	out := make(map[string]string, len(h.fields)+len(h.raw))
	for f, v := range h.raw {
		out[f] = v
	}
	for f, n := range h.fields {
		out[f] = strconv.FormatInt(n, 10)
	}
	return out, nil
}

func (s *MemoryStore) HSet(_ context.Context, key string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.hash(key)
	for f, v := range fields {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			h.fields[f] = n
			delete(h.raw, f)
		} else {
			h.raw[f] = v
			delete(h.fields, f)
		}
	}
	return nil
}

func (s *MemoryStore) HIncrBy(_ context.Context, key, field string, incr int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.hash(key)
	h.fields[field] += incr
	return h.fields[field], nil
}

func (s *MemoryStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if e, ok := s.values[key]; ok && !e.expired(now) {
		e.expiresAt = expiry(now, ttl)
	}
	if h, ok := s.hashes[key]; ok && !h.expired(now) {
		h.expiresAt = expiry(now, ttl)
	}
	return nil
}

// hash returns the live hash at key, replacing an expired one. Callers hold mu.
func (s *MemoryStore) hash(key string) *memHash {
	h, ok := s.hashes[key]
	if !ok || h.expired(s.now()) {
		h = &memHash{fields: make(map[string]int64), raw: make(map[string]string)}
		s.hashes[key] = h
	}
	return h
}

// Sweep removes expired entries. Safe to call concurrently with operations.
func (s *MemoryStore) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, e := range s.values {
		if e.expired(now) {
			delete(s.values, k)
		}
	}
	for k, h := range s.hashes {
		if h.expired(now) {
			delete(s.hashes, k)
		}
	}
}

func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}
