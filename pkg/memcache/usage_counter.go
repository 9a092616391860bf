// Package mem keeps process-local fallbacks for state that normally lives in
// Redis. Nothing here survives a restart.
package mem

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	count     int64
	expiresAt time.Time
}

// UsageCounters is an in-process monthly counter keyed by an opaque string.
// Each key expires at the deadline given on first increment.
type UsageCounters struct {
	mu   sync.RWMutex
	data map[string]entry
	now  func() time.Time
}

func NewUsageCounters() *UsageCounters {
	return &UsageCounters{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

func (s *UsageCounters) Get(_ context.Context, key string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[key]
	if !ok || s.now().After(e.expiresAt) {
		return 0, nil
	}
	return e.count, nil
}

func (s *UsageCounters) Incr(_ context.Context, key string, expiresAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[key]
	if !ok || s.now().After(e.expiresAt) {
		e = entry{expiresAt: expiresAt}
	}
	e.count++
	s.data[key] = e

	s.sweepLocked()
	return e.count, nil
}

// sweepLocked drops expired keys once the map grows; callers hold mu.
func (s *UsageCounters) sweepLocked() {
	if len(s.data) < 4096 {
		return
	}
	now := s.now()
	for k, e := range s.data {
		if now.After(e.expiresAt) {
			delete(s.data, k)
		}
	}
}
