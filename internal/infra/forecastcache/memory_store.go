package forecastcache

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/weather-favorites/internal/domain/forecast"
	"github.com/yanqian/weather-favorites/pkg/util"
)

type timelineRecord struct {
	payload   forecast.Timeline
	expiresAt time.Time
}

// MemoryStore is an in-memory timeline cache for tests/dev.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]timelineRecord
	now     func() time.Time
}

// NewMemoryStore constructs a cache backed by process memory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]timelineRecord),
		now:     util.NowUTC,
	}
}

// Get implements forecast.Cache.
func (s *MemoryStore) Get(_ context.Context, key string) (forecast.Timeline, bool, error) {
	s.mu.RLock()
	record, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return forecast.Timeline{}, false, nil
	}
	if s.hasExpired(record.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return forecast.Timeline{}, false, nil
	}
	return cloneTimeline(record.payload), true, nil
}

// Set caches the timeline with optional TTL.
func (s *MemoryStore) Set(_ context.Context, key string, tl forecast.Timeline, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp := time.Time{}
	if ttl > 0 {
		exp = s.now().Add(ttl)
	}
	s.entries[key] = timelineRecord{
		payload:   cloneTimeline(tl),
		expiresAt: exp,
	}
	return nil
}

func (s *MemoryStore) hasExpired(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return ts.Before(s.now())
}

// cloneTimeline copies the interval slice; values are read-only after decode.
func cloneTimeline(tl forecast.Timeline) forecast.Timeline {
	out := tl
	out.Intervals = append([]forecast.Interval(nil), tl.Intervals...)
	return out
}

var _ forecast.Cache = (*MemoryStore)(nil)
