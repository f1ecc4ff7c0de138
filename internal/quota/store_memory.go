package quota

import (
	"context"
	"sync"
)

type counter struct {
	period string
	count  int64
	fired  map[int]bool
}

// MemoryStore serializes all counter transitions through one mutex. It backs
// deployments without Redis and the unit tests; the single-writer path gives
// the same atomicity guarantee as the Lua script.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]*counter
}

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counters: make(map[string]*counter)}
}

func (s *MemoryStore) touch(restaurantID, period string) *counter {
	c, ok := s.counters[restaurantID]
	if !ok || c.period != period {
		c = &counter{period: period, fired: make(map[int]bool)}
		s.counters[restaurantID] = c
	}
	return c
}

// Admit applies rollover, the conditional increment and threshold flags
// under the store lock.
func (s *MemoryStore) Admit(_ context.Context, restaurantID, period string, limit int64) (AdmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.touch(restaurantID, period)
	if limit >= 0 && c.count >= limit {
		return AdmitResult{Admitted: false, Count: c.count, Limit: limit}, nil
	}
	c.count++

	result := AdmitResult{Admitted: true, Count: c.count, Limit: limit}
	if limit > 0 {
		pct := percentage(c.count, limit)
		for _, threshold := range Thresholds {
			if pct >= threshold && !c.fired[threshold] {
				c.fired[threshold] = true
				result.Crossed = append(result.Crossed, threshold)
			}
		}
	}
	return result, nil
}

// Count returns the current period's count, zero after rollover.
func (s *MemoryStore) Count(_ context.Context, restaurantID, period string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[restaurantID]
	if !ok || c.period != period {
		return 0, nil
	}
	return c.count, nil
}

// Reset clears the counter for the given period.
func (s *MemoryStore) Reset(_ context.Context, restaurantID, period string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters[restaurantID] = &counter{period: period, fired: make(map[int]bool)}
	return nil
}
