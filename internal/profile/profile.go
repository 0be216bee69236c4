// Package profile exposes the one slice of the user profile this core needs:
// the target glucose range.
package profile

import (
	"context"
	"sync"
)

const (
	DefaultRangeMin = 70
	DefaultRangeMax = 180
)

// TargetRange is the user's desired glucose band in mg/dL. Min < Max always.
type TargetRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Valid reports whether the range is usable as-is.
func (r TargetRange) Valid() bool {
	return r.Min > 0 && r.Max > 0 && r.Min < r.Max
}

// DefaultRange is applied whenever a profile has no stored range.
func DefaultRange() TargetRange {
	return TargetRange{Min: DefaultRangeMin, Max: DefaultRangeMax}
}

// Store reads target ranges. The profile CRUD surface itself lives outside
// this core.
type Store interface {
	TargetRange(ctx context.Context, userID string) (TargetRange, bool, error)
}

// MemoryStore holds ranges in memory; local runs and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	ranges map[string]TargetRange
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ranges: make(map[string]TargetRange)}
}

func (s *MemoryStore) Put(userID string, r TargetRange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ranges[userID] = r
}

func (s *MemoryStore) TargetRange(_ context.Context, userID string) (TargetRange, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.ranges[userID]
	return r, ok, nil
}
