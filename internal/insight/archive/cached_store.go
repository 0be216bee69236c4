package archive

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedStore keeps recent unbounded list reads in an LRU cache. Bounded
// (window-filtered) reads always hit the origin. Appends invalidate the
// owning user's entry.
type CachedStore struct {
	origin Store
	lists  *lru.Cache[string, []Record]
}

func NewCachedStore(origin Store, size int) (*CachedStore, error) {
	if size <= 0 {
		size = 1024
	}
	cache, err := lru.New[string, []Record](size)
	if err != nil {
		return nil, err
	}
	return &CachedStore{origin: origin, lists: cache}, nil
}

func (s *CachedStore) Append(ctx context.Context, r Record) (Record, error) {
	stored, err := s.origin.Append(ctx, r)
	if err == nil {
		s.lists.Remove(stored.UserID)
	}
	return stored, err
}

func (s *CachedStore) ListByUser(ctx context.Context, userID string, bounds Bounds) ([]Record, error) {
	if bounds.Start != nil || bounds.End != nil {
		return s.origin.ListByUser(ctx, userID, bounds)
	}
	if cached, ok := s.lists.Get(userID); ok {
		return cached, nil
	}
	records, err := s.origin.ListByUser(ctx, userID, bounds)
	if err != nil {
		return nil, err
	}
	s.lists.Add(userID, records)
	return records, nil
}

func (s *CachedStore) Get(ctx context.Context, userID, id string) (Record, bool, error) {
	return s.origin.Get(ctx, userID, id)
}

func (s *CachedStore) Close() error { return s.origin.Close() }
