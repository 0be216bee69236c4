// Package archive is the append-only collection of generated insights.
// Records are immutable once written; there is no update or delete path.
package archive

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Record is one persisted narrative insight.
type Record struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	Insights           string    `json:"insights"`
	DataTimeframeStart time.Time `json:"data_timeframe_start"`
	DataTimeframeEnd   time.Time `json:"data_timeframe_end"`
	Title              string    `json:"title"`
	CreatedAt          time.Time `json:"created_at"`
}

// Bounds optionally restricts a list read to records whose data timeframe
// overlaps [Start, End]. A nil bound is open on that side.
type Bounds struct {
	Start *time.Time
	End   *time.Time
}

func (b Bounds) contains(r Record) bool {
	if b.Start != nil && r.DataTimeframeEnd.Before(*b.Start) {
		return false
	}
	if b.End != nil && r.DataTimeframeStart.After(*b.End) {
		return false
	}
	return true
}

// Store persists insight records per user.
type Store interface {
	// Append inserts the record, assigning ID and CreatedAt when unset,
	// and returns the stored record.
	Append(ctx context.Context, r Record) (Record, error)
	// ListByUser returns the user's records ordered by creation time
	// descending, restricted to the given bounds.
	ListByUser(ctx context.Context, userID string, bounds Bounds) ([]Record, error)
	// Get returns one record by id, scoped to the user.
	Get(ctx context.Context, userID, id string) (Record, bool, error)
	Close() error
}

func newID() string {
	return ulid.Make().String()
}

// MemoryStore keeps records in memory; tests and zero-config local runs.
type MemoryStore struct {
	mu     sync.RWMutex
	byUser map[string][]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byUser: make(map[string][]Record)}
}

func (s *MemoryStore) Append(_ context.Context, r Record) (Record, error) {
	if r.ID == "" {
		r.ID = newID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[r.UserID] = append(s.byUser[r.UserID], r)
	return r, nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string, bounds Bounds) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0)
	for _, r := range s.byUser[userID] {
		if bounds.contains(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, userID, id string) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.byUser[userID] {
		if r.ID == id {
			return r, true, nil
		}
	}
	return Record{}, false, nil
}

func (s *MemoryStore) Close() error { return nil }
