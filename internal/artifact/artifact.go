// Package artifact optionally retains the exact anonymized CSV that was
// submitted for each generated insight, for later audit. Retention is
// best-effort and never blocks orchestration.
package artifact

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("artifact: not found")

// Store persists anonymized CSV snapshots keyed by insight record.
type Store interface {
	Put(ctx context.Context, recordID string, content []byte) error
	Get(ctx context.Context, recordID string) ([]byte, error)
}

// NoopStore drops everything; used when no bucket is configured.
type NoopStore struct{}

func (NoopStore) Put(context.Context, string, []byte) error {
	return nil
}

func (NoopStore) Get(context.Context, string) ([]byte, error) {
	return nil, ErrNotFound
}
