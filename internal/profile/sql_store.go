package profile

import (
	"context"
	"database/sql"
	"sync"
)

// SQLStore reads target ranges from the user_profiles table. The wider
// application owns profile writes; this core only ever reads the range.
type SQLStore struct {
	db *sql.DB

	schemaOnce sync.Once
	schemaErr  error
}

// NewSQLStore wraps an already-open database handle; the caller owns the
// connection lifecycle.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) ensureSchema() error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(`
CREATE TABLE IF NOT EXISTS user_profiles (
  user_id TEXT PRIMARY KEY,
  name TEXT NOT NULL DEFAULT '',
  target_range_min INTEGER,
  target_range_max INTEGER
)`)
	})
	return s.schemaErr
}

func (s *SQLStore) TargetRange(ctx context.Context, userID string) (TargetRange, bool, error) {
	if err := s.ensureSchema(); err != nil {
		return TargetRange{}, false, err
	}
	row := s.db.QueryRowContext(ctx, `
SELECT target_range_min, target_range_max FROM user_profiles WHERE user_id = $1`, userID)
	var min, max sql.NullInt64
	err := row.Scan(&min, &max)
	if err == sql.ErrNoRows {
		return TargetRange{}, false, nil
	}
	if err != nil {
		return TargetRange{}, false, err
	}
	if !min.Valid || !max.Valid {
		return TargetRange{}, false, nil
	}
	return TargetRange{Min: int(min.Int64), Max: int(max.Int64)}, true, nil
}
