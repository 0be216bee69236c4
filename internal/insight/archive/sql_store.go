package archive

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// SQLStore backs the archive with a relational database. The SQL sticks to
// the subset shared by postgres (pgx) and sqlite (modernc), including $N
// placeholders, so both backends run the same statements.
type SQLStore struct {
	db *sql.DB

	schemaOnce sync.Once
	schemaErr  error
}

// OpenPostgres connects via the pgx stdlib driver.
func OpenPostgres(dsn string) (*SQLStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLStore{db: db}, nil
}

// OpenSQLite opens (creating if needed) an embedded database at path.
func OpenSQLite(path string) (*SQLStore, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLStore{db: db}, nil
}

// DB exposes the underlying handle so sibling read-only stores (profile)
// can share the connection.
func (s *SQLStore) DB() *sql.DB { return s.db }

func (s *SQLStore) ensureSchema() error {
	s.schemaOnce.Do(func() {
		// One statement per Exec; pgx rejects multi-statement strings.
		stmts := []string{`
CREATE TABLE IF NOT EXISTS ai_insights (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  insights TEXT NOT NULL,
  data_timeframe_start TIMESTAMP NOT NULL,
  data_timeframe_end TIMESTAMP NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMP NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS idx_ai_insights_user_id ON ai_insights (user_id)`,
		}
		for _, stmt := range stmts {
			if _, err := s.db.Exec(stmt); err != nil {
				s.schemaErr = err
				return
			}
		}
	})
	return s.schemaErr
}

func (s *SQLStore) Append(ctx context.Context, r Record) (Record, error) {
	if err := s.ensureSchema(); err != nil {
		return Record{}, err
	}
	if r.ID == "" {
		r.ID = newID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO ai_insights (
  id, user_id, insights, data_timeframe_start, data_timeframe_end, title, created_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		r.ID, r.UserID, r.Insights, r.DataTimeframeStart.UTC(), r.DataTimeframeEnd.UTC(), r.Title, r.CreatedAt)
	if err != nil {
		return Record{}, fmt.Errorf("append insight: %w", err)
	}
	return r, nil
}

func (s *SQLStore) ListByUser(ctx context.Context, userID string, bounds Bounds) ([]Record, error) {
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	query := `SELECT id, user_id, insights, data_timeframe_start, data_timeframe_end, title, created_at
FROM ai_insights WHERE user_id = $1`
	args := []any{userID}
	if bounds.Start != nil {
		args = append(args, bounds.Start.UTC())
		query += fmt.Sprintf(" AND data_timeframe_end >= $%d", len(args))
	}
	if bounds.End != nil {
		args = append(args, bounds.End.UTC())
		query += fmt.Sprintf(" AND data_timeframe_start <= $%d", len(args))
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.UserID, &r.Insights, &r.DataTimeframeStart, &r.DataTimeframeEnd, &r.Title, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) Get(ctx context.Context, userID, id string) (Record, bool, error) {
	if err := s.ensureSchema(); err != nil {
		return Record{}, false, err
	}
	row := s.db.QueryRowContext(ctx, `
SELECT id, user_id, insights, data_timeframe_start, data_timeframe_end, title, created_at
FROM ai_insights WHERE user_id = $1 AND id = $2`, userID, id)
	var r Record
	err := row.Scan(&r.ID, &r.UserID, &r.Insights, &r.DataTimeframeStart, &r.DataTimeframeEnd, &r.Title, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return r, true, nil
}

func (s *SQLStore) Close() error { return s.db.Close() }
