package counters

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"counterbot/pkg/logger"
)

const sqliteDSN = "file:%s?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)"

// sqliteSchema is the read surface this store expects. Writers own the
// data; the statements are idempotent so a fresh database opens cleanly.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS counters (
	id  INTEGER PRIMARY KEY,
	key TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS counter_values (
	counter_id INTEGER NOT NULL REFERENCES counters(id),
	channel_id TEXT,
	user_id    TEXT,
	value      INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS counter_values_scope
	ON counter_values (counter_id, IFNULL(channel_id, ''), IFNULL(user_id, ''));
`

// SQLiteStore reads counter values from a SQLite database.
type SQLiteStore struct {
	log  *logger.Logger
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (and if needed creates) the database at path.
func NewSQLiteStore(log *logger.Logger, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", fmt.Sprintf(sqliteDSN, path))
	if err != nil {
		return nil, fmt.Errorf("open counter database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure counter schema: %w", err)
	}

	log.Info("Opened counter database", zap.String("path", path))
	return &SQLiteStore{log: log, db: db, path: path}, nil
}

// DB exposes the handle for fixtures and maintenance tooling.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// GetCurrentValue implements Store. Absent dimensions are matched with
// IS NULL so the four scope shapes never overlap.
func (s *SQLiteStore) GetCurrentValue(ctx context.Context, key ScopeKey) (int64, bool, error) {
	var value int64
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM counter_values
		 WHERE counter_id = ? AND channel_id IS ? AND user_id IS ?`,
		int64(key.CounterID), nullable(key.ChannelID), nullable(key.UserID),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, unavailable("get", err)
	}
	return value, true, nil
}

// CounterIDs implements Store.
func (s *SQLiteStore) CounterIDs(ctx context.Context) (map[string]CounterID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, id FROM counters`)
	if err != nil {
		return nil, unavailable("counter ids", err)
	}
	defer rows.Close()

	ids := make(map[string]CounterID)
	for rows.Next() {
		var (
			key string
			id  int64
		)
		if err := rows.Scan(&key, &id); err != nil {
			return nil, unavailable("counter ids", err)
		}
		ids[key] = CounterID(id)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("counter ids", err)
	}
	return ids, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
