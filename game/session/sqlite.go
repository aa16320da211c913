package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/wricardo/courtqueue/game/engine"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	area       TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteStore keeps one row per area in a sessions table
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the database at path and ensures the
// schema exists.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: sqlite path is required", engine.ErrInvalidInput)
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, unavailable("open sqlite db", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, unavailable("ping sqlite db", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, unavailable("create sessions table", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Get returns the area's session
func (s *SQLiteStore) Get(ctx context.Context, areaID string) (*engine.Session, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM sessions WHERE area = ?`, areaID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(areaID)
	}
	if err != nil {
		return nil, unavailable("query session", err)
	}
	return decodeSession(areaID, []byte(data))
}

// Put upserts the area's row
func (s *SQLiteStore) Put(ctx context.Context, areaID string, sess *engine.Session) error {
	if err := checkPut(areaID, sess); err != nil {
		return err
	}
	data, err := encodeSession(sess)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO sessions (area, data, updated_at) VALUES (?, ?, ?)
ON CONFLICT(area) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		areaID, string(data), time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return unavailable("upsert session", err)
	}
	return nil
}

// List returns every area id, sorted
func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT area FROM sessions ORDER BY area`)
	if err != nil {
		return nil, unavailable("list sessions", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, unavailable("scan session", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list sessions", err)
	}
	return ids, nil
}

// Clear deletes every row
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return unavailable("clear sessions", err)
	}
	return nil
}

// Close releases the database handle
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
