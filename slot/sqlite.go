package slot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS slots (
	key     TEXT PRIMARY KEY,
	value   BLOB NOT NULL,
	version INTEGER NOT NULL DEFAULT 1
)`

// SQLite is a Backend storing slots in a SQLite database.
// Every write bumps the slot version, Watch polls versions.
type SQLite struct {
	conn     *sql.DB
	interval time.Duration
}

// NewSQLite opens (or creates) the database at dbPath.
// interval is the polling period used by Watch.
func NewSQLite(dbPath string, interval time.Duration) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create slots table: %w", err)
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &SQLite{conn: conn, interval: interval}, nil
}

func (s *SQLite) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := s.conn.QueryRow(`SELECT value FROM slots WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *SQLite) Set(key string, value []byte) error {
	_, err := s.conn.Exec(`
		INSERT INTO slots (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, version = slots.version + 1`,
		key, value)
	return err
}

func (s *SQLite) Watch(ctx context.Context, fn func(string, []byte)) error {
	last, err := s.versions(ctx)
	if err != nil {
		return err
	}
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			current, err := s.versions(ctx)
			if err != nil {
				continue
			}
			for key, v := range current {
				if last[key] == v {
					continue
				}
				value, ok, err := s.Get(key)
				if err != nil || !ok {
					continue
				}
				fn(key, value)
			}
			last = current
		}
	}()
	return nil
}

func (s *SQLite) versions(ctx context.Context) (map[string]int64, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT key, version FROM slots`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	versions := make(map[string]int64)
	for rows.Next() {
		var key string
		var v int64
		if err := rows.Scan(&key, &v); err != nil {
			return nil, err
		}
		versions[key] = v
	}
	return versions, rows.Err()
}

func (s *SQLite) Close() error { return s.conn.Close() }
