// Package snapshot keeps the last successfully loaded dataset of every load
// kind in a local sqlite database, so a failed load can fall back to it.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a sqlite-backed implementation of app.Snapshots.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path. Plain file paths get their
// parent directory created; "file:" DSNs are passed through untouched.
func Open(path string) (*Store, error) {
	if !strings.HasPrefix(path, "file:") && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating snapshot directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// migrations is an ordered list of SQL migrations.
// Each migration runs exactly once, tracked by schema_version table.
var migrations = []string{
	`
CREATE TABLE IF NOT EXISTS snapshots (
	kind TEXT NOT NULL,
	key TEXT NOT NULL,
	payload TEXT NOT NULL,
	saved_at INTEGER NOT NULL,
	PRIMARY KEY (kind, key)
);
`,
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return err
	}

	var currentVersion int
	row := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`)
	if err := row.Scan(&currentVersion); err != nil {
		return err
	}

	for i := currentVersion; i < len(migrations); i++ {
		if _, err := db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
		if _, err := db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, i+1); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", i+1, err)
		}
	}
	return nil
}

// Save replaces the snapshot of (kind, key) with the JSON encoding of v.
func (s *Store) Save(ctx context.Context, kind, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding snapshot %s/%s: %w", kind, key, err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO snapshots (kind, key, payload, saved_at) VALUES (?, ?, ?, ?)
ON CONFLICT(kind, key) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at
`, kind, key, string(payload), s.now().Unix())
	if err != nil {
		return fmt.Errorf("saving snapshot %s/%s: %w", kind, key, err)
	}
	return nil
}

// Load decodes the snapshot of (kind, key) into v. It reports false when no
// snapshot exists.
func (s *Store) Load(ctx context.Context, kind, key string, v any) (bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM snapshots WHERE kind = ? AND key = ?`, kind, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loading snapshot %s/%s: %w", kind, key, err)
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return false, fmt.Errorf("decoding snapshot %s/%s: %w", kind, key, err)
	}
	return true, nil
}

// SavedAt returns when the snapshot of (kind, key) was written.
func (s *Store) SavedAt(ctx context.Context, kind, key string) (time.Time, bool, error) {
	var unix int64
	err := s.db.QueryRowContext(ctx, `SELECT saved_at FROM snapshots WHERE kind = ? AND key = ?`, kind, key).Scan(&unix)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("loading snapshot time %s/%s: %w", kind, key, err)
	}
	return time.Unix(unix, 0), true, nil
}

// Prune deletes snapshots older than maxAge.
func (s *Store) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE saved_at < ?`, s.now().Add(-maxAge).Unix())
	if err != nil {
		return 0, fmt.Errorf("pruning snapshots: %w", err)
	}
	return res.RowsAffected()
}
