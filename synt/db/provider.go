// Package db provides the libsql-backed snapshot store.
package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/tursodatabase/go-libsql"

	"github.com/stabla/syntegrity/synt/filesystem/common"
	"github.com/stabla/syntegrity/synt/snapshot"
)

// SnapshotDBProvider persists snapshot baselines in a libsql database. Every
// run appends a row, so the full history per root is retained; loads always
// return the newest row for the root.
type SnapshotDBProvider struct {
	db *sql.DB
}

// ConnectToDB opens a libsql database. Bare filesystem paths get the file:
// scheme prepended; anything already carrying a scheme passes through
// untouched.
func ConnectToDB(dsn string) (*sql.DB, error) {
	if !strings.Contains(dsn, "://") && !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}

	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", dsn, err)
	}
	return db, nil
}

// NewSnapshotDBProvider opens or initializes the snapshot database at the
// given path or DSN.
func NewSnapshotDBProvider(dsn string) (*SnapshotDBProvider, error) {
	// Ensure the parent directory exists for plain file paths
	if !strings.Contains(dsn, "://") && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("could not create snapshot database directory: %v", err)
		}
	}

	slog.Info("Snapshot database path:", "path", dsn)

	db, err := ConnectToDB(dsn)
	if err != nil {
		return nil, err
	}

	provider := &SnapshotDBProvider{db: db}
	if err := provider.init(); err != nil {
		return nil, err
	}
	return provider, nil
}

// init sets up the snapshot tables.
func (s *SnapshotDBProvider) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY UNIQUE,
		root_key TEXT NOT NULL,
		taken_at TEXT NOT NULL,
		state BLOB
	)`)
	if err != nil {
		return fmt.Errorf("failed to create snapshots table: %w", err)
	}

	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_snapshots_root_key ON snapshots (root_key, taken_at)`)
	if err != nil {
		return fmt.Errorf("failed to create snapshots index: %w", err)
	}

	return nil
}

// Load returns the newest stored snapshot for a root key, or nil when the
// root has never been scanned.
func (s *SnapshotDBProvider) Load(rootKey string) (*snapshot.Snapshot, error) {
	var state []byte
	err := s.db.QueryRow(
		"SELECT state FROM snapshots WHERE root_key = ? ORDER BY taken_at DESC, rowid DESC LIMIT 1",
		rootKey,
	).Scan(&state)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to query snapshot for %s: %v", common.ErrPersistence, rootKey, err)
	}

	var snap snapshot.Snapshot
	if err := json.Unmarshal(state, &snap); err != nil {
		return nil, fmt.Errorf("%w: failed to decode snapshot for %s: %v", common.ErrPersistence, rootKey, err)
	}
	return &snap, nil
}

// Save appends the snapshot as the new baseline for its root.
func (s *SnapshotDBProvider) Save(snap *snapshot.Snapshot) error {
	if snap.ID == uuid.Nil {
		snap.ID = uuid.New()
	}

	state, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("%w: failed to encode snapshot for %s: %v", common.ErrPersistence, snap.Root, err)
	}

	_, err = s.db.Exec(
		"INSERT INTO snapshots (id, root_key, taken_at, state) VALUES (?, ?, ?, ?)",
		snap.ID.String(), snap.Root, snap.TakenAt.UTC().Format(time.RFC3339), state,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to insert snapshot for %s: %v", common.ErrPersistence, snap.Root, err)
	}

	slog.Debug("Snapshot persisted", "id", snap.ID, "root", snap.Root)
	return nil
}

// Close closes the underlying database.
func (s *SnapshotDBProvider) Close() error {
	return s.db.Close()
}
