package db

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stabla/syntegrity/synt/fingerprint"
	"github.com/stabla/syntegrity/synt/snapshot"
)

// TestSnapshotDBProviderIntegration tests the actual SnapshotDBProvider implementation
func TestSnapshotDBProviderIntegration(t *testing.T) {
	// Create a temporary directory for the test database
	tempDir, err := os.MkdirTemp("", "syntegrity_test_snapshot_db_*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	provider, err := NewSnapshotDBProvider(filepath.Join(tempDir, "snapshots.db"))
	require.NoError(t, err)
	defer provider.Close()

	t.Run("LoadWithoutBaseline", func(t *testing.T) {
		snap, err := provider.Load("/never/scanned")
		require.NoError(t, err)
		assert.Nil(t, snap)
	})

	t.Run("SaveAndLoad", func(t *testing.T) {
		snap := &snapshot.Snapshot{
			ID:      uuid.New(),
			Root:    "/scan/root",
			TakenAt: time.Now(),
			Files:   map[string]string{"a.txt": "f-a"},
			Dirs:    map[string]fingerprint.DigestPair{".": {Contents: "c", Structure: "s"}},
		}
		require.NoError(t, provider.Save(snap))

		loaded, err := provider.Load("/scan/root")
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, snap.ID, loaded.ID)
		assert.Equal(t, snap.Root, loaded.Root)
		assert.Equal(t, snap.Files, loaded.Files)
		assert.Equal(t, snap.Dirs, loaded.Dirs)
		// Allow some time tolerance for timestamp comparison
		assert.WithinDuration(t, snap.TakenAt, loaded.TakenAt, time.Second)
	})

	t.Run("LoadReturnsNewestBaseline", func(t *testing.T) {
		older := &snapshot.Snapshot{
			ID:      uuid.New(),
			Root:    "/scan/history",
			TakenAt: time.Now().Add(-time.Hour),
			Files:   map[string]string{"old.txt": "f-old"},
			Dirs:    map[string]fingerprint.DigestPair{".": {Contents: "c1", Structure: "s1"}},
		}
		newer := &snapshot.Snapshot{
			ID:      uuid.New(),
			Root:    "/scan/history",
			TakenAt: time.Now(),
			Files:   map[string]string{"new.txt": "f-new"},
			Dirs:    map[string]fingerprint.DigestPair{".": {Contents: "c2", Structure: "s2"}},
		}
		require.NoError(t, provider.Save(older))
		require.NoError(t, provider.Save(newer))

		loaded, err := provider.Load("/scan/history")
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, newer.ID, loaded.ID, "the newest baseline should win")
		assert.Equal(t, newer.Files, loaded.Files)
	})

	t.Run("SaveAssignsMissingIDs", func(t *testing.T) {
		snap := &snapshot.Snapshot{
			Root:    "/scan/noid",
			TakenAt: time.Now(),
			Files:   map[string]string{},
			Dirs:    map[string]fingerprint.DigestPair{},
		}
		require.NoError(t, provider.Save(snap))
		assert.NotEqual(t, uuid.Nil, snap.ID)
	})

	t.Run("RootsAreIsolated", func(t *testing.T) {
		snap, err := provider.Load("/scan/other")
		require.NoError(t, err)
		assert.Nil(t, snap, "saving under one root must not leak into another")
	})
}

func TestConnectToDB(t *testing.T) {
	t.Run("bare paths get the file scheme", func(t *testing.T) {
		tempDir := t.TempDir()

		db, err := ConnectToDB(filepath.Join(tempDir, "bare.db"))
		require.NoError(t, err)
		defer db.Close()

		_, err = db.Exec("CREATE TABLE probe (id INTEGER)")
		assert.NoError(t, err)
	})

	t.Run("file DSNs pass through", func(t *testing.T) {
		tempDir := t.TempDir()

		db, err := ConnectToDB("file:" + filepath.Join(tempDir, "scheme.db"))
		require.NoError(t, err)
		defer db.Close()

		_, err = db.Exec("CREATE TABLE probe (id INTEGER)")
		assert.NoError(t, err)
	})
}
