package snapshot

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stabla/syntegrity/synt/fingerprint"
)

func TestSnapshotNew(t *testing.T) {
	t.Run("relativizes every key against the root", func(t *testing.T) {
		result := &fingerprint.Result{
			Files: map[string]string{
				"/scan/root/a.txt":     "f-a",
				"/scan/root/sub/b.txt": "f-b",
			},
			Dirs: map[string]fingerprint.DigestPair{
				"/scan/root":     {Contents: "c-root", Structure: "s-root"},
				"/scan/root/sub": {Contents: "c-sub", Structure: "s-sub"},
			},
		}

		snap, err := New("/scan/root", result)
		require.NoError(t, err)

		assert.Equal(t, "/scan/root", snap.Root)
		assert.NotEqual(t, uuid.Nil, snap.ID)
		assert.False(t, snap.TakenAt.IsZero())

		assert.Equal(t, map[string]string{"a.txt": "f-a", "sub/b.txt": "f-b"}, snap.Files)
		require.Contains(t, snap.Dirs, ".", "The root folder keys itself as the dot entry")
		require.Contains(t, snap.Dirs, "sub")
		assert.Equal(t, "c-root", snap.Dirs["."].Contents)
		assert.Equal(t, "s-sub", snap.Dirs["sub"].Structure)
	})

	t.Run("empty results produce empty snapshots", func(t *testing.T) {
		snap, err := New("/scan/root", &fingerprint.Result{})
		require.NoError(t, err)
		assert.Empty(t, snap.Files)
		assert.Empty(t, snap.Dirs)
	})
}

func TestSnapshotJSON(t *testing.T) {
	t.Run("round trips through the envelope", func(t *testing.T) {
		snap := &Snapshot{
			ID:      uuid.New(),
			Root:    "/scan/root",
			TakenAt: time.Date(2026, 2, 14, 8, 30, 0, 0, time.UTC),
			Files:   map[string]string{"a.txt": "f-a"},
			Dirs:    map[string]fingerprint.DigestPair{".": {Contents: "c", Structure: "s"}},
		}

		data, err := json.Marshal(snap)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"generator":"syntegrity"`)
		assert.Contains(t, string(data), `"version":1`)

		var decoded Snapshot
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, snap.ID, decoded.ID)
		assert.Equal(t, snap.Root, decoded.Root)
		assert.True(t, snap.TakenAt.Equal(decoded.TakenAt))
		assert.Equal(t, snap.Files, decoded.Files)
		assert.Equal(t, snap.Dirs, decoded.Dirs)
	})

	t.Run("bad timestamps are rejected", func(t *testing.T) {
		var snap Snapshot
		err := json.Unmarshal([]byte(`{"id":"x","taken_at":"yesterday"}`), &snap)
		assert.Error(t, err)
	})

	t.Run("bad ids are rejected", func(t *testing.T) {
		var snap Snapshot
		payload := `{"id":"not-a-uuid","taken_at":"2026-02-14T08:30:00Z"}`
		err := json.Unmarshal([]byte(payload), &snap)
		assert.Error(t, err)
	})

	t.Run("absent maps decode as non-nil", func(t *testing.T) {
		var snap Snapshot
		payload := fmt.Sprintf(`{"generator":"syntegrity","version":1,"id":"%s","root":"/r","taken_at":"2026-02-14T08:30:00Z"}`, uuid.New())
		require.NoError(t, json.Unmarshal([]byte(payload), &snap))
		assert.NotNil(t, snap.Files)
		assert.NotNil(t, snap.Dirs)
	})
}
