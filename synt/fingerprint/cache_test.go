package fingerprint

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigestCache(t *testing.T) {
	t.Run("stat mismatches miss", func(t *testing.T) {
		cache := NewDigestCache()
		cache.Put("/data/a.txt", 11, 100, "aaaa")

		digest, ok := cache.Get("/data/a.txt", 11, 100)
		require.True(t, ok)
		assert.Equal(t, "aaaa", digest)

		_, ok = cache.Get("/data/a.txt", 12, 100)
		assert.False(t, ok, "a size change should miss")

		_, ok = cache.Get("/data/a.txt", 11, 101)
		assert.False(t, ok, "an mtime change should miss")

		_, ok = cache.Get("/data/other.txt", 11, 100)
		assert.False(t, ok, "an unknown path should miss")
	})

	t.Run("puts replace older entries", func(t *testing.T) {
		cache := NewDigestCache()
		cache.Put("/data/a.txt", 11, 100, "aaaa")
		cache.Put("/data/a.txt", 15, 200, "bbbb")

		assert.Equal(t, 1, cache.Len())
		_, ok := cache.Get("/data/a.txt", 11, 100)
		assert.False(t, ok)

		digest, ok := cache.Get("/data/a.txt", 15, 200)
		require.True(t, ok)
		assert.Equal(t, "bbbb", digest)
	})
}

func TestDigestCachePersistence(t *testing.T) {
	t.Run("round trips entries through disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cache", "digests.json")

		cache := NewDigestCache()
		cache.Put("/data/a.txt", 11, 1700000000000000000, "aaaa")
		cache.Put("/data/b.txt", 22, 1700000000000000001, "bbbb")
		require.NoError(t, cache.SaveFile(path))

		loaded := NewDigestCache()
		require.NoError(t, loaded.LoadFile(path))
		assert.Equal(t, 2, loaded.Len())

		digest, ok := loaded.Get("/data/a.txt", 11, 1700000000000000000)
		require.True(t, ok)
		assert.Equal(t, "aaaa", digest)
	})

	t.Run("missing cache files load empty", func(t *testing.T) {
		cache := NewDigestCache()
		require.NoError(t, cache.LoadFile(filepath.Join(t.TempDir(), "absent.json")))
		assert.Equal(t, 0, cache.Len())
	})

	t.Run("checksum mismatches are rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "digests.json")

		cache := NewDigestCache()
		cache.Put("/data/a.txt", 11, 100, "aaaa")
		require.NoError(t, cache.SaveFile(path))

		// Flip payload bytes without updating the checksum
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		tampered := bytes.Replace(data, []byte("aaaa"), []byte("bbbb"), 1)
		require.NoError(t, os.WriteFile(path, tampered, 0o644))

		loaded := NewDigestCache()
		err = loaded.LoadFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "checksum mismatch")
		assert.Equal(t, 0, loaded.Len(), "a rejected file should leave the cache untouched")
	})

	t.Run("garbage files are rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "digests.json")
		require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

		assert.Error(t, NewDigestCache().LoadFile(path))
	})

	t.Run("saves replace the previous file atomically", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "digests.json")

		first := NewDigestCache()
		first.Put("/data/a.txt", 11, 100, "aaaa")
		require.NoError(t, first.SaveFile(path))

		second := NewDigestCache()
		second.Put("/data/b.txt", 22, 200, "bbbb")
		require.NoError(t, second.SaveFile(path))

		loaded := NewDigestCache()
		require.NoError(t, loaded.LoadFile(path))
		assert.Equal(t, 1, loaded.Len())

		_, ok := loaded.Get("/data/b.txt", 22, 200)
		assert.True(t, ok)

		// No temporary files are left behind
		entries, err := os.ReadDir(filepath.Dir(path))
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}
