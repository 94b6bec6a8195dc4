package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stabla/syntegrity/synt/filesystem/common"
)

// writeTestFile creates a file with the given content and returns its path
func writeTestFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	err := os.WriteFile(path, content, 0o644)
	require.NoError(t, err)
	return path
}

// patternBytes produces deterministic content of the requested length
func patternBytes(n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(i % 251)
	}
	return buf
}

func TestFileHasherHash(t *testing.T) {
	t.Run("hashes known content", func(t *testing.T) {
		path := writeTestFile(t, t.TempDir(), "hello.txt", []byte("hello world"))

		digest, err := NewFileHasher().Hash(path)
		require.NoError(t, err)
		assert.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", digest)
	})

	t.Run("hashes empty files", func(t *testing.T) {
		path := writeTestFile(t, t.TempDir(), "empty.txt", nil)

		digest, err := NewFileHasher().Hash(path)
		require.NoError(t, err)
		assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", digest)
	})

	t.Run("medium files match a direct digest", func(t *testing.T) {
		// Above the mapping threshold, below the slicing threshold
		content := patternBytes(2 << 20)
		path := writeTestFile(t, t.TempDir(), "medium.bin", content)

		sum := sha256.Sum256(content)
		digest, err := NewFileHasher().Hash(path)
		require.NoError(t, err)
		assert.Equal(t, hex.EncodeToString(sum[:]), digest, "mapped hashing should match a direct digest of the same bytes")
	})

	t.Run("large files match a direct digest", func(t *testing.T) {
		// Above the slicing threshold, so the mapping is consumed in windows
		content := patternBytes(10<<20 + 512)
		path := writeTestFile(t, t.TempDir(), "large.bin", content)

		sum := sha256.Sum256(content)
		digest, err := NewFileHasher().Hash(path)
		require.NoError(t, err)
		assert.Equal(t, hex.EncodeToString(sum[:]), digest, "windowed hashing should match a direct digest of the same bytes")
	})

	t.Run("boundary sizes stay on the streaming path", func(t *testing.T) {
		// Exactly the mapping threshold still streams
		content := patternBytes(1 << 20)
		path := writeTestFile(t, t.TempDir(), "boundary.bin", content)

		sum := sha256.Sum256(content)
		digest, err := NewFileHasher().Hash(path)
		require.NoError(t, err)
		assert.Equal(t, hex.EncodeToString(sum[:]), digest)
	})

	t.Run("missing files yield an unreadable error", func(t *testing.T) {
		_, err := NewFileHasher().Hash(filepath.Join(t.TempDir(), "absent.txt"))
		assert.ErrorIs(t, err, common.ErrUnreadableFile)
	})

	t.Run("empty paths are rejected", func(t *testing.T) {
		_, err := NewFileHasher().Hash("")
		assert.ErrorIs(t, err, common.ErrPathEmpty)
	})
}

func TestFileHasherCache(t *testing.T) {
	t.Run("unchanged files are served from the cache", func(t *testing.T) {
		dir := t.TempDir()
		path := writeTestFile(t, dir, "cached.txt", []byte("original"))
		stamp := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		require.NoError(t, os.Chtimes(path, stamp, stamp))

		cache := NewDigestCache()
		hasher := NewFileHasher(WithCache(cache))

		first, err := hasher.Hash(path)
		require.NoError(t, err)
		assert.Equal(t, 1, cache.Len())

		// Same length, same mtime: the stat identity is unchanged, so the
		// cached digest wins even though the bytes differ
		require.NoError(t, os.WriteFile(path, []byte("ORIGINAL"), 0o644))
		require.NoError(t, os.Chtimes(path, stamp, stamp))

		second, err := hasher.Hash(path)
		require.NoError(t, err)
		assert.Equal(t, first, second, "a stat-identical file should be served from the cache")
	})

	t.Run("touched files are rehashed", func(t *testing.T) {
		dir := t.TempDir()
		path := writeTestFile(t, dir, "touched.txt", []byte("before.."))
		stamp := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		require.NoError(t, os.Chtimes(path, stamp, stamp))

		cache := NewDigestCache()
		hasher := NewFileHasher(WithCache(cache))

		_, err := hasher.Hash(path)
		require.NoError(t, err)

		// Same length but a newer mtime invalidates the entry
		require.NoError(t, os.WriteFile(path, []byte("after..."), 0o644))
		later := stamp.Add(time.Hour)
		require.NoError(t, os.Chtimes(path, later, later))

		second, err := hasher.Hash(path)
		require.NoError(t, err)

		sum := sha256.Sum256([]byte("after..."))
		assert.Equal(t, hex.EncodeToString(sum[:]), second, "a touched file should be rehashed from its current bytes")
	})

	t.Run("resized files are rehashed", func(t *testing.T) {
		dir := t.TempDir()
		path := writeTestFile(t, dir, "resized.txt", []byte("short"))

		cache := NewDigestCache()
		hasher := NewFileHasher(WithCache(cache))

		first, err := hasher.Hash(path)
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(path, []byte("a much longer body"), 0o644))

		second, err := hasher.Hash(path)
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})
}
