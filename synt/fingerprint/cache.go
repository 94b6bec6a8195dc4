package fingerprint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// cacheEntry records a file digest together with the stat identity it was
// computed against. A hit requires size and mtime to match, so a modified
// file never serves a stale digest.
type cacheEntry struct {
	Digest    string `json:"digest"`
	Size      int64  `json:"size"`
	MTimeNano int64  `json:"mtime_nano"`
}

// cacheEnvelope wraps the serialized entries with an integrity checksum so a
// truncated or hand-edited cache file is rejected instead of trusted.
type cacheEnvelope struct {
	Checksum string          `json:"checksum"`
	Payload  json.RawMessage `json:"payload"`
}

// DigestCache is a concurrency-safe file digest cache keyed by path and
// validated by stat identity. It can persist to disk between runs.
type DigestCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewDigestCache creates an empty digest cache.
func NewDigestCache() *DigestCache {
	return &DigestCache{
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached digest for a path when its recorded size and mtime
// still match.
func (dc *DigestCache) Get(path string, size, mtimeNano int64) (string, bool) {
	dc.mu.RLock()
	defer dc.mu.RUnlock()

	entry, ok := dc.entries[path]
	if !ok || entry.Size != size || entry.MTimeNano != mtimeNano {
		return "", false
	}
	return entry.Digest, true
}

// Put records a digest with the stat identity it was computed against.
func (dc *DigestCache) Put(path string, size, mtimeNano int64, digest string) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	dc.entries[path] = cacheEntry{
		Digest:    digest,
		Size:      size,
		MTimeNano: mtimeNano,
	}
}

// Len returns the number of cached entries.
func (dc *DigestCache) Len() int {
	dc.mu.RLock()
	defer dc.mu.RUnlock()
	return len(dc.entries)
}

// LoadFile populates the cache from a persisted cache file. A missing file is
// not an error; a corrupt or checksum-failing file is, and leaves the cache
// untouched.
func (dc *DigestCache) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read digest cache %s: %w", path, err)
	}

	var envelope cacheEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("failed to parse digest cache %s: %w", path, err)
	}

	sum := fmt.Sprintf("%016x", xxhash.Sum64(envelope.Payload))
	if sum != envelope.Checksum {
		return fmt.Errorf("digest cache checksum mismatch for %s: have %s, want %s", path, sum, envelope.Checksum)
	}

	entries := make(map[string]cacheEntry)
	if err := json.Unmarshal(envelope.Payload, &entries); err != nil {
		return fmt.Errorf("failed to decode digest cache entries from %s: %w", path, err)
	}

	dc.mu.Lock()
	dc.entries = entries
	dc.mu.Unlock()
	return nil
}

// SaveFile persists the cache to disk. The file is written to a temporary
// sibling first and renamed into place so readers never observe a partial
// cache.
func (dc *DigestCache) SaveFile(path string) error {
	dc.mu.RLock()
	payload, err := json.Marshal(dc.entries)
	dc.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode digest cache entries: %w", err)
	}

	// The checksum covers the payload bytes exactly as written, so the
	// envelope must stay compact; re-indenting would change the hashed bytes.
	envelope := cacheEnvelope{
		Checksum: fmt.Sprintf("%016x", xxhash.Sum64(payload)),
		Payload:  payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to encode digest cache envelope: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".digests-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary cache file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write digest cache %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close digest cache %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace digest cache %s: %w", path, err)
	}
	return nil
}
