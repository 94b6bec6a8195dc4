package fingerprint

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/armon/go-radix"
)

// PathKind tags an indexed path as a regular file or a directory.
type PathKind int

const (
	// KindFile marks a regular file entry
	KindFile PathKind = iota
	// KindDir marks a directory entry
	KindDir
)

// PathIndexStats tracks usage metrics for the path index
type PathIndexStats struct {
	TotalPaths      int64
	Insertions      int64
	DescendantScans int64
	mu              sync.RWMutex
}

// PathIndex provides O(k) containment scans over a scanned tree using a
// compressed trie (patricia tree), where k is the length of the path prefix.
// Every contents digest re-derives its transitive members from this index,
// so descendant scans stay cheap even when they run once per directory.
type PathIndex struct {
	tree  *radix.Tree  // Core patricia tree for path storage
	mu    sync.RWMutex // Read-write mutex for concurrent access
	stats *PathIndexStats
}

// NewPathIndex creates a new patricia tree-based path index
func NewPathIndex() *PathIndex {
	return &PathIndex{
		tree:  radix.New(),
		stats: &PathIndexStats{},
	}
}

// Insert adds a path with its kind to the index
func (idx *PathIndex) Insert(path string, kind PathKind) {
	normalized := idx.normalizePath(path)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	_, updated := idx.tree.Insert(normalized, kind)

	idx.stats.mu.Lock()
	if !updated {
		idx.stats.TotalPaths++
	}
	idx.stats.Insertions++
	idx.stats.mu.Unlock()
}

// Lookup reports whether a path is indexed and its kind
func (idx *PathIndex) Lookup(path string) (PathKind, bool) {
	normalized := idx.normalizePath(path)

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	value, found := idx.tree.Get(normalized)
	if !found {
		return 0, false
	}
	return value.(PathKind), true
}

// WalkDescendants executes fn for every indexed path strictly below dir, at
// any depth. The directory itself is never visited. Returning true from fn
// stops the walk.
func (idx *PathIndex) WalkDescendants(dir string, fn func(path string, kind PathKind) bool) {
	normalized := idx.normalizePath(dir)

	prefix := normalized + "/"
	if normalized == "/" {
		prefix = "/"
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	idx.tree.WalkPrefix(prefix, func(key string, value interface{}) bool {
		// Skip the directory itself when the prefix degenerates to the root
		if key == normalized {
			return false
		}
		if kind, ok := value.(PathKind); ok {
			return fn(key, kind)
		}
		return false // Continue walking
	})

	idx.stats.mu.Lock()
	idx.stats.DescendantScans++
	idx.stats.mu.Unlock()
}

// Len returns the total number of indexed paths
func (idx *PathIndex) Len() int64 {
	idx.stats.mu.RLock()
	defer idx.stats.mu.RUnlock()
	return idx.stats.TotalPaths
}

// GetStats returns a copy of the current path index statistics
func (idx *PathIndex) GetStats() PathIndexStats {
	idx.stats.mu.RLock()
	defer idx.stats.mu.RUnlock()

	return PathIndexStats{
		TotalPaths:      idx.stats.TotalPaths,
		Insertions:      idx.stats.Insertions,
		DescendantScans: idx.stats.DescendantScans,
	}
}

// Clear removes all entries from the path index
func (idx *PathIndex) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.tree = radix.New()

	idx.stats.mu.Lock()
	idx.stats.TotalPaths = 0
	idx.stats.mu.Unlock()

	slog.Debug("Path index cleared")
}

// normalizePath ensures consistent path formatting for the index
func (idx *PathIndex) normalizePath(path string) string {
	// First replace backslashes with forward slashes (for Windows paths)
	normalized := strings.ReplaceAll(path, "\\", "/")

	// Then clean the path to resolve . and .. elements
	normalized = filepath.ToSlash(filepath.Clean(normalized))

	// Remove trailing slash unless it's the root
	if len(normalized) > 1 && strings.HasSuffix(normalized, "/") {
		normalized = strings.TrimSuffix(normalized, "/")
	}

	return normalized
}
