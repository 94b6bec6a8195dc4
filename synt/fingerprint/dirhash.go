package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DigestPair holds the two digests computed for every directory.
// Contents follows the transitive file payload below the directory;
// Structure follows the directory's own identity and immediate layout.
type DigestPair struct {
	Contents  string `json:"contents"`
	Structure string `json:"structure"`
}

// DirectoryHasher derives the per-directory digest pair. A directory's
// structure digest feeds the contents digest of every ancestor, so renaming
// a deep directory ripples upward through structure identity while the
// ancestors' own file payload stays untouched.
type DirectoryHasher struct {
	logger *slog.Logger
}

// NewDirectoryHasher creates a new directory hasher.
func NewDirectoryHasher(logger *slog.Logger) *DirectoryHasher {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirectoryHasher{logger: logger}
}

// StructureDigest returns the lowercase hex SHA-256 digest of the directory's
// identity line: its absolute path followed by one entry per immediate child.
// Files contribute name and size, subdirectories contribute name and mtime in
// nanoseconds. Entries are sorted lexicographically and joined with "|".
// A directory that cannot be listed degrades to its path line alone.
func (dh *DirectoryHasher) StructureDigest(dirPath string) string {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		dh.logger.Warn("skipping unreadable directory", "path", dirPath, "error", err)
		entries = nil
	}

	parts := make([]string, 0, len(entries))
	for _, entry := range entries {
		switch {
		case entry.IsDir():
			var mtime int64
			if info, err := entry.Info(); err == nil {
				mtime = info.ModTime().UnixNano()
			}
			parts = append(parts, fmt.Sprintf("dir:%s:%d", entry.Name(), mtime))
		case entry.Type().IsRegular():
			var size int64
			if info, err := entry.Info(); err == nil {
				size = info.Size()
			}
			parts = append(parts, fmt.Sprintf("file:%s:%d", entry.Name(), size))
		default:
			// Symlinks and other special entries carry no identity
		}
	}
	sort.Strings(parts)

	payload := "path:" + dirPath + strings.Join(parts, "|")
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// ContentsDigest returns the lowercase hex SHA-256 digest over every path
// strictly below the directory: transitive files contribute their content
// digest, transitive subdirectories contribute their structure digest.
// Entries use slash-form paths relative to the directory, are sorted
// lexicographically and joined with "|". An empty directory digests the
// empty string. Files without a digest (unreadable during hashing) are
// omitted entirely.
func (dh *DirectoryHasher) ContentsDigest(dirPath string, idx *PathIndex, fileDigests map[string]string, structureDigests map[string]string) string {
	var parts []string
	idx.WalkDescendants(dirPath, func(path string, kind PathKind) bool {
		rel, err := filepath.Rel(dirPath, path)
		if err != nil {
			dh.logger.Warn("failed to relativize descendant path", "dir", dirPath, "path", path, "error", err)
			return false
		}
		rel = filepath.ToSlash(rel)

		switch kind {
		case KindFile:
			if digest, ok := fileDigests[path]; ok {
				parts = append(parts, fmt.Sprintf("file:%s:%s", rel, digest))
			}
		case KindDir:
			if digest, ok := structureDigests[path]; ok {
				parts = append(parts, fmt.Sprintf("folder:%s:%s", rel, digest))
			}
		}
		return false // Continue walking
	})
	sort.Strings(parts)

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
