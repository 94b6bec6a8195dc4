// Package fingerprint computes content and structure digests for files and
// directory trees.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/stabla/syntegrity/synt/filesystem/common"
)

const (
	// mmapThreshold is the file size above which contents are memory mapped
	mmapThreshold = 1 << 20 // 1MiB

	// largeThreshold is the file size above which a mapping is consumed in slices
	largeThreshold = 10 << 20 // 10MiB

	// sliceSize is the window fed to the digest per iteration for large mappings
	sliceSize = 1 << 20 // 1MiB

	// streamChunkSize is the read buffer used for small files
	streamChunkSize = 128 * 1024
)

// FileHasher computes SHA-256 content digests for regular files.
// The strategy (streamed reads vs memory mapping) is selected by file size;
// every strategy produces the identical digest for identical bytes.
type FileHasher struct {
	cache  *DigestCache
	logger *slog.Logger
}

// HasherOption configures a FileHasher.
type HasherOption func(*FileHasher)

// WithCache attaches a digest cache consulted before hashing.
func WithCache(cache *DigestCache) HasherOption {
	return func(fh *FileHasher) {
		fh.cache = cache
	}
}

// WithHasherLogger sets the logger used for fallback diagnostics.
func WithHasherLogger(logger *slog.Logger) HasherOption {
	return func(fh *FileHasher) {
		fh.logger = logger
	}
}

// NewFileHasher creates a new file hasher with the given options.
func NewFileHasher(opts ...HasherOption) *FileHasher {
	fh := &FileHasher{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(fh)
	}
	return fh
}

// Hash returns the lowercase hex SHA-256 digest of the file's contents.
// Files the process cannot open or read yield a wrapped common.ErrUnreadableFile.
func (fh *FileHasher) Hash(path string) (string, error) {
	if path == "" {
		return "", common.ErrPathEmpty
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: failed to stat %s: %v", common.ErrUnreadableFile, path, err)
	}

	size := info.Size()
	mtime := info.ModTime().UnixNano()
	if fh.cache != nil {
		if digest, ok := fh.cache.Get(path, size, mtime); ok {
			return digest, nil
		}
	}

	var digest string
	switch {
	case size > largeThreshold:
		digest, err = fh.hashMapped(path, size, sliceSize)
	case size > mmapThreshold:
		digest, err = fh.hashMapped(path, size, 0)
	default:
		digest, err = fh.hashStream(path)
	}
	if err != nil {
		return "", err
	}

	if fh.cache != nil {
		fh.cache.Put(path, size, mtime, digest)
	}
	return digest, nil
}

// hashStream digests the file through buffered reads.
func (fh *FileHasher) hashStream(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: failed to open %s: %v", common.ErrUnreadableFile, path, err)
	}
	defer file.Close()

	hasher := sha256.New()
	buf := make([]byte, streamChunkSize)
	if _, err := io.CopyBuffer(hasher, file, buf); err != nil {
		return "", fmt.Errorf("%w: failed to read %s: %v", common.ErrUnreadableFile, path, err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
