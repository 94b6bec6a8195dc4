// Package filesystem discovers the files and directories that make up a scan.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/stabla/syntegrity/synt/filesystem/common"
)

// Discovery holds every path found below a scan root, in absolute form.
// Dirs always includes the root itself.
type Discovery struct {
	Root  string
	Files []string
	Dirs  []string
}

// Walker enumerates a directory tree in a single pass, honoring exclude
// patterns and skipping entries that are neither regular files nor
// directories.
type Walker struct {
	ignore *ignore.GitIgnore
	logger *slog.Logger
}

// WalkerOption configures a Walker.
type WalkerOption func(*Walker)

// WithExcludePatterns compiles gitignore-style patterns that prune matching
// files and whole directory subtrees from discovery.
func WithExcludePatterns(patterns []string) WalkerOption {
	return func(w *Walker) {
		if len(patterns) > 0 {
			w.ignore = ignore.CompileIgnoreLines(patterns...)
		}
	}
}

// WithWalkerLogger sets the logger used for skip diagnostics.
func WithWalkerLogger(logger *slog.Logger) WalkerOption {
	return func(w *Walker) {
		w.logger = logger
	}
}

// NewWalker creates a walker with the given options.
func NewWalker(opts ...WalkerOption) *Walker {
	w := &Walker{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Discover walks the tree rooted at root and returns every directory and
// regular file below it. The root must exist and be a directory; anything
// else yields a wrapped common.ErrRootNotFound or common.ErrNotADirectory.
// Directories that cannot be listed are kept in the result but their
// children go undiscovered.
func (w *Walker) Discover(ctx context.Context, root string) (*Discovery, error) {
	validation := common.NewValidationUtils()
	if err := validation.ValidatePath(root); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", root, err)
	}
	abs = filepath.Clean(abs)

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", common.ErrRootNotFound, abs)
		}
		return nil, fmt.Errorf("%w: failed to stat %s: %v", common.ErrRootNotFound, abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", common.ErrNotADirectory, abs)
	}

	discovery := &Discovery{Root: abs}

	err = filepath.WalkDir(abs, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if entry == nil {
				return fmt.Errorf("%w: %s: %v", common.ErrUnreadableDirectory, path, err)
			}
			// The directory was already recorded on its first visit; its
			// children simply go undiscovered
			w.logger.Warn("skipping unreadable directory", "path", path, "error", err)
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if w.ignore != nil && path != abs {
			rel, relErr := filepath.Rel(abs, path)
			if relErr == nil && w.ignore.MatchesPath(filepath.ToSlash(rel)) {
				w.logger.Debug("excluding path", "path", path)
				if entry.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
		}

		switch {
		case entry.IsDir():
			discovery.Dirs = append(discovery.Dirs, path)
		case entry.Type().IsRegular():
			discovery.Files = append(discovery.Files, path)
		default:
			w.logger.Debug("skipping special entry", "path", path, "type", entry.Type().String())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.logger.Info("discovery completed",
		"root", abs,
		"files", len(discovery.Files),
		"dirs", len(discovery.Dirs))

	return discovery, nil
}
