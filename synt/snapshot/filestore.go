package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/stabla/syntegrity/synt/filesystem/common"
)

// FileStore persists one snapshot per root as a JSON file in a single
// directory. The file name is derived from the root key, so rescanning the
// same root always finds its previous baseline.
type FileStore struct {
	dir string
}

// NewFileStore creates a snapshot store rooted at dir. The directory is
// created lazily on first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// snapshotPath derives the baseline file path for a root key. Path
// separators and drive colons collapse to underscores.
func (fs *FileStore) snapshotPath(rootKey string) string {
	sanitized := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(rootKey)
	return filepath.Join(fs.dir, sanitized+"_previous_hashes.json")
}

// Load returns the stored snapshot for a root key, or nil when no baseline
// exists yet.
func (fs *FileStore) Load(rootKey string) (*Snapshot, error) {
	path := fs.snapshotPath(rootKey)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to read snapshot %s: %v", common.ErrPersistence, path, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: failed to decode snapshot %s: %v", common.ErrPersistence, path, err)
	}
	return &snap, nil
}

// Save writes the snapshot as the new baseline for its root. The file is
// written to a temporary sibling and renamed into place so a crashed run
// never leaves a truncated baseline behind.
func (fs *FileStore) Save(snap *Snapshot) error {
	if err := os.MkdirAll(fs.dir, 0o755); err != nil {
		return fmt.Errorf("%w: failed to create snapshot directory %s: %v", common.ErrPersistence, fs.dir, err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to encode snapshot for %s: %v", common.ErrPersistence, snap.Root, err)
	}

	path := fs.snapshotPath(snap.Root)
	tmp, err := os.CreateTemp(fs.dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("%w: failed to create temporary snapshot in %s: %v", common.ErrPersistence, fs.dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: failed to write snapshot %s: %v", common.ErrPersistence, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: failed to close snapshot %s: %v", common.ErrPersistence, tmpName, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: failed to replace snapshot %s: %v", common.ErrPersistence, path, err)
	}
	return nil
}

// Close is a no-op for the file-backed store.
func (fs *FileStore) Close() error {
	return nil
}
