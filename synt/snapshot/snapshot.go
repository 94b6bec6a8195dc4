// Package snapshot persists per-root digest sets and classifies the
// differences between consecutive runs.
package snapshot

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stabla/syntegrity/synt/filesystem/common"
	"github.com/stabla/syntegrity/synt/fingerprint"
)

const (
	snapshotGenerator = "syntegrity"
	snapshotVersion   = 1
)

// Snapshot is the full digest set for one scanned root at one point in time.
// File and directory keys are slash-form paths relative to the root, with
// "." naming the root itself, so snapshots stay comparable when the same
// tree is scanned from a different absolute location.
type Snapshot struct {
	ID      uuid.UUID
	Root    string
	TakenAt time.Time
	Files   map[string]string
	Dirs    map[string]fingerprint.DigestPair
}

type snapshotJSON struct {
	Generator string                            `json:"generator"`
	Version   int                               `json:"version"`
	ID        string                            `json:"id"`
	Root      string                            `json:"root"`
	TakenAt   string                            `json:"taken_at"`
	Files     map[string]string                 `json:"files"`
	Dirs      map[string]fingerprint.DigestPair `json:"directories"`
}

// New builds a snapshot from a computed result, relativizing every path
// against the scanned root.
func New(root string, result *fingerprint.Result) (*Snapshot, error) {
	snap := &Snapshot{
		ID:      uuid.New(),
		Root:    root,
		TakenAt: time.Now(),
		Files:   make(map[string]string, len(result.Files)),
		Dirs:    make(map[string]fingerprint.DigestPair, len(result.Dirs)),
	}

	for abs, digest := range result.Files {
		rel, err := relKey(root, abs)
		if err != nil {
			return nil, err
		}
		snap.Files[rel] = digest
	}
	for abs, pair := range result.Dirs {
		rel, err := relKey(root, abs)
		if err != nil {
			return nil, err
		}
		snap.Dirs[rel] = pair
	}

	return snap, nil
}

func relKey(root, abs string) (string, error) {
	rel, err := common.NewPathUtils().GetRelativePath(root, abs)
	if err != nil {
		return "", fmt.Errorf("failed to relativize %s against %s: %w", abs, root, err)
	}
	return rel, nil
}

func (sn *Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshotJSON{
		Generator: snapshotGenerator,
		Version:   snapshotVersion,
		ID:        sn.ID.String(),
		Root:      sn.Root,
		TakenAt:   sn.TakenAt.Format(time.RFC3339),
		Files:     sn.Files,
		Dirs:      sn.Dirs,
	})
}

func (sn *Snapshot) UnmarshalJSON(data []byte) error {
	var snap snapshotJSON
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("error unmarshalling snapshot: %w", err)
	}

	takenAt, err := time.Parse(time.RFC3339, snap.TakenAt)
	if err != nil {
		return fmt.Errorf("error parsing time: %w", err)
	}

	id, err := uuid.Parse(snap.ID)
	if err != nil {
		return fmt.Errorf("error parsing snapshot id: %w", err)
	}

	sn.ID = id
	sn.Root = snap.Root
	sn.TakenAt = takenAt
	sn.Files = snap.Files
	sn.Dirs = snap.Dirs
	if sn.Files == nil {
		sn.Files = make(map[string]string)
	}
	if sn.Dirs == nil {
		sn.Dirs = make(map[string]fingerprint.DigestPair)
	}

	return nil
}

// Store persists snapshots between runs, keyed by scanned root.
type Store interface {
	// Load returns the most recent snapshot for a root key, or nil when none
	// has been persisted yet.
	Load(rootKey string) (*Snapshot, error)
	// Save persists a snapshot as the new baseline for its root.
	Save(snap *Snapshot) error
	Close() error
}
