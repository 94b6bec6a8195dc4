package snapshot

import (
	"sort"

	roaring "github.com/RoaringBitmap/roaring"

	"github.com/stabla/syntegrity/synt/fingerprint"
)

// EventKind classifies one difference between two snapshots. The numeric
// order is the emission order: deletions first, then modifications, then
// additions, then aggregate directory changes.
type EventKind int

const (
	DeletedFile EventKind = iota + 1
	DeletedDirectory
	ModifiedFile
	NewDirectory
	NewFile
	DirectoryContentsChanged
	DirectoryStructureChanged
)

// Priority returns the fixed emission priority; lower numbers emit first.
func (k EventKind) Priority() int {
	return int(k)
}

func (k EventKind) String() string {
	switch k {
	case DeletedFile:
		return "DELETED_FILE"
	case DeletedDirectory:
		return "DELETED_FOLDER"
	case ModifiedFile:
		return "MODIFIED_FILE"
	case NewDirectory:
		return "NEW_FOLDER"
	case NewFile:
		return "NEW_FILE"
	case DirectoryContentsChanged:
		return "FOLDER_CONTENTS_CHANGED"
	case DirectoryStructureChanged:
		return "FOLDER_STRUCTURE_CHANGED"
	default:
		return "UNKNOWN"
	}
}

// ChangeEvent is one classified difference, carrying the root-relative path.
type ChangeEvent struct {
	Kind EventKind
	Path string
}

// pathInterner assigns dense IDs to the union of paths across two snapshots.
// IDs follow lexicographic path order, so ascending bitmap iteration yields
// paths already sorted.
type pathInterner struct {
	ids   map[string]uint32
	paths []string
}

func internPaths(previous, current *Snapshot) *pathInterner {
	seen := make(map[string]struct{}, len(current.Files)+len(current.Dirs))
	for rel := range previous.Files {
		seen[rel] = struct{}{}
	}
	for rel := range previous.Dirs {
		seen[rel] = struct{}{}
	}
	for rel := range current.Files {
		seen[rel] = struct{}{}
	}
	for rel := range current.Dirs {
		seen[rel] = struct{}{}
	}

	paths := make([]string, 0, len(seen))
	for rel := range seen {
		paths = append(paths, rel)
	}
	sort.Strings(paths)

	ids := make(map[string]uint32, len(paths))
	for i, rel := range paths {
		ids[rel] = uint32(i)
	}
	return &pathInterner{ids: ids, paths: paths}
}

func fileBitmap(in *pathInterner, files map[string]string) *roaring.Bitmap {
	bm := roaring.New()
	for rel := range files {
		bm.Add(in.ids[rel])
	}
	return bm
}

func dirBitmap(in *pathInterner, dirs map[string]fingerprint.DigestPair) *roaring.Bitmap {
	bm := roaring.New()
	for rel := range dirs {
		bm.Add(in.ids[rel])
	}
	return bm
}

// Differ classifies the differences between two snapshots of one root.
type Differ struct{}

// NewDiffer creates a differ.
func NewDiffer() *Differ {
	return &Differ{}
}

// Diff compares the current snapshot against the previous baseline and
// returns the classified changes in priority order, lexicographic within
// each priority. A nil previous snapshot is a first run: every current path
// is new and nothing else fires. A directory whose contents and structure
// digests both changed emits both aggregate events.
func (d *Differ) Diff(previous, current *Snapshot) []ChangeEvent {
	if current == nil {
		return nil
	}
	if previous == nil {
		previous = &Snapshot{
			Files: make(map[string]string),
			Dirs:  make(map[string]fingerprint.DigestPair),
		}
	}

	in := internPaths(previous, current)

	prevFiles := fileBitmap(in, previous.Files)
	curFiles := fileBitmap(in, current.Files)
	prevDirs := dirBitmap(in, previous.Dirs)
	curDirs := dirBitmap(in, current.Dirs)

	deletedFiles := roaring.AndNot(prevFiles, curFiles)
	deletedDirs := roaring.AndNot(prevDirs, curDirs)
	newDirs := roaring.AndNot(curDirs, prevDirs)
	newFiles := roaring.AndNot(curFiles, prevFiles)

	modifiedFiles := roaring.New()
	commonFiles := roaring.And(prevFiles, curFiles)
	fileIt := commonFiles.Iterator()
	for fileIt.HasNext() {
		id := fileIt.Next()
		rel := in.paths[id]
		if previous.Files[rel] != current.Files[rel] {
			modifiedFiles.Add(id)
		}
	}

	contentsChanged := roaring.New()
	structureChanged := roaring.New()
	commonDirs := roaring.And(prevDirs, curDirs)
	dirIt := commonDirs.Iterator()
	for dirIt.HasNext() {
		id := dirIt.Next()
		rel := in.paths[id]
		prevPair := previous.Dirs[rel]
		curPair := current.Dirs[rel]
		if prevPair.Contents != curPair.Contents {
			contentsChanged.Add(id)
		}
		if prevPair.Structure != curPair.Structure {
			structureChanged.Add(id)
		}
	}

	var events []ChangeEvent
	events = appendEvents(events, DeletedFile, deletedFiles, in)
	events = appendEvents(events, DeletedDirectory, deletedDirs, in)
	events = appendEvents(events, ModifiedFile, modifiedFiles, in)
	events = appendEvents(events, NewDirectory, newDirs, in)
	events = appendEvents(events, NewFile, newFiles, in)
	events = appendEvents(events, DirectoryContentsChanged, contentsChanged, in)
	events = appendEvents(events, DirectoryStructureChanged, structureChanged, in)
	return events
}

func appendEvents(events []ChangeEvent, kind EventKind, bm *roaring.Bitmap, in *pathInterner) []ChangeEvent {
	it := bm.Iterator()
	for it.HasNext() {
		events = append(events, ChangeEvent{Kind: kind, Path: in.paths[it.Next()]})
	}
	return events
}
