package fingerprint

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"

	"github.com/stabla/syntegrity/synt/filesystem/common"
)

// jobKind tags a unit of hashing work for dispatch
type jobKind int

const (
	jobFileHash jobKind = iota
	jobDirStructure
	jobDirContents
)

// job is a single unit of hashing work routed through the worker pool
type job struct {
	kind jobKind
	path string
}

// TreeStats tracks counters during a tree computation
type TreeStats struct {
	FilesHashed  int64
	FilesSkipped int64
	DirsHashed   int64
	StartTime    int64
	EndTime      int64
}

// Result holds every digest computed for a scanned tree, keyed by absolute path.
type Result struct {
	Files map[string]string     // file path -> content digest
	Dirs  map[string]DigestPair // dir path -> digest pair
	Stats TreeStats
}

// TreeHasher computes all digests for a discovered tree in two phases over a
// bounded worker pool. Phase one hashes file contents and directory structure
// identities; contents digests only start once phase one has fully drained,
// since every contents digest may consume any structure digest below it.
type TreeHasher struct {
	maxWorkers int
	fileHasher *FileHasher
	dirHasher  *DirectoryHasher
	logger     *slog.Logger
}

// TreeOption configures a TreeHasher.
type TreeOption func(*TreeHasher)

// WithWorkers overrides the worker pool size.
func WithWorkers(n int) TreeOption {
	return func(th *TreeHasher) {
		if n > 0 {
			th.maxWorkers = n
		}
	}
}

// WithTreeFileHasher replaces the file hasher, e.g. to attach a digest cache.
func WithTreeFileHasher(fh *FileHasher) TreeOption {
	return func(th *TreeHasher) {
		th.fileHasher = fh
	}
}

// WithTreeLogger sets the logger used for progress and skip diagnostics.
func WithTreeLogger(logger *slog.Logger) TreeOption {
	return func(th *TreeHasher) {
		th.logger = logger
	}
}

// DefaultWorkerCount returns the pool size used when no override is configured.
// Hashing is I/O bound but digest work saturates quickly, so the count is
// capped below the machine's full core count.
func DefaultWorkerCount() int {
	return min(runtime.NumCPU(), 8)
}

// NewTreeHasher creates a tree hasher with the given options.
func NewTreeHasher(opts ...TreeOption) *TreeHasher {
	th := &TreeHasher{
		maxWorkers: DefaultWorkerCount(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(th)
	}
	if th.fileHasher == nil {
		th.fileHasher = NewFileHasher(WithHasherLogger(th.logger))
	}
	if th.dirHasher == nil {
		th.dirHasher = NewDirectoryHasher(th.logger)
	}
	return th
}

// ComputeTree digests every file and directory of a discovered tree. Files
// that cannot be read are skipped and simply absent from the result. An empty
// input yields empty maps and no error.
func (th *TreeHasher) ComputeTree(ctx context.Context, files []string, dirs []string) (*Result, error) {
	timeUtils := common.NewTimeUtils()

	result := &Result{
		Files: make(map[string]string, len(files)),
		Dirs:  make(map[string]DigestPair, len(dirs)),
	}
	if len(files) == 0 && len(dirs) == 0 {
		return result, nil
	}

	idx := NewPathIndex()
	for _, path := range files {
		idx.Insert(path, KindFile)
	}
	for _, path := range dirs {
		idx.Insert(path, KindDir)
	}

	var mu sync.Mutex
	structureDigests := make(map[string]string, len(dirs))
	stats := &TreeStats{StartTime: timeUtils.GetCurrentTimestamp()}

	// Phase one: file contents and per-directory structure identities
	phaseOne := pool.New().WithMaxGoroutines(th.maxWorkers).WithContext(ctx)
	for _, path := range files {
		path := path
		phaseOne.Go(func(ctx context.Context) error {
			return th.dispatch(ctx, job{kind: jobFileHash, path: path}, idx, result, structureDigests, &mu, stats)
		})
	}
	for _, path := range dirs {
		path := path
		phaseOne.Go(func(ctx context.Context) error {
			return th.dispatch(ctx, job{kind: jobDirStructure, path: path}, idx, result, structureDigests, &mu, stats)
		})
	}
	if err := phaseOne.Wait(); err != nil {
		return nil, err
	}

	// Contents digests consume structure digests of arbitrary descendants,
	// so phase one must have covered every directory before phase two starts

	// Phase two: transitive contents digests
	phaseTwo := pool.New().WithMaxGoroutines(th.maxWorkers).WithContext(ctx)
	for _, path := range dirs {
		path := path
		phaseTwo.Go(func(ctx context.Context) error {
			return th.dispatch(ctx, job{kind: jobDirContents, path: path}, idx, result, structureDigests, &mu, stats)
		})
	}
	if err := phaseTwo.Wait(); err != nil {
		return nil, err
	}

	stats.EndTime = timeUtils.GetCurrentTimestamp()
	result.Stats = TreeStats{
		FilesHashed:  atomic.LoadInt64(&stats.FilesHashed),
		FilesSkipped: atomic.LoadInt64(&stats.FilesSkipped),
		DirsHashed:   atomic.LoadInt64(&stats.DirsHashed),
		StartTime:    stats.StartTime,
		EndTime:      stats.EndTime,
	}
	th.logPerformanceStats(&result.Stats)

	return result, nil
}

// dispatch routes one unit of work to the hasher that handles it
func (th *TreeHasher) dispatch(ctx context.Context, j job, idx *PathIndex, result *Result, structures map[string]string, mu *sync.Mutex, stats *TreeStats) error {
	// Check for cancellation
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	switch j.kind {
	case jobFileHash:
		digest, err := th.fileHasher.Hash(j.path)
		if err != nil {
			atomic.AddInt64(&stats.FilesSkipped, 1)
			th.logger.Warn("skipping unreadable file", "path", j.path, "error", err)
			return nil
		}
		mu.Lock()
		result.Files[j.path] = digest
		mu.Unlock()
		atomic.AddInt64(&stats.FilesHashed, 1)

	case jobDirStructure:
		digest := th.dirHasher.StructureDigest(j.path)
		mu.Lock()
		structures[j.path] = digest
		mu.Unlock()

	case jobDirContents:
		contents := th.dirHasher.ContentsDigest(j.path, idx, result.Files, structures)
		mu.Lock()
		result.Dirs[j.path] = DigestPair{
			Contents:  contents,
			Structure: structures[j.path],
		}
		mu.Unlock()
		atomic.AddInt64(&stats.DirsHashed, 1)
	}

	return nil
}

// logPerformanceStats logs hashing throughput metrics
func (th *TreeHasher) logPerformanceStats(stats *TreeStats) {
	duration := stats.EndTime - stats.StartTime
	if duration <= 0 {
		duration = 1
	}

	filesPerSec := float64(stats.FilesHashed) / float64(duration) * 1000
	th.logger.Info("tree digest computation completed",
		"files", stats.FilesHashed,
		"files_skipped", stats.FilesSkipped,
		"dirs", stats.DirsHashed,
		"duration_ms", duration,
		"files_per_sec", filesPerSec)
}
