// Package scanner orchestrates a full fingerprinting run across scan targets.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/stabla/syntegrity/synt/filesystem"
	"github.com/stabla/syntegrity/synt/filesystem/common"
	"github.com/stabla/syntegrity/synt/fingerprint"
	"github.com/stabla/syntegrity/synt/report"
	"github.com/stabla/syntegrity/synt/snapshot"
	"github.com/stabla/syntegrity/synt/structure"
)

// RootResult is the outcome of scanning one target.
type RootResult struct {
	Root      string
	Snapshot  *snapshot.Snapshot
	Structure string
	Events    []snapshot.ChangeEvent
	Files     int
	Dirs      int
	Changes   int
	Elapsed   time.Duration
}

// Scanner wires discovery, hashing, diffing and reporting into one run.
type Scanner struct {
	walker     *filesystem.Walker
	hasher     *fingerprint.TreeHasher
	fileHasher *fingerprint.FileHasher
	differ     *snapshot.Differ
	store      snapshot.Store
	reporter   *report.Reporter
	logger     *slog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithWalker replaces the path discoverer.
func WithWalker(w *filesystem.Walker) Option {
	return func(s *Scanner) {
		s.walker = w
	}
}

// WithTreeHasher replaces the tree hasher.
func WithTreeHasher(th *fingerprint.TreeHasher) Option {
	return func(s *Scanner) {
		s.hasher = th
	}
}

// WithFileHasher replaces the file hasher used for single-file targets.
func WithFileHasher(fh *fingerprint.FileHasher) Option {
	return func(s *Scanner) {
		s.fileHasher = fh
	}
}

// WithReporter replaces the console reporter.
func WithReporter(r *report.Reporter) Option {
	return func(s *Scanner) {
		s.reporter = r
	}
}

// WithScannerLogger sets the logger used for per-target diagnostics.
func WithScannerLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// New creates a scanner persisting baselines to store.
func New(store snapshot.Store, opts ...Option) *Scanner {
	s := &Scanner{
		store:  store,
		differ: snapshot.NewDiffer(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.walker == nil {
		s.walker = filesystem.NewWalker(filesystem.WithWalkerLogger(s.logger))
	}
	if s.fileHasher == nil {
		s.fileHasher = fingerprint.NewFileHasher(fingerprint.WithHasherLogger(s.logger))
	}
	if s.hasher == nil {
		s.hasher = fingerprint.NewTreeHasher(
			fingerprint.WithTreeFileHasher(s.fileHasher),
			fingerprint.WithTreeLogger(s.logger),
		)
	}
	if s.reporter == nil {
		s.reporter = report.NewReporter(nil)
	}
	return s
}

// Run scans every target in order and renders the batch summary. A missing
// target is skipped with a warning and never aborts the rest of the batch;
// only context cancellation does.
func (s *Scanner) Run(ctx context.Context, targets []string) ([]RootResult, error) {
	start := time.Now()

	results := make([]RootResult, 0, len(targets))
	rows := make([]report.Summary, 0, len(targets))

	for _, target := range targets {
		result, err := s.scanTarget(ctx, target)
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			if errors.Is(err, common.ErrRootNotFound) {
				s.logger.Warn("skipping missing scan target", "target", target, "error", err)
			} else {
				s.logger.Error("scan target failed", "target", target, "error", err)
			}
			continue
		}

		results = append(results, *result)
		rows = append(rows, report.Summary{
			Root:    result.Root,
			Files:   result.Files,
			Dirs:    result.Dirs,
			Changes: result.Changes,
			Elapsed: result.Elapsed,
		})
	}

	s.reporter.PrintSummary(rows, time.Since(start))
	return results, nil
}

func (s *Scanner) scanTarget(ctx context.Context, target string) (*RootResult, error) {
	start := time.Now()

	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", common.ErrRootNotFound, target)
		}
		return nil, fmt.Errorf("%w: failed to stat %s: %v", common.ErrRootNotFound, target, err)
	}

	switch {
	case info.IsDir():
		return s.scanDirectory(ctx, target, start)
	case info.Mode().IsRegular():
		return s.scanFile(target, start)
	default:
		return nil, fmt.Errorf("%w: %s is neither a regular file nor a directory", common.ErrInvalidInput, target)
	}
}

// scanFile fingerprints a single file target. Single files carry no
// structure or baseline, so only the digest line is emitted.
func (s *Scanner) scanFile(path string, start time.Time) (*RootResult, error) {
	digest, err := s.fileHasher.Hash(path)
	if err != nil {
		return nil, err
	}

	s.reporter.PrintFileTarget(path, digest)

	return &RootResult{
		Root:    path,
		Files:   1,
		Elapsed: time.Since(start),
	}, nil
}

func (s *Scanner) scanDirectory(ctx context.Context, target string, start time.Time) (*RootResult, error) {
	discovery, err := s.walker.Discover(ctx, target)
	if err != nil {
		return nil, err
	}

	result, err := s.hasher.ComputeTree(ctx, discovery.Files, discovery.Dirs)
	if err != nil {
		return nil, err
	}

	snap, err := snapshot.New(discovery.Root, result)
	if err != nil {
		return nil, err
	}

	previous, err := s.store.Load(discovery.Root)
	if err != nil {
		s.logger.Warn("could not load previous snapshot, treating as first run",
			"root", discovery.Root, "error", err)
		previous = nil
	}
	events := s.differ.Diff(previous, snap)

	node, err := structure.Build(snap.Files, snap.Dirs)
	if err != nil {
		return nil, err
	}
	rendered := structure.Render(node)

	s.reporter.PrintRoot(snap, rendered, events)

	if err := s.store.Save(snap); err != nil {
		s.logger.Warn("could not persist snapshot", "root", discovery.Root, "error", err)
	}

	return &RootResult{
		Root:      discovery.Root,
		Snapshot:  snap,
		Structure: rendered,
		Events:    events,
		Files:     len(snap.Files),
		Dirs:      len(snap.Dirs),
		Changes:   len(events),
		Elapsed:   time.Since(start),
	}, nil
}
