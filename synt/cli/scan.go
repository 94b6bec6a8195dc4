package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/stabla/syntegrity/synt/config"
	"github.com/stabla/syntegrity/synt/db"
	"github.com/stabla/syntegrity/synt/filesystem"
	"github.com/stabla/syntegrity/synt/filesystem/common"
	"github.com/stabla/syntegrity/synt/fingerprint"
	"github.com/stabla/syntegrity/synt/report"
	"github.com/stabla/syntegrity/synt/scanner"
	"github.com/stabla/syntegrity/synt/snapshot"
)

var scanCmd = &cobra.Command{
	Use:   "scan [targets...]",
	Short: "Fingerprint targets and report changes since the last run",
	Long: `Scan walks each target, hashes every file and directory, renders the
hierarchical structure fingerprint and classifies changes against the
previously persisted snapshot. Targets given as arguments override the
configured target list; a target may also be a single file.`,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg := config.AppConfig.Syntegrity

	targets := args
	if len(targets) == 0 {
		targets = cfg.TargetDirs
	}
	if len(targets) == 0 {
		return fmt.Errorf("no scan targets: pass paths as arguments or set syntegrity.targetDirs")
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	workers := cfg.MaxWorkers
	if maxWorkers > 0 {
		workers = maxWorkers
	}
	if err := common.NewValidationUtils().ValidateWorkerCount(workers); err != nil {
		return err
	}

	var cache *fingerprint.DigestCache
	if cfg.Cache.Enabled {
		cache = fingerprint.NewDigestCache()
		if err := cache.LoadFile(cfg.Cache.Path); err != nil {
			slog.Warn("could not load digest cache, starting empty", "path", cfg.Cache.Path, "error", err)
		}
	}

	var hasherOpts []fingerprint.HasherOption
	if cache != nil {
		hasherOpts = append(hasherOpts, fingerprint.WithCache(cache))
	}
	fileHasher := fingerprint.NewFileHasher(hasherOpts...)

	treeHasher := fingerprint.NewTreeHasher(
		fingerprint.WithWorkers(workers),
		fingerprint.WithTreeFileHasher(fileHasher),
	)

	walker := filesystem.NewWalker(filesystem.WithExcludePatterns(cfg.ExcludePatterns))
	reporter := report.NewReporter(os.Stdout)

	sc := scanner.New(store,
		scanner.WithWalker(walker),
		scanner.WithFileHasher(fileHasher),
		scanner.WithTreeHasher(treeHasher),
		scanner.WithReporter(reporter),
	)

	if _, err := sc.Run(cmd.Context(), targets); err != nil {
		return err
	}

	if cache != nil {
		if err := cache.SaveFile(cfg.Cache.Path); err != nil {
			slog.Warn("could not persist digest cache", "path", cfg.Cache.Path, "error", err)
		}
		reporter.PrintCacheStats(cache.Len())
	}

	return nil
}

// openStore selects the snapshot persistence backend from configuration.
func openStore(cfg config.SyntegrityConfig) (snapshot.Store, error) {
	switch cfg.Snapshots.Backend {
	case "sqlite":
		return db.NewSnapshotDBProvider(cfg.Snapshots.DSN)
	case "file", "":
		return snapshot.NewFileStore(cfg.Snapshots.Dir), nil
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q (expected file or sqlite)", cfg.Snapshots.Backend)
	}
}
