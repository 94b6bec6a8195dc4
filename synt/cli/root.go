// Package cli wires the command line surface of syntegrity.
package cli

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	internal "github.com/stabla/syntegrity/synt"
	"github.com/stabla/syntegrity/synt/config"
	"github.com/stabla/syntegrity/synt/filesystem/common"
)

var (
	cfgFile    string
	maxWorkers int
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   internal.DefaultAppName,
	Short: "Filesystem fingerprinting and change detection",
	Long: `syntegrity fingerprints filesystem subtrees: every file gets a content
hash and every directory a pair of hashes covering its transitive contents
and its immediate layout. Consecutive runs are diffed into a classified,
priority-ordered list of change events.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := config.LoadConfig(cfgFile); err != nil {
			return common.NewErrorUtils().WrapError(err, "failed to load configuration")
		}
		setupLogging()
		return nil
	},
}

// setupLogging installs the process-wide slog handler. The --verbose flag
// wins over the configured level.
func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	} else {
		switch strings.ToLower(config.AppConfig.Syntegrity.LogLevel) {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file")
	rootCmd.PersistentFlags().IntVar(&maxWorkers, "workers", 0, "Worker pool size (defaults to CPU count, capped at 8)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		internal.GetLogger().Fatal().Err(err).Msg("command failed")
	}
}
