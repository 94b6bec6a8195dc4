package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	internal "github.com/stabla/syntegrity/synt"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Syntegrity SyntegrityConfig `mapstructure:"syntegrity"`
}

// SyntegrityConfig stores scanning and fingerprinting configurations.
type SyntegrityConfig struct {
	TargetDirs      []string        `mapstructure:"targetDirs"`
	MaxWorkers      int             `mapstructure:"maxWorkers"`
	ExcludePatterns []string        `mapstructure:"excludePatterns"`
	LogLevel        string          `mapstructure:"logLevel"`
	Cache           CacheConfig     `mapstructure:"cache"`
	Snapshots       SnapshotsConfig `mapstructure:"snapshots"`
}

// CacheConfig stores the persistent digest cache settings.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// SnapshotsConfig stores snapshot persistence details.
type SnapshotsConfig struct {
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
	DSN     string `mapstructure:"dsn"`
}

var AppConfig Config

// DefaultMaxWorkers returns the worker pool size used when no override is configured.
func DefaultMaxWorkers() int {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	return workers
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("..")
		viper.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		viper.AddConfigPath(internal.DefaultConfigPath)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Set default values
	viper.SetDefault("syntegrity.targetDirs", []string{"."})
	viper.SetDefault("syntegrity.maxWorkers", DefaultMaxWorkers())
	viper.SetDefault("syntegrity.excludePatterns", []string{})
	viper.SetDefault("syntegrity.logLevel", "info")
	viper.SetDefault("syntegrity.cache.enabled", false)
	viper.SetDefault("syntegrity.cache.path", internal.DefaultCacheFile)
	viper.SetDefault("syntegrity.snapshots.backend", internal.DefaultSnapshotBackend)
	viper.SetDefault("syntegrity.snapshots.dir", internal.DefaultSnapshotDir)
	viper.SetDefault("syntegrity.snapshots.dsn", internal.DefaultSnapshotDBPath)

	viper.AutomaticEnv()                                   // Read in environment variables that match
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // Replace dots with underscores in env var names e.g. syntegrity.cache.enabled becomes SYNTEGRITY_CACHE_ENABLED

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; defaults will be used. This is not an error for the application to halt on.
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	err := viper.Unmarshal(&AppConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	return &AppConfig, nil
}
