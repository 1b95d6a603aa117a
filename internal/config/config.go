// Package config loads latticec's configuration: defaults overridden by a
// config file, environment variables, and CLI flags, in that order, the way
// the teacher's internal/config package layers viper on top of hardcoded
// defaults.
package config

import (
	"runtime"

	"github.com/spf13/viper"
)

// Config holds latticec's run configuration.
type Config struct {
	// InputPath is a single *.method.json file or a directory of them.
	InputPath string
	// OutputFile is where the report is written; empty means stdout.
	OutputFile string
	// Format selects the reporter's rendering: "dot", "text", or "json".
	Format   string
	Parallel int
	Verbose  bool

	Cache CacheConfig
	MySQL MySQLConfig
}

// CacheConfig controls the sqlite3-backed build cache.
type CacheConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
}

// MySQLConfig controls the optional fleet metrics sink.
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// Load builds a Config from defaults, then overrides anything viper has
// picked up from a config file, environment variables, or flags bound to it.
func Load() *Config {
	cfg := &Config{
		Format:   "text",
		Parallel: runtime.NumCPU(),
		Cache: CacheConfig{
			Enabled:   true,
			Directory: ".latticec-cache",
		},
	}

	if viper.IsSet("format") {
		cfg.Format = viper.GetString("format")
	}
	if viper.IsSet("parallel") {
		cfg.Parallel = viper.GetInt("parallel")
	}
	if viper.IsSet("verbose") {
		cfg.Verbose = viper.GetBool("verbose")
	}
	if viper.IsSet("cache") {
		viper.UnmarshalKey("cache", &cfg.Cache)
	}
	if viper.IsSet("mysql") {
		viper.UnmarshalKey("mysql", &cfg.MySQL)
	}

	if cfg.Parallel <= 0 {
		cfg.Parallel = runtime.NumCPU()
	}

	return cfg
}
