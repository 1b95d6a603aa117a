// Package cmd wires latticec's Cobra root command: flags for input path,
// output format/file, cache directory, MySQL metrics DSN, parallelism, and
// verbosity, following the same init/RunE shape as the teacher's cmd/root.go.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/lattice-lang/latticec/internal/cache"
	"github.com/lattice-lang/latticec/internal/config"
	"github.com/lattice-lang/latticec/internal/metricsstore"
	"github.com/lattice-lang/latticec/internal/reporter"
	"github.com/lattice-lang/latticec/internal/scanner"
)

var (
	cfgFile    string
	outputFile string
	format     string
	parallel   int
	verbose    bool
	cacheDir   string
	noCache    bool
	mysqlDSN   string
)

var rootCmd = &cobra.Command{
	Use:   "latticec [path]",
	Short: "Build control-flow graphs from method AST descriptions",
	Long: `latticec lowers serialized method ASTs (*.method.json) into control-flow
graphs via a five-stage pipeline (build, alias-prefix injection, topological
sort, dealias, block-argument inference), then reports the result as dot,
text, or json.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .latticec.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", "text", "output format (text, json, dot)")
	rootCmd.PersistentFlags().IntVarP(&parallel, "parallel", "p", 0, "number of parallel workers (0 = auto)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "build cache directory (default: .latticec-cache)")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "disable the build cache")
	rootCmd.PersistentFlags().StringVar(&mysqlDSN, "mysql-dsn", "", "MySQL DSN for the fleet metrics sink (disabled if empty)")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".latticec")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("LATTICEC")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func runBuild(cmd *cobra.Command, args []string) error {
	logger := initLogger()
	defer logger.Sync()

	inputPath := "."
	if len(args) > 0 {
		inputPath = args[0]
	}
	absPath, err := filepath.Abs(inputPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	cfg := config.Load()
	cfg.InputPath = absPath
	cfg.OutputFile = outputFile
	if cmd.Flags().Changed("format") {
		cfg.Format = format
	}
	if parallel > 0 {
		cfg.Parallel = parallel
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = verbose
	}
	if cacheDir != "" {
		cfg.Cache.Directory = cacheDir
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if mysqlDSN != "" {
		cfg.MySQL.DSN = mysqlDSN
	}

	batch := scanner.NewBatch(cfg, logger)
	result, err := batch.Run(cfg.InputPath)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	if cfg.Cache.Enabled {
		if err := recordToCache(cfg, logger, result); err != nil {
			logger.Warn("failed to update build cache", zap.Error(err))
		}
	}
	if cfg.MySQL.DSN != "" {
		if err := recordToMetricsStore(cfg, logger, result); err != nil {
			logger.Warn("failed to record build metrics", zap.Error(err))
		}
	}

	r := reporter.New(cfg, logger)
	if err := r.Generate(result); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	return nil
}

// recordToCache persists every successfully built method's DOT rendering
// and summary counts, keyed by a hash of its source file's bytes. The
// records are only written: runBuild never looks them up, so every run
// rebuilds every method.
func recordToCache(cfg *config.Config, logger *zap.Logger, result *scanner.BatchResult) error {
	c, err := cache.NewBuildCache(cfg.Cache.Directory, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	for _, m := range result.Methods {
		if m.Err != nil || m.CFG == nil {
			continue
		}
		data, err := os.ReadFile(m.Path)
		if err != nil {
			continue
		}
		bindings := 0
		for _, b := range m.CFG.BasicBlocks {
			bindings += len(b.Exprs)
		}
		rec := cache.Record{
			MethodHash:   cache.HashMethod(data),
			BuiltAt:      time.Now(),
			BlockCount:   len(m.CFG.BasicBlocks),
			BindingCount: bindings,
			DotText:      m.CFG.String(m.Context),
		}
		if err := c.Put(rec); err != nil {
			return err
		}
	}
	return nil
}

func recordToMetricsStore(cfg *config.Config, logger *zap.Logger, result *scanner.BatchResult) error {
	store, err := metricsstore.Open(cfg.MySQL.DSN, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, m := range result.Methods {
		if m.Err != nil || m.CFG == nil {
			continue
		}
		bindings := 0
		for _, b := range m.CFG.BasicBlocks {
			bindings += len(b.Exprs)
		}
		metric := metricsstore.BuildMetric{
			Method:        m.Method,
			Blocks:        len(m.CFG.BasicBlocks),
			Bindings:      bindings,
			BuildDuration: m.BuildDuration,
		}
		if err := store.Record(metric); err != nil {
			return err
		}
	}
	return nil
}

func initLogger() *zap.Logger {
	var logger *zap.Logger
	var err error

	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	return logger
}
