// Package scanner is the Batch worker-pool driver that builds CFGs for
// every method file under a directory concurrently. Grounded on the
// teacher's internal/scanner.Scanner: the same job-channel/worker/collector
// shape, walking a directory and fanning out onto a bounded pool, but
// producing CFG build records instead of security findings.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lattice-lang/latticec/internal/astjson"
	"github.com/lattice-lang/latticec/internal/cfg"
	"github.com/lattice-lang/latticec/internal/config"
	"github.com/lattice-lang/latticec/internal/symbols"
)

// MethodResult is the outcome of building one method's CFG.
type MethodResult struct {
	Path          string
	Method        string
	Context       *symbols.Context
	CFG           *cfg.CFG
	BuildDuration time.Duration
	// NotSupported lists the Why of every NotSupported binding the builder
	// emitted for this method, since those are non-fatal diagnostics rather
	// than a build failure.
	NotSupported []string
	// Err is set when loading or building the method failed outright: a
	// malformed *.method.json, or a recovered panic from a programmer-error
	// condition inside internal/cfg (e.g. a ConstantLit reaching the
	// builder).
	Err error
}

// BatchResult aggregates every MethodResult from one Batch.Run.
type BatchResult struct {
	Methods   []*MethodResult
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Batch builds CFGs for a directory of method files on a bounded worker
// pool.
type Batch struct {
	config *config.Config
	logger *zap.Logger
}

// NewBatch creates a Batch driven by cfg's parallelism and logging settings.
func NewBatch(cfg *config.Config, logger *zap.Logger) *Batch {
	return &Batch{config: cfg, logger: logger}
}

// Run walks root (a single file or a directory) and builds a CFG for every
// *.method.json file found, using up to b.config.Parallel workers.
func (b *Batch) Run(root string) (*BatchResult, error) {
	startTime := time.Now()

	b.logger.Info("starting batch build",
		zap.String("root", root),
		zap.Int("workers", b.config.Parallel))

	paths, err := b.collectPaths(root)
	if err != nil {
		return nil, fmt.Errorf("scanner: failed to collect method files: %w", err)
	}

	jobs := make(chan string, b.config.Parallel*2)
	results := make(chan *MethodResult, b.config.Parallel*2)

	var wg sync.WaitGroup
	workers := b.config.Parallel
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go b.worker(&wg, jobs, results)
	}

	var collectorWg sync.WaitGroup
	batch := &BatchResult{StartTime: startTime}
	collectorWg.Add(1)
	go func() {
		defer collectorWg.Done()
		for res := range results {
			batch.Methods = append(batch.Methods, res)
		}
	}()

	for _, p := range paths {
		jobs <- p
	}
	close(jobs)
	wg.Wait()
	close(results)
	collectorWg.Wait()

	batch.EndTime = time.Now()
	batch.Duration = batch.EndTime.Sub(batch.StartTime)

	b.logger.Info("batch build completed",
		zap.Int("methods", len(batch.Methods)),
		zap.Duration("duration", batch.Duration))

	return batch, nil
}

// collectPaths returns every *.method.json file under root, or root itself
// when it is already such a file.
func (b *Batch) collectPaths(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			b.logger.Warn("error accessing path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".method.json") {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

// worker builds CFGs for jobs until the channel closes, recovering from any
// panic raised by internal/cfg's programmer-error conditions so a single
// malformed method cannot take down the whole batch.
func (b *Batch) worker(wg *sync.WaitGroup, jobs <-chan string, results chan<- *MethodResult) {
	defer wg.Done()
	for path := range jobs {
		results <- b.buildOne(path)
	}
}

func (b *Batch) buildOne(path string) *MethodResult {
	res := &MethodResult{Path: path}

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("scanner: panic building %s: %v", path, r)
			b.logger.Warn("recovered panic building method",
				zap.String("path", path), zap.Any("panic", r))
		}
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		res.Err = fmt.Errorf("scanner: failed to read %s: %w", path, err)
		return res
	}

	ctx, md, err := astjson.Load(data)
	if err != nil {
		res.Err = fmt.Errorf("scanner: failed to load %s: %w", path, err)
		return res
	}
	res.Method = md.Name
	res.Context = ctx

	start := time.Now()
	g := cfg.BuildAndRefine(ctx, md)
	res.BuildDuration = time.Since(start)
	res.CFG = g
	res.NotSupported = collectNotSupported(g)

	return res
}

// collectNotSupported scans every block's bindings for NotSupported
// instructions, surfacing them as the diagnostics spec.md's error-handling
// taxonomy treats as non-fatal.
func collectNotSupported(g *cfg.CFG) []string {
	var why []string
	for _, block := range g.BasicBlocks {
		for _, bind := range block.Exprs {
			if ns, ok := bind.Value.(cfg.NotSupported); ok {
				why = append(why, ns.Why)
			}
		}
	}
	return why
}
