// Package reporter renders a scanner.BatchResult as dot, text, or json,
// following the same shape as the teacher's internal/reporter: a thin
// Reporter{config, logger} wrapping one generate function per format,
// writing to stdout or a configured output file.
package reporter

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lattice-lang/latticec/internal/cfg"
	"github.com/lattice-lang/latticec/internal/config"
	"github.com/lattice-lang/latticec/internal/scanner"
)

// Reporter generates CFG build reports.
type Reporter struct {
	config *config.Config
	logger *zap.Logger
}

// New creates a new Reporter.
func New(cfg *config.Config, logger *zap.Logger) *Reporter {
	return &Reporter{config: cfg, logger: logger}
}

// Generate renders result per r.config.Format and writes it to
// r.config.OutputFile, or stdout when that is empty.
func (r *Reporter) Generate(result *scanner.BatchResult) error {
	var output string
	var err error

	switch strings.ToLower(r.config.Format) {
	case "dot":
		output = r.generateDot(result)
	case "json":
		output, err = r.generateJSON(result)
	case "text", "":
		output = r.generateText(result)
	default:
		return fmt.Errorf("reporter: unsupported output format: %s", r.config.Format)
	}
	if err != nil {
		return fmt.Errorf("reporter: failed to generate report: %w", err)
	}

	if r.config.OutputFile != "" {
		if err := os.WriteFile(r.config.OutputFile, []byte(output), 0644); err != nil {
			return fmt.Errorf("reporter: failed to write report to file: %w", err)
		}
		r.logger.Info("report written", zap.String("file", r.config.OutputFile))
	} else {
		fmt.Print(output)
	}

	return nil
}

// generateDot renders every successfully built method's CFG as a single DOT
// digraph, one subgraph cluster per method.
func (r *Reporter) generateDot(result *scanner.BatchResult) string {
	var sb strings.Builder
	sb.WriteString("digraph latticec {\n")
	for _, m := range sortedMethods(result.Methods) {
		if m.CFG == nil {
			continue
		}
		sb.WriteString(m.CFG.String(m.Context))
	}
	sb.WriteString("}\n")
	return sb.String()
}

// generateText renders a line-per-block dump of every method, the CLI
// equivalent of BasicBlock.String/CFG.String called directly, preceded by a
// summary header.
func (r *Reporter) generateText(result *scanner.BatchResult) string {
	var sb strings.Builder

	sb.WriteString("=== latticec build report ===\n\n")
	fmt.Fprintf(&sb, "Build completed at: %s\n", result.EndTime.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Build duration: %s\n", result.Duration)
	fmt.Fprintf(&sb, "Methods built: %d\n\n", len(result.Methods))

	for _, m := range sortedMethods(result.Methods) {
		fmt.Fprintf(&sb, "--- %s (%s) ---\n", methodLabel(m), m.Path)
		if m.Err != nil {
			fmt.Fprintf(&sb, "  ERROR: %v\n\n", m.Err)
			continue
		}
		fmt.Fprintf(&sb, "  blocks: %d, build time: %s\n", len(m.CFG.BasicBlocks), m.BuildDuration)
		for _, why := range m.NotSupported {
			fmt.Fprintf(&sb, "  NOT SUPPORTED: %s\n", why)
		}
		for _, b := range m.CFG.BasicBlocks {
			sb.WriteString(b.String(m.Context))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// jsonMethod and jsonReport mirror the counts and topo-sort lengths §8's
// invariants are stated in terms of, without exposing the CFG's internal
// pointer structure.
type jsonMethod struct {
	Method                string   `json:"method"`
	Path                  string   `json:"path"`
	Error                 string   `json:"error,omitempty"`
	BlockCount            int      `json:"block_count"`
	BindingCount          int      `json:"binding_count"`
	ForwardsTopoSortLen   int      `json:"forwards_topo_sort_len"`
	BackwardsTopoSortLen  int      `json:"backwards_topo_sort_len"`
	BuildDurationMicros   int64    `json:"build_duration_micros"`
	NotSupported          []string `json:"not_supported,omitempty"`
}

type jsonReport struct {
	StartTime time.Time    `json:"start_time"`
	EndTime   time.Time    `json:"end_time"`
	Methods   []jsonMethod `json:"methods"`
}

func (r *Reporter) generateJSON(result *scanner.BatchResult) (string, error) {
	report := jsonReport{StartTime: result.StartTime, EndTime: result.EndTime}
	for _, m := range sortedMethods(result.Methods) {
		jm := jsonMethod{Method: m.Method, Path: m.Path, BuildDurationMicros: m.BuildDuration.Microseconds()}
		if m.Err != nil {
			jm.Error = m.Err.Error()
		} else {
			jm.BlockCount = len(m.CFG.BasicBlocks)
			jm.BindingCount = bindingCount(m.CFG)
			jm.ForwardsTopoSortLen = len(m.CFG.ForwardsTopoSort)
			jm.BackwardsTopoSortLen = len(m.CFG.BackwardsTopoSort)
			jm.NotSupported = m.NotSupported
		}
		report.Methods = append(report.Methods, jm)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func bindingCount(g *cfg.CFG) int {
	n := 0
	for _, b := range g.BasicBlocks {
		n += len(b.Exprs)
	}
	return n
}

func methodLabel(m *scanner.MethodResult) string {
	if m.Method != "" {
		return m.Method
	}
	return "<unknown>"
}

func sortedMethods(methods []*scanner.MethodResult) []*scanner.MethodResult {
	out := make([]*scanner.MethodResult, len(methods))
	copy(out, methods)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
