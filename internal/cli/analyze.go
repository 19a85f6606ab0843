package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/argscope/internal/model"
	"github.com/ppiankov/argscope/internal/pipeline"
)

var (
	outJSON  string
	timeout  time.Duration
	goals    []string
	noReport bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <bundle>",
	Short: "Analyze one input bundle",
	Long: `Analyze plans the producers needed for the configured goals, runs them
over the inputs of one bundle and writes a JSON report.

A bundle is a YAML or JSON file with an "inputs" map holding any of issue,
proscons, relevance_network and argmap_graph.

Goals are keywords, optionally pinned to a producer as keyword@producer.
Without --goal, the artifacts and metrics of the configuration are used.

Example:
  argscope analyze debate.yaml
  argscope analyze debate.yaml --goal fuzzy_argmap@minimum-reducer --goal global_balance
  argscope analyze list.yaml --llm-provider openai --llm-model gpt-4o-mini`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (default: <output.dir>/<bundle>.json)")
	analyzeCmd.Flags().BoolVar(&noReport, "no-report", false, "print the summary only")
	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall analysis timeout")
	analyzeCmd.Flags().StringSliceVar(&goals, "goal", nil, "goal keyword (repeatable), overrides the configured goals")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyGoals(cfg, goals)

	analyzer, err := newAnalyzer(ctx, cfg)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing: %s\n", path)
		fmt.Fprintf(os.Stderr, "Goals: %v\n\n", cfg.Goals())
	}

	report, err := analyzer.AnalyzeFile(ctx, path)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if err := pipeline.WriteSummary(os.Stdout, report); err != nil {
		return err
	}

	if noReport {
		return nil
	}
	jsonPath := outJSON
	if jsonPath == "" {
		jsonPath = filepath.Join(cfg.Output.Dir, pipeline.ReportName(path)+".json")
	}
	if err := pipeline.WriteJSON(report, jsonPath); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "\n✓ Wrote JSON: %s\n", jsonPath)
	return nil
}

// applyGoals replaces the configured goals when any are given. Goals are
// all treated as artifacts here; the planner does not distinguish.
func applyGoals(cfg *model.Config, goals []string) {
	if len(goals) == 0 {
		return
	}
	cfg.Analysis.Artifacts = goals
	cfg.Analysis.Metrics = nil
}

// newAnalyzer builds the registry, the oracle (if configured) and an
// analyzer for cfg
func newAnalyzer(ctx context.Context, cfg *model.Config) (*pipeline.Analyzer, error) {
	reg, err := pipeline.NewRegistry()
	if err != nil {
		return nil, err
	}
	oracle, err := pipeline.NewOracle(cfg)
	if err != nil {
		return nil, err
	}
	if oracle != nil && verbose {
		if oracle.IsAvailable(ctx) {
			fmt.Fprintf(os.Stderr, "Oracle: %s/%s\n", oracle.Name(), cfg.LLM.Model)
		} else {
			fmt.Fprintf(os.Stderr, "Warning: oracle %s is not reachable\n", oracle.Name())
		}
	}
	return pipeline.NewAnalyzer(cfg, reg, oracle)
}
