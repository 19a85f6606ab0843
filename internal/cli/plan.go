package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/argscope/internal/model"
	"github.com/ppiankov/argscope/internal/pipeline"
)

var inputIDs []string

// planCmd represents the plan command
var planCmd = &cobra.Command{
	Use:   "plan [bundle]",
	Short: "Show the producer chain for the configured goals",
	Long: `Plan resolves the goals against the supplied inputs without running
anything. Inputs come from a bundle file or from --input.

Example:
  argscope plan debate.yaml
  argscope plan --input relevance_network --goal global_balance`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlan,
}

// producersCmd represents the producers command
var producersCmd = &cobra.Command{
	Use:   "producers",
	Short: "List the registered producers per keyword",
	RunE:  runProducers,
}

func init() {
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(producersCmd)

	planCmd.Flags().StringSliceVar(&inputIDs, "input", nil, "supplied input keyword (repeatable)")
	planCmd.Flags().StringSliceVar(&goals, "goal", nil, "goal keyword (repeatable), overrides the configured goals")
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyGoals(cfg, goals)

	var inputs []model.Keyword
	if len(args) == 1 {
		bundle, err := pipeline.LoadBundle(args[0])
		if err != nil {
			return err
		}
		inputs = bundle.IDs()
	}
	for _, id := range inputIDs {
		inputs = append(inputs, model.Keyword(strings.TrimSpace(id)))
	}

	reg, err := pipeline.NewRegistry()
	if err != nil {
		return err
	}
	analyzer, err := pipeline.NewAnalyzer(cfg, reg, nil)
	if err != nil {
		return err
	}
	plan, err := analyzer.Plan(cmd.Context(), inputs)
	if err != nil {
		return err
	}

	fmt.Printf("Goals:  %s\n", strings.Join(cfg.Goals(), ", "))
	fmt.Printf("Inputs: %s\n\n", keywordList(inputs))
	if plan.Empty() {
		fmt.Println("Nothing to run.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tPRODUCER\tPRODUCT\tKIND\tREQUIRES")
	for i, s := range plan.Summary() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, s.Name, s.Product, s.Kind, s.Requirements)
	}
	return w.Flush()
}

func runProducers(cmd *cobra.Command, args []string) error {
	reg, err := pipeline.NewRegistry()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEYWORD\tPRODUCER\tKIND\tREQUIRES\tDESCRIPTION")
	for _, kw := range reg.Keywords() {
		for i, d := range reg.Descriptors(kw) {
			name := d.Name
			if i == 0 {
				name += " (default)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", kw, name, d.Kind, d.Requirements, d.Description)
		}
	}
	return w.Flush()
}

func keywordList(kws []model.Keyword) string {
	if len(kws) == 0 {
		return "(none)"
	}
	parts := make([]string, len(kws))
	for i, kw := range kws {
		parts[i] = string(kw)
	}
	return strings.Join(parts, ", ")
}
