package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	statsForums []string
	statsModel  string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show evaluation coverage per forum",
	Long: `Show how many evaluation records exist per forum for a model.

Defaults to the configured forums and model.

Examples:
  forumjudge stats
  forumjudge stats --forum uniswap
  forumjudge stats --model gpt-4o-mini`,
	RunE:         runStats,
	SilenceUsage: true,
}

func init() {
	statsCmd.Flags().StringSliceVarP(&statsForums, "forum", "f", nil, "forum to report on (repeatable)")
	statsCmd.Flags().StringVar(&statsModel, "model", "", "model name (defaults to configured llmModel)")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	model := statsModel
	if model == "" {
		model = cfg.LLMModel
	}

	forums := statsForums
	if len(forums) == 0 {
		forums = cfg.Forums
	}
	if len(forums) == 0 {
		// Nothing configured: report on every forum with content.
		listed, err := dbClient.ListForums(ctx)
		if err != nil {
			return err
		}
		for _, f := range listed {
			forums = append(forums, f.Forum)
		}
	}
	if len(forums) == 0 {
		fmt.Println("No content stored yet.")
		return nil
	}

	fmt.Printf("Evaluations by %s\n", model)
	fmt.Printf("═══════════════════════════════════════\n")
	for _, forum := range forums {
		n, err := dbClient.CountEvaluations(ctx, forum, model)
		if err != nil {
			return fmt.Errorf("count %s: %w", forum, err)
		}
		fmt.Printf("%-25s %10d\n", forum, n)
	}
	return nil
}
