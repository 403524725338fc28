package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"forumjudge/internal/eval"
	"forumjudge/internal/llm"
	"forumjudge/internal/metrics"
	"forumjudge/internal/models"
	"forumjudge/internal/sanitize"
	"forumjudge/internal/service"
)

var (
	evalForums     []string
	evalBatchSize  int
	evalMaxBatches int
	evalNoProgress bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate unscored forum content",
	Long: `Evaluate selects content that the configured model has not scored yet,
sends it to the model in batches, and persists one evaluation record
per item. Re-running is safe: already-evaluated content is excluded at
selection time and guarded by a uniqueness constraint at write time.

Examples:
  forumjudge evaluate
  forumjudge evaluate --forum uniswap --forum aave
  forumjudge evaluate --batch-size 50 --max-batches 2
  forumjudge evaluate --no-progress`,
	RunE:         runEvaluate,
	SilenceUsage: true,
}

func init() {
	evaluateCmd.Flags().StringSliceVarP(&evalForums, "forum", "f", nil, "forum to evaluate (repeatable, defaults to configured forums)")
	evaluateCmd.Flags().IntVar(&evalBatchSize, "batch-size", 0, "items per model call (defaults to configured batchSize)")
	evaluateCmd.Flags().IntVar(&evalMaxBatches, "max-batches", -1, "cap on batches per forum and kind, 0 for unlimited")
	evaluateCmd.Flags().BoolVar(&evalNoProgress, "no-progress", false, "disable the interactive progress display")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	forums := evalForums
	if len(forums) == 0 {
		forums = cfg.Forums
	}
	if len(forums) == 0 {
		return fmt.Errorf("no forums given: use --forum or set forums in the config")
	}

	opts := service.Options{
		BatchSize:  cfg.BatchSize,
		MaxBatches: cfg.MaxBatches,
	}
	if evalBatchSize > 0 {
		opts.BatchSize = evalBatchSize
	}
	if evalMaxBatches >= 0 {
		opts.MaxBatches = evalMaxBatches
	}

	model, err := llm.NewModel(cfg)
	if err != nil {
		return fmt.Errorf("init model: %w", err)
	}

	collector := metrics.NewCollector()
	evaluator := service.NewEvaluator(
		dbClient,
		eval.NewClient(model, collector, logger),
		sanitize.New(cfg.TokenBudget),
		llm.NewRetrier(cfg.Retry.MaxAttempts, cfg.BackoffBase()),
		collector,
		cfg.InterBatchDelay(),
		logger,
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var stats []*models.RunStats
	if !evalNoProgress && term.IsTerminal(int(os.Stdout.Fd())) {
		stats, err = runWithProgress(cancel, func(progress func(service.ProgressEvent)) ([]*models.RunStats, error) {
			opts.Progress = progress
			return evaluator.Run(ctx, forums, opts)
		})
	} else {
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
		defer stop()

		opts.Progress = func(ev service.ProgressEvent) {
			fmt.Printf("%s/%s: batch %d/%d done, %d/%d items\n",
				ev.Forum, ev.Kind, ev.Batch, ev.Batches, ev.Processed, ev.Found)
		}
		stats, err = evaluator.Run(ctx, forums, opts)
	}

	printRunSummary(stats)
	if verbose {
		fmt.Println()
		printTimings(collector.Snapshot())
	}

	if err != nil {
		return err
	}
	var errCount int
	for _, s := range stats {
		errCount += len(s.Errors)
	}
	if errCount > 0 {
		return fmt.Errorf("run finished with %d errors (see summary above)", errCount)
	}
	return nil
}

// printRunSummary displays per-forum results after a run.
func printRunSummary(stats []*models.RunStats) {
	for _, s := range stats {
		fmt.Printf("\n%s (%s)\n", s.Forum, s.Finished.Sub(s.Started).Round(100*time.Millisecond))
		fmt.Printf("═══════════════════════════════════════\n")
		for _, kind := range models.AllKinds() {
			ks, ok := s.Kinds[kind]
			if !ok {
				continue
			}
			fmt.Printf("  %-8s found %4d, processed %4d, persisted %4d",
				kind, ks.Found, ks.Processed, ks.Persisted)
			if ks.Skipped > 0 {
				fmt.Printf(", skipped %d", ks.Skipped)
			}
			fmt.Println()
		}
		if len(s.Errors) > 0 {
			fmt.Printf("\n  Errors (%d):\n", len(s.Errors))
			for _, e := range s.Errors {
				fmt.Printf("    • [%s] %s\n", e.Type, e.Message)
			}
		}
	}
}

// printTimings displays pipeline timing and token statistics.
func printTimings(snap metrics.Snapshot) {
	fmt.Printf("Pipeline Statistics\n")
	fmt.Printf("═══════════════════════════════════════\n")

	if snap.Evaluate != nil {
		fmt.Printf("\nModel calls:\n")
		printOpStats(snap.Evaluate)
		if snap.Evaluate.TotalInputTokens > 0 || snap.Evaluate.TotalOutputTokens > 0 {
			fmt.Printf("  Tokens: %d in, %d out\n",
				snap.Evaluate.TotalInputTokens, snap.Evaluate.TotalOutputTokens)
		}
	}
	if snap.DBSelect != nil {
		fmt.Printf("\nDB select:\n")
		printOpStats(snap.DBSelect)
	}
	if snap.DBInsert != nil {
		fmt.Printf("\nDB insert:\n")
		printOpStats(snap.DBInsert)
	}
}

// printOpStats displays timing statistics for an operation.
func printOpStats(op *metrics.OperationSnapshot) {
	fmt.Printf("  Calls: %d, Total: %dms\n", op.Count, op.TotalTimeMs)
	fmt.Printf("  Time: avg %.1fms, min %dms, max %dms\n",
		op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
}
