// Package service composes the evaluation pipeline: selection,
// batching, sanitization, model invocation, validation, and
// persistence, per forum and content kind.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"forumjudge/internal/batch"
	"forumjudge/internal/eval"
	"forumjudge/internal/llm"
	"forumjudge/internal/metrics"
	"forumjudge/internal/models"
	"forumjudge/internal/sanitize"
)

// ContentStore is the storage surface the evaluator needs.
type ContentStore interface {
	SelectUnevaluated(ctx context.Context, forum string, kind models.ContentKind, model string) ([]models.ContentItem, error)
	InsertEvaluation(ctx context.Context, input models.EvaluationInput) error
}

// BatchEvaluator scores a batch of sanitized texts in one model call.
type BatchEvaluator interface {
	Evaluate(ctx context.Context, items []string) ([]eval.Result, error)
	ModelName() string
}

// ProgressEvent describes one completed batch, for display purposes.
type ProgressEvent struct {
	Forum     string
	Kind      models.ContentKind
	Batch     int
	Batches   int
	Processed int
	Found     int
	Failed    bool
}

// Options configures one evaluation run.
type Options struct {
	BatchSize  int
	MaxBatches int
	// Progress, when set, receives an event after every batch.
	Progress func(ProgressEvent)
}

// Evaluator drives the batch run loop. One evaluator processes its
// forums strictly sequentially; distinct forums may be handled by
// independent evaluator instances, relying on the storage uniqueness
// constraint for cross-run safety.
type Evaluator struct {
	store     ContentStore
	client    BatchEvaluator
	sanitizer *sanitize.Sanitizer
	retrier   *llm.Retrier
	collector *metrics.Collector
	delay     time.Duration
	log       *slog.Logger
}

// NewEvaluator creates the orchestrator. The collector may be nil.
func NewEvaluator(
	store ContentStore,
	client BatchEvaluator,
	sanitizer *sanitize.Sanitizer,
	retrier *llm.Retrier,
	collector *metrics.Collector,
	interBatchDelay time.Duration,
	log *slog.Logger,
) *Evaluator {
	if log == nil {
		log = slog.Default()
	}
	return &Evaluator{
		store:     store,
		client:    client,
		sanitizer: sanitizer,
		retrier:   retrier,
		collector: collector,
		delay:     interBatchDelay,
		log:       log,
	}
}

// Run evaluates every forum in order and returns per-forum stats. The
// returned error joins the fatal failures only; per-batch and per-item
// errors live in the stats and never halt sibling work.
func (e *Evaluator) Run(ctx context.Context, forums []string, opts Options) ([]*models.RunStats, error) {
	runID := uuid.NewString()
	e.log.Info("starting evaluation run",
		"run_id", runID,
		"forums", len(forums),
		"batch_size", opts.BatchSize,
		"max_batches", opts.MaxBatches,
		"model", e.client.ModelName())

	var all []*models.RunStats
	var fatal []error
	for _, forum := range forums {
		stats, err := e.runForum(ctx, runID, forum, opts)
		all = append(all, stats)
		if err != nil {
			fatal = append(fatal, fmt.Errorf("forum %s: %w", forum, err))
		}
		if ctx.Err() != nil {
			break
		}
	}
	return all, errors.Join(fatal...)
}

// runForum processes every content kind of one forum. A selection
// failure is fatal for the forum; batch failures are recorded and the
// loop moves on.
func (e *Evaluator) runForum(ctx context.Context, runID, forum string, opts Options) (*models.RunStats, error) {
	stats := models.NewRunStats(runID, forum)
	defer func() { stats.Finished = time.Now() }()

	for _, kind := range models.AllKinds() {
		if ctx.Err() != nil {
			stats.AddError("canceled", "run canceled before %s selection", kind)
			return stats, nil
		}

		selectStart := time.Now()
		items, err := e.store.SelectUnevaluated(ctx, forum, kind, e.client.ModelName())
		if e.collector != nil {
			e.collector.RecordTiming(metrics.OpDBSelect, time.Since(selectStart))
		}
		if err != nil {
			// Outside the per-batch isolation boundary: abort the forum.
			stats.Fatal = true
			stats.AddError("fatal", "select %s: %v", kind, err)
			return stats, fmt.Errorf("select %s: %w", kind, err)
		}

		ks := stats.Kind(kind)
		ks.Found = len(items)
		if len(items) == 0 {
			continue
		}

		batches := batch.Chunk(items, opts.BatchSize, opts.MaxBatches)
		e.log.Info("selected content",
			"forum", forum,
			"kind", kind,
			"found", len(items),
			"batches", len(batches))

		for i, b := range batches {
			// Cancellation is only honored between batches so an
			// in-flight batch is never left half-persisted. The batch
			// body runs detached from the run context; the model call
			// still carries its own per-call timeout.
			if ctx.Err() != nil {
				stats.AddError("canceled", "run canceled after batch %d of %s/%s", i, forum, kind)
				return stats, nil
			}

			failed := e.processBatch(context.WithoutCancel(ctx), b, stats, ks)
			if opts.Progress != nil {
				opts.Progress(ProgressEvent{
					Forum:     forum,
					Kind:      kind,
					Batch:     i + 1,
					Batches:   len(batches),
					Processed: ks.Processed,
					Found:     ks.Found,
					Failed:    failed,
				})
			}

			if i < len(batches)-1 {
				e.pace(ctx)
			}
		}
	}

	return stats, nil
}

// processBatch runs sanitize -> evaluate (with retries) -> validate ->
// persist for one batch. Returns true when the batch failed.
func (e *Evaluator) processBatch(ctx context.Context, items []models.ContentItem, stats *models.RunStats, ks *models.KindStats) bool {
	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = e.sanitizer.Clean(item.Text())
	}

	var results []eval.Result
	err := e.retrier.Do(ctx, func(ctx context.Context) error {
		r, err := e.client.Evaluate(ctx, texts)
		if err == nil {
			results = r
		}
		return err
	})
	if err != nil {
		stats.AddError(errorType(err), "batch of %d: %v", len(items), err)
		e.log.Warn("batch evaluation failed",
			"forum", stats.Forum,
			"items", len(items),
			slog.Any("error", err))
		return true
	}

	outcome := e.persistBatch(ctx, items, results)
	ks.Processed += len(items)
	ks.Persisted += outcome.Persisted
	ks.Skipped += outcome.Skipped
	stats.Errors = append(stats.Errors, outcome.Errors...)
	return len(outcome.Errors) > 0
}

func (e *Evaluator) insertTimed(ctx context.Context, input models.EvaluationInput) error {
	start := time.Now()
	err := e.store.InsertEvaluation(ctx, input)
	if e.collector != nil {
		e.collector.RecordTiming(metrics.OpDBInsert, time.Since(start))
	}
	return err
}

// pace sleeps the inter-batch delay, waking early on cancellation.
func (e *Evaluator) pace(ctx context.Context) {
	if e.delay <= 0 {
		return
	}
	timer := time.NewTimer(e.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// errorType labels a batch-level error for the run stats.
func errorType(err error) string {
	var verr *eval.ValidationError
	switch {
	case errors.Is(err, eval.ErrBatchMismatch):
		return "batch_mismatch"
	case errors.As(err, &verr):
		return "validation"
	case errors.Is(err, llm.ErrAttemptsExhausted):
		return "retry_exhausted"
	case errors.Is(err, llm.ErrAuth):
		return "auth"
	case errors.Is(err, llm.ErrInvalidResponse):
		return "invalid_response"
	default:
		return "evaluation"
	}
}
