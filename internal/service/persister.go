package service

import (
	"context"
	"errors"
	"log/slog"

	"forumjudge/internal/db"
	"forumjudge/internal/eval"
	"forumjudge/internal/models"
)

// PersistOutcome summarizes a per-batch persistence pass.
type PersistOutcome struct {
	Persisted int
	Skipped   int
	Errors    []models.RunError
}

// persistBatch writes one evaluation record per (item, result) pair.
// Each item maps to its own success-or-failure outcome: a duplicate-key
// conflict means a concurrent run already evaluated the item and is
// skipped, any other insert failure is recorded, and siblings are
// always still attempted.
func (e *Evaluator) persistBatch(ctx context.Context, items []models.ContentItem, results []eval.Result) PersistOutcome {
	var out PersistOutcome

	for i, item := range items {
		res := results[i]
		key := models.RecordIDKey(item.ID)
		input := models.EvaluationInput{
			ContentID: item.ID,
			Forum:     item.Forum,
			Model:     e.client.ModelName(),
			Scores:    res.Scores,
			Tags:      res.Tags,
			KeyPoints: res.KeyPoints,
			Summary:   res.Summary,
		}
		if res.Improvements != "" {
			input.Improvements = &res.Improvements
		}

		err := e.insertTimed(ctx, input)
		switch {
		case err == nil:
			out.Persisted++
		case errors.Is(err, db.ErrDuplicateEvaluation):
			// Already evaluated by a concurrently completed run.
			out.Skipped++
			e.log.Info("evaluation already exists, skipping",
				"content_id", key,
				"forum", item.Forum)
		default:
			out.Errors = append(out.Errors, models.RunError{
				Type:    "persistence",
				Message: key + ": " + err.Error(),
			})
			e.log.Warn("failed to persist evaluation",
				"content_id", key,
				"forum", item.Forum,
				slog.Any("error", err))
		}
	}

	return out
}
