package db

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"

	"forumjudge/internal/models"
)

// ForumCount pairs a forum name with a row count.
type ForumCount struct {
	Forum string `json:"forum"`
	Count int    `json:"count"`
}

// SelectUnevaluated returns content of one forum and kind that has no
// evaluation by the given model, newest first. The anti-join compares
// record IDs directly (content_id is a record link, never a string
// rendering) and is re-executed fresh on every call so results always
// reflect the latest persisted state; there is no partial result on
// error.
func (c *Client) SelectUnevaluated(ctx context.Context, forum string, kind models.ContentKind, model string) ([]models.ContentItem, error) {
	results, err := surrealdb.Query[[]models.ContentItem](ctx, c.db, `
		SELECT * FROM content
		WHERE forum = $forum AND kind = $kind
		AND id NOTINSIDE (
			SELECT VALUE content_id FROM evaluation
			WHERE forum = $forum AND model = $model
		)
		ORDER BY created DESC
	`, map[string]any{
		"forum": forum,
		"kind":  string(kind),
		"model": model,
	})
	if err != nil {
		return nil, fmt.Errorf("select unevaluated: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []models.ContentItem{}, nil
	}
	return (*results)[0].Result, nil
}

// InsertEvaluation appends one evaluation record. A violation of the
// (content_id, forum, model) unique index comes back as
// ErrDuplicateEvaluation.
func (c *Client) InsertEvaluation(ctx context.Context, input models.EvaluationInput) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		CREATE evaluation CONTENT $data
	`, map[string]any{"data": input})
	if err != nil {
		return fmt.Errorf("insert evaluation: %w", wrapQueryError(err))
	}
	return nil
}

// InsertContent inserts one content row. Only the upstream crawlers
// (and tests) write content; the evaluation pipeline never does.
func (c *Client) InsertContent(ctx context.Context, input models.ContentInput) (*models.ContentItem, error) {
	results, err := surrealdb.Query[[]models.ContentItem](ctx, c.db, `
		CREATE content CONTENT $data
	`, map[string]any{"data": input})
	if err != nil {
		return nil, fmt.Errorf("insert content: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("insert content: %w", ErrNotFound)
	}
	return &(*results)[0].Result[0], nil
}

// CountEvaluations returns the number of evaluations stored for a forum
// and model.
func (c *Client) CountEvaluations(ctx context.Context, forum, model string) (int, error) {
	results, err := surrealdb.Query[[]int](ctx, c.db, `
		SELECT VALUE count() FROM evaluation
		WHERE forum = $forum AND model = $model
		GROUP ALL
	`, map[string]any{"forum": forum, "model": model})
	if err != nil {
		return 0, fmt.Errorf("count evaluations: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return 0, nil
	}
	return (*results)[0].Result[0], nil
}

// ListForums returns every forum present in the content table with its
// row count.
func (c *Client) ListForums(ctx context.Context) ([]ForumCount, error) {
	results, err := surrealdb.Query[[]ForumCount](ctx, c.db, `
		SELECT forum, count() AS count FROM content GROUP BY forum
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("list forums: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return []ForumCount{}, nil
	}
	return (*results)[0].Result, nil
}
