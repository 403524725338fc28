package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
)

// Sentinel errors for database operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrDuplicateEvaluation indicates an evaluation for the same
	// (content_id, forum, model) already exists. Most commonly a
	// concurrently completed run got there first; callers treat it as
	// "already evaluated", not a failure.
	ErrDuplicateEvaluation = errors.New("evaluation already exists")

	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("row not found")
)

// wrapQueryError inspects a SurrealDB error and wraps it with the
// matching sentinel when it is a known query error type. Returns the
// original error otherwise.
func wrapQueryError(err error) error {
	if err == nil {
		return nil
	}

	var queryErr *surrealdb.QueryError
	if errors.As(err, &queryErr) {
		msg := queryErr.Message
		// Unique index violations surface as "index ... already contains".
		if strings.Contains(msg, "already contains") || strings.Contains(msg, "already exists") {
			return fmt.Errorf("%w: %s", ErrDuplicateEvaluation, msg)
		}
	}

	return err
}
