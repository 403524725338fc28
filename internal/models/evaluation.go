package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Scores holds the seven quality dimensions, each 0-10 rounded to two
// decimal places.
type Scores struct {
	Quality          float64 `json:"quality"`
	Reasoning        float64 `json:"reasoning"`
	Persuasiveness   float64 `json:"persuasiveness"`
	Clarity          float64 `json:"clarity"`
	Constructiveness float64 `json:"constructiveness"`
	Engagement       float64 `json:"engagement"`
	Hostility        float64 `json:"hostility"`
}

// Evaluation is a persisted quality evaluation of one content item.
// Append-only: rows are never mutated after insertion, and the storage
// layer enforces at most one row per (content_id, forum, model).
type Evaluation struct {
	ID           surrealmodels.RecordID `json:"id"`
	ContentID    surrealmodels.RecordID `json:"content_id"`
	Forum        string                 `json:"forum"`
	Model        string                 `json:"model"`
	Scores       Scores                 `json:"scores"`
	Tags         []string               `json:"tags"`
	KeyPoints    []string               `json:"key_points"`
	Summary      string                 `json:"summary"`
	Improvements *string                `json:"improvements,omitempty"`
	Created      time.Time              `json:"created,omitempty"`
}

// EvaluationInput is the insert shape for an evaluation row. ContentID
// is the record ID of the evaluated content row; storing it as a record
// link keeps the anti-join a direct ID comparison with no string
// canonicalization on either side.
type EvaluationInput struct {
	ContentID    surrealmodels.RecordID `json:"content_id"`
	Forum        string                 `json:"forum"`
	Model        string                 `json:"model"`
	Scores       Scores                 `json:"scores"`
	Tags         []string               `json:"tags"`
	KeyPoints    []string               `json:"key_points"`
	Summary      string                 `json:"summary"`
	Improvements *string                `json:"improvements,omitempty"`
}
