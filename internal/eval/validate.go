package eval

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"forumjudge/internal/models"
)

// Result is the validated, per-item output of one model invocation.
// Results pair 1:1 and in-order with the submitted batch.
type Result struct {
	Item         int
	Scores       models.Scores
	Tags         []string
	KeyPoints    []string
	Summary      string
	Improvements string
}

// ValidationError reports a response item that does not match the
// expected schema. Permanent: the batch is abandoned, not retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid evaluation item: %s", e.Reason)
	}
	return fmt.Sprintf("invalid evaluation item: field %q %s", e.Field, e.Reason)
}

// rawItem mirrors the response schema with pointer fields so missing
// keys are distinguishable from zero values.
type rawItem struct {
	Item             *int               `json:"item"`
	Quality          *float64           `json:"quality"`
	Reasoning        *float64           `json:"reasoning"`
	Persuasiveness   *float64           `json:"persuasiveness"`
	Clarity          *float64           `json:"clarity"`
	Constructiveness *float64           `json:"constructiveness"`
	Engagement       *float64           `json:"engagement"`
	Hostility        *float64           `json:"hostility"`
	Tags             models.FlexStrings `json:"tags"`
	KeyPoints        models.FlexStrings `json:"key_points"`
	Summary          *string            `json:"summary"`
	Improvements     *string            `json:"improvements"`
}

// validateItem normalizes one raw response item: required fields are
// checked, scalar tags/key_points become singleton lists (via
// FlexStrings), and scores are rounded to two decimals and clamped to
// [0, 10]. All shape decisions happen here, before any business logic
// sees the payload.
func validateItem(data json.RawMessage) (*Result, error) {
	var raw rawItem
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("not an object: %v", err)}
	}

	res := &Result{}
	scores := []struct {
		name string
		src  *float64
		dst  *float64
	}{
		{"quality", raw.Quality, &res.Scores.Quality},
		{"reasoning", raw.Reasoning, &res.Scores.Reasoning},
		{"persuasiveness", raw.Persuasiveness, &res.Scores.Persuasiveness},
		{"clarity", raw.Clarity, &res.Scores.Clarity},
		{"constructiveness", raw.Constructiveness, &res.Scores.Constructiveness},
		{"engagement", raw.Engagement, &res.Scores.Engagement},
		{"hostility", raw.Hostility, &res.Scores.Hostility},
	}
	for _, s := range scores {
		if s.src == nil {
			return nil, &ValidationError{Field: s.name, Reason: "missing"}
		}
		if math.IsNaN(*s.src) || math.IsInf(*s.src, 0) {
			return nil, &ValidationError{Field: s.name, Reason: "not a finite number"}
		}
		*s.dst = roundClamp(*s.src)
	}

	if raw.Summary == nil || strings.TrimSpace(*raw.Summary) == "" {
		return nil, &ValidationError{Field: "summary", Reason: "missing"}
	}
	res.Summary = strings.TrimSpace(*raw.Summary)
	if raw.Improvements != nil {
		res.Improvements = strings.TrimSpace(*raw.Improvements)
	}

	if raw.Item != nil {
		res.Item = *raw.Item
	}
	res.Tags = emptyIfNil(raw.Tags)
	res.KeyPoints = emptyIfNil(raw.KeyPoints)
	return res, nil
}

func emptyIfNil(v models.FlexStrings) []string {
	if v == nil {
		return []string{}
	}
	return v
}

// roundClamp rounds to two decimal places, then clamps to [0, 10].
// Out-of-range model scores are clamped rather than rejected so a
// single wild score does not cost the whole item.
func roundClamp(v float64) float64 {
	v = math.Round(v*100) / 100
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}
