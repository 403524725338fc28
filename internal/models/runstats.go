package models

import (
	"fmt"
	"time"
)

// RunError is one recorded non-fatal error from an evaluation run.
type RunError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// KindStats counts outcomes for one content kind within a run.
type KindStats struct {
	Found     int `json:"found"`
	Processed int `json:"processed"`
	Persisted int `json:"persisted"`
	Skipped   int `json:"skipped"`
}

// RunStats accumulates the outcome of one per-forum evaluation run.
// It lives only for the duration of the run and is reported at the end.
type RunStats struct {
	RunID    string
	Forum    string
	Kinds    map[ContentKind]*KindStats
	Errors   []RunError
	Fatal    bool
	Started  time.Time
	Finished time.Time
}

// NewRunStats creates empty stats for one forum run.
func NewRunStats(runID, forum string) *RunStats {
	return &RunStats{
		RunID:   runID,
		Forum:   forum,
		Kinds:   make(map[ContentKind]*KindStats),
		Started: time.Now(),
	}
}

// Kind returns the stats bucket for a content kind, creating it if needed.
func (s *RunStats) Kind(k ContentKind) *KindStats {
	ks, ok := s.Kinds[k]
	if !ok {
		ks = &KindStats{}
		s.Kinds[k] = ks
	}
	return ks
}

// AddError records a non-fatal error entry, preserving insertion order.
func (s *RunStats) AddError(errType, format string, args ...any) {
	s.Errors = append(s.Errors, RunError{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	})
}

// HasErrors reports whether any error entries were recorded.
func (s *RunStats) HasErrors() bool {
	return len(s.Errors) > 0 || s.Fatal
}

// TotalFound sums found counts across all kinds.
func (s *RunStats) TotalFound() int {
	total := 0
	for _, ks := range s.Kinds {
		total += ks.Found
	}
	return total
}

// TotalProcessed sums processed counts across all kinds.
func (s *RunStats) TotalProcessed() int {
	total := 0
	for _, ks := range s.Kinds {
		total += ks.Processed
	}
	return total
}
