package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error // sentinel the classified error must match, nil = unchanged
	}{
		{"nil error", nil, nil},
		{"rate limit", errors.New("429 too many requests"), ErrRateLimited},
		{"provider overloaded", errors.New("overloaded_error: try again"), ErrRateLimited},
		{"timeout text", errors.New("request timed out"), ErrTimeout},
		{"deadline exceeded", fmt.Errorf("generate: %w", context.DeadlineExceeded), ErrTimeout},
		{"connection refused", errors.New("dial tcp: connection refused"), ErrNetwork},
		{"bad gateway", errors.New("HTTP 502 bad gateway"), ErrNetwork},
		{"service unavailable", errors.New("503 service unavailable"), ErrNetwork},
		{"invalid api key", errors.New("invalid api key provided"), ErrAuth},
		{"unauthorized", errors.New("HTTP 401: unauthorized"), ErrAuth},
		{"forbidden", errors.New("HTTP 403: forbidden"), ErrAuth},
		{"credit balance", errors.New("insufficient credit balance"), ErrAuth},
		{"quota", errors.New("quota exceeded for model"), ErrAuth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if tt.want == nil {
				if got != tt.err {
					t.Errorf("Classify(%v) = %v, want unchanged", tt.err, got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("Classify(%v) = %v, want match for %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassifyUnknownPassesThrough(t *testing.T) {
	err := errors.New("something entirely novel")
	got := Classify(err)
	if got != err {
		t.Errorf("unknown error should pass through unchanged, got %v", got)
	}
	if IsTransient(got) {
		t.Error("unknown error must not be transient")
	}
}

func TestClassifyIdempotent(t *testing.T) {
	err := Classify(errors.New("rate limit exceeded"))
	again := Classify(err)
	if again != err {
		t.Errorf("already-classified error re-wrapped: %v", again)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{ErrRateLimited, true},
		{ErrTimeout, true},
		{ErrNetwork, true},
		{ErrAuth, false},
		{ErrInvalidResponse, false},
		{ErrAttemptsExhausted, false},
		{fmt.Errorf("wrapped: %w", ErrTimeout), true},
		{errors.New("plain"), false},
	}
	for _, tt := range tests {
		if got := IsTransient(tt.err); got != tt.want {
			t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
