package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultMaxAttempts bounds retries of a single invocation.
const DefaultMaxAttempts = 3

// DefaultBackoffBase is the first retry delay; subsequent delays double.
const DefaultBackoffBase = time.Second

// Retrier retries a single model invocation on transient failures with
// exponential backoff and jitter. It never retries permanent failures
// and never retries across batch boundaries: one Do call covers exactly
// one batch.
type Retrier struct {
	maxAttempts int
	base        time.Duration
}

// NewRetrier creates a retrier. Non-positive arguments fall back to the
// defaults.
func NewRetrier(maxAttempts int, base time.Duration) *Retrier {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if base <= 0 {
		base = DefaultBackoffBase
	}
	return &Retrier{maxAttempts: maxAttempts, base: base}
}

// newExponentialBackOff builds the delay schedule: base * 2^attempt
// with jitter, no elapsed-time cutoff.
func newExponentialBackOff(base time.Duration) *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = base
	bo.Multiplier = 2.0
	bo.RandomizationFactor = 0.2
	bo.MaxInterval = 5 * time.Minute
	bo.MaxElapsedTime = 0
	return bo
}

// Do invokes fn, retrying transient failures up to the configured
// attempt count. Exhausting every attempt escalates the last transient
// error to ErrAttemptsExhausted, which is permanent.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempt := 0
	op := func() error {
		attempt++
		err := Classify(fn(ctx))
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return backoff.Permanent(err)
		}
		slog.Warn("transient model failure",
			"attempt", attempt,
			"max_attempts", r.maxAttempts,
			"error", err)
		return err
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(newExponentialBackOff(r.base), uint64(r.maxAttempts-1)),
		ctx,
	)
	err := backoff.Retry(op, bo)
	if err != nil && IsTransient(err) {
		// %v, not %w: the transient chain must not survive escalation.
		return fmt.Errorf("%w after %d attempts: %v", ErrAttemptsExhausted, attempt, err)
	}
	return err
}
