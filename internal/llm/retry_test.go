package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
)

func TestRetrierRetriesTransient(t *testing.T) {
	r := NewRetrier(3, time.Millisecond)

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("429 too many requests")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Do() error = %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestRetrierPermanentFailsImmediately(t *testing.T) {
	r := NewRetrier(3, time.Millisecond)

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("invalid api key")
	})

	if !errors.Is(err, ErrAuth) {
		t.Errorf("Do() error = %v, want match for ErrAuth", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1 (no retry on permanent)", calls)
	}
}

func TestRetrierExhaustionEscalates(t *testing.T) {
	r := NewRetrier(3, time.Millisecond)

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("connection reset by peer")
	})

	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
	if !errors.Is(err, ErrAttemptsExhausted) {
		t.Errorf("Do() error = %v, want match for ErrAttemptsExhausted", err)
	}
	if IsTransient(err) {
		t.Error("exhausted error must be permanent")
	}
}

func TestRetrierContextCancellation(t *testing.T) {
	r := NewRetrier(5, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := r.Do(ctx, func(ctx context.Context) error {
		calls++
		return errors.New("connection refused")
	})

	if err == nil {
		t.Fatal("Do() should fail after cancellation")
	}
	if calls >= 5 {
		t.Errorf("fn called %d times, cancellation should have stopped retries early", calls)
	}
}

func TestBackoffDelaysNonDecreasing(t *testing.T) {
	bo := newExponentialBackOff(100 * time.Millisecond)

	prev := time.Duration(0)
	for i := 0; i < 6; i++ {
		next := bo.NextBackOff()
		if next == backoff.Stop {
			t.Fatalf("backoff stopped at step %d", i)
		}
		if next < prev {
			t.Errorf("delay decreased at step %d: %v after %v", i, next, prev)
		}
		prev = next
	}
}
