package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Sentinel errors classifying model-service failures. Transient errors
// are subject to the retry policy; permanent errors fail the batch
// immediately. Use errors.Is() to check.
var (
	// ErrRateLimited indicates the provider rejected the call due to
	// rate limiting. Transient.
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout indicates the call exceeded its deadline. Transient.
	ErrTimeout = errors.New("request timed out")

	// ErrNetwork indicates a transport-level failure (connection reset,
	// 5xx, unreachable host). Transient.
	ErrNetwork = errors.New("network failure")

	// ErrAuth indicates an authentication, authorization, or billing
	// failure. Permanent: retrying cannot help.
	ErrAuth = errors.New("authentication failed")

	// ErrInvalidResponse indicates the provider returned a response the
	// client cannot use. Permanent.
	ErrInvalidResponse = errors.New("invalid model response")

	// ErrAttemptsExhausted wraps a transient failure that survived every
	// retry attempt, escalating it to a permanent failure for the batch.
	ErrAttemptsExhausted = errors.New("retry attempts exhausted")
)

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrNetwork)
}

var rateLimitPatterns = []string{
	"rate limit",
	"too many requests",
	"429",
	"overloaded",
}

var timeoutPatterns = []string{
	"timeout",
	"timed out",
	"deadline exceeded",
}

var networkPatterns = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"broken pipe",
	"unexpected eof",
	"502",
	"503",
	"504",
	"bad gateway",
	"service unavailable",
	"internal server error",
}

var authPatterns = []string{
	"401",
	"403",
	"unauthorized",
	"forbidden",
	"invalid api key",
	"invalid x-api-key",
	"authentication",
	"credit balance",
	"billing",
	"quota",
	"permission denied",
}

// Classify wraps a provider error with the matching sentinel so callers
// can route it through the retry policy. Already-classified errors and
// errors matching no known pattern pass through unchanged; unknown
// failures are treated as permanent.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if IsTransient(err) || errors.Is(err, ErrAuth) || errors.Is(err, ErrInvalidResponse) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case matchAny(msg, authPatterns):
		return fmt.Errorf("%w: %v", ErrAuth, err)
	case matchAny(msg, rateLimitPatterns):
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	case matchAny(msg, timeoutPatterns):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case matchAny(msg, networkPatterns):
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return err
}

func matchAny(msg string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
