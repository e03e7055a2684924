// Package retry executes fallible network operations with bounded,
// progressively delayed retries. Failures are classified as retryable
// (service unavailable, rate limited, timeouts) or fatal (bad credentials,
// malformed requests); fatal failures are never retried.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"syscall"
	"time"

	"blogbot/config"
)

// Policy configures one call site. It is immutable once constructed.
type Policy struct {
	// MaxAttempts is the total number of executions, first try included.
	MaxAttempts int

	// Delays is the progressive wait schedule: Delays[0] is the wait after
	// the first failed attempt, Delays[1] after the second, and so on.
	// Attempts beyond the schedule reuse the last entry.
	Delays []time.Duration

	// Classify reports whether a failure is eligible for another attempt.
	// Nil defaults to IsRetryable.
	Classify func(error) bool
}

// DefaultPolicy is the standard outbound-call policy: 3 attempts with
// 1, 5, 10 minute waits, per the configured schedule.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: config.MaxAPIAttempts,
		Delays:      config.RetryDelays,
	}
}

// PublishPolicy is the policy for blog-platform calls.
func PublishPolicy() Policy {
	return DefaultPolicy()
}

// GenerationPolicy is the shorter backoff used for model calls.
func GenerationPolicy() Policy {
	return Policy{
		MaxAttempts: config.MaxAPIAttempts,
		Delays:      config.GenerationRetryDelays,
	}
}

// HTTPError is the structured failure an operation returns so the classifier
// can interpret it: status code plus an optional server-provided Retry-After
// hint for rate limiting.
type HTTPError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// ExhaustedError reports that a retryable failure persisted past the attempt
// budget. It wraps the last observed failure.
type ExhaustedError struct {
	Attempts int
	Last     error
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all %d attempts exhausted: %v", e.Attempts, e.Last)
}

// Unwrap exposes the last failure for errors.Is/As.
func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// sleep waits for d or until ctx is done. Overridable in tests.
var sleep = func(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do executes op under the policy. It returns op's result on the first
// success, propagates a fatal failure unchanged after a single attempt, and
// returns *ExhaustedError when a retryable failure outlives the budget.
// op is invoked at most MaxAttempts times; waits are cancellable via ctx.
func Do[T any](ctx context.Context, policy Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	classify := policy.Classify
	if classify == nil {
		classify = IsRetryable
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			if attempt > 1 {
				log.Printf("retry: succeeded on attempt %d/%d", attempt, policy.MaxAttempts)
			}
			return result, nil
		}
		lastErr = err

		if !classify(err) {
			log.Printf("retry: fatal failure on attempt %d, not retrying: %v", attempt, err)
			return zero, err
		}

		if attempt == policy.MaxAttempts {
			break
		}

		wait := delayFor(policy.Delays, attempt)
		if hint := retryAfterHint(err); hint > 0 {
			// A server rate-limit hint overrides the schedule for this wait.
			wait = hint
		}
		log.Printf("retry: attempt %d/%d failed (%v), waiting %s before next attempt",
			attempt, policy.MaxAttempts, err, wait)
		if sleepErr := sleep(ctx, wait); sleepErr != nil {
			return zero, fmt.Errorf("retry aborted: %w", sleepErr)
		}
	}

	return zero, &ExhaustedError{Attempts: policy.MaxAttempts, Last: lastErr}
}

// delayFor indexes the schedule by attempt, clamping to the last entry so
// delays never decrease.
func delayFor(delays []time.Duration, attempt int) time.Duration {
	if len(delays) == 0 {
		return 0
	}
	if attempt > len(delays) {
		return delays[len(delays)-1]
	}
	return delays[attempt-1]
}

// retryAfterHint extracts a rate-limit wait hint when the failure is a 429.
func retryAfterHint(err error) time.Duration {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests {
		return httpErr.RetryAfter
	}
	return 0
}

// IsRetryable is the default classifier. Authentication and validation
// failures are fatal; transient server and network failures are retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode >= 500 && httpErr.StatusCode < 600:
			return true
		case httpErr.StatusCode == http.StatusTooManyRequests:
			return true
		case httpErr.StatusCode == http.StatusRequestTimeout:
			return true
		}
		return false
	}

	return false
}
