package pipeline

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/diarist/internal/feedback"
)

// MaxRetries bounds collaborator calls per job.
const MaxRetries = 3

const maxBackoff = 30 * time.Second

// IsRetryable reports whether the collaborator asked us to come back later.
func IsRetryable(err error) bool {
	var retryErr *feedback.RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns an exponential wait for attempt n (0-indexed) plus up to
// 50% jitter, capped at maxBackoff before jitter.
func Backoff(attempt int) time.Duration {
	base := min(time.Duration(1<<uint(attempt))*time.Second, maxBackoff)
	return base + time.Duration(rand.Int64N(int64(base)/2))
}

// withRetry calls fn until it succeeds, fails with a non-retryable error or
// MaxRetries calls were made. It sleeps wait(attempt) between calls and
// returns ctx.Err() if cancelled while waiting.
func withRetry(ctx context.Context, wait func(int) time.Duration, fn func(attempt int) error) error {
	var err error
	for attempt := range MaxRetries {
		if err = fn(attempt); err == nil || !IsRetryable(err) {
			return err
		}
		if attempt == MaxRetries-1 {
			break
		}
		select {
		case <-time.After(wait(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
