package embed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// MaxRetries is the default number of attempts made by Retrying.
const MaxRetries = 3

// RetryableError marks a provider failure worth retrying.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable embedding error: %v", e.Err)
}

func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// Retrying retries an inner embedder on RetryableError.
type Retrying struct {
	Inner       Embedder
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Log         *slog.Logger
}

var _ Embedder = (*Retrying)(nil)

// WithRetry wraps e so retryable failures are attempted up to maxAttempts
// times with jittered exponential backoff.
func WithRetry(e Embedder, maxAttempts int, log *slog.Logger) *Retrying {
	if maxAttempts <= 0 {
		maxAttempts = MaxRetries
	}
	return &Retrying{Inner: e, MaxAttempts: maxAttempts, Backoff: Backoff, Log: log}
}

func (r *Retrying) Embed(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for attempt := range r.MaxAttempts {
		if attempt > 0 {
			delay := r.Backoff(attempt - 1)
			if r.Log != nil {
				r.Log.Warn("retrying embedding", "attempt", attempt+1, "delay", delay, "error", lastErr)
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		vec, err := r.Inner.Embed(ctx, text)
		if err == nil {
			return vec, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("embedding failed after %d attempts: %w", r.MaxAttempts, lastErr)
}
