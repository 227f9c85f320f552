package services

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/logger"
)

// RetryPolicy retries an operation with exponential backoff.
// Only errors the domain taxonomy marks as transient are retried;
// anything else surfaces immediately.
type RetryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration

	// sleep is replaceable in tests so backoff does not slow the suite.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryPolicy creates a retry policy from settings.
func NewRetryPolicy(cfg domain.RetrySettings) *RetryPolicy {
	return &RetryPolicy{
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   time.Duration(cfg.BaseDelayMillis) * time.Millisecond,
		maxDelay:    time.Duration(cfg.MaxDelayMillis) * time.Millisecond,
		sleep:       sleepContext,
	}
}

// MaxAttempts returns the attempt ceiling.
func (p *RetryPolicy) MaxAttempts() int {
	return p.maxAttempts
}

// Retryable reports whether an error is worth retrying.
func Retryable(err error) bool {
	return errors.Is(err, domain.ErrProviderRateLimited) ||
		errors.Is(err, domain.ErrProviderUnavailable) ||
		errors.Is(err, domain.ErrEmbeddingProvider)
}

// Do runs fn up to MaxAttempts times, backing off between attempts.
// Returns the number of retries performed (attempts minus one) along
// with the final error, nil on success.
func (p *RetryPolicy) Do(ctx context.Context, op string, fn func() error) (int, error) {
	var err error
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := p.Delay(attempt)
			logger.Debug("%s: retry %d/%d after %s: %v", op, attempt, p.maxAttempts-1, delay, err)
			if sleepErr := p.sleep(ctx, delay); sleepErr != nil {
				return attempt, sleepErr
			}
		}

		err = fn()
		if err == nil {
			return attempt, nil
		}
		if !Retryable(err) {
			return attempt, err
		}
	}
	return p.maxAttempts - 1, err
}

// Delay returns the backoff delay before the given attempt (1-based for
// the first retry). Exponential with jitter, capped at the maximum.
func (p *RetryPolicy) Delay(attempt int) time.Duration {
	delay := p.baseDelay << (attempt - 1)
	if delay > p.maxDelay || delay <= 0 {
		delay = p.maxDelay
	}
	// Up to 25% jitter so concurrent retries do not synchronise.
	jitter := time.Duration(rand.Int63n(int64(delay)/4 + 1)) //nolint:gosec // not cryptographic
	return delay + jitter
}

// sleepContext sleeps for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
