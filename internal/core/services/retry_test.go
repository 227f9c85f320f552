package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
)

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(domain.ErrProviderRateLimited))
	assert.True(t, Retryable(domain.ErrProviderUnavailable))
	assert.True(t, Retryable(domain.ErrEmbeddingProvider))
	assert.True(t, Retryable(fmt.Errorf("wrapped: %w", domain.ErrProviderRateLimited)))

	assert.False(t, Retryable(domain.ErrInvalidInput))
	assert.False(t, Retryable(domain.ErrNotFound))
	assert.False(t, Retryable(errors.New("plain")))
}

func TestRetryPolicy_SucceedsFirstAttempt(t *testing.T) {
	policy := testRetryPolicy(3)

	calls := 0
	retries, err := policy.Do(context.Background(), "op", func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 0, retries)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_RetriesTransientErrors(t *testing.T) {
	policy := testRetryPolicy(3)

	calls := 0
	retries, err := policy.Do(context.Background(), "op", func() error {
		calls++
		if calls < 3 {
			return domain.ErrProviderRateLimited
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, retries)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicy_ExhaustsAttempts(t *testing.T) {
	policy := testRetryPolicy(3)

	calls := 0
	retries, err := policy.Do(context.Background(), "op", func() error {
		calls++
		return domain.ErrProviderUnavailable
	})

	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Equal(t, 2, retries)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicy_NonRetryableSurfacesImmediately(t *testing.T) {
	policy := testRetryPolicy(3)

	calls := 0
	retries, err := policy.Do(context.Background(), "op", func() error {
		calls++
		return domain.ErrInvalidInput
	})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 0, retries)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_CancelledDuringBackoff(t *testing.T) {
	policy := testRetryPolicy(3)
	policy.sleep = func(ctx context.Context, _ time.Duration) error {
		return context.Canceled
	}

	calls := 0
	_, err := policy.Do(context.Background(), "op", func() error {
		calls++
		return domain.ErrProviderRateLimited
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_DelayGrowsAndCaps(t *testing.T) {
	policy := NewRetryPolicy(domain.RetrySettings{
		MaxAttempts:     5,
		BaseDelayMillis: 100,
		MaxDelayMillis:  300,
	})

	first := policy.Delay(1)
	assert.GreaterOrEqual(t, first, 100*time.Millisecond)
	assert.Less(t, first, 200*time.Millisecond)

	// 100ms << 3 = 800ms, capped at 300ms plus jitter.
	capped := policy.Delay(4)
	assert.GreaterOrEqual(t, capped, 300*time.Millisecond)
	assert.LessOrEqual(t, capped, 375*time.Millisecond)
}
