package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/inquest-cli/internal/logger"
)

// FallbackChain composes model providers into a retry-and-fallback
// sequence: each provider gets the full retry budget, and only when a
// provider exhausts it does the same request move to the next one.
// This is the principal resilience mechanism of the pipeline.
type FallbackChain struct {
	providers []driven.ModelProvider
	retry     *RetryPolicy
}

// ChainResult records how a completion was obtained.
type ChainResult struct {
	// Provider is the name of the provider that answered.
	Provider string

	// Retries is the total number of retries across the chain.
	Retries int
}

// NewFallbackChain creates a chain over the given providers, primary first.
func NewFallbackChain(retry *RetryPolicy, providers ...driven.ModelProvider) (*FallbackChain, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("%w: no model providers configured", domain.ErrInvalidInput)
	}
	return &FallbackChain{
		providers: providers,
		retry:     retry,
	}, nil
}

// Complete sends the request through the chain. Returns
// domain.ErrProvidersExhausted once every provider has exhausted its
// retry budget; non-transient errors surface immediately.
func (c *FallbackChain) Complete(
	ctx context.Context, req driven.CompletionRequest,
) (*driven.Completion, ChainResult, error) {
	result := ChainResult{}
	var lastErr error

	for _, provider := range c.providers {
		var completion *driven.Completion
		retries, err := c.retry.Do(ctx, "model call ("+provider.Name()+")", func() error {
			var callErr error
			completion, callErr = provider.Complete(ctx, req)
			return callErr
		})
		result.Retries += retries

		if err == nil {
			result.Provider = provider.Name()
			return completion, result, nil
		}
		if ctx.Err() != nil {
			return nil, result, err
		}
		if !Retryable(err) {
			return nil, result, err
		}

		logger.Warn("provider %s exhausted retries: %v", provider.Name(), err)
		lastErr = err
	}

	return nil, result, fmt.Errorf("%w: %v", domain.ErrProvidersExhausted, lastErr)
}

// Close closes every provider in the chain.
func (c *FallbackChain) Close() error {
	var firstErr error
	for _, provider := range c.providers {
		if err := provider.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
