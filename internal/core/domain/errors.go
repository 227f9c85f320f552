package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown adapter or normaliser type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Source errors.

	// ErrSourceUnavailable indicates a source could not be reached.
	// Network failures and per-call timeouts map to this error.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrSourceEmpty indicates a source returned no results.
	ErrSourceEmpty = errors.New("source returned no results")

	// ErrSourceFormat indicates a source payload could not be parsed.
	ErrSourceFormat = errors.New("source payload unparseable")

	// ErrNormalization indicates a payload yielded no text after cleaning.
	// Callers treat this as a non-fatal skip of the source.
	ErrNormalization = errors.New("normalisation produced empty text")

	// Provider errors.

	// ErrEmbeddingProvider indicates the embedding provider failed.
	// Retried with backoff; the span is dropped after the attempt ceiling.
	ErrEmbeddingProvider = errors.New("embedding provider failed")

	// ErrProviderRateLimited indicates the model provider rejected the call
	// due to rate limiting. Eligible for retry with backoff.
	ErrProviderRateLimited = errors.New("model provider rate limited")

	// ErrProviderUnavailable indicates the model provider could not be
	// reached or returned a server error. Eligible for retry and fallback.
	ErrProviderUnavailable = errors.New("model provider unavailable")

	// ErrProvidersExhausted indicates every configured model provider
	// exhausted its retry budget. The session transitions to failed.
	ErrProvidersExhausted = errors.New("all model providers exhausted")

	// Sink errors.

	// ErrRender indicates the rendering sink failed to produce a document.
	ErrRender = errors.New("render failed")

	// ErrDelivery indicates the delivery sink failed. Delivery failures are
	// reported but never roll back a completed session.
	ErrDelivery = errors.New("delivery failed")

	// Session errors.

	// ErrSessionFailed indicates the session terminated without an answer.
	ErrSessionFailed = errors.New("session failed")

	// ErrInvalidTransition indicates an attempt to move a session status
	// backwards. Status only advances, except into StatusFailed.
	ErrInvalidTransition = errors.New("invalid session status transition")
)
