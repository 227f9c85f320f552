package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle state of a research session.
type SessionStatus string

// Session lifecycle states, in order of progression.
const (
	// StatusGathering means source adapters are fetching material.
	StatusGathering SessionStatus = "gathering"

	// StatusRetrieving means the knowledge store is being queried.
	StatusRetrieving SessionStatus = "retrieving"

	// StatusSynthesizing means the orchestration loop is running.
	StatusSynthesizing SessionStatus = "synthesizing"

	// StatusDone is the terminal success state.
	StatusDone SessionStatus = "done"

	// StatusFailed is the terminal failure state, reachable from any state.
	StatusFailed SessionStatus = "failed"
)

// statusOrder maps each non-failed status to its position in the
// forward-only progression.
var statusOrder = map[SessionStatus]int{
	StatusGathering:    0,
	StatusRetrieving:   1,
	StatusSynthesizing: 2,
	StatusDone:         3,
}

// IsValid returns true if the status is recognised.
func (s SessionStatus) IsValid() bool {
	if s == StatusFailed {
		return true
	}
	_, ok := statusOrder[s]
	return ok
}

// Terminal returns true for done and failed.
func (s SessionStatus) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// CanAdvance reports whether a transition from s to next is legal.
// Status only moves forward through the listed states; failed is
// reachable from any non-terminal state.
func (s SessionStatus) CanAdvance(next SessionStatus) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusFailed {
		return true
	}
	from, ok := statusOrder[s]
	if !ok {
		return false
	}
	to, ok := statusOrder[next]
	if !ok {
		return false
	}
	return to > from
}

// Session is one end-to-end research request and its accumulated state.
// It groups Sources, Documents and Passages so that concurrent research
// runs do not cross-contaminate retrieval.
type Session struct {
	// ID is the unique identifier for the session.
	ID string

	// Topic is the research topic supplied on the command line.
	Topic string

	// Status is the current lifecycle state.
	Status SessionStatus

	// CreatedAt is when the session was created.
	CreatedAt time.Time

	// UpdatedAt is when the session last changed state.
	UpdatedAt time.Time
}

// NewSession creates a session for the given topic in the gathering state.
// An empty topic is a fatal misconfiguration.
func NewSession(topic string) (*Session, error) {
	if topic == "" {
		return nil, fmt.Errorf("%w: empty topic", ErrInvalidInput)
	}
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.New().String(),
		Topic:     topic,
		Status:    StatusGathering,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Advance moves the session to the next status, enforcing the
// forward-only progression. Returns ErrInvalidTransition for any
// regression or transition out of a terminal state.
func (s *Session) Advance(next SessionStatus) error {
	if !s.Status.CanAdvance(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Status, next)
	}
	s.Status = next
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Fail moves the session to the failed state from any non-terminal state.
func (s *Session) Fail() error {
	return s.Advance(StatusFailed)
}
