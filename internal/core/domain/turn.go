package domain

import "fmt"

// ActionType enumerates the closed set of actions the model may propose
// during planning. Dispatch is over this tagged variant, not reflection.
type ActionType string

// Available action types.
const (
	// ActionSearch runs a web search for a query.
	ActionSearch ActionType = "search"

	// ActionFetch fetches a single URL.
	ActionFetch ActionType = "fetch"

	// ActionRetrieve queries the session's vector store.
	ActionRetrieve ActionType = "retrieve"

	// ActionAnswer terminates the loop with the synthesized answer.
	ActionAnswer ActionType = "answer"
)

// IsValid returns true if the action type is recognised.
func (t ActionType) IsValid() bool {
	switch t {
	case ActionSearch, ActionFetch, ActionRetrieve, ActionAnswer:
		return true
	default:
		return false
	}
}

// Action is one planned step. Exactly one payload field is meaningful,
// selected by Type.
type Action struct {
	// Type selects the variant.
	Type ActionType

	// Query is the search or retrieval query (search, retrieve).
	Query string

	// URL is the address to fetch (fetch).
	URL string

	// Answer is the synthesized answer text (answer).
	Answer string
}

// Validate checks that the action carries the payload its type requires.
func (a Action) Validate() error {
	switch a.Type {
	case ActionSearch, ActionRetrieve:
		if a.Query == "" {
			return fmt.Errorf("%w: %s action requires a query", ErrInvalidInput, a.Type)
		}
	case ActionFetch:
		if a.URL == "" {
			return fmt.Errorf("%w: fetch action requires a url", ErrInvalidInput)
		}
	case ActionAnswer:
		if a.Answer == "" {
			return fmt.Errorf("%w: answer action requires text", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: action type %q", ErrUnsupportedType, a.Type)
	}
	return nil
}

// SynthesisTurn is one completed step of the orchestration loop.
// Turns are append-only and form the audit trail of a session.
type SynthesisTurn struct {
	// SessionID links to the owning session.
	SessionID string

	// Index is the ordinal position within the session, starting at 0.
	Index int

	// Action is the step the model proposed for this turn.
	Action Action

	// ToolResult is a compact textual summary of what the action
	// produced, fed back to the model on the next planning step.
	ToolResult string

	// ModelResponse is the raw text portion of the model's reply.
	ModelResponse string

	// TokensUsed is the provider-reported token count for the turn.
	TokensUsed int

	// Retries is how many provider retries this turn needed.
	Retries int
}
