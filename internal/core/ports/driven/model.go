package driven

import "context"

// ModelProvider abstracts an interchangeable language model backend.
// Provider identity and credentials come from configuration; the
// orchestrator composes providers into a retry-and-fallback chain.
//
// Implementations map transport failures onto the domain taxonomy:
//   - domain.ErrProviderRateLimited for 429-style rejections
//   - domain.ErrProviderUnavailable for network errors, timeouts and 5xx
type ModelProvider interface {
	// Name returns the provider identifier for logging.
	Name() string

	// Complete sends a prompt with optional tool definitions and
	// returns the model's reply, including any tool calls it issued.
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)

	// Close releases resources.
	Close() error
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ToolDefinition describes one tool the model may call.
type ToolDefinition struct {
	// Name is the tool identifier.
	Name string

	// Description tells the model what the tool does.
	Description string

	// Parameters is a JSON-schema-shaped parameter description.
	Parameters map[string]any
}

// ToolCall is one tool invocation the model requested.
type ToolCall struct {
	// Name is the tool identifier.
	Name string

	// Arguments are the decoded call arguments.
	Arguments map[string]any
}

// CompletionRequest is the provider-independent model call.
type CompletionRequest struct {
	// System is the system prompt, empty for none.
	System string

	// Messages is the conversation so far.
	Messages []ChatMessage

	// Tools are the tools the model may call, nil for plain completion.
	Tools []ToolDefinition

	// MaxTokens caps the generated tokens; zero for the provider default.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64
}

// Completion is the provider-independent model reply.
type Completion struct {
	// Text is the reply text, possibly empty when tool calls are issued.
	Text string

	// ToolCalls are the tool invocations the model requested, in order.
	ToolCalls []ToolCall

	// TokensUsed is the provider-reported total token count.
	TokensUsed int
}
