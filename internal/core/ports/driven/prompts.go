package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fall back to hardcoded defaults.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptPlanner is the system prompt for the planning step.
	// Expects %s placeholders for the topic and the output language.
	PromptPlanner = "planner"

	// PromptSynthesis guides the final answer's structure.
	// The template expects a %s placeholder for the output language.
	PromptSynthesis = "synthesis"
)

// PromptStoreAware is an optional interface for services that can use
// custom prompts injected after construction.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable
	// prompts. If not set, the service uses hardcoded defaults.
	SetPromptStore(store PromptStore)
}
