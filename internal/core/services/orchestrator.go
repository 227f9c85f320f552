package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/inquest-cli/internal/logger"
)

// Ensure Orchestrator can receive custom prompts.
var _ driven.PromptStoreAware = (*Orchestrator)(nil)

// charsPerToken is the rough character-to-token ratio used for budget
// accounting when the provider has not reported usage yet.
const charsPerToken = 4

// Built-in prompts used when no prompt store is configured.
const (
	fallbackPlannerPrompt = `You are a research planner investigating: %s

Each turn, call exactly one tool. Search to discover sources, fetch to
read a specific page, retrieve to recall indexed passages, and answer
once the evidence supports a complete report. Ground every claim in
retrieved passages; retrieve before you answer. Write the final answer
in %s.`

	fallbackSynthesisPrompt = `Structure the final answer as Markdown sections in this order:
## Summary, ## Terminology, ## Main Points, ## Insights.
Mark claims with their source using [S1]-style markers, numbered by
fetch order. Cite only sources gathered during this session. Write in %s.`
)

// Orchestrator drives the synthesis loop: the model plans one action
// per turn through tool calls, the orchestrator executes it and feeds
// the result back, until the model answers or a budget runs out.
//
// The loop is strictly sequential. Turn N's tool result shapes turn
// N+1's plan, so there is nothing to parallelise here.
type Orchestrator struct {
	chain     *FallbackChain
	gather    *GatherService
	retriever *RetrieverService
	sessions  driven.SessionStore
	sources   driven.SourceStore
	prompts   driven.PromptStore
	settings  domain.SynthesisSettings
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(
	chain *FallbackChain,
	gather *GatherService,
	retriever *RetrieverService,
	sessions driven.SessionStore,
	sources driven.SourceStore,
	settings domain.SynthesisSettings,
) *Orchestrator {
	return &Orchestrator{
		chain:     chain,
		gather:    gather,
		retriever: retriever,
		sessions:  sessions,
		sources:   sources,
		settings:  settings,
	}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (o *Orchestrator) SetPromptStore(store driven.PromptStore) {
	o.prompts = store
}

// Run executes the synthesis loop for a session and returns the final
// answer text. Returns domain.ErrSessionFailed when the turn or token
// budget is exhausted without an answer, and domain.ErrProvidersExhausted
// when no provider can complete a call.
func (o *Orchestrator) Run(ctx context.Context, session *domain.Session) (string, error) {
	system := o.systemPrompt(session.Topic)
	tools := toolDefinitions()

	var (
		turns       []domain.SynthesisTurn
		tokensSpent int
	)

	for turn := 0; turn < o.settings.MaxTurns; turn++ {
		logger.Section(fmt.Sprintf("Synthesis turn %d/%d", turn+1, o.settings.MaxTurns))

		req := driven.CompletionRequest{
			System:   system,
			Messages: o.assembleContext(session.Topic, turns),
			Tools:    tools,
		}

		completion, chainResult, err := o.chain.Complete(ctx, req)
		if err != nil {
			return "", err
		}
		tokensSpent += completion.TokensUsed
		logger.Debug("Turn %d: provider %s, %d tokens (%d/%d spent), %d retries",
			turn, chainResult.Provider, completion.TokensUsed,
			tokensSpent, o.settings.TokenBudget, chainResult.Retries)

		action := actionFromCompletion(completion)
		toolResult, answered := o.execute(ctx, session.ID, action)

		record := domain.SynthesisTurn{
			SessionID:     session.ID,
			Index:         turn,
			Action:        action,
			ToolResult:    toolResult,
			ModelResponse: completion.Text,
			TokensUsed:    completion.TokensUsed,
			Retries:       chainResult.Retries,
		}
		if err := o.sessions.AppendTurn(ctx, &record); err != nil {
			return "", fmt.Errorf("recording turn %d: %w", turn, err)
		}
		turns = append(turns, record)

		if answered {
			return action.Answer, nil
		}
		if tokensSpent >= o.settings.TokenBudget {
			return "", fmt.Errorf("%w: token budget exhausted after %d turns (%d tokens)",
				domain.ErrSessionFailed, turn+1, tokensSpent)
		}
	}

	return "", fmt.Errorf("%w: no answer within %d turns",
		domain.ErrSessionFailed, o.settings.MaxTurns)
}

// execute dispatches one action and returns the tool result to feed
// back to the model. Tool failures become feedback, not loop failures:
// the model can route around a dead source.
func (o *Orchestrator) execute(ctx context.Context, sessionID string, action domain.Action) (result string, answered bool) {
	if err := action.Validate(); err != nil {
		return fmt.Sprintf("invalid action: %v", err), false
	}

	switch action.Type {
	case domain.ActionAnswer:
		return "", true

	case domain.ActionSearch:
		summary, err := o.gather.Search(ctx, sessionID, action.Query)
		if err != nil {
			logger.Warn("search failed: %v", err)
			return fmt.Sprintf("search failed: %v", err), false
		}
		return summary, false

	case domain.ActionFetch:
		summary, err := o.gather.Fetch(ctx, sessionID, action.URL)
		if err != nil {
			logger.Warn("fetch failed: %v", err)
			return fmt.Sprintf("fetch failed: %v", err), false
		}
		return summary, false

	case domain.ActionRetrieve:
		passages, err := o.retriever.Retrieve(ctx, sessionID, action.Query, domain.RetrieveOptions{
			K:             o.settings.RetrievalK,
			DedupBySource: true,
			MaxPerSource:  o.settings.MaxPerSource,
		})
		if err != nil {
			logger.Warn("retrieve failed: %v", err)
			return fmt.Sprintf("retrieve failed: %v", err), false
		}
		return o.formatPassages(ctx, sessionID, passages), false

	default:
		return fmt.Sprintf("unknown action %q", action.Type), false
	}
}

// formatPassages renders retrieved passages with their [S#] source
// markers so the model can cite them in the answer.
func (o *Orchestrator) formatPassages(ctx context.Context, sessionID string, passages []domain.RetrievedPassage) string {
	if len(passages) == 0 {
		return "no relevant passages found; search or fetch more sources"
	}

	ordinals := make(map[string]int)
	if sources, err := o.sources.ListSources(ctx, sessionID); err == nil {
		for i, source := range sources {
			ordinals[source.ID] = i + 1
		}
	}

	var sb strings.Builder
	for _, p := range passages {
		marker := "S?"
		if ordinal, ok := ordinals[p.SourceID]; ok {
			marker = fmt.Sprintf("S%d", ordinal)
		}
		fmt.Fprintf(&sb, "[%s] (score %.2f) %s\n\n", marker, p.Score, p.Passage.Text)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// assembleContext builds the conversation for the next planning step:
// the topic, then past turns as assistant/user exchanges. When the
// rendered history exceeds the context budget the oldest exchanges are
// dropped first; recent turns matter most to the next plan.
func (o *Orchestrator) assembleContext(topic string, turns []domain.SynthesisTurn) []driven.ChatMessage {
	budget := o.settings.ContextTokens * charsPerToken

	opening := driven.ChatMessage{
		Role:    "user",
		Content: "Research topic: " + topic,
	}
	budget -= len(opening.Content)

	// Walk history newest-first, keeping exchanges that fit.
	var kept []driven.ChatMessage
	for i := len(turns) - 1; i >= 0; i-- {
		turn := turns[i]
		exchange := []driven.ChatMessage{
			{Role: "assistant", Content: describeAction(turn)},
			{Role: "user", Content: "Tool result: " + turn.ToolResult},
		}
		size := len(exchange[0].Content) + len(exchange[1].Content)
		if size > budget && len(kept) > 0 {
			break
		}
		budget -= size
		kept = append(exchange, kept...)
	}

	return append([]driven.ChatMessage{opening}, kept...)
}

// describeAction renders a past action for the conversation history.
func describeAction(turn domain.SynthesisTurn) string {
	switch turn.Action.Type {
	case domain.ActionSearch:
		return fmt.Sprintf("search(%q)", turn.Action.Query)
	case domain.ActionFetch:
		return fmt.Sprintf("fetch(%q)", turn.Action.URL)
	case domain.ActionRetrieve:
		return fmt.Sprintf("retrieve(%q)", turn.Action.Query)
	case domain.ActionAnswer:
		return "answer"
	default:
		if turn.ModelResponse != "" {
			return turn.ModelResponse
		}
		return "(no action)"
	}
}

// actionFromCompletion maps the model reply onto an action. The first
// tool call wins; a plain text reply without tool calls is treated as
// the final answer, since some models skip the tool syntax at the end.
func actionFromCompletion(completion *driven.Completion) domain.Action {
	if len(completion.ToolCalls) == 0 {
		return domain.Action{Type: domain.ActionAnswer, Answer: completion.Text}
	}

	call := completion.ToolCalls[0]
	action := domain.Action{Type: domain.ActionType(call.Name)}
	switch action.Type {
	case domain.ActionSearch, domain.ActionRetrieve:
		action.Query = stringArg(call.Arguments, "query")
	case domain.ActionFetch:
		action.URL = stringArg(call.Arguments, "url")
	case domain.ActionAnswer:
		action.Answer = stringArg(call.Arguments, "answer")
		if action.Answer == "" {
			action.Answer = completion.Text
		}
	}
	return action
}

func stringArg(args map[string]any, key string) string {
	if value, ok := args[key].(string); ok {
		return value
	}
	return ""
}

// systemPrompt composes the planner and synthesis prompts, preferring
// the prompt store and falling back to the built-in templates.
func (o *Orchestrator) systemPrompt(topic string) string {
	planner := fallbackPlannerPrompt
	synthesis := fallbackSynthesisPrompt

	if o.prompts != nil {
		if tpl, err := o.prompts.Load(driven.PromptPlanner); err == nil {
			planner = tpl
		} else {
			logger.Debug("planner prompt unavailable, using built-in: %v", err)
		}
		if tpl, err := o.prompts.Load(driven.PromptSynthesis); err == nil {
			synthesis = tpl
		} else {
			logger.Debug("synthesis prompt unavailable, using built-in: %v", err)
		}
	}

	return fmt.Sprintf(planner, topic, o.settings.Language) +
		"\n\n" +
		fmt.Sprintf(synthesis, o.settings.Language)
}

// toolDefinitions declares the closed action set offered to the model.
func toolDefinitions() []driven.ToolDefinition {
	return []driven.ToolDefinition{
		{
			Name:        "search",
			Description: "Search the web and index the results into the session.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "The search query.",
					},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        "fetch",
			Description: "Fetch one URL (web page, PDF or YouTube video) and index its content.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"url": map[string]any{
						"type":        "string",
						"description": "The URL to fetch.",
					},
				},
				"required": []string{"url"},
			},
		},
		{
			Name:        "retrieve",
			Description: "Retrieve the most relevant indexed passages for a query.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "What to look for in the indexed material.",
					},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        "answer",
			Description: "Finish with the complete, cited research answer in Markdown.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"answer": map[string]any{
						"type":        "string",
						"description": "The final Markdown answer with [S1]-style source markers.",
					},
				},
				"required": []string{"answer"},
			},
		},
	}
}
