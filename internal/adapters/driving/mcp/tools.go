package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driving"
)

// ResearchInput is the input schema for the research tool.
type ResearchInput struct {
	Topic      string `json:"topic" jsonschema:"the topic to research"`
	MaxSources int    `json:"max_sources,omitempty" jsonschema:"maximum number of sources to gather (default from configuration)"`
}

// ResearchOutput is the output schema for the research tool.
type ResearchOutput struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Report    string `json:"report,omitempty"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	SessionID string `json:"session_id" jsonschema:"the research session to query"`
	Query     string `json:"query" jsonschema:"what to look for in the session's indexed material"`
	K         int    `json:"k,omitempty" jsonschema:"maximum number of passages to return (default 8)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Passages []PassageOutput `json:"passages"`
	Count    int             `json:"count"`
}

// PassageOutput represents a single retrieved passage.
type PassageOutput struct {
	PassageID string  `json:"passage_id"`
	SourceID  string  `json:"source_id"`
	Text      string  `json:"text"`
	Score     float64 `json:"score"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "research",
		Description: "Run a full research session on a topic and return the cited report",
	}, s.handleResearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Retrieve the most relevant passages from a past research session",
	}, s.handleRetrieve)
}

// handleResearch handles the research tool invocation.
func (s *Server) handleResearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ResearchInput,
) (*mcp.CallToolResult, ResearchOutput, error) {
	outcome, err := s.ports.Research.Research(ctx, input.Topic, driving.ResearchOptions{
		MaxSources: input.MaxSources,
	})
	if err != nil {
		return nil, ResearchOutput{}, err
	}

	output := ResearchOutput{
		SessionID: outcome.Session.ID,
		Status:    string(outcome.Session.Status),
	}
	if outcome.Report != nil {
		output.Report = outcome.Report.Markdown()
	}
	return nil, output, nil
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	results, err := s.ports.Retrieve.Retrieve(ctx, input.SessionID, input.Query, domain.RetrieveOptions{
		K:             input.K,
		DedupBySource: true,
	})
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Passages: make([]PassageOutput, len(results)),
		Count:    len(results),
	}
	for i := range results {
		output.Passages[i] = PassageOutput{
			PassageID: results[i].Passage.ID,
			SourceID:  results[i].SourceID,
			Text:      results[i].Passage.Text,
			Score:     results[i].Score,
		}
	}

	return nil, output, nil
}
