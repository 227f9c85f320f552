package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for Inquest resources.
	uriScheme = "inquest://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing research sessions.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "sessions",
		Name:        "sessions",
		Description: "List of all research sessions",
		MIMEType:    "application/json",
	}, s.handleSessionsResource)

	// Template for a session's synthesis turns.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "sessions/{sessionId}/turns",
		Name:        "session-turns",
		Description: "The synthesis audit trail of a research session",
		MIMEType:    "application/json",
	}, s.handleTurnsResource)
}

// handleSessionsResource returns a list of all research sessions.
func (s *Server) handleSessionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Sessions == nil {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     "[]",
			}},
		}, nil
	}

	sessions, err := s.ports.Sessions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	type sessionInfo struct {
		ID        string    `json:"id"`
		Topic     string    `json:"topic"`
		Status    string    `json:"status"`
		CreatedAt time.Time `json:"created_at"`
	}

	infos := make([]sessionInfo, len(sessions))
	for i := range sessions {
		infos[i] = sessionInfo{
			ID:        sessions[i].ID,
			Topic:     sessions[i].Topic,
			Status:    string(sessions[i].Status),
			CreatedAt: sessions[i].CreatedAt,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling sessions: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleTurnsResource returns the synthesis turns of a session.
func (s *Server) handleTurnsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Sessions == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	sessionID := extractSessionID(req.Params.URI)
	if sessionID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	turns, err := s.ports.Sessions.Turns(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing turns: %w", err)
	}

	type turnInfo struct {
		Index      int    `json:"index"`
		Action     string `json:"action"`
		Query      string `json:"query,omitempty"`
		URL        string `json:"url,omitempty"`
		ToolResult string `json:"tool_result,omitempty"`
		TokensUsed int    `json:"tokens_used"`
		Retries    int    `json:"retries"`
	}

	infos := make([]turnInfo, len(turns))
	for i := range turns {
		infos[i] = turnInfo{
			Index:      turns[i].Index,
			Action:     string(turns[i].Action.Type),
			Query:      turns[i].Action.Query,
			URL:        turns[i].Action.URL,
			ToolResult: turns[i].ToolResult,
			TokensUsed: turns[i].TokensUsed,
			Retries:    turns[i].Retries,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling turns: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractSessionID extracts the session ID from a URI like
// inquest://sessions/{sessionId}/turns.
func extractSessionID(uri string) string {
	const prefix = uriScheme + "sessions/"
	const suffix = "/turns"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}
