package mcp

import (
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Research runs end-to-end research sessions.
	Research driving.ResearchService

	// Retrieve answers similarity queries against indexed sessions.
	Retrieve driving.RetrieveService

	// Sessions exposes stored sessions. Optional; session resources are
	// unavailable without it.
	Sessions driving.SessionService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Research == nil {
		return ErrMissingResearchService
	}
	if p.Retrieve == nil {
		return ErrMissingRetrieveService
	}
	return nil
}
