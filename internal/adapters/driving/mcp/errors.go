// Package mcp provides an MCP (Model Context Protocol) server adapter
// for Inquest. It lets AI assistants run research sessions and query
// the gathered material over JSON-RPC.
package mcp

import "errors"

// ErrMissingResearchService is returned when the research service is not provided.
var ErrMissingResearchService = errors.New("mcp: research service is required")

// ErrMissingRetrieveService is returned when the retrieve service is not provided.
var ErrMissingRetrieveService = errors.New("mcp: retrieve service is required")
