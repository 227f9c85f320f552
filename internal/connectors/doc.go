// Package connectors provides source adapter implementations for the
// research material the assistant can ingest: web search results, web
// pages, PDF documents and video transcripts.
//
// Each subpackage implements driven.SourceAdapter for one source kind.
// The shared Fetcher in this package gives every adapter the same
// rate-limited, size-capped HTTP behaviour.
package connectors
