// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for a research session to run:
//
//   - SourceAdapter: fetches raw material for one source kind
//   - Normaliser / NormaliserRegistry: turns raw payloads into documents
//   - PostProcessorPipeline: splits documents into passages
//   - EmbeddingService: generates vectors for passages and queries
//   - VectorStore: session-scoped passage persistence and similarity search
//   - SessionStore / SourceStore: session, turn, source and document persistence
//   - ModelProvider: at least one configured language model backend
//
// # Sink Interfaces
//
// Renderer and Mailer consume a finished report. Their failures are
// reported but never invalidate a completed session.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: any adapter, connector, or normaliser package
package driven
