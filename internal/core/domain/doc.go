// Package domain contains the core business entities and rules for inquest.
//
// The domain layer has no dependencies on infrastructure. It defines what a
// research session is, how evidence is represented (sources, documents,
// passages), and the invariants the rest of the system must uphold:
//
//   - a Session's status only moves forward, except into StatusFailed
//   - a Passage belongs to exactly one Document and one Session
//   - embeddings are computed once per Passage and never mutated
//   - retrieval is always scoped to a single Session
package domain
