// Package normalisers provides document normalisation implementations.
//
// Each subpackage handles one payload format (HTML, PDF text, video
// transcripts, plain text) and produces a clean Markdown/plain-text
// document. The registry in this package selects the best normaliser
// for a payload by source kind, MIME type and priority.
package normalisers
