package postprocessors

import (
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/inquest-cli/internal/postprocessors/chunker"
)

// RegisterDefaults registers all built-in processors with the registry.
// Call this during application initialisation to enable standard processors.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): Characters per chunk (default: 1000)
//   - overlap (int): Overlapping characters between chunks (default: 200)
//   - sentence_slack (int): Boundary search window (default: 120)
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if size, ok := intFromConfig(cfg, "chunk_size"); ok && size > 0 {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap, ok := intFromConfig(cfg, "overlap"); ok && overlap >= 0 {
		opts = append(opts, chunker.WithOverlap(overlap))
	}
	if slack, ok := intFromConfig(cfg, "sentence_slack"); ok && slack >= 0 {
		opts = append(opts, chunker.WithSentenceSlack(slack))
	}

	return chunker.New(opts...), nil
}

// intFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func intFromConfig(cfg map[string]any, key string) (int, bool) {
	if cfg == nil {
		return 0, false
	}
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
