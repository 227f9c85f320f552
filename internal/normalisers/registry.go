package normalisers

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry dispatches payloads to the best matching normaliser.
// Selection priority: kind-specific > MIME-specific > fallback.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
}

// NewRegistry creates an empty normaliser registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a normaliser to the registry.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.normalisers = append(r.normalisers, n)
	sort.SliceStable(r.normalisers, func(i, j int) bool {
		return r.normalisers[i].Priority() > r.normalisers[j].Priority()
	})
}

// Normalise transforms a raw payload using the best matching normaliser.
func (r *Registry) Normalise(ctx context.Context, raw *driven.RawPayload) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	n := r.match(raw)
	if n == nil {
		return nil, fmt.Errorf("%w: no normaliser for mime type %q", domain.ErrUnsupportedType, raw.MIMEType)
	}
	return n.Normalise(ctx, raw)
}

// SupportedMIMETypes returns all MIME types that can be normalised.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var types []string
	for _, n := range r.normalisers {
		for _, mt := range n.SupportedMIMETypes() {
			if !seen[mt] {
				seen[mt] = true
				types = append(types, mt)
			}
		}
	}
	sort.Strings(types)
	return types
}

// match finds the highest-priority normaliser for the payload.
// The list is kept sorted by priority, so the first match wins.
func (r *Registry) match(raw *driven.RawPayload) driven.Normaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, n := range r.normalisers {
		if !supportsKind(n, raw.Source.Kind) {
			continue
		}
		for _, mt := range n.SupportedMIMETypes() {
			if mt == raw.MIMEType {
				return n
			}
		}
	}
	return nil
}

// supportsKind reports whether the normaliser handles the source kind.
// An empty kind list means all kinds.
func supportsKind(n driven.Normaliser, kind domain.SourceKind) bool {
	kinds := n.SupportedSourceKinds()
	if len(kinds) == 0 {
		return true
	}
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}
