package tools

import (
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/cache"
)

// Envelope is the single opaque object every cached tool returns at the
// RPC boundary (§6, §4.6 "Tool-wrapping contract"). The declared return
// type must match this outer shape regardless of what's cached inside —
// mismatches there cause client-side schema-validation failures, not
// server errors.
type Envelope struct {
	RefID           string         `json:"ref_id"`
	Preview         any            `json:"preview"`
	PreviewStrategy string         `json:"preview_strategy"`
	TotalItems      int            `json:"total_items,omitempty"`
	Page            int            `json:"page,omitempty"`
	TotalPages      int            `json:"total_pages,omitempty"`
	Summary         map[string]any `json:"summary,omitempty"`
}

// wrap registers value under namespace (keyed by the content hash, so
// identical results within TTL collapse to the same ref_id per §3
// invariant 5) and returns the envelope the tool boundary hands back.
func (s *Surface) wrap(namespace string, value any, totalItems int, summary map[string]any) (Envelope, error) {
	entry, err := s.cache.Set(namespace, "", value, cache.SetOptions{})
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		RefID:           entry.RefID,
		Preview:         entry.Preview,
		PreviewStrategy: string(entry.Strategy),
		TotalItems:      totalItems,
		Summary:         summary,
	}, nil
}
