package tools

import "fmt"

// ListAvailableDocumentsInput validates list_available_documents (§4.4, §4.9).
type ListAvailableDocumentsInput struct {
	Source string
	Prefix string
	Offset int
	Limit  int
}

// ListAvailableDocuments performs zero network I/O and zero filesystem
// writes (§8 invariant 8): it is a pure read over the catalog loaded at
// startup, wrapped into the cache envelope like every other tool result.
func (s *Surface) ListAvailableDocuments(in ListAvailableDocumentsInput) (Envelope, error) {
	if err := requireNonEmpty("source", in.Source); err != nil {
		return Envelope{}, err
	}
	if in.Offset < 0 {
		return Envelope{}, invalid("offset", SubcodeOutOfRange, "offset must be >= 0, got %d", in.Offset)
	}
	limit := in.Limit
	if limit == 0 {
		limit = 50
	}
	if limit < 1 || limit > 200 {
		return Envelope{}, invalid("limit", SubcodeOutOfRange, "limit must be in [1, 200], got %d", limit)
	}

	page, err := s.catalog.ListAvailable(in.Source, in.Prefix, in.Offset, limit)
	if err != nil {
		return Envelope{}, fmt.Errorf("list_available_documents: %w", err)
	}

	items := make([]any, len(page.Items))
	for i, it := range page.Items {
		items[i] = it
	}

	return s.wrap("public:catalog/"+in.Source, items, page.CountFiltered, map[string]any{
		"count_total":    page.CountTotal,
		"count_filtered": page.CountFiltered,
		"prefix_counts":  page.PrefixCounts,
	})
}
