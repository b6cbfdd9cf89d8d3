package tools

import (
	"context"
	"fmt"

	"github.com/l4b4r4b4b4/legal-mcp-go/internal/query"
)

// SearchLawsInput validates search_laws (§4.8 corpus search, §4.9).
type SearchLawsInput struct {
	Query     string
	LawAbbrev string
	Level     string
	NResults  int
}

// SearchLaws runs a semantic search over the shared corpus collection and
// wraps the ranked hits into the cache envelope.
func (s *Surface) SearchLaws(ctx context.Context, in SearchLawsInput) (Envelope, error) {
	if err := requireQuery(in.Query); err != nil {
		return Envelope{}, err
	}
	if in.Level != "" && in.Level != "norm" && in.Level != "paragraph" {
		return Envelope{}, invalid("level", SubcodeInvalidValue, "level must be one of norm, paragraph, got %q", in.Level)
	}

	hits, err := s.query.CorpusSearch(ctx, query.CorpusSearchInput{
		Query:     in.Query,
		LawAbbrev: in.LawAbbrev,
		Level:     in.Level,
		NResults:  in.NResults,
	})
	if err != nil {
		return Envelope{}, fmt.Errorf("search_laws: %w", err)
	}

	items := make([]any, len(hits))
	for i, h := range hits {
		items[i] = h
	}
	return s.wrap("public:search_laws", items, len(hits), map[string]any{"query": in.Query})
}

// GetLawByIDInput validates get_law_by_id (§4.9).
type GetLawByIDInput struct {
	LawAbbrev string
	NormID    string
}

// GetLawByID retrieves the full content of one norm (bypassing the
// excerpt truncation the search path applies), wrapped via C6 since a
// norm with many paragraphs can be a large payload.
func (s *Surface) GetLawByID(ctx context.Context, in GetLawByIDInput) (Envelope, error) {
	if err := requireNonEmpty("law_abbrev", in.LawAbbrev); err != nil {
		return Envelope{}, err
	}
	if err := requireNonEmpty("norm_id", in.NormID); err != nil {
		return Envelope{}, err
	}

	norm, err := s.query.GetNormByID(ctx, in.LawAbbrev, in.NormID)
	if err != nil {
		return Envelope{}, fmt.Errorf("get_law_by_id: %w", err)
	}

	return s.wrap("public:get_law_by_id", norm, 1, map[string]any{
		"law_abbrev": in.LawAbbrev,
		"norm_id":    in.NormID,
	})
}

// GetLawStatsInput validates get_law_stats (§4.9).
type GetLawStatsInput struct {
	LawAbbrev string
}

// GetLawStats returns indexed norm/paragraph counts for one law. Small
// enough it is returned directly without a cache envelope is tempting, but
// §4.6's contract applies uniformly to every tool result so clients don't
// need to special-case small payloads.
func (s *Surface) GetLawStats(ctx context.Context, in GetLawStatsInput) (Envelope, error) {
	if err := requireNonEmpty("law_abbrev", in.LawAbbrev); err != nil {
		return Envelope{}, err
	}

	stats, err := s.query.GetLawStats(ctx, in.LawAbbrev)
	if err != nil {
		return Envelope{}, fmt.Errorf("get_law_stats: %w", err)
	}

	return s.wrap("public:get_law_stats", stats, 1, nil)
}

func requireQuery(q string) error {
	if len([]rune(q)) < 2 {
		return invalid("query", SubcodeTooShort, "query must be at least 2 characters")
	}
	return nil
}
