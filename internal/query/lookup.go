package query

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/l4b4r4b4b4/legal-mcp-go/internal/vectorstore"
)

// maxNormLookupChunks bounds how many paragraph chunks a single norm
// lookup can assemble. A norm with more structural paragraphs than this
// is truncated.
const maxNormLookupChunks = 50

// ErrNormNotFound is returned when no norm-level chunk matches the
// requested (law_abbrev, norm_id) pair.
var ErrNormNotFound = errors.New("query: norm not found")

// NormResult is the full content of one legal norm, including its
// structural paragraphs in order (§4.9 get_law_by_id).
type NormResult struct {
	LawAbbrev  string              `json:"law_abbrev"`
	LawTitle   string              `json:"law_title"`
	NormID     string              `json:"norm_id"`
	NormTitle  string              `json:"norm_title"`
	Content    string              `json:"content"`
	Paragraphs []ParagraphContent  `json:"paragraphs,omitempty"`
}

// ParagraphContent is one paragraph within a NormResult.
type ParagraphContent struct {
	Index   int    `json:"index"`
	Content string `json:"content"`
}

// GetNormByID retrieves the full content of one norm (and every
// structural paragraph beneath it) by its law abbreviation and norm
// identifier, bypassing the excerpt truncation the search path applies.
func (e *Engine) GetNormByID(ctx context.Context, lawAbbrev, normID string) (NormResult, error) {
	if lawAbbrev == "" || normID == "" {
		return NormResult{}, fmt.Errorf("query: law_abbrev and norm_id are required")
	}

	zeroVec := make([]float32, e.embedder.Dimension())

	normHits, err := e.store.Search(ctx, vectorstore.CollectionCorpus, zeroVec, 1, vectorstore.Where{
		"law_abbrev": lawAbbrev,
		"norm_id":    normID,
		"level":      "norm",
	})
	if err != nil {
		return NormResult{}, fmt.Errorf("looking up norm %s/%s: %w", lawAbbrev, normID, err)
	}
	if len(normHits) == 0 {
		return NormResult{}, ErrNormNotFound
	}
	norm := normHits[0]

	paraHits, err := e.store.Search(ctx, vectorstore.CollectionCorpus, zeroVec, maxNormLookupChunks, vectorstore.Where{
		"law_abbrev": lawAbbrev,
		"norm_id":    normID,
		"level":      "paragraph",
	})
	if err != nil {
		return NormResult{}, fmt.Errorf("looking up paragraphs for %s/%s: %w", lawAbbrev, normID, err)
	}

	paragraphs := make([]ParagraphContent, 0, len(paraHits))
	for _, h := range paraHits {
		paragraphs = append(paragraphs, ParagraphContent{Index: asInt(h.Metadata["paragraph_index"]), Content: h.Excerpt})
	}
	sort.Slice(paragraphs, func(i, j int) bool { return paragraphs[i].Index < paragraphs[j].Index })

	result := NormResult{
		LawAbbrev:  lawAbbrev,
		NormID:     normID,
		Content:    norm.Excerpt,
		Paragraphs: paragraphs,
	}
	if title, ok := norm.Metadata["law_title"].(string); ok {
		result.LawTitle = title
	}
	if title, ok := norm.Metadata["norm_title"].(string); ok {
		result.NormTitle = title
	}
	return result, nil
}

// asInt coerces a metadata scalar to int regardless of which vector-store
// backend produced it: ChromemStore round-trips every value through
// string metadata (stringsToMetadata), QdrantStore decodes integers as
// int64 (valueFromQdrant), and a plain int covers fakes used in tests. An
// unrecognised or unparsable value yields 0 rather than a panic.
func asInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// LawStats summarises the indexed size of one law (§4.9 get_law_stats):
// how many norm-level and paragraph-level chunks the corpus holds for it.
type LawStats struct {
	LawAbbrev      string `json:"law_abbrev"`
	NormCount      int    `json:"norm_count"`
	ParagraphCount int    `json:"paragraph_count"`
}

// GetLawStats counts the norm- and paragraph-level chunks indexed for
// lawAbbrev.
func (e *Engine) GetLawStats(ctx context.Context, lawAbbrev string) (LawStats, error) {
	if lawAbbrev == "" {
		return LawStats{}, fmt.Errorf("query: law_abbrev is required")
	}

	normCount, err := e.store.Count(ctx, vectorstore.CollectionCorpus, vectorstore.Where{
		"law_abbrev": lawAbbrev,
		"level":      "norm",
	})
	if err != nil {
		return LawStats{}, fmt.Errorf("counting norms for %s: %w", lawAbbrev, err)
	}

	paragraphCount, err := e.store.Count(ctx, vectorstore.CollectionCorpus, vectorstore.Where{
		"law_abbrev": lawAbbrev,
		"level":      "paragraph",
	})
	if err != nil {
		return LawStats{}, fmt.Errorf("counting paragraphs for %s: %w", lawAbbrev, err)
	}

	return LawStats{LawAbbrev: lawAbbrev, NormCount: normCount, ParagraphCount: paragraphCount}, nil
}
