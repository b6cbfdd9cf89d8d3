// Package query implements the two semantic-search modes over the vector
// store: corpus search (public law text) and user-document search
// (tenant-scoped).
package query

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/l4b4r4b4b4/legal-mcp-go/internal/embeddings"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/vectorstore"
)

const (
	minQueryLength       = 2
	defaultNResults      = 10
	maxNResults          = 50
	defaultExcerptChars  = 500
)

var (
	ErrQueryTooShort  = errors.New("query: query must be at least 2 characters")
	ErrMissingTenant  = errors.New("query: tenant_id is required for user-document search")
	ErrInvalidResults = errors.New("query: n_results must be between 1 and 50")
)

// Hit is one ranked search result, safe to return to a caller: it never
// carries full chunk content, only a bounded excerpt.
type Hit struct {
	ChunkID    string         `json:"chunk_id"`
	DocumentID string         `json:"document_id"`
	Similarity float32        `json:"similarity"`
	Excerpt    string         `json:"excerpt"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Engine executes both query modes against a vector store and embedding
// gateway.
type Engine struct {
	store     vectorstore.Store
	embedder  embeddings.Gateway
}

// New builds a query Engine over store and embedder.
func New(store vectorstore.Store, embedder embeddings.Gateway) *Engine {
	return &Engine{store: store, embedder: embedder}
}

// CorpusSearchInput is the validated input to CorpusSearch.
type CorpusSearchInput struct {
	Query      string
	LawAbbrev  string
	Level      string // "norm" or "paragraph", matched against metadata
	NResults   int
}

// CorpusSearch searches the public corpus collection.
func (e *Engine) CorpusSearch(ctx context.Context, in CorpusSearchInput) ([]Hit, error) {
	if utf8.RuneCountInString(in.Query) < minQueryLength {
		return nil, ErrQueryTooShort
	}
	n := in.NResults
	if n == 0 {
		n = defaultNResults
	}
	if n < 1 || n > maxNResults {
		return nil, ErrInvalidResults
	}

	where := vectorstore.Where{}
	if in.LawAbbrev != "" {
		where["law_abbrev"] = in.LawAbbrev
	}
	if in.Level != "" {
		where["level"] = in.Level
	}

	vec, err := e.embedder.EmbedQuery(ctx, in.Query)
	if err != nil {
		return nil, fmt.Errorf("embedding corpus query: %w", err)
	}

	hits, err := e.store.Search(ctx, vectorstore.CollectionCorpus, vec, n, where)
	if err != nil {
		return nil, fmt.Errorf("searching corpus: %w", err)
	}
	return toHits(hits, defaultExcerptChars), nil
}

// UserDocumentSearchInput is the validated input to UserDocumentSearch.
type UserDocumentSearchInput struct {
	Query        string
	TenantID     string
	CaseID       string
	DocumentID   string
	SourceName   string
	Tag          string
	NResults     int
	ExcerptChars int
}

// UserDocumentSearch searches a tenant's private document collection.
// tenant_id is always included as a predicate, defence-in-depth
// alongside C5's own refusal of unscoped user_documents operations.
func (e *Engine) UserDocumentSearch(ctx context.Context, in UserDocumentSearchInput) ([]Hit, error) {
	if utf8.RuneCountInString(in.Query) < minQueryLength {
		return nil, ErrQueryTooShort
	}
	if in.TenantID == "" {
		return nil, ErrMissingTenant
	}
	n := in.NResults
	if n == 0 {
		n = defaultNResults
	}
	if n < 1 || n > maxNResults {
		return nil, ErrInvalidResults
	}
	excerptChars := in.ExcerptChars
	if excerptChars <= 0 {
		excerptChars = defaultExcerptChars
	}

	where := vectorstore.Where{"tenant_id": in.TenantID}
	if in.CaseID != "" {
		where["case_id"] = in.CaseID
	}
	if in.DocumentID != "" {
		where["document_id"] = in.DocumentID
	}
	if in.SourceName != "" {
		where["source_name"] = in.SourceName
	}
	if in.Tag != "" {
		where["tag"] = in.Tag
	}

	vec, err := e.embedder.EmbedQuery(ctx, in.Query)
	if err != nil {
		return nil, fmt.Errorf("embedding user-document query: %w", err)
	}

	hits, err := e.store.Search(ctx, vectorstore.CollectionUserDocuments, vec, n, where)
	if err != nil {
		return nil, fmt.Errorf("searching user documents: %w", err)
	}
	return toHits(hits, excerptChars), nil
}

func toHits(hits []vectorstore.Hit, excerptChars int) []Hit {
	out := make([]Hit, len(hits))
	for i, h := range hits {
		out[i] = Hit{
			ChunkID:    h.ChunkID,
			DocumentID: h.DocumentID,
			Similarity: h.Similarity,
			Excerpt:    truncateAtCodepoint(h.Excerpt, excerptChars),
			Metadata:   h.Metadata,
		}
	}
	return out
}

// truncateAtCodepoint returns the first n runes of s, never splitting a
// multi-byte codepoint.
func truncateAtCodepoint(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
