package query

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l4b4r4b4b4/legal-mcp-go/internal/vectorstore"
)

// fakeStore is a minimal in-memory vectorstore.Store for exercising the
// query engine without a real backend.
type fakeStore struct {
	lastCollection string
	lastWhere      vectorstore.Where
	hits           []vectorstore.Hit
}

func (f *fakeStore) Upsert(ctx context.Context, collection string, chunks []vectorstore.Chunk) error {
	return nil
}

func (f *fakeStore) Search(ctx context.Context, collection string, queryVector []float32, k int, where vectorstore.Where) ([]vectorstore.Hit, error) {
	f.lastCollection = collection
	f.lastWhere = where
	out := append([]vectorstore.Hit(nil), f.hits...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].ChunkID < out[j].ChunkID
	})
	if k < len(out) {
		out = out[:k]
	}
	return out, nil
}

func (f *fakeStore) Delete(ctx context.Context, collection string, where vectorstore.Where) error {
	return nil
}
func (f *fakeStore) Count(ctx context.Context, collection string, where vectorstore.Where) (int, error) {
	return len(f.hits), nil
}
func (f *fakeStore) Close() error { return nil }

type fakeEmbedder struct {
	dim int
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = make([]float32, f.dim)
	}
	return out, nil
}
func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return make([]float32, f.dim), nil
}
func (f *fakeEmbedder) Dimension() int { return f.dim }
func (f *fakeEmbedder) Close() error   { return nil }

func TestCorpusSearch_RejectsShortQuery(t *testing.T) {
	e := New(&fakeStore{}, &fakeEmbedder{dim: 3})
	_, err := e.CorpusSearch(context.Background(), CorpusSearchInput{Query: "a"})
	assert.ErrorIs(t, err, ErrQueryTooShort)
}

func TestCorpusSearch_RejectsOutOfRangeNResults(t *testing.T) {
	e := New(&fakeStore{}, &fakeEmbedder{dim: 3})
	_, err := e.CorpusSearch(context.Background(), CorpusSearchInput{Query: "statute", NResults: 100})
	assert.ErrorIs(t, err, ErrInvalidResults)
}

func TestCorpusSearch_BuildsFilterFromOptionalFields(t *testing.T) {
	store := &fakeStore{hits: []vectorstore.Hit{
		{ChunkID: "c1", DocumentID: "d1", Similarity: 0.9, Excerpt: "full text of the paragraph"},
	}}
	e := New(store, &fakeEmbedder{dim: 3})

	hits, err := e.CorpusSearch(context.Background(), CorpusSearchInput{
		Query:     "termination clause",
		LawAbbrev: "bgb",
		Level:     "paragraph",
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, vectorstore.CollectionCorpus, store.lastCollection)
	assert.Equal(t, "bgb", store.lastWhere["law_abbrev"])
	assert.Equal(t, "paragraph", store.lastWhere["level"])
}

func TestUserDocumentSearch_RequiresTenantID(t *testing.T) {
	e := New(&fakeStore{}, &fakeEmbedder{dim: 3})
	_, err := e.UserDocumentSearch(context.Background(), UserDocumentSearchInput{Query: "contract"})
	assert.ErrorIs(t, err, ErrMissingTenant)
}

func TestUserDocumentSearch_AlwaysIncludesTenantIDPredicate(t *testing.T) {
	store := &fakeStore{}
	e := New(store, &fakeEmbedder{dim: 3})

	_, err := e.UserDocumentSearch(context.Background(), UserDocumentSearchInput{
		Query:    "contract",
		TenantID: "tenant-1",
		CaseID:   "case-9",
	})
	require.NoError(t, err)
	assert.Equal(t, "tenant-1", store.lastWhere["tenant_id"])
	assert.Equal(t, "case-9", store.lastWhere["case_id"])
}

func TestUserDocumentSearch_ExcerptTruncatesAtDefaultAndCustomLength(t *testing.T) {
	long := ""
	for i := 0; i < 1000; i++ {
		long += "x"
	}
	store := &fakeStore{hits: []vectorstore.Hit{
		{ChunkID: "c1", DocumentID: "d1", Similarity: 0.5, Excerpt: long},
	}}
	e := New(store, &fakeEmbedder{dim: 3})

	hits, err := e.UserDocumentSearch(context.Background(), UserDocumentSearchInput{
		Query:        "needle",
		TenantID:     "t1",
		ExcerptChars: 50,
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Len(t, []rune(hits[0].Excerpt), 50)
}

func TestCorpusSearch_KeepsStoreRankingBySimilarityThenChunkID(t *testing.T) {
	store := &fakeStore{hits: []vectorstore.Hit{
		{ChunkID: "z", DocumentID: "d", Similarity: 0.8, Excerpt: "a"},
		{ChunkID: "a", DocumentID: "d", Similarity: 0.9, Excerpt: "b"},
		{ChunkID: "b", DocumentID: "d", Similarity: 0.9, Excerpt: "c"},
	}}
	e := New(store, &fakeEmbedder{dim: 3})

	hits, err := e.CorpusSearch(context.Background(), CorpusSearchInput{Query: "query text"})
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "a", hits[0].ChunkID)
	assert.Equal(t, "b", hits[1].ChunkID)
	assert.Equal(t, "z", hits[2].ChunkID)
}
