package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l4b4r4b4b4/legal-mcp-go/internal/vectorstore"
)

type filterAwareStore struct {
	byLevel map[string][]vectorstore.Hit
}

func (f *filterAwareStore) Upsert(ctx context.Context, collection string, chunks []vectorstore.Chunk) error {
	return nil
}

func (f *filterAwareStore) Search(ctx context.Context, collection string, queryVector []float32, k int, where vectorstore.Where) ([]vectorstore.Hit, error) {
	level, _ := where["level"].(string)
	hits := f.byLevel[level]
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func (f *filterAwareStore) Delete(ctx context.Context, collection string, where vectorstore.Where) error {
	return nil
}

func (f *filterAwareStore) Count(ctx context.Context, collection string, where vectorstore.Where) (int, error) {
	level, _ := where["level"].(string)
	return len(f.byLevel[level]), nil
}

func (f *filterAwareStore) Close() error { return nil }

func TestGetNormByID_AssemblesParagraphsInOrder(t *testing.T) {
	store := &filterAwareStore{byLevel: map[string][]vectorstore.Hit{
		"norm": {{ChunkID: "bgb_para_433:0", DocumentID: "bgb_para_433", Excerpt: "full norm text", Metadata: map[string]any{"law_title": "BGB", "norm_title": "Kaufvertrag"}}},
		"paragraph": {
			{ChunkID: "bgb_para_433_abs_2:0", Excerpt: "second", Metadata: map[string]any{"paragraph_index": 2}},
			{ChunkID: "bgb_para_433_abs_1:0", Excerpt: "first", Metadata: map[string]any{"paragraph_index": 1}},
		},
	}}
	e := New(store, &fakeEmbedder{dim: 3})

	res, err := e.GetNormByID(context.Background(), "bgb", "§ 433")
	require.NoError(t, err)
	assert.Equal(t, "full norm text", res.Content)
	assert.Equal(t, "BGB", res.LawTitle)
	assert.Equal(t, "Kaufvertrag", res.NormTitle)
	require.Len(t, res.Paragraphs, 2)
	assert.Equal(t, 1, res.Paragraphs[0].Index)
	assert.Equal(t, "first", res.Paragraphs[0].Content)
	assert.Equal(t, 2, res.Paragraphs[1].Index)
}

func TestGetNormByID_SortsByIndexRegardlessOfBackendScalarType(t *testing.T) {
	// ChromemStore returns every metadata value as a string; QdrantStore
	// decodes integers as int64. Neither is the plain int a fake literal
	// would hand back, which is exactly what masked this bug before.
	store := &filterAwareStore{byLevel: map[string][]vectorstore.Hit{
		"norm": {{ChunkID: "bgb_para_433:0", DocumentID: "bgb_para_433", Excerpt: "full norm text"}},
		"paragraph": {
			{ChunkID: "bgb_para_433_abs_2:0", Excerpt: "second", Metadata: map[string]any{"paragraph_index": "2"}},
			{ChunkID: "bgb_para_433_abs_1:0", Excerpt: "first", Metadata: map[string]any{"paragraph_index": int64(1)}},
		},
	}}
	e := New(store, &fakeEmbedder{dim: 3})

	res, err := e.GetNormByID(context.Background(), "bgb", "§ 433")
	require.NoError(t, err)
	require.Len(t, res.Paragraphs, 2)
	assert.Equal(t, 1, res.Paragraphs[0].Index)
	assert.Equal(t, "first", res.Paragraphs[0].Content)
	assert.Equal(t, 2, res.Paragraphs[1].Index)
	assert.Equal(t, "second", res.Paragraphs[1].Content)
}

func TestGetNormByID_NotFound(t *testing.T) {
	store := &filterAwareStore{byLevel: map[string][]vectorstore.Hit{}}
	e := New(store, &fakeEmbedder{dim: 3})

	_, err := e.GetNormByID(context.Background(), "bgb", "§ 999")
	assert.ErrorIs(t, err, ErrNormNotFound)
}

func TestGetNormByID_RequiresBothIdentifiers(t *testing.T) {
	e := New(&filterAwareStore{}, &fakeEmbedder{dim: 3})
	_, err := e.GetNormByID(context.Background(), "", "§ 1")
	assert.Error(t, err)
}

func TestGetLawStats_CountsNormsAndParagraphs(t *testing.T) {
	store := &filterAwareStore{byLevel: map[string][]vectorstore.Hit{
		"norm":      {{ChunkID: "a"}, {ChunkID: "b"}},
		"paragraph": {{ChunkID: "c"}, {ChunkID: "d"}, {ChunkID: "e"}},
	}}
	e := New(store, &fakeEmbedder{dim: 3})

	stats, err := e.GetLawStats(context.Background(), "bgb")
	require.NoError(t, err)
	assert.Equal(t, "bgb", stats.LawAbbrev)
	assert.Equal(t, 2, stats.NormCount)
	assert.Equal(t, 3, stats.ParagraphCount)
}
