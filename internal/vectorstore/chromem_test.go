package vectorstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChromemStore(t *testing.T) *ChromemStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewChromemStore(ChromemConfig{Path: filepath.Join(dir, "db")}, nil)
	require.NoError(t, err)
	return s
}

func TestChromemStore_UpsertAndSearch(t *testing.T) {
	s := newTestChromemStore(t)
	ctx := context.Background()

	chunks := []Chunk{
		{ChunkID: "c1", DocumentID: "d1", Content: "alpha", Embedding: []float32{1, 0, 0}, Metadata: map[string]any{"document_id": "d1"}},
		{ChunkID: "c2", DocumentID: "d1", Content: "beta", Embedding: []float32{0, 1, 0}, Metadata: map[string]any{"document_id": "d1"}},
	}
	require.NoError(t, s.Upsert(ctx, CollectionCorpus, chunks))

	hits, err := s.Search(ctx, CollectionCorpus, []float32{1, 0, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "c1", hits[0].ChunkID)
}

func TestChromemStore_Search_RejectsInvalidK(t *testing.T) {
	s := newTestChromemStore(t)
	_, err := s.Search(context.Background(), CollectionCorpus, []float32{1}, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidK)
}

func TestChromemStore_Search_UserDocumentsRequiresTenant(t *testing.T) {
	s := newTestChromemStore(t)
	_, err := s.Search(context.Background(), CollectionUserDocuments, []float32{1}, 5, nil)
	assert.ErrorIs(t, err, ErrMissingTenantFilter)
}

func TestChromemStore_Delete_UserDocumentsRequiresTenant(t *testing.T) {
	s := newTestChromemStore(t)
	err := s.Delete(context.Background(), CollectionUserDocuments, nil)
	assert.ErrorIs(t, err, ErrMissingTenantFilter)
}

func TestChromemStore_CountWithFilter(t *testing.T) {
	s := newTestChromemStore(t)
	ctx := context.Background()

	chunks := []Chunk{
		{ChunkID: "c1", DocumentID: "d1", Content: "alpha", Embedding: []float32{1, 0, 0}, Metadata: map[string]any{"tenant_id": "t1"}},
		{ChunkID: "c2", DocumentID: "d1", Content: "beta", Embedding: []float32{0, 1, 0}, Metadata: map[string]any{"tenant_id": "t2"}},
	}
	require.NoError(t, s.Upsert(ctx, CollectionUserDocuments, chunks))

	n, err := s.Count(ctx, CollectionUserDocuments, Where{"tenant_id": "t1"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	total, err := s.Count(ctx, CollectionUserDocuments, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestChromemStore_UpsertRejectsEmptyChunks(t *testing.T) {
	s := newTestChromemStore(t)
	err := s.Upsert(context.Background(), CollectionCorpus, nil)
	assert.ErrorIs(t, err, ErrEmptyChunks)
}
