package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l4b4r4b4b4/legal-mcp-go/internal/safepath"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/vectorstore"
)

// fakeStore is a minimal in-memory vectorstore.Store for ingestion tests.
type fakeStore struct {
	mu      sync.Mutex
	upserts map[string][]vectorstore.Chunk // collection -> all upserted chunks
	deletes []vectorstore.Where
}

func newFakeStore() *fakeStore {
	return &fakeStore{upserts: make(map[string][]vectorstore.Chunk)}
}

func (f *fakeStore) Upsert(ctx context.Context, collection string, chunks []vectorstore.Chunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts[collection] = append(f.upserts[collection], chunks...)
	return nil
}

func (f *fakeStore) Search(ctx context.Context, collection string, queryVector []float32, k int, where vectorstore.Where) ([]vectorstore.Hit, error) {
	return nil, nil
}

func (f *fakeStore) Delete(ctx context.Context, collection string, where vectorstore.Where) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, where)
	return nil
}

func (f *fakeStore) Count(ctx context.Context, collection string, where vectorstore.Where) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	chunkID, ok := where["chunk_id"]
	if !ok {
		return len(f.upserts[collection]), nil
	}
	for _, c := range f.upserts[collection] {
		if c.ChunkID == chunkID {
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) all(collection string) []vectorstore.Chunk {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]vectorstore.Chunk(nil), f.upserts[collection]...)
}

// fakeEmbedder returns a fixed-dimension zero vector per input text.
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

func newTestEngine(t *testing.T, store *fakeStore) (*Engine, *safepath.Resolver, string) {
	t.Helper()
	root := t.TempDir()
	resolver, err := safepath.NewResolver(root)
	require.NoError(t, err)
	return New(store, &fakeEmbedder{dim: 3}, resolver, nil, nil, nil, Config{}), resolver, root
}

func TestIngestPlainText_RejectsMissingTenant(t *testing.T) {
	e, _, _ := newTestEngine(t, newFakeStore())
	_, err := e.IngestPlainText(context.Background(), PlainTextIngestInput{
		Documents: []PlainTextDocument{{SourceName: "a", Text: "hello"}},
	})
	assert.ErrorIs(t, err, ErrMissingTenantID)
}

func TestIngestPlainText_RejectsEmptyBatch(t *testing.T) {
	e, _, _ := newTestEngine(t, newFakeStore())
	_, err := e.IngestPlainText(context.Background(), PlainTextIngestInput{TenantID: "t1"})
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestIngestPlainText_ChunksEmbedsAndUpserts(t *testing.T) {
	store := newFakeStore()
	e, _, _ := newTestEngine(t, store)

	res, err := e.IngestPlainText(context.Background(), PlainTextIngestInput{
		TenantID: "t1",
		CaseID:   "c1",
		Tags:     []string{"Contract", "urgent"},
		Documents: []PlainTextDocument{
			{SourceName: "a.txt", Text: "Die Kündigungsfrist beträgt vier Wochen."},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Documents, 1)
	assert.Equal(t, 1, res.Documents[0].ChunksCreated)
	assert.Equal(t, 1, res.Documents[0].ChunksAdded)
	assert.Empty(t, res.Documents[0].Errors)

	chunks := store.all(vectorstore.CollectionUserDocuments)
	require.Len(t, chunks, 1)
	assert.Equal(t, "t1", chunks[0].Metadata["tenant_id"])
	assert.Equal(t, "c1", chunks[0].Metadata["case_id"])
	assert.Equal(t, "contract,urgent", chunks[0].Metadata["tags_csv"])
	assert.NotContains(t, chunks[0].Metadata, "tag") // two tags, no single-tag escape
}

func TestIngestPlainText_SingleTagEscapeHatch(t *testing.T) {
	store := newFakeStore()
	e, _, _ := newTestEngine(t, store)

	_, err := e.IngestPlainText(context.Background(), PlainTextIngestInput{
		TenantID: "t1",
		Tags:     []string{"Contract"},
		Documents: []PlainTextDocument{
			{SourceName: "a.txt", Text: "some contract text"},
		},
	})
	require.NoError(t, err)

	chunks := store.all(vectorstore.CollectionUserDocuments)
	require.Len(t, chunks, 1)
	assert.Equal(t, "contract", chunks[0].Metadata["tag"])
}

func TestIngestPlainText_WhitespaceOnlyDocumentFailsIndividually(t *testing.T) {
	store := newFakeStore()
	e, _, _ := newTestEngine(t, store)

	res, err := e.IngestPlainText(context.Background(), PlainTextIngestInput{
		TenantID: "t1",
		Documents: []PlainTextDocument{
			{SourceName: "good.txt", Text: "real content here"},
			{SourceName: "blank.txt", Text: "   \n\t  "},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Documents, 2)

	var sawError bool
	for _, d := range res.Documents {
		if d.SourceName == "blank.txt" {
			sawError = true
			assert.NotEmpty(t, d.Errors)
		}
	}
	assert.True(t, sawError)
	assert.Len(t, store.all(vectorstore.CollectionUserDocuments), 1)
}

func TestIngestPlainText_ReplaceDeletesBeforeUpsert(t *testing.T) {
	store := newFakeStore()
	e, _, _ := newTestEngine(t, store)

	_, err := e.IngestPlainText(context.Background(), PlainTextIngestInput{
		TenantID: "t1",
		CaseID:   "c1",
		Replace:  true,
		Documents: []PlainTextDocument{
			{SourceName: "a.txt", Text: "replace me", DocumentID: "doc-a"},
		},
	})
	require.NoError(t, err)
	require.Len(t, store.deletes, 1)
	assert.Equal(t, "t1", store.deletes[0]["tenant_id"])
	assert.Equal(t, "c1", store.deletes[0]["case_id"])
	assert.Equal(t, "doc-a", store.deletes[0]["document_id"])
}

func TestIngestPlainText_JurisdictionNeverCoexistsWithReservedKey(t *testing.T) {
	store := newFakeStore()
	e, _, _ := newTestEngine(t, store)

	_, err := e.IngestPlainText(context.Background(), PlainTextIngestInput{
		TenantID:     "t1",
		Jurisdiction: "de-by",
		Documents: []PlainTextDocument{
			{SourceName: "rendered.html", Text: "rendered SPA content"},
		},
	})
	require.NoError(t, err)

	chunks := store.all(vectorstore.CollectionUserDocuments)
	require.Len(t, chunks, 1)
	assert.Equal(t, "t1", chunks[0].Metadata["tenant_id"])
	assert.Equal(t, "de-by", chunks[0].Metadata["jurisdiction_scope"])
	assert.NotContains(t, chunks[0].Metadata, "jurisdiction") // reserved for shared-corpus chunks, §3 invariant 3
}

func TestIngestMarkdownFiles_RejectsPathTraversal(t *testing.T) {
	store := newFakeStore()
	e, _, _ := newTestEngine(t, store)

	res, err := e.IngestMarkdownFiles(context.Background(), MarkdownFileIngestInput{
		TenantID: "t1",
		Paths:    []string{"../etc/passwd"},
	})
	require.NoError(t, err) // batch-level call succeeds; failure is per-file
	require.Len(t, res.Documents, 1)
	assert.NotEmpty(t, res.Documents[0].Errors)
	assert.Empty(t, store.all(vectorstore.CollectionUserDocuments))
}

func TestIngestMarkdownFiles_ReadsAndIngestsFile(t *testing.T) {
	store := newFakeStore()
	e, _, root := newTestEngine(t, store)

	require.NoError(t, os.WriteFile(filepath.Join(root, "note.md"), []byte("# Title\n\nSome markdown body text."), 0o644))

	res, err := e.IngestMarkdownFiles(context.Background(), MarkdownFileIngestInput{
		TenantID: "t1",
		Paths:    []string{"note.md"},
	})
	require.NoError(t, err)
	require.Len(t, res.Documents, 1)
	assert.Empty(t, res.Documents[0].Errors)

	chunks := store.all(vectorstore.CollectionUserDocuments)
	require.Len(t, chunks, 1)
	assert.Equal(t, SourceKindMarkdownFile, chunks[0].Metadata["source_kind"])
}

func TestIngestMarkdownFiles_PathTraversalFailsPerFileNotBatch(t *testing.T) {
	store := newFakeStore()
	e, _, root := newTestEngine(t, store)
	require.NoError(t, os.WriteFile(filepath.Join(root, "good.md"), []byte("real content"), 0o644))

	res, err := e.IngestMarkdownFiles(context.Background(), MarkdownFileIngestInput{
		TenantID: "t1",
		Paths:    []string{"../escape.md", "good.md"},
	})
	require.NoError(t, err)
	require.Len(t, res.Documents, 2)

	var failed, succeeded bool
	for _, d := range res.Documents {
		if len(d.Errors) > 0 {
			failed = true
		} else {
			succeeded = true
		}
	}
	assert.True(t, failed)
	assert.True(t, succeeded)
}

func TestIngestCorpusTree_ParsesAndUpserts(t *testing.T) {
	store := newFakeStore()
	e, _, _ := newTestEngine(t, store)

	corpusRoot := t.TempDir()
	lawDir := filepath.Join(corpusRoot, "bgb")
	require.NoError(t, os.MkdirAll(lawDir, 0o755))
	html := `<html><body>
<h1>Bürgerliches Gesetzbuch</h1>
<div role="norm-id">§ 433</div>
<div role="norm-title">Vertragstypische Pflichten beim Kaufvertrag</div>
<p role="paragraph">Absatz eins Text.</p>
<p role="paragraph">Absatz zwei Text.</p>
</body></html>`
	require.NoError(t, os.WriteFile(filepath.Join(lawDir, "para-433.html"), []byte(html), 0o644))

	res, err := e.IngestCorpusTree(context.Background(), CorpusIngestInput{RootDir: corpusRoot})
	require.NoError(t, err)
	require.Len(t, res.Documents, 1)
	assert.Empty(t, res.Documents[0].Errors)
	assert.Equal(t, 3, res.Documents[0].ChunksCreated) // 1 norm + 2 paragraphs

	chunks := store.all(vectorstore.CollectionCorpus)
	assert.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.Equal(t, "bgb", c.Metadata["law_abbrev"])
		assert.NotContains(t, c.Metadata, "tenant_id")
	}
}

func TestIngestCorpusTree_SkipsAlreadyPresentChunks(t *testing.T) {
	store := newFakeStore()
	e, _, _ := newTestEngine(t, store)

	corpusRoot := t.TempDir()
	lawDir := filepath.Join(corpusRoot, "bgb")
	require.NoError(t, os.MkdirAll(lawDir, 0o755))
	html := `<html><body><h1>BGB</h1><div role="norm-id">§ 1</div><p role="paragraph">Only paragraph.</p></body></html>`
	require.NoError(t, os.WriteFile(filepath.Join(lawDir, "p1.html"), []byte(html), 0o644))

	_, err := e.IngestCorpusTree(context.Background(), CorpusIngestInput{RootDir: corpusRoot})
	require.NoError(t, err)
	firstCount := len(store.all(vectorstore.CollectionCorpus))

	res, err := e.IngestCorpusTree(context.Background(), CorpusIngestInput{RootDir: corpusRoot})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Documents[0].ChunksCreated) // every chunk_id already present
	assert.Equal(t, firstCount, len(store.all(vectorstore.CollectionCorpus)))
}

func TestConvertFilesToMarkdown_NonexistentFileReportsError(t *testing.T) {
	store := newFakeStore()
	e, _, _ := newTestEngine(t, store)

	results := e.ConvertFilesToMarkdown(ConvertFilesInput{Paths: []string{"missing.pdf"}})
	require.Len(t, results, 1)
	assert.NotEmpty(t, results[0].Error)
}
