package vectorstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"
)

// ChromemConfig configures the embedded chromem-go backend.
type ChromemConfig struct {
	Path     string `koanf:"path"`
	Compress bool   `koanf:"compress"`
}

// ChromemStore implements Store over the embedded chromem-go database.
//
// chromem-go's where filter is already a flat map of string equalities,
// which chromem ANDs together internally — there is no bare-predicate vs.
// wrapped-conjunction ambiguity to defend against here the way there is
// for Qdrant (see qdrant.go); the contract is still honoured by never
// emitting more than one map for a given query.
type ChromemStore struct {
	db     *chromem.DB
	logger *zap.Logger

	mu          sync.Mutex
	collections map[string]*chromem.Collection

	// metaIndex mirrors each chunk's metadata, keyed by collection then
	// chunk_id. chromem-go has no count-with-filter primitive, so Count
	// walks this index rather than the embedded database.
	metaIndex map[string]map[string]map[string]any
}

// NewChromemStore opens (or creates) a persistent chromem-go database at
// config.Path.
func NewChromemStore(config ChromemConfig, logger *zap.Logger) (*ChromemStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Path == "" {
		return nil, fmt.Errorf("%w: path is required", ErrInvalidWhere)
	}
	path, err := expandPath(config.Path)
	if err != nil {
		return nil, fmt.Errorf("expanding chromem path: %w", err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating chromem directory %s: %w", path, err)
	}

	db, err := chromem.NewPersistentDB(path, config.Compress)
	if err != nil {
		return nil, fmt.Errorf("opening chromem db: %w", err)
	}

	return &ChromemStore{
		db:          db,
		logger:      logger,
		collections: make(map[string]*chromem.Collection),
		metaIndex:   make(map[string]map[string]map[string]any),
	}, nil
}

// noopEmbeddingFunc satisfies chromem's collection constructor; every Chunk
// arrives here already embedded (C2 runs upstream of C5), so chromem is
// never asked to compute one.
func noopEmbeddingFunc(_ context.Context, _ string) ([]float32, error) {
	return nil, fmt.Errorf("chromem embedding func invoked: embeddings must be precomputed")
}

func (s *ChromemStore) collection(name string) (*chromem.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.collections[name]; ok {
		return c, nil
	}
	c, err := s.db.GetOrCreateCollection(name, nil, noopEmbeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCollectionNotFound, err)
	}
	s.collections[name] = c
	return c, nil
}

func (s *ChromemStore) Upsert(ctx context.Context, collection string, chunks []Chunk) error {
	if len(chunks) == 0 {
		return ErrEmptyChunks
	}

	coll, err := s.collection(collection)
	if err != nil {
		return err
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for _, c := range chunks {
		docs = append(docs, chromem.Document{
			ID:        c.ChunkID,
			Content:   c.Content,
			Embedding: c.Embedding,
			Metadata:  metadataToStrings(c.Metadata),
		})
	}

	if err := coll.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("upserting into %s: %w", collection, err)
	}

	s.mu.Lock()
	if s.metaIndex[collection] == nil {
		s.metaIndex[collection] = make(map[string]map[string]any)
	}
	for _, c := range chunks {
		s.metaIndex[collection][c.ChunkID] = c.Metadata
	}
	s.mu.Unlock()

	return nil
}

func (s *ChromemStore) Search(ctx context.Context, collection string, queryVector []float32, k int, where Where) ([]Hit, error) {
	if err := validateK(k); err != nil {
		return nil, err
	}
	if err := validateWhere(where); err != nil {
		return nil, err
	}
	if err := requireTenantScope(collection, where); err != nil {
		return nil, err
	}

	coll, err := s.collection(collection)
	if err != nil {
		return nil, err
	}

	count := coll.Count()
	if count == 0 {
		return []Hit{}, nil
	}
	effectiveK := k
	if effectiveK > count {
		effectiveK = count
	}

	results, err := coll.QueryEmbedding(ctx, queryVector, effectiveK, metadataToStrings(where), nil)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", collection, err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, Hit{
			ChunkID:    r.ID,
			DocumentID: r.Metadata["document_id"],
			Similarity: r.Similarity,
			Excerpt:    r.Content,
			Metadata:   stringsToMetadata(r.Metadata),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	return hits, nil
}

func (s *ChromemStore) Delete(ctx context.Context, collection string, where Where) error {
	if err := requireTenantScope(collection, where); err != nil {
		return err
	}
	coll, err := s.collection(collection)
	if err != nil {
		return err
	}
	matched, err := s.matchingChunkIDs(collection, where)
	if err != nil {
		return err
	}
	if len(matched) == 0 {
		return nil
	}
	if err := coll.Delete(ctx, nil, nil, matched...); err != nil {
		return fmt.Errorf("deleting from %s: %w", collection, err)
	}

	s.mu.Lock()
	for _, id := range matched {
		delete(s.metaIndex[collection], id)
	}
	s.mu.Unlock()

	return nil
}

func (s *ChromemStore) Count(_ context.Context, collection string, where Where) (int, error) {
	if _, err := s.collection(collection); err != nil {
		return 0, err
	}
	matched, err := s.matchingChunkIDs(collection, where)
	if err != nil {
		return 0, err
	}
	return len(matched), nil
}

// matchingChunkIDs scans the metadata mirror for collection and returns the
// chunk_ids whose metadata satisfies every predicate in where (a
// conjunction, per the filter composition contract).
func (s *ChromemStore) matchingChunkIDs(collection string, where Where) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.metaIndex[collection]
	var matched []string
	for chunkID, meta := range index {
		if matchesWhere(meta, where) {
			matched = append(matched, chunkID)
		}
	}
	sort.Strings(matched)
	return matched, nil
}

func matchesWhere(meta map[string]any, where Where) bool {
	for k, v := range where {
		if stringifyScalar(meta[k]) != stringifyScalar(v) {
			return false
		}
	}
	return true
}

func (s *ChromemStore) Close() error {
	return nil
}

func metadataToStrings(m map[string]any) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = stringifyScalar(v)
	}
	return out
}

func stringsToMetadata(m map[string]string) map[string]any {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func stringifyScalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// expandPath resolves a leading "~" in a configured path, matching how the
// rest of the core's config handles home-relative defaults.
func expandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, path[1:]), nil
}
