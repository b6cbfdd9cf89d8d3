// Package ingestion implements C7, the ingestion engine: five flows built
// from the same primitives (C1 path resolution, C2 embedding, C3 parsing
// and chunking, C5 persistence, C10 PDF conversion), each returning a
// bounded per-document summary instead of raw content.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/l4b4r4b4b4/legal-mcp-go/internal/chunking"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/eventbus"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/metrics"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/redact"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/safepath"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/vectorstore"
)

// Source kinds recorded on every chunk's metadata (§3).
const (
	SourceKindCorpusNorm   = "corpus-norm"
	SourceKindPlainText    = "plain-text"
	SourceKindMarkdownFile = "markdown-file"
	SourceKindPDFDerived   = "pdf-derived"
)

// DefaultWorkerPoolSize bounds parallel C2 calls across an ingestion batch (§4.7, §5).
const DefaultWorkerPoolSize = 16

// Sentinels.
var (
	ErrEmptyBatch      = errors.New("ingestion: document batch is empty")
	ErrMissingTenantID = errors.New("ingestion: tenant_id is required for user-document ingestion")
)

// embedder is the subset of embeddings.Gateway the engine depends on.
type embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// DocumentSummary is the per-document result recorded for every ingested
// document, regardless of flow (§4.7 "Result shape").
type DocumentSummary struct {
	DocumentID    string   `json:"document_id"`
	SourceName    string   `json:"source_name"`
	ChunksCreated int      `json:"chunks_created"`
	ChunksAdded   int      `json:"chunks_added"`
	Errors        []string `json:"errors,omitempty"`
}

// Result is the batch-level outcome of an ingestion call.
type Result struct {
	BatchID   string            `json:"batch_id"`
	Total     int               `json:"total"`
	Documents []DocumentSummary `json:"documents"`
}

// Config configures an Engine.
type Config struct {
	// WorkerPoolSize bounds concurrent per-document work. 0 uses DefaultWorkerPoolSize.
	WorkerPoolSize int
}

func (c *Config) applyDefaults() {
	if c.WorkerPoolSize <= 0 {
		c.WorkerPoolSize = DefaultWorkerPoolSize
	}
}

// Engine coordinates C1–C5 and C10 for every ingestion flow.
type Engine struct {
	store     vectorstore.Store
	embedder  embedder
	resolver  *safepath.Resolver
	publisher *eventbus.Publisher
	metrics   *metrics.Registry
	logger    *zap.Logger
	pool      int
}

// New builds an Engine. publisher may be nil (treated as a no-op, see
// internal/eventbus); reg may be nil (metrics recording becomes a no-op).
func New(store vectorstore.Store, emb embedder, resolver *safepath.Resolver, publisher *eventbus.Publisher, reg *metrics.Registry, logger *zap.Logger, cfg Config) *Engine {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:     store,
		embedder:  emb,
		resolver:  resolver,
		publisher: publisher,
		metrics:   reg,
		logger:    logger,
		pool:      cfg.WorkerPoolSize,
	}
}

// newBatchID generates a random batch identifier. Ingestion batch IDs are
// opaque labels, not content-derived, so a random UUID is appropriate (they
// never feed determinism invariants, unlike document_id/chunk_id).
func newBatchID() string {
	return "batch_" + uuid.NewString()
}

// runPool runs fn(item) for every item in items with at most e.pool
// concurrent calls, collecting results in input order. Per-item panics are
// not recovered here; callers must keep fn free of panics on ordinary
// per-document failures (those are reported in the returned value).
func runPool[T any, R any](ctx context.Context, poolSize int, items []T, fn func(context.Context, T) R) []R {
	results := make([]R, len(items))
	sem := make(chan struct{}, poolSize)
	var wg sync.WaitGroup

	for i, item := range items {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, item T) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = fn(ctx, item)
		}(i, item)
	}
	wg.Wait()
	return results
}

// buildTagMetadata derives tags_csv (sorted, lowercased, joined) and the
// single-tag escape hatch `tag`, populated only when exactly one tag is
// supplied (§3).
func buildTagMetadata(tags []string) (tagsCSV string, singleTag string) {
	if len(tags) == 0 {
		return "", ""
	}
	normalised := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			normalised = append(normalised, t)
		}
	}
	if len(normalised) == 0 {
		return "", ""
	}
	sort.Strings(normalised)
	tagsCSV = strings.Join(normalised, ",")
	if len(normalised) == 1 {
		singleTag = normalised[0]
	}
	return tagsCSV, singleTag
}

// embedAndUpsert embeds the content of chunks in one batched C2 call (in
// document order, so output order matches input order per the gateway
// contract) and upserts them into collection. Returns the number of chunks
// actually upserted (len(chunks) on success).
func (e *Engine) embedAndUpsert(ctx context.Context, collection string, chunks []vectorstore.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := e.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding %d chunks: %w", len(chunks), err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedding gateway returned %d vectors for %d inputs", len(vectors), len(chunks))
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	if err := e.store.Upsert(ctx, collection, chunks); err != nil {
		return 0, fmt.Errorf("upserting %d chunks into %s: %w", len(chunks), collection, err)
	}

	if e.metrics != nil {
		e.metrics.IngestChunksTotal.Add(float64(len(chunks)))
	}
	return len(chunks), nil
}

// recordIngestMetrics updates the ambient throughput/error counters for flow.
func (e *Engine) recordIngestMetrics(flow string, started time.Time, docs int, errs int) {
	if e.metrics == nil {
		return
	}
	e.metrics.IngestDocumentsTotal.WithLabelValues(flow).Add(float64(docs))
	if errs > 0 {
		e.metrics.IngestErrorsTotal.WithLabelValues(flow).Add(float64(errs))
	}
	e.metrics.IngestDuration.WithLabelValues(flow).Observe(time.Since(started).Seconds())
}

// publishCompletion best-effort publishes an ingestion-completed event;
// failures never affect the returned Result (see internal/eventbus).
func (e *Engine) publishCompletion(subject, batchID, tenantID string, res Result) {
	if e.publisher == nil {
		return
	}
	errCount := 0
	for _, d := range res.Documents {
		errCount += len(d.Errors)
	}
	e.publisher.Publish(subject, eventbus.IngestionEvent{
		BatchID:        batchID,
		TenantID:       tenantID,
		DocumentsTotal: len(res.Documents),
		ChunksCreated:  sumChunksCreated(res.Documents),
		ErrorCount:     errCount,
		CompletedAt:    time.Now(),
	})
}

func sumChunksCreated(docs []DocumentSummary) int {
	total := 0
	for _, d := range docs {
		total += d.ChunksCreated
	}
	return total
}

// summarizeErr bounds and redacts an error for inclusion in a per-document
// summary (§7: "no raw content").
func summarizeErr(err error) string {
	return redact.Error(err, redact.MaxSummaryLen)
}
