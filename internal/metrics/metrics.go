// Package metrics holds the Prometheus collectors shared across the
// retrieval core: ingestion throughput, cache hit/miss, embedding gateway
// failover, and query latency. All metrics are registered once via
// sync.Once and exposed through a single Registry value so callers never
// touch the global Prometheus registry directly.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "legal_mcp"

var (
	global     *Registry
	globalOnce sync.Once
)

// Registry holds every collector the retrieval core records against.
type Registry struct {
	// Ingestion (C7)
	IngestDocumentsTotal *prometheus.CounterVec
	IngestChunksTotal    prometheus.Counter
	IngestErrorsTotal    *prometheus.CounterVec
	IngestDuration       *prometheus.HistogramVec

	// Cache (C6)
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
	CacheEvictions   prometheus.Counter
	CacheSize        prometheus.Gauge

	// Embedding gateway (C2)
	EmbeddingRequestsTotal *prometheus.CounterVec
	EmbeddingFailoverTotal *prometheus.CounterVec
	EmbeddingDuration      *prometheus.HistogramVec

	// Query engine (C8)
	QueryDuration *prometheus.HistogramVec
	QueryResultsN *prometheus.HistogramVec
	QueryErrors   *prometheus.CounterVec
}

// Get returns the process-wide Registry, registering its collectors with
// the default Prometheus registry on first call.
func Get() *Registry {
	globalOnce.Do(func() {
		global = newRegistry(prometheus.DefaultRegisterer)
	})
	return global
}

// newRegistry builds a Registry whose collectors are registered against
// reg. Tests pass a fresh prometheus.NewRegistry() so repeated calls don't
// collide on the global default registerer.
func newRegistry(reg prometheus.Registerer) *Registry {
	f := promauto.With(reg)
	return &Registry{
		IngestDocumentsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "documents_total",
				Help:      "Total number of documents ingested, by source flow",
			},
			[]string{"flow"}, // source kind: corpus-norm, plain-text, markdown-file, pdf-derived
		),
		IngestChunksTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "chunks_total",
				Help:      "Total number of chunks produced across all ingestion flows",
			},
		),
		IngestErrorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "errors_total",
				Help:      "Total number of per-document ingestion errors, by source flow",
			},
			[]string{"flow"},
		),
		IngestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "batch_duration_seconds",
				Help:      "Duration of an ingestion batch, by source flow",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"flow"},
		),

		CacheHitsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "hits_total",
				Help:      "Total number of cache Get calls resolved against a live entry",
			},
		),
		CacheMissesTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "misses_total",
				Help:      "Total number of cache Get calls for an absent or expired ref",
			},
		),
		CacheEvictions: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "evictions_total",
				Help:      "Total number of entries evicted, by TTL expiry or LRU capacity pressure",
			},
		),
		CacheSize: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "entries",
				Help:      "Current number of entries held in the reference cache",
			},
		),

		EmbeddingRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "embedding",
				Name:      "requests_total",
				Help:      "Total number of embedding requests, by endpoint and result",
			},
			[]string{"endpoint", "result"}, // result: success, error
		),
		EmbeddingFailoverTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "embedding",
				Name:      "failover_total",
				Help:      "Total number of times the gateway failed over away from an endpoint",
			},
			[]string{"from_endpoint"},
		),
		EmbeddingDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "embedding",
				Name:      "request_duration_seconds",
				Help:      "Duration of an embedding request, by endpoint",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),

		QueryDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "query",
				Name:      "duration_seconds",
				Help:      "Duration of a search query, by mode",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"mode"}, // corpus, user_documents
		),
		QueryResultsN: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "query",
				Name:      "results_returned",
				Help:      "Number of hits returned per query, by mode",
				Buckets:   []float64{0, 1, 2, 5, 10, 20, 30, 50},
			},
			[]string{"mode"},
		),
		QueryErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "query",
				Name:      "errors_total",
				Help:      "Total number of query failures, by mode",
			},
			[]string{"mode"},
		),
	}
}

// RecordCacheResult increments the hit or miss counter and updates the
// current entry-count gauge.
func (r *Registry) RecordCacheResult(hit bool, size int) {
	if hit {
		r.CacheHitsTotal.Inc()
	} else {
		r.CacheMissesTotal.Inc()
	}
	r.CacheSize.Set(float64(size))
}

// RecordEmbeddingFailover records a failover away from endpoint.
func (r *Registry) RecordEmbeddingFailover(endpoint string) {
	r.EmbeddingFailoverTotal.WithLabelValues(endpoint).Inc()
}
