// Package embeddings implements C2, the embedding gateway: a fixed-dimension
// embed_batch operation backed by one or more external HTTP endpoints, with
// an in-process fallback model for when none are configured.
package embeddings

import (
	"context"
	"errors"
)

// ErrEmbeddingUnavailable is returned when no healthy endpoint (and no
// fallback model) can service a request.
var ErrEmbeddingUnavailable = errors.New("no healthy embedding endpoint available")

// ErrEmptyInput is returned for a zero-length batch.
var ErrEmptyInput = errors.New("embedding input batch is empty")

// Gateway is the C2 operation surface.
type Gateway interface {
	// EmbedBatch embeds texts, preserving input order in the output.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a single query string, which some models encode
	// differently than passages.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the fixed embedding width this gateway produces.
	Dimension() int

	// Close releases any held resources (in-process model memory, HTTP
	// connection pools).
	Close() error
}
