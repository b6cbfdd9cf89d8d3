// Package eventbus publishes best-effort ingestion-completed events over
// NATS. Publication never blocks or fails an ingestion call: a down or
// misconfigured broker degrades to a no-op, logged once per failure.
package eventbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subjects used for ingestion-completed events.
const (
	SubjectCorpusIngested    = "corpus.ingested"
	SubjectDocumentsIngested = "documents.ingested"
)

// IngestionEvent is the payload published on a completion subject.
type IngestionEvent struct {
	BatchID        string    `json:"batch_id"`
	TenantID       string    `json:"tenant_id,omitempty"`
	DocumentsTotal int       `json:"documents_total"`
	ChunksCreated  int       `json:"chunks_created"`
	ErrorCount     int       `json:"error_count"`
	CompletedAt    time.Time `json:"completed_at"`
}

// Publisher publishes ingestion-completed events. A nil *Publisher (no
// NATS configured) is a valid, inert value — Publish becomes a no-op.
type Publisher struct {
	conn   *nats.Conn
	logger *zap.Logger
}

// Connect dials url and returns a Publisher. Connection failure is
// returned to the caller, who may choose to run without one (see
// NewNoop).
func Connect(url string, logger *zap.Logger) (*Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	conn, err := nats.Connect(url, nats.Name("legal-mcp-go"), nats.MaxReconnects(5))
	if err != nil {
		return nil, fmt.Errorf("connecting to nats at %s: %w", url, err)
	}
	return &Publisher{conn: conn, logger: logger}, nil
}

// NewNoop returns a Publisher whose Publish calls are always no-ops, for
// deployments that don't configure a broker.
func NewNoop() *Publisher {
	return &Publisher{}
}

// Publish sends event on subject. Failures are logged, never returned: no
// ingestion call result depends on event delivery.
func (p *Publisher) Publish(subject string, event IngestionEvent) {
	if p == nil || p.conn == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("eventbus: failed to marshal ingestion event", zap.Error(err))
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Warn("eventbus: failed to publish ingestion event",
			zap.String("subject", subject), zap.Error(err))
	}
}

// Close drains and closes the underlying NATS connection, if any.
func (p *Publisher) Close() error {
	if p == nil || p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
