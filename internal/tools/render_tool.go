package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/l4b4r4b4b4/legal-mcp-go/internal/ingestion"
)

// ErrRendererUnavailable is returned when no external headless-browser
// collaborator was configured for this process.
var ErrRendererUnavailable = errors.New("tools: no renderer configured")

// RetrieveRenderedDocumentInput validates retrieve_rendered_document
// (§4.7 flow 5): single-document, user-initiated retrieval for
// SPA-backed jurisdictions. Never bulk-crawls.
type RetrieveRenderedDocumentInput struct {
	TenantID     string
	CaseID       string
	Jurisdiction string
	URL          string
	Ingest       bool
}

// RetrieveRenderedDocumentOutput reports the extracted document plus an
// ingestion summary when Ingest was requested.
type RetrieveRenderedDocumentOutput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// RetrieveRenderedDocument renders in.URL via the external renderer,
// extracts content, and optionally ingests it into a jurisdiction-scoped
// partition of user_documents on explicit request.
func (s *Surface) RetrieveRenderedDocument(ctx context.Context, in RetrieveRenderedDocumentInput) (Envelope, error) {
	if s.renderer == nil {
		return Envelope{}, ErrRendererUnavailable
	}
	if err := requireNonEmpty("tenant_id", in.TenantID); err != nil {
		return Envelope{}, err
	}
	if err := requireNonEmpty("url", in.URL); err != nil {
		return Envelope{}, err
	}

	doc, res, err := s.engine.IngestRenderedDocument(ctx, s.renderer, ingestion.RenderIngestInput{
		TenantID:     in.TenantID,
		CaseID:       in.CaseID,
		Jurisdiction: in.Jurisdiction,
		URL:          in.URL,
		Ingest:       in.Ingest,
	})
	if err != nil {
		return Envelope{}, fmt.Errorf("retrieve_rendered_document: %w", err)
	}

	summary := map[string]any{"url": in.URL, "ingested": res != nil}
	if res != nil {
		summary["batch_id"] = res.BatchID
		summary["documents"] = res.Documents
	}

	return s.wrap("user:"+in.TenantID+"/retrieve_rendered_document", RetrieveRenderedDocumentOutput{
		Title:   doc.Title,
		Content: doc.Content,
	}, 1, summary)
}
