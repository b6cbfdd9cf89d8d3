package ingestion

import (
	"context"
	"fmt"

	"github.com/l4b4r4b4b4/legal-mcp-go/internal/renderer"
)

// RenderIngestInput is flow 5's input: on-demand, single-document retrieval
// for SPA-backed jurisdictions. Never bulk-crawls — one URL per call.
type RenderIngestInput struct {
	TenantID     string
	CaseID       string
	Jurisdiction string
	URL          string
	// Ingest controls whether the rendered content is persisted into
	// user_documents; false performs extraction only (e.g. for preview).
	Ingest bool
}

// IngestRenderedDocument renders pageURL via the external headless-browser
// Renderer, extracts Markdown content, and optionally ingests it into a
// jurisdiction-scoped partition of user_documents on explicit caller
// request (§4.7 flow 5).
func (e *Engine) IngestRenderedDocument(ctx context.Context, r renderer.Renderer, in RenderIngestInput) (*renderer.Document, *Result, error) {
	if in.TenantID == "" {
		return nil, nil, ErrMissingTenantID
	}

	doc, err := r.Render(ctx, in.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("rendering %s: %w", in.URL, err)
	}

	if !in.Ingest {
		return doc, nil, nil
	}

	res, err := e.IngestPlainText(ctx, PlainTextIngestInput{
		TenantID:     in.TenantID,
		CaseID:       in.CaseID,
		Jurisdiction: in.Jurisdiction,
		Documents: []PlainTextDocument{
			{SourceName: doc.Title, Text: doc.Content},
		},
	})
	if err != nil {
		return doc, nil, err
	}

	return doc, &res, nil
}
