package tools

import (
	"context"
	"fmt"

	"github.com/l4b4r4b4b4/legal-mcp-go/internal/ingestion"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/query"
)

// IngestDocumentInput is one document within an ingest_documents call.
type IngestDocumentInput struct {
	SourceName string
	Text       string
	DocumentID string
}

// IngestDocumentsInput validates ingest_documents (§4.7 flow 2, §4.9).
type IngestDocumentsInput struct {
	TenantID  string
	CaseID    string
	Tags      []string
	Documents []IngestDocumentInput
	Replace   bool
}

// IngestDocuments runs flow 2: deterministic chunk -> embed -> upsert into
// user_documents, bound to TenantID.
func (s *Surface) IngestDocuments(ctx context.Context, in IngestDocumentsInput) (Envelope, error) {
	if err := requireNonEmpty("tenant_id", in.TenantID); err != nil {
		return Envelope{}, err
	}
	if len(in.Documents) == 0 {
		return Envelope{}, invalid("documents", SubcodeMissingField, "at least one document is required")
	}

	docs := make([]ingestion.PlainTextDocument, len(in.Documents))
	for i, d := range in.Documents {
		if d.SourceName == "" {
			return Envelope{}, invalid("documents[].source_name", SubcodeMissingField, "source_name is required")
		}
		docs[i] = ingestion.PlainTextDocument{SourceName: d.SourceName, Text: d.Text, DocumentID: d.DocumentID}
	}

	res, err := s.engine.IngestPlainText(ctx, ingestion.PlainTextIngestInput{
		TenantID:  in.TenantID,
		CaseID:    in.CaseID,
		Tags:      in.Tags,
		Documents: docs,
		Replace:   in.Replace,
	})
	if err != nil {
		return Envelope{}, fmt.Errorf("ingest_documents: %w", err)
	}

	return s.wrap("user:"+in.TenantID+"/ingest_documents", res.Documents, len(res.Documents), map[string]any{
		"batch_id": res.BatchID,
		"total":    res.Total,
	})
}

// IngestMarkdownFilesInput validates ingest_markdown_files (§4.7 flow 3, §4.9).
type IngestMarkdownFilesInput struct {
	TenantID string
	CaseID   string
	Tags     []string
	Paths    []string
	Replace  bool
}

// IngestMarkdownFiles runs flow 3: resolve each path via C1, read as
// UTF-8 (lossy), then follow flow 2.
func (s *Surface) IngestMarkdownFiles(ctx context.Context, in IngestMarkdownFilesInput) (Envelope, error) {
	if err := requireNonEmpty("tenant_id", in.TenantID); err != nil {
		return Envelope{}, err
	}
	if len(in.Paths) == 0 {
		return Envelope{}, invalid("paths", SubcodeMissingField, "at least one path is required")
	}

	res, err := s.engine.IngestMarkdownFiles(ctx, ingestion.MarkdownFileIngestInput{
		TenantID: in.TenantID,
		CaseID:   in.CaseID,
		Tags:     in.Tags,
		Paths:    in.Paths,
		Replace:  in.Replace,
	})
	if err != nil {
		return Envelope{}, fmt.Errorf("ingest_markdown_files: %w", err)
	}

	return s.wrap("user:"+in.TenantID+"/ingest_markdown_files", res.Documents, len(res.Documents), map[string]any{
		"batch_id": res.BatchID,
		"total":    res.Total,
	})
}

// IngestPDFFilesInput validates ingest_pdf_files (§4.7 flow 4, §4.9).
type IngestPDFFilesInput struct {
	TenantID  string
	CaseID    string
	Tags      []string
	Paths     []string
	Overwrite *bool // nil defaults to true, per §4.10
	Replace   bool
}

// IngestPDFFiles runs flow 4: convert each PDF to a Markdown sidecar via
// C10, then follow flow 3.
func (s *Surface) IngestPDFFiles(ctx context.Context, in IngestPDFFilesInput) (Envelope, error) {
	if err := requireNonEmpty("tenant_id", in.TenantID); err != nil {
		return Envelope{}, err
	}
	if len(in.Paths) == 0 {
		return Envelope{}, invalid("paths", SubcodeMissingField, "at least one path is required")
	}

	overwrite := true
	if in.Overwrite != nil {
		overwrite = *in.Overwrite
	}

	res, err := s.engine.IngestPDFFiles(ctx, ingestion.PDFIngestInput{
		TenantID:  in.TenantID,
		CaseID:    in.CaseID,
		Tags:      in.Tags,
		Paths:     in.Paths,
		Overwrite: overwrite,
		Replace:   in.Replace,
	})
	if err != nil {
		return Envelope{}, fmt.Errorf("ingest_pdf_files: %w", err)
	}

	return s.wrap("user:"+in.TenantID+"/ingest_pdf_files", res.Documents, len(res.Documents), map[string]any{
		"batch_id": res.BatchID,
		"total":    res.Total,
	})
}

// ConvertFilesToMarkdownInput validates convert_files_to_markdown (§4.10, §4.9).
type ConvertFilesToMarkdownInput struct {
	Paths     []string
	Overwrite *bool
	CharCap   int
}

// ConvertFilesToMarkdown runs C10 standalone, writing Markdown sidecars
// without ingesting them.
func (s *Surface) ConvertFilesToMarkdown(in ConvertFilesToMarkdownInput) (Envelope, error) {
	if len(in.Paths) == 0 {
		return Envelope{}, invalid("paths", SubcodeMissingField, "at least one path is required")
	}
	overwrite := true
	if in.Overwrite != nil {
		overwrite = *in.Overwrite
	}
	charCap := in.CharCap
	if charCap <= 0 {
		charCap = pdfDefaultCharCap
	}

	results := s.engine.ConvertFilesToMarkdown(ingestion.ConvertFilesInput{
		Paths:     in.Paths,
		Overwrite: overwrite,
		CharCap:   charCap,
	})

	items := make([]any, len(results))
	failed := 0
	for i, r := range results {
		items[i] = r
		if r.Error != "" {
			failed++
		}
	}

	return s.wrap("public:convert_files_to_markdown", items, len(results), map[string]any{
		"succeeded": len(results) - failed,
		"failed":    failed,
	})
}

// SearchDocumentsInput validates search_documents (§4.8 user-document search, §4.9).
type SearchDocumentsInput struct {
	Query        string
	TenantID     string
	CaseID       string
	DocumentID   string
	SourceName   string
	Tag          string
	NResults     int
	ExcerptChars int
}

// SearchDocuments runs a tenant-scoped semantic search over user_documents.
func (s *Surface) SearchDocuments(ctx context.Context, in SearchDocumentsInput) (Envelope, error) {
	if err := requireQuery(in.Query); err != nil {
		return Envelope{}, err
	}
	if err := requireNonEmpty("tenant_id", in.TenantID); err != nil {
		return Envelope{}, err
	}

	hits, err := s.query.UserDocumentSearch(ctx, query.UserDocumentSearchInput{
		Query:        in.Query,
		TenantID:     in.TenantID,
		CaseID:       in.CaseID,
		DocumentID:   in.DocumentID,
		SourceName:   in.SourceName,
		Tag:          in.Tag,
		NResults:     in.NResults,
		ExcerptChars: in.ExcerptChars,
	})
	if err != nil {
		return Envelope{}, fmt.Errorf("search_documents: %w", err)
	}

	items := make([]any, len(hits))
	for i, h := range hits {
		items[i] = h
	}
	return s.wrap("user:"+in.TenantID+"/search_documents", items, len(hits), map[string]any{"query": in.Query})
}
