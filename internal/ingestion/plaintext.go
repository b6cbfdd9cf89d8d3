package ingestion

import (
	"context"
	"time"

	"github.com/l4b4r4b4b4/legal-mcp-go/internal/chunking"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/vectorstore"
)

// PlainTextDocument is one in-memory document submitted to IngestPlainText.
type PlainTextDocument struct {
	SourceName string
	Text       string
	// DocumentID overrides the deterministic derivation when non-empty.
	DocumentID string
}

// PlainTextIngestInput is flow 2's input.
type PlainTextIngestInput struct {
	TenantID  string
	CaseID    string
	Tags      []string
	Documents []PlainTextDocument

	// ChunkParams overrides chunking.DefaultParams() when SizeChars > 0.
	ChunkParams chunking.Params

	// Replace deletes all existing chunks for (tenant_id, case_id?, document_id)
	// before upserting each document, for idempotent re-ingest.
	Replace bool

	// SourceKind overrides SourceKindPlainText when this call is reached via
	// flow 3 (markdown-file) or flow 4 (pdf-derived), which follow flow 2
	// after reading their source from disk (§4.7).
	SourceKind string

	// Jurisdiction, when set, partitions a flow-5 rendered document into a
	// jurisdiction-scoped corner of user_documents (§4.7 flow 5). Still
	// requires TenantID: §3's tenant invariant applies to every
	// user_documents chunk regardless of flow.
	Jurisdiction string
}

// IngestPlainText implements flow 2: deterministic chunk -> embed -> upsert
// into user_documents, for an in-memory document list bound to a tenant.
// Whitespace-only documents are rejected individually without failing the
// batch (§4.7).
func (e *Engine) IngestPlainText(ctx context.Context, in PlainTextIngestInput) (Result, error) {
	if in.TenantID == "" {
		return Result{}, ErrMissingTenantID
	}
	if len(in.Documents) == 0 {
		return Result{}, ErrEmptyBatch
	}

	started := time.Now()
	params := in.ChunkParams
	if params.SizeChars <= 0 {
		params = chunking.DefaultParams()
	}
	tagsCSV, singleTag := buildTagMetadata(in.Tags)
	sourceKind := in.SourceKind
	if sourceKind == "" {
		sourceKind = SourceKindPlainText
	}

	summaries := runPool(ctx, e.pool, in.Documents, func(ctx context.Context, doc PlainTextDocument) DocumentSummary {
		return e.ingestOnePlainTextDoc(ctx, in, doc, params, tagsCSV, singleTag, sourceKind, in.Jurisdiction)
	})

	res := Result{BatchID: newBatchID(), Total: len(summaries), Documents: summaries}
	errCount := 0
	for _, s := range summaries {
		errCount += len(s.Errors)
	}
	e.recordIngestMetrics(sourceKind, started, len(summaries), errCount)
	e.publishCompletion("documents.ingested", res.BatchID, in.TenantID, res)
	return res, nil
}

func (e *Engine) ingestOnePlainTextDoc(ctx context.Context, in PlainTextIngestInput, doc PlainTextDocument, params chunking.Params, tagsCSV, singleTag, sourceKind, jurisdiction string) DocumentSummary {
	documentID := doc.DocumentID
	if documentID == "" {
		documentID = chunking.DeterministicDocumentID(doc.SourceName, doc.Text)
	}
	summary := DocumentSummary{DocumentID: documentID, SourceName: doc.SourceName}

	parts, err := chunking.Split(doc.Text, params)
	if err != nil {
		summary.Errors = append(summary.Errors, summarizeErr(err))
		return summary
	}
	summary.ChunksCreated = len(parts)

	if in.Replace {
		where := vectorstore.Where{"tenant_id": in.TenantID, "document_id": documentID}
		if in.CaseID != "" {
			where["case_id"] = in.CaseID
		}
		if err := e.store.Delete(ctx, vectorstore.CollectionUserDocuments, where); err != nil {
			summary.Errors = append(summary.Errors, summarizeErr(err))
			return summary
		}
	}

	chunks := make([]vectorstore.Chunk, len(parts))
	for i, p := range parts {
		chunks[i] = vectorstore.Chunk{
			ChunkID:    chunking.ChunkID(documentID, p.Index),
			DocumentID: documentID,
			Content:    p.Content,
			Metadata:   plainTextMetadata(in.TenantID, in.CaseID, doc.SourceName, documentID, tagsCSV, singleTag, sourceKind, jurisdiction),
		}
	}

	added, err := e.embedAndUpsert(ctx, vectorstore.CollectionUserDocuments, chunks)
	if err != nil {
		summary.Errors = append(summary.Errors, summarizeErr(err))
		return summary
	}
	summary.ChunksAdded = added
	return summary
}

func plainTextMetadata(tenantID, caseID, sourceName, documentID, tagsCSV, singleTag, sourceKind, jurisdiction string) map[string]any {
	m := map[string]any{
		"tenant_id":   tenantID,
		"document_id": documentID,
		"source_name": sourceName,
		"source_kind": sourceKind,
		"ingested_at": time.Now().UTC().Format(time.RFC3339),
	}
	if caseID != "" {
		m["case_id"] = caseID
	}
	if tagsCSV != "" {
		m["tags_csv"] = tagsCSV
	}
	if singleTag != "" {
		m["tag"] = singleTag
	}
	if jurisdiction != "" {
		// jurisdiction_scope, not jurisdiction: the latter is reserved for
		// shared-corpus chunks and never coexists with tenant_id (§3
		// invariant 3). A flow-5 rendered document is still a tenant-owned
		// user_documents chunk, merely partitioned within that tenant.
		m["jurisdiction_scope"] = jurisdiction
	}
	return m
}
