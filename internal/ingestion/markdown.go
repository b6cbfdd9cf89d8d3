package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/l4b4r4b4b4/legal-mcp-go/internal/chunking"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/safepath"
)

// MarkdownSuffixes is the allowlisted suffix set for flow 3.
var MarkdownSuffixes = []string{".md", ".markdown"}

// MarkdownFileIngestInput is flow 3's input.
type MarkdownFileIngestInput struct {
	TenantID    string
	CaseID      string
	Tags        []string
	Paths       []string // relative to the allowlisted ingest root
	ChunkParams chunking.Params
	Replace     bool

	// SourceKind overrides SourceKindMarkdownFile when this call is reached
	// via flow 4 (pdf-derived), which follows flow 3 after writing its
	// Markdown sidecar (§4.7).
	SourceKind string
}

// IngestMarkdownFiles implements flow 3: resolve each path via C1, read
// UTF-8 with lossy replacement for invalid bytes, then follow flow 2 keyed
// by source_name = basename.
func (e *Engine) IngestMarkdownFiles(ctx context.Context, in MarkdownFileIngestInput) (Result, error) {
	if in.TenantID == "" {
		return Result{}, ErrMissingTenantID
	}
	if len(in.Paths) == 0 {
		return Result{}, ErrEmptyBatch
	}

	docs := make([]PlainTextDocument, 0, len(in.Paths))
	var readErrors []DocumentSummary

	for _, relPath := range in.Paths {
		resolved, err := e.resolver.Resolve(relPath, MarkdownSuffixes, safepath.DefaultTextSizeCap)
		if err != nil {
			readErrors = append(readErrors, DocumentSummary{
				SourceName: filepath.Base(relPath),
				Errors:     []string{summarizeErr(err)},
			})
			continue
		}

		raw, err := os.ReadFile(resolved)
		if err != nil {
			readErrors = append(readErrors, DocumentSummary{
				SourceName: filepath.Base(resolved),
				Errors:     []string{summarizeErr(err)},
			})
			continue
		}

		docs = append(docs, PlainTextDocument{
			SourceName: filepath.Base(resolved),
			Text:       toValidUTF8(raw),
		})
	}

	if len(docs) == 0 {
		return Result{
			BatchID:   newBatchID(),
			Total:     len(readErrors),
			Documents: readErrors,
		}, nil
	}

	sourceKind := in.SourceKind
	if sourceKind == "" {
		sourceKind = SourceKindMarkdownFile
	}
	res, err := e.IngestPlainText(ctx, PlainTextIngestInput{
		TenantID:    in.TenantID,
		CaseID:      in.CaseID,
		Tags:        in.Tags,
		Documents:   docs,
		ChunkParams: in.ChunkParams,
		Replace:     in.Replace,
		SourceKind:  sourceKind,
	})
	if err != nil {
		return Result{}, err
	}

	res.Documents = append(readErrors, res.Documents...)
	res.Total = len(res.Documents)
	return res, nil
}

// toValidUTF8 replaces invalid byte sequences with the Unicode replacement
// character rather than failing the read (§4.7 "lossy replacement").
func toValidUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var sb []rune
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		sb = append(sb, r)
		b = b[size:]
	}
	return string(sb)
}
