package ingestion

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/l4b4r4b4b4/legal-mcp-go/internal/chunking"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/pdfconvert"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/safepath"
)

// PDFSuffixes is the allowlisted suffix set for PDF-derived flows.
var PDFSuffixes = []string{".pdf"}

// ErrOutputExists is returned by ConvertFilesToMarkdown when the sidecar
// Markdown file already exists and overwrite is false.
var ErrOutputExists = errors.New("ingestion: markdown sidecar already exists")

// PDFIngestInput is flow 4's input.
type PDFIngestInput struct {
	TenantID    string
	CaseID      string
	Tags        []string
	Paths []string // relative to the allowlisted ingest root
	// Overwrite controls whether an existing Markdown sidecar is replaced.
	// §4.10 defaults this to true at the tool-dispatch boundary; the engine
	// honours whatever the caller passes.
	Overwrite   bool
	ChunkParams chunking.Params
	Replace     bool
}

// ConvertFilesInput is the input for the standalone convert_files_to_markdown tool.
type ConvertFilesInput struct {
	Paths     []string
	Overwrite bool
	CharCap   int
}

// ConvertFileResult is one file's conversion outcome (never the Markdown body, §4.10).
type ConvertFileResult struct {
	InputPath  string
	OutputPath string
	BytesIn    int64
	BytesOut   int64
	ElapsedMS  int64
	Pages      int
	Error      string
}

// ConvertFilesToMarkdown resolves each PDF path via C1, converts it via
// C10, and writes the Markdown sidecar — without ingesting it. Per-file
// failures do not abort the batch.
func (e *Engine) ConvertFilesToMarkdown(in ConvertFilesInput) []ConvertFileResult {
	results := make([]ConvertFileResult, len(in.Paths))
	for i, relPath := range in.Paths {
		results[i] = e.convertOneFile(relPath, in.Overwrite, in.CharCap)
	}
	return results
}

func (e *Engine) convertOneFile(relPath string, overwrite bool, charCap int) ConvertFileResult {
	result := ConvertFileResult{InputPath: relPath}

	resolved, err := e.resolver.Resolve(relPath, PDFSuffixes, safepath.DefaultTextSizeCap)
	if err != nil {
		result.Error = summarizeErr(err)
		return result
	}

	info, err := os.Stat(resolved)
	if err != nil {
		result.Error = summarizeErr(err)
		return result
	}

	sidecarPath := markdownSidecarPath(resolved)
	result.OutputPath = e.relativeToRoot(sidecarPath)

	if !overwrite {
		if _, err := os.Stat(sidecarPath); err == nil {
			result.Error = summarizeErr(ErrOutputExists)
			return result
		}
	}

	md, meta, err := pdfconvert.Convert(resolved, info.Size(), pdfconvert.Options{CharCap: charCap})
	if err != nil {
		result.Error = summarizeErr(err)
		return result
	}

	if err := os.WriteFile(sidecarPath, []byte(md), 0o644); err != nil {
		result.Error = summarizeErr(err)
		return result
	}

	result.BytesIn = meta.BytesIn
	result.BytesOut = meta.BytesOut
	result.ElapsedMS = meta.ElapsedMS
	result.Pages = meta.Pages
	return result
}

// IngestPDFFiles implements flow 4: resolve each path, convert to a
// Markdown sidecar under the allowlisted root, then follow flow 3.
func (e *Engine) IngestPDFFiles(ctx context.Context, in PDFIngestInput) (Result, error) {
	if in.TenantID == "" {
		return Result{}, ErrMissingTenantID
	}
	if len(in.Paths) == 0 {
		return Result{}, ErrEmptyBatch
	}

	var markdownPaths []string
	var summaries []DocumentSummary

	for _, relPath := range in.Paths {
		converted := e.convertOneFile(relPath, in.Overwrite, 0)
		if converted.Error != "" {
			summaries = append(summaries, DocumentSummary{
				SourceName: filepath.Base(relPath),
				Errors:     []string{converted.Error},
			})
			continue
		}
		markdownPaths = append(markdownPaths, converted.OutputPath)
	}

	if len(markdownPaths) == 0 {
		return Result{BatchID: newBatchID(), Total: len(summaries), Documents: summaries}, nil
	}

	res, err := e.IngestMarkdownFiles(ctx, MarkdownFileIngestInput{
		TenantID:    in.TenantID,
		CaseID:      in.CaseID,
		Tags:        in.Tags,
		Paths:       markdownPaths,
		ChunkParams: in.ChunkParams,
		Replace:     in.Replace,
		SourceKind:  SourceKindPDFDerived,
	})
	if err != nil {
		return Result{}, err
	}
	for i := range res.Documents {
		res.Documents[i].SourceName = strings.TrimSuffix(res.Documents[i].SourceName, ".md")
	}
	res.Documents = append(summaries, res.Documents...)
	res.Total = len(res.Documents)
	return res, nil
}

// relativeToRoot returns absPath relative to the resolver's root, for
// inclusion in a tool result (never the root itself, which is a server
// deployment detail).
func (e *Engine) relativeToRoot(absPath string) string {
	rel, err := filepath.Rel(e.resolver.Root(), absPath)
	if err != nil {
		return absPath
	}
	return rel
}

// markdownSidecarPath derives {input}.md, or swaps a .pdf suffix for .md
// when present, per §4.10.
func markdownSidecarPath(pdfPath string) string {
	if strings.EqualFold(filepath.Ext(pdfPath), ".pdf") {
		return strings.TrimSuffix(pdfPath, filepath.Ext(pdfPath)) + ".md"
	}
	return pdfPath + ".md"
}
