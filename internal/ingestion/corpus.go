package ingestion

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/encoding"

	"github.com/l4b4r4b4b4/legal-mcp-go/internal/chunking"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/legalhtml"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/vectorstore"
)

// CorpusIngestInput is flow 1's input: a local HTML tree laid out one
// directory per law, named after the law's abbreviation (e.g.
// "{root}/bgb/para-433.html"), matching how the offline catalog snapshots
// are organised.
type CorpusIngestInput struct {
	RootDir        string
	LegacyEncoding encoding.Encoding // nil uses legalhtml's ISO-8859-1 default
}

// IngestCorpusTree implements flow 1: walk rootDir, parse every .html file
// in legal mode, produce a norm document plus one document per paragraph,
// embed (batched per file) and upsert into the shared corpus collection.
// No tenant metadata is written. Chunks whose chunk_id already exists are
// skipped (resume semantics).
func (e *Engine) IngestCorpusTree(ctx context.Context, in CorpusIngestInput) (Result, error) {
	started := time.Now()

	files, err := walkHTMLFiles(in.RootDir)
	if err != nil {
		return Result{}, fmt.Errorf("walking corpus root %s: %w", in.RootDir, err)
	}
	if len(files) == 0 {
		return Result{BatchID: newBatchID(), Total: 0}, nil
	}

	summaries := runPool(ctx, e.pool, files, func(ctx context.Context, path string) DocumentSummary {
		return e.ingestOneCorpusFile(ctx, path, in.LegacyEncoding)
	})

	res := Result{BatchID: newBatchID(), Total: len(summaries), Documents: summaries}
	errCount := 0
	for _, s := range summaries {
		errCount += len(s.Errors)
	}
	e.recordIngestMetrics(SourceKindCorpusNorm, started, len(summaries), errCount)
	e.publishCompletion("corpus.ingested", res.BatchID, "", res)
	return res, nil
}

func (e *Engine) ingestOneCorpusFile(ctx context.Context, path string, legacyEncoding encoding.Encoding) DocumentSummary {
	lawAbbrev := strings.ToLower(filepath.Base(filepath.Dir(path)))
	summary := DocumentSummary{SourceName: filepath.Base(path)}

	f, err := os.Open(path)
	if err != nil {
		summary.Errors = append(summary.Errors, summarizeErr(err))
		return summary
	}
	defer f.Close()

	norm, err := legalhtml.Parse(f, lawAbbrev, legacyEncoding)
	if err != nil {
		summary.Errors = append(summary.Errors, summarizeErr(err))
		return summary
	}

	documentID := norm.DocumentID()
	summary.DocumentID = documentID

	chunks, err := e.buildCorpusChunks(ctx, norm)
	if err != nil {
		summary.Errors = append(summary.Errors, summarizeErr(err))
		return summary
	}
	summary.ChunksCreated = len(chunks)

	added, err := e.embedAndUpsert(ctx, vectorstore.CollectionCorpus, chunks)
	if err != nil {
		summary.Errors = append(summary.Errors, summarizeErr(err))
		return summary
	}
	summary.ChunksAdded = added
	return summary
}

// buildCorpusChunks assembles one norm-level chunk plus one chunk per
// paragraph, skipping any chunk_id already present in the corpus
// collection (resume semantics, §4.7 flow 1).
func (e *Engine) buildCorpusChunks(ctx context.Context, norm *legalhtml.Norm) ([]vectorstore.Chunk, error) {
	documentID := norm.DocumentID()
	var chunks []vectorstore.Chunk

	normChunkID := chunking.ChunkID(documentID, 0)
	exists, err := e.chunkExists(ctx, vectorstore.CollectionCorpus, normChunkID)
	if err != nil {
		return nil, err
	}
	if !exists {
		chunks = append(chunks, vectorstore.Chunk{
			ChunkID:    normChunkID,
			DocumentID: documentID,
			Content:    norm.FullText,
			Metadata:   corpusNormMetadata(norm, documentID),
		})
	}

	for _, p := range norm.Paragraphs {
		paraDocID := norm.ParagraphDocumentID(p)
		paraChunkID := chunking.ChunkID(paraDocID, 0)
		exists, err := e.chunkExists(ctx, vectorstore.CollectionCorpus, paraChunkID)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		chunks = append(chunks, vectorstore.Chunk{
			ChunkID:    paraChunkID,
			DocumentID: paraDocID,
			Content:    p.Text,
			Metadata:   corpusParagraphMetadata(norm, paraDocID, p),
		})
	}

	return chunks, nil
}

func (e *Engine) chunkExists(ctx context.Context, collection, chunkID string) (bool, error) {
	n, err := e.store.Count(ctx, collection, vectorstore.Where{"chunk_id": chunkID})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func corpusNormMetadata(norm *legalhtml.Norm, documentID string) map[string]any {
	return map[string]any{
		"document_id": documentID,
		"chunk_id":    chunking.ChunkID(documentID, 0),
		"source_kind": SourceKindCorpusNorm,
		"ingested_at": time.Now().UTC().Format(time.RFC3339),
		"law_abbrev":  norm.LawAbbrev,
		"law_title":   norm.LawTitle,
		"norm_id":     norm.NormID,
		"norm_title":  norm.NormTitle,
		"level":       "norm",
	}
}

func corpusParagraphMetadata(norm *legalhtml.Norm, paraDocID string, p legalhtml.Paragraph) map[string]any {
	return map[string]any{
		"document_id":     paraDocID,
		"chunk_id":        chunking.ChunkID(paraDocID, 0),
		"source_kind":     SourceKindCorpusNorm,
		"ingested_at":     time.Now().UTC().Format(time.RFC3339),
		"law_abbrev":      norm.LawAbbrev,
		"law_title":       norm.LawTitle,
		"norm_id":         norm.NormID,
		"level":           "paragraph",
		"paragraph_index": p.Index,
		"parent_norm_id":  norm.NormID,
	}
}

func walkHTMLFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".html") || strings.EqualFold(filepath.Ext(path), ".htm") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
