package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/l4b4r4b4b4/legal-mcp-go/internal/tenant"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/tools"
)

type ingestDocumentInput struct {
	SourceName string `json:"source_name" jsonschema:"required,Human label for the document"`
	Text       string `json:"text" jsonschema:"required,Document text"`
	DocumentID string `json:"document_id,omitempty" jsonschema:"Overrides the deterministic derivation when supplied"`
}

type ingestDocumentsInput struct {
	TenantID  string                `json:"tenant_id" jsonschema:"required,Tenant isolation boundary"`
	CaseID    string                `json:"case_id,omitempty" jsonschema:"Optional case scope under the tenant"`
	Tags      []string              `json:"tags,omitempty" jsonschema:"Free-form tags"`
	Documents []ingestDocumentInput `json:"documents" jsonschema:"required,Documents to ingest"`
	Replace   bool                  `json:"replace,omitempty" jsonschema:"Delete existing chunks for each document_id before upserting"`
}

type ingestMarkdownFilesInput struct {
	TenantID    string   `json:"tenant_id,omitempty" jsonschema:"Tenant isolation boundary; derived from project_path's git remote when omitted"`
	ProjectPath string   `json:"project_path,omitempty" jsonschema:"Local git checkout path used to derive tenant_id when it is omitted"`
	CaseID      string   `json:"case_id,omitempty" jsonschema:"Optional case scope under the tenant"`
	Tags        []string `json:"tags,omitempty" jsonschema:"Free-form tags"`
	Paths       []string `json:"paths" jsonschema:"required,Paths relative to the allowlisted ingest root"`
	Replace     bool     `json:"replace,omitempty" jsonschema:"Delete existing chunks for each document_id before upserting"`
}

type ingestPDFFilesInput struct {
	TenantID  string   `json:"tenant_id" jsonschema:"required,Tenant isolation boundary"`
	CaseID    string   `json:"case_id,omitempty" jsonschema:"Optional case scope under the tenant"`
	Tags      []string `json:"tags,omitempty" jsonschema:"Free-form tags"`
	Paths     []string `json:"paths" jsonschema:"required,Paths relative to the allowlisted ingest root"`
	Overwrite *bool    `json:"overwrite,omitempty" jsonschema:"Replace an existing Markdown sidecar, default true"`
	Replace   bool     `json:"replace,omitempty" jsonschema:"Delete existing chunks for each document_id before upserting"`
}

type convertFilesToMarkdownInput struct {
	Paths     []string `json:"paths" jsonschema:"required,PDF paths relative to the allowlisted ingest root"`
	Overwrite *bool    `json:"overwrite,omitempty" jsonschema:"Replace an existing Markdown sidecar, default true"`
	CharCap   int      `json:"char_cap,omitempty" jsonschema:"Per-file output character cap, default 5000000"`
}

type searchDocumentsInput struct {
	Query        string `json:"query" jsonschema:"required,Search text; at least 2 characters"`
	TenantID     string `json:"tenant_id" jsonschema:"required,Tenant isolation boundary"`
	CaseID       string `json:"case_id,omitempty" jsonschema:"Restrict to one case"`
	DocumentID   string `json:"document_id,omitempty" jsonschema:"Restrict to one document"`
	SourceName   string `json:"source_name,omitempty" jsonschema:"Restrict to one source_name"`
	Tag          string `json:"tag,omitempty" jsonschema:"Restrict to documents carrying exactly this single tag"`
	NResults     int    `json:"n_results,omitempty" jsonschema:"Number of hits in [1,50], default 10"`
	ExcerptChars int    `json:"excerpt_chars,omitempty" jsonschema:"Excerpt length in characters, default 500"`
}

func (s *Server) registerDocumentTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "ingest_documents",
		Description: "Ingest in-memory documents into a tenant's private, semantically searchable collection",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ingestDocumentsInput) (*mcp.CallToolResult, tools.Envelope, error) {
		ctx = toolContext(ctx, "ingest_documents")
		docs := make([]tools.IngestDocumentInput, len(args.Documents))
		for i, d := range args.Documents {
			docs[i] = tools.IngestDocumentInput{SourceName: d.SourceName, Text: d.Text, DocumentID: d.DocumentID}
		}
		out, err := s.surface.IngestDocuments(ctx, tools.IngestDocumentsInput{
			TenantID: args.TenantID, CaseID: args.CaseID, Tags: args.Tags, Documents: docs, Replace: args.Replace,
		})
		if err != nil {
			return nil, tools.Envelope{}, err
		}
		return textResult(fmt.Sprintf("ingest_documents ref %s (%d documents)", out.RefID, out.TotalItems)), out, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "ingest_markdown_files",
		Description: "Resolve and ingest local Markdown files under the allowlisted ingest root",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ingestMarkdownFilesInput) (*mcp.CallToolResult, tools.Envelope, error) {
		ctx = toolContext(ctx, "ingest_markdown_files")
		tenantID := args.TenantID
		if tenantID == "" && args.ProjectPath != "" {
			tenantID = tenant.ForPath(args.ProjectPath)
		}
		out, err := s.surface.IngestMarkdownFiles(ctx, tools.IngestMarkdownFilesInput{
			TenantID: tenantID, CaseID: args.CaseID, Tags: args.Tags, Paths: args.Paths, Replace: args.Replace,
		})
		if err != nil {
			return nil, tools.Envelope{}, err
		}
		return textResult(fmt.Sprintf("ingest_markdown_files ref %s (%d files)", out.RefID, out.TotalItems)), out, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "ingest_pdf_files",
		Description: "Convert local PDFs to Markdown and ingest them under the allowlisted ingest root",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ingestPDFFilesInput) (*mcp.CallToolResult, tools.Envelope, error) {
		ctx = toolContext(ctx, "ingest_pdf_files")
		out, err := s.surface.IngestPDFFiles(ctx, tools.IngestPDFFilesInput{
			TenantID: args.TenantID, CaseID: args.CaseID, Tags: args.Tags, Paths: args.Paths,
			Overwrite: args.Overwrite, Replace: args.Replace,
		})
		if err != nil {
			return nil, tools.Envelope{}, err
		}
		return textResult(fmt.Sprintf("ingest_pdf_files ref %s (%d files)", out.RefID, out.TotalItems)), out, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "convert_files_to_markdown",
		Description: "Convert local PDFs to Markdown sidecars without ingesting them",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args convertFilesToMarkdownInput) (*mcp.CallToolResult, tools.Envelope, error) {
		ctx = toolContext(ctx, "convert_files_to_markdown")
		out, err := s.surface.ConvertFilesToMarkdown(tools.ConvertFilesToMarkdownInput{
			Paths: args.Paths, Overwrite: args.Overwrite, CharCap: args.CharCap,
		})
		if err != nil {
			return nil, tools.Envelope{}, err
		}
		return textResult(fmt.Sprintf("convert_files_to_markdown ref %s (%d files)", out.RefID, out.TotalItems)), out, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search_documents",
		Description: "Semantic search over a tenant's private document collection",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args searchDocumentsInput) (*mcp.CallToolResult, tools.Envelope, error) {
		ctx = toolContext(ctx, "search_documents")
		out, err := s.surface.SearchDocuments(ctx, tools.SearchDocumentsInput{
			Query: args.Query, TenantID: args.TenantID, CaseID: args.CaseID, DocumentID: args.DocumentID,
			SourceName: args.SourceName, Tag: args.Tag, NResults: args.NResults, ExcerptChars: args.ExcerptChars,
		})
		if err != nil {
			return nil, tools.Envelope{}, err
		}
		return textResult(fmt.Sprintf("search_documents ref %s (%d hits)", out.RefID, out.TotalItems)), out, nil
	})
}
