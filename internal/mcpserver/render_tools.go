package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/l4b4r4b4b4/legal-mcp-go/internal/tools"
)

type retrieveRenderedDocumentInput struct {
	TenantID     string `json:"tenant_id" jsonschema:"required,Tenant isolation boundary"`
	CaseID       string `json:"case_id,omitempty" jsonschema:"Optional case scope under the tenant"`
	Jurisdiction string `json:"jurisdiction,omitempty" jsonschema:"Jurisdiction-scoped partition of user_documents"`
	URL          string `json:"url" jsonschema:"required,Single document URL to render"`
	Ingest       bool   `json:"ingest,omitempty" jsonschema:"Persist the extracted content into user_documents"`
}

// registerRenderTools registers retrieve_rendered_document only when a
// renderer collaborator was configured for this process; the tool is
// simply absent from the catalogue otherwise, since §4.7 flow 5 always
// requires explicit user action through this one narrow path.
func (s *Server) registerRenderTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "retrieve_rendered_document",
		Description: "On-demand, single-document retrieval for SPA-backed jurisdictions via a headless-browser renderer",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args retrieveRenderedDocumentInput) (*mcp.CallToolResult, tools.Envelope, error) {
		ctx = toolContext(ctx, "retrieve_rendered_document")
		out, err := s.surface.RetrieveRenderedDocument(ctx, tools.RetrieveRenderedDocumentInput{
			TenantID: args.TenantID, CaseID: args.CaseID, Jurisdiction: args.Jurisdiction,
			URL: args.URL, Ingest: args.Ingest,
		})
		if err != nil {
			return nil, tools.Envelope{}, err
		}
		return textResult(fmt.Sprintf("retrieve_rendered_document ref %s", out.RefID)), out, nil
	})
}
