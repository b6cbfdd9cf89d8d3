package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/l4b4r4b4b4/legal-mcp-go/internal/tools"
)

type listAvailableDocumentsInput struct {
	Source string `json:"source" jsonschema:"required,Catalog source identifier"`
	Prefix string `json:"prefix,omitempty" jsonschema:"Filter by document_type_prefix"`
	Offset int    `json:"offset,omitempty" jsonschema:"Pagination offset, default 0"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Page size in [1,200], default 50"`
}

func (s *Server) registerCatalogTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_available_documents",
		Description: "List discoverable document identifiers from an offline, read-only catalog source",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args listAvailableDocumentsInput) (*mcp.CallToolResult, tools.Envelope, error) {
		ctx = toolContext(ctx, "list_available_documents")
		out, err := s.surface.ListAvailableDocuments(tools.ListAvailableDocumentsInput{
			Source: args.Source,
			Prefix: args.Prefix,
			Offset: args.Offset,
			Limit:  args.Limit,
		})
		if err != nil {
			return nil, tools.Envelope{}, err
		}
		return textResult(fmt.Sprintf("catalog ref %s (%d items)", out.RefID, out.TotalItems)), out, nil
	})
}
