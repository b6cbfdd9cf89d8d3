package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/l4b4r4b4b4/legal-mcp-go/internal/tools"
)

type getCachedResultInput struct {
	RefID    string `json:"ref_id" jsonschema:"required,Reference handle returned by a prior tool call"`
	Page     int    `json:"page,omitempty" jsonschema:"Page number for list-shaped values; omit for the full value"`
	PageSize int    `json:"page_size,omitempty" jsonschema:"Items per page, default 20"`
}

func (s *Server) registerCacheTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_cached_result",
		Description: "Retrieve the full value or one page of a previously cached tool result",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args getCachedResultInput) (*mcp.CallToolResult, tools.GetCachedResultOutput, error) {
		ctx = toolContext(ctx, "get_cached_result")
		out, err := s.surface.GetCachedResult(tools.GetCachedResultInput{
			RefID: args.RefID, Page: args.Page, PageSize: args.PageSize,
		})
		if err != nil {
			return nil, tools.GetCachedResultOutput{}, err
		}
		return textResult(fmt.Sprintf("resolved %s", out.RefID)), out, nil
	})
}
