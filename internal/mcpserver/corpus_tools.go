package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/l4b4r4b4b4/legal-mcp-go/internal/tools"
)

type searchLawsInput struct {
	Query     string `json:"query" jsonschema:"required,Search text; at least 2 characters"`
	LawAbbrev string `json:"law_abbrev,omitempty" jsonschema:"Restrict to one law abbreviation (e.g. BGB)"`
	Level     string `json:"level,omitempty" jsonschema:"Restrict to norm or paragraph level chunks"`
	NResults  int    `json:"n_results,omitempty" jsonschema:"Number of hits in [1,50], default 10"`
}

type getLawByIDInput struct {
	LawAbbrev string `json:"law_abbrev" jsonschema:"required,Law abbreviation (e.g. BGB)"`
	NormID    string `json:"norm_id" jsonschema:"required,Norm identifier (e.g. '§ 433')"`
}

type getLawStatsInput struct {
	LawAbbrev string `json:"law_abbrev" jsonschema:"required,Law abbreviation (e.g. BGB)"`
}

func (s *Server) registerCorpusTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search_laws",
		Description: "Semantic search over the shared corpus of ingested legal norms",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args searchLawsInput) (*mcp.CallToolResult, tools.Envelope, error) {
		ctx = toolContext(ctx, "search_laws")
		out, err := s.surface.SearchLaws(ctx, tools.SearchLawsInput{
			Query:     args.Query,
			LawAbbrev: args.LawAbbrev,
			Level:     args.Level,
			NResults:  args.NResults,
		})
		if err != nil {
			return nil, tools.Envelope{}, err
		}
		return textResult(fmt.Sprintf("search_laws ref %s", out.RefID)), out, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_law_by_id",
		Description: "Retrieve the full content of one legal norm, including its structural paragraphs",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args getLawByIDInput) (*mcp.CallToolResult, tools.Envelope, error) {
		ctx = toolContext(ctx, "get_law_by_id")
		out, err := s.surface.GetLawByID(ctx, tools.GetLawByIDInput{LawAbbrev: args.LawAbbrev, NormID: args.NormID})
		if err != nil {
			return nil, tools.Envelope{}, err
		}
		return textResult(fmt.Sprintf("get_law_by_id ref %s", out.RefID)), out, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_law_stats",
		Description: "Report indexed norm and paragraph counts for one law",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args getLawStatsInput) (*mcp.CallToolResult, tools.Envelope, error) {
		ctx = toolContext(ctx, "get_law_stats")
		out, err := s.surface.GetLawStats(ctx, tools.GetLawStatsInput{LawAbbrev: args.LawAbbrev})
		if err != nil {
			return nil, tools.Envelope{}, err
		}
		return textResult(fmt.Sprintf("get_law_stats ref %s", out.RefID)), out, nil
	})
}
