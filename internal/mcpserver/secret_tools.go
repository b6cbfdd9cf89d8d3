package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/l4b4r4b4b4/legal-mcp-go/internal/tools"
)

type storeSecretInput struct {
	Value string `json:"value" jsonschema:"required,Secret value to store under EXECUTE-only permission"`
}

type computeWithSecretInput struct {
	SecretRef  string  `json:"secret_ref" jsonschema:"required,Reference handle returned by store_secret"`
	Multiplier float64 `json:"multiplier" jsonschema:"required,Factor to multiply the stored value by"`
}

// registerSecretTools registers the EXECUTE-permission demonstration
// pair: store_secret never returns the value it stores, and
// compute_with_secret resolves it only inside the cache, never handing
// the raw value back to the caller (§4.9, §4.6).
func (s *Server) registerSecretTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "store_secret",
		Description: "Store a value under EXECUTE-only permission; the raw value is never returned by any tool",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args storeSecretInput) (*mcp.CallToolResult, tools.StoreSecretOutput, error) {
		ctx = toolContext(ctx, "store_secret")
		out, err := s.surface.StoreSecret(tools.StoreSecretInput{Value: args.Value})
		if err != nil {
			return nil, tools.StoreSecretOutput{}, err
		}
		return textResult(fmt.Sprintf("stored secret %s", out.RefID)), out, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "compute_with_secret",
		Description: "Multiply a previously stored secret's value by multiplier, without ever returning the raw secret",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args computeWithSecretInput) (*mcp.CallToolResult, tools.ComputeWithSecretOutput, error) {
		ctx = toolContext(ctx, "compute_with_secret")
		out, err := s.surface.ComputeWithSecret(tools.ComputeWithSecretInput{
			SecretRef: args.SecretRef, Multiplier: args.Multiplier,
		})
		if err != nil {
			return nil, tools.ComputeWithSecretOutput{}, err
		}
		return textResult(fmt.Sprintf("result=%g", out.Result)), out, nil
	})
}
