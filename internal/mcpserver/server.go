// Package mcpserver adapts C9's tool surface (internal/tools) to the MCP
// RPC boundary. The RPC framing itself — schema derivation, stdio/SSE
// transport — is the external collaborator spec.md §1/§6 scopes out; this
// package is the thin seam between the two.
package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/l4b4r4b4b4/legal-mcp-go/internal/logging"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/tools"
)

// Server wraps an mcp.Server pre-loaded with every operation in §4.9's
// tool catalogue.
type Server struct {
	mcp     *mcp.Server
	surface *tools.Surface
	logger  *zap.Logger
}

// Config configures the MCP implementation identity.
type Config struct {
	Name    string
	Version string
	Logger  *zap.Logger
}

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "legal-mcp-go"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

// New builds a Server registered against surface.
func New(cfg Config, surface *tools.Surface) *Server {
	cfg.applyDefaults()

	srv := mcp.NewServer(&mcp.Implementation{Name: cfg.Name, Version: cfg.Version}, nil)

	s := &Server{mcp: srv, surface: surface, logger: cfg.Logger}
	s.registerCatalogTools()
	s.registerCorpusTools()
	s.registerDocumentTools()
	s.registerCacheTools()
	s.registerSecretTools()
	if surface.HasRenderer() {
		s.registerRenderTools()
	}
	return s
}

// Run starts the MCP server on the stdio transport (§6 "Transports").
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting MCP server on stdio transport")
	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp server run: %w", err)
	}
	return nil
}

// textResult builds the minimal human-readable content every tool result
// carries alongside its typed output, echoing the ref_id so an agent
// transcript stays legible without decoding the structured payload.
func textResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: msg}}}
}

// toolContext stamps the invoked tool name onto ctx for structured
// logging (internal/logging).
func toolContext(ctx context.Context, name string) context.Context {
	return logging.WithTool(ctx, name)
}
