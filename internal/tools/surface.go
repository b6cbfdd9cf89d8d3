package tools

import (
	"go.uber.org/zap"

	"github.com/l4b4r4b4b4/legal-mcp-go/internal/cache"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/catalog"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/ingestion"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/pdfconvert"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/query"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/renderer"
)

// Surface wires C6 (cache), C4 (catalog), C7 (ingestion), C8 (query), and
// the secret-store demonstration behind the closed tool set of §4.9.
// Handlers here carry no MCP-specific types: internal/mcpserver adapts
// these to mcp.AddTool, keeping the RPC framing an external collaborator
// per §1.
type Surface struct {
	cache    *cache.Cache
	catalog  *catalog.Catalog
	query    *query.Engine
	engine   *ingestion.Engine
	renderer renderer.Renderer // optional; nil disables retrieve_rendered_document
	logger   *zap.Logger
}

// New builds a Surface. renderer may be nil when no headless-browser
// collaborator is configured (§4.7 flow 5 is then unavailable).
func New(c *cache.Cache, cat *catalog.Catalog, q *query.Engine, eng *ingestion.Engine, rend renderer.Renderer, logger *zap.Logger) *Surface {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Surface{cache: c, catalog: cat, query: q, engine: eng, renderer: rend, logger: logger}
}

// pdfDefaultCharCap mirrors pdfconvert.DefaultCharCap for tools that pass
// CharCap=0 through to ConvertFilesToMarkdown.
const pdfDefaultCharCap = pdfconvert.DefaultCharCap

// HasRenderer reports whether a headless-browser collaborator was
// configured for this process, gating registration of
// retrieve_rendered_document at the MCP boundary.
func (s *Surface) HasRenderer() bool { return s.renderer != nil }
