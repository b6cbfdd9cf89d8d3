package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/l4b4r4b4b4/legal-mcp-go/internal/cache"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/catalog"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/config"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/embeddings"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/eventbus"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/ingestion"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/logging"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/mcpserver"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/metrics"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/query"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/renderer"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/safepath"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/tools"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/vectorstore"
)

var enableRenderer bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdio, plus an HTTP health/metrics side-channel",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&enableRenderer, "enable-renderer", false, "enable the headless-browser renderer used by retrieve_rendered_document")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	zlog, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = zlog.Sync() }()

	zlog.Info(ctx, "starting legal-mcp-go",
		zap.String("vector_store_provider", cfg.VectorStore.Provider),
		zap.String("ingest_root", cfg.IngestRoot.Path),
	)

	reg := metrics.Get()

	if defaultRoot := config.Default().IngestRoot.Path; cfg.IngestRoot.Path == defaultRoot {
		if _, statErr := os.Stat(defaultRoot); os.IsNotExist(statErr) {
			if err := os.MkdirAll(defaultRoot, 0o755); err != nil {
				return fmt.Errorf("creating default ingest root: %w", err)
			}
			zlog.Info(ctx, "created default ingest root", zap.String("path", defaultRoot))
		}
	}

	resolver, err := safepath.NewResolver(cfg.IngestRoot.Path)
	if err != nil {
		return fmt.Errorf("initializing ingest root resolver: %w", err)
	}

	store, err := vectorstore.New(cfg.VectorStore, zlog.Underlying())
	if err != nil {
		return fmt.Errorf("initializing vector store: %w", err)
	}

	embedder, err := embeddings.New(cfg.Embeddings, zlog.Underlying())
	if err != nil {
		return fmt.Errorf("initializing embedding gateway: %w", err)
	}
	defer embedder.Close()

	var publisher *eventbus.Publisher
	if cfg.Eventbus.URL != "" {
		publisher, err = eventbus.Connect(cfg.Eventbus.URL, zlog.Underlying())
		if err != nil {
			zlog.Warn(ctx, "eventbus unavailable, continuing without it", zap.Error(err))
			publisher = eventbus.NewNoop()
		}
	} else {
		publisher = eventbus.NewNoop()
	}
	defer publisher.Close()

	cat := catalog.New()
	if err := loadCatalogSources(cat, cfg.Catalog.Path); err != nil {
		zlog.Warn(ctx, "catalog sources not fully loaded", zap.Error(err))
	}

	refCache := cache.New(cfg.Cache)
	engine := ingestion.New(store, embedder, resolver, publisher, reg, zlog.Underlying(), ingestion.Config{})
	queryEngine := query.New(store, embedder)

	var rend renderer.Renderer
	if enableRenderer {
		r, err := renderer.NewChromedpRenderer(renderer.ChromedpConfig{})
		if err != nil {
			zlog.Warn(ctx, "renderer unavailable, retrieve_rendered_document disabled", zap.Error(err))
		} else {
			rend = r
			defer r.Close()
		}
	}

	surface := tools.New(refCache, cat, queryEngine, engine, rend, zlog.Underlying())

	mcpSrv := mcpserver.New(mcpserver.Config{
		Name:    "legal-mcp-go",
		Version: version,
		Logger:  zlog.Underlying(),
	}, surface)

	httpSrv := newHealthServer(cfg.Server.Addr, zlog)
	go func() {
		if err := httpSrv.Start(cfg.Server.Addr); err != nil && err != http.ErrServerClosed {
			zlog.Error(ctx, "health server stopped", zap.Error(err))
		}
	}()
	defer httpSrv.Shutdown(context.Background())

	return mcpSrv.Run(ctx)
}

// loadCatalogSources registers one catalog source per ".jsonl" file found
// directly under dir, named after the file's basename (§4.4 "loaded once
// at process start").
func loadCatalogSources(cat *catalog.Catalog, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading catalog directory %s: %w", dir, err)
	}

	var firstErr error
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		source := strings.TrimSuffix(e.Name(), ".jsonl")
		if err := cat.LoadSource(source, filepath.Join(dir, e.Name())); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// newHealthServer builds the ambient HTTP side-channel: liveness,
// readiness, and the Prometheus scrape endpoint. None of this traffic
// touches the MCP stdio transport.
func newHealthServer(addr string, zlog *logging.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/readyz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ready")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}
