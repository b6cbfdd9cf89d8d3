package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/l4b4r4b4b4/legal-mcp-go/internal/config"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/embeddings"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/eventbus"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/ingestion"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/logging"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/metrics"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/safepath"
	"github.com/l4b4r4b4b4/legal-mcp-go/internal/vectorstore"
)

var (
	ingestCorpusRoot  string
	ingestCorpusWatch bool
)

// ingestCorpusCmd is the admin entry point for flow 1 (§4.7, §9 "Offline
// catalogs over live crawling"): bulk HTML ingestion is deliberately never
// exposed as an agent-facing MCP tool, only as an operator-run command
// against a local law-tree checkout.
var ingestCorpusCmd = &cobra.Command{
	Use:   "ingest-corpus",
	Short: "Bulk-ingest a local law HTML tree into the shared corpus collection",
	RunE:  runIngestCorpus,
}

func init() {
	ingestCorpusCmd.Flags().StringVar(&ingestCorpusRoot, "root", "", "root directory of the HTML law tree (required)")
	ingestCorpusCmd.Flags().BoolVar(&ingestCorpusWatch, "watch", false, "keep running and re-ingest files dropped into --root")
	ingestCorpusCmd.MarkFlagRequired("root")
}

func runIngestCorpus(cmd *cobra.Command, args []string) error {
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

	store, err := vectorstore.New(cfg.VectorStore, zlog.Underlying())
	if err != nil {
		return fmt.Errorf("initializing vector store: %w", err)
	}

	embedder, err := embeddings.New(cfg.Embeddings, zlog.Underlying())
	if err != nil {
		return fmt.Errorf("initializing embedding gateway: %w", err)
	}
	defer embedder.Close()

	resolver, err := safepath.NewResolver(ingestCorpusRoot)
	if err != nil {
		return fmt.Errorf("resolving --root: %w", err)
	}

	publisher := eventbus.NewNoop()
	if cfg.Eventbus.URL != "" {
		if p, err := eventbus.Connect(cfg.Eventbus.URL, zlog.Underlying()); err == nil {
			publisher = p
			defer publisher.Close()
		}
	}

	engine := ingestion.New(store, embedder, resolver, publisher, metrics.Get(), zlog.Underlying(), ingestion.Config{})

	if err := ingestOnce(ctx, engine, zlog); err != nil {
		return err
	}

	if !ingestCorpusWatch {
		return nil
	}
	return watchAndReingest(ctx, engine, zlog)
}

func ingestOnce(ctx context.Context, engine *ingestion.Engine, zlog *logging.Logger) error {
	res, err := engine.IngestCorpusTree(ctx, ingestion.CorpusIngestInput{RootDir: ingestCorpusRoot})
	if err != nil {
		return fmt.Errorf("ingesting corpus tree: %w", err)
	}
	zlog.Info(ctx, "corpus ingestion complete",
		zap.String("batch_id", res.BatchID),
		zap.Int("documents", res.Total),
	)
	return nil
}

// watchAndReingest re-runs a full corpus ingest whenever an .html file is
// created or written under --root, so new law pages land without a
// process restart. The C3/C5 resume semantics (existing chunk_ids are
// skipped) make repeated full-tree passes cheap.
func watchAndReingest(ctx context.Context, engine *ingestion.Engine, zlog *logging.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting file watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchRecursive(watcher, ingestCorpusRoot); err != nil {
		return fmt.Errorf("watching %s: %w", ingestCorpusRoot, err)
	}

	zlog.Info(ctx, "watching for corpus changes", zap.String("root", ingestCorpusRoot))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(ev.Name, ".html") {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			zlog.Info(ctx, "detected corpus change, re-ingesting", zap.String("path", ev.Name))
			if err := ingestOnce(ctx, engine, zlog); err != nil {
				zlog.Warn(ctx, "re-ingest after watch event failed", zap.Error(err))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			zlog.Warn(ctx, "file watcher error", zap.Error(err))
		}
	}
}

func addWatchRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
