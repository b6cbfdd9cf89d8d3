package embeddings

import (
	"context"
	"fmt"
	"strings"
	"sync"

	fastembed "github.com/anush008/fastembed-go"
	"golang.org/x/sync/singleflight"
)

// FastEmbedConfig configures the in-process ONNX fallback model.
type FastEmbedConfig struct {
	Model     string `koanf:"model"`
	CacheDir  string `koanf:"cache_dir"`
	MaxLength int    `koanf:"max_length"`
}

func (c *FastEmbedConfig) applyDefaults() {
	if c.Model == "" {
		c.Model = "BAAI/bge-small-en-v1.5"
	}
	if c.MaxLength == 0 {
		c.MaxLength = 512
	}
}

var modelDimensions = map[fastembed.EmbeddingModel]int{
	fastembed.BGESmallENV15: 384,
	fastembed.BGEBaseENV15:  768,
	fastembed.AllMiniLML6V2: 384,
}

var modelMapping = map[string]fastembed.EmbeddingModel{
	"BAAI/bge-small-en-v1.5":                 fastembed.BGESmallENV15,
	"BAAI/bge-base-en-v1.5":                  fastembed.BGEBaseENV15,
	"sentence-transformers/all-MiniLM-L6-v2": fastembed.AllMiniLML6V2,
}

// FastEmbedGateway implements Gateway over a local ONNX model, loaded once
// process-wide. §4.2 requires this path enforce a singleton to prevent
// redundant memory load; singletonMu guarantees exactly one model load even
// under concurrent first callers, and the embedded singleflight.Group
// collapses identical concurrent embed requests into one call.
type FastEmbedGateway struct {
	model     *fastembed.FlagEmbedding
	dimension int

	mu    sync.RWMutex
	group singleflight.Group
}

var (
	singletonMu    sync.Mutex
	singletonGw    *FastEmbedGateway
	singletonModel string
)

// NewFastEmbedGateway returns the process-wide FastEmbedGateway, loading
// the ONNX model on first call and reusing it thereafter. A request for a
// different model than the one already loaded fails loudly rather than
// silently serving stale-model vectors.
func NewFastEmbedGateway(cfg FastEmbedConfig) (*FastEmbedGateway, error) {
	cfg.applyDefaults()

	singletonMu.Lock()
	defer singletonMu.Unlock()

	if singletonGw != nil {
		if singletonModel != cfg.Model {
			return nil, fmt.Errorf("fastembed singleton already loaded with model %q, cannot also load %q", singletonModel, cfg.Model)
		}
		return singletonGw, nil
	}

	model, ok := modelMapping[cfg.Model]
	if !ok {
		return nil, fmt.Errorf("unsupported fallback model %q", cfg.Model)
	}
	dimension, ok := modelDimensions[model]
	if !ok {
		return nil, fmt.Errorf("no known dimension for model %q", cfg.Model)
	}

	showProgress := false
	flagEmbed, err := fastembed.NewFlagEmbedding(&fastembed.InitOptions{
		Model:                model,
		CacheDir:             cfg.CacheDir,
		MaxLength:            cfg.MaxLength,
		ShowDownloadProgress: &showProgress,
	})
	if err != nil {
		return nil, fmt.Errorf("loading fastembed model %q: %w", cfg.Model, err)
	}

	gw := &FastEmbedGateway{model: flagEmbed, dimension: dimension}
	singletonGw = gw
	singletonModel = cfg.Model
	return gw, nil
}

func (g *FastEmbedGateway) Dimension() int { return g.dimension }

func (g *FastEmbedGateway) Close() error {
	singletonMu.Lock()
	defer singletonMu.Unlock()

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.model == nil {
		return nil
	}
	err := g.model.Destroy()
	g.model = nil
	singletonGw = nil
	singletonModel = ""
	return err
}

func (g *FastEmbedGateway) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	// The single-flight key is derived from the batch content, so identical
	// concurrent batches share one model call while a caller with a
	// different batch never waits on, or receives, another caller's vectors.
	key := fmt.Sprintf("embed_batch:%d:%s", len(texts), strings.Join(texts, "\x00"))
	v, err, _ := g.group.Do(key, func() (any, error) {
		g.mu.RLock()
		defer g.mu.RUnlock()
		if g.model == nil {
			return nil, fmt.Errorf("fastembed model is closed")
		}
		return g.model.PassageEmbed(texts, 256)
	})
	if err != nil {
		return nil, fmt.Errorf("fastembed batch embed: %w", err)
	}
	return v.([][]float32), nil
}

func (g *FastEmbedGateway) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	v, err, _ := g.group.Do("embed_query:"+text, func() (any, error) {
		g.mu.RLock()
		defer g.mu.RUnlock()
		if g.model == nil {
			return nil, fmt.Errorf("fastembed model is closed")
		}
		return g.model.QueryEmbed(text)
	})
	if err != nil {
		return nil, fmt.Errorf("fastembed query embed: %w", err)
	}
	return v.([]float32), nil
}
