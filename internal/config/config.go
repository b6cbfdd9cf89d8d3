// Package config loads process-wide configuration for the retrieval core.
//
// Precedence (highest to lowest): environment variables named in §6 of the
// specification, an optional YAML overlay file, then hardcoded defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/l4b4r4b4b4/legal-mcp-go/internal/logging"
)

const maxConfigFileSize = 1024 * 1024 // 1MB

// Config holds every section of process-wide configuration.
type Config struct {
	Logging    logging.Config   `koanf:"logging"`
	IngestRoot IngestRootConfig `koanf:"ingest_root"`
	Embeddings EmbeddingsConfig `koanf:"embeddings"`
	VectorStore VectorStoreConfig `koanf:"vector_store"`
	Cache      CacheConfig      `koanf:"cache"`
	Catalog    CatalogConfig    `koanf:"catalog"`
	Server     ServerConfig     `koanf:"server"`
	Eventbus   EventbusConfig   `koanf:"eventbus"`
}

// IngestRootConfig is the allowlisted root for file-based ingestion (§4.1, §6).
type IngestRootConfig struct {
	// Path is LEGAL_MCP_INGEST_ROOT. Empty means "{cwd}/.agent/tmp", which
	// serve creates (and logs) at startup when it does not exist yet.
	Path string `koanf:"path"`
}

// EmbeddingsConfig configures the embedding gateway (§4.2).
type EmbeddingsConfig struct {
	// Endpoints is EMBEDDING_ENDPOINTS, comma-separated. Empty triggers the
	// in-process fallback.
	Endpoints []string `koanf:"endpoints"`

	// Dimension is the fixed embedding width every endpoint (or the
	// fallback model) must produce; must match VectorStore.Dimension.
	Dimension int `koanf:"dimension"`

	// RequestTimeout bounds a single HTTP embedding call.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// MaxBatchSize is the largest batch submitted to one endpoint per request.
	MaxBatchSize int `koanf:"max_batch_size"`

	// CooldownAfterFailures marks an endpoint unhealthy after this many
	// consecutive failures.
	CooldownAfterFailures int `koanf:"cooldown_after_failures"`

	// CooldownWindow is how long an unhealthy endpoint is skipped.
	CooldownWindow time.Duration `koanf:"cooldown_window"`

	// FallbackModel names the in-process model used when Endpoints is empty.
	FallbackModel string `koanf:"fallback_model"`
}

// VectorStoreConfig selects and configures the C5 backend.
type VectorStoreConfig struct {
	// Path is VECTOR_STORE_PATH, the persistence directory.
	Path string `koanf:"path"`

	// Provider is "chromem" (default, embedded) or "qdrant".
	Provider string `koanf:"provider"`

	// QdrantURL is used when Provider == "qdrant".
	QdrantURL string `koanf:"qdrant_url"`

	// Dimension is the embedding vector dimension, must match the embedder.
	Dimension int `koanf:"dimension"`
}

// CacheConfig configures the reference cache (§4.6, §6).
type CacheConfig struct {
	// Capacity is CACHE_CAPACITY, the max number of entries before LRU eviction.
	Capacity int `koanf:"capacity"`

	// DefaultTTL is CACHE_DEFAULT_TTL_SECONDS.
	DefaultTTL time.Duration `koanf:"default_ttl"`
}

// CatalogConfig points at the offline catalog database directory.
type CatalogConfig struct {
	Path string `koanf:"path"`
}

// ServerConfig configures the ambient HTTP side-channel (healthz/metrics).
type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// EventbusConfig configures the best-effort NATS ingestion-completed
// event publisher (§4.7). URL empty disables it; Publish becomes a no-op.
type EventbusConfig struct {
	URL string `koanf:"url"`
}

// Validation errors.
var (
	ErrIngestRootNotConfigured = fmt.Errorf("ingest root misconfigured")
)

// Default returns the hardcoded defaults, applied before env/file overlays.
func Default() Config {
	cwd, _ := os.Getwd()
	return Config{
		Logging: logging.DefaultConfig(),
		IngestRoot: IngestRootConfig{
			Path: filepath.Join(cwd, ".agent", "tmp"),
		},
		Embeddings: EmbeddingsConfig{
			Dimension:             384,
			RequestTimeout:        30 * time.Second,
			MaxBatchSize:          64,
			CooldownAfterFailures: 3,
			CooldownWindow:        30 * time.Second,
			FallbackModel:         "BAAI/bge-small-en-v1.5",
		},
		VectorStore: VectorStoreConfig{
			Path:      filepath.Join(cwd, ".agent", "vectorstore"),
			Provider:  "chromem",
			Dimension: 384,
		},
		Cache: CacheConfig{
			Capacity:   10_000,
			DefaultTTL: 24 * time.Hour,
		},
		Catalog: CatalogConfig{
			Path: filepath.Join(cwd, ".agent", "catalog"),
		},
		Server: ServerConfig{
			Addr: ":8085",
		},
		Eventbus: EventbusConfig{},
	}
}

// envMapping maps the contract env vars of §6 to koanf dotted keys.
var envMapping = map[string]string{
	"LEGAL_MCP_INGEST_ROOT":       "ingest_root.path",
	"EMBEDDING_ENDPOINTS":         "embeddings.endpoints",
	"VECTOR_STORE_PATH":           "vector_store.path",
	"VECTOR_STORE_PROVIDER":       "vector_store.provider",
	"QDRANT_URL":                  "vector_store.qdrant_url",
	"CACHE_CAPACITY":              "cache.capacity",
	"CACHE_DEFAULT_TTL_SECONDS":   "cache.default_ttl",
	"CATALOG_PATH":                "catalog.path",
	"LOG_LEVEL":                   "logging.level",
	"LOG_FORMAT":                  "logging.format",
	"SERVER_ADDR":                 "server.addr",
	"NATS_URL":                    "eventbus.url",
}

// Load builds a Config from defaults, an optional YAML overlay at yamlPath,
// and the environment variables named in §6. yamlPath may be empty.
func Load(yamlPath string) (*Config, error) {
	cfg := Default()

	k := koanf.New(".")
	if err := k.Load(structs.Provider(cfg, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if yamlPath != "" {
		content, err := readBoundedFile(yamlPath, maxConfigFileSize)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", yamlPath, err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", yamlPath, err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		mapped, ok := envMapping[key]
		if !ok {
			return "", nil
		}
		switch key {
		case "EMBEDDING_ENDPOINTS":
			return mapped, splitCSV(value)
		case "CACHE_CAPACITY":
			n, _ := strconv.Atoi(value)
			return mapped, n
		case "CACHE_DEFAULT_TTL_SECONDS":
			n, _ := strconv.Atoi(value)
			return mapped, (time.Duration(n) * time.Second).String()
		default:
			return mapped, value
		}
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var out Config
	if err := k.Unmarshal("", &out); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Validate checks the loaded configuration for internal consistency.
func (c Config) Validate() error {
	if c.IngestRoot.Path == "" {
		return ErrIngestRootNotConfigured
	}
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("cache.capacity must be positive, got %d", c.Cache.Capacity)
	}
	if c.VectorStore.Provider != "chromem" && c.VectorStore.Provider != "qdrant" {
		return fmt.Errorf("vector_store.provider must be chromem or qdrant, got %q", c.VectorStore.Provider)
	}
	if c.VectorStore.Provider == "qdrant" && c.VectorStore.QdrantURL == "" {
		return fmt.Errorf("vector_store.qdrant_url required when provider=qdrant")
	}
	return nil
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func readBoundedFile(path string, maxBytes int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() > maxBytes {
		return nil, fmt.Errorf("config file exceeds %d bytes", maxBytes)
	}

	buf := make([]byte, info.Size())
	if _, err := f.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}
