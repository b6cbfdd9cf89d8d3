package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "chromem", cfg.VectorStore.Provider)
	assert.Equal(t, 10_000, cfg.Cache.Capacity)
	assert.Equal(t, 24*time.Hour, cfg.Cache.DefaultTTL)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("CACHE_CAPACITY", "500")
	t.Setenv("CACHE_DEFAULT_TTL_SECONDS", "60")
	t.Setenv("EMBEDDING_ENDPOINTS", "http://a:8080, http://b:8080")
	t.Setenv("LEGAL_MCP_INGEST_ROOT", "/tmp/ingest-root")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Cache.Capacity)
	assert.Equal(t, 60*time.Second, cfg.Cache.DefaultTTL)
	assert.Equal(t, []string{"http://a:8080", "http://b:8080"}, cfg.Embeddings.Endpoints)
	assert.Equal(t, "/tmp/ingest-root", cfg.IngestRoot.Path)
}

func TestLoad_QdrantProviderRequiresURL(t *testing.T) {
	t.Setenv("VECTOR_STORE_PROVIDER", "qdrant")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_YAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  capacity: 42\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Cache.Capacity)
}

func TestLoad_RejectsOversizedConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	big := make([]byte, maxConfigFileSize+1)
	require.NoError(t, os.WriteFile(path, big, 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
