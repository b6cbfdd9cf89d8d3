package vectorstore

import (
	"fmt"
	"net"
	"strconv"

	"go.uber.org/zap"

	"github.com/l4b4r4b4b4/legal-mcp-go/internal/config"
)

// New builds the configured Store: the embedded chromem-go backend when
// cfg.Provider is "chromem" (the default), or a networked Qdrant backend
// when it is "qdrant". config.Config.Validate already rejects any other
// value before this is ever called.
func New(cfg config.VectorStoreConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Provider {
	case "qdrant":
		host, port, err := splitHostPort(cfg.QdrantURL)
		if err != nil {
			return nil, fmt.Errorf("parsing qdrant_url %q: %w", cfg.QdrantURL, err)
		}
		return NewQdrantStore(QdrantConfig{
			Host:       host,
			Port:       port,
			VectorSize: uint64(cfg.Dimension),
		}, logger)
	case "chromem", "":
		return NewChromemStore(ChromemConfig{Path: cfg.Path}, logger)
	default:
		return nil, fmt.Errorf("%w: unknown vector store provider %q", ErrInvalidWhere, cfg.Provider)
	}
}

func splitHostPort(url string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(url)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q: %w", portStr, err)
	}
	return host, port, nil
}
