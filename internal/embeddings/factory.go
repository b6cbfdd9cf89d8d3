package embeddings

import (
	"go.uber.org/zap"

	"github.com/l4b4r4b4b4/legal-mcp-go/internal/config"
)

// New builds the configured Gateway: an HTTPGateway when one or more
// endpoints are configured, otherwise the in-process FastEmbedGateway
// fallback (§4.2).
func New(cfg config.EmbeddingsConfig, logger *zap.Logger) (Gateway, error) {
	if len(cfg.Endpoints) > 0 {
		return NewHTTPGateway(HTTPGatewayConfig{
			Endpoints:        cfg.Endpoints,
			Dimension:        cfg.Dimension,
			MaxBatchSize:     cfg.MaxBatchSize,
			RequestTimeout:   cfg.RequestTimeout,
			CooldownWindow:   cfg.CooldownWindow,
			FailureThreshold: cfg.CooldownAfterFailures,
		}, logger)
	}
	return NewFastEmbedGateway(FastEmbedConfig{Model: cfg.FallbackModel})
}
