package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HTTPGatewayConfig configures HTTPGateway.
type HTTPGatewayConfig struct {
	// Endpoints is the ordered list of embedding HTTP endpoint base URLs.
	Endpoints []string `koanf:"endpoints"`

	// Dimension is the fixed embedding width every endpoint must return.
	Dimension int `koanf:"dimension"`

	// MaxBatchSize is the largest batch sent in a single request; larger
	// caller batches are split and re-joined preserving order.
	MaxBatchSize int `koanf:"max_batch_size"`

	// RequestTimeout bounds a single HTTP call.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// CooldownWindow is how long an endpoint is skipped after repeated
	// failures before being retried.
	CooldownWindow time.Duration `koanf:"cooldown_window"`

	// FailureThreshold is the number of consecutive failures before an
	// endpoint is marked unhealthy.
	FailureThreshold int `koanf:"failure_threshold"`
}

func (c *HTTPGatewayConfig) applyDefaults() {
	if c.MaxBatchSize == 0 {
		c.MaxBatchSize = 64
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 10 * time.Second
	}
	if c.CooldownWindow == 0 {
		c.CooldownWindow = 30 * time.Second
	}
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 3
	}
}

type endpointHealth struct {
	mu               sync.Mutex
	consecutiveFails int
	unhealthyUntil   time.Time

	// backoffLimiter throttles retries against a flapping endpoint; each
	// consecutive failure halves its rate, approximating exponential
	// back-off without blocking the whole gateway on one slow peer.
	backoffLimiter *rate.Limiter
}

func (h *endpointHealth) recordSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.consecutiveFails = 0
	h.unhealthyUntil = time.Time{}
	h.backoffLimiter.SetLimit(rate.Inf)
}

func (h *endpointHealth) recordFailure(threshold int, cooldown time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.consecutiveFails++
	if h.consecutiveFails >= threshold {
		h.unhealthyUntil = time.Now().Add(cooldown)
	}
	// Exponential back-off: halve the retry rate per consecutive failure,
	// floor at one attempt per 8 seconds.
	backoffSeconds := 1 << uint(h.consecutiveFails)
	if backoffSeconds > 8 {
		backoffSeconds = 8
	}
	h.backoffLimiter.SetLimit(rate.Every(time.Duration(backoffSeconds) * time.Second))
}

func (h *endpointHealth) healthy() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return time.Now().After(h.unhealthyUntil)
}

// HTTPGateway implements Gateway against one or more external HTTP
// embedding endpoints, round-robin with health-aware failover. The only
// shared mutable state is the per-endpoint health table, each guarded by
// its own short critical section (§4.2).
type HTTPGateway struct {
	cfg        HTTPGatewayConfig
	client     *http.Client
	logger     *zap.Logger
	next       uint64
	healthTbl  []*endpointHealth
}

// embedRequest/embedResponse mirror a conventional embedding-server wire
// contract: a batch of texts in, a batch of vectors out, order preserved.
type embedRequest struct {
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewHTTPGateway constructs a gateway over cfg.Endpoints. Endpoints must be
// non-empty; the zero-endpoint fallback path lives in FastEmbedGateway.
func NewHTTPGateway(cfg HTTPGatewayConfig, logger *zap.Logger) (*HTTPGateway, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("%w: at least one endpoint is required", ErrEmbeddingUnavailable)
	}
	cfg.applyDefaults()

	tbl := make([]*endpointHealth, len(cfg.Endpoints))
	for i := range tbl {
		tbl[i] = &endpointHealth{backoffLimiter: rate.NewLimiter(rate.Inf, 1)}
	}

	return &HTTPGateway{
		cfg:       cfg,
		client:    &http.Client{Timeout: cfg.RequestTimeout},
		logger:    logger,
		healthTbl: tbl,
	}, nil
}

func (g *HTTPGateway) Dimension() int { return g.cfg.Dimension }

func (g *HTTPGateway) Close() error {
	g.client.CloseIdleConnections()
	return nil
}

func (g *HTTPGateway) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}
	out, err := g.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (g *HTTPGateway) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}

	result := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += g.cfg.MaxBatchSize {
		end := start + g.cfg.MaxBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := g.embedOneBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		result = append(result, vectors...)
	}
	return result, nil
}

// embedOneBatch tries each endpoint in round-robin order starting from the
// next cursor position, skipping any currently in cooldown, until one
// succeeds or all have been exhausted.
func (g *HTTPGateway) embedOneBatch(ctx context.Context, texts []string) ([][]float32, error) {
	n := len(g.cfg.Endpoints)
	start := int(atomic.AddUint64(&g.next, 1)-1) % n

	var lastErr error
	tried := 0
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		health := g.healthTbl[idx]
		if !health.healthy() {
			continue
		}
		if err := health.backoffLimiter.Wait(ctx); err != nil {
			return nil, err
		}
		tried++

		vectors, err := g.callEndpoint(ctx, g.cfg.Endpoints[idx], texts)
		if err == nil {
			health.recordSuccess()
			return vectors, nil
		}
		health.recordFailure(g.cfg.FailureThreshold, g.cfg.CooldownWindow)
		lastErr = err
		g.logger.Warn("embedding endpoint failed, trying next",
			zap.String("endpoint", g.cfg.Endpoints[idx]), zap.Error(err))
	}

	if tried == 0 {
		return nil, ErrEmbeddingUnavailable
	}
	return nil, fmt.Errorf("%w: all endpoints exhausted, last error: %v", ErrEmbeddingUnavailable, lastErr)
}

func (g *HTTPGateway) callEndpoint(ctx context.Context, endpoint string, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Input: texts})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("endpoint returned status %d: %s", resp.StatusCode, string(data))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding embedding response: %w", err)
	}
	if len(out.Embeddings) != len(texts) {
		return nil, fmt.Errorf("endpoint returned %d vectors for %d inputs", len(out.Embeddings), len(texts))
	}
	return out.Embeddings, nil
}
