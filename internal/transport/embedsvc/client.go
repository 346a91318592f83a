// Package embedsvc talks to a self-hosted sentence-embedding microservice.
package embedsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lookbook/internal/domain"
	"github.com/kailas-cloud/lookbook/internal/metrics"
)

// Protocol selects the request flow of the embedding service.
type Protocol string

const (
	// ProtocolJSON posts {"text": ...} to the endpoint and reads the vector from the reply.
	ProtocolJSON Protocol = "json"
	// ProtocolGradio calls a Gradio app: POST {"data":[text]} returns an event id,
	// GET of that event returns the result as a server-sent event stream.
	ProtocolGradio Protocol = "gradio"
)

const maxResponseBytes = 8 << 20

// Config holds the embedding service settings.
type Config struct {
	URL      string
	Protocol Protocol
	// Function is the Gradio function name (ProtocolGradio only).
	Function string
	APIKey   string
	Model    string
	Timeout  time.Duration
	Logger   *zap.Logger
}

// Client implements domain.Embedder over HTTP. No retries; safe for concurrent use.
type Client struct {
	http     *http.Client
	url      string
	protocol Protocol
	function string
	apiKey   string
	model    string
	logger   *zap.Logger
}

// New creates an embedding service client.
func New(cfg *Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("embedding service url is required")
	}
	protocol := cfg.Protocol
	if protocol == "" {
		protocol = ProtocolJSON
	}
	if protocol != ProtocolJSON && protocol != ProtocolGradio {
		return nil, fmt.Errorf("unknown embedding protocol %q", protocol)
	}
	function := cfg.Function
	if function == "" {
		function = "generate_embedding"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:     &http.Client{Timeout: timeout},
		url:      strings.TrimRight(cfg.URL, "/"),
		protocol: protocol,
		function: function,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		logger:   logger,
	}, nil
}

// Embed implements domain.Embedder.
func (c *Client) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	text, err := domain.NormalizeText(text)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}

	start := time.Now()
	var vec []float32
	if c.protocol == ProtocolGradio {
		vec, err = c.embedGradio(ctx, text)
	} else {
		vec, err = c.embedJSON(ctx, text)
	}
	duration := time.Since(start)

	provider := "embedsvc"
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(provider, c.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(provider, c.model, errorType(err)).Inc()
		return domain.EmbeddingResult{}, err
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(provider, c.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(provider, c.model).Observe(duration.Seconds())
	return domain.EmbeddingResult{Embedding: vec}, nil
}

// HealthCheck reports whether the service answers at all. 5xx counts as down.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.authorize(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("embedding service unreachable: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("embedding service status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) embedJSON(ctx context.Context, text string) ([]float32, error) {
	body, err := c.post(ctx, c.url, map[string]string{"text": text})
	if err != nil {
		return nil, err
	}
	return ExtractVector(body)
}

func (c *Client) embedGradio(ctx context.Context, text string) ([]float32, error) {
	callURL := c.url + "/gradio_api/call/" + c.function
	body, err := c.post(ctx, callURL, map[string][]string{"data": {text}})
	if err != nil {
		return nil, err
	}

	var started struct {
		EventID string `json:"event_id"`
	}
	if err := json.Unmarshal(body, &started); err != nil || started.EventID == "" {
		return nil, fmt.Errorf("gradio call returned no event id: %w", domain.ErrEmbeddingFailure)
	}

	body, err = c.get(ctx, callURL+"/"+started.EventID)
	if err != nil {
		return nil, err
	}
	return ExtractVector(body)
}

func (c *Client) post(ctx context.Context, url string, payload any) ([]byte, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	c.authorize(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w: %w", err, domain.ErrEmbeddingFailure)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read embedding response: %w: %w", err, domain.ErrEmbeddingFailure)
	}
	if resp.StatusCode/100 != 2 {
		c.logger.Debug("Embedding service error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", truncate(body, 256)),
		)
		return nil, fmt.Errorf("embedding service status %d: %w", resp.StatusCode, domain.ErrEmbeddingFailure)
	}
	return body, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "api_error"
	}
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
