// Package agent is the HTTP client for the backend analysis agent service.
package agent

import (
	"agentic_report/pkg/models"
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
)

// DefaultTimeout bounds a single agent call. Upstream LLM calls are slow.
const DefaultTimeout = 5 * time.Minute

var (
	// ErrTimeout is returned when a call exceeds its timeout.
	ErrTimeout = errors.New("agent request timed out")
	// ErrTransport covers connection, read and decode failures.
	ErrTransport = errors.New("agent transport failure")
	// ErrStatus is returned for non-2xx responses.
	ErrStatus = errors.New("agent returned an error status")
)

// Config configures the client.
type Config struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Client calls the agent endpoints. Calls are never retried.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a client. A zero timeout means DefaultTimeout.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		http:    &http.Client{},
		logger:  logger.Named("agent"),
	}
}

// Query calls POST /agent/query.
func (c *Client) Query(ctx context.Context, question string) (*models.AgentResponse, error) {
	var out models.AgentResponse
	if err := c.post(ctx, "/agent/query", models.QueryRequest{Question: question}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateSection calls POST /agent/generate-section.
func (c *Client) GenerateSection(ctx context.Context, req models.SectionRequest) (*models.AgentResponse, error) {
	var out models.AgentResponse
	if err := c.post(ctx, "/agent/generate-section", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VisualizeText calls POST /agent/visualize-text.
func (c *Client) VisualizeText(ctx context.Context, req models.VisualizeRequest) (*models.VisualizeResponse, error) {
	var out models.VisualizeResponse
	if err := c.post(ctx, "/agent/visualize-text", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("AGENT_MARSHAL_ERROR: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: AGENT_REQ_CREATE_ERROR: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	c.logger.Debug("calling agent", zap.String("path", path), zap.Duration("timeout", c.timeout))

	res, err := c.http.Do(req)
	if err != nil {
		return c.wrap(ctx, path, "AGENT_API_CALL_ERROR", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return c.wrap(ctx, path, "AGENT_READ_BODY_ERROR", err)
	}

	c.logger.Debug("agent responded",
		zap.String("path", path),
		zap.Int("status", res.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("%w: AGENT_API_ERROR: status=%d detail=%s", ErrStatus, res.StatusCode, errorDetail(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: AGENT_UNMARSHAL_ERROR: %v", ErrTransport, err)
	}
	return nil
}

func (c *Client) wrap(ctx context.Context, path, tag string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		c.logger.Warn("agent call timed out", zap.String("path", path), zap.Duration("timeout", c.timeout))
		return fmt.Errorf("%w: AGENT_TIMEOUT: %s exceeded %s", ErrTimeout, path, c.timeout)
	}
	return fmt.Errorf("%w: %s: %v", ErrTransport, tag, err)
}

// errorDetail pulls the message out of {"error": ...} or {"detail": ...}
// bodies, falling back to the raw body.
func errorDetail(body []byte) string {
	var m map[string]any
	if json.Unmarshal(body, &m) == nil {
		for _, k := range []string{"error", "detail", "message"} {
			if s, ok := m[k].(string); ok && s != "" {
				return s
			}
		}
	}
	s := strings.TrimSpace(string(body))
	if r := []rune(s); len(r) > 200 {
		s = string(r[:200])
	}
	return s
}
