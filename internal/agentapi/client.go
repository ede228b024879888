package agentapi

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zubairashfaque/FuturNod-Agents/internal/metrics"
	"github.com/zubairashfaque/FuturNod-Agents/internal/tracing"
	"github.com/zubairashfaque/FuturNod-Agents/pkg/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxErrorBody = 4 << 10

type Options struct {
	BaseURL            string
	APIKey             string
	Timeout            time.Duration
	InsecureSkipVerify bool
	Logger             *slog.Logger

	// HTTPClient overrides the client built from Timeout and InsecureSkipVerify.
	HTTPClient *http.Client
}

// Client talks to the remote agent API. None of its methods return errors:
// failures are reported in the response values so callers can treat them
// as ordinary outcomes.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
	tracer  trace.Tracer
}

func New(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if opts.InsecureSkipVerify {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // dev-only, enforced by config validation
			logger.Warn("agent api TLS verification disabled")
		}
		hc = &http.Client{Timeout: timeout, Transport: transport}
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		http:    hc,
		logger:  logger,
		tracer:  tracing.Tracer("github.com/zubairashfaque/FuturNod-Agents/internal/agentapi"),
	}
}

// CheckHealth reports true only for a 2xx reply with a JSON body.
func (c *Client) CheckHealth(ctx context.Context) bool {
	ctx, span := c.tracer.Start(ctx, "agentapi.health")
	defer span.End()

	ok := c.checkHealth(ctx)
	outcome := "up"
	if !ok {
		outcome = "down"
		span.SetStatus(codes.Error, "unhealthy")
	}
	metrics.HealthChecksTotal.WithLabelValues(outcome).Inc()
	return ok
}

func (c *Client) checkHealth(ctx context.Context) bool {
	resp, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		c.logger.Warn("agent api health check failed", "err", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("agent api health check failed", "status", resp.StatusCode)
		return false
	}
	var body any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.logger.Warn("agent api health body is not JSON", "err", err)
		return false
	}
	c.logger.Debug("agent api healthy", "body", body)
	return true
}

// StartTask posts l.Body to l.Path.
func (c *Client) StartTask(ctx context.Context, l Launch) domain.StartResponse {
	ctx, span := c.tracer.Start(ctx, "agentapi.start_task", trace.WithAttributes(
		attribute.String("agent", l.Agent.String()),
		attribute.String("path", l.Path),
	))
	defer span.End()

	out := c.startTask(ctx, l)
	outcome := "accepted"
	if !out.Success {
		outcome = "rejected"
		span.SetStatus(codes.Error, domain.FirstLine(out.Message))
	} else {
		span.SetAttributes(attribute.String("request_id", out.RequestID))
	}
	metrics.TasksStartedTotal.WithLabelValues(l.Agent.String(), outcome).Inc()
	return out
}

func (c *Client) startTask(ctx context.Context, l Launch) domain.StartResponse {
	b, err := json.Marshal(l.Body)
	if err != nil {
		return domain.StartResponse{Message: fmt.Sprintf("encode payload: %v", err)}
	}
	c.logger.Debug("starting agent task", "agent", l.Agent.String(), "path", l.Path)

	resp, err := c.do(ctx, http.MethodPost, l.Path, b)
	if err != nil {
		c.logger.Warn("start task failed", "agent", l.Agent.String(), "err", err)
		return domain.StartResponse{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := fmt.Sprintf("HTTP error %d: %s", resp.StatusCode, strings.TrimSpace(string(text)))
		c.logger.Warn("start task rejected", "agent", l.Agent.String(), "status", resp.StatusCode)
		return domain.StartResponse{Message: msg}
	}

	var out domain.StartResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.StartResponse{Message: fmt.Sprintf("decode start response: %v", err)}
	}
	if out.Success && strings.TrimSpace(out.RequestID) == "" {
		return domain.StartResponse{Message: "Agent API accepted the task without a request id"}
	}
	return out
}

// TaskStatus fetches the raw status of a task. Normalization happens upstream.
func (c *Client) TaskStatus(ctx context.Context, requestID string) domain.StatusResponse {
	ctx, span := c.tracer.Start(ctx, "agentapi.task_status", trace.WithAttributes(
		attribute.String("request_id", requestID),
	))
	defer span.End()

	out := c.taskStatus(ctx, requestID)
	if !out.Success {
		span.SetStatus(codes.Error, domain.FirstLine(out.Message))
	}
	return out
}

func (c *Client) taskStatus(ctx context.Context, requestID string) domain.StatusResponse {
	resp, err := c.do(ctx, http.MethodGet, "/task/"+url.PathEscape(requestID), nil)
	if err != nil {
		return domain.StatusResponse{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return domain.StatusResponse{Message: fmt.Sprintf("Error checking status: HTTP %d", resp.StatusCode)}
	}

	var out domain.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.StatusResponse{Message: fmt.Sprintf("decode status response: %v", err)}
	}
	return out
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	tracing.InjectHeaders(ctx, req.Header)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	return resp, nil
}
