// Package azureopenai is the Azure OpenAI driver. It talks to the REST API of
// an Azure OpenAI resource directly, routing each model to its deployment.
package azureopenai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/pario-ai/aigateway/pkg/driver"
)

// DefaultAPIVersion is the api-version query parameter sent with every call.
const DefaultAPIVersion = "2024-10-21"

// Name is the default provider name of the driver.
const Name = "azure_openai"

// Client is the Azure OpenAI driver.
type Client struct {
	name        string
	endpoint    string
	apiKey      string
	apiVersion  string
	deployments map[string]string
	httpClient  *http.Client
	pricer      driver.Pricer
	logger      *slog.Logger
}

var (
	_ driver.Driver         = (*Client)(nil)
	_ driver.ChatGenerator  = (*Client)(nil)
	_ driver.ChatStreamer   = (*Client)(nil)
	_ driver.Embedder       = (*Client)(nil)
	_ driver.ImageGenerator = (*Client)(nil)
	_ driver.FileManager    = (*Client)(nil)
	_ driver.BatchManager   = (*Client)(nil)
)

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithAPIVersion overrides the api-version query parameter.
func WithAPIVersion(v string) Option {
	return func(cl *Client) {
		if v != "" {
			cl.apiVersion = v
		}
	}
}

// WithDeployments maps model names to deployment names. Unmapped models use
// the model name as deployment.
func WithDeployments(m map[string]string) Option {
	return func(cl *Client) { cl.deployments = m }
}

// WithPricer sets the pricer used to attach cost to text responses.
func WithPricer(p driver.Pricer) Option {
	return func(cl *Client) { cl.pricer = p }
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// WithName registers the driver under a provider name other than
// "azure_openai".
func WithName(name string) Option {
	return func(cl *Client) {
		if name != "" {
			cl.name = name
		}
	}
}

// New creates a client for the resource at endpoint.
func New(endpoint, apiKey string, opts ...Option) *Client {
	c := &Client{
		name:       Name,
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		apiVersion: DefaultAPIVersion,
		httpClient: http.DefaultClient,
		pricer:     driver.NoPricer{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string { return c.name }

func (c *Client) deployment(model string) string {
	if d, ok := c.deployments[model]; ok && d != "" {
		return d
	}
	return model
}

func (c *Client) deploymentPath(model, op string) string {
	return "/openai/deployments/" + url.PathEscape(c.deployment(model)) + "/" + op
}

// do sends a request and maps non-2xx replies to driver errors. entity
// labels the resource in not-found errors.
func (c *Client) do(ctx context.Context, method, path, contentType string, body []byte, entity string) (*http.Response, error) {
	u := c.endpoint + path + "?api-version=" + url.QueryEscape(c.apiVersion)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("azureopenai: create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("api-key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("azure openai request failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("%w: %v", driver.ErrUnavailable, err)
	}
	c.logger.Debug("azure openai request",
		"method", method,
		"path", path,
		"status_code", resp.StatusCode,
		"latency_ms", time.Since(start).Milliseconds(),
	)

	if err := mapHTTPError(resp, entity); err != nil {
		return nil, err
	}
	return resp, nil
}

// doJSON sends a JSON body and returns the full response body.
func (c *Client) doJSON(ctx context.Context, method, path string, body []byte, entity string) ([]byte, error) {
	ct := ""
	if body != nil {
		ct = "application/json"
	}
	resp, err := c.do(ctx, method, path, ct, body, entity)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("azureopenai: read response: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("azureopenai: invalid JSON response")
	}
	return data, nil
}

func mapHTTPError(resp *http.Response, entity string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// Read body for error context, but don't fail if we can't.
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	resp.Body.Close()
	msg := gjson.GetBytes(body, "error.message").String()
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", driver.ErrRateLimited, msg)
	case http.StatusNotFound:
		if entity == "" {
			entity = "resource"
		}
		return &driver.NotFoundError{Entity: entity}
	default:
		return fmt.Errorf("%w: status %d: %s", driver.ErrUnavailable, resp.StatusCode, msg)
	}
}
