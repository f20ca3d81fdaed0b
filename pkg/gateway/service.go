// Package gateway implements the business services behind the HTTP API:
// it validates requests against the catalog, dispatches them to provider
// drivers and attaches cost to the results.
package gateway

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/pario-ai/aigateway/pkg/catalog"
	"github.com/pario-ai/aigateway/pkg/cost"
	"github.com/pario-ai/aigateway/pkg/driver"
	"github.com/pario-ai/aigateway/pkg/models"
)

// Dispatcher routes requests to the driver registered for a provider.
// *driver.Registry satisfies it.
type Dispatcher interface {
	Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
	ChatStream(ctx context.Context, req models.ChatRequest) (driver.Stream, error)
	Embed(ctx context.Context, req models.EmbeddingRequest) (*models.EmbeddingResponse, error)
	GenerateImage(ctx context.Context, req models.ImageRequest) (*models.ImageResponse, error)
	CreateFile(ctx context.Context, provider string, f driver.FileUpload) (*models.FileResponse, error)
	GetFile(ctx context.Context, provider, model, fileID string) (*models.FileResponse, error)
	CreateBatch(ctx context.Context, req models.BatchRequest) (*models.BatchResponse, error)
	GetBatch(ctx context.Context, provider, model, batchID string) (*models.BatchResponse, error)
}

var _ Dispatcher = (*driver.Registry)(nil)

const (
	chatCompletionsEndpoint = "/chat/completions"
	completionWindow24h     = "24h"
)

// Service is the gateway business layer.
type Service struct {
	catalog catalog.Provider
	drivers Dispatcher
	pricer  driver.Pricer
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a Service. A nil pricer disables cost attachment.
func New(c catalog.Provider, d Dispatcher, p driver.Pricer, opts ...Option) *Service {
	if p == nil {
		p = driver.NoPricer{}
	}
	s := &Service{
		catalog: c,
		drivers: d,
		pricer:  p,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Catalog returns the catalog requests are validated against.
func (s *Service) Catalog() catalog.Provider { return s.catalog }

// Providers returns the catalog providers.
func (s *Service) Providers() []models.Provider {
	return s.catalog.Providers()
}

// Chat validates and performs a chat completion.
func (s *Service) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	if _, err := validateChat(s.catalog, req); err != nil {
		return nil, err
	}
	resp, err := s.drivers.Chat(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}
	if resp.Cost == nil && resp.Usage != nil {
		resp.Cost = s.pricer.Add(req.Provider.Model.Name, *resp.Usage, cost.Text)
	}
	return resp, nil
}

// ChatStream validates a chat request and opens a normalized event stream.
// The caller must close the returned stream.
func (s *Service) ChatStream(ctx context.Context, req models.ChatRequest) (driver.Stream, error) {
	if _, err := validateChat(s.catalog, req); err != nil {
		return nil, err
	}
	stream, err := s.drivers.ChatStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat stream: %w", err)
	}
	return stream, nil
}

// Embed validates and creates embeddings, attaching text cost.
func (s *Service) Embed(ctx context.Context, req models.EmbeddingRequest) (*models.EmbeddingResponse, error) {
	if _, err := validateEmbeddingModel(s.catalog, req.Provider); err != nil {
		return nil, err
	}
	return s.embed(ctx, req)
}

func (s *Service) embed(ctx context.Context, req models.EmbeddingRequest) (*models.EmbeddingResponse, error) {
	resp, err := s.drivers.Embed(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	resp.Cost = s.pricer.Add(req.Provider.Model.Name, resp.Usage, cost.Text)
	return resp, nil
}

// GenerateImage validates and performs an image generation.
func (s *Service) GenerateImage(ctx context.Context, req models.ImageRequest) (*models.ImageResponse, error) {
	if err := validateImage(s.catalog, req); err != nil {
		return nil, err
	}
	resp, err := s.drivers.GenerateImage(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generate image: %w", err)
	}
	return resp, nil
}

// CreateFile converts a base64 batch document into JSONL batch lines and
// uploads it.
func (s *Service) CreateFile(ctx context.Context, req models.FileRequest) (*models.FileResponse, error) {
	m, err := validateProvider(s.catalog, req.Provider)
	if err != nil {
		return nil, err
	}
	if req.Extension.Name != "jsonl" {
		return nil, badRequest(fmt.Sprintf("extension '%s' is not supported", req.Extension.Name))
	}
	if req.Purpose.Name != "batch" {
		return nil, badRequest(fmt.Sprintf("purpose '%s' is not supported", req.Purpose.Name))
	}
	if req.Endpoint.Name != chatCompletionsEndpoint {
		return nil, badRequest(fmt.Sprintf("endpoint '%s' is not supported", req.Endpoint.Name))
	}
	if err := validateBatchPurpose(m, req.Purpose.Name); err != nil {
		return nil, err
	}
	raw, err := base64.StdEncoding.Strict().DecodeString(req.Content)
	if err != nil {
		return nil, badRequest("Invalid Base64 string")
	}
	content, err := batchLines(m.Name, req.Endpoint.Name, raw)
	if err != nil {
		return nil, err
	}

	resp, err := s.drivers.CreateFile(ctx, req.Provider.Name, driver.FileUpload{
		Model:   m.Name,
		Name:    req.Name + "." + req.Extension.Name,
		Purpose: req.Purpose.Name,
		Content: content,
	})
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	s.logger.Debug("file uploaded", "provider", req.Provider.Name, "file_id", resp.ID, "bytes", len(content))
	return resp, nil
}

// batchLines turns {"data":[{"messages":[...],"max_tokens":n}, ...]} into
// one batch request line per entry.
func batchLines(model, endpoint string, raw []byte) ([]byte, error) {
	doc := strings.TrimSpace(string(raw))
	if !gjson.Valid(doc) {
		return nil, badRequest("Please provide a valid content")
	}
	data := gjson.Get(doc, "data")
	if !data.IsArray() {
		return nil, badRequest("Please provide a valid content")
	}

	var b strings.Builder
	for i, entry := range data.Array() {
		line := `{}`
		var err error
		set := func(path string, v any) {
			if err == nil {
				line, err = sjson.Set(line, path, v)
			}
		}
		setRaw := func(path, v string) {
			if err == nil {
				line, err = sjson.SetRaw(line, path, v)
			}
		}
		set("custom_id", strconv.Itoa(i))
		set("method", "POST")
		set("url", endpoint)
		set("body.model", model)
		if msgs := entry.Get("messages"); msgs.IsArray() {
			setRaw("body.messages", msgs.Raw)
		} else {
			setRaw("body.messages", `[]`)
		}
		set("body.max_tokens", entry.Get("max_tokens").Int())
		if err != nil {
			return nil, fmt.Errorf("build batch line %d: %w", i, err)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return []byte(b.String()), nil
}

// GetFile returns the status of an uploaded file.
func (s *Service) GetFile(ctx context.Context, provider, model, fileID string) (*models.FileResponse, error) {
	if err := s.validateQuery(provider, model); err != nil {
		return nil, err
	}
	resp, err := s.drivers.GetFile(ctx, provider, model, fileID)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	return resp, nil
}

// CreateBatch starts a batch job over an uploaded file.
func (s *Service) CreateBatch(ctx context.Context, req models.BatchRequest) (*models.BatchResponse, error) {
	if _, err := validateProvider(s.catalog, req.Provider); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.File.ID) == "" {
		return nil, badRequest("file id cannot be empty or blank.")
	}
	if req.CompletionWindow.Name != completionWindow24h {
		return nil, badRequest(fmt.Sprintf("completion_window '%s' is not supported", req.CompletionWindow.Name))
	}
	if req.Endpoint.Name != chatCompletionsEndpoint {
		return nil, badRequest(fmt.Sprintf("endpoint '%s' is not supported", req.Endpoint.Name))
	}
	resp, err := s.drivers.CreateBatch(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}
	return resp, nil
}

// GetBatch returns the status of a batch job. Completed jobs carry the
// aggregated usage, the result document and its text cost.
func (s *Service) GetBatch(ctx context.Context, provider, model, batchID string) (*models.BatchResponse, error) {
	if err := s.validateQuery(provider, model); err != nil {
		return nil, err
	}
	resp, err := s.drivers.GetBatch(ctx, provider, model, batchID)
	if err != nil {
		return nil, fmt.Errorf("get batch: %w", err)
	}
	if resp.Status.Name == models.BatchCompleted && resp.Usage != nil {
		resp.Cost = s.pricer.Add(model, *resp.Usage, cost.Text)
	}
	return resp, nil
}

func (s *Service) validateQuery(provider, model string) error {
	if err := ValidateProviderName(s.catalog, provider); err != nil {
		return err
	}
	return ValidateModelName(s.catalog, model)
}
