package driver

import (
	"context"
	"sort"
	"sync"

	"github.com/pario-ai/aigateway/pkg/models"
)

// Registry maps provider names to drivers.
type Registry struct {
	mu      sync.RWMutex
	drivers map[string]Driver
}

// NewRegistry creates a Registry holding drivers.
func NewRegistry(drivers ...Driver) *Registry {
	r := &Registry{drivers: make(map[string]Driver, len(drivers))}
	for _, d := range drivers {
		r.Register(d)
	}
	return r
}

// Register adds or replaces a driver.
func (r *Registry) Register(d Driver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drivers[d.Name()] = d
}

// Lookup returns the driver registered under name.
func (r *Registry) Lookup(name string) (Driver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.drivers[name]
	if !ok {
		return nil, notMapped(name)
	}
	return d, nil
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.drivers))
	for n := range r.drivers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// capability looks up name and asserts the driver implements T.
func capability[T any](r *Registry, name, what string) (T, error) {
	var zero T
	d, err := r.Lookup(name)
	if err != nil {
		return zero, err
	}
	c, ok := d.(T)
	if !ok {
		return zero, unsupported(name, what)
	}
	return c, nil
}

// Chat routes req to the driver of its provider.
func (r *Registry) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	g, err := capability[ChatGenerator](r, req.Provider.Name, "chat")
	if err != nil {
		return nil, err
	}
	return g.Chat(ctx, req)
}

// ChatStream routes a streaming chat request to the driver of its provider.
func (r *Registry) ChatStream(ctx context.Context, req models.ChatRequest) (Stream, error) {
	s, err := capability[ChatStreamer](r, req.Provider.Name, "chat streaming")
	if err != nil {
		return nil, err
	}
	return s.ChatStream(ctx, req)
}

// Embed routes an embedding request to the driver of its provider.
func (r *Registry) Embed(ctx context.Context, req models.EmbeddingRequest) (*models.EmbeddingResponse, error) {
	e, err := capability[Embedder](r, req.Provider.Name, "embeddings")
	if err != nil {
		return nil, err
	}
	return e.Embed(ctx, req)
}

// GenerateImage routes an image request to the driver of its provider.
func (r *Registry) GenerateImage(ctx context.Context, req models.ImageRequest) (*models.ImageResponse, error) {
	g, err := capability[ImageGenerator](r, req.Provider.Name, "image generation")
	if err != nil {
		return nil, err
	}
	return g.GenerateImage(ctx, req)
}

// CreateFile uploads f through the driver registered as provider.
func (r *Registry) CreateFile(ctx context.Context, provider string, f FileUpload) (*models.FileResponse, error) {
	m, err := capability[FileManager](r, provider, "files")
	if err != nil {
		return nil, err
	}
	return m.CreateFile(ctx, f)
}

// GetFile fetches file metadata through the driver registered as provider.
func (r *Registry) GetFile(ctx context.Context, provider, model, fileID string) (*models.FileResponse, error) {
	m, err := capability[FileManager](r, provider, "files")
	if err != nil {
		return nil, err
	}
	return m.GetFile(ctx, model, fileID)
}

// CreateBatch submits a batch job to the driver of its provider.
func (r *Registry) CreateBatch(ctx context.Context, req models.BatchRequest) (*models.BatchResponse, error) {
	m, err := capability[BatchManager](r, req.Provider.Name, "batches")
	if err != nil {
		return nil, err
	}
	return m.CreateBatch(ctx, req)
}

// GetBatch fetches a batch job through the driver registered as provider.
func (r *Registry) GetBatch(ctx context.Context, provider, model, batchID string) (*models.BatchResponse, error) {
	m, err := capability[BatchManager](r, provider, "batches")
	if err != nil {
		return nil, err
	}
	return m.GetBatch(ctx, model, batchID)
}
