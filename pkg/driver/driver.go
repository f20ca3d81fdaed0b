// Package driver defines the capability interfaces generation back-ends
// implement and a registry that dispatches requests to them by provider name.
package driver

import (
	"context"

	"github.com/pario-ai/aigateway/pkg/cost"
	"github.com/pario-ai/aigateway/pkg/models"
)

// Driver is a named generation back-end. Drivers implement any subset of the
// capability interfaces below.
type Driver interface {
	// Name returns the provider name requests use to select this driver.
	Name() string
}

// ChatGenerator performs synchronous chat completions.
type ChatGenerator interface {
	Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
}

// ChatStreamer performs streamed chat completions.
type ChatStreamer interface {
	ChatStream(ctx context.Context, req models.ChatRequest) (Stream, error)
}

// Embedder creates embeddings.
type Embedder interface {
	Embed(ctx context.Context, req models.EmbeddingRequest) (*models.EmbeddingResponse, error)
}

// ImageGenerator creates images.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req models.ImageRequest) (*models.ImageResponse, error)
}

// FileManager uploads and inspects batch input files.
type FileManager interface {
	CreateFile(ctx context.Context, f FileUpload) (*models.FileResponse, error)
	GetFile(ctx context.Context, model, fileID string) (*models.FileResponse, error)
}

// BatchManager starts and inspects batch jobs.
type BatchManager interface {
	CreateBatch(ctx context.Context, req models.BatchRequest) (*models.BatchResponse, error)
	GetBatch(ctx context.Context, model, batchID string) (*models.BatchResponse, error)
}

// Stream is a normalized chat event stream.
type Stream interface {
	// Next returns the next event. Returns io.EOF when the stream is done.
	Next() (models.ChatStreamEvent, error)

	// Close releases resources.
	Close() error
}

// FileUpload is a decoded file ready to be sent to a back-end.
type FileUpload struct {
	Model   string
	Name    string
	Purpose string
	Content []byte
}

// Pricer computes the cost of reported usage. *cost.Calculator satisfies it.
type Pricer interface {
	Add(modelName string, usage models.Usage, kind cost.Kind) *models.Cost
}

// NoPricer never prices anything.
type NoPricer struct{}

func (NoPricer) Add(string, models.Usage, cost.Kind) *models.Cost { return nil }
