package driver

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pario-ai/aigateway/pkg/models"
)

type chatOnly struct{ name string }

func (c chatOnly) Name() string { return c.name }

func (c chatOnly) Chat(_ context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	content := "hello from " + c.name
	return &models.ChatResponse{Messages: []models.ResponseMessage{{Role: "assistant", Content: &content}}}, nil
}

type sliceStream struct {
	events []models.ChatStreamEvent
	closed bool
}

func (s *sliceStream) Next() (models.ChatStreamEvent, error) {
	if len(s.events) == 0 {
		return models.ChatStreamEvent{}, io.EOF
	}
	e := s.events[0]
	s.events = s.events[1:]
	return e, nil
}

func (s *sliceStream) Close() error { s.closed = true; return nil }

type streamer struct{ chatOnly }

func (s streamer) ChatStream(context.Context, models.ChatRequest) (Stream, error) {
	role := "assistant"
	return &sliceStream{events: []models.ChatStreamEvent{{Message: &models.StreamMessage{Role: &role}}}}, nil
}

func chatRequest(provider string) models.ChatRequest {
	return models.ChatRequest{Provider: models.ProviderRef{Name: provider, Model: models.ModelRef{Name: "m"}}}
}

func TestRegistryDispatch(t *testing.T) {
	r := NewRegistry(chatOnly{name: "a"}, streamer{chatOnly{name: "b"}})

	assert.Equal(t, []string{"a", "b"}, r.Names())

	resp, err := r.Chat(context.Background(), chatRequest("a"))
	require.NoError(t, err)
	assert.Equal(t, "hello from a", *resp.Messages[0].Content)

	s, err := r.ChatStream(context.Background(), chatRequest("b"))
	require.NoError(t, err)
	ev, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "assistant", *ev.Message.Role)
	_, err = s.Next()
	assert.Equal(t, io.EOF, err)
	require.NoError(t, s.Close())
}

func TestRegistryNotMapped(t *testing.T) {
	r := NewRegistry(chatOnly{name: "a"})

	_, err := r.Chat(context.Background(), chatRequest("bedrock"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotMapped))
	assert.Contains(t, err.Error(), "not mapped")
	assert.Contains(t, err.Error(), "bedrock")
}

func TestRegistryUnsupported(t *testing.T) {
	r := NewRegistry(chatOnly{name: "a"})
	ctx := context.Background()

	_, err := r.ChatStream(ctx, chatRequest("a"))
	assert.True(t, errors.Is(err, ErrUnsupported))

	_, err = r.Embed(ctx, models.EmbeddingRequest{Provider: models.ProviderRef{Name: "a"}})
	assert.True(t, errors.Is(err, ErrUnsupported))

	_, err = r.GenerateImage(ctx, models.ImageRequest{Provider: models.ProviderRef{Name: "a"}})
	assert.True(t, errors.Is(err, ErrUnsupported))

	_, err = r.CreateFile(ctx, "a", FileUpload{})
	assert.True(t, errors.Is(err, ErrUnsupported))

	_, err = r.GetBatch(ctx, "a", "m", "batch_1")
	assert.True(t, errors.Is(err, ErrUnsupported))
}

func TestRegisterReplaces(t *testing.T) {
	r := NewRegistry(chatOnly{name: "a"})
	r.Register(streamer{chatOnly{name: "a"}})

	_, err := r.ChatStream(context.Background(), chatRequest("a"))
	assert.NoError(t, err)
}
