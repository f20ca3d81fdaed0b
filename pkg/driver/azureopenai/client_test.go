package azureopenai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/pario-ai/aigateway/pkg/catalog"
	"github.com/pario-ai/aigateway/pkg/cost"
	"github.com/pario-ai/aigateway/pkg/driver"
	"github.com/pario-ai/aigateway/pkg/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, "test-key",
		WithHTTPClient(srv.Client()),
		WithAPIVersion("2024-06-01"),
		WithDeployments(map[string]string{"gpt-4o": "gpt4o-prod"}),
		WithPricer(cost.New(catalog.Default())),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func chatRequest() models.ChatRequest {
	temp := 0.2
	jsonMode := true
	return models.ChatRequest{
		Provider: models.ProviderRef{Name: Name, Model: models.ModelRef{Name: "gpt-4o"}},
		Prompt: models.Prompt{
			Parameter: &models.PromptParameter{Temperature: &temp, JSONMode: &jsonMode},
			Messages: []models.Message{
				{Role: "system", Content: models.MessageContent{Text: "be brief"}},
				{Role: "user", Content: models.MessageContent{Parts: []models.ContentPart{
					{Type: "text", Text: "what is this?"},
					{Type: "image_url", ImageURL: &models.ImageURL{URL: "https://example.com/cat.png"}, Detail: "low"},
				}}},
			},
		},
	}
}

func TestChat(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/deployments/gpt4o-prod/chat/completions", r.URL.Path)
		assert.Equal(t, "2024-06-01", r.URL.Query().Get("api-version"))
		assert.Equal(t, "test-key", r.Header.Get("api-key"))

		body, _ := io.ReadAll(r.Body)
		req := gjson.ParseBytes(body)
		assert.Equal(t, "json_object", req.Get("response_format.type").String())
		assert.Equal(t, 0.2, req.Get("temperature").Float())
		assert.Equal(t, "be brief", req.Get("messages.0.content").String())
		assert.Equal(t, "low", req.Get("messages.1.content.1.image_url.detail").String())
		assert.False(t, req.Get("stream").Exists())

		_, _ = io.WriteString(w, `{
			"choices": [{
				"message": {"role": "assistant", "content": "{\"answer\":\"a cat\"}"},
				"content_filter_results": {
					"hate": {"filtered": false, "severity": "safe"},
					"protected_material_code": {"filtered": false, "detected": false}
				}
			}],
			"prompt_filter_results": [{"prompt_index": 0, "content_filter_results": {"jailbreak": {"filtered": false, "detected": false}}}],
			"usage": {"prompt_tokens": 1000, "completion_tokens": 500, "total_tokens": 1500}
		}`)
	})

	resp, err := c.Chat(context.Background(), chatRequest())
	require.NoError(t, err)

	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "assistant", resp.Messages[0].Role)
	assert.Equal(t, `{"answer":"a cat"}`, *resp.Messages[0].Content)
	assert.Equal(t, 1500, resp.Usage.TotalTokens)
	require.NotNil(t, resp.Cost)
	assert.InDelta(t, 0.0075, resp.Cost.Token.Total, 1e-9)

	require.NotNil(t, resp.Guardrail)
	completion := resp.Guardrail.ContentFilter.Completion.Types
	require.Len(t, completion, 2)
	assert.Equal(t, "hate", completion[0].Category)
	assert.Equal(t, "safe", *completion[0].Severity)
	assert.False(t, *completion[1].Detected)
	assert.Equal(t, "jailbreak", resp.Guardrail.ContentFilter.Prompt.Types[0].Category)
}

func TestChatToolCalls(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		req := gjson.ParseBytes(body)
		assert.Equal(t, "get_weather", req.Get("tools.0.function.name").String())
		assert.Equal(t, "function", req.Get("tools.0.type").String())
		assert.Equal(t, "required", req.Get("tool_choice").String())

		_, _ = io.WriteString(w, `{
			"choices": [{"message": {"role": "assistant", "content": null, "tool_calls": [
				{"id": "call_1", "type": "function", "function": {"name": "get_weather", "arguments": "{\"city\":\"Recife\"}"}}
			]}}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`)
	})

	req := chatRequest()
	req.Tools = []models.Tool{{
		Name:        "get_weather",
		Description: "weather by city",
		Parameters: &models.ToolParameters{
			Type:       "object",
			Properties: map[string]models.ToolProperty{"city": {Type: "string"}},
			Required:   []string{"city"},
		},
	}}
	req.ToolChoice = &models.ToolChoice{Mode: "required"}

	resp, err := c.Chat(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "tool", resp.Messages[0].Role)
	assert.Nil(t, resp.Messages[0].Content)
	assert.Equal(t, "call_1", resp.Messages[0].Tool.ID)
	assert.Equal(t, map[string]any{"city": "Recife"}, resp.Messages[0].Tool.Arguments)
	assert.Nil(t, resp.Guardrail)
}

func TestChatErrors(t *testing.T) {
	tests := []struct {
		status int
		check  func(t *testing.T, err error)
	}{
		{http.StatusTooManyRequests, func(t *testing.T, err error) { assert.ErrorIs(t, err, driver.ErrRateLimited) }},
		{http.StatusNotFound, func(t *testing.T, err error) {
			var nf *driver.NotFoundError
			require.True(t, errors.As(err, &nf))
			assert.Equal(t, "deployment gpt4o-prod", nf.Entity)
		}},
		{http.StatusInternalServerError, func(t *testing.T, err error) { assert.ErrorIs(t, err, driver.ErrUnavailable) }},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, `{"error":{"message":"nope"}}`)
			})
			_, err := c.Chat(context.Background(), chatRequest())
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestEmbed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/deployments/text-embedding-ada-002/embeddings", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, []any{"a", "b"}, gjson.GetBytes(body, "input").Value())

		_, _ = io.WriteString(w, `{
			"data": [{"embedding": [0.1, 0.2]}, {"embedding": [0.3, 0.4]}],
			"usage": {"prompt_tokens": 4, "total_tokens": 4}
		}`)
	})

	resp, err := c.Embed(context.Background(), models.EmbeddingRequest{
		Content:  models.EmbeddingContent{Texts: []string{"a", "b"}},
		Provider: models.ProviderRef{Name: Name, Model: models.ModelRef{Name: "text-embedding-ada-002"}},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0.1, 0.2}, {0.3, 0.4}}, resp.Data)
	assert.Equal(t, 4, resp.Usage.TotalTokens)
	assert.Nil(t, resp.Usage.CompletionTokens)
}

func TestGenerateImage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/deployments/dall-e-3/images/generations", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "1024x1024", gjson.GetBytes(body, "size").String())
		assert.Equal(t, int64(1), gjson.GetBytes(body, "n").Int())

		_, _ = io.WriteString(w, `{"data": [{
			"url": "https://img/1.png",
			"revised_prompt": "a red fox",
			"content_filter_results": {"violence": {"filtered": false, "severity": "safe"}}
		}]}`)
	})

	n := 1
	resp, err := c.GenerateImage(context.Background(), models.ImageRequest{
		Provider: models.ProviderRef{Name: Name, Model: models.ModelRef{Name: "dall-e-3"}},
		Prompt:   models.ImagePrompt{Message: "a fox", Parameter: &models.ImageParameter{N: &n, Size: "1024x1024"}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "https://img/1.png", resp.Data[0].URL)
	assert.Equal(t, "a red fox", resp.Data[0].RevisedPrompt)
	assert.Equal(t, "violence", resp.Data[0].Guardrail.ContentFilter.Completion.Types[0].Category)
}

func TestCreateAndGetFile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			assert.Equal(t, "/openai/files", r.URL.Path)
			assert.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "batch", r.FormValue("purpose"))
			f, hdr, err := r.FormFile("file")
			if assert.NoError(t, err) {
				data, _ := io.ReadAll(f)
				assert.Equal(t, "input.jsonl", hdr.Filename)
				assert.Equal(t, `{"custom_id":"1"}`, string(data))
			}
		case http.MethodGet:
			assert.Equal(t, "/openai/files/file-1", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"id":"file-1","filename":"input.jsonl","purpose":"batch","status":"processed","bytes":17,"created_at":1700000000}`)
	})
	ctx := context.Background()

	created, err := c.CreateFile(ctx, driver.FileUpload{
		Model: "gpt-4o-batch", Name: "input.jsonl", Purpose: "batch", Content: []byte(`{"custom_id":"1"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "file-1", created.ID)
	assert.Equal(t, "JSON Lines", created.Extension.Description)
	assert.Equal(t, 4, created.Status.ID)
	assert.Equal(t, "2023-11-14T22:13:20Z", created.CreatedAt)

	got, err := c.GetFile(ctx, "gpt-4o-batch", "file-1")
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestGetBatchCompleted(t *testing.T) {
	output := `{"custom_id":"2","response":{"body":{"choices":[{"message":{"role":"assistant","content":"second"}}],"usage":{"prompt_tokens":3,"completion_tokens":4,"total_tokens":7}}},"error":null}
{"custom_id":"1","response":{"body":{"choices":[{"message":{"role":"assistant","content":"first"}}],"usage":{"prompt_tokens":1,"completion_tokens":2,"total_tokens":3}}},"error":null}
{"custom_id":"3","response":{"body":{"choices":[]}},"error":null}
`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/openai/batches/batch_1":
			_, _ = io.WriteString(w, `{
				"id": "batch_1", "input_file_id": "file-1", "output_file_id": "file-out",
				"status": "completed", "endpoint": "/chat/completions", "completion_window": "24h",
				"request_counts": {"total": 3, "completed": 3, "failed": 0},
				"created_at": 1700000000, "completed_at": 1700000600, "failed_at": null
			}`)
		case "/openai/files/file-out/content":
			_, _ = io.WriteString(w, output)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	resp, err := c.GetBatch(context.Background(), "gpt-4o-batch", "batch_1")
	require.NoError(t, err)

	assert.Equal(t, 5, resp.Status.ID)
	assert.Equal(t, "Chat Conversation", resp.Endpoint.Description)
	assert.Equal(t, 3, resp.RequestCounts.Total)
	require.NotNil(t, resp.CompletedAt)
	assert.Nil(t, resp.FailedAt)

	require.NotNil(t, resp.Usage)
	assert.Equal(t, 10, resp.Usage.TotalTokens)
	assert.Equal(t, 6, *resp.Usage.CompletionTokens)

	require.NotNil(t, resp.Result)
	assert.Equal(t, "base64", resp.Result.Type)
	raw, err := base64.StdEncoding.DecodeString(resp.Result.Content)
	require.NoError(t, err)
	var doc models.BatchData
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Len(t, doc.Data, 2)
	assert.Equal(t, "first", doc.Data[0].Message.Content)
	assert.Equal(t, "second", doc.Data[1].Message.Content)
}

func TestCreateBatchInProgress(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "file-1", gjson.GetBytes(body, "input_file_id").String())
		assert.Equal(t, "24h", gjson.GetBytes(body, "completion_window").String())
		_, _ = io.WriteString(w, `{"id":"batch_2","input_file_id":"file-1","status":"validating","endpoint":"/chat/completions","completion_window":"24h","request_counts":{"total":0,"completed":0,"failed":0},"errors":{"data":[{"code":"invalid","message":"bad line","line":3}]}}`)
	})

	resp, err := c.CreateBatch(context.Background(), models.BatchRequest{
		File:             models.BatchFile{ID: "file-1"},
		CompletionWindow: models.NameRef{Name: "24h"},
		Provider:         models.ProviderRef{Name: Name, Model: models.ModelRef{Name: "gpt-4o-batch"}},
		Endpoint:         models.NameRef{Name: "/chat/completions"},
	})
	require.NoError(t, err)
	assert.Equal(t, "validating", resp.Status.Name)
	assert.Nil(t, resp.Result)
	assert.Nil(t, resp.Usage)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, 3, *resp.Errors[0].Line)
}
