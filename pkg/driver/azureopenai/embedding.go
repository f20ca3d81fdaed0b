package azureopenai

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/pario-ai/aigateway/pkg/models"
)

func (c *Client) Embed(ctx context.Context, req models.EmbeddingRequest) (*models.EmbeddingResponse, error) {
	model := req.Provider.Model.Name
	body, err := sjson.SetBytes([]byte(`{}`), "input", req.Content.Texts)
	if err != nil {
		return nil, fmt.Errorf("azureopenai: build embedding request: %w", err)
	}
	data, err := c.doJSON(ctx, http.MethodPost, c.deploymentPath(model, "embeddings"), body, "deployment "+c.deployment(model))
	if err != nil {
		return nil, err
	}

	r := gjson.ParseBytes(data)
	resp := &models.EmbeddingResponse{Usage: parseUsage(r.Get("usage"))}
	for _, item := range r.Get("data").Array() {
		values := item.Get("embedding").Array()
		vec := make([]float64, len(values))
		for i, v := range values {
			vec[i] = v.Float()
		}
		resp.Data = append(resp.Data, vec)
	}
	return resp, nil
}
