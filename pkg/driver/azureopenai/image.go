package azureopenai

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/pario-ai/aigateway/pkg/models"
)

func (c *Client) GenerateImage(ctx context.Context, req models.ImageRequest) (*models.ImageResponse, error) {
	model := req.Provider.Model.Name
	body := []byte(`{}`)
	var err error
	set := func(path string, v any) {
		if err == nil {
			body, err = sjson.SetBytes(body, path, v)
		}
	}
	set("prompt", req.Prompt.Message)
	set("model", model)
	if p := req.Prompt.Parameter; p != nil {
		if p.N != nil {
			set("n", *p.N)
		}
		for _, kv := range [][2]string{
			{"quality", p.Quality},
			{"response_format", p.ResponseFormat},
			{"size", p.Size},
			{"style", p.Style},
		} {
			if kv[1] != "" {
				set(kv[0], kv[1])
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("azureopenai: build image request: %w", err)
	}

	data, err := c.doJSON(ctx, http.MethodPost, c.deploymentPath(model, "images/generations"), body, "deployment "+c.deployment(model))
	if err != nil {
		return nil, err
	}

	resp := &models.ImageResponse{Data: []models.Image{}}
	for _, item := range gjson.GetBytes(data, "data").Array() {
		resp.Data = append(resp.Data, models.Image{
			B64JSON:       item.Get("b64_json").String(),
			RevisedPrompt: item.Get("revised_prompt").String(),
			URL:           item.Get("url").String(),
			Guardrail:     guardrail(item.Get("content_filter_results"), item.Get("prompt_filter_results")),
		})
	}
	return resp, nil
}
