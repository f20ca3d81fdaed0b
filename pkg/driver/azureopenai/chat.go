package azureopenai

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/pario-ai/aigateway/pkg/cost"
	"github.com/pario-ai/aigateway/pkg/driver"
	"github.com/pario-ai/aigateway/pkg/models"
)

func (c *Client) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	body, err := buildChatBody(req, false)
	if err != nil {
		return nil, err
	}
	model := req.Provider.Model.Name
	data, err := c.doJSON(ctx, http.MethodPost, c.deploymentPath(model, "chat/completions"), body, "deployment "+c.deployment(model))
	if err != nil {
		return nil, err
	}

	resp, err := parseChatResponse(gjson.ParseBytes(data))
	if err != nil {
		return nil, err
	}
	if resp.Usage != nil {
		resp.Cost = c.pricer.Add(model, *resp.Usage, cost.Text)
	}
	return resp, nil
}

func (c *Client) ChatStream(ctx context.Context, req models.ChatRequest) (driver.Stream, error) {
	body, err := buildChatBody(req, true)
	if err != nil {
		return nil, err
	}
	model := req.Provider.Model.Name
	resp, err := c.do(ctx, http.MethodPost, c.deploymentPath(model, "chat/completions"), "application/json", body, "deployment "+c.deployment(model))
	if err != nil {
		return nil, err
	}
	return &sseStream{
		reader: bufio.NewReader(resp.Body),
		body:   resp.Body,
		model:  model,
		pricer: c.pricer,
	}, nil
}

// buildChatBody renders the chat completions request document.
func buildChatBody(req models.ChatRequest, stream bool) ([]byte, error) {
	body := []byte(`{"messages":[]}`)
	var err error
	set := func(path string, v any) {
		if err == nil {
			body, err = sjson.SetBytes(body, path, v)
		}
	}

	for _, m := range req.Prompt.Messages {
		set("messages.-1", chatMessage(m))
	}

	if p := req.Prompt.Parameter; p != nil {
		if p.Temperature != nil {
			set("temperature", *p.Temperature)
		}
		if p.MaxTokens != nil {
			set("max_tokens", *p.MaxTokens)
		}
		if !stream {
			format := "text"
			if p.JSONMode != nil && *p.JSONMode {
				format = "json_object"
			}
			set("response_format.type", format)
		}
	}

	if stream {
		set("stream", true)
		set("n", 1)
		set("stream_options.include_usage", true)
	} else {
		for _, t := range req.Tools {
			set("tools.-1", chatTool(t))
		}
		if len(req.Tools) > 0 && req.ToolChoice != nil {
			set("tool_choice", req.ToolChoice)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("azureopenai: build chat request: %w", err)
	}
	return body, nil
}

func chatMessage(m models.Message) map[string]any {
	if m.Role == "function" && m.Tool != nil {
		return map[string]any{
			"role":         "tool",
			"tool_call_id": m.Tool.ID,
			"name":         m.Tool.Name,
			"content":      m.Content.Text,
		}
	}
	if !m.Content.IsParts() {
		return map[string]any{"role": m.Role, "content": m.Content.Text}
	}
	parts := make([]map[string]any, 0, len(m.Content.Parts))
	for _, p := range m.Content.Parts {
		part := map[string]any{"type": p.Type}
		switch p.Type {
		case "text":
			part["text"] = p.Text
		case "image_url":
			img := map[string]any{}
			if p.ImageURL != nil {
				img["url"] = p.ImageURL.URL
			}
			if p.Detail != "" {
				img["detail"] = p.Detail
			}
			part["image_url"] = img
		}
		parts = append(parts, part)
	}
	return map[string]any{"role": m.Role, "content": parts}
}

func chatTool(t models.Tool) map[string]any {
	fn := map[string]any{"name": t.Name, "description": t.Description}
	if t.Parameters != nil {
		props := make(map[string]any, len(t.Parameters.Properties))
		for k, p := range t.Parameters.Properties {
			prop := map[string]any{"type": p.Type}
			if p.Description != "" {
				prop["description"] = p.Description
			}
			if len(p.Enum) > 0 {
				prop["enum"] = p.Enum
			}
			props[k] = prop
		}
		required := t.Parameters.Required
		if required == nil {
			required = []string{}
		}
		fn["parameters"] = map[string]any{
			"type":       t.Parameters.Type,
			"properties": props,
			"required":   required,
		}
	}
	return map[string]any{"type": "function", "function": fn}
}

// parseChatResponse normalizes a chat completion. Tool calls become messages
// with role "tool"; otherwise the first choice's message is returned with
// its content filter verdicts.
func parseChatResponse(r gjson.Result) (*models.ChatResponse, error) {
	choice := r.Get("choices.0")
	if !choice.Exists() {
		return nil, fmt.Errorf("azureopenai: empty choices in response")
	}

	resp := &models.ChatResponse{}
	if u := r.Get("usage"); u.IsObject() {
		usage := parseUsage(u)
		resp.Usage = &usage
	}

	if calls := choice.Get("message.tool_calls"); calls.IsArray() && len(calls.Array()) > 0 {
		for _, call := range calls.Array() {
			args := map[string]any{}
			if raw := call.Get("function.arguments").String(); raw != "" {
				if err := json.Unmarshal([]byte(raw), &args); err != nil {
					return nil, fmt.Errorf("azureopenai: decode tool arguments: %w", err)
				}
			}
			resp.Messages = append(resp.Messages, models.ResponseMessage{
				Role: "tool",
				Tool: &models.ToolCall{
					ID:        call.Get("id").String(),
					Name:      call.Get("function.name").String(),
					Arguments: args,
				},
			})
		}
		return resp, nil
	}

	msg := models.ResponseMessage{Role: choice.Get("message.role").String()}
	if content := choice.Get("message.content"); content.Exists() && content.Type != gjson.Null {
		s := content.String()
		msg.Content = &s
	}
	resp.Messages = []models.ResponseMessage{msg}
	resp.Guardrail = guardrail(
		choice.Get("content_filter_results"),
		promptFilter(r.Get("prompt_filter_results.0")),
	)
	return resp, nil
}
