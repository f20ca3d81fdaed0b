package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/pario-ai/aigateway/pkg/cost"
	"github.com/pario-ai/aigateway/pkg/models"
	"github.com/pario-ai/aigateway/pkg/quota"
)

type quotaStatusArgs struct {
	UseCaseID       string `json:"use_case_id"`
	ProviderName    string `json:"provider_name"`
	ModelName       string `json:"model_name"`
	IncludeDisabled bool   `json:"include_disabled"`
}

type providersArgs struct {
	GenerationType models.GenerationType `json:"generation_type"`
}

type estimateCostArgs struct {
	ModelName        string `json:"model_name"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

type toolHandler func(ctx context.Context, s *Server, args json.RawMessage) ToolCallResult

var handlers = map[string]toolHandler{
	"aigateway_quota_status":  handleQuotaStatus,
	"aigateway_providers":     handleProviders,
	"aigateway_estimate_cost": handleEstimateCost,
}

func stringProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

var tools = []Tool{
	{
		Name:        "aigateway_quota_status",
		Description: "Show the token quota (limit and remaining balance) of a client for a provider model.",
		InputSchema: map[string]any{
			"type":     "object",
			"required": []string{"use_case_id", "provider_name", "model_name"},
			"properties": map[string]any{
				"use_case_id":   stringProp("Client id the quota belongs to"),
				"provider_name": stringProp("Provider name, e.g. azure_openai"),
				"model_name":    stringProp("Model name, e.g. gpt-4o"),
				"include_disabled": map[string]any{
					"type":        "boolean",
					"description": "Also list disabled quotas (optional)",
				},
			},
		},
	},
	{
		Name:        "aigateway_providers",
		Description: "List catalog providers and their models, optionally filtered by generation type.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"generation_type": map[string]any{
					"type":        "string",
					"enum":        []string{"text", "image", "embedding"},
					"description": "Filter by generation type (optional)",
				},
			},
		},
	},
	{
		Name:        "aigateway_estimate_cost",
		Description: "Estimate the text cost of a token usage for a model from its catalog price list.",
		InputSchema: map[string]any{
			"type":     "object",
			"required": []string{"model_name", "prompt_tokens"},
			"properties": map[string]any{
				"model_name":        stringProp("Model name"),
				"prompt_tokens":     map[string]any{"type": "integer", "description": "Prompt tokens"},
				"completion_tokens": map[string]any{"type": "integer", "description": "Completion tokens (optional)"},
			},
		},
	},
}

func textResult(text string) ToolCallResult {
	return ToolCallResult{Content: []ContentBlock{{Type: "text", Text: text}}}
}

func errorResult(text string) ToolCallResult {
	return ToolCallResult{Content: []ContentBlock{{Type: "text", Text: text}}, IsError: true}
}

// decode unmarshals raw into v. Absent arguments leave v zeroed.
func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func handleQuotaStatus(ctx context.Context, s *Server, raw json.RawMessage) ToolCallResult {
	var args quotaStatusArgs
	if err := decode(raw, &args); err != nil {
		return errorResult("invalid arguments: " + err.Error())
	}
	if args.UseCaseID == "" || args.ProviderName == "" || args.ModelName == "" {
		return errorResult("use_case_id, provider_name and model_name are required")
	}
	if s.quotas == nil {
		return errorResult("quota ledger not configured")
	}

	var enabled *bool
	if !args.IncludeDisabled {
		v := true
		enabled = &v
	}
	key := quota.Key{UseCaseID: args.UseCaseID, ProviderName: args.ProviderName, ModelName: args.ModelName}
	qs, err := s.quotas.Retrieve(ctx, key, enabled)
	var missing *quota.NotFoundError
	switch {
	case errors.As(err, &missing):
		return textResult(formatQuotas(nil))
	case err != nil:
		return errorResult("retrieve quotas: " + err.Error())
	}
	return textResult(formatQuotas(qs))
}

func handleProviders(_ context.Context, s *Server, raw json.RawMessage) ToolCallResult {
	var args providersArgs
	if err := decode(raw, &args); err != nil {
		return errorResult("invalid arguments: " + err.Error())
	}
	return textResult(formatProviders(s.catalog.Providers(), args.GenerationType))
}

func handleEstimateCost(_ context.Context, s *Server, raw json.RawMessage) ToolCallResult {
	var args estimateCostArgs
	if err := decode(raw, &args); err != nil {
		return errorResult("invalid arguments: " + err.Error())
	}
	if args.ModelName == "" {
		return errorResult("model_name is required")
	}
	if args.PromptTokens < 0 || args.CompletionTokens < 0 {
		return errorResult("token counts must not be negative")
	}
	if _, ok := s.catalog.Model(args.ModelName); !ok {
		return errorResult("unknown model: " + args.ModelName)
	}

	usage := models.Usage{PromptTokens: args.PromptTokens, TotalTokens: args.PromptTokens + args.CompletionTokens}
	if args.CompletionTokens > 0 {
		usage.CompletionTokens = &args.CompletionTokens
	}
	c := s.pricer.Add(args.ModelName, usage, cost.Text)
	if c == nil || c.Token == nil {
		return textResult("No text price for model " + args.ModelName + ".")
	}
	return textResult(formatCost(args.ModelName, usage, c.Token))
}
