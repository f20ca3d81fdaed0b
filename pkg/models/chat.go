package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ChatRequest is the normalized chat request accepted by the gateway.
type ChatRequest struct {
	Provider   ProviderRef `json:"provider"`
	Prompt     Prompt      `json:"prompt"`
	Tools      []Tool      `json:"tools,omitempty"`
	ToolChoice *ToolChoice `json:"tool_choice,omitempty"`
}

// PromptParameter holds optional sampling parameters.
type PromptParameter struct {
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	JSONMode    *bool    `json:"json_mode,omitempty"`
}

// Prompt is the conversation sent to the model.
type Prompt struct {
	Parameter *PromptParameter `json:"parameter,omitempty"`
	Messages  []Message        `json:"messages"`
}

// ImageURL is a URL or base64 image reference.
type ImageURL struct {
	URL string `json:"url"`
}

// ContentPart is one part of a multi-part message.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
	Detail   string    `json:"detail,omitempty"`
}

// MessageContent is either plain text or a list of parts.
type MessageContent struct {
	Text  string
	Parts []ContentPart
}

// IsParts reports whether the content was given as a list of parts.
func (c MessageContent) IsParts() bool { return c.Parts != nil }

func (c MessageContent) MarshalJSON() ([]byte, error) {
	if c.Parts != nil {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

func (c *MessageContent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		c.Parts = []ContentPart{}
		return json.Unmarshal(data, &c.Parts)
	}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	return json.Unmarshal(data, &c.Text)
}

// ToolMessage carries the result of a tool call back to the model.
type ToolMessage struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`
}

// Message is one conversation turn.
type Message struct {
	Role    string         `json:"role"`
	Content MessageContent `json:"content"`
	Tool    *ToolMessage   `json:"tool,omitempty"`
}

// ToolProperty describes one tool parameter.
type ToolProperty struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
}

// ToolParameters is the JSON schema of a tool's arguments.
type ToolParameters struct {
	Type       string                  `json:"type"`
	Properties map[string]ToolProperty `json:"properties"`
	Required   []string                `json:"required,omitempty"`
}

// Tool is a function the model may call.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  *ToolParameters `json:"parameters"`
}

// FunctionRef names a tool.
type FunctionRef struct {
	Name string `json:"name"`
}

// ToolChoice is either a mode ("required", "auto", "none") or a forced
// function.
type ToolChoice struct {
	Mode     string
	Type     string
	Function *FunctionRef
}

type toolChoiceObject struct {
	Type     string       `json:"type"`
	Function *FunctionRef `json:"function,omitempty"`
}

func (t ToolChoice) MarshalJSON() ([]byte, error) {
	if t.Mode != "" {
		return json.Marshal(t.Mode)
	}
	return json.Marshal(toolChoiceObject{Type: t.Type, Function: t.Function})
}

func (t *ToolChoice) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty tool_choice")
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &t.Mode)
	}
	var obj toolChoiceObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	t.Type = obj.Type
	t.Function = obj.Function
	return nil
}

// ToolCall is a function call requested by the model.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ResponseMessage is one message of a chat response.
type ResponseMessage struct {
	Role    string    `json:"role"`
	Content *string   `json:"content,omitempty"`
	Tool    *ToolCall `json:"tool,omitempty"`
}

// ChatResponse is the normalized chat response.
type ChatResponse struct {
	Usage     *Usage            `json:"usage,omitempty"`
	Cost      *Cost             `json:"cost,omitempty"`
	Messages  []ResponseMessage `json:"messages"`
	Guardrail *Guardrail        `json:"guardrail,omitempty"`
}

// StreamMessage is an incremental role/content delta.
type StreamMessage struct {
	Role    *string `json:"role,omitempty"`
	Content *string `json:"content,omitempty"`
}

// ChatStreamEvent is one normalized streaming event. Exactly one of Message,
// Guardrail, or Usage (with Cost) is set.
type ChatStreamEvent struct {
	Usage     *Usage         `json:"usage,omitempty"`
	Cost      *Cost          `json:"cost,omitempty"`
	Message   *StreamMessage `json:"message,omitempty"`
	Guardrail *Guardrail     `json:"guardrail,omitempty"`
}
