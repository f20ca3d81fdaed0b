package models

// ImageParameter holds optional image generation parameters.
type ImageParameter struct {
	N              *int   `json:"n,omitempty"`
	Quality        string `json:"quality,omitempty"`
	ResponseFormat string `json:"response_format,omitempty"`
	Size           string `json:"size,omitempty"`
	Style          string `json:"style,omitempty"`
}

// ImagePrompt is the text prompt for image generation.
type ImagePrompt struct {
	Message   string          `json:"message"`
	Parameter *ImageParameter `json:"parameter,omitempty"`
}

// ImageRequest is the normalized image generation request.
type ImageRequest struct {
	Provider ProviderRef `json:"provider"`
	Prompt   ImagePrompt `json:"prompt"`
}

// Image is one generated image.
type Image struct {
	B64JSON       string     `json:"b64_json,omitempty"`
	RevisedPrompt string     `json:"revised_prompt,omitempty"`
	URL           string     `json:"url,omitempty"`
	Guardrail     *Guardrail `json:"guardrail,omitempty"`
}

// ImageResponse lists the generated images.
type ImageResponse struct {
	Data []Image `json:"data"`
}
