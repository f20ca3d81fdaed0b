package gateway

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/pario-ai/aigateway/pkg/catalog"
	"github.com/pario-ai/aigateway/pkg/models"
)

var toolChoiceModes = map[string]bool{"required": true, "auto": true, "none": true}

var (
	dallE3Sizes  = []string{"1024x1024", "1792x1024", "1024x1792"}
	defaultSizes = []string{"256x256", "512x512", "1024x1024"}
)

// Image signatures accepted for inline base64 image content.
var imageSignatures = [][]byte{
	{0xff, 0xd8, 0xff},
	[]byte("\x89PNG\r\n\x1a\n"),
	[]byte("GIF87a"),
	[]byte("GIF89a"),
}

// ValidateProviderName checks a provider name passed as a query parameter.
func ValidateProviderName(c catalog.Provider, name string) error {
	if strings.TrimSpace(name) == "" {
		return badRequest("Provider name cannot be empty or blank.")
	}
	if !catalog.HasProvider(c, name) {
		return &NotFoundError{Entity: "Provider " + name}
	}
	return nil
}

// ValidateModelName checks a model name passed as a query parameter.
func ValidateModelName(c catalog.Provider, name string) error {
	if strings.TrimSpace(name) == "" {
		return badRequest("Model name cannot be empty or blank.")
	}
	if _, ok := c.Model(name); !ok {
		return &NotFoundError{Entity: "Model " + name}
	}
	return nil
}

// validateProvider checks the provider reference carried in a request body
// and returns the referenced catalog model.
func validateProvider(c catalog.Provider, ref models.ProviderRef) (models.Model, error) {
	if !catalog.HasProvider(c, ref.Name) {
		return models.Model{}, badRequest(fmt.Sprintf(
			"Provider name '%s' is not valid. Valid names are [%s]",
			ref.Name, strings.Join(c.ProviderNames(), ", ")))
	}
	m, ok := c.Model(ref.Model.Name)
	if !ok {
		return models.Model{}, badRequest(fmt.Sprintf("Model name '%s' is not valid.", ref.Model.Name))
	}
	return m, nil
}

func validateGenerationType(m models.Model, t models.GenerationType) error {
	if m.Category.GenerationType != t {
		return badRequest(fmt.Sprintf(
			"Model name '%s' is not a valid %s generation model type", m.Name, t))
	}
	return nil
}

func validateEnabled(m models.Model) error {
	if !m.Enabled {
		return badRequest(fmt.Sprintf("Model name '%s' is not enable. Please use another one", m.Name))
	}
	return nil
}

func validateMaxTokens(m models.Model, p *models.PromptParameter) error {
	if p == nil || p.MaxTokens == nil || m.ContextWindow == nil {
		return nil
	}
	if *p.MaxTokens > *m.ContextWindow {
		return badRequest(fmt.Sprintf(
			"maxTokens '%d' exceeds the context window '%d' for the model '%s'",
			*p.MaxTokens, *m.ContextWindow, m.Name))
	}
	return nil
}

func validateTemperature(p *models.PromptParameter) error {
	if p == nil || p.Temperature == nil {
		return nil
	}
	if t := *p.Temperature; t < 0 || t > 1 {
		return badRequest("The temperature field must be between 0 and 1")
	}
	return nil
}

func validateToolChoice(choice *models.ToolChoice, tools []models.Tool) error {
	if choice == nil {
		return nil
	}
	if choice.Mode != "" {
		if !toolChoiceModes[choice.Mode] {
			return badRequest("toolChoice must be 'required', 'auto', 'none', or a valid function specification.")
		}
		return nil
	}
	if choice.Type != "function" || choice.Function == nil {
		return nil
	}
	for _, t := range tools {
		if t.Name == choice.Function.Name {
			return nil
		}
	}
	return badRequest(fmt.Sprintf("Function name '%s' not found in the provided tools.", choice.Function.Name))
}

// validateImageURLs requires every image part to carry either an absolute
// URL or base64 data of a known image format.
func validateImageURLs(msgs []models.Message) error {
	for _, msg := range msgs {
		for _, part := range msg.Content.Parts {
			if part.ImageURL == nil {
				continue
			}
			if !validImageURL(part.ImageURL.URL) {
				return badRequest("url field must be a valid URL or base64")
			}
		}
	}
	return nil
}

func validImageURL(v string) bool {
	if u, err := url.Parse(v); err == nil && u.Scheme != "" && u.Host != "" {
		return true
	}
	data, err := base64.StdEncoding.Strict().DecodeString(v)
	if err != nil {
		return false
	}
	for _, sig := range imageSignatures {
		if bytes.HasPrefix(data, sig) {
			return true
		}
	}
	return len(data) >= 12 && bytes.HasPrefix(data, []byte("RIFF")) && string(data[8:12]) == "WEBP"
}

func validateChat(c catalog.Provider, req models.ChatRequest) (models.Model, error) {
	m, err := validateProvider(c, req.Provider)
	if err != nil {
		return m, err
	}
	checks := []error{
		validateToolChoice(req.ToolChoice, req.Tools),
		validateGenerationType(m, models.GenerationText),
		validateEnabled(m),
		validateMaxTokens(m, req.Prompt.Parameter),
		validateTemperature(req.Prompt.Parameter),
		validateImageURLs(req.Prompt.Messages),
	}
	for _, err := range checks {
		if err != nil {
			return m, err
		}
	}
	return m, nil
}

func validateEmbeddingModel(c catalog.Provider, ref models.ProviderRef) (models.Model, error) {
	m, err := validateProvider(c, ref)
	if err != nil {
		return m, err
	}
	if err := validateGenerationType(m, models.GenerationEmbedding); err != nil {
		return m, err
	}
	return m, validateEnabled(m)
}

func validateImage(c catalog.Provider, req models.ImageRequest) error {
	m, err := validateProvider(c, req.Provider)
	if err != nil {
		return err
	}
	if err := validateGenerationType(m, models.GenerationImage); err != nil {
		return err
	}
	if err := validateEnabled(m); err != nil {
		return err
	}

	n, size := 1, "1024x1024"
	if p := req.Prompt.Parameter; p != nil {
		if p.N != nil {
			n = *p.N
		}
		if p.Size != "" {
			size = p.Size
		}
	}
	sizes := defaultSizes
	if strings.HasPrefix(m.Name, "dall-e-3") {
		if n != 1 {
			return badRequest("For dall-e-3, only n=1 is supported.")
		}
		sizes = dallE3Sizes
	}
	for _, s := range sizes {
		if s == size {
			return nil
		}
	}
	return badRequest(fmt.Sprintf("Size '%s' is not valid for %s. Valid sizes are [%s]",
		size, m.Name, strings.Join(sizes, ", ")))
}

func validateBatchPurpose(m models.Model, purpose string) error {
	if purpose == "batch" && !m.Supports(models.ProcessBatch) {
		return badRequest(fmt.Sprintf("The model_name '%s'does not support batch processing.", m.Name))
	}
	return nil
}
