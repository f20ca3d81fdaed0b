package models

// GenerationType classifies what a model produces.
type GenerationType string

const (
	GenerationText      GenerationType = "text"
	GenerationImage     GenerationType = "image"
	GenerationEmbedding GenerationType = "embedding"
)

// ModalType classifies the input modalities a model accepts.
type ModalType string

const (
	UniModal   ModalType = "uni_modal"
	MultiModal ModalType = "multi_modal"
)

// ProcessType is a way a model can be invoked.
type ProcessType string

const (
	ProcessRealTime ProcessType = "real_time"
	ProcessBatch    ProcessType = "batch"
	ProcessStream   ProcessType = "stream"
)

// ImageQuality qualifies a pixel price.
type ImageQuality string

const (
	QualityStandard ImageQuality = "Standard"
	QualityHD       ImageQuality = "HD"
)

// TokenPrice is a per-scale token rate.
type TokenPrice struct {
	InputValue    float64  `json:"input_value" yaml:"input_value"`
	OutputValue   *float64 `json:"output_value,omitempty" yaml:"output_value"`
	TrainingValue *float64 `json:"training_value,omitempty" yaml:"training_value"`
}

// PixelPrice is a per-image rate for a given size and quality.
type PixelPrice struct {
	Width   int          `json:"width" yaml:"width"`
	Height  int          `json:"height" yaml:"height"`
	Quality ImageQuality `json:"quality,omitempty" yaml:"quality"`
	Value   float64      `json:"value" yaml:"value"`
}

// Price is one entry of a model price list. Exactly one of Token or Pixel is
// usually set.
type Price struct {
	ID            string        `json:"id" yaml:"id"`
	UnitOfMeasure UnitOfMeasure `json:"unit_of_measure" yaml:"unit_of_measure"`
	Currency      Currency      `json:"currency" yaml:"currency"`
	Pixel         *PixelPrice   `json:"pixel,omitempty" yaml:"pixel"`
	Token         *TokenPrice   `json:"token,omitempty" yaml:"token"`
}

// Category groups the generation and modal type of a model.
type Category struct {
	GenerationType GenerationType `json:"generation_type" yaml:"generation_type"`
	ModalType      ModalType      `json:"modal_type" yaml:"modal_type"`
}

// Endpoint is a back-end endpoint a model can serve in batch mode.
type Endpoint struct {
	Name string `json:"name" yaml:"name"`
}

// Model is a catalog model entry.
type Model struct {
	ID            string        `json:"id" yaml:"id"`
	Name          string        `json:"name" yaml:"name"`
	Label         string        `json:"label" yaml:"label"`
	Description   string        `json:"description" yaml:"description"`
	ContextWindow *int          `json:"context_window,omitempty" yaml:"context_window"`
	MaxInput      int           `json:"max_input" yaml:"max_input"`
	TrainingData  string        `json:"training_data,omitempty" yaml:"training_data"`
	Prices        []Price       `json:"prices,omitempty" yaml:"prices"`
	Endpoints     []Endpoint    `json:"endpoints,omitempty" yaml:"endpoints"`
	Enabled       bool          `json:"enabled" yaml:"enabled"`
	Category      Category      `json:"category" yaml:"category"`
	ProcessTypes  []ProcessType `json:"process_type,omitempty" yaml:"process_type"`
}

// Supports reports whether the model can be invoked with process type p.
func (m Model) Supports(p ProcessType) bool {
	for _, pt := range m.ProcessTypes {
		if pt == p {
			return true
		}
	}
	return false
}

// Provider is a catalog provider entry.
type Provider struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Label       string  `json:"label" yaml:"label"`
	Description string  `json:"description" yaml:"description"`
	Models      []Model `json:"models" yaml:"models"`
}
