package models

// Citation references protected material detected by a content filter.
type Citation struct {
	URL     string `json:"url"`
	License string `json:"license"`
}

// FilterType is the verdict of one content filter category.
type FilterType struct {
	Category string    `json:"category"`
	Filtered bool      `json:"filtered"`
	Detected *bool     `json:"detected,omitempty"`
	Severity *string   `json:"severity,omitempty"`
	Citation *Citation `json:"citation,omitempty"`
}

// FilterTypes lists the verdicts for one side of the exchange.
type FilterTypes struct {
	Types []FilterType `json:"types"`
}

// ContentFilter holds prompt and completion filter verdicts.
type ContentFilter struct {
	Completion *FilterTypes `json:"completion,omitempty"`
	Prompt     *FilterTypes `json:"prompt,omitempty"`
}

// Guardrail is a content-filter annotation attached to a response.
type Guardrail struct {
	ContentFilter ContentFilter `json:"content_filter"`
}
