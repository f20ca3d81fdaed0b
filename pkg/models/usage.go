package models

// Usage represents token usage reported by a back-end for one generation call.
// CompletionTokens is absent for embeddings.
type Usage struct {
	PromptTokens     int  `json:"prompt_tokens"`
	CompletionTokens *int `json:"completion_tokens,omitempty"`
	TotalTokens      int  `json:"total_tokens"`
}

// Completion returns the completion token count, or zero when absent.
func (u Usage) Completion() int {
	if u.CompletionTokens == nil {
		return 0
	}
	return *u.CompletionTokens
}

// Add accumulates another usage into u.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.TotalTokens += other.TotalTokens
	if other.CompletionTokens != nil {
		c := u.Completion() + *other.CompletionTokens
		u.CompletionTokens = &c
	}
}
