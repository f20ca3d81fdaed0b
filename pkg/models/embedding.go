package models

// EmbeddingContent holds the texts to embed.
type EmbeddingContent struct {
	Texts []string `json:"texts"`
}

// EmbeddingRequest is the normalized embedding request.
type EmbeddingRequest struct {
	Content  EmbeddingContent `json:"content"`
	Provider ProviderRef      `json:"provider"`
}

// EmbeddingResponse carries one vector per input text.
type EmbeddingResponse struct {
	Data  [][]float64 `json:"data"`
	Usage Usage       `json:"usage"`
	Cost  *Cost       `json:"cost,omitempty"`
}

// MetricType selects the similarity metric.
type MetricType string

const (
	MetricCosine    MetricType = "cosine"
	MetricEuclidean MetricType = "euclidean"
	MetricManhattan MetricType = "manhattan"
)

// Evaluation is the pair of texts to compare.
type Evaluation struct {
	Texts      []string   `json:"texts"`
	MetricType MetricType `json:"metric_type,omitempty"`
}

// SimilarityRequest compares two texts through their embeddings.
type SimilarityRequest struct {
	Provider   ProviderRef `json:"provider"`
	Evaluation Evaluation  `json:"evaluation"`
}

// SimilarityResult pairs a text with its embedding.
type SimilarityResult struct {
	Embedding []float64 `json:"embedding"`
	Text      string    `json:"text"`
}

// SimilarityResponse carries the score and the embedding usage.
type SimilarityResponse struct {
	Results []SimilarityResult `json:"results"`
	Score   float64            `json:"score"`
	Usage   Usage              `json:"usage"`
	Cost    *Cost              `json:"cost,omitempty"`
}
