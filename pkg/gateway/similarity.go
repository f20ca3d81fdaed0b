package gateway

import (
	"context"
	"fmt"
	"math"

	"github.com/pario-ai/aigateway/pkg/models"
)

// Metric scores two embeddings.
type Metric func(a, b []float64) float64

var metrics = map[models.MetricType]Metric{
	models.MetricCosine:    Cosine,
	models.MetricEuclidean: Euclidean,
	models.MetricManhattan: Manhattan,
}

// Cosine returns the cosine similarity of a and b, or 0 when either vector
// has zero length.
func Cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Euclidean returns the L2 distance between a and b.
func Euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Manhattan returns the L1 distance between a and b.
func Manhattan(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum
}

// Similarity embeds exactly two texts and scores them with the requested
// metric (cosine by default).
func (s *Service) Similarity(ctx context.Context, req models.SimilarityRequest) (*models.SimilarityResponse, error) {
	if _, err := validateEmbeddingModel(s.catalog, req.Provider); err != nil {
		return nil, err
	}
	texts := req.Evaluation.Texts
	if len(texts) != 2 {
		return nil, badRequest("Ensure that you provided two texts to compare the similarity between each other!")
	}
	metricType := req.Evaluation.MetricType
	if metricType == "" {
		metricType = models.MetricCosine
	}
	metric, ok := metrics[metricType]
	if !ok {
		return nil, badRequest(fmt.Sprintf("metric_type '%s' must be one of cosine, euclidean, manhattan", metricType))
	}

	emb, err := s.embed(ctx, models.EmbeddingRequest{
		Content:  models.EmbeddingContent{Texts: texts},
		Provider: req.Provider,
	})
	if err != nil {
		return nil, fmt.Errorf("similarity: %w", err)
	}
	if len(emb.Data) != 2 || len(emb.Data[0]) != len(emb.Data[1]) {
		return nil, fmt.Errorf("similarity: expected two embeddings of equal dimension, got %d", len(emb.Data))
	}

	results := make([]models.SimilarityResult, len(emb.Data))
	for i, e := range emb.Data {
		results[i] = models.SimilarityResult{Embedding: e, Text: texts[i]}
	}
	return &models.SimilarityResponse{
		Results: results,
		Score:   math.Round(metric(emb.Data[0], emb.Data[1])*1e6) / 1e6,
		Usage:   emb.Usage,
		Cost:    emb.Cost,
	}, nil
}
