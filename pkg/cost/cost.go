// Package cost turns reported token usage into a billed amount using the
// catalog price list.
package cost

import (
	"math"

	"github.com/pario-ai/aigateway/pkg/catalog"
	"github.com/pario-ai/aigateway/pkg/models"
)

// Kind selects the calculation strategy.
type Kind string

const (
	Text  Kind = "text"
	Image Kind = "image"
)

// Strategy computes a cost from a single price entry. It returns nil when the
// entry cannot price the usage.
type Strategy interface {
	Calculate(price models.Price, usage models.Usage) *models.Cost
}

// Calculator prices usage per model.
type Calculator struct {
	catalog    catalog.Provider
	strategies map[Kind]Strategy
}

// New creates a Calculator over the given catalog.
func New(c catalog.Provider) *Calculator {
	return &Calculator{
		catalog: c,
		strategies: map[Kind]Strategy{
			Text:  TextStrategy{},
			Image: ImageStrategy{},
		},
	}
}

// Add computes the cost of usage against modelName. Unknown models, models
// without prices, and unpriceable kinds yield nil rather than zero.
func (c *Calculator) Add(modelName string, usage models.Usage, kind Kind) *models.Cost {
	strategy, ok := c.strategies[kind]
	if !ok {
		return nil
	}
	m, ok := c.catalog.Model(modelName)
	if !ok {
		return nil
	}
	for _, p := range m.Prices {
		if !priceMatches(kind, p) {
			continue
		}
		return strategy.Calculate(p, usage)
	}
	return nil
}

func priceMatches(kind Kind, p models.Price) bool {
	switch kind {
	case Text:
		return p.Token != nil
	case Image:
		return p.Pixel != nil
	}
	return false
}

// TextStrategy prices prompt and completion tokens.
type TextStrategy struct{}

func (TextStrategy) Calculate(price models.Price, usage models.Usage) *models.Cost {
	if price.Token == nil {
		return nil
	}
	scale := scaleOf(price)
	prompt := float64(usage.PromptTokens) / scale * price.Token.InputValue

	quote := models.PriceQuote{
		UnitOfMeasure: models.UnitOfMeasure(scale),
		Currency:      price.Currency,
		InputValue:    price.Token.InputValue,
	}
	if price.Currency == "" {
		quote.Currency = models.CurrencyUSD
	}

	if usage.Completion() == 0 {
		return &models.Cost{Token: &models.TokenCost{
			Price: quote,
			Total: round6(prompt),
		}}
	}

	var rate float64
	if price.Token.OutputValue != nil {
		rate = *price.Token.OutputValue
	}
	completion := float64(usage.Completion()) / scale * rate
	quote.OutputValue = price.Token.OutputValue

	// The total is rounded from the exact parts, not from the rounded ones.
	promptCost, completionCost := round6(prompt), round6(completion)
	return &models.Cost{Token: &models.TokenCost{
		Price:      quote,
		Prompt:     &promptCost,
		Completion: &completionCost,
		Total:      round6(prompt + completion),
	}}
}

// ImageStrategy is not implemented and never produces a cost.
type ImageStrategy struct{}

func (ImageStrategy) Calculate(models.Price, models.Usage) *models.Cost {
	return nil
}

func scaleOf(p models.Price) float64 {
	if p.UnitOfMeasure <= 0 {
		return float64(models.UnitMillion)
	}
	return float64(p.UnitOfMeasure)
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
