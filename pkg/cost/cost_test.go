package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pario-ai/aigateway/pkg/catalog"
	"github.com/pario-ai/aigateway/pkg/models"
)

func intPtr(v int) *int { return &v }

func TestTextCostWithCompletion(t *testing.T) {
	calc := New(catalog.Default())

	got := calc.Add("gpt-4o", models.Usage{
		PromptTokens:     1000,
		CompletionTokens: intPtr(500),
		TotalTokens:      1500,
	}, Text)

	require.NotNil(t, got)
	require.NotNil(t, got.Token)
	assert.Nil(t, got.Pixel)
	assert.InDelta(t, 0.0025, *got.Token.Prompt, 1e-9)
	assert.InDelta(t, 0.005, *got.Token.Completion, 1e-9)
	assert.InDelta(t, 0.0075, got.Token.Total, 1e-9)
	assert.Equal(t, models.UnitMillion, got.Token.Price.UnitOfMeasure)
	assert.Equal(t, models.CurrencyUSD, got.Token.Price.Currency)
	require.NotNil(t, got.Token.Price.OutputValue)
	assert.Equal(t, 10.0, *got.Token.Price.OutputValue)
}

func TestTextCostPromptOnly(t *testing.T) {
	calc := New(catalog.Default())

	got := calc.Add("text-embedding-ada-002", models.Usage{PromptTokens: 12345, TotalTokens: 12345}, Text)

	require.NotNil(t, got)
	assert.Nil(t, got.Token.Prompt)
	assert.Nil(t, got.Token.Completion)
	assert.Nil(t, got.Token.Price.OutputValue)
	assert.InDelta(t, 0.0012345, got.Token.Total, 1e-6)
}

func TestTextCostZeroCompletionTreatedAsAbsent(t *testing.T) {
	calc := New(catalog.Default())

	got := calc.Add("gpt-4", models.Usage{PromptTokens: 100, CompletionTokens: intPtr(0), TotalTokens: 100}, Text)

	require.NotNil(t, got)
	assert.Nil(t, got.Token.Completion)
	assert.InDelta(t, 0.003, got.Token.Total, 1e-9)
}

func TestTextCostRoundsToSixPlaces(t *testing.T) {
	calc := New(catalog.Default())

	got := calc.Add("gpt-4o-mini", models.Usage{PromptTokens: 7, CompletionTokens: intPtr(3), TotalTokens: 10}, Text)

	require.NotNil(t, got)
	// 7/1e6*0.15 = 0.00000105 and 3/1e6*0.60 = 0.0000018
	assert.Equal(t, 0.000001, *got.Token.Prompt)
	assert.Equal(t, 0.000002, *got.Token.Completion)
	assert.InDelta(t, 0.000003, got.Token.Total, 1e-12)
}

func TestTextCostTotalRoundsExactParts(t *testing.T) {
	c := catalog.New(func() ([]models.Provider, error) {
		out := 0.4
		return []models.Provider{{
			Name: "p",
			Models: []models.Model{{
				Name:   "cheap",
				Prices: []models.Price{{Token: &models.TokenPrice{InputValue: 0.4, OutputValue: &out}}},
			}},
		}}, nil
	})

	got := New(c).Add("cheap", models.Usage{PromptTokens: 1, CompletionTokens: intPtr(1), TotalTokens: 2}, Text)

	require.NotNil(t, got)
	// Each part is 4e-7 and rounds to zero on its own, but their sum does not.
	assert.Equal(t, 0.0, *got.Token.Prompt)
	assert.Equal(t, 0.0, *got.Token.Completion)
	assert.InDelta(t, 0.000001, got.Token.Total, 1e-12)
}

func TestNoCost(t *testing.T) {
	calc := New(catalog.Default())
	usage := models.Usage{PromptTokens: 10, TotalTokens: 10}

	assert.Nil(t, calc.Add("gpt-35-turbo", usage, Text), "model without prices")
	assert.Nil(t, calc.Add("unknown-model", usage, Text), "unknown model")
	assert.Nil(t, calc.Add("dall-e-3", usage, Text), "no token price")
	assert.Nil(t, calc.Add("dall-e-3", usage, Image), "image is not priced")
	assert.Nil(t, calc.Add("gpt-4o", usage, Kind("audio")), "unknown kind")
}

func TestFirstTokenPriceWins(t *testing.T) {
	c := catalog.New(func() ([]models.Provider, error) {
		out := 2.0
		return []models.Provider{{
			Name: "p",
			Models: []models.Model{{
				Name: "m",
				Prices: []models.Price{
					{Pixel: &models.PixelPrice{Width: 1, Height: 1, Value: 9}},
					{UnitOfMeasure: models.UnitThousand, Token: &models.TokenPrice{InputValue: 1, OutputValue: &out}},
					{Token: &models.TokenPrice{InputValue: 100}},
				},
			}},
		}}, nil
	})

	got := New(c).Add("m", models.Usage{PromptTokens: 1000, CompletionTokens: intPtr(1000), TotalTokens: 2000}, Text)

	require.NotNil(t, got)
	assert.Equal(t, models.UnitThousand, got.Token.Price.UnitOfMeasure)
	assert.Equal(t, 3.0, got.Token.Total)
}
