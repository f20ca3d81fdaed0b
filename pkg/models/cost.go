package models

// UnitOfMeasure is the token scale a price is quoted against.
type UnitOfMeasure int

const (
	UnitMillion  UnitOfMeasure = 1000000
	UnitThousand UnitOfMeasure = 1000
)

// Currency of a price entry.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyBRL Currency = "R$"
)

// PriceQuote is the price echoed back alongside a computed cost.
type PriceQuote struct {
	UnitOfMeasure UnitOfMeasure `json:"unit_of_measure"`
	Currency      Currency      `json:"currency"`
	InputValue    float64       `json:"input_value"`
	OutputValue   *float64      `json:"output_value,omitempty"`
}

// TokenCost is the text cost breakdown.
type TokenCost struct {
	Price      PriceQuote `json:"price"`
	Prompt     *float64   `json:"prompt,omitempty"`
	Completion *float64   `json:"completion,omitempty"`
	Total      float64    `json:"total"`
}

// PixelCost is the image cost.
type PixelCost struct {
	Total float64 `json:"total"`
}

// Cost is derived per response from Usage and the model price list. It is
// never persisted.
type Cost struct {
	Pixel *PixelCost `json:"pixel,omitempty"`
	Token *TokenCost `json:"token,omitempty"`
}
