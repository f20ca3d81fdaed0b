package models

import "time"

// QuotaUnit is the unit a quota balance is measured in.
type QuotaUnit string

const QuotaUnitTokens QuotaUnit = "tokens"

// UseCase identifies the client a quota belongs to.
type UseCase struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
}

// ModelRef names a model inside a provider reference.
type ModelRef struct {
	Name string `json:"name" bson:"name"`
}

// ProviderRef names a provider and one of its models. It is the shape
// carried by every inbound generation request.
type ProviderRef struct {
	Name  string   `json:"name" bson:"name"`
	Model ModelRef `json:"model" bson:"model"`
}

// Quota is a balance-bearing entitlement scoped to (use case, provider, model).
// At most one enabled quota exists per tuple.
type Quota struct {
	ID        string      `json:"id" bson:"_id"`
	Unit      QuotaUnit   `json:"unit" bson:"unit"`
	Limit     int64       `json:"limit" bson:"limit"`
	Balance   int64       `json:"balance" bson:"balance"`
	UseCase   UseCase     `json:"use_case" bson:"use_case"`
	Provider  ProviderRef `json:"provider" bson:"provider"`
	CreatedAt time.Time   `json:"created_at" bson:"created_at"`
	Enabled   bool        `json:"enabled" bson:"enabled"`
}
