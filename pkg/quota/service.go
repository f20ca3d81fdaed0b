// Package quota manages prepaid token quotas: creation with sibling
// disabling, lookup, enable/disable updates, admission checks, and
// background debits.
package quota

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pario-ai/aigateway/pkg/ledger"
	"github.com/pario-ai/aigateway/pkg/models"
)

// Key identifies the (use case, provider, model) tuple a quota is scoped to.
type Key struct {
	UseCaseID    string
	ProviderName string
	ModelName    string
}

func (k Key) filter(enabled *bool) ledger.Filter {
	return ledger.Filter{
		UseCaseID:    k.UseCaseID,
		ProviderName: k.ProviderName,
		ModelName:    k.ModelName,
		Enabled:      enabled,
	}
}

// Complete reports whether every part of the key is set. Incomplete keys
// never match a quota.
func (k Key) Complete() bool {
	return k.UseCaseID != "" && k.ProviderName != "" && k.ModelName != ""
}

// String renders the key for log output.
func (k Key) String() string {
	return k.UseCaseID + "/" + k.ProviderName + "/" + k.ModelName
}

// CreateRequest carries the fields of a new quota.
type CreateRequest struct {
	Unit     models.QuotaUnit
	Limit    int64
	UseCase  models.UseCase
	Provider models.ProviderRef
}

// Service orchestrates ledger reads and writes.
type Service struct {
	store  ledger.Store
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides quota id generation.
func WithIDGenerator(f func() string) Option {
	return func(s *Service) { s.newID = f }
}

// NewService creates a Service on store.
func NewService(store ledger.Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create disables every existing quota for the tuple, then inserts a fresh
// enabled quota whose balance equals its limit.
func (s *Service) Create(ctx context.Context, req CreateRequest) (models.Quota, error) {
	if req.Limit <= 0 {
		return models.Quota{}, ErrInvalidLimit
	}
	unit := req.Unit
	if unit == "" {
		unit = models.QuotaUnitTokens
	}
	q := models.Quota{
		ID:        s.newID(),
		Unit:      unit,
		Limit:     req.Limit,
		Balance:   req.Limit,
		UseCase:   req.UseCase,
		Provider:  req.Provider,
		CreatedAt: s.now(),
		Enabled:   true,
	}

	key := Key{UseCaseID: q.UseCase.ID, ProviderName: q.Provider.Name, ModelName: q.Provider.Model.Name}
	if !key.Complete() {
		return models.Quota{}, ErrIncompleteKey
	}
	siblings := key.filter(nil)
	siblings.ExcludeID = q.ID
	n, err := s.store.UpdateMany(ctx, siblings, ledger.Update{Enabled: ledger.Bool(false)})
	if err != nil {
		return models.Quota{}, fmt.Errorf("disable sibling quotas: %w", err)
	}
	if err := s.store.Insert(ctx, q); err != nil {
		return models.Quota{}, fmt.Errorf("create quota: %w", err)
	}

	s.logger.Info("quota created", "id", q.ID, "key", key.String(), "limit", q.Limit, "disabled", n)
	return q, nil
}

// Retrieve returns the quotas of a tuple. A nil enabled matches both
// enabled and disabled records.
func (s *Service) Retrieve(ctx context.Context, key Key, enabled *bool) ([]models.Quota, error) {
	if !key.Complete() {
		return nil, &NotFoundError{Entity: "quotas"}
	}
	qs, err := s.store.Find(ctx, key.filter(enabled))
	if err != nil {
		return nil, fmt.Errorf("retrieve quotas: %w", err)
	}
	if len(qs) == 0 {
		return nil, &NotFoundError{Entity: "quotas"}
	}
	return qs, nil
}

// Update sets the enabled flag of the first quota of the tuple whose current
// enabled flag equals match (true when nil) and returns it after the change.
func (s *Service) Update(ctx context.Context, key Key, match *bool, enabled bool) (models.Quota, error) {
	if !key.Complete() {
		return models.Quota{}, &NotFoundError{Entity: "quota"}
	}
	if match == nil {
		match = ledger.Bool(true)
	}
	q, err := s.store.FindOneAndUpdate(ctx, key.filter(match), ledger.Update{Enabled: ledger.Bool(enabled)})
	if err != nil {
		return models.Quota{}, fmt.Errorf("update quota: %w", err)
	}
	if q == nil {
		return models.Quota{}, &NotFoundError{Entity: "quota"}
	}
	return *q, nil
}

// Admit returns the active quota of the tuple, or an ExceededError when its
// balance is below one.
func (s *Service) Admit(ctx context.Context, key Key) (models.Quota, error) {
	qs, err := s.Retrieve(ctx, key, ledger.Bool(true))
	if err != nil {
		return models.Quota{}, err
	}
	q := qs[0]
	if q.Balance < 1 {
		return q, &ExceededError{Balance: q.Balance}
	}
	return q, nil
}

// Debit sets the balance of every enabled quota of the tuple.
func (s *Service) Debit(ctx context.Context, key Key, balance int64) error {
	if !key.Complete() {
		return fmt.Errorf("debit quota %s: %w", key, ErrIncompleteKey)
	}
	if _, err := s.store.UpdateMany(ctx, key.filter(ledger.Bool(true)), ledger.Update{Balance: ledger.Int64(balance)}); err != nil {
		return fmt.Errorf("debit quota: %w", err)
	}
	return nil
}
