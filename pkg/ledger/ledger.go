// Package ledger persists quota documents. Every backend exposes the same
// document-store shaped operations: insert, find by filter, and $set style
// updates of one or many matching documents.
package ledger

import (
	"context"
	"errors"
	"sort"

	"github.com/pario-ai/aigateway/pkg/models"
)

// ErrUnsupportedDSN is returned by Open for an unknown DSN scheme.
var ErrUnsupportedDSN = errors.New("ledger: unsupported dsn")

// Filter selects quota documents. Empty string fields and a nil Enabled
// match any value. ExcludeID removes one document by id.
type Filter struct {
	UseCaseID    string
	ProviderName string
	ModelName    string
	Enabled      *bool
	ExcludeID    string
}

// Match reports whether q satisfies the filter.
func (f Filter) Match(q models.Quota) bool {
	if f.UseCaseID != "" && q.UseCase.ID != f.UseCaseID {
		return false
	}
	if f.ProviderName != "" && q.Provider.Name != f.ProviderName {
		return false
	}
	if f.ModelName != "" && q.Provider.Model.Name != f.ModelName {
		return false
	}
	if f.Enabled != nil && q.Enabled != *f.Enabled {
		return false
	}
	if f.ExcludeID != "" && q.ID == f.ExcludeID {
		return false
	}
	return true
}

// Update is a partial document update. Nil fields are left untouched.
type Update struct {
	Enabled *bool
	Balance *int64
}

// Apply sets the non-nil fields on q.
func (u Update) Apply(q *models.Quota) {
	if u.Enabled != nil {
		q.Enabled = *u.Enabled
	}
	if u.Balance != nil {
		q.Balance = *u.Balance
	}
}

func (u Update) empty() bool { return u.Enabled == nil && u.Balance == nil }

// Store is the quota document store.
type Store interface {
	// Insert stores a new quota document.
	Insert(ctx context.Context, q models.Quota) error
	// Find returns matching documents ordered by creation time.
	Find(ctx context.Context, f Filter) ([]models.Quota, error)
	// FindOneAndUpdate updates the first matching document and returns it
	// after the update, or nil when nothing matched.
	FindOneAndUpdate(ctx context.Context, f Filter, u Update) (*models.Quota, error)
	// UpdateMany updates every matching document and returns how many matched.
	UpdateMany(ctx context.Context, f Filter, u Update) (int64, error)
	// Close releases resources.
	Close() error
}

// Bool returns a pointer to v, for building filters and updates.
func Bool(v bool) *bool { return &v }

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }

func sortByCreated(qs []models.Quota) {
	sort.SliceStable(qs, func(i, j int) bool {
		if qs[i].CreatedAt.Equal(qs[j].CreatedAt) {
			return qs[i].ID < qs[j].ID
		}
		return qs[i].CreatedAt.Before(qs[j].CreatedAt)
	})
}
