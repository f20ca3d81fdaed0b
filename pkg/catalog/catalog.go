// Package catalog provides the read-only provider and model catalog used for
// request validation, quota lookup, and pricing.
package catalog

import (
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/pario-ai/aigateway/pkg/models"
)

// DefaultMaxInput is the max_input of a model that does not declare one.
const DefaultMaxInput = 8191

// Provider is a read-only source of catalog entries. Implementations must be
// safe for concurrent use.
type Provider interface {
	// Providers returns every provider with its models.
	Providers() []models.Provider
	// Model looks a model up by name across all providers.
	Model(name string) (models.Model, bool)
	// ProviderNames returns the names of all providers.
	ProviderNames() []string
	// ModelsByType returns the names of models of the given generation type.
	ModelsByType(t models.GenerationType) []string
}

// LoadFunc produces the catalog entries.
type LoadFunc func() ([]models.Provider, error)

// Catalog is a Provider that calls its LoadFunc once, on first access, and
// serves the result for the process lifetime.
type Catalog struct {
	load LoadFunc

	once      sync.Once
	providers []models.Provider
	byModel   map[string]models.Model
	err       error
}

var _ Provider = (*Catalog)(nil)

// New creates a Catalog backed by load.
func New(load LoadFunc) *Catalog {
	return &Catalog{load: load}
}

// Default returns a Catalog serving the built-in provider list.
func Default() *Catalog {
	return New(func() ([]models.Provider, error) { return builtin(), nil })
}

// FromFile returns a Catalog that reads a YAML provider list from path.
func FromFile(path string) *Catalog {
	return New(func() ([]models.Provider, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		var doc struct {
			Providers []models.Provider `yaml:"providers"`
		}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse catalog: %w", err)
		}
		return doc.Providers, nil
	})
}

func (c *Catalog) init() {
	c.once.Do(func() {
		providers, err := c.load()
		if err != nil {
			c.err = err
			return
		}
		c.byModel = make(map[string]models.Model)
		for i := range providers {
			normalizeProvider(&providers[i])
			for _, m := range providers[i].Models {
				if _, dup := c.byModel[m.Name]; !dup {
					c.byModel[m.Name] = m
				}
			}
		}
		c.providers = providers
	})
}

// Err returns the load error, if any. A failed load serves an empty catalog.
func (c *Catalog) Err() error {
	c.init()
	return c.err
}

// Providers returns every loaded provider with its models.
func (c *Catalog) Providers() []models.Provider {
	c.init()
	return c.providers
}

// Model looks up a model by name across all providers.
func (c *Catalog) Model(name string) (models.Model, bool) {
	c.init()
	m, ok := c.byModel[name]
	return m, ok
}

// ProviderNames returns the provider names in catalog order.
func (c *Catalog) ProviderNames() []string {
	c.init()
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name)
	}
	return names
}

// ModelsByType returns the names of models of generation type t.
func (c *Catalog) ModelsByType(t models.GenerationType) []string {
	c.init()
	var names []string
	for _, p := range c.providers {
		for _, m := range p.Models {
			if m.Category.GenerationType == t {
				names = append(names, m.Name)
			}
		}
	}
	return names
}

// HasProvider reports whether name is a catalog provider.
func HasProvider(p Provider, name string) bool {
	for _, n := range p.ProviderNames() {
		if n == name {
			return true
		}
	}
	return false
}

func normalizeProvider(p *models.Provider) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	for i := range p.Models {
		m := &p.Models[i]
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if m.MaxInput == 0 {
			m.MaxInput = DefaultMaxInput
		}
		for j := range m.Prices {
			pr := &m.Prices[j]
			if pr.ID == "" {
				pr.ID = uuid.NewString()
			}
			if pr.UnitOfMeasure == 0 {
				pr.UnitOfMeasure = models.UnitMillion
			}
			if pr.Currency == "" {
				pr.Currency = models.CurrencyUSD
			}
		}
	}
}
