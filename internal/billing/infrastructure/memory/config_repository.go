package memory

import (
	"context"
	"sort"
	"sync"

	billing "fulfillment-billing/internal/billing/domain"
)

// ConfigRepository is an in-memory configuration store for demo/testing,
// keyed by company id.
type ConfigRepository struct {
	mu   sync.RWMutex
	data map[string]*billing.Config
}

// NewConfigRepository constructs a repository.
func NewConfigRepository() *ConfigRepository {
	return &ConfigRepository{data: make(map[string]*billing.Config)}
}

// Save upserts a configuration.
func (r *ConfigRepository) Save(ctx context.Context, c *billing.Config) error {
	_ = ctx
	if c == nil {
		return billing.ErrEmptyCompanyID
	}
	if err := c.Validate(); err != nil {
		return err
	}

	clone := cloneConfig(c)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[c.CompanyID] = clone
	return nil
}

// GetByCompany loads a configuration scoped by user.
func (r *ConfigRepository) GetByCompany(ctx context.Context, companyID, userID string) (*billing.Config, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := r.data[companyID]
	if c == nil || c.UserID != userID {
		return nil, nil
	}
	return cloneConfig(c), nil
}

// ListByUser returns the user's stored configurations.
func (r *ConfigRepository) ListByUser(ctx context.Context, userID string) ([]*billing.Config, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*billing.Config
	for _, c := range r.data {
		if c.UserID != userID {
			continue
		}
		out = append(out, cloneConfig(c))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CompanyID < out[j].CompanyID
	})
	return out, nil
}

func cloneConfig(c *billing.Config) *billing.Config {
	clone := *c
	clone.Services = make([]billing.ServiceDefinition, len(c.Services))
	copy(clone.Services, c.Services)
	return &clone
}
