package application

import (
	"context"
	"errors"

	"github.com/google/uuid"

	billing "fulfillment-billing/internal/billing/domain"
	company "fulfillment-billing/internal/company/domain"
)

// ConfigService handles billing configuration use cases.
type ConfigService struct {
	configs   billing.ConfigRepository
	companies CompanyProvider
	defaults  []billing.ServiceDefinition
	clock     Clock
}

// NewConfigService constructs the service. defaults is the catalog served
// for companies without a stored configuration.
func NewConfigService(
	configs billing.ConfigRepository,
	companies CompanyProvider,
	defaults []billing.ServiceDefinition,
	clock Clock,
) (*ConfigService, error) {
	if configs == nil {
		return nil, errors.New("config service: nil config repository")
	}
	if companies == nil {
		return nil, errors.New("config service: nil company provider")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &ConfigService{configs: configs, companies: companies, defaults: defaults, clock: clock}, nil
}

// Get returns the company's billing configuration. Companies without a
// stored one get the default catalog; the fallback is not persisted, so
// Generate still requires an explicit Put first.
func (s *ConfigService) Get(ctx context.Context, userID, companyID string) (*billing.Config, error) {
	if err := s.ensureOwned(ctx, companyID, userID); err != nil {
		return nil, err
	}
	cfg, err := s.configs.GetByCompany(ctx, companyID, userID)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		return cfg, nil
	}
	return &billing.Config{
		CompanyID: companyID,
		UserID:    userID,
		Services:  cloneServices(s.defaults),
	}, nil
}

// Put replaces the company's service list.
func (s *ConfigService) Put(ctx context.Context, userID, companyID string, services []billing.ServiceDefinition) (*billing.Config, error) {
	if err := s.ensureOwned(ctx, companyID, userID); err != nil {
		return nil, err
	}

	cfg := &billing.Config{
		CompanyID: companyID,
		UserID:    userID,
		Services:  services,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.configs.GetByCompany(ctx, companyID, userID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	if existing != nil {
		cfg.ID = existing.ID
		cfg.CreatedAt = existing.CreatedAt
	} else {
		cfg.ID = uuid.NewString()
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now

	if err := s.configs.Save(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ListForUser returns every stored configuration of the user.
func (s *ConfigService) ListForUser(ctx context.Context, userID string) ([]*billing.Config, error) {
	return s.configs.ListByUser(ctx, userID)
}

func (s *ConfigService) ensureOwned(ctx context.Context, companyID, userID string) error {
	if companyID == "" || userID == "" {
		return company.ErrNotFound
	}
	c, err := s.companies.Get(ctx, companyID, userID)
	if err != nil {
		return err
	}
	if c == nil {
		return company.ErrNotFound
	}
	return nil
}

func cloneServices(services []billing.ServiceDefinition) []billing.ServiceDefinition {
	out := make([]billing.ServiceDefinition, len(services))
	copy(out, services)
	return out
}
