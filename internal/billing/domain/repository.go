package billing

import "context"

// Repository manages billing record persistence. Implementations scope
// every lookup by user id so records never leak across accounts.
type Repository interface {
	Save(ctx context.Context, b *Billing) error
	Get(ctx context.Context, id, userID string) (*Billing, error)
	ListByUser(ctx context.Context, userID string) ([]*Billing, error)
	Delete(ctx context.Context, id, userID string) error
}

// ConfigRepository manages billing configuration persistence, keyed by
// company id.
type ConfigRepository interface {
	Save(ctx context.Context, c *Config) error
	GetByCompany(ctx context.Context, companyID, userID string) (*Config, error)
	ListByUser(ctx context.Context, userID string) ([]*Config, error)
}
