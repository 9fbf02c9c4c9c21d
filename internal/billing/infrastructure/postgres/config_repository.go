package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	billing "fulfillment-billing/internal/billing/domain"
)

// ConfigRepository persists billing configurations, keyed by company id.
// The service list lives in a JSON column.
type ConfigRepository struct {
	db *sql.DB
}

// NewConfigRepository constructs a repository.
func NewConfigRepository(db *sql.DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

// Save upserts a configuration.
func (r *ConfigRepository) Save(ctx context.Context, c *billing.Config) error {
	if r == nil || r.db == nil {
		return errors.New("config repo: nil db")
	}
	if c == nil {
		return billing.ErrEmptyCompanyID
	}
	if err := c.Validate(); err != nil {
		return err
	}

	services, err := json.Marshal(c.Services)
	if err != nil {
		return fmt.Errorf("config repo: marshal services: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO billing_configs (
	id, company_id, user_id, services, created_at, updated_at
) VALUES (
	$1,$2,$3,$4,$5,$6
)
ON CONFLICT (company_id)
DO UPDATE SET
	services = EXCLUDED.services,
	updated_at = EXCLUDED.updated_at`,
		c.ID, c.CompanyID, c.UserID, services, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

// GetByCompany fetches a configuration scoped by user.
func (r *ConfigRepository) GetByCompany(ctx context.Context, companyID, userID string) (*billing.Config, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("config repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, company_id, user_id, services, created_at, updated_at
FROM billing_configs
WHERE company_id = $1 AND user_id = $2
LIMIT 1`, companyID, userID)
	return scanConfig(row)
}

// ListByUser lists the user's stored configurations.
func (r *ConfigRepository) ListByUser(ctx context.Context, userID string) ([]*billing.Config, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("config repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, company_id, user_id, services, created_at, updated_at
FROM billing_configs
WHERE user_id = $1
ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*billing.Config
	for rows.Next() {
		c, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		if c != nil {
			result = append(result, c)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanConfig(row rowScanner) (*billing.Config, error) {
	var c billing.Config
	var services []byte
	err := row.Scan(
		&c.ID,
		&c.CompanyID,
		&c.UserID,
		&services,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if len(services) > 0 {
		if err := json.Unmarshal(services, &c.Services); err != nil {
			return nil, fmt.Errorf("config repo: unmarshal services: %w", err)
		}
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}
