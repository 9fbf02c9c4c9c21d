package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	company "fulfillment-billing/internal/company/domain"
)

const defaultCompaniesTable = "companies"

// DBTX abstracts *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CompanyRepository is a Postgres implementation for companies.
type CompanyRepository struct {
	db    DBTX
	table string
}

// NewCompanyRepository constructs a repository.
func NewCompanyRepository(db DBTX, opts ...CompanyOption) *CompanyRepository {
	repo := &CompanyRepository{db: db, table: defaultCompaniesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// CompanyOption configures the repository.
type CompanyOption func(*CompanyRepository)

// WithCompanyTable overrides the default table name.
func WithCompanyTable(table string) CompanyOption {
	return func(repo *CompanyRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

const companyColumns = `id, user_id, name, inn, legal_address, contact_person, email, phone, wb_api_key, created_at, updated_at`

// Get loads a company by id for the owning user.
func (r *CompanyRepository) Get(ctx context.Context, id, userID string) (*company.Company, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("company repo: nil db")
	}
	if id == "" || userID == "" {
		return nil, errors.New("company repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE id = $1 AND user_id = $2
LIMIT 1`, companyColumns, r.table)

	return r.scanCompany(r.db.QueryRowContext(ctx, query, id, userID))
}

// FindByINN loads a company by INN across all users.
func (r *CompanyRepository) FindByINN(ctx context.Context, inn string) (*company.Company, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("company repo: nil db")
	}
	if inn == "" {
		return nil, errors.New("company repo: empty inn")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE inn = $1
LIMIT 1`, companyColumns, r.table)

	return r.scanCompany(r.db.QueryRowContext(ctx, query, inn))
}

// ListByUser returns the user's companies, newest first.
func (r *CompanyRepository) ListByUser(ctx context.Context, userID string) ([]*company.Company, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("company repo: nil db")
	}
	if userID == "" {
		return nil, errors.New("company repo: empty user id")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE user_id = $1
ORDER BY created_at DESC`, companyColumns, r.table)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []*company.Company
	for rows.Next() {
		c, err := r.scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// Save upserts a company.
func (r *CompanyRepository) Save(ctx context.Context, c *company.Company) error {
	if r == nil || r.db == nil {
		return errors.New("company repo: nil db")
	}
	if c == nil {
		return errors.New("company repo: nil company")
	}
	if err := c.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	user_id,
	name,
	inn,
	legal_address,
	contact_person,
	email,
	phone,
	wb_api_key,
	created_at,
	updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW()
)
ON CONFLICT (id)
DO UPDATE SET
	name = EXCLUDED.name,
	inn = EXCLUDED.inn,
	legal_address = EXCLUDED.legal_address,
	contact_person = EXCLUDED.contact_person,
	email = EXCLUDED.email,
	phone = EXCLUDED.phone,
	wb_api_key = EXCLUDED.wb_api_key,
	updated_at = NOW()`, r.table)

	_, err := r.db.ExecContext(
		ctx,
		query,
		c.ID,
		c.UserID,
		c.Name,
		c.INN,
		c.LegalAddress,
		c.ContactPerson,
		c.Email,
		c.Phone,
		c.WBAPIKey,
	)
	return err
}

// Delete removes a company owned by the user.
func (r *CompanyRepository) Delete(ctx context.Context, id, userID string) error {
	if r == nil || r.db == nil {
		return errors.New("company repo: nil db")
	}
	if id == "" || userID == "" {
		return errors.New("company repo: empty id")
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_id = $2`, r.table)
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return company.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *CompanyRepository) scanCompany(row rowScanner) (*company.Company, error) {
	var c company.Company
	if err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.Name,
		&c.INN,
		&c.LegalAddress,
		&c.ContactPerson,
		&c.Email,
		&c.Phone,
		&c.WBAPIKey,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}
