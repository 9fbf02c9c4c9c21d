package postgres

import (
	"context"
	"database/sql"
	"errors"

	billing "fulfillment-billing/internal/billing/domain"
)

// BillingRepository persists billing records. The marketplace_data and
// calculations columns hold JSON text exactly as produced at generation
// time; they pass through untouched.
type BillingRepository struct {
	db *sql.DB
}

// NewBillingRepository constructs a repository.
func NewBillingRepository(db *sql.DB) *BillingRepository {
	return &BillingRepository{db: db}
}

// Save upserts a billing record.
func (r *BillingRepository) Save(ctx context.Context, b *billing.Billing) error {
	if r == nil || r.db == nil {
		return errors.New("billing repo: nil db")
	}
	if b == nil {
		return billing.ErrNilBilling
	}
	if err := b.Validate(); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO billings (
	id, company_id, user_id, period_start, period_end, status,
	total_amount, marketplace_data, calculations, created_at, updated_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
)
ON CONFLICT (id)
DO UPDATE SET
	status = EXCLUDED.status,
	total_amount = EXCLUDED.total_amount,
	marketplace_data = EXCLUDED.marketplace_data,
	calculations = EXCLUDED.calculations,
	updated_at = EXCLUDED.updated_at`,
		b.ID, b.CompanyID, b.UserID, b.PeriodStart, b.PeriodEnd, b.Status,
		b.TotalAmount, nullString(b.MarketplaceData), nullString(b.Calculations), b.CreatedAt, b.UpdatedAt,
	)
	return err
}

// Get fetches a billing record scoped by user.
func (r *BillingRepository) Get(ctx context.Context, id, userID string) (*billing.Billing, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("billing repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, company_id, user_id, period_start, period_end, status,
	total_amount, marketplace_data, calculations, created_at, updated_at
FROM billings
WHERE id = $1 AND user_id = $2
LIMIT 1`, id, userID)
	return scanBilling(row)
}

// ListByUser lists the user's records, newest first.
func (r *BillingRepository) ListByUser(ctx context.Context, userID string) ([]*billing.Billing, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("billing repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, company_id, user_id, period_start, period_end, status,
	total_amount, marketplace_data, calculations, created_at, updated_at
FROM billings
WHERE user_id = $1
ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*billing.Billing
	for rows.Next() {
		b, err := scanBilling(rows)
		if err != nil {
			return nil, err
		}
		if b != nil {
			result = append(result, b)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes a record scoped by user.
func (r *BillingRepository) Delete(ctx context.Context, id, userID string) error {
	if r == nil || r.db == nil {
		return errors.New("billing repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `
DELETE FROM billings
WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return billing.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBilling(row rowScanner) (*billing.Billing, error) {
	var b billing.Billing
	var marketplaceData sql.NullString
	var calculations sql.NullString
	err := row.Scan(
		&b.ID,
		&b.CompanyID,
		&b.UserID,
		&b.PeriodStart,
		&b.PeriodEnd,
		&b.Status,
		&b.TotalAmount,
		&marketplaceData,
		&calculations,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if marketplaceData.Valid {
		b.MarketplaceData = marketplaceData.String
	}
	if calculations.Valid {
		b.Calculations = calculations.String
	}
	b.PeriodStart = b.PeriodStart.UTC()
	b.PeriodEnd = b.PeriodEnd.UTC()
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return &b, nil
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
