package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	billing "fulfillment-billing/internal/billing/domain"
	company "fulfillment-billing/internal/company/domain"
	"fulfillment-billing/internal/observability/metrics"
)

// CompanyProvider resolves companies owned by a user.
type CompanyProvider interface {
	Get(ctx context.Context, id, userID string) (*company.Company, error)
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// BillingListItem is a billing record with its company summary for list
// views.
type BillingListItem struct {
	Billing     *billing.Billing
	CompanyName string
	CompanyINN  string
}

// BillingService handles billing record use cases. Every operation is
// scoped by the calling user's id.
type BillingService struct {
	billings   billing.Repository
	configs    billing.ConfigRepository
	companies  CompanyProvider
	fetcherFor FetcherFor
	clock      Clock
}

// NewBillingService constructs the service.
func NewBillingService(
	billings billing.Repository,
	configs billing.ConfigRepository,
	companies CompanyProvider,
	fetcherFor FetcherFor,
	clock Clock,
) (*BillingService, error) {
	if billings == nil {
		return nil, errors.New("billing service: nil billing repository")
	}
	if configs == nil {
		return nil, errors.New("billing service: nil config repository")
	}
	if companies == nil {
		return nil, errors.New("billing service: nil company provider")
	}
	if fetcherFor == nil {
		return nil, errors.New("billing service: nil fetcher resolver")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &BillingService{
		billings:   billings,
		configs:    configs,
		companies:  companies,
		fetcherFor: fetcherFor,
		clock:      clock,
	}, nil
}

// Create opens a DRAFT billing record for an owned company and period.
func (s *BillingService) Create(ctx context.Context, userID, companyID string, periodStart, periodEnd time.Time) (*billing.Billing, error) {
	if _, err := s.ownedCompany(ctx, companyID, userID); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	b := &billing.Billing{
		ID:          uuid.NewString(),
		CompanyID:   companyID,
		UserID:      userID,
		PeriodStart: periodStart.UTC(),
		PeriodEnd:   periodEnd.UTC(),
		Status:      billing.StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := s.billings.Save(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// List returns the user's billing records, newest first, with company
// summaries attached.
func (s *BillingService) List(ctx context.Context, userID string) ([]BillingListItem, error) {
	records, err := s.billings.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]BillingListItem, 0, len(records))
	names := make(map[string]*company.Company)
	for _, b := range records {
		c, ok := names[b.CompanyID]
		if !ok {
			c, err = s.companies.Get(ctx, b.CompanyID, userID)
			if err != nil {
				return nil, err
			}
			names[b.CompanyID] = c
		}
		item := BillingListItem{Billing: b}
		if c != nil {
			item.CompanyName = c.Name
			item.CompanyINN = c.INN
		}
		items = append(items, item)
	}
	return items, nil
}

// Get returns an owned billing record.
func (s *BillingService) Get(ctx context.Context, userID, billingID string) (*billing.Billing, error) {
	return s.ownedBilling(ctx, billingID, userID)
}

// Delete removes an owned billing record.
func (s *BillingService) Delete(ctx context.Context, userID, billingID string) error {
	if _, err := s.ownedBilling(ctx, billingID, userID); err != nil {
		return err
	}
	return s.billings.Delete(ctx, billingID, userID)
}

// UpdateStatus moves an owned record to an operator-driven status.
// GENERATED is reserved for the calculation workflow.
func (s *BillingService) UpdateStatus(ctx context.Context, userID, billingID, status string) (*billing.Billing, error) {
	if !billing.ValidStatus(status) || status == billing.StatusGenerated {
		return nil, billing.ErrInvalidStatus
	}
	b, err := s.ownedBilling(ctx, billingID, userID)
	if err != nil {
		return nil, err
	}
	b.Status = status
	b.UpdatedAt = s.clock.Now().UTC()
	if err := s.billings.Save(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Generate pulls marketplace activity for the record's period, runs the
// calculator over the company's billing configuration, and stores the
// result. Regenerating replaces the stored blobs wholesale; the last
// write wins.
func (s *BillingService) Generate(ctx context.Context, userID, billingID string) (*billing.Billing, error) {
	start := s.clock.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveGenerate(result, time.Since(start))
	}()

	b, err := s.ownedBilling(ctx, billingID, userID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	c, err := s.ownedCompany(ctx, b.CompanyID, userID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	cfg, err := s.configs.GetByCompany(ctx, b.CompanyID, userID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if cfg == nil {
		result = metrics.ResultError
		return nil, ErrConfigMissing
	}
	fetcher := s.fetcherFor(c.WBAPIKey)
	if fetcher == nil {
		result = metrics.ResultError
		return nil, ErrAPIKeyMissing
	}

	data, err := fetchMarketplaceData(ctx, fetcher, b.PeriodStart, b.PeriodEnd)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}

	calc := billing.Calculate(cfg.Services, data, b.PeriodStart, b.PeriodEnd)

	rawData, err := json.Marshal(data)
	if err != nil {
		result = metrics.ResultError
		return nil, fmt.Errorf("marshal marketplace data: %w", err)
	}
	rawCalc, err := json.Marshal(calc)
	if err != nil {
		result = metrics.ResultError
		return nil, fmt.Errorf("marshal calculations: %w", err)
	}

	b.Status = billing.StatusGenerated
	b.TotalAmount = calc.Total
	b.MarketplaceData = string(rawData)
	b.Calculations = string(rawCalc)
	b.UpdatedAt = s.clock.Now().UTC()

	if err := s.billings.Save(ctx, b); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return b, nil
}

// fetchMarketplaceData pulls all activity sets for the period. Failures
// are reported per endpoint; the calculator is never fed partial data.
func fetchMarketplaceData(ctx context.Context, fetcher MarketplaceFetcher, periodStart, periodEnd time.Time) (billing.MarketplaceData, error) {
	var data billing.MarketplaceData
	var err error

	if data.Stocks, err = fetcher.Stocks(ctx, periodStart); err != nil {
		return billing.MarketplaceData{}, fmt.Errorf("fetch stocks: %w", err)
	}
	if data.FBSIncomes, err = fetcher.Incomes(ctx, periodStart, periodEnd); err != nil {
		return billing.MarketplaceData{}, fmt.Errorf("fetch incomes: %w", err)
	}
	if data.FBOSupplies, err = fetcher.Supplies(ctx, periodStart, periodEnd); err != nil {
		return billing.MarketplaceData{}, fmt.Errorf("fetch supplies: %w", err)
	}
	if data.FBSOrders, err = fetcher.Orders(ctx, periodStart, periodEnd); err != nil {
		return billing.MarketplaceData{}, fmt.Errorf("fetch orders: %w", err)
	}
	if data.Operations, err = fetcher.WarehouseOperations(ctx, periodStart, periodEnd); err != nil {
		return billing.MarketplaceData{}, fmt.Errorf("fetch warehouse operations: %w", err)
	}
	if data.StorageData, err = fetcher.StorageData(ctx, periodStart, periodEnd); err != nil {
		return billing.MarketplaceData{}, fmt.Errorf("fetch storage data: %w", err)
	}
	return data, nil
}

func (s *BillingService) ownedBilling(ctx context.Context, billingID, userID string) (*billing.Billing, error) {
	if billingID == "" || userID == "" {
		return nil, billing.ErrNotFound
	}
	b, err := s.billings.Get(ctx, billingID, userID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, billing.ErrNotFound
	}
	return b, nil
}

func (s *BillingService) ownedCompany(ctx context.Context, companyID, userID string) (*company.Company, error) {
	if companyID == "" || userID == "" {
		return nil, company.ErrNotFound
	}
	c, err := s.companies.Get(ctx, companyID, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, company.ErrNotFound
	}
	return c, nil
}
