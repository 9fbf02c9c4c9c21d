package application

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	billing "fulfillment-billing/internal/billing/domain"
	"fulfillment-billing/internal/billing/infrastructure/memory"
	company "fulfillment-billing/internal/company/domain"
)

type stubCompanies struct {
	mu        sync.Mutex
	companies map[string]*company.Company
}

func newStubCompanies(companies ...*company.Company) *stubCompanies {
	s := &stubCompanies{companies: make(map[string]*company.Company)}
	for _, c := range companies {
		s.companies[c.ID] = c
	}
	return s
}

func (s *stubCompanies) Get(_ context.Context, id, userID string) (*company.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.companies[id]
	if c == nil || c.UserID != userID {
		return nil, nil
	}
	clone := *c
	return &clone, nil
}

type stubFetcher struct {
	data billing.MarketplaceData
	err  error
}

func (s stubFetcher) Stocks(_ context.Context, _ time.Time) ([]billing.StockItem, error) {
	return s.data.Stocks, s.err
}

func (s stubFetcher) Incomes(_ context.Context, _, _ time.Time) ([]billing.IncomeRecord, error) {
	return s.data.FBSIncomes, s.err
}

func (s stubFetcher) Supplies(_ context.Context, _, _ time.Time) ([]billing.SupplyRecord, error) {
	return s.data.FBOSupplies, s.err
}

func (s stubFetcher) Orders(_ context.Context, _, _ time.Time) ([]billing.OrderRecord, error) {
	return s.data.FBSOrders, s.err
}

func (s stubFetcher) WarehouseOperations(_ context.Context, _, _ time.Time) ([]billing.WarehouseOperation, error) {
	return s.data.Operations, s.err
}

func (s stubFetcher) StorageData(_ context.Context, _, _ time.Time) (billing.StorageData, error) {
	return s.data.StorageData, s.err
}

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time { return f.now }

var (
	testStart = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	testEnd   = time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
)

func testCompany(apiKey string) *company.Company {
	return &company.Company{
		ID:       "company-1",
		UserID:   "user-1",
		Name:     "Acme Trade",
		INN:      "7707083893",
		WBAPIKey: apiKey,
	}
}

func testFixture(t *testing.T, fetcher MarketplaceFetcher) (*BillingService, *memory.ConfigRepository) {
	t.Helper()
	billings := memory.NewBillingRepository()
	configs := memory.NewConfigRepository()
	companies := newStubCompanies(testCompany("key-123"))
	fetcherFor := func(apiKey string) MarketplaceFetcher {
		if apiKey == "" {
			return nil
		}
		return fetcher
	}
	svc, err := NewBillingService(billings, configs, companies, fetcherFor, fixedClock{now: testEnd})
	if err != nil {
		t.Fatalf("new billing service: %v", err)
	}
	return svc, configs
}

func storeConfig(t *testing.T, configs *memory.ConfigRepository, services []billing.ServiceDefinition) {
	t.Helper()
	err := configs.Save(context.Background(), &billing.Config{
		ID:        "cfg-1",
		CompanyID: "company-1",
		UserID:    "user-1",
		Services:  services,
	})
	if err != nil {
		t.Fatalf("save config: %v", err)
	}
}

func TestBillingServiceCreateDraft(t *testing.T) {
	svc, _ := testFixture(t, stubFetcher{})

	b, err := svc.Create(context.Background(), "user-1", "company-1", testStart, testEnd)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.Status != billing.StatusDraft {
		t.Fatalf("expected DRAFT, got %s", b.Status)
	}
	if b.ID == "" {
		t.Fatal("expected generated id")
	}

	got, err := svc.Get(context.Background(), "user-1", b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CompanyID != "company-1" {
		t.Fatalf("unexpected company id %s", got.CompanyID)
	}
}

func TestBillingServiceCreateUnknownCompany(t *testing.T) {
	svc, _ := testFixture(t, stubFetcher{})

	if _, err := svc.Create(context.Background(), "user-1", "company-x", testStart, testEnd); !errors.Is(err, company.ErrNotFound) {
		t.Fatalf("expected company not found, got %v", err)
	}
	if _, err := svc.Create(context.Background(), "user-2", "company-1", testStart, testEnd); !errors.Is(err, company.ErrNotFound) {
		t.Fatalf("expected not found for foreign user, got %v", err)
	}
}

func TestBillingServiceListJoinsCompany(t *testing.T) {
	svc, _ := testFixture(t, stubFetcher{})

	if _, err := svc.Create(context.Background(), "user-1", "company-1", testStart, testEnd); err != nil {
		t.Fatalf("create: %v", err)
	}

	items, err := svc.List(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].CompanyName != "Acme Trade" || items[0].CompanyINN != "7707083893" {
		t.Fatalf("expected company summary, got %+v", items[0])
	}

	foreign, err := svc.List(context.Background(), "user-2")
	if err != nil {
		t.Fatalf("list foreign: %v", err)
	}
	if len(foreign) != 0 {
		t.Fatalf("expected no records for other user, got %d", len(foreign))
	}
}

func TestBillingServiceGenerate(t *testing.T) {
	fetcher := stubFetcher{data: billing.MarketplaceData{
		FBSIncomes: []billing.IncomeRecord{{Quantity: 50}, {Quantity: 30}},
		FBSOrders:  []billing.OrderRecord{{Quantity: 5, Type: "FBO"}},
		StorageData: billing.StorageData{
			Items: []billing.StorageItem{{AreaUsed: 10.5}, {AreaUsed: 5.2}},
		},
	}}
	svc, configs := testFixture(t, fetcher)
	storeConfig(t, configs, []billing.ServiceDefinition{
		{ID: "shipping", Name: "Shipping", Enabled: true, Price: 10},
		{ID: billing.ServiceIDStorage, Name: "Storage", Enabled: true, Price: 100},
	})

	b, err := svc.Create(context.Background(), "user-1", "company-1", testStart, testEnd)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	generated, err := svc.Generate(context.Background(), "user-1", b.ID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if generated.Status != billing.StatusGenerated {
		t.Fatalf("expected GENERATED, got %s", generated.Status)
	}

	var calc billing.CalculationResult
	if err := json.Unmarshal([]byte(generated.Calculations), &calc); err != nil {
		t.Fatalf("unmarshal calculations: %v", err)
	}
	// shipping: 80 fbs units * 10 + 5 fbo units * 10 = 850
	// storage: 15.7 m2 * 100 * (30/30) = 1570
	want := 850.0 + 15.7*100.0
	if calc.Total != want {
		t.Fatalf("expected total %v, got %v", want, calc.Total)
	}
	if generated.TotalAmount != calc.Total {
		t.Fatalf("total amount %v does not match stored result %v", generated.TotalAmount, calc.Total)
	}

	var data billing.MarketplaceData
	if err := json.Unmarshal([]byte(generated.MarketplaceData), &data); err != nil {
		t.Fatalf("unmarshal marketplace data: %v", err)
	}
	if len(data.FBSIncomes) != 2 {
		t.Fatalf("expected stored incomes, got %+v", data.FBSIncomes)
	}

	// Regenerating replaces the stored result wholesale.
	again, err := svc.Generate(context.Background(), "user-1", b.ID)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if again.Calculations != generated.Calculations {
		t.Fatal("expected identical result on regenerate with same data")
	}
}

func TestBillingServiceGenerateWithoutConfig(t *testing.T) {
	svc, _ := testFixture(t, stubFetcher{})

	b, err := svc.Create(context.Background(), "user-1", "company-1", testStart, testEnd)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Generate(context.Background(), "user-1", b.ID); !errors.Is(err, ErrConfigMissing) {
		t.Fatalf("expected ErrConfigMissing, got %v", err)
	}
}

func TestBillingServiceGenerateWithoutAPIKey(t *testing.T) {
	billings := memory.NewBillingRepository()
	configs := memory.NewConfigRepository()
	companies := newStubCompanies(testCompany(""))
	fetcherFor := func(apiKey string) MarketplaceFetcher {
		if apiKey == "" {
			return nil
		}
		return stubFetcher{}
	}
	svc, err := NewBillingService(billings, configs, companies, fetcherFor, fixedClock{now: testEnd})
	if err != nil {
		t.Fatalf("new billing service: %v", err)
	}
	storeConfig(t, configs, []billing.ServiceDefinition{{ID: "shipping", Name: "Shipping", Enabled: true, Price: 10}})

	b, err := svc.Create(context.Background(), "user-1", "company-1", testStart, testEnd)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Generate(context.Background(), "user-1", b.ID); !errors.Is(err, ErrAPIKeyMissing) {
		t.Fatalf("expected ErrAPIKeyMissing, got %v", err)
	}
}

func TestBillingServiceGenerateFetchFailure(t *testing.T) {
	svc, configs := testFixture(t, stubFetcher{err: errors.New("upstream down")})
	storeConfig(t, configs, []billing.ServiceDefinition{{ID: "shipping", Name: "Shipping", Enabled: true, Price: 10}})

	b, err := svc.Create(context.Background(), "user-1", "company-1", testStart, testEnd)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Generate(context.Background(), "user-1", b.ID); err == nil {
		t.Fatal("expected fetch failure to surface")
	}

	got, err := svc.Get(context.Background(), "user-1", b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != billing.StatusDraft {
		t.Fatalf("expected record untouched after failed fetch, got %s", got.Status)
	}
}

func TestBillingServiceUpdateStatus(t *testing.T) {
	svc, _ := testFixture(t, stubFetcher{})

	b, err := svc.Create(context.Background(), "user-1", "company-1", testStart, testEnd)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.UpdateStatus(context.Background(), "user-1", b.ID, billing.StatusSent)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != billing.StatusSent {
		t.Fatalf("expected SENT, got %s", updated.Status)
	}

	if _, err := svc.UpdateStatus(context.Background(), "user-1", b.ID, "SHIPPED"); !errors.Is(err, billing.ErrInvalidStatus) {
		t.Fatalf("expected invalid status, got %v", err)
	}
	// GENERATED is owned by the calculation workflow.
	if _, err := svc.UpdateStatus(context.Background(), "user-1", b.ID, billing.StatusGenerated); !errors.Is(err, billing.ErrInvalidStatus) {
		t.Fatalf("expected invalid status for GENERATED, got %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), "user-2", b.ID, billing.StatusPaid); !errors.Is(err, billing.ErrNotFound) {
		t.Fatalf("expected not found for foreign user, got %v", err)
	}
}

func TestBillingServiceDelete(t *testing.T) {
	svc, _ := testFixture(t, stubFetcher{})

	b, err := svc.Create(context.Background(), "user-1", "company-1", testStart, testEnd)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(context.Background(), "user-2", b.ID); !errors.Is(err, billing.ErrNotFound) {
		t.Fatalf("expected not found for foreign user, got %v", err)
	}
	if err := svc.Delete(context.Background(), "user-1", b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), "user-1", b.ID); !errors.Is(err, billing.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
