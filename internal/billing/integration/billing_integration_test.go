package integration_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	billingapp "fulfillment-billing/internal/billing/application"
	billing "fulfillment-billing/internal/billing/domain"
	billingpg "fulfillment-billing/internal/billing/infrastructure/postgres"
	company "fulfillment-billing/internal/company/domain"
	companypg "fulfillment-billing/internal/company/infrastructure/postgres"
	"fulfillment-billing/internal/wbclient"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time { return f.now }

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	applyMigrations(t, db)
	return db
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	paths, err := filepath.Glob(filepath.Join("..", "..", "..", "migrations", "*.sql"))
	if err != nil || len(paths) == 0 {
		t.Fatalf("find migrations: %v (found %d)", err, len(paths))
	}
	sort.Strings(paths)
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read migration %s: %v", path, err)
		}
		if _, err := db.Exec(string(raw)); err != nil {
			t.Fatalf("apply migration %s: %v", path, err)
		}
	}
}

func TestBillingClosedLoopPostgres(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	userID := "user-int-1"
	companyID := "company-int-1"
	_, _ = db.ExecContext(ctx, "DELETE FROM billings WHERE user_id = $1", userID)
	_, _ = db.ExecContext(ctx, "DELETE FROM billing_configs WHERE user_id = $1", userID)
	_, _ = db.ExecContext(ctx, "DELETE FROM companies WHERE id = $1", companyID)

	companyRepo := companypg.NewCompanyRepository(db)
	now := time.Date(2026, 4, 15, 12, 0, 0, 0, time.UTC)
	err := companyRepo.Save(ctx, &company.Company{
		ID:       companyID,
		UserID:   userID,
		Name:     "Integration Trade",
		INN:      "7727563778",
		WBAPIKey: "sandbox",
	})
	if err != nil {
		t.Fatalf("save company: %v", err)
	}

	billingRepo := billingpg.NewBillingRepository(db)
	configRepo := billingpg.NewConfigRepository(db)
	fetcherFor := func(apiKey string) billingapp.MarketplaceFetcher {
		if apiKey == "" {
			return nil
		}
		return wbclient.NewSandboxAt(now)
	}
	svc, err := billingapp.NewBillingService(billingRepo, configRepo, companyRepo, fetcherFor, fixedClock{now: now})
	if err != nil {
		t.Fatalf("new billing service: %v", err)
	}
	configSvc, err := billingapp.NewConfigService(configRepo, companyRepo, nil, fixedClock{now: now})
	if err != nil {
		t.Fatalf("new config service: %v", err)
	}

	_, err = configSvc.Put(ctx, userID, companyID, []billing.ServiceDefinition{
		{ID: "shipping", Name: "Shipping", Enabled: true, Price: 10},
		{ID: billing.ServiceIDStorage, Name: "Storage", Enabled: true, Price: 100},
	})
	if err != nil {
		t.Fatalf("put config: %v", err)
	}

	periodStart := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	b, err := svc.Create(ctx, userID, companyID, periodStart, periodEnd)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	generated, err := svc.Generate(ctx, userID, b.ID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if generated.Status != billing.StatusGenerated {
		t.Fatalf("expected GENERATED, got %s", generated.Status)
	}
	if generated.TotalAmount <= 0 {
		t.Fatalf("expected positive total, got %v", generated.TotalAmount)
	}

	// Round-trip through the repository and confirm the stored blobs and
	// total survived.
	stored, err := billingRepo.Get(ctx, b.ID, userID)
	if err != nil {
		t.Fatalf("get stored: %v", err)
	}
	if stored == nil {
		t.Fatal("expected stored record")
	}
	if stored.TotalAmount != generated.TotalAmount {
		t.Fatalf("stored total %v, generated %v", stored.TotalAmount, generated.TotalAmount)
	}
	if stored.Calculations != generated.Calculations {
		t.Fatal("stored calculations differ from generated")
	}

	items, err := svc.List(ctx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].CompanyName != "Integration Trade" {
		t.Fatalf("unexpected list result %+v", items)
	}

	if err := svc.Delete(ctx, userID, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, userID, b.ID); err == nil {
		t.Fatal("expected error after delete")
	}
}
