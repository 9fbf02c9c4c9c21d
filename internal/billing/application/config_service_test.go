package application

import (
	"context"
	"errors"
	"testing"

	billing "fulfillment-billing/internal/billing/domain"
	"fulfillment-billing/internal/billing/infrastructure/memory"
	company "fulfillment-billing/internal/company/domain"
)

func configFixture(t *testing.T, defaults []billing.ServiceDefinition) *ConfigService {
	t.Helper()
	configs := memory.NewConfigRepository()
	companies := newStubCompanies(testCompany("key-123"))
	svc, err := NewConfigService(configs, companies, defaults, fixedClock{now: testEnd})
	if err != nil {
		t.Fatalf("new config service: %v", err)
	}
	return svc
}

func TestConfigServiceGetServesDefaultsUnpersisted(t *testing.T) {
	defaults := []billing.ServiceDefinition{
		{ID: billing.ServiceIDFBS, Name: "FBS Processing", Enabled: true},
	}
	svc := configFixture(t, defaults)

	cfg, err := svc.Get(context.Background(), "user-1", "company-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cfg.ID != "" {
		t.Fatal("default catalog must not look persisted")
	}
	if len(cfg.Services) != 1 || cfg.Services[0].ID != billing.ServiceIDFBS {
		t.Fatalf("unexpected services %+v", cfg.Services)
	}

	// Mutating the returned slice must not leak into later reads.
	cfg.Services[0].Name = "mutated"
	again, err := svc.Get(context.Background(), "user-1", "company-1")
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if again.Services[0].Name != "FBS Processing" {
		t.Fatalf("defaults leaked mutation: %+v", again.Services[0])
	}
}

func TestConfigServicePutThenGet(t *testing.T) {
	svc := configFixture(t, nil)

	stored, err := svc.Put(context.Background(), "user-1", "company-1", []billing.ServiceDefinition{
		{ID: "shipping", Name: "Shipping", Enabled: true, Price: 12},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if stored.ID == "" {
		t.Fatal("expected generated config id")
	}

	cfg, err := svc.Get(context.Background(), "user-1", "company-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cfg.ID != stored.ID {
		t.Fatalf("expected stored config back, got %+v", cfg)
	}
	if len(cfg.Services) != 1 || cfg.Services[0].Price != 12 {
		t.Fatalf("unexpected services %+v", cfg.Services)
	}

	// A second Put keeps the identity of the stored config.
	replaced, err := svc.Put(context.Background(), "user-1", "company-1", []billing.ServiceDefinition{
		{ID: "shipping", Name: "Shipping", Enabled: true, Price: 15},
	})
	if err != nil {
		t.Fatalf("second put: %v", err)
	}
	if replaced.ID != stored.ID {
		t.Fatalf("config id changed on update: %s vs %s", replaced.ID, stored.ID)
	}
	if replaced.CreatedAt != stored.CreatedAt {
		t.Fatal("created timestamp changed on update")
	}
}

func TestConfigServicePutRejectsDuplicates(t *testing.T) {
	svc := configFixture(t, nil)

	_, err := svc.Put(context.Background(), "user-1", "company-1", []billing.ServiceDefinition{
		{ID: "shipping", Name: "One"},
		{ID: "shipping", Name: "Two"},
	})
	if !errors.Is(err, billing.ErrDuplicateService) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestConfigServiceForeignCompany(t *testing.T) {
	svc := configFixture(t, nil)

	if _, err := svc.Get(context.Background(), "user-2", "company-1"); !errors.Is(err, company.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.Put(context.Background(), "user-2", "company-1", nil); !errors.Is(err, company.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
