package wbclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	billing "fulfillment-billing/internal/billing/domain"
)

func TestClientOrdersFiltersWindowAndCancelled(t *testing.T) {
	var gotAuth, gotDateFrom string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/supplier/orders" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		gotDateFrom = r.URL.Query().Get("dateFrom")
		orders := []billing.OrderRecord{
			{Date: "2026-03-10T12:00:00Z", Quantity: 5},
			{Date: "2026-03-31T23:30:00Z", Quantity: 3},            // last day, end of day
			{Date: "2026-04-01T00:00:00Z", Quantity: 7},            // after window
			{Date: "2026-02-28T10:00:00Z", Quantity: 2},            // before window
			{Date: "2026-03-15T10:00:00Z", Quantity: 9, IsCancel: true},
			{Quantity: 4}, // missing date
		}
		_ = json.NewEncoder(w).Encode(orders)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "key-123")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	orders, err := client.Orders(context.Background(), from, to)
	if err != nil {
		t.Fatalf("orders: %v", err)
	}

	if gotAuth != "key-123" {
		t.Fatalf("expected raw api key in Authorization header, got %q", gotAuth)
	}
	if gotDateFrom != "2026-03-01" {
		t.Fatalf("expected dateFrom 2026-03-01, got %q", gotDateFrom)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders after filtering, got %+v", orders)
	}
	if orders[0].Quantity != 5 || orders[1].Quantity != 3 {
		t.Fatalf("unexpected surviving orders: %+v", orders)
	}
}

func TestClientSuppliesFilteredByCreatedAt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		supplies := []billing.SupplyRecord{
			{SupplyID: "in", CreatedAt: "2026-03-05T08:00:00Z"},
			{SupplyID: "out", CreatedAt: "2026-05-01T08:00:00Z"},
			{SupplyID: "undated"},
		}
		_ = json.NewEncoder(w).Encode(supplies)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "key-123")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	supplies, err := client.Supplies(context.Background(), from, to)
	if err != nil {
		t.Fatalf("supplies: %v", err)
	}
	if len(supplies) != 1 || supplies[0].SupplyID != "in" {
		t.Fatalf("expected only the in-window supply, got %+v", supplies)
	}
}

func TestClientValidateKey(t *testing.T) {
	status := http.StatusOK
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write([]byte("[]"))
		}
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "key-123")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ok, err := client.ValidateKey(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected valid key, got ok=%v err=%v", ok, err)
	}

	status = http.StatusUnauthorized
	ok, err = client.ValidateKey(context.Background())
	if err != nil {
		t.Fatalf("expected no error on 401, got %v", err)
	}
	if ok {
		t.Fatal("expected invalid key on 401")
	}

	status = http.StatusInternalServerError
	_, err = client.ValidateKey(context.Background())
	if err == nil {
		t.Fatal("expected error on upstream failure")
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient("", ""); err == nil {
		t.Fatal("expected error for empty api key")
	}
}

func TestSandboxFixtures(t *testing.T) {
	sandbox := NewSandboxAt(time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	incomes, err := sandbox.Incomes(ctx, from, to)
	if err != nil {
		t.Fatalf("incomes: %v", err)
	}
	var units float64
	for _, income := range incomes {
		units += income.Quantity
	}
	if units != 80 {
		t.Fatalf("expected 80 fixture income units, got %v", units)
	}

	orders, err := sandbox.Orders(ctx, from, to)
	if err != nil {
		t.Fatalf("orders: %v", err)
	}
	if len(orders) != 1 || orders[0].Quantity != 5 {
		t.Fatalf("unexpected fixture orders: %+v", orders)
	}

	storage, err := sandbox.StorageData(ctx, from, to)
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	var area float64
	for _, item := range storage.Items {
		area += item.AreaUsed
	}
	if area != 15.7 {
		t.Fatalf("expected 15.7 fixture storage area, got %v", area)
	}

	ok, err := sandbox.ValidateKey(ctx)
	if err != nil || !ok {
		t.Fatalf("expected sandbox key validation to pass, got ok=%v err=%v", ok, err)
	}
}
