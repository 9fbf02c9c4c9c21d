package wbclient

import (
	"context"
	"time"

	billing "fulfillment-billing/internal/billing/domain"
)

// Sandbox serves deterministic fixture data with the same method set as
// Client. It backs companies without a configured API key and local
// development.
type Sandbox struct {
	now func() time.Time
}

// NewSandbox constructs a sandbox data source.
func NewSandbox() *Sandbox {
	return &Sandbox{now: time.Now}
}

// NewSandboxAt constructs a sandbox pinned to a fixed clock, for tests.
func NewSandboxAt(now time.Time) *Sandbox {
	return &Sandbox{now: func() time.Time { return now }}
}

// Stocks returns fixture inventory records.
func (s *Sandbox) Stocks(_ context.Context, _ time.Time) ([]billing.StockItem, error) {
	return []billing.StockItem{
		{Barcode: "2000000000001", Article: "WB-TEST-001", Name: "Sample item 1", Quantity: 150, InWayToClient: 20, InWayFromClient: 5},
		{Barcode: "2000000000002", Article: "WB-TEST-002", Name: "Sample item 2", Quantity: 85, InWayToClient: 10, InWayFromClient: 2},
		{Barcode: "2000000000003", Article: "WB-TEST-003", Name: "Sample item 3", Quantity: 200, InWayToClient: 30, InWayFromClient: 8},
	}, nil
}

// Incomes returns fixture incoming-supply records.
func (s *Sandbox) Incomes(_ context.Context, _, _ time.Time) ([]billing.IncomeRecord, error) {
	now := s.now().UTC()
	return []billing.IncomeRecord{
		{IncomeID: 123456, Number: "WB-GI-123456", Date: now.Format(time.RFC3339), Barcode: "2000000000001", Quantity: 50, WarehouseName: "Receiving warehouse", Status: "accepted"},
		{IncomeID: 123457, Number: "WB-GI-123457", Date: now.AddDate(0, 0, -1).Format(time.RFC3339), Barcode: "2000000000002", Quantity: 30, WarehouseName: "Receiving warehouse", Status: "accepted"},
	}, nil
}

// Supplies returns one fixture supply created inside any recent window.
func (s *Sandbox) Supplies(_ context.Context, _, _ time.Time) ([]billing.SupplyRecord, error) {
	now := s.now().UTC()
	return []billing.SupplyRecord{
		{
			SupplyID:   "WB-GI-789012",
			Name:       "Supply #1",
			CreatedAt:  now.AddDate(0, 0, -7).Format(time.RFC3339),
			ClosedAt:   now.AddDate(0, 0, -5).Format(time.RFC3339),
			ItemsCount: 100,
			Items: []billing.SupplyItem{
				{Barcode: "2000000000001", Article: "TEST-001", Quantity: 50},
				{Barcode: "2000000000002", Article: "TEST-002", Quantity: 30},
			},
		},
	}, nil
}

// Orders returns one fixture non-cancelled order.
func (s *Sandbox) Orders(_ context.Context, _, _ time.Time) ([]billing.OrderRecord, error) {
	now := s.now().UTC()
	return []billing.OrderRecord{
		{Date: now.Format(time.RFC3339), Barcode: "2000000000001", Quantity: 5, WarehouseName: "Shipping warehouse", TotalPrice: 2500},
	}, nil
}

// WarehouseOperations returns fixture receiving and shipping operations.
func (s *Sandbox) WarehouseOperations(_ context.Context, _, _ time.Time) ([]billing.WarehouseOperation, error) {
	now := s.now().UTC()
	return []billing.WarehouseOperation{
		{
			ID:            "op-001",
			Date:          now.Format(time.RFC3339),
			OperationType: "RECEIVING",
			Items: []billing.OperationItem{
				{Barcode: "2000000000001", Quantity: 50},
				{Barcode: "2000000000002", Quantity: 30},
			},
		},
		{
			ID:            "op-002",
			Date:          now.AddDate(0, 0, -1).Format(time.RFC3339),
			OperationType: "SHIPPING",
			Items: []billing.OperationItem{
				{Barcode: "2000000000001", Quantity: 20},
				{Barcode: "2000000000003", Quantity: 15},
			},
		},
	}, nil
}

// StorageData returns fixture storage usage.
func (s *Sandbox) StorageData(_ context.Context, _, _ time.Time) (billing.StorageData, error) {
	return billing.StorageData{
		TotalStorageArea: 500,
		AverageOccupancy: 0.75,
		Items: []billing.StorageItem{
			{Barcode: "2000000000001", StorageDays: 30, AreaUsed: 10.5},
			{Barcode: "2000000000002", StorageDays: 15, AreaUsed: 5.2},
		},
	}, nil
}

// ValidateKey always succeeds in the sandbox.
func (s *Sandbox) ValidateKey(_ context.Context) (bool, error) {
	return true, nil
}
