package billing

// Marketplace activity records as returned by the statistics API. Field
// names mirror the upstream JSON so stored bundles stay byte-compatible
// with what the fetcher produced. Numeric fields default to zero when the
// upstream omits them; the calculator relies on that.

// StockItem is a current inventory record. Informational only, never
// enters the totals.
type StockItem struct {
	Barcode         string  `json:"barcode,omitempty"`
	Article         string  `json:"article,omitempty"`
	Name            string  `json:"name,omitempty"`
	Quantity        float64 `json:"quantity,omitempty"`
	InWayToClient   float64 `json:"inWayToClient,omitempty"`
	InWayFromClient float64 `json:"inWayFromClient,omitempty"`
}

// IncomeRecord is one incoming-supply record. Depending on the supply
// sub-type the upstream populates exactly one of the three quantity-like
// fields.
type IncomeRecord struct {
	IncomeID        int64   `json:"incomeId,omitempty"`
	Number          string  `json:"number,omitempty"`
	Date            string  `json:"date,omitempty"`
	Barcode         string  `json:"barcode,omitempty"`
	Quantity        float64 `json:"quantity,omitempty"`
	InWayToClient   float64 `json:"inWayToClient,omitempty"`
	InWayFromClient float64 `json:"inWayFromClient,omitempty"`
	WarehouseName   string  `json:"warehouseName,omitempty"`
	Status          string  `json:"status,omitempty"`
}

// SupplyItem is one line of a warehouse supply.
type SupplyItem struct {
	Barcode  string  `json:"barcode,omitempty"`
	Article  string  `json:"article,omitempty"`
	Quantity float64 `json:"quantity,omitempty"`
}

// SupplyRecord is one supply to the marketplace warehouse. Informational
// only in the current rules.
type SupplyRecord struct {
	SupplyID   string       `json:"supplyId,omitempty"`
	Name       string       `json:"name,omitempty"`
	CreatedAt  string       `json:"createdAt,omitempty"`
	ClosedAt   string       `json:"closedAt,omitempty"`
	ItemsCount float64      `json:"itemsCount,omitempty"`
	Items      []SupplyItem `json:"items,omitempty"`
}

// OrderRecord is one outbound order. Type and OrderType are both optional;
// the upstream is inconsistent about which one carries the channel.
type OrderRecord struct {
	Date          string  `json:"date,omitempty"`
	Barcode       string  `json:"barcode,omitempty"`
	Quantity      float64 `json:"quantity,omitempty"`
	IsCancel      bool    `json:"isCancel,omitempty"`
	Type          string  `json:"type,omitempty"`
	OrderType     string  `json:"orderType,omitempty"`
	WarehouseName string  `json:"warehouseName,omitempty"`
	TotalPrice    float64 `json:"totalPrice,omitempty"`
}

// OperationItem is one line of a warehouse operation.
type OperationItem struct {
	Barcode  string  `json:"barcode,omitempty"`
	Quantity float64 `json:"quantity,omitempty"`
}

// WarehouseOperation is a receiving/shipping/move operation. Unused by the
// calculation, kept in the bundle for reporting.
type WarehouseOperation struct {
	ID            string          `json:"id,omitempty"`
	Date          string          `json:"date,omitempty"`
	OperationType string          `json:"operationType,omitempty"`
	Items         []OperationItem `json:"items,omitempty"`
}

// StorageItem reports occupied area for one barcode.
type StorageItem struct {
	Barcode     string  `json:"barcode,omitempty"`
	StorageDays float64 `json:"storageDays,omitempty"`
	AreaUsed    float64 `json:"areaUsed,omitempty"`
}

// StorageData aggregates storage usage over the period.
type StorageData struct {
	TotalStorageArea float64       `json:"totalStorageArea,omitempty"`
	AverageOccupancy float64       `json:"averageOccupancy,omitempty"`
	Items            []StorageItem `json:"items,omitempty"`
}

// MarketplaceData bundles everything fetched for one billing period. An
// empty bundle is the correct representation of "no activity"; the
// calculator never distinguishes missing arrays from empty ones.
type MarketplaceData struct {
	Stocks      []StockItem          `json:"stocks"`
	FBSIncomes  []IncomeRecord       `json:"fbsIncomes"`
	FBOSupplies []SupplyRecord       `json:"fboSupplies"`
	FBSOrders   []OrderRecord        `json:"fbsOrders"`
	Operations  []WarehouseOperation `json:"operations"`
	StorageData StorageData          `json:"storageData"`
}
