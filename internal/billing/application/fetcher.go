package application

import (
	"context"
	"time"

	billing "fulfillment-billing/internal/billing/domain"
)

// MarketplaceFetcher pulls the activity data sets a billing calculation
// runs over. The statistics client and the sandbox both satisfy it.
type MarketplaceFetcher interface {
	Stocks(ctx context.Context, dateFrom time.Time) ([]billing.StockItem, error)
	Incomes(ctx context.Context, dateFrom, dateTo time.Time) ([]billing.IncomeRecord, error)
	Supplies(ctx context.Context, dateFrom, dateTo time.Time) ([]billing.SupplyRecord, error)
	Orders(ctx context.Context, dateFrom, dateTo time.Time) ([]billing.OrderRecord, error)
	WarehouseOperations(ctx context.Context, dateFrom, dateTo time.Time) ([]billing.WarehouseOperation, error)
	StorageData(ctx context.Context, dateFrom, dateTo time.Time) (billing.StorageData, error)
}

// FetcherFor resolves a fetcher for a company's API key. A nil return
// means no data source is available for that key.
type FetcherFor func(apiKey string) MarketplaceFetcher
