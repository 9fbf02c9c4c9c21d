package wbclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	billing "fulfillment-billing/internal/billing/domain"
	"fulfillment-billing/internal/observability/metrics"
)

// DefaultBaseURL is the marketplace statistics API host.
const DefaultBaseURL = "https://statistics-api.wildberries.ru"

const dateLayout = "2006-01-02"

var (
	// ErrUnauthorized indicates the API key was rejected upstream.
	ErrUnauthorized = errors.New("wbclient: unauthorized")
	// ErrEmptyAPIKey indicates a client was requested without a key.
	ErrEmptyAPIKey = errors.New("wbclient: empty api key")
)

// Client is a minimal Wildberries statistics API client. The raw API key
// goes into the Authorization header, no bearer prefix; that is what the
// upstream expects.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient constructs a statistics client.
func NewClient(baseURL, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, ErrEmptyAPIKey
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Stocks returns current inventory records.
func (c *Client) Stocks(ctx context.Context, dateFrom time.Time) ([]billing.StockItem, error) {
	var out []billing.StockItem
	params := url.Values{"dateFrom": {dateFrom.Format(dateLayout)}}
	if err := c.getJSON(ctx, "stocks", "/api/v1/supplier/stocks", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Incomes returns incoming-supply records for the period.
func (c *Client) Incomes(ctx context.Context, dateFrom, dateTo time.Time) ([]billing.IncomeRecord, error) {
	var out []billing.IncomeRecord
	params := url.Values{
		"dateFrom": {dateFrom.Format(dateLayout)},
		"dateTo":   {dateTo.Format(dateLayout)},
	}
	if err := c.getJSON(ctx, "incomes", "/api/v1/supplier/incomes", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Supplies returns warehouse supplies created within the period. The
// upstream ignores the window on this endpoint now and then, so records
// are re-filtered by createdAt here.
func (c *Client) Supplies(ctx context.Context, dateFrom, dateTo time.Time) ([]billing.SupplyRecord, error) {
	var fetched []billing.SupplyRecord
	params := url.Values{
		"dateFrom": {dateFrom.Format(dateLayout)},
		"dateTo":   {dateTo.Format(dateLayout)},
	}
	if err := c.getJSON(ctx, "supplies", "/api/v1/supplier/supplies", params, &fetched); err != nil {
		return nil, err
	}

	out := make([]billing.SupplyRecord, 0, len(fetched))
	for _, supply := range fetched {
		if inWindow(supply.CreatedAt, dateFrom, dateTo) {
			out = append(out, supply)
		}
	}
	return out, nil
}

// Orders returns non-cancelled outbound orders dated within the period.
// Window and cancellation filtering happen client-side, same reason as
// Supplies.
func (c *Client) Orders(ctx context.Context, dateFrom, dateTo time.Time) ([]billing.OrderRecord, error) {
	var fetched []billing.OrderRecord
	params := url.Values{
		"dateFrom": {dateFrom.Format(dateLayout)},
		"dateTo":   {dateTo.Format(dateLayout)},
	}
	if err := c.getJSON(ctx, "orders", "/api/v1/supplier/orders", params, &fetched); err != nil {
		return nil, err
	}

	out := make([]billing.OrderRecord, 0, len(fetched))
	for _, order := range fetched {
		if order.IsCancel {
			continue
		}
		if inWindow(order.Date, dateFrom, dateTo) {
			out = append(out, order)
		}
	}
	return out, nil
}

// WarehouseOperations returns receiving/shipping/move operations for the
// period.
func (c *Client) WarehouseOperations(ctx context.Context, dateFrom, dateTo time.Time) ([]billing.WarehouseOperation, error) {
	var out []billing.WarehouseOperation
	params := url.Values{
		"dateFrom": {dateFrom.Format(dateLayout)},
		"dateTo":   {dateTo.Format(dateLayout)},
	}
	if err := c.getJSON(ctx, "warehouses", "/api/v1/supplier/warehouses", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StorageData returns storage usage for the period. The upstream has no
// storage endpoint yet; sandbox figures are served until it ships.
// TODO: call /api/v1/supplier/storage once Wildberries publishes it.
func (c *Client) StorageData(ctx context.Context, dateFrom, dateTo time.Time) (billing.StorageData, error) {
	return NewSandbox().StorageData(ctx, dateFrom, dateTo)
}

// ValidateKey probes the stocks endpoint with a short timeout. A 401 or
// 403 means the key is bad; transport failures are reported as errors so
// callers can tell an invalid key from an unreachable upstream.
func (c *Client) ValidateKey(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	params := url.Values{"dateFrom": {time.Now().AddDate(0, 0, -7).Format(dateLayout)}}
	err := c.getJSON(ctx, "validate", "/api/v1/supplier/stocks", params, nil)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, params url.Values, out any) error {
	start := time.Now()
	err := c.doGetJSON(ctx, path, params, out)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.ObserveFetch(endpoint, result, time.Since(start))
	return err
}

func (c *Client) doGetJSON(ctx context.Context, path string, params url.Values, out any) error {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("wbclient: http %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// inWindow reports whether an RFC3339-ish timestamp falls inside the
// period, with the last day counted whole.
func inWindow(value string, from, to time.Time) bool {
	if value == "" {
		return false
	}
	at, err := parseUpstreamTime(value)
	if err != nil {
		return false
	}
	limit := time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), to.Location())
	return !at.Before(from) && !at.After(limit)
}

// parseUpstreamTime handles the timestamp shapes the statistics API emits.
func parseUpstreamTime(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", dateLayout} {
		if at, err := time.Parse(layout, value); err == nil {
			return at, nil
		}
	}
	return time.Time{}, fmt.Errorf("wbclient: bad timestamp %q", value)
}
