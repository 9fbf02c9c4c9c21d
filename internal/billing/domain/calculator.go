package billing

import (
	"math"
	"time"
)

// Operation type tags carried on generic split items, used downstream for
// grouping only.
const (
	OperationFBS = "fbs"
	OperationFBO = "fbo"
)

// CalculationItem is one priced line of a billing calculation.
type CalculationItem struct {
	ServiceID     string  `json:"serviceId"`
	ServiceName   string  `json:"serviceName"`
	Quantity      float64 `json:"quantity"`
	Unit          string  `json:"unit"`
	Price         float64 `json:"price"`
	Total         float64 `json:"total"`
	OperationType string  `json:"operationType,omitempty"`
}

// Period echoes the calculation boundaries as ISO-8601 strings.
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// CalculationResult is the itemized, totaled outcome of one calculation.
// It is persisted verbatim and never recomputed in place; recalculation
// means calling Calculate again and replacing the stored result.
type CalculationResult struct {
	Items    []CalculationItem `json:"items"`
	Subtotal float64           `json:"subtotal"`
	Total    float64           `json:"total"`
	Period   Period            `json:"period"`
}

// Calculate prices a billing period: it derives FBS/FBO unit quantities
// from the activity bundle and emits one line per enabled service charge.
// Pure and total: identical inputs produce identical output, and missing
// or zero-valued optional data degrades to zero quantities rather than an
// error.
func Calculate(services []ServiceDefinition, data MarketplaceData, periodStart, periodEnd time.Time) CalculationResult {
	fbsQuantity := fbsUnitQuantity(data.FBSIncomes)
	fboQuantity := fboUnitQuantity(data.FBSOrders)

	items := make([]CalculationItem, 0, len(services)*2)
	var subtotal float64

	for _, svc := range services {
		if !svc.Enabled {
			continue
		}

		switch svc.Kind() {
		case KindReservedMarker:
			// fbs/fbo are grouping markers, never a charge of their own.

		case KindStorage:
			quantity := 0.0
			for _, item := range data.StorageData.Items {
				quantity += item.AreaUsed
			}
			days := storageDays(periodStart, periodEnd)
			total := quantity * svc.Price * (float64(days) / 30)
			if quantity > 0 || total > 0 {
				items = append(items, CalculationItem{
					ServiceID:   svc.ID,
					ServiceName: svc.Name,
					Quantity:    quantity,
					Unit:        defaultUnit(svc.Unit, UnitStorage),
					Price:       svc.Price,
					Total:       total,
				})
				subtotal += total
			}

		case KindHandling:
			quantity := 0.0
			for _, order := range data.FBSOrders {
				if !order.IsCancel {
					quantity++
				}
			}
			total := quantity * svc.Price
			if quantity > 0 || total > 0 {
				items = append(items, CalculationItem{
					ServiceID:   svc.ID,
					ServiceName: svc.Name,
					Quantity:    quantity,
					Unit:        defaultUnit(svc.Unit, UnitOrder),
					Price:       svc.Price,
					Total:       total,
				})
				subtotal += total
			}

		case KindGeneric:
			if fbsQuantity > 0 {
				total := fbsQuantity * svc.Price
				items = append(items, CalculationItem{
					ServiceID:     svc.ID + "_fbs",
					ServiceName:   svc.Name + " (FBS)",
					Quantity:      fbsQuantity,
					Unit:          defaultUnit(svc.Unit, UnitPieces),
					Price:         svc.Price,
					Total:         total,
					OperationType: OperationFBS,
				})
				subtotal += total
			}
			if fboQuantity > 0 {
				total := fboQuantity * svc.Price
				items = append(items, CalculationItem{
					ServiceID:     svc.ID + "_fbo",
					ServiceName:   svc.Name + " (FBO)",
					Quantity:      fboQuantity,
					Unit:          defaultUnit(svc.Unit, UnitPieces),
					Price:         svc.Price,
					Total:         total,
					OperationType: OperationFBO,
				})
				subtotal += total
			}
		}
	}

	return CalculationResult{
		Items:    items,
		Subtotal: subtotal,
		Total:    subtotal,
		Period: Period{
			Start: periodStart.UTC().Format(time.RFC3339),
			End:   periodEnd.UTC().Format(time.RFC3339),
		},
	}
}

// fbsUnitQuantity sums shipped units over incoming-supply records. Each
// record carries its quantity under one of three names depending on the
// supply sub-type; a zero field falls through to the next candidate.
func fbsUnitQuantity(incomes []IncomeRecord) float64 {
	var sum float64
	for _, income := range incomes {
		quantity := income.Quantity
		if quantity == 0 {
			quantity = income.InWayToClient
		}
		if quantity == 0 {
			quantity = income.InWayFromClient
		}
		sum += quantity
	}
	return sum
}

// fboUnitQuantity sums units over non-cancelled outbound orders of the
// FBO channel. An order without a type discriminator counts as FBO;
// downstream invoices depend on this exact bucketing.
func fboUnitQuantity(orders []OrderRecord) float64 {
	var sum float64
	for _, order := range orders {
		if order.IsCancel {
			continue
		}
		if order.Type == "FBO" || order.OrderType == "FBO" || order.Type == "" {
			sum += order.Quantity
		}
	}
	return sum
}

// storageDays is the whole-day length of the period, used to pro-rate the
// monthly storage rate.
func storageDays(start, end time.Time) int {
	return int(math.Ceil(end.Sub(start).Hours() / 24))
}

func defaultUnit(unit, fallback string) string {
	if unit == "" {
		return fallback
	}
	return unit
}
