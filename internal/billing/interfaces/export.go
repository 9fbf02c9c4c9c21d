package interfaces

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	billing "fulfillment-billing/internal/billing/domain"
)

// BuildBillingXLSX renders a billing as a workbook: a summary sheet and an
// items sheet with FBS lines first, then FBO, then everything else.
func BuildBillingXLSX(b *billing.Billing, companyName string, calc billing.CalculationResult) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	itemsSheet := "items"
	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Fulfillment Billing")
	_ = f.SetCellValue(summarySheet, "A3", "Company")
	_ = f.SetCellValue(summarySheet, "B3", companyName)
	_ = f.SetCellValue(summarySheet, "A4", "Period Start")
	_ = f.SetCellValue(summarySheet, "B4", calc.Period.Start)
	_ = f.SetCellValue(summarySheet, "A5", "Period End")
	_ = f.SetCellValue(summarySheet, "B5", calc.Period.End)
	_ = f.SetCellValue(summarySheet, "A6", "Status")
	_ = f.SetCellValue(summarySheet, "B6", b.Status)
	_ = f.SetCellValue(summarySheet, "A7", "Subtotal")
	_ = f.SetCellValue(summarySheet, "B7", calc.Subtotal)
	_ = f.SetCellValue(summarySheet, "A8", "Total")
	_ = f.SetCellValue(summarySheet, "B8", calc.Total)

	_ = f.SetCellValue(itemsSheet, "A1", "Service")
	_ = f.SetCellValue(itemsSheet, "B1", "Operation")
	_ = f.SetCellValue(itemsSheet, "C1", "Quantity")
	_ = f.SetCellValue(itemsSheet, "D1", "Unit")
	_ = f.SetCellValue(itemsSheet, "E1", "Price")
	_ = f.SetCellValue(itemsSheet, "F1", "Total")
	for i, item := range groupItems(calc.Items) {
		row := i + 2
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("A%d", row), item.ServiceName)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("B%d", row), item.OperationType)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("C%d", row), item.Quantity)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("D%d", row), item.Unit)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("E%d", row), item.Price)
		_ = f.SetCellValue(itemsSheet, fmt.Sprintf("F%d", row), item.Total)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildBillingCSV renders the itemized lines plus a trailing total row.
func BuildBillingCSV(b *billing.Billing, companyName string, calc billing.CalculationResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"company", "period_start", "period_end", "service", "operation", "quantity", "unit", "price", "total"}
	if err := writer.Write(header); err != nil {
		return nil, err
	}
	for _, item := range groupItems(calc.Items) {
		record := []string{
			companyName,
			calc.Period.Start,
			calc.Period.End,
			item.ServiceName,
			item.OperationType,
			formatFloat(item.Quantity),
			item.Unit,
			formatFloat(item.Price),
			formatFloat(item.Total),
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	total := []string{companyName, calc.Period.Start, calc.Period.End, "TOTAL", "", "", "", "", formatFloat(calc.Total)}
	if err := writer.Write(total); err != nil {
		return nil, err
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// groupItems orders lines FBS, FBO, then the rest, keeping the original
// order within each group.
func groupItems(items []billing.CalculationItem) []billing.CalculationItem {
	out := make([]billing.CalculationItem, 0, len(items))
	for _, op := range []string{billing.OperationFBS, billing.OperationFBO} {
		for _, item := range items {
			if item.OperationType == op {
				out = append(out, item)
			}
		}
	}
	for _, item := range items {
		if item.OperationType != billing.OperationFBS && item.OperationType != billing.OperationFBO {
			out = append(out, item)
		}
	}
	return out
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
