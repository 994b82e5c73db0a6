package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Transactions"

var xlsxWidths = map[string]float64{"A": 12, "B": 12, "C": 40, "D": 15, "E": 20}

func renderXLSX(r Report) (out []byte, err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close workbook: %w", cerr)
		}
	}()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}
	for col, width := range xlsxWidths {
		if err := f.SetColWidth(xlsxSheet, col, col, width); err != nil {
			return nil, fmt.Errorf("set width of %s: %w", col, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#808080"}},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	amount, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return nil, fmt.Errorf("amount style: %w", err)
	}
	total, err := f.NewStyle(&excelize.Style{NumFmt: 2, Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("total style: %w", err)
	}

	headerRow := make([]any, len(columns))
	for i, c := range columns {
		headerRow[i] = c
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &headerRow); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if err := f.SetCellStyle(xlsxSheet, "A1", "E1", header); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	row := 2
	for _, l := range r.Lines {
		values := []any{
			dateLabel(l.Date),
			kindLabel(l.Kind),
			orDash(l.Description),
			l.Amount.InexactFloat64(),
			l.Category,
		}
		if err := writeXLSXRow(f, row, values, amount); err != nil {
			return nil, err
		}
		row++
	}

	totals := []struct {
		label string
		value float64
	}{
		{labelIncome, r.Summary.TotalIncome.InexactFloat64()},
		{labelExpenses, r.Summary.TotalExpenses.InexactFloat64()},
		{labelBalance, r.Summary.Balance.InexactFloat64()},
	}
	for _, t := range totals {
		if err := writeXLSXRow(f, row, []any{"", "", t.label, t.value, ""}, total); err != nil {
			return nil, err
		}
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeXLSXRow(f *excelize.File, row int, values []any, amountStyle int) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(xlsxSheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	amountCell := fmt.Sprintf("D%d", row)
	if err := f.SetCellStyle(xlsxSheet, amountCell, amountCell, amountStyle); err != nil {
		return fmt.Errorf("style row %d: %w", row, err)
	}
	return nil
}
