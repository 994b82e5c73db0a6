package report

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"fintrack/internal/core"
)

func sampleReport() Report {
	food := int64(2)
	salary := int64(1)
	txs := []core.Transaction{
		{ID: 3, Date: core.NewDate(2024, 3, 20), Kind: core.Expense, Description: "Supermarket, weekly", Amount: decimal.RequireFromString("150"), CategoryID: &food},
		{ID: 2, Date: core.NewDate(2024, 3, 5), Kind: core.Expense, Description: "", Amount: decimal.RequireFromString("400.25")},
		{ID: 1, Date: core.NewDate(2024, 3, 1), Kind: core.Income, Description: "March salary", Amount: decimal.RequireFromString("2000"), CategoryID: &salary},
	}
	names := map[int64]string{1: "Salario", 2: "Alimentación"}
	return Build("Transactions Report", time.Date(2024, 3, 31, 18, 30, 0, 0, time.UTC), txs, names)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"csv", CSV, false},
		{"XLSX", XLSX, false},
		{"excel", XLSX, false},
		{" pdf ", PDF, false},
		{"docx", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuild(t *testing.T) {
	r := sampleReport()
	require.Len(t, r.Lines, 3)
	assert.Equal(t, "Alimentación", r.Lines[0].Category)
	assert.Equal(t, "-", r.Lines[1].Category)
	assert.Equal(t, "2000.00", r.Summary.TotalIncome.StringFixed(2))
	assert.Equal(t, "550.25", r.Summary.TotalExpenses.StringFixed(2))
	assert.Equal(t, "1449.75", r.Summary.Balance.StringFixed(2))
	assert.Equal(t, "transactions_report_20240331_183000.pdf", r.Filename(PDF))
}

func TestRenderCSV(t *testing.T) {
	out, err := Render(CSV, sampleReport())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 7)

	assert.Equal(t, []string{"Date", "Type", "Description", "Amount", "Category"}, records[0])
	assert.Equal(t, []string{"20/03/2024", "Expense", "Supermarket, weekly", "150.00", "Alimentación"}, records[1])
	assert.Equal(t, []string{"05/03/2024", "Expense", "-", "400.25", "-"}, records[2])
	assert.Equal(t, []string{"", "", "TOTAL INCOME", "2000.00", ""}, records[4])
	assert.Equal(t, []string{"", "", "TOTAL EXPENSES", "550.25", ""}, records[5])
	assert.Equal(t, []string{"", "", "BALANCE", "1449.75", ""}, records[6])
}

func TestRenderXLSX(t *testing.T) {
	out, err := Render(XLSX, sampleReport())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(xlsxSheet)
	require.NoError(t, err)
	require.Len(t, rows, 7)
	assert.Equal(t, "Description", rows[0][2])
	assert.Equal(t, "March salary", rows[3][2])
	assert.Equal(t, "BALANCE", rows[6][2])

	raw, err := f.GetCellValue(xlsxSheet, "D7", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	balance, err := strconv.ParseFloat(raw, 64)
	require.NoError(t, err)
	assert.InDelta(t, 1449.75, balance, 0.0001)
}

func TestRenderPDF(t *testing.T) {
	out, err := Render(PDF, sampleReport())
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	for _, want := range []string{"TOTAL INCOME", "TOTAL EXPENSES", "BALANCE", "1449.75"} {
		assert.True(t, bytes.Contains(out, []byte(want)), "pdf should contain %q", want)
	}
}

func TestRenderEmptyReport(t *testing.T) {
	r := Build("Empty", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), nil, nil)
	for _, f := range []Format{CSV, XLSX, PDF} {
		t.Run(string(f), func(t *testing.T) {
			out, err := Render(f, r)
			require.NoError(t, err)
			assert.NotEmpty(t, out)
		})
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	_, err := Render(Format("odt"), sampleReport())
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
