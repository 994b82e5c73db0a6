// Package report renders a transaction listing as CSV, Excel or PDF.
package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

var ErrUnknownFormat = errors.New("unknown report format")

type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
	PDF  Format = "pdf"
)

// ParseFormat accepts the format names plus "excel" for XLSX.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return CSV, nil
	case "xlsx", "excel":
		return XLSX, nil
	case "pdf":
		return PDF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

func (f Format) ContentType() string {
	switch f {
	case CSV:
		return "text/csv; charset=utf-8"
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case PDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

func (f Format) Extension() string {
	return string(f)
}

var columns = []string{"Date", "Type", "Description", "Amount", "Category"}

const (
	labelIncome   = "TOTAL INCOME"
	labelExpenses = "TOTAL EXPENSES"
	labelBalance  = "BALANCE"
)

// Line is one transaction as it appears in a report.
type Line struct {
	Date        core.Date
	Kind        core.TransactionKind
	Description string
	Amount      decimal.Decimal
	Category    string
}

type Report struct {
	Title       string
	GeneratedAt time.Time
	Lines       []Line
	Summary     core.LedgerSummary
}

// Build assembles a report from a ledger listing. categories maps category
// ids to display names; unknown or missing categories render as "-".
func Build(title string, generatedAt time.Time, txs []core.Transaction, categories map[int64]string) Report {
	lines := make([]Line, 0, len(txs))
	for _, t := range txs {
		category := "-"
		if t.CategoryID != nil {
			if name, ok := categories[*t.CategoryID]; ok {
				category = name
			}
		}
		lines = append(lines, Line{
			Date:        t.Date,
			Kind:        t.Kind,
			Description: t.Description,
			Amount:      t.Amount,
			Category:    category,
		})
	}
	return Report{
		Title:       title,
		GeneratedAt: generatedAt,
		Lines:       lines,
		Summary:     core.Summarize(txs),
	}
}

// Filename returns a timestamped download name with the format's extension.
func (r Report) Filename(f Format) string {
	return fmt.Sprintf("transactions_report_%s.%s", r.GeneratedAt.Format("20060102_150405"), f.Extension())
}

func (r Report) totals() [][2]string {
	return [][2]string{
		{labelIncome, money(r.Summary.TotalIncome)},
		{labelExpenses, money(r.Summary.TotalExpenses)},
		{labelBalance, money(r.Summary.Balance)},
	}
}

// Render encodes r in format f.
func Render(f Format, r Report) ([]byte, error) {
	switch f {
	case CSV:
		return renderCSV(r)
	case XLSX:
		return renderXLSX(r)
	case PDF:
		return renderPDF(r)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
}

func kindLabel(k core.TransactionKind) string {
	switch k {
	case core.Income:
		return "Income"
	case core.Expense:
		return "Expense"
	}
	return string(k)
}

func dateLabel(d core.Date) string {
	return d.Format("02/01/2006")
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
