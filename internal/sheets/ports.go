// Package sheets mirrors ledger rows into an external spreadsheet.
package sheets

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Header is the column layout of a ledger sheet.
var Header = []string{"Date", "Type", "Description", "Amount", "Category", "Transaction", "User"}

// Row is one ledger line.
type Row struct {
	TransactionID int64
	UserID        int64
	Date          core.Date
	Kind          core.TransactionKind
	Description   string
	Amount        decimal.Decimal
	CategoryID    *int64
}

func RowFromTransaction(t core.Transaction) Row {
	return Row{
		TransactionID: t.ID,
		UserID:        t.UserID,
		Date:          t.Date,
		Kind:          t.Kind,
		Description:   t.Description,
		Amount:        t.Amount,
		CategoryID:    t.CategoryID,
	}
}

// Values renders the row in Header order.
func (r Row) Values() []any {
	category := ""
	if r.CategoryID != nil {
		category = strconv.FormatInt(*r.CategoryID, 10)
	}
	return []any{
		r.Date.String(),
		string(r.Kind),
		r.Description,
		r.Amount.StringFixed(2),
		category,
		strconv.FormatInt(r.TransactionID, 10),
		strconv.FormatInt(r.UserID, 10),
	}
}

// Ports for outbound adapters.
type (
	LedgerWriter interface {
		AppendRow(ctx context.Context, r Row) (rowRef string, err error)
	}

	// LedgerIndex answers whether a transaction has already been written, so
	// redelivered events do not produce duplicate rows.
	LedgerIndex interface {
		HasTransaction(ctx context.Context, r Row) (bool, error)
	}
)
