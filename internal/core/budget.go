package core

import "github.com/shopspring/decimal"

var maxPercentage = decimal.NewFromInt(100)

// BudgetStatus is a budget together with its spending derived from the ledger.
type BudgetStatus struct {
	Budget         Budget          `json:"budget"`
	Spent          decimal.Decimal `json:"spent"`
	Remaining      decimal.Decimal `json:"remaining"`
	PercentageUsed decimal.Decimal `json:"percentage_used"`
	IsOverBudget   bool            `json:"is_over_budget"`
}

// NewBudgetStatus derives the status of b given what was spent in its month.
// Remaining goes negative once spending passes the budget.
func NewBudgetStatus(b Budget, spent decimal.Decimal) BudgetStatus {
	return BudgetStatus{
		Budget:         b,
		Spent:          spent,
		Remaining:      b.Amount.Sub(spent),
		PercentageUsed: Percentage(spent, b.Amount),
		IsOverBudget:   spent.GreaterThan(b.Amount),
	}
}

// PercentageCSS renders the used percentage for a progress bar width.
func (s BudgetStatus) PercentageCSS() string {
	return s.PercentageUsed.StringFixed(1) + "%"
}

// Percentage returns part/whole*100 capped at 100. A zero whole yields zero.
func Percentage(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	p := part.Div(whole).Mul(maxPercentage).Round(2)
	return decimal.Min(p, maxPercentage)
}
