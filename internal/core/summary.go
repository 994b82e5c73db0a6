package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// LedgerSummary totals a set of transactions.
type LedgerSummary struct {
	TotalIncome   decimal.Decimal `json:"total_income"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	Balance       decimal.Decimal `json:"balance"`
	Count         int             `json:"count"`
}

func Summarize(txs []Transaction) LedgerSummary {
	s := LedgerSummary{TotalIncome: decimal.Zero, TotalExpenses: decimal.Zero}
	for _, t := range txs {
		switch t.Kind {
		case Income:
			s.TotalIncome = s.TotalIncome.Add(t.Amount)
		case Expense:
			s.TotalExpenses = s.TotalExpenses.Add(t.Amount)
		}
	}
	s.Balance = s.TotalIncome.Sub(s.TotalExpenses)
	s.Count = len(txs)
	return s
}

// BudgetSummary totals the budgets of one month.
type BudgetSummary struct {
	Month          string          `json:"month"`
	TotalBudget    decimal.Decimal `json:"total_budget"`
	TotalSpent     decimal.Decimal `json:"total_spent"`
	TotalRemaining decimal.Decimal `json:"total_remaining"`
	Budgets        []BudgetStatus  `json:"budgets"`
}

func SummarizeBudgets(month Date, statuses []BudgetStatus) BudgetSummary {
	s := BudgetSummary{
		Month:       month.MonthKey(),
		TotalBudget: decimal.Zero,
		TotalSpent:  decimal.Zero,
		Budgets:     statuses,
	}
	for _, st := range statuses {
		s.TotalBudget = s.TotalBudget.Add(st.Budget.Amount)
		s.TotalSpent = s.TotalSpent.Add(st.Spent)
	}
	s.TotalRemaining = s.TotalBudget.Sub(s.TotalSpent)
	return s
}

// GoalSummary totals the active savings goals.
type GoalSummary struct {
	TotalTarget    decimal.Decimal `json:"total_target"`
	TotalCurrent   decimal.Decimal `json:"total_current"`
	TotalRemaining decimal.Decimal `json:"total_remaining"`
	Count          int             `json:"count"`
}

func SummarizeGoals(goals []SavingsGoal) GoalSummary {
	s := GoalSummary{TotalTarget: decimal.Zero, TotalCurrent: decimal.Zero}
	for _, g := range goals {
		s.TotalTarget = s.TotalTarget.Add(g.TargetAmount)
		s.TotalCurrent = s.TotalCurrent.Add(g.CurrentAmount)
	}
	s.TotalRemaining = s.TotalTarget.Sub(s.TotalCurrent)
	s.Count = len(goals)
	return s
}

// CategoryTotal is the spending of one category over a period.
type CategoryTotal struct {
	CategoryID int64           `json:"category_id"`
	Name       string          `json:"name"`
	Color      string          `json:"color"`
	Total      decimal.Decimal `json:"total"`
}

// TopExpenseCategories totals categorised expenses per category and returns
// the n largest, ties broken by name. Uncategorised expenses are left out.
func TopExpenseCategories(txs []Transaction, categories []Category, n int) []CategoryTotal {
	byID := make(map[int64]Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	totals := map[int64]decimal.Decimal{}
	for _, t := range txs {
		if t.Kind != Expense || t.CategoryID == nil {
			continue
		}
		if _, ok := byID[*t.CategoryID]; !ok {
			continue
		}
		totals[*t.CategoryID] = totals[*t.CategoryID].Add(t.Amount)
	}
	out := make([]CategoryTotal, 0, len(totals))
	for id, total := range totals {
		c := byID[id]
		out = append(out, CategoryTotal{CategoryID: id, Name: c.Name, Color: c.Color, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Total.Equal(out[j].Total) {
			return out[i].Total.GreaterThan(out[j].Total)
		}
		return out[i].Name < out[j].Name
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// MonthTotals is the income and expense of one calendar month.
type MonthTotals struct {
	Month    string          `json:"month"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

// MonthlyTotals buckets txs into the months calendar months ending with the
// month of last, oldest first. Months without transactions report zeros and
// transactions outside the window are ignored.
func MonthlyTotals(txs []Transaction, last Date, months int) []MonthTotals {
	if months <= 0 {
		return nil
	}
	first := last.MonthStart().AddMonths(-(months - 1), 1)
	out := make([]MonthTotals, months)
	index := make(map[string]int, months)
	for i, m := 0, first; i < months; i, m = i+1, m.NextMonthStart() {
		out[i] = MonthTotals{Month: m.MonthKey(), Income: decimal.Zero, Expenses: decimal.Zero}
		index[m.MonthKey()] = i
	}
	for _, t := range txs {
		i, ok := index[t.Date.MonthKey()]
		if !ok {
			continue
		}
		switch t.Kind {
		case Income:
			out[i].Income = out[i].Income.Add(t.Amount)
		case Expense:
			out[i].Expenses = out[i].Expenses.Add(t.Amount)
		}
	}
	return out
}
