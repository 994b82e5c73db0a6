package core

import "github.com/shopspring/decimal"

// GoalProgress holds the values derived from a savings goal on a given day.
type GoalProgress struct {
	PercentageCompleted decimal.Decimal `json:"percentage_completed"`
	RemainingAmount     decimal.Decimal `json:"remaining_amount"`
	DaysRemaining       int             `json:"days_remaining"`
	DailySavingNeeded   decimal.Decimal `json:"daily_saving_needed"`
}

func (g SavingsGoal) Progress(today Date) GoalProgress {
	remaining := decimal.Max(decimal.Zero, g.TargetAmount.Sub(g.CurrentAmount))
	days := today.DaysUntil(g.TargetDate)
	if days < 0 {
		days = 0
	}
	daily := remaining
	if days > 0 {
		daily = remaining.Div(decimal.NewFromInt(int64(days)))
	}
	return GoalProgress{
		PercentageCompleted: Percentage(g.CurrentAmount, g.TargetAmount),
		RemainingAmount:     remaining,
		DaysRemaining:       days,
		DailySavingNeeded:   daily,
	}
}

// PercentageCSS renders the completed percentage for a progress bar width.
func (p GoalProgress) PercentageCSS() string {
	return p.PercentageCompleted.StringFixed(1) + "%"
}
