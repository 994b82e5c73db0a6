package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, date("2024-03-31"))
	u := f.user(t, "alice")
	food := f.category(t, u.ID, "Food", core.CategoryExpense)

	_, err := f.transactions.Create(ctx, u.ID, core.Transaction{Amount: dec("2000"), Date: date("2024-02-01"), Kind: core.Income})
	require.NoError(t, err)
	for day := 1; day <= 12; day++ {
		_, err := f.transactions.Create(ctx, u.ID, core.Transaction{
			Amount: dec("10"), Date: core.NewDate(2024, 3, day), Kind: core.Expense, CategoryID: &food.ID,
		})
		require.NoError(t, err)
	}
	_, err = f.budgets.Create(ctx, u.ID, core.Budget{CategoryID: food.ID, Amount: dec("100"), Month: date("2024-03-01")})
	require.NoError(t, err)
	for i := 0; i < 7; i++ {
		_, err := f.savings.Create(ctx, u.ID, core.SavingsGoal{
			Name: fmt.Sprintf("Goal %d", i), TargetAmount: dec("100"), TargetDate: core.NewDate(2025, 1, 10-i),
		})
		require.NoError(t, err)
	}
	_, err = f.engine.Create(ctx, u.ID, core.RecurringTransaction{
		Name: "Rent", Amount: dec("900"), Kind: core.Expense, Frequency: core.Monthly, StartDate: date("2024-04-01"),
	})
	require.NoError(t, err)

	stats, err := f.stats.Dashboard(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, stats.AllTime.Balance.Equal(dec("1880")), stats.AllTime.Balance.String())
	assert.True(t, stats.CurrentMonth.TotalExpenses.Equal(dec("120")))
	assert.True(t, stats.CurrentMonth.TotalIncome.IsZero())
	assert.Len(t, stats.RecentTransactions, 10)
	assert.Equal(t, "2024-03-12", stats.RecentTransactions[0].Date.String())
	require.Len(t, stats.Budgets.Budgets, 1)
	assert.True(t, stats.Budgets.Budgets[0].IsOverBudget)
	require.Len(t, stats.ActiveGoals, 5)
	assert.Equal(t, "2025-01-04", stats.ActiveGoals[0].TargetDate.String())
	assert.Len(t, stats.UpcomingRecurring, 1)

	require.Len(t, stats.ByCategory, 1)
	assert.Equal(t, "Food", stats.ByCategory[0].Name)
	assert.Equal(t, food.Color, stats.ByCategory[0].Color)
	assert.True(t, stats.ByCategory[0].Total.Equal(dec("120")))

	require.Len(t, stats.Monthly, 6)
	assert.Equal(t, "2023-10", stats.Monthly[0].Month)
	assert.Equal(t, "2024-02", stats.Monthly[4].Month)
	assert.True(t, stats.Monthly[4].Income.Equal(dec("2000")))
	assert.True(t, stats.Monthly[5].Expenses.Equal(dec("120")))
}

func TestDashboardTopCategories(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, date("2024-03-31"))
	u := f.user(t, "alice")
	for i := 1; i <= 12; i++ {
		c := f.category(t, u.ID, fmt.Sprintf("Cat %02d", i), core.CategoryExpense)
		_, err := f.transactions.Create(ctx, u.ID, core.Transaction{
			Amount: dec(fmt.Sprint(i)), Date: date("2024-03-05"), Kind: core.Expense, CategoryID: &c.ID,
		})
		require.NoError(t, err)
	}
	// last month is outside the current month
	old := f.category(t, u.ID, "Old", core.CategoryExpense)
	_, err := f.transactions.Create(ctx, u.ID, core.Transaction{Amount: dec("999"), Date: date("2024-02-28"), Kind: core.Expense, CategoryID: &old.ID})
	require.NoError(t, err)

	stats, err := f.stats.Dashboard(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, stats.ByCategory, 10)
	assert.Equal(t, "Cat 12", stats.ByCategory[0].Name)
	assert.Equal(t, "Cat 03", stats.ByCategory[9].Name)
}

func TestTrends(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, date("2024-05-15"))
	u := f.user(t, "alice")
	_, err := f.transactions.Create(ctx, u.ID, core.Transaction{Amount: dec("50"), Date: date("2023-06-10"), Kind: core.Income})
	require.NoError(t, err)
	_, err = f.transactions.Create(ctx, u.ID, core.Transaction{Amount: dec("20"), Date: date("2024-05-01"), Kind: core.Expense})
	require.NoError(t, err)

	got, err := f.stats.Trends(ctx, u.ID, "", 3)
	require.NoError(t, err)
	assert.Equal(t, "month", got.Period)
	assert.Equal(t, "2024-03-01", got.From.String())
	assert.Equal(t, "2024-06-01", got.To.String())
	require.Len(t, got.Monthly, 3)
	assert.True(t, got.Monthly[2].Expenses.Equal(dec("20")))

	got, err = f.stats.Trends(ctx, u.ID, "year", 1)
	require.NoError(t, err)
	require.Len(t, got.Monthly, 12)
	assert.Equal(t, "2023-06", got.Monthly[0].Month)
	assert.True(t, got.Monthly[0].Income.Equal(dec("50")))

	for _, tc := range []struct {
		period string
		count  int
	}{{"week", 3}, {"month", 0}, {"month", 121}, {"year", 11}} {
		_, err := f.stats.Trends(ctx, u.ID, tc.period, tc.count)
		assert.ErrorIs(t, err, core.ErrInvalid, "%s %d", tc.period, tc.count)
	}
}
