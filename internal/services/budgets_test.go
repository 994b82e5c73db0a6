package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestBudgetOverspent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, date("2024-03-20"))
	u := f.user(t, "alice")
	food := f.category(t, u.ID, "Food", core.CategoryExpense)
	b, err := f.budgets.Create(ctx, u.ID, core.Budget{CategoryID: food.ID, Amount: dec("500"), Month: date("2024-03-11")})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", b.Month.String())

	for _, tx := range []core.Transaction{
		{Amount: dec("150"), Date: date("2024-03-01"), Kind: core.Expense, CategoryID: &food.ID},
		{Amount: dec("400"), Date: date("2024-03-20"), Kind: core.Expense, CategoryID: &food.ID},
		{Amount: dec("90"), Date: date("2024-02-29"), Kind: core.Expense, CategoryID: &food.ID},
		{Amount: dec("30"), Date: date("2024-03-05"), Kind: core.Expense},
	} {
		_, err := f.transactions.Create(ctx, u.ID, tx)
		require.NoError(t, err)
	}

	st, err := f.budgets.Get(ctx, u.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, st.Spent.Equal(dec("550")), st.Spent.String())
	assert.True(t, st.Remaining.Equal(dec("-50")), st.Remaining.String())
	assert.True(t, st.PercentageUsed.Equal(dec("100")), st.PercentageUsed.String())
	assert.True(t, st.IsOverBudget)
}

func TestBudgetWithoutSpending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, date("2024-03-20"))
	u := f.user(t, "alice")
	food := f.category(t, u.ID, "Food", core.CategoryExpense)
	b, err := f.budgets.Create(ctx, u.ID, core.Budget{CategoryID: food.ID, Amount: dec("200"), Month: date("2024-03-01")})
	require.NoError(t, err)

	st, err := f.budgets.Status(ctx, b)
	require.NoError(t, err)
	assert.True(t, st.Spent.IsZero())
	assert.True(t, st.PercentageUsed.IsZero())
	assert.False(t, st.IsOverBudget)
}

func TestBudgetRequiresExpenseCategory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, date("2024-03-20"))
	u := f.user(t, "alice")
	salary := f.category(t, u.ID, "Salary", core.CategoryIncome)

	_, err := f.budgets.Create(ctx, u.ID, core.Budget{CategoryID: salary.ID, Amount: dec("200"), Month: date("2024-03-01")})
	assert.ErrorIs(t, err, core.ErrCategoryKindMismatch)

	_, err = f.budgets.Create(ctx, u.ID, core.Budget{CategoryID: 999, Amount: dec("200"), Month: date("2024-03-01")})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestCurrentBudgetSummary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, date("2024-03-20"))
	u := f.user(t, "alice")
	food := f.category(t, u.ID, "Food", core.CategoryExpense)
	fun := f.category(t, u.ID, "Fun", core.CategoryExpense)
	for _, b := range []core.Budget{
		{CategoryID: food.ID, Amount: dec("300"), Month: date("2024-03-01")},
		{CategoryID: fun.ID, Amount: dec("100"), Month: date("2024-03-01")},
		{CategoryID: food.ID, Amount: dec("999"), Month: date("2024-02-01")},
	} {
		_, err := f.budgets.Create(ctx, u.ID, b)
		require.NoError(t, err)
	}
	_, err := f.transactions.Create(ctx, u.ID, core.Transaction{Amount: dec("120"), Date: date("2024-03-02"), Kind: core.Expense, CategoryID: &fun.ID})
	require.NoError(t, err)

	summary, err := f.budgets.Current(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-03", summary.Month)
	assert.Len(t, summary.Budgets, 2)
	assert.True(t, summary.TotalBudget.Equal(dec("400")))
	assert.True(t, summary.TotalSpent.Equal(dec("120")))
	assert.True(t, summary.TotalRemaining.Equal(dec("280")))
}
