package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{Amount: amount("10"), Date: NewDate(2025, 1, 1), Kind: Expense}
	assert.NoError(t, good.Validate())

	tests := []struct {
		name string
		tx   Transaction
		want error
	}{
		{"zero amount", Transaction{Amount: decimal.Zero, Date: NewDate(2025, 1, 1), Kind: Expense}, ErrInvalidAmount},
		{"negative amount", Transaction{Amount: amount("-1"), Date: NewDate(2025, 1, 1), Kind: Income}, ErrInvalidAmount},
		{"zero date", Transaction{Amount: amount("1"), Kind: Income}, ErrInvalidDate},
		{"unknown kind", Transaction{Amount: amount("1"), Date: NewDate(2025, 1, 1), Kind: "transfer"}, ErrInvalidKind},
		{"above maximum", Transaction{Amount: amount("10000000000000.01"), Date: NewDate(2025, 1, 1), Kind: Income}, ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.tx.Validate(), tt.want)
		})
	}
}

func TestRecurringTransactionValidate(t *testing.T) {
	end := NewDate(2024, 1, 10)
	before := NewDate(2023, 12, 31)
	base := RecurringTransaction{
		Name:      "Rent",
		Amount:    amount("800"),
		Kind:      Expense,
		Frequency: Monthly,
		StartDate: NewDate(2024, 1, 1),
		EndDate:   &end,
	}
	assert.NoError(t, base.Validate())

	noName := base
	noName.Name = "  "
	assert.ErrorIs(t, noName.Validate(), ErrEmptyName)

	badFreq := base
	badFreq.Frequency = "hourly"
	assert.ErrorIs(t, badFreq.Validate(), ErrInvalidFrequency)

	badEnd := base
	badEnd.EndDate = &before
	assert.Error(t, badEnd.Validate())
}

func TestCategoryAccepts(t *testing.T) {
	tests := []struct {
		kind CategoryKind
		tx   TransactionKind
		want bool
	}{
		{CategoryIncome, Income, true},
		{CategoryIncome, Expense, false},
		{CategoryExpense, Expense, true},
		{CategoryExpense, Income, false},
		{CategoryBoth, Income, true},
		{CategoryBoth, Expense, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+string(tt.tx), func(t *testing.T) {
			assert.Equal(t, tt.want, Category{Kind: tt.kind}.Accepts(tt.tx))
		})
	}
}

func TestDefaultCategories(t *testing.T) {
	cats := DefaultCategories()
	assert.Len(t, cats, 13)

	var income, expense int
	names := map[string]bool{}
	for _, c := range cats {
		assert.NoError(t, c.Validate())
		assert.False(t, names[c.Name], "duplicate %s", c.Name)
		names[c.Name] = true
		switch c.Kind {
		case CategoryIncome:
			income++
		case CategoryExpense:
			expense++
		}
	}
	assert.Equal(t, 4, income)
	assert.Equal(t, 9, expense)
}

func TestRoles(t *testing.T) {
	assert.True(t, Can(RoleAdmin, CapRunScheduler))
	assert.False(t, Can(RoleUser, CapRunScheduler))
	assert.True(t, Can(RoleUser, CapManageOwnData))
	assert.False(t, Can("guest", CapManageOwnData))

	assert.NoError(t, Require(RoleAdmin, CapListUsers))
	assert.ErrorIs(t, Require(RoleUser, CapListUsers), ErrForbidden)
	assert.Error(t, Role("root").Validate())
}
