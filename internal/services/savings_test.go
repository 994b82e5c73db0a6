package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestContributeProgress(t *testing.T) {
	ctx := context.Background()
	today := date("2024-06-01")
	f := newFixture(t, today)
	u := f.user(t, "alice")

	g, err := f.savings.Create(ctx, u.ID, core.SavingsGoal{Name: "Laptop", TargetAmount: dec("1000"), TargetDate: today.AddDays(30)})
	require.NoError(t, err)
	assert.Equal(t, core.DefaultGoalIcon, g.Icon)

	_, err = f.savings.Contribute(ctx, u.ID, g.ID, dec("250"))
	require.NoError(t, err)

	f.clock.Advance(1)
	got, err := f.savings.Get(ctx, u.ID, g.ID)
	require.NoError(t, err)
	assert.True(t, got.Progress.PercentageCompleted.Equal(dec("25")), got.Progress.PercentageCompleted.String())
	assert.True(t, got.Progress.RemainingAmount.Equal(dec("750")))
	assert.Equal(t, 29, got.Progress.DaysRemaining)
	want := decimal.NewFromInt(750).Div(decimal.NewFromInt(29))
	assert.True(t, got.Progress.DailySavingNeeded.Equal(want), got.Progress.DailySavingNeeded.String())
}

func TestContributeReachesTarget(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, date("2024-06-01"))
	u := f.user(t, "alice")
	g, err := f.savings.Create(ctx, u.ID, core.SavingsGoal{Name: "Trip", TargetAmount: dec("300"), TargetDate: date("2024-12-01")})
	require.NoError(t, err)

	got, err := f.savings.Contribute(ctx, u.ID, g.ID, dec("299.99"))
	require.NoError(t, err)
	assert.False(t, got.IsAchieved)

	got, err = f.savings.Contribute(ctx, u.ID, g.ID, dec("50"))
	require.NoError(t, err)
	assert.True(t, got.IsAchieved)
	assert.True(t, got.CurrentAmount.Equal(dec("300")), got.CurrentAmount.String())
	assert.True(t, got.Progress.RemainingAmount.IsZero())

	active, summary, err := f.savings.Active(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, active)
	assert.Zero(t, summary.Count)
}

func TestContributeRejectsNonPositive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, date("2024-06-01"))
	u := f.user(t, "alice")
	g, err := f.savings.Create(ctx, u.ID, core.SavingsGoal{Name: "Trip", TargetAmount: dec("300"), TargetDate: date("2024-12-01")})
	require.NoError(t, err)

	for _, amount := range []string{"0", "-5", "0.001", "10000000000000.01"} {
		t.Run(amount, func(t *testing.T) {
			_, err := f.savings.Contribute(ctx, u.ID, g.ID, dec(amount))
			assert.ErrorIs(t, err, core.ErrInvalidAmount)
		})
	}

	got, err := f.savings.Get(ctx, u.ID, g.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentAmount.IsZero())
}

func TestGoalPastTargetDate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, date("2024-06-01"))
	u := f.user(t, "alice")
	g, err := f.savings.Create(ctx, u.ID, core.SavingsGoal{Name: "Late", TargetAmount: dec("100"), CurrentAmount: dec("40"), TargetDate: date("2024-05-01")})
	require.NoError(t, err)
	assert.Zero(t, g.Progress.DaysRemaining)
	assert.True(t, g.Progress.DailySavingNeeded.Equal(dec("60")))
}

func TestUpdateGoal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, date("2024-06-01"))
	u := f.user(t, "alice")
	g, err := f.savings.Create(ctx, u.ID, core.SavingsGoal{Name: "Trip", TargetAmount: dec("300"), CurrentAmount: dec("120"), TargetDate: date("2024-12-01")})
	require.NoError(t, err)

	edit := g.SavingsGoal
	edit.Name = "  Lisbon trip "
	edit.TargetAmount = dec("400")
	edit.CurrentAmount = dec("999")
	edit.Icon = ""
	updated, err := f.savings.Update(ctx, u.ID, edit)
	require.NoError(t, err)
	assert.Equal(t, "Lisbon trip", updated.Name)
	assert.True(t, updated.CurrentAmount.Equal(dec("120")), updated.CurrentAmount.String())
	assert.Equal(t, core.DefaultGoalIcon, updated.Icon)
	assert.False(t, updated.IsAchieved)

	edit.TargetAmount = dec("100")
	updated, err = f.savings.Update(ctx, u.ID, edit)
	require.NoError(t, err)
	assert.True(t, updated.IsAchieved)
	assert.True(t, updated.CurrentAmount.Equal(dec("100")), updated.CurrentAmount.String())
	assert.True(t, updated.Progress.RemainingAmount.IsZero())

	edit.TargetAmount = dec("0")
	_, err = f.savings.Update(ctx, u.ID, edit)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	other := f.user(t, "bob")
	_, err = f.savings.Update(ctx, other.ID, edit)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
