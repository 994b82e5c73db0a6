package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestAdvance(t *testing.T) {
	tests := []struct {
		name      string
		frequency core.Frequency
		start     string
		next      string
		today     string
		want      string
	}{
		{"daily", core.Daily, "2024-01-01", "2024-01-01", "2024-01-01", "2024-01-02"},
		{"weekly", core.Weekly, "2024-01-01", "2024-01-01", "2024-01-01", "2024-01-08"},
		{"biweekly", core.Biweekly, "2024-01-01", "2024-01-01", "2024-01-01", "2024-01-15"},
		{"monthly clamps to leap day", core.Monthly, "2024-01-31", "2024-01-31", "2024-01-31", "2024-02-29"},
		{"monthly returns to anchor", core.Monthly, "2024-01-31", "2024-02-29", "2024-02-29", "2024-03-31"},
		{"monthly clamps to thirty", core.Monthly, "2024-01-31", "2024-03-31", "2024-03-31", "2024-04-30"},
		{"monthly rolls the year", core.Monthly, "2023-12-15", "2023-12-15", "2023-12-15", "2024-01-15"},
		{"quarterly clamps", core.Quarterly, "2023-11-30", "2023-11-30", "2023-11-30", "2024-02-29"},
		{"yearly from leap day", core.Yearly, "2024-02-29", "2024-02-29", "2024-02-29", "2025-02-28"},
		{"future schedule keeps base", core.Weekly, "2024-01-01", "2024-01-08", "2024-01-03", "2024-01-15"},
		{"late schedule restarts from today", core.Weekly, "2024-01-01", "2024-01-01", "2024-01-20", "2024-01-27"},
		{"late monthly keeps anchor", core.Monthly, "2024-01-31", "2024-01-31", "2024-03-15", "2024-04-30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := core.RecurringTransaction{Frequency: tt.frequency, StartDate: date(tt.start), NextOccurrence: date(tt.next)}
			got, err := Advance(r, date(tt.today))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())

			again, err := Advance(r, date(tt.today))
			require.NoError(t, err)
			assert.True(t, got.Equal(again))
		})
	}
}

func TestAdvanceUnknownFrequency(t *testing.T) {
	r := core.RecurringTransaction{Frequency: "hourly", StartDate: date("2024-01-01"), NextOccurrence: date("2024-01-01")}
	_, err := Advance(r, date("2024-01-01"))
	assert.ErrorIs(t, err, core.ErrInvalidFrequency)
}

func TestIsDue(t *testing.T) {
	today := date("2024-05-10")
	tests := []struct {
		name   string
		active bool
		next   string
		want   bool
	}{
		{"due today", true, "2024-05-10", true},
		{"overdue", true, "2024-05-01", true},
		{"future", true, "2024-05-11", false},
		{"inactive", false, "2024-05-01", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := core.RecurringTransaction{IsActive: tt.active, NextOccurrence: date(tt.next)}
			assert.Equal(t, tt.want, IsDue(r, today))
		})
	}
}

func TestRegisterStepper(t *testing.T) {
	const tenDays core.Frequency = "every-ten-days"
	RegisterStepper(tenDays, DayStepper(10))
	t.Cleanup(func() { delete(scheduleSteppers, tenDays) })

	s, err := GetStepper(tenDays)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-11", s.Step(date("2024-01-01"), 1).String())
}
