package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateAddMonths(t *testing.T) {
	tests := []struct {
		name   string
		from   Date
		months int
		anchor int
		want   Date
	}{
		{"plain", NewDate(2024, 3, 15), 1, 15, NewDate(2024, 4, 15)},
		{"leap february", NewDate(2024, 1, 31), 1, 31, NewDate(2024, 2, 29)},
		{"common february", NewDate(2023, 1, 31), 1, 31, NewDate(2023, 2, 28)},
		{"back to anchor", NewDate(2024, 2, 29), 1, 31, NewDate(2024, 3, 31)},
		{"thirty day month", NewDate(2024, 3, 31), 1, 31, NewDate(2024, 4, 30)},
		{"year rollover", NewDate(2024, 12, 10), 1, 10, NewDate(2025, 1, 10)},
		{"quarter rollover", NewDate(2024, 11, 30), 3, 30, NewDate(2025, 2, 28)},
		{"leap day yearly", NewDate(2024, 2, 29), 12, 29, NewDate(2025, 2, 28)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.from.AddMonths(tt.months, tt.anchor)
			assert.True(t, got.Equal(tt.want), "got %s want %s", got, tt.want)
		})
	}
}

func TestDateMonthBounds(t *testing.T) {
	d := NewDate(2024, 12, 17)
	assert.Equal(t, "2024-12-01", d.MonthStart().String())
	assert.Equal(t, "2025-01-01", d.NextMonthStart().String())
	assert.Equal(t, "2024-12", d.MonthKey())
	assert.Equal(t, 29, DaysInMonth(2024, 2))
	assert.Equal(t, 14, NewDate(2024, 1, 1).DaysUntil(NewDate(2024, 1, 15)))
	assert.Equal(t, -1, NewDate(2024, 1, 2).DaysUntil(NewDate(2024, 1, 1)))
}

func TestDateDaysUntilFarFuture(t *testing.T) {
	from := NewDate(2024, 1, 1)
	assert.Equal(t, 2913173, from.DaysUntil(NewDate(9999, 12, 31)))
	assert.Equal(t, -2913173, NewDate(9999, 12, 31).DaysUntil(from))
	assert.Equal(t, 366, NewDate(2000, 1, 1).DaysUntil(NewDate(2001, 1, 1)))
}

func TestDateJSON(t *testing.T) {
	var payload struct {
		Date Date  `json:"date"`
		End  *Date `json:"end"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2024-02-29","end":null}`), &payload))
	assert.True(t, payload.Date.Equal(NewDate(2024, 2, 29)))
	assert.Nil(t, payload.End)

	out, err := json.Marshal(payload.Date)
	require.NoError(t, err)
	assert.Equal(t, `"2024-02-29"`, string(out))

	assert.ErrorIs(t, json.Unmarshal([]byte(`{"date":"29/02/2024"}`), &payload), ErrInvalidDate)
}
