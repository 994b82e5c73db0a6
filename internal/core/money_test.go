package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1.00", true},
		{"1.0", "1.00", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"1.005", "1.01", true}, // half-up rounding
		{"12.344", "12.34", true},
		{" 2.50 ", "2.50", true},
		{"-1", "", false},
		{"+1", "", false},
		{"1e3", "", false},
		{"0", "", false},
		{"0.004", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
		{"10000000000000", "10000000000000.00", true},
		{"10000000000000.01", "", false},
		{"184467440737095516.17", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseAmount(tc.in)
			if !tc.ok {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.out, FormatAmount(got))
		})
	}
}

func TestCentsRoundTrip(t *testing.T) {
	for _, cents := range []int64{1, 99, 100, 12345, 999999999, 1_000_000_000_000_000} {
		got, err := ToCents(FromCents(cents))
		require.NoError(t, err)
		assert.Equal(t, cents, got)
	}
	got, err := ToCents(decimal.RequireFromString("12.345"))
	require.NoError(t, err)
	assert.Equal(t, int64(1235), got)
	assert.True(t, FromCents(1050).Equal(decimal.RequireFromString("10.5")))
}

func TestToCentsRejectsOverflow(t *testing.T) {
	for _, in := range []string{"184467440737095516.17", "92233720368547758.08", "-92233720368547758.09"} {
		_, err := ToCents(decimal.RequireFromString(in))
		assert.ErrorIs(t, err, ErrInvalidAmount, in)
	}
	largest, err := ToCents(decimal.RequireFromString("92233720368547758.07"))
	require.NoError(t, err)
	assert.Equal(t, int64(9223372036854775807), largest)
}
