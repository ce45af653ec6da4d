package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanNumeric(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1234.56", 1234.56, true},
		{"$1,234.56", 1234.56, true},
		{" $ 99 ", 99, true},
		{"USD 450.00", 450, true},
		{"(50.00)", -50, true},
		{"($1,200)", -1200, true},
		{"0", 0, true},
		{"", 0, false},
		{"   ", 0, false},
		{"-", 0, false},
		{"$", 0, false},
		{"n/a", 0, false},
		{"Net Charge", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := CleanNumeric(tt.in)
			assert.Equal(t, tt.ok, ok, "input %q", tt.in)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 0.001)
			}
		})
	}
}

func TestIsTotalKeywordRow(t *testing.T) {
	assert.True(t, isTotalKeywordRow([]string{"", "Total", "1234.00"}))
	assert.True(t, isTotalKeywordRow([]string{"Grand Total", "", "9999.99"}))
	assert.True(t, isTotalKeywordRow([]string{"Subtotal week 1", "500"}))
	assert.True(t, isTotalKeywordRow([]string{"SUM", "42"}))
	assert.False(t, isTotalKeywordRow([]string{"1Z999", "Memphis", "45.00"}))
	assert.False(t, isTotalKeywordRow([]string{"", "", ""}))
}

func TestIsDescriptiveHeader(t *testing.T) {
	assert.True(t, isDescriptiveHeader("origin city"))
	assert.True(t, isDescriptiveHeader("dest zip"))
	assert.True(t, isDescriptiveHeader("tracking number"))
	assert.True(t, isDescriptiveHeader("pro number"))
	assert.False(t, isDescriptiveHeader("net charge"))
	assert.False(t, isDescriptiveHeader("weight"))
}
