package headers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"lowercase", "Net Charge", "net charge"},
		{"underscores", "net_charge", "net charge"},
		{"mixed separators", "Net-Charge__Amount", "net charge amount"},
		{"dots and slashes", "origin.city/state", "origin city state"},
		{"whitespace runs", "  Net   Charge  ", "net charge"},
		{"tabs", "Net\tCharge", "net charge"},
		{"empty", "", ""},
		{"only separators", "___--..", ""},
		{"single letter positional", "V", "v"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.header))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	headers := []string{
		"Net Charge", "net__charge", "ORIGIN-ZIP", "Col V", "  Gross   Chg ",
		"freight/cost", "", "V", "Total.Amount",
	}
	for _, h := range headers {
		once := Normalize(h)
		assert.Equal(t, once, Normalize(once), "normalize must be idempotent for %q", h)
	}
}

func TestExpandVariants(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    []string // variants that must be present
		notWant []string
	}{
		{
			name:   "net chg rewrites to net charge",
			header: "Net Chg",
			want:   []string{"net chg", "net charge"},
		},
		{
			name:   "col v rewrites to column v",
			header: "Col V",
			want:   []string{"col v", "column v"},
		},
		{
			name:   "tl expands to truckload",
			header: "TL Cost",
			want:   []string{"tl cost", "truckload cost"},
		},
		{
			name:    "ltl is not corrupted by tl rewrite",
			header:  "LTL Cost",
			want:    []string{"ltl cost", "less than truckload cost"},
			notWant: []string{"ltruckload cost"},
		},
		{
			name:   "qty expands to quantity",
			header: "Qty Shipped",
			want:   []string{"qty shipped", "quantity shipped"},
		},
		{
			name:   "multiple abbreviations expand together",
			header: "Dest Whse Qty",
			want:   []string{"dest whse qty", "destination warehouse quantity"},
		},
		{
			name:   "ups expands to united parcel service",
			header: "UPS Charges",
			want:   []string{"ups charges", "united parcel service charges"},
		},
		{
			name:   "plain header returns itself",
			header: "Carrier",
			want:   []string{"carrier"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpandVariants(tt.header)
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
			for _, nw := range tt.notWant {
				assert.NotContains(t, got, nw)
			}
		})
	}
}

func TestExpandVariantsDeterministic(t *testing.T) {
	first := ExpandVariants("Net Chg Amt")
	for i := 0; i < 10; i++ {
		assert.ElementsMatch(t, first, ExpandVariants("Net Chg Amt"))
	}
}
