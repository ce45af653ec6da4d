package extraction

import (
	"math"
	"strconv"
	"strings"
)

// currencyReplacer strips the decorations carriers wrap around money values.
var currencyReplacer = strings.NewReplacer(
	"$", "",
	",", "",
	" ", "",
	" ", "",
	"USD", "",
	"usd", "",
)

// CleanNumeric parses a cell as a monetary amount. Currency symbols,
// thousands separators, and whitespace are stripped; accounting-style
// parentheses read as negative. Returns false for empty, non-numeric, and
// non-finite values.
func CleanNumeric(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = currencyReplacer.Replace(s)
	if s == "" || s == "-" {
		return 0, false
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	if negative {
		value = -value
	}
	return value, true
}

// totalKeywords flag rows that are pre-computed aggregates rather than
// individual transactions. Substring matching: excluding a stray noise row
// is preferred over double counting a grand total.
var totalKeywords = []string{"total", "subtotal", "sub total", "grand total", "sum"}

// isTotalKeywordRow reports whether any cell of the row carries a
// total/subtotal/sum keyword.
func isTotalKeywordRow(row []string) bool {
	for _, c := range row {
		lower := strings.ToLower(strings.TrimSpace(c))
		if lower == "" {
			continue
		}
		for _, kw := range totalKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

// descriptiveTokens are the raw-header signals that a column describes an
// individual shipment. A row with money but no value in any such column is
// treated as a pre-aggregated total line.
var descriptiveTokens = []string{
	"origin", "dest", "city", "state", "zip", "carrier", "service",
	"tracking", "pro", "consignee", "shipper",
}

// isDescriptiveHeader reports whether a normalized header names a shipment
// descriptor.
func isDescriptiveHeader(normalized string) bool {
	for _, tok := range descriptiveTokens {
		if strings.Contains(normalized, tok) {
			return true
		}
	}
	return false
}
