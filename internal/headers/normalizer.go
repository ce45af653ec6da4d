// Package headers canonicalizes raw spreadsheet column headers so that the
// same business column spelled differently by different carriers compares
// equal. Everything here is pure text transformation with no side effects.
package headers

import (
	"regexp"
	"strings"
)

// separatorPattern matches the characters vendors use interchangeably as
// word separators inside headers.
var separatorPattern = regexp.MustCompile(`[_\-./\\]+`)

// spacePattern collapses whitespace runs left behind after separator
// replacement.
var spacePattern = regexp.MustCompile(`\s+`)

// Normalize lowercases a header, collapses separators and whitespace runs to
// single spaces, and trims. It is idempotent: Normalize(Normalize(h)) ==
// Normalize(h) for any input.
func Normalize(header string) string {
	h := strings.ToLower(header)
	h = separatorPattern.ReplaceAllString(h, " ")
	h = spacePattern.ReplaceAllString(h, " ")
	return strings.TrimSpace(h)
}

// abbreviations maps tokens both directions so variant expansion works
// regardless of which form the vendor used.
var abbreviations = map[string]string{
	"qty":      "quantity",
	"quantity": "qty",
	"whse":     "warehouse",
	"whs":      "warehouse",
	"amt":      "amount",
	"chg":      "charge",
	"chrg":     "charge",
	"dest":     "destination",
	"orig":     "origin",
	"wt":       "weight",
	"pcs":      "pieces",
	"no":       "number",
	"num":      "number",
	"svc":      "service",
	"col":      "column",
}

// phraseRewrites are vendor-specific multi-token spellings that need to be
// rewritten as a unit rather than token by token.
var phraseRewrites = map[string]string{
	"net chg":               "net charge",
	"net chrg":              "net charge",
	"col v":                 "column v",
	"tl":                    "truckload",
	"truckload":             "tl",
	"ltl":                   "less than truckload",
	"less than truckload":   "ltl",
	"ups":                   "united parcel service",
	"united parcel service": "ups",
	"frt":                   "freight",
	"fsc":                   "fuel surcharge",
}

// ExpandVariants returns the normalized header plus every abbreviation
// expansion and vendor token rewrite that applies. The result always
// contains at least the normalized input. Deterministic and safe for
// concurrent use.
func ExpandVariants(header string) []string {
	base := Normalize(header)
	seen := map[string]bool{base: true}
	variants := []string{base}

	add := func(v string) {
		if v != "" && !seen[v] {
			seen[v] = true
			variants = append(variants, v)
		}
	}

	// Whole-phrase rewrites first so "net chg" becomes "net charge" before
	// token-level expansion sees the pieces. Matching is on token
	// boundaries; "tl" must not rewrite the inside of "ltl".
	for phrase, replacement := range phraseRewrites {
		if rewritten, ok := replacePhrase(base, phrase, replacement); ok {
			add(rewritten)
		}
	}

	// Token-level abbreviation swaps, one token at a time.
	tokens := strings.Fields(base)
	for i, tok := range tokens {
		if expansion, ok := abbreviations[tok]; ok {
			swapped := make([]string, len(tokens))
			copy(swapped, tokens)
			swapped[i] = expansion
			add(strings.Join(swapped, " "))
		}
	}

	// All-tokens-expanded form for headers abbreviating more than one word,
	// e.g. "dest whse qty".
	allSwapped := make([]string, len(tokens))
	changed := false
	for i, tok := range tokens {
		if expansion, ok := abbreviations[tok]; ok {
			allSwapped[i] = expansion
			changed = true
		} else {
			allSwapped[i] = tok
		}
	}
	if changed {
		add(strings.Join(allSwapped, " "))
	}

	return variants
}

// replacePhrase substitutes phrase for replacement on token boundaries only.
// The second return value reports whether a substitution happened.
func replacePhrase(s, phrase, replacement string) (string, bool) {
	padded := " " + s + " "
	needle := " " + phrase + " "
	if !strings.Contains(padded, needle) {
		return "", false
	}
	replaced := strings.ReplaceAll(padded, needle, " "+replacement+" ")
	return strings.TrimSpace(spacePattern.ReplaceAllString(replaced, " ")), true
}
