package extraction

import (
	"strings"

	"freightbase/internal/headers"
)

// Ladder strategy names, recorded on the tab result so reviewers can see
// which rule produced a number.
const (
	StrategyExactHeader  = "exact_header"
	StrategyNetSubstring = "net_substring"
	StrategyGenericToken = "generic_cost_token"
	StrategyPositional   = "positional_fallback"
)

// Confidence by strategy. Named matches always outrank positional ones.
var strategyConfidence = map[string]float64{
	StrategyExactHeader:  0.95,
	StrategyNetSubstring: 0.85,
	StrategyGenericToken: 0.7,
	StrategyPositional:   0.6,
}

// candidate is one column the ladder proposes, with the validation floor
// and guards of the step that proposed it.
type candidate struct {
	Index        int
	Header       string
	Strategy     string
	Floor        float64
	MinValues    int
	MinMagnitude float64
}

// costTokens qualify a header for the generic step.
var costTokens = []string{"charge", "cost", "amount", "total", "freight", "revenue"}

// netCompanions are the tokens that, combined with "net", mark the
// authoritative net-charge column.
var netCompanions = []string{"charge", "cost", "amount"}

// buildLadder produces the ordered column candidates for one tab under one
// vendor profile. Candidates are evaluated in order and the first one that
// yields qualifying values wins. A header containing "gross" is never
// proposed after the exact step while any net or neutral alternative could
// still match.
func buildLadder(tab *Tab, profile vendorProfile) []candidate {
	normalized := make([]string, len(tab.Headers))
	for i, h := range tab.Headers {
		normalized[i] = headers.Normalize(h)
	}

	var out []candidate

	// Step 1: exact canonical monetary header for the vendor.
	exact := profile.ExactHeaders
	if strings.Contains(strings.ToLower(tab.Name), "total") && len(profile.TotalTabExact) > 0 {
		exact = profile.TotalTabExact
	}
	for _, want := range exact {
		for i, h := range normalized {
			if h == want {
				out = append(out, candidate{
					Index:     i,
					Header:    tab.Headers[i],
					Strategy:  StrategyExactHeader,
					Floor:     profile.ExactFloor,
					MinValues: 1,
				})
			}
		}
	}

	// Step 2: net-prioritized substring match, gross excluded.
	for i, h := range normalized {
		if strings.Contains(h, "gross") || !strings.Contains(h, "net") {
			continue
		}
		for _, companion := range netCompanions {
			if strings.Contains(h, companion) {
				out = append(out, candidate{
					Index:     i,
					Header:    tab.Headers[i],
					Strategy:  StrategyNetSubstring,
					Floor:     profile.NetFloor,
					MinValues: 1,
				})
				break
			}
		}
	}

	// Step 3: generic cost tokens, gross still excluded, guarded by
	// minimum-count and minimum-magnitude thresholds.
	for i, h := range normalized {
		if strings.Contains(h, "gross") {
			continue
		}
		for _, tok := range costTokens {
			if strings.Contains(h, tok) {
				out = append(out, candidate{
					Index:        i,
					Header:       tab.Headers[i],
					Strategy:     StrategyGenericToken,
					Floor:        profile.GenericFloor,
					MinValues:    profile.GenericMinValues,
					MinMagnitude: profile.GenericMinMagnitude,
				})
				break
			}
		}
	}

	// Step 4: positional fallback from the vendor's known template.
	if profile.FallbackIndex >= 0 && profile.FallbackIndex < len(tab.Headers) {
		out = append(out, candidate{
			Index:     profile.FallbackIndex,
			Header:    tab.Headers[profile.FallbackIndex],
			Strategy:  StrategyPositional,
			Floor:     profile.PositionalFloor,
			MinValues: 1,
		})
	}

	return dedupeCandidates(out)
}

// dedupeCandidates keeps the first (highest-priority) proposal per column.
func dedupeCandidates(in []candidate) []candidate {
	seen := make(map[int]bool, len(in))
	out := in[:0]
	for _, c := range in {
		if seen[c.Index] {
			continue
		}
		seen[c.Index] = true
		out = append(out, c)
	}
	return out
}
