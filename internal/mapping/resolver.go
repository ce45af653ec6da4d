package mapping

import (
	"regexp"
	"sort"
	"strings"

	"freightbase/internal/headers"
	"freightbase/pkg/contracts/domain"
)

const (
	// AcceptThreshold is the minimum similarity score at which the top
	// candidate is accepted as the mapping. Below it the header stays
	// unmapped and the caller falls back to positional detection.
	AcceptThreshold = 0.55

	// NamedMatchConfidence is the floor assigned to a mapping found by
	// name. It always outranks a positional match.
	NamedMatchConfidence = 0.7

	// PositionalConfidence is assigned to last-resort matches on a single
	// spreadsheet-style letter or a known template column index.
	PositionalConfidence = 0.6

	maxCandidates = 3
)

// boost is a domain-signal regex that nudges a specific field's rating when
// the raw header carries carrier vocabulary that plain string similarity
// misses.
type boost struct {
	pattern *regexp.Regexp
	field   domain.CanonicalField
	amount  float64
}

var boosts = []boost{
	{regexp.MustCompile(`^v$|\bcolumn v\b|\bcol v\b`), domain.FieldColumnV, 0.25},
	{regexp.MustCompile(`\bltl\b|\br ?\+? ?l\b|\brl carriers\b|\bestes\b|\broadway\b`), domain.FieldLTLCost, 0.15},
	{regexp.MustCompile(`\btl\b|\btruckload\b|\btotal\b`), domain.FieldTLCost, 0.1},
	{regexp.MustCompile(`\bnet\b`), domain.FieldNetCharge, 0.15},
	{regexp.MustCompile(`\bgross\b`), domain.FieldGrossCharge, 0.15},
	{regexp.MustCompile(`\bfuel\b|\bfsc\b`), domain.FieldFuelSurcharge, 0.15},
	{regexp.MustCompile(`\bzip\b|\bpostal\b`), domain.FieldOriginZip, 0.05},
	{regexp.MustCompile(`\bups\b|\bparcel\b`), domain.FieldParcelCost, 0.1},
}

// Resolver scores raw headers against the canonical vocabulary. It holds no
// mutable state and is safe for concurrent use.
type Resolver struct{}

// NewResolver returns a fuzzy canonical-field resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Suggest maps a raw header to its best canonical field. The suggestion
// carries the top candidates so callers can audit near-misses; MappedTo is
// set only when the winner clears AcceptThreshold.
func (r *Resolver) Suggest(rawHeader string) domain.Suggestion {
	variants := headers.ExpandVariants(rawHeader)
	normalized := headers.Normalize(rawHeader)

	candidates := make([]domain.FieldCandidate, 0, len(fieldSynonyms))
	for _, field := range AllFields() {
		score := r.scoreField(field, variants)
		score += boostFor(field, normalized)
		if score > 1 {
			score = 1
		}
		if score > 0 {
			candidates = append(candidates, domain.FieldCandidate{Field: field, Score: score})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}

	suggestion := domain.Suggestion{Candidates: candidates, Source: "fuzzy"}
	if len(candidates) > 0 {
		suggestion.Score = candidates[0].Score
		if candidates[0].Score >= AcceptThreshold {
			suggestion.MappedTo = candidates[0].Field
		}
	}
	return suggestion
}

// scoreField returns the best similarity rating between any header variant
// and the field's name or any of its synonyms.
func (r *Resolver) scoreField(field domain.CanonicalField, variants []string) float64 {
	names := append([]string{fieldName(field)}, fieldSynonyms[field]...)
	best := 0.0
	for _, variant := range variants {
		for _, name := range names {
			if s := rate(variant, name); s > best {
				best = s
			}
		}
	}
	return best
}

// MatchPositional is the last-resort detector for spreadsheet-style
// positional headers: a header literally equal to a single letter, or a
// column sitting at a known template index (zero-based). It reports at
// PositionalConfidence, strictly below any named-pattern match.
func (r *Resolver) MatchPositional(rawHeader string, index int) (domain.CanonicalField, float64, bool) {
	normalized := headers.Normalize(rawHeader)

	switch normalized {
	case "v":
		return domain.FieldColumnV, PositionalConfidence, true
	case "h":
		return domain.FieldTLCost, PositionalConfidence, true
	}

	switch index {
	case 21: // spreadsheet column V
		return domain.FieldColumnV, PositionalConfidence, true
	case 7: // spreadsheet column H
		return domain.FieldTLCost, PositionalConfidence, true
	}

	return "", 0, false
}

func boostFor(field domain.CanonicalField, normalized string) float64 {
	total := 0.0
	for _, b := range boosts {
		if b.field == field && b.pattern.MatchString(normalized) {
			total += b.amount
		}
	}
	return total
}

// fieldName renders the canonical identifier as comparable text
// ("net_charge" -> "net charge").
func fieldName(field domain.CanonicalField) string {
	return strings.ReplaceAll(string(field), "_", " ")
}
