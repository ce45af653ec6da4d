package mapping

import "strings"

// jaroWinkler computes the Jaro-Winkler similarity of two strings in [0,1].
// The Winkler prefix bonus rewards headers that share a leading run with the
// field name, which is the common case for carrier column variants
// ("net charge" vs "net charge amount").
func jaroWinkler(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	j := jaro(ra, rb)
	if j == 0 {
		return 0
	}

	prefix := 0
	for i := 0; i < len(ra) && i < len(rb) && i < 4; i++ {
		if ra[i] != rb[i] {
			break
		}
		prefix++
	}

	const scaling = 0.1
	return j + float64(prefix)*scaling*(1-j)
}

// jaro works on runes so accented carrier text compares by character, not
// by UTF-8 byte.
func jaro(a, b []rune) float64 {
	la, lb := len(a), len(b)
	if la == lb && string(a) == string(b) {
		return 1
	}
	if la == 0 || lb == 0 {
		return 0
	}

	window := max(la, lb)/2 - 1
	if window < 0 {
		window = 0
	}

	matchedA := make([]bool, la)
	matchedB := make([]bool, lb)

	matches := 0
	for i := 0; i < la; i++ {
		lo := max(0, i-window)
		hi := min(lb-1, i+window)
		for j := lo; j <= hi; j++ {
			if matchedB[j] || a[i] != b[j] {
				continue
			}
			matchedA[i] = true
			matchedB[j] = true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0
	}

	transpositions := 0
	j := 0
	for i := 0; i < la; i++ {
		if !matchedA[i] {
			continue
		}
		for !matchedB[j] {
			j++
		}
		if a[i] != b[j] {
			transpositions++
		}
		j++
	}

	m := float64(matches)
	return (m/float64(la) + m/float64(lb) + (m-float64(transpositions)/2)/m) / 3
}

// tokenOverlap scores two space-separated strings by shared tokens. It
// catches reordered headers ("charge net" vs "net charge") that character
// alignment undervalues.
func tokenOverlap(a, b string) float64 {
	ta := strings.Fields(a)
	tb := strings.Fields(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	set := make(map[string]bool, len(ta))
	for _, tok := range ta {
		set[tok] = true
	}
	shared := 0
	for _, tok := range tb {
		if set[tok] {
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(ta)+len(tb))
}

// rate combines character-level and token-level similarity, keeping whichever
// view of the pair is stronger.
func rate(a, b string) float64 {
	jw := jaroWinkler(a, b)
	if to := tokenOverlap(a, b); to > jw {
		return to
	}
	return jw
}
