package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightbase/pkg/contracts/domain"
)

func TestBuildLadder_ExactHeaderFirst(t *testing.T) {
	tab := &Tab{
		Name:    "Invoices",
		Headers: []string{"Tracking Number", "Net Charge", "Gross Charge"},
		Rows:    [][]string{{"1Z1", "10.00", "12.00"}},
	}

	ladder := buildLadder(tab, profileFor(domain.VendorParcel))
	require.NotEmpty(t, ladder)
	assert.Equal(t, StrategyExactHeader, ladder[0].Strategy)
	assert.Equal(t, 1, ladder[0].Index)
}

func TestBuildLadder_GrossNeverProposed(t *testing.T) {
	tab := &Tab{
		Name:    "Charges",
		Headers: []string{"Shipment", "Gross Charge", "Gross Amount"},
		Rows:    [][]string{{"S1", "10.00", "12.00"}},
	}

	for _, cand := range buildLadder(tab, profileFor(domain.VendorParcel)) {
		assert.NotContains(t, cand.Header, "Gross")
	}
}

func TestBuildLadder_NetBeatsGeneric(t *testing.T) {
	tab := &Tab{
		Name:    "Data",
		Headers: []string{"Total Amount", "Net Cost"},
		Rows:    [][]string{{"100", "90"}},
	}

	ladder := buildLadder(tab, profileFor(domain.VendorOther))
	require.NotEmpty(t, ladder)
	assert.Equal(t, StrategyNetSubstring, ladder[0].Strategy)
	assert.Equal(t, 1, ladder[0].Index)
}

func TestBuildLadder_PositionalFallback(t *testing.T) {
	headers := make([]string, 25)
	for i := range headers {
		headers[i] = ""
	}
	headers[0] = "Shipment"
	tab := &Tab{Name: "Raw", Headers: headers, Rows: [][]string{make([]string, 25)}}

	ladder := buildLadder(tab, profileFor(domain.VendorLTL))
	require.NotEmpty(t, ladder)
	last := ladder[len(ladder)-1]
	assert.Equal(t, StrategyPositional, last.Strategy)
	assert.Equal(t, 21, last.Index)
}

func TestBuildLadder_TotalTabExactForTruckload(t *testing.T) {
	tab := &Tab{
		Name:    "Totals 2024",
		Headers: []string{"", "", "", "", "", "", "", "H"},
		Rows:    [][]string{{"", "", "", "", "", "", "", "4500"}},
	}

	ladder := buildLadder(tab, profileFor(domain.VendorTruckload))
	require.NotEmpty(t, ladder)
	assert.Equal(t, StrategyExactHeader, ladder[0].Strategy)
	assert.Equal(t, 7, ladder[0].Index)
}

func TestBuildLadder_DedupeKeepsHighestPriority(t *testing.T) {
	tab := &Tab{
		Name:    "Data",
		Headers: []string{"Net Charge"},
		Rows:    [][]string{{"10"}},
	}

	// "net charge" qualifies as exact, net-substring, and generic; only
	// the exact proposal survives.
	ladder := buildLadder(tab, profileFor(domain.VendorParcel))
	require.Len(t, ladder, 1)
	assert.Equal(t, StrategyExactHeader, ladder[0].Strategy)
}

func TestStrategyConfidenceOrdering(t *testing.T) {
	assert.Greater(t, strategyConfidence[StrategyExactHeader], strategyConfidence[StrategyNetSubstring])
	assert.Greater(t, strategyConfidence[StrategyNetSubstring], strategyConfidence[StrategyGenericToken])
	assert.Greater(t, strategyConfidence[StrategyGenericToken], strategyConfidence[StrategyPositional])
}
