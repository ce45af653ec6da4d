package exporter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightbase/pkg/contracts/domain"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	// strip UTF-8 BOM
	content := strings.TrimPrefix(string(raw), "\xef\xbb\xbf")
	rows, err := csv.NewReader(strings.NewReader(content)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestExportSummary(t *testing.T) {
	dir := t.TempDir()
	e := NewBaselineExporter(dir)

	summary := &domain.BaselineSummary{
		UPSParcelCosts: 2930000,
		TLFreightCosts: 1190000,
		RLLTLCosts:     2440000,
		TotalVerified:  6560000,
		Confidence:     0.82,
		Quality:        domain.QualityVerified,
		GeneratedAt:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	require.NoError(t, e.ExportSummary(summary, "baseline_summary.csv"))

	rows := readCSV(t, filepath.Join(dir, "baseline_summary.csv"))
	require.Len(t, rows, 6)
	assert.Equal(t, []string{"category", "amount", "confidence", "quality", "generated_at"}, rows[0])
	assert.Equal(t, domain.CategoryParcel, rows[1][0])
	assert.Equal(t, "2930000.00", rows[1][1])
	assert.Equal(t, "total_verified", rows[5][0])
	assert.Equal(t, "6560000.00", rows[5][1])
}

func TestExportFileBreakdown(t *testing.T) {
	dir := t.TempDir()
	e := NewBaselineExporter(dir)

	results := []domain.FileExtractionResult{
		{
			FileID:     "f-1",
			FileName:   "UPS PARCEL.xlsx",
			VendorType: domain.VendorParcel,
			Quality:    domain.QualityVerified,
			Tabs: []domain.TabExtractionResult{
				{
					TabName:              "March",
					RowCount:             120,
					ChosenColumn:         "net charge",
					ChosenStrategy:       "exact_header",
					ExtractedAmount:      1034.55,
					ValuesFound:          118,
					RowsExcludedAsTotals: 2,
				},
			},
		},
	}

	require.NoError(t, e.ExportFileBreakdown(results, "breakdown.csv"))

	rows := readCSV(t, filepath.Join(dir, "breakdown.csv"))
	require.Len(t, rows, 2)
	assert.Equal(t, "f-1", rows[1][0])
	assert.Equal(t, "exact_header", rows[1][6])
	assert.Equal(t, "1034.55", rows[1][7])
	assert.Equal(t, "2", rows[1][9])
}

func TestExportSources_Empty(t *testing.T) {
	dir := t.TempDir()
	e := NewBaselineExporter(dir)

	summary := &domain.BaselineSummary{Quality: domain.QualityGenerated, GeneratedAt: time.Now()}
	require.NoError(t, e.ExportSources(summary, "sources.csv"))

	rows := readCSV(t, filepath.Join(dir, "sources.csv"))
	require.Len(t, rows, 1, "header only")
}
