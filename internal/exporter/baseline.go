package exporter

import (
	"fmt"
	"time"

	"freightbase/pkg/contracts/domain"
)

// BaselineExporter writes audit CSVs for baseline summaries and
// per-file extraction breakdowns.
type BaselineExporter struct {
	csvWriter *CSVWriter
}

// NewBaselineExporter creates a new baseline report exporter
func NewBaselineExporter(reportsDir string) *BaselineExporter {
	return &BaselineExporter{
		csvWriter: NewCSVWriter(reportsDir),
	}
}

// ExportSummary writes one row per baseline category plus the verified
// total, with the summary confidence and quality alongside each row.
func (e *BaselineExporter) ExportSummary(summary *domain.BaselineSummary, fileName string) error {
	headers := []string{"category", "amount", "confidence", "quality", "generated_at"}

	generatedAt := summary.GeneratedAt.Format(time.RFC3339)
	records := [][]string{
		{domain.CategoryParcel, formatFloat(summary.UPSParcelCosts), formatFloat(summary.Confidence), summary.Quality, generatedAt},
		{domain.CategoryTruckload, formatFloat(summary.TLFreightCosts), formatFloat(summary.Confidence), summary.Quality, generatedAt},
		{domain.CategoryLTL, formatFloat(summary.RLLTLCosts), formatFloat(summary.Confidence), summary.Quality, generatedAt},
		{domain.CategoryUncategorized, formatFloat(summary.UncategorizedCosts), formatFloat(summary.Confidence), summary.Quality, generatedAt},
		{"total_verified", formatFloat(summary.TotalVerified), formatFloat(summary.Confidence), summary.Quality, generatedAt},
	}

	if err := e.csvWriter.WriteSimpleCSV(fileName, headers, records); err != nil {
		return fmt.Errorf("failed to export baseline summary: %w", err)
	}
	return nil
}

// ExportSources writes one row per contributing file so every category
// amount can be traced back to its workbooks.
func (e *BaselineExporter) ExportSources(summary *domain.BaselineSummary, fileName string) error {
	headers := []string{"file_id", "file_name", "vendor_type", "category", "amount", "confidence", "quality"}

	records := make([][]string, 0, len(summary.Sources))
	for _, src := range summary.Sources {
		records = append(records, []string{
			src.FileID,
			src.FileName,
			string(src.VendorType),
			src.Category,
			formatFloat(src.Amount),
			formatFloat(src.Confidence),
			src.Quality,
		})
	}

	if err := e.csvWriter.WriteSimpleCSV(fileName, headers, records); err != nil {
		return fmt.Errorf("failed to export baseline sources: %w", err)
	}
	return nil
}

// ExportFileBreakdown writes the per-tab audit trail for a set of
// extraction results: which column was chosen, by which strategy, and
// how many rows were excluded as totals.
func (e *BaselineExporter) ExportFileBreakdown(results []domain.FileExtractionResult, fileName string) error {
	headers := []string{
		"file_id", "file_name", "vendor_type", "tab_name", "row_count",
		"chosen_column", "chosen_strategy", "extracted_amount",
		"values_found", "rows_excluded_as_totals", "quality", "diagnostic",
	}

	// Tab counts grow with every processed workbook, so stream instead of
	// building the full record set in memory.
	sw, err := e.csvWriter.CreateStreamWriter(fileName, headers)
	if err != nil {
		return fmt.Errorf("failed to create file breakdown writer: %w", err)
	}

	for _, result := range results {
		for _, tab := range result.Tabs {
			record := []string{
				result.FileID,
				result.FileName,
				string(result.VendorType),
				tab.TabName,
				formatInt(int64(tab.RowCount)),
				tab.ChosenColumn,
				tab.ChosenStrategy,
				formatFloat(tab.ExtractedAmount),
				formatInt(int64(tab.ValuesFound)),
				formatInt(int64(tab.RowsExcludedAsTotals)),
				result.Quality,
				tab.Diagnostic,
			}
			if err := sw.WriteRecord(record); err != nil {
				sw.Close()
				return fmt.Errorf("failed to write file breakdown record: %w", err)
			}
		}
	}

	if err := sw.Close(); err != nil {
		return fmt.Errorf("failed to export file breakdown: %w", err)
	}
	return nil
}
