package extraction

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"freightbase/internal/headers"
	"freightbase/internal/mapping"
	"freightbase/pkg/contracts/domain"
)

// Observer receives engine outcomes for metrics. May be nil.
type Observer interface {
	FileProcessed(ctx context.Context, vendor string, status string)
	RowsExcluded(ctx context.Context, count int)
}

// Engine turns workbook bytes into an auditable FileExtractionResult. It is
// stateless across files; one engine serves all requests.
type Engine struct {
	mapper   *mapping.Mapper
	logger   *slog.Logger
	limits   Limits
	tracer   trace.Tracer
	observer Observer
}

// NewEngine creates an extraction engine. mapper drives header
// classification and the learning loop; observer may be nil.
func NewEngine(mapper *mapping.Mapper, logger *slog.Logger, limits Limits, observer Observer) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if limits.MaxRowsPerTab == 0 && limits.MaxTabs == 0 {
		limits = DefaultLimits()
	}
	return &Engine{
		mapper:   mapper,
		logger:   logger.With(slog.String("component", "extraction_engine")),
		limits:   limits,
		tracer:   otel.Tracer("freightbase/extraction"),
		observer: observer,
	}
}

// ProcessFile extracts the baseline contribution of one workbook. Parse
// failures produce a result with status error and a diagnostic message;
// they never propagate as an error so sibling files in a batch keep their
// results.
func (e *Engine) ProcessFile(ctx context.Context, fileID, fileName, scopeKey string, data []byte) *domain.FileExtractionResult {
	ctx, span := e.tracer.Start(ctx, "extraction.ProcessFile",
		trace.WithAttributes(
			attribute.String("file.name", fileName),
			attribute.Int("file.size", len(data)),
		))
	defer span.End()

	vendor := ClassifyVendor(fileName)
	span.SetAttributes(attribute.String("file.vendor", string(vendor)))

	result := &domain.FileExtractionResult{
		FileID:      fileID,
		FileName:    fileName,
		VendorType:  vendor,
		ProcessedAt: time.Now().UTC(),
	}

	wb, err := ParseWorkbook(data, e.limits)
	if err != nil {
		e.logger.ErrorContext(ctx, "workbook parse failed",
			slog.String("file_name", fileName),
			slog.String("error", err.Error()))
		result.Status = domain.StatusError
		result.Quality = domain.QualityError
		result.ErrorMessage = err.Error()
		if e.observer != nil {
			e.observer.FileProcessed(ctx, string(vendor), string(domain.StatusError))
		}
		return result
	}

	profile := profileFor(vendor)
	var weightedConfidence float64
	flagged := false

	for _, tab := range wb.Tabs {
		tabResult := e.processTab(ctx, &tab, profile, scopeKey)
		result.Tabs = append(result.Tabs, tabResult)
		result.TotalExtracted += tabResult.ExtractedAmount
		if tabResult.ChosenColumn == "" {
			flagged = true
		} else {
			weightedConfidence += strategyConfidence[tabResult.ChosenStrategy] * tabResult.ExtractedAmount
		}
	}

	if result.TotalExtracted > 0 {
		result.Confidence = weightedConfidence / result.TotalExtracted
	}
	result.Status = domain.StatusCompleted
	switch {
	case result.TotalExtracted == 0:
		result.Quality = domain.QualityGenerated
	case flagged || result.Confidence < strategyConfidence[StrategyGenericToken]:
		result.Quality = domain.QualityEstimated
	default:
		result.Quality = domain.QualityVerified
	}

	e.logger.InfoContext(ctx, "workbook extracted",
		slog.String("file_name", fileName),
		slog.String("vendor", string(vendor)),
		slog.Int("tabs", len(result.Tabs)),
		slog.Float64("total_extracted", result.TotalExtracted),
		slog.Float64("confidence", result.Confidence),
		slog.String("quality", result.Quality))

	if e.observer != nil {
		e.observer.FileProcessed(ctx, string(vendor), string(result.Status))
	}
	return result
}

// processTab resolves the authoritative monetary column for one tab and
// sums its validated values. A tab where the full ladder fails contributes
// zero and carries a diagnostic instead of failing the file.
func (e *Engine) processTab(ctx context.Context, tab *Tab, profile vendorProfile, scopeKey string) domain.TabExtractionResult {
	tabResult := domain.TabExtractionResult{
		TabName:       tab.Name,
		RowCount:      len(tab.Rows),
		ColumnHeaders: append([]string(nil), tab.Headers...),
	}

	// Header classification feeds both the learning loop and the
	// descriptive-column set used for total-artifact detection.
	suggestions := e.mapper.MapAll(ctx, scopeKey, tab.Headers)
	descriptive := descriptiveColumns(tab.Headers, suggestions)

	// Keyword total rows are excluded regardless of which column wins.
	keywordRow := make([]bool, len(tab.Rows))
	keywordExcluded := 0
	for i, row := range tab.Rows {
		if isTotalKeywordRow(row) {
			keywordRow[i] = true
			keywordExcluded++
		}
	}

	for _, cand := range buildLadder(tab, profile) {
		sum, values, orphans := e.evaluate(tab, cand, keywordRow, descriptive)
		if values < cand.MinValues || values == 0 {
			continue
		}
		if cand.MinMagnitude > 0 && sum < cand.MinMagnitude {
			continue
		}

		tabResult.ChosenColumn = cand.Header
		tabResult.ChosenStrategy = cand.Strategy
		tabResult.ExtractedAmount = sum
		tabResult.ValuesFound = values
		tabResult.RowsExcludedAsTotals = keywordExcluded + orphans
		if tab.Capped {
			tabResult.Diagnostic = "row inspection capped"
		}

		if e.observer != nil {
			e.observer.RowsExcluded(ctx, tabResult.RowsExcludedAsTotals)
		}

		e.logger.DebugContext(ctx, "column selected",
			slog.String("tab", tab.Name),
			slog.String("column", cand.Header),
			slog.String("strategy", cand.Strategy),
			slog.Float64("amount", sum),
			slog.Int("values", values),
			slog.Int("rows_excluded", tabResult.RowsExcludedAsTotals))
		return tabResult
	}

	tabResult.Diagnostic = "no qualifying monetary column after full ladder"
	tabResult.RowsExcludedAsTotals = keywordExcluded
	e.logger.WarnContext(ctx, "tab yielded no qualifying values",
		slog.String("tab", tab.Name),
		slog.Int("rows", len(tab.Rows)))
	return tabResult
}

// evaluate sums the candidate column across non-total rows. A row whose
// value qualifies but which has no populated descriptive field is counted
// as an orphan total artifact and excluded.
func (e *Engine) evaluate(tab *Tab, cand candidate, keywordRow []bool, descriptive []int) (sum float64, values, orphans int) {
	for i, row := range tab.Rows {
		if keywordRow[i] {
			continue
		}
		value, ok := CleanNumeric(cell(row, cand.Index))
		if !ok || value < cand.Floor {
			continue
		}
		if len(descriptive) > 0 && !hasDescriptiveSupport(row, descriptive) {
			orphans++
			continue
		}
		sum += value
		values++
	}
	return sum, values, orphans
}

// descriptiveColumns returns the indices of columns that describe an
// individual shipment, by canonical classification or raw-header tokens.
func descriptiveColumns(rawHeaders []string, suggestions map[string]domain.Suggestion) []int {
	var out []int
	for i, raw := range rawHeaders {
		if s, ok := suggestions[raw]; ok && s.MappedTo.IsDescriptive() {
			out = append(out, i)
			continue
		}
		if isDescriptiveHeader(headers.Normalize(raw)) {
			out = append(out, i)
		}
	}
	return out
}

// hasDescriptiveSupport reports whether any descriptive column is populated
// on the row.
func hasDescriptiveSupport(row []string, descriptive []int) bool {
	for _, idx := range descriptive {
		if strings.TrimSpace(cell(row, idx)) != "" {
			return true
		}
	}
	return false
}
