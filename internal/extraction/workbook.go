package extraction

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Limits bounds how much of a workbook the engine inspects so latency stays
// predictable on very large uploads.
type Limits struct {
	MaxTabs       int
	MaxRowsPerTab int
}

// DefaultLimits are generous enough for every carrier template seen so far.
func DefaultLimits() Limits {
	return Limits{MaxTabs: 50, MaxRowsPerTab: 100000}
}

// Tab is one worksheet reduced to a header row plus data rows. Cells are
// kept as strings; numeric interpretation happens during column evaluation.
type Tab struct {
	Name    string
	Headers []string
	Rows    [][]string
	Capped  bool
}

// Workbook is the parsed, order-preserving view of an uploaded file.
type Workbook struct {
	Tabs []Tab
}

// ParseWorkbook decodes workbook bytes into tabs. The first non-empty row
// of each sheet is taken as the header row; sheets with no content are
// dropped. A workbook that cannot be decoded at all returns an error, which
// the engine records as a file-level parse failure.
func ParseWorkbook(data []byte, limits Limits) (*Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	wb := &Workbook{}
	for i, sheetName := range f.GetSheetList() {
		if limits.MaxTabs > 0 && i >= limits.MaxTabs {
			break
		}

		rows, err := f.GetRows(sheetName)
		if err != nil {
			// A single unreadable sheet should not sink the workbook.
			continue
		}

		tab := buildTab(sheetName, rows, limits)
		if tab == nil {
			continue
		}
		wb.Tabs = append(wb.Tabs, *tab)
	}

	if len(wb.Tabs) == 0 {
		return nil, fmt.Errorf("workbook contains no readable tabs")
	}
	return wb, nil
}

// buildTab locates the header row and slices off the data rows beneath it.
func buildTab(name string, rows [][]string, limits Limits) *Tab {
	headerIdx := -1
	for i, row := range rows {
		if rowHasContent(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx == -1 || headerIdx+1 >= len(rows) {
		return nil
	}

	tab := &Tab{Name: name, Headers: rows[headerIdx]}
	data := rows[headerIdx+1:]
	if limits.MaxRowsPerTab > 0 && len(data) > limits.MaxRowsPerTab {
		data = data[:limits.MaxRowsPerTab]
		tab.Capped = true
	}
	for _, row := range data {
		if rowHasContent(row) {
			tab.Rows = append(tab.Rows, row)
		}
	}
	if len(tab.Rows) == 0 {
		return nil
	}
	return tab
}

func rowHasContent(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return true
		}
	}
	return false
}

// cell returns the value at idx or empty when the row is ragged.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
