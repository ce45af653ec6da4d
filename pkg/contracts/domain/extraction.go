package domain

import "time"

// VendorType classifies an uploaded workbook by carrier category.
type VendorType string

const (
	VendorParcel    VendorType = "PARCEL"
	VendorTruckload VendorType = "TRUCKLOAD"
	VendorLTL       VendorType = "LTL"
	VendorOther     VendorType = "OTHER"
)

// FileStatus represents the processing lifecycle of an uploaded workbook.
type FileStatus string

const (
	StatusPending    FileStatus = "pending"
	StatusProcessing FileStatus = "processing"
	StatusCompleted  FileStatus = "completed"
	StatusError      FileStatus = "error"
)

// Quality markers attached to extraction output so a reviewer knows how
// the number was produced.
const (
	QualityVerified  = "verified"
	QualityEstimated = "estimated"
	QualityGenerated = "generated"
	QualityError     = "error"
)

// RawColumn is one column of one tab as it came off the wire, before any
// canonical-field resolution. Transient per workbook parse.
type RawColumn struct {
	Header       string   `json:"header"`
	TabName      string   `json:"tab_name"`
	FileID       string   `json:"file_id"`
	SampleValues []string `json:"sample_values,omitempty"`
}

// TabExtractionResult is the per-tab breakdown embedded in a file's
// extraction record. It is not persisted independently.
type TabExtractionResult struct {
	TabName              string   `json:"tab_name"`
	RowCount             int      `json:"row_count"`
	ColumnHeaders        []string `json:"column_headers"`
	ChosenColumn         string   `json:"chosen_column,omitempty"`
	ChosenStrategy       string   `json:"chosen_strategy,omitempty"`
	ExtractedAmount      float64  `json:"extracted_amount"`
	ValuesFound          int      `json:"values_found"`
	RowsExcludedAsTotals int      `json:"rows_excluded_as_totals"`
	Diagnostic           string   `json:"diagnostic,omitempty"`
}

// FileExtractionResult is the audit-ready record of what a single workbook
// contributed. TotalExtracted always equals the sum of its tab amounts.
type FileExtractionResult struct {
	FileID         string                `json:"file_id"`
	FileName       string                `json:"file_name"`
	VendorType     VendorType            `json:"vendor_type"`
	Tabs           []TabExtractionResult `json:"tabs"`
	TotalExtracted float64               `json:"total_extracted"`
	Confidence     float64               `json:"confidence"`
	Quality        string                `json:"quality"`
	Status         FileStatus            `json:"status"`
	ErrorMessage   string                `json:"error_message,omitempty"`
	ProcessedAt    time.Time             `json:"processed_at"`
}

// TabTotal recomputes the sum of tab contributions. Callers use it to
// verify the total-equals-sum-of-tabs invariant after deserialization.
func (r *FileExtractionResult) TabTotal() float64 {
	var total float64
	for _, tab := range r.Tabs {
		total += tab.ExtractedAmount
	}
	return total
}

// UploadedFile is the persisted registration of a workbook upload. The
// extraction result is stored alongside it as a JSON payload once
// processing finishes.
type UploadedFile struct {
	ID          string     `json:"id" db:"id"`
	FileName    string     `json:"file_name" db:"file_name"`
	ScopeKey    string     `json:"scope_key" db:"scope_key"`
	VendorType  VendorType `json:"vendor_type" db:"vendor_type"`
	StoragePath string     `json:"storage_path" db:"storage_path"`
	SizeBytes   int64      `json:"size_bytes" db:"size_bytes"`
	Status      FileStatus `json:"processing_status" db:"processing_status"`
	ResultJSON  []byte     `json:"-" db:"result_json"`
	UploadedAt  time.Time  `json:"uploaded_at" db:"uploaded_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}
