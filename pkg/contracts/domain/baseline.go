package domain

import "time"

// FileContribution references one source file's contribution to a baseline
// category so a reviewer can trace every dollar back to a workbook.
type FileContribution struct {
	FileID     string     `json:"file_id"`
	FileName   string     `json:"file_name"`
	VendorType VendorType `json:"vendor_type"`
	Category   string     `json:"category"`
	Amount     float64    `json:"amount"`
	Confidence float64    `json:"confidence"`
	Quality    string     `json:"quality"`
}

// Baseline category names. These match the carrier buckets downstream
// optimization scenarios consume.
const (
	CategoryParcel        = "ups_parcel_costs"
	CategoryTruckload     = "tl_freight_costs"
	CategoryLTL           = "rl_ltl_costs"
	CategoryUncategorized = "uncategorized_costs"
)

// BaselineSummary is the reconciled best-effort freight cost baseline. It is
// derived on demand from the currently available file extraction results and
// is the sole artifact downstream scenarios may treat as "the baseline".
type BaselineSummary struct {
	UPSParcelCosts     float64            `json:"ups_parcel_costs"`
	TLFreightCosts     float64            `json:"tl_freight_costs"`
	RLLTLCosts         float64            `json:"rl_ltl_costs"`
	UncategorizedCosts float64            `json:"uncategorized_costs"`
	TotalVerified      float64            `json:"total_verified"`
	Confidence         float64            `json:"confidence"`
	Quality            string             `json:"quality"`
	Sources            []FileContribution `json:"sources"`
	GeneratedAt        time.Time          `json:"generated_at"`
}
