package domain

import "time"

// CanonicalField is one member of the fixed vocabulary of business-meaningful
// column types. The vocabulary is closed; it changes only by code change.
type CanonicalField string

const (
	// Identifiers
	FieldTrackingNumber CanonicalField = "tracking_number"
	FieldProNumber      CanonicalField = "pro_number"
	FieldInvoiceNumber  CanonicalField = "invoice_number"
	FieldCarrier        CanonicalField = "carrier"
	FieldServiceType    CanonicalField = "service_type"

	// Route
	FieldOriginCity  CanonicalField = "origin_city"
	FieldOriginState CanonicalField = "origin_state"
	FieldOriginZip   CanonicalField = "origin_zip"
	FieldDestCity    CanonicalField = "dest_city"
	FieldDestState   CanonicalField = "dest_state"
	FieldDestZip     CanonicalField = "dest_zip"

	// Measures
	FieldWeight   CanonicalField = "weight"
	FieldQuantity CanonicalField = "quantity"
	FieldPieces   CanonicalField = "pieces"
	FieldShipDate CanonicalField = "ship_date"

	// Monetary
	FieldNetCharge         CanonicalField = "net_charge"
	FieldGrossCharge       CanonicalField = "gross_charge"
	FieldFreightCost       CanonicalField = "freight_cost"
	FieldFuelSurcharge     CanonicalField = "fuel_surcharge"
	FieldAccessorialCharge CanonicalField = "accessorial_charge"
	FieldLTLCost           CanonicalField = "ltl_cost"
	FieldTLCost            CanonicalField = "tl_cost"
	FieldParcelCost        CanonicalField = "parcel_cost"
	FieldColumnV           CanonicalField = "column_v"
	FieldTotalCost         CanonicalField = "total_cost"
)

// IsMonetary reports whether the field carries a money value that can be
// summed into a baseline.
func (f CanonicalField) IsMonetary() bool {
	switch f {
	case FieldNetCharge, FieldGrossCharge, FieldFreightCost, FieldFuelSurcharge,
		FieldAccessorialCharge, FieldLTLCost, FieldTLCost, FieldParcelCost,
		FieldColumnV, FieldTotalCost:
		return true
	}
	return false
}

// IsDescriptive reports whether the field describes an individual shipment
// (route, carrier, service). Rows carrying money but none of these look
// like pre-aggregated total lines.
func (f CanonicalField) IsDescriptive() bool {
	switch f {
	case FieldOriginCity, FieldOriginState, FieldOriginZip,
		FieldDestCity, FieldDestState, FieldDestZip,
		FieldCarrier, FieldServiceType, FieldTrackingNumber, FieldProNumber:
		return true
	}
	return false
}

// MappingScope distinguishes tenant-specific mappings from shared ones.
type MappingScope string

const (
	ScopeCustomer MappingScope = "customer"
	ScopeGlobal   MappingScope = "global"
)

// MappingRecord is one learned header-to-field decision. Confidence only
// ever increases; hits count reuses and reconfirmations.
type MappingRecord struct {
	Scope            MappingScope   `json:"scope" db:"scope"`
	ScopeKey         string         `json:"scope_key,omitempty" db:"scope_key"`
	NormalizedHeader string         `json:"normalized_header" db:"normalized_header"`
	CanonicalField   CanonicalField `json:"canonical_field" db:"canonical_field"`
	Confidence       float64        `json:"confidence" db:"confidence"`
	Hits             int            `json:"hits" db:"hits"`
	LastSeenAt       time.Time      `json:"last_seen_at" db:"last_seen_at"`
}

// FieldCandidate is one scored alternative produced by the fuzzy resolver.
type FieldCandidate struct {
	Field CanonicalField `json:"field"`
	Score float64        `json:"score"`
}

// Suggestion is the resolver's answer for a single raw header. MappedTo is
// empty when no candidate cleared the acceptance threshold.
type Suggestion struct {
	MappedTo   CanonicalField   `json:"mapped_to,omitempty"`
	Score      float64          `json:"score"`
	Candidates []FieldCandidate `json:"candidates,omitempty"`
	Source     string           `json:"source,omitempty"`
}
