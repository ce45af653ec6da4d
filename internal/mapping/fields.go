// Package mapping resolves raw spreadsheet headers to canonical business
// fields. Resolution is two-tier: a persistent store of previously learned
// decisions is consulted first, and a fuzzy string-similarity resolver
// handles headers the store has never seen.
package mapping

import "freightbase/pkg/contracts/domain"

// fieldSynonyms lists the alternate spellings each canonical field is known
// by across carrier templates. The resolver scores a header against the
// field name itself plus every synonym and keeps the best rating.
var fieldSynonyms = map[domain.CanonicalField][]string{
	domain.FieldTrackingNumber: {"tracking", "tracking id", "airbill", "airbill number"},
	domain.FieldProNumber:      {"pro", "pro num", "progressive number"},
	domain.FieldInvoiceNumber:  {"invoice", "invoice num", "bill number"},
	domain.FieldCarrier:        {"carrier name", "scac", "vendor", "carrier code"},
	domain.FieldServiceType:    {"service", "service level", "ship method", "mode"},

	domain.FieldOriginCity:  {"origin", "ship from city", "from city", "shipper city"},
	domain.FieldOriginState: {"ship from state", "from state", "shipper state"},
	domain.FieldOriginZip:   {"origin postal", "ship from zip", "from zip", "shipper zip"},
	domain.FieldDestCity:    {"destination city", "ship to city", "to city", "consignee city"},
	domain.FieldDestState:   {"destination state", "ship to state", "to state", "consignee state"},
	domain.FieldDestZip:     {"destination zip", "destination postal", "ship to zip", "to zip", "consignee zip"},

	domain.FieldWeight:   {"actual weight", "billed weight", "total weight", "lbs"},
	domain.FieldQuantity: {"qty", "units", "unit count"},
	domain.FieldPieces:   {"piece count", "pcs", "cartons", "pallets"},
	domain.FieldShipDate: {"shipment date", "pickup date", "invoice date", "date shipped"},

	domain.FieldNetCharge:         {"net charges", "net amount", "net cost", "net charge amount"},
	domain.FieldGrossCharge:       {"gross charges", "gross amount", "gross cost", "published charge"},
	domain.FieldFreightCost:       {"freight", "freight charge", "freight amount", "linehaul"},
	domain.FieldFuelSurcharge:     {"fuel", "fsc", "fuel charge"},
	domain.FieldAccessorialCharge: {"accessorial", "accessorials", "additional charges"},
	domain.FieldLTLCost:           {"ltl charge", "ltl amount", "less than truckload cost"},
	domain.FieldTLCost:            {"tl charge", "truckload cost", "tl amount", "linehaul total"},
	domain.FieldParcelCost:        {"parcel charge", "parcel amount", "small package cost"},
	domain.FieldColumnV:           {"column v", "col v", "v"},
	domain.FieldTotalCost:         {"total", "total charge", "total amount", "grand total", "total cost"},
}

// AllFields returns the closed canonical vocabulary in a stable order.
func AllFields() []domain.CanonicalField {
	return []domain.CanonicalField{
		domain.FieldTrackingNumber,
		domain.FieldProNumber,
		domain.FieldInvoiceNumber,
		domain.FieldCarrier,
		domain.FieldServiceType,
		domain.FieldOriginCity,
		domain.FieldOriginState,
		domain.FieldOriginZip,
		domain.FieldDestCity,
		domain.FieldDestState,
		domain.FieldDestZip,
		domain.FieldWeight,
		domain.FieldQuantity,
		domain.FieldPieces,
		domain.FieldShipDate,
		domain.FieldNetCharge,
		domain.FieldGrossCharge,
		domain.FieldFreightCost,
		domain.FieldFuelSurcharge,
		domain.FieldAccessorialCharge,
		domain.FieldLTLCost,
		domain.FieldTLCost,
		domain.FieldParcelCost,
		domain.FieldColumnV,
		domain.FieldTotalCost,
	}
}
