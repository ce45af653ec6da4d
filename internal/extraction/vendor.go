// Package extraction walks classified freight workbooks tab by tab,
// resolves the authoritative monetary column per tab through a prioritized
// ladder of strategies, filters total-row artifacts, and aggregates the
// validated amounts into an auditable per-file result.
package extraction

import (
	"regexp"
	"strings"

	"freightbase/pkg/contracts/domain"
)

// vendorPattern maps a file-name signal to a carrier category. Patterns are
// checked in order; first match wins.
type vendorPattern struct {
	pattern *regexp.Regexp
	vendor  domain.VendorType
}

var vendorPatterns = []vendorPattern{
	{regexp.MustCompile(`(?i)\bups\b|parcel|small\s*pack`), domain.VendorParcel},
	{regexp.MustCompile(`(?i)\bltl\b|r\s*\+\s*l|rl\s*carriers|estes|roadway`), domain.VendorLTL},
	{regexp.MustCompile(`(?i)\btl\b|truckload|truck\s*load|jb\s*hunt|linehaul`), domain.VendorTruckload},
}

// ClassifyVendor infers the carrier category of a workbook from its file
// name. Unrecognized names fall into the OTHER bucket rather than being
// rejected.
func ClassifyVendor(fileName string) domain.VendorType {
	name := strings.ToLower(fileName)
	for _, vp := range vendorPatterns {
		if vp.pattern.MatchString(name) {
			return vp.vendor
		}
	}
	return domain.VendorOther
}

// vendorProfile carries the per-carrier template knowledge the column
// ladder needs: which exact headers the vendor's reports use, the value
// floors that separate real charges from header artifacts and placeholder
// zeros, and the positional fallback for templates with unnamed columns.
type vendorProfile struct {
	// ExactHeaders are matched case-insensitively against normalized
	// headers at the top of the ladder.
	ExactHeaders []string

	// TotalTabExact applies only on tabs whose name contains "total";
	// some truckload reports keep the grand figures on such a tab under a
	// bare positional header.
	TotalTabExact []string

	// FallbackIndex is the zero-based template column used when no named
	// column qualifies. Negative means no positional fallback.
	FallbackIndex int

	// Floors by ladder step. Values below the floor are treated as noise.
	ExactFloor      float64
	NetFloor        float64
	GenericFloor    float64
	PositionalFloor float64

	// Guards for the generic cost-token step, which is the most prone to
	// latching onto an unrelated numeric column.
	GenericMinValues    int
	GenericMinMagnitude float64
}

var vendorProfiles = map[domain.VendorType]vendorProfile{
	domain.VendorParcel: {
		ExactHeaders:        []string{"net charge"},
		FallbackIndex:       -1,
		ExactFloor:          0.01,
		NetFloor:            0.01,
		GenericFloor:        0.01,
		PositionalFloor:     0.01,
		GenericMinValues:    3,
		GenericMinMagnitude: 100,
	},
	domain.VendorLTL: {
		ExactHeaders:        []string{"v"},
		FallbackIndex:       21,
		ExactFloor:          0.01,
		NetFloor:            1,
		GenericFloor:        100,
		PositionalFloor:     0.01,
		GenericMinValues:    3,
		GenericMinMagnitude: 500,
	},
	domain.VendorTruckload: {
		ExactHeaders:        []string{"h"},
		TotalTabExact:       []string{"h"},
		FallbackIndex:       7,
		ExactFloor:          1,
		NetFloor:            1,
		GenericFloor:        1000,
		PositionalFloor:     1,
		GenericMinValues:    2,
		GenericMinMagnitude: 2000,
	},
	domain.VendorOther: {
		FallbackIndex:       -1,
		ExactFloor:          0.01,
		NetFloor:            0.01,
		GenericFloor:        0.01,
		PositionalFloor:     0.01,
		GenericMinValues:    3,
		GenericMinMagnitude: 100,
	},
}

// profileFor returns the template profile for a vendor, defaulting to the
// OTHER profile.
func profileFor(vendor domain.VendorType) vendorProfile {
	if p, ok := vendorProfiles[vendor]; ok {
		return p
	}
	return vendorProfiles[domain.VendorOther]
}
