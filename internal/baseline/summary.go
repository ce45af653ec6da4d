// Package baseline blends per-file extraction results into the single
// reconciled cost figure downstream optimization scenarios consume.
package baseline

import (
	"time"

	"freightbase/pkg/contracts/domain"
)

// CategoryFor maps a vendor classification onto its named baseline bucket.
// Unknown vendors route to the uncategorized bucket rather than being
// silently dropped.
func CategoryFor(vendor domain.VendorType) string {
	switch vendor {
	case domain.VendorParcel:
		return domain.CategoryParcel
	case domain.VendorTruckload:
		return domain.CategoryTruckload
	case domain.VendorLTL:
		return domain.CategoryLTL
	default:
		return domain.CategoryUncategorized
	}
}

// Build recomputes the baseline summary from the extraction results
// currently available. Files in error state contribute nothing but still
// appear as sources so reviewers see what was excluded. The summary is
// derived state, never a source of truth.
func Build(results []domain.FileExtractionResult) *domain.BaselineSummary {
	summary := &domain.BaselineSummary{GeneratedAt: time.Now().UTC()}

	var weightedConfidence, contributing float64
	worstQuality := domain.QualityVerified

	for _, res := range results {
		category := CategoryFor(res.VendorType)
		contribution := domain.FileContribution{
			FileID:     res.FileID,
			FileName:   res.FileName,
			VendorType: res.VendorType,
			Category:   category,
			Confidence: res.Confidence,
			Quality:    res.Quality,
		}

		if res.Status == domain.StatusCompleted {
			contribution.Amount = res.TotalExtracted
			switch category {
			case domain.CategoryParcel:
				summary.UPSParcelCosts += res.TotalExtracted
			case domain.CategoryTruckload:
				summary.TLFreightCosts += res.TotalExtracted
			case domain.CategoryLTL:
				summary.RLLTLCosts += res.TotalExtracted
			default:
				summary.UncategorizedCosts += res.TotalExtracted
			}
			weightedConfidence += res.Confidence * res.TotalExtracted
			contributing += res.TotalExtracted
			worstQuality = worseQuality(worstQuality, res.Quality)
		}

		summary.Sources = append(summary.Sources, contribution)
	}

	summary.TotalVerified = summary.UPSParcelCosts + summary.TLFreightCosts +
		summary.RLLTLCosts + summary.UncategorizedCosts
	if contributing > 0 {
		summary.Confidence = weightedConfidence / contributing
		summary.Quality = worstQuality
	} else {
		summary.Quality = domain.QualityGenerated
	}
	return summary
}

// qualityRank orders quality markers from most to least trustworthy.
var qualityRank = map[string]int{
	domain.QualityVerified:  0,
	domain.QualityEstimated: 1,
	domain.QualityGenerated: 2,
	domain.QualityError:     3,
}

// worseQuality returns the weaker of two quality markers; the blended
// summary can never claim better quality than its weakest contributor.
func worseQuality(a, b string) string {
	if qualityRank[b] > qualityRank[a] {
		return b
	}
	return a
}
