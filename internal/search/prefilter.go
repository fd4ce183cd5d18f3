package search

import "github.com/alex-user-go/stayscout/internal/search/types"

// Minimum acceptable rating when a rating is present at all.
const minRating = 3.0

// Prefilter is the cheap deterministic pass that runs before the evaluator.
// It drops properties priced outside the requested budget band (an absent
// bound is unbounded on that side), rated below 3.0 when a rating exists,
// or missing the minimal name/price contract. Pure and order-preserving.
func Prefilter(properties []types.NormalizedProperty, criteria types.SearchCriteria) []types.NormalizedProperty {
	filtered := make([]types.NormalizedProperty, 0, len(properties))
	for _, p := range properties {
		if !p.Valid() {
			continue
		}
		if criteria.Budget.Max > 0 && p.Price > criteria.Budget.Max {
			continue
		}
		if criteria.Budget.Min > 0 && p.Price < criteria.Budget.Min {
			continue
		}
		if p.Rating > 0 && p.Rating < minRating {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered
}
