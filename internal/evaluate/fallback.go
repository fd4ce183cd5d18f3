package evaluate

import "github.com/alex-user-go/stayscout/internal/search/types"

// FallbackScore is the deterministic heuristic used when model-based
// scoring is unavailable or unparseable. It is a pure function of price,
// budget maximum, rating and amenity count: base 50, a price-value band
// against the budget, a rating tier, and a small amenity bonus, clamped
// to [0, 100].
func FallbackScore(p types.NormalizedProperty, budget types.BudgetRange) int {
	score := 50

	if budget.Max > 0 {
		ratio := float64(p.Price) / float64(budget.Max)
		switch {
		case ratio <= 0.7:
			score += 20
		case ratio <= 0.9:
			score += 10
		case ratio <= 1.0:
			score += 5
		default:
			score -= 15
		}
	}

	if p.Rating > 0 {
		switch {
		case p.Rating >= 4.5:
			score += 20
		case p.Rating >= 4.0:
			score += 15
		case p.Rating >= 3.5:
			score += 10
		case p.Rating >= 3.0:
			score += 5
		default:
			score -= 10
		}
	}

	if len(p.Amenities) > 3 {
		score += 5
	}

	return clampScore(score)
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
