package evaluate

import (
	"fmt"
	"strings"

	"github.com/alex-user-go/stayscout/internal/search/types"
)

// The six weighted factors are guidance to the model, not an enforced
// contract; only the SCORE/REASONING response format is parsed.
const promptTemplate = `You are an expert travel accommodation evaluator. Analyze this property and provide a match score (0-100) and reasoning.

SEARCH CRITERIA:
- Destination: %s
- Budget: %s - %s per night
- Guests: %d
- Check-in: %s
- Check-out: %s

PROPERTY TO EVALUATE:
- Name: %s
- Price: $%d per night
- Rating: %s
- Location: %s
- Description: %s
- Amenities: %s
- Source: %s

EVALUATION CRITERIA:
1. Price-value ratio (25%%): How well does the price match the value offered?
2. Location convenience (20%%): How well-located is the property for the destination?
3. Guest ratings/reviews (20%%): Quality indicated by ratings and reputation
4. Amenities match (15%%): How well do amenities match traveler needs?
5. Property type suitability (10%%): Appropriateness for the trip type
6. Overall appeal (10%%): General attractiveness and uniqueness

Provide your response in this EXACT format:
SCORE: [number 0-100]
REASONING: [2-3 sentences explaining why this property is a good/poor match for the criteria, focusing on the most important factors]

Be objective and consider both strengths and weaknesses. Higher scores (80-100) for exceptional matches, 60-79 for good matches, 40-59 for average, 20-39 for poor matches, 0-19 for very poor matches.`

// buildPrompt renders the evaluation prompt for one candidate.
func buildPrompt(p types.NormalizedProperty, criteria types.SearchCriteria) string {
	minBudget := "No min"
	if criteria.Budget.Min > 0 {
		minBudget = fmt.Sprintf("%d", criteria.Budget.Min)
	}
	maxBudget := "No max"
	if criteria.Budget.Max > 0 {
		maxBudget = fmt.Sprintf("%d", criteria.Budget.Max)
	}

	rating := "Not available"
	if p.Rating > 0 {
		rating = fmt.Sprintf("%.1f", p.Rating)
	}

	description := p.Description
	if description == "" {
		description = "No description available"
	}

	amenities := strings.Join(p.Amenities, ", ")
	if amenities == "" {
		amenities = "No amenities listed"
	}

	return fmt.Sprintf(promptTemplate,
		criteria.Destination,
		minBudget,
		maxBudget,
		criteria.Guests,
		criteria.CheckIn,
		criteria.CheckOut,
		p.Name,
		p.Price,
		rating,
		p.Location,
		description,
		amenities,
		p.Source,
	)
}
