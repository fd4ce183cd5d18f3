// Package demo provides a fixture-backed source adapter so the pipeline can
// run end to end without upstream credentials or a browser.
package demo

import (
	"context"
	"strings"

	"github.com/alex-user-go/stayscout/internal/search/types"
)

var fixtures = map[string][]types.NormalizedProperty{
	"paris": {
		{
			Name:        "Hotel de Crillon",
			Price:       450,
			Rating:      4.8,
			Description: "Luxury hotel in the heart of Paris with stunning views of Place de la Concorde",
			Amenities:   []string{"wifi", "spa", "concierge", "restaurant"},
			Location:    "Place de la Concorde, Paris",
			Source:      "demo",
		},
		{
			Name:        "Le Marais Boutique Stay",
			Price:       180,
			Rating:      4.5,
			Description: "Charming boutique hotel in historic Le Marais district",
			Amenities:   []string{"wifi", "breakfast", "air conditioning"},
			Location:    "Le Marais, Paris",
			Source:      "demo",
		},
		{
			Name:        "Modern Apartment near Louvre",
			Price:       120,
			Rating:      4.3,
			Description: "Spacious 2-bedroom apartment with kitchen, 5 minutes from Louvre",
			Amenities:   []string{"wifi", "kitchen", "family-friendly"},
			Location:    "1st Arrondissement, Paris",
			Source:      "demo",
		},
	},
	"new york": {
		{
			Name:        "The Plaza Hotel",
			Price:       580,
			Rating:      4.7,
			Description: "Iconic luxury hotel overlooking Central Park",
			Amenities:   []string{"spa", "restaurant", "concierge", "gym"},
			Location:    "Fifth Avenue, New York",
			Source:      "demo",
		},
		{
			Name:        "Brooklyn Heights Loft",
			Price:       220,
			Rating:      4.4,
			Description: "Stylish loft with Manhattan skyline views",
			Amenities:   []string{"wifi", "kitchen", "balcony"},
			Location:    "Brooklyn Heights, New York",
			Source:      "demo",
		},
	},
	"tokyo": {
		{
			Name:        "Park Hyatt Tokyo",
			Price:       650,
			Rating:      4.9,
			Description: "Ultra-modern luxury hotel with city views and world-class service",
			Amenities:   []string{"spa", "pool", "restaurant", "concierge"},
			Location:    "Shinjuku, Tokyo",
			Source:      "demo",
		},
		{
			Name:        "Traditional Ryokan Experience",
			Price:       280,
			Rating:      4.6,
			Description: "Authentic Japanese inn with tatami rooms and onsen",
			Amenities:   []string{"traditional bath", "restaurant", "garden"},
			Location:    "Asakusa, Tokyo",
			Source:      "demo",
		},
	},
}

var fallback = []types.NormalizedProperty{
	{
		Name:        "Grand Central Hotel",
		Price:       150,
		Rating:      4.2,
		Description: "Comfortable hotel with modern amenities in city center",
		Amenities:   []string{"wifi", "restaurant", "parking"},
		Location:    "City Center",
		Source:      "demo",
	},
	{
		Name:        "Cozy Downtown Apartment",
		Price:       95,
		Rating:      4.1,
		Description: "Well-equipped apartment perfect for travelers",
		Amenities:   []string{"wifi", "kitchen", "parking"},
		Location:    "Downtown",
		Source:      "demo",
	},
}

// Adapter serves canned fixtures keyed by destination substring.
type Adapter struct{}

// New creates the demo adapter.
func New() *Adapter { return &Adapter{} }

// Name identifies this source.
func (a *Adapter) Name() string { return "demo" }

// Search returns fixtures for the closest matching destination, bounded to
// the requested budget like a real source would be.
func (a *Adapter) Search(ctx context.Context, criteria types.SearchCriteria) ([]types.NormalizedProperty, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := strings.ToLower(criteria.Destination)
	for destination, properties := range fixtures {
		if strings.Contains(key, destination) || strings.Contains(destination, key) {
			return inBudget(properties, criteria.Budget), nil
		}
	}
	return inBudget(fallback, criteria.Budget), nil
}

func inBudget(properties []types.NormalizedProperty, budget types.BudgetRange) []types.NormalizedProperty {
	out := make([]types.NormalizedProperty, 0, len(properties))
	for _, p := range properties {
		if budget.Max > 0 && p.Price > budget.Max {
			continue
		}
		if budget.Min > 0 && p.Price < budget.Min {
			continue
		}
		out = append(out, p)
	}
	return out
}
