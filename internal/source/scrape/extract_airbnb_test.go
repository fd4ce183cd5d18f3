package scrape

import (
	"fmt"
	"strings"
	"testing"

	"github.com/alex-user-go/stayscout/internal/search/types"
)

func airbnbCard(name, price, rating string) string {
	return fmt.Sprintf(`
<div data-testid="card-container">
  <a href="/rooms/%s"><img src="https://img.example/%s.jpg"></a>
  <div data-testid="listing-card-title">%s</div>
  <div data-testid="listing-card-subtitle">Private room in %s</div>
  <span data-testid="price-availability">$%s per night</span>
  <span data-testid="listing-card-rating">%s (214)</span>
</div>`, strings.ToLower(name), strings.ToLower(name), name, name, price, rating)
}

func TestExtractAirbnbProperties(t *testing.T) {
	html := page(
		airbnbCard("Loft", "140", "4.89"),
		airbnbCard("Studio", "95", "4.5"),
	)

	properties, err := extractAirbnbProperties(html, types.SearchCriteria{}, 8)
	if err != nil {
		t.Fatalf("extractAirbnbProperties() error: %v", err)
	}
	if len(properties) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(properties))
	}

	p := properties[0]
	if p.Name != "Loft" {
		t.Errorf("name = %q", p.Name)
	}
	if p.Price != 140 {
		t.Errorf("price = %d", p.Price)
	}
	if p.Rating != 4.89 {
		t.Errorf("rating = %v", p.Rating)
	}
	if p.Location != "Private room in Loft" || p.Description != p.Location {
		t.Errorf("subtitle should fill both location and description: %+v", p)
	}
	if p.BookingURL != "https://www.airbnb.com/rooms/loft" {
		t.Errorf("booking url = %q, want absolute listing link", p.BookingURL)
	}
	if p.Amenities == nil || len(p.Amenities) != 0 {
		t.Errorf("amenities should be empty (non-nil), got %v", p.Amenities)
	}
	if p.Source != "airbnb.com" {
		t.Errorf("source = %q", p.Source)
	}
}

func TestExtractAirbnbProperties_DropsIncompleteCards(t *testing.T) {
	html := page(
		airbnbCard("Whole", "120", "4.7"),
		`<div data-testid="card-container"><div data-testid="listing-card-title">No price</div></div>`,
	)

	properties, err := extractAirbnbProperties(html, types.SearchCriteria{}, 8)
	if err != nil {
		t.Fatalf("extractAirbnbProperties() error: %v", err)
	}
	if len(properties) != 1 {
		t.Fatalf("expected incomplete card dropped, got %d listings", len(properties))
	}
}

func TestExtractAirbnbProperties_BudgetFilter(t *testing.T) {
	html := page(
		airbnbCard("Cheap", "60", "4.2"),
		airbnbCard("Mid", "150", "4.6"),
		airbnbCard("Pricey", "500", "4.9"),
	)

	criteria := types.SearchCriteria{Budget: types.BudgetRange{Min: 100, Max: 200}}
	properties, err := extractAirbnbProperties(html, criteria, 8)
	if err != nil {
		t.Fatalf("extractAirbnbProperties() error: %v", err)
	}
	if len(properties) != 1 || properties[0].Name != "Mid" {
		t.Errorf("expected only the in-budget listing, got %+v", properties)
	}
}

func TestExtractAirbnbProperties_NoCards(t *testing.T) {
	if _, err := extractAirbnbProperties("<html><body><p>empty</p></body></html>", types.SearchCriteria{}, 8); err == nil {
		t.Error("expected error when no listing cards are present")
	}
}
