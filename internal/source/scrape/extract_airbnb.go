package scrape

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/alex-user-go/stayscout/internal/search/types"
)

// Per-field selector fallbacks for airbnb.com listing cards.
var (
	airbnbCardSelectors = []string{
		`[data-testid="card-container"]`,
		`[itemprop="itemListElement"]`,
	}
	airbnbNameSelectors = []string{
		`[data-testid="listing-card-title"]`,
		`.t1jojoys`,
	}
	airbnbPriceSelectors = []string{
		`[data-testid="price-availability"]`,
		`._1jo4hgw`,
	}
	airbnbRatingSelectors = []string{
		`[data-testid="listing-card-rating"]`,
		`.r1dxllyb`,
	}
	airbnbSubtitleSelectors = []string{
		`[data-testid="listing-card-subtitle"]`,
		`.s1cjsi4j`,
	}
)

// extractAirbnbProperties parses listing cards out of the rendered page. The
// card subtitle doubles as description and location, and listings carry no
// amenity badges on the results page, so amenities stay empty here. The same
// minimal name/price contract and coarse budget limits apply as for
// booking.com cards.
func extractAirbnbProperties(html string, criteria types.SearchCriteria, maxProperties int) ([]types.NormalizedProperty, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing results page: %w", err)
	}

	var cards *goquery.Selection
	for _, sel := range airbnbCardSelectors {
		cards = doc.Find(sel)
		if cards.Length() > 0 {
			break
		}
	}
	if cards == nil || cards.Length() == 0 {
		return nil, fmt.Errorf("no listing cards found")
	}

	properties := make([]types.NormalizedProperty, 0, maxProperties)
	cards.EachWithBreak(func(_ int, card *goquery.Selection) bool {
		subtitle := textFirst(card, airbnbSubtitleSelectors)
		p := types.NormalizedProperty{
			Name:        textFirst(card, airbnbNameSelectors),
			Price:       parsePrice(textFirst(card, airbnbPriceSelectors)),
			Rating:      parseRating(textFirst(card, airbnbRatingSelectors)),
			Amenities:   []string{},
			Description: subtitle,
			Location:    subtitle,
			ImageURL:    attrFirst(card, "img", "src"),
			BookingURL:  absoluteURL(airbnbBaseURL, attrFirst(card, "a", "href")),
			Source:      "airbnb.com",
		}
		if !p.Valid() {
			return true
		}
		if criteria.Budget.Max > 0 && p.Price > criteria.Budget.Max {
			return true
		}
		if criteria.Budget.Min > 0 && p.Price < criteria.Budget.Min {
			return true
		}
		properties = append(properties, p)
		return len(properties) < maxProperties
	})

	return properties, nil
}
