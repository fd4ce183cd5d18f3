package scrape

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/alex-user-go/stayscout/internal/search/types"
)

// Per-field selector fallbacks for result cards.
var (
	cardSelectors = []string{
		`[data-testid="property-card"]`,
		`.sr_property_block`,
	}
	nameSelectors = []string{
		`[data-testid="title"]`,
		`.sr-hotel__name`,
		`h3`,
	}
	priceSelectors = []string{
		`[data-testid="price-and-discounted-price"]`,
		`.prco-valign-middle-helper`,
	}
	ratingSelectors = []string{
		`[data-testid="review-score"]`,
		`.bui-review-score__badge`,
	}
	descriptionSelectors = []string{
		`[data-testid="description"]`,
		`.hotel_description`,
	}
	addressSelectors = []string{
		`[data-testid="address"]`,
		`.sr_hotel_address`,
	}
	amenitySelectors = []string{
		`.sr-hotel__facility`,
		`.bui-badge`,
	}
)

var (
	priceRe  = regexp.MustCompile(`\d[\d,]*`)
	ratingRe = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

const maxAmenitiesPerCard = 5

// extractProperties parses result cards out of the rendered page. Every
// field extraction degrades to a zero value on a selector miss; only cards
// failing the minimal name/price contract are dropped. Coarse budget limits
// are applied here so obviously unusable cards never leave the adapter.
func extractProperties(html string, criteria types.SearchCriteria, maxProperties int) ([]types.NormalizedProperty, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing results page: %w", err)
	}

	var cards *goquery.Selection
	for _, sel := range cardSelectors {
		cards = doc.Find(sel)
		if cards.Length() > 0 {
			break
		}
	}
	if cards == nil || cards.Length() == 0 {
		return nil, fmt.Errorf("no property cards found")
	}

	properties := make([]types.NormalizedProperty, 0, maxProperties)
	cards.EachWithBreak(func(_ int, card *goquery.Selection) bool {
		p := types.NormalizedProperty{
			Name:        textFirst(card, nameSelectors),
			Price:       parsePrice(textFirst(card, priceSelectors)),
			Rating:      parseRating(textFirst(card, ratingSelectors)),
			Description: textFirst(card, descriptionSelectors),
			Amenities:   extractAmenities(card),
			Location:    textFirst(card, addressSelectors),
			ImageURL:    attrFirst(card, "img", "src"),
			BookingURL:  absoluteURL(baseURL, attrFirst(card, "a", "href")),
			Source:      "booking.com",
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

// textFirst returns the trimmed text of the first selector that matches.
func textFirst(card *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if node := card.Find(sel).First(); node.Length() > 0 {
			if text := strings.TrimSpace(node.Text()); text != "" {
				return text
			}
		}
	}
	return ""
}

// attrFirst returns the named attribute of the first matching node.
func attrFirst(card *goquery.Selection, selector, attr string) string {
	if value, ok := card.Find(selector).First().Attr(attr); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

// parsePrice pulls the first integer out of a formatted price string
// ("$1,234" -> 1234). Zero means the price could not be read.
func parsePrice(text string) int {
	match := priceRe.FindString(text)
	if match == "" {
		return 0
	}
	price, err := strconv.Atoi(strings.ReplaceAll(match, ",", ""))
	if err != nil {
		return 0
	}
	return price
}

// parseRating pulls a decimal rating out of badge text ("Scored 8.4" style
// badges use a 10-point scale upstream; values above 5 are halved to the
// 0-5 contract).
func parseRating(text string) float64 {
	match := ratingRe.FindString(text)
	if match == "" {
		return 0
	}
	rating, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	if rating > 5 {
		rating = rating / 2
	}
	if rating < 0 || rating > 5 {
		return 0
	}
	return rating
}

func extractAmenities(card *goquery.Selection) []string {
	var amenities []string
	for _, sel := range amenitySelectors {
		card.Find(sel).EachWithBreak(func(_ int, node *goquery.Selection) bool {
			if text := strings.TrimSpace(node.Text()); text != "" {
				amenities = append(amenities, text)
			}
			return len(amenities) < maxAmenitiesPerCard
		})
		if len(amenities) > 0 {
			break
		}
	}
	return types.DedupeAmenities(amenities)
}

func absoluteURL(base, href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http") {
		return href
	}
	return base + href
}
