// Package serphotels implements the search-engine API source adapter
// against the google_hotels engine. As much filtering as the upstream
// supports is pushed into the query itself (price band, star class,
// cancellation and rental mode), which is cheaper and more accurate than
// retrieving everything and filtering locally.
package serphotels

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alex-user-go/stayscout/internal/search/types"
	"github.com/alex-user-go/stayscout/internal/source"
)

const defaultBaseURL = "https://serpapi.com/search.json"

// property is one entry of the google_hotels response.
type property struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Link        string `json:"link"`
	RatePerNight struct {
		ExtractedLowest float64 `json:"extracted_lowest"`
	} `json:"rate_per_night"`
	OverallRating float64  `json:"overall_rating"`
	Amenities     []string `json:"amenities"`
	Thumbnail     string   `json:"thumbnail"`
	SerpThumbnail string   `json:"serpapi_thumbnail"`
	OriginalImage string   `json:"original_image"`
	Images        []struct {
		Thumbnail     string `json:"thumbnail"`
		OriginalImage string `json:"original_image"`
	} `json:"images"`
	NearbyPlaces []struct {
		Name string `json:"name"`
	} `json:"nearby_places"`
	Type string `json:"type"`
}

type response struct {
	Properties []property `json:"properties"`
}

// Adapter queries the google_hotels search API.
type Adapter struct {
	apiKey        string
	baseURL       string
	maxProperties int
	httpClient    *http.Client
	logger        *slog.Logger
}

// New creates the adapter. baseURL overrides the production endpoint in
// tests; pass "" for the default.
func New(apiKey, baseURL string, maxProperties int, timeout time.Duration, logger *slog.Logger) *Adapter {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Adapter{
		apiKey:        apiKey,
		baseURL:       baseURL,
		maxProperties: maxProperties,
		httpClient:    &http.Client{Timeout: timeout},
		logger:        logger,
	}
}

// Name identifies this source.
func (a *Adapter) Name() string { return "google-hotels" }

// Search issues one richly parameterized query and maps the response.
func (a *Adapter) Search(ctx context.Context, criteria types.SearchCriteria) ([]types.NormalizedProperty, error) {
	endpoint := a.baseURL + "?" + BuildQuery(criteria, a.apiKey).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrSourceUnavailable, err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrSourceUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", source.ErrSourceUnavailable, resp.StatusCode, body)
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", source.ErrSourceUnavailable, err)
	}

	properties := make([]types.NormalizedProperty, 0, a.maxProperties)
	for _, p := range payload.Properties {
		normalized := mapProperty(p, criteria.Destination)
		if !normalized.Valid() {
			continue
		}
		properties = append(properties, normalized)
		if len(properties) >= a.maxProperties {
			break
		}
	}

	a.logger.Info("serp search complete",
		"source", a.Name(),
		"destination", criteria.Destination,
		"properties", len(properties),
	)
	return properties, nil
}

// BuildQuery derives the upstream query from the criteria, inferring a
// minimum hotel-class tier from the trip type, cancellation and rental
// flags from the preferences, and a bedroom count from the guest count.
// Exported for direct verification in tests.
func BuildQuery(criteria types.SearchCriteria, apiKey string) url.Values {
	query := url.Values{}
	query.Set("engine", "google_hotels")
	query.Set("api_key", apiKey)
	query.Set("q", criteria.Destination+" hotels")
	query.Set("check_in_date", criteria.CheckIn)
	query.Set("check_out_date", criteria.CheckOut)
	query.Set("adults", strconv.Itoa(criteria.Guests))
	query.Set("currency", criteria.Budget.Currency)

	if criteria.Budget.Min > 0 {
		query.Set("min_price", strconv.Itoa(criteria.Budget.Min))
	}
	if criteria.Budget.Max > 0 {
		query.Set("max_price", strconv.Itoa(criteria.Budget.Max))
	}

	// Trip type maps to a star-class floor: business stays want 4-star and
	// up, romantic ones the top tier.
	switch tripType(criteria.Preferences.TripType) {
	case "business":
		query.Set("hotel_class", "4,5")
	case "romantic":
		query.Set("hotel_class", "5")
	}

	if criteria.Preferences.FlexibleCancellation {
		query.Set("free_cancellation", "true")
	}

	if isRental(criteria.Preferences.PropertyType) {
		query.Set("vacation_rentals", "true")
		bedrooms := (criteria.Guests + 1) / 2
		if bedrooms > 0 {
			query.Set("bedrooms", strconv.Itoa(bedrooms))
		}
	}

	return query
}

func tripType(raw string) string {
	raw = strings.ToLower(raw)
	switch {
	case strings.Contains(raw, "business") || strings.Contains(raw, "work"):
		return "business"
	case strings.Contains(raw, "romantic") || strings.Contains(raw, "honeymoon") || strings.Contains(raw, "anniversary"):
		return "romantic"
	default:
		return ""
	}
}

func isRental(propertyType string) bool {
	propertyType = strings.ToLower(propertyType)
	for _, keyword := range []string{"apartment", "house", "rental", "villa", "cabin"} {
		if strings.Contains(propertyType, keyword) {
			return true
		}
	}
	return false
}

// mapProperty converts one upstream record, choosing the image from a
// prioritized list of possible fields before leaving it absent.
func mapProperty(p property, destination string) types.NormalizedProperty {
	location := destination
	if len(p.NearbyPlaces) > 0 && p.NearbyPlaces[0].Name != "" {
		location = fmt.Sprintf("Near %s, %s", p.NearbyPlaces[0].Name, destination)
	}

	description := p.Description
	if description == "" && p.Type != "" {
		description = fmt.Sprintf("%s in %s", p.Type, destination)
	}

	return types.NormalizedProperty{
		Name:        p.Name,
		Price:       int(p.RatePerNight.ExtractedLowest + 0.5),
		Rating:      clampRating(p.OverallRating),
		Description: description,
		Amenities:   types.DedupeAmenities(p.Amenities),
		Location:    location,
		ImageURL:    pickImage(p),
		BookingURL:  p.Link,
		Source:      "google_hotels",
	}
}

// pickImage tries the thumbnail, the first gallery image, the original
// image and the serpapi thumbnail, in that order.
func pickImage(p property) string {
	if p.Thumbnail != "" {
		return p.Thumbnail
	}
	if len(p.Images) > 0 {
		if p.Images[0].Thumbnail != "" {
			return p.Images[0].Thumbnail
		}
		if p.Images[0].OriginalImage != "" {
			return p.Images[0].OriginalImage
		}
	}
	if p.OriginalImage != "" {
		return p.OriginalImage
	}
	return p.SerpThumbnail
}

func clampRating(rating float64) float64 {
	if rating < 0 {
		return 0
	}
	if rating > 5 {
		return 5
	}
	return rating
}
