// Package bookingapi implements the keyed REST source adapter against the
// booking.com RapidAPI service: resolve the destination name to a provider
// location id, then issue a parameterized hotel search with that id.
package bookingapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/karlseguin/ccache/v3"

	"github.com/alex-user-go/stayscout/internal/search/types"
	"github.com/alex-user-go/stayscout/internal/source"
)

const (
	defaultBaseURL = "https://booking-com.p.rapidapi.com/v1"
	rapidAPIHost   = "booking-com.p.rapidapi.com"

	// Destination ids are stable; cache lookups so repeated searches for
	// the same city skip the extra round trip.
	destCacheSize = 1000
	destCacheTTL  = 12 * time.Hour

	maxRetries = 2
)

// location is one entry of the destination lookup response.
type location struct {
	DestID   string `json:"dest_id"`
	DestType string `json:"dest_type"`
	Name     string `json:"name"`
}

// hotel is one entry of the typed hotel search response.
type hotel struct {
	HotelID               json.Number `json:"hotel_id"`
	HotelName             string      `json:"hotel_name"`
	Address               string      `json:"address"`
	MinTotalPrice         float64     `json:"min_total_price"`
	ReviewScore           float64     `json:"review_score"`
	ReviewScoreWord       string      `json:"review_score_word"`
	ReviewNr              int         `json:"review_nr"`
	MainPhotoURL          string      `json:"main_photo_url"`
	URL                   string      `json:"url"`
	AccommodationTypeName string      `json:"accommodation_type_name"`
	DistanceToCC          string      `json:"distance_to_cc"`
}

type searchResponse struct {
	Result []hotel `json:"result"`
}

// Adapter queries the booking.com REST API.
type Adapter struct {
	apiKey        string
	baseURL       string
	maxProperties int
	httpClient    *http.Client
	destCache     *ccache.Cache[string]
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
		destCache:     ccache.New(ccache.Configure[string]().MaxSize(destCacheSize)),
		logger:        logger,
	}
}

// Name identifies this source.
func (a *Adapter) Name() string { return "booking.com-api" }

// Search resolves the destination id and searches hotels for the criteria.
func (a *Adapter) Search(ctx context.Context, criteria types.SearchCriteria) ([]types.NormalizedProperty, error) {
	destID, err := a.destinationID(ctx, criteria.Destination)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving destination %q: %v", source.ErrSourceUnavailable, criteria.Destination, err)
	}

	properties, err := a.searchHotels(ctx, destID, criteria)
	if err != nil {
		return nil, fmt.Errorf("%w: searching hotels: %v", source.ErrSourceUnavailable, err)
	}

	a.logger.Info("api search complete",
		"source", a.Name(),
		"destination", criteria.Destination,
		"dest_id", destID,
		"properties", len(properties),
	)
	return properties, nil
}

// destinationID maps a destination name to the provider's location id,
// preferring city and region matches, with a TTL cache in front.
func (a *Adapter) destinationID(ctx context.Context, destination string) (string, error) {
	if item := a.destCache.Get(destination); item != nil && !item.Expired() {
		return item.Value(), nil
	}

	query := url.Values{}
	query.Set("name", destination)
	query.Set("locale", "en-gb")

	var locations []location
	if err := a.getJSON(ctx, "/hotels/locations", query, &locations); err != nil {
		return "", err
	}

	for _, loc := range locations {
		if loc.DestType == "city" || loc.DestType == "region" {
			if loc.DestID != "" {
				a.destCache.Set(destination, loc.DestID, destCacheTTL)
				return loc.DestID, nil
			}
		}
	}
	return "", fmt.Errorf("no city or region match for %q", destination)
}

// searchHotels issues the parameterized search. Criteria arrive fully
// resolved, so the provider's required date/guest/currency fields are
// always populated.
func (a *Adapter) searchHotels(ctx context.Context, destID string, criteria types.SearchCriteria) ([]types.NormalizedProperty, error) {
	query := url.Values{}
	query.Set("dest_id", destID)
	query.Set("dest_type", "city")
	query.Set("order_by", "popularity")
	query.Set("adults_number", strconv.Itoa(criteria.Guests))
	query.Set("room_number", "1")
	query.Set("filter_by_currency", criteria.Budget.Currency)
	query.Set("locale", "en-gb")
	query.Set("units", "metric")
	query.Set("checkin_date", criteria.CheckIn)
	query.Set("checkout_date", criteria.CheckOut)

	var resp searchResponse
	if err := a.getJSON(ctx, "/hotels/search", query, &resp); err != nil {
		return nil, err
	}

	properties := make([]types.NormalizedProperty, 0, a.maxProperties)
	for _, h := range resp.Result {
		p := mapHotel(h)
		if !p.Valid() {
			continue
		}
		properties = append(properties, p)
		if len(properties) >= a.maxProperties {
			break
		}
	}
	return properties, nil
}

// mapHotel is the total mapping from the provider payload to the normalized
// contract: every missing field becomes a default, never a nil.
func mapHotel(h hotel) types.NormalizedProperty {
	name := h.HotelName
	location := h.Address
	if location == "" {
		location = "Location not specified"
	}

	accommodationType := h.AccommodationTypeName
	if accommodationType == "" {
		accommodationType = "Accommodation"
	}
	description := fmt.Sprintf("%s in %s.", accommodationType, location)
	if h.ReviewScoreWord != "" {
		description = fmt.Sprintf("%s %s rated property with %d reviews.", description, h.ReviewScoreWord, h.ReviewNr)
	}

	amenities := []string{accommodationType}
	if h.DistanceToCC != "" {
		amenities = append(amenities, fmt.Sprintf("%s from city center", h.DistanceToCC))
	}
	amenities = append(amenities, "WiFi", "Reception", "Room Service")

	rating := h.ReviewScore
	if rating > 5 {
		// Review scores come back on a 10-point scale.
		rating = rating / 2
	}

	return types.NormalizedProperty{
		Name:        name,
		Price:       int(h.MinTotalPrice + 0.5),
		Rating:      rating,
		Description: description,
		Amenities:   types.DedupeAmenities(amenities),
		Location:    location,
		ImageURL:    h.MainPhotoURL,
		BookingURL:  h.URL,
		Source:      "booking.com",
	}
}

// getJSON performs a keyed GET with bounded exponential-backoff retries on
// transient failures. Client errors are permanent.
func (a *Adapter) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	endpoint := a.baseURL + path + "?" + query.Encode()

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("X-RapidAPI-Key", a.apiKey)
		req.Header.Set("X-RapidAPI-Host", rapidAPIHost)

		resp, err := a.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer func() {
			_ = resp.Body.Close()
		}()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			err := fmt.Errorf("status %d: %s", resp.StatusCode, body)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return backoff.Permanent(err)
			}
			return err
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("decoding response: %w", err))
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
	return backoff.Retry(operation, policy)
}
