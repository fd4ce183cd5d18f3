package serphotels_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alex-user-go/stayscout/internal/search/types"
	"github.com/alex-user-go/stayscout/internal/source"
	"github.com/alex-user-go/stayscout/internal/source/serphotels"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func TestBuildQuery(t *testing.T) {
	base := types.SearchCriteria{
		Destination: "Lisbon",
		CheckIn:     "2026-09-04",
		CheckOut:    "2026-09-07",
		Guests:      2,
		Budget:      types.BudgetRange{Currency: "USD"},
	}

	tests := []struct {
		name    string
		mutate  func(*types.SearchCriteria)
		want    map[string]string
		missing []string
	}{
		{
			name:   "defaults",
			mutate: func(c *types.SearchCriteria) {},
			want: map[string]string{
				"engine":         "google_hotels",
				"q":              "Lisbon hotels",
				"check_in_date":  "2026-09-04",
				"check_out_date": "2026-09-07",
				"adults":         "2",
				"currency":       "USD",
			},
			missing: []string{"min_price", "max_price", "hotel_class", "free_cancellation", "vacation_rentals"},
		},
		{
			name: "price band",
			mutate: func(c *types.SearchCriteria) {
				c.Budget.Min = 80
				c.Budget.Max = 250
			},
			want: map[string]string{"min_price": "80", "max_price": "250"},
		},
		{
			name:   "business trip wants 4 stars and up",
			mutate: func(c *types.SearchCriteria) { c.Preferences.TripType = "business trip" },
			want:   map[string]string{"hotel_class": "4,5"},
		},
		{
			name:   "honeymoon wants the top tier",
			mutate: func(c *types.SearchCriteria) { c.Preferences.TripType = "Honeymoon" },
			want:   map[string]string{"hotel_class": "5"},
		},
		{
			name:   "flexible cancellation",
			mutate: func(c *types.SearchCriteria) { c.Preferences.FlexibleCancellation = true },
			want:   map[string]string{"free_cancellation": "true"},
		},
		{
			name: "rental with bedrooms from guests",
			mutate: func(c *types.SearchCriteria) {
				c.Preferences.PropertyType = "apartment"
				c.Guests = 5
			},
			want: map[string]string{"vacation_rentals": "true", "bedrooms": "3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			criteria := base
			tt.mutate(&criteria)
			query := serphotels.BuildQuery(criteria, "test-key")

			for param, want := range tt.want {
				if got := query.Get(param); got != want {
					t.Errorf("%s = %q, want %q", param, got, want)
				}
			}
			for _, param := range tt.missing {
				if query.Has(param) {
					t.Errorf("%s should not be set, got %q", param, query.Get(param))
				}
			}
		})
	}
}

func TestSearch_MapsResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("engine"); got != "google_hotels" {
			t.Errorf("engine = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"properties": []map[string]any{
				{
					"name":           "Memmo Alfama",
					"description":    "Boutique hotel with river views.",
					"link":           "https://hotels.example/memmo",
					"rate_per_night": map[string]any{"extracted_lowest": 189.4},
					"overall_rating": 4.5,
					"amenities":      []string{"WiFi", "Pool", "WiFi"},
					"thumbnail":      "https://img.example/thumb.jpg",
					"nearby_places":  []map[string]any{{"name": "Alfama"}},
				},
				{
					"name":           "", // invalid, dropped
					"rate_per_night": map[string]any{"extracted_lowest": 10.0},
				},
			},
		})
	}))
	defer server.Close()

	adapter := serphotels.New("test-key", server.URL, 8, 5*time.Second, testLogger())
	criteria := types.SearchCriteria{Destination: "Lisbon", Guests: 2, Budget: types.BudgetRange{Currency: "USD"}}
	properties, err := adapter.Search(context.Background(), criteria)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}

	if len(properties) != 1 {
		t.Fatalf("expected 1 property, got %d", len(properties))
	}
	p := properties[0]
	if p.Name != "Memmo Alfama" {
		t.Errorf("name = %q", p.Name)
	}
	if p.Price != 189 {
		t.Errorf("price = %d, want 189", p.Price)
	}
	if p.Location != "Near Alfama, Lisbon" {
		t.Errorf("location = %q", p.Location)
	}
	if p.ImageURL != "https://img.example/thumb.jpg" {
		t.Errorf("image = %q", p.ImageURL)
	}
	if len(p.Amenities) != 2 {
		t.Errorf("amenities not deduplicated: %v", p.Amenities)
	}
	if p.Source != "google_hotels" {
		t.Errorf("source = %q", p.Source)
	}
}

func TestSearch_ImageFallbackOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"properties": []map[string]any{
				{
					"name":           "No thumbnail",
					"rate_per_night": map[string]any{"extracted_lowest": 100.0},
					"images": []map[string]any{
						{"thumbnail": "", "original_image": "https://img.example/original.jpg"},
					},
					"serpapi_thumbnail": "https://img.example/serp.jpg",
				},
			},
		})
	}))
	defer server.Close()

	adapter := serphotels.New("test-key", server.URL, 8, 5*time.Second, testLogger())
	properties, err := adapter.Search(context.Background(), types.SearchCriteria{Destination: "Lisbon"})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(properties) != 1 {
		t.Fatalf("expected 1 property, got %d", len(properties))
	}
	if got := properties[0].ImageURL; got != "https://img.example/original.jpg" {
		t.Errorf("image = %q, want first gallery original", got)
	}
}

func TestSearch_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	adapter := serphotels.New("test-key", server.URL, 8, 5*time.Second, testLogger())
	_, err := adapter.Search(context.Background(), types.SearchCriteria{Destination: "Lisbon"})
	if !errors.Is(err, source.ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable, got %v", err)
	}
}
