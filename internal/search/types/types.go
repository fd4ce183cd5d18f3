package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateFormat is the wire format for check-in/check-out dates.
const DateFormat = "2006-01-02"

// Default forward-looking booking window applied when the caller omits both
// dates, and the stay length used to derive one missing bound from the other.
const (
	defaultCheckInOffset  = 7 * 24 * time.Hour
	defaultCheckOutOffset = 10 * 24 * time.Hour
	defaultStay           = 3 * 24 * time.Hour
)

// BudgetRange is a nightly price band. A zero bound is unbounded on that side.
type BudgetRange struct {
	Min      int    `json:"min,omitempty"`
	Max      int    `json:"max,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// Preferences are soft criteria that sources may push upstream but that never
// hard-filter a candidate on their own.
type Preferences struct {
	Amenities            []string `json:"amenities,omitempty"`
	PropertyType         string   `json:"propertyType,omitempty"`
	Location             string   `json:"location,omitempty"`
	TripType             string   `json:"tripType,omitempty"`
	FlexibleCancellation bool     `json:"flexibleCancellation,omitempty"`
}

// SearchCriteria is the input contract handed to the orchestrator.
type SearchCriteria struct {
	Destination string      `json:"destination"`
	CheckIn     string      `json:"checkIn,omitempty"`
	CheckOut    string      `json:"checkOut,omitempty"`
	Guests      int         `json:"guests,omitempty"`
	Budget      BudgetRange `json:"budget,omitempty"`
	Preferences Preferences `json:"preferences,omitempty"`
}

// ErrNoDestination is returned when criteria lack a destination.
var ErrNoDestination = errors.New("destination is required")

// ResolveDefaults returns a copy of the criteria with missing fields filled:
// a +7/+10 day booking window when both dates are absent, a three-night stay
// derived from whichever date was given when only one is, two guests and USD
// currency. Adapters always receive fully resolved criteria; date resolution
// never happens downstream.
func (c SearchCriteria) ResolveDefaults(now time.Time) (SearchCriteria, error) {
	if strings.TrimSpace(c.Destination) == "" {
		return c, ErrNoDestination
	}
	c.Destination = strings.TrimSpace(c.Destination)

	haveCheckIn := strings.TrimSpace(c.CheckIn) != ""
	haveCheckOut := strings.TrimSpace(c.CheckOut) != ""
	switch {
	case !haveCheckIn && !haveCheckOut:
		c.CheckIn = now.Add(defaultCheckInOffset).Format(DateFormat)
		c.CheckOut = now.Add(defaultCheckOutOffset).Format(DateFormat)
	case haveCheckIn && !haveCheckOut:
		if t, err := time.Parse(DateFormat, c.CheckIn); err == nil {
			c.CheckOut = t.Add(defaultStay).Format(DateFormat)
		}
	case !haveCheckIn && haveCheckOut:
		if t, err := time.Parse(DateFormat, c.CheckOut); err == nil {
			c.CheckIn = t.Add(-defaultStay).Format(DateFormat)
		}
	}

	checkIn, err := time.Parse(DateFormat, c.CheckIn)
	if err != nil {
		return c, fmt.Errorf("invalid check-in date %q: %w", c.CheckIn, err)
	}
	checkOut, err := time.Parse(DateFormat, c.CheckOut)
	if err != nil {
		return c, fmt.Errorf("invalid check-out date %q: %w", c.CheckOut, err)
	}
	if !checkOut.After(checkIn) {
		return c, fmt.Errorf("check-out %s must be after check-in %s", c.CheckOut, c.CheckIn)
	}

	if c.Guests <= 0 {
		c.Guests = 2
	}
	if c.Budget.Currency == "" {
		c.Budget.Currency = "USD"
	}

	return c, nil
}

// NormalizedProperty is the adapter-agnostic representation of one lodging
// candidate. Created by an adapter, immutable afterward.
type NormalizedProperty struct {
	Name        string   `json:"name"`
	Price       int      `json:"price"`
	Rating      float64  `json:"rating,omitempty"`
	Description string   `json:"description,omitempty"`
	Amenities   []string `json:"amenities"`
	Location    string   `json:"location"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	BookingURL  string   `json:"bookingUrl,omitempty"`
	Source      string   `json:"source"`
}

// Valid reports whether the property meets the minimal contract every
// adapter must enforce before emitting it.
func (p NormalizedProperty) Valid() bool {
	return strings.TrimSpace(p.Name) != "" && p.Price > 0
}

// DedupeAmenities trims, drops empties and removes case-insensitive
// duplicates while preserving first-seen order.
func DedupeAmenities(amenities []string) []string {
	seen := make(map[string]struct{}, len(amenities))
	out := make([]string, 0, len(amenities))
	for _, a := range amenities {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		key := strings.ToLower(a)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}

// PropertyEvaluation wraps one property with its match score and rationale.
// Created once by the evaluator and never revised.
type PropertyEvaluation struct {
	Property   NormalizedProperty `json:"property"`
	MatchScore int                `json:"matchScore"`
	Reasoning  string             `json:"reasoning"`
}

// AccommodationResult is the public output shape. IDs are assigned by final
// rank position and are an artifact of sort order, not of any source.
type AccommodationResult struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       int      `json:"price"`
	Rating      float64  `json:"rating"`
	Description string   `json:"description"`
	Amenities   []string `json:"amenities"`
	Location    string   `json:"location"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	BookingURL  string   `json:"bookingUrl,omitempty"`
	MatchScore  int      `json:"matchScore"`
	Reasoning   string   `json:"reasoning,omitempty"`
	Source      string   `json:"source"`
}

// ResultFromEvaluation maps one ranked evaluation to its public shape.
// rank is the 1-based final position.
func ResultFromEvaluation(eval PropertyEvaluation, rank int) AccommodationResult {
	p := eval.Property
	description := p.Description
	if description == "" {
		description = "No description available"
	}
	return AccommodationResult{
		ID:          fmt.Sprintf("property-%d", rank),
		Name:        p.Name,
		Price:       p.Price,
		Rating:      p.Rating,
		Description: description,
		Amenities:   p.Amenities,
		Location:    p.Location,
		ImageURL:    p.ImageURL,
		BookingURL:  p.BookingURL,
		MatchScore:  eval.MatchScore,
		Reasoning:   eval.Reasoning,
		Source:      p.Source,
	}
}
