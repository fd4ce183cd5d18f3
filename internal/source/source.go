package source

import (
	"context"
	"errors"

	"github.com/alex-user-go/stayscout/internal/search/types"
)

// Adapter is the common capability every upstream property source implements.
// Implementations own their retry and timeout policy, never block past their
// bounded per-request budget, and only emit properties that already satisfy
// types.NormalizedProperty.Valid; unmappable upstream records are dropped,
// not forwarded malformed. Criteria arrive fully resolved (dates, guests,
// currency) from the orchestrator.
type Adapter interface {
	// Name identifies the source in logs and property tags.
	Name() string

	// Search returns normalized candidates for the criteria.
	Search(ctx context.Context, criteria types.SearchCriteria) ([]types.NormalizedProperty, error)
}

// ErrSourceUnavailable is returned when an adapter could not reach or parse
// its upstream at all.
var ErrSourceUnavailable = errors.New("source unavailable")
