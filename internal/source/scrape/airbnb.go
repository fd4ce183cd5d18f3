package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/alex-user-go/stayscout/internal/browser"
	"github.com/alex-user-go/stayscout/internal/search/types"
	"github.com/alex-user-go/stayscout/internal/source"
)

const airbnbBaseURL = "https://www.airbnb.com"

// Airbnb UI selector fallbacks, same degradation posture as the booking.com
// lists above.
var (
	airbnbSearchInputSelectors = []string{
		`[data-testid="structured-search-input-field-query"]`,
		`input[placeholder*="Search"]`,
		`input[name="query"]`,
	}
	airbnbSuggestionSelectors = []string{
		`[data-testid="search-option"]`,
		`[role="option"]`,
	}
	airbnbSubmitSelectors = []string{
		`[data-testid="structured-search-input-search-button"]`,
		`button[type="submit"]`,
	}
	airbnbCardWaitSelectors = []string{
		`[data-testid="card-container"]`,
		`[itemprop="itemListElement"]`,
	}
)

// AirbnbAdapter scrapes airbnb.com listing search through a browser session.
// The upstream search form only needs a destination; stay dates and guest
// counts are not narrowed in the UI, so the page returns the destination's
// general listings and the pipeline's filters bound what leaves the adapter.
type AirbnbAdapter struct {
	headless      bool
	maxProperties int
	delayMin      time.Duration
	delayMax      time.Duration
	logger        *slog.Logger
}

// NewAirbnb creates the airbnb.com scraping adapter.
func NewAirbnb(headless bool, maxProperties int, delayMin, delayMax time.Duration, logger *slog.Logger) *AirbnbAdapter {
	return &AirbnbAdapter{
		headless:      headless,
		maxProperties: maxProperties,
		delayMin:      delayMin,
		delayMax:      delayMax,
		logger:        logger,
	}
}

// Name identifies this source.
func (a *AirbnbAdapter) Name() string { return "airbnb.com" }

// Search drives the airbnb.com search UI and extracts normalized listings.
func (a *AirbnbAdapter) Search(ctx context.Context, criteria types.SearchCriteria) ([]types.NormalizedProperty, error) {
	session, err := browser.NewSession(ctx, a.headless)
	if err != nil {
		return nil, fmt.Errorf("%w: launching browser: %v", source.ErrSourceUnavailable, err)
	}
	defer session.Close()

	pageCtx, pageCancel, err := session.NewPage()
	if err != nil {
		return nil, fmt.Errorf("%w: creating page: %v", source.ErrSourceUnavailable, err)
	}
	defer pageCancel()

	if err := chromedp.Run(pageCtx, chromedp.Navigate(airbnbBaseURL)); err != nil {
		return nil, fmt.Errorf("%w: navigating to %s: %v", source.ErrSourceUnavailable, airbnbBaseURL, err)
	}
	if err := session.RandomDelay(pageCtx, a.delayMin, a.delayMax); err != nil {
		return nil, err
	}

	if err := clickFirst(pageCtx, airbnbSearchInputSelectors, 5*time.Second); err != nil {
		return nil, fmt.Errorf("%w: search input: %v", source.ErrSourceUnavailable, err)
	}
	_ = session.RandomDelay(pageCtx, a.delayMin/2, a.delayMax/2)

	if err := sendKeysFirst(pageCtx, airbnbSearchInputSelectors, criteria.Destination, 5*time.Second); err != nil {
		return nil, fmt.Errorf("%w: typing destination: %v", source.ErrSourceUnavailable, err)
	}
	_ = session.RandomDelay(pageCtx, a.delayMin, a.delayMax)

	// Pick the first suggestion; a miss leaves the typed text in place.
	if err := clickFirst(pageCtx, airbnbSuggestionSelectors, 5*time.Second); err != nil {
		a.logger.Debug("no suggestions, continuing with typed destination")
	}
	_ = session.RandomDelay(pageCtx, a.delayMin/2, a.delayMax/2)

	if err := clickFirst(pageCtx, airbnbSubmitSelectors, 5*time.Second); err != nil {
		return nil, fmt.Errorf("%w: submitting search: %v", source.ErrSourceUnavailable, err)
	}

	if err := waitFirst(pageCtx, airbnbCardWaitSelectors, 15*time.Second); err != nil {
		return nil, fmt.Errorf("%w: waiting for results: %v", source.ErrSourceUnavailable, err)
	}
	_ = session.RandomDelay(pageCtx, a.delayMin, a.delayMax)

	a.scrollResults(pageCtx, session)

	var html string
	if err := chromedp.Run(pageCtx, chromedp.OuterHTML("html", &html)); err != nil {
		return nil, fmt.Errorf("%w: reading results page: %v", source.ErrSourceUnavailable, err)
	}

	properties, err := extractAirbnbProperties(html, criteria, a.maxProperties)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrSourceUnavailable, err)
	}

	a.logger.Info("scrape complete",
		"source", a.Name(),
		"destination", criteria.Destination,
		"properties", len(properties),
	)
	return properties, nil
}

func (a *AirbnbAdapter) scrollResults(ctx context.Context, session *browser.Session) {
	for i := 0; i < 3; i++ {
		err := chromedp.Run(ctx,
			chromedp.Evaluate(`window.scrollBy(0, window.innerHeight);`, nil),
		)
		if err != nil {
			a.logger.Debug("scroll failed", "error", err)
			return
		}
		_ = session.RandomDelay(ctx, a.delayMin/2, a.delayMax/2)
	}
}
