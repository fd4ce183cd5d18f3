// Package scrape implements the browser-automation source adapter. It
// drives the booking.com search UI through a headless browser and extracts
// property cards from the rendered results page.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/alex-user-go/stayscout/internal/browser"
	"github.com/alex-user-go/stayscout/internal/search/types"
	"github.com/alex-user-go/stayscout/internal/source"
)

const baseURL = "https://www.booking.com"

// Selector fallback lists. The upstream UI renames elements regularly, so
// every interaction and extraction tries alternatives in order and degrades
// instead of failing the search.
var (
	cookieSelectors = []string{
		`#onetrust-accept-btn-handler`,
		`button[data-testid="cookie-banner-accept"]`,
		`button[data-testid="accept-cookies"]`,
	}
	destinationSelectors = []string{
		`[data-testid="destination-container"] input`,
		`#ss`,
		`input[name="ss"]`,
	}
	autocompleteSelectors = []string{
		`[data-testid="autocomplete-results"] li`,
		`.c-autocomplete__item`,
	}
	dateDisplaySelectors = []string{
		`[data-testid="date-display-field-start"]`,
		`[data-testid="date-display-field"]`,
		`.sb-date-field`,
	}
	occupancySelectors = []string{
		`[data-testid="occupancy-config"]`,
		`.sb-group-field`,
	}
	adultsIncrementSelectors = []string{
		`[data-testid="occupancy-popup"] div:first-child button:last-of-type`,
		`button[aria-label="Increase number of Adults"]`,
	}
	submitSelectors = []string{
		`[data-testid="header-search-button"]`,
		`button[type="submit"]`,
		`.sb-searchbox__button`,
	}
	cardWaitSelectors = []string{
		`[data-testid="property-card"]`,
		`.sr_property_block`,
	}
)

var errSelectorMiss = errors.New("no selector matched")

// Adapter scrapes booking.com through a real browser session. Each search
// owns its own session; sessions are never shared across searches.
type Adapter struct {
	headless      bool
	maxProperties int
	delayMin      time.Duration
	delayMax      time.Duration
	logger        *slog.Logger
}

// New creates the scraping adapter. delayMin/delayMax bound the randomized
// human pacing between UI actions; zero disables pacing.
func New(headless bool, maxProperties int, delayMin, delayMax time.Duration, logger *slog.Logger) *Adapter {
	return &Adapter{
		headless:      headless,
		maxProperties: maxProperties,
		delayMin:      delayMin,
		delayMax:      delayMax,
		logger:        logger,
	}
}

// Name identifies this source.
func (a *Adapter) Name() string { return "booking.com" }

// Search drives the upstream search UI and extracts normalized properties.
// The browser process is released on every path.
func (a *Adapter) Search(ctx context.Context, criteria types.SearchCriteria) ([]types.NormalizedProperty, error) {
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

	if err := chromedp.Run(pageCtx, chromedp.Navigate(baseURL)); err != nil {
		return nil, fmt.Errorf("%w: navigating to %s: %v", source.ErrSourceUnavailable, baseURL, err)
	}
	if err := session.RandomDelay(pageCtx, a.delayMin, a.delayMax); err != nil {
		return nil, err
	}

	// Cookie banner is optional; a miss is not an error.
	if err := clickFirst(pageCtx, cookieSelectors, 2*time.Second); err == nil {
		_ = session.RandomDelay(pageCtx, a.delayMin/2, a.delayMax/2)
	}

	if err := a.fillSearchForm(pageCtx, session, criteria); err != nil {
		return nil, fmt.Errorf("%w: filling search form: %v", source.ErrSourceUnavailable, err)
	}

	if err := clickFirst(pageCtx, submitSelectors, 5*time.Second); err != nil {
		return nil, fmt.Errorf("%w: submitting search: %v", source.ErrSourceUnavailable, err)
	}

	if err := waitFirst(pageCtx, cardWaitSelectors, 15*time.Second); err != nil {
		return nil, fmt.Errorf("%w: waiting for results: %v", source.ErrSourceUnavailable, err)
	}
	_ = session.RandomDelay(pageCtx, a.delayMin, a.delayMax)

	a.scrollResults(pageCtx, session)

	var html string
	if err := chromedp.Run(pageCtx, chromedp.OuterHTML("html", &html)); err != nil {
		return nil, fmt.Errorf("%w: reading results page: %v", source.ErrSourceUnavailable, err)
	}

	properties, err := extractProperties(html, criteria, a.maxProperties)
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

// fillSearchForm types the destination, picks the first autocomplete
// suggestion when one appears, and attempts the date picker and guest
// stepper. Date and guest interactions degrade silently; the results-page
// defaults are close enough and the pre-filter catches the rest.
func (a *Adapter) fillSearchForm(ctx context.Context, session *browser.Session, criteria types.SearchCriteria) error {
	if err := clickFirst(ctx, destinationSelectors, 5*time.Second); err != nil {
		return fmt.Errorf("destination input: %w", err)
	}
	_ = session.RandomDelay(ctx, a.delayMin/2, a.delayMax/2)

	if err := sendKeysFirst(ctx, destinationSelectors, criteria.Destination, 5*time.Second); err != nil {
		return fmt.Errorf("typing destination: %w", err)
	}
	_ = session.RandomDelay(ctx, a.delayMin, a.delayMax)

	// Select the first suggestion; continue with typed text on a miss.
	if err := clickFirst(ctx, autocompleteSelectors, 5*time.Second); err != nil {
		a.logger.Debug("no autocomplete suggestions, continuing with typed destination")
	}
	_ = session.RandomDelay(ctx, a.delayMin/2, a.delayMax/2)

	a.fillDates(ctx, session, criteria)

	if criteria.Guests > 2 {
		a.fillGuests(ctx, session, criteria.Guests)
	}
	return nil
}

// fillDates opens the calendar and clicks the data-date cells for the
// resolved check-in/check-out window.
func (a *Adapter) fillDates(ctx context.Context, session *browser.Session, criteria types.SearchCriteria) {
	if err := clickFirst(ctx, dateDisplaySelectors, 3*time.Second); err != nil {
		a.logger.Debug("date picker not found, continuing without dates", "error", err)
		return
	}
	_ = session.RandomDelay(ctx, a.delayMin/2, a.delayMax/2)

	for _, date := range []string{criteria.CheckIn, criteria.CheckOut} {
		cell := fmt.Sprintf(`[data-date=%q]`, date)
		if err := clickFirst(ctx, []string{cell, fmt.Sprintf(`td[data-date=%q]`, date)}, 3*time.Second); err != nil {
			a.logger.Debug("calendar cell not found", "date", date, "error", err)
			return
		}
		_ = session.RandomDelay(ctx, a.delayMin/2, a.delayMax/2)
	}
}

// fillGuests opens the occupancy control and steps adults up from the
// default of two.
func (a *Adapter) fillGuests(ctx context.Context, session *browser.Session, guests int) {
	if err := clickFirst(ctx, occupancySelectors, 3*time.Second); err != nil {
		a.logger.Debug("occupancy control not found, continuing with defaults", "error", err)
		return
	}
	_ = session.RandomDelay(ctx, a.delayMin/2, a.delayMax/2)

	for i := 2; i < guests; i++ {
		if err := clickFirst(ctx, adultsIncrementSelectors, 2*time.Second); err != nil {
			a.logger.Debug("guest stepper not found", "error", err)
			return
		}
		_ = session.RandomDelay(ctx, a.delayMin/4, a.delayMax/4)
	}
}

// scrollResults pages more cards into the DOM. Scroll failures only limit
// how many cards load; they never fail the search.
func (a *Adapter) scrollResults(ctx context.Context, session *browser.Session) {
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

// clickFirst clicks the first selector that resolves to a visible node,
// trying each alternative under its own short timeout.
func clickFirst(ctx context.Context, selectors []string, timeout time.Duration) error {
	for _, sel := range selectors {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		err := chromedp.Run(attemptCtx, chromedp.Click(sel, chromedp.ByQuery, chromedp.NodeVisible))
		cancel()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("%w: %s", errSelectorMiss, strings.Join(selectors, ", "))
}

// sendKeysFirst types value into the first selector that accepts input.
func sendKeysFirst(ctx context.Context, selectors []string, value string, timeout time.Duration) error {
	for _, sel := range selectors {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		err := chromedp.Run(attemptCtx,
			chromedp.Clear(sel, chromedp.ByQuery),
			chromedp.SendKeys(sel, value, chromedp.ByQuery),
		)
		cancel()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("%w: %s", errSelectorMiss, strings.Join(selectors, ", "))
}

// waitFirst waits until any of the selectors appears.
func waitFirst(ctx context.Context, selectors []string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		for _, sel := range selectors {
			attemptCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err := chromedp.Run(attemptCtx, chromedp.WaitVisible(sel, chromedp.ByQuery))
			cancel()
			if err == nil {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("%w: %s", errSelectorMiss, strings.Join(selectors, ", "))
}
