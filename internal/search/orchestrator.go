// Package search drives the accommodation pipeline: criteria resolution,
// concurrent source fan-out, pre-filtering, evaluation and ranking.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alex-user-go/stayscout/internal/obs"
	"github.com/alex-user-go/stayscout/internal/search/types"
	"github.com/alex-user-go/stayscout/internal/source"
	"github.com/alex-user-go/stayscout/internal/stream"
)

// Evaluator scores surviving candidates. Implementations recover their own
// failures internally and return one evaluation per candidate, sorted
// non-increasing by match score.
type Evaluator interface {
	Evaluate(ctx context.Context, properties []types.NormalizedProperty, criteria types.SearchCriteria) []types.PropertyEvaluation
}

// Orchestrator fans criteria out to the configured adapters, merges and
// filters their output and hands survivors to the evaluator.
type Orchestrator struct {
	adapters       []source.Adapter
	evaluator      Evaluator
	adapterTimeout time.Duration
	searchBudget   time.Duration
	maxTotal       int
	metrics        *obs.Metrics
	logger         *slog.Logger
	clock          func() time.Time
}

// NewOrchestrator creates an Orchestrator. maxTotal caps the merged raw list
// before filtering; searchBudget bounds one whole Run.
func NewOrchestrator(
	adapters []source.Adapter,
	evaluator Evaluator,
	adapterTimeout time.Duration,
	searchBudget time.Duration,
	maxTotal int,
	metrics *obs.Metrics,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		adapters:       adapters,
		evaluator:      evaluator,
		adapterTimeout: adapterTimeout,
		searchBudget:   searchBudget,
		maxTotal:       maxTotal,
		metrics:        metrics,
		logger:         logger,
		clock:          time.Now,
	}
}

// adapterOutcome is one settled fan-out task. Collecting (result, err) pairs
// keeps a single failing source from cancelling its siblings.
type adapterOutcome struct {
	name       string
	properties []types.NormalizedProperty
	err        error
}

// Run executes one search. Contract, on every code path including panics:
// at most one results event and exactly one terminal complete event. A
// failing adapter degrades to an empty result set plus a progress notice; an
// empty merged list is a valid non-error outcome reported as results{[]}.
func (o *Orchestrator) Run(ctx context.Context, criteria types.SearchCriteria, sink stream.Sink) (results []types.AccommodationResult) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("orchestrator panic", "panic", r)
			sink.Send(stream.Error("Search encountered an internal error. Please try again."))
			results = nil
		}
		sink.Send(stream.Complete())
	}()

	ctx, cancel := context.WithTimeout(ctx, o.searchBudget)
	defer cancel()

	resolved, err := criteria.ResolveDefaults(o.clock())
	if err != nil {
		o.logger.Error("invalid search criteria", "error", err)
		sink.Send(stream.Error(fmt.Sprintf("Invalid search criteria: %v", err)))
		sink.Send(stream.Results(nil, criteria))
		return []types.AccommodationResult{}
	}

	sink.Send(stream.Progress(fmt.Sprintf("Searching %d sources for properties in %s...", len(o.adapters), resolved.Destination)))

	outcomes := o.fanOut(ctx, resolved)

	var merged []types.NormalizedProperty
	for _, outcome := range outcomes {
		if outcome.err != nil {
			o.metrics.IncSourceErrors()
			o.logger.Warn("source degraded",
				"source", outcome.name,
				"destination", resolved.Destination,
				"error", outcome.err,
			)
			sink.Send(stream.Progress(fmt.Sprintf("%s search encountered issues, continuing with available results...", outcome.name)))
			continue
		}
		merged = append(merged, outcome.properties...)
	}
	if o.maxTotal > 0 && len(merged) > o.maxTotal {
		merged = merged[:o.maxTotal]
	}

	if len(merged) == 0 {
		sink.Send(stream.Progress("No properties found. Consider adjusting your search criteria."))
		sink.Send(stream.Results(nil, resolved))
		return []types.AccommodationResult{}
	}

	filtered := Prefilter(merged, resolved)
	if len(filtered) == 0 {
		sink.Send(stream.Progress("No properties matched the budget and quality requirements. Consider adjusting your search criteria."))
		sink.Send(stream.Results(nil, resolved))
		return []types.AccommodationResult{}
	}

	sink.Send(stream.Progress(fmt.Sprintf("Found %d properties. Evaluating %d candidates...", len(merged), len(filtered))))

	evaluations := o.evaluator.Evaluate(ctx, filtered, resolved)

	results = make([]types.AccommodationResult, 0, len(evaluations))
	for i, eval := range evaluations {
		results = append(results, types.ResultFromEvaluation(eval, i+1))
	}

	sink.Send(stream.Progress("Search complete. Properties ranked by match score."))
	sink.Send(stream.Results(results, resolved))
	return results
}

// fanOut queries every adapter concurrently and waits for all of them to
// settle. Outcomes come back in adapter order regardless of completion
// order, and an adapter panic settles as an error rather than tearing down
// the barrier.
func (o *Orchestrator) fanOut(ctx context.Context, criteria types.SearchCriteria) []adapterOutcome {
	outcomes := make([]adapterOutcome, len(o.adapters))
	done := make(chan int, len(o.adapters))

	for i, adapter := range o.adapters {
		go func(i int, adapter source.Adapter) {
			defer func() {
				if r := recover(); r != nil {
					outcomes[i] = adapterOutcome{
						name: adapter.Name(),
						err:  fmt.Errorf("%w: panic: %v", source.ErrSourceUnavailable, r),
					}
				}
				done <- i
			}()

			callCtx, cancel := context.WithTimeout(ctx, o.adapterTimeout)
			defer cancel()

			start := time.Now()
			properties, err := adapter.Search(callCtx, criteria)
			o.logger.Info("source settled",
				"source", adapter.Name(),
				"properties", len(properties),
				"duration_ms", time.Since(start).Milliseconds(),
				"error", err,
			)
			outcomes[i] = adapterOutcome{name: adapter.Name(), properties: properties, err: err}
		}(i, adapter)
	}

	for range o.adapters {
		<-done
	}
	return outcomes
}
