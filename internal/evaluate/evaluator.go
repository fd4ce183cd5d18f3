// Package evaluate scores pre-filtered candidates against the search
// criteria, preferring a model call with a parseable structured response
// and falling back to a deterministic heuristic on any failure.
package evaluate

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/tmc/langchaingo/llms"

	"github.com/alex-user-go/stayscout/internal/obs"
	"github.com/alex-user-go/stayscout/internal/search/types"
)

const temperature = 0.3

var (
	scoreRe     = regexp.MustCompile(`(?i)SCORE:\s*(\d+)`)
	reasoningRe = regexp.MustCompile(`(?is)REASONING:\s*(.+)`)
)

// Evaluator scores candidates one model call each. A nil model skips the
// call entirely and scores every candidate heuristically.
type Evaluator struct {
	model    llms.Model
	timeout  time.Duration
	pacer    Pacer
	poolSize int
	metrics  *obs.Metrics
	logger   *slog.Logger
}

// New creates an Evaluator. poolSize bounds concurrent model calls and is
// clamped to at least 1.
func New(model llms.Model, timeout time.Duration, pacer Pacer, poolSize int, metrics *obs.Metrics, logger *slog.Logger) *Evaluator {
	if pacer == nil {
		pacer = NopPacer{}
	}
	if poolSize < 1 {
		poolSize = 1
	}
	return &Evaluator{
		model:    model,
		timeout:  timeout,
		pacer:    pacer,
		poolSize: poolSize,
		metrics:  metrics,
		logger:   logger,
	}
}

// Evaluate scores every candidate and returns evaluations sorted
// non-increasing by match score. Evaluations are written back by input
// index before the sort, so ties keep their pre-filter order regardless of
// which model calls finish first.
func (e *Evaluator) Evaluate(ctx context.Context, properties []types.NormalizedProperty, criteria types.SearchCriteria) []types.PropertyEvaluation {
	evaluations := make([]types.PropertyEvaluation, len(properties))

	pool, err := ants.NewPool(e.poolSize)
	if err != nil {
		// Degraded but correct: evaluate inline.
		for i, p := range properties {
			evaluations[i] = e.evaluateOne(ctx, p, criteria)
		}
	} else {
		defer pool.Release()
		var wg sync.WaitGroup
		for i, p := range properties {
			wg.Add(1)
			i, p := i, p
			task := func() {
				defer wg.Done()
				evaluations[i] = e.evaluateOne(ctx, p, criteria)
			}
			if err := pool.Submit(task); err != nil {
				task()
			}
		}
		wg.Wait()
	}

	sort.SliceStable(evaluations, func(i, j int) bool {
		return evaluations[i].MatchScore > evaluations[j].MatchScore
	})
	return evaluations
}

// evaluateOne produces exactly one evaluation. Call failure falls back to
// the deterministic heuristic; parse failure falls back to a neutral 50.
// Either way the candidate is never dropped.
func (e *Evaluator) evaluateOne(ctx context.Context, p types.NormalizedProperty, criteria types.SearchCriteria) types.PropertyEvaluation {
	if e.model == nil {
		return types.PropertyEvaluation{
			Property:   p,
			MatchScore: FallbackScore(p, criteria.Budget),
			Reasoning:  "Scored heuristically from price, rating and amenities",
		}
	}

	if err := e.pacer.Wait(ctx); err != nil {
		return e.fallback(p, criteria, "evaluation cancelled", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(buildPrompt(p, criteria))},
		},
	}
	response, err := e.model.GenerateContent(callCtx, content, llms.WithTemperature(temperature))
	if err != nil {
		return e.fallback(p, criteria, "model call failed", err)
	}
	if len(response.Choices) == 0 {
		return e.fallback(p, criteria, "empty model response", nil)
	}

	score, reasoning, ok := parseResponse(response.Choices[0].Content)
	if !ok {
		e.logger.Warn("unparseable evaluation response", "property", p.Name)
		return types.PropertyEvaluation{
			Property:   p,
			MatchScore: 50,
			Reasoning:  "Unable to parse evaluation response, using neutral score",
		}
	}

	return types.PropertyEvaluation{
		Property:   p,
		MatchScore: score,
		Reasoning:  reasoning,
	}
}

func (e *Evaluator) fallback(p types.NormalizedProperty, criteria types.SearchCriteria, cause string, err error) types.PropertyEvaluation {
	e.metrics.IncEvalFallbacks()
	e.logger.Warn("evaluation fallback", "property", p.Name, "cause", cause, "error", err)
	return types.PropertyEvaluation{
		Property:   p,
		MatchScore: FallbackScore(p, criteria.Budget),
		Reasoning:  "Evaluation unavailable, using fallback scoring based on price and rating",
	}
}

// parseResponse extracts the SCORE and REASONING lines from a structured
// model response. ok is false when no score line is present.
func parseResponse(response string) (score int, reasoning string, ok bool) {
	match := scoreRe.FindStringSubmatch(response)
	if match == nil {
		return 0, "", false
	}
	parsed, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, "", false
	}
	score = clampScore(parsed)

	reasoning = "No reasoning provided"
	if m := reasoningRe.FindStringSubmatch(response); m != nil {
		reasoning = strings.TrimSpace(m[1])
	}
	return score, reasoning, true
}
