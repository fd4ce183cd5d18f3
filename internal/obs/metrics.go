package obs

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Metrics tracks pipeline counters using atomics.
type Metrics struct {
	searches      atomic.Int64
	sourceErrors  atomic.Int64
	evalFallbacks atomic.Int64
	logger        *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{logger: logger}
}

// IncSearches increments the search request counter.
func (m *Metrics) IncSearches() {
	m.searches.Add(1)
}

// IncSourceErrors increments the degraded-source counter.
func (m *Metrics) IncSourceErrors() {
	m.sourceErrors.Add(1)
}

// IncEvalFallbacks increments the heuristic-fallback counter.
func (m *Metrics) IncEvalFallbacks() {
	m.evalFallbacks.Add(1)
}

// Snapshot returns current metric values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Searches:      m.searches.Load(),
		SourceErrors:  m.sourceErrors.Load(),
		EvalFallbacks: m.evalFallbacks.Load(),
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	Searches      int64
	SourceErrors  int64
	EvalFallbacks int64
}

// HealthHandler returns a handler for /healthz requests.
func HealthHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("failed to write health response", "error", err)
		}
	}
}

// MetricsHandler returns a handler for /metrics requests in Prometheus format.
func (m *Metrics) MetricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := m.Snapshot()

		counters := []struct {
			name  string
			help  string
			value int64
		}{
			{"searches_total", "Total number of accommodation searches", snapshot.Searches},
			{"source_errors_total", "Total number of degraded source calls", snapshot.SourceErrors},
			{"evaluation_fallbacks_total", "Total number of heuristic score fallbacks", snapshot.EvalFallbacks},
		}

		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.WriteHeader(http.StatusOK)

		for _, c := range counters {
			_, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n", c.name, c.help, c.name, c.name, c.value)
			if err != nil {
				m.logger.Error("failed to write metrics", "error", err)
				return
			}
		}
	}
}
