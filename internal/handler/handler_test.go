package handler_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alex-user-go/stayscout/internal/evaluate"
	"github.com/alex-user-go/stayscout/internal/handler"
	"github.com/alex-user-go/stayscout/internal/obs"
	"github.com/alex-user-go/stayscout/internal/ratelimit"
	"github.com/alex-user-go/stayscout/internal/search"
	"github.com/alex-user-go/stayscout/internal/source"
	"github.com/alex-user-go/stayscout/internal/source/demo"
	"github.com/alex-user-go/stayscout/internal/stream"
)

func newTestHandler(t *testing.T, rateLimit int) *handler.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	metrics := obs.NewMetrics(logger)
	evaluator := evaluate.New(nil, time.Second, evaluate.NopPacer{}, 1, metrics, logger)
	orchestrator := search.NewOrchestrator(
		[]source.Adapter{demo.New()},
		evaluator, 5*time.Second, 30*time.Second, 16, metrics, logger,
	)
	limiter := ratelimit.New(rateLimit, time.Minute)
	t.Cleanup(limiter.Close)
	return handler.New(orchestrator, limiter, metrics, logger)
}

// parseFrames decodes every "data: <json>" frame in an SSE body.
func parseFrames(t *testing.T, body string) []stream.Event {
	t.Helper()
	var events []stream.Event
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var event stream.Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
			t.Fatalf("invalid frame %q: %v", line, err)
		}
		events = append(events, event)
	}
	return events
}

func TestSearchHandler_StreamsResults(t *testing.T) {
	h := newTestHandler(t, 10)

	body := `{"destination":"Paris","budget":{"max":200}}`
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.SearchHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("Content-Type = %q", got)
	}

	events := parseFrames(t, rec.Body.String())
	if len(events) < 3 {
		t.Fatalf("expected progress, results and complete, got %d events", len(events))
	}

	resultsIdx := -1
	for i, e := range events {
		if e.Type == stream.TypeResults {
			if resultsIdx >= 0 {
				t.Fatal("more than one results event")
			}
			resultsIdx = i
		}
	}
	if resultsIdx < 0 {
		t.Fatal("no results event in stream")
	}
	last := events[len(events)-1]
	if last.Type != stream.TypeComplete {
		t.Fatalf("last event = %s, want complete", last.Type)
	}
	if resultsIdx >= len(events)-1 {
		t.Fatal("results event must precede complete")
	}

	results := events[resultsIdx]
	if len(results.Accommodations) == 0 {
		t.Fatal("expected accommodations for the demo destination")
	}
	for _, a := range results.Accommodations {
		if a.Price > 200 {
			t.Errorf("%q priced %d exceeds the requested budget", a.Name, a.Price)
		}
	}
	if results.Criteria == nil || results.Criteria.CheckIn == "" {
		t.Error("results event must echo the resolved criteria")
	}
}

func TestSearchHandler_InvalidBody(t *testing.T) {
	h := newTestHandler(t, 10)

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.SearchHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSearchHandler_MissingDestination(t *testing.T) {
	h := newTestHandler(t, 10)

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"guests":2}`))
	rec := httptest.NewRecorder()
	h.SearchHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("error body not JSON: %v", err)
	}
	if payload["error"] != "destination is required" {
		t.Errorf("error = %q", payload["error"])
	}
}

func TestSearchHandler_RateLimited(t *testing.T) {
	h := newTestHandler(t, 1)

	for i, wantStatus := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"destination":"Paris"}`))
		req.RemoteAddr = "203.0.113.7:1234"
		rec := httptest.NewRecorder()
		h.SearchHandler(rec, req)
		if rec.Code != wantStatus {
			t.Errorf("request %d status = %d, want %d", i+1, rec.Code, wantStatus)
		}
	}
}

func TestExtractIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "192.0.2.1:5050", nil, "192.0.2.1"},
		{"x-forwarded-for first hop", "192.0.2.1:5050", map[string]string{"X-Forwarded-For": "198.51.100.9, 10.0.0.1"}, "198.51.100.9"},
		{"x-real-ip", "192.0.2.1:5050", map[string]string{"X-Real-IP": "198.51.100.4"}, "198.51.100.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/search", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := handler.ExtractIP(req); got != tt.want {
				t.Errorf("ExtractIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
