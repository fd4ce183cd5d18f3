// Package stream defines the one-way progress event protocol between the
// search pipeline and its caller, plus the server-sent-events transport.
package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/alex-user-go/stayscout/internal/search/types"
)

// Event types.
const (
	TypeProgress = "progress"
	TypeResults  = "results"
	TypeError    = "error"
	TypeComplete = "complete"
)

// Event is one tagged message on the progress stream. Message is set for
// progress and error events; Accommodations and Criteria for results events.
type Event struct {
	Type           string                      `json:"type"`
	Message        string                      `json:"message,omitempty"`
	Accommodations []types.AccommodationResult `json:"accommodations,omitzero"`
	Criteria       *types.SearchCriteria       `json:"searchCriteria,omitempty"`
}

// Progress builds a progress event.
func Progress(message string) Event {
	return Event{Type: TypeProgress, Message: message}
}

// Results builds the single results event. The accommodations slice is
// always non-nil so an empty result set serializes as [] rather than null.
func Results(results []types.AccommodationResult, criteria types.SearchCriteria) Event {
	if results == nil {
		results = []types.AccommodationResult{}
	}
	return Event{Type: TypeResults, Accommodations: results, Criteria: &criteria}
}

// Error builds an informational error event.
func Error(message string) Event {
	return Event{Type: TypeError, Message: message}
}

// Complete builds the terminal event.
func Complete() Event {
	return Event{Type: TypeComplete}
}

// Sink receives pipeline events. Implementations must tolerate calls from
// the orchestrator goroutine only; they are not required to be thread-safe.
type Sink interface {
	Send(event Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Send calls f(event).
func (f SinkFunc) Send(event Event) { f(event) }

// SSEWriter streams events to an HTTP response as server-sent events, one
// "data: <json>" frame per event, flushed immediately so the caller can
// render incremental status before final results arrive.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter sets the event-stream headers and returns a writer. The
// returned error indicates the ResponseWriter cannot stream.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	return &SSEWriter{w: w, flusher: flusher}, nil
}

// Send writes one event frame. Marshal and write failures are swallowed: a
// broken client connection must not disturb the pipeline, which still owes
// its caller-side contract to remaining sinks.
func (s *SSEWriter) Send(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return
	}
	s.flusher.Flush()
}

// CaptureSink records events for inspection in tests.
type CaptureSink struct {
	mu     sync.Mutex
	events []Event
}

// Send appends the event.
func (c *CaptureSink) Send(event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

// Events returns a copy of everything received so far.
func (c *CaptureSink) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}
