package evaluate

import (
	"context"
	"sync"
	"time"
)

// Pacer throttles evaluation calls. Pacing is a politeness concern toward
// the model provider, not a correctness one, so it is injected: production
// wires an interval, tests run unpaced.
type Pacer interface {
	// Wait blocks until the next call may proceed or the context ends.
	Wait(ctx context.Context) error
}

// NopPacer never waits.
type NopPacer struct{}

// Wait returns immediately.
func (NopPacer) Wait(ctx context.Context) error { return ctx.Err() }

// IntervalPacer releases callers at a fixed minimum interval.
type IntervalPacer struct {
	interval time.Duration

	mu   sync.Mutex
	next time.Time
}

// NewIntervalPacer creates a pacer with the given minimum gap between
// releases. A non-positive interval behaves like NopPacer.
func NewIntervalPacer(interval time.Duration) *IntervalPacer {
	return &IntervalPacer{interval: interval}
}

// Wait blocks until this caller's slot arrives.
func (p *IntervalPacer) Wait(ctx context.Context) error {
	if p.interval <= 0 {
		return ctx.Err()
	}

	p.mu.Lock()
	now := time.Now()
	slot := p.next
	if slot.Before(now) {
		slot = now
	}
	p.next = slot.Add(p.interval)
	p.mu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
