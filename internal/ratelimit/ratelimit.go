// Package ratelimit bounds how many searches one caller may start per
// window. Searches are expensive upstream (browser sessions, keyed API
// quota, model calls), so the limit sits in front of the pipeline.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter implements fixed-window token limiting per caller key.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	span    time.Duration
	done    chan struct{}
}

type window struct {
	remaining int
	openedAt  time.Time
}

// New creates a Limiter allowing limit searches per span for each key.
func New(limit int, span time.Duration) *Limiter {
	l := &Limiter{
		windows: make(map[string]*window),
		limit:   limit,
		span:    span,
		done:    make(chan struct{}),
	}
	go l.evictStale()
	return l
}

// Close stops the background eviction goroutine.
func (l *Limiter) Close() {
	close(l.done)
}

// Allow reports whether the caller identified by key may start a search,
// consuming one slot when it may.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.openedAt) >= l.span {
		w = &window{remaining: l.limit, openedAt: now}
		l.windows[key] = w
	}

	if w.remaining <= 0 {
		return false
	}
	w.remaining--
	return true
}

// evictStale drops windows that have been idle for two spans.
func (l *Limiter) evictStale() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.mu.Lock()
			now := time.Now()
			for key, w := range l.windows {
				if now.Sub(w.openedAt) > 2*l.span {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		case <-l.done:
			return
		}
	}
}
