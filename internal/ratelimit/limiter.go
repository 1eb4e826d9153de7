// Package ratelimit implements a sliding-window counter keyed by
// arbitrary strings. A new window starts when the previous window's
// start plus the window size has elapsed; a background sweeper drops
// entries idle for more than five windows.
package ratelimit

import (
	"sync"
	"time"

	"wasp/internal/logging"
)

// staleWindows is how many windows an entry may sit untouched before the
// sweeper drops it.
const staleWindows = 5

// Config parameterizes one check call.
type Config struct {
	Window      time.Duration
	MaxRequests int
}

// Status is the outcome of one check.
type Status struct {
	Allowed   bool
	Remaining int
	ResetMs   int64
}

type window struct {
	start time.Time
	count int
}

// Limiter tracks per-key windows. Safe for concurrent use; Check never
// blocks beyond the map mutex.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*window
	stop    chan struct{}
	done    chan struct{}
	nowFn   func() time.Time
}

// NewLimiter creates a limiter with no sweeper running. Call
// StartSweeper for long-lived processes.
func NewLimiter() *Limiter {
	return &Limiter{
		entries: make(map[string]*window),
		nowFn:   time.Now,
	}
}

// Check counts one request against the key's current window. Within one
// window at most cfg.MaxRequests calls see Allowed=true.
func (l *Limiter) Check(key string, cfg Config) Status {
	now := l.nowFn()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.entries[key]
	if !ok || now.Sub(w.start) >= cfg.Window {
		w = &window{start: now}
		l.entries[key] = w
	}
	w.count++

	remaining := cfg.MaxRequests - w.count
	if remaining < 0 {
		remaining = 0
	}
	return Status{
		Allowed:   w.count <= cfg.MaxRequests,
		Remaining: remaining,
		ResetMs:   w.start.Add(cfg.Window).Sub(now).Milliseconds(),
	}
}

// StartSweeper launches the background purge loop. The sweep never
// blocks request paths; it takes the same mutex only briefly.
func (l *Limiter) StartSweeper(window time.Duration) {
	l.mu.Lock()
	if l.stop != nil {
		l.mu.Unlock()
		return
	}
	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	stop, done := l.stop, l.done
	l.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(window)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				l.sweep(window)
			}
		}
	}()
}

// StopSweeper halts the purge loop and waits for it to exit.
func (l *Limiter) StopSweeper() {
	l.mu.Lock()
	stop, done := l.stop, l.done
	l.stop, l.done = nil, nil
	l.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (l *Limiter) sweep(window time.Duration) {
	horizon := l.nowFn().Add(-time.Duration(staleWindows) * window)

	l.mu.Lock()
	swept := 0
	for key, w := range l.entries {
		if w.start.Before(horizon) {
			delete(l.entries, key)
			swept++
		}
	}
	l.mu.Unlock()

	if swept > 0 {
		logging.Get(logging.CategoryRateLimit).Debug("sweeper dropped %d stale entries", swept)
	}
}

// Size returns the number of tracked keys. Diagnostic only.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
