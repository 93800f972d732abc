// Package ratelimit implements in-memory fixed-window request counters.
//
// Counters are process-local and reset on restart; a multi-instance
// deployment would under-enforce limits. Single-instance operation is an
// accepted constraint of this system.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter counts requests per key within fixed windows of a configured
// length. Once a key has spent its budget inside the current window, Allow
// returns false until the window rolls over.
type Limiter struct {
	budget int
	window time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket

	// now is swappable for tests.
	now func() time.Time
}

type bucket struct {
	windowStart time.Time
	used        int
}

// New builds a Limiter allowing budget requests per key per window.
func New(budget int, window time.Duration) *Limiter {
	return &Limiter{
		budget:  budget,
		window:  window,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Allow consumes one unit of key's budget. It reports whether the request
// fits inside the current window.
func (l *Limiter) Allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok || now.Sub(b.windowStart) >= l.window {
		l.buckets[key] = &bucket{windowStart: now, used: 1}
		return true
	}
	if b.used >= l.budget {
		return false
	}
	b.used++
	return true
}

// Remaining reports the unused budget for key in the current window.
func (l *Limiter) Remaining(key string) int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok || now.Sub(b.windowStart) >= l.window {
		return l.budget
	}
	if b.used > l.budget {
		return 0
	}
	return l.budget - b.used
}

// Set bundles the limiter classes used by the HTTP edge: login and the
// contact form are tight, JSON API and public pages generous.
type Set struct {
	Login   *Limiter
	Contact *Limiter
	API     *Limiter
	Page    *Limiter
}

// NewSet builds the standard four limiter classes.
func NewSet() *Set {
	return &Set{
		Login:   New(5, 15*time.Minute),
		Contact: New(5, 60*time.Minute),
		API:     New(100, 15*time.Minute),
		Page:    New(300, 15*time.Minute),
	}
}
