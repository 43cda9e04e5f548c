package main

import "time"

// Clock provides an abstraction over time.Now for testability.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Gate is the input debounce: it accepts a request only if at least
// interval has passed since the previously accepted one.
//
// A Gate is owned by a single event loop and is not safe for concurrent use.
type Gate struct {
	interval time.Duration

	last  time.Time
	armed bool // false until the first accepted request
}

// NewGate returns a gate that has never accepted a request.
func NewGate(interval time.Duration) *Gate {
	if interval < 0 {
		interval = 0
	}
	return &Gate{interval: interval}
}

// Allow reports whether a request arriving at now is accepted, and records
// now as the last accepted time if it is.
func (g *Gate) Allow(now time.Time) bool {
	if g.armed && now.Sub(g.last) < g.interval {
		return false
	}
	g.last = now
	g.armed = true
	return true
}

// Last returns the last accepted time. ok is false if nothing was accepted yet.
func (g *Gate) Last() (t time.Time, ok bool) {
	return g.last, g.armed
}

// Interval returns the configured minimum spacing.
func (g *Gate) Interval() time.Duration { return g.interval }
