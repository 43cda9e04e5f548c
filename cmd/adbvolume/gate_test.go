package main

import (
	"testing"
	"time"
)

// fakeClock is a manually advanced Clock.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func (c *fakeClock) Set(t time.Time) { c.now = t }

func TestGate_FirstRequestAlwaysAccepted(t *testing.T) {
	g := NewGate(30 * time.Millisecond)

	if _, ok := g.Last(); ok {
		t.Fatalf("new gate should report no accepted request")
	}

	// Even the zero time must be accepted on first use.
	if !g.Allow(time.Time{}) {
		t.Fatalf("first request at zero time was dropped")
	}
	if _, ok := g.Last(); !ok {
		t.Fatalf("gate should be armed after first accepted request")
	}
}

func TestGate_Scenario(t *testing.T) {
	clk := newFakeClock()
	g := NewGate(30 * time.Millisecond)
	start := clk.Now()

	if !g.Allow(clk.Now()) {
		t.Fatalf("t=0ms: expected accept")
	}

	clk.Set(start.Add(10 * time.Millisecond))
	if g.Allow(clk.Now()) {
		t.Fatalf("t=10ms: expected drop")
	}

	clk.Set(start.Add(35 * time.Millisecond))
	if !g.Allow(clk.Now()) {
		t.Fatalf("t=35ms: expected accept")
	}

	last, _ := g.Last()
	if !last.Equal(start.Add(35 * time.Millisecond)) {
		t.Fatalf("last accepted = %v, want t=35ms", last.Sub(start))
	}
}

func TestGate_DroppedRequestDoesNotMoveWindow(t *testing.T) {
	clk := newFakeClock()
	g := NewGate(30 * time.Millisecond)
	start := clk.Now()

	g.Allow(start)
	g.Allow(start.Add(20 * time.Millisecond)) // dropped

	// 30ms after the accepted request, not after the dropped one.
	if !g.Allow(start.Add(30 * time.Millisecond)) {
		t.Fatalf("expected accept at exactly the interval after the last accepted request")
	}
}

func TestGate_BoundaryJustBelowInterval(t *testing.T) {
	g := NewGate(30 * time.Millisecond)
	start := time.Unix(1000, 0)

	g.Allow(start)
	if g.Allow(start.Add(30*time.Millisecond - time.Nanosecond)) {
		t.Fatalf("request 1ns before interval elapsed must be dropped")
	}
}

func TestGate_ClockGoingBackwardsIsDropped(t *testing.T) {
	g := NewGate(30 * time.Millisecond)
	start := time.Unix(1000, 0)

	g.Allow(start)
	if g.Allow(start.Add(-time.Second)) {
		t.Fatalf("request with earlier timestamp must be dropped")
	}
}

func TestGate_AcceptedRequestsNeverCloserThanInterval(t *testing.T) {
	const interval = 30 * time.Millisecond
	g := NewGate(interval)
	start := time.Unix(1000, 0)

	// Irregular arrival pattern, including bursts and long gaps.
	offsets := []int{0, 1, 2, 15, 29, 30, 31, 45, 59, 61, 62, 100, 101, 129, 131, 500, 505, 529, 530}

	var accepted []time.Time
	for _, ms := range offsets {
		now := start.Add(time.Duration(ms) * time.Millisecond)
		if g.Allow(now) {
			accepted = append(accepted, now)
		}
	}

	if len(accepted) == 0 {
		t.Fatalf("expected at least one accepted request")
	}
	for i := 1; i < len(accepted); i++ {
		if d := accepted[i].Sub(accepted[i-1]); d < interval {
			t.Fatalf("accepted requests %d and %d are %v apart, want >= %v", i-1, i, d, interval)
		}
	}
}

func TestGate_ZeroIntervalAcceptsEverything(t *testing.T) {
	g := NewGate(0)
	now := time.Unix(1000, 0)
	for i := 0; i < 5; i++ {
		if !g.Allow(now) {
			t.Fatalf("zero-interval gate dropped request %d", i)
		}
	}
}

func TestNewGate_NegativeIntervalClamped(t *testing.T) {
	g := NewGate(-time.Second)
	if g.Interval() != 0 {
		t.Fatalf("interval = %v, want 0", g.Interval())
	}
}
