package ratelimit

import (
	"testing"
	"time"
)

func TestLimiterBurst(t *testing.T) {
	l := NewLimiter(1, 5)

	for i := 0; i < 5; i++ {
		if !l.Allow() {
			t.Fatalf("Call %d within burst should be allowed", i)
		}
	}
	if l.Allow() {
		t.Error("Call beyond burst should be denied")
	}
}

func TestLimiterRefills(t *testing.T) {
	l := NewLimiter(100, 1)

	if !l.Allow() {
		t.Fatal("First call should be allowed")
	}
	if l.Allow() {
		t.Fatal("Second immediate call should be denied")
	}

	time.Sleep(50 * time.Millisecond)
	if !l.Allow() {
		t.Error("Call after refill window should be allowed")
	}
}

func TestSessionLimitersReusePerSession(t *testing.T) {
	sl := NewSessionLimiters(10, 3)

	a := sl.Get("a")
	if a != sl.Get("a") {
		t.Error("Same session should get the same limiter")
	}
	if a == sl.Get("b") {
		t.Error("Different sessions should get different limiters")
	}

	sl.Remove("a")
	if a == sl.Get("a") {
		t.Error("Removed session should get a fresh limiter")
	}
}
