package timeutil

import (
	"testing"
	"time"
)

func TestRealClock(t *testing.T) {
	var c Clock = RealClock{}

	start := c.Now()
	if c.Since(start) < 0 {
		t.Error("Since() returned a negative duration")
	}
}

func TestMockClock(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMockClock(base)

	if !c.Now().Equal(base) {
		t.Fatalf("Now() = %v, want %v", c.Now(), base)
	}

	c.Advance(250 * time.Millisecond)
	if got := c.Since(base); got != 250*time.Millisecond {
		t.Errorf("Since() = %v, want 250ms", got)
	}

	later := base.Add(time.Hour)
	c.Set(later)
	if !c.Now().Equal(later) {
		t.Errorf("Now() after Set = %v, want %v", c.Now(), later)
	}
}
