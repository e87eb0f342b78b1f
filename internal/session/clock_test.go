package session

import (
	"sync"
	"testing"
	"time"

	"github.com/preptrack/interview-console/internal/types"
)

func TestSessionClock_InitializesFromDuration(t *testing.T) {
	c := NewSessionClock(nil)
	c.Start(30)
	defer c.Stop()

	if got := c.SecondsRemaining(); got != 1800 {
		t.Errorf("secondsRemaining = %d, want 1800", got)
	}
}

func TestSessionClock_DecrementsPerTick(t *testing.T) {
	c := NewSessionClock(nil)
	c.tick = 5 * time.Millisecond
	c.Start(30)
	defer c.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.SecondsRemaining() <= 1799 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("secondsRemaining = %d after ticking, want <= 1799", c.SecondsRemaining())
}

func TestSessionClock_TimeExceededFiresOnceThenHalts(t *testing.T) {
	var mu sync.Mutex
	var violations []types.Violation
	c := NewSessionClock(func(v types.Violation) {
		mu.Lock()
		violations = append(violations, v)
		mu.Unlock()
	})

	now := time.Unix(2000, 0)
	c.secondsRemaining = 3

	for i := 0; i < 10; i++ {
		if v := c.step(now.Add(time.Duration(i) * time.Second)); v != nil {
			c.onViolation(*v)
		}
	}

	if len(violations) != 1 {
		t.Fatalf("violations = %d, want exactly 1", len(violations))
	}
	if violations[0].Kind != types.ViolationTimeExceeded {
		t.Errorf("kind = %v, want TIME_EXCEEDED", violations[0].Kind)
	}
	if got := c.SecondsRemaining(); got != 0 {
		t.Errorf("countdown continued past zero: %d", got)
	}
}

func TestSessionClock_StopIsIdempotent(t *testing.T) {
	c := NewSessionClock(nil)
	c.Start(1)
	c.Stop()
	c.Stop()

	// Remaining time survives the stop.
	if got := c.SecondsRemaining(); got > 60 || got < 0 {
		t.Errorf("secondsRemaining = %d after stop", got)
	}
}
