package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/preptrack/interview-console/internal/types"
)

// SessionClock counts an interview down from duration*60 seconds at a
// one-second cadence. Reaching zero records a TIME_EXCEEDED violation but
// does not end the interview; once at or below zero the countdown halts
// and no further ticks are emitted.
type SessionClock struct {
	mu               sync.Mutex
	secondsRemaining int
	fired            bool
	running          bool

	tick        time.Duration
	onViolation func(types.Violation)

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewSessionClock creates a stopped clock. onViolation receives the single
// TIME_EXCEEDED violation when the countdown reaches zero.
func NewSessionClock(onViolation func(types.Violation)) *SessionClock {
	if onViolation == nil {
		onViolation = func(types.Violation) {}
	}
	return &SessionClock{
		tick:        types.ClockTick,
		onViolation: onViolation,
	}
}

// Start initializes the countdown to durationMinutes*60 seconds and begins
// ticking. Starting a running clock is a no-op.
func (c *SessionClock) Start(durationMinutes int) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.secondsRemaining = durationMinutes * 60
	c.fired = false
	c.stop = make(chan struct{})
	c.mu.Unlock()

	c.wg.Add(1)
	go c.run()
}

// Stop halts the countdown. Idempotent; the remaining time is preserved.
func (c *SessionClock) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	close(c.stop)
	c.mu.Unlock()

	c.wg.Wait()
}

// SecondsRemaining returns the current countdown value.
func (c *SessionClock) SecondsRemaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.secondsRemaining
}

func (c *SessionClock) run() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			if v := c.step(now); v != nil {
				slog.Info("interview time exceeded")
				c.onViolation(*v)
			}
		}
	}
}

// step applies one countdown tick. It returns the TIME_EXCEEDED violation
// exactly once, when the countdown crosses zero; at or below zero the
// countdown no longer moves.
func (c *SessionClock) step(now time.Time) *types.Violation {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.secondsRemaining <= 0 {
		return nil
	}
	c.secondsRemaining--
	if c.secondsRemaining == 0 && !c.fired {
		c.fired = true
		v := types.NewViolation(types.ViolationTimeExceeded, now)
		return &v
	}
	return nil
}
