package integrity

import (
	"sync"
	"testing"
	"time"

	"github.com/preptrack/interview-console/internal/types"
)

// fakeFocusSource delivers scripted focus events.
type fakeFocusSource struct {
	events chan FocusEvent
}

func newFakeFocusSource() *fakeFocusSource {
	return &fakeFocusSource{events: make(chan FocusEvent, 8)}
}

func (f *fakeFocusSource) Subscribe() (<-chan FocusEvent, func()) {
	return f.events, func() {}
}

// violationSink collects violations thread-safely.
type violationSink struct {
	mu         sync.Mutex
	violations []types.Violation
}

func (s *violationSink) add(v types.Violation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.violations = append(s.violations, v)
}

func (s *violationSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.violations)
}

func (s *violationSink) all() []types.Violation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Violation(nil), s.violations...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestMonitor_TabSwitchDoubleCount(t *testing.T) {
	focus := newFakeFocusSource()
	sink := &violationSink{}

	m := NewMonitor(func() (float64, error) { return 0, nil }, focus, DefaultNoiseConfig(), sink.add)
	m.Start()
	defer m.Stop()

	// One physical tab switch raises both platform events; each is
	// recorded independently.
	now := time.Now()
	focus.events <- FocusEvent{Kind: FocusVisibilityHidden, At: now}
	focus.events <- FocusEvent{Kind: FocusWindowBlur, At: now}

	waitFor(t, func() bool { return sink.count() == 2 })

	for _, v := range sink.all() {
		if v.Kind != types.ViolationTabSwitch {
			t.Errorf("kind = %v, want TAB_SWITCH", v.Kind)
		}
	}
}

func TestMonitor_NoiseViolationDelivered(t *testing.T) {
	focus := newFakeFocusSource()
	sink := &violationSink{}

	m := NewMonitor(func() (float64, error) { return 95, nil }, focus, NoiseConfig{
		Threshold:    60,
		ConfirmDelay: 20 * time.Millisecond,
		Cooldown:     time.Hour,
	}, sink.add)
	m.sampleInterval = 5 * time.Millisecond
	m.Start()
	defer m.Stop()

	waitFor(t, func() bool { return sink.count() >= 1 })

	v := sink.all()[0]
	if v.Kind != types.ViolationExcessiveNoise {
		t.Errorf("kind = %v, want EXCESSIVE_NOISE", v.Kind)
	}
	if v.Level == nil || *v.Level != 95 {
		t.Errorf("level = %v, want 95", v.Level)
	}

	// Cooldown is an hour; no second violation arrives.
	time.Sleep(50 * time.Millisecond)
	if sink.count() != 1 {
		t.Errorf("got %d violations during cooldown, want 1", sink.count())
	}
}

func TestMonitor_RaisedThresholdSuppressesDetection(t *testing.T) {
	focus := newFakeFocusSource()
	sink := &violationSink{}

	// Level 75 is well above the default threshold of 60; a raised
	// threshold must keep it from firing.
	m := NewMonitor(func() (float64, error) { return 75, nil }, focus, NoiseConfig{
		Threshold:    90,
		ConfirmDelay: 10 * time.Millisecond,
		Cooldown:     time.Hour,
	}, sink.add)
	m.sampleInterval = 5 * time.Millisecond
	m.Start()

	time.Sleep(50 * time.Millisecond)
	m.Stop()

	if sink.count() != 0 {
		t.Errorf("got %d violations below the configured threshold, want 0", sink.count())
	}
}

func TestMonitor_LevelErrorsAreSkipped(t *testing.T) {
	focus := newFakeFocusSource()
	sink := &violationSink{}

	m := NewMonitor(func() (float64, error) { return 0, errDetached }, focus, DefaultNoiseConfig(), sink.add)
	m.sampleInterval = 5 * time.Millisecond
	m.Start()

	time.Sleep(30 * time.Millisecond)
	m.Stop()

	if sink.count() != 0 {
		t.Errorf("violations emitted despite sampling errors: %d", sink.count())
	}
}

var errDetached = &detachedError{}

type detachedError struct{}

func (*detachedError) Error() string { return "analyser not attached" }

func TestMonitor_StopIsIdempotent(t *testing.T) {
	focus := newFakeFocusSource()
	m := NewMonitor(func() (float64, error) { return 0, nil }, focus, DefaultNoiseConfig(), func(types.Violation) {})

	m.Start()
	m.Stop()
	m.Stop()

	// Restart after stop works.
	m.Start()
	m.Stop()
}
