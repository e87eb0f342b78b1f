package integrity

import (
	"log/slog"
	"sync"
	"time"

	"github.com/preptrack/interview-console/internal/types"
)

// LevelFunc samples the current ambient level in [0, 100].
type LevelFunc func() (float64, error)

// Monitor wires the focus and noise detectors to a violation callback for
// the duration of a session. Detectors run as independent periodic tasks
// and may observe violations at any time, including during an in-flight
// answer submission.
type Monitor struct {
	level       LevelFunc
	focus       FocusSource
	noiseCfg    NoiseConfig
	noise       *NoiseDetector
	onViolation func(types.Violation)

	sampleInterval time.Duration

	mu      sync.Mutex
	stop    chan struct{}
	wg      sync.WaitGroup
	started bool
}

// NewMonitor creates a monitor. level samples the ambient noise reading;
// focus delivers tab/window focus loss events; noise sets the detection
// thresholds; onViolation receives every detected violation.
func NewMonitor(level LevelFunc, focus FocusSource, noise NoiseConfig, onViolation func(types.Violation)) *Monitor {
	return &Monitor{
		level:          level,
		focus:          focus,
		noiseCfg:       noise,
		noise:          NewNoiseDetector(),
		onViolation:    onViolation,
		sampleInterval: types.LevelSampleInterval,
	}
}

// Start begins observing. Starting an already-started monitor is a no-op.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true
	m.stop = make(chan struct{})
	m.noise.Reset()

	events, cancel := m.focus.Subscribe()

	m.wg.Add(2)
	go m.runFocusDetector(events, cancel)
	go m.runNoiseDetector()
}

// Stop releases all subscriptions and timers. Idempotent.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.started = false
	close(m.stop)
	m.mu.Unlock()

	m.wg.Wait()
}

// runFocusDetector appends a TAB_SWITCH violation for every focus event.
// Visibility and blur events are wired independently, so one physical tab
// switch may be recorded twice.
func (m *Monitor) runFocusDetector(events <-chan FocusEvent, cancel func()) {
	defer m.wg.Done()
	defer cancel()

	for {
		select {
		case <-m.stop:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			slog.Debug("focus lost", "kind", ev.Kind)
			m.onViolation(types.NewViolation(types.ViolationTabSwitch, ev.At))
		}
	}
}

// runNoiseDetector samples the ambient level and feeds the noise detector.
func (m *Monitor) runNoiseDetector() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.sampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			level, err := m.level()
			if err != nil {
				// Analyser may already be detached during teardown;
				// observation must never fail the session.
				continue
			}
			if v := m.noise.Update(level, m.noiseCfg, now); v != nil {
				slog.Info("excessive noise detected", "level", level)
				m.onViolation(*v)
			}
		}
	}
}
