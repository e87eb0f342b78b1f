package speech

import (
	"context"
	"sync"
	"time"
)

// ScriptedUtterance is one simulated answer with progressive partials.
type ScriptedUtterance struct {
	Partials []string
	Final    string
}

// defaultScript provides sample answers for engine-less runs.
var defaultScript = []ScriptedUtterance{
	{
		Partials: []string{"I would start", "I would start by profiling"},
		Final:    "I would start by profiling the service to find the slowest path",
	},
	{
		Partials: []string{"My last project", "My last project involved"},
		Final:    "My last project involved migrating a monolith to services",
	},
	{
		Partials: []string{"Yes I have"},
		Final:    "Yes I have worked with distributed queues before",
	},
}

// MockRecognizer simulates a continuous recognition engine: progressive
// partials, exactly one final per utterance, then a self-stop as a real
// engine does after silence. Used when no recognition engine is configured
// and in tests that need realistic engine behavior.
type MockRecognizer struct {
	mu      sync.Mutex
	script  []ScriptedUtterance
	next    int
	running bool
	stop    chan struct{}

	// ResultDelay is the pause between emitted results.
	ResultDelay time.Duration
}

// NewMockRecognizer creates a mock engine cycling through the default script.
func NewMockRecognizer() *MockRecognizer {
	return &MockRecognizer{
		script:      defaultScript,
		ResultDelay: 300 * time.Millisecond,
	}
}

// Start begins replaying the next scripted utterance.
func (m *MockRecognizer) Start(ctx context.Context, cb Callback) error {
	m.mu.Lock()
	utt := m.script[m.next%len(m.script)]
	m.next++
	m.running = true
	stop := make(chan struct{})
	m.stop = stop
	m.mu.Unlock()

	go m.replay(ctx, utt, cb, stop)
	return nil
}

// Stop ends the replay; OnEnd fires from the replay goroutine.
func (m *MockRecognizer) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		m.running = false
		close(m.stop)
	}
	return nil
}

func (m *MockRecognizer) replay(ctx context.Context, utt ScriptedUtterance, cb Callback, stop chan struct{}) {
	defer cb.OnEnd()

	wait := func() bool {
		select {
		case <-stop:
			return false
		case <-ctx.Done():
			return false
		case <-time.After(m.ResultDelay):
			return true
		}
	}

	for _, partial := range utt.Partials {
		if !wait() {
			return
		}
		cb.OnInterim(partial)
	}
	if !wait() {
		return
	}
	cb.OnFinal(utt.Final)
}

// MockSynthesizer simulates speech synthesis by pacing through the text.
type MockSynthesizer struct {
	mu     sync.Mutex
	cancel chan struct{}

	// WordDuration is the simulated speaking time per word.
	WordDuration time.Duration
}

// NewMockSynthesizer creates a mock synthesizer.
func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{WordDuration: 150 * time.Millisecond}
}

// Supported always reports true for the mock.
func (m *MockSynthesizer) Supported() bool { return true }

// Speak simulates speaking the utterance, firing OnStart immediately and
// OnEnd after a duration proportional to the text length.
func (m *MockSynthesizer) Speak(ctx context.Context, u Utterance, ev UtteranceEvents) error {
	m.mu.Lock()
	if m.cancel != nil {
		close(m.cancel)
	}
	cancel := make(chan struct{})
	m.cancel = cancel
	m.mu.Unlock()

	if ev.OnStart != nil {
		ev.OnStart()
	}

	words := 1 + len(u.Text)/6
	duration := time.Duration(words) * m.WordDuration

	go func() {
		select {
		case <-cancel:
		case <-ctx.Done():
		case <-time.After(duration):
		}
		if ev.OnEnd != nil {
			ev.OnEnd()
		}
	}()
	return nil
}

// Stop cancels the in-flight utterance.
func (m *MockSynthesizer) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		close(m.cancel)
		m.cancel = nil
	}
}

// Pause and Resume are no-ops for the mock.
func (m *MockSynthesizer) Pause()  {}
func (m *MockSynthesizer) Resume() {}
