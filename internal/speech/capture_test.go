package speech

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/preptrack/interview-console/internal/util"
)

// fakeEngine records lifecycle calls and lets tests drive callbacks.
type fakeEngine struct {
	mu     sync.Mutex
	starts int
	stops  int
	cb     Callback

	startErr error
}

func (f *fakeEngine) Start(_ context.Context, cb Callback) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.starts++
	f.cb = cb
	return nil
}

func (f *fakeEngine) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func (f *fakeEngine) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

// stubSpeaking is a fixed speaking flag.
type stubSpeaking bool

func (s stubSpeaking) Speaking() bool { return bool(s) }

// newTestController returns a controller with instant engine restarts.
func newTestController(engine *fakeEngine, playback SpeakingReporter, onFailure func(error)) *CaptureController {
	c := NewCaptureController(engine, playback, onFailure)
	c.restartBackoff = util.NewBackoff(0, 0)
	return c
}

func TestCapture_FinalizedAccumulation(t *testing.T) {
	engine := &fakeEngine{}
	c := newTestController(engine, stubSpeaking(false), nil)

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	engine.cb.OnInterim("I would")
	engine.cb.OnFinal("I would start by profiling")
	engine.cb.OnInterim("then I")
	engine.cb.OnFinal("then I would add caching")

	snap := c.Snapshot()
	if snap.FinalizedText != "I would start by profiling then I would add caching " {
		t.Errorf("finalized = %q", snap.FinalizedText)
	}
	if snap.InterimText != "" {
		t.Errorf("interim should clear after a final, got %q", snap.InterimText)
	}

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if c.State() != CaptureReviewPending {
		t.Fatalf("state = %v, want ReviewPending", c.State())
	}

	text, err := c.Confirm()
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if text != "I would start by profiling then I would add caching" {
		t.Errorf("confirmed text = %q", text)
	}
	if c.State() != CaptureIdle {
		t.Errorf("state after confirm = %v, want Idle", c.State())
	}
}

func TestCapture_InterimOverwritten(t *testing.T) {
	engine := &fakeEngine{}
	c := newTestController(engine, stubSpeaking(false), nil)

	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	engine.cb.OnInterim("hel")
	engine.cb.OnInterim("hello")
	engine.cb.OnInterim("hello wor")

	if got := c.Snapshot().InterimText; got != "hello wor" {
		t.Errorf("interim = %q, want latest partial only", got)
	}
}

func TestCapture_StartResetsPriorTranscript(t *testing.T) {
	engine := &fakeEngine{}
	c := newTestController(engine, stubSpeaking(false), nil)

	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	engine.cb.OnFinal("leftover answer")
	if err := c.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := c.Cancel(); err != nil {
		t.Fatal(err)
	}

	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	snap := c.Snapshot()
	if snap.FinalizedText != "" || snap.InterimText != "" {
		t.Errorf("transcript not reset: %+v", snap)
	}
}

func TestCapture_StopWithEmptyTranscriptReturnsToIdle(t *testing.T) {
	engine := &fakeEngine{}
	c := newTestController(engine, stubSpeaking(false), nil)

	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	engine.cb.OnInterim("never finalized")

	if err := c.Stop(); err != nil {
		t.Fatal(err)
	}
	if c.State() != CaptureIdle {
		t.Errorf("state = %v, want Idle when nothing accumulated", c.State())
	}
}

func TestCapture_RetryDiscardsAndRecords(t *testing.T) {
	engine := &fakeEngine{}
	c := newTestController(engine, stubSpeaking(false), nil)

	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	engine.cb.OnFinal("first attempt")
	if err := c.Stop(); err != nil {
		t.Fatal(err)
	}

	if err := c.Retry(context.Background()); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if c.State() != CaptureRecording {
		t.Errorf("state = %v, want Recording after retry", c.State())
	}
	if got := c.Snapshot().FinalizedText; got != "" {
		t.Errorf("transcript not discarded on retry: %q", got)
	}
	if engine.startCount() != 2 {
		t.Errorf("engine started %d times, want 2", engine.startCount())
	}
}

func TestCapture_CancelDiscards(t *testing.T) {
	engine := &fakeEngine{}
	c := newTestController(engine, stubSpeaking(false), nil)

	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	engine.cb.OnFinal("discard me")
	if err := c.Stop(); err != nil {
		t.Fatal(err)
	}

	if err := c.Cancel(); err != nil {
		t.Fatal(err)
	}
	if c.State() != CaptureIdle {
		t.Errorf("state = %v, want Idle", c.State())
	}
	if got := c.Snapshot().FinalizedText; got != "" {
		t.Errorf("transcript not discarded on cancel: %q", got)
	}
}

func TestCapture_EditThenConfirmEmitsTrimmed(t *testing.T) {
	engine := &fakeEngine{}
	c := newTestController(engine, stubSpeaking(false), nil)

	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	engine.cb.OnFinal("rough transcript")
	if err := c.Stop(); err != nil {
		t.Fatal(err)
	}

	if err := c.Edit("  polished answer  "); err != nil {
		t.Fatal(err)
	}
	text, err := c.Confirm()
	if err != nil {
		t.Fatal(err)
	}
	if text != "polished answer" {
		t.Errorf("confirmed text = %q, want trimmed edit", text)
	}
}

func TestCapture_UnexpectedEndRestartsEngine(t *testing.T) {
	engine := &fakeEngine{}
	c := newTestController(engine, stubSpeaking(false), nil)

	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	engine.cb.OnFinal("partial answer")

	// Engine self-terminates after silence; not user-stopped.
	engine.cb.OnEnd()

	if c.State() != CaptureRecording {
		t.Errorf("state = %v, want Recording after auto-restart", c.State())
	}
	if engine.startCount() != 2 {
		t.Errorf("engine started %d times, want 2 (restart)", engine.startCount())
	}
	if got := c.Snapshot().FinalizedText; got != "partial answer " {
		t.Errorf("restart lost transcript: %q", got)
	}
}

func TestCapture_UserStopDoesNotRestart(t *testing.T) {
	engine := &fakeEngine{}
	c := newTestController(engine, stubSpeaking(false), nil)

	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	engine.cb.OnFinal("done talking")
	if err := c.Stop(); err != nil {
		t.Fatal(err)
	}

	engine.cb.OnEnd()

	if engine.startCount() != 1 {
		t.Errorf("engine restarted after user stop: %d starts", engine.startCount())
	}
}

func TestCapture_RecoverableErrorsSwallowed(t *testing.T) {
	engine := &fakeEngine{}
	failures := 0
	c := newTestController(engine, stubSpeaking(false), func(error) { failures++ })

	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	engine.cb.OnError(CodeNoSpeech, errors.New("no speech detected"))
	engine.cb.OnError(CodeAborted, errors.New("aborted"))

	if c.State() != CaptureRecording {
		t.Errorf("state = %v, want Recording after recoverable errors", c.State())
	}
	if failures != 0 {
		t.Errorf("recoverable errors surfaced %d failures", failures)
	}
}

func TestCapture_FatalErrorForcesIdle(t *testing.T) {
	engine := &fakeEngine{}
	failures := 0
	c := newTestController(engine, stubSpeaking(false), func(error) { failures++ })

	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	engine.cb.OnError(CodeNetwork, errors.New("connection lost"))

	if c.State() != CaptureIdle {
		t.Errorf("state = %v, want Idle after fatal error", c.State())
	}
	if failures != 1 {
		t.Errorf("fatal error surfaced %d failures, want 1", failures)
	}

	// The engine's OnEnd after a fatal error must not restart recording.
	engine.cb.OnEnd()
	if engine.startCount() != 1 {
		t.Errorf("engine restarted after fatal error: %d starts", engine.startCount())
	}
}

func TestCapture_GatedWhilePlaybackSpeaking(t *testing.T) {
	engine := &fakeEngine{}
	c := newTestController(engine, stubSpeaking(true), nil)

	if err := c.Start(context.Background()); !errors.Is(err, ErrPlaybackActive) {
		t.Errorf("expected ErrPlaybackActive, got %v", err)
	}
	if c.State() != CaptureIdle {
		t.Errorf("state = %v, want Idle", c.State())
	}
}

func TestCapture_GatedWhileDisabled(t *testing.T) {
	engine := &fakeEngine{}
	c := newTestController(engine, stubSpeaking(false), nil)
	c.SetDisabled(true)

	if err := c.Start(context.Background()); !errors.Is(err, ErrCaptureDisabled) {
		t.Errorf("expected ErrCaptureDisabled, got %v", err)
	}

	c.SetDisabled(false)
	if err := c.Start(context.Background()); err != nil {
		t.Errorf("Start after re-enable: %v", err)
	}
}
