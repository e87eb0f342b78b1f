package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/preptrack/interview-console/internal/metrics"
	"github.com/preptrack/interview-console/internal/types"
	"github.com/preptrack/interview-console/internal/util"
)

// CaptureState is the capture controller state.
type CaptureState int

// Capture controller states. Recording and ReviewPending are mutually
// exclusive by construction.
const (
	CaptureIdle CaptureState = iota
	CaptureRecording
	CaptureReviewPending
)

// String returns the string representation of the state.
func (s CaptureState) String() string {
	switch s {
	case CaptureIdle:
		return "IDLE"
	case CaptureRecording:
		return "RECORDING"
	case CaptureReviewPending:
		return "REVIEW_PENDING"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
}

// Sentinel errors for capture gating.
var (
	// ErrPlaybackActive indicates capture cannot start while interviewer
	// audio is playing.
	ErrPlaybackActive = errors.New("interviewer audio in progress")

	// ErrCaptureDisabled indicates the caller disabled capture.
	ErrCaptureDisabled = errors.New("capture is disabled")
)

// Transcript is a snapshot of the capture controller's transcript state.
type Transcript struct {
	FinalizedText          string `json:"finalized_text"`
	InterimText            string `json:"interim_text"`
	IsRecording            bool   `json:"is_recording"`
	IsAwaitingConfirmation bool   `json:"is_awaiting_confirmation"`
}

// SpeakingReporter gates capture on in-progress interviewer audio.
type SpeakingReporter interface {
	Speaking() bool
}

// CaptureController drives one answer capture cycle:
// Idle -> Recording -> ReviewPending -> {Confirmed | Retried | Cancelled}.
// It is safe for concurrent use; engine callbacks and user actions may
// arrive on different goroutines.
type CaptureController struct {
	mu sync.Mutex

	engine   Recognizer
	playback SpeakingReporter

	state     CaptureState
	finalized strings.Builder
	interim   string

	disabled      bool
	stopRequested bool
	// generation invalidates pending restarts from a previous recording run.
	generation int

	restartBackoff *util.Backoff

	// onFailure surfaces fatal recognition errors to the session layer.
	onFailure func(error)
}

// NewCaptureController creates a capture controller over the given engine.
// playback gates recording start while interviewer audio is in progress;
// onFailure receives fatal recognition errors.
func NewCaptureController(engine Recognizer, playback SpeakingReporter, onFailure func(error)) *CaptureController {
	if onFailure == nil {
		onFailure = func(error) {}
	}
	return &CaptureController{
		engine:         engine,
		playback:       playback,
		restartBackoff: util.NewBackoff(types.InitialRestartDelay, types.MaxRestartDelay),
		onFailure:      onFailure,
	}
}

// State returns the current capture state.
func (c *CaptureController) State() CaptureState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns the current transcript state.
func (c *CaptureController) Snapshot() Transcript {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Transcript{
		FinalizedText:          c.finalized.String(),
		InterimText:            c.interim,
		IsRecording:            c.state == CaptureRecording,
		IsAwaitingConfirmation: c.state == CaptureReviewPending,
	}
}

// SetDisabled sets the caller-supplied disabled flag. A disabled controller
// refuses to start recording; an in-progress recording is unaffected.
func (c *CaptureController) SetDisabled(disabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disabled = disabled
}

// Start clears any prior transcript and begins continuous recognition.
// Start is gated: it fails while interviewer audio is playing or while the
// disabled flag is set.
func (c *CaptureController) Start(ctx context.Context) error {
	c.mu.Lock()

	if c.state != CaptureIdle {
		c.mu.Unlock()
		return fmt.Errorf("cannot start recording in state %s", c.state)
	}
	if c.disabled {
		c.mu.Unlock()
		return ErrCaptureDisabled
	}
	if c.playback != nil && c.playback.Speaking() {
		c.mu.Unlock()
		return ErrPlaybackActive
	}

	c.finalized.Reset()
	c.interim = ""
	c.stopRequested = false
	c.generation++
	c.state = CaptureRecording
	c.restartBackoff.Reset()
	c.mu.Unlock()

	if err := c.engine.Start(ctx, c); err != nil {
		c.mu.Lock()
		c.state = CaptureIdle
		c.mu.Unlock()
		return util.WrapError("start recognition", err)
	}
	return nil
}

// Stop ends recording. If any text accumulated, the controller enters
// ReviewPending for the user to review and confirm; otherwise it returns
// directly to Idle. Interim text is discarded either way.
func (c *CaptureController) Stop() error {
	c.mu.Lock()
	if c.state != CaptureRecording {
		c.mu.Unlock()
		return fmt.Errorf("cannot stop in state %s", c.state)
	}
	c.stopRequested = true
	c.interim = ""
	if strings.TrimSpace(c.finalized.String()) == "" {
		c.state = CaptureIdle
	} else {
		c.state = CaptureReviewPending
	}
	c.mu.Unlock()

	return c.engine.Stop()
}

// Edit replaces the transcript during review. The transcript is free text
// while awaiting confirmation.
func (c *CaptureController) Edit(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != CaptureReviewPending {
		return fmt.Errorf("cannot edit transcript in state %s", c.state)
	}
	c.finalized.Reset()
	c.finalized.WriteString(text)
	return nil
}

// Confirm emits the trimmed transcript and returns to Idle.
func (c *CaptureController) Confirm() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != CaptureReviewPending {
		return "", fmt.Errorf("cannot confirm in state %s", c.state)
	}
	text := strings.TrimSpace(c.finalized.String())
	c.finalized.Reset()
	c.interim = ""
	c.state = CaptureIdle
	return text, nil
}

// Retry discards the transcript and re-enters Recording.
func (c *CaptureController) Retry(ctx context.Context) error {
	c.mu.Lock()
	if c.state != CaptureReviewPending {
		c.mu.Unlock()
		return fmt.Errorf("cannot retry in state %s", c.state)
	}
	c.finalized.Reset()
	c.interim = ""
	c.state = CaptureIdle
	c.mu.Unlock()

	return c.Start(ctx)
}

// Cancel discards the transcript and returns to Idle without emitting.
func (c *CaptureController) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != CaptureReviewPending {
		return fmt.Errorf("cannot cancel in state %s", c.state)
	}
	c.finalized.Reset()
	c.interim = ""
	c.state = CaptureIdle
	return nil
}

// --- Recognizer callbacks ---

// OnInterim overwrites the transient interim text.
func (c *CaptureController) OnInterim(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != CaptureRecording {
		return
	}
	c.interim = text
	c.restartBackoff.Reset()
}

// OnFinal appends a finalized fragment with a trailing space separator and
// clears the interim text it replaces.
func (c *CaptureController) OnFinal(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != CaptureRecording {
		return
	}
	c.finalized.WriteString(text)
	c.finalized.WriteString(" ")
	c.interim = ""
	c.restartBackoff.Reset()
}

// OnError handles engine errors. no-speech and aborted are recoverable and
// ignored; any other error forces the controller back to Idle and surfaces
// the failure.
func (c *CaptureController) OnError(code ErrorCode, err error) {
	if code.recoverable() {
		slog.Debug("recoverable recognition error", "code", code)
		return
	}

	c.mu.Lock()
	wasRecording := c.state == CaptureRecording
	if wasRecording {
		c.state = CaptureIdle
		c.stopRequested = true
	}
	c.mu.Unlock()

	if wasRecording {
		slog.Error("recognition failed", "code", code, "error", err)
		c.onFailure(fmt.Errorf("recognition error %s: %w", code, err))
	}
}

// OnEnd restarts the engine when it stopped on its own while recording is
// still wanted. Continuous engines time out after silence; a user-requested
// stop never restarts.
func (c *CaptureController) OnEnd() {
	c.mu.Lock()
	if c.state != CaptureRecording || c.stopRequested {
		c.mu.Unlock()
		return
	}
	generation := c.generation
	delay := c.restartBackoff.Next()
	c.mu.Unlock()

	if delay <= 0 {
		c.restart(generation)
		return
	}
	time.AfterFunc(delay, func() { c.restart(generation) })
}

// restart re-starts the engine if the same recording run is still active.
func (c *CaptureController) restart(generation int) {
	c.mu.Lock()
	stale := c.state != CaptureRecording || c.stopRequested || c.generation != generation
	c.mu.Unlock()
	if stale {
		return
	}

	slog.Debug("recognition engine ended unexpectedly, restarting")
	metrics.DefaultMetrics.RecordRecognitionRestart()
	if err := c.engine.Start(context.Background(), c); err != nil {
		c.OnError(CodeAudioCapture, err)
	}
}
