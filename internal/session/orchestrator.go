// Package session contains the interview session orchestrator: the
// top-level state machine driving setup, the question/answer loop, the
// countdown clock, violation aggregation and session termination.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/preptrack/interview-console/internal/api"
	"github.com/preptrack/interview-console/internal/integrity"
	"github.com/preptrack/interview-console/internal/media"
	"github.com/preptrack/interview-console/internal/speech"
	"github.com/preptrack/interview-console/internal/types"
	"github.com/preptrack/interview-console/internal/util"
)

// State is the orchestrator state.
type State int

// Orchestrator states. Active and Submitting alternate for the duration of
// the question/answer loop.
const (
	StateNotStarted State = iota
	StateSetup
	StateStarting
	StateActive
	StateSubmitting
	StateEnding
	StateTerminated
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NOT_STARTED"
	case StateSetup:
		return "SETUP"
	case StateStarting:
		return "STARTING"
	case StateActive:
		return "ACTIVE"
	case StateSubmitting:
		return "SUBMITTING"
	case StateEnding:
		return "ENDING"
	case StateTerminated:
		return "TERMINATED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
}

// ErrEndDeclined is returned by End when the user declines the end-interview
// confirmation prompt. The session continues unchanged.
var ErrEndDeclined = errors.New("end interview declined")

// SessionIdentity is the backend-issued identity of one interview attempt.
// It is set once when the session starts and never mutated afterwards.
type SessionIdentity struct {
	SessionID            string `json:"session_id"`
	ScheduledInterviewID string `json:"scheduled_interview_id,omitempty"`
	CredentialID         string `json:"credential_id,omitempty"`
}

// API is the remote session surface the orchestrator depends on.
type API interface {
	StartSession(ctx context.Context, req *api.StartSessionRequest) (*api.StartSessionResponse, error)
	NextQuestion(ctx context.Context, req *api.NextQuestionRequest) (*api.NextQuestionResponse, error)
	EndSession(ctx context.Context, req *api.EndSessionRequest) error
}

// Confirmer asks the user to confirm ending the interview. Ending always
// requires an explicit confirmation; there is no abandon-without-prompt path.
type Confirmer interface {
	ConfirmEnd(ctx context.Context) (bool, error)
}

// Config wires the orchestrator's collaborators.
type Config struct {
	API      API
	Capture  *speech.CaptureController
	Playback *speech.PlaybackController
	// Focus delivers tab/window focus loss events to the integrity monitor.
	// A nil source disables focus observation.
	Focus   integrity.FocusSource
	Confirm Confirmer

	// OnAuthExpired is called when any session endpoint rejects the bearer
	// credential; the caller redirects to re-authentication.
	OnAuthExpired func()
	// OnViolation observes every recorded violation, after it is appended.
	OnViolation func(types.Violation)

	// AutoSpeak speaks each question aloud as it arrives.
	AutoSpeak bool
	// Utterance carries the voice options for question playback. Zero means
	// the defaults.
	Utterance speech.Utterance
	// Noise configures the noise detector thresholds. Zero means the
	// defaults.
	Noise integrity.NoiseConfig
}

// Orchestrator drives one interview session end to end:
// NotStarted -> Setup -> Starting -> Active <-> Submitting -> Ending -> Terminated.
// It owns the device bundle for the session lifetime and aggregates the
// violation list flushed at termination. Safe for concurrent use; the
// countdown clock and the integrity monitor append violations at any time,
// including during an in-flight submission.
type Orchestrator struct {
	mu sync.Mutex

	state      State
	identity   SessionIdentity
	params     types.InterviewParams
	turns      []types.Turn
	violations []types.Violation
	// complete records that the backend signalled interview completion.
	complete bool

	bundle  *media.Bundle
	monitor *integrity.Monitor

	cfg   Config
	clock *SessionClock
}

// NewOrchestrator creates an orchestrator in NotStarted.
func NewOrchestrator(cfg Config) *Orchestrator {
	if cfg.Utterance == (speech.Utterance{}) {
		cfg.Utterance = speech.DefaultUtteranceOptions()
	}
	if cfg.Noise == (integrity.NoiseConfig{}) {
		cfg.Noise = integrity.DefaultNoiseConfig()
	}
	o := &Orchestrator{cfg: cfg}
	o.clock = NewSessionClock(o.appendViolation)
	return o
}

// State returns the current orchestrator state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Identity returns the session identity. Zero until Starting succeeds.
func (o *Orchestrator) Identity() SessionIdentity {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.identity
}

// Turns returns a snapshot of the transcript so far.
func (o *Orchestrator) Turns() []types.Turn {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]types.Turn(nil), o.turns...)
}

// Violations returns a snapshot of the accumulated violation list.
func (o *Orchestrator) Violations() []types.Violation {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]types.Violation(nil), o.violations...)
}

// CurrentQuestion returns the question awaiting an answer, empty if none.
func (o *Orchestrator) CurrentQuestion() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.turns) == 0 {
		return ""
	}
	return o.turns[len(o.turns)-1].Question
}

// SecondsRemaining returns the countdown value.
func (o *Orchestrator) SecondsRemaining() int {
	return o.clock.SecondsRemaining()
}

// Complete reports whether the backend signalled interview completion.
func (o *Orchestrator) Complete() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.complete
}

// BeginSetup enters the device setup phase.
func (o *Orchestrator) BeginSetup() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateNotStarted {
		return fmt.Errorf("cannot begin setup in state %s", o.state)
	}
	o.state = StateSetup
	return nil
}

// CompleteSetup accepts the tested device bundle from the setup wizard.
// Ownership of the bundle transfers to the orchestrator for the session
// lifetime.
func (o *Orchestrator) CompleteSetup(bundle *media.Bundle) error {
	if bundle == nil {
		return errors.New("nil device bundle")
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateSetup {
		return fmt.Errorf("cannot complete setup in state %s", o.state)
	}
	if o.bundle != nil {
		return errors.New("device bundle already attached")
	}
	o.bundle = bundle
	if o.cfg.Focus != nil {
		o.monitor = integrity.NewMonitor(bundle.Analyser().Level, o.cfg.Focus, o.cfg.Noise, o.appendViolation)
	}
	return nil
}

// AbandonSetup releases any acquired devices and returns to NotStarted.
func (o *Orchestrator) AbandonSetup() error {
	o.mu.Lock()
	if o.state != StateSetup {
		o.mu.Unlock()
		return fmt.Errorf("cannot abandon setup in state %s", o.state)
	}
	o.state = StateNotStarted
	o.mu.Unlock()

	o.releaseResources()
	return nil
}

// Start calls the remote start-session endpoint and, on success, stores the
// session identity, records turn #1 with the first question, starts the
// countdown and the integrity monitor, and enters Active. An expired
// credential routes to re-authentication; any other failure releases the
// acquired devices and returns to NotStarted.
func (o *Orchestrator) Start(ctx context.Context, params types.InterviewParams) error {
	o.mu.Lock()
	if o.state != StateSetup {
		o.mu.Unlock()
		return fmt.Errorf("cannot start interview in state %s", o.state)
	}
	if o.bundle == nil {
		o.mu.Unlock()
		return errors.New("device setup not completed")
	}
	o.state = StateStarting
	o.params = params
	o.mu.Unlock()

	resp, err := o.cfg.API.StartSession(ctx, &api.StartSessionRequest{
		Role:                 params.Role,
		InterviewType:        params.InterviewType,
		Duration:             params.DurationMinutes,
		Skills:               params.Skills,
		ScheduledInterviewID: params.ScheduledInterviewID,
	})
	if err != nil {
		if errors.Is(err, api.ErrSessionExpired) {
			o.failAuth()
			return err
		}
		o.releaseResources()
		o.setState(StateNotStarted)
		return util.WrapError("start interview", err)
	}

	o.mu.Lock()
	o.identity = SessionIdentity{
		SessionID:            resp.SessionID,
		ScheduledInterviewID: params.ScheduledInterviewID,
		CredentialID:         params.CredentialID,
	}
	o.turns = []types.Turn{{Number: 1, Question: resp.Question}}
	o.violations = nil
	o.complete = false
	o.state = StateActive
	monitor := o.monitor
	o.mu.Unlock()

	o.clock.Start(params.DurationMinutes)
	if monitor != nil {
		monitor.Start()
	}
	slog.Info("interview session started",
		"session", resp.SessionID, "duration_minutes", params.DurationMinutes)

	o.speakQuestion(ctx, resp.Question)
	return nil
}

// SubmitAnswer sends the answer for the current question together with the
// remaining time. A reply carrying a new question advances to the next turn
// and returns to Active; a reply without a question means the interview is
// complete and enters Ending. Submissions are strictly sequential: answer
// N+1 cannot be sent before answer N's response arrives.
func (o *Orchestrator) SubmitAnswer(ctx context.Context, answer string) error {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return errors.New("empty answer")
	}

	o.mu.Lock()
	if o.state != StateActive {
		o.mu.Unlock()
		return fmt.Errorf("cannot submit answer in state %s", o.state)
	}
	o.state = StateSubmitting
	id := o.identity
	o.mu.Unlock()

	// Recording stays off while a submission is in flight.
	if o.cfg.Capture != nil {
		o.cfg.Capture.SetDisabled(true)
		defer o.cfg.Capture.SetDisabled(false)
	}

	resp, err := o.cfg.API.NextQuestion(ctx, &api.NextQuestionRequest{
		SessionID:            id.SessionID,
		Answer:               answer,
		TimeRemaining:        o.clock.SecondsRemaining(),
		ScheduledInterviewID: id.ScheduledInterviewID,
	})
	if err != nil {
		if errors.Is(err, api.ErrSessionExpired) {
			o.failAuth()
			return err
		}
		o.setState(StateActive)
		return util.WrapError("submit answer", err)
	}

	o.mu.Lock()
	o.turns[len(o.turns)-1].Answer = answer
	if resp.Complete() {
		o.complete = true
		o.state = StateEnding
		turn := len(o.turns)
		o.mu.Unlock()
		slog.Info("interview complete", "turns", turn)
		return nil
	}
	o.turns = append(o.turns, types.Turn{Number: len(o.turns) + 1, Question: resp.Question})
	o.state = StateActive
	question := resp.Question
	o.mu.Unlock()

	o.speakQuestion(ctx, question)
	return nil
}

// SubmitCapturedAnswer submits the reviewed transcript as the answer for
// the current question. The transcript is cleared only after the backend
// accepts the answer, so a failed submission leaves it awaiting review and
// the captured text survives a retry.
func (o *Orchestrator) SubmitCapturedAnswer(ctx context.Context) error {
	if o.cfg.Capture == nil {
		return errors.New("no capture controller configured")
	}
	snap := o.cfg.Capture.Snapshot()
	if !snap.IsAwaitingConfirmation {
		return errors.New("no transcript awaiting confirmation")
	}
	if err := o.SubmitAnswer(ctx, snap.FinalizedText); err != nil {
		return err
	}
	if _, err := o.cfg.Capture.Confirm(); err != nil {
		slog.Debug("transcript confirm after submit", "error", err)
	}
	return nil
}

// End terminates the interview. The user must confirm before every
// end-session call: from a live session, after the backend signals
// completion, and again on a retry after a failed flush. Devices are
// released before the end-session call so the camera light goes off even if
// the flush fails; on a non-auth failure the orchestrator stays in Ending
// for a retry.
func (o *Orchestrator) End(ctx context.Context) error {
	o.mu.Lock()
	if o.state != StateActive && o.state != StateEnding {
		o.mu.Unlock()
		return fmt.Errorf("cannot end interview in state %s", o.state)
	}
	o.mu.Unlock()

	if o.cfg.Confirm != nil {
		ok, err := o.cfg.Confirm.ConfirmEnd(ctx)
		if err != nil {
			return util.WrapError("confirm end", err)
		}
		if !ok {
			return ErrEndDeclined
		}
	}

	o.mu.Lock()
	o.state = StateEnding
	id := o.identity
	violations := append([]types.Violation(nil), o.violations...)
	o.mu.Unlock()

	o.releaseResources()

	err := o.cfg.API.EndSession(ctx, &api.EndSessionRequest{
		SessionID:            id.SessionID,
		Violations:           violations,
		CredentialID:         id.CredentialID,
		ScheduledInterviewID: id.ScheduledInterviewID,
	})
	if err != nil {
		if errors.Is(err, api.ErrSessionExpired) {
			o.failAuth()
			return err
		}
		return util.WrapError("end interview", err)
	}

	o.setState(StateTerminated)
	slog.Info("interview session terminated",
		"session", id.SessionID, "violations", len(violations))
	return nil
}

// Close force-releases all session resources. Used on component teardown;
// no end-session call is made. Idempotent.
func (o *Orchestrator) Close() {
	o.releaseResources()

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateNotStarted {
		o.state = StateTerminated
	}
}

// speakQuestion speaks the question when auto-speak is on. Synthesis being
// unavailable is not an error; the question simply is not read aloud.
func (o *Orchestrator) speakQuestion(ctx context.Context, question string) {
	if !o.cfg.AutoSpeak || o.cfg.Playback == nil || question == "" {
		return
	}
	err := o.cfg.Playback.Speak(ctx, question, o.cfg.Utterance)
	if err != nil && !errors.Is(err, speech.ErrSynthesisUnsupported) {
		slog.Warn("question playback failed", "error", err)
	}
}

// appendViolation records a violation. The list is append-only; detectors
// and the clock call this from their own goroutines.
func (o *Orchestrator) appendViolation(v types.Violation) {
	o.mu.Lock()
	o.violations = append(o.violations, v)
	o.mu.Unlock()

	slog.Info("violation recorded", "kind", v.Kind)
	if o.cfg.OnViolation != nil {
		o.cfg.OnViolation(v)
	}
}

// failAuth abandons the in-flight session after a credential rejection:
// resources are best-effort released and the caller is routed to
// re-authentication.
func (o *Orchestrator) failAuth() {
	o.releaseResources()
	o.setState(StateTerminated)

	slog.Warn("session credential expired, re-authentication required")
	if o.cfg.OnAuthExpired != nil {
		o.cfg.OnAuthExpired()
	}
}

// releaseResources stops the clock, the monitor, capture and playback, and
// releases the device bundle. Safe on every exit path; releasing twice is a
// no-op.
func (o *Orchestrator) releaseResources() {
	o.mu.Lock()
	bundle := o.bundle
	o.bundle = nil
	monitor := o.monitor
	o.monitor = nil
	o.mu.Unlock()

	o.clock.Stop()
	if monitor != nil {
		monitor.Stop()
	}
	if o.cfg.Playback != nil {
		o.cfg.Playback.Stop()
	}
	if o.cfg.Capture != nil && o.cfg.Capture.State() == speech.CaptureRecording {
		if err := o.cfg.Capture.Stop(); err != nil {
			slog.Debug("capture stop during release", "error", err)
		}
	}
	if bundle != nil {
		bundle.Release()
	}
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}
