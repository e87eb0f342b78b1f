// Package console wires the interview session components together behind a
// single facade driven by the web interface: device setup, the live
// session, answer capture/playback, integrity observation and transcript
// archiving.
package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/preptrack/interview-console/internal/api"
	"github.com/preptrack/interview-console/internal/archive"
	"github.com/preptrack/interview-console/internal/auth"
	"github.com/preptrack/interview-console/internal/config"
	"github.com/preptrack/interview-console/internal/integrity"
	"github.com/preptrack/interview-console/internal/media"
	"github.com/preptrack/interview-console/internal/metrics"
	"github.com/preptrack/interview-console/internal/session"
	"github.com/preptrack/interview-console/internal/speech"
	"github.com/preptrack/interview-console/internal/types"
	"github.com/preptrack/interview-console/internal/util"
)

// ErrBackendNotConfigured indicates the backend base URL or credentials are
// missing from the configuration.
var ErrBackendNotConfigured = errors.New("backend is not configured")

// Engines bundles the platform engines injected into the console.
type Engines struct {
	Provider    media.Provider
	Recognizer  speech.Recognizer
	Synthesizer speech.Synthesizer
	Focus       integrity.FocusSource
}

// endConfirmation feeds the user's end-interview decision, taken in the
// browser, into the orchestrator's confirmation prompt.
type endConfirmation struct {
	mu        sync.Mutex
	confirmed bool
}

func (e *endConfirmation) set(confirmed bool) {
	e.mu.Lock()
	e.confirmed = confirmed
	e.mu.Unlock()
}

func (e *endConfirmation) ConfirmEnd(context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.confirmed, nil
}

// Console is the application core behind the web interface. One interview
// attempt runs at a time; a new attempt gets a fresh wizard and
// orchestrator.
type Console struct {
	mu sync.Mutex

	cfg     *config.Config
	engines Engines
	metrics *metrics.Metrics

	capture  *speech.CaptureController
	playback *speech.PlaybackController

	authSession *auth.Session
	client      *api.Client

	setup      *media.Wizard
	orch       *session.Orchestrator
	bundle     *media.Bundle
	confirm    *endConfirmation
	params     types.InterviewParams
	startedAt  time.Time
	needsLogin bool
}

// New creates the console core over the given configuration and engines.
func New(cfg *config.Config, engines Engines) *Console {
	c := &Console{
		cfg:     cfg,
		engines: engines,
		metrics: metrics.DefaultMetrics,
		confirm: &endConfirmation{},
	}

	c.playback = speech.NewPlaybackController(engines.Synthesizer)
	c.capture = speech.NewCaptureController(engines.Recognizer, c.playback, func(err error) {
		slog.Error("answer capture failed", "error", err)
		c.metrics.RecordRecognitionFailure()
	})

	return c
}

// Devices enumerates the cameras and speakers visible to the media provider.
func (c *Console) Devices() (media.Devices, error) {
	return c.engines.Provider.ListDevices()
}

// Capture returns the answer capture controller.
func (c *Console) Capture() *speech.CaptureController { return c.capture }

// Playback returns the question playback controller.
func (c *Console) Playback() *speech.PlaybackController { return c.playback }

// ensureBackend logs in and builds the API client on first use. The auth
// session lives until Close or a credential expiry.
func (c *Console) ensureBackend() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ensureBackendLocked()
}

func (c *Console) ensureBackendLocked() error {
	if c.client != nil && c.authSession != nil && c.authSession.Valid() {
		return nil
	}

	snap := c.cfg.Snapshot()
	if !snap.HasBackend() {
		return ErrBackendNotConfigured
	}

	sess, err := auth.Login(snap.Auth)
	if err != nil {
		return util.WrapError("backend login", err)
	}

	c.authSession = sess
	c.client = api.NewClient(snap.BackendBaseURL, sess.TokenSource())
	c.needsLogin = false
	slog.Info("backend session established", "base_url", snap.BackendBaseURL)
	return nil
}

// BeginSetup starts a fresh interview attempt: a new setup wizard and a new
// orchestrator bound to the backend client.
func (c *Console) BeginSetup() error {
	if err := c.ensureBackend(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.orch != nil {
		st := c.orch.State()
		if st != session.StateTerminated && st != session.StateNotStarted {
			return fmt.Errorf("an interview attempt is already in progress (state %s)", st)
		}
	}

	c.setup = media.NewWizard(c.engines.Provider)
	c.bundle = nil
	c.confirm = &endConfirmation{}
	c.orch = session.NewOrchestrator(session.Config{
		API:           c.client,
		Capture:       c.capture,
		Playback:      c.playback,
		Focus:         c.engines.Focus,
		Confirm:       c.confirm,
		OnAuthExpired: c.onAuthExpired,
		OnViolation:   c.onViolation,
		AutoSpeak:     c.cfg.AutoSpeak(),
		Utterance:     c.cfg.UtteranceOptions(),
		Noise:         c.cfg.NoiseConfig(),
	})
	return c.orch.BeginSetup()
}

// Setup returns the active setup wizard, or nil outside an attempt.
func (c *Console) Setup() *media.Wizard {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setup
}

// ConfirmSetup completes the wizard and hands the device bundle to the
// orchestrator.
func (c *Console) ConfirmSetup() error {
	c.mu.Lock()
	setup := c.setup
	orch := c.orch
	c.mu.Unlock()

	if setup == nil || orch == nil {
		return errors.New("setup has not begun")
	}

	bundle, err := setup.Confirm()
	if err != nil {
		return err
	}
	if err := orch.CompleteSetup(bundle); err != nil {
		bundle.Release()
		return err
	}

	c.mu.Lock()
	c.bundle = bundle
	c.mu.Unlock()
	return nil
}

// AbandonSetup cancels the attempt during device setup.
func (c *Console) AbandonSetup() error {
	c.mu.Lock()
	setup := c.setup
	orch := c.orch
	c.setup = nil
	c.bundle = nil
	c.mu.Unlock()

	if setup != nil {
		setup.Abandon()
	}
	if orch != nil && orch.State() == session.StateSetup {
		return orch.AbandonSetup()
	}
	return nil
}

// StartInterview starts the live session with the given parameters.
func (c *Console) StartInterview(ctx context.Context, params types.InterviewParams) error {
	c.mu.Lock()
	orch := c.orch
	c.params = params
	c.mu.Unlock()

	if orch == nil {
		return errors.New("setup has not begun")
	}
	if err := orch.Start(ctx, params); err != nil {
		return err
	}

	c.mu.Lock()
	c.startedAt = time.Now()
	c.mu.Unlock()
	c.metrics.RecordSessionStart()
	return nil
}

// SubmitAnswer submits a typed answer for the current question.
func (c *Console) SubmitAnswer(ctx context.Context, text string) error {
	orch := c.orchestrator()
	if orch == nil {
		return errors.New("no interview in progress")
	}
	if err := orch.SubmitAnswer(ctx, text); err != nil {
		return err
	}
	c.metrics.RecordTurn()
	return nil
}

// SubmitCapturedAnswer confirms the reviewed transcript and submits it.
func (c *Console) SubmitCapturedAnswer(ctx context.Context) error {
	orch := c.orchestrator()
	if orch == nil {
		return errors.New("no interview in progress")
	}
	if err := orch.SubmitCapturedAnswer(ctx); err != nil {
		return err
	}
	c.metrics.RecordTurn()
	return nil
}

// EndInterview ends the session. confirmed carries the user's answer to the
// end-interview prompt shown in the browser.
func (c *Console) EndInterview(ctx context.Context, confirmed bool) error {
	c.mu.Lock()
	orch := c.orch
	confirm := c.confirm
	params := c.params
	startedAt := c.startedAt
	c.mu.Unlock()

	if orch == nil {
		return errors.New("no interview in progress")
	}

	confirm.set(confirmed)
	if err := orch.End(ctx); err != nil {
		return err
	}

	if !startedAt.IsZero() {
		c.metrics.RecordSessionEnd(time.Since(startedAt).Seconds())
	}
	c.archiveAttempt(ctx, orch.Identity().SessionID, params, orch.Turns(), orch.Violations())
	return nil
}

// archiveAttempt uploads the finished transcript when archiving is
// configured. Failures are logged, never surfaced; the interview already
// ended.
func (c *Console) archiveAttempt(ctx context.Context, sessionID string, params types.InterviewParams, turns []types.Turn, violations []types.Violation) {
	archiver := archive.New(c.cfg.ArchiveConfig())
	if archiver == nil {
		return
	}

	rec := &archive.Record{
		SessionID:  sessionID,
		Params:     params,
		Turns:      turns,
		Violations: violations,
		EndedAt:    time.Now(),
	}
	if err := archiver.Store(ctx, rec); err != nil {
		slog.Error("transcript archive failed", "session", sessionID, "error", err)
	}
}

// TestArchive probes the configured archive storage.
func (c *Console) TestArchive(ctx context.Context, cfg archive.Config) error {
	archiver := archive.New(cfg)
	if archiver == nil {
		return errors.New("archive storage is not configured")
	}
	return archiver.TestConnection(ctx)
}

// AudioLevel samples the current ambient level for the VU meter. Returns 0
// when no analyser is attached.
func (c *Console) AudioLevel() float64 {
	c.mu.Lock()
	bundle := c.bundle
	c.mu.Unlock()

	if bundle == nil {
		return 0
	}
	level, err := bundle.Analyser().Level()
	if err != nil {
		return 0
	}
	return level
}

// orchestrator returns the active orchestrator, nil outside an attempt.
func (c *Console) orchestrator() *session.Orchestrator {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orch
}

// onViolation records violation metrics alongside the orchestrator's list.
func (c *Console) onViolation(v types.Violation) {
	c.metrics.RecordViolation(string(v.Kind))
}

// onAuthExpired tears down the rejected backend session so the next attempt
// re-authenticates.
func (c *Console) onAuthExpired() {
	c.mu.Lock()
	if c.authSession != nil {
		c.authSession.Logout()
		c.authSession = nil
	}
	c.client = nil
	c.needsLogin = true
	c.mu.Unlock()
}

// NeedsLogin reports whether the backend rejected the credential and a
// fresh login is required.
func (c *Console) NeedsLogin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.needsLogin
}

// Status is the point-in-time console state pushed to the browser.
type Status struct {
	State              string            `json:"state"`
	SetupState         string            `json:"setup_state,omitempty"`
	SessionID          string            `json:"session_id,omitempty"`
	CurrentQuestion    string            `json:"current_question,omitempty"`
	TurnCount          int               `json:"turn_count"`
	SecondsRemaining   int               `json:"seconds_remaining"`
	Complete           bool              `json:"complete"`
	Violations         []types.Violation `json:"violations"`
	Transcript         speech.Transcript `json:"transcript"`
	Speaking           bool              `json:"speaking"`
	SynthesisSupported bool              `json:"synthesis_supported"`
	BackendConfigured  bool              `json:"backend_configured"`
	ArchiveConfigured  bool              `json:"archive_configured"`
	NeedsLogin         bool              `json:"needs_login"`
}

// Status returns the current console state.
func (c *Console) Status() Status {
	c.mu.Lock()
	orch := c.orch
	setup := c.setup
	needsLogin := c.needsLogin
	c.mu.Unlock()

	snap := c.cfg.Snapshot()
	st := Status{
		State:              session.StateNotStarted.String(),
		Violations:         []types.Violation{},
		Transcript:         c.capture.Snapshot(),
		Speaking:           c.playback.Speaking(),
		SynthesisSupported: c.playback.Supported(),
		BackendConfigured:  snap.HasBackend(),
		ArchiveConfigured:  snap.HasArchive(),
		NeedsLogin:         needsLogin,
	}

	if setup != nil {
		st.SetupState = setup.State().String()
	}
	if orch != nil {
		st.State = orch.State().String()
		st.SessionID = orch.Identity().SessionID
		st.CurrentQuestion = orch.CurrentQuestion()
		st.TurnCount = len(orch.Turns())
		st.SecondsRemaining = orch.SecondsRemaining()
		st.Complete = orch.Complete()
		st.Violations = orch.Violations()
	}
	return st
}

// Close releases all resources: the active attempt, the playback engine
// and the backend session.
func (c *Console) Close() {
	c.mu.Lock()
	orch := c.orch
	setup := c.setup
	authSession := c.authSession
	c.orch = nil
	c.setup = nil
	c.bundle = nil
	c.authSession = nil
	c.client = nil
	c.mu.Unlock()

	if setup != nil {
		setup.Abandon()
	}
	if orch != nil {
		orch.Close()
	}
	c.playback.Stop()
	if authSession != nil {
		authSession.Logout()
	}
}
