package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// WizardState is a step in the device setup wizard.
type WizardState int

// Setup wizard states. Every transition is user-driven; there is no
// automatic advancement.
const (
	StateAwaitingCamera WizardState = iota
	StateCameraGranted
	StateAwaitingSpeakerChoice
	StateDeviceTesting
	StateReady
)

// String returns the string representation of the state.
func (s WizardState) String() string {
	switch s {
	case StateAwaitingCamera:
		return "AWAITING_CAMERA"
	case StateCameraGranted:
		return "CAMERA_GRANTED"
	case StateAwaitingSpeakerChoice:
		return "AWAITING_SPEAKER_CHOICE"
	case StateDeviceTesting:
		return "DEVICE_TESTING"
	case StateReady:
		return "READY"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
}

// ErrWizardDone is returned for operations on a wizard that already yielded
// its bundle.
var ErrWizardDone = errors.New("setup wizard already completed")

// Wizard drives candidate device setup before a live session:
// AwaitingCamera -> CameraGranted -> AwaitingSpeakerChoice -> DeviceTesting -> Ready.
// The terminal Ready state yields the device bundle to the orchestrator.
type Wizard struct {
	mu       sync.Mutex
	provider Provider
	state    WizardState

	stream    Stream
	cameraID  string
	speakerID string
}

// NewWizard creates a setup wizard in the AwaitingCamera state.
func NewWizard(p Provider) *Wizard {
	return &Wizard{provider: p, state: StateAwaitingCamera}
}

// State returns the current wizard state.
func (w *Wizard) State() WizardState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// transitionErr reports an operation attempted in the wrong state.
func transitionErr(op string, from WizardState) error {
	return fmt.Errorf("%s not allowed in state %s", op, from)
}

// AcquireCamera requests camera access and advances to CameraGranted.
// On ErrPermissionDenied the wizard stays in AwaitingCamera so the user can
// retry the grant.
func (w *Wizard) AcquireCamera(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateAwaitingCamera {
		return transitionErr("camera acquisition", w.state)
	}

	stream, err := w.provider.AcquireCamera(ctx)
	if err != nil {
		return err
	}

	w.stream = stream
	w.state = StateCameraGranted

	// Labels become available after the grant; best-effort only.
	if devices, err := w.provider.ListDevices(); err == nil && len(devices.Cameras) > 0 {
		w.cameraID = devices.Cameras[0].ID
	} else if err != nil {
		slog.Warn("device enumeration failed after grant", "error", err)
	}

	return nil
}

// Continue advances from CameraGranted to AwaitingSpeakerChoice.
func (w *Wizard) Continue() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateCameraGranted {
		return transitionErr("continue", w.state)
	}
	w.state = StateAwaitingSpeakerChoice
	return nil
}

// SelectSpeaker records the chosen output device and advances to DeviceTesting.
func (w *Wizard) SelectSpeaker(speakerID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateAwaitingSpeakerChoice {
		return transitionErr("speaker selection", w.state)
	}
	w.speakerID = speakerID
	w.state = StateDeviceTesting
	return nil
}

// PlayTestTone routes a short clip to the selected speaker. When the
// platform cannot address a specific output, the wizard degrades to the
// default output silently and the test still counts as passed.
func (w *Wizard) PlayTestTone(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateDeviceTesting {
		return transitionErr("test tone", w.state)
	}

	err := w.provider.PlayTestTone(ctx, w.speakerID)
	if errors.Is(err, ErrSinkRoutingUnsupported) {
		slog.Info("output routing unsupported, using default output")
		w.speakerID = ""
		return nil
	}
	return err
}

// Confirm completes the wizard and yields the device bundle. The bundle
// takes over stream ownership; subsequent wizard operations fail.
func (w *Wizard) Confirm() (*Bundle, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == StateReady {
		return nil, ErrWizardDone
	}
	if w.state != StateDeviceTesting {
		return nil, transitionErr("confirm", w.state)
	}

	bundle := NewBundle(w.cameraID, w.speakerID, w.stream)
	w.stream = nil
	w.state = StateReady
	return bundle, nil
}

// Abandon releases the acquired stream when setup is cancelled before
// Confirm. Safe to call in any state; after Confirm the bundle owns the
// stream and Abandon does nothing.
func (w *Wizard) Abandon() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stream != nil {
		w.stream.StopTracks()
		w.stream = nil
	}
}
