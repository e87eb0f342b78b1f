// Package media provides camera/microphone/speaker device brokering for an
// interview session: device enumeration, permissioned stream acquisition,
// speaker testing, and the setup wizard that yields a tested device bundle.
package media

import (
	"context"
	"errors"

	"github.com/preptrack/interview-console/internal/audio"
)

// Sentinel errors for device operations.
var (
	// ErrPermissionDenied indicates the user rejected the camera/microphone
	// permission prompt. Fatal to setup progression; the caller must retry
	// the grant, there is no silent fallback.
	ErrPermissionDenied = errors.New("camera permission denied")

	// ErrSinkRoutingUnsupported indicates the platform cannot route audio to
	// a specific output device. Non-fatal; callers degrade to the default
	// output silently.
	ErrSinkRoutingUnsupported = errors.New("output device routing unsupported")

	// ErrNoCamera is returned when no camera device is available.
	ErrNoCamera = errors.New("no camera device found")
)

// DeviceInfo identifies an available media device.
type DeviceInfo struct {
	// ID is the device identifier.
	ID string `json:"id"`
	// Name is the device display name. Empty until permission is granted.
	Name string `json:"name"`
}

// Devices lists available media devices by kind.
type Devices struct {
	Cameras  []DeviceInfo `json:"cameras"`
	Speakers []DeviceInfo `json:"speakers"`
}

// Stream is a live camera/microphone stream. The session orchestrator owns
// the stream exclusively for the session lifetime; other components read
// from it without mutating it.
type Stream interface {
	// AudioSource returns the stream's microphone track as an analyser source.
	AudioSource() audio.Source

	// StopTracks stops all tracks and releases the underlying device handles.
	// Stopping twice is a no-op.
	StopTracks()
}

// Provider grants access to the platform's media devices.
type Provider interface {
	// ListDevices enumerates available cameras and speakers. Device labels
	// require a prior permission grant to be non-empty.
	ListDevices() (Devices, error)

	// AcquireCamera requests camera and microphone access and returns the
	// live stream. Returns ErrPermissionDenied if the user rejects.
	AcquireCamera(ctx context.Context) (Stream, error)

	// PlayTestTone routes a short audio clip to the chosen output device.
	// Returns ErrSinkRoutingUnsupported when the platform cannot address a
	// specific output.
	PlayTestTone(ctx context.Context, speakerID string) error
}
