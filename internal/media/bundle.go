package media

import (
	"log/slog"
	"sync"

	"github.com/preptrack/interview-console/internal/audio"
)

// Bundle is the tested-and-ready device set handed to the session
// orchestrator: the acquired stream plus the analyser attached to its
// microphone track. At most one bundle is active per session.
type Bundle struct {
	// CameraID is the selected camera device.
	CameraID string
	// SpeakerID is the selected output device, empty for the default output.
	SpeakerID string

	stream   Stream
	analyser *audio.Analyser

	releaseOnce sync.Once
}

// NewBundle creates a bundle owning the stream and attaching an analyser to
// its audio track.
func NewBundle(cameraID, speakerID string, stream Stream) *Bundle {
	return &Bundle{
		CameraID:  cameraID,
		SpeakerID: speakerID,
		stream:    stream,
		analyser:  audio.Attach(stream.AudioSource()),
	}
}

// Analyser returns the ambient level analyser attached to the stream.
func (b *Bundle) Analyser() *audio.Analyser {
	return b.analyser
}

// Release stops all stream tracks and detaches the analyser.
// Release is idempotent: every exit path (normal termination, setup
// abandonment, component teardown) calls it, and only the first call
// has any effect.
func (b *Bundle) Release() {
	b.releaseOnce.Do(func() {
		b.analyser.Detach()
		b.stream.StopTracks()
		slog.Info("device bundle released", "camera", b.CameraID)
	})
}
