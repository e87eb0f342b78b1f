// Package speech provides the speech capture and playback controllers for a
// live interview session. Recognition and synthesis engines are injected
// behind interfaces; the controllers own the state machines around them.
package speech

import "context"

// ErrorCode classifies recognition engine errors.
type ErrorCode string

// Engine error codes. CodeNoSpeech and CodeAborted are recoverable and
// swallowed by the capture controller; everything else aborts recording.
const (
	CodeNoSpeech     ErrorCode = "no-speech"
	CodeAborted      ErrorCode = "aborted"
	CodeAudioCapture ErrorCode = "audio-capture"
	CodeNetwork      ErrorCode = "network"
	CodeNotAllowed   ErrorCode = "not-allowed"
)

// recoverable reports whether an engine error can be ignored without
// leaving the Recording state.
func (c ErrorCode) recoverable() bool {
	return c == CodeNoSpeech || c == CodeAborted
}

// Callback receives recognition results from the engine.
type Callback interface {
	// OnInterim is called with a transient partial transcript. Each call
	// overwrites the previous interim text.
	OnInterim(text string)

	// OnFinal is called with a finalized transcript fragment.
	OnFinal(text string)

	// OnError is called when the engine reports an error.
	OnError(code ErrorCode, err error)

	// OnEnd is called when the engine stops, whether requested or not.
	// Continuous engines may stop themselves after a period of silence;
	// the controller restarts them while recording is still wanted.
	OnEnd()
}

// Recognizer is a continuous speech recognition engine.
type Recognizer interface {
	// Start begins continuous recognition, delivering results to cb until
	// the engine stops. Start may be called again after OnEnd fires.
	Start(ctx context.Context, cb Callback) error

	// Stop requests a graceful stop. OnEnd fires when the engine is done.
	Stop() error
}
