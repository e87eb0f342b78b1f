package speech

import "context"

// Utterance is one text-to-speech request.
type Utterance struct {
	Text   string  `json:"text"`
	Rate   float64 `json:"rate"`   // playback rate, 1.0 is normal
	Pitch  float64 `json:"pitch"`  // voice pitch, 1.0 is normal
	Volume float64 `json:"volume"` // 0.0 to 1.0
	Lang   string  `json:"lang"`   // BCP 47 language tag
}

// UtteranceEvents receives lifecycle callbacks for one utterance.
// OnEnd fires exactly once per started utterance, whether it finished,
// errored, or was cancelled.
type UtteranceEvents struct {
	OnStart func()
	OnEnd   func()
	OnError func(err error)
}

// Synthesizer converts text to spoken audio.
type Synthesizer interface {
	// Supported reports whether synthesis is available on this platform.
	// Unsupported platforms surface this flag rather than failing Speak.
	Supported() bool

	// Speak starts speaking the utterance asynchronously, delivering
	// lifecycle events to ev.
	Speak(ctx context.Context, u Utterance, ev UtteranceEvents) error

	// Stop cancels the in-flight utterance, if any.
	Stop()

	// Pause and Resume control the in-flight utterance.
	Pause()
	Resume()
}
