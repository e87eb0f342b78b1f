package speech

import (
	"context"
	"errors"
	"sync"

	"github.com/preptrack/interview-console/internal/util"
)

// ErrSynthesisUnsupported is returned by Speak when the platform has no
// speech synthesis. Callers should check Supported before speaking.
var ErrSynthesisUnsupported = errors.New("speech synthesis unsupported")

// DefaultUtteranceOptions are applied to question playback when the config
// does not override them.
func DefaultUtteranceOptions() Utterance {
	return Utterance{Rate: 1.0, Pitch: 1.0, Volume: 1.0, Lang: "en-US"}
}

// PlaybackController speaks interviewer questions, keeping at most one
// utterance active and exposing a speaking flag that gates answer capture.
// It is safe for concurrent use.
type PlaybackController struct {
	mu       sync.Mutex
	synth    Synthesizer
	speaking bool
	// generation ignores stale lifecycle events from a cancelled utterance.
	generation int
}

// NewPlaybackController creates a playback controller over the synthesizer.
func NewPlaybackController(synth Synthesizer) *PlaybackController {
	return &PlaybackController{synth: synth}
}

// Supported reports whether speech synthesis is available. When it is not,
// playback simply never occurs and Speaking stays false.
func (p *PlaybackController) Supported() bool {
	return p.synth.Supported()
}

// Speaking reports whether interviewer audio is in progress.
func (p *PlaybackController) Speaking() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.speaking
}

// Speak cancels any in-flight utterance and speaks the given text.
// At most one utterance is active at a time.
func (p *PlaybackController) Speak(ctx context.Context, text string, opts Utterance) error {
	if !p.synth.Supported() {
		return ErrSynthesisUnsupported
	}

	p.mu.Lock()
	if p.speaking {
		p.synth.Stop()
		p.speaking = false
	}
	p.generation++
	gen := p.generation
	p.mu.Unlock()

	setSpeaking := func(speaking bool) {
		p.mu.Lock()
		if p.generation == gen {
			p.speaking = speaking
		}
		p.mu.Unlock()
	}

	opts.Text = text
	err := p.synth.Speak(ctx, opts, UtteranceEvents{
		OnStart: func() { setSpeaking(true) },
		OnEnd:   func() { setSpeaking(false) },
		OnError: func(error) { setSpeaking(false) },
	})
	return util.WrapError("speak utterance", err)
}

// Stop cancels the in-flight utterance, if any.
func (p *PlaybackController) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.speaking {
		p.synth.Stop()
		p.speaking = false
	}
}

// Pause pauses the in-flight utterance. Pausing while not speaking is a
// no-op.
func (p *PlaybackController) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.speaking {
		p.synth.Pause()
	}
}

// Resume resumes a paused utterance.
func (p *PlaybackController) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.speaking {
		p.synth.Resume()
	}
}
