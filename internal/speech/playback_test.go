package speech

import (
	"context"
	"errors"
	"testing"
)

// fakeSynth fires OnStart synchronously and lets tests finish utterances.
type fakeSynth struct {
	supported bool
	speaks    int
	stops     int
	pauses    int
	resumes   int
	events    UtteranceEvents
	last      Utterance
}

func (f *fakeSynth) Supported() bool { return f.supported }

func (f *fakeSynth) Speak(_ context.Context, u Utterance, ev UtteranceEvents) error {
	f.speaks++
	f.last = u
	f.events = ev
	ev.OnStart()
	return nil
}

func (f *fakeSynth) Stop()   { f.stops++ }
func (f *fakeSynth) Pause()  { f.pauses++ }
func (f *fakeSynth) Resume() { f.resumes++ }

func TestPlayback_SpeakingFlagLifecycle(t *testing.T) {
	synth := &fakeSynth{supported: true}
	p := NewPlaybackController(synth)

	if p.Speaking() {
		t.Fatal("speaking before any utterance")
	}

	if err := p.Speak(context.Background(), "Tell me about yourself", DefaultUtteranceOptions()); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if !p.Speaking() {
		t.Error("not speaking after OnStart")
	}

	synth.events.OnEnd()
	if p.Speaking() {
		t.Error("still speaking after OnEnd")
	}
}

func TestPlayback_NewUtteranceCancelsInFlight(t *testing.T) {
	synth := &fakeSynth{supported: true}
	p := NewPlaybackController(synth)

	if err := p.Speak(context.Background(), "first question", DefaultUtteranceOptions()); err != nil {
		t.Fatal(err)
	}
	firstEvents := synth.events

	if err := p.Speak(context.Background(), "second question", DefaultUtteranceOptions()); err != nil {
		t.Fatal(err)
	}

	if synth.stops != 1 {
		t.Errorf("in-flight utterance not cancelled: %d stops", synth.stops)
	}
	if synth.last.Text != "second question" {
		t.Errorf("speaking %q, want second question", synth.last.Text)
	}

	// A stale OnEnd from the cancelled utterance must not clear the flag.
	firstEvents.OnEnd()
	if !p.Speaking() {
		t.Error("stale OnEnd cleared the speaking flag")
	}
}

func TestPlayback_UnsupportedSurfacesFlag(t *testing.T) {
	synth := &fakeSynth{supported: false}
	p := NewPlaybackController(synth)

	if p.Supported() {
		t.Error("Supported() = true for unsupported platform")
	}
	if err := p.Speak(context.Background(), "hello", DefaultUtteranceOptions()); !errors.Is(err, ErrSynthesisUnsupported) {
		t.Errorf("expected ErrSynthesisUnsupported, got %v", err)
	}
	if p.Speaking() {
		t.Error("speaking flag set on unsupported platform")
	}
}

func TestPlayback_PauseWhileIdleIsNoop(t *testing.T) {
	synth := &fakeSynth{supported: true}
	p := NewPlaybackController(synth)

	p.Pause()
	p.Resume()
	p.Stop()

	if synth.pauses != 0 || synth.resumes != 0 || synth.stops != 0 {
		t.Errorf("idle controls reached synthesizer: pauses=%d resumes=%d stops=%d",
			synth.pauses, synth.resumes, synth.stops)
	}

	if err := p.Speak(context.Background(), "question", DefaultUtteranceOptions()); err != nil {
		t.Fatal(err)
	}
	p.Pause()
	if synth.pauses != 1 {
		t.Errorf("pause while speaking not passed through: %d", synth.pauses)
	}
}

func TestPlayback_ErrorClearsSpeaking(t *testing.T) {
	synth := &fakeSynth{supported: true}
	p := NewPlaybackController(synth)

	if err := p.Speak(context.Background(), "question", DefaultUtteranceOptions()); err != nil {
		t.Fatal(err)
	}
	synth.events.OnError(errors.New("audio device lost"))
	if p.Speaking() {
		t.Error("speaking flag stuck after synthesis error")
	}
}
