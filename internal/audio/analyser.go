// Package audio provides ambient level analysis over a live audio stream.
// The analyser produces a continuous 0-100 reading used for setup-time level
// metering and for session-time noise policing.
package audio

import (
	"errors"
	"sync"
)

// MaxBins is the number of frequency bins sampled per reading.
const MaxBins = 256

// ErrNotAttached is returned when reading from a detached analyser.
var ErrNotAttached = errors.New("analyser not attached")

// Source provides frequency-domain magnitude data for a live audio stream.
// Each bin is a magnitude in [0, 255].
type Source interface {
	// FrequencyData fills buf with frequency bin magnitudes and returns
	// the number of bins written.
	FrequencyData(buf []byte) (int, error)
}

// Analyser computes a normalized ambient level from a frequency source.
// It is safe for concurrent use.
type Analyser struct {
	mu     sync.Mutex
	source Source
	bins   []byte
}

// Attach creates an analyser bound to the given source.
func Attach(src Source) *Analyser {
	return &Analyser{
		source: src,
		bins:   make([]byte, MaxBins),
	}
}

// Level samples the source and returns the current ambient level in [0, 100].
// The level is the mean bin magnitude scaled so that a mean of 128 maps to 100.
func (a *Analyser) Level() (float64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.source == nil {
		return 0, ErrNotAttached
	}

	n, err := a.source.FrequencyData(a.bins)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}

	var sum float64
	for _, b := range a.bins[:n] {
		sum += float64(b)
	}
	mean := sum / float64(n)

	return min(100, mean/128*100), nil
}

// Detach releases the analyser. Further Level calls return ErrNotAttached.
// Detaching twice is a no-op.
func (a *Analyser) Detach() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.source = nil
	a.bins = nil
}

// Attached reports whether the analyser still has a source.
func (a *Analyser) Attached() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.source != nil
}
