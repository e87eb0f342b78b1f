package audio

import (
	"encoding/binary"
	"io"
	"sync"
)

const (
	// MaxSampleValue is the maximum absolute value for 16-bit signed audio.
	MaxSampleValue = 32768.0

	// defaultFrameBytes is ~100ms of S16LE mono audio at 16kHz.
	defaultFrameBytes = 3200
)

// PCMSource adapts a raw S16LE mono PCM stream to the analyser's frequency
// bin interface. Each bin is the scaled magnitude of one sample, so the
// analyser's mean-over-bins reading tracks the short-term signal energy.
type PCMSource struct {
	mu    sync.Mutex
	r     io.Reader
	frame []byte
}

// NewPCMSource creates a source reading S16LE mono samples from r.
func NewPCMSource(r io.Reader) *PCMSource {
	return &PCMSource{
		r:     r,
		frame: make([]byte, defaultFrameBytes),
	}
}

// FrequencyData reads one frame of PCM and fills buf with per-sample
// magnitudes scaled to [0, 255].
func (s *PCMSource) FrequencyData(buf []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.r.Read(s.frame)
	if err != nil {
		return 0, err
	}

	bins := 0
	for i := 0; i+1 < n && bins < len(buf); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(s.frame[i:]))
		mag := int32(sample)
		if mag < 0 {
			mag = -mag
		}
		// 0..32768 scaled down to 0..255
		scaled := mag / 128
		if scaled > 255 {
			scaled = 255
		}
		buf[bins] = byte(scaled)
		bins++
	}

	return bins, nil
}
