package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

// fixedSource returns the same bins on every read.
type fixedSource struct {
	bins []byte
}

func (f *fixedSource) FrequencyData(buf []byte) (int, error) {
	return copy(buf, f.bins), nil
}

func TestAnalyser_Level(t *testing.T) {
	tests := []struct {
		name string
		bins []byte
		want float64
	}{
		{
			name: "silence reads zero",
			bins: []byte{0, 0, 0, 0},
			want: 0,
		},
		{
			name: "mean of 128 maps to 100",
			bins: []byte{128, 128, 128, 128},
			want: 100,
		},
		{
			name: "mean of 64 maps to 50",
			bins: []byte{64, 64, 64, 64},
			want: 50,
		},
		{
			name: "level is capped at 100",
			bins: []byte{255, 255, 255, 255},
			want: 100,
		},
		{
			name: "mixed bins average",
			bins: []byte{0, 128},
			want: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Attach(&fixedSource{bins: tt.bins})
			got, err := a.Level()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Level() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAnalyser_DetachedReadFails(t *testing.T) {
	a := Attach(&fixedSource{bins: []byte{1}})
	a.Detach()

	if _, err := a.Level(); err != ErrNotAttached {
		t.Errorf("expected ErrNotAttached, got %v", err)
	}
	if a.Attached() {
		t.Error("expected Attached to be false after Detach")
	}
}

func TestAnalyser_DetachTwiceIsNoop(t *testing.T) {
	a := Attach(&fixedSource{bins: []byte{1}})
	a.Detach()
	a.Detach()

	if _, err := a.Level(); err != ErrNotAttached {
		t.Errorf("expected ErrNotAttached, got %v", err)
	}
}

func TestPCMSource_Magnitudes(t *testing.T) {
	// Two samples: full-scale positive and full-scale negative.
	var pcm bytes.Buffer
	samples := []int16{32767, -32768, 0, 12800}
	for _, s := range samples {
		if err := binary.Write(&pcm, binary.LittleEndian, s); err != nil {
			t.Fatal(err)
		}
	}

	src := NewPCMSource(&pcm)
	buf := make([]byte, MaxBins)
	n, err := src.FrequencyData(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != len(samples) {
		t.Fatalf("got %d bins, want %d", n, len(samples))
	}

	if buf[0] != 255 {
		t.Errorf("full-scale positive bin = %d, want 255", buf[0])
	}
	if buf[1] != 255 {
		t.Errorf("full-scale negative bin = %d, want 255", buf[1])
	}
	if buf[2] != 0 {
		t.Errorf("zero sample bin = %d, want 0", buf[2])
	}
	if buf[3] != 100 {
		t.Errorf("mid sample bin = %d, want 100", buf[3])
	}
}
