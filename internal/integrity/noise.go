// Package integrity observes a live interview session for integrity
// concerns: tab/focus loss and sustained excessive ambient noise. It is
// purely observational and never blocks or fails the session.
package integrity

import (
	"sync"
	"time"

	"github.com/preptrack/interview-console/internal/types"
)

// NoiseConfig holds the configurable thresholds for noise detection.
type NoiseConfig struct {
	Threshold    float64       // 0-100 level above which noise is suspect
	ConfirmDelay time.Duration // how long the level must stay above threshold
	Cooldown     time.Duration // suppression window after a violation fires
}

// DefaultNoiseConfig returns the standard noise detection parameters.
func DefaultNoiseConfig() NoiseConfig {
	return NoiseConfig{
		Threshold:    types.NoiseThreshold,
		ConfirmDelay: types.NoiseConfirmDelay,
		Cooldown:     types.NoiseCooldown,
	}
}

// NoiseDetector tracks ambient noise state and produces violations.
// A violation fires only after the level has stayed above threshold for the
// full confirmation delay; the recorded level is re-sampled at fire time.
// After firing, the cooldown suppresses further violations regardless of
// level. It is safe for concurrent use.
type NoiseDetector struct {
	mu            sync.Mutex
	pendingSince  time.Time // when the current above-threshold period started
	cooldownUntil time.Time // no violations until this time
}

// NewNoiseDetector creates a noise detector.
func NewNoiseDetector() *NoiseDetector {
	return &NoiseDetector{}
}

// Update advances the detector with a new level sample and returns a
// violation when sustained noise is confirmed, or nil.
func (d *NoiseDetector) Update(level float64, cfg NoiseConfig, now time.Time) *types.Violation {
	d.mu.Lock()
	defer d.mu.Unlock()

	if now.Before(d.cooldownUntil) {
		// Cooldown also resets any pending confirmation so a fresh
		// above-threshold period is required after it expires.
		d.pendingSince = time.Time{}
		return nil
	}

	if level <= cfg.Threshold {
		// Spike ended before confirmation; cancel the timer.
		d.pendingSince = time.Time{}
		return nil
	}

	if d.pendingSince.IsZero() {
		d.pendingSince = now
		return nil
	}

	if now.Sub(d.pendingSince) < cfg.ConfirmDelay {
		return nil
	}

	d.pendingSince = time.Time{}
	d.cooldownUntil = now.Add(cfg.Cooldown)

	v := types.NewNoiseViolation(level, now)
	return &v
}

// Reset clears the detection state.
func (d *NoiseDetector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pendingSince = time.Time{}
	d.cooldownUntil = time.Time{}
}
