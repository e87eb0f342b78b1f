// Package types provides shared type definitions used across the interview console.
package types

import "time"

// Timing constants for the interview session core.
const (
	// ClockTick is the countdown timer resolution.
	ClockTick = 1 * time.Second

	// NoiseThreshold is the 0-100 ambient level above which noise is suspect.
	NoiseThreshold = 60.0
	// NoiseConfirmDelay is how long the level must stay above threshold
	// before a violation is recorded.
	NoiseConfirmDelay = 2 * time.Second
	// NoiseCooldown suppresses further noise violations after one fires.
	NoiseCooldown = 5 * time.Second

	// LevelSampleInterval is the ambient level sampling cadence.
	LevelSampleInterval = 100 * time.Millisecond
)

// Recognizer restart backoff bounds.
const (
	InitialRestartDelay = 250 * time.Millisecond
	MaxRestartDelay     = 5 * time.Second
)

// ViolationKind identifies the category of an integrity violation.
type ViolationKind string

// Violation kinds recorded during a session.
const (
	ViolationTabSwitch      ViolationKind = "TAB_SWITCH"
	ViolationExcessiveNoise ViolationKind = "EXCESSIVE_NOISE"
	ViolationTimeExceeded   ViolationKind = "TIME_EXCEEDED"
)

// Violation is a timestamped integrity violation record.
// Violations are append-only and never mutated after creation.
type Violation struct {
	// Kind is the violation category.
	Kind ViolationKind `json:"kind"`
	// Timestamp is when the violation was detected, in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`
	// Level is the measured ambient level for noise violations.
	Level *float64 `json:"level,omitempty"`
}

// NewViolation creates a violation record stamped with the given time.
func NewViolation(kind ViolationKind, at time.Time) Violation {
	return Violation{Kind: kind, Timestamp: at.UnixMilli()}
}

// NewNoiseViolation creates an EXCESSIVE_NOISE violation carrying the measured level.
func NewNoiseViolation(level float64, at time.Time) Violation {
	return Violation{Kind: ViolationExcessiveNoise, Timestamp: at.UnixMilli(), Level: &level}
}

// Turn is one question/answer pair in the interview transcript.
type Turn struct {
	// Number is the 1-based turn number.
	Number int `json:"number"`
	// Question is the interviewer question text.
	Question string `json:"question"`
	// Answer is the candidate answer, empty until submitted.
	Answer string `json:"answer,omitempty"`
}

// VersionInfo contains version comparison data.
type VersionInfo struct {
	Current     string `json:"current"`              // Current version
	Latest      string `json:"latest,omitempty"`     // Latest available version
	UpdateAvail bool   `json:"update_available"`     // Update is available
	Commit      string `json:"commit,omitempty"`     // Git commit hash
	BuildTime   string `json:"build_time,omitempty"` // Build timestamp
}

// InterviewParams describes the interview to start.
type InterviewParams struct {
	// Role is the position being interviewed for.
	Role string `json:"role"`
	// InterviewType is the interview style (e.g. "technical", "behavioral").
	InterviewType string `json:"interview_type"`
	// DurationMinutes is the planned interview length in minutes.
	DurationMinutes int `json:"duration_minutes"`
	// Skills are the focus areas for question generation.
	Skills []string `json:"skills"`
	// ScheduledInterviewID links the session to an organization schedule entry.
	ScheduledInterviewID string `json:"scheduled_interview_id,omitempty"`
	// CredentialID identifies the candidate credential used for the attempt.
	CredentialID string `json:"credential_id,omitempty"`
}
