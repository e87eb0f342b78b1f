// Package config provides application configuration management.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/preptrack/interview-console/internal/archive"
	"github.com/preptrack/interview-console/internal/auth"
	"github.com/preptrack/interview-console/internal/integrity"
	"github.com/preptrack/interview-console/internal/media"
	"github.com/preptrack/interview-console/internal/speech"
	"github.com/preptrack/interview-console/internal/types"
	"github.com/preptrack/interview-console/internal/util"
)

// Configuration defaults are used when values are not specified.
const (
	DefaultWebPort     = 8090
	DefaultWebUsername = "admin"
	DefaultWebPassword = "interview"
	DefaultSpeechRate  = 1.0
	DefaultSpeechPitch = 1.0
	DefaultSpeechVol   = 1.0
	DefaultSpeechLang  = "en-US"
)

// baseURLPattern validates the backend base URL.
var baseURLPattern = regexp.MustCompile(`^https?://[^\s/]+`)

// SystemConfig holds console server settings that require restart.
type SystemConfig struct {
	Port     int    `json:"port"`     // HTTP server port
	Username string `json:"username"` // Console login username
	Password string `json:"password"` // Console login password
}

// BackendConfig holds the remote interview API settings. The base URL is
// the single injected endpoint value; nothing else hardcodes a host.
type BackendConfig struct {
	BaseURL string      `json:"base_url"`
	Auth    auth.Config `json:"auth"`
}

// SpeechConfig holds question playback settings.
type SpeechConfig struct {
	AutoSpeak bool    `json:"auto_speak"`
	Rate      float64 `json:"rate"`
	Pitch     float64 `json:"pitch"`
	Volume    float64 `json:"volume"`
	Lang      string  `json:"lang"`
}

// IntegrityConfig holds noise detection thresholds and timing parameters.
type IntegrityConfig struct {
	NoiseThreshold  float64 `json:"noise_threshold"`   // 0-100 ambient level
	NoiseConfirmMs  int64   `json:"noise_confirm_ms"`  // Duration above threshold before a violation
	NoiseCooldownMs int64   `json:"noise_cooldown_ms"` // Suppression window after a violation
}

// DevicesConfig holds the system commands used to reach local devices.
// Empty values fall back to the built-in ALSA/PulseAudio commands.
type DevicesConfig struct {
	CaptureCommand      []string `json:"capture_command,omitempty"`
	ListCamerasCommand  []string `json:"list_cameras_command,omitempty"`
	ListSpeakersCommand []string `json:"list_speakers_command,omitempty"`
	TestToneCommand     []string `json:"test_tone_command,omitempty"`
}

// Config holds all application configuration. It is safe for concurrent use.
type Config struct {
	System    SystemConfig    `json:"system"`
	Backend   BackendConfig   `json:"backend"`
	Speech    SpeechConfig    `json:"speech"`
	Integrity IntegrityConfig `json:"integrity"`
	Devices   DevicesConfig   `json:"devices"`
	Archive   archive.Config  `json:"archive"`

	mu       sync.RWMutex
	filePath string
}

// New creates a new Config with default values.
func New(filePath string) *Config {
	return &Config{
		System: SystemConfig{
			Port:     DefaultWebPort,
			Username: DefaultWebUsername,
			Password: DefaultWebPassword,
		},
		Speech: SpeechConfig{
			AutoSpeak: true,
			Rate:      DefaultSpeechRate,
			Pitch:     DefaultSpeechPitch,
			Volume:    DefaultSpeechVol,
			Lang:      DefaultSpeechLang,
		},
		filePath: filePath,
	}
}

// Load reads config from file, creating a default if none exists.
func (c *Config) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.filePath)
	if os.IsNotExist(err) {
		return c.saveLocked()
	}
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	if err := json.Unmarshal(data, c); err != nil {
		return util.WrapError("parse config", err)
	}

	c.applyDefaults()

	return c.validate()
}

// validate checks all configuration fields for correctness.
func (c *Config) validate() error {
	if c.System.Port < 1 || c.System.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be 1-65535", c.System.Port)
	}
	if c.Backend.BaseURL != "" && !baseURLPattern.MatchString(c.Backend.BaseURL) {
		return fmt.Errorf("invalid backend base_url %q: must start with http:// or https://", c.Backend.BaseURL)
	}
	if c.Integrity.NoiseThreshold < 0 || c.Integrity.NoiseThreshold > 100 {
		return fmt.Errorf("invalid noise_threshold %.1f: must be 0-100", c.Integrity.NoiseThreshold)
	}
	return nil
}

// applyDefaults sets default values for zero-value fields.
func (c *Config) applyDefaults() {
	if c.System.Port == 0 {
		c.System.Port = DefaultWebPort
	}
	if c.System.Username == "" {
		c.System.Username = DefaultWebUsername
	}
	if c.System.Password == "" {
		c.System.Password = DefaultWebPassword
	}
	if c.Speech.Rate == 0 {
		c.Speech.Rate = DefaultSpeechRate
	}
	if c.Speech.Pitch == 0 {
		c.Speech.Pitch = DefaultSpeechPitch
	}
	if c.Speech.Volume == 0 {
		c.Speech.Volume = DefaultSpeechVol
	}
	if c.Speech.Lang == "" {
		c.Speech.Lang = DefaultSpeechLang
	}
}

// saveLocked persists configuration. Caller must hold c.mu.
func (c *Config) saveLocked() error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return util.WrapError("marshal config", err)
	}

	dir := filepath.Dir(c.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return util.WrapError("create config directory", err)
	}

	if err := os.WriteFile(c.filePath, data, 0o600); err != nil {
		return util.WrapError("write config", err)
	}

	return nil
}

// --- Getters for individual settings ---

// BackendBaseURL returns the configured backend base URL.
func (c *Config) BackendBaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Backend.BaseURL
}

// AuthConfig returns a copy of the backend auth settings.
func (c *Config) AuthConfig() auth.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Backend.Auth
}

// ArchiveConfig returns a copy of the transcript archive settings.
func (c *Config) ArchiveConfig() archive.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Archive
}

// NoiseConfig returns the noise detector configuration, with defaults for
// unset values.
func (c *Config) NoiseConfig() integrity.NoiseConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cfg := integrity.DefaultNoiseConfig()
	if c.Integrity.NoiseThreshold != 0 {
		cfg.Threshold = c.Integrity.NoiseThreshold
	}
	if c.Integrity.NoiseConfirmMs != 0 {
		cfg.ConfirmDelay = time.Duration(c.Integrity.NoiseConfirmMs) * time.Millisecond
	}
	if c.Integrity.NoiseCooldownMs != 0 {
		cfg.Cooldown = time.Duration(c.Integrity.NoiseCooldownMs) * time.Millisecond
	}
	return cfg
}

// UtteranceOptions returns the playback options for question audio.
func (c *Config) UtteranceOptions() speech.Utterance {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return speech.Utterance{
		Rate:   c.Speech.Rate,
		Pitch:  c.Speech.Pitch,
		Volume: c.Speech.Volume,
		Lang:   c.Speech.Lang,
	}
}

// AutoSpeak reports whether questions are read aloud.
func (c *Config) AutoSpeak() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Speech.AutoSpeak
}

// ProviderConfig returns the system media provider configuration, with the
// built-in commands for unset values.
func (c *Config) ProviderConfig() media.SystemProviderConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cfg := media.DefaultSystemProviderConfig()
	if len(c.Devices.CaptureCommand) > 0 {
		cfg.CaptureCommand = c.Devices.CaptureCommand
	}
	if len(c.Devices.ListCamerasCommand) > 0 {
		cfg.ListCamerasCommand = c.Devices.ListCamerasCommand
	}
	if len(c.Devices.ListSpeakersCommand) > 0 {
		cfg.ListSpeakersCommand = c.Devices.ListSpeakersCommand
	}
	if len(c.Devices.TestToneCommand) > 0 {
		cfg.TestToneCommand = c.Devices.TestToneCommand
	}
	return cfg
}

// --- Setters for individual settings ---

// SetBackendBaseURL updates the backend base URL and saves the configuration.
func (c *Config) SetBackendBaseURL(url string) error {
	if url != "" && !baseURLPattern.MatchString(url) {
		return fmt.Errorf("invalid backend base_url %q", url)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Backend.BaseURL = url
	return c.saveLocked()
}

// SetAuthConfig updates the backend auth settings and saves the configuration.
func (c *Config) SetAuthConfig(a auth.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Backend.Auth = a
	return c.saveLocked()
}

// SetAutoSpeak updates question playback and saves the configuration.
func (c *Config) SetAutoSpeak(on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Speech.AutoSpeak = on
	return c.saveLocked()
}

// SetNoiseThreshold updates the noise threshold and saves the configuration.
func (c *Config) SetNoiseThreshold(threshold float64) error {
	if threshold < 0 || threshold > 100 {
		return fmt.Errorf("invalid noise_threshold %.1f: must be 0-100", threshold)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Integrity.NoiseThreshold = threshold
	return c.saveLocked()
}

// SetArchiveConfig updates the transcript archive settings and saves.
func (c *Config) SetArchiveConfig(a archive.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Archive = a
	return c.saveLocked()
}

// --- Snapshot for atomic reads ---

// Snapshot is a point-in-time copy of configuration values.
type Snapshot struct {
	// System
	WebPort     int
	WebUser     string
	WebPassword string

	// Backend
	BackendBaseURL string
	Auth           auth.Config

	// Speech
	AutoSpeak   bool
	SpeechRate  float64
	SpeechPitch float64
	SpeechVol   float64
	SpeechLang  string

	// Integrity (with defaults)
	NoiseThreshold  float64
	NoiseConfirmMs  int64
	NoiseCooldownMs int64

	// Archive
	Archive archive.Config
}

// Snapshot returns a point-in-time copy of all configuration values.
func (c *Config) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		WebPort:     c.System.Port,
		WebUser:     c.System.Username,
		WebPassword: c.System.Password,

		BackendBaseURL: c.Backend.BaseURL,
		Auth:           c.Backend.Auth,

		AutoSpeak:   c.Speech.AutoSpeak,
		SpeechRate:  c.Speech.Rate,
		SpeechPitch: c.Speech.Pitch,
		SpeechVol:   c.Speech.Volume,
		SpeechLang:  c.Speech.Lang,

		NoiseThreshold:  firstNonZero(c.Integrity.NoiseThreshold, types.NoiseThreshold),
		NoiseConfirmMs:  firstNonZero(c.Integrity.NoiseConfirmMs, types.NoiseConfirmDelay.Milliseconds()),
		NoiseCooldownMs: firstNonZero(c.Integrity.NoiseCooldownMs, types.NoiseCooldown.Milliseconds()),

		Archive: c.Archive,
	}
}

// firstNonZero returns the first of its arguments that is not the zero
// value. It mirrors cmp.Or, which is unavailable before Go 1.22.
func firstNonZero[T comparable](a, b T) T {
	var zero T
	if a != zero {
		return a
	}
	return b
}

// HasBackend reports whether the backend connection is fully configured.
func (s *Snapshot) HasBackend() bool {
	return s.BackendBaseURL != "" && s.Auth.TokenURL != "" &&
		s.Auth.ClientID != "" && s.Auth.ClientSecret != ""
}

// HasArchive reports whether transcript archiving is configured.
func (s *Snapshot) HasArchive() bool {
	return s.Archive.IsConfigured()
}
