package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/preptrack/interview-console/internal/auth"
	"github.com/preptrack/interview-console/internal/types"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "config.json"))
}

func TestLoad_CreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	c := New(path)

	if err := c.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("default config file not written: %v", err)
	}

	snap := c.Snapshot()
	if snap.WebPort != DefaultWebPort || snap.WebUser != DefaultWebUsername {
		t.Errorf("defaults not applied: %+v", snap)
	}
	if !snap.AutoSpeak {
		t.Error("auto-speak should default to on")
	}
}

func TestLoad_AppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"backend":{"base_url":"https://api.example.com"}}`), 0o600); err != nil {
		t.Fatal(err)
	}

	c := New(path)
	if err := c.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.BackendBaseURL() != "https://api.example.com" {
		t.Errorf("base url = %q", c.BackendBaseURL())
	}
	snap := c.Snapshot()
	if snap.WebPort != DefaultWebPort || snap.SpeechLang != DefaultSpeechLang {
		t.Errorf("defaults not backfilled: %+v", snap)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"bad port", `{"system":{"port":70000}}`},
		{"bad base url", `{"backend":{"base_url":"not-a-url"}}`},
		{"bad noise threshold", `{"integrity":{"noise_threshold":150}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			if err := os.WriteFile(path, []byte(tt.json), 0o600); err != nil {
				t.Fatal(err)
			}
			if err := New(path).Load(); err == nil {
				t.Error("invalid config accepted")
			}
		})
	}
}

func TestNoiseConfig_DefaultsAndOverrides(t *testing.T) {
	c := testConfig(t)

	cfg := c.NoiseConfig()
	if cfg.Threshold != types.NoiseThreshold {
		t.Errorf("threshold = %v", cfg.Threshold)
	}
	if cfg.ConfirmDelay != types.NoiseConfirmDelay || cfg.Cooldown != types.NoiseCooldown {
		t.Errorf("timing defaults = %+v", cfg)
	}

	if err := c.SetNoiseThreshold(75); err != nil {
		t.Fatal(err)
	}
	c.Integrity.NoiseConfirmMs = 3000

	cfg = c.NoiseConfig()
	if cfg.Threshold != 75 {
		t.Errorf("threshold override = %v", cfg.Threshold)
	}
	if cfg.ConfirmDelay != 3*time.Second {
		t.Errorf("confirm delay override = %v", cfg.ConfirmDelay)
	}
}

func TestSetNoiseThreshold_RejectsOutOfRange(t *testing.T) {
	c := testConfig(t)
	if err := c.SetNoiseThreshold(101); err == nil {
		t.Error("out-of-range threshold accepted")
	}
}

func TestSettersPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	c := New(path)

	if err := c.SetBackendBaseURL("https://api.example.com"); err != nil {
		t.Fatal(err)
	}
	if err := c.SetAuthConfig(auth.Config{TokenURL: "https://id.example.com/token", ClientID: "id", ClientSecret: "secret"}); err != nil {
		t.Fatal(err)
	}
	if err := c.SetAutoSpeak(false); err != nil {
		t.Fatal(err)
	}

	reloaded := New(path)
	if err := reloaded.Load(); err != nil {
		t.Fatal(err)
	}
	snap := reloaded.Snapshot()
	if !snap.HasBackend() {
		t.Errorf("backend config not persisted: %+v", snap)
	}
	if snap.AutoSpeak {
		t.Error("auto-speak setting not persisted")
	}
}

func TestProviderConfig_FallsBackToBuiltins(t *testing.T) {
	c := testConfig(t)

	cfg := c.ProviderConfig()
	if len(cfg.CaptureCommand) == 0 || len(cfg.ListSpeakersCommand) == 0 {
		t.Errorf("builtin commands missing: %+v", cfg)
	}

	c.Devices.CaptureCommand = []string{"ffmpeg", "-f", "pulse", "-i", "default"}
	if got := c.ProviderConfig().CaptureCommand[0]; got != "ffmpeg" {
		t.Errorf("capture command override not applied: %v", got)
	}
}
