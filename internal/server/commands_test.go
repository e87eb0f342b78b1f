package server

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/preptrack/interview-console/internal/archive"
	"github.com/preptrack/interview-console/internal/config"
	"github.com/preptrack/interview-console/internal/console"
	"github.com/preptrack/interview-console/internal/integrity"
	"github.com/preptrack/interview-console/internal/media"
	"github.com/preptrack/interview-console/internal/speech"
)

type fakeProvider struct{}

func (fakeProvider) ListDevices() (media.Devices, error) { return media.Devices{}, nil }
func (fakeProvider) AcquireCamera(context.Context) (media.Stream, error) {
	return nil, media.ErrNoCamera
}
func (fakeProvider) PlayTestTone(context.Context, string) error { return nil }

func newTestHandler(t *testing.T) (*CommandHandler, *integrity.FocusHub, *config.Config) {
	t.Helper()

	cfg := config.New(filepath.Join(t.TempDir(), "config.json"))
	if err := cfg.Load(); err != nil {
		t.Fatalf("load config: %v", err)
	}

	hub := integrity.NewFocusHub()
	core := console.New(cfg, console.Engines{
		Provider:    fakeProvider{},
		Recognizer:  speech.NewMockRecognizer(),
		Synthesizer: speech.NewMockSynthesizer(),
		Focus:       hub,
	})
	return NewCommandHandler(cfg, core, hub), hub, cfg
}

func command(t *testing.T, cmdType string, data any) WSCommand {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal command data: %v", err)
	}
	return WSCommand{Type: cmdType, Data: raw}
}

func receive(t *testing.T, send chan any) map[string]any {
	t.Helper()
	select {
	case msg := <-send:
		m, ok := msg.(map[string]any)
		if !ok {
			t.Fatalf("message type = %T, want map", msg)
		}
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("no response on send channel")
		return nil
	}
}

func TestHandleTriggersStatusUpdate(t *testing.T) {
	h, _, _ := newTestHandler(t)
	send := make(chan any, 4)

	triggered := false
	h.Handle(WSCommand{Type: "status/get"}, send, func() { triggered = true })

	if !triggered {
		t.Error("status update not triggered")
	}
}

func TestFocusReportReachesSubscribers(t *testing.T) {
	h, hub, _ := newTestHandler(t)
	send := make(chan any, 4)

	ch, cancel := hub.Subscribe()
	defer cancel()

	h.Handle(command(t, "integrity/focus", map[string]string{"kind": "window_blur"}), send, func() {})

	result := receive(t, send)
	if result["success"] != true {
		t.Fatalf("focus report failed: %v", result["error"])
	}

	select {
	case ev := <-ch:
		if ev.Kind != integrity.FocusWindowBlur {
			t.Errorf("kind = %q, want %q", ev.Kind, integrity.FocusWindowBlur)
		}
	case <-time.After(time.Second):
		t.Fatal("no focus event delivered")
	}
}

func TestFocusReportRejectsUnknownKind(t *testing.T) {
	h, _, _ := newTestHandler(t)
	send := make(chan any, 4)

	h.Handle(command(t, "integrity/focus", map[string]string{"kind": "mouse_left"}), send, func() {})

	result := receive(t, send)
	if result["success"] != false {
		t.Error("expected validation failure for unknown focus kind")
	}
}

func TestInterviewStartRejectsMissingRole(t *testing.T) {
	h, _, _ := newTestHandler(t)
	send := make(chan any, 4)

	h.Handle(command(t, "interview/start", map[string]any{
		"interview_type":   "technical",
		"duration_minutes": 30,
		"skills":           []string{"go"},
	}), send, func() {})

	result := receive(t, send)
	if result["success"] != false {
		t.Error("expected validation failure for missing role")
	}
}

func TestSetupCameraWithoutWizardReturnsError(t *testing.T) {
	h, _, _ := newTestHandler(t)
	send := make(chan any, 4)

	h.Handle(WSCommand{Type: "setup/camera"}, send, func() {})

	result := receive(t, send)
	if result["success"] != false {
		t.Error("expected error when no setup is in progress")
	}
}

func TestSpeechUpdatePersistsAutoSpeak(t *testing.T) {
	h, _, cfg := newTestHandler(t)
	send := make(chan any, 4)

	h.Handle(command(t, "settings/speech/update", map[string]any{"auto_speak": false}), send, func() {})

	result := receive(t, send)
	if result["success"] != true {
		t.Fatalf("speech update failed: %v", result["error"])
	}
	if cfg.AutoSpeak() {
		t.Error("auto_speak still enabled after update")
	}
}

func TestIntegrityUpdateRejectsOutOfRangeThreshold(t *testing.T) {
	h, _, _ := newTestHandler(t)
	send := make(chan any, 4)

	h.Handle(command(t, "settings/integrity/update", map[string]any{"noise_threshold": 250.0}), send, func() {})

	result := receive(t, send)
	if result["success"] != false {
		t.Error("expected rejection of out-of-range threshold")
	}
}

func TestSettingsGetOmitsSecrets(t *testing.T) {
	h, _, cfg := newTestHandler(t)
	send := make(chan any, 4)

	if err := cfg.SetArchiveConfig(archive.Config{
		Bucket:          "transcripts",
		AccessKeyID:     "archive-key",
		SecretAccessKey: "archive-secret",
	}); err != nil {
		t.Fatalf("set archive config: %v", err)
	}

	h.Handle(WSCommand{Type: "settings/get"}, send, func() {})

	result := receive(t, send)
	if result["success"] != true {
		t.Fatalf("settings/get failed: %v", result["error"])
	}

	raw, err := json.Marshal(result["data"])
	if err != nil {
		t.Fatalf("marshal settings payload: %v", err)
	}
	if strings.Contains(string(raw), "archive-secret") {
		t.Error("settings payload leaks the archive secret")
	}
}
