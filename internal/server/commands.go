package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/preptrack/interview-console/internal/archive"
	"github.com/preptrack/interview-console/internal/config"
	"github.com/preptrack/interview-console/internal/console"
	"github.com/preptrack/interview-console/internal/integrity"
	"github.com/preptrack/interview-console/internal/types"
)

// WSCommand is a command received from a WebSocket client.
type WSCommand struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// CommandHandler processes WebSocket commands.
type CommandHandler struct {
	cfg     *config.Config
	console *console.Console
	focus   *integrity.FocusHub
}

// NewCommandHandler creates a new command handler.
func NewCommandHandler(cfg *config.Config, c *console.Console, focus *integrity.FocusHub) *CommandHandler {
	return &CommandHandler{cfg: cfg, console: c, focus: focus}
}

// Handle processes a WebSocket command and performs the requested action.
// Commands use slash-style format: namespace/action (e.g., "setup/camera",
// "interview/answer").
func (h *CommandHandler) Handle(cmd WSCommand, send chan<- any, triggerStatusUpdate func()) {
	parts := strings.SplitN(cmd.Type, "/", 3)
	namespace := parts[0]
	action := ""
	if len(parts) > 1 {
		action = parts[1]
	}
	subaction := ""
	if len(parts) > 2 {
		subaction = parts[2]
	}

	switch namespace {
	case "setup":
		h.handleSetup(action, cmd, send)
	case "interview":
		h.handleInterview(action, cmd, send)
	case "recording":
		h.handleRecording(action, cmd, send)
	case "playback":
		h.handlePlayback(action, cmd, send)
	case "integrity":
		h.handleIntegrity(action, cmd, send)
	case "settings":
		h.handleSettings(action, subaction, cmd, send)
	case "status":
		h.handleStatus(action, send)
	default:
		slog.Warn("unknown WebSocket command", "type", cmd.Type)
	}

	triggerStatusUpdate()
}

// --- Namespace handlers ---

// handleSetup routes setup/* commands through the device wizard.
func (h *CommandHandler) handleSetup(action string, cmd WSCommand, send chan<- any) {
	wizard := h.console.Setup()
	needsWizard := func() bool {
		if wizard == nil {
			SendError(send, cmd.Type, errors.New("setup has not begun"))
			return false
		}
		return true
	}

	switch action {
	case "begin":
		HandleActionAsync(cmd, send, func() (any, error) {
			return nil, h.console.BeginSetup()
		})
	case "camera":
		if !needsWizard() {
			return
		}
		// Permission prompts block until the user answers.
		HandleActionAsync(cmd, send, func() (any, error) {
			return nil, wizard.AcquireCamera(context.Background())
		})
	case "continue":
		if !needsWizard() {
			return
		}
		if err := wizard.Continue(); err != nil {
			SendError(send, cmd.Type, err)
			return
		}
		SendSuccess(send, cmd.Type, nil)
	case "speaker":
		if !needsWizard() {
			return
		}
		HandleCommand(cmd, send, func(req *SpeakerSelectRequest) error {
			return wizard.SelectSpeaker(req.SpeakerID)
		})
	case "test-tone":
		if !needsWizard() {
			return
		}
		HandleActionAsync(cmd, send, func() (any, error) {
			return nil, wizard.PlayTestTone(context.Background())
		})
	case "confirm":
		if err := h.console.ConfirmSetup(); err != nil {
			SendError(send, cmd.Type, err)
			return
		}
		SendSuccess(send, cmd.Type, nil)
	case "abandon":
		if err := h.console.AbandonSetup(); err != nil {
			SendError(send, cmd.Type, err)
			return
		}
		SendSuccess(send, cmd.Type, nil)
	default:
		slog.Warn("unknown setup action", "action", action)
	}
}

// handleInterview routes interview/* commands.
func (h *CommandHandler) handleInterview(action string, cmd WSCommand, send chan<- any) {
	switch action {
	case "start":
		var req InterviewStartRequest
		if !DecodeAndValidate(cmd, send, &req) {
			return
		}
		HandleActionAsync(cmd, send, func() (any, error) {
			return nil, h.console.StartInterview(context.Background(), types.InterviewParams{
				Role:                 req.Role,
				InterviewType:        req.InterviewType,
				DurationMinutes:      req.DurationMinutes,
				Skills:               req.Skills,
				ScheduledInterviewID: req.ScheduledInterviewID,
				CredentialID:         req.CredentialID,
			})
		})
	case "answer":
		var req AnswerSubmitRequest
		if !DecodeAndValidate(cmd, send, &req) {
			return
		}
		HandleActionAsync(cmd, send, func() (any, error) {
			return nil, h.console.SubmitAnswer(context.Background(), req.Text)
		})
	case "answer-captured":
		HandleActionAsync(cmd, send, func() (any, error) {
			return nil, h.console.SubmitCapturedAnswer(context.Background())
		})
	case "end":
		var req InterviewEndRequest
		if !DecodeAndValidate(cmd, send, &req) {
			return
		}
		HandleActionAsync(cmd, send, func() (any, error) {
			return nil, h.console.EndInterview(context.Background(), req.Confirmed)
		})
	default:
		slog.Warn("unknown interview action", "action", action)
	}
}

// handleRecording routes recording/* commands for answer capture.
func (h *CommandHandler) handleRecording(action string, cmd WSCommand, send chan<- any) {
	capture := h.console.Capture()

	switch action {
	case "start":
		if err := capture.Start(context.Background()); err != nil {
			SendError(send, cmd.Type, err)
			return
		}
		SendSuccess(send, cmd.Type, nil)
	case "stop":
		if err := capture.Stop(); err != nil {
			SendError(send, cmd.Type, err)
			return
		}
		SendSuccess(send, cmd.Type, capture.Snapshot())
	case "retry":
		if err := capture.Retry(context.Background()); err != nil {
			SendError(send, cmd.Type, err)
			return
		}
		SendSuccess(send, cmd.Type, nil)
	case "cancel":
		if err := capture.Cancel(); err != nil {
			SendError(send, cmd.Type, err)
			return
		}
		SendSuccess(send, cmd.Type, nil)
	case "edit":
		HandleCommand(cmd, send, func(req *TranscriptEditRequest) error {
			return capture.Edit(req.Text)
		})
	default:
		slog.Warn("unknown recording action", "action", action)
	}
}

// handlePlayback routes playback/* commands for interviewer audio.
func (h *CommandHandler) handlePlayback(action string, cmd WSCommand, send chan<- any) {
	playback := h.console.Playback()

	switch action {
	case "stop":
		playback.Stop()
	case "pause":
		playback.Pause()
	case "resume":
		playback.Resume()
	default:
		slog.Warn("unknown playback action", "action", action)
		return
	}
	SendSuccess(send, cmd.Type, nil)
}

// handleIntegrity routes integrity/* commands. The browser reports focus
// loss here; the hub fans it out to the active attempt's monitor.
func (h *CommandHandler) handleIntegrity(action string, cmd WSCommand, send chan<- any) {
	switch action {
	case "focus":
		HandleCommand(cmd, send, func(req *FocusReportRequest) error {
			h.focus.Publish(integrity.FocusEventKind(req.Kind))
			return nil
		})
	default:
		slog.Warn("unknown integrity action", "action", action)
	}
}

// handleSettings routes settings/*/* commands.
func (h *CommandHandler) handleSettings(action, subaction string, cmd WSCommand, send chan<- any) {
	switch action {
	case "speech":
		switch subaction {
		case "update":
			HandleCommand(cmd, send, func(req *SpeechUpdateRequest) error {
				if req.AutoSpeak != nil {
					return h.cfg.SetAutoSpeak(*req.AutoSpeak)
				}
				return nil
			})
		default:
			slog.Warn("unknown speech action", "subaction", subaction)
		}
	case "integrity":
		switch subaction {
		case "update":
			HandleCommand(cmd, send, func(req *IntegrityUpdateRequest) error {
				if req.NoiseThreshold != nil {
					return h.cfg.SetNoiseThreshold(*req.NoiseThreshold)
				}
				return nil
			})
		default:
			slog.Warn("unknown integrity action", "subaction", subaction)
		}
	case "backend":
		switch subaction {
		case "update":
			HandleCommand(cmd, send, func(req *BackendUpdateRequest) error {
				if req.BaseURL != "" {
					if err := h.cfg.SetBackendBaseURL(req.BaseURL); err != nil {
						return err
					}
				}
				if req.TokenURL != "" || req.ClientID != "" || req.ClientSecret != "" {
					a := h.cfg.AuthConfig()
					if req.TokenURL != "" {
						a.TokenURL = req.TokenURL
					}
					if req.ClientID != "" {
						a.ClientID = req.ClientID
					}
					if req.ClientSecret != "" {
						a.ClientSecret = req.ClientSecret
					}
					return h.cfg.SetAuthConfig(a)
				}
				return nil
			})
		default:
			slog.Warn("unknown backend action", "subaction", subaction)
		}
	case "archive":
		switch subaction {
		case "update":
			HandleCommand(cmd, send, func(req *ArchiveUpdateRequest) error {
				return h.cfg.SetArchiveConfig(archive.Config{
					Endpoint:        req.Endpoint,
					Bucket:          req.Bucket,
					AccessKeyID:     req.AccessKeyID,
					SecretAccessKey: req.SecretAccessKey,
					Prefix:          req.Prefix,
				})
			})
		case "test":
			var req ArchiveTestRequest
			if !DecodeAndValidate(cmd, send, &req) {
				return
			}
			HandleActionAsync(cmd, send, func() (any, error) {
				return nil, h.console.TestArchive(context.Background(), archive.Config{
					Endpoint:        req.Endpoint,
					Bucket:          req.Bucket,
					AccessKeyID:     req.AccessKeyID,
					SecretAccessKey: req.SecretAccessKey,
				})
			})
		default:
			slog.Warn("unknown archive action", "subaction", subaction)
		}
	case "get":
		h.handleSettingsGet(send)
	default:
		slog.Warn("unknown settings action", "action", action)
	}
}

// handleSettingsGet sends the current settings, secrets omitted.
func (h *CommandHandler) handleSettingsGet(send chan<- any) {
	snap := h.cfg.Snapshot()
	SendSuccess(send, "settings/get", map[string]any{
		"auto_speak":      snap.AutoSpeak,
		"speech_lang":     snap.SpeechLang,
		"noise_threshold": snap.NoiseThreshold,
		"backend": map[string]any{
			"base_url":   snap.BackendBaseURL,
			"token_url":  snap.Auth.TokenURL,
			"client_id":  snap.Auth.ClientID,
			"configured": snap.HasBackend(),
		},
		"archive": map[string]any{
			"endpoint":   snap.Archive.Endpoint,
			"bucket":     snap.Archive.Bucket,
			"prefix":     snap.Archive.Prefix,
			"configured": snap.HasArchive(),
		},
	})
}

// handleStatus routes status/* commands.
func (h *CommandHandler) handleStatus(action string, send chan<- any) {
	switch action {
	case "get":
		// Status is sent automatically, but explicit get triggers immediate update
		slog.Debug("status/get received, status update will be triggered")
	default:
		slog.Warn("unknown status action", "action", action)
	}
}
