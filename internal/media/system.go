package media

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strings"
	"sync"

	"github.com/preptrack/interview-console/internal/audio"
	"github.com/preptrack/interview-console/internal/util"
)

// devicePattern extracts "id<whitespace>name" pairs from list command output.
var devicePattern = regexp.MustCompile(`^(\S+)\s+(.+)$`)

// SystemProviderConfig defines the external commands the system provider
// shells out to. Commands are injected from configuration so deployments can
// adapt to their capture stack.
type SystemProviderConfig struct {
	// CaptureCommand produces S16LE mono PCM on stdout for the microphone
	// track of the acquired stream.
	CaptureCommand []string

	// ListCamerasCommand and ListSpeakersCommand print one device per line
	// as "id name".
	ListCamerasCommand  []string
	ListSpeakersCommand []string

	// TestToneCommand plays a short audio clip on the default output.
	TestToneCommand []string

	// SinkFlag is the test tone command flag selecting an output device
	// (e.g. "--device"). Empty when the platform cannot route output, in
	// which case speaker selection degrades to the default output.
	SinkFlag string
}

// DefaultSystemProviderConfig returns the capture stack used when none is
// configured.
func DefaultSystemProviderConfig() SystemProviderConfig {
	return SystemProviderConfig{
		CaptureCommand:      []string{"arecord", "-f", "S16_LE", "-r", "16000", "-c", "1", "-t", "raw", "-q", "-"},
		ListCamerasCommand:  []string{"v4l2-ctl", "--list-devices"},
		ListSpeakersCommand: []string{"pactl", "list", "short", "sinks"},
		TestToneCommand:     []string{"paplay", "/usr/share/sounds/alsa/Front_Center.wav"},
		SinkFlag:            "--device",
	}
}

// SystemProvider implements Provider on top of external capture tools.
type SystemProvider struct {
	cfg SystemProviderConfig
}

// NewSystemProvider creates a provider with the given command configuration.
func NewSystemProvider(cfg SystemProviderConfig) *SystemProvider {
	return &SystemProvider{cfg: cfg}
}

// ListDevices enumerates cameras and speakers via the configured commands.
func (p *SystemProvider) ListDevices() (Devices, error) {
	return Devices{
		Cameras:  listDevices(p.cfg.ListCamerasCommand),
		Speakers: listDevices(p.cfg.ListSpeakersCommand),
	}, nil
}

// listDevices runs a list command and parses device lines.
func listDevices(command []string) []DeviceInfo {
	if len(command) == 0 {
		return nil
	}

	cmd := exec.Command(command[0], command[1:]...)
	output, err := cmd.CombinedOutput()
	if err != nil && len(output) == 0 {
		slog.Error("failed to list media devices", "command", command[0], "error", err)
		return nil
	}

	var devices []DeviceInfo
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		matches := devicePattern.FindStringSubmatch(line)
		if len(matches) < 3 {
			continue
		}
		devices = append(devices, DeviceInfo{
			ID:   matches[1],
			Name: strings.TrimSpace(matches[2]),
		})
	}
	return devices
}

// AcquireCamera starts the capture process and returns the live stream.
func (p *SystemProvider) AcquireCamera(ctx context.Context) (Stream, error) {
	if len(p.cfg.CaptureCommand) == 0 {
		return nil, ErrNoCamera
	}

	captureCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(captureCtx, p.cfg.CaptureCommand[0], p.cfg.CaptureCommand[1:]...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, util.WrapError("open capture pipe", err)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		cancel()
		if strings.Contains(strings.ToLower(stderr.String()), "permission") {
			return nil, ErrPermissionDenied
		}
		return nil, util.WrapError("start capture", err)
	}

	slog.Info("media capture started", "command", p.cfg.CaptureCommand[0])

	return &systemStream{
		cmd:    cmd,
		cancel: cancel,
		source: audio.NewPCMSource(stdout),
	}, nil
}

// PlayTestTone plays a short clip on the selected output device.
func (p *SystemProvider) PlayTestTone(ctx context.Context, speakerID string) error {
	if len(p.cfg.TestToneCommand) == 0 {
		return fmt.Errorf("no test tone command configured")
	}

	args := p.cfg.TestToneCommand[1:]
	if speakerID != "" {
		if p.cfg.SinkFlag == "" {
			return ErrSinkRoutingUnsupported
		}
		args = append([]string{p.cfg.SinkFlag + "=" + speakerID}, args...)
	}

	cmd := exec.CommandContext(ctx, p.cfg.TestToneCommand[0], args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("test tone failed: %s", strings.TrimSpace(string(output)))
	}
	return nil
}

// systemStream wraps the capture process as a Stream.
type systemStream struct {
	cmd      *exec.Cmd
	cancel   context.CancelFunc
	source   *audio.PCMSource
	stopOnce sync.Once
}

func (s *systemStream) AudioSource() audio.Source {
	return s.source
}

func (s *systemStream) StopTracks() {
	s.stopOnce.Do(func() {
		s.cancel()
		if err := s.cmd.Wait(); err != nil {
			slog.Debug("capture process exit", "error", err)
		}
	})
}
