// Package main provides the interview console: a local web application that
// runs AI mock-interview sessions against a remote interview backend, with
// device setup, spoken questions, answer capture and integrity monitoring.
//
// Usage:
//
//	interview-console [-config path/to/config.json]
//
// If -config is not specified, the console looks for config.json in the same
// directory as the binary.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/preptrack/interview-console/internal/config"
	"github.com/preptrack/interview-console/internal/console"
	"github.com/preptrack/interview-console/internal/integrity"
	"github.com/preptrack/interview-console/internal/media"
	"github.com/preptrack/interview-console/internal/speech"
	"github.com/preptrack/interview-console/internal/util"
)

// Build information, set via -ldflags at release time.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: config.json next to binary)")
	showVersion := flag.Bool("version", false, "Print version information and exit")
	flag.Parse()

	if *showVersion {
		slog.Info("version info", "version", Version, "commit", Commit, "build_time", BuildTime)
		return
	}

	if *configPath == "" {
		execPath, err := os.Executable()
		if err != nil {
			slog.Error("failed to get executable path", "error", err)
			os.Exit(1)
		}
		*configPath = filepath.Join(filepath.Dir(execPath), "config.json")
	}

	slog.Info("using config file", "path", *configPath)

	cfg := config.New(*configPath)
	if err := cfg.Load(); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	focus := integrity.NewFocusHub()

	// Speech recognition and synthesis run on scripted engines until a
	// platform engine is configured; the capture and playback pipelines are
	// identical either way.
	engines := console.Engines{
		Provider:    media.NewSystemProvider(cfg.ProviderConfig()),
		Recognizer:  speech.NewMockRecognizer(),
		Synthesizer: speech.NewMockSynthesizer(),
		Focus:       focus,
	}

	core := console.New(cfg, engines)
	srv := NewServer(cfg, core, focus)

	httpServer := srv.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, util.ShutdownSignals()...)
	<-sigChan

	slog.Info("shutting down")

	srv.version.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	core.Close()

	slog.Info("shutdown complete")
}
