package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"
)

// setupLog sends logs to a file when debugging is enabled and discards them
// otherwise; the TUI owns the terminal.
func setupLog() (func() error, error) {
	log.SetOutput(io.Discard)

	if !viper.GetBool("debug") {
		return func() error { return nil }, nil
	}

	logFile, err := logFilePath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil { //nolint:gosec
		return nil, fmt.Errorf("unable to create log directory: %w", err)
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("unable to open log file: %w", err)
	}

	log.SetOutput(f)
	log.SetLevel(log.DebugLevel)
	log.SetReportTimestamp(true)
	log.Debug("Debug logging enabled", "path", logFile)
	return f.Close, nil
}

// logToStderr is used by commands that do not take over the terminal.
func logToStderr(verbose bool) {
	log.SetOutput(os.Stderr)
	if verbose || viper.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
		return
	}
	log.SetLevel(log.WarnLevel)
}

func logFilePath() (string, error) {
	if p := os.Getenv("VOICEBOX_LOG_FILE"); p != "" {
		return p, nil
	}
	scope := gap.NewScope(gap.User, "voicebox")
	return scope.LogPath("voicebox.log")
}
