package main

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/voicebox/tts"
	"github.com/dgnsrekt/voicebox/tts/audio"
	"github.com/dgnsrekt/voicebox/tts/engines"
	"github.com/spf13/cobra"
)

// checkResult is the outcome of one dependency check.
type checkResult struct {
	Name         string
	Required     bool
	OK           bool
	Detail       string
	Instructions string
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the configured engine and audio output work",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		logToStderr(false)
		results := runChecks(sessionConfig)
		printReport(cmd.OutOrStdout(), results)
		for _, r := range results {
			if r.Required && !r.OK {
				return fmt.Errorf("missing required dependencies")
			}
		}
		return nil
	},
}

// runChecks builds each configured component once.
func runChecks(cfg tts.Config) []checkResult {
	results := []checkResult{checkEngine(cfg.Engine.Name, cfg.Engine, true)}
	if cfg.Engine.Fallback != "" {
		results = append(results, checkEngine(cfg.Engine.Fallback, cfg.Engine, false))
	}
	return append(results, checkAudio(cfg.Audio))
}

func checkEngine(name string, cfg tts.EngineConfig, required bool) checkResult {
	r := checkResult{Name: "engine " + name, Required: required}

	e, err := engines.Build(name, cfg)
	if err != nil {
		log.Debug("Engine check failed", "engine", name, "error", err)
		r.Detail = err.Error()
		r.Instructions = engineInstructions(name)
		return r
	}
	if c, ok := e.(tts.Closer); ok {
		_ = c.Close()
	}

	r.OK = true
	switch name {
	case tts.EngineSubprocess:
		r.Detail = cfg.Subprocess.Command
	case tts.EngineHTTP:
		r.Detail = cfg.HTTP.BaseURL
	case tts.EngineNATS:
		r.Detail = strings.Join(cfg.NATS.Servers, ",") + " " + cfg.NATS.Subject
	default:
		r.Detail = "built in"
	}
	return r
}

func checkAudio(cfg tts.AudioConfig) checkResult {
	backend := audio.ResolveBackend(cfg.Backend)
	r := checkResult{Name: "audio " + backend, Required: true}

	factory, err := audio.NewContextFactory(cfg)
	if err != nil {
		r.Detail = err.Error()
		return r
	}

	rate := cfg.SampleRate
	if rate == 0 {
		rate = 22050
	}
	ctx, err := factory(rate)
	if err != nil {
		r.Detail = err.Error()
		r.Instructions = audioInstructions()
		return r
	}
	_ = ctx.Close()

	r.OK = true
	r.Detail = fmt.Sprintf("output opened at %d Hz", rate)
	return r
}

func engineInstructions(name string) string {
	switch name {
	case tts.EngineSubprocess:
		return "Install piper from https://github.com/rhasspy/piper/releases and add it to PATH,\n" +
			"or point engine.subprocess.command at your synthesizer."
	case tts.EngineNATS:
		return "Start a broker or run \"voicebox worker --embedded\" next to a synthesizer."
	case tts.EngineHTTP:
		return "Check engine.http.base_url."
	default:
		return "Run \"voicebox config\" to choose an engine."
	}
}

func audioInstructions() string {
	switch runtime.GOOS {
	case "linux":
		return "Install the ALSA development files (libasound2-dev) or set audio.backend: mock."
	case "darwin":
		return "Allow the terminal to use audio output, or set audio.backend: mock."
	default:
		return "Set audio.backend: mock to run without sound."
	}
}

func printReport(w io.Writer, results []checkResult) {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		MarginBottom(1)

	fmt.Fprintln(w, titleStyle.Render("voicebox dependency check"))
	for _, r := range results {
		mark := okMark
		if !r.OK {
			mark = failMark
		}
		fmt.Fprintf(w, "  %s %s: %s\n", mark, r.Name, r.Detail)
		if !r.OK && r.Instructions != "" {
			fmt.Fprintf(w, "    %s\n", dim(r.Instructions))
		}
	}
}
