package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgnsrekt/voicebox/tts"
	"github.com/spf13/cobra"
)

var (
	sayVerbose bool
	sayRepeat  int

	sayCmd = &cobra.Command{
		Use:   "say [TEXT...]",
		Short: "Speak text without the interface",
		Long: paragraph(fmt.Sprintf("\n%s the given text, or standard input when no text is given, and wait for playback to finish.",
			keyword("Speak"))),
		Example: paragraph("voicebox say hello world\necho hello | voicebox say --engine subprocess"),
		RunE:    runSay,
	}
)

func init() {
	sayCmd.Flags().BoolVarP(&sayVerbose, "verbose", "v", false, "log to stderr")
	sayCmd.Flags().IntVarP(&sayRepeat, "repeat", "r", 0, "replay the result this many extra times")
}

func runSay(cmd *cobra.Command, args []string) error {
	logToStderr(sayVerbose)

	text, err := sayText(args, os.Stdin)
	if err != nil {
		return err
	}

	s, err := newSession(sessionConfig)
	if err != nil {
		return err
	}
	defer s.Close() //nolint:errcheck

	ctx := cmd.Context()
	serveMetrics(ctx, metricsAddr, s.registry)

	entry, err := say(ctx, s, text)
	if err != nil {
		return err
	}

	for i := 0; i < sayRepeat; i++ {
		if err := s.renderer.Wait(ctx); err != nil {
			return err
		}
		if err := s.controller.Replay(entry.ID); err != nil {
			return err
		}
	}

	if err := s.renderer.Wait(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %q (%.1fs)\n", okMark, tts.Preview(entry.Text, 60), entry.Waveform.Duration().Seconds())
	return nil
}

// say submits text and waits for the synthesis to finish.
func say(ctx context.Context, s *session, text string) (tts.HistoryEntry, error) {
	req, err := s.controller.Submit(ctx, text)
	if err != nil {
		return tts.HistoryEntry{}, err
	}

	entry, err := req.Wait(ctx)
	if err != nil {
		return tts.HistoryEntry{}, err
	}
	if renderErr := req.RenderErr(); renderErr != nil {
		return entry, renderErr
	}
	return entry, nil
}

// sayText joins args, or reads r when there are none.
func sayText(args []string, r io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if f, ok := r.(*os.File); ok {
		if yes, err := isPipe(f); err != nil {
			return "", err
		} else if !yes {
			return "", errors.New("nothing to say: pass text or pipe it in")
		}
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("unable to read from reader: %w", err)
	}
	return string(b), nil
}

func isPipe(f *os.File) (bool, error) {
	stat, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}
