// Package subprocess runs a local speech synthesizer as a child process.
//
// Two protocols are supported. With "raw" the text is written to stdin and
// the process answers with signed 16-bit little-endian mono PCM on stdout, as
// piper does with --output-raw. With "json" a single wire.Request is written
// to stdin and the process answers with one or more wire.Response lines.
package subprocess

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/voicebox/tts"
	"github.com/dgnsrekt/voicebox/tts/audio"
	"github.com/dgnsrekt/voicebox/tts/engines/wire"
	"github.com/mattn/go-shellwords"
	"github.com/mitchellh/go-homedir"
)

// maxLineSize bounds a single JSON response line.
const maxLineSize = 64 << 20

// Engine implements tts.Engine by spawning one process per request.
type Engine struct {
	args       []string
	protocol   string
	sampleRate int
	env        []string

	// mu serialises process execution.
	mu sync.Mutex
}

// New creates a subprocess engine from configuration.
func New(cfg tts.SubprocessConfig) (*Engine, error) {
	parser := shellwords.NewParser()
	parser.ParseEnv = true
	args, err := parser.Parse(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("parse engine command: %w", err)
	}
	if len(args) == 0 {
		return nil, errors.New("engine command empty")
	}

	for i, a := range args {
		if strings.HasPrefix(a, "~") {
			expanded, err := homedir.Expand(a)
			if err != nil {
				return nil, fmt.Errorf("expand %q: %w", a, err)
			}
			args[i] = expanded
		}
	}

	if _, err := exec.LookPath(args[0]); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", tts.ErrEngineUnavailable, args[0], err)
	}

	return newEngine(args, cfg.Protocol, cfg.SampleRate), nil
}

func newEngine(args []string, protocol string, sampleRate int) *Engine {
	if protocol == "" {
		protocol = tts.ProtocolRaw
	}
	return &Engine{args: args, protocol: protocol, sampleRate: sampleRate}
}

// Name returns the engine name.
func (e *Engine) Name() string {
	return tts.EngineSubprocess
}

// Synthesize runs the command once for text.
func (e *Engine) Synthesize(ctx context.Context, text string) (tts.Waveform, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var input []byte
	switch e.protocol {
	case tts.ProtocolJSON:
		data, err := json.Marshal(wire.Request{ID: tts.RequestIDFrom(ctx), Text: text})
		if err != nil {
			return tts.Waveform{}, err
		}
		input = append(data, '\n')
	default:
		input = []byte(text + "\n")
	}

	cmd := exec.CommandContext(ctx, e.args[0], e.args[1:]...) //nolint:gosec
	if e.env != nil {
		cmd.Env = e.env
	}

	// Stdin is set before the process starts.
	cmd.Stdin = bytes.NewReader(input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug("Running engine process", "command", e.args[0], "protocol", e.protocol)

	err := cmd.Run()
	if ctx.Err() != nil {
		return tts.Waveform{}, fmt.Errorf("engine process cancelled: %w", ctx.Err())
	}
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return tts.Waveform{}, fmt.Errorf("engine process failed: %w\nstderr: %s", err, msg)
		}
		return tts.Waveform{}, fmt.Errorf("engine process failed: %w", err)
	}

	if e.protocol == tts.ProtocolJSON {
		return decodeLines(stdout.Bytes())
	}

	samples, err := audio.S16LEToFloat32(stdout.Bytes())
	if err != nil {
		return tts.Waveform{}, err
	}
	return tts.Waveform{Samples: samples, SampleRate: e.sampleRate}, nil
}

// decodeLines assembles JSON response lines until the final chunk.
func decodeLines(out []byte) (tts.Waveform, error) {
	var a wire.Assembler

	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		done, err := a.AddJSON(line)
		if err != nil {
			return tts.Waveform{}, err
		}
		if done {
			return a.Waveform(), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return tts.Waveform{}, err
	}
	return tts.Waveform{}, errors.New("engine process exited before the final chunk")
}
