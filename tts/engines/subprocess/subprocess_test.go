package subprocess

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/dgnsrekt/voicebox/tts"
	"github.com/dgnsrekt/voicebox/tts/engines/wire"
)

// helperEngine re-executes the test binary as a fake synthesizer.
func helperEngine(t *testing.T, mode, protocol string) *Engine {
	t.Helper()
	e := newEngine([]string{os.Args[0], "-test.run=TestHelperProcess", "--"}, protocol, 16000)
	e.env = append(os.Environ(), "VOICEBOX_HELPER_PROCESS=1", "VOICEBOX_HELPER_MODE="+mode)
	return e
}

// TestHelperProcess is not a real test. It acts as the synthesizer.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("VOICEBOX_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	in := bufio.NewReader(os.Stdin)
	line, _ := in.ReadString('\n')

	switch os.Getenv("VOICEBOX_HELPER_MODE") {
	case "raw":
		// One s16le sample per input byte: 0, 16384, -32768...
		values := []int16{0, 16384, -32768}
		buf := make([]byte, 2*len(values))
		for i, v := range values {
			binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
		}
		os.Stdout.Write(buf)
	case "json":
		var req wire.Request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			fmt.Fprintln(os.Stderr, "bad request:", err)
			os.Exit(2)
		}
		first := wire.NewResponse(req.ID, tts.Waveform{Samples: []float32{0.25}, SampleRate: 22050})
		first.Final = false
		second := wire.NewResponse(req.ID, tts.Waveform{Samples: []float32{float32(len(req.Text))}, SampleRate: 22050})
		enc := json.NewEncoder(os.Stdout)
		_ = enc.Encode(first)
		_ = enc.Encode(second)
	case "remote-error":
		_ = json.NewEncoder(os.Stdout).Encode(wire.ErrorResponse("", errors.New("model missing")))
	case "truncated":
		first := wire.NewResponse("", tts.Waveform{Samples: []float32{0.1}, SampleRate: 22050})
		first.Final = false
		_ = json.NewEncoder(os.Stdout).Encode(first)
	case "fail":
		fmt.Fprintln(os.Stderr, "voice model not found")
		os.Exit(3)
	case "hang":
		time.Sleep(time.Minute)
	}
}

func TestRawProtocol(t *testing.T) {
	e := helperEngine(t, "raw", tts.ProtocolRaw)

	w, err := e.Synthesize(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	want := tts.Waveform{Samples: []float32{0, 0.5, -1}, SampleRate: 16000}
	if !reflect.DeepEqual(w, want) {
		t.Errorf("got %+v, want %+v", w, want)
	}
}

func TestJSONProtocol(t *testing.T) {
	e := helperEngine(t, "json", tts.ProtocolJSON)

	ctx := tts.WithRequestID(context.Background(), "req-7")
	w, err := e.Synthesize(ctx, "hello")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	want := tts.Waveform{Samples: []float32{0.25, 5}, SampleRate: 22050}
	if !reflect.DeepEqual(w, want) {
		t.Errorf("got %+v, want %+v", w, want)
	}
}

func TestJSONRemoteError(t *testing.T) {
	e := helperEngine(t, "remote-error", tts.ProtocolJSON)

	_, err := e.Synthesize(context.Background(), "hello")
	if !errors.Is(err, wire.ErrRemote) {
		t.Errorf("error = %v, want ErrRemote", err)
	}
}

func TestJSONTruncated(t *testing.T) {
	e := helperEngine(t, "truncated", tts.ProtocolJSON)

	if _, err := e.Synthesize(context.Background(), "hello"); err == nil {
		t.Error("expected error for missing final chunk")
	}
}

func TestProcessFailureIncludesStderr(t *testing.T) {
	e := helperEngine(t, "fail", tts.ProtocolRaw)

	_, err := e.Synthesize(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "voice model not found") {
		t.Errorf("error %q should include stderr", err)
	}
}

func TestCancellation(t *testing.T) {
	e := helperEngine(t, "hang", tts.ProtocolRaw)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := e.Synthesize(ctx, "hello")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
	if time.Since(start) > 10*time.Second {
		t.Error("process was not killed on cancellation")
	}
}

func TestNewParsesCommand(t *testing.T) {
	_, err := New(tts.SubprocessConfig{Command: "", Protocol: tts.ProtocolRaw, SampleRate: 22050})
	if err == nil {
		t.Error("expected error for empty command")
	}

	_, err = New(tts.SubprocessConfig{Command: "definitely-not-a-real-binary-xyz --flag", Protocol: tts.ProtocolRaw})
	if !errors.Is(err, tts.ErrEngineUnavailable) {
		t.Errorf("error = %v, want ErrEngineUnavailable", err)
	}

	_, err = New(tts.SubprocessConfig{Command: `piper --model "unterminated`, Protocol: tts.ProtocolRaw})
	if err == nil {
		t.Error("expected parse error for unterminated quote")
	}
}
