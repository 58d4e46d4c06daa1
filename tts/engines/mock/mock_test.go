package mock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgnsrekt/voicebox/tts"
)

func TestSynthesize(t *testing.T) {
	e := New()
	e.SetDelay(0)

	w, err := e.Synthesize(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !w.Valid() {
		t.Fatalf("waveform should be valid: %d samples at %d Hz", len(w.Samples), w.SampleRate)
	}
	if w.SampleRate != 16000 {
		t.Errorf("sample rate = %d, want 16000", w.SampleRate)
	}
	for i, s := range w.Samples {
		if s < -1 || s > 1 {
			t.Fatalf("sample %d out of range: %v", i, s)
		}
	}
	if e.GetCallCount() != 1 || e.LastText() != "hello there" {
		t.Errorf("calls = %d, last = %q", e.GetCallCount(), e.LastText())
	}
}

func TestDurationFollowsText(t *testing.T) {
	e := New()
	e.SetDelay(0)

	short, _ := e.Synthesize(context.Background(), "hi")
	long, _ := e.Synthesize(context.Background(), "this sentence is quite a bit longer than the first one")
	if len(long.Samples) <= len(short.Samples) {
		t.Errorf("long text produced %d samples, short %d", len(long.Samples), len(short.Samples))
	}
}

func TestFailure(t *testing.T) {
	e := New()
	e.SetDelay(0)
	boom := errors.New("boom")

	e.SetFailure(boom)
	if _, err := e.Synthesize(context.Background(), "x"); !errors.Is(err, boom) {
		t.Errorf("error = %v, want boom", err)
	}

	e.ClearFailure()
	if _, err := e.Synthesize(context.Background(), "x"); err != nil {
		t.Errorf("unexpected error after ClearFailure: %v", err)
	}
}

func TestCancel(t *testing.T) {
	e := New()
	e.SetDelay(time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := e.Synthesize(ctx, "x"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
}

func TestNewFromConfig(t *testing.T) {
	e := NewFromConfig(tts.MockConfig{SampleRate: 8000, Frequency: 220})
	w, err := e.Synthesize(context.Background(), "abc")
	if err != nil {
		t.Fatal(err)
	}
	if w.SampleRate != 8000 {
		t.Errorf("sample rate = %d, want 8000", w.SampleRate)
	}
}
