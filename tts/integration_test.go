package tts_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dgnsrekt/voicebox/tts"
	"github.com/dgnsrekt/voicebox/tts/audio"
	"github.com/dgnsrekt/voicebox/tts/engines"
	"github.com/dgnsrekt/voicebox/tts/engines/mock"
)

// FailingEngine simulates a synthesizer that dies after a few calls.
type FailingEngine struct {
	*mock.MockEngine

	mu        sync.Mutex
	callCount int
	failAfter int
}

func NewFailingEngine(failAfter int) *FailingEngine {
	m := mock.New()
	m.SetDelay(0)
	return &FailingEngine{
		MockEngine: m,
		failAfter:  failAfter,
	}
}

func (e *FailingEngine) Synthesize(ctx context.Context, text string) (tts.Waveform, error) {
	e.mu.Lock()
	e.callCount++
	dead := e.callCount > e.failAfter
	e.mu.Unlock()

	if dead {
		return tts.Waveform{}, errors.New("process died unexpectedly")
	}
	return e.MockEngine.Synthesize(ctx, text)
}

// TestFallbackIntegration runs the whole pipeline with a dying primary.
func TestFallbackIntegration(t *testing.T) {
	failingEngine := NewFailingEngine(1)
	fallbackEngine := mock.New()
	fallbackEngine.SetDelay(0)

	// Allow 2 failures before switching
	engine := engines.NewFallbackEngine(failingEngine, fallbackEngine, 2)

	outputs := audio.NewMockContext()
	var created int
	renderer := audio.NewRenderer(func(int) (audio.Context, error) {
		created++
		return outputs, nil
	})
	defer renderer.Close()

	controller := tts.NewController(engine, renderer, tts.DefaultControllerConfig())
	defer controller.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	results := []bool{true, false, true, true}
	for i, wantOK := range results {
		req, err := controller.Submit(ctx, "sentence number one")
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		_, err = req.Wait(ctx)
		if wantOK && err != nil {
			t.Fatalf("submit %d failed: %v", i, err)
		}
		if !wantOK {
			if !tts.IsEngine(err) {
				t.Fatalf("submit %d: error = %v, want engine error", i, err)
			}
			if controller.State().LastError == "" {
				t.Errorf("submit %d: last error not recorded", i)
			}
		}
		if controller.Busy() {
			t.Fatalf("submit %d left the session busy", i)
		}
	}

	if !engine.UsingFallback() {
		t.Error("expected the fallback engine to be active")
	}
	if got := len(controller.History()); got != 3 {
		t.Errorf("history length = %d, want 3", got)
	}
	if created != 1 {
		t.Errorf("audio contexts created = %d, want 1", created)
	}
	if got := len(outputs.Players()); got != 3 {
		t.Errorf("players = %d, want 3", got)
	}
}

// TestReplayThroughRenderer checks a replay reaches the output with the
// stored samples.
func TestReplayThroughRenderer(t *testing.T) {
	engine := mock.New()
	engine.SetDelay(0)

	outputs := audio.NewMockContext()
	renderer := audio.NewRenderer(audio.StaticFactory(outputs))
	defer renderer.Close()

	controller := tts.NewController(engine, renderer, tts.DefaultControllerConfig())
	defer controller.Close()

	ctx := context.Background()
	req, err := controller.Submit(ctx, "replay me")
	if err != nil {
		t.Fatal(err)
	}
	entry, err := req.Wait(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if err := controller.Replay(entry.ID); err != nil {
		t.Fatalf("Replay: %v", err)
	}

	players := outputs.Players()
	if len(players) != 2 {
		t.Fatalf("players = %d, want 2", len(players))
	}
	if got, want := len(players[1].Samples()), len(entry.Waveform.Samples); got != want {
		t.Errorf("replayed %d samples, want %d", got, want)
	}
	if got := controller.State().Status; got != tts.StatusPlayed {
		t.Errorf("status = %s, want played", got)
	}
}
