package audio_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/dgnsrekt/voicebox/tts"
	"github.com/dgnsrekt/voicebox/tts/audio"
)

// countingFactory counts context creations and can fail the first n.
type countingFactory struct {
	mu       sync.Mutex
	calls    int
	failures int
	rates    []int
	ctx      *audio.MockContext
}

func (f *countingFactory) create(rate int) (audio.Context, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.rates = append(f.rates, rate)
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("device busy")
	}
	return f.ctx, nil
}

func (f *countingFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func waveform(rate int, samples ...float32) tts.Waveform {
	return tts.Waveform{Samples: samples, SampleRate: rate}
}

func TestRendererCreatesContextOnce(t *testing.T) {
	f := &countingFactory{ctx: audio.NewMockContext()}
	r := audio.NewRenderer(f.create)
	defer r.Close()

	if f.count() != 0 {
		t.Fatal("context must not be created before first use")
	}

	for i := 0; i < 3; i++ {
		if err := r.Play(waveform(16000, 0.1, 0.2)); err != nil {
			t.Fatalf("Play #%d: %v", i, err)
		}
	}

	if f.count() != 1 {
		t.Errorf("factory called %d times, want 1", f.count())
	}
	if f.ctx.Created() != 3 {
		t.Errorf("players created = %d, want 3", f.ctx.Created())
	}
}

func TestRendererRetriesFailedCreation(t *testing.T) {
	f := &countingFactory{ctx: audio.NewMockContext(), failures: 1}
	r := audio.NewRenderer(f.create)
	defer r.Close()

	err := r.Play(waveform(16000, 0.1))
	if !tts.IsRender(err) || !errors.Is(err, tts.ErrRenderContext) {
		t.Fatalf("first Play error = %v, want render context error", err)
	}

	if err := r.Play(waveform(16000, 0.1)); err != nil {
		t.Fatalf("second Play should succeed: %v", err)
	}
	if f.count() != 2 {
		t.Errorf("factory called %d times, want 2", f.count())
	}
}

func TestRendererPassesFirstRate(t *testing.T) {
	f := &countingFactory{ctx: audio.NewMockContext()}
	r := audio.NewRenderer(f.create)
	defer r.Close()

	if err := r.Play(waveform(22050, 0.5)); err != nil {
		t.Fatal(err)
	}
	if len(f.rates) != 1 || f.rates[0] != 22050 {
		t.Errorf("factory rates = %v, want [22050]", f.rates)
	}
}

func TestRendererCopiesSamples(t *testing.T) {
	ctx := audio.NewMockContext()
	r := audio.NewRenderer(audio.StaticFactory(ctx))
	defer r.Close()

	w := waveform(16000, 0.0, 0.5, -0.5)
	if err := r.Play(w); err != nil {
		t.Fatal(err)
	}

	players := ctx.Players()
	if len(players) != 1 {
		t.Fatalf("players = %d, want 1", len(players))
	}
	p := players[0]
	if !p.Started() {
		t.Error("player should have been started")
	}
	if p.SampleRate() != 16000 {
		t.Errorf("sample rate = %d", p.SampleRate())
	}
	if got := p.Samples(); !reflect.DeepEqual(got, w.Samples) {
		t.Errorf("samples = %v, want %v", got, w.Samples)
	}
}

func TestRendererInvalidBuffer(t *testing.T) {
	tests := []struct {
		name string
		w    tts.Waveform
	}{
		{"empty", waveform(16000)},
		{"zero rate", waveform(0, 0.1)},
		{"nan", tts.Waveform{Samples: []float32{float32(nan())}, SampleRate: 16000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &countingFactory{ctx: audio.NewMockContext()}
			r := audio.NewRenderer(f.create)
			defer r.Close()

			err := r.Play(tt.w)
			if !errors.Is(err, tts.ErrInvalidBuffer) || !tts.IsRender(err) {
				t.Errorf("error = %v, want invalid buffer render error", err)
			}
			if f.count() != 0 {
				t.Error("invalid buffers must not open the device")
			}
		})
	}
}

func nan() float64 {
	var zero float64
	return zero / zero
}

func TestRendererFixedRate(t *testing.T) {
	r := audio.NewRenderer(audio.StaticFactory(audio.NewMockContextAt(22050)))
	defer r.Close()

	if err := r.Play(waveform(22050, 0.1)); err != nil {
		t.Fatalf("matching rate should play: %v", err)
	}
	err := r.Play(waveform(16000, 0.1))
	if !errors.Is(err, tts.ErrUnsupportedSampleRate) {
		t.Errorf("error = %v, want ErrUnsupportedSampleRate", err)
	}
}

func TestRendererPlayerError(t *testing.T) {
	ctx := audio.NewMockContext()
	ctx.SetPlayerError(errors.New("underrun"))
	r := audio.NewRenderer(audio.StaticFactory(ctx))
	defer r.Close()

	if err := r.Play(waveform(16000, 0.1)); !tts.IsRender(err) {
		t.Errorf("error = %v, want render error", err)
	}
}

func TestRendererClosesFinishedPlayers(t *testing.T) {
	ctx := audio.NewMockContext()
	r := audio.NewRenderer(audio.StaticFactory(ctx))
	defer r.Close()

	if err := r.Play(waveform(16000, 0.1)); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for ctx.ClosedPlayers() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("finished player was not closed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRendererWait(t *testing.T) {
	ctx := audio.NewMockContext()
	r := audio.NewRenderer(audio.StaticFactory(ctx))
	defer r.Close()

	if err := r.Play(waveform(16000, 0.1)); err != nil {
		t.Fatal(err)
	}

	waitCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.Wait(waitCtx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if ctx.ClosedPlayers() != 1 {
		t.Errorf("closed players = %d, want 1", ctx.ClosedPlayers())
	}
}

func TestRendererClose(t *testing.T) {
	ctx := audio.NewMockContext()
	r := audio.NewRenderer(audio.StaticFactory(ctx))

	if err := r.Play(waveform(16000, 0.1)); err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if !ctx.Closed() {
		t.Error("context should be closed")
	}
	if err := r.Play(waveform(16000, 0.1)); !tts.IsRender(err) {
		t.Errorf("Play after Close = %v, want render error", err)
	}
}

func TestRendererCloseDuringPlay(t *testing.T) {
	for i := 0; i < 20; i++ {
		ctx := audio.NewMockContext()
		r := audio.NewRenderer(audio.StaticFactory(ctx))

		var wg sync.WaitGroup
		for j := 0; j < 4; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for k := 0; k < 10; k++ {
					if err := r.Play(waveform(16000, 0.1)); err != nil && !tts.IsRender(err) {
						t.Errorf("Play = %v, want nil or render error", err)
					}
				}
			}()
		}

		if err := r.Close(); err != nil {
			t.Fatal(err)
		}
		wg.Wait()

		// No monitor may outlive Close; every player is released by now.
		if created, closed := ctx.Created(), ctx.ClosedPlayers(); created != closed {
			t.Fatalf("round %d: %d players created, %d closed", i, created, closed)
		}
	}
}

func TestPCMRoundTrip(t *testing.T) {
	in := []float32{0, 1, -1, 0.25}
	out, err := audio.DecodeFloat32LE(audio.EncodeFloat32LE(in))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("got %v, want %v", out, in)
	}

	if _, err := audio.DecodeFloat32LE([]byte{1, 2, 3}); err == nil {
		t.Error("expected alignment error")
	}
}

func TestS16LEToFloat32(t *testing.T) {
	got, err := audio.S16LEToFloat32([]byte{0x00, 0x00, 0x00, 0x40, 0x00, 0x80})
	if err != nil {
		t.Fatal(err)
	}
	want := []float32{0, 0.5, -1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestResolveBackend(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv("VOICEBOX_MOCK_AUDIO", "true")

	if got := audio.ResolveBackend(tts.BackendAuto); got != tts.BackendMock {
		t.Errorf("auto with mock env = %q, want mock", got)
	}
	if got := audio.ResolveBackend(tts.BackendMalgo); got != tts.BackendMalgo {
		t.Errorf("explicit backend changed to %q", got)
	}
}

func TestMockFactory(t *testing.T) {
	factory, err := audio.NewContextFactory(tts.AudioConfig{Backend: tts.BackendMock, SampleRate: 8000})
	if err != nil {
		t.Fatal(err)
	}
	ctx, err := factory(16000)
	if err != nil {
		t.Fatal(err)
	}
	if ctx.SampleRate() != 8000 {
		t.Errorf("pinned rate = %d, want 8000", ctx.SampleRate())
	}

	if _, err := audio.NewContextFactory(tts.AudioConfig{Backend: "pulse"}); err == nil {
		t.Error("expected unknown backend error")
	}
}
