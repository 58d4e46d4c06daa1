package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/voicebox/tts"
)

// pollInterval is how often finished players are checked for cleanup.
const pollInterval = 100 * time.Millisecond

// Renderer plays waveforms through a lazily created, shared Context.
// Playbacks are fire-and-forget and may overlap.
type Renderer struct {
	factory ContextFactory

	mu      sync.Mutex
	context Context
	closed  bool

	done chan struct{}
	wg   sync.WaitGroup
}

// NewRenderer creates a renderer. No device is opened until the first Play.
func NewRenderer(factory ContextFactory) *Renderer {
	return &Renderer{
		factory: factory,
		done:    make(chan struct{}),
	}
}

// EnsureContext returns the rendering context, creating it on first use.
// A failed creation is not remembered; the next call tries again.
func (r *Renderer) EnsureContext(sampleRate int) (Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, tts.RenderError("create context", fmt.Errorf("%w: renderer closed", tts.ErrRenderContext))
	}
	if r.context != nil {
		return r.context, nil
	}

	log.Debug("Creating audio context", "sample_rate", sampleRate)
	ctx, err := r.factory(sampleRate)
	if err != nil {
		return nil, asRenderError("create context", fmt.Errorf("%w: %w", tts.ErrRenderContext, err))
	}
	r.context = ctx
	return ctx, nil
}

// Play validates w, copies it into a playback buffer and starts playback.
// It returns as soon as playback has started.
func (r *Renderer) Play(w tts.Waveform) error {
	if !w.Valid() {
		return tts.RenderError("play", fmt.Errorf("%w: %d samples at %d Hz", tts.ErrInvalidBuffer, len(w.Samples), w.SampleRate))
	}

	ctx, err := r.EnsureContext(w.SampleRate)
	if err != nil {
		return err
	}

	if rate := ctx.SampleRate(); rate != 0 && rate != w.SampleRate {
		return tts.RenderError("play", fmt.Errorf("%w: output runs at %d Hz, clip is %d Hz", tts.ErrUnsupportedSampleRate, rate, w.SampleRate))
	}

	buf := EncodeFloat32LE(w.Samples)
	player, err := ctx.NewPlayer(bytes.NewReader(buf), w.SampleRate)
	if err != nil {
		return asRenderError("play", err)
	}

	// Register with the monitor group under the lock so Close cannot be
	// waiting on the group while it grows.
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		_ = player.Close()
		return tts.RenderError("play", fmt.Errorf("%w: renderer closed", tts.ErrRenderContext))
	}
	r.wg.Add(1)
	r.mu.Unlock()

	player.Play()
	log.Debug("Playback started", "samples", len(w.Samples), "sample_rate", w.SampleRate, "duration", w.Duration())

	go r.monitor(player)
	return nil
}

// monitor closes player once it has finished or the renderer is closed.
func (r *Renderer) monitor(player Player) {
	defer r.wg.Done()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			_ = player.Close()
			return
		case <-ticker.C:
			if !player.IsPlaying() {
				if err := player.Close(); err != nil {
					log.Warn("Failed to close player", "error", err)
				}
				return
			}
		}
	}
}

// Wait blocks until every started playback has finished or ctx is done.
func (r *Renderer) Wait(ctx context.Context) error {
	idle := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(idle)
	}()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops all playback and releases the context.
func (r *Renderer) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	ctx := r.context
	r.context = nil
	r.mu.Unlock()

	close(r.done)
	r.wg.Wait()

	if ctx != nil {
		return ctx.Close()
	}
	return nil
}

func asRenderError(action string, err error) error {
	var e *tts.Error
	if errors.As(err, &e) && e.Kind == tts.KindRender {
		return err
	}
	return tts.RenderError(action, err)
}
