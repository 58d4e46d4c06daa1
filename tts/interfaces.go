package tts

import (
	"context"
)

// Engine defines the interface for speech synthesis engines.
type Engine interface {
	// Synthesize converts text to a mono waveform. It must honour ctx
	// cancellation.
	Synthesize(ctx context.Context, text string) (Waveform, error)

	// Name identifies the engine in logs and metrics.
	Name() string
}

// Renderer plays waveforms on an audio output.
type Renderer interface {
	// Play starts playback of w and returns without waiting for it to finish.
	// Overlapping calls are allowed.
	Play(w Waveform) error
}

// Closer is implemented by engines that hold resources.
type Closer interface {
	Close() error
}
