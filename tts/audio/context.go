// Package audio renders synthesized waveforms on an audio output device.
package audio

import (
	"io"
)

// Context is a rendering context bound to an output device. A Renderer
// creates one lazily and reuses it for every playback.
type Context interface {
	// NewPlayer prepares playback of mono float32 little-endian PCM read
	// from r at the given sample rate.
	NewPlayer(r io.Reader, sampleRate int) (Player, error)

	// SampleRate returns the fixed output rate, or zero if the context
	// accepts any rate.
	SampleRate() int

	// Close releases the context.
	Close() error
}

// Player plays one clip.
type Player interface {
	// Play starts playback and returns immediately.
	Play()

	// IsPlaying reports whether the clip is still sounding.
	IsPlaying() bool

	// Close stops playback and releases the player.
	Close() error
}

// ContextFactory creates a rendering context. sampleRate is the rate of the
// first waveform to be played.
type ContextFactory func(sampleRate int) (Context, error)

// Channels is the channel count of every clip.
const Channels = 1

// BytesPerSample is the size of one float32 sample.
const BytesPerSample = 4
