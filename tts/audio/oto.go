//go:build !nocgo
// +build !nocgo

package audio

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// oto allows a single context per process. A context whose device has not
// become ready yet is kept in otoPending so a later call waits on it instead
// of creating a second one.
var (
	otoMu      sync.Mutex
	otoContext *OtoContext
	otoPending *pendingOto

	newOtoDevice = oto.NewContext
)

// otoReadyTimeout bounds each wait for device initialisation.
var otoReadyTimeout = 5 * time.Second

type pendingOto struct {
	context *oto.Context
	ready   chan struct{}
	rate    int
}

// OtoContext implements Context using oto. It runs at one fixed sample rate.
type OtoContext struct {
	context *oto.Context
	rate    int
}

// NewOtoContext returns the process-wide oto context, creating it at
// sampleRate on first use. If the device is still initialising from an
// earlier call, that context is reused at its original rate.
func NewOtoContext(sampleRate int, bufferSize time.Duration) (*OtoContext, error) {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoContext != nil {
		return otoContext, nil
	}

	if otoPending == nil {
		if sampleRate <= 0 {
			return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
		}

		options := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: Channels,
			Format:       oto.FormatFloat32LE,
			BufferSize:   bufferSize,
		}

		log.Debug("Initializing oto audio context",
			"sample_rate", options.SampleRate,
			"channels", options.ChannelCount,
			"buffer_size", options.BufferSize)

		ctx, ready, err := newOtoDevice(options)
		if err != nil {
			return nil, fmt.Errorf("failed to create audio context: %w", err)
		}
		otoPending = &pendingOto{context: ctx, ready: ready, rate: sampleRate}
	} else {
		log.Debug("Waiting for pending oto audio context", "sample_rate", otoPending.rate)
	}

	select {
	case <-otoPending.ready:
	case <-time.After(otoReadyTimeout):
		return nil, fmt.Errorf("audio context initialization timeout after %v", otoReadyTimeout)
	}

	otoContext = &OtoContext{context: otoPending.context, rate: otoPending.rate}
	otoPending = nil
	return otoContext, nil
}

// NewPlayer creates a new oto player.
func (c *OtoContext) NewPlayer(r io.Reader, sampleRate int) (Player, error) {
	if sampleRate != c.rate {
		return nil, fmt.Errorf("oto context runs at %d Hz, clip is %d Hz", c.rate, sampleRate)
	}
	return &otoPlayer{player: c.context.NewPlayer(r)}, nil
}

// SampleRate returns the fixed output rate.
func (c *OtoContext) SampleRate() int {
	return c.rate
}

// Close is a no-op: an oto context lives for the whole process.
func (c *OtoContext) Close() error {
	return nil
}

type otoPlayer struct {
	player *oto.Player
}

func (p *otoPlayer) Play() {
	p.player.Play()
}

func (p *otoPlayer) IsPlaying() bool {
	return p.player.IsPlaying()
}

func (p *otoPlayer) Close() error {
	return p.player.Close()
}
