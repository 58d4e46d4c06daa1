//go:build !nocgo
// +build !nocgo

package audio

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/gen2brain/malgo"
)

// MalgoContext implements Context using miniaudio. Each clip gets its own
// playback device opened at the clip's sample rate.
type MalgoContext struct {
	mu     sync.Mutex
	ctx    *malgo.AllocatedContext
	closed bool
}

// NewMalgoContext initialises miniaudio.
func NewMalgoContext() (*MalgoContext, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		log.Debug("miniaudio", "message", message)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize playback context: %w", err)
	}
	return &MalgoContext{ctx: ctx}, nil
}

// NewPlayer opens a playback device for one clip.
func (c *MalgoContext) NewPlayer(r io.Reader, sampleRate int) (Player, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, fmt.Errorf("playback context closed")
	}

	p := &malgoPlayer{reader: r}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = Channels
	deviceConfig.SampleRate = uint32(sampleRate)

	callbacks := malgo.DeviceCallbacks{
		Data: p.fill,
	}

	device, err := malgo.InitDevice(c.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize playback device: %w", err)
	}
	p.device = device
	return p, nil
}

// SampleRate returns zero: any rate is accepted.
func (c *MalgoContext) SampleRate() int {
	return 0
}

// Close releases miniaudio.
func (c *MalgoContext) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	err := c.ctx.Uninit()
	c.ctx.Free()
	return err
}

type malgoPlayer struct {
	device   *malgo.Device
	reader   io.Reader
	started  atomic.Bool
	finished atomic.Bool
	once     sync.Once
}

// fill copies the next frames into the device buffer and pads with silence
// after the end of the clip.
func (p *malgoPlayer) fill(out, _ []byte, frameCount uint32) {
	need := int(frameCount) * Channels * BytesPerSample
	if need > len(out) {
		need = len(out)
	}

	n, err := io.ReadFull(p.reader, out[:need])
	for i := n; i < need; i++ {
		out[i] = 0
	}
	if err != nil {
		p.finished.Store(true)
	}
}

func (p *malgoPlayer) Play() {
	if err := p.device.Start(); err != nil {
		log.Error("Failed to start playback device", "error", err)
		p.finished.Store(true)
		return
	}
	p.started.Store(true)
}

func (p *malgoPlayer) IsPlaying() bool {
	return p.started.Load() && !p.finished.Load()
}

func (p *malgoPlayer) Close() error {
	var err error
	p.once.Do(func() {
		err = p.device.Stop()
		p.device.Uninit()
	})
	return err
}
