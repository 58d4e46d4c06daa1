package audio

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
)

// MockContext implements Context for testing without real audio.
// Every clip finishes immediately.
type MockContext struct {
	mu      sync.Mutex
	ready   bool
	rate    int
	players []*MockPlayer
	failErr error

	// Test helpers
	PlayersCreated int
	PlayersClosed  int
}

// NewMockContext creates a mock context accepting any sample rate.
func NewMockContext() *MockContext {
	return &MockContext{ready: true}
}

// NewMockContextAt creates a mock context fixed to rate, like oto.
func NewMockContextAt(rate int) *MockContext {
	return &MockContext{ready: true, rate: rate}
}

// NewPlayer creates a new mock audio player.
func (m *MockContext) NewPlayer(r io.Reader, sampleRate int) (Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready {
		return nil, fmt.Errorf("mock audio context not ready")
	}
	if m.failErr != nil {
		return nil, m.failErr
	}

	// Read everything to simulate consumption by the device.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	p := &MockPlayer{context: m, data: data, sampleRate: sampleRate}
	m.players = append(m.players, p)
	m.PlayersCreated++

	log.Debug("Created mock audio player", "data_size", len(data), "players_created", m.PlayersCreated)
	return p, nil
}

// SampleRate returns the fixed rate, or zero.
func (m *MockContext) SampleRate() int {
	return m.rate
}

// Close closes the mock audio context.
func (m *MockContext) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = false
	return nil
}

// SetPlayerError makes NewPlayer fail with err. A nil err clears it.
func (m *MockContext) SetPlayerError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

// Players returns the players created so far.
func (m *MockContext) Players() []*MockPlayer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*MockPlayer(nil), m.players...)
}

// Closed reports whether Close has been called.
func (m *MockContext) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.ready
}

// Created returns the number of players created.
func (m *MockContext) Created() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.PlayersCreated
}

// ClosedPlayers returns the number of players closed.
func (m *MockContext) ClosedPlayers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.PlayersClosed
}

// MockPlayer implements Player for testing.
type MockPlayer struct {
	context    *MockContext
	data       []byte
	sampleRate int

	mu      sync.Mutex
	started bool
	closed  bool
}

// Play marks the clip as started. It finishes immediately.
func (p *MockPlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = true
}

// IsPlaying always reports false once started.
func (p *MockPlayer) IsPlaying() bool {
	return false
}

// Close releases the player.
func (p *MockPlayer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.context.mu.Lock()
	p.context.PlayersClosed++
	p.context.mu.Unlock()
	return nil
}

// Started reports whether Play was called.
func (p *MockPlayer) Started() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

// Samples decodes the clip that was handed to the player.
func (p *MockPlayer) Samples() []float32 {
	s, _ := DecodeFloat32LE(p.data)
	return s
}

// SampleRate returns the clip rate.
func (p *MockPlayer) SampleRate() int {
	return p.sampleRate
}
