// Package mock provides a mock speech engine for testing and demos.
package mock

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/dgnsrekt/voicebox/tts"
)

// MockEngine implements tts.Engine by synthesizing a short tone whose length
// follows the text length.
type MockEngine struct {
	mu sync.Mutex

	// Configuration
	delay      time.Duration // Simulated processing delay
	sampleRate int
	frequency  float64

	// Control for testing
	shouldFail   bool
	failureError error

	callCount int
	lastText  string
}

// New creates a new mock engine.
func New() *MockEngine {
	return &MockEngine{
		delay:      100 * time.Millisecond,
		sampleRate: 16000,
		frequency:  440,
	}
}

// NewFromConfig creates a mock engine from configuration.
func NewFromConfig(cfg tts.MockConfig) *MockEngine {
	e := New()
	e.delay = cfg.Delay
	if cfg.SampleRate > 0 {
		e.sampleRate = cfg.SampleRate
	}
	if cfg.Frequency > 0 {
		e.frequency = cfg.Frequency
	}
	return e
}

// Name returns the engine name.
func (e *MockEngine) Name() string {
	return tts.EngineMock
}

// Synthesize simulates audio generation.
func (e *MockEngine) Synthesize(ctx context.Context, text string) (tts.Waveform, error) {
	e.mu.Lock()
	e.callCount++
	e.lastText = text
	delay := e.delay
	fail, failErr := e.shouldFail, e.failureError
	rate, freq := e.sampleRate, e.frequency
	e.mu.Unlock()

	// Simulate processing delay
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return tts.Waveform{}, ctx.Err()
		}
	}

	if fail {
		return tts.Waveform{}, failErr
	}

	n := int(estimateDuration(text).Seconds() * float64(rate))
	samples := make([]float32, n)
	for i := range samples {
		// Fade in and out to avoid clicks.
		env := math.Min(1, math.Min(float64(i), float64(n-i))/float64(rate/100+1))
		samples[i] = float32(0.3 * env * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return tts.Waveform{Samples: samples, SampleRate: rate}, nil
}

// Test control methods

// SetDelay sets the simulated processing delay.
func (e *MockEngine) SetDelay(delay time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.delay = delay
}

// SetFailure configures the engine to fail with the given error.
func (e *MockEngine) SetFailure(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shouldFail = true
	e.failureError = err
}

// ClearFailure resets the engine to normal operation.
func (e *MockEngine) ClearFailure() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shouldFail = false
	e.failureError = nil
}

// GetCallCount returns the number of Synthesize calls.
func (e *MockEngine) GetCallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.callCount
}

// LastText returns the text of the latest call.
func (e *MockEngine) LastText() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastText
}

// estimateDuration estimates speaking duration for text.
func estimateDuration(text string) time.Duration {
	// Estimate ~150 words per minute
	words := len(text) / 5 // Rough estimate: 5 chars per word
	if words < 1 {
		words = 1
	}
	seconds := float64(words) * 60.0 / 150.0
	return time.Duration(seconds * float64(time.Second))
}
