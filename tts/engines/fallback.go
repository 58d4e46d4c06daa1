// Package engines selects and composes speech synthesis engines.
package engines

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/voicebox/tts"
)

// FallbackEngine wraps a primary engine with automatic fallback to a secondary engine
// when the primary fails consistently.
type FallbackEngine struct {
	primary       tts.Engine
	fallback      tts.Engine
	failures      int
	maxFailures   int
	usingFallback bool
	mu            sync.RWMutex
}

// NewFallbackEngine creates a new engine with automatic fallback capability.
func NewFallbackEngine(primary, fallback tts.Engine, maxFailures int) *FallbackEngine {
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &FallbackEngine{
		primary:     primary,
		fallback:    fallback,
		maxFailures: maxFailures,
	}
}

// Name reports the primary engine with its fallback.
func (f *FallbackEngine) Name() string {
	return f.primary.Name() + "+" + f.fallback.Name()
}

// Synthesize uses the active engine. After maxFailures consecutive primary
// failures the fallback takes over until Reset.
func (f *FallbackEngine) Synthesize(ctx context.Context, text string) (tts.Waveform, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.usingFallback {
		log.Debug("Using fallback engine", "engine", f.fallback.Name())
		return f.fallback.Synthesize(ctx, text)
	}

	w, err := f.primary.Synthesize(ctx, text)
	if err == nil {
		if f.failures > 0 {
			log.Info("Primary engine recovered", "failures", f.failures)
			f.failures = 0
		}
		return w, nil
	}

	// Cancellation says nothing about the engine's health.
	if ctx.Err() != nil {
		return tts.Waveform{}, err
	}

	f.failures++
	log.Warn("Primary engine failed", "attempt", f.failures, "max", f.maxFailures, "error", err)

	if f.failures < f.maxFailures {
		return tts.Waveform{}, err
	}

	log.Warn("Switching to fallback engine", "engine", f.fallback.Name(), "failures", f.failures)
	f.usingFallback = true

	w, fbErr := f.fallback.Synthesize(ctx, text)
	if fbErr != nil {
		return tts.Waveform{}, fmt.Errorf("both engines failed: primary: %w, fallback: %w", err, fbErr)
	}
	return w, nil
}

// Close closes both engines when they hold resources.
func (f *FallbackEngine) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var errs []error
	if c, ok := f.primary.(tts.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("primary close: %w", err))
		}
	}
	if c, ok := f.fallback.(tts.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("fallback close: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Reset attempts to reset to primary engine.
func (f *FallbackEngine) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failures = 0
	f.usingFallback = false
	log.Info("Reset to primary engine")
}

// UsingFallback reports whether the fallback engine is active.
func (f *FallbackEngine) UsingFallback() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.usingFallback
}

// GetStatus returns the current engine status.
func (f *FallbackEngine) GetStatus() string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.usingFallback {
		return fmt.Sprintf("Using fallback engine (primary failed %d times)", f.failures)
	}
	return fmt.Sprintf("Using primary engine (failures: %d/%d)", f.failures, f.maxFailures)
}
