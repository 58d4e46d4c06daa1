package audio

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/voicebox/tts"
)

// IsCI detects if we're running in a CI environment or mock audio was
// requested.
func IsCI() bool {
	ciVars := []string{
		"CI",
		"CONTINUOUS_INTEGRATION",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"JENKINS_URL",
		"BUILDKITE",
		"DRONE",
	}

	for _, envVar := range ciVars {
		if val := os.Getenv(envVar); val != "" && val != "false" {
			log.Debug("CI environment detected", "variable", envVar)
			return true
		}
	}

	if os.Getenv("VOICEBOX_MOCK_AUDIO") == "true" {
		log.Debug("Mock audio requested via environment variable")
		return true
	}
	return false
}

// ResolveBackend turns "auto" into a concrete backend name.
func ResolveBackend(backend string) string {
	if backend != tts.BackendAuto && backend != "" {
		return backend
	}
	if IsCI() {
		return tts.BackendMock
	}
	return tts.BackendOto
}

// NewContextFactory returns the factory for the configured backend.
func NewContextFactory(cfg tts.AudioConfig) (ContextFactory, error) {
	backend := ResolveBackend(cfg.Backend)
	log.Debug("Selected audio backend", "backend", backend)

	switch backend {
	case tts.BackendOto:
		return func(sampleRate int) (Context, error) {
			if cfg.SampleRate > 0 {
				sampleRate = cfg.SampleRate
			}
			ctx, err := NewOtoContext(sampleRate, cfg.BufferSize)
			if err != nil {
				return nil, err
			}
			return ctx, nil
		}, nil

	case tts.BackendMalgo:
		return func(int) (Context, error) {
			ctx, err := NewMalgoContext()
			if err != nil {
				return nil, err
			}
			return ctx, nil
		}, nil

	case tts.BackendMock:
		return func(int) (Context, error) {
			if cfg.SampleRate > 0 {
				return NewMockContextAt(cfg.SampleRate), nil
			}
			return NewMockContext(), nil
		}, nil

	default:
		return nil, fmt.Errorf("unknown audio backend: %q", cfg.Backend)
	}
}

// StaticFactory always returns ctx.
func StaticFactory(ctx Context) ContextFactory {
	return func(int) (Context, error) {
		return ctx, nil
	}
}

// NewRendererFromConfig builds a renderer for the configured backend.
func NewRendererFromConfig(cfg tts.AudioConfig) (*Renderer, error) {
	factory, err := NewContextFactory(cfg)
	if err != nil {
		return nil, err
	}
	return NewRenderer(factory), nil
}
