package engines

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/voicebox/tts"
	"github.com/dgnsrekt/voicebox/tts/engines/httpapi"
	"github.com/dgnsrekt/voicebox/tts/engines/mock"
	"github.com/dgnsrekt/voicebox/tts/engines/natsbus"
	"github.com/dgnsrekt/voicebox/tts/engines/subprocess"
)

// New builds the configured engine, wrapped with its fallback when one is set.
func New(cfg tts.EngineConfig) (tts.Engine, error) {
	primary, err := Build(cfg.Name, cfg)
	if err != nil {
		if cfg.Fallback == "" {
			return nil, err
		}
		// A primary that cannot be built at all leaves only the fallback.
		log.Warn("Primary engine unavailable, using fallback", "engine", cfg.Name, "fallback", cfg.Fallback, "error", err)
		return Build(cfg.Fallback, cfg)
	}

	if cfg.Fallback == "" {
		return primary, nil
	}

	fallback, err := Build(cfg.Fallback, cfg)
	if err != nil {
		log.Warn("Fallback engine unavailable", "engine", cfg.Fallback, "error", err)
		return primary, nil
	}
	return NewFallbackEngine(primary, fallback, cfg.MaxFailures), nil
}

// Build constructs a single engine by name.
func Build(name string, cfg tts.EngineConfig) (tts.Engine, error) {
	switch name {
	case tts.EngineMock:
		return mock.NewFromConfig(cfg.Mock), nil
	case tts.EngineSubprocess:
		return subprocess.New(cfg.Subprocess)
	case tts.EngineHTTP:
		return httpapi.New(cfg.HTTP)
	case tts.EngineNATS:
		return natsbus.New(cfg.NATS)
	default:
		return nil, fmt.Errorf("unknown engine %q", name)
	}
}
