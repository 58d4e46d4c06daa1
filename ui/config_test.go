package ui

import (
	"testing"

	"github.com/caarlos0/env/v11"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("VOICEBOX_TIME_FORMAT", "15:04")
	t.Setenv("VOICEBOX_CHAR_LIMIT", "200")
	t.Setenv("VOICEBOX_ABSOLUTE_TIMES", "true")
	t.Setenv("VOICEBOX_NO_ALT_SCREEN", "true")
	t.Setenv("VOICEBOX_PLACEHOLDER", "Say it")

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		t.Fatalf("ParseAs: %v", err)
	}

	if cfg.TimeFormat != "15:04" {
		t.Errorf("TimeFormat = %q", cfg.TimeFormat)
	}
	if cfg.CharLimit != 200 {
		t.Errorf("CharLimit = %d", cfg.CharLimit)
	}
	if !cfg.AbsoluteTimes || !cfg.NoAltScreen {
		t.Errorf("bool settings not read: %+v", cfg)
	}
	if cfg.Placeholder != "Say it" {
		t.Errorf("Placeholder = %q", cfg.Placeholder)
	}
}

