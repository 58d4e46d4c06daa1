package tts

import (
	"fmt"
	"strings"
	"time"
)

// Engine names.
const (
	EngineMock       = "mock"
	EngineSubprocess = "subprocess"
	EngineHTTP       = "http"
	EngineNATS       = "nats"
)

// Audio backend names.
const (
	BackendAuto  = "auto"
	BackendOto   = "oto"
	BackendMalgo = "malgo"
	BackendMock  = "mock"
)

// Subprocess protocols.
const (
	ProtocolRaw  = "raw"
	ProtocolJSON = "json"
)

// Config contains all session configuration options.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Audio   AudioConfig   `yaml:"audio"`
	History HistoryConfig `yaml:"history"`
	Session SessionConfig `yaml:"session"`
}

// EngineConfig selects and configures the speech engine.
type EngineConfig struct {
	Name        string `yaml:"name"`
	Fallback    string `yaml:"fallback"`
	MaxFailures int    `yaml:"max_failures"`

	Mock       MockConfig       `yaml:"mock"`
	Subprocess SubprocessConfig `yaml:"subprocess"`
	HTTP       HTTPConfig       `yaml:"http"`
	NATS       NATSConfig       `yaml:"nats"`
}

// MockConfig contains mock engine settings.
type MockConfig struct {
	Delay      time.Duration `yaml:"delay"`
	SampleRate int           `yaml:"sample_rate"`
	Frequency  float64       `yaml:"frequency"`
}

// SubprocessConfig runs a local synthesizer such as piper.
type SubprocessConfig struct {
	Command    string `yaml:"command"`
	Protocol   string `yaml:"protocol"`
	SampleRate int    `yaml:"sample_rate"` // raw protocol only
}

// HTTPConfig reaches a synthesizer over HTTP.
type HTTPConfig struct {
	BaseURL           string        `yaml:"base_url"`
	Token             string        `yaml:"token"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	Timeout           time.Duration `yaml:"timeout"`
}

// NATSConfig reaches a synthesizer over NATS request/reply.
type NATSConfig struct {
	Servers []string      `yaml:"servers"`
	Subject string        `yaml:"subject"`
	Name    string        `yaml:"name"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// AudioConfig selects the audio output.
type AudioConfig struct {
	Backend    string        `yaml:"backend"`
	SampleRate int           `yaml:"sample_rate"` // zero adopts the first waveform's rate
	BufferSize time.Duration `yaml:"buffer_size"`
}

// HistoryConfig sizes the replay history.
type HistoryConfig struct {
	Capacity int `yaml:"capacity"`
}

// SessionConfig bounds a synthesis request.
type SessionConfig struct {
	SynthesisTimeout time.Duration `yaml:"synthesis_timeout"`
	MaxTextLength    int           `yaml:"max_text_length"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Engine: EngineConfig{
			Name:        EngineMock,
			MaxFailures: 3,
			Mock: MockConfig{
				Delay:      250 * time.Millisecond,
				SampleRate: 16000,
				Frequency:  440,
			},
			Subprocess: SubprocessConfig{
				Command:    "piper --model en_US-lessac-medium --output-raw",
				Protocol:   ProtocolRaw,
				SampleRate: 22050,
			},
			HTTP: HTTPConfig{
				BaseURL:           "http://localhost:8080",
				RequestsPerMinute: 60,
				Timeout:           30 * time.Second,
			},
			NATS: NATSConfig{
				Servers: []string{"nats://127.0.0.1:4222"},
				Subject: "voicebox.tts.synthesize",
				Name:    "voicebox",
				Timeout: 45 * time.Second,
			},
		},
		Audio: AudioConfig{
			Backend:    BackendAuto,
			BufferSize: 50 * time.Millisecond,
		},
		History: HistoryConfig{
			Capacity: DefaultHistoryCapacity,
		},
		Session: SessionConfig{
			SynthesisTimeout: DefaultSynthesisTimeout,
			MaxTextLength:    DefaultMaxTextLength,
		},
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	var errs []string

	switch c.Engine.Name {
	case EngineMock, EngineSubprocess, EngineHTTP, EngineNATS:
	default:
		errs = append(errs, fmt.Sprintf("unknown engine %q", c.Engine.Name))
	}

	if c.Engine.Fallback != "" {
		switch c.Engine.Fallback {
		case EngineMock, EngineSubprocess, EngineHTTP, EngineNATS:
		default:
			errs = append(errs, fmt.Sprintf("unknown fallback engine %q", c.Engine.Fallback))
		}
		if c.Engine.Fallback == c.Engine.Name {
			errs = append(errs, "fallback engine must differ from the primary engine")
		}
		if c.Engine.MaxFailures < 1 {
			errs = append(errs, "max_failures must be at least 1")
		}
	}

	if err := c.Engine.validateSelected(c.Engine.Name); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Engine.Fallback != "" && c.Engine.Fallback != c.Engine.Name {
		if err := c.Engine.validateSelected(c.Engine.Fallback); err != nil {
			errs = append(errs, err.Error())
		}
	}

	switch c.Audio.Backend {
	case BackendAuto, BackendOto, BackendMalgo, BackendMock:
	default:
		errs = append(errs, fmt.Sprintf("unknown audio backend %q", c.Audio.Backend))
	}
	if c.Audio.SampleRate < 0 {
		errs = append(errs, "audio sample_rate cannot be negative")
	}

	if c.History.Capacity < 1 {
		errs = append(errs, "history capacity must be at least 1")
	}
	if c.Session.SynthesisTimeout < 0 {
		errs = append(errs, "synthesis_timeout cannot be negative")
	}
	if c.Session.MaxTextLength < 0 {
		errs = append(errs, "max_text_length cannot be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// validateSelected checks the settings of one engine.
func (e EngineConfig) validateSelected(name string) error {
	switch name {
	case EngineMock:
		if e.Mock.SampleRate <= 0 {
			return fmt.Errorf("mock sample_rate must be positive")
		}
	case EngineSubprocess:
		if strings.TrimSpace(e.Subprocess.Command) == "" {
			return fmt.Errorf("subprocess command is required")
		}
		switch e.Subprocess.Protocol {
		case ProtocolRaw:
			if e.Subprocess.SampleRate <= 0 {
				return fmt.Errorf("subprocess sample_rate must be positive for the raw protocol")
			}
		case ProtocolJSON:
		default:
			return fmt.Errorf("unknown subprocess protocol %q", e.Subprocess.Protocol)
		}
	case EngineHTTP:
		if e.HTTP.BaseURL == "" {
			return fmt.Errorf("http base_url is required")
		}
		if e.HTTP.RequestsPerMinute < 0 {
			return fmt.Errorf("http requests_per_minute cannot be negative")
		}
	case EngineNATS:
		if len(e.NATS.Servers) == 0 {
			return fmt.Errorf("nats servers are required")
		}
		if e.NATS.Subject == "" {
			return fmt.Errorf("nats subject is required")
		}
	}
	return nil
}

// ControllerConfig derives the controller settings.
func (c Config) ControllerConfig() ControllerConfig {
	cc := DefaultControllerConfig()
	cc.HistoryCapacity = c.History.Capacity
	cc.SynthesisTimeout = c.Session.SynthesisTimeout
	cc.MaxTextLength = c.Session.MaxTextLength
	return cc
}
