package tts

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoadConfigFromViper loads the session configuration from Viper.
func LoadConfigFromViper() (Config, error) {
	return LoadConfig(viper.GetViper())
}

// LoadConfig loads the session configuration from v.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()

	var errs []error
	dur := func(key string, dst *time.Duration) {
		if !v.IsSet(key) {
			return
		}
		d, err := duration(v, key)
		if err != nil {
			errs = append(errs, err)
			return
		}
		*dst = d
	}

	// Engine selection
	if v.IsSet("engine.name") {
		cfg.Engine.Name = v.GetString("engine.name")
	}
	if v.IsSet("engine.fallback") {
		cfg.Engine.Fallback = v.GetString("engine.fallback")
	}
	if v.IsSet("engine.max_failures") {
		cfg.Engine.MaxFailures = v.GetInt("engine.max_failures")
	}

	cfg.Engine.Mock = loadMockConfig(v, cfg.Engine.Mock, dur)
	cfg.Engine.Subprocess = loadSubprocessConfig(v, cfg.Engine.Subprocess)
	cfg.Engine.HTTP = loadHTTPConfig(v, cfg.Engine.HTTP, dur)
	cfg.Engine.NATS = loadNATSConfig(v, cfg.Engine.NATS, dur)

	// Audio settings
	if v.IsSet("audio.backend") {
		cfg.Audio.Backend = v.GetString("audio.backend")
	}
	if v.IsSet("audio.sample_rate") {
		cfg.Audio.SampleRate = v.GetInt("audio.sample_rate")
	}
	dur("audio.buffer_size", &cfg.Audio.BufferSize)

	// Session settings
	if v.IsSet("history.capacity") {
		cfg.History.Capacity = v.GetInt("history.capacity")
	}
	dur("session.synthesis_timeout", &cfg.Session.SynthesisTimeout)
	if v.IsSet("session.max_text_length") {
		cfg.Session.MaxTextLength = v.GetInt("session.max_text_length")
	}

	if err := cfg.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return cfg, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

// duration reads a duration given either as a string ("30s") or a number of
// seconds. Environment variables always arrive as strings, so "30" is read as
// seconds too.
func duration(v *viper.Viper, key string) (time.Duration, error) {
	switch raw := v.Get(key).(type) {
	case int:
		return time.Duration(raw) * time.Second, nil
	case int64:
		return time.Duration(raw) * time.Second, nil
	case float64:
		return time.Duration(raw * float64(time.Second)), nil
	case time.Duration:
		return raw, nil
	}

	str := strings.TrimSpace(v.GetString(key))
	if d, err := time.ParseDuration(str); err == nil {
		return d, nil
	}
	if secs, err := strconv.ParseFloat(str, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return 0, fmt.Errorf("%s: invalid duration %q (use a value like \"30s\" or a number of seconds)", key, str)
}

func loadMockConfig(v *viper.Viper, cfg MockConfig, dur func(string, *time.Duration)) MockConfig {
	dur("engine.mock.delay", &cfg.Delay)
	if v.IsSet("engine.mock.sample_rate") {
		cfg.SampleRate = v.GetInt("engine.mock.sample_rate")
	}
	if v.IsSet("engine.mock.frequency") {
		cfg.Frequency = v.GetFloat64("engine.mock.frequency")
	}
	return cfg
}

func loadSubprocessConfig(v *viper.Viper, cfg SubprocessConfig) SubprocessConfig {
	if v.IsSet("engine.subprocess.command") {
		cfg.Command = v.GetString("engine.subprocess.command")
	}
	if v.IsSet("engine.subprocess.protocol") {
		cfg.Protocol = v.GetString("engine.subprocess.protocol")
	}
	if v.IsSet("engine.subprocess.sample_rate") {
		cfg.SampleRate = v.GetInt("engine.subprocess.sample_rate")
	}
	return cfg
}

func loadHTTPConfig(v *viper.Viper, cfg HTTPConfig, dur func(string, *time.Duration)) HTTPConfig {
	if v.IsSet("engine.http.base_url") {
		cfg.BaseURL = v.GetString("engine.http.base_url")
	}
	if v.IsSet("engine.http.token") {
		cfg.Token = v.GetString("engine.http.token")
	}
	if v.IsSet("engine.http.requests_per_minute") {
		cfg.RequestsPerMinute = v.GetInt("engine.http.requests_per_minute")
	}
	dur("engine.http.timeout", &cfg.Timeout)
	return cfg
}

func loadNATSConfig(v *viper.Viper, cfg NATSConfig, dur func(string, *time.Duration)) NATSConfig {
	if v.IsSet("engine.nats.servers") {
		cfg.Servers = v.GetStringSlice("engine.nats.servers")
	}
	if v.IsSet("engine.nats.subject") {
		cfg.Subject = v.GetString("engine.nats.subject")
	}
	if v.IsSet("engine.nats.name") {
		cfg.Name = v.GetString("engine.nats.name")
	}
	if v.IsSet("engine.nats.token") {
		cfg.Token = v.GetString("engine.nats.token")
	}
	dur("engine.nats.timeout", &cfg.Timeout)
	return cfg
}

// SetDefaults sets default values in Viper for the session configuration.
func SetDefaults() {
	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("engine.name", d.Engine.Name)
	v.SetDefault("engine.fallback", d.Engine.Fallback)
	v.SetDefault("engine.max_failures", d.Engine.MaxFailures)

	v.SetDefault("engine.mock.delay", d.Engine.Mock.Delay.String())
	v.SetDefault("engine.mock.sample_rate", d.Engine.Mock.SampleRate)
	v.SetDefault("engine.mock.frequency", d.Engine.Mock.Frequency)

	v.SetDefault("engine.subprocess.command", d.Engine.Subprocess.Command)
	v.SetDefault("engine.subprocess.protocol", d.Engine.Subprocess.Protocol)
	v.SetDefault("engine.subprocess.sample_rate", d.Engine.Subprocess.SampleRate)

	v.SetDefault("engine.http.base_url", d.Engine.HTTP.BaseURL)
	v.SetDefault("engine.http.requests_per_minute", d.Engine.HTTP.RequestsPerMinute)
	v.SetDefault("engine.http.timeout", d.Engine.HTTP.Timeout.String())

	v.SetDefault("engine.nats.servers", d.Engine.NATS.Servers)
	v.SetDefault("engine.nats.subject", d.Engine.NATS.Subject)
	v.SetDefault("engine.nats.name", d.Engine.NATS.Name)
	v.SetDefault("engine.nats.timeout", d.Engine.NATS.Timeout.String())

	v.SetDefault("audio.backend", d.Audio.Backend)
	v.SetDefault("audio.sample_rate", d.Audio.SampleRate)
	v.SetDefault("audio.buffer_size", d.Audio.BufferSize.String())

	v.SetDefault("history.capacity", d.History.Capacity)
	v.SetDefault("session.synthesis_timeout", d.Session.SynthesisTimeout.String())
	v.SetDefault("session.max_text_length", d.Session.MaxTextLength)
}
