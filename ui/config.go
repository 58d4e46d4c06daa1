package ui

// Config contains TUI-specific configuration.
type Config struct {
	// Placeholder shown in the empty text field
	Placeholder string `env:"VOICEBOX_PLACEHOLDER" envDefault:"Type something to say..."`

	// Character limit of the text field; zero means unlimited
	CharLimit int `env:"VOICEBOX_CHAR_LIMIT" envDefault:"5000"`

	// Absolute timestamps instead of "2 minutes ago"
	AbsoluteTimes bool   `env:"VOICEBOX_ABSOLUTE_TIMES"`
	TimeFormat    string `env:"VOICEBOX_TIME_FORMAT" envDefault:"15:04:05"`

	EnableMouse bool

	// For debugging the UI
	NoAltScreen bool `env:"VOICEBOX_NO_ALT_SCREEN"`
}

// DefaultConfig returns the configuration used when the environment is empty.
func DefaultConfig() Config {
	return Config{
		Placeholder: "Type something to say...",
		CharLimit:   5000,
		TimeFormat:  "15:04:05",
	}
}
