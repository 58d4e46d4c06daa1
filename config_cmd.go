package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/dgnsrekt/voicebox/tts"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const defaultConfig = `# Speech engine configuration
engine:
  # mock, subprocess, http or nats
  name: "mock"
  # engine to switch to after max_failures consecutive failures (optional)
  fallback: ""
  max_failures: 3

  # Built-in test tone (no external synthesizer needed)
  mock:
    delay: "250ms"
    sample_rate: 16000
    frequency: 440

  # Local synthesizer run once per request, e.g. piper
  subprocess:
    command: "piper --model en_US-lessac-medium --output-raw"
    # raw: s16le PCM on stdout, json: voicebox wire protocol
    protocol: "raw"
    sample_rate: 22050

  # Synthesizer reachable over HTTP (POST {base_url}/synthesize)
  http:
    base_url: "http://localhost:8080"
    # token: "secret"
    requests_per_minute: 60
    timeout: "30s"

  # Synthesizer reachable over NATS request/reply
  nats:
    servers:
      - "nats://127.0.0.1:4222"
    subject: "voicebox.tts.synthesize"
    name: "voicebox"
    # token: "secret"
    timeout: "45s"

# Audio output
audio:
  # auto, oto, malgo or mock
  backend: "auto"
  # fixed output rate in Hz; 0 follows the first clip
  sample_rate: 0
  buffer_size: "50ms"

# Number of past results kept for replay
history:
  capacity: 5

session:
  # 0 waits for the engine forever
  synthesis_timeout: "60s"
  max_text_length: 5000

# Serve Prometheus metrics, e.g. "localhost:9090"
metrics:
  addr: ""

# write debug logs to the log file
debug: false
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the voicebox config file",
	Long:    paragraph(fmt.Sprintf("\n%s the voicebox config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("voicebox config\nvoicebox config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("voicebox", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		if err := validateConfigFile(configFile); err != nil {
			fmt.Fprintln(os.Stderr, failMark, err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return writeSettings(cmd.OutOrStdout(), viper.AllSettings())
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [FILE]",
	Short: "Check a config file for errors",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := configFile
		if len(args) == 1 {
			file = args[0]
		}
		if file == "" {
			file = viper.ConfigFileUsed()
		}
		if err := validateConfigFile(file); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), okMark, file)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configValidateCmd)
}

// writeSettings prints settings as YAML.
func writeSettings(w io.Writer, settings map[string]any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(settings); err != nil {
		return fmt.Errorf("unable to encode config: %w", err)
	}
	return enc.Close()
}

// validateConfigFile parses file as YAML and checks the session settings it
// describes.
func validateConfigFile(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("unable to read config file: %w", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%s: invalid YAML: %w", file, err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	if _, err := tts.LoadConfig(v); err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	return nil
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
