package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestDefaultConfigIsValid(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "voicebox.yml")

	orig := configFile
	configFile = file
	defer func() { configFile = orig }()

	if err := ensureConfigFile(); err != nil {
		t.Fatalf("ensureConfigFile: %v", err)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != defaultConfig {
		t.Error("default config was not written")
	}
	if err := validateConfigFile(file); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestEnsureConfigFileRejectsExtension(t *testing.T) {
	orig := configFile
	configFile = filepath.Join(t.TempDir(), "voicebox.toml")
	defer func() { configFile = orig }()

	if err := ensureConfigFile(); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestValidateConfigFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"valid", "engine:\n  name: mock\nhistory:\n  capacity: 3\n", ""},
		{"bad yaml", "engine: [unterminated\n", "invalid YAML"},
		{"unknown engine", "engine:\n  name: espeak\n", "unknown engine"},
		{"bad capacity", "history:\n  capacity: 0\n", "history capacity"},
		{"bad duration", "session:\n  synthesis_timeout: \"5 minutes\"\n", "invalid duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := filepath.Join(t.TempDir(), "voicebox.yml")
			if err := os.WriteFile(file, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}

			err := validateConfigFile(file)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestWriteSettings(t *testing.T) {
	v := viper.New()
	v.Set("engine.name", "mock")
	v.Set("history.capacity", 5)

	var buf bytes.Buffer
	if err := writeSettings(&buf, v.AllSettings()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "engine:\n  name: mock") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "capacity: 5") {
		t.Errorf("unexpected output:\n%s", out)
	}
}
