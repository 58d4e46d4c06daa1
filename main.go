// Package main provides the entry point for the voicebox CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/voicebox/tts"
	"github.com/dgnsrekt/voicebox/ui"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile  string
	mouse       bool
	metricsAddr string

	// Session configuration resolved in validateOptions.
	sessionConfig tts.Config

	logCloser = func() error { return nil }

	rootCmd = &cobra.Command{
		Use:   "voicebox",
		Short: "Type text, hear it spoken",
		Long: paragraph(
			fmt.Sprintf("\nType text and hear it %s. Past results stay around for replay.", keyword("spoken")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

func validateOptions(cmd *cobra.Command) error {
	if cmd.Flags().Changed("config") {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
	}

	closer, err := setupLog()
	if err != nil {
		return err
	}
	logCloser = closer

	// grab config values from Viper
	mouse = viper.GetBool("mouse")
	metricsAddr = viper.GetString("metrics.addr")

	sessionConfig, err = tts.LoadConfigFromViper()
	if err != nil {
		return err
	}
	return nil
}

func execute(cmd *cobra.Command, _ []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("voicebox needs a terminal; use \"voicebox say\" for scripts")
	}
	return runTUI(cmd.Context())
}

func runTUI(ctx context.Context) error {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}
	cfg.EnableMouse = mouse
	if limit := sessionConfig.Session.MaxTextLength; limit > 0 && (cfg.CharLimit == 0 || cfg.CharLimit > limit) {
		cfg.CharLimit = limit
	}

	s, err := newSession(sessionConfig)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Warn("Session shutdown error", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	serveMetrics(ctx, metricsAddr, s.registry)

	// Run Bubble Tea program
	if _, err := ui.NewProgram(cfg, s.controller).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}

	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = logCloser()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().String("engine", "", "speech engine: mock, subprocess, http or nats")
	rootCmd.PersistentFlags().String("audio", "", "audio backend: auto, oto, malgo or mock")
	rootCmd.PersistentFlags().String("metrics-addr", "", "serve Prometheus metrics on this address")
	rootCmd.PersistentFlags().Bool("debug", false, "write debug logs")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse support")
	_ = rootCmd.Flags().MarkHidden("mouse")

	// Config bindings
	_ = viper.BindPFlag("engine.name", rootCmd.PersistentFlags().Lookup("engine"))
	_ = viper.BindPFlag("audio.backend", rootCmd.PersistentFlags().Lookup("audio"))
	_ = viper.BindPFlag("metrics.addr", rootCmd.PersistentFlags().Lookup("metrics-addr"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))

	viper.SetDefault("metrics.addr", "")
	viper.SetDefault("debug", false)
	viper.SetDefault("mouse", false)
	tts.SetDefaults()

	rootCmd.AddCommand(configCmd, sayCmd, addCmd, greetCmd, workerCmd, doctorCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "voicebox")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "voicebox")}, dirs...)
	}

	if c := os.Getenv("VOICEBOX_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("voicebox")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("voicebox")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "voicebox.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
