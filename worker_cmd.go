package main

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/voicebox/tts"
	"github.com/dgnsrekt/voicebox/tts/engines"
	"github.com/dgnsrekt/voicebox/tts/engines/natsbus"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

var (
	workerEngine   string
	workerEmbedded bool
	workerHost     string
	workerPort     int

	workerCmd = &cobra.Command{
		Use:   "worker",
		Short: "Serve a local engine to other voicebox instances over NATS",
		Long: paragraph(fmt.Sprintf("\nAnswer synthesis requests on the configured NATS subject with a %s engine. "+
			"Clients select it with engine.name: nats.", keyword("local"))),
		Example: paragraph("voicebox worker --serve-engine subprocess\nvoicebox worker --embedded --port 4222"),
		Args:    cobra.NoArgs,
		RunE:    runWorker,
	}
)

func init() {
	workerCmd.Flags().StringVar(&workerEngine, "serve-engine", tts.EngineSubprocess, "engine answering requests")
	workerCmd.Flags().BoolVar(&workerEmbedded, "embedded", false, "run an embedded NATS server")
	workerCmd.Flags().StringVar(&workerHost, "host", "127.0.0.1", "embedded server host")
	workerCmd.Flags().IntVar(&workerPort, "port", 4222, "embedded server port")
}

func runWorker(cmd *cobra.Command, _ []string) error {
	logToStderr(true)

	if workerEngine == tts.EngineNATS {
		return errors.New("a worker cannot serve the nats engine")
	}

	cfg := sessionConfig.Engine
	engine, err := engines.Build(workerEngine, cfg)
	if err != nil {
		return err
	}
	if c, ok := engine.(tts.Closer); ok {
		defer c.Close() //nolint:errcheck
	}

	var conn *nats.Conn
	if workerEmbedded {
		srv, err := natsbus.StartEmbedded(workerHost, workerPort)
		if err != nil {
			return err
		}
		defer srv.Shutdown()

		natsCfg := cfg.NATS
		natsCfg.Servers = []string{srv.ClientURL()}
		natsCfg.Token = ""
		conn, err = natsbus.Connect(natsCfg)
		if err != nil {
			return err
		}
	} else {
		conn, err = natsbus.Connect(cfg.NATS)
		if err != nil {
			return err
		}
	}
	defer conn.Close()

	log.Info("Worker ready", "engine", engine.Name(), "subject", cfg.NATS.Subject)
	return natsbus.Serve(cmd.Context(), conn, cfg.NATS.Subject, engine)
}
