package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/voicebox/tts"
	"github.com/dgnsrekt/voicebox/tts/audio"
	"github.com/dgnsrekt/voicebox/tts/engines"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// session bundles a controller with the resources it owns.
type session struct {
	controller *tts.Controller
	renderer   *audio.Renderer
	registry   *prometheus.Registry
}

// newSession builds the engine, renderer and controller from cfg.
func newSession(cfg tts.Config) (*session, error) {
	engine, err := engines.New(cfg.Engine)
	if err != nil {
		return nil, fmt.Errorf("unable to create engine: %w", err)
	}

	renderer, err := audio.NewRendererFromConfig(cfg.Audio)
	if err != nil {
		if c, ok := engine.(tts.Closer); ok {
			_ = c.Close()
		}
		return nil, fmt.Errorf("unable to create renderer: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	cc := cfg.ControllerConfig()
	cc.Logger = log.Default()
	cc.Metrics = tts.NewMetrics(reg)

	log.Debug("Session ready", "engine", engine.Name(), "backend", audio.ResolveBackend(cfg.Audio.Backend))

	return &session{
		controller: tts.NewController(engine, renderer, cc),
		renderer:   renderer,
		registry:   reg,
	}, nil
}

// Close stops the controller, then the audio output.
func (s *session) Close() error {
	return errors.Join(s.controller.Close(), s.renderer.Close())
}

// serveMetrics exposes the session's metrics until ctx is done.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) {
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("Serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server failed", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
