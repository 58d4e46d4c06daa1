// Package natsbus reaches a speech synthesizer over NATS request/reply, and
// can serve any tts.Engine on a subject for other processes.
package natsbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/voicebox/tts"
	"github.com/dgnsrekt/voicebox/tts/engines/wire"
	"github.com/nats-io/nats.go"
)

// Connect dials the configured servers.
func Connect(cfg tts.NATSConfig) (*nats.Conn, error) {
	if len(cfg.Servers) == 0 {
		return nil, errors.New("no NATS servers configured")
	}

	options := []nats.Option{
		nats.Name(cfg.Name),
		nats.Timeout(10 * time.Second),
	}
	if cfg.Token != "" {
		options = append(options, nats.Token(cfg.Token))
	}

	url := strings.Join(cfg.Servers, ",")
	conn, err := nats.Connect(url, options...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	log.Debug("Connected to NATS", "servers", url)
	return conn, nil
}

// Engine implements tts.Engine with NATS request/reply.
type Engine struct {
	conn    *nats.Conn
	subject string
	timeout time.Duration
	owned   bool
}

// New connects to NATS and returns an engine that owns the connection.
func New(cfg tts.NATSConfig) (*Engine, error) {
	conn, err := Connect(cfg)
	if err != nil {
		return nil, err
	}
	e := NewWithConn(conn, cfg.Subject, cfg.Timeout)
	e.owned = true
	return e, nil
}

// NewWithConn returns an engine using an existing connection.
func NewWithConn(conn *nats.Conn, subject string, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Engine{conn: conn, subject: subject, timeout: timeout}
}

// Name returns the engine name.
func (e *Engine) Name() string {
	return tts.EngineNATS
}

// Synthesize sends a request on the subject and waits for the reply.
func (e *Engine) Synthesize(ctx context.Context, text string) (tts.Waveform, error) {
	data, err := json.Marshal(wire.Request{ID: tts.RequestIDFrom(ctx), Text: text})
	if err != nil {
		return tts.Waveform{}, err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	msg, err := e.conn.RequestWithContext(ctx, e.subject, data)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return tts.Waveform{}, fmt.Errorf("nats request: %w", ctxErr)
		}
		return tts.Waveform{}, fmt.Errorf("nats request: %w", err)
	}
	return wire.DecodeWaveform(msg.Data)
}

// Close drains the connection if the engine owns it.
func (e *Engine) Close() error {
	if !e.owned {
		return nil
	}
	return e.conn.Drain()
}

// Serve answers synthesis requests on subject with engine until ctx is done.
// Requests are handled one at a time.
func Serve(ctx context.Context, conn *nats.Conn, subject string, engine tts.Engine) error {
	sub, err := conn.Subscribe(subject, func(msg *nats.Msg) {
		respond(ctx, msg, engine)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	log.Info("Serving synthesis requests", "subject", subject, "engine", engine.Name())

	<-ctx.Done()
	return sub.Unsubscribe()
}

func respond(ctx context.Context, msg *nats.Msg, engine tts.Engine) {
	var req wire.Request
	var resp wire.Response

	if err := json.Unmarshal(msg.Data, &req); err != nil {
		resp = wire.ErrorResponse("", fmt.Errorf("decode request: %w", err))
	} else if text := strings.TrimSpace(req.Text); text == "" {
		resp = wire.ErrorResponse(req.ID, tts.ErrEmptyText)
	} else {
		w, err := engine.Synthesize(tts.WithRequestID(ctx, req.ID), text)
		if err != nil {
			log.Error("Synthesis failed", "request", req.ID, "error", err)
			resp = wire.ErrorResponse(req.ID, err)
		} else {
			resp = wire.NewResponse(req.ID, w)
		}
	}

	data, err := json.Marshal(resp)
	if err != nil {
		log.Error("Failed to encode response", "error", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		log.Error("Failed to send response", "error", err)
	}
}
