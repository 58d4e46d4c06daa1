// Package httpapi reaches a speech synthesizer over HTTP.
//
// The engine POSTs a wire.Request as JSON to {base_url}/synthesize and
// expects a wire.Response in return.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/voicebox/tts"
	"github.com/dgnsrekt/voicebox/tts/engines/wire"
	"golang.org/x/time/rate"
)

const (
	synthesizePath = "/synthesize"

	// maxResponseSize bounds the response body.
	maxResponseSize = 64 << 20

	// maxErrorBody bounds the body quoted in error messages.
	maxErrorBody = 512
)

// Engine implements tts.Engine over HTTP.
type Engine struct {
	endpoint string
	token    string
	client   *http.Client
	limiter  *rate.Limiter
}

// New creates an HTTP engine from configuration.
func New(cfg tts.HTTPConfig) (*Engine, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		return nil, fmt.Errorf("http engine: base_url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	// A zero rate disables client-side limiting.
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}

	return &Engine{
		endpoint: base + synthesizePath,
		token:    cfg.Token,
		client:   &http.Client{Timeout: timeout},
		limiter:  limiter,
	}, nil
}

// Name returns the engine name.
func (e *Engine) Name() string {
	return tts.EngineHTTP
}

// Synthesize sends text to the remote synthesizer.
func (e *Engine) Synthesize(ctx context.Context, text string) (tts.Waveform, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return tts.Waveform{}, fmt.Errorf("rate limit: %w", err)
	}

	body, err := json.Marshal(wire.Request{ID: tts.RequestIDFrom(ctx), Text: text})
	if err != nil {
		return tts.Waveform{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return tts.Waveform{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	log.Debug("Sending synthesis request", "endpoint", e.endpoint, "length", len(text))

	resp, err := e.client.Do(req)
	if err != nil {
		return tts.Waveform{}, fmt.Errorf("synthesis request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return tts.Waveform{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(data))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody] + "..."
		}
		return tts.Waveform{}, fmt.Errorf("HTTP status %d: %s", resp.StatusCode, msg)
	}

	return wire.DecodeWaveform(data)
}
