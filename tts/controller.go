package tts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// DefaultSynthesisTimeout bounds a single engine call.
const DefaultSynthesisTimeout = 60 * time.Second

// ControllerConfig holds configuration for the session controller.
type ControllerConfig struct {
	HistoryCapacity  int           // Entries kept for replay
	SynthesisTimeout time.Duration // Zero waits for the engine indefinitely
	MaxTextLength    int           // Runes; zero disables the check

	Logger  *log.Logger
	Metrics *Metrics
	Now     func() time.Time
}

// DefaultControllerConfig returns a sensible default configuration.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		HistoryCapacity:  DefaultHistoryCapacity,
		SynthesisTimeout: DefaultSynthesisTimeout,
		MaxTextLength:    DefaultMaxTextLength,
	}
}

// Controller owns a synthesis session: at most one engine call in flight,
// a bounded history and the status shown to the user.
type Controller struct {
	// Core components
	engine   Engine
	renderer Renderer
	history  *History

	config ControllerConfig
	logger *log.Logger

	// State management
	mu        sync.Mutex
	busy      bool
	lastError string
	status    Status
	inFlight  *RequestInfo
	nextID    uint64
	seq       uint64 // bumped on every status change
	closed    bool

	changes chan struct{}

	// Context for cancellation
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewController creates a session controller for the given engine and renderer.
func NewController(engine Engine, renderer Renderer, config ControllerConfig) *Controller {
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Controller{
		engine:   engine,
		renderer: renderer,
		history:  NewHistory(config.HistoryCapacity),
		config:   config,
		logger:   config.Logger.WithPrefix("session"),
		changes:  make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Submit validates text and, unless a synthesis is already running, starts
// one in the background. Blank or oversized text is rejected with a
// validation error and leaves the session untouched. A submission while busy
// returns ErrBusy and changes nothing.
func (c *Controller) Submit(ctx context.Context, text string) (*Request, error) {
	prepared, err := PrepareText(text, c.config.MaxTextLength)
	if err != nil {
		c.logger.Debug("Rejected submission", "error", err)
		return nil, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrControllerClosed
	}
	if c.busy {
		c.mu.Unlock()
		return nil, ErrBusy
	}

	req := newRequest(uuid.NewString(), prepared)
	c.busy = true
	c.lastError = ""
	c.setStatus(StatusDispatching)
	c.inFlight = &RequestInfo{ID: req.ID, Text: req.Text}
	c.wg.Add(1)
	c.mu.Unlock()

	c.notify()

	// The dispatch outlives the caller's context but stops when either the
	// caller or the controller cancels.
	dctx, cancel := context.WithCancel(c.ctx)
	stop := context.AfterFunc(ctx, cancel)
	go func() {
		defer cancel()
		defer stop()
		c.dispatch(dctx, req)
	}()

	return req, nil
}

// dispatch runs one engine call and applies its outcome.
func (c *Controller) dispatch(ctx context.Context, req *Request) {
	defer c.wg.Done()

	if c.config.SynthesisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.SynthesisTimeout)
		defer cancel()
	}

	ctx = WithRequestID(ctx, req.ID)

	name := c.engine.Name()
	logger := c.logger.With("engine", name, "request", req.ID)
	logger.Debug("Synthesis started", "length", len(req.Text))

	start := c.config.Now()
	w, err := c.engine.Synthesize(ctx, req.Text)
	if err == nil && !w.Valid() {
		err = fmt.Errorf("%w: %d samples at %d Hz", ErrMalformedWaveform, len(w.Samples), w.SampleRate)
	}
	elapsed := c.config.Now().Sub(start)
	c.config.Metrics.ObserveSynthesis(name, elapsed, err)

	if err != nil {
		var serr *Error
		if !errors.As(err, &serr) {
			err = EngineError(name, err)
		}
		logger.Error("Synthesis failed", "error", err, "elapsed", elapsed)

		c.mu.Lock()
		c.lastError = Describe(err)
		c.setStatus(StatusFailed)
		c.finish()
		c.mu.Unlock()

		c.notify()
		req.fail(err)
		return
	}

	logger.Debug("Synthesis completed",
		"samples", len(w.Samples),
		"sample_rate", w.SampleRate,
		"elapsed", elapsed)

	c.mu.Lock()
	c.nextID++
	entry := HistoryEntry{
		ID:        c.nextID,
		Text:      req.Text,
		Waveform:  w,
		CreatedAt: c.config.Now(),
	}
	if evicted, ok := c.history.InsertFront(entry); ok {
		c.config.Metrics.ObserveEviction()
		logger.Debug("Evicted history entry", "id", evicted.ID)
	}
	c.mu.Unlock()

	// Still busy here, so no replay or submission can interleave.
	renderErr := c.renderer.Play(w)
	c.config.Metrics.ObservePlayback("synthesis", renderErr)

	c.mu.Lock()
	if renderErr != nil {
		logger.Error("Playback failed", "error", renderErr)
		c.lastError = Describe(renderErr)
		c.setStatus(StatusFailed)
	} else {
		c.setStatus(StatusPlayed)
	}
	c.finish()
	c.mu.Unlock()

	c.notify()
	req.succeed(entry, renderErr)
}

// finish clears the in-flight state. Caller must hold the lock.
func (c *Controller) finish() {
	c.busy = false
	c.inFlight = nil
}

// Replay plays a stored entry again without touching the history order.
// It is refused with ErrBusy while a synthesis is in flight.
func (c *Controller) Replay(id uint64) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrControllerClosed
	}
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	entry, ok := c.history.Get(id)
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrEntryNotFound, id)
	}
	c.lastError = ""
	c.setStatus(StatusReplaying)
	seq := c.seq
	c.mu.Unlock()

	c.notify()
	c.logger.Debug("Replaying entry", "id", id, "text", Preview(entry.Text, 30))

	err := c.renderer.Play(entry.Waveform)
	c.config.Metrics.ObservePlayback("replay", err)

	c.mu.Lock()
	// A submission that started meanwhile owns the status line.
	if c.seq == seq {
		if err != nil {
			c.lastError = Describe(err)
			c.setStatus(StatusFailed)
		} else {
			c.setStatus(StatusPlayed)
		}
	}
	c.mu.Unlock()

	c.notify()

	if err != nil {
		c.logger.Error("Replay failed", "id", id, "error", err)
	}
	return err
}

// setStatus updates the status. Caller must hold the lock.
func (c *Controller) setStatus(s Status) {
	c.status = s
	c.seq++
}

// State returns a snapshot of the session.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := State{
		Busy:      c.busy,
		LastError: c.lastError,
		Status:    c.status,
		History:   c.history.List(),
	}
	if c.inFlight != nil {
		info := *c.inFlight
		st.InFlight = &info
	}
	return st
}

// History returns the stored entries, newest first.
func (c *Controller) History() []HistoryEntry {
	return c.history.List()
}

// HistoryStats returns history statistics.
func (c *Controller) HistoryStats() HistoryStats {
	return c.history.Stats()
}

// Busy reports whether a synthesis is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Changes delivers a value after every state change. Notifications are
// coalesced: a slow reader sees at least one value after the latest change.
func (c *Controller) Changes() <-chan struct{} {
	return c.changes
}

func (c *Controller) notify() {
	select {
	case c.changes <- struct{}{}:
	default:
	}
}

// Close cancels any in-flight synthesis and waits for it to settle.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()

	if closer, ok := c.engine.(Closer); ok {
		return closer.Close()
	}
	return nil
}
