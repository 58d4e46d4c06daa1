package tts

import (
	"context"
	"sync"
)

// RequestStatus is the outcome of a submitted synthesis.
type RequestStatus int

const (
	RequestPending RequestStatus = iota
	RequestSucceeded
	RequestFailed
)

// String returns the status name.
func (s RequestStatus) String() string {
	switch s {
	case RequestPending:
		return "pending"
	case RequestSucceeded:
		return "succeeded"
	case RequestFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Request is the handle for one accepted synthesis.
type Request struct {
	ID   string
	Text string

	done chan struct{}

	mu        sync.Mutex
	status    RequestStatus
	entry     HistoryEntry
	err       error
	renderErr error
}

func newRequest(id, text string) *Request {
	return &Request{
		ID:   id,
		Text: text,
		done: make(chan struct{}),
	}
}

// Done is closed once the request has resolved.
func (r *Request) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the request resolves or ctx is done. A synthesis that
// succeeded but could not be played still returns its entry; the playback
// failure is available from RenderErr.
func (r *Request) Wait(ctx context.Context) (HistoryEntry, error) {
	select {
	case <-r.done:
	case <-ctx.Done():
		return HistoryEntry{}, ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entry, r.err
}

// Status returns the current outcome.
func (r *Request) Status() RequestStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Err returns the synthesis error, if any.
func (r *Request) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// RenderErr returns the playback error of a successful synthesis.
func (r *Request) RenderErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.renderErr
}

func (r *Request) succeed(entry HistoryEntry, renderErr error) {
	r.mu.Lock()
	r.status = RequestSucceeded
	r.entry = entry
	r.renderErr = renderErr
	r.mu.Unlock()
	close(r.done)
}

func (r *Request) fail(err error) {
	r.mu.Lock()
	r.status = RequestFailed
	r.err = err
	r.mu.Unlock()
	close(r.done)
}

type requestIDKey struct{}

// WithRequestID attaches a request ID to ctx for engines that forward it.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the request ID carried by ctx, if any.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
