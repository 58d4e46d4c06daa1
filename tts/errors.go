package tts

import (
	"errors"
	"fmt"
)

// Common errors for the synthesis session.
var (
	// Validation errors
	ErrEmptyText   = errors.New("please enter text")
	ErrTextTooLong = errors.New("text exceeds maximum length")

	// Session errors
	ErrBusy             = errors.New("a synthesis is already in progress")
	ErrEntryNotFound    = errors.New("history entry not found")
	ErrControllerClosed = errors.New("controller has been closed")

	// Engine errors
	ErrMalformedWaveform = errors.New("engine returned a malformed waveform")
	ErrEngineUnavailable = errors.New("speech engine is not available")

	// Render errors
	ErrRenderContext         = errors.New("audio output context unavailable")
	ErrInvalidBuffer         = errors.New("invalid audio buffer")
	ErrUnsupportedSampleRate = errors.New("unsupported sample rate")
)

// ErrorKind classifies a session failure.
type ErrorKind int

const (
	// KindValidation is returned for rejected input. The engine is never called.
	KindValidation ErrorKind = iota
	// KindEngine covers engine failures, transport failures and timeouts.
	KindEngine
	// KindRender covers failures of the audio output.
	KindRender
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindEngine:
		return "engine"
	case KindRender:
		return "render"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error provides detailed error information.
type Error struct {
	Kind      ErrorKind
	Component string // Component that generated the error
	Action    string // Action being performed when the error occurred
	Err       error  // The underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String() + " error"
	}
	if e.Action == "" {
		return e.Err.Error()
	}
	return e.Action + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new session error.
func NewError(kind ErrorKind, component, action string, err error) *Error {
	return &Error{
		Kind:      kind,
		Component: component,
		Action:    action,
		Err:       err,
	}
}

// ValidationError wraps err as a validation failure.
func ValidationError(err error) *Error {
	return NewError(KindValidation, "session", "validate", err)
}

// EngineError wraps err as an engine failure.
func EngineError(engine string, err error) *Error {
	return NewError(KindEngine, engine, "synthesize", err)
}

// RenderError wraps err as a render failure.
func RenderError(action string, err error) *Error {
	return NewError(KindRender, "renderer", action, err)
}

// KindOf returns the kind of err and whether err carries one.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindValidation
}

// IsEngine reports whether err is an engine failure.
func IsEngine(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindEngine
}

// IsRender reports whether err is a render failure.
func IsRender(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindRender
}

// Describe turns an error into the message shown to the user.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
