// Package tts implements the voice synthesis session: it accepts text,
// dispatches it to a speech engine, renders the returned waveform and keeps
// a short history of past syntheses for replay.
package tts

import (
	"math"
	"time"
)

// DefaultHistoryCapacity is the number of syntheses kept for replay.
const DefaultHistoryCapacity = 5

// Waveform is a mono PCM buffer produced by a speech engine.
// Samples are float32 in the range [-1, 1]. A Waveform is never mutated once
// it has been produced.
type Waveform struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the playback length of the waveform.
func (w Waveform) Duration() time.Duration {
	if w.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(w.Samples)) * time.Second / time.Duration(w.SampleRate)
}

// Valid reports whether the waveform can be rendered: a positive rate, at
// least one sample and no NaN or infinite samples.
func (w Waveform) Valid() bool {
	if w.SampleRate <= 0 || len(w.Samples) == 0 {
		return false
	}
	for _, s := range w.Samples {
		if math.IsNaN(float64(s)) || math.IsInf(float64(s), 0) {
			return false
		}
	}
	return true
}

// HistoryEntry records one successful synthesis.
type HistoryEntry struct {
	ID        uint64
	Text      string
	Waveform  Waveform
	CreatedAt time.Time
}

// Status is the user-facing status message of a session.
type Status string

const (
	StatusIdle        Status = ""
	StatusDispatching Status = "dispatching"
	StatusPlayed      Status = "played"
	StatusFailed      Status = "failed"
	StatusReplaying   Status = "replaying"
)

// String returns a printable status.
func (s Status) String() string {
	if s == StatusIdle {
		return "idle"
	}
	return string(s)
}

// RequestInfo identifies the synthesis currently in flight.
type RequestInfo struct {
	ID   string
	Text string
}

// State is a point-in-time snapshot of a session, suitable for rendering.
type State struct {
	Busy      bool
	LastError string
	Status    Status
	History   []HistoryEntry
	InFlight  *RequestInfo
}
