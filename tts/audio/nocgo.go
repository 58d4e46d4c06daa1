//go:build nocgo
// +build nocgo

package audio

import (
	"errors"
	"time"
)

// Stub implementations for builds without CGO.

var errNoCgo = errors.New("audio output not available in nocgo build")

// NewOtoContext is unavailable without CGO.
func NewOtoContext(sampleRate int, bufferSize time.Duration) (Context, error) {
	return nil, errNoCgo
}

// NewMalgoContext is unavailable without CGO.
func NewMalgoContext() (Context, error) {
	return nil, errNoCgo
}
