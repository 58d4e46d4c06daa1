// Package wire defines the JSON messages exchanged with out-of-process
// speech engines.
package wire

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgnsrekt/voicebox/tts"
	"github.com/dgnsrekt/voicebox/tts/audio"
)

// Request asks an engine to synthesize text.
type Request struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Response carries a waveform, or a chunk of one, back from an engine.
// PCM is base64 encoded little-endian float32 mono.
type Response struct {
	ID         string `json:"id,omitempty"`
	SampleRate int    `json:"sample_rate"`
	PCM        string `json:"pcm_f32le"`
	Final      bool   `json:"final"`
	Error      string `json:"error,omitempty"`
}

// ErrRemote is wrapped around errors reported by the engine itself.
var ErrRemote = errors.New("engine reported an error")

// NewResponse encodes w as a single final response.
func NewResponse(id string, w tts.Waveform) Response {
	return Response{
		ID:         id,
		SampleRate: w.SampleRate,
		PCM:        base64.StdEncoding.EncodeToString(audio.EncodeFloat32LE(w.Samples)),
		Final:      true,
	}
}

// ErrorResponse reports a failure to the caller.
func ErrorResponse(id string, err error) Response {
	return Response{ID: id, Final: true, Error: err.Error()}
}

// Samples decodes the PCM payload.
func (r Response) Samples() ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(r.PCM)
	if err != nil {
		return nil, fmt.Errorf("decode pcm: %w", err)
	}
	return audio.DecodeFloat32LE(raw)
}

// Assembler joins streamed response chunks into one waveform.
type Assembler struct {
	samples    []float32
	sampleRate int
	done       bool
}

// Add appends one chunk. It returns true once the final chunk was seen.
func (a *Assembler) Add(r Response) (bool, error) {
	if a.done {
		return true, nil
	}
	if r.Error != "" {
		return false, fmt.Errorf("%w: %s", ErrRemote, r.Error)
	}
	if r.SampleRate > 0 {
		if a.sampleRate != 0 && a.sampleRate != r.SampleRate {
			return false, fmt.Errorf("sample rate changed mid-stream: %d then %d", a.sampleRate, r.SampleRate)
		}
		a.sampleRate = r.SampleRate
	}
	samples, err := r.Samples()
	if err != nil {
		return false, err
	}
	a.samples = append(a.samples, samples...)
	a.done = r.Final
	return a.done, nil
}

// AddJSON decodes and appends one chunk.
func (a *Assembler) AddJSON(data []byte) (bool, error) {
	var r Response
	if err := json.Unmarshal(data, &r); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return a.Add(r)
}

// Waveform returns the assembled waveform.
func (a *Assembler) Waveform() tts.Waveform {
	return tts.Waveform{Samples: a.samples, SampleRate: a.sampleRate}
}

// DecodeWaveform decodes a single, complete JSON response.
func DecodeWaveform(data []byte) (tts.Waveform, error) {
	var a Assembler
	if _, err := a.AddJSON(data); err != nil {
		return tts.Waveform{}, err
	}
	return a.Waveform(), nil
}
