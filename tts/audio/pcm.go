package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeFloat32LE copies samples into a newly allocated little-endian
// float32 buffer.
func EncodeFloat32LE(samples []float32) []byte {
	buf := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[i*BytesPerSample:], math.Float32bits(s))
	}
	return buf
}

// DecodeFloat32LE converts a little-endian float32 buffer into samples.
func DecodeFloat32LE(data []byte) ([]float32, error) {
	if len(data)%BytesPerSample != 0 {
		return nil, fmt.Errorf("PCM data length %d is not aligned to %d-byte samples", len(data), BytesPerSample)
	}
	out := make([]float32, len(data)/BytesPerSample)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*BytesPerSample:]))
	}
	return out, nil
}

// S16LEToFloat32 converts signed 16-bit little-endian PCM into float32
// samples in [-1, 1].
func S16LEToFloat32(data []byte) ([]float32, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("PCM data length %d is not aligned to 2-byte samples", len(data))
	}
	out := make([]float32, len(data)/2)
	for i := range out {
		v := int16(binary.LittleEndian.Uint16(data[i*2:]))
		out[i] = float32(v) / 32768
	}
	return out, nil
}

