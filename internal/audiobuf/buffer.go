// Package audiobuf accumulates raw PCM bytes and emits fixed-duration,
// overlapping sample windows suitable for streaming transcription.
package audiobuf

import (
	"fmt"
	"math"
)

// Config configures a [Buffer]. The zero value is not usable; use
// [DefaultConfig] as a starting point.
type Config struct {
	// ChunkDuration is the length, in seconds, of one emitted chunk.
	ChunkDuration float64
	// SampleRate is samples per second (e.g. 16000).
	SampleRate int
	// SampleWidth is bytes per sample (2 for 16-bit PCM).
	SampleWidth int
	// Channels is the interleaved channel count (1 for mono).
	Channels int
	// OverlapDuration is the length, in seconds, of the trailing window
	// retained in the buffer so consecutive chunks share a boundary region.
	OverlapDuration float64
}

// DefaultConfig matches the 16 kHz mono 16-bit convention described in the
// transcriber interface: 3-second chunks with 0.5s of overlap.
func DefaultConfig() Config {
	return Config{
		ChunkDuration:   3.0,
		SampleRate:      16000,
		SampleWidth:     2,
		Channels:        1,
		OverlapDuration: 0.5,
	}
}

// minDrainSeconds is the minimum amount of buffered audio [Buffer.DrainTail]
// will return; shorter fragments are considered unfit for STT and discarded.
const minDrainSeconds = 0.5

// Buffer accumulates PCM bytes appended via [Buffer.Append] and releases them
// as fixed-duration float32 sample windows. Not safe for concurrent use; one
// Buffer belongs to one stream.
type Buffer struct {
	cfg  Config
	data []byte
}

// New constructs a Buffer with the given configuration.
func New(cfg Config) *Buffer {
	return &Buffer{cfg: cfg}
}

// frameSize is the number of bytes that make up one sample across all channels.
func (b *Buffer) frameSize() int {
	return b.cfg.SampleWidth * b.cfg.Channels
}

// ChunkSizeBytes is the number of bytes required to produce one full chunk.
func (b *Buffer) ChunkSizeBytes() int {
	return int(b.cfg.ChunkDuration * float64(b.cfg.SampleRate) * float64(b.frameSize()))
}

func (b *Buffer) overlapSizeBytes() int {
	return int(b.cfg.OverlapDuration * float64(b.cfg.SampleRate) * float64(b.frameSize()))
}

// BufferedDuration reports how much audio, in seconds, is currently held.
func (b *Buffer) BufferedDuration() float64 {
	return float64(len(b.data)) / (float64(b.cfg.SampleRate) * float64(b.frameSize()))
}

// Append adds raw PCM bytes to the buffer. It never fails; malformed lengths
// only surface when samples are later extracted.
func (b *Buffer) Append(data []byte) {
	b.data = append(b.data, data...)
}

// HasFullChunk reports whether enough bytes have accumulated for one
// [TakeChunk] call.
func (b *Buffer) HasFullChunk() bool {
	return len(b.data) >= b.ChunkSizeBytes()
}

// TakeChunk removes chunkSizeBytes-overlapSizeBytes bytes from the head of
// the buffer and returns the normalized float32 samples covering the full
// chunk, including the trailing overlap region that remains buffered for the
// next call. Returns ok=false if not enough data has accumulated.
func (b *Buffer) TakeChunk() (samples []float32, ok bool, err error) {
	if !b.HasFullChunk() {
		return nil, false, nil
	}

	chunkBytes := b.ChunkSizeBytes()
	raw := make([]byte, chunkBytes)
	copy(raw, b.data[:chunkBytes])

	keepFrom := chunkBytes - b.overlapSizeBytes()
	remaining := make([]byte, len(b.data)-keepFrom)
	copy(remaining, b.data[keepFrom:])
	b.data = remaining

	samples, err = PCMToFloat32(raw)
	if err != nil {
		return nil, false, err
	}
	return samples, true, nil
}

// DrainTail flushes whatever remains in the buffer, aligned to a whole frame
// boundary, provided at least minDrainSeconds of audio is present. Returns
// ok=false (and clears nothing) if the remainder is too short to be useful.
func (b *Buffer) DrainTail() (samples []float32, ok bool, err error) {
	minBytes := int(minDrainSeconds * float64(b.cfg.SampleRate) * float64(b.frameSize()))
	if len(b.data) < minBytes {
		return nil, false, nil
	}

	frame := b.frameSize()
	usable := len(b.data) - (len(b.data) % frame)
	if usable < minBytes {
		return nil, false, nil
	}

	raw := make([]byte, usable)
	copy(raw, b.data[:usable])
	b.data = nil

	samples, err = PCMToFloat32(raw)
	if err != nil {
		return nil, false, err
	}
	return samples, true, nil
}

// Reset discards any buffered bytes.
func (b *Buffer) Reset() {
	b.data = nil
}

// PCMToFloat32 interprets raw as little-endian signed 16-bit PCM and
// normalizes each sample to the range [-1, 1]. Fails synchronously if raw is
// not a whole multiple of 2 bytes.
func PCMToFloat32(raw []byte) ([]float32, error) {
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("audiobuf: malformed PCM byte length %d is not a multiple of 2", len(raw))
	}
	out := make([]float32, len(raw)/2)
	for i := range out {
		v := int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8)
		out[i] = float32(v) / 32768.0
	}
	return out, nil
}

// RMS computes the root-mean-square energy of samples, used to gate silent
// chunks before they are sent to a transcriber.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}
