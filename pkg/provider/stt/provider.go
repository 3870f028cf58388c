// Package stt defines the Provider interface for Speech-to-Text backends.
//
// A Provider either transcribes a complete audio file in one shot via
// Transcribe, or drives a live PCM stream via TranscribeStream and emits one
// StreamResult per non-silent window as audio arrives. Two backends are
// wired: pkg/provider/stt/whisper (offline, whisper.cpp) and
// pkg/provider/stt/deepgram (hosted).
//
// Implementations must be safe for concurrent use.
package stt

import (
	"context"
	"errors"
)

// ErrNotSupported is returned by provider operations a given backend does not
// implement (e.g. per-word timestamps, language auto-detection).
var ErrNotSupported = errors.New("stt: operation not supported by this provider")

// Provider is the abstraction over any STT backend.
type Provider interface {
	// Transcribe runs a complete, non-streaming transcription of the audio
	// file at path and returns the full result. path must name a file the
	// provider can read directly (a WAV container, for the bundled
	// backends).
	Transcribe(ctx context.Context, path string) (Result, error)

	// TranscribeStream consumes raw little-endian signed 16-bit PCM chunks
	// from audio and returns a channel of StreamResult values, closing it
	// once audio is closed and any buffered audio has been flushed, or ctx
	// is cancelled.
	TranscribeStream(ctx context.Context, audio <-chan []byte) (<-chan StreamResult, error)
}
