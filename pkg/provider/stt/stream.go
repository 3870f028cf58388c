package stt

import (
	"context"
	"log/slog"

	"github.com/recallhq/recall/internal/audiobuf"
)

// SilenceThreshold is the default RMS energy, over normalized float32
// samples in [-1, 1], below which a window is treated as silence and
// dropped before it reaches a provider's inference step.
const SilenceThreshold = 0.01

// InferFunc runs inference over one window of normalized float32 samples and
// returns the recognized text, or an empty string if nothing was said.
type InferFunc func(ctx context.Context, samples []float32) (string, error)

// DriveStream accumulates raw PCM chunks from audio into cfg-sized windows,
// skips windows whose RMS energy falls below threshold, and calls infer on
// every remaining window, emitting one StreamResult per call. Batch
// (non-streaming) backends such as whisper.cpp use this to offer the same
// TranscribeStream contract a natively streaming provider offers directly.
// A single goroutine owns the buffer; context cancellation or closing audio
// drives shutdown, flushing whatever remains buffered before the output
// channel closes.
func DriveStream(ctx context.Context, audio <-chan []byte, cfg audiobuf.Config, threshold float64, infer InferFunc) <-chan StreamResult {
	out := make(chan StreamResult, 16)

	go func() {
		defer close(out)
		buf := audiobuf.New(cfg)

		emit := func(samples []float32) {
			if audiobuf.RMS(samples) < threshold {
				return
			}
			text, err := infer(ctx, samples)
			if err != nil {
				slog.Error("stt: streaming inference failed", "error", err)
				return
			}
			if text == "" {
				return
			}
			select {
			case out <- StreamResult{Text: text, IsFinal: true}:
			case <-ctx.Done():
			}
		}

		flushTail := func() {
			if samples, ok, err := buf.DrainTail(); err != nil {
				slog.Error("stt: drain tail failed", "error", err)
			} else if ok {
				emit(samples)
			}
		}

		for {
			select {
			case <-ctx.Done():
				flushTail()
				return

			case chunk, ok := <-audio:
				if !ok {
					flushTail()
					return
				}
				buf.Append(chunk)
				for buf.HasFullChunk() {
					samples, ok, err := buf.TakeChunk()
					if err != nil {
						slog.Error("stt: malformed PCM in stream", "error", err)
						break
					}
					if ok {
						emit(samples)
					}
				}
			}
		}
	}()

	return out
}
