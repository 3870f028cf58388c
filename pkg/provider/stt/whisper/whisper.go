// Package whisper provides an offline STT provider backed by the whisper.cpp
// CGO bindings. The whisper.cpp static library (libwhisper.a) and headers
// (whisper.h) must be available at link time via LIBRARY_PATH and
// C_INCLUDE_PATH.
//
// Because whisper.cpp is a batch (non-streaming) transcription engine,
// TranscribeStream is built on top of [stt.DriveStream]: incoming PCM is
// accumulated into fixed windows by an internal/audiobuf.Buffer, silent
// windows are skipped, and each remaining window is run through a fresh
// whisper.cpp context.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/go-audio/wav"

	"github.com/recallhq/recall/internal/audiobuf"
	"github.com/recallhq/recall/pkg/provider/stt"
)

// Compile-time assertion that Provider satisfies stt.Provider.
var _ stt.Provider = (*Provider)(nil)

// Provider implements stt.Provider using whisper.cpp's Go bindings. The
// model is loaded once and shared across all concurrent Transcribe and
// TranscribeStream calls; each call creates its own whisper.cpp context,
// which is not itself safe for concurrent use.
type Provider struct {
	model    whisperlib.Model
	language string

	sampleRate          int
	silenceThresholdMs  int
	maxBufferDurationMs int
}

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithLanguage sets the BCP-47 language code for transcription (e.g., "en",
// "de", "fr"). Defaults to "en".
func WithLanguage(lang string) Option {
	return func(p *Provider) { p.language = lang }
}

// WithSampleRate sets the audio sample rate in Hz that TranscribeStream
// expects incoming PCM chunks to use. Defaults to 16000.
func WithSampleRate(rate int) Option {
	return func(p *Provider) { p.sampleRate = rate }
}

// WithSilenceThresholdMs sets the consecutive-silence duration, in
// milliseconds, that [audiobuf.Buffer]'s overlap window is sized against.
// Defaults to 500ms.
func WithSilenceThresholdMs(ms int) Option {
	return func(p *Provider) { p.silenceThresholdMs = ms }
}

// WithMaxBufferDurationMs sets the window size, in milliseconds, used for
// TranscribeStream's audiobuf.Buffer. Defaults to 10 000ms (10s).
func WithMaxBufferDurationMs(ms int) Option {
	return func(p *Provider) { p.maxBufferDurationMs = ms }
}

const (
	defaultLanguage            = "en"
	defaultSampleRate          = 16000
	defaultSilenceThresholdMs  = 500
	defaultMaxBufferDurationMs = 10_000
)

// New loads the whisper.cpp model from modelPath. The caller must call Close
// when the provider is no longer needed.
func New(modelPath string, opts ...Option) (*Provider, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: modelPath must not be empty")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", modelPath, err)
	}

	p := &Provider{
		model:               model,
		language:            defaultLanguage,
		sampleRate:          defaultSampleRate,
		silenceThresholdMs:  defaultSilenceThresholdMs,
		maxBufferDurationMs: defaultMaxBufferDurationMs,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Close releases the whisper model. Must be called when the provider is no
// longer needed.
func (p *Provider) Close() error {
	if p.model != nil {
		return p.model.Close()
	}
	return nil
}

// Transcribe decodes the WAV file at path, down-mixes it to mono if needed,
// and runs a single whisper.cpp inference pass over the whole file.
func (p *Provider) Transcribe(ctx context.Context, path string) (stt.Result, error) {
	if err := ctx.Err(); err != nil {
		return stt.Result{}, fmt.Errorf("whisper: context already cancelled: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return stt.Result{}, fmt.Errorf("whisper: open %q: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return stt.Result{}, fmt.Errorf("whisper: decode WAV %q: %w", path, err)
	}

	channels := buf.Format.NumChannels
	pcm := make([]byte, len(buf.Data)*2)
	for i, s := range buf.Data {
		v := int16(s)
		pcm[2*i] = byte(v)
		pcm[2*i+1] = byte(v >> 8)
	}
	samples := pcmToFloat32Mono(pcm, channels)

	text, segments, err := p.infer(samples)
	if err != nil {
		return stt.Result{}, err
	}

	return stt.Result{
		Text:     text,
		Language: p.language,
		Duration: time.Duration(float64(len(samples)) / float64(buf.Format.SampleRate) * float64(time.Second)),
		Segments: segments,
	}, nil
}

// TranscribeStream drives an internal/audiobuf.Buffer over audio and runs
// inference on every window whose RMS energy clears [stt.SilenceThreshold].
func (p *Provider) TranscribeStream(ctx context.Context, audio <-chan []byte) (<-chan stt.StreamResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("whisper: context already cancelled: %w", err)
	}

	cfg := audiobuf.Config{
		ChunkDuration:   float64(p.maxBufferDurationMs) / 1000.0,
		SampleRate:      p.sampleRate,
		SampleWidth:     2,
		Channels:        1,
		OverlapDuration: float64(p.silenceThresholdMs) / 1000.0,
	}

	infer := func(_ context.Context, samples []float32) (string, error) {
		text, _, err := p.infer(samples)
		return text, err
	}

	return stt.DriveStream(ctx, audio, cfg, stt.SilenceThreshold, infer), nil
}

// infer creates a fresh whisper.cpp context and runs inference over samples,
// returning the concatenated text and per-segment timing.
func (p *Provider) infer(samples []float32) (string, []stt.Segment, error) {
	wctx, err := p.model.NewContext()
	if err != nil {
		return "", nil, fmt.Errorf("whisper: create context: %w", err)
	}
	if err := wctx.SetLanguage(p.language); err != nil {
		return "", nil, fmt.Errorf("whisper: set language %q: %w", p.language, err)
	}
	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", nil, fmt.Errorf("whisper: process audio: %w", err)
	}

	var (
		parts    []string
		segments []stt.Segment
	)
	for {
		seg, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("whisper: read segment: %w", err)
		}
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
		segments = append(segments, stt.Segment{Text: text, Start: seg.Start, End: seg.End})
	}

	return strings.Join(parts, " "), segments, nil
}
