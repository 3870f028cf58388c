// Package deepgram provides a hosted STT provider backed by Deepgram's REST
// and WebSocket APIs. It implements the stt.Provider interface.
//
// Transcribe uses the prerecorded REST endpoint; TranscribeStream opens a
// single streaming WebSocket connection for the lifetime of the call and
// relays Deepgram's interim/final events as stt.StreamResult values.
package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/coder/websocket"

	"github.com/recallhq/recall/pkg/provider/stt"
)

const (
	listenEndpoint    = "https://api.deepgram.com/v1/listen"
	streamEndpoint    = "wss://api.deepgram.com/v1/listen"
	defaultModel      = "nova-3"
	defaultLanguage   = "en"
	defaultSampleRate = 16000
)

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithModel sets the Deepgram model to use (e.g., "nova-3", "base").
func WithModel(model string) Option {
	return func(p *Provider) { p.model = model }
}

// WithLanguage sets the BCP-47 language code for recognition (e.g., "en", "de-DE").
func WithLanguage(language string) Option {
	return func(p *Provider) { p.language = language }
}

// WithSampleRate sets the audio sample rate in Hz that TranscribeStream
// expects incoming PCM chunks to use. Defaults to 16000.
func WithSampleRate(rate int) Option {
	return func(p *Provider) { p.sampleRate = rate }
}

// Provider implements stt.Provider backed by the Deepgram API.
type Provider struct {
	apiKey     string
	model      string
	language   string
	sampleRate int
	httpClient *http.Client
}

// Compile-time assertion that Provider implements stt.Provider.
var _ stt.Provider = (*Provider)(nil)

// New creates a new Deepgram Provider. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("deepgram: apiKey must not be empty")
	}
	p := &Provider{
		apiKey:     apiKey,
		model:      defaultModel,
		language:   defaultLanguage,
		sampleRate: defaultSampleRate,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// deepgramResponse mirrors the JSON shape Deepgram returns from both the
// prerecorded REST endpoint and streaming Results events.
type deepgramResponse struct {
	Type    string          `json:"type"`
	IsFinal bool            `json:"is_final"`
	Channel deepgramChannel `json:"channel"`
	Results struct {
		Channels []deepgramChannel `json:"channels"`
	} `json:"results"`
}

type deepgramChannel struct {
	Alternatives []struct {
		Transcript string  `json:"transcript"`
		Confidence float64 `json:"confidence"`
		Words      []struct {
			Word       string  `json:"word"`
			Start      float64 `json:"start"`
			End        float64 `json:"end"`
			Confidence float64 `json:"confidence"`
		} `json:"words"`
	} `json:"alternatives"`
}

// bestTranscript extracts the top alternative's text, confidence, and
// per-word timing from a channel. Returns a zero result if there is no
// alternative to report.
func (c deepgramChannel) bestTranscript() (text string, confidence float64, segments []stt.Segment) {
	if len(c.Alternatives) == 0 {
		return "", 0, nil
	}
	alt := c.Alternatives[0]
	segs := make([]stt.Segment, 0, len(alt.Words))
	for _, w := range alt.Words {
		segs = append(segs, stt.Segment{
			Text:  w.Word,
			Start: time.Duration(w.Start * float64(time.Second)),
			End:   time.Duration(w.End * float64(time.Second)),
		})
	}
	return alt.Transcript, alt.Confidence, segs
}

// Transcribe posts path's contents to Deepgram's prerecorded endpoint and
// waits for the complete transcription.
func (p *Provider) Transcribe(ctx context.Context, path string) (stt.Result, error) {
	u, err := p.listenURL()
	if err != nil {
		return stt.Result{}, fmt.Errorf("deepgram: build URL: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return stt.Result{}, fmt.Errorf("deepgram: open %q: %w", path, err)
	}
	defer f.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, f)
	if err != nil {
		return stt.Result{}, fmt.Errorf("deepgram: build request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+p.apiKey)
	req.Header.Set("Content-Type", "audio/wav")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return stt.Result{}, fmt.Errorf("deepgram: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return stt.Result{}, fmt.Errorf("deepgram: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return stt.Result{}, fmt.Errorf("deepgram: API error %d: %s", resp.StatusCode, body)
	}

	var dr deepgramResponse
	if err := json.Unmarshal(body, &dr); err != nil {
		return stt.Result{}, fmt.Errorf("deepgram: decode response: %w", err)
	}
	if len(dr.Results.Channels) == 0 {
		return stt.Result{}, nil
	}
	text, confidence, segments := dr.Results.Channels[0].bestTranscript()

	return stt.Result{
		Text:       text,
		Language:   p.language,
		Confidence: confidence,
		Segments:   segments,
	}, nil
}

func (p *Provider) listenURL() (string, error) {
	u, err := url.Parse(listenEndpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("model", p.model)
	q.Set("language", p.language)
	q.Set("punctuate", "true")
	q.Set("smart_format", "true")
	q.Set("sample_rate", strconv.Itoa(p.sampleRate))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// TranscribeStream opens a Deepgram streaming WebSocket connection for the
// lifetime of the call, relaying audio chunks from audio and decoding
// Results events into stt.StreamResult values until audio is closed or ctx
// is cancelled.
func (p *Provider) TranscribeStream(ctx context.Context, audio <-chan []byte) (<-chan stt.StreamResult, error) {
	wsURL, err := p.streamURL()
	if err != nil {
		return nil, fmt.Errorf("deepgram: build stream URL: %w", err)
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+p.apiKey)

	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{HTTPHeader: headers})
	if err != nil {
		return nil, fmt.Errorf("deepgram: dial: %w", err)
	}

	out := make(chan stt.StreamResult, 16)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for {
			select {
			case chunk, ok := <-audio:
				if !ok {
					_ = conn.Write(context.Background(), websocket.MessageText, []byte(`{"type":"CloseStream"}`))
					return
				}
				if err := conn.Write(ctx, websocket.MessageBinary, chunk); err != nil {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		defer close(out)
		defer conn.Close(websocket.StatusNormalClosure, "session closed")
		for {
			_, msg, err := conn.Read(ctx)
			if err != nil {
				<-writerDone
				return
			}
			var dr deepgramResponse
			if err := json.Unmarshal(msg, &dr); err != nil || dr.Type != "Results" {
				continue
			}
			text, confidence, segments := dr.Channel.bestTranscript()
			if text == "" {
				continue
			}
			select {
			case out <- stt.StreamResult{Text: text, IsFinal: dr.IsFinal, Confidence: confidence, Segments: segments}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (p *Provider) streamURL() (string, error) {
	u, err := url.Parse(streamEndpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("model", p.model)
	q.Set("language", p.language)
	q.Set("punctuate", "true")
	q.Set("interim_results", "true")
	q.Set("sample_rate", strconv.Itoa(p.sampleRate))
	q.Set("channels", "1")
	u.RawQuery = q.Encode()
	return u.String(), nil
}
