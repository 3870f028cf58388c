// Package mock provides a test double for stt.Provider.
package mock

import (
	"context"
	"sync"

	"github.com/recallhq/recall/pkg/provider/stt"
)

// TranscribeCall records a single invocation of Provider.Transcribe.
type TranscribeCall struct {
	Ctx  context.Context
	Path string
}

// Provider is a mock implementation of stt.Provider. Both methods are
// configured with a single canned response/error; callers that need
// per-call variation should wrap Provider in their own test-local adapter.
type Provider struct {
	mu sync.Mutex

	// TranscribeResult is returned by every Transcribe call.
	TranscribeResult stt.Result
	// TranscribeErr, if non-nil, is returned instead of TranscribeResult.
	TranscribeErr error
	// TranscribeCalls records every call to Transcribe.
	TranscribeCalls []TranscribeCall

	// StreamResults is sent, in order, to the channel returned by
	// TranscribeStream once it is constructed; the channel is closed once
	// all values have been sent and the input channel is drained/closed.
	StreamResults []stt.StreamResult
	// TranscribeStreamErr, if non-nil, is returned instead of opening a stream.
	TranscribeStreamErr error
}

// Compile-time assertion that Provider implements stt.Provider.
var _ stt.Provider = (*Provider)(nil)

// Transcribe records the call and returns TranscribeResult, TranscribeErr.
func (p *Provider) Transcribe(ctx context.Context, path string) (stt.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.TranscribeCalls = append(p.TranscribeCalls, TranscribeCall{Ctx: ctx, Path: path})
	if p.TranscribeErr != nil {
		return stt.Result{}, p.TranscribeErr
	}
	return p.TranscribeResult, nil
}

// TranscribeStream emits StreamResults on the returned channel, then drains
// audio (discarding its contents) until it closes or ctx is cancelled.
func (p *Provider) TranscribeStream(ctx context.Context, audio <-chan []byte) (<-chan stt.StreamResult, error) {
	if p.TranscribeStreamErr != nil {
		return nil, p.TranscribeStreamErr
	}

	out := make(chan stt.StreamResult, len(p.StreamResults)+1)
	go func() {
		defer close(out)
		for _, r := range p.StreamResults {
			select {
			case out <- r:
			case <-ctx.Done():
				return
			}
		}
		for {
			select {
			case _, ok := <-audio:
				if !ok {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.TranscribeCalls = nil
}
