// Package mock provides a test double for the llm.Provider interface.
//
// Use Provider in unit tests to feed controlled responses to summarizers,
// the classifier, and the RAG planner without a live LLM backend.
// All fields are safe to set before calling any method; mutating them during
// a concurrent call is the caller's responsibility.
package mock

import (
	"context"
	"sync"

	"github.com/recallhq/recall/pkg/provider/llm"
)

// Call records one invocation against the mock, regardless of which method
// was used to make it.
type Call struct {
	Method     string // "Generate", "Summarize", or "Classify"
	Text       string // prompt for Generate, text for Summarize/Classify
	Categories []string
	Opts       llm.Options
}

// Provider is a mock implementation of llm.Provider. The zero value responds
// with empty strings and no error from every method; set the Response/Err
// fields to control behavior.
type Provider struct {
	mu sync.Mutex

	// Model is returned by ModelID.
	Model string

	// GenerateResponse, SummarizeResponse, ClassifyResponse are returned by
	// the respective methods when their Err counterpart is nil.
	GenerateResponse  string
	SummarizeResponse string
	ClassifyResponse  string

	GenerateErr  error
	SummarizeErr error
	ClassifyErr  error

	// Calls records every invocation across all three methods, in order.
	Calls []Call
}

func (p *Provider) Generate(_ context.Context, prompt string, opts llm.Options) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, Call{Method: "Generate", Text: prompt, Opts: opts})
	return p.GenerateResponse, p.GenerateErr
}

func (p *Provider) Summarize(_ context.Context, text string, opts llm.Options) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, Call{Method: "Summarize", Text: text, Opts: opts})
	return p.SummarizeResponse, p.SummarizeErr
}

func (p *Provider) Classify(_ context.Context, text string, categories []string, opts llm.Options) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cats := make([]string, len(categories))
	copy(cats, categories)
	p.Calls = append(p.Calls, Call{Method: "Classify", Text: text, Categories: cats, Opts: opts})
	return p.ClassifyResponse, p.ClassifyErr
}

func (p *Provider) ModelID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Model
}

// CallCount returns the number of recorded calls with the given method name
// ("Generate", "Summarize", "Classify"), or the total if method is "".
func (p *Provider) CallCount(method string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if method == "" {
		return len(p.Calls)
	}
	n := 0
	for _, c := range p.Calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

var _ llm.Provider = (*Provider)(nil)
