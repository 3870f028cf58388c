// Package llm defines the Provider abstraction over language-model backends
// used throughout the summarization and retrieval pipeline.
//
// Unlike a chat-style SDK, this interface models exactly the three
// operations the pipeline needs: free-form generation, structured
// summarization, and structured classification. Every method returns plain
// text; callers that expect JSON are responsible for stripping code fences
// and decoding it (see package jsonllm).
//
// Implementations should pass errors leaving their HTTP client through
// summarize.WrapTransport so that connection-level failures are marked
// retryable for the callers' summarize.WithRetry loops, while API errors
// fail fast.
//
// Implementations must be safe for concurrent use.
package llm

import "context"

// Options carries per-call tuning shared by all three operations.
type Options struct {
	// System is an optional high-priority instruction injected ahead of the
	// rest of the prompt. Providers that lack a dedicated system-role field
	// should prepend it to the user content instead.
	System string

	// Temperature controls output randomness. Zero means "use the provider
	// default", which for summarization/classification calls is usually low.
	Temperature float64
}

// Provider is the abstraction over any LLM backend used by the summarizers,
// the classifier, and the RAG planner.
type Provider interface {
	// Generate sends prompt to the model and returns the raw completion
	// text. Used by the RAG planner for grounded answer generation.
	Generate(ctx context.Context, prompt string, opts Options) (string, error)

	// Summarize asks the model to produce a JSON object with keys summary,
	// keywords, and topic for the given text. The returned string may be
	// wrapped in markdown code fences; callers strip them before decoding.
	Summarize(ctx context.Context, text string, opts Options) (string, error)

	// Classify asks the model to assign text to one of categories and
	// returns a JSON object with keys category and confidence (and any
	// provider-specific extras). The returned string may be fenced.
	Classify(ctx context.Context, text string, categories []string, opts Options) (string, error)

	// ModelID returns the identifier of the underlying model, surfaced in
	// persisted ModelUsed fields and RAG responses.
	ModelID() string
}
