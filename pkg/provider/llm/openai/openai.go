// Package openai provides an LLM provider backed by the OpenAI API.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/recallhq/recall/internal/summarize"
	"github.com/recallhq/recall/pkg/provider/llm"
)

// Provider implements llm.Provider using the OpenAI API.
type Provider struct {
	client oai.Client
	model  string
}

// config holds optional configuration for the provider.
type config struct {
	baseURL      string
	organization string
	timeout      time.Duration
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithOrganization sets the OpenAI organization ID on all requests.
func WithOrganization(org string) Option {
	return func(c *config) {
		c.organization = org
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// New constructs a new OpenAI LLM Provider.
func New(apiKey string, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("openai: model must not be empty")
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.organization != "" {
		reqOpts = append(reqOpts, option.WithOrganization(cfg.organization))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	client := oai.NewClient(reqOpts...)
	return &Provider{client: client, model: model}, nil
}

// ModelID implements llm.Provider.
func (p *Provider) ModelID() string {
	return p.model
}

// Generate implements llm.Provider by issuing a single chat completion with
// prompt as the user message.
func (p *Provider) Generate(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	return p.complete(ctx, prompt, opts)
}

// Summarize implements llm.Provider by asking the model to produce a JSON
// object describing text; callers decode the returned string with
// internal/summarize/jsonllm.
func (p *Provider) Summarize(ctx context.Context, text string, opts llm.Options) (string, error) {
	return p.complete(ctx, text, opts)
}

// Classify implements llm.Provider by asking the model to assign text to one
// of categories. When opts.System is empty, a system prompt listing the
// categories is supplied; a caller-set System is sent unchanged.
func (p *Provider) Classify(ctx context.Context, text string, categories []string, opts llm.Options) (string, error) {
	if opts.System == "" {
		opts.System = fmt.Sprintf("Classify the input into exactly one of: %v. Respond with a JSON object with keys category, confidence, and reason.", categories)
	}
	return p.complete(ctx, text, opts)
}

// complete sends a single chat completion request with prompt as the user
// message and opts.System as the system message, if set.
func (p *Provider) complete(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	var messages []oai.ChatCompletionMessageParamUnion
	if opts.System != "" {
		messages = append(messages, oai.SystemMessage(opts.System))
	}
	messages = append(messages, oai.UserMessage(prompt))

	params := oai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: messages,
	}
	if opts.Temperature != 0 {
		params.Temperature = param.NewOpt(opts.Temperature)
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		// Connection-level failures are marked retryable so callers'
		// summarize.WithRetry loops get their second attempt; API errors
		// (auth, bad request, quota) pass through and fail fast.
		return "", fmt.Errorf("openai: chat completion: %w", summarize.WrapTransport(err))
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// Compile-time assertion that Provider implements llm.Provider.
var _ llm.Provider = (*Provider)(nil)
