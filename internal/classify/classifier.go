// Package classify implements the zero-shot content classifier and the
// template matcher that together route a finished recording to a
// category and an output template.
package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/recallhq/recall/internal/summarize"
	"github.com/recallhq/recall/internal/summarize/jsonllm"
	"github.com/recallhq/recall/pkg/provider/llm"
)

// ErrClassificationFailed wraps any LM or JSON-decode failure from
// [Classifier.Classify].
var ErrClassificationFailed = errors.New("classify: classification failed")

// DefaultCategories is the category set used when the caller does not
// supply its own.
var DefaultCategories = []string{"lecture", "meeting", "conversation", "memo"}

// emptyInputCategory is the category assigned to empty input without
// invoking the LM.
const emptyInputCategory = "memo"

const classifySystemPrompt = `You are a recording content classifier.
Given a summary of a recording, classify it into one of the provided categories.
Output only JSON with keys "category", "confidence", and "reason".
"category" must be one of the provided category labels, exactly. "confidence" is a
float between 0.0 and 1.0. "reason" is a one-sentence explanation.`

type classifyResponse struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Result is the output of [Classifier.Classify].
type Result struct {
	Category   string
	Confidence float64
	Reason     string
}

// Classifier assigns a category label and confidence to a block of text
// using one LM call, with defensive validation of the LM's JSON output.
type Classifier struct {
	llm llm.Provider
}

// NewClassifier returns a Classifier backed by provider.
func NewClassifier(provider llm.Provider) *Classifier {
	return &Classifier{llm: provider}
}

// Classify assigns text to one of categories (or [DefaultCategories] if nil).
// Empty or whitespace-only text short-circuits to a {memo, 0.0, ...} result
// without invoking the LM.
func (c *Classifier) Classify(ctx context.Context, text string, categories []string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{
			Category:   emptyInputCategory,
			Confidence: 0,
			Reason:     "Empty input text; defaulting to memo.",
		}, nil
	}

	cats := categories
	if len(cats) == 0 {
		cats = DefaultCategories
	}

	raw, err := summarize.WithRetry(ctx, func() (string, error) {
		return c.llm.Classify(ctx, text, cats, llm.Options{System: classifySystemPrompt})
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrClassificationFailed, err)
	}

	parsed, err := jsonllm.Decode[classifyResponse](raw)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrClassificationFailed, err)
	}

	category := parsed.Category
	if !contains(cats, category) {
		slog.Warn("classifier: LM returned unknown category, falling back to memo",
			"category", category)
		category = emptyInputCategory
	}

	return Result{
		Category:   category,
		Confidence: jsonllm.ClampConfidence(parsed.Confidence),
		Reason:     parsed.Reason,
	}, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
