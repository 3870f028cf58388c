package summarize

import (
	"context"
	"errors"
	"fmt"

	"github.com/recallhq/recall/internal/summarize/jsonllm"
	"github.com/recallhq/recall/pkg/provider/llm"
)

// ErrEmptyRange is returned by [RangeExtractor.Extract] when given no
// minute summaries to combine.
var ErrEmptyRange = errors.New("summarize: no summaries in range")

type rangeResponse struct {
	Summary  string   `json:"summary"`
	Keywords []string `json:"keywords"`
}

// RangeResult is the output of [RangeExtractor.Extract].
type RangeResult struct {
	SummaryText     string
	Keywords        []string
	IncludedMinutes []int
	SourceCount     int
	ModelUsed       string
}

const rangeSystemPrompt = `Combine these minute summaries from one recording into a single unified JSON object with keys "summary" and "keywords".`

// RangeExtractor re-summarizes an arbitrary inclusive minute range on
// demand, independent of the hour-bucket rollup.
type RangeExtractor struct {
	llm llm.Provider
}

// NewRangeExtractor returns a RangeExtractor backed by provider.
func NewRangeExtractor(provider llm.Provider) *RangeExtractor {
	return &RangeExtractor{llm: provider}
}

// Extract combines the given minute summaries (minuteIndex, text pairs) for
// one recording into a [RangeResult]. Fails with [ErrEmptyRange] if inputs
// is empty.
func (e *RangeExtractor) Extract(ctx context.Context, recordingID int64, inputs []MinuteInput) (RangeResult, error) {
	if len(inputs) == 0 {
		return RangeResult{}, ErrEmptyRange
	}

	var lines []string
	minutes := make([]int, 0, len(inputs))
	for _, in := range inputs {
		lines = append(lines, fmt.Sprintf("[Minute %d] %s", in.MinuteIndex, in.SummaryText))
		minutes = append(minutes, in.MinuteIndex)
	}
	joined := joinLines(lines)

	raw, err := WithRetry(ctx, func() (string, error) {
		return e.llm.Summarize(ctx, joined, llm.Options{System: rangeSystemPrompt})
	})
	if err != nil {
		return RangeResult{}, fmt.Errorf("summarize: range extract recording %d: %w", recordingID, err)
	}

	parsed, err := jsonllm.Decode[rangeResponse](raw)
	if err != nil {
		return RangeResult{}, fmt.Errorf("summarize: range extract recording %d: %w", recordingID, err)
	}

	return RangeResult{
		SummaryText:     parsed.Summary,
		Keywords:        parsed.Keywords,
		IncludedMinutes: minutes,
		SourceCount:     len(inputs),
		ModelUsed:       e.llm.ModelID(),
	}, nil
}
