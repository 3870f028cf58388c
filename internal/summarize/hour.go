package summarize

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/semaphore"

	"github.com/recallhq/recall/internal/recording"
	"github.com/recallhq/recall/internal/summarize/jsonllm"
	"github.com/recallhq/recall/pkg/provider/llm"
)

// level1FanoutWidth bounds the number of in-flight Level-1 LM calls. Pinned
// at 3 per the hour summarizer's fan-out contract; not configurable.
const level1FanoutWidth = 3

// chunkSize is the maximum number of minute inputs folded into one Level-1
// chunk before the Level-2 reduce call.
const chunkSize = 10

// MinuteInput is one minute summary fed into the hour summarizer, carrying
// the minute's index within the recording (Summary.MinuteIndex).
type MinuteInput struct {
	MinuteIndex int
	SummaryText string
}

type level1Response struct {
	Summary  string   `json:"summary"`
	Keywords []string `json:"keywords"`
	Topics   []string `json:"topics"`
}

type level2Response struct {
	Summary       string                       `json:"summary"`
	Keywords      []string                     `json:"keywords"`
	TopicSegments []recording.TopicSegment     `json:"topic_segments"`
}

// HourResult is the output of [HourSummarizer.Summarize].
type HourResult struct {
	SummaryText   string
	Keywords      []string
	TopicSegments []recording.TopicSegment
	TokenCount    int
	ModelUsed     string
}

const level1SystemPrompt = `Summarize this 10-minute window of a recording into JSON with keys "summary", "keywords", "topics". Be concise.`

const level2SystemPrompt = `Combine these windowed summaries of one hour of a recording into a single JSON object with keys "summary", "keywords", and "topic_segments" (a list of {"topic", "minutes"} objects, where "minutes" lists the minute indices each topic covers).`

// HourSummarizer performs the two-level map-reduce hour rollup over a
// hour-bucket's worth of minute summaries.
type HourSummarizer struct {
	llm llm.Provider
}

// NewHourSummarizer returns an HourSummarizer backed by provider.
func NewHourSummarizer(provider llm.Provider) *HourSummarizer {
	return &HourSummarizer{llm: provider}
}

// Summarize reduces inputs (already sorted by MinuteIndex) into one
// [HourResult]. An empty inputs list returns a zero-valued result with no LM
// calls.
func (s *HourSummarizer) Summarize(ctx context.Context, inputs []MinuteInput) (HourResult, error) {
	if len(inputs) == 0 {
		return HourResult{}, nil
	}

	chunks := partition(inputs, chunkSize)

	var level1Texts []string
	if len(chunks) == 1 {
		// Single-chunk optimization: skip Level 1, feed the minutes directly.
		for _, in := range inputs {
			level1Texts = append(level1Texts, fmt.Sprintf("[Minute %d] %s", in.MinuteIndex, in.SummaryText))
		}
	} else {
		outputs, err := s.runLevel1(ctx, chunks)
		if err != nil {
			return HourResult{}, err
		}
		level1Texts = outputs
	}

	result, err := s.runLevel2(ctx, level1Texts)
	if err != nil {
		return HourResult{}, err
	}
	return result, nil
}

func partition(inputs []MinuteInput, size int) [][]MinuteInput {
	var chunks [][]MinuteInput
	for i := 0; i < len(inputs); i += size {
		end := min(i+size, len(inputs))
		chunks = append(chunks, inputs[i:end])
	}
	return chunks
}

// runLevel1 launches one LM call per chunk, bounded to level1FanoutWidth
// concurrent calls, and returns the chunk summaries indexed by original
// chunk position (order of completion is not observable to the caller).
func (s *HourSummarizer) runLevel1(ctx context.Context, chunks [][]MinuteInput) ([]string, error) {
	sem := semaphore.NewWeighted(level1FanoutWidth)
	results := make([]string, len(chunks))
	errs := make([]error, len(chunks))

	done := make(chan int, len(chunks))
	for i, chunk := range chunks {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("summarize: hour level1: %w", err)
		}
		go func(idx int, chunk []MinuteInput) {
			defer sem.Release(1)
			defer func() { done <- idx }()
			results[idx], errs[idx] = s.level1Chunk(ctx, chunk)
		}(i, chunk)
	}
	for range chunks {
		<-done
	}

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("summarize: hour level1 chunk %d: %w", i, err)
		}
	}
	return results, nil
}

func (s *HourSummarizer) level1Chunk(ctx context.Context, chunk []MinuteInput) (string, error) {
	var sb []string
	for i, in := range chunk {
		sb = append(sb, fmt.Sprintf("[Minute %d] %s", i+1, in.SummaryText))
	}
	joined := joinLines(sb)

	raw, err := WithRetry(ctx, func() (string, error) {
		return s.llm.Summarize(ctx, joined, llm.Options{System: level1SystemPrompt})
	})
	if err != nil {
		return "", err
	}
	parsed, err := jsonllm.Decode[level1Response](raw)
	if err != nil {
		return "", err
	}
	return parsed.Summary, nil
}

func (s *HourSummarizer) runLevel2(ctx context.Context, level1Texts []string) (HourResult, error) {
	var labeled []string
	step := chunkSize
	for i, text := range level1Texts {
		start := i * step
		end := start + step
		labeled = append(labeled, fmt.Sprintf("[Minutes %d-%d] %s", start, end, text))
	}
	joined := joinLines(labeled)

	raw, err := WithRetry(ctx, func() (string, error) {
		return s.llm.Summarize(ctx, joined, llm.Options{System: level2SystemPrompt})
	})
	if err != nil {
		return HourResult{}, fmt.Errorf("summarize: hour level2: %w", err)
	}
	parsed, err := jsonllm.Decode[level2Response](raw)
	if err != nil {
		return HourResult{}, fmt.Errorf("summarize: hour level2: %w", err)
	}

	return HourResult{
		SummaryText:   parsed.Summary,
		Keywords:      parsed.Keywords,
		TopicSegments: parsed.TopicSegments,
		TokenCount:    len(parsed.Summary) / 4,
		ModelUsed:     s.llm.ModelID(),
	}, nil
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
