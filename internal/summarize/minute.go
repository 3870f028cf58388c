// Package summarize implements the minute- and hour-level summarization
// stages and the range extractor that sit between the transcript queue and
// persistence.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/recallhq/recall/internal/recording"
	"github.com/recallhq/recall/internal/summarize/jsonllm"
	"github.com/recallhq/recall/pkg/provider/llm"
)

// minuteResponse is the JSON shape the LM is instructed to emit for one
// minute of transcript.
type minuteResponse struct {
	Summary     string                 `json:"summary"`
	Keywords    []string               `json:"keywords"`
	Topic       string                 `json:"topic"`
	Corrections []recording.Correction `json:"corrections"`
}

// MinuteResult is the output of [MinuteSummarizer.Summarize].
type MinuteResult struct {
	SummaryText string
	Keywords    []string
	Topic       string
	Corrections []recording.Correction
	ModelUsed   string
}

const minuteSystemPrompt = `You are summarizing one minute of a recorded session.
Output only a JSON object with keys "summary", "keywords", "topic", and "corrections".
Preserve the source language of the transcript. Limit "summary" to roughly 50 tokens.
"keywords" is a short list of salient terms. "topic" is a one-line label for this minute.
"corrections" is a list of {"original", "corrected", "reason"} objects noting any transcription errors you are confident about; use an empty list if there are none.`

// MinuteSummarizer produces a structured summary for one minute of
// transcript text, optionally seeded with the previous minute's summary for
// continuity.
type MinuteSummarizer struct {
	llm llm.Provider
}

// NewMinuteSummarizer returns a MinuteSummarizer backed by provider.
func NewMinuteSummarizer(provider llm.Provider) *MinuteSummarizer {
	return &MinuteSummarizer{llm: provider}
}

// Summarize produces a [MinuteResult] for transcriptText. Empty or
// whitespace-only input returns a zero-valued result without invoking the LM.
func (s *MinuteSummarizer) Summarize(ctx context.Context, transcriptText string, previousSummary, userContext string) (MinuteResult, error) {
	if strings.TrimSpace(transcriptText) == "" {
		return MinuteResult{}, nil
	}

	var parts []string
	if strings.TrimSpace(userContext) != "" {
		parts = append(parts, "Context: "+userContext)
	}
	if strings.TrimSpace(previousSummary) != "" {
		parts = append(parts, "Previous minute summary: "+previousSummary)
	}
	parts = append(parts, "Transcript: "+transcriptText)
	userPrompt := strings.Join(parts, "\n\n")

	raw, err := WithRetry(ctx, func() (string, error) {
		return s.llm.Summarize(ctx, userPrompt, llm.Options{System: minuteSystemPrompt})
	})
	if err != nil {
		return MinuteResult{}, fmt.Errorf("summarize: minute: %w", err)
	}

	parsed, err := jsonllm.Decode[minuteResponse](raw)
	if err != nil {
		return MinuteResult{}, fmt.Errorf("summarize: minute: %w", err)
	}

	corrections := make([]recording.Correction, 0, len(parsed.Corrections))
	for _, c := range parsed.Corrections {
		if c.Original == "" || c.Corrected == "" {
			continue
		}
		corrections = append(corrections, c)
	}

	return MinuteResult{
		SummaryText: parsed.Summary,
		Keywords:    parsed.Keywords,
		Topic:       parsed.Topic,
		Corrections: corrections,
		ModelUsed:   s.llm.ModelID(),
	}, nil
}
