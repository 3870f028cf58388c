package summarize

import (
	"context"
	"errors"
	"testing"

	"github.com/recallhq/recall/pkg/provider/llm/mock"
)

func TestRangeExtractor_EmptyInputFails(t *testing.T) {
	e := NewRangeExtractor(&mock.Provider{})
	_, err := e.Extract(context.Background(), 1, nil)
	if !errors.Is(err, ErrEmptyRange) {
		t.Fatalf("expected ErrEmptyRange, got %v", err)
	}
}

func TestRangeExtractor_OK(t *testing.T) {
	m := &mock.Provider{
		SummarizeResponse: `{"summary":"unified","keywords":["a","b"]}`,
		Model:             "m1",
	}
	e := NewRangeExtractor(m)

	result, err := e.Extract(context.Background(), 42, []MinuteInput{
		{MinuteIndex: 3, SummaryText: "s3"},
		{MinuteIndex: 4, SummaryText: "s4"},
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if result.SummaryText != "unified" {
		t.Fatalf("SummaryText = %q", result.SummaryText)
	}
	if result.SourceCount != 2 {
		t.Fatalf("SourceCount = %d", result.SourceCount)
	}
	if len(result.IncludedMinutes) != 2 || result.IncludedMinutes[0] != 3 {
		t.Fatalf("IncludedMinutes = %v", result.IncludedMinutes)
	}
	if result.ModelUsed != "m1" {
		t.Fatalf("ModelUsed = %q", result.ModelUsed)
	}
}
