package summarize

import (
	"context"
	"reflect"
	"testing"

	"github.com/recallhq/recall/pkg/provider/llm/mock"
)

func TestMinuteSummarizer_EmptyInputSkipsLM(t *testing.T) {
	m := &mock.Provider{}
	s := NewMinuteSummarizer(m)

	result, err := s.Summarize(context.Background(), "   ", "", "")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if !reflect.DeepEqual(result, MinuteResult{}) {
		t.Fatalf("expected zero-valued result, got %+v", result)
	}
	if m.CallCount("") != 0 {
		t.Fatalf("expected no LM calls, got %d", m.CallCount(""))
	}
}

func TestMinuteSummarizer_DropsIncompleteCorrections(t *testing.T) {
	m := &mock.Provider{
		SummarizeResponse: `{"summary":"s","keywords":["a"],"topic":"t","corrections":[{"original":"x","corrected":"y","reason":"r"},{"original":"","corrected":"z","reason":"r"}]}`,
		Model:             "test-model",
	}
	s := NewMinuteSummarizer(m)

	result, err := s.Summarize(context.Background(), "some transcript", "prev", "ctx")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if len(result.Corrections) != 1 {
		t.Fatalf("expected 1 correction after filtering, got %d", len(result.Corrections))
	}
	if result.ModelUsed != "test-model" {
		t.Fatalf("ModelUsed = %q", result.ModelUsed)
	}
}

func TestMinuteSummarizer_InvalidJSONFails(t *testing.T) {
	m := &mock.Provider{SummarizeResponse: "not json"}
	s := NewMinuteSummarizer(m)

	if _, err := s.Summarize(context.Background(), "text", "", ""); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}
