package classify

import (
	"context"
	"testing"

	"github.com/recallhq/recall/pkg/provider/llm/mock"
)

func TestClassifier_EmptyInputSkipsLM(t *testing.T) {
	m := &mock.Provider{}
	c := NewClassifier(m)

	result, err := c.Classify(context.Background(), "   ", nil)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.Category != "memo" || result.Confidence != 0 {
		t.Fatalf("got %+v, want memo/0", result)
	}
	if m.CallCount("") != 0 {
		t.Fatalf("expected no LM calls, got %d", m.CallCount(""))
	}
}

func TestClassifier_UnknownCategoryCoercedToMemo(t *testing.T) {
	m := &mock.Provider{ClassifyResponse: `{"category":"sports","confidence":0.9,"reason":"r"}`}
	c := NewClassifier(m)

	result, err := c.Classify(context.Background(), "some text", nil)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.Category != "memo" {
		t.Fatalf("Category = %q, want memo", result.Category)
	}
}

func TestClassifier_ConfidenceClamped(t *testing.T) {
	m := &mock.Provider{ClassifyResponse: `{"category":"memo","confidence":5.0,"reason":"r"}`}
	c := NewClassifier(m)

	result, err := c.Classify(context.Background(), "text", nil)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.Confidence != 1 {
		t.Fatalf("Confidence = %v, want 1", result.Confidence)
	}
}

func TestClassifier_NonFiniteConfidenceCoercedToZero(t *testing.T) {
	m := &mock.Provider{ClassifyResponse: `{"category":"memo","confidence":null,"reason":"r"}`}
	c := NewClassifier(m)

	result, err := c.Classify(context.Background(), "text", nil)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.Confidence != 0 {
		t.Fatalf("Confidence = %v, want 0", result.Confidence)
	}
}

func TestClassifier_InvalidJSONFails(t *testing.T) {
	m := &mock.Provider{ClassifyResponse: "not json"}
	c := NewClassifier(m)

	if _, err := c.Classify(context.Background(), "text", nil); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}
