package jsonllm

import (
	"math"
	"testing"
)

func TestStripCodeFences_Idempotent(t *testing.T) {
	cases := []string{
		"```json\n{\"a\":1}\n```",
		"```\n{\"a\":1}\n```",
		"{\"a\":1}",
		"   ```json\n{}\n```   ",
	}
	for _, c := range cases {
		once := StripCodeFences(c)
		twice := StripCodeFences(once)
		if once != twice {
			t.Fatalf("not idempotent for %q: once=%q twice=%q", c, once, twice)
		}
	}
}

func TestStripCodeFences_RemovesFence(t *testing.T) {
	got := StripCodeFences("```json\n{\"summary\":\"x\"}\n```")
	if got != `{"summary":"x"}` {
		t.Fatalf("got %q", got)
	}
}

func TestDecode_OK(t *testing.T) {
	type payload struct {
		Summary string `json:"summary"`
	}
	p, err := Decode[payload]("```json\n{\"summary\":\"hello\"}\n```")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p.Summary != "hello" {
		t.Fatalf("Summary = %q", p.Summary)
	}
}

func TestDecode_InvalidJSON(t *testing.T) {
	type payload struct{}
	if _, err := Decode[payload]("not json"); err == nil {
		t.Fatal("expected error")
	}
}

func TestClampConfidence(t *testing.T) {
	cases := map[float64]float64{
		-1:              0,
		0.5:             0.5,
		2:               1,
		math.NaN():      0,
		math.Inf(1):     0,
		math.Inf(-1):    0,
	}
	for in, want := range cases {
		if got := ClampConfidence(in); got != want {
			t.Fatalf("ClampConfidence(%v) = %v, want %v", in, got, want)
		}
	}
}
