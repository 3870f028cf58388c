// Package jsonllm centralizes the "LM-JSON decode" primitive used by every
// summarizer and the RAG planner: strip optional markdown code fences from a
// language model's raw text response, then decode it as JSON with defensive
// field handling left to the caller.
package jsonllm

import "strings"

// fencePrefixes are the leading fence forms a model may emit, tried longest
// (language-tagged) first.
var fencePrefixes = []string{"```json", "```JSON", "```"}

// StripCodeFences removes an optional leading triple-backtick fence
// (optionally followed by a language tag) and a matching trailing fence.
// Idempotent: StripCodeFences(x) == StripCodeFences(StripCodeFences(x)) for
// all x.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range fencePrefixes {
		if after, ok := strings.CutPrefix(s, prefix); ok {
			// A bare fence may carry another language tag (```python);
			// the rest of its line is dropped when it holds no JSON.
			if nl := strings.IndexByte(after, '\n'); prefix == "```" && nl > 0 && !strings.ContainsAny(after[:nl], "{}[]\"") {
				after = after[nl:]
			}
			s = strings.TrimPrefix(after, "\n")
			break
		}
	}
	s = strings.TrimSpace(s)
	if before, ok := strings.CutSuffix(s, "```"); ok {
		s = before
	}
	return strings.TrimSpace(s)
}
