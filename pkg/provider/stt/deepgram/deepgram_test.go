package deepgram

import (
	"encoding/json"
	"net/url"
	"testing"
)

// ---- URL / query-param tests ----

func TestListenURL_Defaults(t *testing.T) {
	p, err := New("test-key")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rawURL, err := p.listenURL()
	if err != nil {
		t.Fatalf("listenURL: %v", err)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse URL: %v", err)
	}
	q := u.Query()

	assertEqual(t, "model", "nova-3", q.Get("model"))
	assertEqual(t, "language", "en", q.Get("language"))
	assertEqual(t, "punctuate", "true", q.Get("punctuate"))
	assertEqual(t, "sample_rate", "16000", q.Get("sample_rate"))
}

func TestStreamURL_CustomOptions(t *testing.T) {
	p, err := New("key", WithModel("base"), WithLanguage("de-DE"), WithSampleRate(48000))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rawURL, err := p.streamURL()
	if err != nil {
		t.Fatalf("streamURL: %v", err)
	}

	u, _ := url.Parse(rawURL)
	q := u.Query()

	assertEqual(t, "model", "base", q.Get("model"))
	assertEqual(t, "language", "de-DE", q.Get("language"))
	assertEqual(t, "sample_rate", "48000", q.Get("sample_rate"))
	assertEqual(t, "interim_results", "true", q.Get("interim_results"))
}

// ---- JSON parsing tests ----

func TestDeepgramChannel_BestTranscript(t *testing.T) {
	raw := []byte(`{
		"type": "Results",
		"is_final": true,
		"channel": {
			"alternatives": [{
				"transcript": "Hello world",
				"confidence": 0.95,
				"words": [
					{"word": "Hello", "start": 0.1, "end": 0.5, "confidence": 0.97},
					{"word": "world", "start": 0.6, "end": 1.0, "confidence": 0.93}
				]
			}]
		}
	}`)

	var dr deepgramResponse
	if err := json.Unmarshal(raw, &dr); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	text, confidence, segments := dr.Channel.bestTranscript()
	assertEqual(t, "text", "Hello world", text)
	if confidence != 0.95 {
		t.Errorf("expected confidence 0.95, got %f", confidence)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	assertEqual(t, "segment[0]", "Hello", segments[0].Text)
}

func TestDeepgramChannel_BestTranscript_EmptyAlternatives(t *testing.T) {
	var c deepgramChannel
	text, confidence, segments := c.bestTranscript()
	if text != "" || confidence != 0 || segments != nil {
		t.Errorf("expected zero result for empty alternatives, got %q %f %v", text, confidence, segments)
	}
}

// ---- Constructor tests ----

func TestNew_EmptyAPIKey(t *testing.T) {
	_, err := New("")
	if err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestNew_Defaults(t *testing.T) {
	p, err := New("key")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	assertEqual(t, "model", defaultModel, p.model)
	assertEqual(t, "language", defaultLanguage, p.language)
	if p.sampleRate != defaultSampleRate {
		t.Errorf("expected sampleRate %d, got %d", defaultSampleRate, p.sampleRate)
	}
}

// ---- helpers ----

func assertEqual(t *testing.T, label, want, got string) {
	t.Helper()
	if want != got {
		t.Errorf("%s: want %q, got %q", label, want, got)
	}
}
