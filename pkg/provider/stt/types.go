package stt

import "time"

// Segment is one contiguous span of recognized speech, with timing relative
// to the start of the audio it was recognized from.
type Segment struct {
	Text  string
	Start time.Duration
	End   time.Duration
}

// Result is the outcome of a complete, file-based transcription.
type Result struct {
	// Text is the full transcript.
	Text string

	// Language is the BCP-47 language tag the provider recognized or was
	// told to assume. May be empty if the provider doesn't report it.
	Language string

	// Confidence is the overall confidence score (0.0-1.0). Zero if the
	// provider does not report confidence.
	Confidence float64

	// Duration is the length of the source audio.
	Duration time.Duration

	// Segments breaks Text into timed spans when the provider supports it.
	// May be nil.
	Segments []Segment
}

// StreamResult is one increment of a live transcription. Backends built on
// DriveStream skip windows below the silence threshold before inference;
// Deepgram relays every non-empty transcript event it receives.
type StreamResult struct {
	// Text is the recognized speech for this window.
	Text string

	// IsFinal distinguishes an authoritative result from a low-latency
	// interim guess. Providers that only emit finals always set this true.
	IsFinal bool

	// Confidence is the provider's confidence for this window, if reported.
	Confidence float64

	// Segments breaks Text into timed spans when the provider supports it.
	Segments []Segment
}
