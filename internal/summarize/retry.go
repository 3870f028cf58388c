package summarize

import (
	"context"
	"errors"
	"net"
	"net/url"
	"time"
)

// Retry policy shared by every LM call in the pipeline: two total attempts,
// exponential backoff starting at 500ms and capped at 4s, applied only to
// transport-level failures.
const (
	retryAttempts  = 2
	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 4 * time.Second
)

// TransportError marks a connection-level failure eligible for retry, as
// opposed to a non-retryable application error. Providers produce it via
// [WrapTransport]; tests may construct it directly.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "transport error: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// WrapTransport classifies err: connection-level failures (refused
// connections, timeouts, DNS errors, cancelled deadlines) are wrapped in a
// [TransportError] so [WithRetry] treats them as retryable; anything else —
// API errors, malformed responses — is returned unchanged. Provider
// implementations call this on every error leaving their HTTP client.
func WrapTransport(err error) error {
	if err == nil {
		return nil
	}
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TransportError{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &TransportError{Err: err}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &TransportError{Err: err}
	}
	return err
}

// WithRetry calls fn up to two times, retrying only when fn returns an
// error with a [TransportError] in its chain, with exponential backoff
// between attempts. Shared by the summarizers, the classifier, and the RAG
// planner.
func WithRetry(ctx context.Context, fn func() (string, error)) (string, error) {
	delay := retryBaseDelay
	var lastErr error
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		out, err := fn()
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !isTransportError(err) || attempt == retryAttempts {
			return "", err
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > retryMaxDelay {
			delay = retryMaxDelay
		}
	}
	return "", lastErr
}

func isTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
