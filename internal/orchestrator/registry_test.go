package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llm "github.com/recallhq/recall/pkg/provider/llm"
	llmmock "github.com/recallhq/recall/pkg/provider/llm/mock"
	repomock "github.com/recallhq/recall/pkg/repository/mock"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	repo := repomock.New(defaultTemplates())
	rec, err := repo.CreateRecording(context.Background(), "", "", "")
	require.NoError(t, err)
	return New(Config{
		RecordingID:           rec.ID,
		Repo:                  repo,
		LLM:                   &llmmock.Provider{SummarizeResponse: okResponse, ClassifyResponse: okResponse},
		SummarizationInterval: 10 * time.Millisecond,
	})
}

func TestRegistry_SecondStartFails(t *testing.T) {
	reg := NewRegistry()

	first := newTestSession(t)
	require.NoError(t, reg.StartSession(first))
	assert.True(t, reg.IsActive())

	second := newTestSession(t)
	err := reg.StartSession(second)
	assert.ErrorIs(t, err, ErrRecordingAlreadyActive)
	assert.Same(t, first, reg.Active())
}

func TestRegistry_StopSessionIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	ctx := context.Background()

	require.NoError(t, reg.StopSession(ctx), "stop on an empty registry is a no-op")

	sess := newTestSession(t)
	require.NoError(t, reg.StartSession(sess))
	sess.Start()

	require.NoError(t, reg.StopSession(ctx))
	assert.False(t, reg.IsActive())
	require.NoError(t, reg.StopSession(ctx), "second stop is a no-op")
}

// The slot is cleared before the prior session's Stop is awaited, so a new
// session may start while the old one is still finalizing.
func TestRegistry_StartPermittedDuringPriorStop(t *testing.T) {
	reg := NewRegistry()
	ctx := context.Background()

	release := make(chan struct{})
	repo := repomock.New(defaultTemplates())
	rec, err := repo.CreateRecording(ctx, "", "", "")
	require.NoError(t, err)
	first := New(Config{
		RecordingID: rec.ID,
		Repo:        repo,
		LLM: &blockingLLM{
			Provider: &llmmock.Provider{SummarizeResponse: okResponse, ClassifyResponse: okResponse},
			release:  release,
		},
		SummarizationInterval: 10 * time.Millisecond,
	})
	require.NoError(t, reg.StartSession(first))
	first.Start()
	first.EnqueueTranscript(0, "a minute of speech")

	stopped := make(chan error, 1)
	go func() { stopped <- reg.StopSession(ctx) }()
	require.Eventually(t, func() bool { return !reg.IsActive() }, time.Second, time.Millisecond)

	second := newTestSession(t)
	require.NoError(t, reg.StartSession(second))
	select {
	case <-stopped:
		t.Fatal("first session finished stopping before its summarizer was released")
	default:
	}

	close(release)
	require.NoError(t, <-stopped)
	second.Start()
	require.NoError(t, reg.StopSession(ctx))
}

// blockingLLM holds every Summarize call until release is closed.
type blockingLLM struct {
	*llmmock.Provider
	release chan struct{}
}

func (b *blockingLLM) Summarize(ctx context.Context, text string, opts llm.Options) (string, error) {
	<-b.release
	return b.Provider.Summarize(ctx, text, opts)
}

func TestRegistry_CleanupStopsActiveSession(t *testing.T) {
	reg := NewRegistry()
	sess := newTestSession(t)
	require.NoError(t, reg.StartSession(sess))
	sess.Start()

	require.NoError(t, reg.Cleanup(context.Background()))
	assert.False(t, reg.IsActive())
}
