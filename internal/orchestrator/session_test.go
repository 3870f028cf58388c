package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallhq/recall/internal/recording"
	embeddingsmock "github.com/recallhq/recall/pkg/provider/embeddings/mock"
	llmmock "github.com/recallhq/recall/pkg/provider/llm/mock"
	vectorstoremock "github.com/recallhq/recall/pkg/provider/vectorstore/mock"
	repomock "github.com/recallhq/recall/pkg/repository/mock"
)

const okResponse = `{"summary": "transformers overview", "keywords": ["transformers", "attention"], "topic": "ml", "topics": ["ml"], "topic_segments": [], "corrections": [], "category": "lecture", "confidence": 0.9, "reason": "covers course material"}`

func defaultTemplates() []recording.Template {
	return []recording.Template{
		{ID: 1, Name: "lecture", DisplayName: "Lecture", IsActive: true, Priority: 10},
		{ID: 2, Name: "memo", DisplayName: "Memo", IsActive: true, IsDefault: true, Priority: 1},
	}
}

// collector gathers notify payloads in call order, safe for concurrent use.
type collector struct {
	mu       sync.Mutex
	payloads []map[string]any
}

func (c *collector) notify(_ context.Context, payload map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloads = append(c.payloads, payload)
}

func (c *collector) snapshot() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, len(c.payloads))
	copy(out, c.payloads)
	return out
}

// Happy-path short session: one minute in, one summary, one vector
// document, completed recording, one classification.
func TestSession_HappyPathShortSession(t *testing.T) {
	repo := repomock.New(defaultTemplates())
	ctx := context.Background()
	rec, err := repo.CreateRecording(ctx, "", "", "")
	require.NoError(t, err)

	llmProv := &llmmock.Provider{Model: "test-model", SummarizeResponse: okResponse, ClassifyResponse: okResponse}
	embedder := &embeddingsmock.Provider{EmbedResult: []float32{0.1, 0.2}}
	store := vectorstoremock.New()
	c := &collector{}

	cfg := Config{RecordingID: rec.ID, Repo: repo, LLM: llmProv, Embedder: embedder, VectorStore: store, Notify: c.notify, SummarizationInterval: 10 * time.Millisecond}
	sess := New(cfg)
	sess.Start()
	sess.EnqueueTranscript(0, "Today we covered transformers.")
	require.NoError(t, sess.Stop(ctx))

	summaries, err := repo.ListSummaries(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 0, summaries[0].MinuteIndex)
	assert.NotEmpty(t, summaries[0].SummaryText)

	payloads := c.snapshot()
	require.Len(t, payloads, 1)
	assert.Nil(t, payloads[0]["error"])

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := repo.GetRecording(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, recording.StatusCompleted, got.Status)

	_, err = repo.GetClassification(ctx, rec.ID)
	require.NoError(t, err)
}

// Whitespace-only transcripts are skipped entirely: no summary, no notify,
// no vector document, no classification.
func TestSession_EmptyTextSkip(t *testing.T) {
	repo := repomock.New(defaultTemplates())
	ctx := context.Background()
	rec, err := repo.CreateRecording(ctx, "", "", "")
	require.NoError(t, err)

	llmProv := &llmmock.Provider{SummarizeResponse: okResponse, ClassifyResponse: okResponse}
	store := vectorstoremock.New()
	c := &collector{}

	sess := New(Config{RecordingID: rec.ID, Repo: repo, LLM: llmProv, Notify: c.notify, SummarizationInterval: 10 * time.Millisecond})
	sess.Start()
	sess.EnqueueTranscript(0, "   ")
	require.NoError(t, sess.Stop(ctx))

	summaries, err := repo.ListSummaries(ctx, rec.ID)
	require.NoError(t, err)
	assert.Empty(t, summaries)
	assert.Empty(t, c.snapshot())

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = repo.GetClassification(ctx, rec.ID)
	assert.Error(t, err)
}

// Embedder down: summary still persists, notify still reports success.
func TestSession_EmbedderDown(t *testing.T) {
	repo := repomock.New(defaultTemplates())
	ctx := context.Background()
	rec, err := repo.CreateRecording(ctx, "", "", "")
	require.NoError(t, err)

	llmProv := &llmmock.Provider{SummarizeResponse: okResponse, ClassifyResponse: okResponse}
	embedder := &embeddingsmock.Provider{EmbedErr: assert.AnError}
	store := vectorstoremock.New()
	c := &collector{}

	sess := New(Config{RecordingID: rec.ID, Repo: repo, LLM: llmProv, Embedder: embedder, VectorStore: store, Notify: c.notify, SummarizationInterval: 10 * time.Millisecond})
	sess.Start()
	sess.EnqueueTranscript(0, "text")
	require.NoError(t, sess.Stop(ctx))

	summaries, err := repo.ListSummaries(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	payloads := c.snapshot()
	require.Len(t, payloads, 1)
	assert.Nil(t, payloads[0]["error"])
}

// Hour bucket threshold met (10 minutes) produces one hour summary.
func TestSession_HourBucketThresholdMet(t *testing.T) {
	repo := repomock.New(defaultTemplates())
	ctx := context.Background()
	rec, err := repo.CreateRecording(ctx, "", "", "")
	require.NoError(t, err)

	llmProv := &llmmock.Provider{SummarizeResponse: okResponse, ClassifyResponse: okResponse}
	c := &collector{}
	sess := New(Config{RecordingID: rec.ID, Repo: repo, LLM: llmProv, Notify: c.notify, SummarizationInterval: 10 * time.Millisecond})
	sess.Start()
	for i := 0; i < 10; i++ {
		sess.EnqueueTranscript(i, "minute text")
	}
	require.NoError(t, sess.Stop(ctx))

	summaries, err := repo.ListSummaries(ctx, rec.ID)
	require.NoError(t, err)
	assert.Len(t, summaries, 10)

	hours, err := repo.ListHourSummaries(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, hours, 1)
	assert.Equal(t, 0, hours[0].HourIndex)

	_, err = repo.GetClassification(ctx, rec.ID)
	require.NoError(t, err)
}

// Hour bucket below threshold (9 minutes) produces no hour summary.
func TestSession_HourBucketBelowThreshold(t *testing.T) {
	repo := repomock.New(defaultTemplates())
	ctx := context.Background()
	rec, err := repo.CreateRecording(ctx, "", "", "")
	require.NoError(t, err)

	llmProv := &llmmock.Provider{SummarizeResponse: okResponse, ClassifyResponse: okResponse}
	c := &collector{}
	sess := New(Config{RecordingID: rec.ID, Repo: repo, LLM: llmProv, Notify: c.notify, SummarizationInterval: 10 * time.Millisecond})
	sess.Start()
	for i := 0; i < 9; i++ {
		sess.EnqueueTranscript(i, "minute text")
	}
	require.NoError(t, sess.Stop(ctx))

	summaries, err := repo.ListSummaries(ctx, rec.ID)
	require.NoError(t, err)
	assert.Len(t, summaries, 9)

	hours, err := repo.ListHourSummaries(ctx, rec.ID)
	require.NoError(t, err)
	assert.Empty(t, hours)

	_, err = repo.GetClassification(ctx, rec.ID)
	require.NoError(t, err)
}

// Zero-minute boundary: stop with no enqueued transcripts at all.
func TestSession_ZeroMinuteRecording(t *testing.T) {
	repo := repomock.New(defaultTemplates())
	ctx := context.Background()
	rec, err := repo.CreateRecording(ctx, "", "", "")
	require.NoError(t, err)

	llmProv := &llmmock.Provider{SummarizeResponse: okResponse, ClassifyResponse: okResponse}
	c := &collector{}
	sess := New(Config{RecordingID: rec.ID, Repo: repo, LLM: llmProv, Notify: c.notify, SummarizationInterval: 10 * time.Millisecond})
	sess.Start()
	require.NoError(t, sess.Stop(ctx))

	got, err := repo.GetRecording(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, recording.StatusCompleted, got.Status)

	summaries, err := repo.ListSummaries(ctx, rec.ID)
	require.NoError(t, err)
	assert.Empty(t, summaries)

	hours, err := repo.ListHourSummaries(ctx, rec.ID)
	require.NoError(t, err)
	assert.Empty(t, hours)

	_, err = repo.GetClassification(ctx, rec.ID)
	assert.Error(t, err)
}

// Stop is idempotent.
func TestSession_StopIsIdempotent(t *testing.T) {
	repo := repomock.New(defaultTemplates())
	ctx := context.Background()
	rec, err := repo.CreateRecording(ctx, "", "", "")
	require.NoError(t, err)

	llmProv := &llmmock.Provider{SummarizeResponse: okResponse, ClassifyResponse: okResponse}
	c := &collector{}
	sess := New(Config{RecordingID: rec.ID, Repo: repo, LLM: llmProv, Notify: c.notify, SummarizationInterval: 10 * time.Millisecond})
	sess.Start()
	sess.EnqueueTranscript(0, "hello")
	require.NoError(t, sess.Stop(ctx))
	require.NoError(t, sess.Stop(ctx))

	summaries, err := repo.ListSummaries(ctx, rec.ID)
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
}

// Ordering and no-lost-work across many minutes enqueued rapidly.
func TestSession_OrderingAndNoLostWork(t *testing.T) {
	repo := repomock.New(defaultTemplates())
	ctx := context.Background()
	rec, err := repo.CreateRecording(ctx, "", "", "")
	require.NoError(t, err)

	llmProv := &llmmock.Provider{SummarizeResponse: okResponse, ClassifyResponse: okResponse}
	c := &collector{}
	sess := New(Config{RecordingID: rec.ID, Repo: repo, LLM: llmProv, Notify: c.notify, SummarizationInterval: 5 * time.Millisecond})
	sess.Start()
	const n = 25
	for i := 0; i < n; i++ {
		sess.EnqueueTranscript(i, "minute text")
	}
	require.NoError(t, sess.Stop(ctx))

	summaries, err := repo.ListSummaries(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, summaries, n)
	for i, s := range summaries {
		assert.Equal(t, i, s.MinuteIndex)
	}
}

// A minute that fails summarization produces no Summary row and a notify
// error payload instead; the session keeps processing later minutes.
func TestSession_FailedMinuteNotifiesErrorAndContinues(t *testing.T) {
	repo := repomock.New(defaultTemplates())
	ctx := context.Background()
	rec, err := repo.CreateRecording(ctx, "", "", "")
	require.NoError(t, err)

	llmProv := &llmmock.Provider{SummarizeResponse: "not json", ClassifyResponse: okResponse}
	c := &collector{}
	sess := New(Config{RecordingID: rec.ID, Repo: repo, LLM: llmProv, Notify: c.notify, SummarizationInterval: 10 * time.Millisecond})
	sess.Start()
	sess.EnqueueTranscript(0, "minute text")
	require.NoError(t, sess.Stop(ctx))

	summaries, err := repo.ListSummaries(ctx, rec.ID)
	require.NoError(t, err)
	assert.Empty(t, summaries)

	payloads := c.snapshot()
	require.Len(t, payloads, 1)
	assert.Equal(t, true, payloads[0]["error"])
	assert.Contains(t, payloads[0]["detail"], "minute 0")
}
