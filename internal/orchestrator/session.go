// Package orchestrator implements the recording session orchestrator and
// the process-wide session registry: the cooperative scheduler
// that drains a per-minute transcript queue on a timer, drives the minute
// summarizer and embedding side-channel, and finalizes a recording into
// hour summaries and a classification when the session stops.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	"github.com/recallhq/recall/internal/classify"
	"github.com/recallhq/recall/internal/embed"
	"github.com/recallhq/recall/internal/observe"
	"github.com/recallhq/recall/internal/recording"
	"github.com/recallhq/recall/internal/summarize"
	"github.com/recallhq/recall/pkg/provider/embeddings"
	"github.com/recallhq/recall/pkg/provider/llm"
	"github.com/recallhq/recall/pkg/provider/vectorstore"
	"github.com/recallhq/recall/pkg/repository"
)

// defaultSummarizationInterval is applied when [Config.SummarizationInterval]
// is left at zero.
const defaultSummarizationInterval = 60 * time.Second

// hourBucketMinimum is the minimum number of minute summaries a bucket must
// hold before an hour summary is generated for it.
const hourBucketMinimum = 10

// minutesPerHour defines the hour bucket: hour_index = minute_index / 60.
const minutesPerHour = 60

// NotifyFunc is the caller-supplied callback invoked once per processed
// (or skipped-due-to-failure) minute. Payloads take one of two shapes:
// success carries minute_index/summary_text/keywords/topic/corrections,
// failure carries error=true/detail. Notify failures are logged and
// swallowed; they never affect the worker loop.
type NotifyFunc func(ctx context.Context, payload map[string]any)

// Config bundles the collaborators and tuning a [Session] needs. LLM is
// required; Embedder and VectorStore are optional. When either is nil the
// embedding side-channel is disabled for the lifetime of the session.
type Config struct {
	RecordingID           int64
	Repo                  repository.Repository
	LLM                   llm.Provider
	Embedder              embeddings.Provider
	VectorStore           vectorstore.Store
	Notify                NotifyFunc
	SummarizationInterval time.Duration
	UserContext           string

	// ClassificationCategories overrides [classify.DefaultCategories] for
	// the auto-classify finalization stage. Nil uses the default set.
	ClassificationCategories []string

	// Metrics receives orchestrator instrumentation. Nil uses
	// [observe.DefaultMetrics].
	Metrics *observe.Metrics

	// Now returns the current time, overridable in tests. Defaults to
	// time.Now.
	Now func() time.Time
}

type pendingTranscript struct {
	minuteIndex int
	text        string
}

// Session owns the end-to-end pipeline for one live recording: an
// unbounded FIFO of pending transcripts, a single background worker that
// drains it on a timer, and the finalization sequence run once the worker
// exits. All exported methods are safe for concurrent use.
type Session struct {
	recordingID int64
	repo        repository.Repository
	minuteSumm  *summarize.MinuteSummarizer
	hourSumm    *summarize.HourSummarizer
	classifier  *classify.Classifier
	embedChan   *embed.Channel // nil disables the embedding side-channel
	notify      NotifyFunc
	interval    time.Duration
	userContext string
	categories  []string
	metrics     *observe.Metrics

	mu              sync.Mutex
	queue           []pendingTranscript
	previousSummary string
	queued          chan struct{}
	done            chan struct{}
	stopOnce        sync.Once
	stopped         chan struct{}
	wg              sync.WaitGroup
}

// New constructs a Session for cfg.RecordingID. It does not start the
// worker; call [Session.Start] for that.
func New(cfg Config) *Session {
	interval := cfg.SummarizationInterval
	if interval <= 0 {
		interval = defaultSummarizationInterval
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	var embedChan *embed.Channel
	if cfg.Embedder != nil && cfg.VectorStore != nil {
		embedChan = embed.New(cfg.Embedder, cfg.VectorStore)
		embedChan.Now = now
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}

	return &Session{
		recordingID: cfg.RecordingID,
		repo:        cfg.Repo,
		minuteSumm:  summarize.NewMinuteSummarizer(cfg.LLM),
		hourSumm:    summarize.NewHourSummarizer(cfg.LLM),
		classifier:  classify.NewClassifier(cfg.LLM),
		embedChan:   embedChan,
		notify:      cfg.Notify,
		interval:    interval,
		userContext: cfg.UserContext,
		categories:  cfg.ClassificationCategories,
		metrics:     metrics,
		queued:      make(chan struct{}, 1),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
}

// Start spawns the background worker. Must be called at most once.
func (s *Session) Start() {
	s.metrics.ActiveRecordings.Add(context.Background(), 1)
	s.wg.Add(1)
	go s.loop()
}

// EnqueueTranscript pushes one (minute_index, text) item onto the session's
// FIFO queue. Non-blocking. The caller is responsible for calling this
// exactly once per minute in ascending minute order; the worker preserves
// that order regardless of when each tick happens to drain it.
func (s *Session) EnqueueTranscript(minuteIndex int, text string) {
	s.mu.Lock()
	s.queue = append(s.queue, pendingTranscript{minuteIndex: minuteIndex, text: text})
	s.mu.Unlock()

	s.metrics.PendingQueueDepth.Add(context.Background(), 1)

	select {
	case s.queued <- struct{}{}:
	default:
	}
}

// Stop signals the worker to exit, awaits it, then runs finalization
// (marking the recording completed, generating hour summaries, and
// auto-classifying). Idempotent: a second call observes the same final
// state and performs no additional work.
func (s *Session) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
		if err := s.finalize(ctx); err != nil {
			slog.Warn("orchestrator: finalization encountered an error", "recording_id", s.recordingID, "error", err)
		}
		s.metrics.ActiveRecordings.Add(ctx, -1)
		close(s.stopped)
	})
	<-s.stopped
	return nil
}

// loop is the worker: a cooperative scheduler that drains whatever is
// currently queued when the summarization-interval timer fires or the stop
// signal arrives. A new-item notification wakes it without draining; the
// item waits for the next tick. A final drain runs unconditionally on exit
// so no accepted work is lost.
func (s *Session) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			s.drain(context.Background())
			return
		case <-s.queued:
			// Woken by a new item; fall through to the same drain path on
			// the next tick rather than processing immediately, matching
			// the timer-drained design — items accumulate until a tick.
		case <-ticker.C:
			s.drain(context.Background())
		}
	}
}

// drain pops every item currently queued and processes it synchronously, in
// FIFO order. Items enqueued after drain begins are left for the next tick.
func (s *Session) drain(ctx context.Context) {
	s.mu.Lock()
	items := s.queue
	s.queue = nil
	s.mu.Unlock()

	if len(items) > 0 {
		s.metrics.PendingQueueDepth.Add(ctx, -int64(len(items)))
	}
	for _, item := range items {
		s.processOne(ctx, item)
	}
}

// processOne runs one transcript through the summarizer, persists the
// result, advances the running previous-summary, and best-effort embeds it.
// A failure to summarize or persist is caught, logged, and reported through
// notify as an error payload; an embed failure is only logged. The loop
// always continues to the next item.
func (s *Session) processOne(ctx context.Context, item pendingTranscript) {
	if strings.TrimSpace(item.text) == "" {
		slog.Debug("orchestrator: skipping empty transcript", "recording_id", s.recordingID, "minute_index", item.minuteIndex)
		return
	}

	start := time.Now()
	result, err := s.summarizeMinute(ctx, item)
	if err != nil {
		slog.Warn("orchestrator: minute processing failed", "recording_id", s.recordingID, "minute_index", item.minuteIndex, "error", err)
		sentry.CaptureException(err)
		s.metrics.RecordMinuteFailed(ctx, strconv.FormatInt(s.recordingID, 10))
		s.safeNotify(ctx, map[string]any{
			"notify_id": uuid.NewString(),
			"error":     true,
			"detail":    fmt.Sprintf("Summarization failed for minute %d", item.minuteIndex),
		})
		return
	}
	s.metrics.SummarizationDuration.Record(ctx, time.Since(start).Seconds())
	s.metrics.RecordMinuteProcessed(ctx, strconv.FormatInt(s.recordingID, 10))

	if s.embedChan != nil {
		bestEffort("orchestrator: embed minute failed", []any{"recording_id", s.recordingID, "minute_index", item.minuteIndex}, func() error {
			return s.embedChan.EmbedSummary(ctx, s.recordingID, item.minuteIndex, result.SummaryText, result.Keywords)
		})
	}

	s.safeNotify(ctx, map[string]any{
		"notify_id":    uuid.NewString(),
		"minute_index": item.minuteIndex,
		"summary_text": result.SummaryText,
		"keywords":     result.Keywords,
		"topic":        result.Topic,
		"corrections":  result.Corrections,
	})
}

func (s *Session) summarizeMinute(ctx context.Context, item pendingTranscript) (summarize.MinuteResult, error) {
	s.mu.Lock()
	prev := s.previousSummary
	s.mu.Unlock()

	result, err := s.minuteSumm.Summarize(ctx, item.text, prev, s.userContext)
	if err != nil {
		return summarize.MinuteResult{}, fmt.Errorf("summarize minute %d: %w", item.minuteIndex, err)
	}

	summaryRow := recording.Summary{
		RecordingID: s.recordingID,
		MinuteIndex: item.minuteIndex,
		SummaryText: result.SummaryText,
		Keywords:    result.Keywords,
		ModelUsed:   result.ModelUsed,
		Corrections: result.Corrections,
	}
	if _, err := s.repo.CreateSummary(ctx, summaryRow); err != nil {
		return summarize.MinuteResult{}, fmt.Errorf("persist summary for minute %d: %w", item.minuteIndex, err)
	}

	s.mu.Lock()
	s.previousSummary = result.SummaryText
	s.mu.Unlock()

	return result, nil
}

func (s *Session) safeNotify(ctx context.Context, payload map[string]any) {
	if s.notify == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("orchestrator: notify callback panicked", "recording_id", s.recordingID, "recover", r)
			sentry.CurrentHub().Recover(r)
		}
	}()
	s.notify(ctx, payload)
}

// finalize runs after the worker has exited: mark the recording completed,
// generate hour summaries for buckets meeting the threshold, and
// auto-classify. All three stages are best-effort; the session always ends
// even when finalization writes fail.
func (s *Session) finalize(ctx context.Context) error {
	if _, err := s.repo.StopRecording(ctx, s.recordingID); err != nil {
		slog.Warn("orchestrator: failed to mark recording completed", "recording_id", s.recordingID, "error", err)
	}

	summaries, err := s.repo.ListSummaries(ctx, s.recordingID)
	if err != nil {
		slog.Warn("orchestrator: failed to list summaries for finalization", "recording_id", s.recordingID, "error", err)
		return nil
	}

	bestEffort("orchestrator: hour summary generation failed", []any{"recording_id", s.recordingID}, func() error {
		return s.generateHourSummaries(ctx, summaries)
	})

	bestEffort("orchestrator: auto-classification failed", []any{"recording_id", s.recordingID}, func() error {
		return s.autoClassify(ctx, summaries)
	})

	return nil
}

// generateHourSummaries groups summaries by hour bucket (minute_index / 60)
// and persists one HourSummary per bucket holding at least
// [hourBucketMinimum] entries. Buckets below the threshold are skipped.
func (s *Session) generateHourSummaries(ctx context.Context, summaries []recording.Summary) error {
	buckets := make(map[int][]recording.Summary)
	for _, sum := range summaries {
		hour := sum.MinuteIndex / minutesPerHour
		buckets[hour] = append(buckets[hour], sum)
	}

	var firstErr error
	for hour, bucket := range buckets {
		if len(bucket) < hourBucketMinimum {
			continue
		}
		inputs := make([]summarize.MinuteInput, 0, len(bucket))
		for _, sum := range bucket {
			inputs = append(inputs, summarize.MinuteInput{MinuteIndex: sum.MinuteIndex, SummaryText: sum.SummaryText})
		}
		result, err := s.hourSumm.Summarize(ctx, inputs)
		if err != nil {
			slog.Warn("orchestrator: hour summary failed", "recording_id", s.recordingID, "hour_index", hour, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		hourRow := recording.HourSummary{
			RecordingID:   s.recordingID,
			HourIndex:     hour,
			SummaryText:   result.SummaryText,
			Keywords:      result.Keywords,
			TopicSegments: result.TopicSegments,
			TokenCount:    result.TokenCount,
			ModelUsed:     result.ModelUsed,
		}
		if _, err := s.repo.CreateHourSummary(ctx, hourRow); err != nil {
			slog.Warn("orchestrator: failed to persist hour summary", "recording_id", s.recordingID, "hour_index", hour, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// autoClassify concatenates every non-empty summary text, classifies it,
// resolves the best template, and persists one Classification spanning the
// full recording. A recording with no summaries is left without a
// Classification.
func (s *Session) autoClassify(ctx context.Context, summaries []recording.Summary) error {
	var texts []string
	for _, sum := range summaries {
		if strings.TrimSpace(sum.SummaryText) != "" {
			texts = append(texts, sum.SummaryText)
		}
	}
	if len(texts) == 0 {
		return nil
	}
	combined := strings.Join(texts, "\n")

	result, err := s.classifier.Classify(ctx, combined, s.categories)
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}

	templates, err := s.repo.ListTemplates(ctx, true)
	if err != nil {
		return fmt.Errorf("list templates: %w", err)
	}
	tmpl, err := classify.MatchTemplate(templates, result)
	if err != nil {
		return fmt.Errorf("match template: %w", err)
	}

	rec, err := s.repo.GetRecording(ctx, s.recordingID)
	if err != nil {
		return fmt.Errorf("get recording: %w", err)
	}
	endMinute := rec.TotalMinutes - 1
	if endMinute < 0 {
		endMinute = 0
	}

	classification := recording.Classification{
		RecordingID:         s.recordingID,
		TemplateName:        tmpl.Name,
		TemplateID:          tmpl.ID,
		TemplateDisplayName: tmpl.DisplayName,
		TemplateIcon:        tmpl.Icon,
		StartMinute:         0,
		EndMinute:           endMinute,
		Confidence:          result.Confidence,
		ResultJSON: map[string]any{
			"category": result.Category,
			"reason":   result.Reason,
		},
	}
	if _, err := s.repo.CreateClassification(ctx, classification); err != nil {
		return fmt.Errorf("persist classification: %w", err)
	}
	return nil
}
