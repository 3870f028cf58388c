// Package repository defines the data-access layer shared by the
// orchestrator, the RAG planner, and any HTTP surface placed above them:
// recordings, their transcripts and summaries, hour-level rollups,
// classification templates, and classification results.
package repository

import (
	"context"
	"errors"

	"github.com/recallhq/recall/internal/recording"
)

// ErrNotFound is returned by any Get*/single-row lookup when the requested
// row does not exist.
var ErrNotFound = errors.New("repository: not found")

// Repository is the full data-access surface for the recording pipeline.
// Implementations must be safe for concurrent use.
type Repository interface {
	// CreateRecording inserts a new recording with [recording.StatusActive]
	// and returns it with its generated ID and StartedAt populated.
	CreateRecording(ctx context.Context, title, userContext, audioPath string) (recording.Recording, error)

	// GetRecording returns the recording identified by id.
	// Returns [ErrNotFound] if it does not exist.
	GetRecording(ctx context.Context, id int64) (recording.Recording, error)

	// ListRecordings returns recordings ordered by ID descending, optionally
	// restricted to one status, up to limit starting at offset. A zero limit
	// applies the implementation's default page size.
	ListRecordings(ctx context.Context, status recording.Status, limit, offset int) ([]recording.Recording, error)

	// UpdateAudioPath records where a recording's audio file was persisted.
	// Returns [ErrNotFound] if the recording does not exist.
	UpdateAudioPath(ctx context.Context, id int64, audioPath string) error

	// StopRecording marks a recording [recording.StatusCompleted], sets
	// EndedAt to now, and computes TotalMinutes from the elapsed duration.
	// Returns [ErrNotFound] if the recording does not exist.
	StopRecording(ctx context.Context, id int64) (recording.Recording, error)

	// DeleteRecording removes a recording and cascades to every child row
	// (transcripts, summaries, hour summaries, classifications).
	// Returns [ErrNotFound] if the recording does not exist.
	DeleteRecording(ctx context.Context, id int64) error

	// CreateTranscript inserts one minute-indexed transcript fragment.
	CreateTranscript(ctx context.Context, t recording.Transcript) (recording.Transcript, error)

	// ListTranscripts returns every transcript for recordingID ordered by
	// minute index ascending.
	ListTranscripts(ctx context.Context, recordingID int64) ([]recording.Transcript, error)

	// CreateSummary inserts one minute-level summary.
	CreateSummary(ctx context.Context, s recording.Summary) (recording.Summary, error)

	// ListSummaries returns every summary for recordingID ordered by minute
	// index ascending.
	ListSummaries(ctx context.Context, recordingID int64) ([]recording.Summary, error)

	// ListSummariesInRange returns summaries for recordingID whose minute
	// index falls in [startMinute, endMinute] inclusive, ordered ascending.
	ListSummariesInRange(ctx context.Context, recordingID int64, startMinute, endMinute int) ([]recording.Summary, error)

	// CreateHourSummary inserts one hour-level rollup.
	CreateHourSummary(ctx context.Context, hs recording.HourSummary) (recording.HourSummary, error)

	// ListHourSummaries returns every hour summary for recordingID ordered
	// by hour index ascending.
	ListHourSummaries(ctx context.Context, recordingID int64) ([]recording.HourSummary, error)

	// ListTemplates returns every template, optionally restricted to
	// IsActive == true.
	ListTemplates(ctx context.Context, activeOnly bool) ([]recording.Template, error)

	// GetTemplateByName returns the highest-priority template with the given name.
	// Returns [ErrNotFound] if none exists.
	GetTemplateByName(ctx context.Context, name string) (recording.Template, error)

	// CreateTemplate inserts one template. When t.IsDefault is true, any
	// previously default template is demoted in the same transaction so at
	// most one default exists.
	CreateTemplate(ctx context.Context, t recording.Template) (recording.Template, error)

	// CreateClassification inserts one classification result for a
	// recording.
	CreateClassification(ctx context.Context, c recording.Classification) (recording.Classification, error)

	// GetClassification returns the most recently created classification
	// for recordingID. Returns [ErrNotFound] if none exists.
	GetClassification(ctx context.Context, recordingID int64) (recording.Classification, error)

	// ListClassifications returns every classification for recordingID,
	// newest first.
	ListClassifications(ctx context.Context, recordingID int64) ([]recording.Classification, error)

	// CreateRAGQuery records one retrieval-augmented query and its outcome.
	CreateRAGQuery(ctx context.Context, q recording.RAGQuery) (recording.RAGQuery, error)
}
