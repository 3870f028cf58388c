// Package mock provides a thread-safe in-memory implementation of
// [repository.Repository] for tests, with auto-incrementing int64 IDs
// matching the Postgres implementation's BIGSERIAL columns.
package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/recallhq/recall/internal/recording"
	"github.com/recallhq/recall/pkg/repository"
)

// Repository is an in-memory [repository.Repository]. The zero value is
// ready to use.
type Repository struct {
	mu sync.Mutex

	nextRecordingID      int64
	nextTranscriptID     int64
	nextSummaryID        int64
	nextHourSummaryID    int64
	nextTemplateID       int64
	nextClassificationID int64
	nextRAGQueryID       int64

	recordings      map[int64]recording.Recording
	transcripts     map[int64]recording.Transcript
	summaries       map[int64]recording.Summary
	hourSummaries   map[int64]recording.HourSummary
	templates       []recording.Template
	classifications map[int64]recording.Classification
	ragQueries      map[int64]recording.RAGQuery

	// Now returns the current time, overridable in tests. Defaults to
	// time.Now.
	Now func() time.Time
}

// New returns an empty mock Repository seeded with templates.
func New(templates []recording.Template) *Repository {
	return &Repository{
		recordings:      make(map[int64]recording.Recording),
		transcripts:     make(map[int64]recording.Transcript),
		summaries:       make(map[int64]recording.Summary),
		hourSummaries:   make(map[int64]recording.HourSummary),
		templates:       templates,
		classifications: make(map[int64]recording.Classification),
		ragQueries:      make(map[int64]recording.RAGQuery),
		Now:             time.Now,
	}
}

func (r *Repository) CreateRecording(_ context.Context, title, userContext, audioPath string) (recording.Recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextRecordingID++
	rec := recording.Recording{
		ID:        r.nextRecordingID,
		Title:     title,
		Context:   userContext,
		StartedAt: r.Now().UTC(),
		Status:    recording.StatusActive,
		AudioPath: audioPath,
	}
	r.recordings[rec.ID] = rec
	return rec, nil
}

func (r *Repository) GetRecording(_ context.Context, id int64) (recording.Recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.recordings[id]
	if !ok {
		return recording.Recording{}, repository.ErrNotFound
	}
	return rec, nil
}

func (r *Repository) ListRecordings(_ context.Context, status recording.Status, limit, offset int) ([]recording.Recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []recording.Recording
	for _, rec := range r.recordings {
		if status != "" && rec.Status != status {
			continue
		}
		all = append(all, rec)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	if limit <= 0 {
		limit = 50
	}
	if offset >= len(all) {
		return []recording.Recording{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *Repository) UpdateAudioPath(_ context.Context, id int64, audioPath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.recordings[id]
	if !ok {
		return repository.ErrNotFound
	}
	rec.AudioPath = audioPath
	r.recordings[id] = rec
	return nil
}

func (r *Repository) StopRecording(_ context.Context, id int64) (recording.Recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.recordings[id]
	if !ok {
		return recording.Recording{}, repository.ErrNotFound
	}

	now := r.Now().UTC()
	rec.Status = recording.StatusCompleted
	rec.EndedAt = &now
	if !rec.StartedAt.IsZero() {
		minutes := int(now.Sub(rec.StartedAt).Minutes())
		if minutes < 0 {
			minutes = 0
		}
		rec.TotalMinutes = minutes
	}
	r.recordings[id] = rec
	return rec, nil
}

func (r *Repository) DeleteRecording(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.recordings[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.recordings, id)

	for tid, t := range r.transcripts {
		if t.RecordingID == id {
			delete(r.transcripts, tid)
		}
	}
	for sid, s := range r.summaries {
		if s.RecordingID == id {
			delete(r.summaries, sid)
		}
	}
	for hid, hs := range r.hourSummaries {
		if hs.RecordingID == id {
			delete(r.hourSummaries, hid)
		}
	}
	for cid, c := range r.classifications {
		if c.RecordingID == id {
			delete(r.classifications, cid)
		}
	}
	return nil
}

func (r *Repository) CreateTranscript(_ context.Context, t recording.Transcript) (recording.Transcript, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextTranscriptID++
	t.ID = r.nextTranscriptID
	r.transcripts[t.ID] = t
	return t, nil
}

func (r *Repository) ListTranscripts(_ context.Context, recordingID int64) ([]recording.Transcript, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []recording.Transcript
	for _, t := range r.transcripts {
		if t.RecordingID == recordingID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MinuteIndex < out[j].MinuteIndex })
	return out, nil
}

func (r *Repository) CreateSummary(_ context.Context, s recording.Summary) (recording.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextSummaryID++
	s.ID = r.nextSummaryID
	r.summaries[s.ID] = s
	return s, nil
}

func (r *Repository) ListSummaries(_ context.Context, recordingID int64) ([]recording.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summariesFor(recordingID, 0, -1), nil
}

func (r *Repository) ListSummariesInRange(_ context.Context, recordingID int64, startMinute, endMinute int) ([]recording.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summariesFor(recordingID, startMinute, endMinute), nil
}

// summariesFor must be called with r.mu held. endMinute < 0 means unbounded.
func (r *Repository) summariesFor(recordingID int64, startMinute, endMinute int) []recording.Summary {
	var out []recording.Summary
	for _, s := range r.summaries {
		if s.RecordingID != recordingID {
			continue
		}
		if s.MinuteIndex < startMinute {
			continue
		}
		if endMinute >= 0 && s.MinuteIndex > endMinute {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MinuteIndex < out[j].MinuteIndex })
	return out
}

func (r *Repository) CreateHourSummary(_ context.Context, hs recording.HourSummary) (recording.HourSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextHourSummaryID++
	hs.ID = r.nextHourSummaryID
	r.hourSummaries[hs.ID] = hs
	return hs, nil
}

func (r *Repository) ListHourSummaries(_ context.Context, recordingID int64) ([]recording.HourSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []recording.HourSummary
	for _, hs := range r.hourSummaries {
		if hs.RecordingID == recordingID {
			out = append(out, hs)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HourIndex < out[j].HourIndex })
	return out, nil
}

func (r *Repository) ListTemplates(_ context.Context, activeOnly bool) ([]recording.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !activeOnly {
		out := make([]recording.Template, len(r.templates))
		copy(out, r.templates)
		return out, nil
	}
	var out []recording.Template
	for _, t := range r.templates {
		if t.IsActive {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *Repository) GetTemplateByName(_ context.Context, name string) (recording.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var best recording.Template
	found := false
	for _, t := range r.templates {
		if t.Name != name {
			continue
		}
		if !found || t.Priority > best.Priority {
			best = t
			found = true
		}
	}
	if !found {
		return recording.Template{}, repository.ErrNotFound
	}
	return best, nil
}

func (r *Repository) CreateTemplate(_ context.Context, t recording.Template) (recording.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t.IsDefault {
		for i := range r.templates {
			r.templates[i].IsDefault = false
		}
	}
	r.nextTemplateID++
	if t.ID == 0 {
		t.ID = r.nextTemplateID
	}
	r.templates = append(r.templates, t)
	return t, nil
}

func (r *Repository) CreateClassification(_ context.Context, c recording.Classification) (recording.Classification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextClassificationID++
	c.ID = r.nextClassificationID
	r.classifications[c.ID] = c
	return c, nil
}

func (r *Repository) GetClassification(_ context.Context, recordingID int64) (recording.Classification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var best recording.Classification
	found := false
	for _, c := range r.classifications {
		if c.RecordingID != recordingID {
			continue
		}
		if !found || c.ID > best.ID {
			best = c
			found = true
		}
	}
	if !found {
		return recording.Classification{}, repository.ErrNotFound
	}
	return best, nil
}

func (r *Repository) ListClassifications(_ context.Context, recordingID int64) ([]recording.Classification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []recording.Classification
	for _, c := range r.classifications {
		if c.RecordingID == recordingID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *Repository) CreateRAGQuery(_ context.Context, q recording.RAGQuery) (recording.RAGQuery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextRAGQueryID++
	q.ID = r.nextRAGQueryID
	q.CreatedAt = r.Now().UTC()
	r.ragQueries[q.ID] = q
	return q, nil
}

// RAGQueries returns every recorded RAG query, oldest first. Test helper.
func (r *Repository) RAGQueries() []recording.RAGQuery {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]recording.RAGQuery, 0, len(r.ragQueries))
	for _, q := range r.ragQueries {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

var _ repository.Repository = (*Repository)(nil)
