package mock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/recallhq/recall/internal/recording"
	"github.com/recallhq/recall/pkg/repository"
	"github.com/recallhq/recall/pkg/repository/mock"
)

func TestCreateAndGetRecording(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := mock.New(nil)

	rec, err := repo.CreateRecording(ctx, "lecture one", "cs lecture", "/audio/1.wav")
	if err != nil {
		t.Fatalf("CreateRecording: %v", err)
	}
	if rec.ID == 0 {
		t.Fatal("CreateRecording: expected non-zero ID")
	}
	if rec.Status != recording.StatusActive {
		t.Fatalf("Status = %q, want active", rec.Status)
	}

	got, err := repo.GetRecording(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetRecording: %v", err)
	}
	if got.Title != "lecture one" {
		t.Fatalf("Title = %q, want %q", got.Title, "lecture one")
	}
}

func TestGetRecording_NotFound(t *testing.T) {
	t.Parallel()
	repo := mock.New(nil)
	_, err := repo.GetRecording(context.Background(), 999)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStopRecording_ComputesTotalMinutes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := mock.New(nil)
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	repo.Now = func() time.Time { return start }

	rec, err := repo.CreateRecording(ctx, "t", "", "")
	if err != nil {
		t.Fatalf("CreateRecording: %v", err)
	}

	repo.Now = func() time.Time { return start.Add(90*time.Minute + 30*time.Second) }
	stopped, err := repo.StopRecording(ctx, rec.ID)
	if err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
	if stopped.Status != recording.StatusCompleted {
		t.Fatalf("Status = %q, want completed", stopped.Status)
	}
	if stopped.EndedAt == nil {
		t.Fatal("EndedAt = nil, want set")
	}
	if stopped.TotalMinutes != 90 {
		t.Fatalf("TotalMinutes = %d, want 90", stopped.TotalMinutes)
	}
}

func TestDeleteRecording_CascadesChildren(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := mock.New(nil)

	rec, err := repo.CreateRecording(ctx, "t", "", "")
	if err != nil {
		t.Fatalf("CreateRecording: %v", err)
	}
	if _, err := repo.CreateSummary(ctx, recording.Summary{RecordingID: rec.ID, MinuteIndex: 0, SummaryText: "s"}); err != nil {
		t.Fatalf("CreateSummary: %v", err)
	}

	if err := repo.DeleteRecording(ctx, rec.ID); err != nil {
		t.Fatalf("DeleteRecording: %v", err)
	}

	summaries, err := repo.ListSummaries(ctx, rec.ID)
	if err != nil {
		t.Fatalf("ListSummaries: %v", err)
	}
	if len(summaries) != 0 {
		t.Fatalf("len(summaries) = %d, want 0 after cascade delete", len(summaries))
	}
}

func TestListSummariesInRange(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := mock.New(nil)

	rec, err := repo.CreateRecording(ctx, "t", "", "")
	if err != nil {
		t.Fatalf("CreateRecording: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := repo.CreateSummary(ctx, recording.Summary{RecordingID: rec.ID, MinuteIndex: i, SummaryText: "s"}); err != nil {
			t.Fatalf("CreateSummary %d: %v", i, err)
		}
	}

	got, err := repo.ListSummariesInRange(ctx, rec.ID, 1, 3)
	if err != nil {
		t.Fatalf("ListSummariesInRange: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len(got) = %d, want 3", len(got))
	}
	for i, s := range got {
		if s.MinuteIndex != i+1 {
			t.Fatalf("got[%d].MinuteIndex = %d, want %d", i, s.MinuteIndex, i+1)
		}
	}
}

func TestGetClassification_ReturnsMostRecent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := mock.New(nil)

	rec, err := repo.CreateRecording(ctx, "t", "", "")
	if err != nil {
		t.Fatalf("CreateRecording: %v", err)
	}
	if _, err := repo.CreateClassification(ctx, recording.Classification{RecordingID: rec.ID, TemplateName: "memo"}); err != nil {
		t.Fatalf("CreateClassification 1: %v", err)
	}
	if _, err := repo.CreateClassification(ctx, recording.Classification{RecordingID: rec.ID, TemplateName: "lecture"}); err != nil {
		t.Fatalf("CreateClassification 2: %v", err)
	}

	got, err := repo.GetClassification(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetClassification: %v", err)
	}
	if got.TemplateName != "lecture" {
		t.Fatalf("TemplateName = %q, want lecture (most recent)", got.TemplateName)
	}
}

func TestUpdateAudioPath(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := mock.New(nil)

	rec, err := repo.CreateRecording(ctx, "t", "", "")
	if err != nil {
		t.Fatalf("CreateRecording: %v", err)
	}
	if err := repo.UpdateAudioPath(ctx, rec.ID, "/audio/out.wav"); err != nil {
		t.Fatalf("UpdateAudioPath: %v", err)
	}

	got, err := repo.GetRecording(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetRecording: %v", err)
	}
	if got.AudioPath != "/audio/out.wav" {
		t.Fatalf("AudioPath = %q, want /audio/out.wav", got.AudioPath)
	}

	if err := repo.UpdateAudioPath(ctx, 999, "/nope.wav"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetTemplateByName(t *testing.T) {
	t.Parallel()
	repo := mock.New([]recording.Template{
		{ID: 1, Name: "lecture", Priority: 5, IsActive: true},
		{ID: 2, Name: "lecture", Priority: 10, IsActive: true},
	})

	got, err := repo.GetTemplateByName(context.Background(), "lecture")
	if err != nil {
		t.Fatalf("GetTemplateByName: %v", err)
	}
	if got.ID != 2 {
		t.Fatalf("ID = %d, want the highest-priority match (2)", got.ID)
	}

	if _, err := repo.GetTemplateByName(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateTemplate_DemotesPreviousDefault(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := mock.New([]recording.Template{
		{ID: 1, Name: "memo", IsDefault: true, IsActive: true},
	})

	if _, err := repo.CreateTemplate(ctx, recording.Template{Name: "meeting", IsDefault: true, IsActive: true}); err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}

	all, err := repo.ListTemplates(ctx, false)
	if err != nil {
		t.Fatalf("ListTemplates: %v", err)
	}
	defaults := 0
	for _, tmpl := range all {
		if tmpl.IsDefault {
			defaults++
			if tmpl.Name != "meeting" {
				t.Fatalf("default template = %q, want meeting", tmpl.Name)
			}
		}
	}
	if defaults != 1 {
		t.Fatalf("defaults = %d, want exactly 1", defaults)
	}
}

func TestListClassifications_NewestFirst(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := mock.New(nil)

	rec, err := repo.CreateRecording(ctx, "t", "", "")
	if err != nil {
		t.Fatalf("CreateRecording: %v", err)
	}
	if _, err := repo.CreateClassification(ctx, recording.Classification{RecordingID: rec.ID, TemplateName: "memo"}); err != nil {
		t.Fatalf("CreateClassification 1: %v", err)
	}
	if _, err := repo.CreateClassification(ctx, recording.Classification{RecordingID: rec.ID, TemplateName: "lecture"}); err != nil {
		t.Fatalf("CreateClassification 2: %v", err)
	}

	got, err := repo.ListClassifications(ctx, rec.ID)
	if err != nil {
		t.Fatalf("ListClassifications: %v", err)
	}
	if len(got) != 2 || got[0].TemplateName != "lecture" {
		t.Fatalf("got = %+v, want lecture first", got)
	}
}

func TestCreateRAGQuery(t *testing.T) {
	t.Parallel()
	repo := mock.New(nil)

	q, err := repo.CreateRAGQuery(context.Background(), recording.RAGQuery{
		Query:       "what was covered last week?",
		Answer:      "transformers",
		SourceCount: 2,
		ModelUsed:   "test-model",
		QueryTimeMs: 12,
	})
	if err != nil {
		t.Fatalf("CreateRAGQuery: %v", err)
	}
	if q.ID == 0 {
		t.Fatal("CreateRAGQuery: expected non-zero ID")
	}
	if q.CreatedAt.IsZero() {
		t.Fatal("CreateRAGQuery: expected CreatedAt to be set")
	}

	all := repo.RAGQueries()
	if len(all) != 1 || all[0].Query != "what was covered last week?" {
		t.Fatalf("RAGQueries = %+v, want the stored query", all)
	}
}

func TestListTemplates_ActiveOnly(t *testing.T) {
	t.Parallel()
	templates := []recording.Template{
		{Name: "lecture", IsActive: true},
		{Name: "archived", IsActive: false},
	}
	repo := mock.New(templates)

	active, err := repo.ListTemplates(context.Background(), true)
	if err != nil {
		t.Fatalf("ListTemplates: %v", err)
	}
	if len(active) != 1 || active[0].Name != "lecture" {
		t.Fatalf("active = %+v, want only lecture", active)
	}
}
