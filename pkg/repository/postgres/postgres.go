// Package postgres implements [repository.Repository] on top of PostgreSQL
// via pgx/pgxpool, covering the full recording schema: recordings,
// transcripts, summaries, hour_summaries, templates, classifications, and
// rag_queries.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/recallhq/recall/internal/recording"
	"github.com/recallhq/recall/pkg/repository"
)

const defaultListLimit = 50

const ddlSchema = `
CREATE TABLE IF NOT EXISTS recordings (
    id            BIGSERIAL    PRIMARY KEY,
    title         TEXT         NOT NULL DEFAULT '',
    context       TEXT         NOT NULL DEFAULT '',
    started_at    TIMESTAMPTZ  NOT NULL DEFAULT now(),
    ended_at      TIMESTAMPTZ,
    audio_path    TEXT         NOT NULL DEFAULT '',
    status        TEXT         NOT NULL DEFAULT 'active',
    total_minutes INTEGER      NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_recordings_status ON recordings (status);

CREATE TABLE IF NOT EXISTS transcripts (
    id           BIGSERIAL    PRIMARY KEY,
    recording_id BIGINT       NOT NULL REFERENCES recordings (id) ON DELETE CASCADE,
    minute_index INTEGER      NOT NULL,
    text         TEXT         NOT NULL DEFAULT '',
    confidence   DOUBLE PRECISION NOT NULL DEFAULT 0,
    language     TEXT         NOT NULL DEFAULT 'unknown',
    created_at   TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_transcripts_recording_minute
    ON transcripts (recording_id, minute_index);

CREATE TABLE IF NOT EXISTS summaries (
    id           BIGSERIAL    PRIMARY KEY,
    recording_id BIGINT       NOT NULL REFERENCES recordings (id) ON DELETE CASCADE,
    minute_index INTEGER      NOT NULL,
    summary_text TEXT         NOT NULL DEFAULT '',
    keywords     JSONB        NOT NULL DEFAULT '[]',
    speakers     JSONB        NOT NULL DEFAULT '[]',
    confidence   DOUBLE PRECISION NOT NULL DEFAULT 0,
    model_used   TEXT         NOT NULL DEFAULT '',
    corrections  JSONB        NOT NULL DEFAULT '[]',
    created_at   TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_summaries_recording_minute
    ON summaries (recording_id, minute_index);

CREATE TABLE IF NOT EXISTS hour_summaries (
    id             BIGSERIAL    PRIMARY KEY,
    recording_id   BIGINT       NOT NULL REFERENCES recordings (id) ON DELETE CASCADE,
    hour_index     INTEGER      NOT NULL,
    summary_text   TEXT         NOT NULL DEFAULT '',
    keywords       JSONB        NOT NULL DEFAULT '[]',
    topic_segments JSONB        NOT NULL DEFAULT '[]',
    token_count    INTEGER      NOT NULL DEFAULT 0,
    model_used     TEXT         NOT NULL DEFAULT '',
    created_at     TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_hour_summaries_recording_hour
    ON hour_summaries (recording_id, hour_index);

CREATE TABLE IF NOT EXISTS templates (
    id            BIGSERIAL    PRIMARY KEY,
    name          TEXT         NOT NULL,
    display_name  TEXT         NOT NULL DEFAULT '',
    triggers      JSONB        NOT NULL DEFAULT '[]',
    output_format TEXT         NOT NULL DEFAULT '',
    fields        JSONB        NOT NULL DEFAULT '[]',
    icon          TEXT         NOT NULL DEFAULT '',
    priority      INTEGER      NOT NULL DEFAULT 0,
    is_default    BOOLEAN      NOT NULL DEFAULT false,
    is_active     BOOLEAN      NOT NULL DEFAULT true
);

CREATE TABLE IF NOT EXISTS classifications (
    id                    BIGSERIAL    PRIMARY KEY,
    recording_id          BIGINT       NOT NULL REFERENCES recordings (id) ON DELETE CASCADE,
    template_name         TEXT         NOT NULL DEFAULT '',
    template_id           BIGINT       NOT NULL DEFAULT 0,
    template_display_name TEXT         NOT NULL DEFAULT '',
    template_icon         TEXT         NOT NULL DEFAULT '',
    start_minute          INTEGER      NOT NULL DEFAULT 0,
    end_minute            INTEGER      NOT NULL DEFAULT 0,
    confidence            DOUBLE PRECISION NOT NULL DEFAULT 0,
    result_json           JSONB        NOT NULL DEFAULT '{}',
    created_at            TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_classifications_recording
    ON classifications (recording_id, id DESC);

CREATE TABLE IF NOT EXISTS rag_queries (
    id            BIGSERIAL    PRIMARY KEY,
    query         TEXT         NOT NULL,
    answer        TEXT         NOT NULL DEFAULT '',
    source_count  INTEGER      NOT NULL DEFAULT 0,
    model_used    TEXT         NOT NULL DEFAULT '',
    query_time_ms BIGINT       NOT NULL DEFAULT 0,
    created_at    TIMESTAMPTZ  NOT NULL DEFAULT now()
);
`

// Repository is a PostgreSQL-backed [repository.Repository].
type Repository struct {
	pool *pgxpool.Pool
}

// New connects a pool to dsn and migrates the schema.
func New(ctx context.Context, dsn string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("repository: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("repository: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, ddlSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("repository: migrate: %w", err)
	}
	return &Repository{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (r *Repository) Close() {
	r.pool.Close()
}

// withTx runs fn inside one transaction: commit when fn returns nil, roll
// back when it returns an error or panics.
func (r *Repository) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: commit tx: %w", err)
	}
	return nil
}

func (r *Repository) CreateRecording(ctx context.Context, title, userContext, audioPath string) (recording.Recording, error) {
	const q = `
		INSERT INTO recordings (title, context, audio_path, status)
		VALUES ($1, $2, $3, 'active')
		RETURNING id, title, context, started_at, ended_at, audio_path, status, total_minutes`

	var rec recording.Recording
	row := r.pool.QueryRow(ctx, q, title, userContext, audioPath)
	if err := scanRecording(row, &rec); err != nil {
		return recording.Recording{}, fmt.Errorf("repository: create recording: %w", err)
	}
	return rec, nil
}

func (r *Repository) GetRecording(ctx context.Context, id int64) (recording.Recording, error) {
	const q = `
		SELECT id, title, context, started_at, ended_at, audio_path, status, total_minutes
		FROM   recordings WHERE id = $1`

	var rec recording.Recording
	row := r.pool.QueryRow(ctx, q, id)
	if err := scanRecording(row, &rec); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return recording.Recording{}, repository.ErrNotFound
		}
		return recording.Recording{}, fmt.Errorf("repository: get recording %d: %w", id, err)
	}
	return rec, nil
}

func (r *Repository) ListRecordings(ctx context.Context, status recording.Status, limit, offset int) ([]recording.Recording, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	q := `
		SELECT id, title, context, started_at, ended_at, audio_path, status, total_minutes
		FROM   recordings`
	args := []any{}
	if status != "" {
		args = append(args, string(status))
		q += fmt.Sprintf(" WHERE status = $%d", len(args))
	}
	args = append(args, limit)
	q += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d", len(args))
	args = append(args, offset)
	q += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: list recordings: %w", err)
	}
	recordings, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (recording.Recording, error) {
		var rec recording.Recording
		err := scanRecording(row, &rec)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("repository: scan recordings: %w", err)
	}
	if recordings == nil {
		recordings = []recording.Recording{}
	}
	return recordings, nil
}

func (r *Repository) UpdateAudioPath(ctx context.Context, id int64, audioPath string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE recordings SET audio_path = $2 WHERE id = $1`, id, audioPath)
	if err != nil {
		return fmt.Errorf("repository: update audio path for recording %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *Repository) StopRecording(ctx context.Context, id int64) (recording.Recording, error) {
	const q = `
		UPDATE recordings
		SET    status = 'completed',
		       ended_at = now(),
		       total_minutes = GREATEST(0, FLOOR(EXTRACT(EPOCH FROM (now() - started_at)) / 60))
		WHERE  id = $1
		RETURNING id, title, context, started_at, ended_at, audio_path, status, total_minutes`

	var rec recording.Recording
	row := r.pool.QueryRow(ctx, q, id)
	if err := scanRecording(row, &rec); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return recording.Recording{}, repository.ErrNotFound
		}
		return recording.Recording{}, fmt.Errorf("repository: stop recording %d: %w", id, err)
	}
	return rec, nil
}

func (r *Repository) DeleteRecording(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM recordings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: delete recording %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *Repository) CreateTranscript(ctx context.Context, t recording.Transcript) (recording.Transcript, error) {
	const q = `
		INSERT INTO transcripts (recording_id, minute_index, text, confidence, language)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	row := r.pool.QueryRow(ctx, q, t.RecordingID, t.MinuteIndex, t.Text, t.Confidence, t.Language)
	if err := row.Scan(&t.ID); err != nil {
		return recording.Transcript{}, fmt.Errorf("repository: create transcript: %w", err)
	}
	return t, nil
}

func (r *Repository) ListTranscripts(ctx context.Context, recordingID int64) ([]recording.Transcript, error) {
	const q = `
		SELECT id, recording_id, minute_index, text, confidence, language
		FROM   transcripts WHERE recording_id = $1 ORDER BY minute_index`

	rows, err := r.pool.Query(ctx, q, recordingID)
	if err != nil {
		return nil, fmt.Errorf("repository: list transcripts: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (recording.Transcript, error) {
		var t recording.Transcript
		err := row.Scan(&t.ID, &t.RecordingID, &t.MinuteIndex, &t.Text, &t.Confidence, &t.Language)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("repository: scan transcripts: %w", err)
	}
	if out == nil {
		out = []recording.Transcript{}
	}
	return out, nil
}

func (r *Repository) CreateSummary(ctx context.Context, s recording.Summary) (recording.Summary, error) {
	keywords, err := json.Marshal(orEmptySlice(s.Keywords))
	if err != nil {
		return recording.Summary{}, fmt.Errorf("repository: marshal keywords: %w", err)
	}
	speakers, err := json.Marshal(orEmptySlice(s.Speakers))
	if err != nil {
		return recording.Summary{}, fmt.Errorf("repository: marshal speakers: %w", err)
	}
	corrections, err := json.Marshal(s.Corrections)
	if err != nil {
		return recording.Summary{}, fmt.Errorf("repository: marshal corrections: %w", err)
	}

	const q = `
		INSERT INTO summaries
		    (recording_id, minute_index, summary_text, keywords, speakers, confidence, model_used, corrections)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	row := r.pool.QueryRow(ctx, q, s.RecordingID, s.MinuteIndex, s.SummaryText, keywords, speakers, s.Confidence, s.ModelUsed, corrections)
	if err := row.Scan(&s.ID); err != nil {
		return recording.Summary{}, fmt.Errorf("repository: create summary: %w", err)
	}
	return s, nil
}

func (r *Repository) ListSummaries(ctx context.Context, recordingID int64) ([]recording.Summary, error) {
	return r.querySummaries(ctx, `
		SELECT id, recording_id, minute_index, summary_text, keywords, speakers, confidence, model_used, corrections
		FROM   summaries WHERE recording_id = $1 ORDER BY minute_index`, recordingID)
}

func (r *Repository) ListSummariesInRange(ctx context.Context, recordingID int64, startMinute, endMinute int) ([]recording.Summary, error) {
	return r.querySummaries(ctx, `
		SELECT id, recording_id, minute_index, summary_text, keywords, speakers, confidence, model_used, corrections
		FROM   summaries
		WHERE  recording_id = $1 AND minute_index BETWEEN $2 AND $3
		ORDER  BY minute_index`, recordingID, startMinute, endMinute)
}

func (r *Repository) querySummaries(ctx context.Context, q string, args ...any) ([]recording.Summary, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: query summaries: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (recording.Summary, error) {
		var (
			s           recording.Summary
			keywords    []byte
			speakers    []byte
			corrections []byte
		)
		if err := row.Scan(&s.ID, &s.RecordingID, &s.MinuteIndex, &s.SummaryText, &keywords, &speakers, &s.Confidence, &s.ModelUsed, &corrections); err != nil {
			return recording.Summary{}, err
		}
		if err := json.Unmarshal(keywords, &s.Keywords); err != nil {
			return recording.Summary{}, err
		}
		if err := json.Unmarshal(speakers, &s.Speakers); err != nil {
			return recording.Summary{}, err
		}
		if err := json.Unmarshal(corrections, &s.Corrections); err != nil {
			return recording.Summary{}, err
		}
		return s, nil
	})
	if err != nil {
		return nil, fmt.Errorf("repository: scan summaries: %w", err)
	}
	if out == nil {
		out = []recording.Summary{}
	}
	return out, nil
}

func (r *Repository) CreateHourSummary(ctx context.Context, hs recording.HourSummary) (recording.HourSummary, error) {
	keywords, err := json.Marshal(orEmptySlice(hs.Keywords))
	if err != nil {
		return recording.HourSummary{}, fmt.Errorf("repository: marshal keywords: %w", err)
	}
	segments, err := json.Marshal(hs.TopicSegments)
	if err != nil {
		return recording.HourSummary{}, fmt.Errorf("repository: marshal topic segments: %w", err)
	}

	const q = `
		INSERT INTO hour_summaries
		    (recording_id, hour_index, summary_text, keywords, topic_segments, token_count, model_used)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	row := r.pool.QueryRow(ctx, q, hs.RecordingID, hs.HourIndex, hs.SummaryText, keywords, segments, hs.TokenCount, hs.ModelUsed)
	if err := row.Scan(&hs.ID); err != nil {
		return recording.HourSummary{}, fmt.Errorf("repository: create hour summary: %w", err)
	}
	return hs, nil
}

func (r *Repository) ListHourSummaries(ctx context.Context, recordingID int64) ([]recording.HourSummary, error) {
	const q = `
		SELECT id, recording_id, hour_index, summary_text, keywords, topic_segments, token_count, model_used
		FROM   hour_summaries WHERE recording_id = $1 ORDER BY hour_index`

	rows, err := r.pool.Query(ctx, q, recordingID)
	if err != nil {
		return nil, fmt.Errorf("repository: list hour summaries: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (recording.HourSummary, error) {
		var (
			hs       recording.HourSummary
			keywords []byte
			segments []byte
		)
		if err := row.Scan(&hs.ID, &hs.RecordingID, &hs.HourIndex, &hs.SummaryText, &keywords, &segments, &hs.TokenCount, &hs.ModelUsed); err != nil {
			return recording.HourSummary{}, err
		}
		if err := json.Unmarshal(keywords, &hs.Keywords); err != nil {
			return recording.HourSummary{}, err
		}
		if err := json.Unmarshal(segments, &hs.TopicSegments); err != nil {
			return recording.HourSummary{}, err
		}
		return hs, nil
	})
	if err != nil {
		return nil, fmt.Errorf("repository: scan hour summaries: %w", err)
	}
	if out == nil {
		out = []recording.HourSummary{}
	}
	return out, nil
}

func (r *Repository) ListTemplates(ctx context.Context, activeOnly bool) ([]recording.Template, error) {
	q := `
		SELECT id, name, display_name, triggers, output_format, fields, icon, priority, is_default, is_active
		FROM   templates`
	if activeOnly {
		q += " WHERE is_active"
	}
	q += " ORDER BY priority DESC"

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repository: list templates: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (recording.Template, error) {
		var (
			t        recording.Template
			triggers []byte
			fields   []byte
		)
		if err := row.Scan(&t.ID, &t.Name, &t.DisplayName, &triggers, &t.OutputFormat, &fields, &t.Icon, &t.Priority, &t.IsDefault, &t.IsActive); err != nil {
			return recording.Template{}, err
		}
		if err := json.Unmarshal(triggers, &t.Triggers); err != nil {
			return recording.Template{}, err
		}
		if err := json.Unmarshal(fields, &t.Fields); err != nil {
			return recording.Template{}, err
		}
		return t, nil
	})
	if err != nil {
		return nil, fmt.Errorf("repository: scan templates: %w", err)
	}
	if out == nil {
		out = []recording.Template{}
	}
	return out, nil
}

func (r *Repository) GetTemplateByName(ctx context.Context, name string) (recording.Template, error) {
	const q = `
		SELECT id, name, display_name, triggers, output_format, fields, icon, priority, is_default, is_active
		FROM   templates WHERE name = $1
		ORDER  BY priority DESC
		LIMIT  1`

	var (
		t        recording.Template
		triggers []byte
		fields   []byte
	)
	row := r.pool.QueryRow(ctx, q, name)
	err := row.Scan(&t.ID, &t.Name, &t.DisplayName, &triggers, &t.OutputFormat, &fields, &t.Icon, &t.Priority, &t.IsDefault, &t.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return recording.Template{}, repository.ErrNotFound
		}
		return recording.Template{}, fmt.Errorf("repository: get template %q: %w", name, err)
	}
	if err := json.Unmarshal(triggers, &t.Triggers); err != nil {
		return recording.Template{}, fmt.Errorf("repository: unmarshal triggers: %w", err)
	}
	if err := json.Unmarshal(fields, &t.Fields); err != nil {
		return recording.Template{}, fmt.Errorf("repository: unmarshal fields: %w", err)
	}
	return t, nil
}

func (r *Repository) CreateTemplate(ctx context.Context, t recording.Template) (recording.Template, error) {
	triggers, err := json.Marshal(orEmptySlice(t.Triggers))
	if err != nil {
		return recording.Template{}, fmt.Errorf("repository: marshal triggers: %w", err)
	}
	fields := []byte("[]")
	if t.Fields != nil {
		fields, err = json.Marshal(t.Fields)
		if err != nil {
			return recording.Template{}, fmt.Errorf("repository: marshal fields: %w", err)
		}
	}

	err = r.withTx(ctx, func(tx pgx.Tx) error {
		if t.IsDefault {
			if _, err := tx.Exec(ctx, `UPDATE templates SET is_default = false WHERE is_default`); err != nil {
				return fmt.Errorf("repository: demote previous default template: %w", err)
			}
		}
		const q = `
			INSERT INTO templates
			    (name, display_name, triggers, output_format, fields, icon, priority, is_default, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id`
		row := tx.QueryRow(ctx, q, t.Name, t.DisplayName, triggers, t.OutputFormat, fields, t.Icon, t.Priority, t.IsDefault, t.IsActive)
		if err := row.Scan(&t.ID); err != nil {
			return fmt.Errorf("repository: create template: %w", err)
		}
		return nil
	})
	if err != nil {
		return recording.Template{}, err
	}
	return t, nil
}

func (r *Repository) CreateClassification(ctx context.Context, c recording.Classification) (recording.Classification, error) {
	resultJSON, err := json.Marshal(c.ResultJSON)
	if err != nil {
		return recording.Classification{}, fmt.Errorf("repository: marshal result json: %w", err)
	}

	const q = `
		INSERT INTO classifications
		    (recording_id, template_name, template_id, template_display_name, template_icon,
		     start_minute, end_minute, confidence, result_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	row := r.pool.QueryRow(ctx, q, c.RecordingID, c.TemplateName, c.TemplateID, c.TemplateDisplayName,
		c.TemplateIcon, c.StartMinute, c.EndMinute, c.Confidence, resultJSON)
	if err := row.Scan(&c.ID); err != nil {
		return recording.Classification{}, fmt.Errorf("repository: create classification: %w", err)
	}
	return c, nil
}

func (r *Repository) GetClassification(ctx context.Context, recordingID int64) (recording.Classification, error) {
	const q = `
		SELECT id, recording_id, template_name, template_id, template_display_name, template_icon,
		       start_minute, end_minute, confidence, result_json
		FROM   classifications
		WHERE  recording_id = $1
		ORDER  BY id DESC
		LIMIT  1`

	var (
		c          recording.Classification
		resultJSON []byte
	)
	row := r.pool.QueryRow(ctx, q, recordingID)
	err := row.Scan(&c.ID, &c.RecordingID, &c.TemplateName, &c.TemplateID, &c.TemplateDisplayName,
		&c.TemplateIcon, &c.StartMinute, &c.EndMinute, &c.Confidence, &resultJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return recording.Classification{}, repository.ErrNotFound
		}
		return recording.Classification{}, fmt.Errorf("repository: get classification: %w", err)
	}
	if err := json.Unmarshal(resultJSON, &c.ResultJSON); err != nil {
		return recording.Classification{}, fmt.Errorf("repository: unmarshal result json: %w", err)
	}
	return c, nil
}

func (r *Repository) ListClassifications(ctx context.Context, recordingID int64) ([]recording.Classification, error) {
	const q = `
		SELECT id, recording_id, template_name, template_id, template_display_name, template_icon,
		       start_minute, end_minute, confidence, result_json
		FROM   classifications
		WHERE  recording_id = $1
		ORDER  BY id DESC`

	rows, err := r.pool.Query(ctx, q, recordingID)
	if err != nil {
		return nil, fmt.Errorf("repository: list classifications: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (recording.Classification, error) {
		var (
			c          recording.Classification
			resultJSON []byte
		)
		if err := row.Scan(&c.ID, &c.RecordingID, &c.TemplateName, &c.TemplateID, &c.TemplateDisplayName,
			&c.TemplateIcon, &c.StartMinute, &c.EndMinute, &c.Confidence, &resultJSON); err != nil {
			return recording.Classification{}, err
		}
		if err := json.Unmarshal(resultJSON, &c.ResultJSON); err != nil {
			return recording.Classification{}, err
		}
		return c, nil
	})
	if err != nil {
		return nil, fmt.Errorf("repository: scan classifications: %w", err)
	}
	if out == nil {
		out = []recording.Classification{}
	}
	return out, nil
}

func (r *Repository) CreateRAGQuery(ctx context.Context, q recording.RAGQuery) (recording.RAGQuery, error) {
	const sql = `
		INSERT INTO rag_queries (query, answer, source_count, model_used, query_time_ms)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	row := r.pool.QueryRow(ctx, sql, q.Query, q.Answer, q.SourceCount, q.ModelUsed, q.QueryTimeMs)
	if err := row.Scan(&q.ID, &q.CreatedAt); err != nil {
		return recording.RAGQuery{}, fmt.Errorf("repository: create rag query: %w", err)
	}
	return q, nil
}

func scanRecording(row pgx.Row, rec *recording.Recording) error {
	var endedAt *time.Time
	var status string
	if err := row.Scan(&rec.ID, &rec.Title, &rec.Context, &rec.StartedAt, &endedAt, &rec.AudioPath, &status, &rec.TotalMinutes); err != nil {
		return err
	}
	rec.EndedAt = endedAt
	rec.Status = recording.Status(status)
	return nil
}

func orEmptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var _ repository.Repository = (*Repository)(nil)
