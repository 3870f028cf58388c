// Package pgvector implements [vectorstore.Store] on top of PostgreSQL with
// the pgvector extension: one vector_documents table holding the pipeline's
// flat id/text/vector/metadata document shape, searched in cosine space.
package pgvector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/recallhq/recall/pkg/provider/vectorstore"
)

// ddlVectorDocuments creates the single-collection documents table backing
// the store. The embedding dimension is baked into the column type, so the
// store is bound to one embedding model per database.
const ddlVectorDocuments = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS vector_documents (
    id        TEXT         PRIMARY KEY,
    text      TEXT         NOT NULL,
    embedding vector(%d)   NOT NULL,
    metadata  JSONB        NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_vector_documents_embedding
    ON vector_documents USING hnsw (embedding vector_cosine_ops);

CREATE INDEX IF NOT EXISTS idx_vector_documents_metadata
    ON vector_documents USING GIN (metadata);
`

// Store is a pgvector-backed [vectorstore.Store] holding one collection in
// the vector_documents table, cosine similarity space.
type Store struct {
	pool *pgxpool.Pool
}

// New connects a pool to dsn, registers pgvector types, and migrates the
// vector_documents table for the given embedding dimension.
func New(ctx context.Context, dsn string, embeddingDimensions int) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pgvector store: parse dsn: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgvector store: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgvector store: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, fmt.Sprintf(ddlVectorDocuments, embeddingDimensions)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgvector store: migrate: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Upsert(ctx context.Context, id, text string, vector []float32, metadata map[string]any) error {
	meta, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("pgvector store: upsert %s: marshal metadata: %w", id, err)
	}
	const q = `
		INSERT INTO vector_documents (id, text, embedding, metadata)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
		    text      = EXCLUDED.text,
		    embedding = EXCLUDED.embedding,
		    metadata  = EXCLUDED.metadata`
	_, err = s.pool.Exec(ctx, q, id, text, pgv.NewVector(vector), meta)
	if err != nil {
		return fmt.Errorf("pgvector store: upsert %s: %w", id, err)
	}
	return nil
}

func (s *Store) Search(ctx context.Context, vector []float32, topK int, filter vectorstore.Filter) ([]vectorstore.Result, error) {
	queryVec := pgv.NewVector(vector)
	args := []any{queryVec}
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	where := ""
	if clause := buildWhere(filter, next); clause != "" {
		where = "WHERE " + clause
	}

	args = append(args, topK)
	limitArg := fmt.Sprintf("$%d", len(args))

	q := fmt.Sprintf(`
		SELECT id, text, metadata, embedding <=> $1 AS distance
		FROM   vector_documents
		%s
		ORDER  BY distance
		LIMIT  %s`, where, limitArg)

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("pgvector store: search: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (vectorstore.Result, error) {
		var (
			r        vectorstore.Result
			metaRaw  []byte
		)
		if err := row.Scan(&r.ID, &r.Text, &metaRaw, &r.Distance); err != nil {
			return vectorstore.Result{}, err
		}
		if len(metaRaw) > 0 {
			if err := json.Unmarshal(metaRaw, &r.Metadata); err != nil {
				return vectorstore.Result{}, err
			}
		}
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("pgvector store: scan rows: %w", err)
	}
	if results == nil {
		results = []vectorstore.Result{}
	}
	return results, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM vector_documents WHERE id = $1`, id); err != nil {
		return fmt.Errorf("pgvector store: delete %s: %w", id, err)
	}
	return nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM vector_documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("pgvector store: count: %w", err)
	}
	return n, nil
}

// buildWhere renders filter into a SQL fragment over the metadata JSONB
// column, appending bind values via next in the order they appear. Returns
// "" for the zero filter, matching the "no filters → no clause" contract.
func buildWhere(f vectorstore.Filter, next func(any) string) string {
	if f.IsZero() {
		return ""
	}
	if len(f.And) > 0 {
		var parts []string
		for _, sub := range f.And {
			if clause := buildWhere(sub, next); clause != "" {
				parts = append(parts, clause)
			}
		}
		return "(" + strings.Join(parts, " AND ") + ")"
	}

	field := fmt.Sprintf("metadata->>%s", quoteLit(f.Field))
	switch f.Op {
	case vectorstore.OpEq:
		return field + " = " + next(fmt.Sprintf("%v", f.Value))
	case vectorstore.OpGte:
		return field + " >= " + next(fmt.Sprintf("%v", f.Value))
	case vectorstore.OpLte:
		return field + " <= " + next(fmt.Sprintf("%v", f.Value))
	case vectorstore.OpContains:
		return field + " LIKE " + next("%"+fmt.Sprintf("%v", f.Value)+"%")
	default:
		return ""
	}
}

func quoteLit(s string) string {
	return "'" + s + "'"
}

var _ vectorstore.Store = (*Store)(nil)
