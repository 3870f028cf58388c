// Package vectorstore defines the Store abstraction used by the embedding
// side-channel and the RAG query planner to persist and search
// vector documents.
//
// A Store holds one collection of documents, each identified by a caller-
// supplied string ID (see [recording.VectorDocumentID]), with an associated
// embedding vector, source text, and a flat metadata map. Similarity search
// operates in cosine distance space.
//
// Implementations must be safe for concurrent use.
package vectorstore

import "context"

// Op is a filter comparison operator: {field: {$op: value}}.
type Op string

const (
	OpEq       Op = "$eq"
	OpGte      Op = "$gte"
	OpLte      Op = "$lte"
	OpContains Op = "$contains"
)

// Filter is one node of a filter expression tree. Exactly one of the two
// forms is populated: a leaf compares Field against Value using Op; a
// conjunction (And non-empty) requires every sub-filter to match.
type Filter struct {
	Field string
	Op    Op
	Value any

	And []Filter
}

// Eq builds a leaf {field: {$eq: value}} filter.
func Eq(field string, value any) Filter { return Filter{Field: field, Op: OpEq, Value: value} }

// Gte builds a leaf {field: {$gte: value}} filter.
func Gte(field string, value any) Filter { return Filter{Field: field, Op: OpGte, Value: value} }

// Lte builds a leaf {field: {$lte: value}} filter.
func Lte(field string, value any) Filter { return Filter{Field: field, Op: OpLte, Value: value} }

// Contains builds a leaf {field: {$contains: value}} filter, matched against
// a comma-joined metadata field such as "keywords".
func Contains(field string, value any) Filter {
	return Filter{Field: field, Op: OpContains, Value: value}
}

// And combines two or more filters conjunctively. A single filter is
// returned unwrapped; zero filters returns the zero Filter (no-op).
func And(filters ...Filter) Filter {
	switch len(filters) {
	case 0:
		return Filter{}
	case 1:
		return filters[0]
	default:
		return Filter{And: filters}
	}
}

// IsZero reports whether f carries no condition at all.
func (f Filter) IsZero() bool {
	return f.Field == "" && len(f.And) == 0
}

// Result is one hit returned by [Store.Search].
type Result struct {
	ID       string
	Text     string
	Metadata map[string]any
	Distance float64
}

// Store is the abstraction over any vector database backend.
type Store interface {
	// Upsert inserts or completely replaces the document identified by id.
	Upsert(ctx context.Context, id, text string, vector []float32, metadata map[string]any) error

	// Search returns up to topK nearest neighbours of vector, optionally
	// restricted by filter, ordered by ascending cosine distance.
	Search(ctx context.Context, vector []float32, topK int, filter Filter) ([]Result, error)

	// Delete removes the document identified by id. Deleting a
	// non-existent id is not an error.
	Delete(ctx context.Context, id string) error

	// Count returns the number of documents currently stored.
	Count(ctx context.Context) (int, error)
}
