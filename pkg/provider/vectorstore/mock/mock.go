// Package mock provides a test double for the vectorstore.Store interface,
// backed by an in-process map so orchestrator, embed, and RAG tests don't
// need a live pgvector instance.
package mock

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/recallhq/recall/pkg/provider/vectorstore"
)

type doc struct {
	text     string
	vector   []float32
	metadata map[string]any
}

// Store is an in-memory mock of [vectorstore.Store]. The zero value is
// ready to use. Set UpsertErr/SearchErr/DeleteErr to simulate failures.
type Store struct {
	mu   sync.Mutex
	docs map[string]doc

	UpsertErr error
	SearchErr error
	DeleteErr error
}

// New returns an empty mock Store.
func New() *Store {
	return &Store{docs: make(map[string]doc)}
}

func (s *Store) Upsert(_ context.Context, id, text string, vector []float32, metadata map[string]any) error {
	if s.UpsertErr != nil {
		return s.UpsertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.docs == nil {
		s.docs = make(map[string]doc)
	}
	s.docs[id] = doc{text: text, vector: vector, metadata: metadata}
	return nil
}

func (s *Store) Search(_ context.Context, vector []float32, topK int, filter vectorstore.Filter) ([]vectorstore.Result, error) {
	if s.SearchErr != nil {
		return nil, s.SearchErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var results []vectorstore.Result
	for id, d := range s.docs {
		if !matches(filter, d.metadata) {
			continue
		}
		results = append(results, vectorstore.Result{
			ID:       id,
			Text:     d.text,
			Metadata: d.metadata,
			Distance: cosineDistance(vector, d.vector),
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	return nil
}

func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs), nil
}

// Docs returns a snapshot of every stored document ID, for test assertions.
func (s *Store) Docs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.docs))
	for id := range s.docs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func matches(f vectorstore.Filter, metadata map[string]any) bool {
	if f.IsZero() {
		return true
	}
	if len(f.And) > 0 {
		for _, sub := range f.And {
			if !matches(sub, metadata) {
				return false
			}
		}
		return true
	}
	v, ok := metadata[f.Field]
	if !ok {
		return false
	}
	switch f.Op {
	case vectorstore.OpEq:
		return v == f.Value
	case vectorstore.OpGte:
		return compare(v, f.Value) >= 0
	case vectorstore.OpLte:
		return compare(v, f.Value) <= 0
	case vectorstore.OpContains:
		s, _ := v.(string)
		needle, _ := f.Value.(string)
		return needle != "" && strings.Contains(s, needle)
	default:
		return false
	}
}

func compare(a, b any) int {
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		default:
			return 0
		}
	}
	return 0
}

func cosineDistance(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 1
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

var _ vectorstore.Store = (*Store)(nil)
