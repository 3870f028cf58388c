// Package rag implements the retrieval-augmented query planner: embed
// a natural-language query, search the vector store under an optional
// filter, and compose a grounded LM answer citing the retrieved sources.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/recallhq/recall/internal/recording"
	"github.com/recallhq/recall/internal/summarize"
	"github.com/recallhq/recall/internal/summarize/jsonllm"
	"github.com/recallhq/recall/pkg/provider/embeddings"
	"github.com/recallhq/recall/pkg/provider/llm"
	"github.com/recallhq/recall/pkg/provider/vectorstore"
)

// noMatchAnswer is returned verbatim when no source clears MinSimilarity.
// The literal string is part of the external contract: it signals "no
// matches" and is localized by the caller, not here.
const noMatchAnswer = "관련 녹음을 찾을 수 없습니다."

const ragSystemPrompt = `Answer only from the context below. Do not guess at information not present in the context.
Cite each source you use as [source: recording-X, minute-Y].
Output only JSON: {"answer": "...", "source_indices": [0, 1, ...]}`

// defaultTopK and defaultMinSimilarity are applied when a [Request] leaves
// the corresponding field at its zero value.
const (
	defaultTopK          = 5
	defaultMinSimilarity = 0.3
)

// Filters narrows a [Request] to a subset of recordings/dates/keywords.
type Filters struct {
	DateFrom string
	DateTo   string
	Category string
	Keywords []string
}

// Request is one natural-language query against the vector store.
type Request struct {
	Query         string
	TopK          int
	MinSimilarity float64
	Filters       Filters
}

// Source is one retrieved vector document, paired with its similarity and
// metadata, cited in the grounded answer.
type Source struct {
	RecordingID int64
	MinuteIndex int
	SummaryText string
	Similarity  float64
	Date        string
	Category    string
}

// Response is the output of [Planner.Query].
type Response struct {
	Answer      string
	Sources     []Source
	ModelUsed   string
	QueryTimeMs int64
}

type answerResponse struct {
	Answer        string `json:"answer"`
	SourceIndices []int  `json:"source_indices"`
}

// QueryLog persists completed queries for usage history.
// [repository.Repository] satisfies it.
type QueryLog interface {
	CreateRAGQuery(ctx context.Context, q recording.RAGQuery) (recording.RAGQuery, error)
}

// Planner orchestrates the embed → search → answer pipeline.
type Planner struct {
	llm      llm.Provider
	embedder embeddings.Provider
	store    vectorstore.Store

	// Log, when non-nil, records each completed query. Logging is
	// best-effort: a failed write is logged and does not fail the query.
	Log QueryLog

	// Now returns the current time, overridable in tests. Defaults to
	// time.Now.
	Now func() time.Time
}

// New returns a Planner backed by the given LM, embedding, and vector-store
// providers.
func New(llmProvider llm.Provider, embedder embeddings.Provider, store vectorstore.Store) *Planner {
	return &Planner{llm: llmProvider, embedder: embedder, store: store, Now: time.Now}
}

// Query runs the full RAG pipeline for req.
func (p *Planner) Query(ctx context.Context, req Request) (Response, error) {
	start := p.Now()

	topK := req.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	minSimilarity := req.MinSimilarity
	if minSimilarity == 0 {
		minSimilarity = defaultMinSimilarity
	}

	queryVector, err := p.embedder.Embed(ctx, req.Query)
	if err != nil {
		return Response{}, fmt.Errorf("rag: embed query: %w", err)
	}

	filter := buildFilter(req.Filters)

	results, err := p.store.Search(ctx, queryVector, topK, filter)
	if err != nil {
		return Response{}, fmt.Errorf("rag: vector search: %w", err)
	}

	sources := resultsToSources(results, minSimilarity)
	if len(sources) == 0 {
		resp := Response{
			Answer:      noMatchAnswer,
			Sources:     nil,
			ModelUsed:   "",
			QueryTimeMs: elapsedMs(start, p.Now()),
		}
		p.logQuery(ctx, req.Query, resp)
		return resp, nil
	}

	answer, err := p.generateAnswer(ctx, req.Query, sources)
	if err != nil {
		return Response{}, err
	}

	resp := Response{
		Answer:      answer,
		Sources:     sources,
		ModelUsed:   p.llm.ModelID(),
		QueryTimeMs: elapsedMs(start, p.Now()),
	}
	p.logQuery(ctx, req.Query, resp)
	return resp, nil
}

// logQuery records a completed query when a [QueryLog] is configured.
func (p *Planner) logQuery(ctx context.Context, query string, resp Response) {
	if p.Log == nil {
		return
	}
	_, err := p.Log.CreateRAGQuery(ctx, recording.RAGQuery{
		Query:       query,
		Answer:      resp.Answer,
		SourceCount: len(resp.Sources),
		ModelUsed:   resp.ModelUsed,
		QueryTimeMs: resp.QueryTimeMs,
	})
	if err != nil {
		slog.Warn("rag: failed to record query", "error", err)
	}
}

// FindSimilar fetches recordingID's own vector documents, concatenates their
// text, embeds the concatenation, searches the full store, and returns up to
// topK results excluding any belonging to recordingID itself.
func (p *Planner) FindSimilar(ctx context.Context, recordingID int64, topK int) ([]Source, error) {
	if topK <= 0 {
		topK = defaultTopK
	}

	ownFilter := vectorstore.Eq("recording_id", recordingID)
	own, err := p.store.Search(ctx, nil, 100, ownFilter)
	if err != nil {
		return nil, fmt.Errorf("rag: find similar: search own documents: %w", err)
	}
	if len(own) == 0 {
		return nil, nil
	}

	combined := ""
	for _, r := range own {
		if r.Text == "" {
			continue
		}
		if combined != "" {
			combined += " "
		}
		combined += r.Text
	}
	if combined == "" {
		return nil, nil
	}

	vector, err := p.embedder.Embed(ctx, combined)
	if err != nil {
		return nil, fmt.Errorf("rag: find similar: embed combined text: %w", err)
	}

	searchResults, err := p.store.Search(ctx, vector, topK+len(own), vectorstore.Filter{})
	if err != nil {
		return nil, fmt.Errorf("rag: find similar: search: %w", err)
	}

	var filtered []vectorstore.Result
	for _, r := range searchResults {
		if rid, ok := r.Metadata["recording_id"]; ok {
			if asInt64(rid) == recordingID {
				continue
			}
		}
		filtered = append(filtered, r)
	}
	if len(filtered) > topK {
		filtered = filtered[:topK]
	}

	return resultsToSources(filtered, 0), nil
}

func (p *Planner) generateAnswer(ctx context.Context, query string, sources []Source) (string, error) {
	contextBlock := ""
	for i, src := range sources {
		if i > 0 {
			contextBlock += "\n"
		}
		contextBlock += fmt.Sprintf("[%d] recording-%d, minute-%d (%s): %s", i, src.RecordingID, src.MinuteIndex, src.Date, src.SummaryText)
	}

	prompt := fmt.Sprintf("%s\n\nContext:\n%s\n\nQuestion: %s", ragSystemPrompt, contextBlock, query)

	raw, err := summarize.WithRetry(ctx, func() (string, error) {
		return p.llm.Generate(ctx, prompt, llm.Options{})
	})
	if err != nil {
		return "", fmt.Errorf("rag: generate answer: %w", err)
	}

	parsed, err := jsonllm.Decode[answerResponse](raw)
	if err != nil {
		// Non-JSON output is tolerated here: the raw fenced/unfenced text
		// becomes the answer rather than failing the query.
		return jsonllm.StripCodeFences(raw), nil
	}
	if parsed.Answer == "" {
		return jsonllm.StripCodeFences(raw), nil
	}
	return parsed.Answer, nil
}

// buildFilter translates Filters into a vectorstore.Filter: zero predicates
// yields the zero Filter (absent), one predicate is passed through
// directly, and more than one are combined conjunctively.
func buildFilter(f Filters) vectorstore.Filter {
	var conditions []vectorstore.Filter
	if f.Category != "" {
		conditions = append(conditions, vectorstore.Eq("category", f.Category))
	}
	if f.DateFrom != "" {
		conditions = append(conditions, vectorstore.Gte("date", f.DateFrom))
	}
	if f.DateTo != "" {
		conditions = append(conditions, vectorstore.Lte("date", f.DateTo))
	}
	for _, kw := range f.Keywords {
		if kw == "" {
			continue
		}
		conditions = append(conditions, vectorstore.Contains("keywords", kw))
	}
	return vectorstore.And(conditions...)
}

// resultsToSources converts raw vector-store results to Sources, computing
// similarity = 1 - distance (cosine space), dropping those below
// minSimilarity, and sorting the remainder by descending similarity.
func resultsToSources(results []vectorstore.Result, minSimilarity float64) []Source {
	var sources []Source
	for _, r := range results {
		similarity := 1 - r.Distance
		if similarity < minSimilarity {
			continue
		}
		sources = append(sources, Source{
			RecordingID: asInt64(r.Metadata["recording_id"]),
			MinuteIndex: asInt(r.Metadata["minute_index"]),
			SummaryText: r.Text,
			Similarity:  similarity,
			Date:        asString(r.Metadata["date"]),
			Category:    asString(r.Metadata["category"]),
		})
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Similarity > sources[j].Similarity })
	return sources
}

func elapsedMs(start, end time.Time) int64 {
	return end.Sub(start).Milliseconds()
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
