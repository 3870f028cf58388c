package summarize

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/recallhq/recall/pkg/provider/llm"
	"github.com/recallhq/recall/pkg/provider/llm/mock"
)

func TestHourSummarizer_EmptyInput(t *testing.T) {
	m := &mock.Provider{}
	s := NewHourSummarizer(m)

	result, err := s.Summarize(context.Background(), nil)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if result.TokenCount != 0 || result.SummaryText != "" {
		t.Fatalf("expected empty result, got %+v", result)
	}
	if m.CallCount("") != 0 {
		t.Fatalf("expected no LM calls for empty input")
	}
}

func TestHourSummarizer_SingleChunkSkipsLevel1(t *testing.T) {
	m := &mock.Provider{
		SummarizeResponse: `{"summary":"combined","keywords":["k"],"topic_segments":[{"topic":"t","minutes":[0,1]}]}`,
	}
	s := NewHourSummarizer(m)

	inputs := make([]MinuteInput, 5) // single chunk (<=10)
	for i := range inputs {
		inputs[i] = MinuteInput{MinuteIndex: i, SummaryText: "minute summary"}
	}

	result, err := s.Summarize(context.Background(), inputs)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if m.CallCount("Summarize") != 1 {
		t.Fatalf("expected exactly 1 LM call (level2 only), got %d", m.CallCount("Summarize"))
	}
	if result.SummaryText != "combined" {
		t.Fatalf("SummaryText = %q", result.SummaryText)
	}
}

func TestHourSummarizer_MultiChunkRunsLevel1AndLevel2(t *testing.T) {
	m := &mock.Provider{
		SummarizeResponse: `{"summary":"x","keywords":[],"topics":[]}`,
	}
	s := NewHourSummarizer(m)

	inputs := make([]MinuteInput, 25) // 3 chunks of <=10
	for i := range inputs {
		inputs[i] = MinuteInput{MinuteIndex: i, SummaryText: "minute summary"}
	}

	_, err := s.Summarize(context.Background(), inputs)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	// 3 level-1 chunk calls + 1 level-2 reduce call.
	if got := m.CallCount("Summarize"); got != 4 {
		t.Fatalf("expected 4 LM calls, got %d", got)
	}
}

func TestPartition(t *testing.T) {
	inputs := make([]MinuteInput, 25)
	chunks := partition(inputs, 10)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 10 || len(chunks[1]) != 10 || len(chunks[2]) != 5 {
		t.Fatalf("unexpected chunk sizes: %d %d %d", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
}

// countingProvider tracks the peak number of concurrent Summarize calls.
type countingProvider struct {
	mu       sync.Mutex
	inFlight int
	peak     int
}

func (p *countingProvider) enter() {
	p.mu.Lock()
	p.inFlight++
	if p.inFlight > p.peak {
		p.peak = p.inFlight
	}
	p.mu.Unlock()
}

func (p *countingProvider) exit() {
	p.mu.Lock()
	p.inFlight--
	p.mu.Unlock()
}

func (p *countingProvider) Summarize(_ context.Context, _ string, _ llm.Options) (string, error) {
	p.enter()
	time.Sleep(5 * time.Millisecond)
	p.exit()
	return `{"summary":"x","keywords":[],"topics":[],"topic_segments":[]}`, nil
}

func (p *countingProvider) Generate(_ context.Context, _ string, _ llm.Options) (string, error) {
	return "", nil
}

func (p *countingProvider) Classify(_ context.Context, _ string, _ []string, _ llm.Options) (string, error) {
	return "", nil
}

func (p *countingProvider) ModelID() string { return "counting" }

func TestHourSummarizer_Level1FanoutBounded(t *testing.T) {
	p := &countingProvider{}
	s := NewHourSummarizer(p)

	inputs := make([]MinuteInput, 60) // 6 level-1 chunks
	for i := range inputs {
		inputs[i] = MinuteInput{MinuteIndex: i, SummaryText: "minute summary"}
	}

	if _, err := s.Summarize(context.Background(), inputs); err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if p.peak > level1FanoutWidth {
		t.Fatalf("peak concurrent LM calls = %d, want <= %d", p.peak, level1FanoutWidth)
	}
}
