package core

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func newTestSummarizer(mode SynthesisMode, sink EventSink) *Summarizer {
	return NewSummarizer(mode, sink, WithSummarizerLogger(quietLogger))
}

func TestSelectMode(t *testing.T) {
	t.Parallel()
	m := &stubModel{}
	if _, ok := SelectMode(false, m).(HeuristicMode); !ok {
		t.Fatalf("disabled synthesis must be heuristic")
	}
	if _, ok := SelectMode(true, nil).(HeuristicMode); !ok {
		t.Fatalf("missing model must be heuristic")
	}
	lm, ok := SelectMode(true, m).(LanguageModelMode)
	if !ok || lm.Model != m {
		t.Fatalf("expected language model mode, got %#v", SelectMode(true, m))
	}
}

func TestHeuristicCounts(t *testing.T) {
	t.Parallel()
	lists := [][]SearchResult{results("a", 8), results("b", 8), results("c", 8)}
	sink := &recordingSink{}
	s := newTestSummarizer(HeuristicMode{}, sink).Summarize(context.Background(), lists)

	if len(s.KeyFindings) != 10 {
		t.Fatalf("expected 10 findings, got %d", len(s.KeyFindings))
	}
	if len(s.Sources) != 15 {
		t.Fatalf("expected 15 sources, got %d", len(s.Sources))
	}
	if s.SourceCount != 24 {
		t.Fatalf("expected source_count 24, got %d", s.SourceCount)
	}
	if s.SynthesisMethod != MethodHeuristic {
		t.Fatalf("unexpected method %q", s.SynthesisMethod)
	}
	if s.KeyFindings[8].Source != "b title 1" {
		t.Fatalf("findings must follow arrival order, got %+v", s.KeyFindings[8])
	}

	started, _ := sink.find("summarization_started")
	if started.Data["source_count"] != 3 || started.Data["using_llm"] != false {
		t.Fatalf("unexpected start event %+v", started.Data)
	}
	done, _ := sink.find("summarization_completed")
	if done.Data["key_points"] != 10 || done.Data["method"] != "heuristic" {
		t.Fatalf("unexpected completion event %+v", done.Data)
	}
}

func TestHeuristicFindingDetails(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("é", 250)
	all := []SearchResult{
		{Title: "", Snippet: long, URL: "https://x.example.com"},
		{Title: "Dup", Snippet: "s", URL: "https://x.example.com"},
		{Title: "No URL", Snippet: "s"},
	}
	s := Heuristic(all)
	if got := utf8.RuneCountInString(s.KeyFindings[0].Point); got != 200 {
		t.Fatalf("expected point truncated to 200 runes, got %d", got)
	}
	if s.KeyFindings[0].Source != "Unknown" {
		t.Fatalf("expected Unknown source, got %q", s.KeyFindings[0].Source)
	}
	if len(s.Sources) != 1 || s.Sources[0].URL != "https://x.example.com" || s.Sources[0].Title != "Unknown" {
		t.Fatalf("expected one distinct source, got %+v", s.Sources)
	}
	if s.SourceCount != 3 {
		t.Fatalf("expected source_count 3, got %d", s.SourceCount)
	}
}

func TestHeuristicEmptyInput(t *testing.T) {
	t.Parallel()
	s := newTestSummarizer(HeuristicMode{}, nil).Summarize(context.Background(), nil)
	if len(s.KeyFindings) != 0 || len(s.Sources) != 0 || s.SourceCount != 0 {
		t.Fatalf("expected empty summary, got %+v", s)
	}
}

func TestLanguageModelSummary(t *testing.T) {
	t.Parallel()
	m := &stubModel{reply: "Here is the analysis:\n```json\n" + `{
  "key_findings": [
    {"point": "Batteries improved", "source": "a title 1", "url": "https://example.com/a/1", "credibility": "high"}
  ],
  "summary": "Progress is steady.",
  "themes": ["energy", "storage"],
  "credibility_notes": "Mostly trade press."
}` + "\n```"}
	lists := [][]SearchResult{results("a", 2), {{Title: "no url", Snippet: "s"}}}
	sink := &recordingSink{}
	s := newTestSummarizer(LanguageModelMode{Model: m}, sink).Summarize(context.Background(), lists)

	if s.SynthesisMethod != MethodLLM {
		t.Fatalf("expected llm method, got %q", s.SynthesisMethod)
	}
	if len(s.KeyFindings) != 1 || s.KeyFindings[0].Credibility != "high" {
		t.Fatalf("unexpected findings %+v", s.KeyFindings)
	}
	if s.Summary != "Progress is steady." || !reflect.DeepEqual(s.Themes, []string{"energy", "storage"}) || s.CredibilityNotes != "Mostly trade press." {
		t.Fatalf("unexpected narrative fields %+v", s)
	}
	if len(s.Sources) != 2 || s.SourceCount != 3 {
		t.Fatalf("unexpected sources %+v count %d", s.Sources, s.SourceCount)
	}
	if !strings.Contains(m.prompt, "Source 1: a title 1\nURL: https://example.com/a/1\nContent: a snippet 1\n") {
		t.Fatalf("prompt missing source context:\n%s", m.prompt)
	}
	if !strings.Contains(m.prompt, "Source 3: no url\nURL: N/A\n") {
		t.Fatalf("prompt must mark missing URLs as N/A:\n%s", m.prompt)
	}
	if !strings.HasSuffix(m.prompt, "Extract 5-8 key findings. Focus on factual information with proper attribution.") {
		t.Fatalf("prompt missing closing instruction")
	}
	started, _ := sink.find("summarization_started")
	if started.Data["using_llm"] != true {
		t.Fatalf("expected using_llm true, got %v", started.Data["using_llm"])
	}
	done, _ := sink.find("summarization_completed")
	if done.Data["method"] != MethodLLM {
		t.Fatalf("expected llm completion method, got %v", done.Data["method"])
	}
}

func TestLanguageModelFailureFallsBackToHeuristic(t *testing.T) {
	t.Parallel()
	lists := [][]SearchResult{results("a", 6), results("b", 6)}
	want := Heuristic(flatten(lists))

	cases := []struct {
		name  string
		model *stubModel
	}{
		{"transport error", &stubModel{err: errBoom}},
		{"unparsable", &stubModel{reply: "I could not do that"}},
		{"non-object", &stubModel{reply: "```json\n[1,2]\n```"}},
		{"missing key_findings", &stubModel{reply: `{"summary": "nothing"}`}},
		{"wrong field type", &stubModel{reply: `{"key_findings": "none"}`}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			sink := &recordingSink{}
			got := newTestSummarizer(LanguageModelMode{Model: tc.model}, sink).Summarize(context.Background(), lists)
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("fallback summary differs from heuristic:\n got %+v\nwant %+v", got, want)
			}
			if _, ok := sink.find("synthesis_fallback"); !ok {
				t.Fatalf("expected synthesis_fallback event, got %v", sink.actions())
			}
			done, _ := sink.find("summarization_completed")
			if done.Data["method"] != "heuristic" {
				t.Fatalf("completion must report the method actually used, got %v", done.Data["method"])
			}
		})
	}
}

func TestLanguageModelEmptyInputSkipsModel(t *testing.T) {
	t.Parallel()
	m := &stubModel{reply: "{}"}
	s := newTestSummarizer(LanguageModelMode{Model: m}, nil).Summarize(context.Background(), [][]SearchResult{{}, {}})
	if m.calls != 0 {
		t.Fatalf("model must not be called for empty input")
	}
	if s.SynthesisMethod != MethodHeuristic {
		t.Fatalf("expected heuristic for empty input, got %q", s.SynthesisMethod)
	}
}
