package core

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/mohammad-safakhou/researcher/config"
	"github.com/mohammad-safakhou/researcher/internal/agent/sources"
)

func newTestSearch(p sources.Provider, sink EventSink) *SearchAgent {
	return NewSearchAgent(p, sink, WithPacing(0), WithSearchLogger(quietLogger))
}

func TestSearchNormalizesResults(t *testing.T) {
	t.Parallel()
	p := &stubProvider{name: "duckduckgo", text: map[string][]sources.Item{
		"go": {
			{Title: "<b>Go</b> &amp; friends", Body: "The <strong>Go</strong>\n language", URL: "https://go.dev"},
			{Title: "", Body: "", URL: "https://example.com"},
		},
	}}
	sink := &recordingSink{}
	got := newTestSearch(p, sink).Search(context.Background(), "go", 5)

	want := []SearchResult{
		{Rank: 1, Title: "Go & friends", Snippet: "The Go language", URL: "https://go.dev", Source: "duckduckgo"},
		{Rank: 2, Title: "No title", Snippet: "No description", URL: "https://example.com", Source: "duckduckgo"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Search() = %+v, want %+v", got, want)
	}
	done, ok := sink.find("search_completed")
	if !ok || done.Data["result_count"] != 2 || done.Data["success"] != true {
		t.Fatalf("unexpected completion event %+v", done)
	}
}

func TestSearchCapsResultsAndDefaultsMax(t *testing.T) {
	t.Parallel()
	p := &stubProvider{text: map[string][]sources.Item{"q": items("a", 8)}}
	s := newTestSearch(p, nil)
	if got := s.Search(context.Background(), "q", 3); len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	if got := s.Search(context.Background(), "q", 0); len(got) != DefaultMaxResults {
		t.Fatalf("expected default cap %d, got %d", DefaultMaxResults, len(got))
	}
	if p.calls[1] != "text:q:5" {
		t.Fatalf("expected default max passed to provider, got %v", p.calls)
	}
}

func TestSearchFailureReturnsEmpty(t *testing.T) {
	t.Parallel()
	sink := &recordingSink{}
	got := newTestSearch(&stubProvider{textErr: errBoom}, sink).Search(context.Background(), "q", 5)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", got)
	}
	failed, ok := sink.find("search_failed")
	if !ok || failed.Data["error"] != "boom" {
		t.Fatalf("expected search_failed event, got %v", sink.actions())
	}
	if _, ok := sink.find("search_completed"); ok {
		t.Fatalf("did not expect search_completed after failure")
	}
}

func TestSearchNewsTagsResults(t *testing.T) {
	t.Parallel()
	p := &stubProvider{news: map[string][]sources.Item{"q": {{Title: "Headline", Body: "Story", URL: "https://n.example.com/1", Date: "2 hours ago"}}}}
	got := newTestSearch(p, nil).SearchNews(context.Background(), "q", 2)
	if len(got) != 1 {
		t.Fatalf("expected 1 news result, got %d", len(got))
	}
	r := got[0]
	if !r.IsNews() || r.Source != "news" || r.Date != "2 hours ago" || r.Rank != 1 {
		t.Fatalf("unexpected news result %+v", r)
	}
}

func TestMultiSourceSearchDedupesAndOrders(t *testing.T) {
	t.Parallel()
	web := []sources.Item{
		{Title: "W1", Body: "w", URL: "https://a.example.com"},
		{Title: "W2", Body: "w", URL: "https://shared.example.com"},
		{Title: "W3", Body: "w", URL: ""},
		{Title: "W4", Body: "w", URL: ""},
	}
	news := []sources.Item{
		{Title: "N1", Body: "n", URL: "https://shared.example.com"},
		{Title: "N2", Body: "n", URL: "https://news.example.com"},
	}
	p := &stubProvider{text: map[string][]sources.Item{"q": web}, news: map[string][]sources.Item{"q": news}}
	sink := &recordingSink{}
	got := newTestSearch(p, sink).MultiSourceSearch(context.Background(), "q", 4, true)

	var titles []string
	for _, r := range got {
		titles = append(titles, r.Title)
	}
	// N1 duplicates W2's URL and is dropped; empty URLs are never deduplicated.
	want := []string{"N2", "W1", "W2", "W3", "W4"}
	if !reflect.DeepEqual(titles, want) {
		t.Fatalf("MultiSourceSearch() titles = %v, want %v", titles, want)
	}
	if !reflect.DeepEqual(p.calls, []string{"text:q:4", "news:q:2"}) {
		t.Fatalf("unexpected provider calls %v", p.calls)
	}
	done, ok := sink.find("multi_search_completed")
	if !ok || done.Data["web_count"] != 4 || done.Data["news_count"] != 2 || done.Data["unique_count"] != 5 {
		t.Fatalf("unexpected multi_search_completed %+v", done)
	}
}

func TestMultiSourceSearchCapsAtTwiceMax(t *testing.T) {
	t.Parallel()
	p := &stubProvider{
		text: map[string][]sources.Item{"q": items("web", 10)},
		news: map[string][]sources.Item{"q": items("news", 10)},
	}
	got := newTestSearch(p, nil).MultiSourceSearch(context.Background(), "q", 3, true)
	if len(got) != 4 {
		t.Fatalf("expected 4 results (3 web + 1 news), got %d", len(got))
	}
	if !got[0].IsNews() {
		t.Fatalf("expected news first, got %+v", got[0])
	}
}

func TestMultiSourceSearchSkipsNewsWhenHalfCapIsZero(t *testing.T) {
	t.Parallel()
	p := &stubProvider{text: map[string][]sources.Item{"q": items("web", 1)}}
	got := newTestSearch(p, nil).MultiSourceSearch(context.Background(), "q", 1, true)
	if len(got) != 1 || len(p.calls) != 1 {
		t.Fatalf("expected a single web call, got calls=%v results=%d", p.calls, len(got))
	}
}

func TestMultiSourceSearchToleratesNewsFailure(t *testing.T) {
	t.Parallel()
	p := &stubProvider{text: map[string][]sources.Item{"q": items("web", 2)}, newsErr: errBoom}
	got := newTestSearch(p, nil).MultiSourceSearch(context.Background(), "q", 4, true)
	if len(got) != 2 {
		t.Fatalf("expected web results only, got %d", len(got))
	}
}

func TestSearchPacingStopsOnCancel(t *testing.T) {
	t.Parallel()
	p := &stubProvider{text: map[string][]sources.Item{"q": items("a", 5)}}
	s := NewSearchAgent(p, nil, WithPacing(time.Hour), WithSearchLogger(quietLogger))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	got := s.Search(ctx, "q", 5)
	if len(got) != 1 {
		t.Fatalf("expected only the first item before cancellation, got %d", len(got))
	}
}

func TestSortNewsFirstIsStable(t *testing.T) {
	t.Parallel()
	rs := []SearchResult{
		{Title: "w2", Rank: 2},
		{Title: "n1", Rank: 1, SearchType: "news"},
		{Title: "w1", Rank: 1},
		{Title: "w1b", Rank: 1},
	}
	SortNewsFirst(rs)
	var got []string
	for _, r := range rs {
		got = append(got, r.Title)
	}
	if !reflect.DeepEqual(got, []string{"n1", "w1", "w1b", "w2"}) {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestSearchAppliesDomainPolicy(t *testing.T) {
	t.Parallel()
	p := &stubProvider{text: map[string][]sources.Item{"q": {
		{Title: "a", Body: "a", URL: "https://spam.com/1"},
		{Title: "b", Body: "b", URL: "https://good.org/2"},
		{Title: "c", Body: "c", URL: "https://www.spam.com/3"},
		{Title: "d", Body: "d", URL: "https://good.org/4"},
	}}}
	agent := NewSearchAgent(p, nil,
		WithPacing(0),
		WithSearchLogger(quietLogger),
		WithDomainPolicy(config.DomainPolicyConfig{Block: []string{"spam.com"}}),
	)
	got := agent.Search(context.Background(), "q", 5)
	if len(got) != 2 {
		t.Fatalf("expected 2 results after filtering, got %d", len(got))
	}
	if got[0].URL != "https://good.org/2" || got[0].Rank != 1 || got[1].Rank != 2 {
		t.Fatalf("unexpected filtered results %+v", got)
	}
}
