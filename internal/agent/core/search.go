package core

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/mohammad-safakhou/researcher/config"
	"github.com/mohammad-safakhou/researcher/internal/agent/sources"
	"github.com/mohammad-safakhou/researcher/internal/helpers"
)

// DefaultMaxResults is used when a caller passes maxResults <= 0.
const DefaultMaxResults = 5

// SearchAgent queries a search provider and normalizes its results. Provider
// failures are logged and degrade to an empty result list.
type SearchAgent struct {
	provider   sources.Provider
	sink       EventSink
	logger     *log.Logger
	maxResults int
	pacing     time.Duration
	domains    config.DomainPolicyConfig
}

// SearchOption configures a SearchAgent.
type SearchOption func(*SearchAgent)

// WithPacing sets the delay inserted between result items.
func WithPacing(d time.Duration) SearchOption {
	return func(s *SearchAgent) {
		if d >= 0 {
			s.pacing = d
		}
	}
}

// WithDefaultMaxResults sets the cap used when callers pass maxResults <= 0.
func WithDefaultMaxResults(n int) SearchOption {
	return func(s *SearchAgent) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// WithDomainPolicy drops results whose host the policy rejects.
func WithDomainPolicy(p config.DomainPolicyConfig) SearchOption {
	return func(s *SearchAgent) {
		s.domains = p.Normalize()
	}
}

// WithSearchLogger overrides the default "[SEARCH] " logger.
func WithSearchLogger(l *log.Logger) SearchOption {
	return func(s *SearchAgent) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewSearchAgent(provider sources.Provider, sink EventSink, opts ...SearchOption) *SearchAgent {
	if sink == nil {
		sink = NopSink
	}
	s := &SearchAgent{
		provider:   provider,
		sink:       sink,
		logger:     log.New(log.Writer(), "[SEARCH] ", log.LstdFlags),
		maxResults: DefaultMaxResults,
		pacing:     500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search runs a web query. It never fails: errors become an empty list and a
// search_failed event.
func (s *SearchAgent) Search(ctx context.Context, query string, maxResults int) []SearchResult {
	maxResults = s.cap(maxResults)
	emit(ctx, s.sink, AgentSearch, "search_started", map[string]interface{}{"query": query, "max_results": maxResults})

	results, err := s.web(ctx, query, maxResults)
	if err != nil {
		s.logger.Printf("web search for %q failed: %v", query, err)
		emit(ctx, s.sink, AgentSearch, "search_failed", map[string]interface{}{"query": query, "error": err.Error()})
		return []SearchResult{}
	}
	emit(ctx, s.sink, AgentSearch, "search_completed", map[string]interface{}{
		"query":        query,
		"result_count": len(results),
		"success":      true,
	})
	return results
}

// SearchNews runs a news query; every result is tagged as news.
func (s *SearchAgent) SearchNews(ctx context.Context, query string, maxResults int) []SearchResult {
	maxResults = s.cap(maxResults)
	results, err := s.news(ctx, query, maxResults)
	if err != nil {
		s.logger.Printf("news search for %q failed: %v", query, err)
		emit(ctx, s.sink, AgentSearch, "search_failed", map[string]interface{}{"query": query, "error": err.Error(), "mode": "news"})
		return []SearchResult{}
	}
	return results
}

// MultiSourceSearch combines web results with news results at half the cap,
// drops repeated non-empty URLs keeping the first, orders news before web
// (each group by ascending rank) and returns at most maxResults*2 entries.
func (s *SearchAgent) MultiSourceSearch(ctx context.Context, query string, maxResults int, includeNews bool) []SearchResult {
	maxResults = s.cap(maxResults)

	web, err := s.web(ctx, query, maxResults)
	if err != nil {
		s.logger.Printf("web search for %q failed: %v", query, err)
		emit(ctx, s.sink, AgentSearch, "search_failed", map[string]interface{}{"query": query, "error": err.Error()})
		web = nil
	}
	all := append([]SearchResult(nil), web...)

	var newsCount int
	if includeNews && maxResults/2 > 0 {
		news := s.SearchNews(ctx, query, maxResults/2)
		newsCount = len(news)
		all = append(all, news...)
	}

	unique := DedupeByURL(all)
	SortNewsFirst(unique)
	if len(unique) > maxResults*2 {
		unique = unique[:maxResults*2]
	}

	emit(ctx, s.sink, AgentSearch, "multi_search_completed", map[string]interface{}{
		"query":        query,
		"web_count":    len(web),
		"news_count":   newsCount,
		"unique_count": len(unique),
	})
	return unique
}

// DedupeByURL keeps the first result for each non-empty URL. Results without
// a URL are always kept.
func DedupeByURL(in []SearchResult) []SearchResult {
	seen := make(map[string]bool, len(in))
	out := make([]SearchResult, 0, len(in))
	for _, r := range in {
		if r.URL != "" {
			if seen[r.URL] {
				continue
			}
			seen[r.URL] = true
		}
		out = append(out, r)
	}
	return out
}

// SortNewsFirst stably orders news results before the rest, each group by
// ascending rank.
func SortNewsFirst(rs []SearchResult) {
	sort.SliceStable(rs, func(i, j int) bool {
		ni, nj := rs[i].IsNews(), rs[j].IsNews()
		if ni != nj {
			return ni
		}
		return rs[i].Rank < rs[j].Rank
	})
}

func (s *SearchAgent) cap(n int) int {
	if n <= 0 {
		return s.maxResults
	}
	return n
}

func (s *SearchAgent) web(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	items, err := s.provider.Text(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	return s.normalize(ctx, items, maxResults, s.provider.Name(), ""), nil
}

func (s *SearchAgent) news(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	items, err := s.provider.News(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	return s.normalize(ctx, items, maxResults, "news", "news"), nil
}

// normalize converts provider items, pacing between items. A cancelled
// context stops pacing and returns what was collected so far.
func (s *SearchAgent) normalize(ctx context.Context, items []sources.Item, maxResults int, source, searchType string) []SearchResult {
	if !s.domains.Empty() {
		kept := items[:0:0]
		for _, it := range items {
			if s.domains.Permits(it.URL) {
				kept = append(kept, it)
			}
		}
		if dropped := len(items) - len(kept); dropped > 0 {
			s.logger.Printf("domain policy dropped %d %s result(s)", dropped, source)
		}
		items = kept
	}
	if len(items) > maxResults {
		items = items[:maxResults]
	}
	out := make([]SearchResult, 0, len(items))
	for i, it := range items {
		if i > 0 && s.pacing > 0 {
			select {
			case <-time.After(s.pacing):
			case <-ctx.Done():
				return out
			}
		}
		title := helpers.PlainText(it.Title)
		if title == "" {
			title = "No title"
		}
		snippet := helpers.PlainText(it.Body)
		if snippet == "" {
			snippet = "No description"
		}
		r := SearchResult{
			Rank:    i + 1,
			Title:   title,
			Snippet: snippet,
			URL:     it.URL,
			Source:  source,
		}
		if searchType != "" {
			r.SearchType = searchType
			r.Date = it.Date
		}
		out = append(out, r)
	}
	return out
}
