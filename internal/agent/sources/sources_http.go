package sources

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// BraveClient implements Provider using the Brave Search API
type BraveClient struct {
	apiKey  string
	baseURL string
	http    *HTTPClient
}

func NewBrave(apiKey string, httpc *HTTPClient) *BraveClient {
	return &BraveClient{apiKey: apiKey, baseURL: "https://api.search.brave.com/res/v1", http: httpc}
}

// WithBaseURL points the client at another endpoint, e.g. a test server.
func (b *BraveClient) WithBaseURL(u string) *BraveClient {
	b.baseURL = strings.TrimRight(u, "/")
	return b
}

func (b *BraveClient) Name() string { return "brave" }

type braveResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Age         string `json:"age"`
	PageAge     string `json:"page_age"`
}

func (r braveResult) item() Item {
	date := r.PageAge
	if date == "" {
		date = r.Age
	}
	return Item{Title: r.Title, Body: r.Description, URL: r.URL, Date: date}
}

func (b *BraveClient) Text(ctx context.Context, query string, maxResults int) ([]Item, error) {
	var resp struct {
		Web struct {
			Results []braveResult `json:"results"`
		} `json:"web"`
	}
	u := fmt.Sprintf("%s/web/search?q=%s&count=%d", b.baseURL, escapeQuery(query), max1(maxResults, 10))
	if err := b.http.DoJSON(ctx, http.MethodGet, u, b.headers(), nil, &resp); err != nil {
		return nil, fmt.Errorf("brave web search: %w", err)
	}
	out := make([]Item, 0, len(resp.Web.Results))
	for _, r := range resp.Web.Results {
		out = append(out, r.item())
	}
	return limit(out, maxResults), nil
}

func (b *BraveClient) News(ctx context.Context, query string, maxResults int) ([]Item, error) {
	var resp struct {
		Results []braveResult `json:"results"`
	}
	u := fmt.Sprintf("%s/news/search?q=%s&count=%d", b.baseURL, escapeQuery(query), max1(maxResults, 10))
	if err := b.http.DoJSON(ctx, http.MethodGet, u, b.headers(), nil, &resp); err != nil {
		return nil, fmt.Errorf("brave news search: %w", err)
	}
	out := make([]Item, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, r.item())
	}
	return limit(out, maxResults), nil
}

func (b *BraveClient) headers() map[string]string {
	return map[string]string{"X-Subscription-Token": b.apiKey}
}

// SerperClient implements Provider using serper.dev
type SerperClient struct {
	apiKey  string
	baseURL string
	http    *HTTPClient
}

func NewSerper(apiKey string, httpc *HTTPClient) *SerperClient {
	return &SerperClient{apiKey: apiKey, baseURL: "https://google.serper.dev", http: httpc}
}

// WithBaseURL points the client at another endpoint, e.g. a test server.
func (s *SerperClient) WithBaseURL(u string) *SerperClient {
	s.baseURL = strings.TrimRight(u, "/")
	return s
}

func (s *SerperClient) Name() string { return "serper" }

type serperResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Date    string `json:"date"`
}

func (s *SerperClient) Text(ctx context.Context, query string, maxResults int) ([]Item, error) {
	var resp struct {
		Organic []serperResult `json:"organic"`
	}
	if err := s.post(ctx, "/search", query, maxResults, &resp); err != nil {
		return nil, fmt.Errorf("serper search: %w", err)
	}
	return limit(serperItems(resp.Organic), maxResults), nil
}

func (s *SerperClient) News(ctx context.Context, query string, maxResults int) ([]Item, error) {
	var resp struct {
		News []serperResult `json:"news"`
	}
	if err := s.post(ctx, "/news", query, maxResults, &resp); err != nil {
		return nil, fmt.Errorf("serper news: %w", err)
	}
	return limit(serperItems(resp.News), maxResults), nil
}

func (s *SerperClient) post(ctx context.Context, path, query string, maxResults int, out any) error {
	headers := map[string]string{"X-API-KEY": s.apiKey}
	body := map[string]any{"q": query, "num": max1(maxResults, 10)}
	return s.http.DoJSON(ctx, http.MethodPost, s.baseURL+path, headers, body, out)
}

func serperItems(in []serperResult) []Item {
	out := make([]Item, 0, len(in))
	for _, r := range in {
		out = append(out, Item{Title: r.Title, Body: r.Snippet, URL: r.Link, Date: r.Date})
	}
	return out
}

// NewsAPIClient implements the news half of Provider using newsapi.org
type NewsAPIClient struct {
	apiKey   string
	endpoint string
	http     *HTTPClient
}

func NewNewsAPI(apiKey, endpoint string, httpc *HTTPClient) *NewsAPIClient {
	if endpoint == "" {
		endpoint = "https://newsapi.org/v2/everything"
	}
	return &NewsAPIClient{apiKey: apiKey, endpoint: endpoint, http: httpc}
}

func (n *NewsAPIClient) Name() string { return "newsapi" }

func (n *NewsAPIClient) Text(ctx context.Context, query string, maxResults int) ([]Item, error) {
	return nil, fmt.Errorf("newsapi: %w", ErrUnsupportedMode)
}

func (n *NewsAPIClient) News(ctx context.Context, query string, maxResults int) ([]Item, error) {
	var resp struct {
		Articles []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			PublishedAt string `json:"publishedAt"`
			Description string `json:"description"`
			Content     string `json:"content"`
		} `json:"articles"`
	}
	headers := map[string]string{"X-Api-Key": n.apiKey}
	u := fmt.Sprintf("%s?q=%s&language=en&sortBy=publishedAt&pageSize=%d", n.endpoint, escapeQuery(query), max1(maxResults, 20))
	if err := n.http.DoJSON(ctx, http.MethodGet, u, headers, nil, &resp); err != nil {
		return nil, fmt.Errorf("newsapi: %w", err)
	}
	out := make([]Item, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		body := strings.TrimSpace(a.Description)
		if body == "" {
			body = strings.TrimSpace(a.Content)
		}
		out = append(out, Item{Title: a.Title, Body: body, URL: a.URL, Date: a.PublishedAt})
	}
	return limit(out, maxResults), nil
}
