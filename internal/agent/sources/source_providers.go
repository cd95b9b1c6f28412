package sources

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/mohammad-safakhou/researcher/config"
)

var (
	// ErrUnsupportedProvider is returned by New for unknown provider names.
	ErrUnsupportedProvider = errors.New("unsupported search provider")
	// ErrUnsupportedMode is returned when a provider has no web or no news endpoint.
	ErrUnsupportedMode = errors.New("search mode not supported by provider")
)

// Item is one raw result returned by a search provider.
type Item struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
	Date  string `json:"date,omitempty"`
}

// Provider is an external web and news search service.
type Provider interface {
	Name() string
	Text(ctx context.Context, query string, maxResults int) ([]Item, error)
	News(ctx context.Context, query string, maxResults int) ([]Item, error)
}

// New builds the configured web provider, routing news queries to
// cfg.NewsProvider when it names a different service.
func New(cfg config.SearchConfig) (Provider, error) {
	cfg = cfg.Normalize()
	httpc := NewHTTPClient(cfg.Timeout, cfg.Retries, cfg.Backoff)
	web, err := build(cfg, cfg.Provider, httpc)
	if err != nil {
		return nil, err
	}
	if cfg.NewsProvider == cfg.Provider {
		return web, nil
	}
	news, err := build(cfg, cfg.NewsProvider, httpc)
	if err != nil {
		return nil, err
	}
	return &router{web: web, news: news}, nil
}

func build(cfg config.SearchConfig, name string, httpc *HTTPClient) (Provider, error) {
	switch name {
	case config.SearchDuckDuckGo:
		return NewDuckDuckGo(httpc), nil
	case config.SearchBrave:
		return NewBrave(cfg.BraveAPIKey, httpc), nil
	case config.SearchSerper:
		return NewSerper(cfg.SerperAPIKey, httpc), nil
	case config.SearchNewsAPI:
		return NewNewsAPI(cfg.NewsAPIKey, cfg.NewsAPIEndpoint, httpc), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, name)
	}
}

type router struct {
	web  Provider
	news Provider
}

func (r *router) Name() string { return r.web.Name() + "+" + r.news.Name() }

func (r *router) Text(ctx context.Context, query string, maxResults int) ([]Item, error) {
	return r.web.Text(ctx, query, maxResults)
}

func (r *router) News(ctx context.Context, query string, maxResults int) ([]Item, error) {
	return r.news.News(ctx, query, maxResults)
}

func escapeQuery(q string) string { return url.QueryEscape(strings.TrimSpace(q)) }

func max1(a, def int) int {
	if a > 0 {
		return a
	}
	return def
}

func limit(items []Item, n int) []Item {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
