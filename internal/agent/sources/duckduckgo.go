package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// DuckDuckGoClient scrapes the keyless DuckDuckGo HTML endpoint.
type DuckDuckGoClient struct {
	baseURL string
	http    *HTTPClient
}

func NewDuckDuckGo(httpc *HTTPClient) *DuckDuckGoClient {
	return &DuckDuckGoClient{baseURL: "https://html.duckduckgo.com/html/", http: httpc}
}

// WithBaseURL points the client at another endpoint, e.g. a test server.
func (d *DuckDuckGoClient) WithBaseURL(u string) *DuckDuckGoClient {
	d.baseURL = u
	return d
}

func (d *DuckDuckGoClient) Name() string { return "duckduckgo" }

func (d *DuckDuckGoClient) Text(ctx context.Context, query string, maxResults int) ([]Item, error) {
	return d.search(ctx, url.Values{"q": {query}}, maxResults)
}

// News restricts the HTML endpoint to the past week; the keyless endpoint has
// no dedicated news vertical.
func (d *DuckDuckGoClient) News(ctx context.Context, query string, maxResults int) ([]Item, error) {
	return d.search(ctx, url.Values{"q": {query + " news"}, "df": {"w"}}, maxResults)
}

func (d *DuckDuckGoClient) search(ctx context.Context, form url.Values, maxResults int) ([]Item, error) {
	body, err := d.http.PostForm(ctx, d.baseURL, form.Encode(), map[string]string{"Accept": "text/html"})
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: %w", err)
	}
	items, err := parseDuckDuckGo(body)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: parse results: %w", err)
	}
	return limit(items, maxResults), nil
}

// parseDuckDuckGo extracts results from the div.result blocks of the HTML page.
func parseDuckDuckGo(body []byte) ([]Item, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	var items []Item
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "div" && hasClass(n, "result") && !hasClass(n, "result--ad") {
			if it, ok := resultItem(n); ok {
				items = append(items, it)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return items, nil
}

func resultItem(n *html.Node) (Item, bool) {
	var it Item
	var found bool
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.ElementNode && c.Data == "a" {
			switch {
			case hasClass(c, "result__a"):
				it.Title = strings.TrimSpace(textOf(c))
				it.URL = resolveDuckDuckGoLink(attr(c, "href"))
				found = true
			case hasClass(c, "result__snippet"):
				it.Body = strings.TrimSpace(textOf(c))
			}
		}
		if c.Type == html.ElementNode && hasClass(c, "result__timestamp") {
			it.Date = strings.TrimSpace(textOf(c))
		}
		for x := c.FirstChild; x != nil; x = x.NextSibling {
			walk(x)
		}
	}
	walk(n)
	return it, found
}

// resolveDuckDuckGoLink unwraps the /l/?uddg= redirect DuckDuckGo puts on result links.
func resolveDuckDuckGoLink(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

func hasClass(n *html.Node, class string) bool {
	for _, f := range strings.Fields(attr(n, "class")) {
		if f == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		for x := c.FirstChild; x != nil; x = x.NextSibling {
			walk(x)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
