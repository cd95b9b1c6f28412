package helpers

import (
	"net/url"
	"strconv"
	"strings"
)

// Citation is one numbered reference in a report.
type Citation struct {
	Index   int
	Title   string
	URL     string
	Snippet string
	Date    string
}

type citationConfig struct {
	maxSnippet int
	markdown   bool
}

// CitationOption configures citation formatting.
type CitationOption func(*citationConfig)

// WithMaxSnippetLength truncates snippets to n runes (default 180).
func WithMaxSnippetLength(n int) CitationOption {
	return func(cfg *citationConfig) {
		if n > 0 {
			cfg.maxSnippet = n
		}
	}
}

// AsMarkdownLink renders the title as a markdown link instead of a trailing <URL>.
func AsMarkdownLink() CitationOption {
	return func(cfg *citationConfig) { cfg.markdown = true }
}

// FormatCitation renders a citation as:
// [n] Title — "Snippet" (domain, date) <URL>
func FormatCitation(c Citation, opts ...CitationOption) string {
	cfg := citationConfig{maxSnippet: 180}
	for _, opt := range opts {
		opt(&cfg)
	}

	var parts []string
	if c.Index > 0 {
		parts = append(parts, "["+strconv.Itoa(c.Index)+"]")
	}

	title := strings.TrimSpace(c.Title)
	if title == "" {
		title = "Untitled"
	}
	link := strings.TrimSpace(c.URL)
	if cfg.markdown && link != "" {
		parts = append(parts, "["+escapeMarkdown(title)+"]("+link+")")
	} else {
		parts = append(parts, title)
	}

	if snippet := formatSnippet(c.Snippet, cfg.maxSnippet); snippet != "" {
		parts = append(parts, "— "+snippet)
	}

	if domain := extractDomain(link); domain != "" {
		meta := domain
		if d := strings.TrimSpace(c.Date); d != "" {
			meta += ", " + d
		}
		parts = append(parts, "("+meta+")")
	}

	if link != "" && !cfg.markdown {
		parts = append(parts, "<"+link+">")
	}
	return strings.Join(parts, " ")
}

// FormatCitations renders a collection of citations.
func FormatCitations(citations []Citation, opts ...CitationOption) []string {
	if len(citations) == 0 {
		return nil
	}
	out := make([]string, 0, len(citations))
	for _, c := range citations {
		out = append(out, FormatCitation(c, opts...))
	}
	return out
}

func formatSnippet(snippet string, limit int) string {
	snippet = strings.Join(strings.Fields(snippet), " ")
	if snippet == "" {
		return ""
	}
	if limit > 0 {
		if cut := Truncate(snippet, limit); cut != snippet {
			snippet = cut + "…"
		}
	}
	return `"` + strings.Trim(snippet, `"`) + `"`
}

func escapeMarkdown(s string) string {
	return strings.NewReplacer("[", `\[`, "]", `\]`).Replace(s)
}

// Domain returns the lower-cased host of raw without default ports.
func Domain(raw string) string { return extractDomain(raw) }

func extractDomain(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Host)
	host = strings.TrimSuffix(host, ":80")
	host = strings.TrimSuffix(host, ":443")
	return strings.TrimPrefix(host, "www.")
}
