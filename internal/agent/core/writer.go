package core

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mohammad-safakhou/researcher/internal/helpers"
	"github.com/mohammad-safakhou/researcher/provider"
)

// ReportWriter turns a query and its summary into report text.
type ReportWriter interface {
	WriteReport(ctx context.Context, query string, summary Summary) (string, error)
}

// MarkdownWriter renders a markdown research report. With a chat model it
// asks for prose first and falls back to the built-in layout on any failure.
type MarkdownWriter struct {
	model  provider.ChatModel
	sink   EventSink
	logger *log.Logger
	now    func() time.Time
}

type WriterOption func(*MarkdownWriter)

// WithWriterModel enables language model prose. A nil model is ignored.
func WithWriterModel(m provider.ChatModel) WriterOption {
	return func(w *MarkdownWriter) { w.model = m }
}

func WithWriterLogger(l *log.Logger) WriterOption {
	return func(w *MarkdownWriter) {
		if l != nil {
			w.logger = l
		}
	}
}

func WithWriterClock(now func() time.Time) WriterOption {
	return func(w *MarkdownWriter) {
		if now != nil {
			w.now = now
		}
	}
}

func NewMarkdownWriter(sink EventSink, opts ...WriterOption) *MarkdownWriter {
	if sink == nil {
		sink = NopSink
	}
	w := &MarkdownWriter{
		sink:   sink,
		logger: log.New(log.Writer(), "[WRITER] ", log.LstdFlags),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteReport returns the report body. It only fails when ctx is done.
func (w *MarkdownWriter) WriteReport(ctx context.Context, query string, summary Summary) (string, error) {
	emit(ctx, w.sink, AgentWriter, "report_started", map[string]interface{}{
		"query":      query,
		"key_points": len(summary.KeyFindings),
	})

	method := MethodHeuristic
	var body string
	if w.model != nil {
		prose, err := w.model.Complete(ctx, reportPrompt(query, summary))
		prose = strings.TrimSpace(prose)
		switch {
		case err != nil:
			w.logger.Printf("warning: report prose failed, using template: %v", err)
		case prose == "":
			w.logger.Printf("warning: report prose was empty, using template")
		default:
			body = renderReport(query, summary, w.now(), prose)
			method = MethodLLM
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if body == "" {
		body = renderReport(query, summary, w.now(), "")
	}

	emit(ctx, w.sink, AgentWriter, "report_completed", map[string]interface{}{
		"query":  query,
		"length": len(body),
		"method": method,
	})
	return body, nil
}

// renderReport lays out the report. prose, when set, replaces the generated
// overview section.
func renderReport(query string, s Summary, at time.Time, prose string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Research Report: %s\n\n", query)
	fmt.Fprintf(&b, "_Generated: %s_\n\n", at.Format("2006-01-02 15:04:05"))

	b.WriteString("## Overview\n\n")
	switch {
	case prose != "":
		b.WriteString(prose)
		b.WriteString("\n\n")
	case s.Summary != "":
		b.WriteString(s.Summary)
		b.WriteString("\n\n")
	default:
		fmt.Fprintf(&b, "This report draws on %d search results across %d sources.\n\n", s.SourceCount, len(s.Sources))
	}

	b.WriteString("## Key Findings\n\n")
	if len(s.KeyFindings) == 0 {
		b.WriteString("No findings were extracted.\n\n")
	}
	refs := citationIndex(s.Sources)
	for i, f := range s.KeyFindings {
		point := strings.TrimSpace(f.Point)
		if point == "" {
			point = "(no description)"
		}
		fmt.Fprintf(&b, "%d. %s", i+1, point)
		if n, ok := refs[helpers.URLKey(f.URL)]; ok && f.URL != "" {
			fmt.Fprintf(&b, " [%d]", n)
		} else if f.Source != "" {
			fmt.Fprintf(&b, " (%s)", f.Source)
		}
		if f.Credibility != "" {
			fmt.Fprintf(&b, " _credibility: %s_", f.Credibility)
		}
		b.WriteString("\n")
	}
	if len(s.KeyFindings) > 0 {
		b.WriteString("\n")
	}

	if len(s.Themes) > 0 {
		b.WriteString("## Themes\n\n")
		for _, t := range s.Themes {
			fmt.Fprintf(&b, "- %s\n", t)
		}
		b.WriteString("\n")
	}
	if s.CredibilityNotes != "" {
		b.WriteString("## Source Reliability\n\n")
		b.WriteString(s.CredibilityNotes)
		b.WriteString("\n\n")
	}

	b.WriteString("## Sources\n\n")
	citations := make([]helpers.Citation, 0, len(s.Sources))
	for i, src := range s.Sources {
		citations = append(citations, helpers.Citation{Index: i + 1, Title: src.Title, URL: src.URL})
	}
	if lines := helpers.FormatCitations(citations, helpers.AsMarkdownLink()); len(lines) > 0 {
		for _, l := range lines {
			b.WriteString("- " + l + "\n")
		}
	} else {
		b.WriteString("No sources were found.\n")
	}
	b.WriteString("\n---\n\n")
	fmt.Fprintf(&b, "_Synthesis method: %s; results analysed: %d_\n", s.SynthesisMethod, s.SourceCount)
	return b.String()
}

// citationIndex maps each source's canonical URL to its 1-based position.
func citationIndex(sources []SourceRef) map[string]int {
	out := make(map[string]int, len(sources))
	for i, s := range sources {
		if s.URL == "" {
			continue
		}
		key := helpers.URLKey(s.URL)
		if _, ok := out[key]; !ok {
			out[key] = i + 1
		}
	}
	return out
}

func reportPrompt(query string, s Summary) string {
	var b strings.Builder
	for i, f := range s.KeyFindings {
		fmt.Fprintf(&b, "%d. %s (source: %s, %s)\n", i+1, f.Point, orDefault(f.Source, "Unknown"), orDefault(f.URL, "N/A"))
	}
	return fmt.Sprintf(`You are writing the overview section of a research report.
RESEARCH QUESTION:
%s

KEY FINDINGS:
%s
SUMMARY:
%s

Guidance:
- Write three to five paragraphs that answer the question using only the findings above.
- Refer to sources by name; do not invent facts or links.
- Do not add headings.

Return ONLY the markdown content.`, query, b.String(), orDefault(s.Summary, "(none)"))
}
