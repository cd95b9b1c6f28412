package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/mohammad-safakhou/researcher/internal/helpers"
	"github.com/mohammad-safakhou/researcher/provider"
)

const (
	heuristicFindings = 10
	maxSummarySources = 15
	maxFindingRunes   = 200
	llmContextResults = 15
)

var errMissingFindings = errors.New("model reply has no key_findings")

// SynthesisMode selects how the summarizer turns results into findings. It is
// either HeuristicMode or LanguageModelMode.
type SynthesisMode interface {
	Method() string
}

// HeuristicMode extracts findings directly from result snippets.
type HeuristicMode struct{}

func (HeuristicMode) Method() string { return MethodHeuristic }

// LanguageModelMode asks a chat model for findings and falls back to the
// heuristic on any failure.
type LanguageModelMode struct {
	Model provider.ChatModel
}

func (LanguageModelMode) Method() string { return MethodLLM }

// SelectMode returns the language model variant only when synthesis is
// enabled and a model is present.
func SelectMode(enabled bool, model provider.ChatModel) SynthesisMode {
	if !enabled || model == nil {
		return HeuristicMode{}
	}
	return LanguageModelMode{Model: model}
}

// Summarizer synthesizes search result lists into a Summary.
type Summarizer struct {
	mode   SynthesisMode
	sink   EventSink
	logger *log.Logger
}

type SummarizerOption func(*Summarizer)

func WithSummarizerLogger(l *log.Logger) SummarizerOption {
	return func(s *Summarizer) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewSummarizer(mode SynthesisMode, sink EventSink, opts ...SummarizerOption) *Summarizer {
	if mode == nil {
		mode = HeuristicMode{}
	}
	if sink == nil {
		sink = NopSink
	}
	s := &Summarizer{
		mode:   mode,
		sink:   sink,
		logger: log.New(log.Writer(), "[SUMMARIZER] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mode reports the configured synthesis mode.
func (s *Summarizer) Mode() SynthesisMode { return s.mode }

// Summarize flattens lists in order and synthesizes them. It never fails.
func (s *Summarizer) Summarize(ctx context.Context, lists [][]SearchResult) Summary {
	lm, usingLLM := s.mode.(LanguageModelMode)
	emit(ctx, s.sink, AgentSummarizer, "summarization_started", map[string]interface{}{
		"source_count": len(lists),
		"using_llm":    usingLLM,
	})

	all := flatten(lists)
	var summary Summary
	if usingLLM {
		var err error
		summary, err = s.synthesizeWithModel(ctx, lm.Model, all)
		if err != nil {
			s.logger.Printf("warning: language model synthesis failed, using heuristic: %v", err)
			emit(ctx, s.sink, AgentSummarizer, "synthesis_fallback", map[string]interface{}{"error": err.Error()})
			summary = Heuristic(all)
		}
	} else {
		summary = Heuristic(all)
	}

	method := "heuristic"
	if summary.SynthesisMethod == MethodLLM {
		method = MethodLLM
	}
	emit(ctx, s.sink, AgentSummarizer, "summarization_completed", map[string]interface{}{
		"source_count": len(lists),
		"key_points":   len(summary.KeyFindings),
		"method":       method,
	})
	return summary
}

// Heuristic builds findings from the first ten results and lists up to
// fifteen distinct source URLs in arrival order.
func Heuristic(all []SearchResult) Summary {
	findings := make([]KeyFinding, 0, heuristicFindings)
	for i, r := range all {
		if i == heuristicFindings {
			break
		}
		title := r.Title
		if title == "" {
			title = "Unknown"
		}
		findings = append(findings, KeyFinding{
			Point:  helpers.Truncate(r.Snippet, maxFindingRunes),
			Source: title,
			URL:    r.URL,
		})
	}
	return Summary{
		KeyFindings:     findings,
		SourceCount:     len(all),
		Sources:         distinctSources(all),
		SynthesisMethod: MethodHeuristic,
	}
}

type modelReply struct {
	KeyFindings      *[]KeyFinding `json:"key_findings"`
	Summary          string        `json:"summary"`
	Themes           []string      `json:"themes"`
	CredibilityNotes string        `json:"credibility_notes"`
}

func (s *Summarizer) synthesizeWithModel(ctx context.Context, model provider.ChatModel, all []SearchResult) (Summary, error) {
	if len(all) == 0 {
		return Heuristic(all), nil
	}
	reply, err := model.Complete(ctx, SynthesisPrompt(all))
	if err != nil {
		return Summary{}, fmt.Errorf("complete: %w", err)
	}
	raw, err := helpers.ExtractJSONObject(reply)
	if err != nil {
		return Summary{}, fmt.Errorf("parse reply: %w", err)
	}
	var parsed modelReply
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return Summary{}, fmt.Errorf("decode reply: %w", err)
	}
	if parsed.KeyFindings == nil {
		return Summary{}, errMissingFindings
	}

	var sources []SourceRef
	for i, r := range all {
		if i == llmContextResults {
			break
		}
		if r.URL == "" {
			continue
		}
		title := r.Title
		if title == "" {
			title = "Unknown"
		}
		sources = append(sources, SourceRef{Title: title, URL: r.URL})
	}
	return Summary{
		KeyFindings:      *parsed.KeyFindings,
		SourceCount:      len(all),
		Sources:          sources,
		SynthesisMethod:  MethodLLM,
		Summary:          parsed.Summary,
		Themes:           parsed.Themes,
		CredibilityNotes: parsed.CredibilityNotes,
	}, nil
}

// SynthesisPrompt renders the analyst instruction over the first fifteen
// results.
func SynthesisPrompt(all []SearchResult) string {
	parts := make([]string, 0, llmContextResults)
	for i, r := range all {
		if i == llmContextResults {
			break
		}
		title := orDefault(r.Title, "Unknown")
		url := orDefault(r.URL, "N/A")
		snippet := orDefault(r.Snippet, "No description")
		parts = append(parts, fmt.Sprintf("Source %d: %s\nURL: %s\nContent: %s\n", i+1, title, url, snippet))
	}
	return fmt.Sprintf(synthesisTemplate, strings.Join(parts, "\n"))
}

const synthesisTemplate = `You are a research analyst synthesizing information from multiple sources.

Based on the following sources, extract and summarize the key findings:

%s

Provide your analysis in the following JSON format:
{
    "key_findings": [
        {
            "point": "Key insight or finding",
            "source": "Source title",
            "url": "Source URL",
            "credibility": "high|medium|low"
        }
    ],
    "summary": "Overall summary paragraph",
    "themes": ["theme1", "theme2"],
    "credibility_notes": "Notes on source reliability"
}

Extract 5-8 key findings. Focus on factual information with proper attribution.`

func flatten(lists [][]SearchResult) []SearchResult {
	var n int
	for _, l := range lists {
		n += len(l)
	}
	all := make([]SearchResult, 0, n)
	for _, l := range lists {
		all = append(all, l...)
	}
	return all
}

func distinctSources(all []SearchResult) []SourceRef {
	seen := make(map[string]bool)
	out := make([]SourceRef, 0, maxSummarySources)
	for _, r := range all {
		if len(out) == maxSummarySources {
			break
		}
		if r.URL == "" || seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		out = append(out, SourceRef{Title: orDefault(r.Title, "Unknown"), URL: r.URL})
	}
	return out
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
