package core

import (
	"errors"
	"fmt"
	"log"

	"github.com/mohammad-safakhou/researcher/config"
	"github.com/mohammad-safakhou/researcher/internal/agent/sources"
	"github.com/mohammad-safakhou/researcher/provider"
)

// Agents bundles the pipeline agents built from configuration
type Agents struct {
	Planner    *Planner
	Search     *SearchAgent
	Summarizer *Summarizer
	Writer     *MarkdownWriter
}

// NewAgents creates all agents. model may be nil, in which case synthesis
// and writing use their built-in methods.
func NewAgents(cfg *config.Config, model provider.ChatModel, src sources.Provider, sink EventSink) (Agents, error) {
	if cfg == nil {
		return Agents{}, errors.New("config is required")
	}
	if src == nil {
		return Agents{}, errors.New("search provider is required")
	}
	search := cfg.Search.Normalize()

	var writerOpts []WriterOption
	if cfg.LLM.WritingEnabled() && model != nil {
		writerOpts = append(writerOpts, WithWriterModel(model))
	}

	return Agents{
		Planner: NewPlanner(sink),
		Search: NewSearchAgent(src, sink,
			WithPacing(search.Pacing),
			WithDefaultMaxResults(search.MaxResults),
			WithDomainPolicy(search.Domains),
		),
		Summarizer: NewSummarizer(SelectMode(cfg.LLM.SummarizationEnabled(), model), sink),
		Writer:     NewMarkdownWriter(sink, writerOpts...),
	}, nil
}

// NewLanguageModel returns the configured chat model, or nil when none is
// available. Other construction errors are returned.
func NewLanguageModel(cfg config.LLMConfig, logger *log.Logger) (provider.ChatModel, error) {
	m, err := provider.New(cfg)
	if errors.Is(err, provider.ErrUnavailable) {
		if logger != nil {
			logger.Printf("no language model configured; using heuristic synthesis")
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create language model: %w", err)
	}
	return m, nil
}

// NewOrchestratorFromConfig wires agents and stores into an orchestrator
// using the run options from cfg.
func NewOrchestratorFromConfig(cfg *config.Config, agents Agents, stores Components, logger *log.Logger) (*Orchestrator, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	findings := cfg.Memory.FindingsToStore
	if findings <= 0 {
		findings = DefaultFindingsToStore
	}
	c := stores
	c.Planner = agents.Planner
	c.Search = agents.Search
	c.Summarizer = agents.Summarizer
	if agents.Writer != nil {
		c.Writer = agents.Writer
	}
	return NewOrchestrator(c, RunOptions{
		MaxResults:      cfg.Search.MaxResults,
		MultiSource:     cfg.Search.MultiSource,
		IncludeNews:     cfg.Search.IncludeNews,
		FindingsToStore: findings,
	}, logger)
}
