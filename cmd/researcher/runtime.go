package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/mohammad-safakhou/researcher/config"
	"github.com/mohammad-safakhou/researcher/internal/agent/core"
	"github.com/mohammad-safakhou/researcher/internal/agent/sources"
	"github.com/mohammad-safakhou/researcher/internal/agent/telemetry"
	"github.com/mohammad-safakhou/researcher/internal/memory/docstore"
	"github.com/mohammad-safakhou/researcher/internal/memory/episodic"
	"github.com/mohammad-safakhou/researcher/internal/memory/semantic"
	"github.com/mohammad-safakhou/researcher/internal/report"
)

// runtimeResources holds the stores shared by every command.
type runtimeResources struct {
	cfg       *config.Config
	episodic  *episodic.Store
	semantic  *semantic.Store
	telemetry *telemetry.Telemetry
	closers   []io.Closer
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// bootstrapRuntime opens both memory documents on the configured backend.
func bootstrapRuntime(ctx context.Context, cfgPath string) (*runtimeResources, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	r := &runtimeResources{cfg: cfg, telemetry: telemetry.NewTelemetry(cfg.Telemetry)}

	epBackend, err := docstore.Open(ctx, cfg.Storage, "episodic", cfg.Storage.EpisodicPath())
	if err != nil {
		return nil, fmt.Errorf("episodic backend: %w", err)
	}
	r.track(epBackend)
	r.episodic = episodic.New(ctx, epBackend)

	semBackend, err := docstore.Open(ctx, cfg.Storage, "semantic", cfg.Storage.SemanticPath())
	if err != nil {
		r.Shutdown()
		return nil, fmt.Errorf("semantic backend: %w", err)
	}
	r.track(semBackend)
	r.semantic, err = semantic.New(ctx, semBackend)
	if err != nil {
		r.Shutdown()
		return nil, fmt.Errorf("semantic memory: %w", err)
	}
	r.closers = append(r.closers, r.semantic)
	return r, nil
}

func (r *runtimeResources) track(b docstore.Backend) {
	if c, ok := b.(io.Closer); ok {
		r.closers = append(r.closers, c)
	}
}

// orchestrator wires the agents to the opened stores.
func (r *runtimeResources) orchestrator() (*core.Orchestrator, error) {
	logger := log.New(log.Writer(), "[ORCH] ", log.LstdFlags)
	model, err := core.NewLanguageModel(r.cfg.LLM, log.New(log.Writer(), "[LLM] ", log.LstdFlags))
	if err != nil {
		return nil, fmt.Errorf("language model: %w", err)
	}
	src, err := sources.New(r.cfg.Search)
	if err != nil {
		return nil, fmt.Errorf("search provider: %w", err)
	}
	sink := core.MultiSink(r.episodic, r.telemetry)
	agents, err := core.NewAgents(r.cfg, model, src, sink)
	if err != nil {
		return nil, err
	}
	return core.NewOrchestratorFromConfig(r.cfg, agents, core.Components{
		Sessions: r.episodic,
		Memory:   r.semantic,
		Reports:  report.NewStore(r.cfg.Storage.ReportsDir),
		Observer: r.telemetry,
	}, logger)
}

// Shutdown closes the backends in reverse order of opening.
func (r *runtimeResources) Shutdown() {
	if r == nil {
		return
	}
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			log.Printf("warning: close: %v", err)
		}
	}
	r.closers = nil
}

// startTracing installs span export when configured. Failures only disable
// tracing; the returned func flushes on exit.
func startTracing(ctx context.Context, cfg config.TelemetryConfig) func() {
	tr, err := telemetry.SetupTracing(ctx, cfg, version)
	if err != nil {
		log.Printf("warning: tracing disabled: %v", err)
		return func() {}
	}
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tr.Shutdown(shutdownCtx); err != nil {
			log.Printf("warning: %v", err)
		}
	}
}
