package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Session end states
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// DefaultFindingsToStore is how many key findings are remembered per run.
const DefaultFindingsToStore = 5

// Components are the collaborators an Orchestrator drives. Planner, Search,
// Summarizer and Writer are required.
type Components struct {
	Planner    *Planner
	Search     *SearchAgent
	Summarizer *Summarizer
	Writer     ReportWriter
	Sessions   SessionStore
	Memory     MemoryStore
	Reports    ReportSaver
	Observer   RunObserver
}

// RunOptions tune a research run.
type RunOptions struct {
	MaxResults      int
	MultiSource     bool
	IncludeNews     bool
	FindingsToStore int
}

// ProcessingStatus describes an in-flight run
type ProcessingStatus struct {
	RunID       string    `json:"run_id"`
	Query       string    `json:"query"`
	Status      string    `json:"status"`
	Progress    float64   `json:"progress"`
	Message     string    `json:"message"`
	StartedAt   time.Time `json:"started_at"`
	LastUpdated time.Time `json:"last_updated"`
}

// Orchestrator runs the plan, search, summarize, write and remember phases
// of one research session at a time.
type Orchestrator struct {
	c      Components
	opts   RunOptions
	logger *log.Logger
	now    func() time.Time

	processing map[string]*ProcessingStatus
	mu         sync.RWMutex

	semaphore chan struct{}
}

var orchestratorTracer trace.Tracer = otel.Tracer("researcher/internal/agent/orchestrator")

// NewOrchestrator validates the components and returns a ready orchestrator.
func NewOrchestrator(c Components, opts RunOptions, logger *log.Logger) (*Orchestrator, error) {
	switch {
	case c.Planner == nil:
		return nil, errors.New("orchestrator: planner is required")
	case c.Search == nil:
		return nil, errors.New("orchestrator: search agent is required")
	case c.Summarizer == nil:
		return nil, errors.New("orchestrator: summarizer is required")
	case c.Writer == nil:
		return nil, errors.New("orchestrator: writer is required")
	}
	if opts.FindingsToStore < 0 {
		opts.FindingsToStore = 0
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[ORCH] ", log.LstdFlags)
	}
	return &Orchestrator{
		c:          c,
		opts:       opts,
		logger:     logger,
		now:        time.Now,
		processing: make(map[string]*ProcessingStatus),
		semaphore:  make(chan struct{}, 1),
	}, nil
}

// Research executes one full session for query. Agent-level failures are
// absorbed by the agents; anything else ends the session as failed (or
// cancelled when ctx is done) and is returned.
func (o *Orchestrator) Research(ctx context.Context, query string) (result Result, err error) {
	if query == "" {
		return Result{}, errors.New("query is required")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	select {
	case o.semaphore <- struct{}{}:
		defer func() { <-o.semaphore }()
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	start := o.now()
	result = Result{ID: uuid.New().String(), Query: query, StartedAt: start}
	ctx, span := orchestratorTracer.Start(ctx, "research.run",
		trace.WithAttributes(
			attribute.String("run.id", result.ID),
			attribute.String("run.query", query),
		))
	defer span.End()

	status := o.track(result.ID, query, start)
	defer o.untrack(result.ID)

	if o.c.Sessions != nil {
		result.SessionID = o.c.Sessions.StartSession(ctx, query)
		span.SetAttributes(attribute.String("session.id", result.SessionID))
	}
	o.logger.Printf("starting research %s (session %s): %q", result.ID, result.SessionID, query)

	defer func() {
		final := StatusCompleted
		if err != nil {
			final = StatusFailed
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				final = StatusCancelled
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			o.logger.Printf("research %s %s: %v", result.ID, final, err)
		} else {
			span.SetStatus(codes.Ok, final)
		}
		if o.c.Sessions != nil && result.SessionID != "" {
			o.c.Sessions.EndSession(context.WithoutCancel(ctx), result.SessionID, final)
		}
		result.Duration = o.now().Sub(start)
		if o.c.Observer != nil {
			o.c.Observer.ObserveRun(final, result.Duration)
		}
	}()

	// Phase 1: planning
	o.updateStatus(status, "planning", 0.1, "Creating research plan")
	planCtx, planSpan := orchestratorTracer.Start(ctx, "research.plan")
	result.Subtasks = o.c.Planner.Plan(planCtx, query)
	if err := ValidatePlan(result.Subtasks); err != nil {
		planSpan.RecordError(err)
		planSpan.SetStatus(codes.Error, err.Error())
		planSpan.End()
		return result, fmt.Errorf("planning failed: %w", err)
	}
	planSpan.SetAttributes(attribute.Int("plan.subtask_count", len(result.Subtasks)))
	planSpan.End()

	// Phase 2: searches, one subtask after another
	o.updateStatus(status, "searching", 0.2, "Gathering information")
	lists, err := o.executeSearches(ctx, result.Subtasks)
	if err != nil {
		return result, err
	}

	// Phase 3: synthesis
	o.updateStatus(status, "summarizing", 0.6, "Synthesizing findings")
	synthCtx, synthSpan := orchestratorTracer.Start(ctx, "research.summarize")
	result.Summary = o.c.Summarizer.Summarize(synthCtx, lists)
	synthSpan.SetAttributes(
		attribute.String("summary.method", result.Summary.SynthesisMethod),
		attribute.Int("summary.key_findings", len(result.Summary.KeyFindings)),
		attribute.Int("summary.source_count", result.Summary.SourceCount),
	)
	synthSpan.End()
	if err := ctx.Err(); err != nil {
		return result, err
	}

	// Phase 4: report
	o.updateStatus(status, "writing", 0.8, "Generating report")
	writeCtx, writeSpan := orchestratorTracer.Start(ctx, "research.write")
	result.Report, err = o.c.Writer.WriteReport(writeCtx, query, result.Summary)
	if err != nil {
		writeSpan.RecordError(err)
		writeSpan.SetStatus(codes.Error, err.Error())
		writeSpan.End()
		return result, fmt.Errorf("writing report failed: %w", err)
	}
	if o.c.Reports != nil {
		result.ReportPath, err = o.c.Reports.Save(query, result.Report)
		if err != nil {
			writeSpan.RecordError(err)
			writeSpan.SetStatus(codes.Error, err.Error())
			writeSpan.End()
			return result, fmt.Errorf("saving report failed: %w", err)
		}
	}
	writeSpan.End()

	// Phase 5: memory
	o.updateStatus(status, "remembering", 0.9, "Updating memory")
	if o.c.Memory != nil {
		memCtx, memSpan := orchestratorTracer.Start(ctx, "research.remember")
		stored := o.remember(memCtx, query, result.Summary)
		memSpan.SetAttributes(attribute.Int("memory.records", stored))
		memSpan.End()
	}

	o.updateStatus(status, StatusCompleted, 1.0, "Research completed")
	o.logger.Printf("completed research %s in %v", result.ID, o.now().Sub(start))
	return result, nil
}

// executeSearches runs each search subtask in plan order and returns one
// result list per subtask.
func (o *Orchestrator) executeSearches(ctx context.Context, subtasks []Subtask) ([][]SearchResult, error) {
	var lists [][]SearchResult
	for _, st := range subtasks {
		if !st.IsSearch() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return lists, err
		}
		sctx, span := orchestratorTracer.Start(ctx, "research.search",
			trace.WithAttributes(
				attribute.Int("subtask.id", st.ID),
				attribute.String("subtask.query", st.Query),
			))
		var results []SearchResult
		if o.opts.MultiSource {
			results = o.c.Search.MultiSourceSearch(sctx, st.Query, o.opts.MaxResults, o.opts.IncludeNews)
		} else {
			results = o.c.Search.Search(sctx, st.Query, o.opts.MaxResults)
		}
		span.SetAttributes(attribute.Int("search.result_count", len(results)))
		span.End()
		lists = append(lists, results)
	}
	return lists, ctx.Err()
}

// remember stores the query and its leading findings in semantic memory and
// returns how many records were written.
func (o *Orchestrator) remember(ctx context.Context, query string, s Summary) int {
	ts := o.now().Format(time.RFC3339Nano)
	o.c.Memory.Store(ctx, query, map[string]interface{}{
		"type":               "research_query",
		"timestamp":          ts,
		"key_findings_count": len(s.KeyFindings),
		"source_count":       s.SourceCount,
	})
	stored := 1
	for i, f := range s.KeyFindings {
		if i == o.opts.FindingsToStore {
			break
		}
		o.c.Memory.Store(ctx, f.Point, map[string]interface{}{
			"type":      "key_finding",
			"query":     query,
			"source":    orDefault(f.Source, "Unknown"),
			"timestamp": ts,
		})
		stored++
	}
	return stored
}

// Active lists runs in progress, oldest first.
func (o *Orchestrator) Active() []ProcessingStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]ProcessingStatus, 0, len(o.processing))
	for _, st := range o.processing {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

func (o *Orchestrator) track(id, query string, at time.Time) *ProcessingStatus {
	st := &ProcessingStatus{RunID: id, Query: query, Status: "pending", StartedAt: at, LastUpdated: at}
	o.mu.Lock()
	o.processing[id] = st
	o.mu.Unlock()
	return st
}

func (o *Orchestrator) untrack(id string) {
	o.mu.Lock()
	delete(o.processing, id)
	o.mu.Unlock()
}

func (o *Orchestrator) updateStatus(st *ProcessingStatus, status string, progress float64, msg string) {
	o.mu.Lock()
	st.Status = status
	st.Progress = progress
	st.Message = msg
	st.LastUpdated = o.now()
	o.mu.Unlock()
}
