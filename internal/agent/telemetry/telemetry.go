package telemetry

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/mohammad-safakhou/researcher/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Telemetry counts agent actions and research runs. It is an event sink for
// the agents and a run observer for the orchestrator.
type Telemetry struct {
	config   config.TelemetryConfig
	logger   *log.Logger
	registry *prometheus.Registry

	actions     *prometheus.CounterVec
	runs        *prometheus.CounterVec
	runDuration prometheus.Histogram
	results     prometheus.Counter

	mu      sync.RWMutex
	metrics Metrics
}

// Metrics is an in-process snapshot of what has been recorded
type Metrics struct {
	TotalRuns          int64
	SuccessfulRuns     int64
	FailedRuns         int64
	CancelledRuns      int64
	AverageRunTime     time.Duration
	SearchFailures     int64
	SynthesisFallbacks int64
	ResultsCollected   int64

	// agent -> action -> count
	AgentActions map[string]map[string]int64
}

// NewTelemetry creates a telemetry instance with its own prometheus registry.
func NewTelemetry(cfg config.TelemetryConfig) *Telemetry {
	ns := cfg.Namespace
	if ns == "" {
		ns = "researcher"
	}
	t := &Telemetry{
		config:   cfg,
		logger:   log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags),
		registry: prometheus.NewRegistry(),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "agent_actions_total",
			Help:      "Agent actions logged, by agent and action.",
		}, []string{"agent", "action"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "research_runs_total",
			Help:      "Research runs, by final session status.",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "research_run_duration_seconds",
			Help:      "Wall-clock duration of research runs.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}),
		results: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "search_results_total",
			Help:      "Search results returned by completed searches.",
		}),
		metrics: Metrics{AgentActions: make(map[string]map[string]int64)},
	}
	t.registry.MustRegister(t.actions, t.runs, t.runDuration, t.results)
	return t
}

// LogAgentAction records one agent event.
func (t *Telemetry) LogAgentAction(ctx context.Context, agent, action string, data map[string]interface{}) {
	if !t.config.Enabled {
		return
	}
	t.actions.WithLabelValues(agent, action).Inc()

	t.mu.Lock()
	defer t.mu.Unlock()
	byAction := t.metrics.AgentActions[agent]
	if byAction == nil {
		byAction = make(map[string]int64)
		t.metrics.AgentActions[agent] = byAction
	}
	byAction[action]++

	switch action {
	case "search_failed":
		t.metrics.SearchFailures++
	case "synthesis_fallback":
		t.metrics.SynthesisFallbacks++
	case "search_completed":
		if n, ok := data["result_count"].(int); ok && n > 0 {
			t.results.Add(float64(n))
			t.metrics.ResultsCollected += int64(n)
		}
	}
}

// ObserveRun records how a research run ended.
func (t *Telemetry) ObserveRun(status string, d time.Duration) {
	if !t.config.Enabled {
		return
	}
	t.runs.WithLabelValues(status).Inc()
	t.runDuration.Observe(d.Seconds())

	t.mu.Lock()
	defer t.mu.Unlock()
	t.metrics.TotalRuns++
	switch status {
	case "completed":
		t.metrics.SuccessfulRuns++
	case "cancelled":
		t.metrics.CancelledRuns++
	default:
		t.metrics.FailedRuns++
	}
	if t.metrics.TotalRuns == 1 {
		t.metrics.AverageRunTime = d
	} else {
		total := t.metrics.AverageRunTime * time.Duration(t.metrics.TotalRuns-1)
		t.metrics.AverageRunTime = (total + d) / time.Duration(t.metrics.TotalRuns)
	}
	t.logger.Printf("Run: Status=%s, Duration=%v", status, d)
}

// Handler serves the registry in the prometheus exposition format.
func (t *Telemetry) Handler() http.Handler {
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}

// GetMetrics returns a deep copy of the current metrics.
func (t *Telemetry) GetMetrics() Metrics {
	t.mu.RLock()
	defer t.mu.RUnlock()

	m := t.metrics
	m.AgentActions = make(map[string]map[string]int64, len(t.metrics.AgentActions))
	for agent, actions := range t.metrics.AgentActions {
		cp := make(map[string]int64, len(actions))
		for k, v := range actions {
			cp[k] = v
		}
		m.AgentActions[agent] = cp
	}
	return m
}

// Shutdown logs a final report.
func (t *Telemetry) Shutdown() {
	if !t.config.Enabled {
		return
	}
	m := t.GetMetrics()
	t.logger.Printf("Final Report:")
	t.logger.Printf("  Total Runs: %d (completed %d, failed %d, cancelled %d)", m.TotalRuns, m.SuccessfulRuns, m.FailedRuns, m.CancelledRuns)
	t.logger.Printf("  Average Run Time: %v", m.AverageRunTime)
	t.logger.Printf("  Search Failures: %d, Synthesis Fallbacks: %d", m.SearchFailures, m.SynthesisFallbacks)
}
