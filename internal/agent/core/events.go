package core

import (
	"context"
	"time"
)

// EventSink accepts agent action events. Implementations must not block the
// pipeline on their own failures.
type EventSink interface {
	LogAgentAction(ctx context.Context, agent, action string, data map[string]interface{})
}

// SessionStore opens and closes research sessions.
type SessionStore interface {
	StartSession(ctx context.Context, query string) string
	EndSession(ctx context.Context, id, status string)
}

// MemoryStore receives the texts remembered after a run.
type MemoryStore interface {
	Store(ctx context.Context, text string, metadata map[string]interface{})
}

// ReportSaver persists a finished report and returns where it went.
type ReportSaver interface {
	Save(query, content string) (string, error)
}

// RunObserver is told how each research run ended.
type RunObserver interface {
	ObserveRun(status string, d time.Duration)
}

type nopSink struct{}

func (nopSink) LogAgentAction(context.Context, string, string, map[string]interface{}) {}

// NopSink discards every event.
var NopSink EventSink = nopSink{}

type multiSink []EventSink

// MultiSink fans each event out to every non-nil sink in order.
func MultiSink(sinks ...EventSink) EventSink {
	var out multiSink
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return NopSink
	}
	return out
}

func (m multiSink) LogAgentAction(ctx context.Context, agent, action string, data map[string]interface{}) {
	for _, s := range m {
		s.LogAgentAction(ctx, agent, action, data)
	}
}

// emit logs to sink, containing any panic raised by the sink.
func emit(ctx context.Context, sink EventSink, agent, action string, data map[string]interface{}) {
	if sink == nil {
		return
	}
	defer func() { _ = recover() }()
	sink.LogAgentAction(ctx, agent, action, data)
}
