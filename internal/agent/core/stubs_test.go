package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/mohammad-safakhou/researcher/internal/agent/sources"
)

var quietLogger = log.New(io.Discard, "", 0)

type recordedEvent struct {
	Agent  string
	Action string
	Data   map[string]interface{}
}

type recordingSink struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordingSink) LogAgentAction(_ context.Context, agent, action string, data map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{Agent: agent, Action: action, Data: data})
}

func (r *recordingSink) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Action)
	}
	return out
}

func (r *recordingSink) find(action string) (recordedEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.Action == action {
			return e, true
		}
	}
	return recordedEvent{}, false
}

type panicSink struct{}

func (panicSink) LogAgentAction(context.Context, string, string, map[string]interface{}) {
	panic("sink exploded")
}

// stubProvider returns canned items keyed by query.
type stubProvider struct {
	name    string
	text    map[string][]sources.Item
	news    map[string][]sources.Item
	textErr error
	newsErr error
	calls   []string
}

func (s *stubProvider) Name() string {
	if s.name == "" {
		return "stub"
	}
	return s.name
}

func (s *stubProvider) Text(_ context.Context, query string, maxResults int) ([]sources.Item, error) {
	s.calls = append(s.calls, fmt.Sprintf("text:%s:%d", query, maxResults))
	if s.textErr != nil {
		return nil, s.textErr
	}
	return s.text[query], nil
}

func (s *stubProvider) News(_ context.Context, query string, maxResults int) ([]sources.Item, error) {
	s.calls = append(s.calls, fmt.Sprintf("news:%s:%d", query, maxResults))
	if s.newsErr != nil {
		return nil, s.newsErr
	}
	return s.news[query], nil
}

type stubModel struct {
	reply  string
	err    error
	prompt string
	calls  int
}

func (m *stubModel) Complete(_ context.Context, prompt string) (string, error) {
	m.calls++
	m.prompt = prompt
	return m.reply, m.err
}

func (m *stubModel) Model() string { return "stub-model" }

var errBoom = errors.New("boom")

type memoryRecord struct {
	Text string
	Meta map[string]interface{}
}

type stubMemory struct {
	records []memoryRecord
}

func (m *stubMemory) Store(_ context.Context, text string, meta map[string]interface{}) {
	m.records = append(m.records, memoryRecord{Text: text, Meta: meta})
}

type stubSessions struct {
	started []string
	ended   map[string]string
}

func (s *stubSessions) StartSession(_ context.Context, query string) string {
	s.started = append(s.started, query)
	return fmt.Sprintf("session_%d_1700000000", len(s.started))
}

func (s *stubSessions) EndSession(_ context.Context, id, status string) {
	if s.ended == nil {
		s.ended = make(map[string]string)
	}
	s.ended[id] = status
}

type stubReports struct {
	saved map[string]string
	err   error
}

func (r *stubReports) Save(query, content string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	if r.saved == nil {
		r.saved = make(map[string]string)
	}
	path := "reports/" + query + ".md"
	r.saved[path] = content
	return path, nil
}

type stubObserver struct {
	statuses []string
}

func (o *stubObserver) ObserveRun(status string, _ time.Duration) {
	o.statuses = append(o.statuses, status)
}

type failingWriter struct{ err error }

func (w failingWriter) WriteReport(context.Context, string, Summary) (string, error) {
	return "", w.err
}

func items(prefix string, n int) []sources.Item {
	out := make([]sources.Item, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, sources.Item{
			Title: fmt.Sprintf("%s title %d", prefix, i),
			Body:  fmt.Sprintf("%s snippet %d", prefix, i),
			URL:   fmt.Sprintf("https://example.com/%s/%d", prefix, i),
		})
	}
	return out
}

func results(prefix string, n int) []SearchResult {
	out := make([]SearchResult, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, SearchResult{
			Rank:    i,
			Title:   fmt.Sprintf("%s title %d", prefix, i),
			Snippet: fmt.Sprintf("%s snippet %d", prefix, i),
			URL:     fmt.Sprintf("https://example.com/%s/%d", prefix, i),
			Source:  "stub",
		})
	}
	return out
}
