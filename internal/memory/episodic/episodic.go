// Package episodic keeps the ordered log of research sessions and agent actions.
//
// The whole log lives in one JSON document that is rewritten after every
// mutation. Mutations within a process are serialized; separate processes
// sharing a document race and the last writer wins.
package episodic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/mohammad-safakhou/researcher/internal/memory/docstore"
)

// Session status values.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

const documentVersion = "1.0.0"

// Session is one research run and the actions recorded while it was current.
type Session struct {
	ID      string     `json:"id"`
	Query   string     `json:"query"`
	Started time.Time  `json:"started"`
	Ended   *time.Time `json:"ended,omitempty"`
	Status  string     `json:"status"`
	Actions []Action   `json:"actions"`
}

// Action is an immutable entry in the action log.
type Action struct {
	Agent     string                 `json:"agent"`
	Action    string                 `json:"action"`
	Timestamp time.Time              `json:"timestamp"`
	SessionID *string                `json:"session_id"`
	Data      map[string]interface{} `json:"data"`
}

// AgentStats aggregates the activity of a single agent.
type AgentStats struct {
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
	ActionCount int       `json:"action_count"`
}

// Metadata describes the persisted document.
type Metadata struct {
	Created     time.Time `json:"created"`
	Version     string    `json:"version"`
	Description string    `json:"description"`
}

// Stats is the aggregate view returned by AgentStats.
type Stats struct {
	TotalAgents   int                   `json:"total_agents"`
	TotalActions  int                   `json:"total_actions"`
	TotalSessions int                   `json:"total_sessions"`
	Agents        map[string]AgentStats `json:"agents"`
}

// Store is the episodic memory.
type Store struct {
	backend docstore.Backend
	logger  *log.Logger
	now     func() time.Time

	mu       sync.Mutex
	metadata Metadata
	sessions []Session
	agents   map[string]*AgentStats
	actions  []Action
	extra    map[string]json.RawMessage
	current  string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger overrides the default "[EPISODIC] " logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New builds a store over backend and loads any persisted document. Load
// problems are logged and the store starts from an empty document.
func New(ctx context.Context, backend docstore.Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  log.New(log.Writer(), "[EPISODIC] ", log.LstdFlags),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.reset()
	s.load(ctx)
	return s
}

func (s *Store) reset() {
	s.metadata = Metadata{
		Created:     s.now(),
		Version:     documentVersion,
		Description: "Autonomous Research Agent Knowledge Graph",
	}
	s.sessions = []Session{}
	s.agents = map[string]*AgentStats{}
	s.actions = []Action{}
	s.extra = map[string]json.RawMessage{}
}

// StartSession opens a new active session and makes it current.
func (s *Store) StartSession(ctx context.Context, query string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	id := fmt.Sprintf("session_%d_%d", len(s.sessions)+1, now.Unix())
	s.sessions = append(s.sessions, Session{
		ID:      id,
		Query:   query,
		Started: now,
		Status:  StatusActive,
		Actions: []Action{},
	})
	s.current = id
	s.save(ctx)
	return id
}

// EndSession stamps the end time and final status of the session. Unknown
// ids only trigger a save.
func (s *Store) EndSession(ctx context.Context, id, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == "" {
		status = StatusCompleted
	}
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			ended := s.now()
			s.sessions[i].Ended = &ended
			s.sessions[i].Status = status
			break
		}
	}
	s.save(ctx)
}

// LogAgentAction records an action stamped with the current time.
func (s *Store) LogAgentAction(ctx context.Context, agent, action string, data map[string]interface{}) {
	s.LogAgentActionAt(ctx, agent, action, data, time.Time{})
}

// LogAgentActionAt records an action at ts; a zero ts means now.
func (s *Store) LogAgentActionAt(ctx context.Context, agent, action string, data map[string]interface{}, ts time.Time) {
	if ts.IsZero() {
		ts = s.now()
	}
	if data == nil {
		data = map[string]interface{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := Action{Agent: agent, Action: action, Timestamp: ts, Data: data}
	if s.current != "" {
		id := s.current
		entry.SessionID = &id
	}
	s.actions = append(s.actions, entry)
	if s.current != "" {
		for i := range s.sessions {
			if s.sessions[i].ID == s.current {
				s.sessions[i].Actions = append(s.sessions[i].Actions, entry)
				break
			}
		}
	}
	st, ok := s.agents[agent]
	if !ok {
		st = &AgentStats{FirstSeen: ts}
		s.agents[agent] = st
	}
	st.ActionCount++
	st.LastSeen = ts
	s.save(ctx)
}

// SessionHistory returns the session with id, or the current session when id
// is empty. The boolean is false when nothing matches.
func (s *Store) SessionHistory(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		id = s.current
	}
	if id == "" {
		return Session{}, false
	}
	for _, sess := range s.sessions {
		if sess.ID == id {
			return copySession(sess), true
		}
	}
	return Session{}, false
}

// AgentStats returns aggregate counters and a copy of the per-agent stats.
func (s *Store) AgentStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	agents := make(map[string]AgentStats, len(s.agents))
	for name, st := range s.agents {
		agents[name] = *st
	}
	return Stats{
		TotalAgents:   len(s.agents),
		TotalActions:  len(s.actions),
		TotalSessions: len(s.sessions),
		Agents:        agents,
	}
}

// Sessions lists every session in creation order, newest last.
func (s *Store) Sessions() []Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, copySession(sess))
	}
	return out
}

// ActionsFor returns the global log entries owned by sessionID.
func (s *Store) ActionsFor(sessionID string) []Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Action
	for _, a := range s.actions {
		if a.SessionID != nil && *a.SessionID == sessionID {
			out = append(out, a)
		}
	}
	return out
}

// WriteTo encodes the full document, indented, to w.
func (s *Store) WriteTo(w io.Writer) (int64, error) {
	s.mu.Lock()
	data, err := s.encode()
	s.mu.Unlock()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

func copySession(sess Session) Session {
	cp := sess
	cp.Actions = append([]Action(nil), sess.Actions...)
	if sess.Ended != nil {
		ended := *sess.Ended
		cp.Ended = &ended
	}
	return cp
}

// encode must be called with mu held. Unknown top-level keys from a loaded
// document are written back alongside the known ones.
func (s *Store) encode() ([]byte, error) {
	doc := make(map[string]interface{}, len(s.extra)+4)
	for k, v := range s.extra {
		doc[k] = v
	}
	doc["metadata"] = s.metadata
	doc["sessions"] = s.sessions
	doc["agents"] = s.agents
	doc["actions"] = s.actions
	return json.MarshalIndent(doc, "", "  ")
}

func (s *Store) save(ctx context.Context) {
	data, err := s.encode()
	if err != nil {
		s.logger.Printf("warning: could not encode knowledge graph: %v", err)
		return
	}
	if err := s.backend.Save(ctx, data); err != nil {
		s.logger.Printf("warning: could not save knowledge graph to %s: %v", s.backend.Location(), err)
	}
}

// load overlays the persisted top-level keys on the defaults.
func (s *Store) load(ctx context.Context) {
	data, err := s.backend.Load(ctx)
	if errors.Is(err, docstore.ErrNotFound) {
		return
	}
	if err != nil {
		s.logger.Printf("warning: could not load knowledge graph: %v", err)
		return
	}
	if err := s.decode(data); err != nil {
		s.logger.Printf("warning: could not load knowledge graph: %v", err)
		s.reset()
	}
}

func (s *Store) decode(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key, value := range raw {
		var err error
		switch key {
		case "metadata":
			var m Metadata
			if err = json.Unmarshal(value, &m); err == nil {
				s.metadata = m
			}
		case "sessions":
			var sessions []Session
			if err = json.Unmarshal(value, &sessions); err == nil {
				if sessions == nil {
					sessions = []Session{}
				}
				s.sessions = sessions
			}
		case "agents":
			var agents map[string]*AgentStats
			if err = json.Unmarshal(value, &agents); err == nil {
				s.agents = make(map[string]*AgentStats, len(agents))
				for name, st := range agents {
					if st != nil {
						s.agents[name] = st
					}
				}
			}
		case "actions":
			var actions []Action
			if err = json.Unmarshal(value, &actions); err == nil {
				if actions == nil {
					actions = []Action{}
				}
				s.actions = actions
			}
		default:
			s.extra[key] = value
		}
		if err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
	}
	return nil
}
