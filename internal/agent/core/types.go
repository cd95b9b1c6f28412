package core

import (
	"time"
)

// Subtask types
const (
	TaskSearch    = "search"
	TaskSummarize = "summarize"
	TaskWrite     = "write"
)

// Subtask priorities
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
)

// Synthesis methods reported in Summary.SynthesisMethod
const (
	MethodHeuristic = "heuristic_extraction"
	MethodLLM       = "llm"
)

// Agent names used when logging actions
const (
	AgentPlanner    = "PlannerAgent"
	AgentSearch     = "SearchAgent"
	AgentSummarizer = "SummarizerAgent"
	AgentWriter     = "WriterAgent"
)

// Subtask is one unit of planned work
type Subtask struct {
	ID          int    `json:"id"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Query       string `json:"query,omitempty"`
	Priority    string `json:"priority"`
	DependsOn   []int  `json:"depends_on,omitempty"`
}

// IsSearch reports whether the subtask is executed by the search agent.
func (s Subtask) IsSearch() bool { return s.Type == TaskSearch }

// SearchResult is a normalized result from a search provider
type SearchResult struct {
	Rank       int    `json:"rank"`
	Title      string `json:"title"`
	Snippet    string `json:"snippet"`
	URL        string `json:"url"`
	Source     string `json:"source"`
	Date       string `json:"date,omitempty"`
	SearchType string `json:"search_type,omitempty"`
}

// IsNews reports whether the result came from a news query.
func (r SearchResult) IsNews() bool { return r.SearchType == "news" }

// KeyFinding is one attributed point in a summary
type KeyFinding struct {
	Point       string `json:"point"`
	Source      string `json:"source"`
	URL         string `json:"url"`
	Credibility string `json:"credibility,omitempty"`
}

// SourceRef is a title/url pair listed in a summary
type SourceRef struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Summary is the synthesized output of all search results
type Summary struct {
	KeyFindings      []KeyFinding `json:"key_findings"`
	SourceCount      int          `json:"source_count"`
	Sources          []SourceRef  `json:"sources"`
	SynthesisMethod  string       `json:"synthesis_method"`
	Summary          string       `json:"summary,omitempty"`
	Themes           []string     `json:"themes,omitempty"`
	CredibilityNotes string       `json:"credibility_notes,omitempty"`
}

// Result is the outcome of one research run
type Result struct {
	ID         string        `json:"id"`
	SessionID  string        `json:"session_id"`
	Query      string        `json:"query"`
	Subtasks   []Subtask     `json:"subtasks"`
	Summary    Summary       `json:"summary"`
	Report     string        `json:"report"`
	ReportPath string        `json:"report_path"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}
