package core

import (
	"context"
	"fmt"
)

// Planner decomposes a research query into a fixed five-step plan
type Planner struct {
	sink EventSink
}

// NewPlanner creates a planner logging to sink (nil discards events).
func NewPlanner(sink EventSink) *Planner {
	if sink == nil {
		sink = NopSink
	}
	return &Planner{sink: sink}
}

// Plan returns three search subtasks (direct, recent trends, expert analysis),
// a summarize step depending on all three and a write step depending on the
// summary.
func (p *Planner) Plan(ctx context.Context, query string) []Subtask {
	emit(ctx, p.sink, AgentPlanner, "planning_started", map[string]interface{}{"query": query})

	subtasks := []Subtask{
		{
			ID:          1,
			Type:        TaskSearch,
			Description: "Search for current information about: " + query,
			Query:       query,
			Priority:    PriorityHigh,
		},
		{
			ID:          2,
			Type:        TaskSearch,
			Description: "Find recent trends and developments related to: " + query,
			Query:       "recent trends " + query,
			Priority:    PriorityMedium,
		},
		{
			ID:          3,
			Type:        TaskSearch,
			Description: "Gather expert opinions and analysis on: " + query,
			Query:       "expert analysis " + query,
			Priority:    PriorityMedium,
		},
		{
			ID:          4,
			Type:        TaskSummarize,
			Description: "Synthesize all gathered information",
			Priority:    PriorityHigh,
			DependsOn:   []int{1, 2, 3},
		},
		{
			ID:          5,
			Type:        TaskWrite,
			Description: "Generate comprehensive research report",
			Priority:    PriorityHigh,
			DependsOn:   []int{4},
		},
	}

	emit(ctx, p.sink, AgentPlanner, "planning_completed", map[string]interface{}{
		"query":         query,
		"subtask_count": len(subtasks),
		"subtasks":      subtasks,
	})
	return subtasks
}

// ValidatePlan checks that ids are unique and positive, types and priorities
// are known, and each dependency points at an earlier subtask.
func ValidatePlan(subtasks []Subtask) error {
	if len(subtasks) == 0 {
		return fmt.Errorf("plan has no subtasks")
	}
	seen := make(map[int]bool, len(subtasks))
	for _, st := range subtasks {
		if st.ID <= 0 {
			return fmt.Errorf("subtask id must be positive, got %d", st.ID)
		}
		if seen[st.ID] {
			return fmt.Errorf("duplicate subtask id %d", st.ID)
		}
		switch st.Type {
		case TaskSearch:
			if st.Query == "" {
				return fmt.Errorf("search subtask %d has no query", st.ID)
			}
		case TaskSummarize, TaskWrite:
		default:
			return fmt.Errorf("subtask %d: invalid task type %q", st.ID, st.Type)
		}
		switch st.Priority {
		case PriorityHigh, PriorityMedium:
		default:
			return fmt.Errorf("subtask %d: invalid priority %q", st.ID, st.Priority)
		}
		for _, dep := range st.DependsOn {
			if !seen[dep] {
				return fmt.Errorf("subtask %d depends on %d which does not precede it", st.ID, dep)
			}
		}
		seen[st.ID] = true
	}
	return nil
}
