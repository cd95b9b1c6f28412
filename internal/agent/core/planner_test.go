package core

import (
	"context"
	"reflect"
	"strings"
	"testing"
)

func TestPlanShape(t *testing.T) {
	t.Parallel()
	sink := &recordingSink{}
	plan := NewPlanner(sink).Plan(context.Background(), "quantum batteries")

	if len(plan) != 5 {
		t.Fatalf("expected 5 subtasks, got %d", len(plan))
	}
	wantQueries := []string{"quantum batteries", "recent trends quantum batteries", "expert analysis quantum batteries"}
	for i, q := range wantQueries {
		if plan[i].Type != TaskSearch || plan[i].Query != q {
			t.Fatalf("subtask %d = %+v, want search %q", i+1, plan[i], q)
		}
	}
	if plan[0].Priority != PriorityHigh || plan[1].Priority != PriorityMedium || plan[2].Priority != PriorityMedium {
		t.Fatalf("unexpected search priorities: %s %s %s", plan[0].Priority, plan[1].Priority, plan[2].Priority)
	}
	if plan[3].Type != TaskSummarize || !reflect.DeepEqual(plan[3].DependsOn, []int{1, 2, 3}) {
		t.Fatalf("unexpected summarize subtask %+v", plan[3])
	}
	if plan[4].Type != TaskWrite || !reflect.DeepEqual(plan[4].DependsOn, []int{4}) {
		t.Fatalf("unexpected write subtask %+v", plan[4])
	}
	if !strings.HasPrefix(plan[1].Description, "Find recent trends and developments related to: ") {
		t.Fatalf("unexpected description %q", plan[1].Description)
	}
	if err := ValidatePlan(plan); err != nil {
		t.Fatalf("ValidatePlan: %v", err)
	}

	if got := sink.actions(); !reflect.DeepEqual(got, []string{"planning_started", "planning_completed"}) {
		t.Fatalf("unexpected events %v", got)
	}
	done, _ := sink.find("planning_completed")
	if done.Data["subtask_count"] != 5 {
		t.Fatalf("expected subtask_count 5, got %v", done.Data["subtask_count"])
	}
	if _, ok := done.Data["subtasks"].([]Subtask); !ok {
		t.Fatalf("expected full subtask list in event, got %T", done.Data["subtasks"])
	}
}

func TestPlanIsDeterministic(t *testing.T) {
	t.Parallel()
	p := NewPlanner(nil)
	a := p.Plan(context.Background(), "x")
	b := p.Plan(context.Background(), "x")
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("plans differ: %+v vs %+v", a, b)
	}
}

func TestPlanSurvivesPanickingSink(t *testing.T) {
	t.Parallel()
	plan := NewPlanner(panicSink{}).Plan(context.Background(), "resilience")
	if len(plan) != 5 {
		t.Fatalf("expected 5 subtasks, got %d", len(plan))
	}
}

func TestValidatePlanRejects(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		plan []Subtask
		want string
	}{
		{"empty", nil, "no subtasks"},
		{"unknown type", []Subtask{{ID: 1, Type: "dance", Priority: PriorityHigh}}, "invalid task type"},
		{"duplicate id", []Subtask{
			{ID: 1, Type: TaskSearch, Query: "a", Priority: PriorityHigh},
			{ID: 1, Type: TaskSearch, Query: "b", Priority: PriorityHigh},
		}, "duplicate"},
		{"forward dependency", []Subtask{
			{ID: 1, Type: TaskSummarize, Priority: PriorityHigh, DependsOn: []int{2}},
			{ID: 2, Type: TaskSearch, Query: "a", Priority: PriorityHigh},
		}, "does not precede"},
		{"bad priority", []Subtask{{ID: 1, Type: TaskSearch, Query: "a", Priority: "low"}}, "invalid priority"},
		{"search without query", []Subtask{{ID: 1, Type: TaskSearch, Priority: PriorityHigh}}, "no query"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidatePlan(tc.plan)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}
