package ai_test

import (
	"testing"

	"github.com/cory-johannsen/tactics/internal/game/ai"
)

// mockScriptCaller returns the given value for any hook call and records the
// hooks called.
type mockScriptCaller struct {
	returnVal any
	called    []string
}

func (m *mockScriptCaller) CallHookValues(scope, hook string, args ...any) (any, error) {
	m.called = append(m.called, hook)
	return m.returnVal, nil
}

func skirmishDomain() *ai.Domain {
	return &ai.Domain{
		ID:    "skirmish",
		Tasks: []*ai.Task{{ID: "behave"}, {ID: "fight"}},
		Methods: []*ai.Method{
			{TaskID: "behave", ID: "combat", Precondition: "has_enemy", Subtasks: []string{"fight"}},
			{TaskID: "behave", ID: "idle", Subtasks: []string{"hold"}},
			{TaskID: "fight", ID: "scripted", Precondition: "lua_ready", Subtasks: []string{"hit"}},
			{TaskID: "fight", ID: "close", Precondition: "!has_strike", Subtasks: []string{"advance", "hold"}},
		},
		Operators: []*ai.Operator{
			{ID: "hit", Action: "attack", Target: "weakest_enemy"},
			{ID: "advance", Action: "approach", Target: "nearest_enemy"},
			{ID: "hold", Action: "wait", Target: "self"},
		},
	}
}

func enemyState() *ai.WorldState {
	return &ai.WorldState{
		Self:    &ai.UnitState{ID: 0, HLT: 100, MaxHLT: 100},
		Enemies: []*ai.UnitState{{ID: 7, HLT: 50, MaxHLT: 100, Distance: 3}},
	}
}

func TestPlanner_LuaPreconditionTrue(t *testing.T) {
	caller := &mockScriptCaller{returnVal: true}
	p := ai.NewPlanner(skirmishDomain(), caller, "ai")
	plan, err := p.Plan(enemyState())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan) != 1 || plan[0].Action != "attack" || plan[0].Target != 7 {
		t.Fatalf("expected attack on 7, got %+v", plan)
	}
	if len(caller.called) != 1 || caller.called[0] != "lua_ready" {
		t.Fatalf("expected only lua_ready to reach Lua, got %v", caller.called)
	}
}

func TestPlanner_NegatedBuiltin(t *testing.T) {
	p := ai.NewPlanner(skirmishDomain(), &mockScriptCaller{returnVal: false}, "ai")
	plan, _ := p.Plan(enemyState())
	if len(plan) != 2 || plan[0].Action != "approach" || plan[1].Action != "wait" {
		t.Fatalf("expected approach then wait, got %+v", plan)
	}
}

func TestPlanner_NilCallerTreatsHooksAsFalse(t *testing.T) {
	p := ai.NewPlanner(skirmishDomain(), nil, "")
	plan, _ := p.Plan(enemyState())
	if len(plan) == 0 || plan[0].Operator != "advance" {
		t.Fatalf("expected advance, got %+v", plan)
	}
}

func TestPlanner_NoEnemiesIdles(t *testing.T) {
	p := ai.NewPlanner(skirmishDomain(), nil, "")
	plan, _ := p.Plan(&ai.WorldState{Self: &ai.UnitState{}})
	if len(plan) != 1 || plan[0].Action != "wait" {
		t.Fatalf("expected wait, got %+v", plan)
	}
}

func TestPlanner_RecursionIsBounded(t *testing.T) {
	d := &ai.Domain{
		ID:        "loop",
		Tasks:     []*ai.Task{{ID: "behave"}},
		Methods:   []*ai.Method{{TaskID: "behave", ID: "again", Subtasks: []string{"hold", "behave"}}},
		Operators: []*ai.Operator{{ID: "hold", Action: "wait"}},
	}
	plan, err := ai.NewPlanner(d, nil, "").Plan(enemyState())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan) == 0 || len(plan) > 32 {
		t.Fatalf("expected a bounded non-empty plan, got %d actions", len(plan))
	}
}

func TestPlanner_NilState(t *testing.T) {
	if _, err := ai.NewPlanner(skirmishDomain(), nil, "").Plan(nil); err == nil {
		t.Fatal("expected error for nil state")
	}
}

func TestNewPlanner_PanicsOnNilDomain(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	ai.NewPlanner(nil, nil, "")
}
