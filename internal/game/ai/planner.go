package ai

import (
	"errors"
	"strings"

	"github.com/cory-johannsen/tactics/internal/game/ident"
)

// ScriptCaller is the interface required to evaluate Lua hooks.
type ScriptCaller interface {
	// CallHookValues calls a named Lua function in scope with plain values.
	// Returns (nil, nil) if the function is not defined.
	CallHookValues(scope, hook string, args ...any) (any, error)
}

// PlannedAction is one primitive action produced by the planner.
type PlannedAction struct {
	Operator string
	Action   string   // one of Actions
	Target   ident.ID // resolved target; ident.None when the token found nobody
}

// Predicate is a built-in method precondition.
type Predicate func(ws *WorldState) bool

// Predicates are the preconditions evaluated without Lua.
var Predicates = map[string]Predicate{
	"has_enemy":  (*WorldState).HasLivingEnemies,
	"has_strike": func(ws *WorldState) bool { return len(ws.Strikes) > 0 },
	"can_cast":   func(ws *WorldState) bool { return len(ws.Casts) > 0 },
	"can_switch": func(ws *WorldState) bool { return len(ws.Switches) > 0 },
	"has_skill":  func(ws *WorldState) bool { return len(ws.Skills) > 0 },
	"retreating": func(ws *WorldState) bool { return ws.Retreating },
	"wounded":    func(ws *WorldState) bool { return ws.Self.HLTPercent() < 50 },
}

// maxSteps bounds decomposition of recursive domains.
const maxSteps = 32

// Planner evaluates an HTN domain for a unit and produces an ordered plan for
// its turn.
//
// Invariant: domain must not be nil; caller may be nil when every
// precondition is built in.
type Planner struct {
	domain *Domain
	caller ScriptCaller
	scope  string
}

// NewPlanner constructs a Planner. Preconditions that are not built in are
// called as Lua hooks in scope.
//
// Precondition: domain must not be nil.
func NewPlanner(domain *Domain, caller ScriptCaller, scope string) *Planner {
	if domain == nil {
		panic("ai.NewPlanner: domain must not be nil")
	}
	return &Planner{domain: domain, caller: caller, scope: scope}
}

// Domain returns the planner's domain.
func (p *Planner) Domain() *Domain { return p.domain }

// Plan decomposes RootTask against state and returns the ordered operators.
//
// Precondition: state and state.Self must not be nil.
// Postcondition: returns a non-nil slice (may be empty); Lua failures count
// as a false precondition.
func (p *Planner) Plan(state *WorldState) ([]PlannedAction, error) {
	if state == nil || state.Self == nil {
		return nil, errors.New("ai.Planner.Plan: state and state.Self must not be nil")
	}
	queue := []string{RootTask}
	result := []PlannedAction{}
	for steps := 0; len(queue) > 0 && steps < maxSteps; steps++ {
		current := queue[0]
		queue = queue[1:]

		if op, ok := p.domain.OperatorByID(current); ok {
			result = append(result, PlannedAction{
				Operator: op.ID,
				Action:   op.Action,
				Target:   state.ResolveTarget(op.Target),
			})
			continue
		}
		method := p.findApplicableMethod(current, state)
		if method == nil {
			continue
		}
		queue = append(append([]string(nil), method.Subtasks...), queue...)
	}
	return result, nil
}

// findApplicableMethod returns the first Method for taskID whose
// precondition passes, or nil if none applies.
func (p *Planner) findApplicableMethod(taskID string, state *WorldState) *Method {
	for _, m := range p.domain.MethodsForTask(taskID) {
		if p.holds(m.Precondition, state) {
			return m
		}
	}
	return nil
}

func (p *Planner) holds(cond string, state *WorldState) bool {
	if cond == "" {
		return true
	}
	if neg, ok := strings.CutPrefix(cond, "!"); ok {
		return !p.holds(neg, state)
	}
	if pred, ok := Predicates[cond]; ok {
		return pred(state)
	}
	if p.caller == nil {
		return false
	}
	val, err := p.caller.CallHookValues(p.scope, cond, state.Table())
	if err != nil {
		return false
	}
	b, _ := val.(bool)
	return b
}
