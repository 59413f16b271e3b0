package ai_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/tactics/internal/game/ai"
	"github.com/cory-johannsen/tactics/internal/game/battle"
	"github.com/cory-johannsen/tactics/internal/game/content"
	"github.com/cory-johannsen/tactics/internal/game/dice"
	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/unit"
)

func loc(x, y int) grid.Location { return grid.Location{X: x, Y: y} }

// line places a red and a blue debug unit on a width×1 plains strip and
// opens red's turn.
func line(t *testing.T, width int, red, blue grid.Location) (*battle.Battle, *unit.Unit, *unit.Unit) {
	t.Helper()
	r := content.Debug()
	plains, ok := r.ID(content.Terrains, "plains")
	require.True(t, ok)
	debug, ok := r.ID(content.Units, "debug")
	require.True(t, ok)
	g := grid.New(width, 1, grid.DefaultClimbThreshold, plains, r)
	b := battle.New("ai", battle.Config{}, r, g, zaptest.NewLogger(t))
	a, ok := b.Spawn(debug, b.AddFaction("red"), red)
	require.True(t, ok)
	d, ok := b.Spawn(debug, b.AddFaction("blue"), blue)
	require.True(t, ok)
	b.Start()
	u, ok := b.NextTurn()
	require.True(t, ok)
	require.Equal(t, a.ID, u.ID)
	return b, a, d
}

func newController(t *testing.T, opts ...ai.Option) *ai.Controller {
	roller := dice.NewLoggedRoller(dice.NewSeededSource(7), zaptest.NewLogger(t))
	return ai.NewController(roller, zaptest.NewLogger(t), opts...)
}

func TestController_AttacksAdjacentEnemy(t *testing.T) {
	b, a, _ := line(t, 3, loc(0, 0), loc(1, 0))
	for _, c := range []*ai.Controller{
		newController(t),
		newController(t, ai.WithPlanner(ai.NewPlanner(ai.DefaultDomain(), nil, ""))),
	} {
		act := c.Decide(context.Background(), b, a)
		assert.Equal(t, battle.ActAttack, act.Kind)
		assert.Equal(t, loc(1, 0), act.Target)
	}
}

func TestController_ApproachesWithinBudget(t *testing.T) {
	b, a, _ := line(t, 10, loc(0, 0), loc(9, 0))
	act := newController(t).Decide(context.Background(), b, a)
	require.Equal(t, battle.ActMove, act.Kind)
	want := []grid.Direction{grid.East, grid.East, grid.East, grid.East, grid.East}
	assert.Equal(t, want, act.Path, "debug MOV 50 buys five plains steps")
	assert.True(t, b.Perform(act))
}

func TestController_StopsShortOfEnemy(t *testing.T) {
	b, a, _ := line(t, 10, loc(0, 0), loc(3, 0))
	a.ActiveWeapon().Range = 0
	act := newController(t).Decide(context.Background(), b, a)
	require.Equal(t, battle.ActMove, act.Kind)
	assert.Equal(t, []grid.Direction{grid.East, grid.East}, act.Path)
}

func TestController_HookOverrides(t *testing.T) {
	b, a, _ := line(t, 3, loc(0, 0), loc(1, 0))
	hooks := &mockScriptCaller{returnVal: map[string]any{"action": "wait"}}
	act := newController(t, ai.WithHooks(hooks, "ai")).Decide(context.Background(), b, a)
	assert.Equal(t, battle.ActWait, act.Kind)
	assert.Equal(t, []string{ai.ChooseActionHook}, hooks.called)
}

func TestController_UnrealisableHookFallsBack(t *testing.T) {
	b, a, d := line(t, 3, loc(0, 0), loc(1, 0))
	hooks := &mockScriptCaller{returnVal: map[string]any{"action": "magic", "target": float64(d.ID)}}
	act := newController(t, ai.WithHooks(hooks, "ai")).Decide(context.Background(), b, a)
	assert.Equal(t, battle.ActAttack, act.Kind, "debug units know no magic")
}

func TestController_RunsBattle(t *testing.T) {
	b, _, _ := line(t, 6, loc(0, 0), loc(5, 0))
	b.Wait()
	b.EndTurn()
	c := newController(t, ai.WithPlanner(ai.NewPlanner(ai.DefaultDomain(), nil, "")))
	res, err := b.Run(context.Background(), c, 200)
	require.NoError(t, err)
	assert.Positive(t, res.Turns)
	var attacks int
	for _, e := range b.Events() {
		if e.Kind == battle.EventAttack {
			attacks++
		}
	}
	assert.Positive(t, attacks, "units close in and fight")
}

func TestNewController_PanicsOnNil(t *testing.T) {
	roller := dice.NewLoggedRoller(dice.NewSeededSource(1), zaptest.NewLogger(t))
	assert.Panics(t, func() { ai.NewController(nil, zaptest.NewLogger(t)) })
	assert.Panics(t, func() { ai.NewController(roller, nil) })
}
