package ai

import (
	"context"
	"fmt"
	"math"
	"slices"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/game/battle"
	"github.com/cory-johannsen/tactics/internal/game/dice"
	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/ident"
	"github.com/cory-johannsen/tactics/internal/game/unit"
)

// ChooseActionHook is the Lua function that may override a decision. It
// receives the WorldState table and returns nil or a table
// {action = "...", target = <unit id>}.
const ChooseActionHook = "choose_action"

// Controller decides actions for computer-controlled units. Decisions are
// tried in order: the choose_action hook, the planner's plan, then the
// built-in fallback of attacking the weakest enemy in reach, approaching the
// nearest one, or waiting.
//
// Controller implements battle.Controller.
type Controller struct {
	planner *Planner
	hooks   ScriptCaller
	scope   string
	roller  *dice.Roller
	logger  *zap.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithPlanner makes the controller follow p's plans.
func WithPlanner(p *Planner) Option {
	return func(c *Controller) { c.planner = p }
}

// WithHooks lets the choose_action hook in scope override decisions.
func WithHooks(s ScriptCaller, scope string) Option {
	return func(c *Controller) {
		c.hooks = s
		c.scope = scope
	}
}

// NewController creates a Controller breaking ties with roller.
//
// Precondition: roller and logger must be non-nil.
func NewController(roller *dice.Roller, logger *zap.Logger, opts ...Option) *Controller {
	if roller == nil {
		panic("ai.NewController: roller must not be nil")
	}
	if logger == nil {
		panic("ai.NewController: logger must not be nil")
	}
	c := &Controller{roller: roller, logger: logger}
	for _, o := range opts {
		o(c)
	}
	return c
}

var _ battle.Controller = (*Controller)(nil)

// Decide returns the action u takes this turn.
//
// Postcondition: the returned action is legal for u unless the battle changed
// between planning and performing.
func (c *Controller) Decide(_ context.Context, b *battle.Battle, u *unit.Unit) battle.Action {
	ws := BuildWorldState(b, u)
	if a, ok := c.fromHook(b, ws); ok {
		return a
	}
	if c.planner != nil {
		plan, err := c.planner.Plan(ws)
		if err != nil {
			c.logger.Warn("planning failed", zap.Uint16("unit", uint16(u.ID)), zap.Error(err))
		}
		for _, pa := range plan {
			if a, ok := c.realise(b, ws, pa.Action, pa.Target); ok {
				c.logger.Debug("planned action",
					zap.Uint16("unit", uint16(u.ID)),
					zap.String("operator", pa.Operator),
					zap.Stringer("action", a.Kind),
				)
				return a
			}
		}
	}
	return c.fallback(b, ws)
}

func (c *Controller) fallback(b *battle.Battle, ws *WorldState) battle.Action {
	if a, ok := c.realise(b, ws, "attack", ws.ResolveTarget("weakest_enemy")); ok {
		return a
	}
	if a, ok := c.realise(b, ws, "approach", ws.ResolveTarget("nearest_enemy")); ok {
		return a
	}
	return battle.Action{Kind: battle.ActWait}
}

func (c *Controller) fromHook(b *battle.Battle, ws *WorldState) (battle.Action, bool) {
	if c.hooks == nil {
		return battle.Action{}, false
	}
	v, err := c.hooks.CallHookValues(c.scope, ChooseActionHook, ws.Table())
	if err != nil || v == nil {
		return battle.Action{}, false
	}
	choice, ok := v.(map[string]any)
	if !ok {
		c.logger.Warn("choose_action returned a non-table", zap.String("type", fmt.Sprintf("%T", v)))
		return battle.Action{}, false
	}
	action, _ := choice["action"].(string)
	target := ident.None
	if n, ok := choice["target"].(float64); ok && n >= 0 && n < math.MaxUint16 {
		target = ident.ID(n)
	}
	a, ok := c.realise(b, ws, action, target)
	if !ok {
		c.logger.Debug("choose_action not realisable",
			zap.Uint16("unit", uint16(ws.Self.ID)),
			zap.String("action", action),
		)
	}
	return a, ok
}

// realise turns an action name and target into a concrete battle action.
func (c *Controller) realise(b *battle.Battle, ws *WorldState, action string, target ident.ID) (battle.Action, bool) {
	switch action {
	case "attack":
		s, ok := c.pickStrike(ws.Strikes, target)
		return battle.Action{Kind: battle.ActAttack, Target: s.Target, Facing: s.Facing}, ok
	case "magic":
		strikes := make([]battle.Strike, len(ws.Casts))
		for i, cs := range ws.Casts {
			strikes[i] = cs.Strike
		}
		s, ok := c.pickStrike(strikes, target)
		if !ok {
			return battle.Action{}, false
		}
		i := slices.IndexFunc(ws.Casts, func(cs Cast) bool {
			return cs.Strike.Target == s.Target && cs.Strike.Facing == s.Facing && slices.Equal(cs.Strike.Hits, s.Hits)
		})
		return battle.Action{Kind: battle.ActMagic, Magic: ws.Casts[i].Magic, Target: s.Target, Facing: s.Facing}, true
	case "skill":
		if len(ws.Skills) == 0 {
			return battle.Action{}, false
		}
		return battle.Action{Kind: battle.ActSkill, Skill: ws.Skills[c.roller.Pick("skill", len(ws.Skills))]}, true
	case "switch":
		if len(ws.Switches) == 0 {
			return battle.Action{}, false
		}
		return battle.Action{Kind: battle.ActSwitch, Weapon: ws.Switches[0]}, true
	case "approach":
		e := ws.Enemy(target)
		if e == nil {
			return battle.Action{}, false
		}
		path := approach(b.Grid(), ws.Self.At, e.At, ws.Budget)
		return battle.Action{Kind: battle.ActMove, Path: path}, len(path) > 0
	case "retreat":
		path := c.retreat(b, ws)
		return battle.Action{Kind: battle.ActMove, Path: path}, len(path) > 0
	case "wait":
		return battle.Action{Kind: battle.ActWait}, true
	default:
		return battle.Action{}, false
	}
}

// pickStrike prefers strikes hitting target, then strikes hitting the most
// enemies. Remaining ties are rolled.
func (c *Controller) pickStrike(strikes []battle.Strike, target ident.ID) (battle.Strike, bool) {
	var best []battle.Strike
	most := 0
	for _, s := range strikes {
		if target != ident.None && !slices.Contains(s.Hits, target) {
			continue
		}
		switch {
		case len(s.Hits) > most:
			best, most = []battle.Strike{s}, len(s.Hits)
		case len(s.Hits) == most:
			best = append(best, s)
		}
	}
	if len(best) == 0 {
		return battle.Strike{}, false
	}
	return best[c.roller.Pick("strike", len(best))], true
}

// approach returns the longest prefix of the cheapest path from start
// towards goal that fits budget and stops short of goal.
func approach(g *grid.Grid, start, goal grid.Location, budget uint32) []grid.Direction {
	path, _, ok := g.FindPath(start, goal)
	if !ok || len(path) == 0 {
		return nil
	}
	path = path[:len(path)-1]
	var spent uint32
	at := start
	for i, d := range path {
		spent += g.Cost(at, d)
		if spent > budget {
			return path[:i]
		}
		at = at.Step(d)
	}
	return path
}

// retreat returns a move to the reachable location farthest from the nearest
// enemy, or nil when no location improves on the current one.
func (c *Controller) retreat(b *battle.Battle, ws *WorldState) []grid.Direction {
	if len(ws.Enemies) == 0 {
		return nil
	}
	clearance := func(l grid.Location) int {
		closest := math.MaxInt
		for _, e := range ws.Enemies {
			closest = min(closest, l.Distance(e.At))
		}
		return closest
	}
	bestScore := clearance(ws.Self.At)
	var best []grid.Location
	for l := range b.ReachableLocations(ws.Self.ID) {
		switch s := clearance(l); {
		case s > bestScore:
			best, bestScore = []grid.Location{l}, s
		case s == bestScore && len(best) > 0:
			best = append(best, l)
		}
	}
	if len(best) == 0 {
		return nil
	}
	sortLocations(best)
	dest := best[c.roller.Pick("retreat", len(best))]
	path, _, ok := b.Grid().FindPath(ws.Self.At, dest)
	if !ok {
		return nil
	}
	return path
}

func sortLocations(ls []grid.Location) {
	slices.SortFunc(ls, func(a, b grid.Location) int {
		if a.Y != b.Y {
			return a.Y - b.Y
		}
		return a.X - b.X
	})
}
