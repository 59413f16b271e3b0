package ai

import (
	"github.com/cory-johannsen/tactics/internal/game/battle"
	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/ident"
)

// UnitState captures a unit's planning-relevant state.
type UnitState struct {
	ID      ident.ID
	Name    string
	Faction ident.ID
	At      grid.Location
	HLT     uint32
	MaxHLT  uint32
	// Distance is the Manhattan distance from the planning unit.
	Distance int
}

// HLTPercent returns current HLT as a percentage of MaxHLT; 0 if MaxHLT == 0.
func (u *UnitState) HLTPercent() float64 {
	if u.MaxHLT == 0 {
		return 0
	}
	return float64(u.HLT) / float64(u.MaxHLT) * 100
}

// Cast is one way to aim a harmful magic that catches no friendly unit.
type Cast struct {
	Magic  ident.ID
	Strike battle.Strike
}

// WorldState is the snapshot the planner reasons over for one unit.
//
// Invariant: Self must not be nil. Enemies and Friends are sorted by
// distance, then id.
type WorldState struct {
	Self       *UnitState
	Turn       int
	Round      int
	Budget     uint32
	Retreating bool
	Enemies    []*UnitState
	Friends    []*UnitState
	// Strikes are the placements of the active weapon that hit an enemy.
	Strikes []battle.Strike
	Casts   []Cast
	Skills  []ident.ID
	// Switches are inactive weapon indices that could strike an enemy now.
	Switches []int
}

// HasLivingEnemies returns true when at least one enemy is on the board.
func (ws *WorldState) HasLivingEnemies() bool { return len(ws.Enemies) > 0 }

// NearestEnemy returns the closest enemy, or nil.
//
// Postcondition: ties are broken by lower id.
func (ws *WorldState) NearestEnemy() *UnitState {
	if len(ws.Enemies) == 0 {
		return nil
	}
	return ws.Enemies[0]
}

// WeakestEnemy returns the enemy with the lowest HLT percentage, or nil.
//
// Postcondition: ties are broken by distance, then id.
func (ws *WorldState) WeakestEnemy() *UnitState {
	var weakest *UnitState
	for _, e := range ws.Enemies {
		if weakest == nil || e.HLTPercent() < weakest.HLTPercent() {
			weakest = e
		}
	}
	return weakest
}

// Enemy returns the enemy with id, or nil.
func (ws *WorldState) Enemy(id ident.ID) *UnitState {
	for _, e := range ws.Enemies {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// ResolveTarget maps a target token to a unit id.
//
// Postcondition: "nearest_enemy" and "weakest_enemy" resolve to ident.None
// when no enemy is left; "self" resolves to Self; any other token resolves
// to ident.None.
func (ws *WorldState) ResolveTarget(token string) ident.ID {
	var u *UnitState
	switch token {
	case "nearest_enemy":
		u = ws.NearestEnemy()
	case "weakest_enemy":
		u = ws.WeakestEnemy()
	case "self":
		u = ws.Self
	}
	if u == nil {
		return ident.None
	}
	return u.ID
}

// Table renders ws as plain values for Lua hooks.
func (ws *WorldState) Table() map[string]any {
	units := func(us []*UnitState) []any {
		out := make([]any, len(us))
		for i, u := range us {
			out[i] = u.table()
		}
		return out
	}
	return map[string]any{
		"self":       ws.Self.table(),
		"turn":       ws.Turn,
		"round":      ws.Round,
		"budget":     ws.Budget,
		"retreating": ws.Retreating,
		"enemies":    units(ws.Enemies),
		"friends":    units(ws.Friends),
		"strikes":    len(ws.Strikes),
		"casts":      len(ws.Casts),
		"skills":     len(ws.Skills),
	}
}

func (u *UnitState) table() map[string]any {
	return map[string]any{
		"id":       int(u.ID),
		"name":     u.Name,
		"faction":  int(u.Faction),
		"x":        u.At.X,
		"y":        u.At.Y,
		"hlt":      u.HLT,
		"max_hlt":  u.MaxHLT,
		"distance": u.Distance,
	}
}
