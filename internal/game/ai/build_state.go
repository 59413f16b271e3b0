package ai

import (
	"sort"

	"github.com/cory-johannsen/tactics/internal/game/battle"
	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/ident"
	"github.com/cory-johannsen/tactics/internal/game/stat"
	"github.com/cory-johannsen/tactics/internal/game/unit"
)

// BuildWorldState constructs a WorldState snapshot for u, whose turn is open
// in b.
//
// Precondition: u is alive and on the board.
// Postcondition: ws.Self.ID == u.ID.
func BuildWorldState(b *battle.Battle, u *unit.Unit) *WorldState {
	from, ok := b.Grid().LocationOf(u.ID)
	if !ok {
		panic("ai.BuildWorldState: unit is not on the board")
	}
	st := u.Stats()
	ws := &WorldState{
		Self:       unitState(b, u, from),
		Turn:       b.Turn(),
		Round:      b.Round(),
		Budget:     b.MovementBudget(u.ID),
		Retreating: st.Retreating(),
		Strikes:    b.Strikes(u.ID, u.ActiveWeapon().Area, u.ActiveWeapon().Range),
		Skills:     b.ActionableSkills(u.ID),
	}
	for _, id := range b.Enemies(u.ID) {
		ws.Enemies = append(ws.Enemies, unitState(b, b.Arena().Get(id), from))
	}
	for _, id := range b.Friends(u.ID) {
		ws.Friends = append(ws.Friends, unitState(b, b.Arena().Get(id), from))
	}
	byDistance(ws.Enemies)
	byDistance(ws.Friends)

	friendly := map[ident.ID]struct{}{u.ID: {}}
	for _, f := range ws.Friends {
		friendly[f.ID] = struct{}{}
	}
	for _, id := range u.Magics() {
		if !u.CanCast(id) {
			continue
		}
		def := b.Content().Magic(id)
		if !harmful(b.Content(), def) {
			continue
		}
		for _, s := range b.Strikes(u.ID, def.Area, def.Range) {
			origin := s.Target
			if def.Area.Shape == grid.Path {
				origin = from
			}
			if !catches(b.Grid().FindUnits(origin, def.Area, s.Facing), friendly) {
				ws.Casts = append(ws.Casts, Cast{Magic: id, Strike: s})
			}
		}
	}
	for i, w := range u.Weapons() {
		if i != u.ActiveIndex() && len(b.Strikes(u.ID, w.Area, w.Range)) > 0 {
			ws.Switches = append(ws.Switches, i)
		}
	}
	return ws
}

func unitState(b *battle.Battle, u *unit.Unit, from grid.Location) *UnitState {
	at, _ := b.Grid().LocationOf(u.ID)
	st := u.Stats()
	return &UnitState{
		ID:       u.ID,
		Name:     u.Name,
		Faction:  u.Faction,
		At:       at,
		HLT:      st.Get(stat.HLT),
		MaxHLT:   st.Max(stat.HLT),
		Distance: from.Distance(at),
	}
}

func byDistance(us []*UnitState) {
	sort.Slice(us, func(i, j int) bool {
		if us[i].Distance != us[j].Distance {
			return us[i].Distance < us[j].Distance
		}
		return us[i].ID < us[j].ID
	})
}

// harmful reports whether a magic's effect lowers statistics overall. Magics
// carrying only a status are treated as support.
func harmful(c battle.Content, def unit.MagicDef) bool {
	if !def.Effect.Valid() {
		return false
	}
	sum := 0
	for _, a := range c.Effect(def.Effect).Adjustments {
		sum += a.Amount
	}
	return sum < 0
}

func catches(ids []ident.ID, set map[ident.ID]struct{}) bool {
	for _, id := range ids {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}
