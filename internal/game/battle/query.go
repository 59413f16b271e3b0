package battle

import (
	"slices"

	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/ident"
	"github.com/cory-johannsen/tactics/internal/game/unit"
)

// Strike is one way to aim an area from where a unit stands.
type Strike struct {
	Target grid.Location
	Facing grid.Direction
	// Hits are the enemies the area covers, in ascending id order.
	Hits []ident.ID
}

// Strikes enumerates every placement of area, reaching reach from unit id,
// that covers at least one enemy. Path areas are tried in each direction;
// single and radial areas are centred on each location within reach.
func (b *Battle) Strikes(id ident.ID, area grid.Area, reach int) []Strike {
	u := b.arena.Get(id)
	from, ok := b.grid.LocationOf(id)
	if !ok {
		return nil
	}
	var out []Strike
	add := func(target grid.Location, facing grid.Direction) {
		ids, ok := b.inArea(from, area, reach, target, facing)
		if !ok {
			return
		}
		hits := unitIDs(b.enemies(u, ids))
		if len(hits) == 0 {
			return
		}
		slices.Sort(hits)
		out = append(out, Strike{Target: target, Facing: facing, Hits: hits})
	}
	if area.Shape == grid.Path {
		for _, d := range grid.Directions {
			add(from, d)
		}
		return out
	}
	for _, l := range b.grid.FindLocations(from, grid.Area{Shape: grid.Radial, Radius: reach}, grid.North) {
		add(l, grid.North)
	}
	return out
}

// Targets returns every enemy the active weapon of unit id can reach this
// turn, in ascending id order.
func (b *Battle) Targets(id ident.ID) []ident.ID {
	w := b.arena.Get(id).ActiveWeapon()
	seen := make(map[ident.ID]struct{})
	var out []ident.ID
	for _, s := range b.Strikes(id, w.Area, w.Range) {
		for _, h := range s.Hits {
			if _, dup := seen[h]; !dup {
				seen[h] = struct{}{}
				out = append(out, h)
			}
		}
	}
	slices.Sort(out)
	return out
}

// ReachableLocations returns every free location unit id can move to this
// turn, mapped to its path cost.
func (b *Battle) ReachableLocations(id ident.ID) map[grid.Location]uint32 {
	l, ok := b.grid.LocationOf(id)
	if !ok {
		return map[grid.Location]uint32{}
	}
	return b.grid.Reachable(l, b.MovementBudget(id))
}

// Distance returns the Manhattan distance between two placed units.
//
// Postcondition: Returns false when either unit is off the board.
func (b *Battle) Distance(a, c ident.ID) (int, bool) {
	la, ok := b.grid.LocationOf(a)
	if !ok {
		return 0, false
	}
	lc, ok := b.grid.LocationOf(c)
	if !ok {
		return 0, false
	}
	return la.Distance(lc), true
}

// ActionableSkills returns the skill definitions unit id can use now.
func (b *Battle) ActionableSkills(id ident.ID) []ident.ID {
	return b.arena.Get(id).ActionableSkills()
}

// Enemies returns every living placed unit hostile to unit id, in ascending
// id order.
func (b *Battle) Enemies(id ident.ID) []ident.ID {
	u := b.arena.Get(id)
	var out []ident.ID
	for _, o := range b.placed() {
		if !b.friendly(u, o) {
			out = append(out, o.ID)
		}
	}
	return out
}

// Friends returns every living placed unit of the same or an allied faction
// as unit id, itself excluded, in ascending id order.
func (b *Battle) Friends(id ident.ID) []ident.ID {
	u := b.arena.Get(id)
	var out []ident.ID
	for _, o := range b.placed() {
		if o.ID != id && b.friendly(u, o) {
			out = append(out, o.ID)
		}
	}
	return out
}

func (b *Battle) placed() []*unit.Unit {
	var out []*unit.Unit
	for _, id := range b.grid.Units() {
		if u := b.arena.Get(id); u.Alive() {
			out = append(out, u)
		}
	}
	return out
}

// Frame captures the board for rendering.
func (b *Battle) Frame() grid.Frame { return b.grid.Frame() }
