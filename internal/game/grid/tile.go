package grid

import (
	"fmt"

	"github.com/cory-johannsen/tactics/internal/game/effect"
	"github.com/cory-johannsen/tactics/internal/game/ident"
	"github.com/cory-johannsen/tactics/internal/game/stat"
)

// MaxTileCost bounds the movement cost of a single tile.
const MaxTileCost uint32 = 1000

// Terrain is an immutable terrain definition.
type Terrain struct {
	ID   ident.ID
	Name string
	// Cost is the base movement cost of entering the terrain; 0 is impassable.
	Cost uint32
	// Modifier is applied to units standing on the terrain, or ident.None.
	Modifier ident.ID
	// Elevation is the upper bound of the normalised height band the
	// generator paints with this terrain.
	Elevation float64
}

// City is an immutable city definition.
type City struct {
	ID         ident.ID
	Name       string
	Population uint32
	Factories  uint32
	Farms      uint32
	// Recruit is the unit definition a controlling faction can raise here,
	// or ident.None.
	Recruit ident.ID
}

// Lookup is the content the grid reads.
type Lookup interface {
	effect.Lookup
	Terrain(id ident.ID) Terrain
	City(id ident.ID) City
}

// Tile is one board cell.
type Tile struct {
	Terrain ident.ID
	Height  int
	City    ident.ID

	cost      stat.Constant
	modifier  *effect.Modifier
	occupy    *effect.Attribute
	recruited bool
}

func newTile(t Terrain, height int) Tile {
	return Tile{
		Terrain: t.ID,
		Height:  height,
		City:    ident.None,
		cost:    stat.NewConstant(t.Cost, MaxTileCost),
	}
}

// Passable reports whether the tile can be entered at all.
func (t *Tile) Passable() bool { return t.cost.Base() > 0 }

// Cost returns the current cost of entering the tile: 0 when impassable,
// otherwise at least 1.
func (t *Tile) Cost() uint32 {
	if !t.Passable() {
		return 0
	}
	if c := t.cost.Current(); c > 0 {
		return c
	}
	return 1
}

// Modifier returns the tile's live modifier, or nil.
func (t *Tile) Modifier() *effect.Modifier { return t.modifier }

// Occupy returns the tile's live OnOccupy attribute, or nil.
func (t *Tile) Occupy() *effect.Attribute { return t.occupy }

// Recruited reports whether the tile's city has already raised its unit.
func (t *Tile) Recruited() bool { return t.recruited }

// AddAppliable folds a into the tile. A tile holds at most one modifier,
// whose MOV adjustments scale the entry cost inversely, and at most one
// OnOccupy attribute. A MOV adjustment always moves the cost of a passable
// tile by at least one, so cost-1 terrain feels it too.
//
// Precondition: a is a *Modifier or an OnOccupy *Attribute.
// Postcondition: Returns false when a non-stacking modifier with the same id
// is already live; any other modifier replaces the previous one.
func (t *Tile) AddAppliable(a effect.Appliable) bool {
	switch v := a.(type) {
	case *effect.Modifier:
		if t.modifier != nil {
			if t.modifier.ID == v.ID && !v.Stack {
				return false
			}
			t.revertModifier()
		}
		v.Fold(func(adj effect.Adjustment) int {
			if adj.Stat != stat.MOV {
				return 0
			}
			return t.shiftCost(-adj.Amount)
		})
		t.modifier = v
		return true
	case *effect.Attribute:
		if v.Trigger != effect.OnOccupy {
			panic(fmt.Sprintf("grid: Tile.AddAppliable: attribute %s has trigger %s, tiles accept only %s", v.ID, v.Trigger, effect.OnOccupy))
		}
		t.occupy = v
		return true
	case *effect.Effect:
		panic(fmt.Sprintf("grid: Tile.AddAppliable: effect %s cannot be applied to a tile", v.ID))
	default:
		panic(fmt.Sprintf("grid: Tile.AddAppliable: unknown appliable %T", a))
	}
}

// shiftCost changes the cost of a passable tile by pct percent of its base,
// by at least one step when pct is non-zero, never dropping below 1.
func (t *Tile) shiftCost(pct int) int {
	base := t.cost.Base()
	if base == 0 || pct == 0 {
		return 0
	}
	d := int(int64(base) * int64(pct) / 100)
	if d == 0 {
		d = 1
		if pct < 0 {
			d = -1
		}
	}
	if floor := 1 - int(t.cost.Current()); d < floor {
		d = floor
	}
	return t.cost.Change(d)
}

// RemoveModifier reverts and drops the tile modifier.
//
// Postcondition: Returns false when the tile has no modifier.
func (t *Tile) RemoveModifier() bool {
	if t.modifier == nil {
		return false
	}
	t.revertModifier()
	return true
}

// RemoveOccupy drops the tile's OnOccupy attribute.
func (t *Tile) RemoveOccupy() bool {
	if t.occupy == nil {
		return false
	}
	t.occupy = nil
	return true
}

func (t *Tile) revertModifier() {
	t.modifier.Unfold(func(_ stat.Name, delta int) { t.cost.Change(delta) })
	t.modifier = nil
}

// tick advances the tile's modifier and attribute by one duration step and
// returns the successors of whatever expired. changed reports whether the
// entry cost may have moved.
func (t *Tile) tick(l effect.Lookup) (next []effect.Appliable, changed bool) {
	if m := t.modifier; m != nil && m.Duration.Tick() {
		t.revertModifier()
		changed = true
		if succ := effect.Successor(l, m); succ != nil {
			next = append(next, succ)
		}
	}
	if a := t.occupy; a != nil && a.Duration.Tick() {
		t.occupy = nil
		if succ := effect.Successor(l, a); succ != nil {
			next = append(next, succ)
		}
	}
	return next, changed
}
