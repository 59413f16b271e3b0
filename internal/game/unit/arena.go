package unit

import (
	"fmt"

	"github.com/cory-johannsen/tactics/internal/game/ident"
)

// Arena owns every unit of a battle. Units are indexed by id and never
// removed, so ids stay stable after death.
type Arena struct {
	units  []*Unit
	lookup Lookup
}

// NewArena returns an empty arena building units from l.
func NewArena(l Lookup) *Arena {
	return &Arena{lookup: l}
}

// Spawn instantiates unit definition def for faction and returns it.
func (a *Arena) Spawn(def, faction ident.ID) *Unit {
	id := ident.ID(len(a.units))
	if !id.Valid() {
		panic("unit: Arena.Spawn: unit ids exhausted")
	}
	u := New(id, a.lookup.Unit(def), faction, a.lookup)
	a.units = append(a.units, u)
	return u
}

// Get returns unit id.
//
// Precondition: id was returned by Spawn.
func (a *Arena) Get(id ident.ID) *Unit {
	if int(id) >= len(a.units) {
		panic(fmt.Sprintf("unit: Arena.Get: no unit %s", id))
	}
	return a.units[id]
}

// Len returns the number of units ever spawned.
func (a *Arena) Len() int { return len(a.units) }

// All returns every unit, dead or alive, in id order.
func (a *Arena) All() []*Unit { return a.units }

// Living returns the living units in id order.
func (a *Arena) Living() []*Unit {
	var out []*Unit
	for _, u := range a.units {
		if u.alive {
			out = append(out, u)
		}
	}
	return out
}

// Resolve maps ids to units, skipping ident.None.
func (a *Arena) Resolve(ids []ident.ID) []*Unit {
	out := make([]*Unit, 0, len(ids))
	for _, id := range ids {
		if id.Valid() {
			out = append(out, a.Get(id))
		}
	}
	return out
}
