// Package content holds the immutable definition tables a battle is built
// from and loads them from YAML.
//
// Every entry is referenced by a string key in the files and by a dense
// ident.ID at runtime, assigned in file order per table.
package content

import (
	"fmt"

	"github.com/cory-johannsen/tactics/internal/game/effect"
	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/ident"
	"github.com/cory-johannsen/tactics/internal/game/unit"
)

// Table names a definition table.
type Table string

const (
	Terrains   Table = "terrain"
	Cities     Table = "city"
	Modifiers  Table = "modifier"
	Effects    Table = "effect"
	Attributes Table = "attribute"
	Statuses   Table = "status"
	Weapons    Table = "weapon"
	Skills     Table = "skill"
	Magics     Table = "magic"
	Units      Table = "unit"
)

// Registry is the read-only content lookup. It satisfies effect.Lookup,
// grid.Lookup and unit.Lookup, and may be shared by any number of battles.
type Registry struct {
	terrains   []grid.Terrain
	cities     []grid.City
	modifiers  []effect.Modifier
	effects    []effect.Effect
	attributes []effect.Attribute
	statuses   []effect.Status
	weapons    []unit.WeaponDef
	skills     []unit.SkillDef
	magics     []unit.MagicDef
	units      []unit.Def

	keys map[Table]map[string]ident.ID
}

var (
	_ effect.Lookup = (*Registry)(nil)
	_ grid.Lookup   = (*Registry)(nil)
	_ unit.Lookup   = (*Registry)(nil)
)

func newRegistry() *Registry {
	return &Registry{keys: make(map[Table]map[string]ident.ID)}
}

func entry[T any](table Table, rows []T, id ident.ID) T {
	if int(id) >= len(rows) {
		panic(fmt.Sprintf("content: no %s with id %s (table has %d entries)", table, id, len(rows)))
	}
	return rows[id]
}

// Terrain returns terrain id.
func (r *Registry) Terrain(id ident.ID) grid.Terrain { return entry(Terrains, r.terrains, id) }

// City returns city id.
func (r *Registry) City(id ident.ID) grid.City { return entry(Cities, r.cities, id) }

// Modifier returns modifier id. Adjustments are shared with the table and
// must not be mutated.
func (r *Registry) Modifier(id ident.ID) effect.Modifier { return entry(Modifiers, r.modifiers, id) }

// Effect returns effect id.
func (r *Registry) Effect(id ident.ID) effect.Effect { return entry(Effects, r.effects, id) }

// Attribute returns attribute id.
func (r *Registry) Attribute(id ident.ID) effect.Attribute {
	return entry(Attributes, r.attributes, id)
}

// Status returns status id.
func (r *Registry) Status(id ident.ID) effect.Status { return entry(Statuses, r.statuses, id) }

// Weapon returns weapon id.
func (r *Registry) Weapon(id ident.ID) unit.WeaponDef { return entry(Weapons, r.weapons, id) }

// Skill returns skill id.
func (r *Registry) Skill(id ident.ID) unit.SkillDef { return entry(Skills, r.skills, id) }

// Magic returns magic id.
func (r *Registry) Magic(id ident.ID) unit.MagicDef { return entry(Magics, r.magics, id) }

// Unit returns unit definition id.
func (r *Registry) Unit(id ident.ID) unit.Def { return entry(Units, r.units, id) }

// Terrains returns every terrain in id order.
func (r *Registry) Terrains() []grid.Terrain { return r.terrains }

// Cities returns every city in id order.
func (r *Registry) Cities() []grid.City { return r.cities }

// Units returns every unit definition in id order.
func (r *Registry) Units() []unit.Def { return r.units }

// ID resolves the key of an entry of table.
//
// Postcondition: Returns false when no entry has that key.
func (r *Registry) ID(table Table, key string) (ident.ID, bool) {
	id, ok := r.keys[table][key]
	return id, ok
}

// Key returns the file key of entry id of table, or "" when it has none.
func (r *Registry) Key(table Table, id ident.ID) string {
	for k, v := range r.keys[table] {
		if v == id {
			return k
		}
	}
	return ""
}

// Len returns the number of entries in table.
func (r *Registry) Len(table Table) int { return len(r.keys[table]) }

// assign gives key the next dense id of table.
func (r *Registry) assign(table Table, key string) (ident.ID, error) {
	if key == "" {
		return ident.None, fmt.Errorf("%s: entry without key", table)
	}
	m := r.keys[table]
	if m == nil {
		m = make(map[string]ident.ID)
		r.keys[table] = m
	}
	if _, dup := m[key]; dup {
		return ident.None, fmt.Errorf("%s %q: duplicate key", table, key)
	}
	id := ident.ID(len(m))
	if !id.Valid() {
		return ident.None, fmt.Errorf("%s %q: table full", table, key)
	}
	m[key] = id
	return id, nil
}
