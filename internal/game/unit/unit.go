// Package unit models the combatants of a battle: units with their bounded
// statistics, weapons, skills, magic and faction membership.
//
// Units never hold references to other units or to the board. Every cross
// reference is an id resolved through the Arena or the grid.
package unit

import (
	"fmt"

	"github.com/cory-johannsen/tactics/internal/game/effect"
	"github.com/cory-johannsen/tactics/internal/game/ident"
	"github.com/cory-johannsen/tactics/internal/game/stat"
)

// Def is an immutable unit definition.
type Def struct {
	ID      ident.ID
	Name    string
	Stats   stat.Values
	Weapons []ident.ID
	Skills  []ident.ID
	Magics  []ident.ID
	// OnHit is the retaliation attribute the unit starts with, or ident.None.
	OnHit ident.ID
}

// Lookup is the content units are built from.
type Lookup interface {
	effect.Lookup
	Weapon(id ident.ID) WeaponDef
	Skill(id ident.ID) SkillDef
	Magic(id ident.ID) MagicDef
	Unit(id ident.ID) Def
}

// Phase is the position of a unit within its own turn.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseActing
	PhaseActed
)

// Unit is one combatant.
type Unit struct {
	ID      ident.ID
	Def     ident.ID
	Name    string
	Faction ident.ID

	stats      stat.Statistics
	terrain    *effect.Modifier
	modifiers  effect.ModifierSet
	attributes effect.AttributeSet
	onHit      *effect.Attribute
	weapons    []*Weapon
	active     int
	skills     []*Skill
	magics     []ident.ID
	alive      bool
	phase      Phase
	lookup     Lookup
}

// New instantiates def as unit id of faction. Toggle skills start with their
// first status applied.
//
// Precondition: def has at least one weapon.
func New(id ident.ID, def Def, faction ident.ID, l Lookup) *Unit {
	if len(def.Weapons) == 0 {
		panic(fmt.Sprintf("unit: New: definition %q has no weapons", def.Name))
	}
	u := &Unit{
		ID:      id,
		Def:     def.ID,
		Name:    def.Name,
		Faction: faction,
		stats:   stat.New(def.Stats),
		magics:  append([]ident.ID(nil), def.Magics...),
		lookup:  l,
	}
	u.refresh()
	for _, w := range def.Weapons {
		u.weapons = append(u.weapons, NewWeapon(l.Weapon(w), l))
	}
	if def.OnHit.Valid() {
		u.AddAppliable(effect.NewAttribute(l, def.OnHit))
	}
	for _, s := range def.Skills {
		sk := newSkill(l.Skill(s))
		u.skills = append(u.skills, sk)
		if sk.Kind == SkillToggle && sk.status.Valid() {
			sk.granted = u.grant(l.Status(sk.status))
		}
	}
	return u
}

func (u *Unit) refresh() { u.alive = u.stats.Alive() }

func (u *Unit) mustLive(op string) {
	if !u.alive {
		panic(fmt.Sprintf("unit: %s: unit %s (%s) is dead", op, u.ID, u.Name))
	}
}

// Alive reports whether HLT > 0 and MRL > 0.
func (u *Unit) Alive() bool { return u.alive }

// Phase returns the unit's position within its turn.
func (u *Unit) Phase() Phase { return u.phase }

// Stats returns a copy of the statistics block.
func (u *Unit) Stats() stat.Statistics { return u.stats }

// Stat returns the current value of n.
func (u *Unit) Stat(n stat.Name) uint32 { return u.stats.Get(n) }

// SetStat assigns n and re-derives liveness.
func (u *Unit) SetStat(n stat.Name, v uint32) {
	u.stats.Set(n, v)
	u.refresh()
}

// Modifiers returns the live modifiers, including the terrain modifier.
func (u *Unit) Modifiers() []*effect.Modifier { return u.modifiers.All() }

// Attributes returns the live standing attributes.
func (u *Unit) Attributes() []*effect.Attribute { return u.attributes.All() }

// OnHit returns the retaliation attribute, or nil.
func (u *Unit) OnHit() *effect.Attribute { return u.onHit }

// TerrainModifier returns the id of the active terrain modifier, or
// ident.None.
func (u *Unit) TerrainModifier() ident.ID {
	if u.terrain == nil {
		return ident.None
	}
	return u.terrain.ID
}

// Weapons returns the weapon set.
func (u *Unit) Weapons() []*Weapon { return u.weapons }

// ActiveWeapon returns the weapon in use.
func (u *Unit) ActiveWeapon() *Weapon { return u.weapons[u.active] }

// ActiveIndex returns the index of the weapon in use.
func (u *Unit) ActiveIndex() int { return u.active }

// Skills returns the skill set.
func (u *Unit) Skills() []*Skill { return u.skills }

// Magics returns the usable magic ids.
func (u *Unit) Magics() []ident.ID { return u.magics }

// AddAppliable folds a into the unit.
//
//   - *Modifier: rejected only when non-stacking and already live.
//   - *Effect: always applied once and discarded.
//   - *Attribute: OnAttack attaches to the active weapon, OnHit replaces the
//     retaliation attribute, None is kept as a standing attribute and its
//     payload applied immediately.
//
// Precondition: the unit is alive; a is not an OnOccupy attribute.
func (u *Unit) AddAppliable(a effect.Appliable) bool {
	u.mustLive("AddAppliable")
	defer u.refresh()
	switch v := a.(type) {
	case *effect.Modifier:
		return u.modifiers.Add(&u.stats, v)
	case *effect.Effect:
		effect.ApplyEffect(&u.stats, v)
		return true
	case *effect.Attribute:
		return u.addAttribute(v)
	default:
		panic(fmt.Sprintf("unit: AddAppliable: unknown appliable %T", a))
	}
}

func (u *Unit) addAttribute(a *effect.Attribute) bool {
	switch a.Trigger {
	case effect.OnAttack:
		return u.ActiveWeapon().AddAppliable(a)
	case effect.OnHit:
		u.onHit = a
		return true
	case effect.OnOccupy:
		panic(fmt.Sprintf("unit: AddAppliable: attribute %s has trigger %s, units cannot hold it", a.ID, a.Trigger))
	case effect.TriggerNone:
		if !u.attributes.Add(a) {
			return false
		}
		switch p := a.Fire(u.lookup).(type) {
		case *effect.Modifier:
			if u.modifiers.Add(&u.stats, p) {
				a.SetGranted(p)
			}
		case *effect.Effect:
			effect.ApplyEffect(&u.stats, p)
		default:
			panic(fmt.Sprintf("unit: AddAppliable: attribute %s fired unknown payload %T", a.ID, p))
		}
		return true
	default:
		panic(fmt.Sprintf("unit: AddAppliable: attribute %s has unknown trigger %d", a.ID, uint8(a.Trigger)))
	}
}

// grant applies an instance of s and returns it so it can be withdrawn.
func (u *Unit) grant(s effect.Status) effect.Appliable {
	a := s.Appliable(u.lookup)
	if !u.AddAppliable(a) {
		return nil
	}
	return a
}

// withdraw removes an instance previously added through grant.
func (u *Unit) withdraw(a effect.Appliable) {
	switch v := a.(type) {
	case *effect.Modifier:
		u.RemoveModifier(v)
	case *effect.Attribute:
		u.RemoveAttribute(v)
	case *effect.Effect:
	default:
		panic(fmt.Sprintf("unit: withdraw: unknown appliable %T", a))
	}
}

// RemoveModifier reverts the live instance m.
//
// Postcondition: Returns false when m is not live on this unit.
func (u *Unit) RemoveModifier(m *effect.Modifier) bool {
	defer u.refresh()
	if u.terrain == m {
		u.terrain = nil
	}
	return u.modifiers.Remove(&u.stats, m)
}

// RemoveModifierID reverts the earliest live instance of modifier id.
func (u *Unit) RemoveModifierID(id ident.ID) bool {
	for _, m := range u.modifiers.All() {
		if m.ID == id {
			return u.RemoveModifier(m)
		}
	}
	return false
}

// RemoveAttribute detaches a wherever it is held. Removing a standing
// attribute cascades to the modifier its payload granted.
//
// Postcondition: Returns false when a is not live on this unit.
func (u *Unit) RemoveAttribute(a *effect.Attribute) bool {
	defer u.refresh()
	if u.onHit == a {
		u.onHit = nil
		return true
	}
	for _, w := range u.weapons {
		if w.RemoveAttribute(a) {
			return true
		}
	}
	if !u.attributes.Remove(a) {
		return false
	}
	if m := a.Granted(); m != nil {
		u.modifiers.Remove(&u.stats, m)
		a.SetGranted(nil)
	}
	return true
}

// SetTerrainModifier swaps the active terrain modifier for an instance of
// id; ident.None just removes the current one.
//
// Postcondition: Returns false when the new modifier was rejected.
func (u *Unit) SetTerrainModifier(id ident.ID) bool {
	u.mustLive("SetTerrainModifier")
	if u.terrain != nil {
		if u.terrain.ID == id {
			return true
		}
		u.RemoveModifier(u.terrain)
	}
	if !id.Valid() {
		return true
	}
	m := effect.NewModifier(u.lookup, id)
	if !u.AddAppliable(m) {
		return false
	}
	u.terrain = m
	return true
}

// DecrementDurations ticks every live modifier and attribute once. Items
// reaching zero are removed and their successors added in their place.
// Permanent items never tick.
func (u *Unit) DecrementDurations() {
	next := u.modifiers.Tick(&u.stats, u.lookup)
	if u.terrain != nil && !u.terrain.Applied() {
		u.terrain = nil
	}
	for _, a := range u.attributes.Tick() {
		if m := a.Granted(); m != nil {
			u.modifiers.Remove(&u.stats, m)
			a.SetGranted(nil)
		}
		if succ := effect.Successor(u.lookup, a); succ != nil {
			next = append(next, succ)
		}
	}
	if a := u.onHit; a != nil && a.Duration.Tick() {
		u.onHit = nil
		if succ := effect.Successor(u.lookup, a); succ != nil {
			next = append(next, succ)
		}
	}
	for _, w := range u.weapons {
		w.DecrementDurations(u.lookup)
	}
	for _, s := range u.skills {
		if s.granted != nil && !u.holds(s.granted) {
			s.granted = nil
		}
	}
	u.refresh()
	if !u.alive {
		return
	}
	for _, a := range next {
		u.AddAppliable(a)
	}
}

// holds reports whether a is still live on the unit.
func (u *Unit) holds(a effect.Appliable) bool {
	switch v := a.(type) {
	case *effect.Modifier:
		return v.Applied()
	case *effect.Attribute:
		if u.onHit == v {
			return true
		}
		for _, w := range u.weapons {
			if w.OnAttack() == v {
				return true
			}
		}
		for _, live := range u.attributes.All() {
			if live == v {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// TakeDamage subtracts d and re-derives liveness.
//
// Postcondition: Returns whether the unit is still alive.
func (u *Unit) TakeDamage(d stat.Damage) bool {
	u.mustLive("TakeDamage")
	u.stats.Change(stat.MRL, -int(d.MRL))
	u.stats.Change(stat.HLT, -int(d.HLT))
	u.stats.Change(stat.SPL, -int(d.SPL))
	u.refresh()
	return u.alive
}

// ActionableSkills returns the ids of the skills usable this turn.
func (u *Unit) ActionableSkills() []ident.ID {
	var out []ident.ID
	for _, s := range u.skills {
		if s.Actionable() {
			out = append(out, s.Def)
		}
	}
	return out
}

// Skill returns the unit's instance of skill def id.
func (u *Unit) Skill(id ident.ID) (*Skill, bool) {
	for _, s := range u.skills {
		if s.Def == id {
			return s, true
		}
	}
	return nil, false
}

// CanCast reports whether the unit knows magic id and has the magic to cast.
func (u *Unit) CanCast(id ident.ID) bool {
	if u.stats.MAG.Current() == 0 {
		return false
	}
	for _, m := range u.magics {
		if m == id {
			return true
		}
	}
	return false
}
