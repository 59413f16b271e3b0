package unit

import (
	"fmt"

	"github.com/cory-johannsen/tactics/internal/game/effect"
	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/ident"
	"github.com/cory-johannsen/tactics/internal/game/stat"
)

// WeaponDef is an immutable weapon definition.
type WeaponDef struct {
	ID    ident.ID
	Name  string
	Stats stat.WeaponStats
	// Area is the blast shape. Path areas start at the wielder; Single and
	// Radial areas are centred on a target within Range.
	Area  grid.Area
	Range int
	// Attribute is the OnAttack attribute the weapon starts with, or
	// ident.None.
	Attribute ident.ID
}

// Weapon is a unit's instance of a WeaponDef.
type Weapon struct {
	Def   ident.ID
	Name  string
	Stats stat.WeaponStats
	Area  grid.Area
	Range int

	onAttack *effect.Attribute
}

// NewWeapon instantiates def.
func NewWeapon(def WeaponDef, l effect.Lookup) *Weapon {
	w := &Weapon{Def: def.ID, Name: def.Name, Stats: def.Stats, Area: def.Area, Range: def.Range}
	if def.Attribute.Valid() {
		w.AddAppliable(effect.NewAttribute(l, def.Attribute))
	}
	return w
}

// OnAttack returns the weapon's live OnAttack attribute, or nil.
func (w *Weapon) OnAttack() *effect.Attribute { return w.onAttack }

// AddAppliable attaches an OnAttack attribute, replacing any previous one.
//
// Precondition: a is an *effect.Attribute with trigger OnAttack.
func (w *Weapon) AddAppliable(a effect.Appliable) bool {
	switch v := a.(type) {
	case *effect.Attribute:
		if v.Trigger != effect.OnAttack {
			panic(fmt.Sprintf("unit: Weapon.AddAppliable: attribute %s has trigger %s, weapons accept only %s", v.ID, v.Trigger, effect.OnAttack))
		}
		w.onAttack = v
		return true
	case *effect.Modifier:
		panic(fmt.Sprintf("unit: Weapon.AddAppliable: modifier %s cannot be applied to a weapon", v.ID))
	case *effect.Effect:
		panic(fmt.Sprintf("unit: Weapon.AddAppliable: effect %s cannot be applied to a weapon", v.ID))
	default:
		panic(fmt.Sprintf("unit: Weapon.AddAppliable: unknown appliable %T", a))
	}
}

// RemoveAttribute detaches a when it is the weapon's live attribute.
func (w *Weapon) RemoveAttribute(a *effect.Attribute) bool {
	if w.onAttack == nil || w.onAttack != a {
		return false
	}
	w.onAttack = nil
	return true
}

// DecrementDurations ticks the weapon's attribute, substituting its successor
// on expiry.
func (w *Weapon) DecrementDurations(l effect.Lookup) {
	a := w.onAttack
	if a == nil || !a.Duration.Tick() {
		return
	}
	w.onAttack = nil
	if succ := effect.Successor(l, a); succ != nil {
		w.AddAppliable(succ)
	}
}
