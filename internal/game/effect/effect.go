// Package effect implements the dynamic effect system: modifiers, effects,
// attributes and statuses, and the rules by which they fold into bounded
// statistics, stack, expire and chain into successors.
//
// Appliable is a closed union of *Modifier, *Effect and *Attribute. Every
// switch over it is exhaustive and panics on an unknown variant.
package effect

import (
	"fmt"
	"math"
	"strings"

	"github.com/cory-johannsen/tactics/internal/game/ident"
	"github.com/cory-johannsen/tactics/internal/game/stat"
)

// Trigger gates when an Attribute fires.
type Trigger uint8

const (
	TriggerNone Trigger = iota // standing: fires once when attached
	OnHit                      // fires on the attacker when the holder is hit
	OnAttack                   // fires on the defender when the holder attacks
	OnOccupy                   // fires on a unit occupying the holding tile
)

var triggerNames = map[Trigger]string{
	TriggerNone: "none",
	OnHit:       "on_hit",
	OnAttack:    "on_attack",
	OnOccupy:    "on_occupy",
}

// String returns the content-file spelling of t.
func (t Trigger) String() string {
	if s, ok := triggerNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Trigger(%d)", uint8(t))
}

// UnmarshalText parses the content-file spelling of a trigger.
func (t *Trigger) UnmarshalText(b []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(b)))
	for k, v := range triggerNames {
		if v == s {
			*t = k
			return nil
		}
	}
	return fmt.Errorf("effect: unknown trigger %q", string(b))
}

// MarshalText implements encoding.TextMarshaler.
func (t Trigger) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// Adjustment is one statistic change. Amount is a percentage for modifiers
// and for non-flat effects, and an absolute delta for flat effects.
type Adjustment struct {
	Stat   stat.Name `yaml:"stat" json:"stat"`
	Amount int       `yaml:"amount" json:"amount"`
}

// PermanentTurns is the sentinel duration of items that never expire.
const PermanentTurns = math.MaxUint16

// Duration counts the turns an item has left.
type Duration struct {
	remaining uint16
}

// NewDuration creates a duration of turns. PermanentTurns yields a permanent
// duration.
func NewDuration(turns uint16) Duration { return Duration{remaining: turns} }

// Permanent returns a duration that never ticks.
func Permanent() Duration { return Duration{remaining: PermanentTurns} }

// Remaining returns the turns left; PermanentTurns for permanent durations.
func (d Duration) Remaining() uint16 { return d.remaining }

// IsPermanent reports whether d never ticks.
func (d Duration) IsPermanent() bool { return d.remaining == PermanentTurns }

// Expired reports whether d has reached zero.
func (d Duration) Expired() bool { return d.remaining == 0 }

// Tick decrements d by one turn and reports whether it just reached zero.
// Permanent durations are unchanged.
//
// Precondition: d must not already be expired.
// Postcondition: Returns true iff Remaining() became 0 on this call.
func (d *Duration) Tick() bool {
	if d.IsPermanent() {
		return false
	}
	if d.remaining == 0 {
		panic("effect: Duration.Tick: duration already expired")
	}
	d.remaining--
	return d.remaining == 0
}

// Appliable is a value that can mutate target statistics.
type Appliable interface {
	appliable()
	// Key returns the content id the value was instantiated from.
	Key() ident.ID
}

// Modifier is a percentage-based, duration-bearing statistic adjustment.
// Non-stacking modifiers replace nothing: a second copy is simply rejected.
type Modifier struct {
	ID          ident.ID
	Adjustments []Adjustment
	Stack       bool
	Duration    Duration
	// Next is the successor instantiated when this modifier expires.
	Next ident.ID

	applied []int
}

func (*Modifier) appliable() {}

// Key returns m.ID.
func (m *Modifier) Key() ident.ID { return m.ID }

// Applied reports whether m is currently folded into a statistics block.
func (m *Modifier) Applied() bool { return m.applied != nil }

// AppliedDeltas returns the deltas m actually applied, parallel to
// Adjustments, or nil when m is not applied.
func (m *Modifier) AppliedDeltas() []int { return m.applied }

// clone returns an independent, unapplied copy of m.
func (m Modifier) clone() *Modifier {
	m.applied = nil
	return &m
}

// Effect is an immediate, single-shot adjustment. It is never stored.
type Effect struct {
	ID          ident.ID
	Adjustments []Adjustment
	// Flat selects absolute deltas; otherwise Amounts are percentages.
	Flat bool
}

func (*Effect) appliable() {}

// Key returns e.ID.
func (e *Effect) Key() ident.ID { return e.ID }

// PayloadKind selects what an Attribute or Status yields.
type PayloadKind uint8

const (
	PayloadModifier PayloadKind = iota
	PayloadEffect
	PayloadAttribute
)

// String returns the content-file spelling of k.
func (k PayloadKind) String() string {
	switch k {
	case PayloadModifier:
		return "modifier"
	case PayloadEffect:
		return "effect"
	case PayloadAttribute:
		return "attribute"
	default:
		return fmt.Sprintf("PayloadKind(%d)", uint8(k))
	}
}

// Payload references the content item an Attribute or Status yields.
type Payload struct {
	Kind PayloadKind
	ID   ident.ID
}

// Attribute is a trigger-gated wrapper that yields its payload when fired.
type Attribute struct {
	ID       ident.ID
	Trigger  Trigger
	Payload  Payload
	Duration Duration
	Next     ident.ID

	granted *Modifier
}

func (*Attribute) appliable() {}

// Key returns a.ID.
func (a *Attribute) Key() ident.ID { return a.ID }

// Granted returns the modifier instance this attribute's payload added to its
// holder, or nil.
func (a *Attribute) Granted() *Modifier { return a.granted }

// SetGranted records the modifier instance the payload added to the holder,
// so removal of the attribute can cascade to it.
func (a *Attribute) SetGranted(m *Modifier) { a.granted = m }

// Fire instantiates the attribute's payload.
//
// Precondition: a.Payload.Kind is PayloadModifier or PayloadEffect.
func (a *Attribute) Fire(l Lookup) Appliable {
	switch a.Payload.Kind {
	case PayloadModifier:
		return NewModifier(l, a.Payload.ID)
	case PayloadEffect:
		return NewEffect(l, a.Payload.ID)
	default:
		panic(fmt.Sprintf("effect: Attribute.Fire: attribute %s has invalid payload kind %s", a.ID, a.Payload.Kind))
	}
}

func (a Attribute) clone() *Attribute {
	a.granted = nil
	return &a
}

// Status is the template form of a Modifier or Attribute carried by skills,
// magics and tiles.
type Status struct {
	ID       ident.ID
	Payload  Payload
	Duration Duration
	// Next is the linked status; toggle skills flip between a status and
	// its Next.
	Next ident.ID
}

// Applier produces an Appliable on demand.
type Applier interface {
	Appliable(l Lookup) Appliable
}

// Appliable instantiates the status payload. The instance inherits the
// status duration.
//
// Precondition: s.Payload.Kind is PayloadModifier or PayloadAttribute.
func (s Status) Appliable(l Lookup) Appliable {
	switch s.Payload.Kind {
	case PayloadModifier:
		m := NewModifier(l, s.Payload.ID)
		m.Duration = s.Duration
		return m
	case PayloadAttribute:
		a := NewAttribute(l, s.Payload.ID)
		a.Duration = s.Duration
		return a
	default:
		panic(fmt.Sprintf("effect: Status.Appliable: status %s has invalid payload kind %s", s.ID, s.Payload.Kind))
	}
}

// Lookup is the read-only content table the effect system instantiates from.
type Lookup interface {
	Modifier(id ident.ID) Modifier
	Effect(id ident.ID) Effect
	Attribute(id ident.ID) Attribute
	Status(id ident.ID) Status
}

// Receiver is implemented by everything that accepts appliables: units,
// weapons and tiles.
type Receiver interface {
	// AddAppliable folds a into the receiver and reports whether the add
	// took effect. Appliables the receiver cannot hold panic.
	AddAppliable(a Appliable) bool
}

// NewModifier returns a fresh instance of modifier id.
func NewModifier(l Lookup, id ident.ID) *Modifier {
	m := l.Modifier(id)
	return m.clone()
}

// NewEffect returns a fresh instance of effect id.
func NewEffect(l Lookup, id ident.ID) *Effect {
	e := l.Effect(id)
	return &e
}

// NewAttribute returns a fresh instance of attribute id.
func NewAttribute(l Lookup, id ident.ID) *Attribute {
	a := l.Attribute(id)
	return a.clone()
}

// Successor instantiates the item that replaces a expired during a tick, or
// returns nil when a carries no successor.
func Successor(l Lookup, a Appliable) Appliable {
	switch v := a.(type) {
	case *Modifier:
		if !v.Next.Valid() {
			return nil
		}
		return NewModifier(l, v.Next)
	case *Attribute:
		if !v.Next.Valid() {
			return nil
		}
		return NewAttribute(l, v.Next)
	case *Effect:
		return nil
	default:
		panic(fmt.Sprintf("effect: Successor: unknown appliable %T", a))
	}
}
