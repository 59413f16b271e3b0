package effect

import (
	"fmt"

	"github.com/cory-johannsen/tactics/internal/game/ident"
	"github.com/cory-johannsen/tactics/internal/game/stat"
)

// Fold applies every adjustment of m through change, which returns the delta
// it actually applied, and records those deltas for Unfold.
//
// Precondition: m must not already be applied.
func (m *Modifier) Fold(change func(adj Adjustment) int) {
	if m.applied != nil {
		panic(fmt.Sprintf("effect: Modifier.Fold: modifier %s already applied", m.ID))
	}
	m.applied = make([]int, len(m.Adjustments))
	for i, adj := range m.Adjustments {
		m.applied[i] = change(adj)
	}
}

// Unfold reverses the recorded deltas of m, newest adjustment first.
//
// Precondition: m must be applied.
// Postcondition: m.Applied() is false.
func (m *Modifier) Unfold(change func(n stat.Name, delta int)) {
	if m.applied == nil {
		panic(fmt.Sprintf("effect: Modifier.Unfold: modifier %s not applied", m.ID))
	}
	for i := len(m.Adjustments) - 1; i >= 0; i-- {
		change(m.Adjustments[i].Stat, -m.applied[i])
	}
	m.applied = nil
}

// ApplyModifier folds m into s as percentage-of-reference changes.
func ApplyModifier(s *stat.Statistics, m *Modifier) {
	m.Fold(func(adj Adjustment) int { return s.ChangePercent(adj.Stat, adj.Amount) })
}

// RevertModifier reverses the deltas m recorded when it was applied to s.
func RevertModifier(s *stat.Statistics, m *Modifier) {
	m.Unfold(func(n stat.Name, delta int) { s.Change(n, delta) })
}

// ApplyEffect applies e to s once.
func ApplyEffect(s *stat.Statistics, e *Effect) {
	for _, adj := range e.Adjustments {
		if e.Flat {
			s.Change(adj.Stat, adj.Amount)
		} else {
			s.ChangePercent(adj.Stat, adj.Amount)
		}
	}
}

// ModifierSet is the live modifier list of one statistics block.
type ModifierSet struct {
	items []*Modifier
}

// Len returns the number of live modifiers.
func (ms *ModifierSet) Len() int { return len(ms.items) }

// All returns the live modifiers in insertion order. The slice must not be
// mutated.
func (ms *ModifierSet) All() []*Modifier { return ms.items }

// Has reports whether a modifier instantiated from id is live.
func (ms *ModifierSet) Has(id ident.ID) bool {
	for _, m := range ms.items {
		if m.ID == id {
			return true
		}
	}
	return false
}

// Add folds m into s and keeps it live.
//
// Postcondition: Returns false, leaving s unchanged, when m does not stack
// and a modifier with the same id is already live.
func (ms *ModifierSet) Add(s *stat.Statistics, m *Modifier) bool {
	if !m.Stack && ms.Has(m.ID) {
		return false
	}
	ApplyModifier(s, m)
	ms.items = append(ms.items, m)
	return true
}

// Remove reverts and drops the instance m.
//
// Postcondition: Returns false when m is not live in this set.
func (ms *ModifierSet) Remove(s *stat.Statistics, m *Modifier) bool {
	for i, live := range ms.items {
		if live == m {
			RevertModifier(s, m)
			ms.items = append(ms.items[:i], ms.items[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveID reverts and drops the earliest live instance of id.
func (ms *ModifierSet) RemoveID(s *stat.Statistics, id ident.ID) bool {
	for _, live := range ms.items {
		if live.ID == id {
			return ms.Remove(s, live)
		}
	}
	return false
}

// Clear reverts and drops every live modifier, newest first.
func (ms *ModifierSet) Clear(s *stat.Statistics) {
	for i := len(ms.items) - 1; i >= 0; i-- {
		RevertModifier(s, ms.items[i])
	}
	ms.items = nil
}

// Tick advances every live modifier by one turn. Modifiers reaching zero are
// reverted and removed; their successors are returned for the caller to add
// back through its own routing.
//
// Postcondition: no expired modifier remains live.
func (ms *ModifierSet) Tick(s *stat.Statistics, l Lookup) []Appliable {
	var next []Appliable
	kept := ms.items[:0]
	for _, m := range ms.items {
		if !m.Duration.Tick() {
			kept = append(kept, m)
			continue
		}
		RevertModifier(s, m)
		if succ := Successor(l, m); succ != nil {
			next = append(next, succ)
		}
	}
	for i := len(kept); i < len(ms.items); i++ {
		ms.items[i] = nil
	}
	ms.items = kept
	return next
}

// AttributeSet is the live list of attributes sharing one trigger on one
// holder.
type AttributeSet struct {
	items []*Attribute
}

// Len returns the number of live attributes.
func (as *AttributeSet) Len() int { return len(as.items) }

// All returns the live attributes in insertion order.
func (as *AttributeSet) All() []*Attribute { return as.items }

// Has reports whether an attribute instantiated from id is live.
func (as *AttributeSet) Has(id ident.ID) bool {
	for _, a := range as.items {
		if a.ID == id {
			return true
		}
	}
	return false
}

// Add keeps a live. Attributes of the same id do not stack.
func (as *AttributeSet) Add(a *Attribute) bool {
	if as.Has(a.ID) {
		return false
	}
	as.items = append(as.items, a)
	return true
}

// Remove drops the instance a. The caller undoes a.Granted().
func (as *AttributeSet) Remove(a *Attribute) bool {
	for i, live := range as.items {
		if live == a {
			as.items = append(as.items[:i], as.items[i+1:]...)
			return true
		}
	}
	return false
}

// Find returns the earliest live instance of id.
func (as *AttributeSet) Find(id ident.ID) (*Attribute, bool) {
	for _, a := range as.items {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}

// Tick advances every live attribute by one turn and returns the expired
// instances, already removed, so the caller can cascade their granted
// modifiers and add successors.
func (as *AttributeSet) Tick() []*Attribute {
	var expired []*Attribute
	kept := as.items[:0]
	for _, a := range as.items {
		if a.Duration.Tick() {
			expired = append(expired, a)
			continue
		}
		kept = append(kept, a)
	}
	for i := len(kept); i < len(as.items); i++ {
		as.items[i] = nil
	}
	as.items = kept
	return expired
}
