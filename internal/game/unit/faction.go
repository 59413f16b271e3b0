package unit

import (
	"fmt"
	"slices"

	"github.com/cory-johannsen/tactics/internal/game/ident"
	"github.com/cory-johannsen/tactics/internal/game/join"
)

// Faction is a side in a battle.
type Faction struct {
	ID   ident.ID
	Name string
}

// Factions records faction membership, static alliances and the
// leader→followers relation. Every query returns ids in ascending order.
type Factions struct {
	factions  []Faction
	members   *join.Outer[ident.ID, ident.ID]
	allies    *join.Cross[ident.ID, ident.ID]
	followers *join.Outer[ident.ID, ident.ID]
}

// NewFactions returns an empty registry.
func NewFactions() *Factions {
	return &Factions{
		members:   join.NewOuter[ident.ID, ident.ID](),
		allies:    join.NewCross[ident.ID, ident.ID](),
		followers: join.NewOuter[ident.ID, ident.ID](),
	}
}

// Add registers a new faction and returns its id.
func (f *Factions) Add(name string) ident.ID {
	id := ident.ID(len(f.factions))
	if !id.Valid() {
		panic("unit: Factions.Add: faction ids exhausted")
	}
	f.factions = append(f.factions, Faction{ID: id, Name: name})
	return id
}

// Get returns faction id.
//
// Precondition: id was returned by Add.
func (f *Factions) Get(id ident.ID) Faction {
	if int(id) >= len(f.factions) {
		panic(fmt.Sprintf("unit: Factions.Get: no faction %s", id))
	}
	return f.factions[id]
}

// All returns every registered faction.
func (f *Factions) All() []Faction { return slices.Clone(f.factions) }

// Ally records a symmetric alliance between a and b.
func (f *Factions) Ally(a, b ident.ID) {
	f.Get(a)
	f.Get(b)
	if a == b {
		return
	}
	f.allies.Insert(a, b)
	f.allies.Insert(b, a)
}

// Allies returns the factions allied with id.
func (f *Factions) Allies(id ident.ID) []ident.ID { return sorted(f.allies.Rights(id)) }

// IsAlly reports whether factions a and b fight on the same side.
func (f *Factions) IsAlly(a, b ident.ID) bool {
	return a == b || f.allies.Contains(a, b)
}

// Join makes unit a member of faction, moving it from any previous faction.
func (f *Factions) Join(faction, unit ident.ID) {
	f.Get(faction)
	f.members.Replace(faction, unit)
}

// FactionOf returns the faction unit belongs to.
func (f *Factions) FactionOf(unit ident.ID) (ident.ID, bool) { return f.members.Owner(unit) }

// Members returns the units of faction.
func (f *Factions) Members(faction ident.ID) []ident.ID { return sorted(f.members.Values(faction)) }

// Count returns the number of units in faction.
func (f *Factions) Count(faction ident.ID) int { return f.members.Count(faction) }

// Standing returns the factions with at least one member.
func (f *Factions) Standing() []ident.ID { return sorted(f.members.Keys()) }

// SetLeader makes leader the leader of follower.
//
// Postcondition: Returns false when either unit has no faction, they belong
// to different factions, or follower == leader.
func (f *Factions) SetLeader(follower, leader ident.ID) bool {
	a, okA := f.members.Owner(follower)
	b, okB := f.members.Owner(leader)
	if !okA || !okB || a != b || follower == leader {
		return false
	}
	f.followers.Replace(leader, follower)
	return true
}

// Leader returns the leader of follower.
func (f *Factions) Leader(follower ident.ID) (ident.ID, bool) { return f.followers.Owner(follower) }

// Followers returns the units led by leader.
func (f *Factions) Followers(leader ident.ID) []ident.ID {
	return sorted(f.followers.Values(leader))
}

// Leave removes unit from its faction and from the leader relation on both
// sides. Its former followers become leaderless.
func (f *Factions) Leave(unit ident.ID) {
	f.members.Remove(unit)
	f.followers.Remove(unit)
	f.followers.RemoveKey(unit)
}

func sorted(ids []ident.ID) []ident.ID {
	slices.Sort(ids)
	return ids
}
