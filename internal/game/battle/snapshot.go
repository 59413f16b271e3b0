package battle

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/ident"
	"github.com/cory-johannsen/tactics/internal/game/scheduler"
	"github.com/cory-johannsen/tactics/internal/game/stat"
)

// Snapshot is the serialisable state of a battle at one moment. It is a
// record for storage and replay review, not a save game: restoring a live
// battle from it is not supported.
type Snapshot struct {
	ID       uuid.UUID        `json:"id"`
	Name     string           `json:"name"`
	Turn     int              `json:"turn"`
	Round    int              `json:"round"`
	Over     bool             `json:"over"`
	Winner   string           `json:"winner,omitempty"`
	Factions []FactionState   `json:"factions"`
	Units    []UnitState      `json:"units"`
	Queue    []scheduler.Turn `json:"queue"`
	Frame    grid.Frame       `json:"frame"`
	Events   []Event          `json:"events"`
	TakenAt  time.Time        `json:"taken_at"`
}

// FactionState is one faction in a Snapshot.
type FactionState struct {
	ID         ident.ID   `json:"id"`
	Name       string     `json:"name"`
	Allies     []ident.ID `json:"allies,omitempty"`
	Members    []ident.ID `json:"members"`
	Controlled int        `json:"controlled"`
}

// UnitState is one unit in a Snapshot. Dead units keep their last values
// and have no location.
type UnitState struct {
	ID        ident.ID       `json:"id"`
	Def       ident.ID       `json:"def"`
	Name      string         `json:"name"`
	Faction   ident.ID       `json:"faction"`
	Alive     bool           `json:"alive"`
	At        *grid.Location `json:"at,omitempty"`
	Leader    ident.ID       `json:"leader"`
	Stats     stat.Values    `json:"stats"`
	Weapon    int            `json:"weapon"`
	Modifiers []ident.ID     `json:"modifiers,omitempty"`
}

// Snapshot captures the current state of the battle.
func (b *Battle) Snapshot() Snapshot {
	s := Snapshot{
		ID:      b.ID,
		Name:    b.Name,
		Turn:    b.turn,
		Round:   b.round,
		Over:    b.started && b.Over(),
		Queue:   b.sched.Turns(),
		Frame:   b.grid.Frame(),
		Events:  append([]Event(nil), b.events...),
		TakenAt: time.Now().UTC(),
	}
	if w, ok := b.Winner(); ok && s.Over {
		s.Winner = b.factions.Get(w).Name
	}
	for _, f := range b.factions.All() {
		s.Factions = append(s.Factions, FactionState{
			ID:         f.ID,
			Name:       f.Name,
			Allies:     b.factions.Allies(f.ID),
			Members:    b.factions.Members(f.ID),
			Controlled: len(b.grid.Controlled(f.ID)),
		})
	}
	for _, u := range b.arena.All() {
		st := u.Stats()
		us := UnitState{
			ID:      u.ID,
			Def:     u.Def,
			Name:    u.Name,
			Faction: u.Faction,
			Alive:   u.Alive(),
			Leader:  ident.None,
			Stats:   st.Current(),
			Weapon:  u.ActiveIndex(),
		}
		if l, ok := b.grid.LocationOf(u.ID); ok {
			us.At = at(l)
		}
		if leader, ok := b.factions.Leader(u.ID); ok {
			us.Leader = leader
		}
		for _, m := range u.Modifiers() {
			us.Modifiers = append(us.Modifiers, m.ID)
		}
		s.Units = append(s.Units, us)
	}
	return s
}

// Marshal encodes s as JSON.
func (s Snapshot) Marshal() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot %s: %w", s.ID, err)
	}
	return data, nil
}

// UnmarshalSnapshot decodes a snapshot produced by Snapshot.Marshal.
func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	return s, nil
}
