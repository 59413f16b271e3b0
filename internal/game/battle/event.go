package battle

import (
	"fmt"

	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/ident"
	"github.com/cory-johannsen/tactics/internal/game/stat"
)

// EventKind classifies a battle event.
type EventKind uint8

const (
	EventSpawn EventKind = iota
	EventTurn
	EventAttack
	EventSkill
	EventMagic
	EventWait
	EventSwitch
	EventMove
	EventOccupy
	EventPassive
	EventDeath
	EventRecruit
	EventRound
)

var eventNames = [...]string{
	"spawn", "turn", "attack", "skill", "magic", "wait", "switch",
	"move", "occupy", "passive", "death", "recruit", "round",
}

// String returns the lower-case event name.
func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return fmt.Sprintf("event(%d)", uint8(k))
}

// MarshalText encodes k by name.
func (k EventKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText decodes an event name.
func (k *EventKind) UnmarshalText(b []byte) error {
	for i, n := range eventNames {
		if n == string(b) {
			*k = EventKind(i)
			return nil
		}
	}
	return fmt.Errorf("battle: unknown event kind %q", string(b))
}

// Event is one line of the battle narrative. Unit is ident.None for round
// events.
type Event struct {
	Turn      int            `json:"turn"`
	Round     int            `json:"round"`
	Kind      EventKind      `json:"kind"`
	Unit      ident.ID       `json:"unit"`
	Faction   ident.ID       `json:"faction"`
	Targets   []ident.ID     `json:"targets,omitempty"`
	Damage    []stat.Damage  `json:"damage,omitempty"`
	At        *grid.Location `json:"at,omitempty"`
	Narrative string         `json:"narrative"`
}

func (b *Battle) emit(e Event) {
	e.Turn = b.turn
	e.Round = b.round
	b.events = append(b.events, e)
}

func at(l grid.Location) *grid.Location { return &l }
