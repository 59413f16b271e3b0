package battle

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/ident"
	"github.com/cory-johannsen/tactics/internal/game/scheduler"
	"github.com/cory-johannsen/tactics/internal/game/stat"
	"github.com/cory-johannsen/tactics/internal/game/unit"
)

// ActionKind names the single action a unit takes in its turn.
type ActionKind uint8

const (
	ActWait ActionKind = iota
	ActAttack
	ActSkill
	ActMagic
	ActMove
	ActSwitch
)

var actionNames = [...]string{"wait", "attack", "skill", "magic", "move", "switch"}

// String returns the lower-case action name.
func (k ActionKind) String() string {
	if int(k) < len(actionNames) {
		return actionNames[k]
	}
	return fmt.Sprintf("action(%d)", uint8(k))
}

// UnmarshalText decodes an action name.
func (k *ActionKind) UnmarshalText(b []byte) error {
	for i, n := range actionNames {
		if n == string(b) {
			*k = ActionKind(i)
			return nil
		}
	}
	return fmt.Errorf("battle: unknown action %q", string(b))
}

// MarshalText encodes k by name.
func (k ActionKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Action is a controller's decision for one turn. Only the fields of Kind
// are read.
type Action struct {
	Kind ActionKind
	// Target centres single and radial areas of attacks and magic.
	Target grid.Location
	// Facing orients path areas, which start at the actor.
	Facing grid.Direction
	Path   []grid.Direction
	Skill  ident.ID
	Magic  ident.ID
	Weapon int
}

// Perform dispatches a to the matching action method.
//
// Postcondition: Returns false, leaving the turn open, when the action is
// not legal.
func (b *Battle) Perform(a Action) bool {
	switch a.Kind {
	case ActWait:
		b.Wait()
		return true
	case ActAttack:
		return b.Attack(a.Target, a.Facing)
	case ActSkill:
		return b.UseSkill(a.Skill)
	case ActMagic:
		return b.CastMagic(a.Magic, a.Target, a.Facing)
	case ActMove:
		return b.Move(a.Path)
	case ActSwitch:
		return b.SwitchWeapon(a.Weapon)
	default:
		panic(fmt.Sprintf("battle: Perform: unknown action kind %d", uint8(a.Kind)))
	}
}

// actor returns the unit of the open turn, which must not have acted yet.
func (b *Battle) actor(op string) (*unit.Unit, grid.Location) {
	if b.current == nil {
		panic(fmt.Sprintf("battle: %s: no turn is open", op))
	}
	u := b.arena.Get(b.current.Unit)
	if u.Phase() != unit.PhaseActing {
		panic(fmt.Sprintf("battle: %s: unit %s already acted", op, u.ID))
	}
	l, ok := b.grid.LocationOf(u.ID)
	if !ok {
		panic(fmt.Sprintf("battle: %s: unit %s is not on the board", op, u.ID))
	}
	return u, l
}

// inArea returns the units an area reaching from the actor at from covers.
// Path areas start at from and extend towards facing; single and radial
// areas are centred on target, which must lie within reach.
func (b *Battle) inArea(from grid.Location, area grid.Area, reach int, target grid.Location, facing grid.Direction) ([]ident.ID, bool) {
	origin := from
	if area.Shape != grid.Path {
		if !b.grid.InBounds(target) || from.Distance(target) > reach {
			return nil, false
		}
		origin = target
	}
	return b.grid.FindUnits(origin, area, facing), true
}

func (b *Battle) enemies(u *unit.Unit, ids []ident.ID) []*unit.Unit {
	var out []*unit.Unit
	for _, id := range ids {
		o := b.arena.Get(id)
		if o.Alive() && !b.friendly(u, o) {
			out = append(out, o)
		}
	}
	return out
}

func unitIDs(units []*unit.Unit) []ident.ID {
	ids := make([]ident.ID, len(units))
	for i, u := range units {
		ids[i] = u.ID
	}
	return ids
}

// Attack strikes every enemy in the active weapon's area. Friendly units in
// the area are spared.
//
// Postcondition: Returns false, leaving the turn open, when the target is out
// of range or the area holds no enemy.
func (b *Battle) Attack(target grid.Location, facing grid.Direction) bool {
	u, from := b.actor("Attack")
	w := u.ActiveWeapon()
	ids, ok := b.inArea(from, w.Area, w.Range, target, facing)
	if !ok {
		return false
	}
	targets := b.enemies(u, ids)
	if len(targets) == 0 {
		return false
	}
	dealt, _ := u.Attack(targets)
	b.acted = scheduler.ActionAttack
	hit := unitIDs(targets)
	b.emit(Event{
		Kind:      EventAttack,
		Unit:      u.ID,
		Faction:   u.Faction,
		Targets:   hit,
		Damage:    dealt,
		At:        at(target),
		Narrative: fmt.Sprintf("%s attacks with %s, striking %d.", u.Name, w.Name, len(targets)),
	})
	b.logger.Debug("attack",
		zap.Uint16("unit", uint16(u.ID)),
		zap.String("weapon", w.Name),
		zap.Int("targets", len(targets)),
		zap.Uint32("hlt", totalHLT(dealt)),
	)
	b.reap(append(hit, u.ID))
	return true
}

func totalHLT(dealt []stat.Damage) uint32 {
	var sum uint32
	for _, d := range dealt {
		sum += d.HLT
	}
	return sum
}

// UseSkill activates skill def id of the acting unit.
//
// Postcondition: Returns false, leaving the turn open, when the unit lacks
// the skill or it is not actionable.
func (b *Battle) UseSkill(id ident.ID) bool {
	u, _ := b.actor("UseSkill")
	if _, ok := u.UseSkill(id); !ok {
		return false
	}
	b.acted = scheduler.ActionSkill
	s, _ := u.Skill(id)
	b.emit(Event{Kind: EventSkill, Unit: u.ID, Faction: u.Faction, Narrative: fmt.Sprintf("%s uses %s.", u.Name, s.Name)})
	return true
}

// CastMagic casts magic id over its area. Every unit in the area receives
// the payload, the caster and its allies included.
//
// Postcondition: Returns false, leaving the turn open, when the target is out
// of range or the unit cannot cast.
func (b *Battle) CastMagic(id ident.ID, target grid.Location, facing grid.Direction) bool {
	u, from := b.actor("CastMagic")
	if !u.CanCast(id) {
		return false
	}
	def := b.content.Magic(id)
	ids, ok := b.inArea(from, def.Area, def.Range, target, facing)
	if !ok {
		return false
	}
	targets := b.arena.Resolve(ids)
	if _, ok := u.CastMagic(id, targets); !ok {
		return false
	}
	b.acted = scheduler.ActionMagic
	b.emit(Event{
		Kind:      EventMagic,
		Unit:      u.ID,
		Faction:   u.Faction,
		Targets:   ids,
		At:        at(target),
		Narrative: fmt.Sprintf("%s casts %s over %d units.", u.Name, def.Name, len(ids)),
	})
	b.reap(append(ids, u.ID))
	return true
}

// Wait spends the acting unit's turn.
func (b *Battle) Wait() {
	u, _ := b.actor("Wait")
	u.Wait()
	b.acted = scheduler.ActionWait
	b.emit(Event{Kind: EventWait, Unit: u.ID, Faction: u.Faction, Narrative: fmt.Sprintf("%s holds position.", u.Name)})
}

// SwitchWeapon makes weapon i of the acting unit active.
//
// Postcondition: Returns false, leaving the turn open, when i is out of range
// or already active.
func (b *Battle) SwitchWeapon(i int) bool {
	u, _ := b.actor("SwitchWeapon")
	if _, ok := u.SwitchWeapon(i); !ok {
		return false
	}
	b.acted = scheduler.ActionSwitch
	b.emit(Event{
		Kind:      EventSwitch,
		Unit:      u.ID,
		Faction:   u.Faction,
		Narrative: fmt.Sprintf("%s readies %s.", u.Name, u.ActiveWeapon().Name),
	})
	return true
}

// MovementBudget returns the path cost unit id may spend in one move.
func (b *Battle) MovementBudget(id ident.ID) uint32 {
	return b.arena.Get(id).Stat(stat.MOV) / uint32(b.cfg.MoveDivisor)
}

// Move walks the acting unit along path. Every tile entered is claimed for
// its faction; on arrival the unit takes the terrain modifier of its new tile
// and suffers the tile's OnOccupy attribute.
//
// Postcondition: Returns false, leaving the unit in place and the turn open,
// when path is empty, blocked, or costs more than the movement budget.
func (b *Battle) Move(path []grid.Direction) bool {
	u, from := b.actor("Move")
	if len(path) == 0 {
		return false
	}
	cost, end, ok := b.grid.PathCost(from, path)
	if !ok || cost > b.MovementBudget(u.ID) {
		return false
	}
	if _, ok := b.grid.MoveUnit(u.ID, u.Faction, path); !ok {
		return false
	}
	u.Move()
	b.acted = scheduler.ActionMove
	b.enter(u, end)
	b.emit(Event{
		Kind:      EventMove,
		Unit:      u.ID,
		Faction:   u.Faction,
		At:        at(end),
		Narrative: fmt.Sprintf("%s moves from %s to %s.", u.Name, from, end),
	})
	b.logger.Debug("move",
		zap.Uint16("unit", uint16(u.ID)),
		zap.Stringer("from", from),
		zap.Stringer("to", end),
		zap.Uint32("cost", cost),
	)
	b.occupy(u, end)
	b.reap([]ident.ID{u.ID})
	return true
}
