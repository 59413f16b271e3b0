package battle

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/game/effect"
	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/ident"
	"github.com/cory-johannsen/tactics/internal/game/stat"
	"github.com/cory-johannsen/tactics/internal/game/unit"
)

// NextTurn opens the turn of the next scheduled unit. Passive skills of the
// unit spread to allies in range and the tile it stands on fires its OnOccupy
// attribute. A unit killed by either is removed and the following unit is
// tried.
//
// Precondition: the battle has started and no turn is open.
// Postcondition: Returns false when the battle is over or nobody is left to
// act.
func (b *Battle) NextTurn() (*unit.Unit, bool) {
	if !b.started {
		panic("battle: NextTurn: battle not started")
	}
	if b.current != nil {
		panic("battle: NextTurn: a turn is already open")
	}
	for !b.Over() {
		t, ok := b.sched.Next()
		if !ok {
			return nil, false
		}
		u := b.arena.Get(t.Unit)
		if !u.Alive() {
			b.kill(u)
			continue
		}
		b.turn++
		b.current = &t
		u.StartTurn()
		b.emit(Event{Kind: EventTurn, Unit: u.ID, Faction: u.Faction, Narrative: fmt.Sprintf("%s acts.", u.Name)})
		b.logger.Debug("turn started",
			zap.Int("turn", b.turn),
			zap.Uint16("unit", uint16(u.ID)),
			zap.String("name", u.Name),
			zap.Uint16("delay", t.Delay),
		)
		b.spreadPassives(u)
		if l, placed := b.grid.LocationOf(u.ID); placed {
			b.occupy(u, l)
		}
		if u.Alive() {
			return u, true
		}
		u.AbortTurn()
		b.current = nil
		b.kill(u)
		b.countTurn()
	}
	return nil, false
}

// EndTurn closes the open turn: the unit recovers and is supplied by every
// city it can reach through its faction's control, its durations tick and it
// is rescheduled by the class of the action it took. Dead units are removed.
// When the round is complete tile durations tick, control expands and cities
// recruit.
//
// Precondition: the open turn's unit has acted.
func (b *Battle) EndTurn() {
	if b.current == nil {
		panic("battle: EndTurn: no turn is open")
	}
	t := *b.current
	u := b.arena.Get(t.Unit)
	var supplying []grid.City
	if u.Alive() {
		for _, c := range b.grid.FindUnitCities(u.ID, u.Faction) {
			supplying = append(supplying, b.content.City(c))
		}
	}
	u.EndTurn(supplying)
	b.current = nil
	if u.Alive() {
		if !b.sched.Reschedule(t, u.Stat(stat.MOV), b.acted) {
			b.logger.Warn("turn delay saturated", zap.Uint16("unit", uint16(u.ID)))
		}
	} else {
		b.kill(u)
	}
	b.countTurn()
}

func (b *Battle) countTurn() {
	b.roundLeft--
	if b.roundLeft > 0 {
		return
	}
	b.endRound()
	b.round++
	b.roundLeft = b.roundLength()
}

// endRound ticks tile durations, expands the control of every standing
// faction and lets controlled cities recruit.
func (b *Battle) endRound() {
	b.grid.DecrementDurations()
	for _, f := range b.factions.Standing() {
		if claimed := b.grid.ExpandControl(f); len(claimed) > 0 {
			b.logger.Debug("control expanded",
				zap.Int("round", b.round),
				zap.Uint16("faction", uint16(f)),
				zap.Int("tiles", len(claimed)),
			)
		}
	}
	for _, l := range b.grid.Cities() {
		owner, ok := b.grid.Controller(l)
		if !ok {
			continue
		}
		def, ok := b.grid.Recruit(l, owner)
		if !ok {
			continue
		}
		u, ok := b.Spawn(def, owner, l)
		if !ok {
			continue
		}
		b.emit(Event{
			Kind:      EventRecruit,
			Unit:      u.ID,
			Faction:   owner,
			At:        at(l),
			Narrative: fmt.Sprintf("%s is raised at %s.", u.Name, b.content.City(b.grid.Tile(l).City).Name),
		})
		b.logger.Info("unit recruited",
			zap.String("name", u.Name),
			zap.Uint16("faction", uint16(owner)),
			zap.Stringer("city", l),
		)
	}
	b.emit(Event{Kind: EventRound, Unit: ident.None, Faction: ident.None, Narrative: fmt.Sprintf("Round %d ends.", b.round)})
}

// kill removes a dead unit from the scheduler, the board and its faction.
func (b *Battle) kill(u *unit.Unit) {
	l, placed := b.grid.RemoveUnit(u.ID)
	if !placed {
		return
	}
	b.sched.Remove(u.ID)
	b.factions.Leave(u.ID)
	b.emit(Event{Kind: EventDeath, Unit: u.ID, Faction: u.Faction, At: at(l), Narrative: fmt.Sprintf("%s is destroyed.", u.Name)})
	b.logger.Info("unit destroyed",
		zap.Uint16("unit", uint16(u.ID)),
		zap.String("name", u.Name),
		zap.Uint16("faction", uint16(u.Faction)),
		zap.Stringer("at", l),
	)
	if b.Over() {
		w, ok := b.Winner()
		fields := []zap.Field{zap.Int("turn", b.turn)}
		if ok {
			fields = append(fields, zap.String("winner", b.factions.Get(w).Name))
		}
		b.logger.Info("battle over", fields...)
	}
}

// reap removes every unit among ids that died.
func (b *Battle) reap(ids []ident.ID) {
	for _, id := range ids {
		if u := b.arena.Get(id); !u.Alive() {
			b.kill(u)
		}
	}
}

// enter gives u the terrain modifier of l: the tile's own modifier when it
// has one, otherwise the modifier linked to its terrain.
func (b *Battle) enter(u *unit.Unit, l grid.Location) {
	t := b.grid.Tile(l)
	id := b.content.Terrain(t.Terrain).Modifier
	if m := t.Modifier(); m != nil {
		id = m.ID
	}
	u.SetTerrainModifier(id)
}

// occupy fires the OnOccupy attribute of the tile at l on u.
func (b *Battle) occupy(u *unit.Unit, l grid.Location) {
	a := b.grid.Tile(l).Occupy()
	if a == nil || !u.Alive() {
		return
	}
	if u.AddAppliable(a.Fire(b.content)) {
		b.emit(Event{
			Kind:      EventOccupy,
			Unit:      u.ID,
			Faction:   u.Faction,
			At:        at(l),
			Narrative: fmt.Sprintf("%s triggers attribute %s at %s.", u.Name, a.ID, l),
		})
	}
}

// spreadPassives applies the status of every passive skill of u to each
// allied unit, u included, within the skill's ORG-scaled radius.
func (b *Battle) spreadPassives(u *unit.Unit) {
	origin, placed := b.grid.LocationOf(u.ID)
	if !placed {
		return
	}
	for _, s := range u.Skills() {
		if s.Kind != unit.SkillPassive || !s.Status().Valid() {
			continue
		}
		radius := s.PassiveRadius(u.Stat(stat.ORG))
		if radius <= 0 {
			continue
		}
		status := b.content.Status(s.Status())
		area := grid.Area{Shape: grid.Radial, Radius: radius}
		for _, id := range b.grid.FindUnits(origin, area, grid.North) {
			v := b.arena.Get(id)
			if !b.friendly(u, v) || !v.Alive() {
				continue
			}
			if v.ApplyStatus(status) != nil {
				b.emit(Event{
					Kind:      EventPassive,
					Unit:      u.ID,
					Faction:   u.Faction,
					Targets:   []ident.ID{v.ID},
					Narrative: fmt.Sprintf("%s spreads %s to %s.", u.Name, s.Name, v.Name),
				})
			}
		}
	}
}

// friendly reports whether u and o are of the same or allied factions.
func (b *Battle) friendly(u, o *unit.Unit) bool {
	return u.Faction == o.Faction || b.factions.IsAlly(u.Faction, o.Faction)
}

// Over reports whether no two standing factions are enemies.
func (b *Battle) Over() bool {
	standing := b.factions.Standing()
	for i, f := range standing {
		for _, g := range standing[i+1:] {
			if !b.factions.IsAlly(f, g) {
				return false
			}
		}
	}
	return true
}

// Winner returns the lowest-id standing faction once the battle is over.
// Its allies share the victory.
//
// Postcondition: Returns false while the battle is running or when nobody is
// left standing.
func (b *Battle) Winner() (ident.ID, bool) {
	if !b.Over() {
		return ident.None, false
	}
	standing := b.factions.Standing()
	if len(standing) == 0 {
		return ident.None, false
	}
	return standing[0], true
}

// ApplyToUnit adds a to unit id and removes the unit when it dies.
func (b *Battle) ApplyToUnit(id ident.ID, a effect.Appliable) bool {
	u := b.arena.Get(id)
	if !u.Alive() {
		return false
	}
	ok := u.AddAppliable(a)
	b.reap([]ident.ID{id})
	return ok
}

// ApplyToLocation adds a to the tile at l. A unit standing on l picks up a
// new tile modifier.
func (b *Battle) ApplyToLocation(l grid.Location, a effect.Appliable) bool {
	if !b.grid.ApplyToLocation(l, a) {
		return false
	}
	if id, ok := b.grid.UnitAt(l); ok {
		if _, isMod := a.(*effect.Modifier); isMod {
			b.enter(b.arena.Get(id), l)
		}
	}
	return true
}
