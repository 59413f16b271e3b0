// Package battle orchestrates one engagement: it owns the board, the units,
// their factions and the turn scheduler, and drives units through their
// turns.
//
// A Battle is not safe for concurrent use. Independent battles may run in
// parallel as long as they only share the read-only content.
package battle

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/game/content"
	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/ident"
	"github.com/cory-johannsen/tactics/internal/game/scheduler"
	"github.com/cory-johannsen/tactics/internal/game/stat"
	"github.com/cory-johannsen/tactics/internal/game/unit"
)

// DefaultMoveDivisor converts MOV into a path cost budget.
const DefaultMoveDivisor = 10

// Content is everything a battle reads from the definition tables.
type Content interface {
	unit.Lookup
	grid.Lookup
}

// Config holds the tunables of a battle.
type Config struct {
	// MoveDivisor divides a unit's MOV to give the path cost it may spend
	// in one move. Zero means DefaultMoveDivisor.
	MoveDivisor int
	// RoundLength is the number of turns per round. Zero means the number
	// of living units at the start of each round.
	RoundLength int
}

// Battle is one engagement.
type Battle struct {
	ID   uuid.UUID
	Name string

	cfg      Config
	content  Content
	logger   *zap.Logger
	arena    *unit.Arena
	factions *unit.Factions
	grid     *grid.Grid
	sched    *scheduler.Scheduler

	started   bool
	current   *scheduler.Turn
	acted     scheduler.ActionClass
	turn      int
	round     int
	roundLeft int
	events    []Event
}

// New creates an empty battle on g.
//
// Precondition: c, g and logger must be non-nil.
// Postcondition: The battle has no units or factions and has not started.
func New(name string, cfg Config, c Content, g *grid.Grid, logger *zap.Logger) *Battle {
	if c == nil || g == nil || logger == nil {
		panic("battle: New: content, grid and logger must be non-nil")
	}
	if cfg.MoveDivisor <= 0 {
		cfg.MoveDivisor = DefaultMoveDivisor
	}
	id := uuid.New()
	return &Battle{
		ID:       id,
		Name:     name,
		cfg:      cfg,
		content:  c,
		logger:   logger.With(zap.String("battle", id.String())),
		arena:    unit.NewArena(c),
		factions: unit.NewFactions(),
		grid:     g,
		sched:    scheduler.New(),
	}
}

// FromScenario builds a battle from s: the board, every faction with its
// alliances, and every starting unit following its faction leader.
//
// Postcondition: Returns an error when a starting unit cannot be placed.
func FromScenario(s *content.Scenario, r *content.Registry, cfg Config, climb int, logger *zap.Logger) (*Battle, error) {
	b := New(s.Name, cfg, r, s.Grid(r, climb), logger)
	ids := make(map[string]ident.ID, len(s.Factions))
	for _, f := range s.Factions {
		ids[f.Name] = b.AddFaction(f.Name)
	}
	for _, f := range s.Factions {
		for _, a := range f.Allies {
			b.factions.Ally(ids[f.Name], ids[a])
		}
	}
	for _, f := range s.Factions {
		fid := ids[f.Name]
		leader := ident.None
		var followers []ident.ID
		for _, p := range f.Units {
			u, ok := b.Spawn(p.Unit, fid, p.At)
			if !ok {
				return nil, fmt.Errorf("faction %s: cannot place %s at %s", f.Name, r.Unit(p.Unit).Name, p.At)
			}
			if p.Leader {
				leader = u.ID
			} else {
				followers = append(followers, u.ID)
			}
		}
		if leader.Valid() {
			for _, id := range followers {
				b.factions.SetLeader(id, leader)
			}
		}
	}
	return b, nil
}

// AddFaction registers a new faction and returns its id.
func (b *Battle) AddFaction(name string) ident.ID {
	return b.factions.Add(name)
}

// Spawn creates a unit of def for faction on l and gives it the terrain
// modifier of l. Once the battle has started the unit is also scheduled,
// one initial delay after the turn most recently taken.
//
// Postcondition: Returns false, creating nothing, when l is off-board,
// impassable or occupied.
func (b *Battle) Spawn(def, faction ident.ID, l grid.Location) (*unit.Unit, bool) {
	if !b.grid.InBounds(l) || !b.grid.Tile(l).Passable() {
		return nil, false
	}
	if _, taken := b.grid.UnitAt(l); taken {
		return nil, false
	}
	b.factions.Get(faction)
	u := b.arena.Spawn(def, faction)
	b.grid.PlaceUnit(u.ID, faction, l)
	b.factions.Join(faction, u.ID)
	b.enter(u, l)
	if b.started && !b.sched.Join(u.ID, u.Stat(stat.MOV)) {
		b.logger.Warn("turn delay saturated", zap.Uint16("unit", uint16(u.ID)))
	}
	b.emit(Event{
		Kind:      EventSpawn,
		Unit:      u.ID,
		Faction:   faction,
		At:        at(l),
		Narrative: fmt.Sprintf("%s takes the field for %s at %s.", u.Name, b.factions.Get(faction).Name, l),
	})
	b.logger.Debug("unit spawned",
		zap.Uint16("unit", uint16(u.ID)),
		zap.String("name", u.Name),
		zap.Uint16("faction", uint16(faction)),
		zap.Stringer("at", l),
	)
	return u, true
}

// Start schedules every living placed unit. Start may be called once.
//
// Postcondition: Every placed unit has a pending turn.
func (b *Battle) Start() {
	if b.started {
		panic("battle: Start: battle already started")
	}
	b.started = true
	for _, id := range b.grid.Units() {
		u := b.arena.Get(id)
		if u.Alive() {
			b.sched.Push(id, u.Stat(stat.MOV))
		}
	}
	b.round = 1
	b.roundLeft = b.roundLength()
	b.logger.Info("battle started",
		zap.String("name", b.Name),
		zap.Int("units", b.sched.Len()),
		zap.Int("factions", len(b.factions.Standing())),
	)
}

// Started reports whether Start has been called.
func (b *Battle) Started() bool { return b.started }

// Turn returns the number of turns begun so far.
func (b *Battle) Turn() int { return b.turn }

// Round returns the current round, starting at 1.
func (b *Battle) Round() int { return b.round }

// Grid returns the board.
func (b *Battle) Grid() *grid.Grid { return b.grid }

// Arena returns the unit storage.
func (b *Battle) Arena() *unit.Arena { return b.arena }

// Factions returns the faction registry.
func (b *Battle) Factions() *unit.Factions { return b.factions }

// Scheduler returns the turn queue.
func (b *Battle) Scheduler() *scheduler.Scheduler { return b.sched }

// Content returns the definition tables.
func (b *Battle) Content() Content { return b.content }

// Unit returns unit id.
//
// Precondition: id was returned by Spawn.
func (b *Battle) Unit(id ident.ID) *unit.Unit { return b.arena.Get(id) }

// Current returns the unit whose turn is open.
func (b *Battle) Current() (*unit.Unit, bool) {
	if b.current == nil {
		return nil, false
	}
	return b.arena.Get(b.current.Unit), true
}

// Events returns the narrative of the battle so far.
func (b *Battle) Events() []Event { return b.events }

func (b *Battle) roundLength() int {
	if b.cfg.RoundLength > 0 {
		return b.cfg.RoundLength
	}
	n := b.sched.Len()
	if b.current != nil {
		n++
	}
	if n == 0 {
		n = 1
	}
	return n
}
