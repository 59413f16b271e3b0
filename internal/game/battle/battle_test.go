package battle_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/tactics/internal/game/battle"
	"github.com/cory-johannsen/tactics/internal/game/content"
	"github.com/cory-johannsen/tactics/internal/game/effect"
	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/ident"
	"github.com/cory-johannsen/tactics/internal/game/stat"
	"github.com/cory-johannsen/tactics/internal/game/unit"
)

func mustID(t *testing.T, r *content.Registry, table content.Table, key string) ident.ID {
	t.Helper()
	id, ok := r.ID(table, key)
	require.True(t, ok, "%s %q", table, key)
	return id
}

func loc(x, y int) grid.Location { return grid.Location{X: x, Y: y} }

func newBattle(t *testing.T, r *content.Registry, width int, cfg battle.Config) *battle.Battle {
	t.Helper()
	g := grid.New(width, 1, grid.DefaultClimbThreshold, mustID(t, r, content.Terrains, "plains"), r)
	return battle.New("test", cfg, r, g, zaptest.NewLogger(t))
}

func spawn(t *testing.T, b *battle.Battle, def, faction ident.ID, l grid.Location) *unit.Unit {
	t.Helper()
	u, ok := b.Spawn(def, faction, l)
	require.True(t, ok, "spawn at %s", l)
	return u
}

func hasModifier(u *unit.Unit, id ident.ID) bool {
	return slices.ContainsFunc(u.Modifiers(), func(m *effect.Modifier) bool { return m.ID == id })
}

func kinds(events []battle.Event) []battle.EventKind {
	out := make([]battle.EventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

// duel sets up two debug units of opposing factions side by side.
func duel(t *testing.T, width int) (*battle.Battle, *unit.Unit, *unit.Unit) {
	t.Helper()
	r := content.Debug()
	b := newBattle(t, r, width, battle.Config{})
	debug := mustID(t, r, content.Units, "debug")
	red, blue := b.AddFaction("red"), b.AddFaction("blue")
	return b, spawn(t, b, debug, red, loc(0, 0)), spawn(t, b, debug, blue, loc(1, 0))
}

func TestSpawn_RejectsBlockedLocations(t *testing.T) {
	b, a, _ := duel(t, 3)
	debug := a.Def
	_, ok := b.Spawn(debug, a.Faction, loc(1, 0))
	assert.False(t, ok, "occupied")
	_, ok = b.Spawn(debug, a.Faction, loc(5, 0))
	assert.False(t, ok, "off the board")
	assert.Equal(t, 2, b.Arena().Len(), "failed spawns create nothing")
	assert.Equal(t, []ident.ID{a.ID}, b.Factions().Members(a.Faction))
}

func TestStart_SchedulesEveryUnit(t *testing.T) {
	b, a, d := duel(t, 3)
	assert.Zero(t, b.Scheduler().Len())
	b.Start()
	assert.Equal(t, 2, b.Scheduler().Len())
	assert.Panics(t, b.Start)

	u, ok := b.NextTurn()
	require.True(t, ok)
	assert.Equal(t, a.ID, u.ID, "equal initiative falls back to the lower id")
	assert.Equal(t, unit.PhaseActing, u.Phase())
	assert.False(t, b.Scheduler().Contains(a.ID))
	assert.True(t, b.Scheduler().Contains(d.ID))
	assert.Panics(t, func() { b.NextTurn() }, "a turn is already open")
}

func TestAttack_DebugDamageThroughOrchestrator(t *testing.T) {
	b, a, d := duel(t, 4)
	b.Start()
	_, ok := b.NextTurn()
	require.True(t, ok)

	assert.False(t, b.Attack(loc(2, 0), grid.North), "empty tile")
	assert.False(t, b.Attack(loc(3, 0), grid.North), "out of range")
	assert.Equal(t, unit.PhaseActing, a.Phase(), "refused attacks keep the turn open")

	require.True(t, b.Attack(loc(1, 0), grid.North))
	assert.Equal(t, uint32(879), d.Stat(stat.HLT))
	assert.Equal(t, uint32(879), d.Stat(stat.MRL))
	last := b.Events()[len(b.Events())-1]
	assert.Equal(t, battle.EventAttack, last.Kind)
	assert.Equal(t, []ident.ID{d.ID}, last.Targets)
	assert.Equal(t, stat.Damage{MRL: 121, HLT: 121, SPL: 61}, last.Damage[0])

	b.EndTurn()
	assert.True(t, b.Scheduler().Contains(a.ID))
	next, ok := b.NextTurn()
	require.True(t, ok)
	assert.Equal(t, d.ID, next.ID, "the attacker waits out its delay")
}

func TestAttack_SparesFriendlyUnits(t *testing.T) {
	r := content.Debug()
	b := newBattle(t, r, 4, battle.Config{})
	debug := mustID(t, r, content.Units, "debug")
	red, blue := b.AddFaction("red"), b.AddFaction("blue")
	spawn(t, b, debug, red, loc(0, 0))
	friend := spawn(t, b, debug, red, loc(1, 0))
	spawn(t, b, debug, blue, loc(3, 0))
	b.Start()
	_, ok := b.NextTurn()
	require.True(t, ok)
	assert.False(t, b.Attack(loc(1, 0), grid.North))
	assert.Equal(t, uint32(1000), friend.Stat(stat.HLT))
}

func TestAttack_KillEndsBattle(t *testing.T) {
	b, a, d := duel(t, 3)
	d.SetStat(stat.HLT, 100)
	b.Start()
	_, ok := b.NextTurn()
	require.True(t, ok)
	require.True(t, b.Attack(loc(1, 0), grid.North))

	assert.False(t, d.Alive())
	_, placed := b.Grid().LocationOf(d.ID)
	assert.False(t, placed)
	assert.False(t, b.Scheduler().Contains(d.ID))
	assert.Zero(t, b.Factions().Count(d.Faction))
	assert.True(t, b.Over())
	w, ok := b.Winner()
	require.True(t, ok)
	assert.Equal(t, a.Faction, w)
	assert.Contains(t, kinds(b.Events()), battle.EventDeath)

	b.EndTurn()
	_, ok = b.NextTurn()
	assert.False(t, ok)
}

func TestOver_AlliesShareVictory(t *testing.T) {
	r := content.Debug()
	b := newBattle(t, r, 8, battle.Config{})
	debug := mustID(t, r, content.Units, "debug")
	red, blue, green := b.AddFaction("red"), b.AddFaction("blue"), b.AddFaction("green")
	b.Factions().Ally(red, green)
	a := spawn(t, b, debug, red, loc(0, 0))
	d := spawn(t, b, debug, blue, loc(1, 0))
	spawn(t, b, debug, green, loc(6, 0))
	d.SetStat(stat.HLT, 1)
	assert.False(t, b.Over())
	assert.Equal(t, []ident.ID{d.ID}, b.Enemies(a.ID))

	b.Start()
	_, ok := b.NextTurn()
	require.True(t, ok)
	require.True(t, b.Attack(loc(1, 0), grid.North))
	assert.True(t, b.Over())
	w, ok := b.Winner()
	require.True(t, ok)
	assert.Equal(t, red, w)
	assert.Empty(t, b.Enemies(a.ID))
	assert.Len(t, b.Friends(a.ID), 1)
}

func TestMove_BudgetAndAtomicity(t *testing.T) {
	b, a, _ := duel(t, 8)
	b.Start()
	_, ok := b.NextTurn()
	require.True(t, ok)
	assert.Equal(t, uint32(5), b.MovementBudget(a.ID), "MOV 50 over the default divisor")

	assert.False(t, b.Move(nil), "empty path")
	assert.False(t, b.Move([]grid.Direction{grid.East}), "blocked by the enemy")
	assert.False(t, b.Move([]grid.Direction{grid.West}), "off the board")
	pos, _ := b.Grid().LocationOf(a.ID)
	assert.Equal(t, loc(0, 0), pos)

	reach := b.ReachableLocations(a.ID)
	assert.Equal(t, map[grid.Location]uint32{loc(0, 0): 0}, reach, "boxed in by the board edge and the enemy")
	assert.Equal(t, unit.PhaseActing, a.Phase())
}

func TestMove_ClaimsTilesAndSwapsTerrainModifier(t *testing.T) {
	r, err := content.Default()
	require.NoError(t, err)
	b := newBattle(t, r, 6, battle.Config{})
	forest := mustID(t, r, content.Terrains, "forest")
	b.Grid().SetTerrain(loc(2, 0), forest, 0)
	b.Grid().SetTerrain(loc(3, 0), forest, 0)
	red, blue := b.AddFaction("red"), b.AddFaction("blue")
	captain := spawn(t, b, mustID(t, r, content.Units, "captain"), red, loc(0, 0))
	spawn(t, b, mustID(t, r, content.Units, "levy"), blue, loc(5, 0))
	assert.Equal(t, ident.None, captain.TerrainModifier(), "plains carry no modifier")

	b.Start()
	u, ok := b.NextTurn()
	require.True(t, ok)
	require.Equal(t, captain.ID, u.ID, "MOV 55 acts before MOV 40")
	assert.Equal(t, uint32(5), b.MovementBudget(captain.ID))
	assert.False(t, b.Move([]grid.Direction{grid.East, grid.East, grid.East, grid.East}), "two forests put the path at 6")

	require.True(t, b.Move([]grid.Direction{grid.East, grid.East}))
	pos, _ := b.Grid().LocationOf(captain.ID)
	assert.Equal(t, loc(2, 0), pos)
	assert.Equal(t, mustID(t, r, content.Modifiers, "forest_cover"), captain.TerrainModifier())
	for _, l := range []grid.Location{loc(0, 0), loc(1, 0), loc(2, 0)} {
		owner, ok := b.Grid().Controller(l)
		require.True(t, ok)
		assert.Equal(t, red, owner)
	}
	b.EndTurn()
}

func TestMove_OnOccupyFires(t *testing.T) {
	r, err := content.Default()
	require.NoError(t, err)
	b := newBattle(t, r, 6, battle.Config{})
	red, blue := b.AddFaction("red"), b.AddFaction("blue")
	captain := spawn(t, b, mustID(t, r, content.Units, "captain"), red, loc(0, 0))
	spawn(t, b, mustID(t, r, content.Units, "levy"), blue, loc(5, 0))
	require.True(t, b.ApplyToLocation(loc(1, 0), effect.NewAttribute(r, mustID(t, r, content.Attributes, "ambush"))))

	b.Start()
	_, ok := b.NextTurn()
	require.True(t, ok)
	require.True(t, b.Move([]grid.Direction{grid.East}))
	assert.True(t, hasModifier(captain, mustID(t, r, content.Modifiers, "entangled")))
	assert.Contains(t, kinds(b.Events()), battle.EventOccupy)
}

func TestNextTurn_PassiveSpreadsToAllies(t *testing.T) {
	r, err := content.Default()
	require.NoError(t, err)
	b := newBattle(t, r, 10, battle.Config{})
	red, blue := b.AddFaction("red"), b.AddFaction("blue")
	captain := spawn(t, b, mustID(t, r, content.Units, "captain"), red, loc(0, 0))
	near := spawn(t, b, mustID(t, r, content.Units, "levy"), red, loc(3, 0))
	far := spawn(t, b, mustID(t, r, content.Units, "levy"), red, loc(6, 0))
	enemy := spawn(t, b, mustID(t, r, content.Units, "levy"), blue, loc(2, 0))
	inspired := mustID(t, r, content.Modifiers, "inspired")

	b.Start()
	u, ok := b.NextTurn()
	require.True(t, ok)
	require.Equal(t, captain.ID, u.ID)
	assert.True(t, hasModifier(captain, inspired))
	assert.True(t, hasModifier(near, inspired))
	assert.False(t, hasModifier(far, inspired), "outside radius 4")
	assert.False(t, hasModifier(enemy, inspired), "enemies are not inspired")
}

func TestEndTurn_CitySupplies(t *testing.T) {
	r, err := content.Default()
	require.NoError(t, err)
	b := newBattle(t, r, 5, battle.Config{})
	b.Grid().SetCity(loc(4, 0), mustID(t, r, content.Cities, "riverton"))
	red, blue := b.AddFaction("red"), b.AddFaction("blue")
	captain := spawn(t, b, mustID(t, r, content.Units, "captain"), red, loc(3, 0))
	spawn(t, b, mustID(t, r, content.Units, "levy"), blue, loc(0, 0))
	b.Grid().SetControl(loc(4, 0), red)
	captain.SetStat(stat.HLT, 500)

	b.Start()
	_, ok := b.NextTurn()
	require.True(t, ok)
	b.Wait()
	b.EndTurn()
	assert.Equal(t, uint32(500+10*unit.FactoryRecovery), captain.Stat(stat.HLT))
	assert.Equal(t, uint32(1000), captain.Stat(stat.SPL), "farms refill the wait drain")
}

func TestRound_RecruitsAndExpandsControl(t *testing.T) {
	r, err := content.Default()
	require.NoError(t, err)
	b := newBattle(t, r, 5, battle.Config{RoundLength: 1})
	b.Grid().SetCity(loc(4, 0), mustID(t, r, content.Cities, "riverton"))
	red, blue := b.AddFaction("red"), b.AddFaction("blue")
	spawn(t, b, mustID(t, r, content.Units, "captain"), red, loc(2, 0))
	spawn(t, b, mustID(t, r, content.Units, "levy"), blue, loc(0, 0))
	b.Grid().SetControl(loc(4, 0), red)

	b.Start()
	assert.Equal(t, 1, b.Round())
	_, ok := b.NextTurn()
	require.True(t, ok)
	b.Wait()
	b.EndTurn()

	assert.Equal(t, 2, b.Round())
	owner, ok := b.Grid().Controller(loc(3, 0))
	require.True(t, ok, "control expands one ring from the city")
	assert.Equal(t, red, owner)

	id, ok := b.Grid().UnitAt(loc(4, 0))
	require.True(t, ok, "the city raises its recruit")
	recruit := b.Unit(id)
	assert.Equal(t, mustID(t, r, content.Units, "levy"), recruit.Def)
	assert.Equal(t, red, recruit.Faction)
	assert.True(t, b.Scheduler().Contains(id))
	assert.True(t, b.Grid().Tile(loc(4, 0)).Recruited())
	assert.Contains(t, kinds(b.Events()), battle.EventRecruit)
}

func TestRound_LateRecruitJoinsTheTimeline(t *testing.T) {
	r, err := content.Default()
	require.NoError(t, err)
	b := newBattle(t, r, 7, battle.Config{RoundLength: 60})
	b.Grid().SetCity(loc(6, 0), mustID(t, r, content.Cities, "riverton"))
	red, blue := b.AddFaction("red"), b.AddFaction("blue")
	spawn(t, b, mustID(t, r, content.Units, "captain"), red, loc(2, 0))
	spawn(t, b, mustID(t, r, content.Units, "levy"), blue, loc(0, 0))
	b.Grid().SetControl(loc(6, 0), red)

	b.Start()
	for range 60 {
		_, ok := b.NextTurn()
		require.True(t, ok)
		b.Wait()
		b.EndTurn()
	}
	recruit, ok := b.Grid().UnitAt(loc(6, 0))
	require.True(t, ok, "the city raises its recruit at round end")

	pending := b.Scheduler().Turns()
	require.Len(t, pending, 3)
	assert.NotEqual(t, recruit, pending[0].Unit, "the recruit queues behind units already waiting")

	var actors []ident.ID
	for range 12 {
		u, ok := b.NextTurn()
		require.True(t, ok)
		actors = append(actors, u.ID)
		b.Wait()
		b.EndTurn()
	}
	taken := 0
	for i, id := range actors {
		if id != recruit {
			continue
		}
		taken++
		if i > 0 {
			assert.NotEqual(t, recruit, actors[i-1], "recruit took consecutive turns: %v", actors)
		}
	}
	assert.Positive(t, taken)
	assert.LessOrEqual(t, taken, 5, "actors %v", actors)
}

func TestRound_DefaultLengthIsLivingUnits(t *testing.T) {
	b, _, _ := duel(t, 3)
	b.Start()
	for range 2 {
		_, ok := b.NextTurn()
		require.True(t, ok)
		b.Wait()
		b.EndTurn()
	}
	assert.Equal(t, 2, b.Round())
	assert.Equal(t, 2, b.Turn())
}

func TestStrikes_PathWeaponFacesEachDirection(t *testing.T) {
	r, err := content.Default()
	require.NoError(t, err)
	b := newBattle(t, r, 5, battle.Config{})
	red, blue := b.AddFaction("red"), b.AddFaction("blue")
	knights := spawn(t, b, mustID(t, r, content.Units, "knights"), red, loc(0, 0))
	far := spawn(t, b, mustID(t, r, content.Units, "levy"), blue, loc(2, 0))
	spawn(t, b, mustID(t, r, content.Units, "levy"), blue, loc(4, 0))

	assert.Equal(t, []ident.ID{far.ID}, b.Targets(knights.ID), "the lance reaches two tiles")
	w := knights.ActiveWeapon()
	strikes := b.Strikes(knights.ID, w.Area, w.Range)
	require.Len(t, strikes, 1)
	assert.Equal(t, grid.East, strikes[0].Facing)
}

func TestCastMagic_ThroughOrchestrator(t *testing.T) {
	r, err := content.Default()
	require.NoError(t, err)
	b := newBattle(t, r, 6, battle.Config{})
	red, blue := b.AddFaction("red"), b.AddFaction("blue")
	mages := spawn(t, b, mustID(t, r, content.Units, "mages"), red, loc(0, 0))
	levy := spawn(t, b, mustID(t, r, content.Units, "levy"), blue, loc(2, 0))
	fireball := mustID(t, r, content.Magics, "fireball")

	b.Start()
	_, ok := b.NextTurn()
	require.True(t, ok)
	assert.False(t, b.CastMagic(fireball, loc(5, 0), grid.North), "out of range")
	assert.False(t, b.CastMagic(fireball+100, loc(2, 0), grid.North), "unknown magic")
	require.True(t, b.CastMagic(fireball, loc(2, 0), grid.North))
	assert.Equal(t, uint32(540), levy.Stat(stat.HLT), "fire burns 60 manpower")
	hlt, _ := unit.MagicCost(60, 60)
	assert.Equal(t, 400-hlt, mages.Stat(stat.HLT))
	assert.Contains(t, kinds(b.Events()), battle.EventMagic)
}

func TestRun_DrivesToVictory(t *testing.T) {
	b, a, d := duel(t, 3)
	d.SetStat(stat.HLT, 50)
	c := battle.ControllerFunc(func(_ context.Context, b *battle.Battle, u *unit.Unit) battle.Action {
		targets := b.Targets(u.ID)
		if len(targets) == 0 {
			return battle.Action{Kind: battle.ActWait}
		}
		l, _ := b.Grid().LocationOf(targets[0])
		return battle.Action{Kind: battle.ActAttack, Target: l}
	})
	res, err := b.Run(context.Background(), c, 50)
	require.NoError(t, err)
	assert.True(t, res.Over)
	assert.Equal(t, a.Faction, res.Winner)
	assert.Equal(t, 1, res.Turns)
}

func TestRun_IllegalActionWaits(t *testing.T) {
	b, _, _ := duel(t, 3)
	c := battle.ControllerFunc(func(context.Context, *battle.Battle, *unit.Unit) battle.Action {
		return battle.Action{Kind: battle.ActMove}
	})
	res, err := b.Run(context.Background(), c, 3)
	require.NoError(t, err)
	assert.False(t, res.Over)
	assert.Equal(t, ident.None, res.Winner)
	assert.Equal(t, 3, res.Turns)
	assert.Contains(t, kinds(b.Events()), battle.EventWait)
	assert.NotContains(t, kinds(b.Events()), battle.EventMove)
}

func TestRun_StopsOnCancelledContext(t *testing.T) {
	b, _, _ := duel(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := b.Run(ctx, battle.ControllerFunc(nil), 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestFromScenario_Default(t *testing.T) {
	r, err := content.Default()
	require.NoError(t, err)
	s, err := content.DefaultScenario(r)
	require.NoError(t, err)
	b, err := battle.FromScenario(s, r, battle.Config{}, grid.DefaultClimbThreshold, zaptest.NewLogger(t))
	require.NoError(t, err)

	factions := b.Factions().All()
	require.Len(t, factions, 3)
	crown, rebels, free := factions[0].ID, factions[1].ID, factions[2].ID
	assert.True(t, b.Factions().IsAlly(rebels, free))
	assert.False(t, b.Factions().IsAlly(crown, rebels))

	members := b.Factions().Members(crown)
	require.Len(t, members, len(s.Factions[0].Units))
	assert.Len(t, b.Factions().Followers(members[0]), len(members)-1, "every member follows the leader")

	b.Start()
	total := 0
	for _, f := range s.Factions {
		total += len(f.Units)
	}
	assert.Equal(t, total, b.Scheduler().Len())
}

func TestSnapshot_RoundTrip(t *testing.T) {
	b, _, d := duel(t, 3)
	d.SetStat(stat.HLT, 10)
	b.Start()
	_, ok := b.NextTurn()
	require.True(t, ok)
	require.True(t, b.Attack(loc(1, 0), grid.North))
	b.EndTurn()

	snap := b.Snapshot()
	assert.True(t, snap.Over)
	assert.Equal(t, "red", snap.Winner)
	data, err := snap.Marshal()
	require.NoError(t, err)
	got, err := battle.UnmarshalSnapshot(data)
	require.NoError(t, err)

	assert.Equal(t, b.ID, got.ID)
	require.Len(t, got.Units, 2)
	assert.False(t, got.Units[1].Alive)
	assert.Nil(t, got.Units[1].At)
	assert.Equal(t, kinds(snap.Events), kinds(got.Events))
	assert.Equal(t, snap.Frame.Units, got.Frame.Units)
}
