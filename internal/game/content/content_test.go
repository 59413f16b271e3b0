package content_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func TestDefault_LoadsAndResolves(t *testing.T) {
	r, err := content.Default()
	require.NoError(t, err)

	assert.Equal(t, 6, r.Len(content.Terrains))
	assert.Equal(t, 6, r.Len(content.Units))

	pikemen := r.Unit(mustID(t, r, content.Units, "pikemen"))
	assert.Equal(t, "Pikemen", pikemen.Name)
	require.Len(t, pikemen.Weapons, 2)
	assert.Equal(t, "Spear", r.Weapon(pikemen.Weapons[0]).Name)
	assert.Equal(t, effect.OnHit, r.Attribute(pikemen.OnHit).Trigger)

	forest := r.Terrain(mustID(t, r, content.Terrains, "forest"))
	assert.Equal(t, uint32(2), forest.Cost)
	assert.Equal(t, mustID(t, r, content.Modifiers, "forest_cover"), forest.Modifier)

	stance := r.Skill(mustID(t, r, content.Skills, "stance"))
	assert.Equal(t, unit.SkillToggle, stance.Kind)
	shield := r.Status(stance.Status)
	berserk := r.Status(shield.Next)
	assert.Equal(t, stance.Status, berserk.Next, "toggle statuses link both ways")

	haste := r.Modifier(mustID(t, r, content.Modifiers, "haste"))
	assert.Equal(t, uint16(2), haste.Duration.Remaining())
	assert.Equal(t, mustID(t, r, content.Modifiers, "fatigue"), haste.Next)
	assert.True(t, r.Modifier(mustID(t, r, content.Modifiers, "forest_cover")).Duration.IsPermanent())

	riverton := r.City(mustID(t, r, content.Cities, "riverton"))
	assert.Equal(t, mustID(t, r, content.Units, "levy"), riverton.Recruit)
	assert.Equal(t, ident.None, r.City(mustID(t, r, content.Cities, "millbrook")).Recruit)

	assert.Equal(t, grid.Path, r.Weapon(mustID(t, r, content.Weapons, "lance")).Area.Shape)
	assert.Equal(t, "lance", r.Key(content.Weapons, mustID(t, r, content.Weapons, "lance")))
}

func TestDebug_DocumentedContent(t *testing.T) {
	r := content.Debug()
	id := mustID(t, r, content.Units, "debug")
	def := r.Unit(id)
	assert.Equal(t, content.DebugValues(), def.Stats)
	require.Len(t, def.Weapons, 1)
	assert.Equal(t, stat.WeaponStats{DMG: 20, SLH: 1, PRC: 1, DCY: 0}, r.Weapon(def.Weapons[0]).Stats)
	assert.Equal(t, uint32(1), r.Terrain(0).Cost)
	assert.Equal(t, uint32(0), r.Terrain(1).Cost)
}

func TestRegistry_OutOfRangePanics(t *testing.T) {
	r := content.Debug()
	assert.Panics(t, func() { r.Unit(5) })
	assert.Panics(t, func() { r.Modifier(0) })
	assert.Panics(t, func() { r.City(ident.None) })
}

func load(files map[string]string) (*content.Registry, error) {
	fsys := fstest.MapFS{}
	for name, body := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(body)}
	}
	return content.LoadFS(fsys)
}

func TestLoadFS_UnknownReference(t *testing.T) {
	_, err := load(map[string]string{
		content.TerrainsFile: "terrains:\n  - {key: bog, cost: 2, modifier: missing}\n",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `terrain bog: unknown modifier "missing"`)
}

func TestLoadFS_DuplicateKey(t *testing.T) {
	_, err := load(map[string]string{
		content.TerrainsFile: "terrains:\n  - {key: a, cost: 1}\n  - {key: a, cost: 2}\n",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate key")
}

func TestLoadFS_UnknownFieldRejected(t *testing.T) {
	_, err := load(map[string]string{
		content.TerrainsFile: "terrains:\n  - {key: a, cost: 1, colour: green}\n",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colour")
}

func TestLoadFS_TriggerMismatch(t *testing.T) {
	_, err := load(map[string]string{
		content.EffectsFile:    "effects:\n  - {key: e, adjustments: [{stat: hlt, amount: -1}], flat: true}\n",
		content.AttributesFile: "attributes:\n  - {key: a, trigger: on_hit, payload: {effect: e}, duration: permanent}\n",
		content.WeaponsFile:    "weapons:\n  - {key: w, stats: {dmg: 1}, area: {shape: single}, range: 1, attribute: a}\n",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "need on_attack")
}

func TestLoadFS_PayloadMustBeSingle(t *testing.T) {
	_, err := load(map[string]string{
		content.ModifiersFile:  "modifiers:\n  - {key: m, adjustments: [{stat: atk, amount: 5}], duration: 1}\n",
		content.EffectsFile:    "effects:\n  - {key: e, adjustments: [{stat: hlt, amount: -1}]}\n",
		content.AttributesFile: "attributes:\n  - {key: a, payload: {effect: e, modifier: m}, duration: 1}\n",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one")
}

func TestLoadFS_DurationParsing(t *testing.T) {
	_, err := load(map[string]string{
		content.ModifiersFile: "modifiers:\n  - {key: m, adjustments: [{stat: atk, amount: 5}], duration: 0}\n",
	})
	require.Error(t, err)

	r, err := load(map[string]string{
		content.ModifiersFile: "modifiers:\n  - {key: m, adjustments: [{stat: atk, amount: 5}]}\n  - {key: n, adjustments: [{stat: atk, amount: 5}], duration: 4}\n",
	})
	require.NoError(t, err)
	assert.True(t, r.Modifier(0).Duration.IsPermanent(), "unset duration is permanent")
	assert.Equal(t, uint16(4), r.Modifier(1).Duration.Remaining())
}

func TestLoadFS_UnitValidation(t *testing.T) {
	_, err := load(map[string]string{
		content.UnitsFile: "units:\n  - {key: u, stats: {mrl: 1000, hlt: 10, atk: 500}}\n",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one weapon")
	assert.Contains(t, err.Error(), "ATK 500 exceeds 200")
}

func TestLoadFS_MissingFilesAreEmpty(t *testing.T) {
	r, err := load(map[string]string{})
	require.NoError(t, err)
	assert.Zero(t, r.Len(content.Units))
}

func TestDefaultScenario(t *testing.T) {
	r, err := content.Default()
	require.NoError(t, err)
	s, err := content.DefaultScenario(r)
	require.NoError(t, err)
	assert.Equal(t, "border-skirmish", s.Name)
	require.Len(t, s.Factions, 3)
	assert.True(t, s.Factions[0].Units[0].Leader)

	g := s.Grid(r, grid.DefaultClimbThreshold)
	assert.Equal(t, 20, g.Width())
	assert.Equal(t, 14, g.Height())
	for _, f := range s.Factions {
		for _, u := range f.Units {
			assert.True(t, g.Tile(u.At).Passable(), "deployment %s must be passable", u.At)
		}
	}
	for _, c := range s.Cities {
		assert.Equal(t, c.City, g.Tile(c.At).City)
	}
}

const drawnScenario = `
name: drawn
map:
  legend: {".": plains, "^": mountain}
  rows:
    - "..^"
    - "..."
  heights:
    - "012"
    - "000"
cities: []
factions:
  - name: a
    units:
      - {unit: debug, at: {x: 0, y: 0}}
  - name: b
    units:
      - {unit: debug, at: {x: 2, y: 1}}
`

func TestLoadScenarioBytes_DrawnMap(t *testing.T) {
	r := content.Debug()
	s, err := content.LoadScenarioBytes([]byte(drawnScenario), r)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Map.Width)
	assert.Equal(t, 2, s.Map.Height)

	g := s.Grid(r, 2)
	assert.False(t, g.Tile(grid.Location{X: 2, Y: 0}).Passable())
	assert.Equal(t, 1, g.Tile(grid.Location{X: 1, Y: 0}).Height)
	assert.Equal(t, uint32(2), g.Cost(grid.Location{X: 0, Y: 0}, grid.East), "plains cost 1 plus a rise of 1")
}

func TestLoadScenarioBytes_Errors(t *testing.T) {
	r := content.Debug()
	_, err := content.LoadScenarioBytes([]byte(`
name: broken
map: {width: 4, height: 4}
factions:
  - name: a
    allies: [nobody]
    units:
      - {unit: ghost, at: {x: 9, y: 0}}
`), r)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, `unknown ally "nobody"`)
	assert.Contains(t, msg, `unknown unit "ghost"`)
	assert.Contains(t, msg, "off the map")
	assert.Contains(t, msg, "at least two factions")
}
