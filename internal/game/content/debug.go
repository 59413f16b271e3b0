package content

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/stat"
)

//go:embed data/*.yaml
var defaultData embed.FS

// Default loads the content tables shipped with the module.
//
// Postcondition: Returns a fully resolved Registry or a non-nil error.
func Default() (*Registry, error) {
	sub, err := fs.Sub(defaultData, "data")
	if err != nil {
		return nil, fmt.Errorf("opening embedded content: %w", err)
	}
	return LoadFS(sub)
}

// DefaultScenario loads the scenario shipped with the module against r.
func DefaultScenario(r *Registry) (*Scenario, error) {
	data, err := defaultData.ReadFile("data/scenario.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded scenario: %w", err)
	}
	return LoadScenarioBytes(data, r)
}

// DebugValues are the statistics of the debug unit.
func DebugValues() stat.Values {
	return stat.Values{MRL: 1000, HLT: 1000, SPL: 1000, ATK: 20, DEF: 20, MAG: 20, MOV: 50, ORG: 1000}
}

// DebugWeapon is the weapon the debug unit carries.
func DebugWeapon() stat.WeaponStats {
	return stat.WeaponStats{DMG: 20, SLH: 1, PRC: 1, DCY: 0}
}

// Debug builds the minimal content used by tests and tooling: one plains
// terrain of cost 1, one mountain of cost 0, and a "debug" unit with
// DebugValues wielding a "debug" weapon with DebugWeapon stats.
func Debug() *Registry {
	r, err := build(yamlTables{
		Terrains: []yamlTerrain{
			{Key: "plains", Name: "Plains", Cost: 1, Elevation: 0.7},
			{Key: "mountain", Name: "Mountain", Cost: 0, Elevation: 1},
		},
		Weapons: []yamlWeapon{
			{Key: "debug", Name: "Debug Weapon", Stats: DebugWeapon(), Area: grid.Area{Shape: grid.Single}, Range: 1},
		},
		Units: []yamlUnit{
			{Key: "debug", Name: "Debug Unit", Stats: DebugValues(), Weapons: []string{"debug"}},
		},
	})
	if err != nil {
		panic(fmt.Sprintf("content: Debug: %v", err))
	}
	return r
}
