package content

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/tactics/internal/game/effect"
	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/stat"
	"github.com/cory-johannsen/tactics/internal/game/unit"
)

// Table file names within a content directory. A missing file is an empty
// table.
const (
	TerrainsFile   = "terrains.yaml"
	CitiesFile     = "cities.yaml"
	ModifiersFile  = "modifiers.yaml"
	EffectsFile    = "effects.yaml"
	AttributesFile = "attributes.yaml"
	StatusesFile   = "statuses.yaml"
	WeaponsFile    = "weapons.yaml"
	SkillsFile     = "skills.yaml"
	MagicsFile     = "magics.yaml"
	UnitsFile      = "units.yaml"
)

// yamlDuration accepts either a turn count or the word "permanent".
type yamlDuration struct {
	set   bool
	turns uint16
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *yamlDuration) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", n.Line)
	}
	v := strings.TrimSpace(n.Value)
	if strings.EqualFold(v, "permanent") {
		*d = yamlDuration{set: true, turns: effect.PermanentTurns}
		return nil
	}
	turns, err := strconv.ParseUint(v, 10, 16)
	if err != nil || turns == 0 || turns >= effect.PermanentTurns {
		return fmt.Errorf("line %d: duration %q must be \"permanent\" or 1..%d", n.Line, v, effect.PermanentTurns-1)
	}
	*d = yamlDuration{set: true, turns: uint16(turns)}
	return nil
}

func (d yamlDuration) duration() effect.Duration {
	if !d.set || d.turns == effect.PermanentTurns {
		return effect.Permanent()
	}
	return effect.NewDuration(d.turns)
}

// yamlPayload names exactly one of its fields.
type yamlPayload struct {
	Modifier  string `yaml:"modifier"`
	Effect    string `yaml:"effect"`
	Attribute string `yaml:"attribute"`
}

type yamlTerrain struct {
	Key       string  `yaml:"key"`
	Name      string  `yaml:"name"`
	Cost      uint32  `yaml:"cost"`
	Modifier  string  `yaml:"modifier"`
	Elevation float64 `yaml:"elevation"`
}

type yamlCity struct {
	Key        string `yaml:"key"`
	Name       string `yaml:"name"`
	Population uint32 `yaml:"population"`
	Factories  uint32 `yaml:"factories"`
	Farms      uint32 `yaml:"farms"`
	Recruit    string `yaml:"recruit"`
}

type yamlModifier struct {
	Key         string              `yaml:"key"`
	Adjustments []effect.Adjustment `yaml:"adjustments"`
	Stack       bool                `yaml:"stack"`
	Duration    yamlDuration        `yaml:"duration"`
	Next        string              `yaml:"next"`
}

type yamlEffect struct {
	Key         string              `yaml:"key"`
	Adjustments []effect.Adjustment `yaml:"adjustments"`
	Flat        bool                `yaml:"flat"`
}

type yamlAttribute struct {
	Key      string         `yaml:"key"`
	Trigger  effect.Trigger `yaml:"trigger"`
	Payload  yamlPayload    `yaml:"payload"`
	Duration yamlDuration   `yaml:"duration"`
	Next     string         `yaml:"next"`
}

type yamlStatus struct {
	Key      string       `yaml:"key"`
	Payload  yamlPayload  `yaml:"payload"`
	Duration yamlDuration `yaml:"duration"`
	Next     string       `yaml:"next"`
}

type yamlWeapon struct {
	Key       string           `yaml:"key"`
	Name      string           `yaml:"name"`
	Stats     stat.WeaponStats `yaml:"stats"`
	Area      grid.Area        `yaml:"area"`
	Range     int              `yaml:"range"`
	Attribute string           `yaml:"attribute"`
}

type yamlSkill struct {
	Key      string         `yaml:"key"`
	Name     string         `yaml:"name"`
	Kind     unit.SkillKind `yaml:"kind"`
	Status   string         `yaml:"status"`
	Cooldown uint16         `yaml:"cooldown"`
	Radius   int            `yaml:"radius"`
}

type yamlMagic struct {
	Key    string    `yaml:"key"`
	Name   string    `yaml:"name"`
	Cost   uint32    `yaml:"cost"`
	Area   grid.Area `yaml:"area"`
	Range  int       `yaml:"range"`
	Effect string    `yaml:"effect"`
	Status string    `yaml:"status"`
}

type yamlUnit struct {
	Key     string      `yaml:"key"`
	Name    string      `yaml:"name"`
	Stats   stat.Values `yaml:"stats"`
	Weapons []string    `yaml:"weapons"`
	Skills  []string    `yaml:"skills"`
	Magics  []string    `yaml:"magics"`
	OnHit   string      `yaml:"on_hit"`
}

// yamlTables is the union of every table file; each file populates one field.
type yamlTables struct {
	Terrains   []yamlTerrain   `yaml:"terrains"`
	Cities     []yamlCity      `yaml:"cities"`
	Modifiers  []yamlModifier  `yaml:"modifiers"`
	Effects    []yamlEffect    `yaml:"effects"`
	Attributes []yamlAttribute `yaml:"attributes"`
	Statuses   []yamlStatus    `yaml:"statuses"`
	Weapons    []yamlWeapon    `yaml:"weapons"`
	Skills     []yamlSkill     `yaml:"skills"`
	Magics     []yamlMagic     `yaml:"magics"`
	Units      []yamlUnit      `yaml:"units"`
}
