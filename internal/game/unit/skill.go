package unit

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/tactics/internal/game/effect"
	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/ident"
	"github.com/cory-johannsen/tactics/internal/game/stat"
)

// SkillKind selects how a skill is used.
type SkillKind uint8

const (
	// SkillToggle flips between a status and its linked Next status.
	SkillToggle SkillKind = iota
	// SkillTimed applies its status and then cools down.
	SkillTimed
	// SkillPassive is never used directly; it spreads its status to allies
	// within its radius.
	SkillPassive
)

var skillKindNames = [3]string{"toggle", "timed", "passive"}

// String returns the content-file spelling of k.
func (k SkillKind) String() string {
	if int(k) >= len(skillKindNames) {
		return fmt.Sprintf("SkillKind(%d)", uint8(k))
	}
	return skillKindNames[k]
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *SkillKind) UnmarshalText(b []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(b)))
	for i, n := range skillKindNames {
		if s == n {
			*k = SkillKind(i)
			return nil
		}
	}
	return fmt.Errorf("unit: unknown skill kind %q", string(b))
}

// SkillDef is an immutable skill definition.
type SkillDef struct {
	ID       ident.ID
	Name     string
	Kind     SkillKind
	Status   ident.ID
	Cooldown uint16
	Radius   int
}

// Skill is a unit's instance of a SkillDef.
type Skill struct {
	Def      ident.ID
	Name     string
	Kind     SkillKind
	Cooldown uint16
	Radius   int

	status    ident.ID
	remaining uint16
	// used marks a timed skill used this turn; its cooldown starts at the
	// next tick.
	used      bool
	granted   effect.Appliable
}

func newSkill(def SkillDef) *Skill {
	return &Skill{
		Def:      def.ID,
		Name:     def.Name,
		Kind:     def.Kind,
		Cooldown: def.Cooldown,
		Radius:   def.Radius,
		status:   def.Status,
	}
}

// Status returns the status the skill currently grants.
func (s *Skill) Status() ident.ID { return s.status }

// Remaining returns the turns until a timed skill can be used again. A skill
// with Cooldown n is unavailable for the n turns after the turn of use.
func (s *Skill) Remaining() uint16 { return s.remaining }

// Actionable reports whether the skill can be used this turn.
func (s *Skill) Actionable() bool {
	switch s.Kind {
	case SkillToggle:
		return true
	case SkillTimed:
		return s.remaining == 0
	case SkillPassive:
		return false
	default:
		panic(fmt.Sprintf("unit: Skill.Actionable: unknown kind %d", uint8(s.Kind)))
	}
}

// PassiveRadius returns the spreading radius of a passive skill for a holder
// with cohesion org: Radius scaled by org permille.
func (s *Skill) PassiveRadius(org uint32) int {
	return s.Radius * int(org) / int(stat.Permille)
}

func (s *Skill) tick() {
	if s.used {
		s.used = false
		return
	}
	if s.remaining > 0 {
		s.remaining--
	}
}

// MagicDef is an immutable magic definition. Casting applies Effect and an
// instance of Status to every target; either may be ident.None.
type MagicDef struct {
	ID     ident.ID
	Name   string
	Cost   uint32
	Area   grid.Area
	Range  int
	Effect ident.ID
	Status ident.ID
}

// Payload instantiates the appliables one target receives.
func (m MagicDef) Payload(l effect.Lookup) []effect.Appliable {
	var out []effect.Appliable
	if m.Effect.Valid() {
		out = append(out, effect.NewEffect(l, m.Effect))
	}
	if m.Status.Valid() {
		out = append(out, l.Status(m.Status).Appliable(l))
	}
	return out
}

// MagicCost returns the HLT and ORG a caster with magic mag pays for a magic
// of base cost. Both are at least 1.
func MagicCost(cost, mag uint32) (hlt, org uint32) {
	if mag > stat.MaxMAG {
		mag = stat.MaxMAG
	}
	rest := stat.MaxMAG - mag
	hlt = cost * rest / stat.MaxMAG
	org = cost * rest / (2 * stat.MaxMAG)
	if hlt < 1 {
		hlt = 1
	}
	if org < 1 {
		org = 1
	}
	return hlt, org
}
