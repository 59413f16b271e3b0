package stat

import (
	"fmt"
	"strings"
)

// Name identifies one of the eight unit statistics.
type Name uint8

const (
	MRL Name = iota // morale, permille
	HLT             // manpower, absolute
	SPL             // supply, permille
	ATK             // attack
	DEF             // defence
	MAG             // magic
	MOV             // movement
	ORG             // cohesion, permille

	nameCount
)

// Upper bounds shared by every unit. HLT has a per-unit maximum.
const (
	Permille   uint32 = 1000
	MaxATK     uint32 = 200
	MaxDEF     uint32 = 200
	MaxMAG     uint32 = 200
	MaxMOV     uint32 = 100
	RetreatMRL uint32 = 300
	RoutMRL    uint32 = 100
)

var names = [nameCount]string{"MRL", "HLT", "SPL", "ATK", "DEF", "MAG", "MOV", "ORG"}

// Names lists every statistic in declaration order.
var Names = []Name{MRL, HLT, SPL, ATK, DEF, MAG, MOV, ORG}

// String returns the three-letter code.
func (n Name) String() string {
	if n >= nameCount {
		return fmt.Sprintf("Name(%d)", uint8(n))
	}
	return names[n]
}

// ParseName converts a three-letter code (case-insensitive) into a Name.
func ParseName(s string) (Name, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range names {
		if n == up {
			return Name(i), nil
		}
	}
	return 0, fmt.Errorf("stat: unknown statistic %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler so names can appear in
// YAML and JSON content.
func (n *Name) UnmarshalText(b []byte) error {
	v, err := ParseName(string(b))
	if err != nil {
		return err
	}
	*n = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (n Name) MarshalText() ([]byte, error) { return []byte(n.String()), nil }

// Values is the plain-number form of a Statistics block, used by content
// definitions and snapshots.
type Values struct {
	MRL uint32 `yaml:"mrl" json:"mrl"`
	HLT uint32 `yaml:"hlt" json:"hlt"`
	SPL uint32 `yaml:"spl" json:"spl"`
	ATK uint32 `yaml:"atk" json:"atk"`
	DEF uint32 `yaml:"def" json:"def"`
	MAG uint32 `yaml:"mag" json:"mag"`
	MOV uint32 `yaml:"mov" json:"mov"`
	ORG uint32 `yaml:"org" json:"org"`
}

// Statistics is the statistic block of one unit.
type Statistics struct {
	MRL Quantity
	HLT Quantity
	SPL Quantity
	ATK Constant
	DEF Constant
	MAG Constant
	MOV Constant
	ORG Quantity
}

// New builds a Statistics block whose values start at v. v.HLT is also the
// unit's manpower maximum; every other bound is fixed.
//
// Postcondition: every current value is within its bounds.
func New(v Values) Statistics {
	return Statistics{
		MRL: NewQuantity(v.MRL, Permille),
		HLT: NewQuantity(v.HLT, v.HLT),
		SPL: NewQuantity(v.SPL, Permille),
		ATK: NewConstant(v.ATK, MaxATK),
		DEF: NewConstant(v.DEF, MaxDEF),
		MAG: NewConstant(v.MAG, MaxMAG),
		MOV: NewConstant(v.MOV, MaxMOV),
		ORG: NewQuantity(v.ORG, Permille),
	}
}

// Restore rebuilds a Statistics block from current values, manpower maximum
// and Constant bases, as recorded in a snapshot.
func Restore(current Values, maxHLT uint32, base Values) Statistics {
	s := New(base)
	s.HLT = NewQuantity(current.HLT, maxHLT)
	for _, n := range Names {
		if n == HLT {
			continue
		}
		s.Set(n, current.get(n))
	}
	return s
}

// Current returns the current values.
func (s *Statistics) Current() Values {
	var v Values
	for _, n := range Names {
		v.set(n, s.Get(n))
	}
	return v
}

// Bases returns the Constant bases, and current values for Quantities.
func (s *Statistics) Bases() Values {
	v := s.Current()
	v.ATK = s.ATK.Base()
	v.DEF = s.DEF.Base()
	v.MAG = s.MAG.Base()
	v.MOV = s.MOV.Base()
	return v
}

// Get returns the current value of n.
func (s *Statistics) Get(n Name) uint32 {
	switch n {
	case MRL:
		return s.MRL.Current()
	case HLT:
		return s.HLT.Current()
	case SPL:
		return s.SPL.Current()
	case ATK:
		return s.ATK.Current()
	case DEF:
		return s.DEF.Current()
	case MAG:
		return s.MAG.Current()
	case MOV:
		return s.MOV.Current()
	case ORG:
		return s.ORG.Current()
	default:
		panic(fmt.Sprintf("stat: Statistics.Get: unknown statistic %d", uint8(n)))
	}
}

// Max returns the upper bound of n.
func (s *Statistics) Max(n Name) uint32 {
	switch n {
	case MRL:
		return s.MRL.Max()
	case HLT:
		return s.HLT.Max()
	case SPL:
		return s.SPL.Max()
	case ATK:
		return s.ATK.Max()
	case DEF:
		return s.DEF.Max()
	case MAG:
		return s.MAG.Max()
	case MOV:
		return s.MOV.Max()
	case ORG:
		return s.ORG.Max()
	default:
		panic(fmt.Sprintf("stat: Statistics.Max: unknown statistic %d", uint8(n)))
	}
}

// Set assigns the current value of n, saturating at its bounds.
func (s *Statistics) Set(n Name, v uint32) {
	switch n {
	case MRL:
		s.MRL.Set(v)
	case HLT:
		s.HLT.Set(v)
	case SPL:
		s.SPL.Set(v)
	case ATK:
		s.ATK.Set(v)
	case DEF:
		s.DEF.Set(v)
	case MAG:
		s.MAG.Set(v)
	case MOV:
		s.MOV.Set(v)
	case ORG:
		s.ORG.Set(v)
	default:
		panic(fmt.Sprintf("stat: Statistics.Set: unknown statistic %d", uint8(n)))
	}
}

// Change adds a flat delta to n and returns the delta actually applied.
func (s *Statistics) Change(n Name, delta int) int {
	switch n {
	case MRL:
		return s.MRL.Change(delta)
	case HLT:
		return s.HLT.Change(delta)
	case SPL:
		return s.SPL.Change(delta)
	case ATK:
		return s.ATK.Change(delta)
	case DEF:
		return s.DEF.Change(delta)
	case MAG:
		return s.MAG.Change(delta)
	case MOV:
		return s.MOV.Change(delta)
	case ORG:
		return s.ORG.Change(delta)
	default:
		panic(fmt.Sprintf("stat: Statistics.Change: unknown statistic %d", uint8(n)))
	}
}

// ChangePercent changes n by pct percent of its reference (base for Constant
// statistics, maximum for Quantity statistics) and returns the delta applied.
func (s *Statistics) ChangePercent(n Name, pct int) int {
	switch n {
	case MRL:
		return s.MRL.ChangePercent(pct)
	case HLT:
		return s.HLT.ChangePercent(pct)
	case SPL:
		return s.SPL.ChangePercent(pct)
	case ATK:
		return s.ATK.ChangePercent(pct)
	case DEF:
		return s.DEF.ChangePercent(pct)
	case MAG:
		return s.MAG.ChangePercent(pct)
	case MOV:
		return s.MOV.ChangePercent(pct)
	case ORG:
		return s.ORG.ChangePercent(pct)
	default:
		panic(fmt.Sprintf("stat: Statistics.ChangePercent: unknown statistic %d", uint8(n)))
	}
}

// Alive reports whether the unit still fights: HLT > 0 and MRL > 0.
func (s *Statistics) Alive() bool {
	return !s.HLT.IsEmpty() && !s.MRL.IsEmpty()
}

// Retreating reports whether morale has fallen below the retreat threshold.
func (s *Statistics) Retreating() bool { return s.MRL.Current() < RetreatMRL }

// Routed reports whether morale has fallen below the rout threshold.
func (s *Statistics) Routed() bool { return s.MRL.Current() < RoutMRL }

func (v Values) get(n Name) uint32 {
	switch n {
	case MRL:
		return v.MRL
	case HLT:
		return v.HLT
	case SPL:
		return v.SPL
	case ATK:
		return v.ATK
	case DEF:
		return v.DEF
	case MAG:
		return v.MAG
	case MOV:
		return v.MOV
	case ORG:
		return v.ORG
	}
	return 0
}

func (v *Values) set(n Name, x uint32) {
	switch n {
	case MRL:
		v.MRL = x
	case HLT:
		v.HLT = x
	case SPL:
		v.SPL = x
	case ATK:
		v.ATK = x
	case DEF:
		v.DEF = x
	case MAG:
		v.MAG = x
	case MOV:
		v.MOV = x
	case ORG:
		v.ORG = x
	}
}
