package stat

// WeaponStats are the fixed combat statistics of a weapon.
type WeaponStats struct {
	DMG uint32 `yaml:"dmg" json:"dmg"` // flat damage
	SLH uint32 `yaml:"slh" json:"slh"` // slaughter: manpower multiplier
	PRC uint32 `yaml:"prc" json:"prc"` // pierce: morale multiplier, defence divisor
	DCY uint32 `yaml:"dcy" json:"dcy"` // decay: magic spread
}

// Damage is the outcome of one attack against one defender.
type Damage struct {
	MRL uint32
	HLT uint32
	SPL uint32
}

// CalculateDamage resolves an attack of attacker against defender with w.
//
// Each named intermediate is truncated to an integer in the order written;
// the ratios inside factor and minus stay fractional:
//
//	weapon = (ATK_a + DMG) * SPL_a/SPL_max
//	magic  = max(MAG_a + (2*DCY+1) - MAG_d, 1) * (2*DCY+1)
//	factor = (1 - MRL_d/MRL_max) + HLT_a/HLT_max + ORG_a/1000 + DCY
//	minus  = DEF_d * (SPL_d/SPL_max + ORG_d/1000) / (PRC+1)
//	base   = max(weapon*factor - minus, 0)
//	MRL    = base*(PRC+1) + magic*(DCY+1)
//	HLT    = (base*(SLH+1) + magic) * defeat
//	SPL    = (base + magic) * defeat
//
// defeat is 4 against a routed defender, 2 against a retreating one, else 1.
//
// Postcondition: the result depends only on the arguments.
func CalculateDamage(attacker, defender Statistics, w WeaponStats) Damage {
	spread := int64(2*w.DCY + 1)

	weapon := int64(float64(attacker.ATK.Current()+w.DMG) * ratio(attacker.SPL))

	magic := int64(attacker.MAG.Current()) + spread - int64(defender.MAG.Current())
	if magic < 1 {
		magic = 1
	}
	magic *= spread

	factor := (1 - ratio(defender.MRL)) +
		ratio(attacker.HLT) +
		float64(attacker.ORG.Current())/float64(Permille) +
		float64(w.DCY)

	minus := float64(defender.DEF.Current()) *
		(ratio(defender.SPL) + float64(defender.ORG.Current())/float64(Permille)) /
		float64(w.PRC+1)

	base := int64(float64(weapon)*factor - minus)
	if base < 0 {
		base = 0
	}

	defeat := int64(1)
	switch {
	case defender.Routed():
		defeat = 4
	case defender.Retreating():
		defeat = 2
	}

	return Damage{
		MRL: clampU32(base*int64(w.PRC+1) + magic*int64(w.DCY+1)),
		HLT: clampU32((base*int64(w.SLH+1) + magic) * defeat),
		SPL: clampU32((base + magic) * defeat),
	}
}

func ratio(q Quantity) float64 {
	if q.Max() == 0 {
		return 0
	}
	return float64(q.Current()) / float64(q.Max())
}

func clampU32(v int64) uint32 {
	if v < 0 {
		return 0
	}
	if v > int64(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(v)
}
