package stat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/tactics/internal/game/stat"
)

func debugValues() stat.Values {
	return stat.Values{MRL: 1000, HLT: 1000, SPL: 1000, ATK: 20, DEF: 20, MAG: 20, MOV: 50, ORG: 1000}
}

func debugWeapon() stat.WeaponStats {
	return stat.WeaponStats{DMG: 20, SLH: 1, PRC: 1, DCY: 0}
}

func TestConstant_PercentClampsAtMax(t *testing.T) {
	s := stat.New(debugValues())
	s.ChangePercent(stat.ATK, 1000)
	assert.Equal(t, stat.MaxATK, s.Get(stat.ATK))
}

func TestConstant_NegativePercentFromZeroStaysZero(t *testing.T) {
	c := stat.NewConstant(0, stat.MaxATK)
	applied := c.ChangePercent(-1000)
	assert.Zero(t, c.Current())
	assert.Zero(t, applied)
}

func TestConstant_PercentIsOfBase(t *testing.T) {
	c := stat.NewConstant(20, stat.MaxATK)
	c.ChangePercent(20)
	c.ChangePercent(20)
	assert.Equal(t, uint32(28), c.Current(), "two +20%% changes on base 20 must give 28")
	c.Reset()
	assert.Equal(t, uint32(20), c.Current())
}

func TestQuantity_ChangeReturnsAppliedDelta(t *testing.T) {
	q := stat.NewQuantity(990, 1000)
	assert.Equal(t, 10, q.Change(50))
	assert.True(t, q.IsFull())
	assert.Equal(t, -1000, q.Change(-5000))
	assert.True(t, q.IsEmpty())
}

func TestQuantity_PercentIsOfMax(t *testing.T) {
	q := stat.NewQuantity(500, 1000)
	q.ChangePercent(10)
	assert.Equal(t, uint32(600), q.Current())
}

func TestNewQuantity_ClampsInitialValue(t *testing.T) {
	q := stat.NewQuantity(5000, 1000)
	assert.Equal(t, uint32(1000), q.Current())
}

func TestParseName(t *testing.T) {
	n, err := stat.ParseName("atk")
	require.NoError(t, err)
	assert.Equal(t, stat.ATK, n)
	_, err = stat.ParseName("luck")
	assert.Error(t, err)
	for _, n := range stat.Names {
		back, err := stat.ParseName(n.String())
		require.NoError(t, err)
		assert.Equal(t, n, back)
	}
}

func TestStatistics_Alive(t *testing.T) {
	s := stat.New(debugValues())
	assert.True(t, s.Alive())
	s.Set(stat.HLT, 0)
	assert.False(t, s.Alive())
	s = stat.New(debugValues())
	s.Change(stat.MRL, -2000)
	assert.False(t, s.Alive())
}

func TestStatistics_MoraleThresholds(t *testing.T) {
	s := stat.New(debugValues())
	assert.False(t, s.Retreating())
	s.Set(stat.MRL, 250)
	assert.True(t, s.Retreating())
	assert.False(t, s.Routed())
	s.Set(stat.MRL, 50)
	assert.True(t, s.Routed())
}

func TestStatistics_RestoreRoundTrip(t *testing.T) {
	s := stat.New(debugValues())
	s.ChangePercent(stat.ATK, 50)
	s.Change(stat.HLT, -300)
	r := stat.Restore(s.Current(), s.Max(stat.HLT), s.Bases())
	assert.Equal(t, s.Current(), r.Current())
	assert.Equal(t, s.ATK.Base(), r.ATK.Base())
	assert.Equal(t, uint32(1000), r.Max(stat.HLT))
}

func TestCalculateDamage_DebugContent(t *testing.T) {
	a := stat.New(debugValues())
	d := stat.New(debugValues())
	// weapon=40, magic=1, factor=2, minus=20, base=60
	got := stat.CalculateDamage(a, d, debugWeapon())
	assert.Equal(t, stat.Damage{MRL: 121, HLT: 121, SPL: 61}, got)
}

func TestCalculateDamage_HalfSupplyAttacker(t *testing.T) {
	a := stat.New(debugValues())
	a.Set(stat.SPL, 500)
	d := stat.New(debugValues())
	// weapon=20, factor=2, minus=20, base=20
	got := stat.CalculateDamage(a, d, debugWeapon())
	assert.Equal(t, stat.Damage{MRL: 41, HLT: 41, SPL: 21}, got)
}

func TestCalculateDamage_RetreatingDefenderDoublesLosses(t *testing.T) {
	a := stat.New(debugValues())
	d := stat.New(debugValues())
	d.Set(stat.MRL, 250)
	// factor = 0.75 + 1 + 1 = 2.75, weapon*factor = 110, base = 90
	got := stat.CalculateDamage(a, d, debugWeapon())
	assert.Equal(t, stat.Damage{MRL: 181, HLT: 362, SPL: 182}, got)
}

func TestCalculateDamage_MagicFloorIsOne(t *testing.T) {
	a := stat.New(debugValues())
	d := stat.New(debugValues())
	d.Set(stat.MAG, 200)
	d.Set(stat.DEF, 200)
	// minus = 200 far exceeds weapon*factor, so only the magic floor remains.
	got := stat.CalculateDamage(a, d, debugWeapon())
	assert.Equal(t, stat.Damage{MRL: 1, HLT: 1, SPL: 1}, got)
}

func TestCalculateDamage_DecaySpreadsMagic(t *testing.T) {
	a := stat.New(debugValues())
	d := stat.New(debugValues())
	w := stat.WeaponStats{DMG: 0, SLH: 0, PRC: 0, DCY: 1}
	// spread=3, magic = (20+3-20)*3 = 9
	// weapon = 20, factor = 0+1+1+1 = 3, minus = 20*2/1 = 40, base = 20
	got := stat.CalculateDamage(a, d, w)
	assert.Equal(t, stat.Damage{MRL: 20 + 9*2, HLT: 20 + 9, SPL: 20 + 9}, got)
}

func TestPropertyStatistics_AlwaysWithinBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := stat.New(stat.Values{
			MRL: rapid.Uint32Range(0, 1000).Draw(rt, "mrl"),
			HLT: rapid.Uint32Range(1, 5000).Draw(rt, "hlt"),
			SPL: rapid.Uint32Range(0, 1000).Draw(rt, "spl"),
			ATK: rapid.Uint32Range(0, 200).Draw(rt, "atk"),
			DEF: rapid.Uint32Range(0, 200).Draw(rt, "def"),
			MAG: rapid.Uint32Range(0, 200).Draw(rt, "mag"),
			MOV: rapid.Uint32Range(0, 100).Draw(rt, "mov"),
			ORG: rapid.Uint32Range(0, 1000).Draw(rt, "org"),
		})
		steps := rapid.IntRange(1, 40).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			n := stat.Names[rapid.IntRange(0, len(stat.Names)-1).Draw(rt, "name")]
			amount := rapid.IntRange(-5000, 5000).Draw(rt, "amount")
			if rapid.Bool().Draw(rt, "flat") {
				s.Change(n, amount)
			} else {
				s.ChangePercent(n, amount)
			}
			for _, m := range stat.Names {
				assert.LessOrEqual(rt, s.Get(m), s.Max(m), "%s exceeded its maximum", m)
			}
		}
	})
}

func TestPropertyConstant_PercentThenInverseRestores(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		base := rapid.Uint32Range(0, 100).Draw(rt, "base")
		pct := rapid.IntRange(-100, 100).Draw(rt, "pct")
		c := stat.NewConstant(base, stat.MaxATK)
		applied := c.ChangePercent(pct)
		c.Change(-applied)
		assert.Equal(rt, base, c.Current())
	})
}
