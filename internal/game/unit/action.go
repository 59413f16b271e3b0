package unit

import (
	"fmt"

	"github.com/cory-johannsen/tactics/internal/game/effect"
	"github.com/cory-johannsen/tactics/internal/game/grid"
	"github.com/cory-johannsen/tactics/internal/game/ident"
	"github.com/cory-johannsen/tactics/internal/game/scheduler"
	"github.com/cory-johannsen/tactics/internal/game/stat"
)

const (
	// BaseSupplyDrain is the SPL, in permille, an action of multiplier 1.0
	// consumes.
	BaseSupplyDrain = 10
	// MoraleRecovery is the MRL regained at every end of turn.
	MoraleRecovery = 20
	// FactoryRecovery is the HLT each factory of a supplying city restores.
	FactoryRecovery = 2
	// FarmRecovery is the SPL each farm of a supplying city restores.
	FarmRecovery = 5
)

// SupplyDrain returns the SPL an action of class c consumes.
func SupplyDrain(c scheduler.ActionClass) int {
	return int(BaseSupplyDrain * c.Multiplier())
}

// StartTurn opens the unit's turn.
//
// Precondition: the unit is alive and not already acting.
func (u *Unit) StartTurn() {
	u.mustLive("StartTurn")
	if u.phase != PhaseIdle {
		panic(fmt.Sprintf("unit: StartTurn: unit %s already in phase %d", u.ID, u.phase))
	}
	u.phase = PhaseActing
}

// AbortTurn closes the turn of a unit that died before it could act.
//
// Precondition: the unit is dead.
func (u *Unit) AbortTurn() {
	if u.alive {
		panic(fmt.Sprintf("unit: AbortTurn: unit %s is alive", u.ID))
	}
	u.phase = PhaseIdle
}

// act records that the unit performed one action of class c and returns
// the unit's MOV after the drain.
func (u *Unit) act(c scheduler.ActionClass) uint32 {
	u.stats.Change(stat.SPL, -SupplyDrain(c))
	u.phase = PhaseActed
	u.refresh()
	return u.stats.MOV.Current()
}

func (u *Unit) mustAct(op string) {
	u.mustLive(op)
	if u.phase != PhaseActing {
		panic(fmt.Sprintf("unit: %s: unit %s has not started its turn or already acted", op, u.ID))
	}
}

// Attack strikes every living target with the active weapon. Damage to every
// target is computed from the attacker's statistics before this action's
// drain and before any retaliation. The weapon's
// OnAttack attribute fires on each surviving target and each surviving
// target's OnHit attribute fires back on the attacker.
//
// Postcondition: Returns the damage dealt per target and the attacker's MOV.
func (u *Unit) Attack(targets []*Unit) ([]stat.Damage, uint32) {
	u.mustAct("Attack")
	w := u.ActiveWeapon()
	attacker := u.stats
	dealt := make([]stat.Damage, len(targets))
	for i, t := range targets {
		if t == nil || !t.alive || t == u {
			continue
		}
		dealt[i] = stat.CalculateDamage(attacker, t.stats, w.Stats)
		if !t.TakeDamage(dealt[i]) {
			continue
		}
		if a := w.OnAttack(); a != nil {
			t.AddAppliable(a.Fire(u.lookup))
		}
		if a := t.OnHit(); a != nil && u.alive {
			u.AddAppliable(a.Fire(u.lookup))
		}
	}
	return dealt, u.act(scheduler.ActionAttack)
}

// UseSkill activates skill def id. A toggle skill withdraws the status it
// granted and switches to the linked status; a timed skill grants its status
// and starts its cooldown.
//
// Postcondition: Returns false, without consuming the action, when the unit
// lacks the skill or it is not actionable.
func (u *Unit) UseSkill(id ident.ID) (uint32, bool) {
	u.mustAct("UseSkill")
	s, ok := u.Skill(id)
	if !ok || !s.Actionable() {
		return 0, false
	}
	switch s.Kind {
	case SkillToggle:
		if s.granted != nil {
			u.withdraw(s.granted)
			s.granted = nil
		}
		if s.status.Valid() {
			if next := u.lookup.Status(s.status).Next; next.Valid() {
				s.status = next
			}
			s.granted = u.grant(u.lookup.Status(s.status))
		}
	case SkillTimed:
		if s.status.Valid() {
			s.granted = u.grant(u.lookup.Status(s.status))
		}
		s.remaining = s.Cooldown
		s.used = s.Cooldown > 0
	default:
		panic(fmt.Sprintf("unit: UseSkill: skill %s of kind %s cannot be used", s.Def, s.Kind))
	}
	return u.act(scheduler.ActionSkill), true
}

// CastMagic pays the HLT and ORG cost of magic id and applies its payload to
// every living target.
//
// Postcondition: Returns false, without consuming the action, when the unit
// does not know the magic, has no MAG, or cannot pay the HLT cost and live.
func (u *Unit) CastMagic(id ident.ID, targets []*Unit) (uint32, bool) {
	u.mustAct("CastMagic")
	if !u.CanCast(id) {
		return 0, false
	}
	def := u.lookup.Magic(id)
	hlt, org := MagicCost(def.Cost, u.stats.MAG.Current())
	if u.stats.HLT.Current() <= hlt {
		return 0, false
	}
	u.stats.Change(stat.HLT, -int(hlt))
	u.stats.Change(stat.ORG, -int(org))
	u.refresh()
	for _, t := range targets {
		if t == nil || !t.alive {
			continue
		}
		for _, a := range def.Payload(u.lookup) {
			if !t.alive {
				break
			}
			t.AddAppliable(a)
		}
	}
	return u.act(scheduler.ActionMagic), true
}

// Wait spends the turn doing nothing.
func (u *Unit) Wait() uint32 {
	u.mustAct("Wait")
	return u.act(scheduler.ActionWait)
}

// SwitchWeapon makes weapon i active. OnAttack attributes stay with the
// weapon that holds them.
//
// Postcondition: Returns false, without consuming the action, when i is out
// of range or already active.
func (u *Unit) SwitchWeapon(i int) (uint32, bool) {
	u.mustAct("SwitchWeapon")
	if i < 0 || i >= len(u.weapons) || i == u.active {
		return 0, false
	}
	u.active = i
	return u.act(scheduler.ActionSwitch), true
}

// Move records that the unit moved this turn. The board move itself is the
// grid's concern.
func (u *Unit) Move() uint32 {
	u.mustAct("Move")
	return u.act(scheduler.ActionMove)
}

// EndTurn closes the unit's turn: MRL recovers by MoraleRecovery, each city in
// supplying restores HLT by its factories and SPL by its farms, cooldowns
// advance and durations decrement. A unit that died during its action only
// returns to idle.
//
// Precondition: the unit has acted this turn.
func (u *Unit) EndTurn(supplying []grid.City) {
	if u.phase != PhaseActed {
		panic(fmt.Sprintf("unit: EndTurn: unit %s has not acted", u.ID))
	}
	u.phase = PhaseIdle
	if !u.alive {
		return
	}
	u.stats.Change(stat.MRL, MoraleRecovery)
	for _, c := range supplying {
		u.stats.Change(stat.HLT, int(c.Factories)*FactoryRecovery)
		u.stats.Change(stat.SPL, int(c.Farms)*FarmRecovery)
	}
	for _, s := range u.skills {
		s.tick()
	}
	u.DecrementDurations()
}

// ApplyStatus instantiates s on the unit.
//
// Postcondition: Returns the live instance, or nil when it was rejected.
func (u *Unit) ApplyStatus(s effect.Status) effect.Appliable {
	return u.grant(s)
}
