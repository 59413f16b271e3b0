// Package scheduler orders units for acting by accumulated initiative delay.
//
// Turns are ordered by ascending delay, then descending last movement value,
// then ascending unit id. The order is total, so equal inputs always yield
// the same sequence.
package scheduler

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/cory-johannsen/tactics/internal/game/ident"
)

// MaxMovement is the largest movement value the delay table covers.
const MaxMovement = 100

// delayTable[i] = 1 + floor(20 / e^(0.03*i)).
var delayTable = func() [MaxMovement + 1]uint16 {
	var t [MaxMovement + 1]uint16
	for i := range t {
		t[i] = 1 + uint16(math.Floor(20/math.Exp(0.03*float64(i))))
	}
	return t
}()

// LookupDelay returns the base delay for a movement value. Values above
// MaxMovement use the MaxMovement entry.
func LookupDelay(mov uint32) uint16 {
	if mov > MaxMovement {
		mov = MaxMovement
	}
	return delayTable[mov]
}

// ActionClass scales the cost of an action in both delay and supply.
type ActionClass uint8

const (
	ActionAttack ActionClass = iota
	ActionSkill
	ActionMagic
	ActionWait
	ActionMove
	ActionSwitch
)

// Multiplier returns the scaling factor of c.
func (c ActionClass) Multiplier() float64 {
	switch c {
	case ActionAttack, ActionMove:
		return 1.0
	case ActionSkill, ActionMagic:
		return 1.4
	case ActionWait, ActionSwitch:
		return 0.67
	default:
		panic(fmt.Sprintf("scheduler: ActionClass.Multiplier: unknown class %d", uint8(c)))
	}
}

// String returns the action class name.
func (c ActionClass) String() string {
	switch c {
	case ActionAttack:
		return "attack"
	case ActionSkill:
		return "skill"
	case ActionMagic:
		return "magic"
	case ActionWait:
		return "wait"
	case ActionMove:
		return "move"
	case ActionSwitch:
		return "switch"
	default:
		return fmt.Sprintf("ActionClass(%d)", uint8(c))
	}
}

// Increment returns the delay an action of class c costs a unit with
// movement mov. It is never less than 1.
func Increment(mov uint32, c ActionClass) uint16 {
	v := uint16(float64(LookupDelay(mov)) * c.Multiplier())
	if v < 1 {
		v = 1
	}
	return v
}

// Turn is one unit's scheduling record.
type Turn struct {
	Unit  ident.ID `json:"unit"`
	Delay uint16   `json:"delay"`
	Move  uint32   `json:"move"`

	index int
}

// before reports whether a is ordered ahead of b.
func before(a, b *Turn) bool {
	if a.Delay != b.Delay {
		return a.Delay < b.Delay
	}
	if a.Move != b.Move {
		return a.Move > b.Move
	}
	return a.Unit < b.Unit
}

type turnQueue []*Turn

func (q turnQueue) Len() int           { return len(q) }
func (q turnQueue) Less(i, j int) bool { return before(q[i], q[j]) }

func (q turnQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *turnQueue) Push(x any) {
	t := x.(*Turn)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *turnQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}

// Scheduler is the pending-turn priority queue.
type Scheduler struct {
	queue turnQueue
	units map[ident.ID]*Turn
	// now is the delay of the turn most recently taken by Next.
	now   uint16
}

// New returns an empty scheduler.
func New() *Scheduler {
	return &Scheduler{units: make(map[ident.ID]*Turn)}
}

// Len returns the number of pending turns.
func (s *Scheduler) Len() int { return len(s.queue) }

// Contains reports whether unit has a pending turn.
func (s *Scheduler) Contains(unit ident.ID) bool {
	_, ok := s.units[unit]
	return ok
}

// Push schedules unit's first turn with its initial delay derived from mov.
//
// Precondition: unit has no pending turn.
func (s *Scheduler) Push(unit ident.ID, mov uint32) {
	s.PushTurn(Turn{Unit: unit, Delay: LookupDelay(mov), Move: mov})
}

// PushTurn inserts t with its delay and movement unchanged.
//
// Precondition: t.Unit has no pending turn.
func (s *Scheduler) PushTurn(t Turn) {
	if s.Contains(t.Unit) {
		panic(fmt.Sprintf("scheduler: Push: unit %s already scheduled", t.Unit))
	}
	turn := &Turn{Unit: t.Unit, Delay: t.Delay, Move: t.Move}
	s.units[t.Unit] = turn
	heap.Push(&s.queue, turn)
}

// Peek returns the next turn without removing it.
func (s *Scheduler) Peek() (Turn, bool) {
	if len(s.queue) == 0 {
		return Turn{}, false
	}
	return *s.queue[0], true
}

// Next removes and returns the next turn. The caller reinserts it with
// Reschedule once the unit has acted.
func (s *Scheduler) Next() (Turn, bool) {
	if len(s.queue) == 0 {
		return Turn{}, false
	}
	t := heap.Pop(&s.queue).(*Turn)
	delete(s.units, t.Unit)
	s.now = t.Delay
	return *t, true
}

// Now returns the delay of the turn most recently taken by Next, 0 before
// the first.
func (s *Scheduler) Now() uint16 { return s.now }

// Join schedules a unit that enters after turns have been taken. Its first
// turn comes one initial delay after Now, so it queues behind the timeline
// instead of ahead of it.
//
// Precondition: unit has no pending turn.
// Postcondition: Returns false when the delay cannot be represented even
// after rebasing; it then saturates at its maximum.
func (s *Scheduler) Join(unit ident.ID, mov uint32) bool {
	inc := LookupDelay(mov)
	now := s.now
	fits := true
	if uint32(now)+uint32(inc) > math.MaxUint16 {
		now -= s.rebase(now)
		if uint32(now)+uint32(inc) > math.MaxUint16 {
			fits = false
		}
	}
	delay := uint16(math.MaxUint16)
	if fits {
		delay = now + inc
	}
	s.PushTurn(Turn{Unit: unit, Delay: delay, Move: mov})
	return fits
}

// Reschedule reinserts t after its unit acted with class c and now has
// movement mov. When the increment would overflow, every pending delay and
// t's own are first rebased down by the smallest of them.
//
// Postcondition: Returns false when the delay still cannot be represented
// after rebasing; the delay then saturates at its maximum.
func (s *Scheduler) Reschedule(t Turn, mov uint32, c ActionClass) bool {
	inc := Increment(mov, c)
	fits := true
	if uint32(t.Delay)+uint32(inc) > math.MaxUint16 {
		t.Delay -= s.rebase(t.Delay)
		if uint32(t.Delay)+uint32(inc) > math.MaxUint16 {
			fits = false
		}
	}
	if fits {
		t.Delay += inc
	} else {
		t.Delay = math.MaxUint16
	}
	t.Move = mov
	s.PushTurn(t)
	return fits
}

// rebase lowers every pending delay by the minimum over them and own, and
// returns that minimum.
func (s *Scheduler) rebase(own uint16) uint16 {
	low := own
	for _, t := range s.queue {
		if t.Delay < low {
			low = t.Delay
		}
	}
	for _, t := range s.queue {
		t.Delay -= low
	}
	s.now -= min(s.now, low)
	// A uniform shift keeps the heap order.
	return low
}

// Remove permanently discards unit's pending turn by rebuilding the queue
// without it.
//
// Postcondition: Returns false when unit had no pending turn.
func (s *Scheduler) Remove(unit ident.ID) bool {
	if !s.Contains(unit) {
		return false
	}
	kept := make(turnQueue, 0, len(s.queue))
	for _, t := range s.queue {
		if t.Unit != unit {
			kept = append(kept, t)
		}
	}
	for i, t := range kept {
		t.index = i
	}
	s.queue = kept
	heap.Init(&s.queue)
	delete(s.units, unit)
	return true
}

// Turns returns every pending turn in scheduling order.
func (s *Scheduler) Turns() []Turn {
	cp := make(turnQueue, len(s.queue))
	for i, t := range s.queue {
		c := *t
		cp[i] = &c
	}
	heap.Init(&cp)
	out := make([]Turn, 0, len(cp))
	for cp.Len() > 0 {
		out = append(out, *heap.Pop(&cp).(*Turn))
	}
	return out
}
