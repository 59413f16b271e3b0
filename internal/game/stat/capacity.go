// Package stat implements the bounded numeric state of units and tiles and
// the combat damage formula.
//
// Every mutation saturates at the capacity bounds; nothing here ever
// overflows or underflows.
package stat

import "math"

// Quantity is a plain bounded value: current is always within [0, max].
type Quantity struct {
	cur uint32
	max uint32
}

// NewQuantity creates a Quantity with the given current and maximum values.
//
// Postcondition: Current() == min(current, max).
func NewQuantity(current, max uint32) Quantity {
	q := Quantity{max: max}
	q.Set(current)
	return q
}

// Current returns the current value.
func (q Quantity) Current() uint32 { return q.cur }

// Max returns the maximum value.
func (q Quantity) Max() uint32 { return q.max }

// IsEmpty reports whether the current value is zero.
func (q Quantity) IsEmpty() bool { return q.cur == 0 }

// IsFull reports whether the current value equals the maximum.
func (q Quantity) IsFull() bool { return q.cur == q.max }

// Set assigns v, saturating at max.
func (q *Quantity) Set(v uint32) {
	if v > q.max {
		v = q.max
	}
	q.cur = v
}

// Change adds delta to the current value, saturating at both bounds.
//
// Postcondition: Returns the delta actually applied.
func (q *Quantity) Change(delta int) int {
	before := q.cur
	q.cur = saturate(int64(q.cur)+int64(delta), q.max)
	return int(int64(q.cur) - int64(before))
}

// ChangePercent changes the current value by pct percent of max.
//
// Postcondition: Returns the delta actually applied.
func (q *Quantity) ChangePercent(pct int) int {
	return q.Change(percentOf(q.max, pct))
}

// Constant is a bounded value that remembers the base it was created with, so
// temporary modifications can be computed against and reverted to that base.
type Constant struct {
	cur  uint32
	max  uint32
	base uint32
}

// NewConstant creates a Constant whose current value starts at base.
//
// Postcondition: Current() == Base() == min(base, max).
func NewConstant(base, max uint32) Constant {
	if base > max {
		base = max
	}
	return Constant{cur: base, max: max, base: base}
}

// Current returns the current value.
func (c Constant) Current() uint32 { return c.cur }

// Max returns the maximum value.
func (c Constant) Max() uint32 { return c.max }

// Base returns the remembered base value.
func (c Constant) Base() uint32 { return c.base }

// Set assigns v, saturating at max. The base is unchanged.
func (c *Constant) Set(v uint32) {
	if v > c.max {
		v = c.max
	}
	c.cur = v
}

// Change adds delta to the current value, saturating at both bounds.
//
// Postcondition: Returns the delta actually applied.
func (c *Constant) Change(delta int) int {
	before := c.cur
	c.cur = saturate(int64(c.cur)+int64(delta), c.max)
	return int(int64(c.cur) - int64(before))
}

// ChangePercent changes the current value by pct percent of the base.
//
// Postcondition: Returns the delta actually applied.
func (c *Constant) ChangePercent(pct int) int {
	return c.Change(percentOf(c.base, pct))
}

// Reset restores the current value to the base.
func (c *Constant) Reset() { c.cur = c.base }

// percentOf returns ref*pct/100 truncated toward zero.
func percentOf(ref uint32, pct int) int {
	v := int64(ref) * int64(pct) / 100
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < math.MinInt32 {
		return math.MinInt32
	}
	return int(v)
}

func saturate(v int64, max uint32) uint32 {
	if v < 0 {
		return 0
	}
	if v > int64(max) {
		return max
	}
	return uint32(v)
}
