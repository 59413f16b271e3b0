// Package join provides bidirectionally indexed relationship containers.
//
// Every container stores each relation twice, once per direction, so lookups
// from either side are O(1). The two directions are verified to mirror each
// other after every mutation; a mismatch is a programming error and panics.
//
// None of the containers are safe for concurrent use.
package join

import "fmt"

// Inner is a one-to-one relation between L and R keys.
type Inner[L, R comparable] struct {
	byLeft  map[L]R
	byRight map[R]L
}

// NewInner creates an empty Inner relation.
func NewInner[L, R comparable]() *Inner[L, R] {
	return &Inner[L, R]{byLeft: make(map[L]R), byRight: make(map[R]L)}
}

// Insert relates l and r.
//
// Postcondition: Returns false and leaves the relation unchanged if either l or
// r is already related; otherwise Right(l) == r and Left(r) == l.
func (in *Inner[L, R]) Insert(l L, r R) bool {
	if _, ok := in.byLeft[l]; ok {
		return false
	}
	if _, ok := in.byRight[r]; ok {
		return false
	}
	in.byLeft[l] = r
	in.byRight[r] = l
	in.verify(l, r)
	return true
}

// Replace relates l and r, evicting any prior partner of either key.
//
// Postcondition: Right(l) == r and Left(r) == l. oldR is the previous partner of
// l (hadR reports whether there was one); oldL is the previous partner of r.
func (in *Inner[L, R]) Replace(l L, r R) (oldR R, hadR bool, oldL L, hadL bool) {
	oldR, hadR = in.byLeft[l]
	if hadR {
		delete(in.byRight, oldR)
	}
	oldL, hadL = in.byRight[r]
	if hadL {
		delete(in.byLeft, oldL)
	}
	in.byLeft[l] = r
	in.byRight[r] = l
	in.verify(l, r)
	if hadR {
		in.verifyAbsentRight(oldR, r)
	}
	if hadL {
		in.verifyAbsentLeft(oldL, l)
	}
	return oldR, hadR, oldL, hadL
}

// Right returns the partner of l.
func (in *Inner[L, R]) Right(l L) (R, bool) {
	r, ok := in.byLeft[l]
	return r, ok
}

// Left returns the partner of r.
func (in *Inner[L, R]) Left(r R) (L, bool) {
	l, ok := in.byRight[r]
	return l, ok
}

// ContainsLeft reports whether l is related.
func (in *Inner[L, R]) ContainsLeft(l L) bool {
	_, ok := in.byLeft[l]
	return ok
}

// ContainsRight reports whether r is related.
func (in *Inner[L, R]) ContainsRight(r R) bool {
	_, ok := in.byRight[r]
	return ok
}

// RemoveLeft deletes the relation keyed by l and returns its partner.
func (in *Inner[L, R]) RemoveLeft(l L) (R, bool) {
	r, ok := in.byLeft[l]
	if !ok {
		return r, false
	}
	delete(in.byLeft, l)
	delete(in.byRight, r)
	in.verifyAbsent(l, r)
	return r, true
}

// RemoveRight deletes the relation keyed by r and returns its partner.
func (in *Inner[L, R]) RemoveRight(r R) (L, bool) {
	l, ok := in.byRight[r]
	if !ok {
		return l, false
	}
	delete(in.byRight, r)
	delete(in.byLeft, l)
	in.verifyAbsent(l, r)
	return l, true
}

// Len returns the number of relations.
func (in *Inner[L, R]) Len() int { return len(in.byLeft) }

// Lefts returns every left key in unspecified order.
func (in *Inner[L, R]) Lefts() []L {
	out := make([]L, 0, len(in.byLeft))
	for l := range in.byLeft {
		out = append(out, l)
	}
	return out
}

// Rights returns every right key in unspecified order.
func (in *Inner[L, R]) Rights() []R {
	out := make([]R, 0, len(in.byRight))
	for r := range in.byRight {
		out = append(out, r)
	}
	return out
}

func (in *Inner[L, R]) verify(l L, r R) {
	if got, ok := in.byLeft[l]; !ok || got != r {
		panic(fmt.Sprintf("join: Inner: left %v does not map to right %v", l, r))
	}
	if got, ok := in.byRight[r]; !ok || got != l {
		panic(fmt.Sprintf("join: Inner: right %v does not map to left %v", r, l))
	}
	if len(in.byLeft) != len(in.byRight) {
		panic(fmt.Sprintf("join: Inner: direction sizes differ (%d != %d)", len(in.byLeft), len(in.byRight)))
	}
}

func (in *Inner[L, R]) verifyAbsent(l L, r R) {
	if _, ok := in.byLeft[l]; ok {
		panic(fmt.Sprintf("join: Inner: left %v still present after removal", l))
	}
	if _, ok := in.byRight[r]; ok {
		panic(fmt.Sprintf("join: Inner: right %v still present after removal", r))
	}
	if len(in.byLeft) != len(in.byRight) {
		panic(fmt.Sprintf("join: Inner: direction sizes differ (%d != %d)", len(in.byLeft), len(in.byRight)))
	}
}

func (in *Inner[L, R]) verifyAbsentRight(old, current R) {
	if old == current {
		return
	}
	if _, ok := in.byRight[old]; ok {
		panic(fmt.Sprintf("join: Inner: evicted right %v still present", old))
	}
}

func (in *Inner[L, R]) verifyAbsentLeft(old, current L) {
	if old == current {
		return
	}
	if _, ok := in.byLeft[old]; ok {
		panic(fmt.Sprintf("join: Inner: evicted left %v still present", old))
	}
}

// Outer is a one-to-many relation in which every V is owned by exactly one K.
type Outer[K, V comparable] struct {
	values map[K]map[V]struct{}
	owner  map[V]K
}

// NewOuter creates an empty Outer relation.
func NewOuter[K, V comparable]() *Outer[K, V] {
	return &Outer[K, V]{values: make(map[K]map[V]struct{}), owner: make(map[V]K)}
}

// Insert gives v to k.
//
// Postcondition: Returns false and leaves the relation unchanged if v is already
// owned; otherwise Owner(v) == k.
func (o *Outer[K, V]) Insert(k K, v V) bool {
	if _, ok := o.owner[v]; ok {
		return false
	}
	o.add(k, v)
	o.verify(k, v)
	return true
}

// Replace moves v to k, returning the key it vacated.
//
// Postcondition: Owner(v) == k; old is the previous owner when had is true.
func (o *Outer[K, V]) Replace(k K, v V) (old K, had bool) {
	old, had = o.owner[v]
	if had {
		if old == k {
			return old, true
		}
		o.detach(old, v)
	}
	o.add(k, v)
	o.verify(k, v)
	if had {
		if _, still := o.values[old][v]; still {
			panic(fmt.Sprintf("join: Outer: value %v still listed under vacated key %v", v, old))
		}
	}
	return old, had
}

// Owner returns the key owning v.
func (o *Outer[K, V]) Owner(v V) (K, bool) {
	k, ok := o.owner[v]
	return k, ok
}

// Contains reports whether k owns v.
func (o *Outer[K, V]) Contains(k K, v V) bool {
	_, ok := o.values[k][v]
	return ok
}

// Values returns every value owned by k in unspecified order.
func (o *Outer[K, V]) Values(k K) []V {
	set := o.values[k]
	out := make([]V, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	return out
}

// Count returns the number of values owned by k.
func (o *Outer[K, V]) Count(k K) int { return len(o.values[k]) }

// Keys returns every key owning at least one value, in unspecified order.
func (o *Outer[K, V]) Keys() []K {
	out := make([]K, 0, len(o.values))
	for k := range o.values {
		out = append(out, k)
	}
	return out
}

// Remove releases v from its owner.
//
// Postcondition: Owner(v) reports false; returns the previous owner.
func (o *Outer[K, V]) Remove(v V) (K, bool) {
	k, ok := o.owner[v]
	if !ok {
		return k, false
	}
	o.detach(k, v)
	if _, still := o.owner[v]; still {
		panic(fmt.Sprintf("join: Outer: value %v still owned after removal", v))
	}
	return k, true
}

// RemoveKey releases every value owned by k and returns them.
func (o *Outer[K, V]) RemoveKey(k K) []V {
	vs := o.Values(k)
	for _, v := range vs {
		o.detach(k, v)
	}
	if _, still := o.values[k]; still {
		panic(fmt.Sprintf("join: Outer: key %v still present after removal", k))
	}
	return vs
}

// Len returns the number of owned values.
func (o *Outer[K, V]) Len() int { return len(o.owner) }

func (o *Outer[K, V]) add(k K, v V) {
	set, ok := o.values[k]
	if !ok {
		set = make(map[V]struct{})
		o.values[k] = set
	}
	set[v] = struct{}{}
	o.owner[v] = k
}

func (o *Outer[K, V]) detach(k K, v V) {
	delete(o.owner, v)
	set := o.values[k]
	delete(set, v)
	if len(set) == 0 {
		delete(o.values, k)
	}
}

func (o *Outer[K, V]) verify(k K, v V) {
	if got, ok := o.owner[v]; !ok || got != k {
		panic(fmt.Sprintf("join: Outer: value %v is not owned by %v", v, k))
	}
	if _, ok := o.values[k][v]; !ok {
		panic(fmt.Sprintf("join: Outer: key %v does not list value %v", k, v))
	}
}

// Cross is a many-to-many relation between A and B keys.
type Cross[A, B comparable] struct {
	byA map[A]map[B]struct{}
	byB map[B]map[A]struct{}
}

// NewCross creates an empty Cross relation.
func NewCross[A, B comparable]() *Cross[A, B] {
	return &Cross[A, B]{byA: make(map[A]map[B]struct{}), byB: make(map[B]map[A]struct{})}
}

// Insert relates a and b.
//
// Postcondition: Returns false if the pair was already present.
func (c *Cross[A, B]) Insert(a A, b B) bool {
	if c.Contains(a, b) {
		return false
	}
	addSet(c.byA, a, b)
	addSet(c.byB, b, a)
	c.verify(a, b, true)
	return true
}

// Remove unrelates a and b.
//
// Postcondition: Returns false if the pair was not present.
func (c *Cross[A, B]) Remove(a A, b B) bool {
	if !c.Contains(a, b) {
		return false
	}
	removeSet(c.byA, a, b)
	removeSet(c.byB, b, a)
	c.verify(a, b, false)
	return true
}

// Contains reports whether a and b are related.
func (c *Cross[A, B]) Contains(a A, b B) bool {
	_, ok := c.byA[a][b]
	return ok
}

// Rights returns every B related to a, in unspecified order.
func (c *Cross[A, B]) Rights(a A) []B { return keysOf(c.byA[a]) }

// Lefts returns every A related to b, in unspecified order.
func (c *Cross[A, B]) Lefts(b B) []A { return keysOf(c.byB[b]) }

// RemoveLeft unrelates a from every B.
func (c *Cross[A, B]) RemoveLeft(a A) {
	for _, b := range c.Rights(a) {
		c.Remove(a, b)
	}
}

// RemoveRight unrelates b from every A.
func (c *Cross[A, B]) RemoveRight(b B) {
	for _, a := range c.Lefts(b) {
		c.Remove(a, b)
	}
}

// Len returns the number of related pairs.
func (c *Cross[A, B]) Len() int {
	n := 0
	for _, set := range c.byA {
		n += len(set)
	}
	return n
}

func (c *Cross[A, B]) verify(a A, b B, present bool) {
	_, inA := c.byA[a][b]
	_, inB := c.byB[b][a]
	if inA != present || inB != present {
		panic(fmt.Sprintf("join: Cross: pair (%v, %v) mirrored inconsistently (want present=%t)", a, b, present))
	}
}

func addSet[K, V comparable](m map[K]map[V]struct{}, k K, v V) {
	set, ok := m[k]
	if !ok {
		set = make(map[V]struct{})
		m[k] = set
	}
	set[v] = struct{}{}
}

func removeSet[K, V comparable](m map[K]map[V]struct{}, k K, v V) {
	set := m[k]
	delete(set, v)
	if len(set) == 0 {
		delete(m, k)
	}
}

func keysOf[K comparable](set map[K]struct{}) []K {
	out := make([]K, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
