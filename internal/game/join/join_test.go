package join_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/tactics/internal/game/join"
)

func TestInner_InsertRejectsCollisions(t *testing.T) {
	in := join.NewInner[int, string]()
	require.True(t, in.Insert(1, "a"))
	assert.False(t, in.Insert(1, "b"), "left collision must be rejected")
	assert.False(t, in.Insert(2, "a"), "right collision must be rejected")

	r, ok := in.Right(1)
	require.True(t, ok)
	assert.Equal(t, "a", r)
	assert.False(t, in.ContainsLeft(2))
	assert.False(t, in.ContainsRight("b"))
	assert.Equal(t, 1, in.Len())
}

func TestInner_ReplaceEvictsBothSides(t *testing.T) {
	in := join.NewInner[int, string]()
	require.True(t, in.Insert(1, "a"))
	require.True(t, in.Insert(2, "b"))

	oldR, hadR, oldL, hadL := in.Replace(1, "b")
	assert.True(t, hadR)
	assert.Equal(t, "a", oldR)
	assert.True(t, hadL)
	assert.Equal(t, 2, oldL)

	l, ok := in.Left("b")
	require.True(t, ok)
	assert.Equal(t, 1, l)
	assert.False(t, in.ContainsRight("a"))
	assert.False(t, in.ContainsLeft(2))
	assert.Equal(t, 1, in.Len())
}

func TestInner_ReplaceSamePairIsStable(t *testing.T) {
	in := join.NewInner[int, string]()
	require.True(t, in.Insert(1, "a"))
	oldR, hadR, _, hadL := in.Replace(1, "a")
	assert.True(t, hadR)
	assert.Equal(t, "a", oldR)
	assert.False(t, hadL)
	assert.Equal(t, 1, in.Len())
}

func TestInner_Remove(t *testing.T) {
	in := join.NewInner[int, string]()
	require.True(t, in.Insert(1, "a"))
	r, ok := in.RemoveLeft(1)
	require.True(t, ok)
	assert.Equal(t, "a", r)
	_, ok = in.RemoveRight("a")
	assert.False(t, ok)
	assert.Zero(t, in.Len())
}

func TestOuter_InsertIsOwnerExclusive(t *testing.T) {
	o := join.NewOuter[string, int]()
	require.True(t, o.Insert("red", 1))
	require.True(t, o.Insert("red", 2))
	assert.False(t, o.Insert("blue", 1), "a value belongs to exactly one key")

	owner, ok := o.Owner(1)
	require.True(t, ok)
	assert.Equal(t, "red", owner)
	assert.ElementsMatch(t, []int{1, 2}, o.Values("red"))
	assert.Equal(t, 2, o.Count("red"))
}

func TestOuter_ReplaceReturnsVacatedKey(t *testing.T) {
	o := join.NewOuter[string, int]()
	require.True(t, o.Insert("red", 1))

	old, had := o.Replace("blue", 1)
	assert.True(t, had)
	assert.Equal(t, "red", old)
	assert.Zero(t, o.Count("red"))
	assert.ElementsMatch(t, []string{"blue"}, o.Keys())

	_, had = o.Replace("blue", 5)
	assert.False(t, had)
	assert.Equal(t, 2, o.Len())
}

func TestOuter_RemoveKey(t *testing.T) {
	o := join.NewOuter[string, int]()
	require.True(t, o.Insert("red", 1))
	require.True(t, o.Insert("red", 2))
	require.True(t, o.Insert("blue", 3))

	assert.ElementsMatch(t, []int{1, 2}, o.RemoveKey("red"))
	_, ok := o.Owner(1)
	assert.False(t, ok)
	assert.Equal(t, 1, o.Len())
}

func TestCross_Membership(t *testing.T) {
	c := join.NewCross[string, int]()
	require.True(t, c.Insert("a", 1))
	require.True(t, c.Insert("a", 2))
	require.True(t, c.Insert("b", 1))
	assert.False(t, c.Insert("a", 1))

	assert.ElementsMatch(t, []int{1, 2}, c.Rights("a"))
	assert.ElementsMatch(t, []string{"a", "b"}, c.Lefts(1))
	assert.Equal(t, 3, c.Len())

	c.RemoveRight(1)
	assert.False(t, c.Contains("a", 1))
	assert.False(t, c.Contains("b", 1))
	assert.Equal(t, 1, c.Len())

	assert.False(t, c.Remove("b", 1))
	c.RemoveLeft("a")
	assert.Zero(t, c.Len())
}

func TestPropertyInner_DirectionsMirror(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		in := join.NewInner[int, int]()
		ops := rapid.SliceOfN(rapid.IntRange(0, 3), 1, 60).Draw(rt, "ops")
		for i, op := range ops {
			l := rapid.IntRange(0, 8).Draw(rt, "l")
			r := rapid.IntRange(0, 8).Draw(rt, "r")
			switch op {
			case 0:
				in.Insert(l, r)
			case 1:
				in.Replace(l, r)
			case 2:
				in.RemoveLeft(l)
			case 3:
				in.RemoveRight(r)
			}
			for _, left := range in.Lefts() {
				right, ok := in.Right(left)
				require.True(rt, ok, "op %d", i)
				back, ok := in.Left(right)
				require.True(rt, ok, "op %d", i)
				assert.Equal(rt, left, back, "op %d", i)
			}
			assert.Equal(rt, len(in.Lefts()), len(in.Rights()))
		}
	})
}

func TestPropertyOuter_EveryValueHasOneOwner(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		o := join.NewOuter[int, int]()
		ops := rapid.SliceOfN(rapid.IntRange(0, 3), 1, 60).Draw(rt, "ops")
		for _, op := range ops {
			k := rapid.IntRange(0, 4).Draw(rt, "k")
			v := rapid.IntRange(0, 12).Draw(rt, "v")
			switch op {
			case 0:
				o.Insert(k, v)
			case 1:
				o.Replace(k, v)
			case 2:
				o.Remove(v)
			case 3:
				o.RemoveKey(k)
			}
			total := 0
			for _, key := range o.Keys() {
				for _, val := range o.Values(key) {
					owner, ok := o.Owner(val)
					require.True(rt, ok)
					assert.Equal(rt, key, owner)
					total++
				}
			}
			assert.Equal(rt, o.Len(), total)
		}
	})
}
