// Package scripting provides a sandboxed GopherLua execution environment for
// battle scripts. It has no dependency on game domain packages: callers pass
// plain values in and read plain values out.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the maximum number of Lua opcodes allowed per
// script execution when no override is configured.
const DefaultInstructionLimit = 100_000

// countingContext cancels itself after Done has been called limit times.
// GopherLua's mainLoopWithContext calls Done once per opcode, making this an
// exact instruction-count limit.
type countingContext struct {
	context.Context
	cancel    context.CancelFunc
	remaining *atomic.Int64
}

func (c *countingContext) Done() <-chan struct{} {
	if c.remaining.Add(-1) <= 0 {
		c.cancel()
	}
	return c.Context.Done()
}

// newCountingContext returns a context that cancels after limit calls to Done.
//
// Precondition: limit > 0.
func newCountingContext(limit int) (context.Context, context.CancelFunc) {
	base, cancel := context.WithCancel(context.Background())
	rem := &atomic.Int64{}
	rem.Store(int64(limit))
	return &countingContext{Context: base, cancel: cancel, remaining: rem}, cancel
}

// limitOrDefault maps non-positive limits to DefaultInstructionLimit.
func limitOrDefault(limit int) int {
	if limit <= 0 {
		return DefaultInstructionLimit
	}
	return limit
}

// NewSandboxedState creates a GopherLua LState with:
//   - Only safe stdlib loaded: base, table, string, math
//   - Dangerous globals removed: dofile, loadfile, load, collectgarbage, require
//   - Execution limited to at most instLimit Lua opcodes
//
// The limit covers everything run until the returned cancel is called. A
// long-lived state should be given a fresh budget per call with withBudget.
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: The caller owns the LState and must call cancel and
// L.Close() when done.
func NewSandboxedState(instLimit int) (*lua.LState, context.CancelFunc) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "load", "collectgarbage", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
	ctx, cancel := newCountingContext(limitOrDefault(instLimit))
	L.SetContext(ctx)
	return L, cancel
}

// withBudget runs fn with a fresh instruction budget of limit opcodes.
//
// Precondition: the caller holds exclusive use of L.
func withBudget(L *lua.LState, limit int, fn func() error) error {
	ctx, cancel := newCountingContext(limitOrDefault(limit))
	defer cancel()
	L.SetContext(ctx)
	return fn()
}
