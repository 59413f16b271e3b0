package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/tactics/internal/scripting"
)

func runScript(t testing.TB, mgr *scripting.Manager, src, hook string, args ...lua.LValue) lua.LValue {
	t.Helper()
	require.NoError(t, mgr.LoadDir("modtest", writeTempLua(t, "test.lua", src), 0))
	ret, err := mgr.CallHook("modtest", hook, args...)
	require.NoError(t, err)
	return ret
}

func TestEngineLog_AllLevels(t *testing.T) {
	mgr, logs := newTestManager(t)
	runScript(t, mgr, `
		function do_all_logs()
			engine.log.debug("d")
			engine.log.info("i")
			engine.log.warn("w")
			engine.log.error("e")
		end
	`, "do_all_logs")

	for msg, level := range map[string]zapcore.Level{
		"d": zap.DebugLevel,
		"i": zap.InfoLevel,
		"w": zap.WarnLevel,
		"e": zap.ErrorLevel,
	} {
		entries := logs.FilterMessage(msg).All()
		require.Len(t, entries, 1, msg)
		assert.Equal(t, level, entries[0].Level)
	}
}

func TestEngineDice_Roll(t *testing.T) {
	mgr, _ := newTestManager(t)
	ret := runScript(t, mgr, `
		function do_roll()
			local r = engine.dice.roll("1d6+2")
			if r.total ~= r.dice + r.modifier then error("bad total") end
			return r.total
		end
	`, "do_roll")
	n, ok := ret.(lua.LNumber)
	require.True(t, ok, "expected LNumber, got %T", ret)
	assert.GreaterOrEqual(t, int(n), 3)
	assert.LessOrEqual(t, int(n), 8)
}

func TestEngineDice_Roll_BadExpressionIsRuntimeError(t *testing.T) {
	mgr, logs := newTestManager(t)
	ret := runScript(t, mgr, `function do_roll() return engine.dice.roll("nope") end`, "do_roll")
	assert.Equal(t, lua.LNil, ret)
	assert.Equal(t, 1, logs.FilterLevelExact(zap.WarnLevel).Len())
}

func TestProperty_DicePickInRange(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadDir("pick", writeTempLua(t, "p.lua", `function pick(n) return engine.dice.pick(n) end`), 0))
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 20).Draw(rt, "n")
		ret, err := mgr.CallHook("pick", "pick", lua.LNumber(n))
		require.NoError(rt, err)
		i := int(ret.(lua.LNumber))
		assert.GreaterOrEqual(rt, i, 1)
		assert.LessOrEqual(rt, i, n)
	})
}
