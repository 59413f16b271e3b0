package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the engine.* Lua tables into L:
//
//	engine.log.debug|info|warn|error(msg)
//	engine.dice.roll(expr) -> {total, dice, modifier}
//	engine.dice.pick(n)    -> index in [1, n]
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	engine.RawSetString("log", m.logModule(L))
	engine.RawSetString("dice", m.diceModule(L))
	L.SetGlobal("engine", engine)
}

func (m *Manager) logModule(L *lua.LState) *lua.LTable {
	t := L.NewTable()
	levels := map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	}
	for name, fn := range levels {
		L.SetField(t, name, L.NewFunction(func(L *lua.LState) int {
			fn(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}))
	}
	return t
}

func (m *Manager) diceModule(L *lua.LState) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "roll", L.NewFunction(func(L *lua.LState) int {
		res, err := m.roller.RollExpr(L.CheckString(1))
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		sum := 0
		for _, d := range res.Dice {
			sum += d
		}
		r := L.NewTable()
		r.RawSetString("total", lua.LNumber(res.Total()))
		r.RawSetString("dice", lua.LNumber(sum))
		r.RawSetString("modifier", lua.LNumber(res.Modifier))
		L.Push(r)
		return 1
	}))
	L.SetField(t, "pick", L.NewFunction(func(L *lua.LState) int {
		n := L.CheckInt(1)
		if n <= 0 {
			L.ArgError(1, "option count must be positive")
			return 0
		}
		L.Push(lua.LNumber(m.roller.Pick("lua", n) + 1))
		return 1
	}))
	return t
}
