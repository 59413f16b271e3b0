package scripting

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// ToLua converts a plain Go value into a Lua value owned by L. Supported are
// nil, bool, string, the integer and float kinds, []any, []string, []int,
// map[string]any and map[string]int.
//
// Postcondition: Returns an error naming the first unsupported type.
func ToLua(L *lua.LState, v any) (lua.LValue, error) {
	switch x := v.(type) {
	case nil:
		return lua.LNil, nil
	case lua.LValue:
		return x, nil
	case bool:
		return lua.LBool(x), nil
	case string:
		return lua.LString(x), nil
	case int:
		return lua.LNumber(x), nil
	case int32:
		return lua.LNumber(x), nil
	case int64:
		return lua.LNumber(x), nil
	case uint16:
		return lua.LNumber(x), nil
	case uint32:
		return lua.LNumber(x), nil
	case uint64:
		return lua.LNumber(x), nil
	case float64:
		return lua.LNumber(x), nil
	case []string:
		t := L.CreateTable(len(x), 0)
		for _, s := range x {
			t.Append(lua.LString(s))
		}
		return t, nil
	case []int:
		t := L.CreateTable(len(x), 0)
		for _, n := range x {
			t.Append(lua.LNumber(n))
		}
		return t, nil
	case []any:
		t := L.CreateTable(len(x), 0)
		for i, e := range x {
			lv, err := ToLua(L, e)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			t.Append(lv)
		}
		return t, nil
	case map[string]int:
		t := L.CreateTable(0, len(x))
		for k, n := range x {
			t.RawSetString(k, lua.LNumber(n))
		}
		return t, nil
	case map[string]any:
		t := L.CreateTable(0, len(x))
		for k, e := range x {
			lv, err := ToLua(L, e)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			t.RawSetString(k, lv)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unsupported type %T", v)
	}
}

// FromLua converts a Lua value into plain Go values: nil, bool, float64,
// string, []any for sequences and map[string]any for any other table.
// Functions and userdata become nil.
func FromLua(v lua.LValue) any {
	switch x := v.(type) {
	case lua.LBool:
		return bool(x)
	case lua.LNumber:
		return float64(x)
	case lua.LString:
		return string(x)
	case *lua.LTable:
		if n := x.MaxN(); n > 0 && n == tableLen(x) {
			out := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				out = append(out, FromLua(x.RawGetInt(i)))
			}
			return out
		}
		out := make(map[string]any)
		x.ForEach(func(k, e lua.LValue) {
			out[k.String()] = FromLua(e)
		})
		return out
	default:
		return nil
	}
}

func tableLen(t *lua.LTable) int {
	n := 0
	t.ForEach(func(lua.LValue, lua.LValue) { n++ })
	return n
}
