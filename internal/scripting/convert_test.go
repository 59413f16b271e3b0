package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/tactics/internal/scripting"
)

func TestToLua_FromLua(t *testing.T) {
	L := newState(t, 0)
	in := map[string]any{
		"name":  "scout",
		"alive": true,
		"hlt":   uint32(880),
		"tags":  []string{"a", "b"},
		"stats": map[string]int{"atk": 20},
		"none":  nil,
	}
	lv, err := scripting.ToLua(L, in)
	require.NoError(t, err)
	out := scripting.FromLua(lv)
	assert.Equal(t, map[string]any{
		"name":  "scout",
		"alive": true,
		"hlt":   880.0,
		"tags":  []any{"a", "b"},
		"stats": map[string]any{"atk": 20.0},
	}, out)
}

func TestToLua_Unsupported(t *testing.T) {
	L := newState(t, 0)
	_, err := scripting.ToLua(L, []any{1, make(chan int)})
	assert.Error(t, err)
}

func TestFromLua_EmptyTableIsMap(t *testing.T) {
	L := newState(t, 0)
	assert.Equal(t, map[string]any{}, scripting.FromLua(L.NewTable()))
	assert.Nil(t, scripting.FromLua(lua.LNil))
}
