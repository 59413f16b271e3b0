package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/game/dice"
)

// GlobalScope is the reserved scope for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when the requested scope has none.
const GlobalScope = "__global__"

// vm is one sandboxed state. An LState is single-threaded, so every use of
// L holds mu.
type vm struct {
	mu     sync.Mutex
	L      *lua.LState
	cancel func()
	limit  int
}

// Manager owns one sandboxed LState per scope and exposes hook dispatch.
//
// Manager is safe for concurrent use. Calls into the same scope are
// serialized; different scopes run concurrently.
type Manager struct {
	mu     sync.RWMutex
	vms    map[string]*vm
	roller *dice.Roller
	logger *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: roller and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no loaded scopes.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	if roller == nil {
		panic("scripting: NewManager: roller must not be nil")
	}
	if logger == nil {
		panic("scripting: NewManager: logger must not be nil")
	}
	return &Manager{
		vms:    make(map[string]*vm),
		roller: roller,
		logger: logger,
	}
}

// LoadDir creates a sandboxed VM for scope, registers the engine.* modules,
// then executes every *.lua file in scriptDir in lexicographic order. Each
// later hook call gets its own budget of instLimit opcodes. Loading a scope
// again replaces its VM.
//
// Precondition: scope must be non-empty; scriptDir must be a readable directory.
// Postcondition: The scope VM is registered; returns error on Lua load failure.
func (m *Manager) LoadDir(scope, scriptDir string, instLimit int) error {
	if scope == "" {
		panic("scripting: LoadDir: scope must be non-empty")
	}
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, scope, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			files = append(files, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(files)

	L, cancel := NewSandboxedState(instLimit)
	m.RegisterModules(L)
	for _, path := range files {
		if err := withBudget(L, instLimit, func() error { return L.DoFile(path) }); err != nil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, scope, err)
		}
	}

	m.mu.Lock()
	old := m.vms[scope]
	m.vms[scope] = &vm{L: L, cancel: cancel, limit: instLimit}
	m.mu.Unlock()
	if old != nil {
		old.close()
	}
	m.logger.Debug("scripts loaded",
		zap.String("scope", scope),
		zap.Int("files", len(files)),
	)
	return nil
}

// LoadGlobal loads scriptDir into GlobalScope.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	return m.LoadDir(GlobalScope, scriptDir, instLimit)
}

// Close releases every VM. Later calls behave as if nothing was loaded.
func (m *Manager) Close() {
	m.mu.Lock()
	vms := m.vms
	m.vms = make(map[string]*vm)
	m.mu.Unlock()
	for _, v := range vms {
		v.close()
	}
}

func (v *vm) close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cancel()
	v.L.Close()
}

func (m *Manager) lookup(scope string) *vm {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.vms[scope]; ok {
		return v
	}
	return m.vms[GlobalScope]
}

// Has reports whether hook is defined as a function in scope or the global
// fallback.
func (m *Manager) Has(scope, hook string) bool {
	v := m.lookup(scope)
	if v == nil {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.L.GetGlobal(hook).Type() == lua.LTFunction
}

// CallHook calls the named Lua global function in scope's VM. If the scope
// has no VM, the GlobalScope VM is tried as a fallback. Returns (LNil, nil) if
// the hook is not defined or no VM exists. Lua runtime errors, including an
// exhausted instruction budget, are logged at Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances created by this
// Manager's VM or free of VM state (numbers, strings, booleans).
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error) {
	v := m.lookup(scope)
	if v == nil {
		m.logger.Info("scripting: no VM for scope",
			zap.String("scope", scope),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return m.call(v, scope, hook, args), nil
}

// CallHookValues is CallHook for plain Go values. Arguments are converted
// with ToLua inside the target VM and the result with FromLua.
//
// Postcondition: Returns an error only when an argument cannot be converted.
func (m *Manager) CallHookValues(scope, hook string, args ...any) (any, error) {
	v := m.lookup(scope)
	if v == nil {
		m.logger.Info("scripting: no VM for scope",
			zap.String("scope", scope),
			zap.String("hook", hook),
		)
		return nil, nil
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	largs := make([]lua.LValue, len(args))
	for i, a := range args {
		lv, err := ToLua(v.L, a)
		if err != nil {
			return nil, fmt.Errorf("scripting: hook %q argument %d: %w", hook, i, err)
		}
		largs[i] = lv
	}
	return FromLua(m.call(v, scope, hook, largs)), nil
}

// call runs hook in v.
//
// Precondition: the caller holds v.mu.
func (m *Manager) call(v *vm, scope, hook string, args []lua.LValue) lua.LValue {
	fn := v.L.GetGlobal(hook)
	if fn.Type() != lua.LTFunction {
		return lua.LNil
	}
	err := withBudget(v.L, v.limit, func() error {
		return v.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...)
	})
	if err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("scope", scope),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil
	}
	ret := v.L.Get(-1)
	v.L.Pop(1)
	return ret
}
