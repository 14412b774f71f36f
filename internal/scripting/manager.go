package scripting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// globalPropID is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when no prop VM is found.
const globalPropID = "__global__"

// HookPrefix is prepended to an event name to form its hook function name.
const HookPrefix = "on_"

type propVM struct {
	L      *lua.LState
	limit  int
	cancel context.CancelFunc
}

// Manager owns one sandboxed LState per prop and exposes hook dispatch.
//
// Each prop's LState is single-threaded; the mutex serializes hook calls.
type Manager struct {
	mu     sync.Mutex
	states map[string]*propVM
	logger *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: logger must be non-nil.
// Postcondition: Returns a non-nil Manager with an empty prop map.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		states: make(map[string]*propVM),
		logger: logger,
	}
}

// LoadProp creates a sandboxed VM for propID and executes the script at path.
//
// Precondition: propID must be non-empty; path must be a readable Lua file.
// Postcondition: the prop VM replaces any previous one; returns error on Lua
// load failure.
func (m *Manager) LoadProp(propID, path string, instLimit int) error {
	return m.loadInto(propID, []string{path}, instLimit)
}

// LoadGlobal creates the "__global__" VM from every *.lua file in scriptDir,
// in lexicographic order. It serves as the CallHook fallback for any prop.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: Global VM is registered; returns error on Lua load failure.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", scriptDir, err)
	}
	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)
	return m.loadInto(globalPropID, luaFiles, instLimit)
}

func (m *Manager) loadInto(key string, paths []string, instLimit int) error {
	L := NewSandboxedState(instLimit)
	m.RegisterModules(L, key)

	for _, path := range paths {
		cancel := ResetInstructionBudget(L, instLimit)
		err := L.DoFile(path)
		cancel()
		if err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}

	m.mu.Lock()
	if old, ok := m.states[key]; ok {
		old.close()
	}
	m.states[key] = &propVM{L: L, limit: instLimit}
	m.mu.Unlock()
	m.logger.Debug("scripting: prop VM loaded", zap.String("prop", key), zap.Int("files", len(paths)))
	return nil
}

// CallHook calls the named Lua global function in propID's VM. If the prop has
// no VM, the __global__ VM is tried as a fallback. Returns (LNil, nil) if the
// hook is not defined or no VM exists. Lua runtime errors, including an
// exhausted instruction budget, are logged at Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(propID, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	vm, ok := m.states[propID]
	if !ok {
		vm = m.states[globalPropID]
	}
	if vm == nil {
		m.logger.Debug("scripting: no VM for prop",
			zap.String("prop", propID),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	fn := vm.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	if vm.cancel != nil {
		vm.cancel()
	}
	vm.cancel = ResetInstructionBudget(vm.L, vm.limit)

	if err := vm.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("prop", propID),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := vm.L.Get(-1)
	vm.L.Pop(1)
	return ret, nil
}

// Close releases every VM. Later CallHook calls return LNil.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, vm := range m.states {
		vm.close()
		delete(m.states, key)
	}
}

func (vm *propVM) close() {
	if vm.cancel != nil {
		vm.cancel()
	}
	vm.L.Close()
}
