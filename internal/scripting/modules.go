package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the engine.* Lua table into L:
//   - engine.prop: the id of the prop that owns the VM
//   - engine.log(msg): writes msg to the manager's logger at Info
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState, propID string) {
	engine := L.NewTable()
	engine.RawSetString("prop", lua.LString(propID))
	engine.RawSetString("log", L.NewFunction(func(L *lua.LState) int {
		m.logger.Info("script", zap.String("prop", propID), zap.String("msg", L.CheckString(1)))
		return 0
	}))
	L.SetGlobal("engine", engine)
}
