package scripting

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"
)

// Notifier forwards weapon events to one prop's hooks.
type Notifier struct {
	m      *Manager
	propID string
}

// Notifier returns a host.Notifier that calls on_<name>(attrs) in propID's VM.
func (m *Manager) Notifier(propID string) *Notifier {
	return &Notifier{m: m, propID: propID}
}

// Notify calls the event's hook with attrs converted to a Lua table.
func (n *Notifier) Notify(name string, attrs map[string]any) {
	n.m.mu.Lock()
	vm, ok := n.m.states[n.propID]
	if !ok {
		vm = n.m.states[globalPropID]
	}
	n.m.mu.Unlock()
	if vm == nil {
		return
	}
	//nolint:errcheck // CallHook never returns a non-nil error
	n.m.CallHook(n.propID, HookPrefix+name, toTable(vm.L, attrs))
}

func toTable(L *lua.LState, attrs map[string]any) *lua.LTable {
	t := L.NewTable()
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.RawSetString(k, toValue(attrs[k]))
	}
	return t
}

func toValue(v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(x)
	case int:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case string:
		return lua.LString(x)
	case fmt.Stringer:
		return lua.LString(x.String())
	default:
		return lua.LString(fmt.Sprint(x))
	}
}
