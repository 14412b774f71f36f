package sim

import (
	"fmt"
	"path/filepath"

	"github.com/cory-johannsen/sidearm/internal/game/host"
	"github.com/cory-johannsen/sidearm/internal/game/prop"
	"github.com/cory-johannsen/sidearm/internal/scripting"
)

// LoadScripts loads the hook script of every pistol in reg that names one.
// Script paths are relative to scriptDir.
//
// Postcondition: Returns the number of scripts loaded, or the first load error.
func LoadScripts(m *scripting.Manager, reg *prop.Registry, scriptDir string, instLimit int) (int, error) {
	n := 0
	for _, id := range reg.PistolIDs() {
		def := reg.Pistol(id)
		if def.Script == "" {
			continue
		}
		if err := m.LoadProp(def.ID, filepath.Join(scriptDir, def.Script), instLimit); err != nil {
			return n, fmt.Errorf("pistol %q: %w", def.ID, err)
		}
		n++
	}
	return n, nil
}

// ScriptNotifiers routes each pistol's events to its script hooks. Pistols
// without a script fall through to the manager's global VM, if any.
func ScriptNotifiers(m *scripting.Manager) func(def *prop.PistolDef) host.Notifier {
	return func(def *prop.PistolDef) host.Notifier {
		return m.Notifier(def.ID)
	}
}
