package runtime

import (
	"context"

	"github.com/wippyai/wasm-threadcall/engine"
)

type Module struct {
	runtime      *Runtime
	wazeroModule *engine.WazeroModule
	path         string
}

// Export describes an exported function and its core signature.
type Export struct {
	Name    string
	Params  []ValueKind
	Results []ValueKind
}

// Exports returns the module's exported functions sorted by name.
// Functions whose signature uses reference types are omitted.
func (m *Module) Exports() []Export {
	defs := m.wazeroModule.ExportedFunctions()
	exports := make([]Export, 0, len(defs))
	for _, def := range defs {
		params, ok := kindsOf(def.Params)
		if !ok {
			continue
		}
		results, ok := kindsOf(def.Results)
		if !ok {
			continue
		}
		exports = append(exports, Export{Name: def.Name, Params: params, Results: results})
	}
	return exports
}

// Imports returns the module's function imports as "module#name".
func (m *Module) Imports() []string {
	return m.wazeroModule.ImportedFunctions()
}

// Path returns the file the module was loaded from, if any.
func (m *Module) Path() string {
	return m.path
}

// Instantiate creates a new instance of m. Equivalent to NewInstance(ctx, m.runtime, m).
func (m *Module) Instantiate(ctx context.Context) (*Instance, error) {
	return NewInstance(ctx, m.runtime, m)
}

// Close releases the compiled code.
func (m *Module) Close(ctx context.Context) error {
	return m.wazeroModule.Close(ctx)
}
