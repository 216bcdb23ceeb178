package runtime

import (
	"context"

	threadcall "github.com/wippyai/wasm-threadcall"
	"github.com/wippyai/wasm-threadcall/engine"
	"github.com/wippyai/wasm-threadcall/errors"
)

// Instance is a running module. It is NOT safe for concurrent use.
type Instance struct {
	module         *Module
	wazeroInstance *engine.WazeroInstance
}

// NewInstance instantiates mod, which must have been loaded by rt.
// Imports must be satisfied by host functions registered on rt; unresolved
// ones are reported as *errors.MissingImportsError in the cause chain.
func NewInstance(ctx context.Context, rt *Runtime, mod *Module) (*Instance, error) {
	if rt == nil {
		return nil, errors.NotInitialized(errors.PhaseInstantiate, "runtime")
	}
	if mod == nil {
		return nil, errors.NotInitialized(errors.PhaseInstantiate, "module")
	}
	if mod.runtime != rt {
		return nil, errors.InvalidInput(errors.PhaseInstantiate, "module was loaded by a different runtime")
	}

	var cfg *engine.InstanceConfig
	if rt.wasi != nil {
		cfg = &engine.InstanceConfig{
			Stdout: rt.wasi.Stdout,
			Stderr: rt.wasi.Stderr,
			Args:   rt.wasi.Args,
		}
	}

	wazeroInstance, err := mod.wazeroModule.InstantiateWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Instantiation(err)
	}

	return &Instance{
		module:         mod,
		wazeroInstance: wazeroInstance,
	}, nil
}

func (i *Instance) Module() *Module {
	return i.module
}

// Memory returns the instance's linear memory, or nil if it defines none.
func (i *Instance) Memory() threadcall.Memory {
	mem := i.wazeroInstance.Memory()
	if mem == nil {
		return nil
	}
	return mem
}

// MemorySize returns the current linear memory size in bytes.
func (i *Instance) MemorySize() uint32 {
	return i.wazeroInstance.MemorySize()
}

func (i *Instance) Close(ctx context.Context) error {
	return i.wazeroInstance.Close(ctx)
}
