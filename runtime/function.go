package runtime

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/sys"

	"github.com/wippyai/wasm-threadcall/errors"
	"github.com/wippyai/wasm-threadcall/pthread"
)

// Function is an exported function of a specific Instance.
type Function struct {
	instance *Instance
	fn       api.Function
	name     string
	params   []ValueKind
	results  []ValueKind
}

// ExportedFunction looks up the export name on i.
func (i *Instance) ExportedFunction(name string) (*Function, error) {
	if i.wazeroInstance.Closed() {
		return nil, errors.NotInitialized(errors.PhaseRuntime, "instance")
	}

	fn := i.wazeroInstance.ExportedFunction(name)
	if fn == nil {
		return nil, errors.NotFound(errors.PhaseRuntime, "function", name)
	}

	def := fn.Definition()
	params, ok := kindsOf(def.ParamTypes())
	if !ok {
		return nil, errors.New(errors.PhaseRuntime, errors.KindTypeMismatch).
			Path(name).
			Detail("parameters use reference types").
			Build()
	}
	results, ok := kindsOf(def.ResultTypes())
	if !ok {
		return nil, errors.New(errors.PhaseRuntime, errors.KindTypeMismatch).
			Path(name).
			Detail("results use reference types").
			Build()
	}

	return &Function{
		instance: i,
		fn:       fn,
		name:     name,
		params:   params,
		results:  results,
	}, nil
}

func (f *Function) Name() string {
	return f.name
}

func (f *Function) ParamTypes() []ValueKind {
	return f.params
}

func (f *Function) ResultTypes() []ValueKind {
	return f.results
}

// Call invokes f on the calling goroutine. inst must be the instance f was
// looked up on. Argument count and kinds are checked before the guest runs.
// A guest trap is returned as KindTrap and a non-zero exit as KindExit;
// an exit with code zero returns no results and no error.
func (f *Function) Call(ctx context.Context, inst *Instance, params []Value) ([]Value, error) {
	if f == nil || f.fn == nil {
		return nil, errors.NotInitialized(errors.PhaseRuntime, "function")
	}
	if inst == nil {
		return nil, errors.NotInitialized(errors.PhaseRuntime, "instance")
	}
	if inst != f.instance {
		return nil, errors.InvalidInput(errors.PhaseRuntime,
			fmt.Sprintf("function %q is not an export of this instance", f.name))
	}
	if inst.wazeroInstance.Closed() {
		return nil, errors.NotInitialized(errors.PhaseRuntime, "instance")
	}
	if len(params) != len(f.params) {
		return nil, errors.Arity(errors.PhaseRuntime, f.name, len(f.params), len(params))
	}

	raw := make([]uint64, len(params))
	for i, p := range params {
		if p.kind != f.params[i] {
			return nil, errors.TypeMismatch(errors.PhaseRuntime,
				[]string{f.name, fmt.Sprintf("arg%d", i)}, p.kind.String(), f.params[i].String())
		}
		raw[i] = p.bits
	}

	out, err := f.fn.Call(ctx, raw...)
	if err != nil {
		var exitErr *sys.ExitError
		if stderrors.As(err, &exitErr) {
			if exitErr.ExitCode() == 0 {
				return nil, nil
			}
			return nil, errors.Exit(f.name, exitErr.ExitCode(), err)
		}
		return nil, errors.Trap(f.name, err)
	}

	results := make([]Value, len(f.results))
	for i, k := range f.results {
		results[i] = Value{kind: k, bits: out[i]}
	}
	return results, nil
}

// CallPThread is Call run through pthread.Call on a dedicated worker thread
// with the default stack budget. Errors from Call are returned unchanged;
// a failure of the worker itself is a thread error (see errors.IsThreadError).
func (f *Function) CallPThread(ctx context.Context, inst *Instance, params []Value) ([]Value, error) {
	return pthread.Call(pthread.DefaultStackSize(), func() ([]Value, error) {
		return f.Call(ctx, inst, params)
	})
}
