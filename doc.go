// Package threadcall runs WebAssembly guest calls on dedicated worker
// threads and joins them back to the caller.
//
// A call is handed to a freshly spawned worker with an explicit stack
// budget. The caller blocks until the worker finishes and receives the
// guest's result or error unchanged. If the worker cannot be spawned, or
// terminates without returning, the caller gets a typed thread error
// instead.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	threadcall/          Root package with the Memory interfaces
//	├── pthread/         Worker thread spawn and join (Call, Do, stack budgets, thread limit)
//	├── runtime/         High-level API: modules, instances, functions, values
//	├── engine/          Low-level wazero integration
//	├── errors/          Structured error types, including thread errors
//	├── testbed/         Small wasm fixtures and end-to-end tests
//	└── cmd/run/         Command-line runner with an interactive TUI
//
// # Quick Start
//
//	rt, err := runtime.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	mod, err := rt.LoadModule(ctx, wasmBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	inst, err := mod.Instantiate(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Close(ctx)
//
//	add, _ := inst.ExportedFunction("add")
//	out, err := add.CallPThread(ctx, inst, []runtime.Value{runtime.I32(2), runtime.I32(3)})
//
// Any closure can be bridged the same way:
//
//	n, err := pthread.Call(256<<10, func() (int32, error) {
//	    ...
//	})
//
// # Errors
//
// Thread failures are *errors.Error values in errors.PhaseThread:
//
//	KindThreadCreate  the worker was not spawned; errors.Code gives EINVAL or EAGAIN
//	KindThreadJoin    the worker panicked or exited; Value holds the panic value
//
// Everything else, including guest traps, is the work's own error and passes
// through untouched. errors.IsThreadError tells the two apart.
//
// # Thread Safety
//
// Runtime and Module are safe for concurrent use. Instance is NOT thread-safe
// and should be used by a single goroutine, or access must be synchronized.
// Bridging a call does not change this.
//
// # Memory Model
//
// WASM linear memory can only grow, never shrink. The worker's stack budget
// is separate from linear memory and from the guest's shadow stack.
package threadcall
