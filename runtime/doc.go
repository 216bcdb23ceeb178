// Package runtime provides the high-level API for running core WebAssembly
// modules, with every guest call optionally bridged onto a dedicated worker
// thread.
//
// # Quick Start
//
//	ctx := context.Background()
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
//	add, err := inst.ExportedFunction("add")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Run the call on its own OS thread and wait for it.
//	out, err := add.CallPThread(ctx, inst, []runtime.Value{runtime.I32(2), runtime.I32(3)})
//	fmt.Println(out[0].I32()) // 5
//
// # Calling Forms
//
// There are two ways to put guest work on a worker thread:
//
//	fn.CallPThread(ctx, inst, args)         - one method call, default stack budget
//	pthread.Call(stackSize, func() (T, error) { ... })
//	                                        - any closure, explicit stack budget
//
// The free form lets a whole sequence (load, instantiate, call) run on the
// same worker. Errors returned by the work come back unchanged. Failures of
// the worker itself are *errors.Error values in errors.PhaseThread; use
// errors.IsThreadError to tell them apart.
//
// # Host Functions
//
// Host functions are registered on the Builder and bound when Build runs:
//
//	rt, err := runtime.NewBuilder().
//	    RegisterHostFunction("env", "double", func(_ context.Context, x int32) int32 {
//	        return x * 2
//	    }).
//	    Build(ctx)
//
// A struct implementing Host registers all of its exported methods, with
// names converted to snake_case.
//
// # Values
//
// Value carries one of the four core number types. ParseValue and ParseArgs
// convert text, accepting core names (i32, i64, f32, f64) and the WIT
// primitives that lower to them (bool, s8..u64, char).
//
// # Thread Safety
//
// Runtime and Module are safe for concurrent use. Instance is NOT: give
// each goroutine its own Instance, or synchronize externally. Bridging a
// call to a worker thread does not change this; the caller blocks until
// the worker is done, so one caller per instance stays one caller.
package runtime
