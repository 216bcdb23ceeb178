// Package errors provides structured error types for the wasm-threadcall module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the argument path, the supplied and expected value
// types, an optional goroutine stack, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseRuntime, errors.KindTypeMismatch).
//		Path("add", "arg1").
//		GoType("f64").
//		WasmType("i32").
//		Build()
//
// Failures of the worker thread bridge use PhaseThread with KindThreadCreate
// or KindThreadJoin. IsThreadError separates them from failures of the work
// the bridge ran, which are always returned unwrapped:
//
//	if errors.IsThreadError(err) {
//		// the bridge failed; the work may not have run
//	}
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
