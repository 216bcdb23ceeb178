// Package engine provides the low-level WebAssembly runtime used by package runtime.
//
// This package wraps wazero: it compiles core modules, defines host modules
// from Go functions, instantiates guests and exposes their exported functions
// and linear memory.
//
// # Architecture
//
// The engine package provides three main types:
//
//	WazeroEngine   - Creates and manages a wazero runtime and its host modules
//	WazeroModule   - A compiled module, can create any number of instances
//	WazeroInstance - A running instance with exports and memory
//
// # Instantiation Flow
//
//  1. WazeroEngine.DefineHostModule() instantiates host modules first
//  2. WazeroEngine.LoadModule() compiles the guest binary
//  3. WazeroModule.Instantiate() checks every function import is provided,
//     then creates an anonymous WazeroInstance
//  4. WazeroInstance.ExportedFunction() returns callable exports
//
// Unresolved imports are reported as *errors.MissingImportsError before
// wazero is asked to instantiate anything.
//
// # Start Functions
//
// Instantiation never runs start functions. WASI commands call "_start"
// explicitly, which lets callers run it through the thread bridge like any
// other export.
//
// # Thread Safety
//
// WazeroEngine and WazeroModule are safe for concurrent use. WazeroInstance
// is not; give each goroutine its own instance or synchronize externally.
package engine
