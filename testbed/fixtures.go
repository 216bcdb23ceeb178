// Package testbed holds small core WebAssembly modules and the end-to-end
// tests that run them through the runtime and the pthread bridge.
package testbed

// Arith exports add (i32, i32) -> i32, add64 (i64, i64) -> i64, trap and a
// one page memory.
//
//	(module
//	  (memory (export "memory") 1)
//	  (func (export "add") (param i32 i32) (result i32)
//	    local.get 0 local.get 1 i32.add)
//	  (func (export "trap") unreachable)
//	  (func (export "add64") (param i64 i64) (result i64)
//	    local.get 0 local.get 1 i64.add))
var Arith = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, 0x01, 0x10, 0x03, 0x60,
	0x02, 0x7f, 0x7f, 0x01, 0x7f, 0x60, 0x00, 0x00, 0x60, 0x02, 0x7e, 0x7e,
	0x01, 0x7e, 0x03, 0x04, 0x03, 0x00, 0x01, 0x02, 0x05, 0x03, 0x01, 0x00,
	0x01, 0x07, 0x1f, 0x04, 0x03, 0x61, 0x64, 0x64, 0x00, 0x00, 0x04, 0x74,
	0x72, 0x61, 0x70, 0x00, 0x01, 0x05, 0x61, 0x64, 0x64, 0x36, 0x34, 0x00,
	0x02, 0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, 0x02, 0x00, 0x0a, 0x15,
	0x03, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b, 0x03, 0x00, 0x00,
	0x0b, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x7c, 0x0b,
}

// Host imports env.double and exports quad, which calls it twice.
//
//	(module
//	  (import "env" "double" (func $double (param i32) (result i32)))
//	  (func (export "quad") (param i32) (result i32)
//	    local.get 0 call $double call $double))
var Host = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, 0x01, 0x06, 0x01, 0x60,
	0x01, 0x7f, 0x01, 0x7f, 0x02, 0x0e, 0x01, 0x03, 0x65, 0x6e, 0x76, 0x06,
	0x64, 0x6f, 0x75, 0x62, 0x6c, 0x65, 0x00, 0x00, 0x03, 0x02, 0x01, 0x00,
	0x07, 0x08, 0x01, 0x04, 0x71, 0x75, 0x61, 0x64, 0x00, 0x01, 0x0a, 0x0a,
	0x01, 0x08, 0x00, 0x20, 0x00, 0x10, 0x00, 0x10, 0x00, 0x0b,
}

// Exit exports exit0 and exit3, which call WASI proc_exit with 0 and 3.
//
//	(module
//	  (import "wasi_snapshot_preview1" "proc_exit" (func $exit (param i32)))
//	  (func (export "exit0") i32.const 0 call $exit)
//	  (func (export "exit3") i32.const 3 call $exit))
var Exit = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, 0x01, 0x08, 0x02, 0x60,
	0x01, 0x7f, 0x00, 0x60, 0x00, 0x00, 0x02, 0x24, 0x01, 0x16, 0x77, 0x61,
	0x73, 0x69, 0x5f, 0x73, 0x6e, 0x61, 0x70, 0x73, 0x68, 0x6f, 0x74, 0x5f,
	0x70, 0x72, 0x65, 0x76, 0x69, 0x65, 0x77, 0x31, 0x09, 0x70, 0x72, 0x6f,
	0x63, 0x5f, 0x65, 0x78, 0x69, 0x74, 0x00, 0x00, 0x03, 0x03, 0x02, 0x01,
	0x01, 0x07, 0x11, 0x02, 0x05, 0x65, 0x78, 0x69, 0x74, 0x30, 0x00, 0x01,
	0x05, 0x65, 0x78, 0x69, 0x74, 0x33, 0x00, 0x02, 0x0a, 0x0f, 0x02, 0x06,
	0x00, 0x41, 0x00, 0x10, 0x00, 0x0b, 0x06, 0x00, 0x41, 0x03, 0x10, 0x00,
	0x0b,
}
