// Package pthread runs a unit of work on a dedicated, short-lived OS thread
// and hands its result back to the caller.
//
// Some WebAssembly hosts and the native code they embed assume every caller
// runs on a real thread of its own. Call satisfies that assumption without
// changing the caller: it spawns one worker, locks it to an OS thread for its
// whole life, runs the work there, and blocks until the worker is done.
//
//	values, err := pthread.Call(256<<10, func() ([]runtime.Value, error) {
//	    rt, err := runtime.New(ctx)
//	    if err != nil {
//	        return nil, err
//	    }
//	    defer rt.Close(ctx)
//	    // load, instantiate and call
//	})
//
// # Errors
//
// Errors come in two levels. Whatever the work returns is passed through
// unchanged, so errors.Is and pointer identity both hold across the thread
// boundary. Failures of the bridge itself are *errors.Error values in
// errors.PhaseThread:
//
//	KindThreadCreate  the worker was never started (EINVAL, EAGAIN)
//	KindThreadJoin    the worker ended without returning (panic, Goexit)
//
// A panic in the work is recovered on the worker and reported as a join
// error carrying the panic value and stack; it never crashes the caller.
//
// # Resource Model
//
// Each call creates and tears down exactly one OS thread. There is no pool,
// no queue, no reuse and no cancellation. Concurrent callers each get their
// own worker; SetMaxThreads bounds how many may be live at once.
package pthread
