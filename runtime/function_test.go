package runtime

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"syscall"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/wasm-threadcall/errors"
	"github.com/wippyai/wasm-threadcall/pthread"
	"github.com/wippyai/wasm-threadcall/testbed"
)

func TestFunction_CallPThread_MatchesCall(t *testing.T) {
	ctx := context.Background()
	_, inst := newArith(t)

	tests := []struct {
		name   string
		export string
		args   []Value
		want   []Value
	}{
		{"add", "add", []Value{I32(2), I32(3)}, []Value{I32(5)}},
		{"add wraps", "add", []Value{I32(2147483647), I32(1)}, []Value{I32(-2147483648)}},
		{"add64", "add64", []Value{I64(1 << 40), I64(7)}, []Value{I64(1<<40 + 7)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fn, err := inst.ExportedFunction(tc.export)
			if err != nil {
				t.Fatalf("ExportedFunction error: %v", err)
			}

			direct, err := fn.Call(ctx, inst, tc.args)
			if err != nil {
				t.Fatalf("Call error: %v", err)
			}
			bridged, err := fn.CallPThread(ctx, inst, tc.args)
			if err != nil {
				t.Fatalf("CallPThread error: %v", err)
			}

			if diff := cmp.Diff(tc.want, bridged); diff != "" {
				t.Errorf("CallPThread mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(direct, bridged); diff != "" {
				t.Errorf("CallPThread differs from Call (-direct +bridged):\n%s", diff)
			}
		})
	}
}

func TestFunction_CallPThread_Trap(t *testing.T) {
	ctx := context.Background()
	_, inst := newArith(t)

	fn, err := inst.ExportedFunction("trap")
	if err != nil {
		t.Fatalf("ExportedFunction error: %v", err)
	}

	_, direct := fn.Call(ctx, inst, nil)
	_, bridged := fn.CallPThread(ctx, inst, nil)

	for name, err := range map[string]error{"Call": direct, "CallPThread": bridged} {
		if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseRuntime, Kind: errors.KindTrap}) {
			t.Errorf("%s error = %v, want trap", name, err)
		}
		if errors.IsThreadError(err) {
			t.Errorf("%s: guest trap reported as thread error", name)
		}
	}
	if direct != nil && bridged != nil && direct.Error() != bridged.Error() {
		t.Errorf("bridged trap %q differs from direct %q", bridged, direct)
	}
}

func TestFunction_Call_Validation(t *testing.T) {
	ctx := context.Background()
	_, inst := newArith(t)
	_, other := newArith(t)

	add, err := inst.ExportedFunction("add")
	if err != nil {
		t.Fatalf("ExportedFunction error: %v", err)
	}

	tests := []struct {
		name  string
		inst  *Instance
		args  []Value
		phase errors.Phase
		kind  errors.Kind
		path  []string
	}{
		{"too few args", inst, []Value{I32(1)}, errors.PhaseRuntime, errors.KindArity, nil},
		{"too many args", inst, []Value{I32(1), I32(2), I32(3)}, errors.PhaseRuntime, errors.KindArity, nil},
		{"wrong kind", inst, []Value{I32(1), I64(2)}, errors.PhaseRuntime, errors.KindTypeMismatch, []string{"add", "arg1"}},
		{"nil instance", nil, []Value{I32(1), I32(2)}, errors.PhaseRuntime, errors.KindNotInitialized, nil},
		{"foreign instance", other, []Value{I32(1), I32(2)}, errors.PhaseRuntime, errors.KindInvalidInput, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := add.CallPThread(ctx, tc.inst, tc.args)
			var e *errors.Error
			if !stderrors.As(err, &e) {
				t.Fatalf("err = %v, want *errors.Error", err)
			}
			if e.Phase != tc.phase || e.Kind != tc.kind {
				t.Errorf("err = [%s] %s, want [%s] %s", e.Phase, e.Kind, tc.phase, tc.kind)
			}
			if tc.path != nil {
				if diff := cmp.Diff(tc.path, e.Path); diff != "" {
					t.Errorf("path mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestFunction_Call_ClosedInstance(t *testing.T) {
	ctx := context.Background()
	_, inst := newArith(t)

	add, err := inst.ExportedFunction("add")
	if err != nil {
		t.Fatalf("ExportedFunction error: %v", err)
	}
	inst.Close(ctx)

	_, err = add.CallPThread(ctx, inst, []Value{I32(1), I32(2)})
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseRuntime, Kind: errors.KindNotInitialized}) {
		t.Errorf("err = %v, want not initialized", err)
	}
	if _, err := inst.ExportedFunction("add"); err == nil {
		t.Error("ExportedFunction on closed instance should fail")
	}
}

func TestFunction_NilReceiver(t *testing.T) {
	var fn *Function
	_, err := fn.Call(context.Background(), nil, nil)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseRuntime, Kind: errors.KindNotInitialized}) {
		t.Errorf("err = %v, want not initialized", err)
	}
}

func TestInstance_ExportedFunction_NotFound(t *testing.T) {
	_, inst := newArith(t)

	_, err := inst.ExportedFunction("missing")
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseRuntime, Kind: errors.KindNotFound}) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestFunction_Signature(t *testing.T) {
	_, inst := newArith(t)

	fn, err := inst.ExportedFunction("add64")
	if err != nil {
		t.Fatalf("ExportedFunction error: %v", err)
	}
	if fn.Name() != "add64" {
		t.Errorf("Name() = %q", fn.Name())
	}
	if diff := cmp.Diff([]ValueKind{KindI64, KindI64}, fn.ParamTypes()); diff != "" {
		t.Errorf("ParamTypes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]ValueKind{KindI64}, fn.ResultTypes()); diff != "" {
		t.Errorf("ResultTypes mismatch (-want +got):\n%s", diff)
	}
}

func TestHostFunction_ThroughBridge(t *testing.T) {
	ctx := context.Background()

	var calls atomic.Int32
	rt, err := NewBuilder().
		RegisterHostFunction("env", "double", func(_ context.Context, x int32) int32 {
			calls.Add(1)
			return x * 2
		}).
		Build(ctx)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	defer rt.Close(ctx)

	mod, err := rt.LoadModule(ctx, testbed.Host)
	if err != nil {
		t.Fatalf("LoadModule error: %v", err)
	}
	inst, err := mod.Instantiate(ctx)
	if err != nil {
		t.Fatalf("Instantiate error: %v", err)
	}
	defer inst.Close(ctx)

	quad, err := inst.ExportedFunction("quad")
	if err != nil {
		t.Fatalf("ExportedFunction error: %v", err)
	}
	out, err := quad.CallPThread(ctx, inst, []Value{I32(5)})
	if err != nil {
		t.Fatalf("CallPThread error: %v", err)
	}
	if out[0].I32() != 20 {
		t.Errorf("quad(5) = %d, want 20", out[0].I32())
	}
	if calls.Load() != 2 {
		t.Errorf("double called %d times, want 2", calls.Load())
	}
}

func TestHostFunction_PanicIsGuestTrap(t *testing.T) {
	ctx := context.Background()

	rt, err := NewBuilder().
		RegisterHostFunction("env", "double", func(_ context.Context, x int32) int32 {
			panic("host failure")
		}).
		Build(ctx)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	defer rt.Close(ctx)

	mod, err := rt.LoadModule(ctx, testbed.Host)
	if err != nil {
		t.Fatalf("LoadModule error: %v", err)
	}
	inst, err := mod.Instantiate(ctx)
	if err != nil {
		t.Fatalf("Instantiate error: %v", err)
	}
	defer inst.Close(ctx)

	quad, err := inst.ExportedFunction("quad")
	if err != nil {
		t.Fatalf("ExportedFunction error: %v", err)
	}

	// Host panics are recovered by wazero and never reach the worker.
	_, err = quad.CallPThread(ctx, inst, []Value{I32(1)})
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseRuntime, Kind: errors.KindTrap}) {
		t.Errorf("err = %v, want trap", err)
	}
}

func TestFreeForm_WholeSequenceOnWorker(t *testing.T) {
	ctx := context.Background()

	got, err := pthread.Call(pthread.MinStackSize*4, func() (int32, error) {
		rt, err := New(ctx)
		if err != nil {
			return 0, err
		}
		defer rt.Close(ctx)

		mod, err := rt.LoadModule(ctx, testbed.Arith)
		if err != nil {
			return 0, err
		}
		inst, err := mod.Instantiate(ctx)
		if err != nil {
			return 0, err
		}
		defer inst.Close(ctx)

		add, err := inst.ExportedFunction("add")
		if err != nil {
			return 0, err
		}
		out, err := add.Call(ctx, inst, []Value{I32(20), I32(22)})
		if err != nil {
			return 0, err
		}
		return out[0].I32(), nil
	})
	if err != nil {
		t.Fatalf("pthread.Call error: %v", err)
	}
	if got != 42 {
		t.Errorf("got %d, want 42", got)
	}
}

func TestFreeForm_RejectedStackSkipsWork(t *testing.T) {
	var ran atomic.Bool
	_, err := pthread.Call(0, func() ([]Value, error) {
		ran.Store(true)
		return nil, nil
	})
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseThread, Kind: errors.KindThreadCreate}) {
		t.Fatalf("err = %v, want thread create error", err)
	}
	if errors.Code(err) != syscall.EINVAL {
		t.Errorf("Code = %v, want EINVAL", errors.Code(err))
	}
	if ran.Load() {
		t.Error("work ran despite rejected stack size")
	}
}

func TestCallPThread_UsesDefaultStackSize(t *testing.T) {
	ctx := context.Background()
	_, inst := newArith(t)

	add, err := inst.ExportedFunction("add")
	if err != nil {
		t.Fatalf("ExportedFunction error: %v", err)
	}

	prev := pthread.SetDefaultStackSize(1024)
	_, err = add.CallPThread(ctx, inst, []Value{I32(1), I32(2)})
	pthread.SetDefaultStackSize(prev)

	if errors.Code(err) != syscall.EINVAL {
		t.Errorf("err = %v, want EINVAL from too small default", err)
	}
}
