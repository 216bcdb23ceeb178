package runtime

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-threadcall/errors"
	"github.com/wippyai/wasm-threadcall/testbed"
)

func TestToSnakeCase(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Double", "double"},
		{"DoubleValue", "double_value"},
		{"HTTPGet", "http_get"},
		{"GetHTTP", "get_http"},
		{"Add2Numbers", "add2_numbers"},
		{"already_snake", "already_snake"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := toSnakeCase(tc.in); got != tc.want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidateHandler(t *testing.T) {
	tests := []struct {
		fn      any
		name    string
		wantErr bool
	}{
		{name: "ctx only", fn: func(context.Context) {}},
		{name: "numbers", fn: func(context.Context, int32, uint32, int64, uint64, float32, float64) int32 { return 0 }},
		{name: "with module", fn: func(context.Context, api.Module, uint32) uint32 { return 0 }},
		{name: "multi result", fn: func(context.Context) (int32, int64) { return 0, 0 }},
		{name: "nil", fn: nil, wantErr: true},
		{name: "not a func", fn: 42, wantErr: true},
		{name: "no ctx", fn: func(int32) int32 { return 0 }, wantErr: true},
		{name: "string param", fn: func(context.Context, string) {}, wantErr: true},
		{name: "bool result", fn: func(context.Context) bool { return false }, wantErr: true},
		{name: "variadic", fn: func(context.Context, ...int32) {}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validateHandler(tc.fn)
			if (err != nil) != tc.wantErr {
				t.Errorf("validateHandler() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

type envHost struct {
	factor int32
}

func (h *envHost) Module() string { return "env" }

func (h *envHost) Double(_ context.Context, x int32) int32 {
	return x * h.factor
}

func (h *envHost) MulAdd(_ context.Context, a, b, c int32) int32 {
	return a*b + c
}

type renamedHost struct{}

func (renamedHost) Module() string { return "env" }

func (renamedHost) Register() map[string]any {
	return map[string]any{
		"double": func(_ context.Context, x int32) int32 { return x + x },
	}
}

func TestHostRegistry_RegisterHost(t *testing.T) {
	r := NewHostRegistry()
	if err := r.RegisterHost(&envHost{factor: 2}); err != nil {
		t.Fatalf("RegisterHost error: %v", err)
	}

	if !r.Has("env", "double") || !r.Has("env", "mul_add") {
		t.Error("expected env#double and env#mul_add to be registered")
	}
	if r.Has("env", "module") {
		t.Error("Module method must not be registered")
	}
	if diff := cmp.Diff([]string{"env"}, r.Modules()); diff != "" {
		t.Errorf("Modules() mismatch (-want +got):\n%s", diff)
	}
}

func TestHostRegistry_Duplicate(t *testing.T) {
	r := NewHostRegistry()
	fn := func(_ context.Context, x int32) int32 { return x }
	if err := r.RegisterFunc("env", "double", fn); err != nil {
		t.Fatalf("RegisterFunc error: %v", err)
	}
	err := r.RegisterFunc("env", "double", fn)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseHost, Kind: errors.KindRegistration}) {
		t.Errorf("duplicate registration = %v, want registration error", err)
	}
	if err := r.RegisterFunc("", "x", fn); err == nil {
		t.Error("expected error for empty module name")
	}
}

func TestRegisterHost_EndToEnd(t *testing.T) {
	tests := []struct {
		host Host
		name string
		want int32
	}{
		{name: "reflected methods", host: &envHost{factor: 3}, want: 45},
		{name: "explicit registrar", host: renamedHost{}, want: 20},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			rt, err := NewBuilder().RegisterHost(tc.host).Build(ctx)
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
			if got := out[0].I32(); got != tc.want {
				t.Errorf("quad(5) = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestInstantiate_HostImportsOnCallerThread(t *testing.T) {
	tests := []struct {
		build func(*Builder) *Builder
		name  string
		want  int32
	}{
		{
			name: "registered function",
			build: func(b *Builder) *Builder {
				return b.RegisterHostFunction("env", "double", func(_ context.Context, x int32) int32 { return x * 2 })
			},
			want: 28,
		},
		{
			name:  "registered host struct",
			build: func(b *Builder) *Builder { return b.RegisterHost(&envHost{factor: 2}) },
			want:  28,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			rt, err := tc.build(NewBuilder()).Build(ctx)
			if err != nil {
				t.Fatalf("Build error: %v", err)
			}
			defer rt.Close(ctx)

			mod, err := rt.LoadModule(ctx, testbed.Host)
			if err != nil {
				t.Fatalf("LoadModule error: %v", err)
			}
			// Not wrapped in a worker: a failure here must be an error, not a crash.
			inst, err := mod.Instantiate(ctx)
			if err != nil {
				t.Fatalf("Instantiate error: %v", err)
			}
			defer inst.Close(ctx)

			quad, err := inst.ExportedFunction("quad")
			if err != nil {
				t.Fatalf("ExportedFunction error: %v", err)
			}
			direct, err := quad.Call(ctx, inst, []Value{I32(7)})
			if err != nil {
				t.Fatalf("Call error: %v", err)
			}
			bridged, err := quad.CallPThread(ctx, inst, []Value{I32(7)})
			if err != nil {
				t.Fatalf("CallPThread error: %v", err)
			}
			if diff := cmp.Diff(direct, bridged); diff != "" {
				t.Errorf("bridged results mismatch (-direct +bridged):\n%s", diff)
			}
			if got := bridged[0].I32(); got != tc.want {
				t.Errorf("quad(7) = %d, want %d", got, tc.want)
			}
		})
	}
}
