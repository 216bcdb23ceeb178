package runtime

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-threadcall/engine"
	"github.com/wippyai/wasm-threadcall/errors"
)

// Host is the interface for struct-based host modules.
// All exported methods (except Module) are registered as host functions.
type Host interface {
	// Module returns the import module name guests use (e.g., "env").
	Module() string
}

// ExplicitRegistrar allows hosts to provide exact import names when the
// automatic PascalCase-to-snake_case conversion doesn't apply.
type ExplicitRegistrar interface {
	Register() map[string]any
}

type HostRegistry struct {
	funcs map[string]map[string]any
	mu    sync.RWMutex
}

func NewHostRegistry() *HostRegistry {
	return &HostRegistry{
		funcs: make(map[string]map[string]any),
	}
}

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	moduleType  = reflect.TypeOf((*api.Module)(nil)).Elem()
)

// RegisterHost registers h's exported methods under h.Module().
// Method names are converted from PascalCase to snake_case
// (DoubleValue -> double_value).
func (r *HostRegistry) RegisterHost(h Host) error {
	mod := h.Module()
	if mod == "" {
		return errors.InvalidInput(errors.PhaseHost, "module name cannot be empty")
	}

	if er, ok := h.(ExplicitRegistrar); ok {
		for name, handler := range er.Register() {
			if err := r.RegisterFunc(mod, name, handler); err != nil {
				return err
			}
		}
		return nil
	}

	rv := reflect.ValueOf(h)
	rt := rv.Type()

	for i := 0; i < rt.NumMethod(); i++ {
		method := rt.Method(i)
		if !method.IsExported() || method.Name == "Module" {
			continue
		}
		if err := r.RegisterFunc(mod, toSnakeCase(method.Name), rv.Method(i).Interface()); err != nil {
			return err
		}
	}

	return nil
}

// RegisterFunc registers fn as module#name. fn must take a context.Context
// first, optionally followed by an api.Module, with remaining parameters and
// results of type int32, uint32, int64, uint64, float32 or float64.
func (r *HostRegistry) RegisterFunc(module, name string, fn any) error {
	if module == "" || name == "" {
		return errors.InvalidInput(errors.PhaseHost, "module and function name are required")
	}
	if err := validateHandler(fn); err != nil {
		return errors.Registration(errors.PhaseHost, module, name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.funcs[module] == nil {
		r.funcs[module] = make(map[string]any)
	}
	if _, exists := r.funcs[module][name]; exists {
		return errors.Registration(errors.PhaseHost, module, name, fmt.Errorf("already registered"))
	}
	r.funcs[module][name] = fn
	return nil
}

// Has reports whether module#name is registered.
func (r *HostRegistry) Has(module, name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.funcs[module][name]
	return ok
}

// Modules returns the registered module names, sorted.
func (r *HostRegistry) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mods := make([]string, 0, len(r.funcs))
	for mod := range r.funcs {
		mods = append(mods, mod)
	}
	sort.Strings(mods)
	return mods
}

// bind defines one engine host module per registered module.
func (r *HostRegistry) bind(ctx context.Context, eng *engine.WazeroEngine) error {
	for _, mod := range r.Modules() {
		r.mu.RLock()
		funcs := make([]engine.HostFunc, 0, len(r.funcs[mod]))
		for name, handler := range r.funcs[mod] {
			funcs = append(funcs, engine.HostFunc{Name: name, Handler: handler})
		}
		r.mu.RUnlock()

		sort.Slice(funcs, func(i, j int) bool { return funcs[i].Name < funcs[j].Name })
		if err := eng.DefineHostModule(ctx, mod, funcs); err != nil {
			return err
		}
	}
	return nil
}

func validateHandler(fn any) error {
	if fn == nil {
		return fmt.Errorf("handler is nil")
	}
	ft := reflect.TypeOf(fn)
	if ft.Kind() != reflect.Func {
		return fmt.Errorf("handler must be a func, got %s", ft)
	}
	if ft.IsVariadic() {
		return fmt.Errorf("variadic handlers are not supported")
	}
	if ft.NumIn() == 0 || ft.In(0) != contextType {
		return fmt.Errorf("first parameter must be context.Context")
	}

	first := 1
	if ft.NumIn() > 1 && ft.In(1) == moduleType {
		first = 2
	}
	for i := first; i < ft.NumIn(); i++ {
		if !isCoreKind(ft.In(i).Kind()) {
			return fmt.Errorf("parameter %d has unsupported type %s", i, ft.In(i))
		}
	}
	for i := 0; i < ft.NumOut(); i++ {
		if !isCoreKind(ft.Out(i).Kind()) {
			return fmt.Errorf("result %d has unsupported type %s", i, ft.Out(i))
		}
	}
	return nil
}

func isCoreKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int32, reflect.Uint32, reflect.Int64, reflect.Uint64, reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// toSnakeCase converts PascalCase to snake_case.
// Consecutive uppercase letters stay together (HTTPGet -> http_get).
func toSnakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
