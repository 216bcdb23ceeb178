package engine

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	threadcall "github.com/wippyai/wasm-threadcall"
	"github.com/wippyai/wasm-threadcall/errors"
)

// WazeroEngine owns a wazero runtime and the host modules defined on it.
type WazeroEngine struct {
	runtime      wazero.Runtime
	wasiInitMu   sync.Mutex
	wasiInitDone atomic.Bool
}

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	// 256 = 16MB, 1024 = 64MB, 4096 = 256MB
	MemoryLimitPages uint32

	// Interpreter selects wazero's interpreter instead of the compiler.
	// The compiler is used by default where the platform supports it.
	Interpreter bool

	// CloseOnContextDone makes running calls observe context cancellation.
	// Without it a guest loop only stops when it returns or traps.
	CloseOnContextDone bool
}

// NewWazeroEngine creates a new wazero-based engine
func NewWazeroEngine(ctx context.Context) (*WazeroEngine, error) {
	return NewWazeroEngineWithConfig(ctx, nil)
}

// NewWazeroEngineWithConfig creates a new engine with custom configuration
func NewWazeroEngineWithConfig(ctx context.Context, cfg *Config) (*WazeroEngine, error) {
	runtimeCfg := wazero.NewRuntimeConfig()

	if cfg != nil {
		if cfg.Interpreter {
			runtimeCfg = wazero.NewRuntimeConfigInterpreter()
		}
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		if cfg.CloseOnContextDone {
			runtimeCfg = runtimeCfg.WithCloseOnContextDone(true)
		}
	}

	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	return &WazeroEngine{runtime: runtime}, nil
}

// HostFunc is a Go function exported to guests under Name.
// Handler must be a func whose first parameter is context.Context, optionally
// followed by api.Module, and whose remaining parameters and results are
// uint32, int32, uint64, int64, float32 or float64.
type HostFunc struct {
	Handler any
	Name    string
}

// DefineHostModule instantiates a host module named name exporting funcs.
// Host modules must be defined before instantiating guests that import them.
func (e *WazeroEngine) DefineHostModule(ctx context.Context, name string, funcs []HostFunc) error {
	if e.runtime.Module(name) != nil {
		return errors.Registration(errors.PhaseHost, name, "*", fmt.Errorf("module %q already defined", name))
	}

	builder := e.runtime.NewHostModuleBuilder(name)
	for _, fn := range funcs {
		builder = builder.NewFunctionBuilder().WithFunc(fn.Handler).Export(fn.Name)
	}
	if _, err := builder.Instantiate(ctx); err != nil {
		return errors.Wrap(errors.PhaseHost, errors.KindRegistration, err, "instantiate host module "+name)
	}

	Logger().Debug("host module defined",
		zap.String("module", name),
		zap.Int("functions", len(funcs)))
	return nil
}

// LoadModule compiles a core WebAssembly binary.
func (e *WazeroEngine) LoadModule(ctx context.Context, wasmBytes []byte) (*WazeroModule, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("compile failed: %w", err)
	}

	return &WazeroModule{
		engine:   e,
		runtime:  e.runtime,
		compiled: compiled,
	}, nil
}

func (e *WazeroEngine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// WazeroModule is a compiled WASM module
type WazeroModule struct {
	engine   *WazeroEngine
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
}

// InstanceConfig holds configuration for module instantiation
type InstanceConfig struct {
	Stdout io.Writer
	Stderr io.Writer
	Name   string
	Args   []string
}

// FunctionDef describes an exported function's core signature.
type FunctionDef struct {
	Name    string
	Params  []api.ValueType
	Results []api.ValueType
}

// ExportedFunctions returns the module's exported functions sorted by name.
func (m *WazeroModule) ExportedFunctions() []FunctionDef {
	defs := m.compiled.ExportedFunctions()
	out := make([]FunctionDef, 0, len(defs))
	for name, def := range defs {
		out = append(out, FunctionDef{
			Name:    name,
			Params:  def.ParamTypes(),
			Results: def.ResultTypes(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ImportedFunctions returns the module's function imports as "module#name".
func (m *WazeroModule) ImportedFunctions() []string {
	defs := m.compiled.ImportedFunctions()
	out := make([]string, 0, len(defs))
	for _, def := range defs {
		mod, name, _ := def.Import()
		out = append(out, mod+"#"+name)
	}
	return out
}

// missingImports lists the function imports no instantiated module provides.
func (m *WazeroModule) missingImports() []string {
	var missing []string
	for _, def := range m.compiled.ImportedFunctions() {
		mod, name, _ := def.Import()
		// Host modules forbid ExportedFunction; definitions are allowed on both kinds.
		provider := m.runtime.Module(mod)
		if provider == nil {
			missing = append(missing, mod+"#"+name)
			continue
		}
		if _, ok := provider.ExportedFunctionDefinitions()[name]; !ok {
			missing = append(missing, mod+"#"+name)
		}
	}
	return missing
}

func (m *WazeroModule) Instantiate(ctx context.Context) (*WazeroInstance, error) {
	return m.InstantiateWithConfig(ctx, nil)
}

// InstantiateWithConfig creates an instance with custom configuration.
// Start functions are not run; callers invoke "_start" explicitly.
func (m *WazeroModule) InstantiateWithConfig(ctx context.Context, cfg *InstanceConfig) (*WazeroInstance, error) {
	if missing := m.missingImports(); len(missing) > 0 {
		return nil, errors.NewMissingImportsError(missing)
	}

	modConfig := wazero.NewModuleConfig().WithStartFunctions()
	if cfg != nil && cfg.Name != "" {
		modConfig = modConfig.WithName(cfg.Name)
	} else {
		modConfig = modConfig.WithName("") // anonymous for parallel instantiation
	}
	if cfg != nil {
		if cfg.Stdout != nil {
			modConfig = modConfig.WithStdout(cfg.Stdout)
		}
		if cfg.Stderr != nil {
			modConfig = modConfig.WithStderr(cfg.Stderr)
		}
		if len(cfg.Args) > 0 {
			modConfig = modConfig.WithArgs(cfg.Args...)
		}
	}

	instance, err := m.runtime.InstantiateModule(ctx, m.compiled, modConfig)
	if err != nil {
		return nil, fmt.Errorf("instantiate failed: %w", err)
	}

	wazInst := &WazeroInstance{
		module:    m,
		instance:  instance,
		funcCache: make(map[string]api.Function),
	}
	if mem := instance.Memory(); mem != nil {
		wazInst.memory = &WazeroMemory{mem: mem}
	}

	Logger().Debug("instantiated module",
		zap.Int("exports", len(m.compiled.ExportedFunctions())))
	return wazInst, nil
}

// Close releases the compiled code. Instances created from the module stay usable.
func (m *WazeroModule) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}

// WazeroInstance is a running WASM instance.
// It is NOT safe for concurrent use from multiple goroutines.
// Each goroutine should have its own Instance, or access must be synchronized externally.
type WazeroInstance struct {
	instance  api.Module
	memory    *WazeroMemory
	funcCache map[string]api.Function
	module    *WazeroModule
	cacheMu   sync.RWMutex
}

// ExportedFunction returns an exported function by name, or nil if the
// instance does not export one.
func (i *WazeroInstance) ExportedFunction(name string) api.Function {
	if i.Closed() {
		return nil
	}

	i.cacheMu.RLock()
	fn, ok := i.funcCache[name]
	i.cacheMu.RUnlock()
	if ok {
		return fn
	}

	fn = i.instance.ExportedFunction(name)
	if fn == nil {
		return nil
	}

	i.cacheMu.Lock()
	i.funcCache[name] = fn
	i.cacheMu.Unlock()
	return fn
}

// Memory returns the instance's linear memory, or nil if it has none.
func (i *WazeroInstance) Memory() *WazeroMemory {
	return i.memory
}

// MemorySize returns the current linear memory size in bytes, or 0 if no memory.
func (i *WazeroInstance) MemorySize() uint32 {
	if i.memory == nil {
		return 0
	}
	return i.memory.Size()
}

func (i *WazeroInstance) Close(ctx context.Context) error {
	var err error
	if i.instance != nil {
		err = i.instance.Close(ctx)
		i.instance = nil
	}
	i.cacheMu.Lock()
	i.funcCache = nil
	i.cacheMu.Unlock()
	i.memory = nil
	return err
}

// Closed reports whether the instance was closed, either by Close or by
// the guest exiting.
func (i *WazeroInstance) Closed() bool {
	return i.instance == nil || i.instance.IsClosed()
}

// WazeroMemory wraps wazero memory to implement threadcall.Memory
type WazeroMemory struct {
	mem api.Memory
}

func (m *WazeroMemory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, fmt.Errorf("read out of bounds: offset=%d, length=%d", offset, length)
	}
	return data, nil
}

func (m *WazeroMemory) Write(offset uint32, data []byte) error {
	ok := m.mem.Write(offset, data)
	if !ok {
		return fmt.Errorf("write out of bounds: offset=%d, length=%d", offset, len(data))
	}
	return nil
}

func (m *WazeroMemory) ReadU32(offset uint32) (uint32, error) {
	val, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, fmt.Errorf("read out of bounds")
	}
	return val, nil
}

func (m *WazeroMemory) WriteU32(offset uint32, value uint32) error {
	ok := m.mem.WriteUint32Le(offset, value)
	if !ok {
		return fmt.Errorf("write out of bounds")
	}
	return nil
}

func (m *WazeroMemory) Size() uint32 {
	if m.mem == nil {
		return 0
	}
	return m.mem.Size()
}

// Compile-time check that WazeroMemory implements threadcall.Memory and MemorySizer
var _ threadcall.Memory = (*WazeroMemory)(nil)
var _ threadcall.MemorySizer = (*WazeroMemory)(nil)
