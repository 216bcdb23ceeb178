package runtime

import (
	"context"
	"os"

	"github.com/wippyai/wasm-threadcall/engine"
	"github.com/wippyai/wasm-threadcall/errors"
)

type Runtime struct {
	engine *engine.WazeroEngine
	hosts  *HostRegistry
	wasi   *WASIConfig
}

// New creates a runtime with default configuration and no host functions.
func New(ctx context.Context) (*Runtime, error) {
	return NewBuilder().Build(ctx)
}

// Builder configures a Runtime. Host functions can only be registered here:
// they are bound when Build runs and cannot change afterwards.
type Builder struct {
	err    error
	hosts  *HostRegistry
	wasi   *WASIConfig
	config engine.Config
}

func NewBuilder() *Builder {
	return &Builder{hosts: NewHostRegistry()}
}

// WithMemoryLimitPages caps each instance's linear memory, in 64KB pages.
func (b *Builder) WithMemoryLimitPages(pages uint32) *Builder {
	b.config.MemoryLimitPages = pages
	return b
}

// WithInterpreter selects the interpreter instead of the compiler.
func (b *Builder) WithInterpreter() *Builder {
	b.config.Interpreter = true
	return b
}

// WithCloseOnContextDone makes calls stop when their context is done.
func (b *Builder) WithCloseOnContextDone() *Builder {
	b.config.CloseOnContextDone = true
	return b
}

// RegisterHostFunction exports fn to guests as module#name.
// The first registration error is reported by Build.
func (b *Builder) RegisterHostFunction(module, name string, fn any) *Builder {
	if b.err == nil {
		b.err = b.hosts.RegisterFunc(module, name, fn)
	}
	return b
}

// RegisterHost exports all of h's methods. See HostRegistry.RegisterHost.
func (b *Builder) RegisterHost(h Host) *Builder {
	if b.err == nil {
		b.err = b.hosts.RegisterHost(h)
	}
	return b
}

func (b *Builder) Build(ctx context.Context) (*Runtime, error) {
	if b.err != nil {
		return nil, b.err
	}

	eng, err := engine.NewWazeroEngineWithConfig(ctx, &b.config)
	if err != nil {
		return nil, errors.Load("create engine", err)
	}

	if b.wasi != nil {
		if err := eng.InitWASI(ctx); err != nil {
			eng.Close(ctx)
			return nil, errors.Wrap(errors.PhaseHost, errors.KindRegistration, err, "init WASI")
		}
	}

	if err := b.hosts.bind(ctx, eng); err != nil {
		eng.Close(ctx)
		return nil, err
	}

	return &Runtime{
		engine: eng,
		hosts:  b.hosts,
		wasi:   b.wasi,
	}, nil
}

// Close releases all runtime resources, closing every module and instance
// created from it.
func (r *Runtime) Close(ctx context.Context) error {
	return r.engine.Close(ctx)
}

func (r *Runtime) Hosts() *HostRegistry {
	return r.hosts
}

// LoadModule compiles a core WebAssembly binary.
func (r *Runtime) LoadModule(ctx context.Context, wasm []byte) (*Module, error) {
	if len(wasm) == 0 {
		return nil, errors.InvalidInput(errors.PhaseLoad, "empty module binary")
	}

	wazeroModule, err := r.engine.LoadModule(ctx, wasm)
	if err != nil {
		return nil, errors.Load("load module", err)
	}

	return &Module{
		runtime:      r,
		wazeroModule: wazeroModule,
	}, nil
}

// LoadModuleFromFile reads and compiles the module at path.
func (r *Runtime) LoadModuleFromFile(ctx context.Context, path string) (*Module, error) {
	wasm, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load("read "+path, err)
	}
	mod, err := r.LoadModule(ctx, wasm)
	if err != nil {
		return nil, err
	}
	mod.path = path
	return mod, nil
}
