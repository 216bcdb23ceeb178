package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/wasm-threadcall/engine"
	"github.com/wippyai/wasm-threadcall/pthread"
	"github.com/wippyai/wasm-threadcall/runtime"
)

type options struct {
	wasmFile   string
	funcName   string
	args       []string
	wasiArgv   []string
	stackSize  int
	maxThreads int
	list       bool
	useWASI    bool
}

func main() {
	var (
		wasmFile    = flag.String("wasm", "", "Path to core wasm module")
		funcName    = flag.String("func", "", "Function to call (optional)")
		argStr      = flag.String("args", "", "Call arguments, comma-separated (type:value or value)")
		stackSize   = flag.Int("stack", 0, "Run load, instantiate and call on one worker with this stack budget in bytes")
		maxThreads  = flag.Int("max-threads", 0, "Limit on concurrently live worker threads (0 = default)")
		useWASI     = flag.Bool("wasi", false, "Provide WASI preview1 imports")
		wasiArgv    = flag.String("argv", "", "WASI CLI arguments (comma-separated)")
		list        = flag.Bool("list", false, "List exported functions and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Log worker thread and engine events to stderr")
	)
	flag.Parse()

	if *wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: run -wasm <file.wasm> [-func name] [-args 1,2] [-stack bytes] [-wasi]")
		fmt.Fprintln(os.Stderr, "       run -wasm <file.wasm> -list")
		fmt.Fprintln(os.Stderr, "       run -wasm <file.wasm> -i  (interactive mode)")
		os.Exit(1)
	}

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		pthread.SetLogger(logger.Named("pthread"))
		engine.SetLogger(logger.Named("engine"))
	}

	opts := options{
		wasmFile:   *wasmFile,
		funcName:   *funcName,
		args:       splitList(*argStr),
		wasiArgv:   splitList(*wasiArgv),
		stackSize:  *stackSize,
		maxThreads: *maxThreads,
		list:       *list,
		useWASI:    *useWASI,
	}
	if opts.maxThreads > 0 {
		pthread.SetMaxThreads(opts.maxThreads)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// session is what one run leaves behind for printing.
type session struct {
	stdout  bytes.Buffer
	stderr  bytes.Buffer
	exports []runtime.Export
	results []runtime.Value
	called  string
}

func newRuntime(ctx context.Context, opts options, s *session) (*runtime.Runtime, error) {
	b := runtime.NewBuilder()
	if opts.useWASI {
		argv := append([]string{opts.wasmFile}, opts.wasiArgv...)
		b = b.WithWASI(runtime.WASIConfig{Stdout: &s.stdout, Stderr: &s.stderr, Args: argv})
	}
	return b.Build(ctx)
}

func run(opts options) error {
	ctx := context.Background()
	s := &session{}

	var err error
	if opts.stackSize > 0 {
		// Free form: the whole sequence runs on a single worker thread.
		_, err = pthread.Call(opts.stackSize, func() (struct{}, error) {
			return struct{}{}, execute(ctx, opts, s, false)
		})
	} else {
		err = execute(ctx, opts, s, true)
	}

	printSession(opts, s)
	return err
}

// execute loads, instantiates and calls. With bridged set, only the call
// itself goes through CallPThread.
func execute(ctx context.Context, opts options, s *session, bridged bool) error {
	rt, err := newRuntime(ctx, opts, s)
	if err != nil {
		return fmt.Errorf("create runtime: %w", err)
	}
	defer rt.Close(ctx)

	mod, err := rt.LoadModuleFromFile(ctx, opts.wasmFile)
	if err != nil {
		return err
	}
	s.exports = mod.Exports()

	if opts.list {
		return nil
	}

	name := opts.funcName
	if name == "" {
		name = pickEntryPoint(s.exports)
		if name == "" {
			return fmt.Errorf("no function specified and no common entry point found; use -func")
		}
	}

	inst, err := mod.Instantiate(ctx)
	if err != nil {
		return fmt.Errorf("instantiate: %w", err)
	}
	defer inst.Close(ctx)

	fn, err := inst.ExportedFunction(name)
	if err != nil {
		return err
	}
	params, err := runtime.ParseArgs(fn.ParamTypes(), opts.args)
	if err != nil {
		return fmt.Errorf("arguments for %s: %w", name, err)
	}

	s.called = name
	if bridged {
		s.results, err = fn.CallPThread(ctx, inst, params)
	} else {
		s.results, err = fn.Call(ctx, inst, params)
	}
	if err != nil {
		return fmt.Errorf("call %s: %w", name, err)
	}
	return nil
}

func pickEntryPoint(exports []runtime.Export) string {
	for _, want := range []string{"_start", "run", "main"} {
		for _, e := range exports {
			if e.Name == want {
				return want
			}
		}
	}
	if len(exports) == 1 {
		return exports[0].Name
	}
	return ""
}

func printSession(opts options, s *session) {
	fmt.Printf("Module: %s\n", opts.wasmFile)
	if s.exports != nil {
		fmt.Printf("\nExported functions:\n")
		for _, e := range s.exports {
			fmt.Printf("  %s\n", formatExport(e))
		}
	}

	if s.called != "" {
		mode := fmt.Sprintf("worker thread, stack %d", pthread.DefaultStackSize())
		if opts.stackSize > 0 {
			mode = fmt.Sprintf("single worker for the whole run, stack %d", opts.stackSize)
		}
		fmt.Printf("\nCalled %s (%s)\n", s.called, mode)
		if s.results != nil {
			fmt.Printf("Result: %s\n", formatValues(s.results))
		}
	}

	if s.stdout.Len() > 0 {
		fmt.Printf("\n--- stdout ---\n%s", s.stdout.String())
	}
	if s.stderr.Len() > 0 {
		fmt.Printf("\n--- stderr ---\n%s", s.stderr.String())
	}
}

func formatExport(e runtime.Export) string {
	params := make([]string, len(e.Params))
	for i, p := range e.Params {
		params[i] = fmt.Sprintf("arg%d: %s", i, p)
	}
	out := e.Name + "(" + strings.Join(params, ", ") + ")"
	if len(e.Results) > 0 {
		results := make([]string, len(e.Results))
		for i, r := range e.Results {
			results[i] = r.String()
		}
		out += " -> " + strings.Join(results, ", ")
	}
	return out
}

func formatValues(vs []runtime.Value) string {
	if len(vs) == 0 {
		return "()"
	}
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}
