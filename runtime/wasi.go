package runtime

import "io"

// WASIConfig enables WASI preview1 for core modules built against
// wasi_snapshot_preview1. Nil writers discard output.
type WASIConfig struct {
	Stdout io.Writer
	Stderr io.Writer
	Args   []string
}

// WithWASI instantiates WASI preview1 on the runtime and applies cfg to
// every instance it creates.
func (b *Builder) WithWASI(cfg WASIConfig) *Builder {
	b.wasi = &cfg
	return b
}
