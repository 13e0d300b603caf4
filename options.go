package hotpatch

import "go.uber.org/zap"

type config struct {
	logger         *zap.Logger
	capacity       int
	loader         Loader
	global         SymbolTable
	mappings       func() ([]Mapping, error)
	transient      bool
	sealed         bool
	requireTrusted bool
}

// Option configures an Engine.
type Option func(*config)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCapacity sets the maximum number of recorded patches. Values below 1
// are ignored.
func WithCapacity(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithLoader sets how patch modules are loaded. The default is DLLoader.
func WithLoader(l Loader) Option {
	return func(c *config) {
		c.loader = l
	}
}

// WithGlobalSymbols replaces the main program's symbol table. By default
// names are looked up in the executable's ELF symbol table, then with
// dlsym.
func WithGlobalSymbols(t SymbolTable) Option {
	return func(c *config) {
		c.global = t
	}
}

// WithMappings replaces the source of memory mappings used for
// "0xOFFSET@name" identifiers. The default reads /proc/self/maps.
func WithMappings(fn func() ([]Mapping, error)) Option {
	return func(c *config) {
		c.mappings = fn
	}
}

// WithTransientProtection makes patched pages read-only again after each
// write, instead of leaving them writable. Restoring makes them writable
// for the duration of the write.
func WithTransientProtection() Option {
	return func(c *config) {
		c.transient = true
	}
}

// WithSealedLedger keeps original bytes in their own mapping that is only
// writable while the ledger changes.
func WithSealedLedger() Option {
	return func(c *config) {
		c.sealed = true
	}
}

// WithRequireTrusted rejects targets given as raw addresses or module
// offsets with ErrUntrustedTarget. Only symbol names are accepted.
func WithRequireTrusted() Option {
	return func(c *config) {
		c.requireTrusted = true
	}
}
