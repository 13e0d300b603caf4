package hotpatch

// Module is a loaded patch module.
type Module interface {
	SymbolTable

	// Path returns the file the module was loaded from.
	Path() string

	// Close releases the module handle. Patches pointing into the module
	// are not reverted.
	Close() error
}

// Loader loads patch modules.
type Loader interface {
	Open(path string) (Module, error)
}

// LoaderFunc adapts a function to a Loader.
type LoaderFunc func(path string) (Module, error)

func (f LoaderFunc) Open(path string) (Module, error) {
	return f(path)
}
