//go:build !((linux || darwin) && (amd64 || arm64))

package hotpatch

import "fmt"

// DLLoader loads shared objects with dlopen, which isn't available here.
type DLLoader struct{}

func (DLLoader) Open(path string) (Module, error) {
	return nil, fmt.Errorf("%w: %s: %w", ErrLoad, path, ErrPlatformUnsupported)
}

func processSymbols() SymbolTable {
	return Symbols(nil)
}
