//go:build (linux || darwin) && (amd64 || arm64)

package hotpatch

import (
	"fmt"

	"github.com/ebitengine/purego"
)

// DLLoader loads shared objects with dlopen. Modules are opened with
// RTLD_GLOBAL, so their symbols are also visible to global lookups.
type DLLoader struct{}

func (DLLoader) Open(path string) (Module, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, path, err)
	}
	return &dlModule{path: path, dlSymbols: dlSymbols(handle)}, nil
}

// dlSymbols looks names up with dlsym.
type dlSymbols uintptr

func (h dlSymbols) Lookup(name string) (uintptr, error) {
	addr, err := purego.Dlsym(uintptr(h), name)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrSymbolNotFound, name, err)
	}
	if addr == 0 {
		return 0, fmt.Errorf("%w: %s", ErrSymbolNotFound, name)
	}
	return addr, nil
}

type dlModule struct {
	dlSymbols
	path string
}

func (m *dlModule) Path() string {
	return m.path
}

func (m *dlModule) Close() error {
	return purego.Dlclose(uintptr(m.dlSymbols))
}

// processSymbols searches every object loaded into the process, like
// dlsym(RTLD_DEFAULT, name).
func processSymbols() SymbolTable {
	return dlSymbols(purego.RTLD_DEFAULT)
}
