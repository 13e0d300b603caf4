package hotpatch

import (
	"debug/elf"
	"errors"
	"fmt"
	"os"
	"reflect"
	"runtime"
	"sync"
)

// SymbolTable maps symbol names to addresses in the current process.
type SymbolTable interface {
	// Lookup returns the address of name or an error wrapping
	// ErrSymbolNotFound.
	Lookup(name string) (uintptr, error)
}

// Symbols is a fixed SymbolTable.
type Symbols map[string]uintptr

func (s Symbols) Lookup(name string) (uintptr, error) {
	addr, ok := s[name]
	if !ok || addr == 0 {
		return 0, fmt.Errorf("%w: %s", ErrSymbolNotFound, name)
	}
	return addr, nil
}

// chainTable searches each table in order and returns the first match.
type chainTable []SymbolTable

func (c chainTable) Lookup(name string) (uintptr, error) {
	var firstErr error
	for _, table := range c {
		if table == nil {
			continue
		}
		addr, err := table.Lookup(name)
		if err == nil {
			return addr, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}

	if firstErr == nil {
		firstErr = fmt.Errorf("%w: %s", ErrSymbolNotFound, name)
	}
	return 0, firstErr
}

// exeSymbols is the function symbol table of the running executable, built
// the first time it is needed. Go functions are only listed in the ELF
// .symtab, dlsym can't find them. A stripped binary has no .symtab, so the
// runtime's function table is used instead.
type exeSymbols struct {
	once sync.Once
	syms map[string]uintptr
}

func (t *exeSymbols) Lookup(name string) (uintptr, error) {
	t.once.Do(t.load)
	return Symbols(t.syms).Lookup(name)
}

func (t *exeSymbols) load() {
	if syms := elfFuncSymbols(); len(syms) > 0 {
		t.syms = syms
		return
	}
	t.syms = runtimeFuncSymbols()
}

// elfFuncSymbols reads the executable's function symbols and moves them to
// their load addresses. It returns nil if the executable can't be read.
func elfFuncSymbols() map[string]uintptr {
	path, err := os.Executable()
	if err != nil {
		return nil
	}

	syms, err := readFuncSymbols(path)
	if err != nil {
		return nil
	}

	if slide := loadSlide(syms); slide != 0 {
		for name, addr := range syms {
			syms[name] = addr + slide
		}
	}
	return syms
}

// readFuncSymbols returns the link-time address of every defined function
// in the ELF file at path. A stripped file has no symbols and isn't an
// error.
func readFuncSymbols(path string) (map[string]uintptr, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	syms := map[string]uintptr{}

	all, err := f.Symbols()
	if err != nil {
		if errors.Is(err, elf.ErrNoSymbols) {
			return syms, nil
		}
		return nil, err
	}

	for _, s := range all {
		if elf.ST_TYPE(s.Info) != elf.STT_FUNC || s.Section == elf.SHN_UNDEF || s.Value == 0 {
			continue
		}
		if _, dup := syms[s.Name]; !dup {
			syms[s.Name] = uintptr(s.Value)
		}
	}

	return syms, nil
}

//go:noinline
func symtabAnchor() {}

// loadSlide returns how far a position-independent executable was moved
// from its link address, by comparing where symtabAnchor is now with where
// the symbol table says it should be.
func loadSlide(syms map[string]uintptr) uintptr {
	pc := reflect.ValueOf(symtabAnchor).Pointer()
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return 0
	}

	linked, ok := syms[fn.Name()]
	if !ok {
		return 0
	}
	return pc - linked
}
