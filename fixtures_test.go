package hotpatch

import (
	"fmt"
	"reflect"
)

//go:noinline
func greet() string {
	return "hello"
}

//go:noinline
func greetFixed() string {
	return "patched"
}

//go:noinline
func sum(a, b int) int {
	return a + b
}

//go:noinline
func product(a, b int) int {
	return a * b
}

func addrOf(fn any) uintptr {
	return reflect.ValueOf(fn).Pointer()
}

func hexAddr(addr uintptr) string {
	return fmt.Sprintf("%#x", addr)
}

type fakeModule struct {
	path   string
	syms   Symbols
	closed bool
}

func (m *fakeModule) Lookup(name string) (uintptr, error) {
	return m.syms.Lookup(name)
}

func (m *fakeModule) Path() string {
	return m.path
}

func (m *fakeModule) Close() error {
	m.closed = true
	return nil
}

// fakeLoader opens modules from a fixed set of paths.
type fakeLoader struct {
	modules map[string]Symbols
	opened  []*fakeModule
}

func (l *fakeLoader) Open(path string) (Module, error) {
	syms, ok := l.modules[path]
	if !ok {
		return nil, fmt.Errorf("%s: cannot open shared object file: No such file or directory", path)
	}
	m := &fakeModule{path: path, syms: syms}
	l.opened = append(l.opened, m)
	return m, nil
}
