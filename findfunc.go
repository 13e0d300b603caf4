package hotpatch

import (
	"reflect"
	"runtime"
	_ "unsafe"
)

type funcInfo struct {
	*_func
	datap *moduledata
}

type _func struct {
	entryOff uint32 // start pc, as offset from moduledata.text
	nameOff  int32  // function name, as index into moduledata.funcnametab.

	args        int32
	deferreturn uint32

	pcsp      uint32
	pcfile    uint32
	pcln      uint32
	npcdata   uint32
	cuOffset  uint32
	startLine int32
	funcID    uint8
	flag      uint8
	_         [1]byte
	nfuncdata uint8
}

// moduledata is the head of the runtime's layout of the executable image.
// It must match cmd/link/internal/ld/symtab.go up to the last field used.
type moduledata struct {
	pcHeader     uintptr
	funcnametab  []byte
	cutab        []uint32
	filetab      []byte
	pctab        []byte
	pclntable    []byte
	ftab         []functab
	findfunctab  uintptr
	minpc, maxpc uintptr

	text, etext uintptr

	// Struct continues, omitting unused fields.
}

type functab struct {
	entryoff uint32 // relative to runtime.text
	funcoff  uint32
}

//go:linkname findfunc runtime.findfunc
func findfunc(pc uintptr) funcInfo

// runtimeFuncSymbols lists every function the runtime knows about in the
// module that contains this package, by entry address. It works on stripped
// binaries, where the ELF symbol table is gone but the runtime's own function
// table is not.
func runtimeFuncSymbols() map[string]uintptr {
	syms := map[string]uintptr{}

	info := findfunc(reflect.ValueOf(symtabAnchor).Pointer())
	if info._func == nil || info.datap == nil {
		return syms
	}
	datap := info.datap

	for _, ft := range datap.ftab {
		entry := datap.text + uintptr(ft.entryoff)

		// The last ftab entry marks the end of text.
		fn := runtime.FuncForPC(entry)
		if fn == nil || fn.Entry() != entry {
			continue
		}
		if _, dup := syms[fn.Name()]; !dup {
			syms[fn.Name()] = entry
		}
	}

	return syms
}
