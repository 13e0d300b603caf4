package hotpatch

import (
	"fmt"
	"regexp"
	"strconv"
)

// Scope selects the symbol table a name is looked up in.
type Scope int

const (
	// ScopeGlobal is the main program, plus the loaded patch module since
	// it is opened RTLD_GLOBAL.
	ScopeGlobal Scope = iota
	// ScopePatchModule is the loaded patch module only.
	ScopePatchModule
)

// Source says how a Target's address was found.
type Source int

const (
	// SourceSymbol came from a symbol table.
	SourceSymbol Source = iota
	// SourceAddress is an absolute address given as "0xADDR".
	SourceAddress
	// SourceModuleOffset is an offset into a mapped file given as
	// "0xOFFSET@name".
	SourceModuleOffset
)

func (s Source) String() string {
	switch s {
	case SourceSymbol:
		return "symbol"
	case SourceAddress:
		return "address"
	case SourceModuleOffset:
		return "module offset"
	}
	return fmt.Sprintf("Source(%d)", int(s))
}

// Target is a resolved patch location.
type Target struct {
	Addr   uintptr
	Source Source

	// Module is the path of the mapping a SourceModuleOffset target was
	// found in.
	Module string
}

// Trusted reports whether the address came from a symbol table. Raw
// addresses and offsets are used exactly as given.
func (t Target) Trusted() bool {
	return t.Source == SourceSymbol
}

var rawIdentifier = regexp.MustCompile(`^0x([0-9a-fA-F]{1,16})(?:@(.+))?$`)

// Resolver turns identifiers into addresses.
//
// An identifier is one of:
//
//	0x<hex>         an absolute address
//	0x<hex>@<name>  an offset from the start of the first executable mapping
//	                whose path contains name
//	anything else   a symbol name
type Resolver struct {
	// Mappings lists the memory mappings of the process.
	Mappings func() ([]Mapping, error)
}

// Resolve returns the address identifier refers to. Symbol names are looked
// up in scope.
func (r *Resolver) Resolve(identifier string, scope SymbolTable) (Target, error) {
	m := rawIdentifier.FindStringSubmatch(identifier)
	if m == nil {
		if scope == nil {
			return Target{}, fmt.Errorf("%w: %s", ErrSymbolNotFound, identifier)
		}
		addr, err := scope.Lookup(identifier)
		if err != nil {
			return Target{}, err
		}
		return Target{Addr: addr, Source: SourceSymbol}, nil
	}

	// At most 16 hex digits, so this can't fail.
	value, _ := strconv.ParseUint(m[1], 16, 64)

	module := m[2]
	if module == "" {
		return Target{Addr: uintptr(value), Source: SourceAddress}, nil
	}

	if r.Mappings == nil {
		return Target{}, fmt.Errorf("%w: %s", ErrModuleNotMapped, module)
	}
	maps, err := r.Mappings()
	if err != nil {
		return Target{}, fmt.Errorf("%w: %s: %w", ErrModuleNotMapped, module, err)
	}
	mapping, ok := FindExecutable(maps, module)
	if !ok {
		return Target{}, fmt.Errorf("%w: %s", ErrModuleNotMapped, module)
	}

	return Target{
		Addr:   mapping.Start + uintptr(value),
		Source: SourceModuleOffset,
		Module: mapping.Path,
	}, nil
}
