package hotpatch

import "errors"

var (
	ErrSymbolNotFound  = errors.New("symbol not found")
	ErrModuleNotMapped = errors.New("module not mapped")

	ErrLedgerFull = errors.New("patch ledger is full")

	ErrProtectionDenied = errors.New("memory protection change denied")

	ErrLoad           = errors.New("unable to load patch module")
	ErrEmptyPath      = errors.New("empty patch module path")
	ErrNoModuleLoaded = errors.New("no patch module loaded")

	ErrInvalidReplacement = errors.New("invalid replacement address")
	ErrInvalidPatchID     = errors.New("invalid patch function identifier")
	ErrInvalidMainID      = errors.New("invalid main function name")
	ErrAlreadyPatched     = errors.New("target overlaps an existing patch")
	ErrUntrustedTarget    = errors.New("raw address targets are not allowed")

	ErrPlatformUnsupported = errors.New("platform not supported")
)

// Kind groups errors by what went wrong.
type Kind int

const (
	KindUnknown Kind = iota
	// KindResolution means a symbol, module or address could not be found.
	KindResolution
	// KindCapacity means the ledger has no room for another record.
	KindCapacity
	// KindProtection means the OS refused to make code writable.
	KindProtection
	// KindModule means a patch module could not be loaded.
	KindModule
	// KindPolicy means the request was refused before touching memory.
	KindPolicy
	// KindPlatform means the OS or CPU is not supported.
	KindPlatform
)

func (k Kind) String() string {
	switch k {
	case KindResolution:
		return "resolution"
	case KindCapacity:
		return "capacity"
	case KindProtection:
		return "protection"
	case KindModule:
		return "module"
	case KindPolicy:
		return "policy"
	case KindPlatform:
		return "platform"
	}
	return "unknown"
}

var errorKinds = []struct {
	err  error
	kind Kind
}{
	{ErrSymbolNotFound, KindResolution},
	{ErrModuleNotMapped, KindResolution},
	{ErrLedgerFull, KindCapacity},
	{ErrProtectionDenied, KindProtection},
	{ErrLoad, KindModule},
	{ErrEmptyPath, KindModule},
	{ErrInvalidReplacement, KindPolicy},
	{ErrInvalidPatchID, KindPolicy},
	{ErrInvalidMainID, KindPolicy},
	{ErrNoModuleLoaded, KindPolicy},
	{ErrAlreadyPatched, KindPolicy},
	{ErrUntrustedTarget, KindPolicy},
	{ErrPlatformUnsupported, KindPlatform},
}

// KindOf returns the Kind of an error returned by this package, or
// KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for _, ek := range errorKinds {
		if errors.Is(err, ek.err) {
			return ek.kind
		}
	}
	return KindUnknown
}
