package hotpatch

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Engine applies and restores patches in the current process. It holds at
// most one loaded patch module and a ledger of the bytes each recorded patch
// replaced.
//
// An Engine is not safe for concurrent use. Patching is expected to be rare
// and driven from a single administrative goroutine.
type Engine struct {
	tramp    Trampoline
	ledger   *ledger
	resolver Resolver
	loader   Loader
	global   SymbolTable
	module   Module
	logger   *zap.Logger

	// protect changes page protection, normally mprotect.
	protect func(addr uintptr, n int, flags int) error

	transient      bool
	requireTrusted bool
}

// New returns an Engine for the current process. On anything but Linux on
// amd64 every operation fails with ErrPlatformUnsupported.
func New(opts ...Option) *Engine {
	cfg := config{
		logger:   zap.NewNop(),
		capacity: DefaultCapacity,
		loader:   DLLoader{},
		mappings: readSelfMappings,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.global == nil {
		cfg.global = chainTable{&exeSymbols{}, processSymbols()}
	}

	var store byteStore = heapStore{}
	if cfg.sealed {
		store = &sealedStore{}
	}

	e := &Engine{
		resolver:       Resolver{Mappings: cfg.mappings},
		loader:         cfg.loader,
		global:         cfg.global,
		logger:         cfg.logger,
		protect:        mprotect,
		transient:      cfg.transient,
		requireTrusted: cfg.requireTrusted,
	}
	if platformSupported {
		e.tramp = hostTrampoline()
	}
	e.ledger = newLedger(cfg.capacity, store, e.restoreCode, cfg.logger)

	return e
}

// OpenPatch loads the patch module at path, closing the one loaded before
// it. Patches already installed stay installed.
func (e *Engine) OpenPatch(path string) error {
	if e.tramp == nil {
		return ErrPlatformUnsupported
	}

	e.closeModule()

	if path == "" {
		return ErrEmptyPath
	}

	m, err := e.loader.Open(path)
	if err != nil {
		if !errors.Is(err, ErrLoad) {
			err = fmt.Errorf("%w: %s: %w", ErrLoad, path, err)
		}
		return err
	}
	e.module = m

	e.logger.Info("patch module loaded", zap.String("path", path))
	return nil
}

// Patch redirects the function identifier names to replacement and records
// the overwritten bytes so Restore can undo it. identifier is resolved in
// the global scope.
func (e *Engine) Patch(identifier string, replacement uintptr) error {
	if e.tramp == nil {
		return ErrPlatformUnsupported
	}
	if replacement == 0 {
		return fmt.Errorf("%w: nil replacement for %s", ErrInvalidReplacement, identifier)
	}

	target, err := e.target(identifier, ScopeGlobal)
	if err != nil {
		return err
	}

	err = e.install(target.Addr, replacement, true)
	if err != nil {
		return fmt.Errorf("patching %s: %w", identifier, err)
	}

	e.logger.Info("patched",
		zap.String("target", identifier),
		zap.Uintptr("addr", target.Addr),
		zap.Stringer("source", target.Source),
		zap.Uintptr("replacement", replacement))
	return nil
}

// PatchModuleFunc redirects a function inside the loaded patch module to the
// main program's function mainName.
//
// patchID is a symbol in the module, an absolute address, or
// "0xOFFSET@name". The overwritten bytes are not recorded: Restore leaves
// this patch in place.
func (e *Engine) PatchModuleFunc(patchID, mainName string) error {
	if e.tramp == nil {
		return ErrPlatformUnsupported
	}
	if patchID == "" {
		return ErrInvalidPatchID
	}
	if mainName == "" {
		return ErrInvalidMainID
	}
	if e.module == nil {
		return ErrNoModuleLoaded
	}

	replacement, err := e.scope(ScopeGlobal).Lookup(mainName)
	if err != nil {
		return err
	}

	return e.patchModuleFunc(patchID, replacement)
}

// PatchModuleFuncAt is PatchModuleFunc with the replacement given as an
// address.
func (e *Engine) PatchModuleFuncAt(patchID string, replacement uintptr) error {
	if e.tramp == nil {
		return ErrPlatformUnsupported
	}
	if patchID == "" {
		return ErrInvalidPatchID
	}
	if e.module == nil {
		return ErrNoModuleLoaded
	}
	if replacement == 0 {
		return fmt.Errorf("%w: nil replacement for %s", ErrInvalidReplacement, patchID)
	}

	return e.patchModuleFunc(patchID, replacement)
}

func (e *Engine) patchModuleFunc(patchID string, replacement uintptr) error {
	target, err := e.target(patchID, ScopePatchModule)
	if err != nil {
		return err
	}

	err = e.install(target.Addr, replacement, false)
	if err != nil {
		return fmt.Errorf("patching %s: %w", patchID, err)
	}

	e.logger.Info("patched module function",
		zap.String("target", patchID),
		zap.Uintptr("addr", target.Addr),
		zap.Stringer("source", target.Source),
		zap.Uintptr("replacement", replacement))
	return nil
}

// Restore writes back every recorded patch, newest first, and closes the
// patch module. Calling it with nothing patched does nothing.
func (e *Engine) Restore() {
	if e.tramp == nil {
		return
	}

	n := e.ledger.len()
	if err := e.ledger.restoreAll(); err != nil {
		e.logger.Error("restore incomplete", zap.Error(err))
	}
	e.closeModule()

	if n > 0 {
		e.logger.Info("restored", zap.Int("patches", n))
	}
}

// Resolve returns the address identifier refers to in scope without
// patching anything.
func (e *Engine) Resolve(identifier string, scope Scope) (Target, error) {
	if e.tramp == nil {
		return Target{}, ErrPlatformUnsupported
	}
	if scope == ScopePatchModule && e.module == nil {
		return Target{}, ErrNoModuleLoaded
	}
	return e.resolver.Resolve(identifier, e.scope(scope))
}

// Inspect disassembles the code at identifier, covering twice the length of
// a trampoline.
func (e *Engine) Inspect(identifier string) (string, error) {
	if e.tramp == nil {
		return "", ErrPlatformUnsupported
	}

	target, err := e.target(identifier, ScopeGlobal)
	if err != nil {
		return "", err
	}

	return disassemble(codeAt(target.Addr, 2*e.tramp.Len()), target.Addr), nil
}

// Patched returns copies of the recorded patches, oldest first.
func (e *Engine) Patched() []Record {
	return e.ledger.snapshot()
}

// Module returns the path of the loaded patch module.
func (e *Engine) Module() (string, bool) {
	if e.module == nil {
		return "", false
	}
	return e.module.Path(), true
}

// target resolves the address of something about to be overwritten.
func (e *Engine) target(identifier string, scope Scope) (Target, error) {
	t, err := e.Resolve(identifier, scope)
	if err != nil {
		return Target{}, err
	}
	if e.requireTrusted && !t.Trusted() {
		return Target{}, fmt.Errorf("%w: %s (%v)", ErrUntrustedTarget, identifier, t.Source)
	}
	return t, nil
}

func (e *Engine) scope(scope Scope) SymbolTable {
	if scope == ScopePatchModule {
		if e.module == nil {
			return nil
		}
		return e.module
	}

	if e.module == nil {
		return e.global
	}
	return chainTable{e.global, e.module}
}

func (e *Engine) closeModule() {
	if e.module == nil {
		return
	}

	path := e.module.Path()
	if err := e.module.Close(); err != nil {
		e.logger.Warn("unable to close patch module", zap.String("path", path), zap.Error(err))
	}
	e.module = nil

	e.logger.Info("patch module closed", zap.String("path", path))
}
