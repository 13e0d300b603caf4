package hotpatch

import (
	"fmt"
	"unsafe"

	"go.uber.org/zap"
)

// Trampoline encodes an unconditional jump for one CPU architecture.
type Trampoline interface {
	// Build returns machine code that transfers control to dest. The
	// result is always Len() bytes long.
	Build(dest uintptr) []byte

	// Len returns the number of bytes Build writes over a target.
	Len() int
}

// pageSpan returns the page-aligned start and length of the pages that
// contain [addr, addr+n).
func pageSpan(addr uintptr, n int, pageSize int) (uintptr, int) {
	ps := uintptr(pageSize)

	// Round address down to page boundary.
	start := addr &^ (ps - 1)

	// Round the end up to cover complete pages.
	end := (addr + uintptr(n) + ps - 1) &^ (ps - 1)

	return start, int(end - start)
}

// codeAt returns the n bytes of process memory at addr.
func codeAt(addr uintptr, n int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), n)
}

// install overwrites the entry of target with a jump to replacement. When
// record is set the bytes being replaced are added to the ledger first.
//
// Nothing is written unless every check passes.
func (e *Engine) install(target, replacement uintptr, record bool) error {
	if replacement == 0 || replacement == target {
		return fmt.Errorf("%w: %#x -> %#x", ErrInvalidReplacement, target, replacement)
	}

	n := e.tramp.Len()
	if record {
		if e.ledger.full() {
			return fmt.Errorf("%w: %d records", ErrLedgerFull, e.ledger.cap())
		}
		if e.ledger.covers(target, n) {
			return fmt.Errorf("%w: %#x", ErrAlreadyPatched, target)
		}
	}

	code := e.tramp.Build(replacement)

	// Pages stay writable after this unless transient protection is on, so
	// restoring can write without changing protection again.
	err := e.protect(target, n, protRWX)
	if err != nil {
		return err
	}

	if record {
		if _, err := e.ledger.record(target, codeAt(target, n)); err != nil {
			return err
		}
	}

	e.logCode("overwriting", target, n)
	copy(codeAt(target, n), code)
	e.logCode("installed", target, n)

	if e.transient {
		if err := e.protect(target, n, protRX); err != nil {
			e.logger.Warn("unable to re-protect patched code", zap.Uintptr("addr", target), zap.Error(err))
		}
	}

	return nil
}

// restoreCode writes original bytes back for the ledger.
func (e *Engine) restoreCode(addr uintptr, original []byte) error {
	n := len(original)
	if e.transient {
		if err := e.protect(addr, n, protRWX); err != nil {
			return err
		}
	}

	copy(codeAt(addr, n), original)

	if e.transient {
		if err := e.protect(addr, n, protRX); err != nil {
			e.logger.Warn("unable to re-protect restored code", zap.Uintptr("addr", addr), zap.Error(err))
		}
	}
	return nil
}

func (e *Engine) logCode(msg string, addr uintptr, n int) {
	if !e.logger.Core().Enabled(zap.DebugLevel) {
		return
	}
	e.logger.Debug(msg, zap.Uintptr("addr", addr), zap.String("code", disassemble(codeAt(addr, n), addr)))
}
