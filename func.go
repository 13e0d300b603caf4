package hotpatch

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// PatchFunc redirects the Go function target to replacement. Both must be
// functions with the same signature. The overwritten bytes are recorded so
// Restore can undo it.
//
// replacement is entered without its closure context, so it must not
// capture variables. If target has been inlined at a call site, that call
// site is not affected. Add a noinline directive to work around it:
//
//	//go:noinline
//	func myfunc() {
//		...
//	}
func (e *Engine) PatchFunc(target, replacement any) error {
	if e.tramp == nil {
		return ErrPlatformUnsupported
	}

	tv := reflect.ValueOf(target)
	if tv.Kind() != reflect.Func || tv.IsNil() {
		return fmt.Errorf("%w: target is not a function, kind: %v", ErrInvalidPatchID, tv.Kind())
	}
	rv := reflect.ValueOf(replacement)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return fmt.Errorf("%w: replacement is not a function, kind: %v", ErrInvalidReplacement, rv.Kind())
	}
	if err := diffFuncs(tv.Type(), rv.Type()).err(); err != nil {
		return fmt.Errorf("%w: function signatures do not match: %w", ErrInvalidReplacement, err)
	}

	addr := tv.Pointer()
	err := e.install(addr, rv.Pointer(), true)
	if err != nil {
		return fmt.Errorf("patching %v: %w", tv.Type(), err)
	}

	e.logger.Info("patched function",
		zap.Stringer("type", tv.Type()),
		zap.Uintptr("addr", addr),
		zap.Uintptr("replacement", rv.Pointer()))
	return nil
}
