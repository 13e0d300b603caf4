//go:build !unix

package hotpatch

const (
	protR = 1 << iota
	protRW
	protRX
	protRWX
)

func mprotect(addr uintptr, n int, flags int) error {
	return ErrPlatformUnsupported
}
