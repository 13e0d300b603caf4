//go:build unix

package hotpatch

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	protR   = unix.PROT_READ
	protRW  = unix.PROT_READ | unix.PROT_WRITE
	protRX  = unix.PROT_READ | unix.PROT_EXEC
	protRWX = unix.PROT_READ | unix.PROT_WRITE | unix.PROT_EXEC
)

// mprotect changes the protection of every page touched by [addr, addr+n).
func mprotect(addr uintptr, n int, flags int) error {
	start, length := pageSpan(addr, n, unix.Getpagesize())

	// Convert the memory region to a byte slice for mprotect.
	region := unsafe.Slice((*byte)(unsafe.Pointer(start)), length)

	if err := unix.Mprotect(region, flags); err != nil {
		return fmt.Errorf("%w: %#x+%d: %w", ErrProtectionDenied, start, length, err)
	}
	return nil
}
