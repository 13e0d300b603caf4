//go:build unix

package hotpatch

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// scratch maps size bytes of INT3 to patch in place of real code.
func scratch(t *testing.T, size int) []byte {
	t.Helper()

	buf, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	require.NoError(t, err)
	t.Cleanup(func() {
		unix.Munmap(buf)
	})

	for i := range buf {
		buf[i] = 0xcc
	}
	return buf
}

func baseOf(buf []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
}
