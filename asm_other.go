//go:build !amd64

package hotpatch

import (
	"encoding/hex"
	"fmt"
)

func disassemble(code []byte, base uintptr) string {
	return fmt.Sprintf("0x%08x\t%s\n", base, hex.EncodeToString(code))
}
