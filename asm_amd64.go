package hotpatch

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"golang.org/x/arch/x86/x86asm"
)

// disassemble lists the instructions in code, which is assumed to live at
// base. Bytes that don't decode (usually an instruction cut off at the end
// of code) are printed raw.
func disassemble(code []byte, base uintptr) string {
	var buf bytes.Buffer

	for i := 0; i < len(code); {
		instruction, err := x86asm.Decode(code[i:], 64)

		// Truncated input can decode as a bare prefix with no opcode.
		if err != nil || instruction.Op == 0 {
			fmt.Fprintf(&buf, "0x%08x\t%-20s\t(bad)\n", base+uintptr(i), hex.EncodeToString(code[i:]))
			break
		}
		fmt.Fprintf(&buf, "0x%08x\t%-20s\t%s\n", base+uintptr(i), hex.EncodeToString(code[i:i+instruction.Len]), instruction.String())

		i += instruction.Len
	}

	return buf.String()
}
