package hotpatch

import (
	"encoding/binary"

	"golang.org/x/arch/x86/x86asm"
)

const (
	opcodeMOV_imm_r = 0xb8 // MOV imm64, r64 (+ register number)
	opcodeJMPabs    = 0xff // JMP r/m64 (/4)

	regModeDirect = 3
	registerDX    = 2

	rdxJumpLen = 12
)

// rdxJump loads the destination into RDX and jumps through it:
//
//	MOVQ $dest, DX
//	JMP DX
//
// Go's register ABI passes integer arguments in AX, BX, CX, DI, SI and
// R8-R11 and keeps DX for the closure context, so DX is free on entry to any
// top-level Go function. It is not free in C code: the System V ABI passes
// the third argument in DX.
//
// A JMP rel32 would be shorter but can't reach a shared object mapped more
// than 2GB away from the executable.
type rdxJump struct{}

func (rdxJump) Len() int {
	return rdxJumpLen
}

func (rdxJump) Build(dest uintptr) []byte {
	buf := make([]byte, rdxJumpLen)
	i := 0

	// MOVQ <dest> DX
	buf[i] = byte(x86asm.PrefixREX) | byte(x86asm.PrefixREXW)
	i++
	buf[i] = opcodeMOV_imm_r + registerDX
	i++
	binary.LittleEndian.PutUint64(buf[i:], uint64(dest))
	i += 8

	// JMP DX
	buf[i] = opcodeJMPabs
	i++
	buf[i] = regModeDirect<<6 | 4<<3 | registerDX

	return buf
}

func hostTrampoline() Trampoline {
	return rdxJump{}
}
