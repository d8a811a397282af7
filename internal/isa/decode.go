package isa

import "github.com/shuklaayush/rvr/internal/rvrerr"

// Decode reads the instruction at pc from mem (the full guest byte image,
// already windowed by the caller) and returns the decoded record plus the
// registry used for 32-bit dispatch. It inspects the low two bits of the
// first half-word to distinguish 16-bit compressed from 32-bit base
// encodings.
func Decode(mem []byte, pc uint64, xlen Xlen, reg *Registry) (Instr, error) {
	if pc+2 > uint64(len(mem)) {
		return Instr{}, rvrerr.IllegalInstruction(pc, nil)
	}
	lo := uint16(mem[pc]) | uint16(mem[pc+1])<<8

	if lo&0x3 != 0x3 {
		if !reg.Admitted(ExtC) {
			return Instr{}, rvrerr.UnsupportedExtension(pc, uint32(lo))
		}
		return decodeCompressed(lo, pc, xlen)
	}

	if pc+4 > uint64(len(mem)) {
		return Instr{}, rvrerr.IllegalInstruction(pc, mem[pc:])
	}
	w := uint32(mem[pc]) | uint32(mem[pc+1])<<8 | uint32(mem[pc+2])<<16 | uint32(mem[pc+3])<<24

	entry, ok := reg.Lookup(w)
	if !ok {
		return Instr{}, rvrerr.IllegalInstruction(pc, mem[pc:pc+4])
	}
	return entry.Decode(w, pc, xlen)
}
