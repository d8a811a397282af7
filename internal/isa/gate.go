package isa

import "github.com/shuklaayush/rvr/internal/rvrerr"

// gateXLEN64 wraps a decoder so it fails with IllegalInstruction on an
// RV32 target, for opcodes whose encoding is only valid at XLEN=64.
func gateXLEN64(inner func(uint32, uint64, Xlen) (Instr, error)) func(uint32, uint64, Xlen) (Instr, error) {
	return func(w uint32, pc uint64, xlen Xlen) (Instr, error) {
		if xlen != XLEN64 {
			return Instr{}, rvrerr.IllegalInstruction(pc, encodedBytes(w))
		}
		return inner(w, pc, xlen)
	}
}
