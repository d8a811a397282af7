package isa

// zicsrEntries returns the six CSR instructions. The register-vs-immediate
// source operand is distinguished at lift time by Rs1 (register form) vs
// Imm (immediate form, encoded in the rs1 field as a 5-bit unsigned value);
// both are decoded here, and decodeCsrImm reinterprets the rs1 field as the
// immediate per the RISC-V encoding.
func zicsrEntries() []DecodeEntry {
	return []DecodeEntry{
		{Mask: 0x707f, Match: 0x1073, Decode: decodeCsrReg(OpCSRRW)},
		{Mask: 0x707f, Match: 0x2073, Decode: decodeCsrReg(OpCSRRS)},
		{Mask: 0x707f, Match: 0x3073, Decode: decodeCsrReg(OpCSRRC)},
		{Mask: 0x707f, Match: 0x5073, Decode: decodeCsrImm(OpCSRRWI)},
		{Mask: 0x707f, Match: 0x6073, Decode: decodeCsrImm(OpCSRRSI)},
		{Mask: 0x707f, Match: 0x7073, Decode: decodeCsrImm(OpCSRRCI)},
	}
}

func decodeCsrReg(op Op) func(uint32, uint64, Xlen) (Instr, error) {
	return func(w uint32, pc uint64, xlen Xlen) (Instr, error) {
		return Instr{Op: op, PC: pc, Size: 4, Rd: uint8(fieldRd(w)), Rs1: uint8(fieldRs1(w)), Csr: csrNum(w)}, nil
	}
}

func decodeCsrImm(op Op) func(uint32, uint64, Xlen) (Instr, error) {
	return func(w uint32, pc uint64, xlen Xlen) (Instr, error) {
		return Instr{Op: op, PC: pc, Size: 4, Rd: uint8(fieldRd(w)), Imm: int64(fieldRs1(w)), Csr: csrNum(w)}, nil
	}
}
