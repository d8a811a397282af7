package isa

import "github.com/shuklaayush/rvr/internal/rvrerr"

// baseIEntries returns the RV32I decode table plus the RV64I-only widened
// opcodes, gated on XLEN inside their decode functions: decoding a
// width-sensitive opcode at XLEN=32 yields IllegalInstruction.
func baseIEntries() []DecodeEntry {
	return []DecodeEntry{
		{Mask: 0x7f, Match: 0x37, Decode: decodeLUI},
		{Mask: 0x7f, Match: 0x17, Decode: decodeAUIPC},
		{Mask: 0x7f, Match: 0x6f, Decode: decodeJAL},
		{Mask: 0x707f, Match: 0x67, Decode: decodeJALR},

		{Mask: 0x707f, Match: 0x63, Decode: decodeBranchOp(OpBEQ)},
		{Mask: 0x707f, Match: 0x1063, Decode: decodeBranchOp(OpBNE)},
		{Mask: 0x707f, Match: 0x4063, Decode: decodeBranchOp(OpBLT)},
		{Mask: 0x707f, Match: 0x5063, Decode: decodeBranchOp(OpBGE)},
		{Mask: 0x707f, Match: 0x6063, Decode: decodeBranchOp(OpBLTU)},
		{Mask: 0x707f, Match: 0x7063, Decode: decodeBranchOp(OpBGEU)},

		{Mask: 0x707f, Match: 0x03, Decode: decodeLoadOp(OpLB)},
		{Mask: 0x707f, Match: 0x1003, Decode: decodeLoadOp(OpLH)},
		{Mask: 0x707f, Match: 0x2003, Decode: decodeLoadOp(OpLW)},
		{Mask: 0x707f, Match: 0x4003, Decode: decodeLoadOp(OpLBU)},
		{Mask: 0x707f, Match: 0x5003, Decode: decodeLoadOp(OpLHU)},
		{Mask: 0x707f, Match: 0x6003, Decode: decodeWidth64LoadOp(OpLWU)},
		{Mask: 0x707f, Match: 0x3003, Decode: decodeWidth64LoadOp(OpLD)},

		{Mask: 0x707f, Match: 0x23, Decode: decodeStoreOp(OpSB)},
		{Mask: 0x707f, Match: 0x1023, Decode: decodeStoreOp(OpSH)},
		{Mask: 0x707f, Match: 0x2023, Decode: decodeStoreOp(OpSW)},
		{Mask: 0x707f, Match: 0x3023, Decode: decodeWidth64StoreOp(OpSD)},

		{Mask: 0x707f, Match: 0x13, Decode: decodeImmOp(OpADDI)},
		{Mask: 0x707f, Match: 0x2013, Decode: decodeImmOp(OpSLTI)},
		{Mask: 0x707f, Match: 0x3013, Decode: decodeImmOp(OpSLTIU)},
		{Mask: 0x707f, Match: 0x4013, Decode: decodeImmOp(OpXORI)},
		{Mask: 0x707f, Match: 0x6013, Decode: decodeImmOp(OpORI)},
		{Mask: 0x707f, Match: 0x7013, Decode: decodeImmOp(OpANDI)},
		{Mask: 0xfc00707f, Match: 0x1013, Decode: decodeShiftImmOp(OpSLLI)},
		{Mask: 0xfc00707f, Match: 0x5013, Decode: decodeShiftImmOp(OpSRLI)},
		{Mask: 0xfc00707f, Match: 0x40005013, Decode: decodeShiftImmOp(OpSRAI)},

		{Mask: 0xfe00707f, Match: 0x33, Decode: decodeRegOp(OpADD)},
		{Mask: 0xfe00707f, Match: 0x40000033, Decode: decodeRegOp(OpSUB)},
		{Mask: 0xfe00707f, Match: 0x1033, Decode: decodeRegOp(OpSLL)},
		{Mask: 0xfe00707f, Match: 0x2033, Decode: decodeRegOp(OpSLT)},
		{Mask: 0xfe00707f, Match: 0x3033, Decode: decodeRegOp(OpSLTU)},
		{Mask: 0xfe00707f, Match: 0x4033, Decode: decodeRegOp(OpXOR)},
		{Mask: 0xfe00707f, Match: 0x5033, Decode: decodeRegOp(OpSRL)},
		{Mask: 0xfe00707f, Match: 0x40005033, Decode: decodeRegOp(OpSRA)},
		{Mask: 0xfe00707f, Match: 0x6033, Decode: decodeRegOp(OpOR)},
		{Mask: 0xfe00707f, Match: 0x7033, Decode: decodeRegOp(OpAND)},

		{Mask: 0x707f, Match: 0x0f, Decode: decodeFence},
		{Mask: 0xffffffff, Match: 0x73, Decode: decodeECALL},
		{Mask: 0xffffffff, Match: 0x100073, Decode: decodeEBREAK},

		// RV64I-only widened immediate/reg ops, gated in their decoders.
		{Mask: 0x707f, Match: 0x1b, Decode: decodeWidth64ImmOp(OpADDIW)},
		{Mask: 0xfe00707f, Match: 0x101b, Decode: decodeWidth64ShiftImmOp(OpSLLIW)},
		{Mask: 0xfe00707f, Match: 0x501b, Decode: decodeWidth64ShiftImmOp(OpSRLIW)},
		{Mask: 0xfe00707f, Match: 0x4000501b, Decode: decodeWidth64ShiftImmOp(OpSRAIW)},
		{Mask: 0xfe00707f, Match: 0x3b, Decode: decodeWidth64RegOp(OpADDW)},
		{Mask: 0xfe00707f, Match: 0x4000003b, Decode: decodeWidth64RegOp(OpSUBW)},
		{Mask: 0xfe00707f, Match: 0x103b, Decode: decodeWidth64RegOp(OpSLLW)},
		{Mask: 0xfe00707f, Match: 0x503b, Decode: decodeWidth64RegOp(OpSRLW)},
		{Mask: 0xfe00707f, Match: 0x4000503b, Decode: decodeWidth64RegOp(OpSRAW)},
	}
}

func decodeLUI(w uint32, pc uint64, xlen Xlen) (Instr, error) {
	return Instr{Op: OpLUI, PC: pc, Size: 4, Rd: uint8(fieldRd(w)), Imm: immU(w)}, nil
}

func decodeAUIPC(w uint32, pc uint64, xlen Xlen) (Instr, error) {
	return Instr{Op: OpAUIPC, PC: pc, Size: 4, Rd: uint8(fieldRd(w)), Imm: immU(w)}, nil
}

func decodeJAL(w uint32, pc uint64, xlen Xlen) (Instr, error) {
	return Instr{Op: OpJAL, PC: pc, Size: 4, Rd: uint8(fieldRd(w)), Imm: immJ(w)}, nil
}

func decodeJALR(w uint32, pc uint64, xlen Xlen) (Instr, error) {
	return Instr{Op: OpJALR, PC: pc, Size: 4, Rd: uint8(fieldRd(w)), Rs1: uint8(fieldRs1(w)), Imm: immI(w)}, nil
}

func decodeBranchOp(op Op) func(uint32, uint64, Xlen) (Instr, error) {
	return func(w uint32, pc uint64, xlen Xlen) (Instr, error) {
		return Instr{Op: op, PC: pc, Size: 4, Rs1: uint8(fieldRs1(w)), Rs2: uint8(fieldRs2(w)), Imm: immB(w)}, nil
	}
}

func decodeLoadOp(op Op) func(uint32, uint64, Xlen) (Instr, error) {
	return func(w uint32, pc uint64, xlen Xlen) (Instr, error) {
		return Instr{Op: op, PC: pc, Size: 4, Rd: uint8(fieldRd(w)), Rs1: uint8(fieldRs1(w)), Imm: immI(w)}, nil
	}
}

func decodeWidth64LoadOp(op Op) func(uint32, uint64, Xlen) (Instr, error) {
	return gateXLEN64(decodeLoadOp(op))
}

func decodeStoreOp(op Op) func(uint32, uint64, Xlen) (Instr, error) {
	return func(w uint32, pc uint64, xlen Xlen) (Instr, error) {
		return Instr{Op: op, PC: pc, Size: 4, Rs1: uint8(fieldRs1(w)), Rs2: uint8(fieldRs2(w)), Imm: immS(w)}, nil
	}
}

func decodeWidth64StoreOp(op Op) func(uint32, uint64, Xlen) (Instr, error) {
	return gateXLEN64(decodeStoreOp(op))
}

func decodeImmOp(op Op) func(uint32, uint64, Xlen) (Instr, error) {
	return func(w uint32, pc uint64, xlen Xlen) (Instr, error) {
		return Instr{Op: op, PC: pc, Size: 4, Rd: uint8(fieldRd(w)), Rs1: uint8(fieldRs1(w)), Imm: immI(w)}, nil
	}
}

func decodeShiftImmOp(op Op) func(uint32, uint64, Xlen) (Instr, error) {
	return func(w uint32, pc uint64, xlen Xlen) (Instr, error) {
		return Instr{Op: op, PC: pc, Size: 4, Rd: uint8(fieldRd(w)), Rs1: uint8(fieldRs1(w)), Shamt: uint8(fieldShamt(w, xlen))}, nil
	}
}

func decodeRegOp(op Op) func(uint32, uint64, Xlen) (Instr, error) {
	return func(w uint32, pc uint64, xlen Xlen) (Instr, error) {
		return Instr{Op: op, PC: pc, Size: 4, Rd: uint8(fieldRd(w)), Rs1: uint8(fieldRs1(w)), Rs2: uint8(fieldRs2(w))}, nil
	}
}

func decodeWidth64ImmOp(op Op) func(uint32, uint64, Xlen) (Instr, error) {
	return gateXLEN64(decodeImmOp(op))
}

func decodeWidth64ShiftImmOp(op Op) func(uint32, uint64, Xlen) (Instr, error) {
	return func(w uint32, pc uint64, xlen Xlen) (Instr, error) {
		if xlen != XLEN64 {
			return Instr{}, rvrerr.IllegalInstruction(pc, encodedBytes(w))
		}
		// *W shift-immediates always use a 5-bit shamt, regardless of XLEN.
		return Instr{Op: op, PC: pc, Size: 4, Rd: uint8(fieldRd(w)), Rs1: uint8(fieldRs1(w)), Shamt: uint8((w >> 20) & 0x1f)}, nil
	}
}

func decodeWidth64RegOp(op Op) func(uint32, uint64, Xlen) (Instr, error) {
	return gateXLEN64(decodeRegOp(op))
}

func decodeFence(w uint32, pc uint64, xlen Xlen) (Instr, error) {
	return Instr{Op: OpFENCE, PC: pc, Size: 4}, nil
}

func decodeECALL(w uint32, pc uint64, xlen Xlen) (Instr, error) {
	return Instr{Op: OpECALL, PC: pc, Size: 4}, nil
}

func decodeEBREAK(w uint32, pc uint64, xlen Xlen) (Instr, error) {
	return Instr{Op: OpEBREAK, PC: pc, Size: 4}, nil
}

func encodedBytes(w uint32) []byte {
	return []byte{byte(w), byte(w >> 8), byte(w >> 16), byte(w >> 24)}
}
