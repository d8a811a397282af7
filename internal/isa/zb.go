package isa

// Bit-manipulation extensions (Zba, Zbb, Zbs, Zbkb).
// Binary forms reuse decodeRegOp; unary forms (population count, leading/
// trailing zero count, byte-reverse family) get their own helper since they
// only consume rs1.

func zbaEntries() []DecodeEntry {
	return []DecodeEntry{
		{Mask: 0xfe00707f, Match: 0x20002033, Decode: decodeRegOp(OpSH1ADD)},
		{Mask: 0xfe00707f, Match: 0x20004033, Decode: decodeRegOp(OpSH2ADD)},
		{Mask: 0xfe00707f, Match: 0x20006033, Decode: decodeRegOp(OpSH3ADD)},
		{Mask: 0xfe00707f, Match: 0x0800003b, Decode: gateXLEN64(decodeRegOp(OpADDUW))},
		{Mask: 0xfc00707f, Match: 0x0800101b, Decode: gateXLEN64(decodeShiftImmOp(OpSLLIUW))},
	}
}

func zbbEntries() []DecodeEntry {
	return []DecodeEntry{
		{Mask: 0xfff0707f, Match: 0x60001013, Decode: decodeUnaryOp(OpCLZ)},
		{Mask: 0xfff0707f, Match: 0x60101013, Decode: decodeUnaryOp(OpCTZ)},
		{Mask: 0xfff0707f, Match: 0x60201013, Decode: decodeUnaryOp(OpCPOP)},
		{Mask: 0xfff0707f, Match: 0x60401013, Decode: decodeUnaryOp(OpSEXTB)},
		{Mask: 0xfff0707f, Match: 0x60501013, Decode: decodeUnaryOp(OpSEXTH)},
		{Mask: 0xfe00707f, Match: 0x0a004033, Decode: decodeRegOp(OpMIN)},
		{Mask: 0xfe00707f, Match: 0x0a005033, Decode: decodeRegOp(OpMINU)},
		{Mask: 0xfe00707f, Match: 0x0a006033, Decode: decodeRegOp(OpMAX)},
		{Mask: 0xfe00707f, Match: 0x0a007033, Decode: decodeRegOp(OpMAXU)},
		{Mask: 0xfff0707f, Match: 0x0800403b, Decode: decodeRegOp(OpZEXTH)}, // zext.h (packw rd,rs1,x0 form, distinct funct7/rs2)
		{Mask: 0xfe00707f, Match: 0x60001033, Decode: decodeRegOp(OpROL)},
		{Mask: 0xfe00707f, Match: 0x60005033, Decode: decodeRegOp(OpROR)},
		{Mask: 0xfc00707f, Match: 0x60005013, Decode: decodeShiftImmOp(OpRORI)},
		{Mask: 0xfff0707f, Match: 0x28705013, Decode: decodeUnaryOp(OpORCB)},
		{Mask: 0xfff0707f, Match: 0x6b805013, Decode: decodeUnaryOp(OpREV8)},
		{Mask: 0xfe00707f, Match: 0x40007033, Decode: decodeRegOp(OpANDN)},
		{Mask: 0xfe00707f, Match: 0x40006033, Decode: decodeRegOp(OpORN)},
		{Mask: 0xfe00707f, Match: 0x40004033, Decode: decodeRegOp(OpXNOR)},
	}
}

func zbsEntries() []DecodeEntry {
	return []DecodeEntry{
		{Mask: 0xfe00707f, Match: 0x48001033, Decode: decodeRegOp(OpBCLR)},
		{Mask: 0xfe00707f, Match: 0x48005033, Decode: decodeRegOp(OpBEXT)},
		{Mask: 0xfe00707f, Match: 0x68001033, Decode: decodeRegOp(OpBINV)},
		{Mask: 0xfe00707f, Match: 0x28001033, Decode: decodeRegOp(OpBSET)},
	}
}

func zbkbEntries() []DecodeEntry {
	return []DecodeEntry{
		{Mask: 0xfe00707f, Match: 0x08004033, Decode: decodeRegOp(OpPACK)},
		{Mask: 0xfe00707f, Match: 0x08007033, Decode: decodeRegOp(OpPACKH)},
		{Mask: 0xfff0707f, Match: 0x68705013, Decode: decodeUnaryOp(OpBREV8)},
		{Mask: 0xfff0707f, Match: 0x08f01013, Decode: decodeUnaryOp(OpZIP)},
		{Mask: 0xfff0707f, Match: 0x08f05013, Decode: decodeUnaryOp(OpUNZIP)},
	}
}

func decodeUnaryOp(op Op) func(uint32, uint64, Xlen) (Instr, error) {
	return func(w uint32, pc uint64, xlen Xlen) (Instr, error) {
		return Instr{Op: op, PC: pc, Size: 4, Rd: uint8(fieldRd(w)), Rs1: uint8(fieldRs1(w))}, nil
	}
}
