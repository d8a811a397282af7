package isa

// aEntries returns the A-extension (atomics) decode table: LR/SC and the
// nine AMO operations, each in .w (32-bit) and .d (64-bit, RV64-only) form.
func aEntries() []DecodeEntry {
	return []DecodeEntry{
		{Mask: 0xf9f0707f, Match: 0x1000202f, Decode: decodeLR(OpLRW)},
		{Mask: 0xf800707f, Match: 0x1800202f, Decode: decodeSC(OpSCW)},
		{Mask: 0xf9f0707f, Match: 0x1000302f, Decode: decodeWidth64LR(OpLRD)},
		{Mask: 0xf800707f, Match: 0x1800302f, Decode: decodeWidth64SC(OpSCD)},

		{Mask: 0xf800707f, Match: 0x0800202f, Decode: decodeAMO(OpAMOSWAPW)},
		{Mask: 0xf800707f, Match: 0x0000202f, Decode: decodeAMO(OpAMOADDW)},
		{Mask: 0xf800707f, Match: 0x2000202f, Decode: decodeAMO(OpAMOXORW)},
		{Mask: 0xf800707f, Match: 0x6000202f, Decode: decodeAMO(OpAMOANDW)},
		{Mask: 0xf800707f, Match: 0x4000202f, Decode: decodeAMO(OpAMOORW)},
		{Mask: 0xf800707f, Match: 0x8000202f, Decode: decodeAMO(OpAMOMINW)},
		{Mask: 0xf800707f, Match: 0xa000202f, Decode: decodeAMO(OpAMOMAXW)},
		{Mask: 0xf800707f, Match: 0xc000202f, Decode: decodeAMO(OpAMOMINUW)},
		{Mask: 0xf800707f, Match: 0xe000202f, Decode: decodeAMO(OpAMOMAXUW)},

		{Mask: 0xf800707f, Match: 0x0800302f, Decode: decodeWidth64AMO(OpAMOSWAPD)},
		{Mask: 0xf800707f, Match: 0x0000302f, Decode: decodeWidth64AMO(OpAMOADDD)},
		{Mask: 0xf800707f, Match: 0x2000302f, Decode: decodeWidth64AMO(OpAMOXORD)},
		{Mask: 0xf800707f, Match: 0x6000302f, Decode: decodeWidth64AMO(OpAMOANDD)},
		{Mask: 0xf800707f, Match: 0x4000302f, Decode: decodeWidth64AMO(OpAMOORD)},
		{Mask: 0xf800707f, Match: 0x8000302f, Decode: decodeWidth64AMO(OpAMOMIND)},
		{Mask: 0xf800707f, Match: 0xa000302f, Decode: decodeWidth64AMO(OpAMOMAXD)},
		{Mask: 0xf800707f, Match: 0xc000302f, Decode: decodeWidth64AMO(OpAMOMINUD)},
		{Mask: 0xf800707f, Match: 0xe000302f, Decode: decodeWidth64AMO(OpAMOMAXUD)},
	}
}

func decodeLR(op Op) func(uint32, uint64, Xlen) (Instr, error) {
	return func(w uint32, pc uint64, xlen Xlen) (Instr, error) {
		aq, rl := amoFlags(w)
		return Instr{Op: op, PC: pc, Size: 4, Rd: uint8(fieldRd(w)), Rs1: uint8(fieldRs1(w)), Aq: aq, Rl: rl}, nil
	}
}

func decodeSC(op Op) func(uint32, uint64, Xlen) (Instr, error) {
	return func(w uint32, pc uint64, xlen Xlen) (Instr, error) {
		aq, rl := amoFlags(w)
		return Instr{Op: op, PC: pc, Size: 4, Rd: uint8(fieldRd(w)), Rs1: uint8(fieldRs1(w)), Rs2: uint8(fieldRs2(w)), Aq: aq, Rl: rl}, nil
	}
}

func decodeAMO(op Op) func(uint32, uint64, Xlen) (Instr, error) {
	return func(w uint32, pc uint64, xlen Xlen) (Instr, error) {
		aq, rl := amoFlags(w)
		return Instr{Op: op, PC: pc, Size: 4, Rd: uint8(fieldRd(w)), Rs1: uint8(fieldRs1(w)), Rs2: uint8(fieldRs2(w)), Aq: aq, Rl: rl}, nil
	}
}

func decodeWidth64LR(op Op) func(uint32, uint64, Xlen) (Instr, error) {
	inner := decodeLR(op)
	return gateXLEN64(inner)
}

func decodeWidth64SC(op Op) func(uint32, uint64, Xlen) (Instr, error) {
	inner := decodeSC(op)
	return gateXLEN64(inner)
}

func decodeWidth64AMO(op Op) func(uint32, uint64, Xlen) (Instr, error) {
	inner := decodeAMO(op)
	return gateXLEN64(inner)
}
