package isa

// mEntries returns the M-extension (multiply/divide) decode table, including
// the RV64-only *W forms gated on XLEN inside their decoders.
func mEntries() []DecodeEntry {
	return []DecodeEntry{
		{Mask: 0xfe00707f, Match: 0x02000033, Decode: decodeRegOp(OpMUL)},
		{Mask: 0xfe00707f, Match: 0x02001033, Decode: decodeRegOp(OpMULH)},
		{Mask: 0xfe00707f, Match: 0x02002033, Decode: decodeRegOp(OpMULHSU)},
		{Mask: 0xfe00707f, Match: 0x02003033, Decode: decodeRegOp(OpMULHU)},
		{Mask: 0xfe00707f, Match: 0x02004033, Decode: decodeRegOp(OpDIV)},
		{Mask: 0xfe00707f, Match: 0x02005033, Decode: decodeRegOp(OpDIVU)},
		{Mask: 0xfe00707f, Match: 0x02006033, Decode: decodeRegOp(OpREM)},
		{Mask: 0xfe00707f, Match: 0x02007033, Decode: decodeRegOp(OpREMU)},

		{Mask: 0xfe00707f, Match: 0x0200003b, Decode: decodeWidth64RegOp(OpMULW)},
		{Mask: 0xfe00707f, Match: 0x0200403b, Decode: decodeWidth64RegOp(OpDIVW)},
		{Mask: 0xfe00707f, Match: 0x0200503b, Decode: decodeWidth64RegOp(OpDIVUW)},
		{Mask: 0xfe00707f, Match: 0x0200603b, Decode: decodeWidth64RegOp(OpREMW)},
		{Mask: 0xfe00707f, Match: 0x0200703b, Decode: decodeWidth64RegOp(OpREMUW)},
	}
}
