package isa

// zicondEntries returns the two Zicond conditional-zero operations, encoded
// as OP-form instructions under a funct7/funct3 pair the base I entries do
// not use.
func zicondEntries() []DecodeEntry {
	return []DecodeEntry{
		{Mask: 0xfe00707f, Match: 0x0e005033, Decode: decodeRegOp(OpCZEROEQZ)},
		{Mask: 0xfe00707f, Match: 0x0e007033, Decode: decodeRegOp(OpCZERONEZ)},
	}
}
