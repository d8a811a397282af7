package isa

// Instr is the decoded instruction record: opcode identity, operand
// fields, the guest PC, and the encoded instruction width. It is
// transient: the decoder and lifter pass it by value and discard it once
// lifted.
type Instr struct {
	Op    Op
	PC    uint64
	Size  uint8 // 2 (compressed) or 4
	Rd    uint8
	Rs1   uint8
	Rs2   uint8
	Imm   int64
	Shamt uint8
	Csr   uint16
	Aq    bool
	Rl    bool
}

// DecodeEntry is one (mask, match, decoder) row in an extension's
// contribution to the registry.
type DecodeEntry struct {
	Extension Extension
	Mask      uint32
	Match     uint32
	Decode    func(w uint32, pc uint64, xlen Xlen) (Instr, error)
}
