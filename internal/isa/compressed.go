package isa

import "github.com/shuklaayush/rvr/internal/rvrerr"

// expandReg3 expands a compressed 3-bit register field (x8..x15) to its
// full 5-bit index.
func expandReg3(field uint16) uint8 { return uint8(field&0x7) + 8 }

func cQuadrant(hw uint16) uint16 { return hw & 0x3 }
func cFunct3(hw uint16) uint16   { return (hw >> 13) & 0x7 }
func cRdRs1(hw uint16) uint8     { return uint8((hw >> 7) & 0x1f) }
func cRs2(hw uint16) uint8       { return uint8((hw >> 2) & 0x1f) }

// decodeCompressed decodes a 16-bit RVC instruction into the same Instr
// record its 32-bit equivalent would produce, so the lifter needs no
// separate compressed path. F/D-extension compressed forms are
// out of scope (floating point is a non-goal) and fail as
// IllegalInstruction at this tier.
func decodeCompressed(hw uint16, pc uint64, xlen Xlen) (Instr, error) {
	switch cQuadrant(hw) {
	case 0:
		return decodeC0(hw, pc, xlen)
	case 1:
		return decodeC1(hw, pc, xlen)
	case 2:
		return decodeC2(hw, pc, xlen)
	default:
		return Instr{}, rvrerr.IllegalInstruction(pc, []byte{byte(hw), byte(hw >> 8)})
	}
}

func illegalC(pc uint64, hw uint16) error {
	return rvrerr.IllegalInstruction(pc, []byte{byte(hw), byte(hw >> 8)})
}

func decodeC0(hw uint16, pc uint64, xlen Xlen) (Instr, error) {
	funct3 := cFunct3(hw)
	rdp := expandReg3(hw >> 2)
	rs1p := expandReg3(hw >> 7)
	switch funct3 {
	case 0b000: // C.ADDI4SPN
		imm := int64((((hw >> 7) & 0x30) | ((hw >> 1) & 0x3c0) | ((hw >> 4) & 0x4) | ((hw >> 2) & 0x8)))
		return Instr{Op: OpADDI, PC: pc, Size: 2, Rd: rdp, Rs1: 2, Imm: imm}, nil
	case 0b010: // C.LW
		imm := int64(cLWImm(hw))
		return Instr{Op: OpLW, PC: pc, Size: 2, Rd: rdp, Rs1: rs1p, Imm: imm}, nil
	case 0b011: // C.LD (RV64 only)
		if xlen != XLEN64 {
			return Instr{}, illegalC(pc, hw)
		}
		imm := int64(cLDImm(hw))
		return Instr{Op: OpLD, PC: pc, Size: 2, Rd: rdp, Rs1: rs1p, Imm: imm}, nil
	case 0b110: // C.SW
		imm := int64(cLWImm(hw))
		return Instr{Op: OpSW, PC: pc, Size: 2, Rs1: rs1p, Rs2: rdp, Imm: imm}, nil
	case 0b111: // C.SD (RV64 only)
		if xlen != XLEN64 {
			return Instr{}, illegalC(pc, hw)
		}
		imm := int64(cLDImm(hw))
		return Instr{Op: OpSD, PC: pc, Size: 2, Rs1: rs1p, Rs2: rdp, Imm: imm}, nil
	default:
		return Instr{}, illegalC(pc, hw)
	}
}

func cLWImm(hw uint16) uint32 {
	return uint32((((hw >> 7) & 0x8) | ((hw << 1) & 0x40) | ((hw >> 4) & 0x4) | ((hw << 4) & 0x20) | ((hw >> 7) & 0x38)) & 0x7c)
}

func cLDImm(hw uint16) uint32 {
	return uint32((((hw >> 7) & 0x38) | ((hw << 1) & 0xc0)))
}

func decodeC1(hw uint16, pc uint64, xlen Xlen) (Instr, error) {
	funct3 := cFunct3(hw)
	rd := cRdRs1(hw)
	switch funct3 {
	case 0b000: // C.ADDI (C.NOP if rd==0)
		return Instr{Op: OpADDI, PC: pc, Size: 2, Rd: rd, Rs1: rd, Imm: cImm6(hw)}, nil
	case 0b001: // C.JAL (RV32) / C.ADDIW (RV64, rd != 0)
		if xlen == XLEN64 {
			return Instr{Op: OpADDIW, PC: pc, Size: 2, Rd: rd, Rs1: rd, Imm: cImm6(hw)}, nil
		}
		return Instr{Op: OpJAL, PC: pc, Size: 2, Rd: 1, Imm: cJumpImm(hw)}, nil
	case 0b010: // C.LI
		return Instr{Op: OpADDI, PC: pc, Size: 2, Rd: rd, Rs1: 0, Imm: cImm6(hw)}, nil
	case 0b011: // C.ADDI16SP (rd==2) / C.LUI
		if rd == 2 {
			return Instr{Op: OpADDI, PC: pc, Size: 2, Rd: 2, Rs1: 2, Imm: cAddi16spImm(hw)}, nil
		}
		return Instr{Op: OpLUI, PC: pc, Size: 2, Rd: rd, Imm: cImm6(hw) << 12}, nil
	case 0b100:
		return decodeC1MiscAlu(hw, pc, xlen)
	case 0b101: // C.J
		return Instr{Op: OpJAL, PC: pc, Size: 2, Rd: 0, Imm: cJumpImm(hw)}, nil
	case 0b110: // C.BEQZ
		return Instr{Op: OpBEQ, PC: pc, Size: 2, Rs1: expandReg3(hw >> 7), Rs2: 0, Imm: cBranchImm(hw)}, nil
	case 0b111: // C.BNEZ
		return Instr{Op: OpBNE, PC: pc, Size: 2, Rs1: expandReg3(hw >> 7), Rs2: 0, Imm: cBranchImm(hw)}, nil
	default:
		return Instr{}, illegalC(pc, hw)
	}
}

// decodeC1MiscAlu handles the quadrant-1 funct3=100 group: C.SRLI/C.SRAI/
// C.ANDI (CB, two-operand-with-immediate) and C.SUB/C.XOR/C.OR/C.AND/C.SUBW/
// C.ADDW (CA, register-register), distinguished by bits 11:10 and 6:5.
func decodeC1MiscAlu(hw uint16, pc uint64, xlen Xlen) (Instr, error) {
	rdp := expandReg3(hw >> 7)
	top2 := (hw >> 10) & 0x3
	switch top2 {
	case 0b00: // C.SRLI
		return Instr{Op: OpSRLI, PC: pc, Size: 2, Rd: rdp, Rs1: rdp, Shamt: cShamt(hw, xlen)}, nil
	case 0b01: // C.SRAI
		return Instr{Op: OpSRAI, PC: pc, Size: 2, Rd: rdp, Rs1: rdp, Shamt: cShamt(hw, xlen)}, nil
	case 0b10: // C.ANDI
		return Instr{Op: OpANDI, PC: pc, Size: 2, Rd: rdp, Rs1: rdp, Imm: cImm6(hw)}, nil
	case 0b11:
		rs2p := expandReg3(hw >> 2)
		bit12 := (hw >> 12) & 0x1
		sub2 := (hw >> 5) & 0x3
		if bit12 == 0 {
			switch sub2 {
			case 0b00:
				return Instr{Op: OpSUB, PC: pc, Size: 2, Rd: rdp, Rs1: rdp, Rs2: rs2p}, nil
			case 0b01:
				return Instr{Op: OpXOR, PC: pc, Size: 2, Rd: rdp, Rs1: rdp, Rs2: rs2p}, nil
			case 0b10:
				return Instr{Op: OpOR, PC: pc, Size: 2, Rd: rdp, Rs1: rdp, Rs2: rs2p}, nil
			case 0b11:
				return Instr{Op: OpAND, PC: pc, Size: 2, Rd: rdp, Rs1: rdp, Rs2: rs2p}, nil
			}
		} else {
			if xlen != XLEN64 {
				return Instr{}, illegalC(pc, hw)
			}
			switch sub2 {
			case 0b00:
				return Instr{Op: OpSUBW, PC: pc, Size: 2, Rd: rdp, Rs1: rdp, Rs2: rs2p}, nil
			case 0b01:
				return Instr{Op: OpADDW, PC: pc, Size: 2, Rd: rdp, Rs1: rdp, Rs2: rs2p}, nil
			}
		}
	}
	return Instr{}, illegalC(pc, hw)
}

func decodeC2(hw uint16, pc uint64, xlen Xlen) (Instr, error) {
	funct3 := cFunct3(hw)
	rd := cRdRs1(hw)
	switch funct3 {
	case 0b000: // C.SLLI
		return Instr{Op: OpSLLI, PC: pc, Size: 2, Rd: rd, Rs1: rd, Shamt: cShamt(hw, xlen)}, nil
	case 0b010: // C.LWSP
		return Instr{Op: OpLW, PC: pc, Size: 2, Rd: rd, Rs1: 2, Imm: cLwspImm(hw)}, nil
	case 0b011: // C.LDSP (RV64 only)
		if xlen != XLEN64 {
			return Instr{}, illegalC(pc, hw)
		}
		return Instr{Op: OpLD, PC: pc, Size: 2, Rd: rd, Rs1: 2, Imm: cLdspImm(hw)}, nil
	case 0b100:
		return decodeC2Cr(hw, pc)
	case 0b110: // C.SWSP
		return Instr{Op: OpSW, PC: pc, Size: 2, Rs1: 2, Rs2: cRs2(hw), Imm: cLwspImm(hw)}, nil
	case 0b111: // C.SDSP (RV64 only)
		if xlen != XLEN64 {
			return Instr{}, illegalC(pc, hw)
		}
		return Instr{Op: OpSD, PC: pc, Size: 2, Rs1: 2, Rs2: cRs2(hw), Imm: cLdspImm(hw)}, nil
	default:
		return Instr{}, illegalC(pc, hw)
	}
}

// decodeC2Cr handles the CR-format group at quadrant 2, funct3=100:
// C.JR, C.MV, C.EBREAK, C.JALR, C.ADD.
func decodeC2Cr(hw uint16, pc uint64) (Instr, error) {
	rd := cRdRs1(hw)
	rs2 := cRs2(hw)
	bit12 := (hw >> 12) & 0x1
	if bit12 == 0 {
		if rs2 == 0 {
			return Instr{Op: OpJALR, PC: pc, Size: 2, Rd: 0, Rs1: rd}, nil // C.JR
		}
		return Instr{Op: OpADD, PC: pc, Size: 2, Rd: rd, Rs1: 0, Rs2: rs2}, nil // C.MV
	}
	if rd == 0 && rs2 == 0 {
		return Instr{Op: OpEBREAK, PC: pc, Size: 2}, nil
	}
	if rs2 == 0 {
		return Instr{Op: OpJALR, PC: pc, Size: 2, Rd: 1, Rs1: rd}, nil // C.JALR
	}
	return Instr{Op: OpADD, PC: pc, Size: 2, Rd: rd, Rs1: rd, Rs2: rs2}, nil // C.ADD
}

func cImm6(hw uint16) int64 {
	raw := uint32(((hw >> 12) & 0x1) << 5) | uint32((hw>>2)&0x1f)
	if raw&0x20 != 0 {
		raw |= 0xffffffc0
	}
	return int64(int32(raw))
}

func cShamt(hw uint16, xlen Xlen) uint8 {
	v := ((hw >> 12) & 0x1) << 5 | ((hw >> 2) & 0x1f)
	if xlen != XLEN64 {
		v &= 0x1f
	}
	return uint8(v)
}

func cAddi16spImm(hw uint16) int64 {
	raw := uint32((((hw >> 12) & 0x1) << 9) | (((hw >> 3) & 0x3) << 7) | (((hw >> 5) & 0x1) << 6) |
		(((hw >> 2) & 0x1) << 5) | (((hw >> 6) & 0x1) << 4))
	if raw&0x200 != 0 {
		raw |= 0xfffffc00
	}
	return int64(int32(raw))
}

func cJumpImm(hw uint16) int64 {
	raw := uint32((((hw >> 12) & 0x1) << 11) | (((hw >> 8) & 0x1) << 10) | (((hw >> 9) & 0x3) << 8) |
		(((hw >> 6) & 0x1) << 7) | (((hw >> 7) & 0x1) << 6) | (((hw >> 2) & 0x1) << 5) |
		(((hw >> 11) & 0x1) << 4) | (((hw >> 3) & 0x7) << 1))
	if raw&0x800 != 0 {
		raw |= 0xfffff000
	}
	return int64(int32(raw))
}

func cBranchImm(hw uint16) int64 {
	raw := uint32((((hw >> 12) & 0x1) << 8) | (((hw >> 5) & 0x3) << 6) | (((hw >> 2) & 0x1) << 5) |
		(((hw >> 10) & 0x3) << 3) | (((hw >> 3) & 0x3) << 1))
	if raw&0x100 != 0 {
		raw |= 0xfffffe00
	}
	return int64(int32(raw))
}

func cLwspImm(hw uint16) int64 {
	return int64((((hw >> 7) & 0x20) | ((hw >> 2) & 0x18) | ((hw << 4) & 0xc0)) & 0xfc)
}

func cLdspImm(hw uint16) int64 {
	return int64((((hw >> 7) & 0x20) | ((hw >> 2) & 0x10) | ((hw << 4) & 0x1c0)) & 0x1f8)
}
