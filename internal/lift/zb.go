package lift

import (
	"github.com/shuklaayush/rvr/internal/ir"
	"github.com/shuklaayush/rvr/internal/isa"
)

// liftZb lowers the bit-manipulation extension families (Zba/Zbb/Zbs/
// Zbkb). Binary shift/bit-field ops mask their dynamic operand to the
// shift-mask width the same way the base shift instructions do.
func liftZb(b *Builder, in isa.Instr, xlen isa.Xlen) error {
	switch in.Op {
	// Zba
	case isa.OpSH1ADD:
		b.SetReg(in.Rd, canonicalize(xlen, ir.Add(ir.Sll(reg(in.Rs1), ir.Imm(1)), reg(in.Rs2))))
	case isa.OpSH2ADD:
		b.SetReg(in.Rd, canonicalize(xlen, ir.Add(ir.Sll(reg(in.Rs1), ir.Imm(2)), reg(in.Rs2))))
	case isa.OpSH3ADD:
		b.SetReg(in.Rd, canonicalize(xlen, ir.Add(ir.Sll(reg(in.Rs1), ir.Imm(3)), reg(in.Rs2))))
	case isa.OpADDUW:
		b.SetReg(in.Rd, ir.Add(ir.Zext32(reg(in.Rs1)), reg(in.Rs2)))
	case isa.OpSLLIUW:
		b.SetReg(in.Rd, ir.Sll(ir.Zext32(reg(in.Rs1)), ir.Imm(int64(in.Shamt))))

	// Zbb
	case isa.OpCLZ:
		b.SetReg(in.Rd, canonicalize(xlen, ir.Clz(reg(in.Rs1))))
	case isa.OpCTZ:
		b.SetReg(in.Rd, canonicalize(xlen, ir.Ctz(reg(in.Rs1))))
	case isa.OpCPOP:
		b.SetReg(in.Rd, canonicalize(xlen, ir.Cpop(reg(in.Rs1))))
	case isa.OpMIN:
		b.SetReg(in.Rd, ir.Select(ir.Lt(reg(in.Rs1), reg(in.Rs2)), reg(in.Rs1), reg(in.Rs2)))
	case isa.OpMAX:
		b.SetReg(in.Rd, ir.Select(ir.Ge(reg(in.Rs1), reg(in.Rs2)), reg(in.Rs1), reg(in.Rs2)))
	case isa.OpMINU:
		b.SetReg(in.Rd, ir.Select(ir.Ltu(reg(in.Rs1), reg(in.Rs2)), reg(in.Rs1), reg(in.Rs2)))
	case isa.OpMAXU:
		b.SetReg(in.Rd, ir.Select(ir.Geu(reg(in.Rs1), reg(in.Rs2)), reg(in.Rs1), reg(in.Rs2)))
	case isa.OpSEXTB:
		b.SetReg(in.Rd, ir.Sext8(reg(in.Rs1)))
	case isa.OpSEXTH:
		b.SetReg(in.Rd, ir.Sext16(reg(in.Rs1)))
	case isa.OpZEXTH:
		b.SetReg(in.Rd, ir.Zext16(reg(in.Rs1)))
	case isa.OpROL:
		b.SetReg(in.Rd, canonicalize(xlen, ir.Rol(reg(in.Rs1), shiftAmount(xlen, reg(in.Rs2)))))
	case isa.OpROR:
		b.SetReg(in.Rd, canonicalize(xlen, ir.Ror(reg(in.Rs1), shiftAmount(xlen, reg(in.Rs2)))))
	case isa.OpRORI:
		b.SetReg(in.Rd, canonicalize(xlen, ir.Ror(reg(in.Rs1), ir.Imm(int64(in.Shamt)))))
	case isa.OpORCB:
		b.SetReg(in.Rd, ir.OrcB(reg(in.Rs1)))
	case isa.OpREV8:
		b.SetReg(in.Rd, ir.Rev8(reg(in.Rs1)))
	case isa.OpANDN:
		b.SetReg(in.Rd, canonicalize(xlen, ir.And(reg(in.Rs1), ir.Not(reg(in.Rs2)))))
	case isa.OpORN:
		b.SetReg(in.Rd, canonicalize(xlen, ir.Or(reg(in.Rs1), ir.Not(reg(in.Rs2)))))
	case isa.OpXNOR:
		b.SetReg(in.Rd, canonicalize(xlen, ir.Not(ir.Xor(reg(in.Rs1), reg(in.Rs2)))))

	// Zbs
	case isa.OpBCLR:
		b.SetReg(in.Rd, canonicalize(xlen, ir.Bclr(reg(in.Rs1), shiftAmount(xlen, reg(in.Rs2)))))
	case isa.OpBEXT:
		b.SetReg(in.Rd, ir.Bext(reg(in.Rs1), shiftAmount(xlen, reg(in.Rs2))))
	case isa.OpBINV:
		b.SetReg(in.Rd, canonicalize(xlen, ir.Binv(reg(in.Rs1), shiftAmount(xlen, reg(in.Rs2)))))
	case isa.OpBSET:
		b.SetReg(in.Rd, canonicalize(xlen, ir.Bset(reg(in.Rs1), shiftAmount(xlen, reg(in.Rs2)))))

	// Zbkb
	case isa.OpPACK:
		b.SetReg(in.Rd, canonicalize(xlen, ir.Pack(reg(in.Rs1), reg(in.Rs2))))
	case isa.OpPACKH:
		b.SetReg(in.Rd, ir.PackH(reg(in.Rs1), reg(in.Rs2)))
	case isa.OpBREV8:
		b.SetReg(in.Rd, ir.Brev8(reg(in.Rs1)))
	case isa.OpZIP:
		b.SetReg(in.Rd, ir.Zip(reg(in.Rs1)))
	case isa.OpUNZIP:
		b.SetReg(in.Rd, ir.Unzip(reg(in.Rs1)))
	}
	return nil
}
