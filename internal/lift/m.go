package lift

import (
	"github.com/shuklaayush/rvr/internal/ir"
	"github.com/shuklaayush/rvr/internal/isa"
)

// liftM lowers the M-extension multiply/divide/remainder opcodes, including
// the RV64-only *W forms. DIV/REM edge cases are a
// property of the ir.Div/DivU/Rem/RemU nodes themselves, not expanded here.
func liftM(b *Builder, in isa.Instr, xlen isa.Xlen) error {
	switch in.Op {
	case isa.OpMUL:
		b.SetReg(in.Rd, canonicalize(xlen, ir.Mul(reg(in.Rs1), reg(in.Rs2))))
	case isa.OpMULH:
		b.SetReg(in.Rd, canonicalize(xlen, ir.MulH(reg(in.Rs1), reg(in.Rs2))))
	case isa.OpMULHSU:
		b.SetReg(in.Rd, canonicalize(xlen, ir.MulHSU(reg(in.Rs1), reg(in.Rs2))))
	case isa.OpMULHU:
		b.SetReg(in.Rd, canonicalize(xlen, ir.MulHU(reg(in.Rs1), reg(in.Rs2))))
	case isa.OpDIV:
		b.SetReg(in.Rd, canonicalize(xlen, ir.Div(reg(in.Rs1), reg(in.Rs2))))
	case isa.OpDIVU:
		b.SetReg(in.Rd, canonicalize(xlen, ir.DivU(reg(in.Rs1), reg(in.Rs2))))
	case isa.OpREM:
		b.SetReg(in.Rd, canonicalize(xlen, ir.Rem(reg(in.Rs1), reg(in.Rs2))))
	case isa.OpREMU:
		b.SetReg(in.Rd, canonicalize(xlen, ir.RemU(reg(in.Rs1), reg(in.Rs2))))

	case isa.OpMULW:
		b.SetReg(in.Rd, ir.MulW(reg(in.Rs1), reg(in.Rs2)))
	case isa.OpDIVW:
		b.SetReg(in.Rd, ir.DivW(reg(in.Rs1), reg(in.Rs2)))
	case isa.OpDIVUW:
		b.SetReg(in.Rd, ir.DivUW(reg(in.Rs1), reg(in.Rs2)))
	case isa.OpREMW:
		b.SetReg(in.Rd, ir.RemW(reg(in.Rs1), reg(in.Rs2)))
	case isa.OpREMUW:
		b.SetReg(in.Rd, ir.RemUW(reg(in.Rs1), reg(in.Rs2)))
	}
	return nil
}
