package lift

import (
	"github.com/shuklaayush/rvr/internal/ir"
	"github.com/shuklaayush/rvr/internal/isa"
)

// liftZicsr lowers the six Zicsr instructions. Reads
// always return the current value; writes commit unless the instruction is
// a set/clear form whose source operand is zero (a pure read, the "read-only
// variant"), or unless the CSR itself is read-only at this tier, in which
// case the write is dropped rather than emitted as a provably dead store.
func liftZicsr(b *Builder, in isa.Instr) error {
	old := b.Assign(ir.ReadCsr(in.Csr), ir.W64)
	readOnly := isa.ReadOnly(in.Csr)

	var src *ir.Expr
	switch in.Op {
	case isa.OpCSRRW, isa.OpCSRRS, isa.OpCSRRC:
		src = reg(in.Rs1)
	case isa.OpCSRRWI, isa.OpCSRRSI, isa.OpCSRRCI:
		src = ir.Imm(in.Imm)
	}

	b.SetReg(in.Rd, old)

	switch in.Op {
	case isa.OpCSRRW, isa.OpCSRRWI:
		if !readOnly {
			b.Emit(ir.WriteCsr{Csr: in.Csr, Value: src})
		}
	case isa.OpCSRRS, isa.OpCSRRSI:
		if !readOnly && !isZeroImm(in) {
			b.Emit(ir.WriteCsr{Csr: in.Csr, Value: ir.Or(old, src)})
		}
	case isa.OpCSRRC, isa.OpCSRRCI:
		if !readOnly && !isZeroImm(in) {
			b.Emit(ir.WriteCsr{Csr: in.Csr, Value: ir.And(old, ir.Not(src))})
		}
	}
	return nil
}

// isZeroImm reports whether the set/clear instruction's source operand is
// statically known to be zero: rs1==x0 for the register forms, imm==0 for
// the immediate forms. These are the read-only variants.
func isZeroImm(in isa.Instr) bool {
	switch in.Op {
	case isa.OpCSRRS, isa.OpCSRRC:
		return in.Rs1 == 0
	case isa.OpCSRRSI, isa.OpCSRRCI:
		return in.Imm == 0
	}
	return false
}
