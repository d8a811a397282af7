package lift

import (
	"github.com/shuklaayush/rvr/internal/ir"
	"github.com/shuklaayush/rvr/internal/isa"
)

// liftA lowers the A-extension: LR/SC and the nine AMO read-modify-write
// operations. Ordering bits (in.Aq/in.Rl) are not threaded into the IR
// nodes, so no emitter sees them, with or without --strict-amo (see
// DESIGN.md for the accepted deviation).
func liftA(b *Builder, in isa.Instr) error {
	width := ir.W32
	switch in.Op {
	case isa.OpLRD, isa.OpSCD, isa.OpAMOSWAPD, isa.OpAMOADDD, isa.OpAMOXORD,
		isa.OpAMOANDD, isa.OpAMOORD, isa.OpAMOMIND, isa.OpAMOMAXD, isa.OpAMOMINUD, isa.OpAMOMAXUD:
		width = ir.W64
	}

	addr := b.Assign(ir.AddrMasked(reg(in.Rs1), 0), ir.W64)

	switch in.Op {
	case isa.OpLRW, isa.OpLRD:
		b.SetReg(in.Rd, ir.Load(addr, width, true))
		b.Emit(ir.ReservationSet{Addr: addr})
		return nil

	case isa.OpSCW, isa.OpSCD:
		matched := b.Assign(ir.And(ir.ReadResValid(), boolExpr(ir.Eq(ir.ReadResAddr(), addr))), ir.W64)
		b.Emit(ir.CondStoreMem{Cond: matched, Addr: addr, Value: reg(in.Rs2), Width: width})
		b.SetReg(in.Rd, ir.Select(matched, ir.Imm(0), ir.Imm(1)))
		b.Emit(ir.ReservationClear{})
		return nil
	}

	// Remaining cases are plain AMOs: atomic load-op-store, old value
	// returned in rd.
	old := b.Assign(ir.Load(addr, width, true), width)
	var newVal *ir.Expr
	switch in.Op {
	case isa.OpAMOSWAPW, isa.OpAMOSWAPD:
		newVal = reg(in.Rs2)
	case isa.OpAMOADDW, isa.OpAMOADDD:
		newVal = ir.Add(old, reg(in.Rs2))
	case isa.OpAMOXORW, isa.OpAMOXORD:
		newVal = ir.Xor(old, reg(in.Rs2))
	case isa.OpAMOANDW, isa.OpAMOANDD:
		newVal = ir.And(old, reg(in.Rs2))
	case isa.OpAMOORW, isa.OpAMOORD:
		newVal = ir.Or(old, reg(in.Rs2))
	case isa.OpAMOMINW, isa.OpAMOMIND:
		newVal = ir.Select(ir.Lt(old, reg(in.Rs2)), old, reg(in.Rs2))
	case isa.OpAMOMAXW, isa.OpAMOMAXD:
		newVal = ir.Select(ir.Ge(old, reg(in.Rs2)), old, reg(in.Rs2))
	case isa.OpAMOMINUW, isa.OpAMOMINUD:
		newVal = ir.Select(ir.Ltu(old, reg(in.Rs2)), old, reg(in.Rs2))
	case isa.OpAMOMAXUW, isa.OpAMOMAXUD:
		newVal = ir.Select(ir.Geu(old, reg(in.Rs2)), old, reg(in.Rs2))
	}

	b.Emit(ir.StoreMem{Addr: addr, Value: newVal, Width: width})
	b.SetReg(in.Rd, old)
	// Conservative reservation policy: any non-LR/SC memory access clears.
	b.Emit(ir.ReservationClear{})
	return nil
}
