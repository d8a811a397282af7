// Package lift lowers one decoded instruction (internal/isa.Instr) into an
// ordered sequence of internal/ir statements plus, for instructions that end
// a block, a terminator. Each call to Lift appends to a
// Builder that the caller reuses across an entire block, so that IR temps
// are numbered consistently for the block they belong to; temps never
// cross block boundaries.
package lift

import (
	"github.com/shuklaayush/rvr/internal/ir"
	"github.com/shuklaayush/rvr/internal/isa"
)

// Builder accumulates statements for one block and hands out fresh temp
// numbers. It has no notion of PC or terminator; the caller (internal/cfg)
// owns block framing and decides when to stop feeding it instructions.
type Builder struct {
	stmts []ir.Stmt
	next  uint8
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Emit appends a statement in program order; ordering within a block is
// exactly source order.
func (b *Builder) Emit(s ir.Stmt) {
	b.stmts = append(b.stmts, s)
}

// Assign allocates a fresh temp, emits the TempAssign that defines it, and
// returns an expression reading it back — the standard way lift code
// caches a value it needs more than once (e.g. an AMO's pre-image).
func (b *Builder) Assign(value *ir.Expr, w ir.Width) *ir.Expr {
	t := b.next
	b.next++
	b.Emit(ir.TempAssign{Temp: t, Value: value, Width: w})
	return ir.ReadTemp(t, w)
}

// SetReg emits a WriteReg, except writes to x0 are dropped at this boundary
// rather than relying on the backend to special-case register 0.
// Every surviving write is followed by its rv_trace_reg_write hook, reading
// the register back so the hook observes the committed value.
func (b *Builder) SetReg(reg uint8, value *ir.Expr) {
	if reg == 0 {
		return
	}
	b.Emit(ir.WriteReg{Reg: reg, Value: value})
	b.Emit(ir.TraceHook{
		Kind: "rv_trace_reg_write",
		Args: []*ir.Expr{ir.Imm(int64(reg)), ir.ReadReg(reg)},
	})
}

// Stmts returns the accumulated statements. NumTemps reports how many temps
// were allocated, for Block.NumTemps.
func (b *Builder) Stmts() []ir.Stmt { return b.stmts }
func (b *Builder) NumTemps() uint8  { return b.next }

// reg reads a guest register, short-circuiting x0 to a literal zero so the
// emitter never has to special-case it either.
func reg(idx uint8) *ir.Expr {
	if idx == 0 {
		return ir.Imm(0)
	}
	return ir.ReadReg(idx)
}

// regWidth is the natural (non-extended) width of a guest register value
// at the active XLEN, used to pick the right load/extension width.
func regWidth(xlen isa.Xlen) ir.Width {
	if xlen == isa.XLEN64 {
		return ir.W64
	}
	return ir.W32
}

// canonicalize re-establishes the invariant that base (non-*W) integer ops
// produce a value that is meaningful across the full 64-bit container even
// when XLEN=32: at XLEN32 the guest register is logically 32 bits, so its
// value is carried sign-extended in the 64-bit slot for a consistent
// representation (comparisons and *W-less downstream ops then behave
// correctly without re-deriving XLEN at every use). At XLEN64 this is a
// no-op: base ops already operate over the full width.
func canonicalize(xlen isa.Xlen, v *ir.Expr) *ir.Expr {
	if xlen == isa.XLEN32 {
		return ir.Sext32(v)
	}
	return v
}

// shiftAmount masks a dynamic (register-sourced) shift amount to
// log2(XLEN) bits, so shift amounts are never left to host-defined
// behavior.
func shiftAmount(xlen isa.Xlen, amount *ir.Expr) *ir.Expr {
	bits := xlen.ShiftMaskBits()
	return ir.And(amount, ir.Imm(int64((1<<bits)-1)))
}

// Result is what Lift returns: the terminator ending the block this
// instruction closes, or nil if the instruction falls through to the next
// one in sequence.
type Result struct {
	Term ir.Terminator
}
