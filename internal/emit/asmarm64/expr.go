package asmarm64

import (
	"github.com/shuklaayush/rvr/internal/emit/layout"
	"github.com/shuklaayush/rvr/internal/ir"
)

// eval lowers an expression tree, leaving the 64-bit result in x0. Binops
// evaluate the left operand, spill it to the stack, evaluate the right
// operand, move it to x1, and reload the left into x0 -- the spill-before-
// right-evaluation discipline variable shifts need applies uniformly to
// every two-operand node. x1 and x2 stay scratch within a single node's
// lowering.
func (e *emitter) eval(x *ir.Expr) {
	if x == nil {
		e.line("mov x0, #0")
		return
	}
	switch x.Kind {
	case ir.EImm:
		e.loadImm("x0", uint64(x.Imm))

	case ir.EReadReg:
		if x.Reg == 0 {
			e.line("mov x0, #0")
		} else if host, ok := e.hotHost(x.Reg); ok {
			e.line("mov x0, %s", host)
		} else {
			e.line("ldr x0, [%s, #%d]", statePtr, layout.RegOffset(x.Reg))
		}

	case ir.EReadCsr:
		e.line("mov x0, %s", statePtr)
		e.line("mov w1, #0x%x", uint16(x.Imm))
		e.line("bl rv_csr_read")

	case ir.EReadTemp:
		e.line("ldr x0, %s", e.tempSlot(x.Reg))

	case ir.EReadPC:
		e.line("ldr x0, [%s, #PC_OFFSET]", statePtr)

	case ir.EAdd:
		e.binary(x, "add x0, x0, x1")
	case ir.ESub:
		e.binary(x, "sub x0, x0, x1")
	case ir.EMul:
		e.binary(x, "mul x0, x0, x1")
	case ir.EAnd:
		e.binary(x, "and x0, x0, x1")
	case ir.EOr:
		e.binary(x, "orr x0, x0, x1")
	case ir.EXor:
		e.binary(x, "eor x0, x0, x1")

	case ir.EMulH:
		e.binary(x, "smulh x0, x0, x1")
	case ir.EMulHU:
		e.binary(x, "umulh x0, x0, x1")
	case ir.EMulHSU:
		// mulhsu(a, b) = mulhu(a, b) - (a < 0 ? b : 0).
		e.operands(x)
		e.line("umulh x2, x0, x1")
		e.line("cmp x0, #0")
		e.line("sub x1, x2, x1")
		e.line("csel x0, x1, x2, lt")

	case ir.EDiv:
		e.helper2(x, "rv_div64")
	case ir.EDivU:
		e.helper2(x, "rv_divu64")
	case ir.ERem:
		e.helper2(x, "rv_rem64")
	case ir.ERemU:
		e.helper2(x, "rv_remu64")

	// Register-count shifts take the count modulo the operand width in
	// hardware, exactly the & 63 the IR semantics ask for.
	case ir.ESll:
		e.binary(x, "lsl x0, x0, x1")
	case ir.ESrl:
		e.binary(x, "lsr x0, x0, x1")
	case ir.ESra:
		e.binary(x, "asr x0, x0, x1")
	case ir.ERor:
		e.binary(x, "ror x0, x0, x1")
	case ir.ERol:
		// rol(a, n) = ror(a, 64-n); neg's low six bits are (64-n) & 63.
		e.operands(x)
		e.line("neg x1, x1")
		e.line("ror x0, x0, x1")

	case ir.ENot:
		e.eval(x.Left)
		e.line("mvn x0, x0")

	case ir.EEq:
		e.compare(x, "eq")
	case ir.ENe:
		e.compare(x, "ne")
	case ir.ELt:
		e.compare(x, "lt")
	case ir.EGe:
		e.compare(x, "ge")
	case ir.ELtu:
		e.compare(x, "lo")
	case ir.EGeu:
		e.compare(x, "hs")

	case ir.EAddW:
		e.wordOp(x, "add w0, w0, w1")
	case ir.ESubW:
		e.wordOp(x, "sub w0, w0, w1")
	case ir.EMulW:
		e.wordOp(x, "mul w0, w0, w1")
	case ir.ESllW:
		e.wordOp(x, "lsl w0, w0, w1")
	case ir.ESrlW:
		e.wordOp(x, "lsr w0, w0, w1")
	case ir.ESraW:
		e.wordOp(x, "asr w0, w0, w1")

	case ir.EDivW:
		e.helperW(x, "rv_divw")
	case ir.EDivUW:
		e.helperW(x, "rv_divuw")
	case ir.ERemW:
		e.helperW(x, "rv_remw")
	case ir.ERemUW:
		e.helperW(x, "rv_remuw")

	case ir.ESext8:
		e.eval(x.Left)
		e.line("sxtb x0, w0")
	case ir.ESext16:
		e.eval(x.Left)
		e.line("sxth x0, w0")
	case ir.ESext32:
		e.eval(x.Left)
		e.line("sxtw x0, w0")
	case ir.EZext8:
		e.eval(x.Left)
		e.line("and x0, x0, #0xff")
	case ir.EZext16:
		e.eval(x.Left)
		e.line("and x0, x0, #0xffff")
	case ir.EZext32:
		e.eval(x.Left)
		e.line("mov w0, w0")

	case ir.ESelect:
		els := e.nextLabel("sel_else")
		done := e.nextLabel("sel_done")
		e.eval(x.Left)
		e.line("cbz x0, %s", els)
		e.eval(x.Right)
		e.line("b %s", done)
		e.label(els)
		e.eval(x.Third)
		e.label(done)

	case ir.EAddrMasked:
		e.eval(x.Left)
		if x.Imm != 0 {
			e.addImm("x0", x.Imm)
		}
		e.maskAddr()

	case ir.ELoad:
		// Loads go straight through the pinned memory base; the address is
		// already masked by the EAddrMasked the lifter wraps it in. The
		// rv_trace_mem_read_* hooks do not fire on this path (they are
		// static inlines in the tracer header, unreachable from assembly).
		e.eval(x.Left)
		e.line("%s, [%s, x0]", loadInsn(x.Width, x.Signed), memPtr)

	case ir.EReadResValid:
		e.line("ldr w0, [%s, #RES_VALID_OFFSET]", statePtr)
	case ir.EReadResAddr:
		e.line("ldr x0, [%s, #RES_ADDR_OFFSET]", statePtr)

	case ir.EClz:
		// clz of zero yields the operand width on this target, the Zbb rule.
		e.eval(x.Left)
		e.line("clz x0, x0")
	case ir.ECtz:
		e.eval(x.Left)
		e.line("rbit x0, x0")
		e.line("clz x0, x0")
	case ir.ECpop:
		e.eval(x.Left)
		e.line("fmov d0, x0")
		e.line("cnt v0.8b, v0.8b")
		e.line("addv b0, v0.8b")
		e.line("fmov w0, s0")
	case ir.ERev8:
		e.eval(x.Left)
		e.line("rev x0, x0")
	case ir.EBrev8:
		// rbit reverses all 64 bits; rev restores byte order, leaving each
		// byte's bits reversed in place.
		e.eval(x.Left)
		e.line("rbit x0, x0")
		e.line("rev x0, x0")
	case ir.EOrcB:
		e.helper1(x, "rv_orc_b")
	case ir.EZip:
		e.eval(x.Left)
		e.line("mov w0, w0")
		e.line("bl rv_zip32")
	case ir.EUnzip:
		e.eval(x.Left)
		e.line("mov w0, w0")
		e.line("bl rv_unzip32")

	case ir.EBclr:
		e.bitOp(x, "bic x0, x0, x2")
	case ir.EBinv:
		e.bitOp(x, "eor x0, x0, x2")
	case ir.EBset:
		e.bitOp(x, "orr x0, x0, x2")
	case ir.EBext:
		e.operands(x)
		e.line("lsr x0, x0, x1")
		e.line("and x0, x0, #1")

	case ir.EPack:
		e.operands(x)
		e.line("mov w0, w0")
		e.line("bfi x0, x1, #32, #32")
	case ir.EPackH:
		e.operands(x)
		e.line("and x0, x0, #0xff")
		e.line("and x1, x1, #0xff")
		e.line("orr x0, x0, x1, lsl #8")

	default:
		e.line("b asm_trap")
	}
}

// operands evaluates x.Left into x0 and x.Right into x1, spilling the left
// value around the right-hand evaluation.
func (e *emitter) operands(x *ir.Expr) {
	e.eval(x.Left)
	e.push()
	e.eval(x.Right)
	e.line("mov x1, x0")
	e.pop("x0")
}

func (e *emitter) binary(x *ir.Expr, insn string) {
	e.operands(x)
	e.line("%s", insn)
}

// wordOp computes a 32-bit operation and sign-extends the result, the RV64
// rule that *W ops always produce a sign-extended 64-bit value.
func (e *emitter) wordOp(x *ir.Expr, insn string) {
	e.operands(x)
	e.line("%s", insn)
	e.line("sxtw x0, w0")
}

func (e *emitter) compare(x *ir.Expr, cond string) {
	e.operands(x)
	e.line("cmp x0, x1")
	e.line("cset x0, %s", cond)
}

// bitOp lowers the single-bit Zbs forms: materialize 1 << (count mod 64) in
// x2, then apply insn.
func (e *emitter) bitOp(x *ir.Expr, insn string) {
	e.operands(x)
	e.line("mov x2, #1")
	e.line("lsl x2, x2, x1")
	e.line("%s", insn)
}

// helper1 calls a one-argument companion-runtime helper on x.Left. Every
// hot host register is callee-saved, so nothing needs spilling.
func (e *emitter) helper1(x *ir.Expr, name string) {
	e.eval(x.Left)
	e.line("bl %s", name)
}

func (e *emitter) helper2(x *ir.Expr, name string) {
	e.operands(x)
	e.line("bl %s", name)
}

// helperW calls a 32-bit division helper and sign-extends its int32 result
// back to the canonical 64-bit cell.
func (e *emitter) helperW(x *ir.Expr, name string) {
	e.helper2(x, name)
	e.line("sxtw x0, w0")
}

// maskAddr wraps x0 into the memory window. The window is a power of
// two, so window-1 is a run of contiguous ones and encodes as a logical
// immediate.
func (e *emitter) maskAddr() {
	if e.cfg.MemWindow == 0 {
		return
	}
	e.line("and x0, x0, #0x%x", e.cfg.MemWindow-1)
}

// addImm adds a signed displacement to reg, using the add/sub imm12 forms
// when the value fits and a scratch materialization otherwise.
func (e *emitter) addImm(reg string, v int64) {
	switch {
	case v > 0 && v < 1<<12:
		e.line("add %s, %s, #%d", reg, reg, v)
	case v < 0 && -v < 1<<12:
		e.line("sub %s, %s, #%d", reg, reg, -v)
	default:
		e.loadImm("x1", uint64(v))
		e.line("add %s, %s, x1", reg, reg)
	}
}

// loadImm materializes a 64-bit constant with the shortest movz/movn + movk
// sequence.
func (e *emitter) loadImm(reg string, v uint64) {
	if v == 0 {
		e.line("mov %s, #0", reg)
		return
	}
	chunks := [4]uint64{v & 0xffff, (v >> 16) & 0xffff, (v >> 32) & 0xffff, (v >> 48) & 0xffff}
	zeros, ones := 0, 0
	for _, c := range chunks {
		if c == 0 {
			zeros++
		}
		if c == 0xffff {
			ones++
		}
	}

	if ones > zeros {
		started := false
		for i, c := range chunks {
			if c == 0xffff {
				continue
			}
			if !started {
				e.line("movn %s, #0x%x, lsl #%d", reg, ^c&0xffff, 16*i)
				started = true
			} else {
				e.line("movk %s, #0x%x, lsl #%d", reg, c, 16*i)
			}
		}
		if !started {
			e.line("movn %s, #0", reg)
		}
		return
	}

	started := false
	for i, c := range chunks {
		if c == 0 {
			continue
		}
		if !started {
			e.line("movz %s, #0x%x, lsl #%d", reg, c, 16*i)
			started = true
		} else {
			e.line("movk %s, #0x%x, lsl #%d", reg, c, 16*i)
		}
	}
}

// loadInsn returns the load mnemonic and destination for a width/sign pair;
// the caller appends the address operand.
func loadInsn(w ir.Width, signed bool) string {
	switch {
	case w == ir.W8 && signed:
		return "ldrsb x0"
	case w == ir.W8:
		return "ldrb w0"
	case w == ir.W16 && signed:
		return "ldrsh x0"
	case w == ir.W16:
		return "ldrh w0"
	case w == ir.W32 && signed:
		return "ldrsw x0"
	case w == ir.W32:
		return "ldr w0"
	default:
		return "ldr x0"
	}
}
