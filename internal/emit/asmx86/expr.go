package asmx86

import (
	"math"

	"github.com/shuklaayush/rvr/internal/emit/layout"
	"github.com/shuklaayush/rvr/internal/ir"
)

// eval lowers an expression tree, leaving the 64-bit result in %rax. The
// discipline is a classic two-address stack walk: binops evaluate the left
// operand, push it, evaluate the right operand into %rax, move it to %rcx,
// and pop the left back into %rax, so %rax op %rcx computes left op right.
// %rcx and %rdx stay scratch inside one node's lowering; nothing but %rax
// survives across nodes. %r10/%r11 serve the few multi-register sequences
// (mulhsu) that need a third temporary.
func (e *emitter) eval(x *ir.Expr) {
	if x == nil {
		e.line("xorl %%eax, %%eax")
		return
	}
	switch x.Kind {
	case ir.EImm:
		e.loadImm("%rax", x.Imm)

	case ir.EReadReg:
		if x.Reg == 0 {
			e.line("xorl %%eax, %%eax")
		} else if host, ok := e.hotHost(x.Reg); ok {
			e.line("movq %s, %%rax", host)
		} else {
			e.line("movq %d(%s), %%rax", layout.RegOffset(x.Reg), statePtr)
		}

	case ir.EReadCsr:
		e.syncHotToState(true)
		e.line("movq %s, %%rdi", statePtr)
		e.line("movl $0x%x, %%esi", uint16(x.Imm))
		e.callC("rv_csr_read")
		e.reloadHotFromState(true)

	case ir.EReadTemp:
		e.line("movq %s, %%rax", e.tempSlot(x.Reg))

	case ir.EReadPC:
		e.line("movq PC_OFFSET(%s), %%rax", statePtr)

	case ir.EAdd:
		e.binary(x, "addq %rcx, %rax")
	case ir.ESub:
		e.binary(x, "subq %rcx, %rax")
	case ir.EMul:
		e.binary(x, "imulq %rcx, %rax")
	case ir.EAnd:
		e.binary(x, "andq %rcx, %rax")
	case ir.EOr:
		e.binary(x, "orq %rcx, %rax")
	case ir.EXor:
		e.binary(x, "xorq %rcx, %rax")

	case ir.EMulH:
		e.operands(x)
		e.line("imulq %%rcx")
		e.line("movq %%rdx, %%rax")
	case ir.EMulHU:
		e.operands(x)
		e.line("mulq %%rcx")
		e.line("movq %%rdx, %%rax")
	case ir.EMulHSU:
		// mulhsu(a, b) = mulhu(a, b) - (a < 0 ? b : 0).
		e.operands(x)
		e.line("movq %%rax, %%r11")
		e.line("mulq %%rcx")
		e.line("movq %%rdx, %%rax")
		done := e.nextLabel("mulhsu")
		e.line("testq %%r11, %%r11")
		e.line("jns %s", done)
		e.line("subq %%rcx, %%rax")
		e.label(done)

	case ir.EDiv:
		e.helper2(x, "rv_div64")
	case ir.EDivU:
		e.helper2(x, "rv_divu64")
	case ir.ERem:
		e.helper2(x, "rv_rem64")
	case ir.ERemU:
		e.helper2(x, "rv_remu64")

	// The shift and rotate instructions mask their count to 6 bits in
	// hardware, which is exactly the & 63 the IR semantics ask for.
	case ir.ESll:
		e.operands(x)
		e.line("shlq %%cl, %%rax")
	case ir.ESrl:
		e.operands(x)
		e.line("shrq %%cl, %%rax")
	case ir.ESra:
		e.operands(x)
		e.line("sarq %%cl, %%rax")
	case ir.ERol:
		e.operands(x)
		e.line("rolq %%cl, %%rax")
	case ir.ERor:
		e.operands(x)
		e.line("rorq %%cl, %%rax")

	case ir.ENot:
		e.eval(x.Left)
		e.line("notq %%rax")

	case ir.EEq:
		e.compare(x, "sete")
	case ir.ENe:
		e.compare(x, "setne")
	case ir.ELt:
		e.compare(x, "setl")
	case ir.EGe:
		e.compare(x, "setge")
	case ir.ELtu:
		e.compare(x, "setb")
	case ir.EGeu:
		e.compare(x, "setae")

	case ir.EAddW:
		e.operands(x)
		e.line("addl %%ecx, %%eax")
		e.line("cltq")
	case ir.ESubW:
		e.operands(x)
		e.line("subl %%ecx, %%eax")
		e.line("cltq")
	case ir.EMulW:
		e.operands(x)
		e.line("imull %%ecx, %%eax")
		e.line("cltq")
	case ir.ESllW:
		e.operands(x)
		e.line("shll %%cl, %%eax")
		e.line("cltq")
	case ir.ESrlW:
		e.operands(x)
		e.line("shrl %%cl, %%eax")
		e.line("cltq")
	case ir.ESraW:
		e.operands(x)
		e.line("sarl %%cl, %%eax")
		e.line("cltq")

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
		e.line("movsbq %%al, %%rax")
	case ir.ESext16:
		e.eval(x.Left)
		e.line("movswq %%ax, %%rax")
	case ir.ESext32:
		e.eval(x.Left)
		e.line("cltq")
	case ir.EZext8:
		e.eval(x.Left)
		e.line("movzbq %%al, %%rax")
	case ir.EZext16:
		e.eval(x.Left)
		e.line("movzwq %%ax, %%rax")
	case ir.EZext32:
		e.eval(x.Left)
		e.line("movl %%eax, %%eax")

	case ir.ESelect:
		els := e.nextLabel("sel_else")
		done := e.nextLabel("sel_done")
		e.eval(x.Left)
		e.line("testq %%rax, %%rax")
		e.line("jz %s", els)
		e.eval(x.Right)
		e.line("jmp %s", done)
		e.label(els)
		e.eval(x.Third)
		e.label(done)

	case ir.EAddrMasked:
		e.eval(x.Left)
		if x.Imm != 0 {
			if fitsInt32(x.Imm) {
				e.line("addq $%d, %%rax", x.Imm)
			} else {
				e.line("movabsq $%d, %%rcx", x.Imm)
				e.line("addq %%rcx, %%rax")
			}
		}
		e.maskAddr()

	case ir.ELoad:
		// Loads go straight through the pinned memory base; the address is
		// already masked by the EAddrMasked the lifter wraps it in. The
		// rv_trace_mem_read_* hooks do not fire on this path (they are
		// static inlines in the tracer header, unreachable from assembly).
		e.eval(x.Left)
		e.line("%s (%s,%%rax), %s", loadInsn(x.Width, x.Signed), memPtr, loadDest(x.Width, x.Signed))

	case ir.EReadResValid:
		e.line("movl RES_VALID_OFFSET(%s), %%eax", statePtr)
	case ir.EReadResAddr:
		e.line("movq RES_ADDR_OFFSET(%s), %%rax", statePtr)

	case ir.EClz:
		e.helper1(x, "rv_clz")
	case ir.ECtz:
		e.helper1(x, "rv_ctz")
	case ir.ECpop:
		e.eval(x.Left)
		e.line("popcntq %%rax, %%rax")
	case ir.EOrcB:
		e.helper1(x, "rv_orc_b")
	case ir.ERev8:
		e.eval(x.Left)
		e.line("bswapq %%rax")
	case ir.EBrev8:
		e.helper1(x, "rv_brev8")
	case ir.EZip:
		e.helper1(x, "rv_zip32")
	case ir.EUnzip:
		e.helper1(x, "rv_unzip32")

	// The bt family masks the register bit offset to the operand width, the
	// same mod-64 the IR's bclr/bext/binv/bset semantics specify.
	case ir.EBclr:
		e.operands(x)
		e.line("btrq %%rcx, %%rax")
	case ir.EBinv:
		e.operands(x)
		e.line("btcq %%rcx, %%rax")
	case ir.EBset:
		e.operands(x)
		e.line("btsq %%rcx, %%rax")
	case ir.EBext:
		e.operands(x)
		e.line("btq %%rcx, %%rax")
		e.line("setc %%al")
		e.line("movzbq %%al, %%rax")

	case ir.EPack:
		e.operands(x)
		e.line("movl %%eax, %%eax")
		e.line("shlq $32, %%rcx")
		e.line("orq %%rcx, %%rax")
	case ir.EPackH:
		e.operands(x)
		e.line("movzbq %%al, %%rax")
		e.line("movzbq %%cl, %%rcx")
		e.line("shlq $8, %%rcx")
		e.line("orq %%rcx, %%rax")

	default:
		e.line("jmp asm_trap")
	}
}

// operands evaluates x.Left into %rax and x.Right into %rcx.
func (e *emitter) operands(x *ir.Expr) {
	e.eval(x.Left)
	e.push("%rax")
	e.eval(x.Right)
	e.line("movq %%rax, %%rcx")
	e.pop("%rax")
}

func (e *emitter) binary(x *ir.Expr, insn string) {
	e.operands(x)
	e.line("%s", insn)
}

func (e *emitter) compare(x *ir.Expr, set string) {
	e.operands(x)
	e.line("cmpq %%rcx, %%rax")
	e.line("%s %%al", set)
	e.line("movzbq %%al, %%rax")
}

// helper1 calls a one-argument companion-runtime helper on x.Left.
func (e *emitter) helper1(x *ir.Expr, name string) {
	e.eval(x.Left)
	e.syncHotToState(true)
	e.line("movq %%rax, %%rdi")
	e.callC(name)
	e.reloadHotFromState(true)
}

// helper2 calls a two-argument helper on (x.Left, x.Right). The hot
// caller-saved registers are spilled after both operands are evaluated and
// before the argument registers (which overlap them) are loaded.
func (e *emitter) helper2(x *ir.Expr, name string) {
	e.eval(x.Left)
	e.push("%rax")
	e.eval(x.Right)
	e.syncHotToState(true)
	e.line("movq %%rax, %%rsi")
	e.pop("%rdi")
	e.callC(name)
	e.reloadHotFromState(true)
}

// helperW calls a 32-bit division helper and sign-extends its int32 result
// back to the canonical 64-bit cell.
func (e *emitter) helperW(x *ir.Expr, name string) {
	e.helper2(x, name)
	e.line("cltq")
}

// maskAddr wraps %rax into the memory window. MemWindow is a power of
// two, so the mask is window-1.
func (e *emitter) maskAddr() {
	if e.cfg.MemWindow == 0 {
		return
	}
	mask := e.cfg.MemWindow - 1
	if mask <= math.MaxInt32 {
		e.line("andq $0x%x, %%rax", mask)
	} else {
		e.line("movabsq $0x%x, %%rcx", mask)
		e.line("andq %%rcx, %%rax")
	}
}

// loadImm materializes a 64-bit immediate, using the short sign-extended
// form when it fits.
func (e *emitter) loadImm(reg string, v int64) {
	if v == 0 && reg == "%rax" {
		e.line("xorl %%eax, %%eax")
		return
	}
	if fitsInt32(v) {
		e.line("movq $%d, %s", v, reg)
	} else {
		e.line("movabsq $%d, %s", v, reg)
	}
}

func fitsInt32(v int64) bool {
	return v >= math.MinInt32 && v <= math.MaxInt32
}

func loadInsn(w ir.Width, signed bool) string {
	switch {
	case w == ir.W8 && signed:
		return "movsbq"
	case w == ir.W8:
		return "movzbq"
	case w == ir.W16 && signed:
		return "movswq"
	case w == ir.W16:
		return "movzwq"
	case w == ir.W32 && signed:
		return "movslq"
	case w == ir.W32:
		return "movl"
	default:
		return "movq"
	}
}

// loadDest is %eax for the zero-extending 32-bit load (movl's implicit
// upper-half clear) and %rax everywhere else.
func loadDest(w ir.Width, signed bool) string {
	if w == ir.W32 && !signed {
		return "%eax"
	}
	return "%rax"
}
