package asmarm64

import (
	"github.com/shuklaayush/rvr/internal/emit/layout"
	"github.com/shuklaayush/rvr/internal/ir"
)

// block renders one discovered block: its PC label, the statement sequence,
// the instret/cycle bump, and the terminator. Control only ever leaves
// through an explicit branch; fallthrough to the next label is never relied
// on.
func (e *emitter) block(b *ir.Block) {
	e.label(pcLabel(b.PC))
	e.comment("block 0x%x (%d instrs)", b.PC, b.InstrCount)

	for _, s := range b.Stmts {
		e.stmt(s)
	}

	if b.InstrCount > 0 {
		e.bumpCounter("INSTRET_OFFSET", b.InstrCount)
		e.bumpCounter("CYCLE_OFFSET", b.InstrCount)
	}

	e.terminator(b)
	e.blank()
}

// bumpCounter adds n to a 64-bit counter in the state record. There is no
// add-to-memory form, so this is a load/add/store through x1.
func (e *emitter) bumpCounter(offset string, n int) {
	e.line("ldr x1, [%s, #%s]", statePtr, offset)
	e.line("add x1, x1, #%d", n)
	e.line("str x1, [%s, #%s]", statePtr, offset)
}

func (e *emitter) stmt(s ir.Stmt) {
	switch st := s.(type) {
	case ir.WriteReg:
		if ir.IsRegZeroNoop(st) {
			return
		}
		e.eval(st.Value)
		if host, ok := e.hotHost(st.Reg); ok {
			e.line("mov %s, x0", host)
		} else {
			e.line("str x0, [%s, #%d]", statePtr, layout.RegOffset(st.Reg))
		}

	case ir.WriteCsr:
		e.eval(st.Value)
		e.line("mov x2, x0")
		e.line("mov x0, %s", statePtr)
		e.line("mov w1, #0x%x", st.Csr)
		e.line("bl rv_csr_write")

	case ir.TempAssign:
		e.eval(st.Value)
		e.line("str x0, %s", e.tempSlot(st.Temp))

	case ir.StoreMem:
		e.store(st.Addr, st.Value, st.Width)

	case ir.CondStoreMem:
		skip := e.nextLabel("sc_skip")
		e.eval(st.Cond)
		e.line("cbz x0, %s", skip)
		e.store(st.Addr, st.Value, st.Width)
		e.label(skip)

	case ir.ReservationSet:
		e.eval(st.Addr)
		e.line("str x0, [%s, #RES_ADDR_OFFSET]", statePtr)
		e.line("mov w1, #1")
		e.line("str w1, [%s, #RES_VALID_OFFSET]", statePtr)

	case ir.ReservationClear:
		e.line("str wzr, [%s, #RES_VALID_OFFSET]", statePtr)

	case ir.TraceHook:
		// The rv_trace_* hooks are static inlines in the tracer header and
		// have no linker symbol the assembly could call; tracing runs are
		// the C backend's job.

	default:
		e.line("b asm_trap")
	}
}

// store calls the matching companion-runtime rv_store* helper, which owns
// the reservation invalidation, the write tracer hook, and the HTIF tohost
// interception. A word or doubleword store may therefore halt the guest, so
// those widths re-check the halted flag on return. The hot host registers
// are all callee-saved, so no spill is needed around the call.
func (e *emitter) store(addr, value *ir.Expr, w ir.Width) {
	e.eval(addr)
	e.push()
	e.eval(value)
	e.line("mov x2, x0")
	e.pop("x1")
	e.line("mov x0, %s", statePtr)
	e.line("bl %s", storeHelper(w))
	if w == ir.W32 || w == ir.W64 {
		e.haltedCheck()
	}
}

// haltedCheck exits the translated code if the companion runtime halted the
// guest. The skip-over shape keeps the branch to asm_exit unconditional, so
// the +-1MB conditional-branch range never binds.
func (e *emitter) haltedCheck() {
	skip := e.nextLabel("running")
	e.line("ldr w1, [%s, #HALTED_OFFSET]", statePtr)
	e.line("cbz w1, %s", skip)
	e.line("b asm_exit")
	e.label(skip)
}

func storeHelper(w ir.Width) string {
	switch w {
	case ir.W8:
		return "rv_store8"
	case ir.W16:
		return "rv_store16"
	case ir.W32:
		return "rv_store32"
	default:
		return "rv_store64"
	}
}

func (e *emitter) terminator(b *ir.Block) {
	switch t := b.Term.(type) {
	case ir.Jump:
		e.jumpTo(t.Target)

	case ir.Branch:
		e.eval(t.Left)
		e.push()
		e.eval(t.Right)
		e.line("mov x1, x0")
		e.pop("x0")
		e.line("cmp x0, x1")
		// Invert the condition around a local skip so both block-to-block
		// branches are unconditional b instructions with full range.
		skip := e.nextLabel("br_else")
		e.line("b.%s %s", condCode(t.Cond.Negate()), skip)
		e.jumpTo(t.Then)
		e.label(skip)
		e.jumpTo(t.Else)

	case ir.IndirectJump:
		e.line("str wzr, [%s, #RES_VALID_OFFSET]", statePtr)
		e.eval(t.Target)
		e.dispatchJump()

	case ir.Syscall:
		// rv_syscall reads the argument registers out of the state record
		// and writes a0 back, so this is the one call site needing a full
		// hot-set sync in both directions.
		e.line("str wzr, [%s, #RES_VALID_OFFSET]", statePtr)
		e.loadImm("x0", t.NextPC)
		e.line("str x0, [%s, #PC_OFFSET]", statePtr)
		e.syncHotToState()
		e.line("mov x0, %s", statePtr)
		e.line("bl rv_syscall")
		e.reloadHotFromState()
		e.haltedCheck()
		e.jumpTo(t.NextPC)

	case ir.Break:
		e.line("str wzr, [%s, #RES_VALID_OFFSET]", statePtr)
		e.loadImm("x0", t.PC)
		e.line("str x0, [%s, #PC_OFFSET]", statePtr)
		e.line("movn w1, #0")
		e.line("str w1, [%s, #EXIT_CODE_OFFSET]", statePtr)
		e.line("mov w1, #1")
		e.line("str w1, [%s, #HALTED_OFFSET]", statePtr)
		e.line("b asm_exit")

	case ir.Halt:
		e.line("str wzr, [%s, #RES_VALID_OFFSET]", statePtr)
		if t.ExitCode == nil {
			e.line("str wzr, [%s, #EXIT_CODE_OFFSET]", statePtr)
		} else {
			e.eval(t.ExitCode)
			e.line("str w0, [%s, #EXIT_CODE_OFFSET]", statePtr)
		}
		e.line("mov w1, #1")
		e.line("str w1, [%s, #HALTED_OFFSET]", statePtr)
		e.line("b asm_exit")

	default:
		e.line("b asm_trap")
	}
}

// jumpTo emits a direct b to the block at pc, or to asm_trap when discovery
// never produced one there.
func (e *emitter) jumpTo(pc uint64) {
	e.line("b %s", e.targetLabel(pc))
}

func (e *emitter) targetLabel(pc uint64) string {
	if _, ok := e.blocks[pc]; ok {
		return pcLabel(pc)
	}
	return "asm_trap"
}

func condCode(c ir.Cond) string {
	switch c {
	case ir.CEq:
		return "eq"
	case ir.CNe:
		return "ne"
	case ir.CLt:
		return "lt"
	case ir.CGe:
		return "ge"
	case ir.CLtu:
		return "lo"
	default:
		return "hs"
	}
}
