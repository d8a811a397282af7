package asmx86

import (
	"github.com/shuklaayush/rvr/internal/emit/layout"
	"github.com/shuklaayush/rvr/internal/ir"
)

// block renders one discovered block: its PC label, the statement sequence,
// the instret/cycle bump, and the terminator. Control only ever leaves
// through a jmp; the next block's label falling through is never relied on.
func (e *emitter) block(b *ir.Block) {
	e.label(pcLabel(b.PC))
	e.comment("block 0x%x (%d instrs)", b.PC, b.InstrCount)

	for _, s := range b.Stmts {
		e.stmt(s)
	}

	if b.InstrCount > 0 {
		e.line("addq $%d, INSTRET_OFFSET(%s)", b.InstrCount, statePtr)
		e.line("addq $%d, CYCLE_OFFSET(%s)", b.InstrCount, statePtr)
	}

	e.terminator(b)
	e.blank()
}

func (e *emitter) stmt(s ir.Stmt) {
	switch st := s.(type) {
	case ir.WriteReg:
		if ir.IsRegZeroNoop(st) {
			return
		}
		e.eval(st.Value)
		if host, ok := e.hotHost(st.Reg); ok {
			e.line("movq %%rax, %s", host)
		} else {
			e.line("movq %%rax, %d(%s)", layout.RegOffset(st.Reg), statePtr)
		}

	case ir.WriteCsr:
		e.eval(st.Value)
		e.syncHotToState(true)
		e.line("movq %%rax, %%rdx")
		e.line("movq %s, %%rdi", statePtr)
		e.line("movl $0x%x, %%esi", st.Csr)
		e.callC("rv_csr_write")
		e.reloadHotFromState(true)

	case ir.TempAssign:
		e.eval(st.Value)
		e.line("movq %%rax, %s", e.tempSlot(st.Temp))

	case ir.StoreMem:
		e.store(st.Addr, st.Value, st.Width)

	case ir.CondStoreMem:
		skip := e.nextLabel("sc_skip")
		e.eval(st.Cond)
		e.line("testq %%rax, %%rax")
		e.line("jz %s", skip)
		e.store(st.Addr, st.Value, st.Width)
		e.label(skip)

	case ir.ReservationSet:
		e.eval(st.Addr)
		e.line("movq %%rax, RES_ADDR_OFFSET(%s)", statePtr)
		e.line("movl $1, RES_VALID_OFFSET(%s)", statePtr)

	case ir.ReservationClear:
		e.line("movl $0, RES_VALID_OFFSET(%s)", statePtr)

	case ir.TraceHook:
		// The rv_trace_* hooks are static inlines in the tracer header and
		// have no linker symbol the assembly could call; tracing runs are
		// the C backend's job.

	default:
		e.line("jmp asm_trap")
	}
}

// store calls the matching companion-runtime rv_store* helper, which owns
// the reservation invalidation, the write tracer hook, and the HTIF tohost
// interception. A word or doubleword store may therefore halt the guest, so
// those widths re-check the halted flag on return.
func (e *emitter) store(addr, value *ir.Expr, w ir.Width) {
	e.eval(addr)
	e.push("%rax")
	e.eval(value)
	e.syncHotToState(true)
	e.line("movq %%rax, %%rdx")
	e.pop("%rsi")
	e.line("movq %s, %%rdi", statePtr)
	e.callC(storeHelper(w))
	e.reloadHotFromState(true)
	if w == ir.W32 || w == ir.W64 {
		e.line("cmpl $0, HALTED_OFFSET(%s)", statePtr)
		e.line("jne asm_exit")
	}
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
		e.push("%rax")
		e.eval(t.Right)
		e.line("movq %%rax, %%rcx")
		e.pop("%rax")
		e.line("cmpq %%rcx, %%rax")
		e.line("%s %s", branchInsn(t.Cond), e.targetLabel(t.Then))
		e.jumpTo(t.Else)

	case ir.IndirectJump:
		e.line("movl $0, RES_VALID_OFFSET(%s)", statePtr)
		e.eval(t.Target)
		e.dispatchJump()

	case ir.Syscall:
		// rv_syscall reads the argument registers out of the state record
		// and writes a0 back, so this is the one call site needing a full
		// hot-set sync in both directions.
		e.line("movl $0, RES_VALID_OFFSET(%s)", statePtr)
		e.loadImm("%rax", int64(t.NextPC))
		e.line("movq %%rax, PC_OFFSET(%s)", statePtr)
		e.syncHotToState(false)
		e.line("movq %s, %%rdi", statePtr)
		e.callC("rv_syscall")
		e.reloadHotFromState(false)
		e.line("cmpl $0, HALTED_OFFSET(%s)", statePtr)
		e.line("jne asm_exit")
		e.jumpTo(t.NextPC)

	case ir.Break:
		e.line("movl $0, RES_VALID_OFFSET(%s)", statePtr)
		e.loadImm("%rax", int64(t.PC))
		e.line("movq %%rax, PC_OFFSET(%s)", statePtr)
		e.line("movl $-1, EXIT_CODE_OFFSET(%s)", statePtr)
		e.line("movl $1, HALTED_OFFSET(%s)", statePtr)
		e.line("jmp asm_exit")

	case ir.Halt:
		e.line("movl $0, RES_VALID_OFFSET(%s)", statePtr)
		if t.ExitCode == nil {
			e.line("movl $0, EXIT_CODE_OFFSET(%s)", statePtr)
		} else {
			e.eval(t.ExitCode)
			e.line("movl %%eax, EXIT_CODE_OFFSET(%s)", statePtr)
		}
		e.line("movl $1, HALTED_OFFSET(%s)", statePtr)
		e.line("jmp asm_exit")

	default:
		e.line("jmp asm_trap")
	}
}

// jumpTo emits a direct jmp to the block at pc, or to asm_trap when
// discovery never produced one there.
func (e *emitter) jumpTo(pc uint64) {
	e.line("jmp %s", e.targetLabel(pc))
}

func (e *emitter) targetLabel(pc uint64) string {
	if _, ok := e.blocks[pc]; ok {
		return pcLabel(pc)
	}
	return "asm_trap"
}

func branchInsn(c ir.Cond) string {
	switch c {
	case ir.CEq:
		return "je"
	case ir.CNe:
		return "jne"
	case ir.CLt:
		return "jl"
	case ir.CGe:
		return "jge"
	case ir.CLtu:
		return "jb"
	default:
		return "jae"
	}
}
