package asmx86

import (
	"github.com/shuklaayush/rvr/internal/emit/layout"
)

// header writes the file preamble: state-record offsets as .set constants
// so the body reads symbolically, and the .text/.global directives for the
// rv_asm_run entry the companion runtime's run() calls.
func (e *emitter) header() {
	e.raw("# generated by rvr -- do not edit")
	e.raw(".code64")
	e.blank()
	e.line(".set PC_OFFSET, %d", layout.OffPC)
	e.line(".set RES_ADDR_OFFSET, %d", layout.OffResAddr)
	e.line(".set RES_VALID_OFFSET, %d", layout.OffResValid)
	e.line(".set INSTRET_OFFSET, %d", layout.OffInstret)
	e.line(".set CYCLE_OFFSET, %d", layout.OffCycle)
	e.line(".set EXIT_CODE_OFFSET, %d", layout.OffExitCode)
	e.line(".set HALTED_OFFSET, %d", layout.OffHalted)
	e.line(".set MEMORY_OFFSET, %d", layout.OffMem)
	e.blank()
	e.raw(".section .text")
	e.raw(".global rv_asm_run")
	e.raw(".type rv_asm_run, @function")
	e.blank()
}

// prologue saves the callee-saved registers, claims the state and memory
// pointers, reserves the temp-slot frame, loads the hot guest registers,
// and enters the translated code at state->pc via the jump table.
func (e *emitter) prologue() {
	e.label("rv_asm_run")
	e.line("pushq %%rbp")
	e.line("pushq %%rbx")
	e.line("pushq %%r12")
	e.line("pushq %%r13")
	e.line("pushq %%r14")
	e.line("pushq %%r15")
	e.line("subq $%d, %%rsp", e.tempBytes)
	e.blank()
	e.line("movq %%rdi, %s", statePtr)
	e.line("movq MEMORY_OFFSET(%s), %s", statePtr, memPtr)
	e.blank()
	e.reloadHotFromState(false)
	e.blank()
	e.line("movq PC_OFFSET(%s), %%rax", statePtr)
	e.dispatchJump()
	e.blank()
}

// epilogue writes asm_exit (flush hot registers, restore the frame, return)
// and asm_trap (halt with the IllegalPC exit mapping, then exit). Every
// path out of the translated code funnels through one of the two.
func (e *emitter) epilogue() {
	e.label("asm_exit")
	e.syncHotToState(false)
	e.line("addq $%d, %%rsp", e.tempBytes)
	e.line("popq %%r15")
	e.line("popq %%r14")
	e.line("popq %%r13")
	e.line("popq %%r12")
	e.line("popq %%rbx")
	e.line("popq %%rbp")
	e.line("ret")
	e.blank()

	e.label("asm_trap")
	e.line("movl $-2, EXIT_CODE_OFFSET(%s)", statePtr)
	e.line("movl $1, HALTED_OFFSET(%s)", statePtr)
	e.line("jmp asm_exit")
	e.blank()
}

// dispatchJump jumps through the jump table to the block whose PC is in
// %rax. Targets outside [TextStart, TextEnd) trap rather than indexing out
// of the table (a zero return address is the common offender). The table
// holds one entry per 2-byte slot for compressed-instruction support.
func (e *emitter) dispatchJump() {
	textSize := e.cfg.TextEnd - e.cfg.TextStart
	e.line("movq $0x%x, %%rdx", e.cfg.TextStart)
	e.line("subq %%rdx, %%rax")
	e.line("movq $0x%x, %%rdx", textSize)
	e.line("cmpq %%rdx, %%rax")
	e.line("jae asm_trap")
	e.line("shrq $1, %%rax")
	e.line("leaq jump_table(%%rip), %%rcx")
	e.line("movslq (%%rcx,%%rax,4), %%rax")
	e.line("addq %%rcx, %%rax")
	e.line("jmp *%%rax")
}

// jumpTable emits the .rodata table of label offsets, one 4-byte entry per
// 2-byte PC slot; slots with no discovered block resolve to asm_trap.
func (e *emitter) jumpTable() {
	e.raw(".section .rodata")
	e.raw(".align 4")
	e.label("jump_table")
	for pc := e.cfg.TextStart; pc < e.cfg.TextEnd; pc += 2 {
		if _, ok := e.blocks[pc]; ok {
			e.line(".long %s - jump_table", pcLabel(pc))
		} else {
			e.line(".long asm_trap - jump_table")
		}
	}
	e.blank()
}
