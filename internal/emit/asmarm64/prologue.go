package asmarm64

import (
	"github.com/shuklaayush/rvr/internal/emit/layout"
)

// header writes the file preamble: the architecture directive, the
// state-record offsets as .set constants, and the .text/.global directives
// for the rv_asm_run entry the companion runtime's run() calls.
func (e *emitter) header() {
	e.raw("// generated by rvr -- do not edit")
	e.raw(".arch armv8-a")
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
	e.raw(".type rv_asm_run, %function")
	e.blank()
}

// prologue saves the frame pair and the callee-saved registers this backend
// claims, sets up the state and memory pointers, reserves the temp-slot
// frame, loads the hot guest registers, and enters the translated code at
// state->pc via the jump table.
func (e *emitter) prologue() {
	e.label("rv_asm_run")
	e.line("stp x29, x30, [sp, #-16]!")
	e.line("stp x19, x20, [sp, #-16]!")
	e.line("stp x21, x22, [sp, #-16]!")
	e.line("stp x23, x24, [sp, #-16]!")
	e.line("stp x25, x26, [sp, #-16]!")
	e.line("stp x27, x28, [sp, #-16]!")
	if e.tempBytes > 0 {
		e.line("sub sp, sp, #%d", e.tempBytes)
	}
	e.blank()

	e.line("mov %s, x0", statePtr)
	e.line("ldr %s, [%s, #MEMORY_OFFSET]", memPtr, statePtr)
	e.blank()

	e.reloadHotFromState()
	e.blank()

	e.line("ldr x0, [%s, #PC_OFFSET]", statePtr)
	e.dispatchJump()
	e.blank()
}

// epilogue writes asm_exit (flush hot registers, restore the frame, return)
// and asm_trap (halt with the IllegalPC exit mapping, then exit). Every
// path out of the translated code funnels through one of the two.
func (e *emitter) epilogue() {
	e.label("asm_exit")
	e.syncHotToState()
	if e.tempBytes > 0 {
		e.line("add sp, sp, #%d", e.tempBytes)
	}
	e.line("ldp x27, x28, [sp], #16")
	e.line("ldp x25, x26, [sp], #16")
	e.line("ldp x23, x24, [sp], #16")
	e.line("ldp x21, x22, [sp], #16")
	e.line("ldp x19, x20, [sp], #16")
	e.line("ldp x29, x30, [sp], #16")
	e.line("ret")
	e.blank()

	e.label("asm_trap")
	e.line("movn w1, #1")
	e.line("str w1, [%s, #EXIT_CODE_OFFSET]", statePtr)
	e.line("mov w1, #1")
	e.line("str w1, [%s, #HALTED_OFFSET]", statePtr)
	e.line("b asm_exit")
	e.blank()
}

// dispatchJump branches through the jump table to the block whose PC is in
// x0. Targets outside [TextStart, TextEnd) trap rather than indexing out of
// the table. The table holds one entry per 2-byte slot for
// compressed-instruction support; entries are signed 32-bit offsets from
// the table base.
func (e *emitter) dispatchJump() {
	textSize := e.cfg.TextEnd - e.cfg.TextStart
	e.loadImm("x1", e.cfg.TextStart)
	e.line("sub x0, x0, x1")
	e.loadImm("x1", textSize)
	e.line("cmp x0, x1")
	ok := e.nextLabel("dispatch_ok")
	e.line("b.lo %s", ok)
	e.line("b asm_trap")
	e.label(ok)
	e.line("lsr x0, x0, #1")
	e.line("adrp x1, jump_table")
	e.line("add x1, x1, :lo12:jump_table")
	e.line("ldr w2, [x1, x0, lsl #2]")
	e.line("add x0, x1, w2, sxtw")
	e.line("br x0")
}

// jumpTable emits the .rodata table of label offsets, one 4-byte entry per
// 2-byte PC slot; slots with no discovered block resolve to asm_trap.
func (e *emitter) jumpTable() {
	e.raw(".section .rodata")
	e.raw(".balign 4")
	e.label("jump_table")
	for pc := e.cfg.TextStart; pc < e.cfg.TextEnd; pc += 2 {
		if _, ok := e.blocks[pc]; ok {
			e.line(".word %s - jump_table", pcLabel(pc))
		} else {
			e.line(".word asm_trap - jump_table")
		}
	}
	e.blank()
}
