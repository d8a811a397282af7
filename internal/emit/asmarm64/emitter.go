// Package asmarm64 lowers a CFG+IR program into AArch64 assembly (GNU as)
// with the same label-threaded dispatch shape as the x86-64 backend: one
// exported rv_asm_run function containing an asm_pc_<hex> label per block,
// direct branches between blocks, and a dense PC-keyed jump table for
// indirect jumps. Register allocation is the fixed
// non-inferential policy: x19 holds the state pointer, x20 the memory base,
// x21-x28 pin the hot guest registers, and x0-x2 stay scratch. Before any
// two-operand evaluation the left value is spilled to the stack prior to
// evaluating the right side, which also satisfies the variable-shift rule
// (the host shift forms consume the left operand's register).
//
// All hot host registers are callee-saved, so calls into the companion
// runtime (rv_store*, rv_div64, rv_syscall and friends) need no spill
// except for rv_syscall, which reads and writes guest registers through the
// state record itself.
package asmarm64

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/shuklaayush/rvr/internal/emit/layout"
	"github.com/shuklaayush/rvr/internal/ir"
	"github.com/shuklaayush/rvr/internal/isa"
	"github.com/shuklaayush/rvr/internal/regalloc"
)

// Config controls the AArch64 backend's output.
type Config struct {
	// TextStart/TextEnd bound the dense jump table: one 4-byte entry per
	// 2-byte slot in [TextStart, TextEnd). Zero values derive the bounds
	// from the discovered blocks.
	TextStart uint64
	TextEnd   uint64
	// MemWindow is the guest memory window size; must be a power of two so
	// address masking is a single and instruction.
	MemWindow uint64
	// EmitComments prefixes blocks with their guest PCs.
	EmitComments bool
}

const (
	statePtr = "x19"
	memPtr   = "x20"
)

type emitter struct {
	w      *bufio.Writer
	cfg    Config
	xlen   isa.Xlen
	blocks map[uint64]*ir.Block
	hot    []regalloc.Slot

	labelCounter int
	// pushDepth counts outstanding 16-byte expression-stack pushes, so temp
	// slot offsets stay correct. sp remains 16-aligned at every point, as
	// the AArch64 ABI requires.
	pushDepth int
	tempBytes int
}

// EmitProgram writes a complete .s translation unit for prog to w.
func EmitProgram(w io.Writer, prog *ir.Program, xlen isa.Xlen, cfg Config) error {
	e := &emitter{
		w:      bufio.NewWriter(w),
		cfg:    cfg,
		xlen:   xlen,
		blocks: map[uint64]*ir.Block{},
		hot:    regalloc.HotSet(regalloc.BackendARM64),
	}

	maxTemps := 0
	for _, fn := range prog.Functions {
		for pc, b := range fn.Blocks {
			e.blocks[pc] = b
			if int(b.NumTemps) > maxTemps {
				maxTemps = int(b.NumTemps)
			}
		}
	}
	e.tempBytes = (maxTemps*8 + 15) &^ 15

	if cfg.TextStart == 0 && cfg.TextEnd == 0 && len(e.blocks) > 0 {
		e.cfg.TextStart, e.cfg.TextEnd = deriveTextRange(e.blocks)
	}

	e.header()
	e.prologue()

	for _, pc := range sortedPCs(e.blocks) {
		e.block(e.blocks[pc])
	}

	e.epilogue()
	e.jumpTable()

	return e.w.Flush()
}

func sortedPCs(blocks map[uint64]*ir.Block) []uint64 {
	pcs := make([]uint64, 0, len(blocks))
	for pc := range blocks {
		pcs = append(pcs, pc)
	}
	sort.Slice(pcs, func(i, j int) bool { return pcs[i] < pcs[j] })
	return pcs
}

func deriveTextRange(blocks map[uint64]*ir.Block) (uint64, uint64) {
	var lo, hi uint64
	first := true
	for pc, b := range blocks {
		end := pc + uint64(b.InstrCount)*4
		if first || pc < lo {
			lo = pc
		}
		if first || end > hi {
			hi = end
		}
		first = false
	}
	return lo, hi
}

func (e *emitter) line(format string, args ...interface{}) {
	_, _ = io.WriteString(e.w, "    ")
	fmt.Fprintf(e.w, format, args...)
	_, _ = io.WriteString(e.w, "\n")
}

func (e *emitter) raw(s string) {
	_, _ = io.WriteString(e.w, s)
	_, _ = io.WriteString(e.w, "\n")
}

func (e *emitter) label(name string) {
	_, _ = io.WriteString(e.w, name)
	_, _ = io.WriteString(e.w, ":\n")
}

func (e *emitter) comment(format string, args ...interface{}) {
	if !e.cfg.EmitComments {
		return
	}
	_, _ = io.WriteString(e.w, "    // ")
	fmt.Fprintf(e.w, format, args...)
	_, _ = io.WriteString(e.w, "\n")
}

func (e *emitter) blank() {
	_, _ = io.WriteString(e.w, "\n")
}

func (e *emitter) nextLabel(prefix string) string {
	e.labelCounter++
	return fmt.Sprintf(".L%s_%d", prefix, e.labelCounter)
}

func pcLabel(pc uint64) string {
	return fmt.Sprintf("asm_pc_%x", pc)
}

func (e *emitter) hotHost(reg uint8) (string, bool) {
	return regalloc.IsHot(regalloc.BackendARM64, reg)
}

// push spills x0 to a fresh 16-byte stack cell.
func (e *emitter) push() {
	e.line("str x0, [sp, #-16]!")
	e.pushDepth++
}

// pop restores the most recent spill into reg.
func (e *emitter) pop(reg string) {
	e.line("ldr %s, [sp], #16", reg)
	e.pushDepth--
}

// tempSlot returns the sp-relative operand of IR temp idx, accounting for
// any expression values currently pushed above the temp area.
func (e *emitter) tempSlot(idx uint8) string {
	return fmt.Sprintf("[sp, #%d]", int(idx)*8+e.pushDepth*16)
}

// syncHotToState stores the pinned guest registers back to the state
// record; needed only before rv_syscall, which inspects them there.
func (e *emitter) syncHotToState() {
	for _, s := range e.hot {
		e.line("str %s, [%s, #%d]", s.Host, statePtr, layout.RegOffset(s.GuestReg))
	}
}

func (e *emitter) reloadHotFromState() {
	for _, s := range e.hot {
		e.line("ldr %s, [%s, #%d]", s.Host, statePtr, layout.RegOffset(s.GuestReg))
	}
}
