// Package asmx86 lowers a CFG+IR program into x86-64 assembly (AT&T
// syntax, GNU as) with label-threaded dispatch: every discovered block gets
// an asm_pc_<hex> label inside one exported rv_asm_run function, direct
// jumps become jmp instructions, and indirect jumps index a dense
// PC-keyed jump table. The backend performs no register
// inference: the hot guest registers internal/regalloc pins stay in host
// registers for the whole function, everything else is loaded and stored
// around each use through the guest-state record, and IR temps live in
// fixed stack slots below the frame.
//
// Memory, syscall, CSR, and division semantics are delegated to the
// companion runtime the C backend emits in AsmMode (internal/emit/c's
// EmitRuntime), so the two asm backends and the C backend share one
// definition of the tricky edge cases.
package asmx86

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

// Config controls the x86-64 backend's output.
type Config struct {
	// TextStart/TextEnd bound the dense jump table: one 4-byte entry per
	// 2-byte slot in [TextStart, TextEnd). Zero values derive the bounds
	// from the discovered blocks.
	TextStart uint64
	TextEnd   uint64
	// MemWindow is the guest memory window size; must be a power of two so
	// address masking is a single and instruction.
	MemWindow uint64
	// EmitComments prefixes blocks and statements with their guest PCs.
	EmitComments bool
}

const (
	statePtr = "%rbx"
	memPtr   = "%r15"
)

type emitter struct {
	w      *bufio.Writer
	cfg    Config
	xlen   isa.Xlen
	blocks map[uint64]*ir.Block
	hot    []regalloc.Slot

	labelCounter int
	// pushDepth tracks outstanding expression-stack pushes so temp-slot
	// offsets stay correct and calls can re-align %rsp to 16 bytes.
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
		hot:    regalloc.HotSet(regalloc.BackendX86),
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
	// The frame below the six saved registers must keep %rsp 16-aligned
	// once the temp area is reserved; 8 mod 16 compensates the return
	// address.
	e.tempBytes = maxTemps * 8
	if e.tempBytes%16 == 0 {
		e.tempBytes += 8
	}

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

// line emits one indented instruction line.
func (e *emitter) line(format string, args ...interface{}) {
	_, _ = io.WriteString(e.w, "    ")
	fmt.Fprintf(e.w, format, args...)
	_, _ = io.WriteString(e.w, "\n")
}

// raw emits an unindented directive or label line.
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
	_, _ = io.WriteString(e.w, "    # ")
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

// hotHost returns the host register guest register reg is pinned to, if
// any.
func (e *emitter) hotHost(reg uint8) (string, bool) {
	return regalloc.IsHot(regalloc.BackendX86, reg)
}

func (e *emitter) push(reg string) {
	e.line("pushq %s", reg)
	e.pushDepth++
}

func (e *emitter) pop(reg string) {
	e.line("popq %s", reg)
	e.pushDepth--
}

// tempSlot returns the %rsp-relative operand of IR temp idx, accounting
// for any expression values currently pushed above the temp area.
func (e *emitter) tempSlot(idx uint8) string {
	return fmt.Sprintf("%d(%%rsp)", int(idx)*8+e.pushDepth*8)
}

// syncHotToState stores pinned guest registers back to the state record.
// callerSavedOnly limits the sync to the hot hosts the System V ABI does
// not preserve across a call; a full sync is needed before any helper that
// reads guest registers out of the state record (rv_syscall).
func (e *emitter) syncHotToState(callerSavedOnly bool) {
	for _, s := range e.hot {
		if callerSavedOnly && calleeSaved(s.Host) {
			continue
		}
		e.line("movq %s, %d(%s)", s.Host, layout.RegOffset(s.GuestReg), statePtr)
	}
}

func (e *emitter) reloadHotFromState(callerSavedOnly bool) {
	for _, s := range e.hot {
		if callerSavedOnly && calleeSaved(s.Host) {
			continue
		}
		e.line("movq %d(%s), %s", layout.RegOffset(s.GuestReg), statePtr, s.Host)
	}
}

func calleeSaved(host string) bool {
	switch host {
	case "%rbp", "%r12", "%r13", "%r14":
		return true
	default:
		return false
	}
}

// callC emits a System V call to a companion-runtime helper, re-aligning
// %rsp to 16 bytes when the expression stack holds an odd number of pushes.
// It does not save hot registers itself; the paths that call helpers spill
// them to the state record and reload them around the call. Arguments must
// already be in the ABI registers.
func (e *emitter) callC(name string) {
	misaligned := e.pushDepth%2 == 1
	if misaligned {
		e.line("subq $8, %%rsp")
	}
	e.line("call %s", name)
	if misaligned {
		e.line("addq $8, %%rsp")
	}
}
