// Package emitc lowers a CFG+IR program into portable C with tail-call
// dispatch between blocks. Each discovered block becomes
// one C function; branches and unconditional jumps become attributed tail
// calls to the next block's function, relying on the host compiler to
// perform the tail-call optimization rather than growing the C call stack
// one guest basic block at a time. Output is hand-formatted with direct
// bufio.Writer writes rather than a template engine.
package emitc

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/shuklaayush/rvr/internal/ir"
	"github.com/shuklaayush/rvr/internal/isa"
)

// Config controls the C backend's output.
type Config struct {
	// EmitComments prefixes each rendered block with a "// block <pc>, <n>
	// guest instructions" comment; individual instructions get no comment.
	EmitComments bool
	// TracerHeader names the header the generated C #includes for its
	// rv_trace_* calls. Empty defaults to "rv_tracer.h", paired with the
	// stub this package also knows how to emit (WriteTracerStub).
	TracerHeader string
	// FixedAddresses attaches a nonnull(1) attribute to the state-pointer
	// parameter when the guest is always loaded at fixed addresses (so
	// state is never null).
	FixedAddresses bool
}

func (c Config) tracerHeader() string {
	if c.TracerHeader == "" {
		return "rv_tracer.h"
	}
	return c.TracerHeader
}

// emitter holds the writer and config for one EmitProgram call. It carries
// no state across calls, matching the "no internal concurrency, no shared
// mutable state" resource model.
type emitter struct {
	w    *bufio.Writer
	cfg  Config
	xlen isa.Xlen
}

func (e *emitter) write(s string) {
	_, _ = io.WriteString(e.w, s)
}

func (e *emitter) writef(format string, args ...interface{}) {
	fmt.Fprintf(e.w, format, args...)
}

// EmitProgram writes a complete translation unit for prog to w: the
// includes/state declarations, one function per discovered block, the
// indirect-jump dispatch table, and one rv_entry_ trampoline per program
// entry point.
func EmitProgram(w io.Writer, prog *ir.Program, xlen isa.Xlen, cfg Config) error {
	e := &emitter{w: bufio.NewWriter(w), cfg: cfg, xlen: xlen}

	e.writeHeader()

	blocks := collectBlocks(prog)
	e.forwardDeclare(blocks)

	for _, b := range blocks {
		e.renderBlock(b)
	}

	e.renderDispatchTable(blocks)
	e.renderEntryThunks(prog)

	return e.w.Flush()
}

// collectBlocks flattens every function's blocks into one PC-sorted slice,
// the order blocks are forward-declared and defined in the output file.
func collectBlocks(prog *ir.Program) []*ir.Block {
	var blocks []*ir.Block
	for _, fn := range prog.Functions {
		for _, b := range fn.Blocks {
			blocks = append(blocks, b)
		}
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].PC < blocks[j].PC })
	return blocks
}

func (e *emitter) writeHeader() {
	e.writef("/* generated by rvr -- do not edit */\n")
	e.writef("#include <stdint.h>\n")
	e.writef("#include \"%s\"\n\n", e.cfg.tracerHeader())
}

func (e *emitter) forwardDeclare(blocks []*ir.Block) {
	for _, b := range blocks {
		e.writef("rv_blockcc static void %s(struct rv_state *state);\n", blockName(b.PC, e.xlen))
	}
	e.write("\n")
}

// renderEntryThunks emits one non-static trampoline per program entry point
// (ELF entry + exported symbols). internal/hostlib does not look these up;
// it resolves only initialize and run.
func (e *emitter) renderEntryThunks(prog *ir.Program) {
	for _, pc := range prog.EntryPoints {
		e.writef("void rv_entry_%s(struct rv_state *state) {\n", blockName(pc, e.xlen))
		e.writef("    %s(state);\n", blockName(pc, e.xlen))
		e.write("}\n\n")
	}
}
