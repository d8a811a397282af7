package emitc

import "github.com/shuklaayush/rvr/internal/ir"

// renderDispatchTable emits the function-pointer table an indirect jump
// (every IndirectJump terminator, which is what each JALR, returns included,
// lifts to) dispatches through at runtime, plus the rv_dispatch_indirect
// definition that walks it. The table is keyed on PC and populated with every
// discovered block's entry PC; unknown targets fall through to an
// illegal-PC runtime halt.
// A linear scan rather than a computed index since discovered PCs are
// sparse over the address space; the scan costs time proportional to the
// number of discovered blocks.
func (e *emitter) renderDispatchTable(blocks []*ir.Block) {
	e.writef("static const uint64_t rv_dispatch_pcs[%d] = {\n", len(blocks))
	for _, b := range blocks {
		e.writef("    UINT64_C(%#x),\n", b.PC)
	}
	e.write("};\n\n")

	e.write("typedef rv_blockcc void (*rv_block_fn)(struct rv_state *);\n\n")
	e.writef("static const rv_block_fn rv_dispatch_fns[%d] = {\n", len(blocks))
	for _, b := range blocks {
		e.writef("    %s,\n", blockName(b.PC, e.xlen))
	}
	e.write("};\n\n")

	e.write("rv_blockcc void rv_dispatch_indirect(struct rv_state *state) {\n")
	e.writef("    for (uint64_t i = 0; i < %d; i++) {\n", len(blocks))
	e.write("        if (rv_dispatch_pcs[i] == state->pc) {\n")
	e.write("            rv_musttail return rv_dispatch_fns[i](state);\n")
	e.write("        }\n")
	e.write("    }\n")
	e.write("    rv_trap(state, RV_TRAP_ILLEGAL);\n")
	e.write("}\n\n")
}
