package emitc

import "github.com/shuklaayush/rvr/internal/ir"

// renderStmt writes one statement as a single C line. TempAssign declares a
// local C variable rather than reusing a slot, since blocks are small and
// the host compiler's own register allocator packs these far better than
// anything this package would gain by precomputing slot reuse.
func (e *emitter) renderStmt(s ir.Stmt) {
	switch st := s.(type) {
	case ir.WriteReg:
		if ir.IsRegZeroNoop(st) {
			return
		}
		e.writef("    state->x[%d] = %s;\n", st.Reg, renderExpr(st.Value))

	case ir.WriteCsr:
		e.writef("    rv_csr_write(state, 0x%x, %s);\n", st.Csr, renderExpr(st.Value))

	case ir.TempAssign:
		e.writef("    uint64_t t%d = %s;\n", st.Temp, renderExpr(st.Value))

	case ir.StoreMem:
		e.writef("    %s(state, %s, %s);\n", storeFn(st.Width), renderExpr(st.Addr), renderExpr(st.Value))
		e.haltCheck(st.Width)

	case ir.CondStoreMem:
		e.writef("    if (%s) { %s(state, %s, %s); }\n",
			renderExpr(st.Cond), storeFn(st.Width), renderExpr(st.Addr), renderExpr(st.Value))
		e.haltCheck(st.Width)

	case ir.ReservationSet:
		e.writef("    state->res_addr = %s; state->res_valid = 1;\n", renderExpr(st.Addr))

	case ir.ReservationClear:
		e.write("    state->res_valid = 0;\n")

	case ir.TraceHook:
		args := make([]string, 0, len(st.Args)+1)
		args = append(args, "state")
		for _, a := range st.Args {
			args = append(args, renderExpr(a))
		}
		e.writef("    %s(%s);\n", st.Kind, joinArgs(args))

	default:
		e.writef("    /* unhandled statement %T */\n", st)
	}
}

// haltCheck returns out of the block after a store wide enough to have hit
// the HTIF tohost mailbox; the terminator of a halted block must not run.
func (e *emitter) haltCheck(w ir.Width) {
	if w == ir.W32 || w == ir.W64 {
		e.write("    if (state->halted) { return; }\n")
	}
}

func storeFn(w ir.Width) string {
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

func joinArgs(args []string) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += ", "
		}
		out += a
	}
	return out
}
