package emitc

import (
	"github.com/shuklaayush/rvr/internal/ir"
)

// renderBlock writes one block as a C function: a fixed (state*) signature
// attributed to require tail-call optimization on its terminating call,
// a body of straight-line statements, and a terminator
// rendered as either a tail call to the next block, a tail call into the
// syscall/trap runtime entry points, or a plain return on Halt.
func (e *emitter) renderBlock(b *ir.Block) {
	name := blockName(b.PC, e.xlen)
	attr := "rv_blockcc"
	if e.cfg.FixedAddresses {
		attr = "rv_blockcc __attribute__((nonnull(1)))"
	}
	if e.cfg.EmitComments {
		e.writef("// block %#x, %d guest instructions\n", b.PC, b.InstrCount)
	}
	e.writef("%s\nstatic void %s(struct rv_state *state) {\n", attr, name)
	e.writef("    rv_trace_block(state, UINT64_C(%#x));\n", b.PC)

	for _, s := range b.Stmts {
		e.renderStmt(s)
	}
	e.writef("    state->instret += %d;\n", b.InstrCount)
	e.writef("    state->cycle += %d;\n", b.InstrCount)

	e.renderTerminator(b)
	e.write("}\n\n")
}

func (e *emitter) renderTerminator(b *ir.Block) {
	switch term := b.Term.(type) {
	case ir.Jump:
		e.tailCall(blockName(term.Target, e.xlen))

	case ir.Branch:
		e.writef("    if (%s) {\n", condExpr(term))
		e.writef("        rv_trace_branch_taken(state, UINT64_C(%#x), UINT64_C(%#x));\n", b.PC, term.Then)
		e.write("    ")
		e.tailCall(blockName(term.Then, e.xlen))
		e.write("    } else {\n")
		e.writef("        rv_trace_branch_not_taken(state, UINT64_C(%#x));\n", b.PC)
		e.write("    ")
		e.tailCall(blockName(term.Else, e.xlen))
		e.write("    }\n")

	case ir.IndirectJump:
		e.write("    state->res_valid = 0;\n")
		e.writef("    state->pc = %s;\n", renderExpr(term.Target))
		e.write("    rv_musttail return rv_dispatch_indirect(state);\n")

	case ir.Syscall:
		e.write("    state->res_valid = 0;\n")
		e.writef("    state->pc = UINT64_C(%#x);\n", term.NextPC)
		e.write("    rv_musttail return rv_syscall(state);\n")

	case ir.Break:
		e.write("    state->res_valid = 0;\n")
		e.writef("    state->pc = UINT64_C(%#x);\n", term.PC)
		e.write("    rv_trap(state, RV_TRAP_BREAKPOINT);\n")
		e.write("    return;\n")

	case ir.Halt:
		e.write("    state->res_valid = 0;\n")
		if term.ExitCode != nil {
			e.writef("    state->exit_code = (int32_t)(%s);\n", renderExpr(term.ExitCode))
		}
		e.write("    state->halted = 1;\n")
		e.write("    return;\n")

	default:
		e.write("    /* unhandled terminator */\n")
	}
}

func condExpr(b ir.Branch) string {
	cond := cmpFor(b.Cond)
	return cond(renderExpr(b.Left), renderExpr(b.Right))
}

func cmpFor(c ir.Cond) func(l, r string) string {
	wrap := func(op string, signed bool) func(l, r string) string {
		return func(l, r string) string {
			if signed {
				return "((int64_t)(" + l + ") " + op + " (int64_t)(" + r + "))"
			}
			return "(" + l + " " + op + " " + r + ")"
		}
	}
	switch c {
	case ir.CEq:
		return wrap("==", false)
	case ir.CNe:
		return wrap("!=", false)
	case ir.CLt:
		return wrap("<", true)
	case ir.CGe:
		return wrap(">=", true)
	case ir.CLtu:
		return wrap("<", false)
	case ir.CGeu:
		return wrap(">=", false)
	default:
		return wrap("==", false)
	}
}

// tailCall emits a return-through-tail-call, using rv_musttail as the
// portable spelling of whichever compiler attribute ([[clang::musttail]] or
// GCC's musttail) the runtime header's rv_tracer.h defines for the build
// compiler in use.
func (e *emitter) tailCall(target string) {
	e.writef("rv_musttail return %s(state);\n", target)
}
