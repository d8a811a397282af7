package emitc

import (
	"fmt"

	"github.com/shuklaayush/rvr/internal/ir"
)

// renderExpr renders e as a C expression of type uint64_t. Every guest
// value is carried in a uint64_t host cell regardless of its logical
// width, matching the IR's own "temps carry a width tag but the container
// is always 64 bits" representation; sign-dependent
// operators cast to int64_t locally rather than changing the cell's type.
func renderExpr(e *ir.Expr) string {
	if e == nil {
		return "0"
	}
	switch e.Kind {
	case ir.EImm:
		return fmt.Sprintf("UINT64_C(%d)", uint64(e.Imm))
	case ir.EReadReg:
		return fmt.Sprintf("state->x[%d]", e.Reg)
	case ir.EReadCsr:
		return fmt.Sprintf("rv_csr_read(state, 0x%x)", uint16(e.Imm))
	case ir.EReadTemp:
		return fmt.Sprintf("t%d", e.Reg)
	case ir.EReadPC:
		return "state->pc"

	case ir.EAdd:
		return binop(e, "+")
	case ir.ESub:
		return binop(e, "-")
	case ir.EMul:
		return binop(e, "*")
	case ir.EMulH:
		return fmt.Sprintf("(uint64_t)(((__int128)(int64_t)(%s) * (__int128)(int64_t)(%s)) >> 64)",
			renderExpr(e.Left), renderExpr(e.Right))
	case ir.EMulHSU:
		return fmt.Sprintf("(uint64_t)(((__int128)(int64_t)(%s) * (unsigned __int128)(%s)) >> 64)",
			renderExpr(e.Left), renderExpr(e.Right))
	case ir.EMulHU:
		return fmt.Sprintf("(uint64_t)(((unsigned __int128)(%s) * (unsigned __int128)(%s)) >> 64)",
			renderExpr(e.Left), renderExpr(e.Right))

	case ir.EDiv:
		return fmt.Sprintf("rv_div64(%s, %s)", renderExpr(e.Left), renderExpr(e.Right))
	case ir.EDivU:
		return fmt.Sprintf("rv_divu64(%s, %s)", renderExpr(e.Left), renderExpr(e.Right))
	case ir.ERem:
		return fmt.Sprintf("rv_rem64(%s, %s)", renderExpr(e.Left), renderExpr(e.Right))
	case ir.ERemU:
		return fmt.Sprintf("rv_remu64(%s, %s)", renderExpr(e.Left), renderExpr(e.Right))

	case ir.EAnd:
		return binop(e, "&")
	case ir.EOr:
		return binop(e, "|")
	case ir.EXor:
		return binop(e, "^")
	case ir.ESll:
		return fmt.Sprintf("(%s << (%s & 63))", renderExpr(e.Left), renderExpr(e.Right))
	case ir.ESrl:
		return fmt.Sprintf("(%s >> (%s & 63))", renderExpr(e.Left), renderExpr(e.Right))
	case ir.ESra:
		return fmt.Sprintf("(uint64_t)((int64_t)(%s) >> (%s & 63))", renderExpr(e.Left), renderExpr(e.Right))
	case ir.ENot:
		return fmt.Sprintf("(~(%s))", renderExpr(e.Left))

	case ir.EEq:
		return cmp(e, "==")
	case ir.ENe:
		return cmp(e, "!=")
	case ir.ELt:
		return fmt.Sprintf("((int64_t)(%s) < (int64_t)(%s))", renderExpr(e.Left), renderExpr(e.Right))
	case ir.EGe:
		return fmt.Sprintf("((int64_t)(%s) >= (int64_t)(%s))", renderExpr(e.Left), renderExpr(e.Right))
	case ir.ELtu:
		return cmp(e, "<")
	case ir.EGeu:
		return cmp(e, ">=")

	case ir.EAddW:
		return wOp(e, "+")
	case ir.ESubW:
		return wOp(e, "-")
	case ir.EMulW:
		return wOp(e, "*")
	case ir.EDivW:
		return fmt.Sprintf("(uint64_t)rv_divw(%s, %s)", render32(e.Left), render32(e.Right))
	case ir.EDivUW:
		return fmt.Sprintf("(uint64_t)(int32_t)rv_divuw((uint32_t)(%s), (uint32_t)(%s))", renderExpr(e.Left), renderExpr(e.Right))
	case ir.ERemW:
		return fmt.Sprintf("(uint64_t)rv_remw(%s, %s)", render32(e.Left), render32(e.Right))
	case ir.ERemUW:
		return fmt.Sprintf("(uint64_t)(int32_t)rv_remuw((uint32_t)(%s), (uint32_t)(%s))", renderExpr(e.Left), renderExpr(e.Right))
	case ir.ESllW:
		return fmt.Sprintf("(uint64_t)(int32_t)(((uint32_t)(%s)) << (%s & 31))", renderExpr(e.Left), renderExpr(e.Right))
	case ir.ESrlW:
		return fmt.Sprintf("(uint64_t)(int32_t)(((uint32_t)(%s)) >> (%s & 31))", renderExpr(e.Left), renderExpr(e.Right))
	case ir.ESraW:
		return fmt.Sprintf("(uint64_t)(int64_t)(((int32_t)(%s)) >> (%s & 31))", renderExpr(e.Left), renderExpr(e.Right))

	case ir.ESext8:
		return fmt.Sprintf("(uint64_t)(int64_t)(int8_t)(%s)", renderExpr(e.Left))
	case ir.ESext16:
		return fmt.Sprintf("(uint64_t)(int64_t)(int16_t)(%s)", renderExpr(e.Left))
	case ir.ESext32:
		return fmt.Sprintf("(uint64_t)(int64_t)(int32_t)(%s)", renderExpr(e.Left))
	case ir.EZext8:
		return fmt.Sprintf("(uint64_t)(uint8_t)(%s)", renderExpr(e.Left))
	case ir.EZext16:
		return fmt.Sprintf("(uint64_t)(uint16_t)(%s)", renderExpr(e.Left))
	case ir.EZext32:
		return fmt.Sprintf("(uint64_t)(uint32_t)(%s)", renderExpr(e.Left))

	case ir.ESelect:
		return fmt.Sprintf("((%s) ? (%s) : (%s))", renderExpr(e.Left), renderExpr(e.Right), renderExpr(e.Third))

	case ir.EAddrMasked:
		return fmt.Sprintf("rv_mask(state, (%s) + UINT64_C(%d))", renderExpr(e.Left), uint64(e.Imm))
	case ir.ELoad:
		return fmt.Sprintf("%s(state, %s)", loadFn(e.Width, e.Signed), renderExpr(e.Left))
	case ir.EReadResValid:
		return "state->res_valid"
	case ir.EReadResAddr:
		return "state->res_addr"

	case ir.EClz:
		return fmt.Sprintf("rv_clz(%s)", renderExpr(e.Left))
	case ir.ECtz:
		return fmt.Sprintf("rv_ctz(%s)", renderExpr(e.Left))
	case ir.ECpop:
		return fmt.Sprintf("(uint64_t)__builtin_popcountll(%s)", renderExpr(e.Left))
	case ir.EOrcB:
		return fmt.Sprintf("rv_orc_b(%s)", renderExpr(e.Left))
	case ir.ERev8:
		return fmt.Sprintf("__builtin_bswap64(%s)", renderExpr(e.Left))
	case ir.EBrev8:
		return fmt.Sprintf("rv_brev8(%s)", renderExpr(e.Left))
	case ir.EZip:
		return fmt.Sprintf("rv_zip32((uint32_t)(%s))", renderExpr(e.Left))
	case ir.EUnzip:
		return fmt.Sprintf("rv_unzip32((uint32_t)(%s))", renderExpr(e.Left))

	case ir.ERol:
		return fmt.Sprintf("rv_rol(%s, %s)", renderExpr(e.Left), renderExpr(e.Right))
	case ir.ERor:
		return fmt.Sprintf("rv_ror(%s, %s)", renderExpr(e.Left), renderExpr(e.Right))
	case ir.EBclr:
		return fmt.Sprintf("(%s & ~(UINT64_C(1) << (%s & 63)))", renderExpr(e.Left), renderExpr(e.Right))
	case ir.EBext:
		return fmt.Sprintf("((%s >> (%s & 63)) & 1)", renderExpr(e.Left), renderExpr(e.Right))
	case ir.EBinv:
		return fmt.Sprintf("(%s ^ (UINT64_C(1) << (%s & 63)))", renderExpr(e.Left), renderExpr(e.Right))
	case ir.EBset:
		return fmt.Sprintf("(%s | (UINT64_C(1) << (%s & 63)))", renderExpr(e.Left), renderExpr(e.Right))
	case ir.EPack:
		return fmt.Sprintf("rv_pack(%s, %s)", renderExpr(e.Left), renderExpr(e.Right))
	case ir.EPackH:
		return fmt.Sprintf("(((%s) & 0xff) | (((%s) & 0xff) << 8))", renderExpr(e.Left), renderExpr(e.Right))

	default:
		return "0 /* unhandled expr kind */"
	}
}

func binop(e *ir.Expr, op string) string {
	return fmt.Sprintf("(%s %s %s)", renderExpr(e.Left), op, renderExpr(e.Right))
}

func cmp(e *ir.Expr, op string) string {
	return fmt.Sprintf("((%s %s %s) ? 1 : 0)", renderExpr(e.Left), op, renderExpr(e.Right))
}

func render32(e *ir.Expr) string {
	return fmt.Sprintf("(int32_t)(%s)", renderExpr(e))
}

// wOp renders a *W arithmetic op: compute at 32 bits, sign-extend the
// result back to 64, the RV64 rule that 32-bit ops always produce a
// sign-extended 64-bit result.
func wOp(e *ir.Expr, op string) string {
	return fmt.Sprintf("(uint64_t)(int64_t)(int32_t)(((uint32_t)(%s)) %s ((uint32_t)(%s)))",
		renderExpr(e.Left), op, renderExpr(e.Right))
}

func loadFn(w ir.Width, signed bool) string {
	switch {
	case w == ir.W8 && signed:
		return "rv_load8s"
	case w == ir.W8:
		return "rv_load8u"
	case w == ir.W16 && signed:
		return "rv_load16s"
	case w == ir.W16:
		return "rv_load16u"
	case w == ir.W32 && signed:
		return "rv_load32s"
	case w == ir.W32:
		return "rv_load32u"
	default:
		return "rv_load64"
	}
}
