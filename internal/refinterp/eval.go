package refinterp

import (
	"math/bits"

	"github.com/shuklaayush/rvr/internal/ir"
)

// eval walks an expression tree and returns its 64-bit value. Every guest
// register is represented as an already width-canonicalized 64-bit value
// (sign-extended 32-bit on an RV32 target, per lift's canonicalize), so the
// arithmetic below is always done at full width and relies on Go's wrapping
// uint64 semantics to match RISC-V's modular arithmetic.
func (in *Interp) eval(e *ir.Expr) uint64 {
	if e == nil {
		return 0
	}
	switch e.Kind {
	case ir.EImm:
		return uint64(e.Imm)
	case ir.EReadReg:
		return in.State.ReadReg(e.Reg)
	case ir.EReadCsr:
		return in.readCsr(uint16(e.Imm))
	case ir.EReadTemp:
		return in.temps[e.Reg]
	case ir.EReadPC:
		return in.curPC

	case ir.EAdd:
		return in.eval(e.Left) + in.eval(e.Right)
	case ir.ESub:
		return in.eval(e.Left) - in.eval(e.Right)
	case ir.EMul:
		return in.eval(e.Left) * in.eval(e.Right)
	case ir.EMulH:
		return uint64(mulHiSigned(int64(in.eval(e.Left)), int64(in.eval(e.Right))))
	case ir.EMulHSU:
		return uint64(mulHiSignedUnsigned(int64(in.eval(e.Left)), in.eval(e.Right)))
	case ir.EMulHU:
		hi, _ := bits.Mul64(in.eval(e.Left), in.eval(e.Right))
		return hi

	case ir.EDiv:
		return uint64(divSigned(int64(in.eval(e.Left)), int64(in.eval(e.Right))))
	case ir.EDivU:
		return divUnsigned(in.eval(e.Left), in.eval(e.Right))
	case ir.ERem:
		return uint64(remSigned(int64(in.eval(e.Left)), int64(in.eval(e.Right))))
	case ir.ERemU:
		return remUnsigned(in.eval(e.Left), in.eval(e.Right))

	case ir.EAnd:
		return in.eval(e.Left) & in.eval(e.Right)
	case ir.EOr:
		return in.eval(e.Left) | in.eval(e.Right)
	case ir.EXor:
		return in.eval(e.Left) ^ in.eval(e.Right)
	case ir.ESll:
		return in.eval(e.Left) << (in.eval(e.Right) & 63)
	case ir.ESrl:
		return in.eval(e.Left) >> (in.eval(e.Right) & 63)
	case ir.ESra:
		return uint64(int64(in.eval(e.Left)) >> (in.eval(e.Right) & 63))
	case ir.ENot:
		return ^in.eval(e.Left)

	case ir.EEq:
		return boolU64(in.eval(e.Left) == in.eval(e.Right))
	case ir.ENe:
		return boolU64(in.eval(e.Left) != in.eval(e.Right))
	case ir.ELt:
		return boolU64(int64(in.eval(e.Left)) < int64(in.eval(e.Right)))
	case ir.EGe:
		return boolU64(int64(in.eval(e.Left)) >= int64(in.eval(e.Right)))
	case ir.ELtu:
		return boolU64(in.eval(e.Left) < in.eval(e.Right))
	case ir.EGeu:
		return boolU64(in.eval(e.Left) >= in.eval(e.Right))

	case ir.EAddW:
		return signExt32(uint32(in.eval(e.Left) + in.eval(e.Right)))
	case ir.ESubW:
		return signExt32(uint32(in.eval(e.Left) - in.eval(e.Right)))
	case ir.EMulW:
		return signExt32(uint32(in.eval(e.Left)) * uint32(in.eval(e.Right)))
	case ir.EDivW:
		return signExt32(uint32(divSigned32(int32(in.eval(e.Left)), int32(in.eval(e.Right)))))
	case ir.EDivUW:
		return signExt32(divUnsigned32(uint32(in.eval(e.Left)), uint32(in.eval(e.Right))))
	case ir.ERemW:
		return signExt32(uint32(remSigned32(int32(in.eval(e.Left)), int32(in.eval(e.Right)))))
	case ir.ERemUW:
		return signExt32(remUnsigned32(uint32(in.eval(e.Left)), uint32(in.eval(e.Right))))
	case ir.ESllW:
		return signExt32(uint32(in.eval(e.Left)) << (in.eval(e.Right) & 31))
	case ir.ESrlW:
		return signExt32(uint32(in.eval(e.Left)) >> (in.eval(e.Right) & 31))
	case ir.ESraW:
		return signExt32(uint32(int32(uint32(in.eval(e.Left))) >> (in.eval(e.Right) & 31)))

	case ir.ESext8:
		return uint64(int64(int8(in.eval(e.Left))))
	case ir.ESext16:
		return uint64(int64(int16(in.eval(e.Left))))
	case ir.ESext32:
		return signExt32(uint32(in.eval(e.Left)))
	case ir.EZext8:
		return uint64(uint8(in.eval(e.Left)))
	case ir.EZext16:
		return uint64(uint16(in.eval(e.Left)))
	case ir.EZext32:
		return uint64(uint32(in.eval(e.Left)))

	case ir.ESelect:
		if in.eval(e.Left) != 0 {
			return in.eval(e.Right)
		}
		return in.eval(e.Third)

	case ir.EAddrMasked:
		base := in.eval(e.Left)
		return in.State.Mem.Mask(base + uint64(e.Imm))
	case ir.ELoad:
		return in.readMem(in.eval(e.Left), e.Width, e.Signed)
	case ir.EReadResValid:
		return boolU64(in.State.ResValid)
	case ir.EReadResAddr:
		return in.State.ResAddr

	case ir.EClz:
		return uint64(leadingZeros(in.eval(e.Left), in.Xlen))
	case ir.ECtz:
		return uint64(trailingZeros(in.eval(e.Left), in.Xlen))
	case ir.ECpop:
		return uint64(bits.OnesCount64(in.eval(e.Left) & widthMaskXlen(in.Xlen)))
	case ir.EOrcB:
		return orCombine(in.eval(e.Left))
	case ir.ERev8:
		return bits.ReverseBytes64(in.eval(e.Left))
	case ir.EBrev8:
		return reverseBitsPerByte(in.eval(e.Left))
	case ir.EZip:
		return uint64(zip32(uint32(in.eval(e.Left))))
	case ir.EUnzip:
		return uint64(unzip32(uint32(in.eval(e.Left))))

	case ir.ERol:
		return rotate(in.eval(e.Left), int(in.eval(e.Right)), in.Xlen, true)
	case ir.ERor:
		return rotate(in.eval(e.Left), int(in.eval(e.Right)), in.Xlen, false)
	case ir.EBclr:
		idx := bitIndex(in.eval(e.Right), in.Xlen)
		return in.eval(e.Left) &^ (uint64(1) << idx)
	case ir.EBext:
		idx := bitIndex(in.eval(e.Right), in.Xlen)
		return (in.eval(e.Left) >> idx) & 1
	case ir.EBinv:
		idx := bitIndex(in.eval(e.Right), in.Xlen)
		return in.eval(e.Left) ^ (uint64(1) << idx)
	case ir.EBset:
		idx := bitIndex(in.eval(e.Right), in.Xlen)
		return in.eval(e.Left) | (uint64(1) << idx)

	case ir.EPack:
		return pack(in.eval(e.Left), in.eval(e.Right), in.Xlen)
	case ir.EPackH:
		return uint64(uint8(in.eval(e.Left))) | uint64(uint8(in.eval(e.Right)))<<8

	default:
		return 0
	}
}

func (in *Interp) readCsr(csr uint16) uint64 {
	switch csr {
	case 0xc00, 0xc01, 0xc02: // cycle, time, instret (low)
		return in.State.Instret
	case 0xc80, 0xc81, 0xc82: // *h shadows, RV32 only
		return in.State.Instret >> 32
	default:
		return in.State.Csr[csr]
	}
}

func boolU64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func signExt32(v uint32) uint64 { return uint64(int64(int32(v))) }
