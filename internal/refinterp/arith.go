package refinterp

import (
	"math/bits"

	"github.com/shuklaayush/rvr/internal/isa"
)

// mulHiSigned returns the high 64 bits of the signed 128-bit product of a
// and b, via the standard unsigned-multiply correction (Hacker's Delight
// 8-2): compute the unsigned high word, then subtract b for a negative a and
// a for a negative b.
func mulHiSigned(a, b int64) int64 {
	hi, _ := bits.Mul64(uint64(a), uint64(b))
	if a < 0 {
		hi -= uint64(b)
	}
	if b < 0 {
		hi -= uint64(a)
	}
	return int64(hi)
}

// mulHiSignedUnsigned returns the high 64 bits of a (signed) times b
// (unsigned), the MULHSU contract.
func mulHiSignedUnsigned(a int64, b uint64) int64 {
	hi, _ := bits.Mul64(uint64(a), b)
	if a < 0 {
		hi -= b
	}
	return int64(hi)
}

// divSigned implements DIV's RISC-V contract: divide by
// zero yields -1, and MIN/-1 yields MIN rather than overflowing.
func divSigned(a, b int64) int64 {
	if b == 0 {
		return -1
	}
	if a == -1<<63 && b == -1 {
		return a
	}
	return a / b
}

func divUnsigned(a, b uint64) uint64 {
	if b == 0 {
		return ^uint64(0)
	}
	return a / b
}

// remSigned implements REM's contract: divide by zero yields the dividend,
// and MIN % -1 yields 0.
func remSigned(a, b int64) int64 {
	if b == 0 {
		return a
	}
	if a == -1<<63 && b == -1 {
		return 0
	}
	return a % b
}

func remUnsigned(a, b uint64) uint64 {
	if b == 0 {
		return a
	}
	return a % b
}

func divSigned32(a, b int32) int32 {
	if b == 0 {
		return -1
	}
	if a == -1<<31 && b == -1 {
		return a
	}
	return a / b
}

func divUnsigned32(a, b uint32) uint32 {
	if b == 0 {
		return ^uint32(0)
	}
	return a / b
}

func remSigned32(a, b int32) int32 {
	if b == 0 {
		return a
	}
	if a == -1<<31 && b == -1 {
		return 0
	}
	return a % b
}

func remUnsigned32(a, b uint32) uint32 {
	if b == 0 {
		return a
	}
	return a % b
}

// xlenBits returns 32 or 64, matching the active register width.
func xlenBits(x isa.Xlen) uint {
	if x == isa.XLEN64 {
		return 64
	}
	return 32
}

func widthMaskXlen(x isa.Xlen) uint64 {
	if x == isa.XLEN64 {
		return ^uint64(0)
	}
	return (uint64(1) << 32) - 1
}

func leadingZeros(v uint64, x isa.Xlen) int {
	if x == isa.XLEN32 {
		return bits.LeadingZeros32(uint32(v))
	}
	return bits.LeadingZeros64(v)
}

func trailingZeros(v uint64, x isa.Xlen) int {
	if x == isa.XLEN32 {
		return bits.TrailingZeros32(uint32(v))
	}
	return bits.TrailingZeros64(v)
}

// orCombine implements Zbb's ORC.B: each byte of the result is all-ones if
// the corresponding input byte is nonzero, all-zero otherwise.
func orCombine(v uint64) uint64 {
	var out uint64
	for i := 0; i < 8; i++ {
		b := byte(v >> (8 * i))
		if b != 0 {
			out |= uint64(0xff) << (8 * i)
		}
	}
	return out
}

// reverseBitsPerByte implements Zbkb's BREV8: reverse the bits within each
// byte, leaving byte order unchanged (unlike REV8, which reverses byte
// order and leaves bit order within a byte unchanged).
func reverseBitsPerByte(v uint64) uint64 {
	var out uint64
	for i := 0; i < 8; i++ {
		b := byte(v >> (8 * i))
		out |= uint64(bits.Reverse8(b)) << (8 * i)
	}
	return out
}

// zip32/unzip32 implement Zbkb's ZIP/UNZIP, defined only on the low 32 bits
// of the operand: ZIP interleaves the low and high halfwords bit by bit,
// UNZIP is its inverse.
func zip32(v uint32) uint32 {
	var out uint32
	for i := 0; i < 16; i++ {
		lo := (v >> i) & 1
		hi := (v >> (i + 16)) & 1
		out |= lo << (2 * i)
		out |= hi << (2*i + 1)
	}
	return out
}

func unzip32(v uint32) uint32 {
	var even, odd uint32
	for i := 0; i < 16; i++ {
		even |= ((v >> (2 * i)) & 1) << i
		odd |= ((v >> (2*i + 1)) & 1) << i
	}
	return even | (odd << 16)
}

func rotate(v uint64, amount int, x isa.Xlen, left bool) uint64 {
	n := int(xlenBits(x))
	amount %= n
	if !left {
		amount = -amount
	}
	if x == isa.XLEN32 {
		return uint64(bits.RotateLeft32(uint32(v), amount))
	}
	return bits.RotateLeft64(v, amount)
}

func bitIndex(v uint64, x isa.Xlen) uint64 {
	return v & uint64(xlenBits(x)-1)
}

// pack implements Zbkb's PACK: the low half of a in the result's low half,
// the low half of b in the result's high half, half being XLEN/2 bits.
func pack(a, b uint64, x isa.Xlen) uint64 {
	half := xlenBits(x) / 2
	mask := (uint64(1) << half) - 1
	return (a & mask) | ((b & mask) << half)
}
