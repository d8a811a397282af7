package cfg

import (
	"github.com/shuklaayush/rvr/internal/ir"
	"github.com/shuklaayush/rvr/internal/isa"
)

// maxJumpTableEntries bounds how many candidate targets recognizeJumpTable
// will read out of a recovered table before giving up, guarding against
// walking off the end of a table that looks valid but has no terminator.
const maxJumpTableEntries = 256

// recognizeJumpTable attempts to recover the static target set of the
// indirect jump terminating b, handling the common jump-table lowering
// (auipc materializing a table base, a word load plus add, then jalr). It
// re-decodes b's instructions looking for the AUIPC nearest the terminating
// jalr, then reads consecutive base-relative word offsets from that table
// until one decodes to an address outside the memory window or looks
// implausible as code (address not 2-byte aligned).
//
// This is a best-effort heuristic, not a disassembly-complete points-to
// analysis: a jalr whose block carries no AUIPC is reported unrecovered, and
// the caller (Analyzer.discover) falls back to a runtime dispatch table plus
// an IllegalPC trap, or to CfgUnresolved in strict mode.
func (a *Analyzer) recognizeJumpTable(b *ir.Block) ([]uint64, bool) {
	var auipcPC uint64
	var auipcImm int64
	found := false

	cur := b.PC
	for i := 0; i < b.InstrCount; i++ {
		instr, err := isa.Decode(a.Mem, cur, a.Xlen, a.Registry)
		if err != nil {
			return nil, false
		}
		if instr.Op == isa.OpAUIPC {
			auipcPC = cur
			auipcImm = instr.Imm
			found = true
		}
		cur += uint64(instr.Size)
	}
	if !found {
		return nil, false
	}

	base := uint64(int64(auipcPC) + auipcImm)

	var targets []uint64
	for i := 0; i < maxJumpTableEntries; i++ {
		entryAddr := base + uint64(i*4)
		if entryAddr+4 > uint64(len(a.Mem)) {
			break
		}
		word := uint32(a.Mem[entryAddr]) | uint32(a.Mem[entryAddr+1])<<8 |
			uint32(a.Mem[entryAddr+2])<<16 | uint32(a.Mem[entryAddr+3])<<24
		target := uint64(int64(base) + int64(int32(word)))
		if target%2 != 0 || target >= uint64(len(a.Mem)) {
			break
		}
		targets = append(targets, target)
	}
	if len(targets) == 0 {
		return nil, false
	}
	return targets, true
}
