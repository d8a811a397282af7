package regalloc

import "github.com/shuklaayush/rvr/internal/ir"

// tempSlotSize is the fixed stack-slot width every IR temp gets, regardless
// of its declared Width — AMO/LR/SC/JALR intermediates must not be clobbered
// by narrower reuse, so slots are not packed by width.
const tempSlotSize = 8

// TempLayout assigns each IR temp in a block a byte offset within a
// dedicated spill area, separate from any stack space the backend uses for
// its own working values, so AMO/LR/SC/JALR intermediates are never
// clobbered by the backend's own spills.
type TempLayout struct {
	// Offsets[t] is t's byte offset from the base of the block's temp
	// spill area.
	Offsets []int
	// Size is the total byte size of the spill area this block needs.
	Size int
}

// LayoutTemps computes the fixed slot assignment for a block's temps. It is
// a pure function of NumTemps: temp t always lands at offset t*tempSlotSize,
// so the layout is identical across calls and never depends on a liveness
// computation.
func LayoutTemps(b *ir.Block) TempLayout {
	n := int(b.NumTemps)
	offsets := make([]int, n)
	for i := 0; i < n; i++ {
		offsets[i] = i * tempSlotSize
	}
	return TempLayout{Offsets: offsets, Size: n * tempSlotSize}
}
