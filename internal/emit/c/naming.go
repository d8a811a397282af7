package emitc

import (
	"fmt"

	"github.com/shuklaayush/rvr/internal/isa"
)

// blockName renders the C identifier for the block starting at pc: B_
// followed by pc in fixed-width hex (16 digits at XLEN64, 8 at XLEN32),
// so a generated file's names stay stable across minor CFG edits.
func blockName(pc uint64, xlen isa.Xlen) string {
	if xlen == isa.XLEN64 {
		return fmt.Sprintf("B_%016x", pc)
	}
	return fmt.Sprintf("B_%08x", pc)
}
