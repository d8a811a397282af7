package cfg

import "github.com/shuklaayush/rvr/internal/ir"

// absorb runs fall-through absorption to a fixed point:
// a block whose sole predecessor ends in an unconditional Jump to it, and
// which has no other incoming edges, is concatenated into that predecessor
// and removed. Running this twice on an already-absorbed function is a
// no-op, since after one pass no block has exactly one Jump-only
// predecessor left to absorb into.
func absorb(fn *ir.Function, maxPassesPerBlock int) {
	maxPasses := len(fn.Blocks)*maxPassesPerBlock + 1
	for pass := 0; pass < maxPasses; pass++ {
		preds := predecessors(fn)
		changed := false
		for pc, block := range fn.Blocks {
			jmp, ok := block.Term.(ir.Jump)
			if !ok {
				continue
			}
			target := jmp.Target
			if target == pc {
				continue // self-loop, never absorbable
			}
			targetBlock, ok := fn.Blocks[target]
			if !ok {
				continue // target lives in another function or is unresolved
			}
			if len(preds[target]) != 1 || preds[target][0] != pc {
				continue // not the sole predecessor
			}
			block.Stmts = append(block.Stmts, targetBlock.Stmts...)
			block.Term = targetBlock.Term
			block.NumTemps = renumber(block, targetBlock)
			block.InstrCount += targetBlock.InstrCount
			delete(fn.Blocks, target)
			changed = true
		}
		if !changed {
			return
		}
	}
}

// predecessors maps each block PC to the list of block PCs whose terminator
// targets it, restricted to targets that are blocks of this same function
// (cross-function edges never participate in absorption).
func predecessors(fn *ir.Function) map[uint64][]uint64 {
	preds := map[uint64][]uint64{}
	for pc, block := range fn.Blocks {
		for _, t := range block.Term.Targets() {
			if _, ok := fn.Blocks[t]; ok {
				preds[t] = append(preds[t], pc)
			}
		}
	}
	return preds
}

// renumber shifts the absorbed block's temp numbers above the predecessor's
// existing range so TempAssign/ReadTemp pairs stay consistent after the two
// statement lists are concatenated into one block.
func renumber(pred, absorbed *ir.Block) uint8 {
	base := pred.NumTemps
	if absorbed.NumTemps == 0 {
		return base
	}
	shift := func(e *ir.Expr) {
		var walk func(*ir.Expr)
		walk = func(n *ir.Expr) {
			if n == nil {
				return
			}
			if n.Kind == ir.EReadTemp {
				n.Reg += base
			}
			walk(n.Left)
			walk(n.Right)
			walk(n.Third)
		}
		walk(e)
	}
	for i := len(pred.Stmts) - len(absorbed.Stmts); i < len(pred.Stmts); i++ {
		switch s := pred.Stmts[i].(type) {
		case ir.TempAssign:
			s.Temp += base
			shift(s.Value)
			pred.Stmts[i] = s
		case ir.WriteReg:
			shift(s.Value)
			pred.Stmts[i] = s
		case ir.WriteCsr:
			shift(s.Value)
			pred.Stmts[i] = s
		case ir.StoreMem:
			shift(s.Addr)
			shift(s.Value)
			pred.Stmts[i] = s
		case ir.CondStoreMem:
			shift(s.Cond)
			shift(s.Addr)
			shift(s.Value)
			pred.Stmts[i] = s
		case ir.ReservationSet:
			shift(s.Addr)
			pred.Stmts[i] = s
		case ir.TraceHook:
			for _, a := range s.Args {
				shift(a)
			}
		}
	}
	switch t := pred.Term.(type) {
	case ir.Branch:
		shift(t.Left)
		shift(t.Right)
		pred.Term = t
	case ir.IndirectJump:
		shift(t.Target)
		pred.Term = t
	case ir.Halt:
		if t.ExitCode != nil {
			shift(t.ExitCode)
			pred.Term = t
		}
	}
	return base + absorbed.NumTemps
}
